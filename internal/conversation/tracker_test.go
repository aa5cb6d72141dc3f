package conversation

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestStartDuplicate(t *testing.T) {
	t.Parallel()
	tr := NewTracker()

	if _, err := tr.Start("CA1", "+15550100"); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	if _, err := tr.Start("CA1", "+15550100"); err == nil {
		t.Fatal("second Start for same call ID should fail")
	}
}

func TestAppendAndHistory(t *testing.T) {
	t.Parallel()
	tr := NewTracker()
	tr.Start("CA1", "+15550100")

	tr.Append("CA1", RoleUser, "what is my balance")
	tr.Append("CA1", RoleAssistant, "Your current balance is $1000.00.")

	msgs, ok := tr.History("CA1")
	if !ok {
		t.Fatal("History should find active call")
	}
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}
	if msgs[0].Role != RoleUser || msgs[1].Role != RoleAssistant {
		t.Fatalf("roles out of order: %v, %v", msgs[0].Role, msgs[1].Role)
	}
}

func TestAppendInactiveDropped(t *testing.T) {
	t.Parallel()
	tr := NewTracker()

	// Never started.
	tr.Append("CA-unknown", RoleUser, "hello")

	// Already completed: the late append must not resurrect it.
	tr.Start("CA1", "+15550100")
	tr.Append("CA1", RoleUser, "goodbye")
	tr.Complete("CA1", EndGoodbye)
	tr.Append("CA1", RoleAssistant, "late reply")

	c, ok := tr.Get("CA1")
	if !ok {
		t.Fatal("completed conversation should be retrievable")
	}
	if len(c.Messages) != 1 {
		t.Fatalf("got %d messages, want 1 (late append must be dropped)", len(c.Messages))
	}
	if len(tr.Active()) != 0 {
		t.Fatal("no conversation should be active")
	}
}

func TestCompleteIdempotent(t *testing.T) {
	t.Parallel()
	tr := NewTracker()
	tr.Start("CA1", "+15550100")

	if !tr.Complete("CA1", EndGoodbye) {
		t.Fatal("first Complete should move the conversation")
	}
	if tr.Complete("CA1", EndStop) {
		t.Fatal("second Complete should be a no-op")
	}

	done := tr.Completed(0)
	if len(done) != 1 {
		t.Fatalf("got %d completed entries, want 1", len(done))
	}
	if done[0].EndReason != EndGoodbye {
		t.Fatalf("end reason = %q, want %q (first completion wins)", done[0].EndReason, EndGoodbye)
	}
	if done[0].EndedAt.IsZero() {
		t.Fatal("EndedAt should be stamped")
	}
}

func TestCompletedRingEviction(t *testing.T) {
	t.Parallel()
	tr := NewTracker(WithCompletedCapacity(3))

	for i := 0; i < 5; i++ {
		id := fmt.Sprintf("CA%d", i)
		tr.Start(id, "+15550100")
		tr.Complete(id, EndGoodbye)
	}

	done := tr.Completed(0)
	if len(done) != 3 {
		t.Fatalf("got %d retained entries, want 3", len(done))
	}
	// Most recent first; CA0 and CA1 evicted.
	want := []string{"CA4", "CA3", "CA2"}
	for i, id := range want {
		if done[i].CallID != id {
			t.Errorf("done[%d] = %q, want %q", i, done[i].CallID, id)
		}
	}
	if _, ok := tr.Get("CA0"); ok {
		t.Fatal("evicted conversation should not be retrievable")
	}
}

func TestCompletedLimit(t *testing.T) {
	t.Parallel()
	tr := NewTracker()
	for i := 0; i < 4; i++ {
		id := fmt.Sprintf("CA%d", i)
		tr.Start(id, "+15550100")
		tr.Complete(id, EndStop)
	}

	done := tr.Completed(2)
	if len(done) != 2 {
		t.Fatalf("got %d entries, want 2", len(done))
	}
	if done[0].CallID != "CA3" || done[1].CallID != "CA2" {
		t.Fatalf("want most recent first, got %q then %q", done[0].CallID, done[1].CallID)
	}
}

func TestSweepStale(t *testing.T) {
	t.Parallel()
	now := time.Now()
	clock := now
	tr := NewTracker(WithClock(func() time.Time { return clock }))

	tr.Start("CA-old", "+15550100")
	clock = now.Add(3 * time.Minute)
	tr.Start("CA-new", "+15550101")
	clock = now.Add(5 * time.Minute)

	moved := tr.SweepStale(4 * time.Minute)
	if len(moved) != 1 || moved[0] != "CA-old" {
		t.Fatalf("moved = %v, want [CA-old]", moved)
	}

	c, ok := tr.Get("CA-old")
	if !ok || c.EndReason != EndStale {
		t.Fatalf("swept conversation should be completed with reason stale, got %+v", c)
	}
	if _, ok := tr.History("CA-new"); !ok {
		t.Fatal("young conversation should remain active")
	}

	// Exactly at the boundary is not yet stale.
	if moved := tr.SweepStale(2 * time.Minute); len(moved) != 0 {
		t.Fatalf("boundary sweep moved %v, want none", moved)
	}
}

func TestStats(t *testing.T) {
	t.Parallel()
	now := time.Now()
	clock := now
	tr := NewTracker(WithClock(func() time.Time { return clock }))

	tr.Start("CA1", "+15550100")
	tr.Start("CA2", "+15550101")
	clock = now.Add(10 * time.Second)
	tr.Complete("CA1", EndGoodbye)

	s := tr.Stats()
	if s.Active != 1 || s.Completed != 1 {
		t.Fatalf("stats = %+v, want 1 active / 1 completed", s)
	}
	if s.AvgDurationSecs != 10 {
		t.Fatalf("avg duration = %v, want 10", s.AvgDurationSecs)
	}
}

func TestConcurrentAppend(t *testing.T) {
	t.Parallel()
	tr := NewTracker()
	tr.Start("CA1", "+15550100")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr.Append("CA1", RoleUser, "hi")
		}()
	}
	wg.Wait()

	msgs, _ := tr.History("CA1")
	if len(msgs) != 20 {
		t.Fatalf("got %d messages, want 20", len(msgs))
	}
}
