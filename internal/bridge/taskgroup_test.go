package bridge

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestTaskGroupDrainWaitsForTasks(t *testing.T) {
	t.Parallel()

	g := NewTaskGroup("CA1")
	var done atomic.Int32
	release := make(chan struct{})
	for i := 0; i < 3; i++ {
		if ok := g.Go(func() {
			<-release
			done.Add(1)
		}); !ok {
			t.Fatal("task rejected before release")
		}
	}
	if got := g.Pending(); got != 3 {
		t.Fatalf("Pending() = %d, want 3", got)
	}

	close(release)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := g.Drain(ctx); err != nil {
		t.Fatalf("Drain() = %v", err)
	}
	if got := done.Load(); got != 3 {
		t.Fatalf("completed tasks = %d, want 3", got)
	}
	if got := g.Pending(); got != 0 {
		t.Fatalf("Pending() after drain = %d, want 0", got)
	}
}

func TestTaskGroupDrainTimeout(t *testing.T) {
	t.Parallel()

	g := NewTaskGroup("CA2")
	release := make(chan struct{})
	defer close(release)
	g.Go(func() { <-release })

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := g.Drain(ctx); err == nil {
		t.Fatal("Drain() = nil, want deadline error")
	}
	if got := g.Pending(); got != 1 {
		t.Fatalf("Pending() = %d, want 1 (task keeps running)", got)
	}
}

func TestTaskGroupRejectsAfterRelease(t *testing.T) {
	t.Parallel()

	g := NewTaskGroup("CA3")
	g.Abandon()
	if ok := g.Go(func() { t.Error("task ran after release") }); ok {
		t.Fatal("Go() accepted a task after Abandon")
	}
	if got := g.Pending(); got != 0 {
		t.Fatalf("Pending() = %d, want 0", got)
	}
}

func TestTaskGroupAbandonDoesNotWait(t *testing.T) {
	t.Parallel()

	g := NewTaskGroup("CA4")
	release := make(chan struct{})
	defer close(release)
	g.Go(func() { <-release })

	start := time.Now()
	g.Abandon()
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Fatalf("Abandon blocked for %v", elapsed)
	}
	if got := g.Pending(); got != 1 {
		t.Fatalf("Pending() = %d, want 1", got)
	}
}
