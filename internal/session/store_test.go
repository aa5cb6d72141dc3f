package session

import (
	"sync"
	"testing"
)

func TestGetOrCreateIdempotent(t *testing.T) {
	t.Parallel()

	store := NewStore()

	first := store.GetOrCreate("+15550001", "acct_1", false)
	if first.Phone != "+15550001" || first.AccountID != "acct_1" || first.Verified {
		t.Fatalf("unexpected new session: %+v", first)
	}

	// A second call with different arguments must return the existing
	// session unchanged.
	second := store.GetOrCreate("+15550001", "acct_other", true)
	if second.AccountID != "acct_1" {
		t.Errorf("account_id overwritten: got %q", second.AccountID)
	}
	if second.Verified {
		t.Error("verified overwritten on existing session")
	}
	if store.Len() != 1 {
		t.Errorf("want 1 session, got %d", store.Len())
	}
}

func TestVerificationRound(t *testing.T) {
	t.Parallel()

	store := NewStore()
	store.GetOrCreate("+15550002", "acct_2", false)

	store.RequestVerification("+15550002", KindRead)
	sess, ok := store.Get("+15550002")
	if !ok {
		t.Fatal("session missing")
	}
	if sess.Pending != KindRead {
		t.Fatalf("want pending read, got %q", sess.Pending)
	}
	if sess.Verified {
		t.Fatal("verified before confirmation")
	}

	store.ConfirmVerification("+15550002")
	sess, _ = store.Get("+15550002")
	if !sess.Verified {
		t.Error("not verified after confirmation")
	}
	if sess.Pending != KindNone {
		t.Errorf("pending kind not cleared: %q", sess.Pending)
	}
}

func TestVerifiedIsMonotonic(t *testing.T) {
	t.Parallel()

	store := NewStore()
	store.GetOrCreate("+15550003", "acct_3", false)
	store.ConfirmVerification("+15550003")

	// A later challenge round must not clear verified.
	store.RequestVerification("+15550003", KindWrite)
	sess, _ := store.Get("+15550003")
	if !sess.Verified {
		t.Error("verified cleared by a later verification request")
	}
}

func TestUnknownPhoneIsNoOp(t *testing.T) {
	t.Parallel()

	store := NewStore()
	store.RequestVerification("+15559999", KindRead)
	store.ConfirmVerification("+15559999")

	if store.Len() != 0 {
		t.Errorf("operations on unknown phone created a session")
	}
	if _, ok := store.Get("+15559999"); ok {
		t.Error("unknown phone unexpectedly present")
	}
}

func TestConcurrentGetOrCreate(t *testing.T) {
	t.Parallel()

	store := NewStore()
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			store.GetOrCreate("+15550004", "acct_4", false)
		}()
	}
	wg.Wait()

	if store.Len() != 1 {
		t.Fatalf("want exactly 1 session, got %d", store.Len())
	}
}
