package bridge

import (
	"context"
	"log/slog"
	"sync"
)

// TaskGroup tracks a call's in-flight turn tasks so the bridge can wait
// for all outstanding replies before honoring a termination request, or
// walk away from them on a hard disconnect.
type TaskGroup struct {
	callID string

	mu      sync.Mutex
	pending int
	closed  bool
	wg      sync.WaitGroup
}

// NewTaskGroup creates an empty group for one call.
func NewTaskGroup(callID string) *TaskGroup {
	return &TaskGroup{callID: callID}
}

// Go runs fn as a tracked turn task and reports whether it was accepted.
// After Drain or Abandon, new tasks are rejected with a warning and fn is
// not run.
func (g *TaskGroup) Go(fn func()) bool {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		slog.Warn("turn task rejected after group release", "call_id", g.callID)
		return false
	}
	g.pending++
	g.wg.Add(1)
	g.mu.Unlock()

	go func() {
		defer func() {
			g.mu.Lock()
			g.pending--
			g.mu.Unlock()
			g.wg.Done()
		}()
		fn()
	}()
	return true
}

// Pending returns the number of in-flight tasks.
func (g *TaskGroup) Pending() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pending
}

// Drain waits until every in-flight task finishes or ctx expires, then
// releases the group. Tasks still running when ctx expires keep running;
// they are simply no longer waited for.
func (g *TaskGroup) Drain(ctx context.Context) error {
	g.mu.Lock()
	g.closed = true
	n := g.pending
	g.mu.Unlock()

	if n > 0 {
		slog.Debug("draining turn tasks", "call_id", g.callID, "pending", n)
	}

	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		slog.Warn("drain timed out with tasks outstanding",
			"call_id", g.callID, "pending", g.Pending())
		return ctx.Err()
	}
}

// Abandon releases the group without waiting. In-flight tasks keep running
// to completion; their late transcript appends are dropped by the tracker.
func (g *TaskGroup) Abandon() {
	g.mu.Lock()
	g.closed = true
	n := g.pending
	g.mu.Unlock()

	if n > 0 {
		slog.Info("abandoning in-flight turn tasks", "call_id", g.callID, "pending", n)
	}
}
