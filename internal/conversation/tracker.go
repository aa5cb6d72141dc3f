package conversation

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// DefaultCompletedCapacity is the completed-ring capacity used by
// NewTracker unless overridden.
const DefaultCompletedCapacity = 50

// Stats summarises the tracker's contents for the /stats endpoint.
type Stats struct {
	Active          int     `json:"active"`
	Completed       int     `json:"completed"`
	AvgDurationSecs float64 `json:"avg_duration_seconds"`
}

// Option configures a Tracker during construction.
type Option func(*Tracker)

// WithCompletedCapacity overrides the completed-ring capacity.
// The default is DefaultCompletedCapacity.
func WithCompletedCapacity(n int) Option {
	return func(t *Tracker) { t.completed = newRing(n) }
}

// WithClock overrides the time source. Tests use this to age conversations
// without sleeping.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// Tracker owns all conversation state: the active map and the completed
// ring. All exported methods are safe for concurrent use.
type Tracker struct {
	mu        sync.Mutex
	active    map[string]*Conversation
	completed *ring
	now       func() time.Time
}

// NewTracker creates a Tracker with an empty active map and a completed
// ring of DefaultCompletedCapacity.
func NewTracker(opts ...Option) *Tracker {
	t := &Tracker{
		active:    make(map[string]*Conversation),
		completed: newRing(DefaultCompletedCapacity),
		now:       time.Now,
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Start registers a new active conversation. Returns an error if callID is
// already active.
func (t *Tracker) Start(callID, phone string) (*Conversation, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.active[callID]; ok {
		return nil, fmt.Errorf("conversation: call %q is already active", callID)
	}
	c := &Conversation{
		CallID:    callID,
		Phone:     phone,
		StartedAt: t.now(),
	}
	t.active[callID] = c
	slog.Info("conversation started", "call_id", callID, "phone", phone)
	return c.clone(), nil
}

// Append adds a message to an active conversation. When callID is not
// active — never started, or already completed — the message is dropped
// with a warning. Append never touches the completed ring.
func (t *Tracker) Append(callID string, role Role, text string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	c, ok := t.active[callID]
	if !ok {
		slog.Warn("dropping message for inactive conversation",
			"call_id", callID, "role", role)
		return
	}
	c.Messages = append(c.Messages, Message{
		Role:      role,
		Text:      text,
		Timestamp: t.now(),
	})
}

// Complete moves an active conversation to the completed ring, stamping
// EndedAt and the reason. It is idempotent: completing a call that is not
// active is a no-op returning false, so an end-phrase drain followed by a
// late explicit end yields exactly one completed entry.
func (t *Tracker) Complete(callID string, reason EndReason) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.completeLocked(callID, reason)
}

func (t *Tracker) completeLocked(callID string, reason EndReason) bool {
	c, ok := t.active[callID]
	if !ok {
		slog.Debug("complete on inactive conversation ignored", "call_id", callID)
		return false
	}
	delete(t.active, callID)
	c.EndedAt = t.now()
	c.EndReason = reason

	if evicted := t.completed.add(c); evicted != nil {
		slog.Debug("completed ring evicted oldest conversation",
			"call_id", evicted.CallID)
	}
	slog.Info("conversation completed",
		"call_id", callID,
		"reason", reason,
		"messages", len(c.Messages),
		"duration", c.EndedAt.Sub(c.StartedAt),
	)
	return true
}

// SweepStale force-completes every active conversation older than maxAge
// with reason EndStale and returns the call IDs it moved. This is the only
// reclamation path for conversations whose bridge died short of its
// termination path.
func (t *Tracker) SweepStale(maxAge time.Duration) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	cutoff := t.now().Add(-maxAge)
	var moved []string
	for id, c := range t.active {
		if c.StartedAt.Before(cutoff) {
			moved = append(moved, id)
		}
	}
	for _, id := range moved {
		t.completeLocked(id, EndStale)
	}
	if len(moved) > 0 {
		slog.Info("swept stale conversations", "count", len(moved), "max_age", maxAge)
	}
	return moved
}

// History returns a snapshot of an active conversation's messages in
// order. The second return is false when the call is not active.
func (t *Tracker) History(callID string) ([]Message, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	c, ok := t.active[callID]
	if !ok {
		return nil, false
	}
	msgs := make([]Message, len(c.Messages))
	copy(msgs, c.Messages)
	return msgs, true
}

// Active returns snapshots of all active conversations.
func (t *Tracker) Active() []*Conversation {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]*Conversation, 0, len(t.active))
	for _, c := range t.active {
		out = append(out, c.clone())
	}
	return out
}

// Completed returns up to limit completed conversations, most recent
// first. limit <= 0 means all retained entries.
func (t *Tracker) Completed(limit int) []*Conversation {
	t.mu.Lock()
	defer t.mu.Unlock()

	recent := t.completed.recent(limit)
	out := make([]*Conversation, len(recent))
	for i, c := range recent {
		out[i] = c.clone()
	}
	return out
}

// Get finds a conversation by call ID in either store.
func (t *Tracker) Get(callID string) (*Conversation, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if c, ok := t.active[callID]; ok {
		return c.clone(), true
	}
	if c := t.completed.find(callID); c != nil {
		return c.clone(), true
	}
	return nil, false
}

// Stats summarises current tracker state.
func (t *Tracker) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := Stats{
		Active:    len(t.active),
		Completed: t.completed.len(),
	}
	if s.Completed > 0 {
		var total time.Duration
		for _, c := range t.completed.recent(0) {
			total += c.EndedAt.Sub(c.StartedAt)
		}
		s.AvgDurationSecs = total.Seconds() / float64(s.Completed)
	}
	return s
}
