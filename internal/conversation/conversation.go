// Package conversation implements per-call transcript tracking: an active
// map of in-flight conversations plus a bounded, most-recent-first ring of
// completed ones.
//
// A call identifier lives in exactly one of the two collections at any
// time, and in neither only before Start. Append never fails: messages for
// calls that are unknown or already completed are dropped with a logged
// warning, which is what guarantees that turn tasks abandoned after a hard
// disconnect cannot resurrect a completed conversation.
package conversation

import "time"

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// EndReason records why a conversation was completed.
type EndReason string

const (
	// EndGoodbye: the caller spoke an end phrase and the bridge drained.
	EndGoodbye EndReason = "goodbye"

	// EndStop: the telephony leg sent an explicit stop control message.
	EndStop EndReason = "stop"

	// EndDisconnect: the telephony leg dropped without warning.
	EndDisconnect EndReason = "disconnect"

	// EndStale: the sweep reclaimed an abandoned conversation.
	EndStale EndReason = "stale"

	// EndError: the bridge failed before or during streaming.
	EndError EndReason = "error"
)

// Message is one utterance in a conversation transcript.
type Message struct {
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Conversation is the ordered message log for one phone call.
type Conversation struct {
	CallID    string    `json:"call_id"`
	Phone     string    `json:"phone"`
	Messages  []Message `json:"messages"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at,omitzero"`
	EndReason EndReason `json:"end_reason,omitempty"`
}

// Duration returns the call length, or the age so far for an active
// conversation.
func (c *Conversation) Duration() time.Duration {
	if c.EndedAt.IsZero() {
		return time.Since(c.StartedAt)
	}
	return c.EndedAt.Sub(c.StartedAt)
}

// clone returns a deep copy so callers cannot mutate tracker-owned state.
func (c *Conversation) clone() *Conversation {
	cp := *c
	cp.Messages = make([]Message, len(c.Messages))
	copy(cp.Messages, c.Messages)
	return &cp
}
