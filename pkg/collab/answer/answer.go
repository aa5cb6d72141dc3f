// Package answer defines the Provider interface for the answer-generation
// collaborator: the component that turns a caller's question plus the
// conversation so far into a reply.
//
// The demo deployment talks to a templated HTTP service (see the httpapi
// subpackage); LLM-backed alternatives live in the anyllm and openai
// subpackages. Implementations must be safe for concurrent use.
package answer

import "context"

// Role identifies the author of a history entry.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Exchange is one prior utterance in the conversation, oldest first.
type Exchange struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// Provider is the abstraction over any answer-generation backend.
type Provider interface {
	// Answer produces a reply to question given the ordered conversation
	// history. The history may be empty. Implementations should propagate
	// context cancellation promptly.
	Answer(ctx context.Context, question string, history []Exchange) (string, error)
}
