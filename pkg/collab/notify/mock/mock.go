// Package mock provides a test double for the notify.Sender interface.
package mock

import (
	"context"
	"sync"

	"github.com/voxteller/voxteller/pkg/collab/notify"
)

// Sender is a mock implementation of notify.Sender.
type Sender struct {
	mu sync.Mutex

	// Err, if non-nil, is returned by Send.
	Err error

	// Sent records every message passed to Send.
	Sent []notify.Message
}

var _ notify.Sender = (*Sender)(nil)

// Send implements notify.Sender.
func (s *Sender) Send(_ context.Context, msg notify.Message) error {
	s.mu.Lock()
	s.Sent = append(s.Sent, msg)
	s.mu.Unlock()
	return s.Err
}

// Messages returns a snapshot of all sent messages.
func (s *Sender) Messages() []notify.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]notify.Message, len(s.Sent))
	copy(out, s.Sent)
	return out
}
