// Package mock provides a test double for the complaint.Lodger interface.
package mock

import (
	"context"
	"sync"

	"github.com/voxteller/voxteller/pkg/collab/complaint"
)

// Call records one invocation of Lodge.
type Call struct {
	Phone    string
	Text     string
	ImageURL string
}

// Lodger is a mock implementation of complaint.Lodger.
type Lodger struct {
	mu sync.Mutex

	// ID is returned by Lodge when Err is nil.
	ID string

	// Err, if non-nil, is returned by Lodge.
	Err error

	// Calls records every invocation.
	Calls []Call
}

var _ complaint.Lodger = (*Lodger)(nil)

// Lodge implements complaint.Lodger.
func (l *Lodger) Lodge(_ context.Context, phone, text, imageURL string) (string, error) {
	l.mu.Lock()
	l.Calls = append(l.Calls, Call{Phone: phone, Text: text, ImageURL: imageURL})
	l.mu.Unlock()
	if l.Err != nil {
		return "", l.Err
	}
	return l.ID, nil
}
