// Package mock provides a test double for the retrieval.Provider interface.
package mock

import (
	"context"
	"sync"

	"github.com/voxteller/voxteller/pkg/collab/retrieval"
)

// Provider is a mock implementation of retrieval.Provider.
type Provider struct {
	mu sync.Mutex

	// Answer is returned by Query when Err is nil.
	Answer string

	// Err, if non-nil, is returned by Query.
	Err error

	// Questions records every question passed to Query.
	Questions []string
}

var _ retrieval.Provider = (*Provider)(nil)

// Query implements retrieval.Provider.
func (p *Provider) Query(_ context.Context, question string) (string, error) {
	p.mu.Lock()
	p.Questions = append(p.Questions, question)
	p.mu.Unlock()
	if p.Err != nil {
		return "", p.Err
	}
	return p.Answer, nil
}
