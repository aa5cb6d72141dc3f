// Package mock provides a test double for the answer.Provider interface.
package mock

import (
	"context"
	"sync"

	"github.com/voxteller/voxteller/pkg/collab/answer"
)

// Call records one invocation of Answer.
type Call struct {
	Question string
	History  []answer.Exchange
}

// Provider is a mock implementation of answer.Provider.
// Set Reply and Err before use; AnswerFunc, when non-nil, takes precedence.
type Provider struct {
	mu sync.Mutex

	// Reply is returned by Answer when Err is nil and AnswerFunc is nil.
	Reply string

	// Err, if non-nil, is returned by Answer.
	Err error

	// AnswerFunc, when set, fully overrides Answer's behaviour.
	AnswerFunc func(ctx context.Context, question string, history []answer.Exchange) (string, error)

	// Calls records every invocation in order.
	Calls []Call
}

var _ answer.Provider = (*Provider)(nil)

// Answer implements answer.Provider.
func (p *Provider) Answer(ctx context.Context, question string, history []answer.Exchange) (string, error) {
	p.mu.Lock()
	hist := make([]answer.Exchange, len(history))
	copy(hist, history)
	p.Calls = append(p.Calls, Call{Question: question, History: hist})
	fn := p.AnswerFunc
	p.mu.Unlock()

	if fn != nil {
		return fn(ctx, question, history)
	}
	if p.Err != nil {
		return "", p.Err
	}
	return p.Reply, nil
}

// CallCount returns the number of recorded Answer invocations.
func (p *Provider) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Calls)
}
