package resilience

import (
	"context"

	"github.com/voxteller/voxteller/pkg/collab/answer"
)

// AnswerFallback implements [answer.Provider] with automatic failover across
// multiple answer backends. Each backend has its own circuit breaker.
type AnswerFallback struct {
	group *FallbackGroup[answer.Provider]
}

var _ answer.Provider = (*AnswerFallback)(nil)

// NewAnswerFallback creates an [AnswerFallback] with primary as the
// preferred backend.
func NewAnswerFallback(primary answer.Provider, primaryName string, cfg FallbackConfig) *AnswerFallback {
	return &AnswerFallback{
		group: NewFallbackGroup(primary, primaryName, cfg),
	}
}

// AddFallback registers an additional answer provider as a fallback.
func (f *AnswerFallback) AddFallback(name string, provider answer.Provider) {
	f.group.AddFallback(name, provider)
}

// Answer produces a reply using the first healthy backend.
func (f *AnswerFallback) Answer(ctx context.Context, question string, history []answer.Exchange) (string, error) {
	return ExecuteWithResult(f.group, func(p answer.Provider) (string, error) {
		return p.Answer(ctx, question, history)
	})
}
