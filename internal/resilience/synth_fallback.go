package resilience

import (
	"context"

	"github.com/voxteller/voxteller/pkg/collab/speech"
)

// SynthFallback implements [speech.Synthesizer] with automatic failover
// across multiple synthesis backends. Each backend has its own circuit
// breaker.
type SynthFallback struct {
	group *FallbackGroup[speech.Synthesizer]
}

var _ speech.Synthesizer = (*SynthFallback)(nil)

// NewSynthFallback creates a [SynthFallback] with primary as the preferred
// backend.
func NewSynthFallback(primary speech.Synthesizer, primaryName string, cfg FallbackConfig) *SynthFallback {
	return &SynthFallback{
		group: NewFallbackGroup(primary, primaryName, cfg),
	}
}

// AddFallback registers an additional synthesizer as a fallback.
func (f *SynthFallback) AddFallback(name string, s speech.Synthesizer) {
	f.group.AddFallback(name, s)
}

// Synthesize converts text to audio using the first healthy backend.
func (f *SynthFallback) Synthesize(ctx context.Context, text string) (speech.Audio, error) {
	return ExecuteWithResult(f.group, func(s speech.Synthesizer) (speech.Audio, error) {
		return s.Synthesize(ctx, text)
	})
}
