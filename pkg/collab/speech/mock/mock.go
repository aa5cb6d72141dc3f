// Package mock provides a test double for the speech.Synthesizer interface.
//
// The default behaviour wraps the input text as the audio payload, matching
// the demo voice service, so tests can assert on what was "spoken".
package mock

import (
	"context"
	"sync"

	"github.com/voxteller/voxteller/pkg/collab/speech"
)

// Synthesizer is a mock implementation of speech.Synthesizer.
type Synthesizer struct {
	mu sync.Mutex

	// Audio, when non-nil, is returned by Synthesize instead of the
	// text-wrapping default.
	Audio *speech.Audio

	// Err, if non-nil, is returned by Synthesize.
	Err error

	// Texts records every text passed to Synthesize.
	Texts []string
}

var _ speech.Synthesizer = (*Synthesizer)(nil)

// Synthesize implements speech.Synthesizer.
func (s *Synthesizer) Synthesize(_ context.Context, text string) (speech.Audio, error) {
	s.mu.Lock()
	s.Texts = append(s.Texts, text)
	s.mu.Unlock()
	if s.Err != nil {
		return speech.Audio{}, s.Err
	}
	if s.Audio != nil {
		return *s.Audio, nil
	}
	return speech.Audio{Content: []byte(text), Format: "wav"}, nil
}

// Spoken returns a snapshot of all synthesized texts.
func (s *Synthesizer) Spoken() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.Texts))
	copy(out, s.Texts)
	return out
}
