package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/voxteller/voxteller/pkg/collab/answer"
	"github.com/voxteller/voxteller/pkg/collab/speech"
	"github.com/voxteller/voxteller/pkg/collab/transcribe"
)

// ErrBackendNotRegistered is returned by Create* methods when no factory
// has been registered under the requested backend name.
var ErrBackendNotRegistered = errors.New("config: backend not registered")

// Registry maps backend names to their constructor functions for each
// collaborator kind that supports multiple backends. It is safe for
// concurrent use.
type Registry struct {
	mu          sync.RWMutex
	answer      map[string]func(Endpoint) (answer.Provider, error)
	synthesizer map[string]func(Endpoint) (speech.Synthesizer, error)
	transcriber map[string]func(Endpoint) (transcribe.Provider, error)
}

// NewRegistry returns an empty, ready-to-use [Registry].
func NewRegistry() *Registry {
	return &Registry{
		answer:      make(map[string]func(Endpoint) (answer.Provider, error)),
		synthesizer: make(map[string]func(Endpoint) (speech.Synthesizer, error)),
		transcriber: make(map[string]func(Endpoint) (transcribe.Provider, error)),
	}
}

// RegisterAnswer registers an answer backend factory under name.
// Subsequent calls with the same name overwrite the previous registration.
func (r *Registry) RegisterAnswer(name string, factory func(Endpoint) (answer.Provider, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.answer[name] = factory
}

// RegisterSynthesizer registers a speech synthesis backend factory under name.
func (r *Registry) RegisterSynthesizer(name string, factory func(Endpoint) (speech.Synthesizer, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.synthesizer[name] = factory
}

// RegisterTranscriber registers a transcription backend factory under name.
func (r *Registry) RegisterTranscriber(name string, factory func(Endpoint) (transcribe.Provider, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transcriber[name] = factory
}

// CreateAnswer instantiates an answer backend using the factory registered
// under entry.Name. Returns [ErrBackendNotRegistered] if no factory has
// been registered for that name.
func (r *Registry) CreateAnswer(entry Endpoint) (answer.Provider, error) {
	r.mu.RLock()
	factory, ok := r.answer[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: answer/%q", ErrBackendNotRegistered, entry.Name)
	}
	return factory(entry)
}

// CreateSynthesizer instantiates a synthesis backend using the factory
// registered under entry.Name.
func (r *Registry) CreateSynthesizer(entry Endpoint) (speech.Synthesizer, error) {
	r.mu.RLock()
	factory, ok := r.synthesizer[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: speech/%q", ErrBackendNotRegistered, entry.Name)
	}
	return factory(entry)
}

// CreateTranscriber instantiates a transcription backend using the factory
// registered under entry.Name.
func (r *Registry) CreateTranscriber(entry Endpoint) (transcribe.Provider, error) {
	r.mu.RLock()
	factory, ok := r.transcriber[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: transcribe/%q", ErrBackendNotRegistered, entry.Name)
	}
	return factory(entry)
}
