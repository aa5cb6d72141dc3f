// Package mock provides test doubles for the transcribe.Provider and
// transcribe.SessionHandle interfaces.
//
// Tests drive a [Session] by calling Emit to script recognizer output and
// End to close the stream, and inspect Audio for the frames the bridge
// forwarded.
package mock

import (
	"context"
	"errors"
	"sync"

	"github.com/voxteller/voxteller/pkg/collab/transcribe"
)

// Session is a scripted transcribe.SessionHandle.
type Session struct {
	mu     sync.Mutex
	audio  [][]byte
	events chan transcribe.Event
	closed bool
}

var _ transcribe.SessionHandle = (*Session)(nil)

// NewSession creates an open mock session.
func NewSession() *Session {
	return &Session{events: make(chan transcribe.Event, 64)}
}

// SendAudio implements transcribe.SessionHandle.
func (s *Session) SendAudio(chunk []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.New("mock: session is closed")
	}
	cp := make([]byte, len(chunk))
	copy(cp, chunk)
	s.audio = append(s.audio, cp)
	return nil
}

// Events implements transcribe.SessionHandle.
func (s *Session) Events() <-chan transcribe.Event { return s.events }

// Close implements transcribe.SessionHandle.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.events)
	}
	return nil
}

// Emit scripts a recognizer event. It is a no-op after End/Close.
func (s *Session) Emit(ev transcribe.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.events <- ev
}

// End closes the event stream without marking SendAudio as failed,
// simulating the remote leg finishing the stream.
func (s *Session) End() {
	_ = s.Close()
}

// Audio returns a snapshot of all forwarded audio frames.
func (s *Session) Audio() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]byte, len(s.audio))
	copy(out, s.audio)
	return out
}

// Closed reports whether Close has been called.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Provider is a mock transcribe.Provider handing out pre-built sessions.
type Provider struct {
	mu sync.Mutex

	// Session is returned by StartStream when Err is nil. When nil, a
	// fresh Session is created per call.
	Session *Session

	// Err, if non-nil, is returned by StartStream (simulating a failed
	// dial of the transcription leg).
	Err error

	// Configs records every StreamConfig passed to StartStream.
	Configs []transcribe.StreamConfig

	// Started holds every session handed out, in order.
	Started []*Session
}

var _ transcribe.Provider = (*Provider)(nil)

// StartStream implements transcribe.Provider.
func (p *Provider) StartStream(_ context.Context, cfg transcribe.StreamConfig) (transcribe.SessionHandle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Configs = append(p.Configs, cfg)
	if p.Err != nil {
		return nil, p.Err
	}
	sess := p.Session
	if sess == nil {
		sess = NewSession()
	}
	p.Started = append(p.Started, sess)
	return sess, nil
}
