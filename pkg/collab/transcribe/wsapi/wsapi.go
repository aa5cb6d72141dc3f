// Package wsapi implements transcribe.Provider over the demo transcription
// service's WebSocket API: binary audio frames upstream, JSON events
// ({"type":"partial"|"final"|"error"}) downstream.
package wsapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"sync"

	"github.com/coder/websocket"

	"github.com/voxteller/voxteller/pkg/collab/transcribe"
)

const (
	defaultSampleRate = 8000

	// Channel depths: audio is the hot path and buffers a few hundred
	// milliseconds of telephony frames; events follow the reader.
	audioBuf = 256
	eventBuf = 64
)

// Option is a functional option for configuring the Provider.
type Option func(*Provider)

// WithSampleRate sets the provider-level default sample rate in Hz.
func WithSampleRate(rate int) Option {
	return func(p *Provider) { p.sampleRate = rate }
}

// Provider implements transcribe.Provider against a WebSocket endpoint
// (e.g. "ws://localhost:8102/listen").
type Provider struct {
	endpoint   string
	sampleRate int
}

var _ transcribe.Provider = (*Provider)(nil)

// New creates a Provider for the given WebSocket endpoint URL.
func New(endpoint string, opts ...Option) (*Provider, error) {
	if endpoint == "" {
		return nil, errors.New("transcribe wsapi: endpoint must not be empty")
	}
	p := &Provider{
		endpoint:   endpoint,
		sampleRate: defaultSampleRate,
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// StartStream implements transcribe.Provider. It dials the transcription
// service and spawns the read and write loops.
func (p *Provider) StartStream(ctx context.Context, cfg transcribe.StreamConfig) (transcribe.SessionHandle, error) {
	wsURL, err := p.buildURL(cfg)
	if err != nil {
		return nil, fmt.Errorf("transcribe wsapi: build URL: %w", err)
	}

	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("transcribe wsapi: dial: %w", err)
	}

	sess := &session{
		conn:   conn,
		audio:  make(chan []byte, audioBuf),
		events: make(chan transcribe.Event, eventBuf),
		done:   make(chan struct{}),
	}

	sess.wg.Add(2)
	go sess.readLoop(ctx)
	go sess.writeLoop(ctx)

	return sess, nil
}

func (p *Provider) buildURL(cfg transcribe.StreamConfig) (string, error) {
	u, err := url.Parse(p.endpoint)
	if err != nil {
		return "", err
	}
	sr := cfg.SampleRate
	if sr == 0 {
		sr = p.sampleRate
	}
	q := u.Query()
	q.Set("sample_rate", strconv.Itoa(sr))
	if cfg.CallID != "" {
		q.Set("call_id", cfg.CallID)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// ---- session ----

// wireEvent is the JSON structure emitted by the transcription service.
type wireEvent struct {
	Type  string `json:"type"`
	Text  string `json:"text"`
	Error string `json:"error"`
}

// session is a live transcription stream. It implements
// transcribe.SessionHandle.
type session struct {
	conn   *websocket.Conn
	audio  chan []byte
	events chan transcribe.Event

	done chan struct{}
	once sync.Once
	wg   sync.WaitGroup
}

// SendAudio implements transcribe.SessionHandle.
func (s *session) SendAudio(chunk []byte) error {
	select {
	case <-s.done:
		return errors.New("transcribe wsapi: session is closed")
	default:
	}
	select {
	case s.audio <- chunk:
		return nil
	case <-s.done:
		return errors.New("transcribe wsapi: session is closed")
	}
}

// Events implements transcribe.SessionHandle.
func (s *session) Events() <-chan transcribe.Event { return s.events }

// Close implements transcribe.SessionHandle. It flushes queued audio,
// notifies the remote leg, and waits for both loops to exit.
func (s *session) Close() error {
	s.once.Do(func() {
		close(s.done)
		_ = s.conn.Write(context.Background(), websocket.MessageText, []byte(`{"type":"stop"}`))
		s.wg.Wait()
		s.conn.Close(websocket.StatusNormalClosure, "session closed")
	})
	return nil
}

// writeLoop forwards queued audio chunks as binary frames.
func (s *session) writeLoop(ctx context.Context) {
	defer s.wg.Done()
	for {
		select {
		case chunk := <-s.audio:
			if err := s.conn.Write(ctx, websocket.MessageBinary, chunk); err != nil {
				return
			}
		case <-s.done:
			// Flush whatever is still queued before exiting.
			for {
				select {
				case chunk := <-s.audio:
					_ = s.conn.Write(ctx, websocket.MessageBinary, chunk)
				default:
					return
				}
			}
		}
	}
}

// readLoop receives JSON events and dispatches them to the events channel.
func (s *session) readLoop(ctx context.Context) {
	defer s.wg.Done()
	defer close(s.events)

	for {
		_, msg, err := s.conn.Read(ctx)
		if err != nil {
			// Normal close or context cancellation.
			return
		}

		ev, ok := parseEvent(msg)
		if !ok {
			continue
		}

		select {
		case s.events <- ev:
		case <-s.done:
		}
	}
}

// parseEvent parses a raw message into an Event. Returns (zero, false) for
// messages that should be ignored.
func parseEvent(data []byte) (transcribe.Event, bool) {
	var w wireEvent
	if err := json.Unmarshal(data, &w); err != nil {
		return transcribe.Event{}, false
	}
	switch w.Type {
	case "partial":
		return transcribe.Event{Kind: transcribe.EventPartial, Text: w.Text}, true
	case "final":
		return transcribe.Event{Kind: transcribe.EventFinal, Text: w.Text}, true
	case "error":
		return transcribe.Event{Kind: transcribe.EventError, Err: w.Error}, true
	default:
		return transcribe.Event{}, false
	}
}
