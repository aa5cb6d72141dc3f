// Package transcribe defines the Provider interface for the streaming
// speech-recognition collaborator: raw audio frames in, transcription
// events out.
//
// A stream session accepts binary audio via SendAudio and emits
// [Event] values on the Events channel: interim "partial" hypotheses,
// finalized "final" utterances, and non-fatal "error" notices. The channel
// is closed when the remote leg ends the stream or Close is called.
//
// Implementations must be safe for concurrent use.
package transcribe

import "context"

// EventKind discriminates stream events.
type EventKind string

const (
	// EventPartial is an interim hypothesis; the text may still change.
	EventPartial EventKind = "partial"

	// EventFinal is a finalized utterance.
	EventFinal EventKind = "final"

	// EventError is a non-fatal recognizer error. The stream stays open.
	EventError EventKind = "error"
)

// Event is a single transcription stream event.
type Event struct {
	Kind EventKind

	// Text is the transcript for partial/final events.
	Text string

	// Err describes the failure for error events.
	Err string
}

// StreamConfig carries per-call parameters for a transcription stream.
type StreamConfig struct {
	// CallID identifies the call this stream belongs to.
	CallID string

	// SampleRate is the audio sample rate in Hz. Zero means the
	// provider default.
	SampleRate int
}

// SessionHandle is a live transcription stream.
type SessionHandle interface {
	// SendAudio queues an audio chunk for recognition. Returns an error
	// once the session is closed.
	SendAudio(chunk []byte) error

	// Events returns the event channel. It is closed when the stream
	// ends; callers must drain it.
	Events() <-chan Event

	// Close terminates the session, flushing any queued audio first.
	// Safe to call multiple times.
	Close() error
}

// Provider is the abstraction over the transcription backend.
type Provider interface {
	// StartStream opens a streaming recognition session.
	StartStream(ctx context.Context, cfg StreamConfig) (SessionHandle, error)
}
