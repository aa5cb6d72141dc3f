// Package speech defines the Synthesizer interface for the text-to-speech
// collaborator. The bridge uses it to turn assistant replies into audio
// that the telephony leg can play back.
package speech

import "context"

// Audio is a synthesized utterance.
type Audio struct {
	// Content is the encoded audio payload.
	Content []byte

	// Format names the container/encoding (e.g. "wav").
	Format string
}

// Synthesizer is the abstraction over any TTS backend.
// Implementations must be safe for concurrent use; multiple turn tasks may
// synthesize in parallel for the same call.
type Synthesizer interface {
	// Synthesize converts text into playable audio.
	Synthesize(ctx context.Context, text string) (Audio, error)
}
