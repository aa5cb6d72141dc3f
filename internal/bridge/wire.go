package bridge

import "encoding/json"

// ControlType discriminates the JSON control messages exchanged with the
// telephony leg. Audio travels as raw binary frames, never as JSON.
type ControlType string

const (
	// ControlStart opens a call; it must be the first control frame.
	ControlStart ControlType = "start"

	// ControlStop requests a cooperative shutdown of the call.
	ControlStop ControlType = "stop"

	// ControlPartial relays an interim transcription hypothesis.
	ControlPartial ControlType = "partial"

	// ControlFinal relays a finalized utterance.
	ControlFinal ControlType = "final"

	// ControlPlayAudio instructs the telephony leg to play a synthesized
	// reply.
	ControlPlayAudio ControlType = "play_audio"

	// ControlEndCall tells the telephony leg the call is over.
	ControlEndCall ControlType = "end_call"

	// ControlError reports a bridge-side failure.
	ControlError ControlType = "error"
)

// Control is the wire representation of one control message. Fields beyond
// Type are populated per message kind; unused fields are omitted.
type Control struct {
	Type ControlType `json:"type"`

	// start
	CallSID string `json:"call_sid,omitempty"`
	Phone   string `json:"phone,omitempty"`

	// partial, final, play_audio
	Text string `json:"text,omitempty"`

	// play_audio; Audio is base64-encoded by the JSON marshaller.
	Audio  []byte `json:"audio,omitempty"`
	Format string `json:"format,omitempty"`

	// end_call
	Reason string `json:"reason,omitempty"`

	// error
	Error string `json:"error,omitempty"`
}

// Frame is one inbound telephony-leg frame: either a binary audio chunk or
// a control message, never both.
type Frame struct {
	// Audio is the raw audio payload of a binary frame, nil for control
	// frames.
	Audio []byte

	// Control is the decoded control message of a text frame.
	Control *Control
}

// decodeControl parses a text frame into a Control.
func decodeControl(data []byte) (*Control, error) {
	var c Control
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	return &c, nil
}
