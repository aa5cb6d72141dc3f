package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/coder/websocket"
)

// TelephonyLeg is the bridge's view of the connection to the telephony
// side: inbound audio/control frames and outbound control messages.
//
// ReadFrame is called from a single goroutine. WriteControl may be called
// concurrently from the relay loop and any number of turn tasks;
// implementations must serialize writes.
type TelephonyLeg interface {
	// ReadFrame blocks until the next frame arrives. It returns an error
	// when the leg disconnects or ctx is cancelled.
	ReadFrame(ctx context.Context) (Frame, error)

	// WriteControl sends one control message.
	WriteControl(ctx context.Context, c Control) error
}

// WebSocketLeg adapts a WebSocket connection to [TelephonyLeg]: text
// frames carry JSON control messages, binary frames carry raw audio.
type WebSocketLeg struct {
	conn *websocket.Conn

	// writeMu serializes writes; turn tasks and the relay loop push
	// play_audio and partial/final messages concurrently.
	writeMu sync.Mutex
}

var _ TelephonyLeg = (*WebSocketLeg)(nil)

// NewWebSocketLeg wraps an accepted WebSocket connection.
func NewWebSocketLeg(conn *websocket.Conn) *WebSocketLeg {
	return &WebSocketLeg{conn: conn}
}

// ReadFrame implements [TelephonyLeg].
func (l *WebSocketLeg) ReadFrame(ctx context.Context) (Frame, error) {
	typ, data, err := l.conn.Read(ctx)
	if err != nil {
		return Frame{}, fmt.Errorf("bridge: read telephony frame: %w", err)
	}
	if typ == websocket.MessageBinary {
		return Frame{Audio: data}, nil
	}
	c, err := decodeControl(data)
	if err != nil {
		return Frame{}, fmt.Errorf("bridge: decode control frame: %w", err)
	}
	return Frame{Control: c}, nil
}

// WriteControl implements [TelephonyLeg].
func (l *WebSocketLeg) WriteControl(ctx context.Context, c Control) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("bridge: encode control frame: %w", err)
	}
	l.writeMu.Lock()
	defer l.writeMu.Unlock()
	if err := l.conn.Write(ctx, websocket.MessageText, data); err != nil {
		return fmt.Errorf("bridge: write control frame: %w", err)
	}
	return nil
}

// Close closes the underlying connection.
func (l *WebSocketLeg) Close(code websocket.StatusCode, reason string) error {
	return l.conn.Close(code, reason)
}
