package bridge

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// scriptLeg is a scripted TelephonyLeg: tests push frames in and inspect
// the controls the bridge wrote back.
type scriptLeg struct {
	frames chan Frame

	mu     sync.Mutex
	writes []Control
}

var _ TelephonyLeg = (*scriptLeg)(nil)

func newScriptLeg() *scriptLeg {
	return &scriptLeg{frames: make(chan Frame, 16)}
}

func (l *scriptLeg) push(f Frame) { l.frames <- f }

func (l *scriptLeg) pushStart(callSID, phone string) {
	l.push(Frame{Control: &Control{Type: ControlStart, CallSID: callSID, Phone: phone}})
}

// hangUp simulates the caller dropping the connection.
func (l *scriptLeg) hangUp() { close(l.frames) }

func (l *scriptLeg) ReadFrame(ctx context.Context) (Frame, error) {
	select {
	case <-ctx.Done():
		return Frame{}, ctx.Err()
	case f, ok := <-l.frames:
		if !ok {
			return Frame{}, errors.New("connection reset")
		}
		return f, nil
	}
}

func (l *scriptLeg) WriteControl(_ context.Context, c Control) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.writes = append(l.writes, c)
	return nil
}

// controls returns every written control of the given type, in order.
func (l *scriptLeg) controls(typ ControlType) []Control {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []Control
	for _, c := range l.writes {
		if c.Type == typ {
			out = append(out, c)
		}
	}
	return out
}

// lastControl returns the most recent control of the given type.
func (l *scriptLeg) lastControl(t *testing.T, typ ControlType) Control {
	t.Helper()
	cs := l.controls(typ)
	if len(cs) == 0 {
		t.Fatalf("no %s control written", typ)
	}
	return cs[len(cs)-1]
}

// waitControls polls until at least n controls of typ have been written.
func (l *scriptLeg) waitControls(t *testing.T, typ ControlType, n int) []Control {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cs := l.controls(typ); len(cs) >= n {
			return cs
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d %s controls, have %d", n, typ, len(l.controls(typ)))
	return nil
}
