// Package bridge relays a live phone call between the telephony leg and
// the streaming transcription collaborator, and drives the turn response
// pipeline that speaks replies back to the caller.
//
// One Bridge.Run invocation owns one call from the opening start frame to
// the closing end_call. Audio flows telephony -> transcription; transcript
// events flow back as partial/final controls; finalized utterances are
// dispatched as concurrent turn tasks that answer, synthesize, and play.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/voxteller/voxteller/internal/conversation"
	"github.com/voxteller/voxteller/internal/observe"
	"github.com/voxteller/voxteller/pkg/collab/answer"
	"github.com/voxteller/voxteller/pkg/collab/speech"
	"github.com/voxteller/voxteller/pkg/collab/transcribe"
)

// State is the bridge lifecycle phase.
type State int32

const (
	// StateConnecting means the bridge is waiting for the start frame and
	// dialing the transcription leg.
	StateConnecting State = iota

	// StateStreaming means both legs are live and audio is flowing.
	StateStreaming

	// StateDraining means the call is ending cooperatively and the bridge
	// is waiting for in-flight turn tasks.
	StateDraining

	// StateClosed means the call is over.
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateStreaming:
		return "streaming"
	case StateDraining:
		return "draining"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

const (
	// DefaultGreeting is spoken as soon as the call is connected.
	DefaultGreeting = "Hello! Thank you for calling. How can I help you today?"

	// DefaultFarewell is spoken when the caller says an end phrase.
	DefaultFarewell = "Thank you for calling. Goodbye!"

	// DefaultSettleInterval is how long playback is given to flush after
	// the farewell before end_call is sent.
	DefaultSettleInterval = 500 * time.Millisecond

	// DefaultDrainTimeout bounds the wait for in-flight turn tasks during
	// a cooperative shutdown.
	DefaultDrainTimeout = 15 * time.Second

	// DefaultSampleRate is standard narrowband telephony audio.
	DefaultSampleRate = 8000
)

// Streaming loop sentinels. Each loop exits by returning one of these (or
// a context error); the first one wins and selects the teardown path.
var (
	errStop            = errors.New("bridge: stop requested")
	errGoodbye         = errors.New("bridge: end phrase detected")
	errDisconnected    = errors.New("bridge: telephony leg disconnected")
	errTranscriptEnded = errors.New("bridge: transcription stream ended")
)

// Config assembles a Bridge. Tracker, Transcriber, Answer, and Synthesizer
// are required; everything else has a default.
type Config struct {
	Tracker     *conversation.Tracker
	Transcriber transcribe.Provider
	Answer      answer.Provider
	Synthesizer speech.Synthesizer

	// Metrics is optional; nil disables instrumentation.
	Metrics *observe.Metrics

	Greeting       string
	Farewell       string
	EndPhrases     []string
	SettleInterval time.Duration
	DrainTimeout   time.Duration
	SampleRate     int
}

// Bridge orchestrates calls. One Bridge serves many concurrent Run
// invocations; per-call state lives on the Run stack.
type Bridge struct {
	cfg   Config
	pipe  *pipeline
	state atomic.Int32
}

// New builds a Bridge, applying defaults for unset tuning fields.
func New(cfg Config) *Bridge {
	if cfg.Greeting == "" {
		cfg.Greeting = DefaultGreeting
	}
	if cfg.Farewell == "" {
		cfg.Farewell = DefaultFarewell
	}
	if len(cfg.EndPhrases) == 0 {
		cfg.EndPhrases = DefaultEndPhrases
	}
	if cfg.SettleInterval <= 0 {
		cfg.SettleInterval = DefaultSettleInterval
	}
	if cfg.DrainTimeout <= 0 {
		cfg.DrainTimeout = DefaultDrainTimeout
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = DefaultSampleRate
	}
	return &Bridge{
		cfg: cfg,
		pipe: &pipeline{
			tracker: cfg.Tracker,
			answer:  cfg.Answer,
			synth:   cfg.Synthesizer,
			metrics: cfg.Metrics,
		},
	}
}

// State reports the phase of the most recently progressed call. It exists
// for introspection and tests; per-call logic never reads it.
func (b *Bridge) State() State { return State(b.state.Load()) }

func (b *Bridge) setState(s State) { b.state.Store(int32(s)) }

// Run drives one call on leg until it ends. It returns nil for calls that
// ended cooperatively (goodbye, stop) and an error for abnormal endings.
// The conversation is completed exactly once on every path.
func (b *Bridge) Run(ctx context.Context, leg TelephonyLeg) error {
	b.setState(StateConnecting)

	frame, err := leg.ReadFrame(ctx)
	if err != nil {
		b.setState(StateClosed)
		return fmt.Errorf("reading start frame: %w", err)
	}
	if frame.Control == nil || frame.Control.Type != ControlStart {
		_ = leg.WriteControl(ctx, Control{Type: ControlError, Error: "expected start frame"})
		b.setState(StateClosed)
		return errors.New("bridge: first frame was not start")
	}

	callID := frame.Control.CallSID
	if callID == "" {
		callID = uuid.NewString()
	}
	phone := frame.Control.Phone
	log := observe.Logger(ctx).With("call_id", callID, "phone", phone)

	if _, err := b.cfg.Tracker.Start(callID, phone); err != nil {
		_ = leg.WriteControl(ctx, Control{Type: ControlError, Error: err.Error()})
		_ = leg.WriteControl(ctx, Control{Type: ControlEndCall, Reason: "error"})
		b.setState(StateClosed)
		return fmt.Errorf("starting conversation: %w", err)
	}
	if b.cfg.Metrics != nil {
		b.cfg.Metrics.ActiveCalls.Add(ctx, 1)
	}
	log.Info("call connected")

	sess, err := b.cfg.Transcriber.StartStream(ctx, transcribe.StreamConfig{
		CallID:     callID,
		SampleRate: b.cfg.SampleRate,
	})
	if err != nil {
		log.Error("transcription stream dial failed", "error", err)
		_ = leg.WriteControl(ctx, Control{Type: ControlError, Error: "transcription unavailable"})
		_ = leg.WriteControl(ctx, Control{Type: ControlEndCall, Reason: "error"})
		b.finish(ctx, callID, conversation.EndError)
		return fmt.Errorf("starting transcription stream: %w", err)
	}

	tasks := NewTaskGroup(callID)
	b.spawnTurn(ctx, tasks, func(taskCtx context.Context) {
		b.pipe.speak(taskCtx, leg, callID, b.cfg.Greeting)
	})

	b.setState(StateStreaming)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// Unblocks the events loop when the other loop exits first.
		<-gctx.Done()
		_ = sess.Close()
		return nil
	})
	g.Go(func() error { return b.relayAudio(gctx, leg, sess, log) })
	g.Go(func() error { return b.relayEvents(gctx, leg, sess, callID, tasks, log) })
	waitErr := g.Wait()

	return b.teardown(ctx, leg, sess, callID, tasks, waitErr, log)
}

// relayAudio pumps the telephony leg into the transcription stream and
// watches for the stop control.
func (b *Bridge) relayAudio(ctx context.Context, leg TelephonyLeg, sess transcribe.SessionHandle, log *slog.Logger) error {
	for {
		frame, err := leg.ReadFrame(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("%w: %v", errDisconnected, err)
		}
		switch {
		case frame.Audio != nil:
			if err := sess.SendAudio(frame.Audio); err != nil {
				log.Warn("dropping audio chunk", "error", err)
			}
		case frame.Control != nil:
			switch frame.Control.Type {
			case ControlStop:
				log.Info("stop requested by telephony leg")
				return errStop
			case ControlStart:
				log.Warn("ignoring duplicate start frame")
			default:
				log.Warn("ignoring unexpected control frame", "type", string(frame.Control.Type))
			}
		}
	}
}

// relayEvents forwards transcription events to the telephony leg and
// dispatches finalized utterances as turn tasks.
func (b *Bridge) relayEvents(ctx context.Context, leg TelephonyLeg, sess transcribe.SessionHandle, callID string, tasks *TaskGroup, log *slog.Logger) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-sess.Events():
			if !ok {
				return errTranscriptEnded
			}
			switch ev.Kind {
			case transcribe.EventPartial:
				log.Debug("partial transcript", "text", ev.Text)
				if err := leg.WriteControl(ctx, Control{Type: ControlPartial, Text: ev.Text}); err != nil {
					log.Warn("partial relay failed", "error", err)
				}
			case transcribe.EventFinal:
				if strings.TrimSpace(ev.Text) == "" {
					continue
				}
				log.Info("final transcript", "text", ev.Text)
				if err := leg.WriteControl(ctx, Control{Type: ControlFinal, Text: ev.Text}); err != nil {
					log.Warn("final relay failed", "error", err)
				}
				b.cfg.Tracker.Append(callID, conversation.RoleUser, ev.Text)
				if isEndPhrase(ev.Text, b.cfg.EndPhrases) {
					log.Info("end phrase detected", "text", ev.Text)
					return errGoodbye
				}
				text := ev.Text
				b.spawnTurn(ctx, tasks, func(taskCtx context.Context) {
					b.pipe.respond(taskCtx, leg, callID, text)
				})
			case transcribe.EventError:
				log.Warn("recognizer error", "error", ev.Err)
			}
		}
	}
}

// spawnTurn runs fn as a tracked turn task. Tasks outlive the streaming
// loops on cooperative shutdown, so they run on a context detached from
// the loop context but still cancelled with the server.
func (b *Bridge) spawnTurn(ctx context.Context, tasks *TaskGroup, fn func(context.Context)) {
	taskCtx := context.WithoutCancel(ctx)
	if b.cfg.Metrics != nil {
		b.cfg.Metrics.PendingTurns.Add(ctx, 1)
	}
	ok := tasks.Go(func() {
		defer func() {
			if b.cfg.Metrics != nil {
				b.cfg.Metrics.PendingTurns.Add(taskCtx, -1)
			}
		}()
		fn(taskCtx)
	})
	if !ok && b.cfg.Metrics != nil {
		b.cfg.Metrics.PendingTurns.Add(ctx, -1)
	}
}

// teardown selects the ending path from the first streaming-loop error and
// completes the conversation exactly once.
func (b *Bridge) teardown(ctx context.Context, leg TelephonyLeg, sess transcribe.SessionHandle, callID string, tasks *TaskGroup, waitErr error, log *slog.Logger) error {
	defer func() { _ = sess.Close() }()

	switch {
	case errors.Is(waitErr, errGoodbye):
		b.setState(StateDraining)
		b.drain(ctx, tasks, log)
		b.pipe.speak(ctx, leg, callID, b.cfg.Farewell)
		b.settle(ctx)
		_ = leg.WriteControl(ctx, Control{Type: ControlEndCall, Reason: "goodbye"})
		b.finish(ctx, callID, conversation.EndGoodbye)
		log.Info("call ended", "reason", "goodbye")
		return nil

	case errors.Is(waitErr, errStop):
		b.setState(StateDraining)
		b.drain(ctx, tasks, log)
		_ = leg.WriteControl(ctx, Control{Type: ControlEndCall, Reason: "stop"})
		b.finish(ctx, callID, conversation.EndStop)
		log.Info("call ended", "reason", "stop")
		return nil

	case errors.Is(waitErr, errDisconnected):
		tasks.Abandon()
		b.finish(ctx, callID, conversation.EndDisconnect)
		log.Info("call ended", "reason", "disconnect")
		return waitErr

	case errors.Is(waitErr, errTranscriptEnded):
		b.setState(StateDraining)
		b.drain(ctx, tasks, log)
		_ = leg.WriteControl(ctx, Control{Type: ControlError, Error: "transcription stream ended"})
		_ = leg.WriteControl(ctx, Control{Type: ControlEndCall, Reason: "error"})
		b.finish(ctx, callID, conversation.EndError)
		log.Warn("call ended", "reason", "transcription stream ended")
		return waitErr

	default:
		// Server shutdown or parent cancellation. Best-effort end_call on
		// a short detached context since ctx is already done.
		tasks.Abandon()
		byeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		_ = leg.WriteControl(byeCtx, Control{Type: ControlEndCall, Reason: "shutdown"})
		cancel()
		b.finish(ctx, callID, conversation.EndError)
		log.Warn("call ended", "reason", "shutdown", "error", waitErr)
		return waitErr
	}
}

func (b *Bridge) drain(ctx context.Context, tasks *TaskGroup, log *slog.Logger) {
	drainCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), b.cfg.DrainTimeout)
	defer cancel()
	if err := tasks.Drain(drainCtx); err != nil {
		log.Warn("turn tasks still pending at drain deadline", "pending", tasks.Pending())
	}
}

// settle gives playback time to flush before end_call.
func (b *Bridge) settle(ctx context.Context) {
	t := time.NewTimer(b.cfg.SettleInterval)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

func (b *Bridge) finish(ctx context.Context, callID string, reason conversation.EndReason) {
	b.setState(StateClosed)
	b.cfg.Tracker.Complete(callID, reason)
	if b.cfg.Metrics != nil {
		b.cfg.Metrics.ActiveCalls.Add(context.WithoutCancel(ctx), -1)
		b.cfg.Metrics.RecordCallCompleted(context.WithoutCancel(ctx), string(reason))
	}
}
