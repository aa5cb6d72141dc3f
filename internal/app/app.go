// Package app wires all Voxteller subsystems into a running HTTP server.
//
// The App struct owns the full lifecycle: New creates and connects all
// subsystems, Run serves HTTP and runs the background sweeper until the
// context is cancelled, and Shutdown tears everything down in order.
//
// For testing, inject mock implementations via functional options
// (WithSessionStore, WithTracker, etc.). When an option is not provided,
// New creates real implementations from the config.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/voxteller/voxteller/internal/bridge"
	"github.com/voxteller/voxteller/internal/config"
	"github.com/voxteller/voxteller/internal/conversation"
	"github.com/voxteller/voxteller/internal/handler"
	"github.com/voxteller/voxteller/internal/health"
	"github.com/voxteller/voxteller/internal/observe"
	"github.com/voxteller/voxteller/internal/session"
	"github.com/voxteller/voxteller/pkg/collab/answer"
	"github.com/voxteller/voxteller/pkg/collab/bank"
	"github.com/voxteller/voxteller/pkg/collab/complaint"
	"github.com/voxteller/voxteller/pkg/collab/notify"
	"github.com/voxteller/voxteller/pkg/collab/retrieval"
	"github.com/voxteller/voxteller/pkg/collab/speech"
	"github.com/voxteller/voxteller/pkg/collab/transcribe"
)

// Collaborators holds one interface value per collaborator service slot.
// Populated by main.go via the config registry and the httpapi clients.
type Collaborators struct {
	Bank        bank.Ops
	Answer      answer.Provider
	Retrieval   retrieval.Provider
	Notify      notify.Sender
	Complaints  complaint.Lodger
	Speech      speech.Synthesizer
	Transcriber transcribe.Provider
}

// App owns all subsystem lifetimes and serves the orchestrator HTTP API.
type App struct {
	cfg    *config.Config
	collab *Collaborators

	// Subsystems — initialised in New, torn down in Shutdown.
	sessions *session.Store
	tracker  *conversation.Tracker
	metrics  *observe.Metrics
	bridge   *bridge.Bridge
	router   *handler.Router
	handler  http.Handler
	server   *http.Server

	checkers []health.Checker

	// closers are called in order during Shutdown.
	closers []func() error

	// stopOnce guards the Shutdown path.
	stopOnce sync.Once
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithSessionStore injects a session store instead of creating a fresh one.
func WithSessionStore(s *session.Store) Option {
	return func(a *App) { a.sessions = s }
}

// WithTracker injects a conversation tracker instead of creating one from
// config.
func WithTracker(t *conversation.Tracker) Option {
	return func(a *App) { a.tracker = t }
}

// WithMetrics injects a metrics bundle instead of using the process-wide
// default. Tests use this with a manual-reader meter provider.
func WithMetrics(m *observe.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// WithReadinessChecks adds readiness checkers beyond the defaults.
func WithReadinessChecks(checkers ...health.Checker) Option {
	return func(a *App) { a.checkers = append(a.checkers, checkers...) }
}

// ─── New ─────────────────────────────────────────────────────────────────────

// New creates an App by wiring all subsystems together. The collaborators
// struct comes from main.go; every slot must be non-nil.
func New(cfg *config.Config, collab *Collaborators, opts ...Option) (*App, error) {
	if err := checkCollaborators(collab); err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}

	a := &App{
		cfg:    cfg,
		collab: collab,
	}
	for _, o := range opts {
		o(a)
	}

	if a.sessions == nil {
		a.sessions = session.NewStore()
	}
	if a.tracker == nil {
		var topts []conversation.Option
		if cfg.Conversations.CompletedCapacity > 0 {
			topts = append(topts, conversation.WithCompletedCapacity(cfg.Conversations.CompletedCapacity))
		}
		a.tracker = conversation.NewTracker(topts...)
	}
	if a.metrics == nil {
		a.metrics = observe.DefaultMetrics()
	}

	a.bridge = bridge.New(bridge.Config{
		Tracker:        a.tracker,
		Transcriber:    collab.Transcriber,
		Answer:         collab.Answer,
		Synthesizer:    collab.Speech,
		Metrics:        a.metrics,
		Greeting:       cfg.Call.Greeting,
		Farewell:       cfg.Call.Farewell,
		EndPhrases:     cfg.Call.EndPhrases,
		SettleInterval: cfg.Call.SettleInterval.Std(),
		DrainTimeout:   cfg.Call.DrainTimeout.Std(),
		SampleRate:     cfg.Call.SampleRate,
	})

	a.router = handler.New(handler.Config{
		Sessions:   a.sessions,
		Bank:       collab.Bank,
		Answer:     collab.Answer,
		Retrieval:  collab.Retrieval,
		Notify:     collab.Notify,
		Complaints: collab.Complaints,
	})

	a.handler = a.buildHandler()
	a.server = &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return a, nil
}

// checkCollaborators rejects partially wired collaborator sets early, with
// one clear error instead of a nil deref deep in a call.
func checkCollaborators(c *Collaborators) error {
	if c == nil {
		return errors.New("collaborators are required")
	}
	var missing []string
	require := func(name string, present bool) {
		if !present {
			missing = append(missing, name)
		}
	}
	require("bank", c.Bank != nil)
	require("answer", c.Answer != nil)
	require("retrieval", c.Retrieval != nil)
	require("notify", c.Notify != nil)
	require("complaints", c.Complaints != nil)
	require("speech", c.Speech != nil)
	require("transcriber", c.Transcriber != nil)
	if len(missing) > 0 {
		return fmt.Errorf("missing collaborators: %v", missing)
	}
	return nil
}

// buildHandler assembles the route table and wraps it in the tracing and
// metrics middleware.
func (a *App) buildHandler() http.Handler {
	mux := http.NewServeMux()

	a.router.Register(mux)
	(&API{tracker: a.tracker, sessions: a.sessions}).Register(mux)
	(&CallServer{bridge: a.bridge}).Register(mux)
	health.New(a.checkers...).Register(mux)
	mux.Handle("GET /metrics", promhttp.Handler())

	return observe.Middleware(a.metrics)(mux)
}

// Handler returns the fully assembled HTTP handler. Exposed for tests that
// drive the API through httptest without binding a port.
func (a *App) Handler() http.Handler { return a.handler }

// Tracker returns the conversation tracker. Exposed for tests.
func (a *App) Tracker() *conversation.Tracker { return a.tracker }

// ─── Run ─────────────────────────────────────────────────────────────────────

// Run serves HTTP and runs the stale-call sweeper until ctx is cancelled,
// then shuts down gracefully. It returns the server error for abnormal
// exits and nil for a clean shutdown.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		var err error
		if tls := a.cfg.Server.TLS; tls != nil {
			err = a.server.ListenAndServeTLS(tls.CertFile, tls.KeyFile)
		} else {
			err = a.server.ListenAndServe()
		}
		if !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sweepDone := make(chan struct{})
	if a.cfg.Conversations.SweepInterval.Std() > 0 {
		go a.sweepLoop(ctx, sweepDone)
	} else {
		close(sweepDone)
	}

	slog.Info("voxteller serving", "addr", a.cfg.Server.ListenAddr)

	select {
	case err := <-errCh:
		return fmt.Errorf("app: serve: %w", err)
	case <-ctx.Done():
	}

	<-sweepDone

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return a.Shutdown(shutdownCtx)
}

// sweepLoop periodically reclaims calls whose bridge went away without
// completing them (crashed handler, wedged telephony leg).
func (a *App) sweepLoop(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	interval := a.cfg.Conversations.SweepInterval.Std()
	maxAge := a.cfg.Conversations.MaxCallAge.Std()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			reclaimed := a.tracker.SweepStale(maxAge)
			for range reclaimed {
				a.metrics.RecordCallCompleted(context.Background(), string(conversation.EndStale))
			}
			if len(reclaimed) > 0 {
				slog.Warn("reclaimed stale calls", "count", len(reclaimed), "call_ids", reclaimed)
			}
		}
	}
}

// ─── Shutdown ────────────────────────────────────────────────────────────────

// Shutdown stops the HTTP server and runs all registered closers in order.
// It respects the context deadline: if ctx expires, remaining closers are
// skipped and the context error is returned.
func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.stopOnce.Do(func() {
		slog.Info("shutting down", "closers", len(a.closers))

		if err := a.server.Shutdown(ctx); err != nil {
			slog.Warn("http shutdown error", "err", err)
			shutdownErr = err
		}

		for i, closer := range a.closers {
			select {
			case <-ctx.Done():
				slog.Warn("shutdown deadline exceeded", "remaining", len(a.closers)-i)
				shutdownErr = ctx.Err()
				return
			default:
			}
			if err := closer(); err != nil {
				slog.Warn("closer error", "index", i, "err", err)
			}
		}

		slog.Info("shutdown complete")
	})
	return shutdownErr
}

// OnClose registers fn to run during Shutdown, after the HTTP server has
// stopped. Used by main.go for telemetry and collaborator teardown.
func (a *App) OnClose(fn func() error) {
	a.closers = append(a.closers, fn)
}
