// Command voxteller is the main entry point for the Voxteller voice banking
// server. It loads the YAML configuration, builds the collaborator clients,
// and serves the telephony WebSocket plus the operator HTTP API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	anyllmlib "github.com/mozilla-ai/any-llm-go"

	"github.com/voxteller/voxteller/internal/app"
	"github.com/voxteller/voxteller/internal/config"
	"github.com/voxteller/voxteller/internal/health"
	"github.com/voxteller/voxteller/internal/observe"
	"github.com/voxteller/voxteller/internal/resilience"
	"github.com/voxteller/voxteller/pkg/collab/answer"
	"github.com/voxteller/voxteller/pkg/collab/answer/anyllm"
	answerhttp "github.com/voxteller/voxteller/pkg/collab/answer/httpapi"
	answeroai "github.com/voxteller/voxteller/pkg/collab/answer/openai"
	bankhttp "github.com/voxteller/voxteller/pkg/collab/bank/httpapi"
	complainthttp "github.com/voxteller/voxteller/pkg/collab/complaint/httpapi"
	notifyhttp "github.com/voxteller/voxteller/pkg/collab/notify/httpapi"
	retrievalhttp "github.com/voxteller/voxteller/pkg/collab/retrieval/httpapi"
	"github.com/voxteller/voxteller/pkg/collab/speech"
	speechhttp "github.com/voxteller/voxteller/pkg/collab/speech/httpapi"
	"github.com/voxteller/voxteller/pkg/collab/transcribe"
	"github.com/voxteller/voxteller/pkg/collab/transcribe/wsapi"
)

// version is overridden at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	showVersion := flag.Bool("version", false, "print the version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("voxteller", version)
		return 0
	}

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "voxteller: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "voxteller: %v\n", err)
		}
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	// The level lives in a LevelVar so the config watcher can adjust it at
	// runtime without rebuilding the handler.
	level := new(slog.LevelVar)
	level.Set(slogLevel(cfg.Server.LogLevel))
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	slog.Info("voxteller starting",
		"version", version,
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Telemetry ─────────────────────────────────────────────────────────────
	otelShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName:    "voxteller",
		ServiceVersion: version,
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}

	// ── Collaborator clients ──────────────────────────────────────────────────
	reg := config.NewRegistry()
	registerBuiltinBackends(reg)

	collab, checks, err := buildCollaborators(cfg, reg)
	if err != nil {
		slog.Error("failed to build collaborators", "err", err)
		return 1
	}

	printStartupSummary(cfg)

	application, err := app.New(cfg, collab, app.WithReadinessChecks(checks...))
	if err != nil {
		slog.Error("failed to initialise application", "err", err)
		return 1
	}
	application.OnClose(func() error {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return otelShutdown(shutdownCtx)
	})

	// ── Config hot reload ─────────────────────────────────────────────────────
	watcher, err := config.NewWatcher(*configPath, func(old, new *config.Config) {
		applyConfigChange(level, old, new)
	})
	if err != nil {
		slog.Warn("config watcher disabled", "err", err)
	} else {
		application.OnClose(func() error {
			watcher.Stop()
			return nil
		})
	}

	slog.Info("server ready — press Ctrl+C to shut down")

	if err := application.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// ─── Backend registry ────────────────────────────────────────────────────────

// registerBuiltinBackends wires the backend factories that ship with
// Voxteller into reg. Each factory receives a [config.Endpoint] and
// constructs a client from the real collaborator packages.
func registerBuiltinBackends(reg *config.Registry) {
	// ── Answer ────────────────────────────────────────────────────────────────

	reg.RegisterAnswer("httpapi", func(entry config.Endpoint) (answer.Provider, error) {
		var opts []answerhttp.Option
		if c := httpClientFor(entry); c != nil {
			opts = append(opts, answerhttp.WithHTTPClient(c))
		}
		return answerhttp.New(entry.BaseURL, opts...)
	})

	reg.RegisterAnswer("anyllm", func(entry config.Endpoint) (answer.Provider, error) {
		backend := optString(entry.Options, "provider")
		if backend == "" {
			backend = "openai"
		}
		var libOpts []anyllmlib.Option
		if entry.APIKey != "" {
			libOpts = append(libOpts, anyllmlib.WithAPIKey(entry.APIKey))
		}
		if entry.BaseURL != "" {
			libOpts = append(libOpts, anyllmlib.WithBaseURL(entry.BaseURL))
		}
		var opts []anyllm.Option
		if prompt := optString(entry.Options, "system_prompt"); prompt != "" {
			opts = append(opts, anyllm.WithSystemPrompt(prompt))
		}
		if max := optInt(entry.Options, "max_tokens"); max > 0 {
			opts = append(opts, anyllm.WithMaxTokens(max))
		}
		return anyllm.New(backend, entry.Model, libOpts, opts...)
	})

	reg.RegisterAnswer("openai", func(entry config.Endpoint) (answer.Provider, error) {
		var opts []answeroai.Option
		if entry.BaseURL != "" {
			opts = append(opts, answeroai.WithBaseURL(entry.BaseURL))
		}
		if d := entry.Timeout.Std(); d > 0 {
			opts = append(opts, answeroai.WithTimeout(d))
		}
		return answeroai.New(entry.APIKey, entry.Model, opts...)
	})

	// ── Speech ────────────────────────────────────────────────────────────────

	reg.RegisterSynthesizer("httpapi", func(entry config.Endpoint) (speech.Synthesizer, error) {
		var opts []speechhttp.Option
		if c := httpClientFor(entry); c != nil {
			opts = append(opts, speechhttp.WithHTTPClient(c))
		}
		return speechhttp.New(entry.BaseURL, opts...)
	})

	// ── Transcription ─────────────────────────────────────────────────────────

	reg.RegisterTranscriber("wsapi", func(entry config.Endpoint) (transcribe.Provider, error) {
		var opts []wsapi.Option
		if rate := optInt(entry.Options, "sample_rate"); rate > 0 {
			opts = append(opts, wsapi.WithSampleRate(rate))
		}
		return wsapi.New(entry.BaseURL, opts...)
	})
}

// ─── Collaborator wiring ─────────────────────────────────────────────────────

// buildCollaborators instantiates every collaborator client named in cfg and
// returns them together with the readiness checks probing their endpoints.
func buildCollaborators(cfg *config.Config, reg *config.Registry) (*app.Collaborators, []health.Checker, error) {
	cc := cfg.Collaborators
	collab := &app.Collaborators{}
	var checks []health.Checker

	probe := func(name, url string, entry config.Endpoint) {
		if url == "" {
			return
		}
		checks = append(checks, health.CheckURL(name, url, httpClientFor(entry)))
	}

	// Bank: one read-query URL plus write-ops and QR URLs carried in the
	// options block.
	writeURL := optString(cc.Bank.Options, "write_url")
	qrURL := optString(cc.Bank.Options, "qr_url")
	var bankOpts []bankhttp.Option
	if c := httpClientFor(cc.Bank); c != nil {
		bankOpts = append(bankOpts, bankhttp.WithHTTPClient(c))
	}
	bankClient, err := bankhttp.New(cc.Bank.BaseURL, writeURL, qrURL, bankOpts...)
	if err != nil {
		return nil, nil, fmt.Errorf("bank: %w", err)
	}
	collab.Bank = bankClient
	probe("bank", cc.Bank.BaseURL, cc.Bank)

	// Answer: registry-backed, with circuit-breaker failover across the
	// configured fallback backends.
	primary, primaryName, err := createAnswer(reg, cc.Answer)
	if err != nil {
		return nil, nil, fmt.Errorf("answer: %w", err)
	}
	if len(cc.AnswerFallbacks) > 0 {
		group := resilience.NewAnswerFallback(primary, primaryName, fallbackConfig(cfg.Resilience))
		for i, fb := range cc.AnswerFallbacks {
			p, name, err := createAnswer(reg, fb)
			if err != nil {
				return nil, nil, fmt.Errorf("answer fallback %d: %w", i, err)
			}
			group.AddFallback(name, p)
		}
		collab.Answer = group
	} else {
		collab.Answer = primary
	}
	if cc.Answer.Name == "" || cc.Answer.Name == "httpapi" {
		probe("answer", cc.Answer.BaseURL, cc.Answer)
	}

	// Plain HTTP collaborators.
	if collab.Retrieval, err = retrievalhttp.New(cc.Retrieval.BaseURL, retrievalOpts(cc.Retrieval)...); err != nil {
		return nil, nil, fmt.Errorf("retrieval: %w", err)
	}
	probe("retrieval", cc.Retrieval.BaseURL, cc.Retrieval)

	if collab.Notify, err = notifyhttp.New(cc.Notify.BaseURL, notifyOpts(cc.Notify)...); err != nil {
		return nil, nil, fmt.Errorf("notify: %w", err)
	}
	probe("notify", cc.Notify.BaseURL, cc.Notify)

	if collab.Complaints, err = complainthttp.New(cc.Complaint.BaseURL, complaintOpts(cc.Complaint)...); err != nil {
		return nil, nil, fmt.Errorf("complaint: %w", err)
	}
	probe("complaint", cc.Complaint.BaseURL, cc.Complaint)

	// Speech: registry-backed with failover, like answer.
	speechPrimary, speechName, err := createSynthesizer(reg, cc.Speech)
	if err != nil {
		return nil, nil, fmt.Errorf("speech: %w", err)
	}
	if len(cc.SpeechFallbacks) > 0 {
		group := resilience.NewSynthFallback(speechPrimary, speechName, fallbackConfig(cfg.Resilience))
		for i, fb := range cc.SpeechFallbacks {
			p, name, err := createSynthesizer(reg, fb)
			if err != nil {
				return nil, nil, fmt.Errorf("speech fallback %d: %w", i, err)
			}
			group.AddFallback(name, p)
		}
		collab.Speech = group
	} else {
		collab.Speech = speechPrimary
	}
	probe("speech", cc.Speech.BaseURL, cc.Speech)

	// Transcription: websocket endpoint, so no HTTP probe.
	transcribeEntry := cc.Transcribe
	if transcribeEntry.Name == "" {
		transcribeEntry.Name = "wsapi"
	}
	if collab.Transcriber, err = reg.CreateTranscriber(transcribeEntry); err != nil {
		return nil, nil, fmt.Errorf("transcribe: %w", err)
	}

	return collab, checks, nil
}

func createAnswer(reg *config.Registry, entry config.Endpoint) (answer.Provider, string, error) {
	if entry.Name == "" {
		entry.Name = "httpapi"
	}
	p, err := reg.CreateAnswer(entry)
	return p, entry.Name, err
}

func createSynthesizer(reg *config.Registry, entry config.Endpoint) (speech.Synthesizer, string, error) {
	if entry.Name == "" {
		entry.Name = "httpapi"
	}
	s, err := reg.CreateSynthesizer(entry)
	return s, entry.Name, err
}

func fallbackConfig(cfg config.ResilienceConfig) resilience.FallbackConfig {
	return resilience.FallbackConfig{
		CircuitBreaker: resilience.CircuitBreakerConfig{
			MaxFailures:  cfg.FailureThreshold,
			ResetTimeout: cfg.RecoveryTimeout.Std(),
			HalfOpenMax:  cfg.HalfOpenSuccesses,
		},
	}
}

func retrievalOpts(entry config.Endpoint) []retrievalhttp.Option {
	if c := httpClientFor(entry); c != nil {
		return []retrievalhttp.Option{retrievalhttp.WithHTTPClient(c)}
	}
	return nil
}

func notifyOpts(entry config.Endpoint) []notifyhttp.Option {
	if c := httpClientFor(entry); c != nil {
		return []notifyhttp.Option{notifyhttp.WithHTTPClient(c)}
	}
	return nil
}

func complaintOpts(entry config.Endpoint) []complainthttp.Option {
	if c := httpClientFor(entry); c != nil {
		return []complainthttp.Option{complainthttp.WithHTTPClient(c)}
	}
	return nil
}

// ─── Config hot reload ───────────────────────────────────────────────────────

// applyConfigChange reacts to a config file change detected by the watcher.
// Only the log level takes effect live; everything else needs a restart.
func applyConfigChange(level *slog.LevelVar, old, new *config.Config) {
	d := config.Diff(old, new)
	if d.LogLevelChanged {
		level.Set(slogLevel(d.NewLogLevel))
		slog.Info("log level changed", "level", d.NewLogLevel)
	}
	if d.CallChanged || d.SweepChanged {
		slog.Warn("config change requires restart to take effect",
			"call_tuning", d.CallChanged,
			"sweeper", d.SweepChanged,
		)
	}
}

// ─── Startup summary ─────────────────────────────────────────────────────────

func printStartupSummary(cfg *config.Config) {
	cc := cfg.Collaborators
	fmt.Println("╔══════════════════════════════════════════════╗")
	fmt.Println("║          Voxteller — startup summary         ║")
	fmt.Println("╠══════════════════════════════════════════════╣")
	printCollaborator("Bank", cc.Bank.BaseURL, "")
	printCollaborator("Answer", backendLabel(cc.Answer), cc.Answer.Model)
	printCollaborator("Retrieval", cc.Retrieval.BaseURL, "")
	printCollaborator("Notify", cc.Notify.BaseURL, "")
	printCollaborator("Complaint", cc.Complaint.BaseURL, "")
	printCollaborator("Speech", backendLabel(cc.Speech), "")
	printCollaborator("Transcribe", cc.Transcribe.BaseURL, "")
	fmt.Printf("║  Answer fallbacks : %-24d ║\n", len(cc.AnswerFallbacks))
	fmt.Printf("║  Speech fallbacks : %-24d ║\n", len(cc.SpeechFallbacks))
	if cfg.Server.ListenAddr != "" {
		fmt.Printf("║  Listen addr      : %-24s ║\n", cfg.Server.ListenAddr)
	}
	fmt.Println("╚══════════════════════════════════════════════╝")
}

func printCollaborator(name, value, model string) {
	if value == "" {
		value = "(not configured)"
	} else if model != "" {
		value = value + " / " + model
	}
	if len(value) > 24 {
		value = value[:21] + "…"
	}
	fmt.Printf("║  %-16s : %-24s ║\n", name, value)
}

// backendLabel renders a registry-backed endpoint as "name" or the base URL
// for the default HTTP backend.
func backendLabel(entry config.Endpoint) string {
	if entry.Name != "" && entry.Name != "httpapi" {
		return entry.Name
	}
	return entry.BaseURL
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func slogLevel(level config.LogLevel) slog.Level {
	switch level {
	case config.LogDebug:
		return slog.LevelDebug
	case config.LogWarn:
		return slog.LevelWarn
	case config.LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// httpClientFor returns an *http.Client honouring the endpoint's timeout, or
// nil when the client default should be used.
func httpClientFor(entry config.Endpoint) *http.Client {
	if d := entry.Timeout.Std(); d > 0 {
		return &http.Client{Timeout: d}
	}
	return nil
}

// optString extracts a string value from an endpoint Options map. Returns ""
// if the map is nil, the key is absent, or the value is not a string.
func optString(opts map[string]any, key string) string {
	if opts == nil {
		return ""
	}
	s, _ := opts[key].(string)
	return s
}

// optInt extracts an integer value from an endpoint Options map.
func optInt(opts map[string]any, key string) int {
	if opts == nil {
		return 0
	}
	switch v := opts[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}
