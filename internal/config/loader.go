package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// ValidBackendNames lists known backend names per collaborator kind.
// Used by [Validate] to warn about unrecognised names.
var ValidBackendNames = map[string][]string{
	"answer":     {"httpapi", "anyllm", "openai"},
	"speech":     {"httpapi"},
	"transcribe": {"wsapi"},
}

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader] and [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if cfg.Server.TLS != nil {
		if cfg.Server.TLS.CertFile == "" || cfg.Server.TLS.KeyFile == "" {
			errs = append(errs, errors.New("server.tls requires both cert_file and key_file"))
		}
	}

	// Backend name validation — warn for unknown backend names.
	validateBackendName("answer", cfg.Collaborators.Answer.Name)
	for _, fb := range cfg.Collaborators.AnswerFallbacks {
		validateBackendName("answer", fb.Name)
	}
	validateBackendName("speech", cfg.Collaborators.Speech.Name)
	for _, fb := range cfg.Collaborators.SpeechFallbacks {
		validateBackendName("speech", fb.Name)
	}
	validateBackendName("transcribe", cfg.Collaborators.Transcribe.Name)

	// Collaborator availability warnings. The mocks cover every
	// collaborator in demos, so missing endpoints are not fatal.
	if cfg.Collaborators.Bank.BaseURL == "" {
		slog.Warn("collaborators.bank.base_url is empty; banking operations will use the in-process mock")
	}
	if cfg.Collaborators.Transcribe.BaseURL == "" {
		slog.Warn("collaborators.transcribe.base_url is empty; streamed calls cannot be transcribed")
	} else if !strings.HasPrefix(cfg.Collaborators.Transcribe.BaseURL, "ws://") &&
		!strings.HasPrefix(cfg.Collaborators.Transcribe.BaseURL, "wss://") {
		errs = append(errs, fmt.Errorf("collaborators.transcribe.base_url %q must be a ws:// or wss:// URL", cfg.Collaborators.Transcribe.BaseURL))
	}

	// LLM-backed answer providers need model and key.
	for _, ep := range append([]Endpoint{cfg.Collaborators.Answer}, cfg.Collaborators.AnswerFallbacks...) {
		if ep.Name == "anyllm" || ep.Name == "openai" {
			if ep.Model == "" {
				errs = append(errs, fmt.Errorf("collaborators.answer: backend %q requires a model", ep.Name))
			}
			if ep.APIKey == "" {
				slog.Warn("LLM answer backend has no api_key; relying on environment credentials", "backend", ep.Name)
			}
		}
	}

	// Call tuning
	if cfg.Call.SampleRate < 0 {
		errs = append(errs, fmt.Errorf("call.sample_rate %d must not be negative", cfg.Call.SampleRate))
	}
	if cfg.Call.SettleInterval < 0 {
		errs = append(errs, errors.New("call.settle_interval must not be negative"))
	}
	if cfg.Call.DrainTimeout < 0 {
		errs = append(errs, errors.New("call.drain_timeout must not be negative"))
	}
	for i, p := range cfg.Call.EndPhrases {
		if strings.TrimSpace(p) == "" {
			errs = append(errs, fmt.Errorf("call.end_phrases[%d] is empty", i))
		}
	}

	// Conversation retention
	if cfg.Conversations.CompletedCapacity < 0 {
		errs = append(errs, fmt.Errorf("conversations.completed_capacity %d must not be negative", cfg.Conversations.CompletedCapacity))
	}
	if cfg.Conversations.SweepInterval > 0 && cfg.Conversations.MaxCallAge <= 0 {
		errs = append(errs, errors.New("conversations.max_call_age is required when sweep_interval is set"))
	}

	// Resilience
	if cfg.Resilience.FailureThreshold < 0 {
		errs = append(errs, errors.New("resilience.failure_threshold must not be negative"))
	}
	if cfg.Resilience.HalfOpenSuccesses < 0 {
		errs = append(errs, errors.New("resilience.half_open_successes must not be negative"))
	}

	return errors.Join(errs...)
}

// validateBackendName logs a warning if name is non-empty and not found in
// the [ValidBackendNames] list for the given kind.
func validateBackendName(kind, name string) {
	if name == "" {
		return
	}
	known, ok := ValidBackendNames[kind]
	if !ok {
		return
	}
	if slices.Contains(known, name) {
		return
	}
	slog.Warn("unknown backend name — may be a typo or third-party client",
		"kind", kind,
		"name", name,
		"known", known,
	)
}
