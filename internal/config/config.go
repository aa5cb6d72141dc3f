// Package config provides the configuration schema, loader, collaborator
// registry, and hot-reload watcher for the Voxteller server.
package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// LogLevel controls log verbosity for the Voxteller server.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Duration wraps time.Duration so YAML configs can use Go duration strings
// ("500ms", "2m") or bare integers, which are read as seconds.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}
	var secs int64
	if err := value.Decode(&secs); err == nil {
		*d = Duration(time.Duration(secs) * time.Second)
		return nil
	}
	return fmt.Errorf("invalid duration value %q", value.Value)
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the root configuration structure for Voxteller.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Collaborators CollaboratorsConfig `yaml:"collaborators"`
	Call          CallConfig          `yaml:"call"`
	Conversations ConversationsConfig `yaml:"conversations"`
	Resilience    ResilienceConfig    `yaml:"resilience"`
}

// ServerConfig holds network and logging settings for the Voxteller server.
type ServerConfig struct {
	// ListenAddr is the TCP address the server listens on (e.g., ":8080").
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`

	// TLS configures TLS for the server. When nil, the server runs plain HTTP.
	TLS *TLSConfig `yaml:"tls"`
}

// TLSConfig holds TLS certificate paths for enabling HTTPS.
type TLSConfig struct {
	// CertFile is the path to the PEM-encoded TLS certificate.
	CertFile string `yaml:"cert_file"`

	// KeyFile is the path to the PEM-encoded TLS private key.
	KeyFile string `yaml:"key_file"`
}

// Endpoint is the common configuration block shared by all collaborator
// services. The Name field is used to look up the constructor in the
// [Registry] for collaborators that have multiple backends.
type Endpoint struct {
	// Name selects the registered client implementation (e.g., "httpapi",
	// "anyllm", "openai"). Collaborators with a single backend may leave
	// it empty.
	Name string `yaml:"name"`

	// BaseURL is the collaborator's endpoint address. For the transcription
	// collaborator this is a websocket URL (ws:// or wss://).
	BaseURL string `yaml:"base_url"`

	// APIKey is the authentication key for the backend, if any.
	APIKey string `yaml:"api_key"`

	// Model selects a specific model for LLM-backed answer providers
	// (e.g., "gpt-4o-mini"). Ignored by plain HTTP backends.
	Model string `yaml:"model"`

	// Timeout bounds each request to this collaborator. Zero means the
	// client default.
	Timeout Duration `yaml:"timeout"`

	// Options holds backend-specific values not covered by the standard
	// fields above.
	Options map[string]any `yaml:"options"`
}

// CollaboratorsConfig declares the endpoint of every collaborator service
// the orchestrator talks to.
type CollaboratorsConfig struct {
	// Bank is the banking operations service (balance, transfers, QR).
	Bank Endpoint `yaml:"bank"`

	// Answer is the answer-generation service used for general questions
	// and for streamed call turns.
	Answer Endpoint `yaml:"answer"`

	// AnswerFallbacks lists backup answer backends tried in order when
	// the primary fails or its circuit is open.
	AnswerFallbacks []Endpoint `yaml:"answer_fallbacks"`

	// Retrieval is the offers/knowledge retrieval service.
	Retrieval Endpoint `yaml:"retrieval"`

	// Notify is the SMS notification service.
	Notify Endpoint `yaml:"notify"`

	// Complaint is the complaint-lodging service.
	Complaint Endpoint `yaml:"complaint"`

	// Speech is the text-to-speech service.
	Speech Endpoint `yaml:"speech"`

	// SpeechFallbacks lists backup synthesis backends.
	SpeechFallbacks []Endpoint `yaml:"speech_fallbacks"`

	// Transcribe is the streaming speech-recognition service.
	Transcribe Endpoint `yaml:"transcribe"`
}

// CallConfig tunes per-call bridge behaviour. All fields are optional;
// zero values fall back to the bridge defaults.
type CallConfig struct {
	// Greeting is spoken when a call connects.
	Greeting string `yaml:"greeting"`

	// Farewell is spoken when the caller says an end phrase.
	Farewell string `yaml:"farewell"`

	// EndPhrases are the utterances that end a call.
	EndPhrases []string `yaml:"end_phrases"`

	// SettleInterval is how long playback is given to flush after the
	// farewell before the call is ended.
	SettleInterval Duration `yaml:"settle_interval"`

	// DrainTimeout bounds the wait for in-flight turn tasks when a call
	// ends cooperatively.
	DrainTimeout Duration `yaml:"drain_timeout"`

	// SampleRate is the telephony audio sample rate in Hz.
	SampleRate int `yaml:"sample_rate"`
}

// ConversationsConfig tunes transcript retention and stale-call reclaim.
type ConversationsConfig struct {
	// CompletedCapacity bounds the completed-conversation ring.
	CompletedCapacity int `yaml:"completed_capacity"`

	// SweepInterval is how often abandoned calls are reclaimed. Zero
	// disables the background sweeper.
	SweepInterval Duration `yaml:"sweep_interval"`

	// MaxCallAge is the age past which an active call is considered
	// abandoned by the sweeper.
	MaxCallAge Duration `yaml:"max_call_age"`
}

// ResilienceConfig tunes the per-collaborator circuit breakers. Zero
// values fall back to the breaker defaults.
type ResilienceConfig struct {
	// FailureThreshold is the number of consecutive failures that opens
	// a breaker.
	FailureThreshold int `yaml:"failure_threshold"`

	// RecoveryTimeout is how long an open breaker waits before probing.
	RecoveryTimeout Duration `yaml:"recovery_timeout"`

	// HalfOpenSuccesses is the number of consecutive probe successes
	// that close a half-open breaker.
	HalfOpenSuccesses int `yaml:"half_open_successes"`
}
