// Package observe provides application-wide observability primitives:
// OpenTelemetry metrics, distributed tracing, structured logging, and HTTP
// middleware that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can still
// be scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all metrics.
const meterName = "github.com/voxteller/voxteller"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms per turn stage ---

	// AnswerDuration tracks answer-generation latency.
	AnswerDuration metric.Float64Histogram

	// SynthesisDuration tracks text-to-speech synthesis latency.
	SynthesisDuration metric.Float64Histogram

	// TurnDuration tracks end-to-end turn latency: finalized utterance to
	// play_audio pushed to the telephony leg.
	TurnDuration metric.Float64Histogram

	// --- Counters ---

	// CollaboratorRequests counts collaborator calls. Use with attributes:
	//   attribute.String("collaborator", ...), attribute.String("status", ...)
	CollaboratorRequests metric.Int64Counter

	// CollaboratorErrors counts collaborator failures. Use with attribute:
	//   attribute.String("collaborator", ...)
	CollaboratorErrors metric.Int64Counter

	// Intents counts routed utterances by classified intent. Use with
	// attribute: attribute.String("intent", ...)
	Intents metric.Int64Counter

	// CallsCompleted counts finished calls. Use with attribute:
	//   attribute.String("reason", ...)
	CallsCompleted metric.Int64Counter

	// --- Gauges ---

	// ActiveCalls tracks the number of live call bridges.
	ActiveCalls metric.Int64UpDownCounter

	// PendingTurns tracks in-flight turn tasks across all calls.
	PendingTurns metric.Int64UpDownCounter

	// --- HTTP middleware ---

	// HTTPRequestDuration tracks HTTP request processing time. Use with
	// attributes: attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds) optimised
// for voice-turn latencies.
var latencyBuckets = []float64{
	0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.AnswerDuration, err = m.Float64Histogram("voxteller.answer.duration",
		metric.WithDescription("Latency of answer generation."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.SynthesisDuration, err = m.Float64Histogram("voxteller.synthesis.duration",
		metric.WithDescription("Latency of speech synthesis."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.TurnDuration, err = m.Float64Histogram("voxteller.turn.duration",
		metric.WithDescription("End-to-end latency from finalized utterance to playback."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.CollaboratorRequests, err = m.Int64Counter("voxteller.collaborator.requests",
		metric.WithDescription("Total collaborator requests by collaborator and status."),
	); err != nil {
		return nil, err
	}
	if met.CollaboratorErrors, err = m.Int64Counter("voxteller.collaborator.errors",
		metric.WithDescription("Total collaborator errors by collaborator."),
	); err != nil {
		return nil, err
	}
	if met.Intents, err = m.Int64Counter("voxteller.intents",
		metric.WithDescription("Total routed utterances by classified intent."),
	); err != nil {
		return nil, err
	}
	if met.CallsCompleted, err = m.Int64Counter("voxteller.calls.completed",
		metric.WithDescription("Total completed calls by end reason."),
	); err != nil {
		return nil, err
	}

	// Gauges (UpDownCounters).
	if met.ActiveCalls, err = m.Int64UpDownCounter("voxteller.active_calls",
		metric.WithDescription("Number of live call bridges."),
	); err != nil {
		return nil, err
	}
	if met.PendingTurns, err = m.Int64UpDownCounter("voxteller.pending_turns",
		metric.WithDescription("Number of in-flight turn tasks across all calls."),
	); err != nil {
		return nil, err
	}

	// HTTP middleware histogram.
	if met.HTTPRequestDuration, err = m.Float64Histogram("voxteller.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordCollaboratorRequest records a collaborator request counter increment
// with the standard attribute set, and an error increment when status is not
// "ok".
func (m *Metrics) RecordCollaboratorRequest(ctx context.Context, collaborator, status string) {
	m.CollaboratorRequests.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("collaborator", collaborator),
			attribute.String("status", status),
		),
	)
	if status != "ok" {
		m.CollaboratorErrors.Add(ctx, 1,
			metric.WithAttributes(attribute.String("collaborator", collaborator)),
		)
	}
}

// RecordIntent records one routed utterance for the given intent.
func (m *Metrics) RecordIntent(ctx context.Context, intent string) {
	m.Intents.Add(ctx, 1,
		metric.WithAttributes(attribute.String("intent", intent)),
	)
}

// RecordCallCompleted records one finished call with its end reason.
func (m *Metrics) RecordCallCompleted(ctx context.Context, reason string) {
	m.CallsCompleted.Add(ctx, 1,
		metric.WithAttributes(attribute.String("reason", reason)),
	)
}
