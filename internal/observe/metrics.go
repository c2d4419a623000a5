// Package observe provides application-wide observability primitives for
// the orchestrator: OpenTelemetry metrics bridged to Prometheus via
// [InitProvider], plus structured logging conventions shared across
// components.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A
// package-level default [Metrics] instance ([DefaultMetrics]) is provided
// for convenience; tests should use [NewMetrics] with a custom
// [metric.MeterProvider] to avoid cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all orchestrator
// metrics.
const meterName = "github.com/nopparoot15/saltybot"

// Metrics holds all OpenTelemetry metric instruments the orchestrator
// records against. All fields are safe for concurrent use — the underlying
// OTel types handle their own synchronisation.
type Metrics struct {
	// RecognitionDuration tracks end-to-end Transcribe latency.
	RecognitionDuration metric.Float64Histogram

	// TranscodeDuration tracks the latency of one ToWAV16kMono call across
	// every ffmpeg plan it tried.
	TranscodeDuration metric.Float64Histogram

	// RecognitionAttempts counts recognizer attempts. Use with attributes:
	//   attribute.String("mode", "sync"|"long"), attribute.String("outcome", "text"|"empty"|"api_error"|"oversized"|"error")
	RecognitionAttempts metric.Int64Counter

	// QuotaReservations counts try_reserve calls. Use with attribute:
	//   attribute.Bool("ok", ...)
	QuotaReservations metric.Int64Counter

	// QuotaRefunds counts refund calls.
	QuotaRefunds metric.Int64Counter

	// TranscodePlansAttempted counts ffmpeg plan attempts by plan name and
	// outcome.
	TranscodePlansAttempted metric.Int64Counter

	// ActiveTranscriptions tracks in-flight Transcribe calls.
	ActiveTranscriptions metric.Int64UpDownCounter
}

// latencyBuckets defines histogram bucket boundaries (in seconds), wide
// enough to cover both sync recognition (sub-second to tens of seconds) and
// long-running recognition (minutes).
var latencyBuckets = []float64{
	0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.RecognitionDuration, err = m.Float64Histogram("sro.recognition.duration",
		metric.WithDescription("Latency of a full Transcribe call."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.TranscodeDuration, err = m.Float64Histogram("sro.transcode.duration",
		metric.WithDescription("Latency of a full transcode across all plans tried."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.RecognitionAttempts, err = m.Int64Counter("sro.recognition.attempts",
		metric.WithDescription("Total recognizer attempts by mode and outcome."),
	); err != nil {
		return nil, err
	}
	if met.QuotaReservations, err = m.Int64Counter("sro.quota.reservations",
		metric.WithDescription("Total try_reserve calls by result."),
	); err != nil {
		return nil, err
	}
	if met.QuotaRefunds, err = m.Int64Counter("sro.quota.refunds",
		metric.WithDescription("Total refund calls."),
	); err != nil {
		return nil, err
	}
	if met.TranscodePlansAttempted, err = m.Int64Counter("sro.transcode.plans_attempted",
		metric.WithDescription("Total ffmpeg transcode plan attempts by plan and outcome."),
	); err != nil {
		return nil, err
	}
	if met.ActiveTranscriptions, err = m.Int64UpDownCounter("sro.active_transcriptions",
		metric.WithDescription("Number of Transcribe calls currently in flight."),
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

// RecordRecognitionAttempt records one recognizer attempt outcome.
func (m *Metrics) RecordRecognitionAttempt(ctx context.Context, mode, outcome string) {
	m.RecognitionAttempts.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("mode", mode),
			attribute.String("outcome", outcome),
		),
	)
}

// RecordQuotaReservation records one try_reserve call result.
func (m *Metrics) RecordQuotaReservation(ctx context.Context, ok bool) {
	m.QuotaReservations.Add(ctx, 1, metric.WithAttributes(attribute.Bool("ok", ok)))
}

// RecordQuotaRefund records one refund call.
func (m *Metrics) RecordQuotaRefund(ctx context.Context) {
	m.QuotaRefunds.Add(ctx, 1)
}

// RecordTranscodePlan records one ffmpeg plan attempt.
func (m *Metrics) RecordTranscodePlan(ctx context.Context, plan string, succeeded bool) {
	m.TranscodePlansAttempted.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("plan", plan),
			attribute.Bool("succeeded", succeeded),
		),
	)
}
