// Package observe provides application-wide observability primitives:
// OpenTelemetry metrics and the provider setup that bridges them to a
// Prometheus /metrics endpoint.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A package-level
// default [Metrics] instance ([DefaultMetrics]) is provided for convenience;
// tests should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
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
const meterName = "switchboard"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use; the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// ClassifyTotal counts classifications. Use with attributes:
	//   attribute.String("stage", ...), attribute.String("intent", ...)
	ClassifyTotal metric.Int64Counter

	// RouteDuration tracks end-to-end routing latency. Use with attribute:
	//   attribute.String("intent", ...)
	RouteDuration metric.Float64Histogram

	// BackendErrors counts backend call failures. Use with attribute:
	//   attribute.String("intent", ...)
	BackendErrors metric.Int64Counter

	// InFlight tracks the number of messages currently being routed.
	InFlight metric.Int64UpDownCounter

	// HTTPRequestDuration tracks gateway HTTP request processing time. Use
	// with attributes:
	//   attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds). The upper
// buckets cover remote classifier plus LLM backend round trips.
var latencyBuckets = []float64{
	0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.ClassifyTotal, err = m.Int64Counter("switchboard.classify.total",
		metric.WithDescription("Total classified messages by stage and intent."),
	); err != nil {
		return nil, err
	}
	if met.RouteDuration, err = m.Float64Histogram("switchboard.route.duration",
		metric.WithDescription("End-to-end message routing latency by intent."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.BackendErrors, err = m.Int64Counter("switchboard.backend.errors",
		metric.WithDescription("Total backend call failures by intent."),
	); err != nil {
		return nil, err
	}
	if met.InFlight, err = m.Int64UpDownCounter("switchboard.route.in_flight",
		metric.WithDescription("Number of messages currently being routed."),
	); err != nil {
		return nil, err
	}
	if met.HTTPRequestDuration, err = m.Float64Histogram("switchboard.http.request.duration",
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

// RecordClassification records one classification with its deciding stage.
func (m *Metrics) RecordClassification(ctx context.Context, stage, intent string) {
	m.ClassifyTotal.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("stage", stage),
			attribute.String("intent", intent),
		),
	)
}

// RecordRoute records one completed routing pass.
func (m *Metrics) RecordRoute(ctx context.Context, intent string, seconds float64) {
	m.RouteDuration.Record(ctx, seconds,
		metric.WithAttributes(attribute.String("intent", intent)),
	)
}

// RecordBackendError records one backend call failure.
func (m *Metrics) RecordBackendError(ctx context.Context, intent string) {
	m.BackendErrors.Add(ctx, 1,
		metric.WithAttributes(attribute.String("intent", intent)),
	)
}
