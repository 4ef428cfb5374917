package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records registry metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordLookup records a GetOrCreate call and whether the fast path hit.
	RecordLookup(ctx context.Context, registry, key string, hit bool)

	// RecordConstruction records one constructor invocation.
	RecordConstruction(ctx context.Context, registry, key string, duration time.Duration, err error)

	// RecordWait records a caller that blocked on another caller's construction.
	RecordWait(ctx context.Context, registry, key string, duration time.Duration, err error)

	// RecordSlowWait records a wait that crossed the slow-wait threshold.
	RecordSlowWait(ctx context.Context, registry, key string)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	lookups             metric.Int64Counter
	constructions       metric.Int64Counter
	constructionLatency metric.Float64Histogram
	constructionErrors  metric.Int64Counter
	waitLatency         metric.Float64Histogram
	slowWaits           metric.Int64Counter
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics returns the default OTel metrics instance.
// Lazily initializes the instruments on first call.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("lazyreg")

	lookups, err := meter.Int64Counter("lazyreg.lookups",
		metric.WithDescription("Number of GetOrCreate calls"),
	)
	if err != nil {
		return nil, err
	}

	constructions, err := meter.Int64Counter("lazyreg.constructions",
		metric.WithDescription("Number of constructor invocations"),
	)
	if err != nil {
		return nil, err
	}

	constructionLatency, err := meter.Float64Histogram("lazyreg.construction.latency_ms",
		metric.WithDescription("Constructor latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	constructionErrors, err := meter.Int64Counter("lazyreg.construction.errors",
		metric.WithDescription("Number of failed constructions"),
	)
	if err != nil {
		return nil, err
	}

	waitLatency, err := meter.Float64Histogram("lazyreg.wait.latency_ms",
		metric.WithDescription("Time callers spent blocked on an in-flight construction"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	slowWaits, err := meter.Int64Counter("lazyreg.wait.slow",
		metric.WithDescription("Waits that exceeded the slow-wait threshold"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		lookups:             lookups,
		constructions:       constructions,
		constructionLatency: constructionLatency,
		constructionErrors:  constructionErrors,
		waitLatency:         waitLatency,
		slowWaits:           slowWaits,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

func keyAttrs(registry, key string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("registry", registry),
		attribute.String("key", key),
	}
}

// RecordLookup records a lookup.
func (m *otelMetrics) RecordLookup(ctx context.Context, registry, key string, hit bool) {
	attrs := append(keyAttrs(registry, key), attribute.Bool("hit", hit))
	m.lookups.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordConstruction records a constructor invocation.
func (m *otelMetrics) RecordConstruction(ctx context.Context, registry, key string, duration time.Duration, err error) {
	attrs := append(keyAttrs(registry, key), attribute.Bool("success", err == nil))
	m.constructions.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.constructionLatency.Record(ctx, Millis(duration), metric.WithAttributes(attrs...))

	if err != nil {
		m.constructionErrors.Add(ctx, 1, metric.WithAttributes(keyAttrs(registry, key)...))
	}
}

// RecordWait records a blocked caller.
func (m *otelMetrics) RecordWait(ctx context.Context, registry, key string, duration time.Duration, err error) {
	attrs := append(keyAttrs(registry, key), attribute.Bool("success", err == nil))
	m.waitLatency.Record(ctx, Millis(duration), metric.WithAttributes(attrs...))
}

// RecordSlowWait records a slow wait.
func (m *otelMetrics) RecordSlowWait(ctx context.Context, registry, key string) {
	m.slowWaits.Add(ctx, 1, metric.WithAttributes(keyAttrs(registry, key)...))
}
