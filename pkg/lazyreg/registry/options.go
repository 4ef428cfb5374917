package registry

import (
	"log/slog"
	"time"

	"github.com/randalmurphal/lazyreg/pkg/lazyreg/observability"
)

// DefaultSlowWaitThreshold is how long a caller may block on an in-flight
// construction before the registry logs a warning.
const DefaultSlowWaitThreshold = 5 * time.Second

// options holds configuration for a Registry.
type options struct {
	name           string
	logger         *slog.Logger
	metrics        observability.MetricsRecorder
	spans          observability.SpanManager
	tracingEnabled bool
	slowWait       time.Duration
}

// defaultOptions returns the default registry configuration.
func defaultOptions() options {
	return options{
		name:     "default",
		logger:   slog.Default(),
		metrics:  observability.NoopMetrics{},
		spans:    observability.NoopSpanManager{},
		slowWait: DefaultSlowWaitThreshold,
	}
}

// Option configures a Registry.
type Option func(*options)

// WithName sets the registry name used in logs, metrics, and spans.
// Default: "default"
func WithName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.name = name
		}
	}
}

// WithLogger sets the logger. A nil logger disables logging.
// Default: slog.Default()
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMetrics sets the metrics recorder. A nil recorder disables metrics.
//
// Example:
//
//	reg := registry.New[string, *DB](registry.WithMetrics(observability.NewMetricsRecorder()))
func WithMetrics(m observability.MetricsRecorder) Option {
	return func(o *options) {
		if m == nil {
			m = observability.NoopMetrics{}
		}
		o.metrics = m
	}
}

// WithTracing enables OpenTelemetry spans around constructor invocations,
// using the global tracer provider.
func WithTracing(enabled bool) Option {
	return func(o *options) {
		o.tracingEnabled = enabled
		if enabled {
			if _, isNoop := o.spans.(observability.NoopSpanManager); isNoop {
				o.spans = observability.NewSpanManager()
			}
		}
	}
}

// WithSpanManager sets a custom span manager and enables tracing.
func WithSpanManager(s observability.SpanManager) Option {
	return func(o *options) {
		if s == nil {
			o.spans = observability.NoopSpanManager{}
			o.tracingEnabled = false
			return
		}
		o.spans = s
		o.tracingEnabled = true
	}
}

// WithSlowWaitThreshold sets how long a caller may block on an in-flight
// construction before a warning is logged. The warning repeats every d.
// Zero disables the warning.
// Default: DefaultSlowWaitThreshold
func WithSlowWaitThreshold(d time.Duration) Option {
	return func(o *options) {
		if d >= 0 {
			o.slowWait = d
		}
	}
}
