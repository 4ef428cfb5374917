// Package observability provides logging, metrics, and tracing for lazyreg
// registries.
//
// Features:
//   - Structured logging via slog (Go stdlib), with text, JSON, or tint handlers
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled.
package observability

import (
	"log/slog"
	"time"
)

// EnrichLogger adds the registry name to a logger.
//
// Example:
//
//	enriched := EnrichLogger(logger, "services")
//	enriched.Info("resolving") // includes registry=services
func EnrichLogger(logger *slog.Logger, registry string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(slog.String("registry", registry))
}

// LogConstructStart logs the start of a construction attempt.
func LogConstructStart(logger *slog.Logger, key, attemptID string) {
	if logger == nil {
		return
	}
	logger.Debug("constructing instance",
		slog.String("key", key),
		slog.String("attempt_id", attemptID),
	)
}

// LogConstructComplete logs a successful construction and publish.
func LogConstructComplete(logger *slog.Logger, key, attemptID string, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Info("instance constructed",
		slog.String("key", key),
		slog.String("attempt_id", attemptID),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogConstructError logs a failed construction. Nothing was published.
func LogConstructError(logger *slog.Logger, key, attemptID string, err error, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Error("construction failed",
		slog.String("key", key),
		slog.String("attempt_id", attemptID),
		slog.String("error", err.Error()),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogSlowWait logs a caller that has been blocked on an in-flight
// construction for longer than the configured threshold. A constructor that
// re-enters its own key without its construction context shows up here.
func LogSlowWait(logger *slog.Logger, key string, elapsed time.Duration) {
	if logger == nil {
		return
	}
	logger.Warn("construction still in flight",
		slog.String("key", key),
		slog.Float64("waited_ms", float64(elapsed.Milliseconds())),
	)
}

// LogReentrant logs a constructor that tried to resolve its own key.
func LogReentrant(logger *slog.Logger, key string) {
	if logger == nil {
		return
	}
	logger.Error("reentrant initialization",
		slog.String("key", key),
	)
}

// LogProvided logs an instance published without construction.
func LogProvided(logger *slog.Logger, key string) {
	if logger == nil {
		return
	}
	logger.Debug("instance provided",
		slog.String("key", key),
	)
}

// TimedOperation measures the duration of an operation.
// Returns a function that, when called, returns the elapsed time.
//
// Example:
//
//	done := TimedOperation()
//	// ... do work ...
//	elapsed := done()
func TimedOperation() func() time.Duration {
	start := time.Now()
	return func() time.Duration {
		return time.Since(start)
	}
}

// Millis converts a duration into fractional milliseconds for log fields.
func Millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
