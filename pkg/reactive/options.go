package reactive

import (
	"log/slog"
	"time"
)

// MetricsCollector receives tracker measurements.
// It keeps this package free of any metrics backend; see pkg/telemetry for
// the Prometheus implementation.
type MetricsCollector interface {
	// ObserveRun records one tracked run and the number of observables it read.
	ObserveRun(duration time.Duration, dependencies int)

	// AddNotifications records subscriber invocations made by one Set.
	AddNotifications(n int)

	// IncSubscriberFailures records a subscriber that panicked.
	IncSubscriberFailures()

	// SetObservers records the number of observers the tracker knows about.
	SetObservers(n int)
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithLogger sets the logger used for subscriber failures and nested runs.
// Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(t *Tracker) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// WithErrorHandler sets a sink for subscriber failures. It is called after
// the failure has been logged, once per failing subscriber.
func WithErrorHandler(fn func(error)) Option {
	return func(t *Tracker) {
		t.onError = fn
	}
}

// WithMetrics sets the collector for tracker measurements.
func WithMetrics(m MetricsCollector) Option {
	return func(t *Tracker) {
		t.metrics = m
	}
}
