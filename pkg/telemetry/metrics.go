package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/vango-dev/statekit/pkg/inject"
	"github.com/vango-dev/statekit/pkg/reactive"
)

// MetricsConfig configures the Prometheus collectors.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "statekit").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for tracked run duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus collectors.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the run duration histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "statekit",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics records tracker and registry activity as Prometheus metrics.
//
// Metrics collected:
//   - statekit_tracked_runs_total: Counter of tracked runs
//   - statekit_tracked_run_duration_seconds: Histogram of run duration
//   - statekit_tracked_run_dependencies: Histogram of observables read per run
//   - statekit_notifications_total: Counter of subscriber invocations
//   - statekit_subscriber_failures_total: Counter of panicking subscribers
//   - statekit_observers: Gauge of observers known to the tracker
//   - statekit_registry_events_total: Counter of registry events by event name
//
// Metrics implements reactive.MetricsCollector; Hook adapts it to the
// registry.
type Metrics struct {
	runsTotal          prometheus.Counter
	runDuration        prometheus.Histogram
	runDependencies    prometheus.Histogram
	notifications      prometheus.Counter
	subscriberFailures prometheus.Counter
	observers          prometheus.Gauge
	registryEvents     *prometheus.CounterVec
}

var _ reactive.MetricsCollector = (*Metrics)(nil)

// NewMetrics creates and registers the collectors. Registering twice on the
// same registry panics, as with promauto.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}

	factory := promauto.With(config.Registry)

	return &Metrics{
		runsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "tracked_runs_total",
			Help:        "Total number of tracked runs",
			ConstLabels: config.ConstLabels,
		}),

		runDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "tracked_run_duration_seconds",
			Help:        "Tracked run duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		runDependencies: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "tracked_run_dependencies",
			Help:        "Number of observables read by a tracked run",
			ConstLabels: config.ConstLabels,
			Buckets:     []float64{0, 1, 2, 4, 8, 16, 32, 64},
		}),

		notifications: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "notifications_total",
			Help:        "Total number of subscriber notifications",
			ConstLabels: config.ConstLabels,
		}),

		subscriberFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "subscriber_failures_total",
			Help:        "Total number of subscribers that panicked during notification",
			ConstLabels: config.ConstLabels,
		}),

		observers: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "observers",
			Help:        "Number of observers known to the tracker",
			ConstLabels: config.ConstLabels,
		}),

		registryEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "registry_events_total",
			Help:        "Total registry events by event name",
			ConstLabels: config.ConstLabels,
		}, []string{"event"}),
	}
}

// ObserveRun records one tracked run.
func (m *Metrics) ObserveRun(duration time.Duration, dependencies int) {
	m.runsTotal.Inc()
	m.runDuration.Observe(duration.Seconds())
	m.runDependencies.Observe(float64(dependencies))
}

// AddNotifications records n subscriber invocations.
func (m *Metrics) AddNotifications(n int) {
	m.notifications.Add(float64(n))
}

// IncSubscriberFailures records a panicking subscriber.
func (m *Metrics) IncSubscriberFailures() {
	m.subscriberFailures.Inc()
}

// SetObservers records the tracker's observer count.
func (m *Metrics) SetObservers(n int) {
	m.observers.Set(float64(n))
}

// Hook returns a registry hook that counts events by name.
// The label set is bounded by the inject.Event constants; keys are never
// used as labels.
func (m *Metrics) Hook() inject.Hook {
	return func(event inject.Event, _ inject.Key) {
		m.registryEvents.WithLabelValues(event.String()).Inc()
	}
}
