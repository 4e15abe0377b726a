// Package telemetry adapts the reactive tracker and the inject registry to
// Prometheus and OpenTelemetry.
//
// Both core packages stay free of any metrics or tracing backend: the
// tracker accepts a reactive.MetricsCollector and the registry accepts an
// inject.Hook. Metrics and Tracing provide those.
//
//	m := telemetry.NewMetrics(telemetry.WithNamespace("myapp"))
//	tracker := reactive.NewTracker(reactive.WithMetrics(m))
//	tr := telemetry.NewTracing()
//	registry := inject.New(inject.WithHook(inject.ChainHooks(m.Hook(), tr.Hook())))
//
//	// Expose metrics endpoint
//	http.Handle("/metrics", promhttp.Handler())
package telemetry
