package telemetry

import (
	"context"
	"fmt"

	"github.com/vango-dev/statekit/pkg/inject"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Default tracer name.
const defaultTracerName = "statekit"

// TracingConfig configures the OpenTelemetry adapter.
type TracingConfig struct {
	// TracerName is the name of the tracer (default: "statekit").
	TracerName string

	// Provider is the tracer provider.
	// Default: the global provider from otel.GetTracerProvider().
	Provider trace.TracerProvider

	// Filter determines which registry events get a span.
	// If nil, all events are traced.
	Filter func(event inject.Event) bool
}

// TracingOption configures the OpenTelemetry adapter.
type TracingOption func(*TracingConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) TracingOption {
	return func(c *TracingConfig) {
		c.TracerName = name
	}
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(provider trace.TracerProvider) TracingOption {
	return func(c *TracingConfig) {
		c.Provider = provider
	}
}

// WithEventFilter sets a filter function for registry events.
func WithEventFilter(filter func(event inject.Event) bool) TracingOption {
	return func(c *TracingConfig) {
		c.Filter = filter
	}
}

// Tracing emits OpenTelemetry spans for registry activity.
type Tracing struct {
	tracer trace.Tracer
	filter func(event inject.Event) bool
}

// NewTracing creates the adapter. Configure the global provider in main()
// before calling it, or pass one with WithTracerProvider:
//
//	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
//	otel.SetTracerProvider(tp)
func NewTracing(opts ...TracingOption) *Tracing {
	config := TracingConfig{TracerName: defaultTracerName}
	for _, opt := range opts {
		opt(&config)
	}
	if config.Provider == nil {
		config.Provider = otel.GetTracerProvider()
	}

	return &Tracing{
		tracer: config.Provider.Tracer(config.TracerName),
		filter: config.Filter,
	}
}

// Hook returns a registry hook that records one short span per event.
// Registry events are synchronous and carry no context, so the spans are
// roots.
func (t *Tracing) Hook() inject.Hook {
	return func(event inject.Event, key inject.Key) {
		if t.filter != nil && !t.filter(event) {
			return
		}

		_, span := t.tracer.Start(
			context.Background(),
			spanName(event),
			trace.WithSpanKind(trace.SpanKindInternal),
			trace.WithAttributes(keyAttributes(event, key)...),
		)
		span.End()
	}
}

// TracePutAsync wraps inject.PutAsync in a span covering the constructor.
// The constructor receives the span's context so its own outbound calls are
// children of it.
func TracePutAsync[T any](ctx context.Context, t *Tracing, r *inject.Registry, f func(context.Context) (T, error)) error {
	key := inject.KeyOf[T]()
	spanCtx, span := t.tracer.Start(
		ctx,
		spanName(inject.EventPutAsync),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(keyAttributes(inject.EventPutAsync, key)...),
	)
	defer span.End()

	err := inject.PutAsync(spanCtx, r, f)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	return err
}

func spanName(event inject.Event) string {
	return fmt.Sprintf("statekit.registry.%s", event)
}

func keyAttributes(event inject.Event, key inject.Key) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String("statekit.event", event.String()),
	}
	if !key.IsZero() {
		attrs = append(attrs, attribute.String("statekit.key", key.String()))
	}
	if key.Tag != "" {
		attrs = append(attrs, attribute.String("statekit.tag", key.Tag))
	}
	return attrs
}
