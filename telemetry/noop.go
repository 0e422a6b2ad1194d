package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// NoopSink discards all events. It is the default sink when no telemetry
// is configured, so the engine never needs to nil-check its sink.
type NoopSink struct{}

// Ensure NoopSink implements the interface
var _ EventSink = NoopSink{}

// Start returns the context unchanged and a no-op event.
func (NoopSink) Start(ctx context.Context, _ string, _ map[string]any) (context.Context, Event) {
	return ctx, noopEvent{}
}

type noopEvent struct{}

func (noopEvent) Stop(map[string]any) {}

// noopProvider satisfies Provider without recording anything.
type noopProvider struct{}

func newNoopProvider() Provider {
	return noopProvider{}
}

// TracerProvider returns a no-op tracer provider.
func (noopProvider) TracerProvider() trace.TracerProvider {
	return tracenoop.NewTracerProvider()
}

// MeterProvider returns a no-op meter provider.
func (noopProvider) MeterProvider() metric.MeterProvider {
	return metricnoop.NewMeterProvider()
}

// Shutdown is a no-op.
func (noopProvider) Shutdown(context.Context) error { return nil }

// ForceFlush is a no-op.
func (noopProvider) ForceFlush(context.Context) error { return nil }
