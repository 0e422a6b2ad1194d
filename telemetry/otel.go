package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/gaborage/aws-bricks"

// OTelSink emits each attempt as an OpenTelemetry client span: start
// metadata becomes span attributes at creation, stop metadata is merged
// before the span ends.
type OTelSink struct {
	tracer trace.Tracer
}

// Ensure OTelSink implements the interface
var _ EventSink = (*OTelSink)(nil)

// NewOTelSink creates a sink emitting spans through the given provider.
func NewOTelSink(tp trace.TracerProvider) *OTelSink {
	return &OTelSink{tracer: tp.Tracer(tracerName)}
}

// Start opens a client span named after the event.
func (s *OTelSink) Start(ctx context.Context, name string, meta map[string]any) (context.Context, Event) {
	ctx, span := s.tracer.Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attributesFromMeta(meta)...),
	)
	return ctx, &otelEvent{span: span}
}

type otelEvent struct {
	span trace.Span
}

// Stop merges the stop metadata into the span and ends it. An error
// result marks the span status accordingly.
func (e *otelEvent) Stop(meta map[string]any) {
	e.span.SetAttributes(attributesFromMeta(meta)...)
	if result, ok := meta["result"].(string); ok && result == "error" {
		e.span.SetStatus(codes.Error, fmt.Sprint(meta["error"]))
	}
	e.span.End()
}

// attributesFromMeta converts event metadata into span attributes.
// Unknown types are rendered with fmt to keep the sink total.
func attributesFromMeta(meta map[string]any) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(meta))
	for k, v := range meta {
		switch val := v.(type) {
		case string:
			attrs = append(attrs, attribute.String(k, val))
		case bool:
			attrs = append(attrs, attribute.Bool(k, val))
		case int:
			attrs = append(attrs, attribute.Int(k, val))
		case int64:
			attrs = append(attrs, attribute.Int64(k, val))
		case float64:
			attrs = append(attrs, attribute.Float64(k, val))
		case []byte:
			attrs = append(attrs, attribute.String(k, string(val)))
		default:
			attrs = append(attrs, attribute.String(k, fmt.Sprint(val)))
		}
	}
	return attrs
}
