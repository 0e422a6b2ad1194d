package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/gaborage/aws-bricks"

// ClientMetrics records per-request instrumentation counters.
// A nil *ClientMetrics is valid and records nothing, so callers can wire
// metrics optionally.
type ClientMetrics struct {
	attempts metric.Int64Counter
	retries  metric.Int64Counter
	duration metric.Float64Histogram
}

// NewClientMetrics creates the request metrics instruments.
func NewClientMetrics(mp metric.MeterProvider) (*ClientMetrics, error) {
	meter := mp.Meter(meterName)

	attempts, err := meter.Int64Counter(
		"aws.request.attempts",
		metric.WithDescription("Total transport attempts, including retries"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create attempts counter: %w", err)
	}

	retries, err := meter.Int64Counter(
		"aws.request.retries",
		metric.WithDescription("Attempts beyond the first for a logical request"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create retries counter: %w", err)
	}

	duration, err := meter.Float64Histogram(
		"aws.request.duration",
		metric.WithDescription("Wall-clock duration of a logical request across all attempts"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create duration histogram: %w", err)
	}

	return &ClientMetrics{attempts: attempts, retries: retries, duration: duration}, nil
}

// RecordAttempt counts one transport attempt.
func (m *ClientMetrics) RecordAttempt(ctx context.Context, service, operation string) {
	if m == nil {
		return
	}
	m.attempts.Add(ctx, 1, metric.WithAttributes(
		attribute.String("service", service),
		attribute.String("operation", operation),
	))
}

// RecordRetry counts one retry decision with its reason class.
func (m *ClientMetrics) RecordRetry(ctx context.Context, service, reason string) {
	if m == nil {
		return
	}
	m.retries.Add(ctx, 1, metric.WithAttributes(
		attribute.String("service", service),
		attribute.String("reason", reason),
	))
}

// RecordDuration records the total duration of a logical request.
func (m *ClientMetrics) RecordDuration(ctx context.Context, service, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.duration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("service", service),
		attribute.String("outcome", outcome),
	))
}
