// Package telemetry provides the instrumentation boundary for request
// attempts: an event-sink capability consumed by the request engine, an
// OpenTelemetry-backed implementation, client metrics, and a provider that
// wires exporters.
package telemetry

import "context"

// EventSink receives attempt-scoped instrumentation events. The engine
// emits a start event before each transport call and a stop event after;
// sinks observe, they never influence control flow.
type EventSink interface {
	// Start opens a named event carrying start metadata and returns the
	// context to use for the wrapped call plus a handle for the stop side.
	Start(ctx context.Context, name string, meta map[string]any) (context.Context, Event)
}

// Event is the stop side of one started event.
type Event interface {
	// Stop closes the event, merging the stop metadata into it.
	Stop(meta map[string]any)
}
