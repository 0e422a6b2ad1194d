// Package trace provides context propagation helpers for AWS request
// identifiers. It allows trace IDs to flow through context and be attached
// to outgoing requests as X-Amzn-Trace-Id headers.
package trace

import (
	"context"
	crand "crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// contextKey is the type for context keys to avoid collisions
type contextKey string

const (
	// traceIDKey is the context key for trace ID values
	traceIDKey contextKey = "trace_id"
	// invocationIDKey is the context key for the per-call invocation ID
	invocationIDKey contextKey = "invocation_id"
	// HeaderAmznTraceID is the AWS X-Ray propagation header name
	HeaderAmznTraceID = "X-Amzn-Trace-Id"
	// HeaderInvocationID identifies one logical SDK call across its retries
	HeaderInvocationID = "Amz-Sdk-Invocation-Id"
	// HeaderAmznRequestID is the per-request ID header returned by AWS services
	HeaderAmznRequestID = "X-Amzn-Requestid"
)

// WithTraceID adds a trace ID to the context
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

// IDFromContext returns a trace ID from context if present
func IDFromContext(ctx context.Context) (string, bool) {
	if traceID, ok := ctx.Value(traceIDKey).(string); ok && traceID != "" {
		return traceID, true
	}
	return "", false
}

// EnsureTraceID returns an existing trace ID from context or generates a new one
func EnsureTraceID(ctx context.Context) string {
	if traceID, ok := IDFromContext(ctx); ok {
		return traceID
	}
	return GenerateTraceID()
}

// WithInvocationID adds an invocation ID to the context
func WithInvocationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, invocationIDKey, id)
}

// InvocationIDFromContext returns an invocation ID from context if present
func InvocationIDFromContext(ctx context.Context) (string, bool) {
	if id, ok := ctx.Value(invocationIDKey).(string); ok && id != "" {
		return id, true
	}
	return "", false
}

// EnsureInvocationID returns an existing invocation ID from context or
// generates a new one. The invocation ID is stable across retries of the
// same logical request, so it is generated once per call, not per attempt.
func EnsureInvocationID(ctx context.Context) string {
	if id, ok := InvocationIDFromContext(ctx); ok {
		return id
	}
	return uuid.New().String()
}

// GenerateTraceID creates an X-Amzn-Trace-Id root value.
// Format: Root=1-<8 hex epoch seconds>-<24 hex random>, e.g.
// "Root=1-67891233-abcdef012345678912345678"
func GenerateTraceID() string {
	var epoch [4]byte
	binary.BigEndian.PutUint32(epoch[:], uint32(time.Now().Unix()))

	random := make([]byte, 12)
	if _, err := crand.Read(random); err != nil {
		random = make([]byte, 12)
	}
	if allZero(random) {
		random[len(random)-1] = 0x01
	}
	return fmt.Sprintf("Root=1-%s-%s", hex.EncodeToString(epoch[:]), hex.EncodeToString(random))
}

func allZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}
