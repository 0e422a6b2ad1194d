package request

import (
	"context"
	crand "crypto/rand"
	"math/big"
	"time"
)

const (
	// DefaultBaseBackoff is the starting backoff envelope
	DefaultBaseBackoff = 100 * time.Millisecond
	// DefaultMaxBackoff caps the backoff envelope growth
	DefaultMaxBackoff = 10 * time.Second
	// DefaultMaxAttempts bounds attempts for transport and server errors
	DefaultMaxAttempts = 5

	// maxBackoffShift keeps the exponential envelope within int64 range
	maxBackoffShift = 20
)

// RetryPolicy controls attempt ceilings and backoff growth for the
// request engine.
type RetryPolicy struct {
	// BaseBackoff is the envelope for the delay after the first attempt.
	BaseBackoff time.Duration
	// MaxBackoff caps the exponential envelope.
	MaxBackoff time.Duration
	// MaxAttempts is the total attempt ceiling for transport errors and
	// server (5xx) errors.
	MaxAttempts int
	// ClientErrorMaxAttempts is a separate, typically stricter ceiling
	// for retryable client (4xx) service errors. Zero means client
	// errors share MaxAttempts.
	ClientErrorMaxAttempts int
}

// DefaultRetryPolicy returns the stock policy
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		BaseBackoff: DefaultBaseBackoff,
		MaxBackoff:  DefaultMaxBackoff,
		MaxAttempts: DefaultMaxAttempts,
	}
}

// errorClass selects which attempt ceiling applies
type errorClass int

const (
	classServer errorClass = iota
	classClient
)

// ceiling returns the total attempt budget for the given error class
func (p RetryPolicy) ceiling(class errorClass) int {
	if class == classClient && p.ClientErrorMaxAttempts > 0 {
		return p.ClientErrorMaxAttempts
	}
	if p.MaxAttempts > 0 {
		return p.MaxAttempts
	}
	return 1
}

// envelope returns the maximum delay allowed after the given attempt
// (1-based): min(base * 2^attempt, max).
func (p RetryPolicy) envelope(attempt int) time.Duration {
	base := p.BaseBackoff
	if base <= 0 {
		base = DefaultBaseBackoff
	}
	maxDelay := p.MaxBackoff
	if maxDelay <= 0 {
		maxDelay = DefaultMaxBackoff
	}
	shift := attempt
	if shift < 1 {
		shift = 1
	}
	if shift > maxBackoffShift {
		shift = maxBackoffShift
	}
	delay := base << shift
	if delay <= 0 || delay > maxDelay {
		delay = maxDelay
	}
	return delay
}

// delay draws a uniform random duration in [1, envelope]. Full jitter
// keeps concurrent retries from synchronizing into waves.
func (p RetryPolicy) delay(attempt int) time.Duration {
	env := p.envelope(attempt)
	if env <= 1 {
		return env
	}
	n, err := crand.Int(crand.Reader, big.NewInt(int64(env)))
	if err != nil {
		return env
	}
	return time.Duration(n.Int64()) + 1
}

// sleepContext waits for d or until ctx is canceled
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
