// Package signer defines the request-signing capability consumed by the
// request engine and provides an AWS Signature Version 4 implementation.
//
// Signatures embed a timestamp, so the engine calls Sign once per attempt;
// headers returned by one attempt must not be reused for the next.
package signer

import (
	"context"
	"time"

	"github.com/gaborage/aws-bricks/transport"
)

// Credentials holds static AWS credentials.
type Credentials struct {
	AccessKeyID     string
	SecretAccessKey string
	// SessionToken is set for temporary credentials (STS); empty otherwise.
	SessionToken string
}

// SigningInput describes one attempt to be signed.
type SigningInput struct {
	Method  string
	URL     string
	Service string
	Headers transport.Headers
	Body    []byte
	// Time pins the signing timestamp; zero means "now". Tests use this
	// to produce deterministic signatures.
	Time time.Time
}

// Signer derives the fully-signed header set for one attempt.
// A signing failure indicates a configuration or credential problem and
// is never retried by the engine.
type Signer interface {
	Sign(ctx context.Context, in *SigningInput) (transport.Headers, error)
}
