package request

import (
	"context"
	"fmt"
	nethttp "net/http"
	"strings"
	"time"

	"github.com/gaborage/aws-bricks/codec"
	"github.com/gaborage/aws-bricks/logger"
	"github.com/gaborage/aws-bricks/signer"
	"github.com/gaborage/aws-bricks/telemetry"
	"github.com/gaborage/aws-bricks/trace"
	"github.com/gaborage/aws-bricks/transport"
)

// Request describes one logical service call. The engine may issue
// several HTTP attempts for it.
type Request struct {
	Method  string
	URL     string
	Service string
	// Headers are sent in declaration order. Order matters for signing
	// and for first-match header scans.
	Headers transport.Headers
	// Body is the raw request payload. When nil and Payload is set, the
	// engine encodes Payload with the configured codec.
	Body []byte
	// Payload is an arbitrary value encoded into the body when Body is
	// nil.
	Payload any
}

// Response is a successful outcome of a logical call
type Response struct {
	StatusCode int
	Body       []byte
	Headers    nethttp.Header
}

// Config wires the engine's collaborators. Zero-value fields get
// sensible defaults from New.
type Config struct {
	// Service is the default service identifier for requests that leave
	// Request.Service empty.
	Service string
	// Endpoint is the base URL prepended to relative request URLs.
	Endpoint string
	// Codec encodes request payloads and decodes error bodies.
	Codec codec.Codec
	// Transport executes individual HTTP attempts.
	Transport transport.Client
	// Signer derives signed headers per attempt. Nil sends the caller's
	// headers as-is, for unsigned or pre-signed calls.
	Signer signer.Signer
	// Logger receives debug and warning output.
	Logger logger.Logger
	// Sink receives per-attempt start/stop events.
	Sink telemetry.EventSink
	// Metrics records attempt, retry and duration counters. Nil disables
	// recording.
	Metrics *telemetry.ClientMetrics
	// Retry controls attempt ceilings and backoff.
	Retry RetryPolicy
	// Debug enables per-attempt request logging.
	Debug bool
	// TelemetryEvent overrides the attempt event name.
	TelemetryEvent string
	// TelemetryOptions is merged into every attempt's start metadata.
	TelemetryOptions map[string]any
	// Fallback extends service-error classification beyond the built-in
	// retryable set.
	Fallback FallbackClassifier
	// HTTPOptions is passed through to the transport on every attempt.
	HTTPOptions transport.Options
}

// Executor runs logical calls through the retry state machine.
type Executor struct {
	cfg Config
}

// New creates an executor, filling defaults for unset collaborators
func New(cfg Config) *Executor {
	if cfg.Codec == nil {
		cfg.Codec = codec.JSON{}
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.New("info", false)
	}
	if cfg.Transport == nil {
		cfg.Transport = transport.New(cfg.Logger)
	}
	if cfg.Sink == nil {
		cfg.Sink = telemetry.NoopSink{}
	}
	if cfg.Retry.MaxAttempts <= 0 && cfg.Retry.BaseBackoff <= 0 && cfg.Retry.MaxBackoff <= 0 {
		cfg.Retry = DefaultRetryPolicy()
	}
	return &Executor{cfg: cfg}
}

// Do executes the logical call, retrying transient failures under the
// configured policy. It returns the first successful response, or a
// ClientError describing the terminal failure.
func (e *Executor) Do(ctx context.Context, req *Request) (*Response, error) {
	req = e.applyDefaults(req)
	body, err := e.requestBody(req)
	if err != nil {
		return nil, err
	}

	// The invocation id identifies the logical call; all attempts for it
	// share one id.
	ctx = trace.WithInvocationID(ctx, trace.EnsureInvocationID(ctx))

	start := time.Now()
	resp, err := e.execute(ctx, req, body)
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	e.cfg.Metrics.RecordDuration(ctx, req.Service, outcome, time.Since(start))
	return resp, err
}

func (e *Executor) execute(ctx context.Context, req *Request, body []byte) (*Response, error) {
	for attempt := 1; ; attempt++ {
		headers, err := e.signedHeaders(ctx, req, body)
		if err != nil {
			return nil, NewSigningError(err)
		}

		if e.cfg.Debug {
			e.cfg.Logger.Debug().
				Str("method", req.Method).
				Str("url", req.URL).
				Str("service", req.Service).
				Int("attempt", attempt).
				Interface("headers", headersForLog(headers)).
				Bytes("body", body).
				Msg("Executing request")
		}

		e.cfg.Metrics.RecordAttempt(ctx, req.Service, operationFromHeaders(headers))

		resp, err := e.instrumentedCall(ctx, req, body, headers, attempt)
		if err != nil {
			e.cfg.Logger.Warn().
				Err(err).
				Str("url", req.URL).
				Int("attempt", attempt).
				Msg("Request failed before receiving a response")
			reason := NewTransportError("request execution failed", err)
			if rerr := e.backoff(ctx, attempt, classServer, reason, req.Service); rerr != nil {
				return nil, rerr
			}
			continue
		}

		switch {
		case IsSuccessStatus(resp.StatusCode):
			return &Response{
				StatusCode: resp.StatusCode,
				Body:       resp.Body,
				Headers:    resp.Headers,
			}, nil

		case resp.StatusCode == nethttp.StatusMovedPermanently:
			// Services answer 301 when the request reached the wrong
			// regional endpoint. Following the redirect would hide the
			// misconfiguration, so surface it instead.
			e.cfg.Logger.Warn().
				Str("url", req.URL).
				Str("service", req.Service).
				Msg("Received redirect; check that the configured region matches the endpoint")
			return nil, NewHTTPError(resp.StatusCode, []byte("redirected"))

		case resp.StatusCode >= 500:
			reason := NewHTTPError(resp.StatusCode, resp.Body)
			if rerr := e.backoff(ctx, attempt, classServer, reason, req.Service); rerr != nil {
				return nil, rerr
			}

		case resp.StatusCode >= 400:
			d := classifyClientError(resp.StatusCode, resp.Body, e.cfg.Codec, e.cfg.Fallback)
			if !d.retry {
				return nil, d.reason
			}
			if rerr := e.backoff(ctx, attempt, classClient, d.reason, req.Service); rerr != nil {
				return nil, rerr
			}

		default:
			return nil, NewHTTPError(resp.StatusCode, resp.Body)
		}
	}
}

// backoff decides whether another attempt is allowed. It returns nil
// after sleeping when the budget permits a retry, or the terminal error
// when the budget is exhausted or the context is canceled.
func (e *Executor) backoff(ctx context.Context, attempt int, class errorClass, reason ClientError, service string) error {
	if attempt >= e.cfg.Retry.ceiling(class) {
		return reason
	}
	e.cfg.Metrics.RecordRetry(ctx, service, string(reason.Type()))
	if err := sleepContext(ctx, e.cfg.Retry.delay(attempt)); err != nil {
		return NewTransportError("retry canceled", err)
	}
	return nil
}

// signedHeaders derives the header set for one attempt. Signatures are
// time-sensitive, so this runs once per attempt, never once per call.
func (e *Executor) signedHeaders(ctx context.Context, req *Request, body []byte) (transport.Headers, error) {
	if e.cfg.Signer == nil {
		return append(transport.Headers(nil), req.Headers...), nil
	}
	return e.cfg.Signer.Sign(ctx, &signer.SigningInput{
		Method:  req.Method,
		URL:     req.URL,
		Service: req.Service,
		Headers: req.Headers,
		Body:    body,
	})
}

// applyDefaults fills request fields from engine-level configuration.
// The caller's Request is never mutated.
func (e *Executor) applyDefaults(req *Request) *Request {
	r := *req
	if r.Service == "" {
		r.Service = e.cfg.Service
	}
	if e.cfg.Endpoint != "" && !strings.Contains(r.URL, "://") {
		r.URL = strings.TrimRight(e.cfg.Endpoint, "/") + "/" + strings.TrimLeft(r.URL, "/")
	}
	return &r
}

func (e *Executor) requestBody(req *Request) ([]byte, error) {
	if req.Body != nil || req.Payload == nil {
		return req.Body, nil
	}
	body, err := e.cfg.Codec.Encode(req.Payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	return body, nil
}

func (e *Executor) eventName() string {
	if e.cfg.TelemetryEvent != "" {
		return e.cfg.TelemetryEvent
	}
	return telemetry.DefaultEventName
}

// headersForLog converts the ordered header list into a map for
// structured logging. The logger masks sensitive values.
func headersForLog(headers transport.Headers) map[string]string {
	m := make(map[string]string, len(headers))
	for _, h := range headers {
		if _, exists := m[h.Name]; !exists {
			m[h.Name] = h.Value
		}
	}
	return m
}
