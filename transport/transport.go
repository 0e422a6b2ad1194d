package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	nethttp "net/http"
	"time"

	"github.com/gaborage/aws-bricks/logger"
	"github.com/gaborage/aws-bricks/trace"
)

const (
	// DefaultTimeout is the default per-attempt request timeout
	DefaultTimeout = 30 * time.Second
)

// HTTPClient is the default Client implementation backed by net/http.
type HTTPClient struct {
	httpClient           *nethttp.Client
	log                  logger.Logger
	defaultHeaders       Headers
	requestInterceptors  []RequestInterceptor
	responseInterceptors []ResponseInterceptor
}

// Ensure HTTPClient implements the interface
var _ Client = (*HTTPClient)(nil)

// Builder provides a fluent interface for configuring the transport
type Builder struct {
	timeout              time.Duration
	defaultHeaders       Headers
	requestInterceptors  []RequestInterceptor
	responseInterceptors []ResponseInterceptor
	log                  logger.Logger
}

// NewBuilder creates a new transport builder
func NewBuilder(log logger.Logger) *Builder {
	return &Builder{
		timeout: DefaultTimeout,
		log:     log,
	}
}

// WithTimeout sets the per-attempt timeout
func (b *Builder) WithTimeout(timeout time.Duration) *Builder {
	b.timeout = timeout
	return b
}

// WithDefaultHeader appends a header sent with every request
func (b *Builder) WithDefaultHeader(name, value string) *Builder {
	b.defaultHeaders = append(b.defaultHeaders, Header{Name: name, Value: value})
	return b
}

// WithRequestInterceptor adds a request interceptor
func (b *Builder) WithRequestInterceptor(interceptor RequestInterceptor) *Builder {
	b.requestInterceptors = append(b.requestInterceptors, interceptor)
	return b
}

// WithResponseInterceptor adds a response interceptor
func (b *Builder) WithResponseInterceptor(interceptor ResponseInterceptor) *Builder {
	b.responseInterceptors = append(b.responseInterceptors, interceptor)
	return b
}

// Build creates the transport with the configured options
func (b *Builder) Build() *HTTPClient {
	return &HTTPClient{
		httpClient:           &nethttp.Client{Timeout: b.timeout},
		log:                  b.log,
		defaultHeaders:       b.defaultHeaders,
		requestInterceptors:  b.requestInterceptors,
		responseInterceptors: b.responseInterceptors,
	}
}

// New creates a transport with default configuration
func New(log logger.Logger) *HTTPClient {
	return NewBuilder(log).Build()
}

// Do performs a single HTTP call. Retrying is the engine's concern, not
// the transport's.
func (c *HTTPClient) Do(ctx context.Context, method, url string, body []byte, headers Headers, opts Options) (*Response, error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	httpReq, err := c.buildRequest(ctx, method, url, body, headers)
	if err != nil {
		return nil, err
	}

	if c.log != nil {
		c.log.Debug().
			Str("method", method).
			Str("url", url).
			Msg("HTTP transport call")
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request execution failed: %w", err)
	}

	if err := c.runResponseInterceptors(ctx, httpReq, httpResp); err != nil {
		httpResp.Body.Close()
		return nil, fmt.Errorf("response interceptor failed: %w", err)
	}

	return FromHTTPResponse(httpResp)
}

// buildRequest constructs an *http.Request, applies headers, and runs
// request interceptors.
func (c *HTTPClient) buildRequest(ctx context.Context, method, url string, body []byte, headers Headers) (*nethttp.Request, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	httpReq, err := nethttp.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}

	// Default headers first so per-request headers override them
	for _, h := range c.defaultHeaders {
		httpReq.Header.Set(h.Name, h.Value)
	}
	for _, h := range headers {
		httpReq.Header.Set(h.Name, h.Value)
	}

	for _, interceptor := range c.requestInterceptors {
		if err := interceptor(ctx, httpReq); err != nil {
			return nil, fmt.Errorf("request interceptor failed: %w", err)
		}
	}
	return httpReq, nil
}

func (c *HTTPClient) runResponseInterceptors(ctx context.Context, req *nethttp.Request, resp *nethttp.Response) error {
	for _, interceptor := range c.responseInterceptors {
		if err := interceptor(ctx, req, resp); err != nil {
			return err
		}
	}
	return nil
}

// FromHTTPResponse normalizes a net/http response into the canonical
// Response shape, reading and closing the body.
func FromHTTPResponse(httpResp *nethttp.Response) (*Response, error) {
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Body:       body,
		Headers:    httpResp.Header,
	}, nil
}

// NewInvocationIDInterceptor returns an interceptor that stamps each
// request with the call's invocation ID. The ID comes from context when
// present, so all attempts of one logical request share it.
func NewInvocationIDInterceptor() RequestInterceptor {
	return func(ctx context.Context, req *nethttp.Request) error {
		if req.Header.Get(trace.HeaderInvocationID) == "" {
			req.Header.Set(trace.HeaderInvocationID, trace.EnsureInvocationID(ctx))
		}
		return nil
	}
}

// NewTraceIDInterceptor returns an interceptor that propagates the
// X-Amzn-Trace-Id from context, generating a root ID when absent.
func NewTraceIDInterceptor() RequestInterceptor {
	return func(ctx context.Context, req *nethttp.Request) error {
		if req.Header.Get(trace.HeaderAmznTraceID) == "" {
			req.Header.Set(trace.HeaderAmznTraceID, trace.EnsureTraceID(ctx))
		}
		return nil
	}
}
