// Package transport defines the HTTP transport capability consumed by the
// request engine and provides the default net/http implementation.
package transport

import (
	"context"
	nethttp "net/http"
	"strings"
	"time"
)

// Header is a single request header. Headers are carried as an ordered
// slice rather than a map: signing is order-sensitive and header scans are
// first-match-wins.
type Header struct {
	Name  string
	Value string
}

// Headers is an ordered header list.
type Headers []Header

// First returns the value of the first header matching name
// (case-insensitive), and whether a match was found.
func (h Headers) First(name string) (string, bool) {
	for _, hdr := range h {
		if strings.EqualFold(hdr.Name, name) {
			return hdr.Value, true
		}
	}
	return "", false
}

// Options carries per-call transport settings.
type Options struct {
	// Timeout bounds a single attempt. Zero means the client default.
	// The engine's retries compound on top of this bound: total wall
	// clock is the sum of per-attempt timeouts plus backoff delays.
	Timeout time.Duration
}

// Response is the canonical raw HTTP response seen by the request engine.
// Adapters for foreign HTTP clients must map whatever status field their
// client exposes into StatusCode before returning.
type Response struct {
	StatusCode int
	Body       []byte
	Headers    nethttp.Header
}

// Client is the transport capability: it performs exactly one HTTP call.
// A nil *Response with a non-nil error means no HTTP response was received
// at all (connectivity failure), which the engine treats as retryable.
type Client interface {
	Do(ctx context.Context, method, url string, body []byte, headers Headers, opts Options) (*Response, error)
}

// RequestInterceptor is called before sending the request
type RequestInterceptor func(ctx context.Context, req *nethttp.Request) error

// ResponseInterceptor is called after receiving the response
type ResponseInterceptor func(ctx context.Context, req *nethttp.Request, resp *nethttp.Response) error
