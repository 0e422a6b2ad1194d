package request

import (
	"context"
	"errors"

	"github.com/gaborage/aws-bricks/transport"
)

// operationHeader carries the target operation for JSON-protocol
// services, e.g. "DynamoDB_20120810.PutItem".
const operationHeader = "X-Amz-Target"

// operationFromHeaders extracts the operation name from the first
// matching target header, if any
func operationFromHeaders(headers transport.Headers) string {
	v, _ := headers.First(operationHeader)
	return v
}

// instrumentedCall wraps a single transport attempt in a telemetry
// event. The start metadata describes what is about to be sent; the
// stop metadata describes how it went.
func (e *Executor) instrumentedCall(ctx context.Context, req *Request, body []byte, headers transport.Headers, attempt int) (*transport.Response, error) {
	meta := map[string]any{
		"attempt": attempt,
		"service": req.Service,
		"url":     req.URL,
		"body":    string(body),
	}
	if op := operationFromHeaders(headers); op != "" {
		meta["operation"] = op
	}
	for k, v := range e.cfg.TelemetryOptions {
		meta[k] = v
	}

	ctx, event := e.cfg.Sink.Start(ctx, e.eventName(), meta)
	resp, err := e.cfg.Transport.Do(ctx, req.Method, req.URL, body, headers, e.cfg.HTTPOptions)
	event.Stop(stopMeta(resp, err))
	return resp, err
}

// stopMeta builds the completion metadata for an attempt event
func stopMeta(resp *transport.Response, err error) map[string]any {
	if err != nil {
		return map[string]any{
			"result": "error",
			"error":  innermost(err).Error(),
		}
	}
	if IsSuccessStatus(resp.StatusCode) {
		return map[string]any{
			"result":        "ok",
			"status":        resp.StatusCode,
			"response_body": string(resp.Body),
		}
	}
	return map[string]any{
		"result": "error",
		"status": resp.StatusCode,
		"error":  string(resp.Body),
	}
}

// innermost unwraps err down to its root cause so events carry the
// underlying reason rather than a stack of wrapper prefixes
func innermost(err error) error {
	for {
		unwrapped := errors.Unwrap(err)
		if unwrapped == nil {
			return err
		}
		err = unwrapped
	}
}
