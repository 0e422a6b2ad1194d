package request

import (
	"bytes"
	"context"
	"errors"
	"io"
	nethttp "net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaborage/aws-bricks/logger"
	"github.com/gaborage/aws-bricks/signer"
	"github.com/gaborage/aws-bricks/telemetry"
	"github.com/gaborage/aws-bricks/trace"
	"github.com/gaborage/aws-bricks/transport"
)

// step scripts the outcome of one transport attempt
type step struct {
	resp *transport.Response
	err  error
}

type call struct {
	method       string
	url          string
	body         []byte
	headers      transport.Headers
	invocationID string
}

// scriptedTransport replays a fixed sequence of outcomes and records
// every call it receives. The last step repeats if the engine attempts
// more times than scripted.
type scriptedTransport struct {
	steps []step
	calls []call
}

func (s *scriptedTransport) Do(ctx context.Context, method, url string, body []byte, headers transport.Headers, _ transport.Options) (*transport.Response, error) {
	id, _ := trace.InvocationIDFromContext(ctx)
	s.calls = append(s.calls, call{method: method, url: url, body: body, headers: headers, invocationID: id})
	i := len(s.calls) - 1
	if i >= len(s.steps) {
		i = len(s.steps) - 1
	}
	return s.steps[i].resp, s.steps[i].err
}

func ok(status int, body string) step {
	return step{resp: &transport.Response{StatusCode: status, Body: []byte(body)}}
}

func fail(err error) step {
	return step{err: err}
}

// countingSigner stamps a marker header and counts invocations
type countingSigner struct {
	calls int
	err   error
}

func (c *countingSigner) Sign(_ context.Context, in *signer.SigningInput) (transport.Headers, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	headers := append(transport.Headers(nil), in.Headers...)
	return append(headers, transport.Header{Name: "Authorization", Value: "AWS4-HMAC-SHA256 test"}), nil
}

type recordedEvent struct {
	name  string
	start map[string]any
	stop  map[string]any
}

func (e *recordedEvent) Stop(meta map[string]any) {
	e.stop = meta
}

// recordingSink captures every attempt event
type recordingSink struct {
	events []*recordedEvent
}

func (s *recordingSink) Start(ctx context.Context, name string, meta map[string]any) (context.Context, telemetry.Event) {
	ev := &recordedEvent{name: name, start: meta}
	s.events = append(s.events, ev)
	return ctx, ev
}

func fastPolicy() RetryPolicy {
	return RetryPolicy{
		BaseBackoff: time.Microsecond,
		MaxBackoff:  10 * time.Microsecond,
		MaxAttempts: 3,
	}
}

func newTestExecutor(tr transport.Client, opts ...func(*Config)) *Executor {
	cfg := Config{
		Transport: tr,
		Logger:    logger.NewWithOutput("debug", false, io.Discard),
		Retry:     fastPolicy(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return New(cfg)
}

func testRequest() *Request {
	return &Request{
		Method:  nethttp.MethodPost,
		URL:     "https://dynamodb.us-east-1.amazonaws.com/",
		Service: "dynamodb",
		Headers: transport.Headers{
			{Name: "X-Amz-Target", Value: "DynamoDB_20120810.PutItem"},
			{Name: "Content-Type", Value: "application/x-amz-json-1.0"},
		},
		Body: []byte(`{"TableName":"orders"}`),
	}
}

func TestDoSuccessPassthrough(t *testing.T) {
	tr := &scriptedTransport{steps: []step{ok(200, `{"Item":{}}`)}}
	exec := newTestExecutor(tr)

	resp, err := exec.Do(context.Background(), testRequest())

	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, []byte(`{"Item":{}}`), resp.Body)
	assert.Len(t, tr.calls, 1)
}

func TestDoNotModifiedIsSuccess(t *testing.T) {
	tr := &scriptedTransport{steps: []step{ok(304, "")}}
	exec := newTestExecutor(tr)

	resp, err := exec.Do(context.Background(), testRequest())

	require.NoError(t, err)
	assert.Equal(t, 304, resp.StatusCode)
	assert.Len(t, tr.calls, 1)
}

func TestDoRedirectIsTerminal(t *testing.T) {
	var logged bytes.Buffer
	tr := &scriptedTransport{steps: []step{ok(301, "")}}
	exec := newTestExecutor(tr, func(cfg *Config) {
		cfg.Logger = logger.NewWithOutput("debug", false, &logged)
	})

	resp, err := exec.Do(context.Background(), testRequest())

	require.Error(t, err)
	assert.Nil(t, resp)
	assert.Len(t, tr.calls, 1, "redirects must never be retried")
	status, body, found := AsHTTPError(err)
	require.True(t, found)
	assert.Equal(t, 301, status)
	assert.Equal(t, []byte("redirected"), body)
	assert.Contains(t, logged.String(), "region")
}

func TestDoServerErrorRetriesToExhaustion(t *testing.T) {
	tr := &scriptedTransport{steps: []step{ok(500, "internal error")}}
	exec := newTestExecutor(tr)

	resp, err := exec.Do(context.Background(), testRequest())

	require.Error(t, err)
	assert.Nil(t, resp)
	assert.Len(t, tr.calls, 3)
	assert.True(t, IsHTTPStatusError(err, 500))
}

func TestDoServerErrorEventuallySucceeds(t *testing.T) {
	tr := &scriptedTransport{steps: []step{
		ok(503, "unavailable"),
		ok(503, "unavailable"),
		ok(200, "recovered"),
	}}
	exec := newTestExecutor(tr)

	resp, err := exec.Do(context.Background(), testRequest())

	require.NoError(t, err)
	assert.Equal(t, []byte("recovered"), resp.Body)
	assert.Len(t, tr.calls, 3)
}

func TestDoThrottleRetriesUnderClientCeiling(t *testing.T) {
	throttle := `{"__type":"ThrottlingException","message":"slow down"}`
	tr := &scriptedTransport{steps: []step{ok(429, throttle)}}
	exec := newTestExecutor(tr, func(cfg *Config) {
		cfg.Retry.ClientErrorMaxAttempts = 2
	})

	_, err := exec.Do(context.Background(), testRequest())

	require.Error(t, err)
	assert.Len(t, tr.calls, 2, "client ceiling of 2 allows exactly one retry")
	code, msg, found := AsServiceError(err)
	require.True(t, found)
	assert.Equal(t, "ThrottlingException", code)
	assert.Equal(t, "slow down", msg)
}

func TestDoThrottleThenSuccess(t *testing.T) {
	throttle := `{"__type":"ProvisionedThroughputExceededException","message":"busy"}`
	tr := &scriptedTransport{steps: []step{
		ok(400, throttle),
		ok(400, throttle),
		ok(400, throttle),
		ok(200, "done"),
	}}
	exec := newTestExecutor(tr, func(cfg *Config) {
		cfg.Retry.ClientErrorMaxAttempts = 5
	})

	resp, err := exec.Do(context.Background(), testRequest())

	require.NoError(t, err)
	assert.Equal(t, []byte("done"), resp.Body)
	assert.Len(t, tr.calls, 4)
}

func TestDoPermanentClientErrorNotRetried(t *testing.T) {
	tr := &scriptedTransport{steps: []step{
		ok(400, `{"__type":"ValidationException","message":"bad input"}`),
	}}
	exec := newTestExecutor(tr)

	_, err := exec.Do(context.Background(), testRequest())

	require.Error(t, err)
	assert.Len(t, tr.calls, 1)
	code, _, found := AsServiceError(err)
	require.True(t, found)
	assert.Equal(t, "ValidationException", code)
}

func TestDoUnparseableClientErrorNotRetried(t *testing.T) {
	tr := &scriptedTransport{steps: []step{ok(403, "<html>forbidden</html>")}}
	exec := newTestExecutor(tr)

	_, err := exec.Do(context.Background(), testRequest())

	require.Error(t, err)
	assert.Len(t, tr.calls, 1)
	assert.True(t, IsHTTPStatusError(err, 403))
}

func TestDoSequenceTokenNeverRetried(t *testing.T) {
	tr := &scriptedTransport{steps: []step{
		ok(400, `{"__type":"InvalidSequenceTokenException","Message":"wrong","expectedSequenceToken":"49590"}`),
	}}
	exec := newTestExecutor(tr, func(cfg *Config) {
		cfg.Retry.ClientErrorMaxAttempts = 5
	})

	_, err := exec.Do(context.Background(), testRequest())

	require.Error(t, err)
	assert.Len(t, tr.calls, 1)
	token, found := SequenceToken(err)
	require.True(t, found)
	assert.Equal(t, "49590", token)
}

func TestDoTransportErrorRetried(t *testing.T) {
	tr := &scriptedTransport{steps: []step{
		fail(errors.New("dial tcp: connection refused")),
		ok(200, "recovered"),
	}}
	exec := newTestExecutor(tr)

	resp, err := exec.Do(context.Background(), testRequest())

	require.NoError(t, err)
	assert.Equal(t, []byte("recovered"), resp.Body)
	assert.Len(t, tr.calls, 2)
}

func TestDoTransportErrorExhaustsBudget(t *testing.T) {
	tr := &scriptedTransport{steps: []step{fail(errors.New("dial tcp: connection refused"))}}
	exec := newTestExecutor(tr)

	_, err := exec.Do(context.Background(), testRequest())

	require.Error(t, err)
	assert.Len(t, tr.calls, 3)
	assert.True(t, IsErrorType(err, TransportError))
	assert.Contains(t, err.Error(), "connection refused")
}

func TestDoSigningErrorIsImmediate(t *testing.T) {
	tr := &scriptedTransport{steps: []step{ok(200, "")}}
	sg := &countingSigner{err: errors.New("missing secret key")}
	exec := newTestExecutor(tr, func(cfg *Config) {
		cfg.Signer = sg
	})

	_, err := exec.Do(context.Background(), testRequest())

	require.Error(t, err)
	assert.True(t, IsErrorType(err, SigningError))
	assert.Empty(t, tr.calls, "a signing failure must not reach the wire")
	assert.Equal(t, 1, sg.calls)
}

func TestDoResignsEveryAttempt(t *testing.T) {
	tr := &scriptedTransport{steps: []step{
		ok(500, "internal"),
		ok(500, "internal"),
		ok(200, "done"),
	}}
	sg := &countingSigner{}
	exec := newTestExecutor(tr, func(cfg *Config) {
		cfg.Signer = sg
	})

	_, err := exec.Do(context.Background(), testRequest())

	require.NoError(t, err)
	assert.Equal(t, 3, sg.calls, "signatures are time-sensitive, each attempt signs anew")
	for _, c := range tr.calls {
		_, found := c.headers.First("Authorization")
		assert.True(t, found)
	}
}

func TestDoInvocationIDStableAcrossAttempts(t *testing.T) {
	tr := &scriptedTransport{steps: []step{
		fail(errors.New("reset by peer")),
		ok(200, ""),
	}}
	exec := newTestExecutor(tr)

	_, err := exec.Do(context.Background(), testRequest())

	require.NoError(t, err)
	require.Len(t, tr.calls, 2)
	assert.NotEmpty(t, tr.calls[0].invocationID)
	assert.Equal(t, tr.calls[0].invocationID, tr.calls[1].invocationID)
}

func TestDoEncodesPayloadWhenBodyUnset(t *testing.T) {
	tr := &scriptedTransport{steps: []step{ok(200, "")}}
	exec := newTestExecutor(tr)

	req := testRequest()
	req.Body = nil
	req.Payload = map[string]string{"TableName": "orders"}

	_, err := exec.Do(context.Background(), req)

	require.NoError(t, err)
	require.Len(t, tr.calls, 1)
	assert.JSONEq(t, `{"TableName":"orders"}`, string(tr.calls[0].body))
}

func TestDoUnencodablePayload(t *testing.T) {
	tr := &scriptedTransport{steps: []step{ok(200, "")}}
	exec := newTestExecutor(tr)

	req := testRequest()
	req.Body = nil
	req.Payload = func() {}

	_, err := exec.Do(context.Background(), req)

	require.Error(t, err)
	assert.Empty(t, tr.calls)
}

func TestDoEmitsAttemptEvents(t *testing.T) {
	tr := &scriptedTransport{steps: []step{
		ok(503, "unavailable"),
		ok(200, `{"Item":{}}`),
	}}
	sink := &recordingSink{}
	exec := newTestExecutor(tr, func(cfg *Config) {
		cfg.Sink = sink
		cfg.TelemetryOptions = map[string]any{"table": "orders"}
	})

	_, err := exec.Do(context.Background(), testRequest())
	require.NoError(t, err)

	require.Len(t, sink.events, 2)

	first := sink.events[0]
	assert.Equal(t, telemetry.DefaultEventName, first.name)
	assert.Equal(t, 1, first.start["attempt"])
	assert.Equal(t, "dynamodb", first.start["service"])
	assert.Equal(t, "DynamoDB_20120810.PutItem", first.start["operation"])
	assert.Equal(t, "orders", first.start["table"])
	assert.Equal(t, "error", first.stop["result"])
	assert.Equal(t, 503, first.stop["status"])

	second := sink.events[1]
	assert.Equal(t, 2, second.start["attempt"])
	assert.Equal(t, "ok", second.stop["result"])
	assert.Equal(t, `{"Item":{}}`, second.stop["response_body"])
}

func TestDoCustomEventName(t *testing.T) {
	tr := &scriptedTransport{steps: []step{ok(200, "")}}
	sink := &recordingSink{}
	exec := newTestExecutor(tr, func(cfg *Config) {
		cfg.Sink = sink
		cfg.TelemetryEvent = "kinesis.put_records"
	})

	_, err := exec.Do(context.Background(), testRequest())

	require.NoError(t, err)
	require.Len(t, sink.events, 1)
	assert.Equal(t, "kinesis.put_records", sink.events[0].name)
}

func TestDoContextCanceledDuringBackoff(t *testing.T) {
	tr := &scriptedTransport{steps: []step{ok(500, "internal")}}
	exec := newTestExecutor(tr, func(cfg *Config) {
		cfg.Retry = RetryPolicy{
			BaseBackoff: time.Minute,
			MaxBackoff:  time.Minute,
			MaxAttempts: 3,
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := exec.Do(ctx, testRequest())
		done <- err
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.True(t, IsErrorType(err, TransportError))
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Do did not return after context cancellation")
	}
	assert.Len(t, tr.calls, 1)
}

func TestDoFallbackClassifierExtendsRetrySet(t *testing.T) {
	body := `{"__type":"LimitExceededException","message":"try later"}`
	tr := &scriptedTransport{steps: []step{
		ok(400, body),
		ok(200, "done"),
	}}
	exec := newTestExecutor(tr, func(cfg *Config) {
		cfg.Retry.ClientErrorMaxAttempts = 3
		cfg.Fallback = func(code, _ string) (bool, bool) {
			return code == "LimitExceededException", code == "LimitExceededException"
		}
	})

	resp, err := exec.Do(context.Background(), testRequest())

	require.NoError(t, err)
	assert.Equal(t, []byte("done"), resp.Body)
	assert.Len(t, tr.calls, 2)
}
