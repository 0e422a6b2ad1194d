package request

import (
	"errors"
	"fmt"
)

// ClientError represents the failure kinds surfaced by the request engine.
// Every failure carries enough structured detail for the caller to branch
// programmatically without parsing message text.
type ClientError interface {
	error
	Type() ErrorType
}

// ErrorType defines the category of client error
type ErrorType string

const (
	// SigningError indicates a configuration or credential problem while
	// deriving signed headers. Never retried.
	SigningError ErrorType = "signing"
	// TransportError indicates a connectivity failure with no HTTP
	// response at all. Retried under the general ceiling.
	TransportError ErrorType = "transport"
	// HTTPError indicates an HTTP response that was not classifiable as a
	// known retryable condition, or exhausted its retry budget.
	HTTPError ErrorType = "http"
	// ServiceError indicates a decoded structured error from the remote
	// service.
	ServiceError ErrorType = "service"
)

// signingError wraps a signer failure
type signingError struct {
	wrapped error
}

func (e *signingError) Error() string {
	return fmt.Sprintf("signing error: %v", e.wrapped)
}

func (e *signingError) Type() ErrorType {
	return SigningError
}

func (e *signingError) Unwrap() error {
	return e.wrapped
}

// transportError wraps a connectivity-level failure
type transportError struct {
	message string
	wrapped error
}

func (e *transportError) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("transport error: %s: %v", e.message, e.wrapped)
	}
	return fmt.Sprintf("transport error: %s", e.message)
}

func (e *transportError) Type() ErrorType {
	return TransportError
}

func (e *transportError) Unwrap() error {
	return e.wrapped
}

// httpError carries the raw status and body of an unclassifiable response
type httpError struct {
	statusCode int
	body       []byte
}

func (e *httpError) Error() string {
	return fmt.Sprintf("HTTP error (status: %d)", e.statusCode)
}

func (e *httpError) Type() ErrorType {
	return HTTPError
}

func (e *httpError) StatusCode() int {
	return e.statusCode
}

func (e *httpError) Body() []byte {
	return e.body
}

// serviceError carries a decoded structured service error
type serviceError struct {
	code          string
	message       string
	sequenceToken string
}

func (e *serviceError) Error() string {
	if e.message != "" {
		return fmt.Sprintf("service error: %s: %s", e.code, e.message)
	}
	return fmt.Sprintf("service error: %s", e.code)
}

func (e *serviceError) Type() ErrorType {
	return ServiceError
}

// NewSigningError creates a new signing error
func NewSigningError(wrapped error) ClientError {
	return &signingError{wrapped: wrapped}
}

// NewTransportError creates a new transport error
func NewTransportError(message string, wrapped error) ClientError {
	return &transportError{message: message, wrapped: wrapped}
}

// NewHTTPError creates a new HTTP error
func NewHTTPError(statusCode int, body []byte) ClientError {
	return &httpError{statusCode: statusCode, body: body}
}

// NewServiceError creates a new service error
func NewServiceError(code, message string) ClientError {
	return &serviceError{code: code, message: message}
}

// NewServiceErrorWithToken creates a service error carrying the expected
// sequence token needed by sequential-write callers to recover without a
// blind retry.
func NewServiceErrorWithToken(code, message, sequenceToken string) ClientError {
	return &serviceError{code: code, message: message, sequenceToken: sequenceToken}
}

// IsErrorType checks if an error is of a specific type
func IsErrorType(err error, errorType ErrorType) bool {
	if err == nil {
		return false
	}
	var clientErr ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type() == errorType
	}
	return false
}

// IsHTTPStatusError checks if an error is an HTTP error with a specific status code
func IsHTTPStatusError(err error, statusCode int) bool {
	var httpErr *httpError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode() == statusCode
	}
	return false
}

// AsHTTPError extracts the status and body from an HTTP error
func AsHTTPError(err error) (statusCode int, body []byte, ok bool) {
	var httpErr *httpError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode(), httpErr.Body(), true
	}
	return 0, nil, false
}

// AsServiceError extracts the canonical error type and message from a
// service error
func AsServiceError(err error) (code, message string, ok bool) {
	var svcErr *serviceError
	if errors.As(err, &svcErr) {
		return svcErr.code, svcErr.message, true
	}
	return "", "", false
}

// SequenceToken extracts the expected sequence token from a service
// error, when present
func SequenceToken(err error) (string, bool) {
	var svcErr *serviceError
	if errors.As(err, &svcErr) && svcErr.sequenceToken != "" {
		return svcErr.sequenceToken, true
	}
	return "", false
}

// IsThrottle reports whether err is a service error caused by
// capacity/rate-limit back-pressure
func IsThrottle(err error) bool {
	code, _, ok := AsServiceError(err)
	if !ok {
		return false
	}
	_, retryable := retryableServiceErrors[code]
	return retryable
}

// IsSuccessStatus checks if a status code represents success
// (2xx or 304 Not Modified)
func IsSuccessStatus(statusCode int) bool {
	return (statusCode >= 200 && statusCode < 300) || statusCode == 304
}
