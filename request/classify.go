package request

import (
	"strings"

	"github.com/gaborage/aws-bricks/codec"
)

// retryableServiceErrors lists the service error codes that signal
// transient capacity or rate-limit back-pressure. Everything else in the
// 4xx range is permanent.
var retryableServiceErrors = map[string]struct{}{
	"ProvisionedThroughputExceededException": {},
	"ThrottlingException":                    {},
	"TooManyRequestsException":               {},
}

// FallbackClassifier lets embedding code extend classification for
// service error codes the built-in whitelist does not recognize. It
// returns whether the error is retryable, and whether it handled the
// code at all. Unhandled codes fall through to a terminal service error.
type FallbackClassifier func(code, message string) (retryable, handled bool)

// decision is the outcome of classifying a client (4xx) response
type decision struct {
	retry  bool
	reason ClientError
}

// classifyClientError decodes a 4xx response body and decides whether
// the failure is transient. Bodies that cannot be decoded, or decode
// without a type discriminator, are permanent HTTP errors: retrying a
// malformed rejection cannot change the answer.
func classifyClientError(statusCode int, body []byte, dec codec.Codec, fallback FallbackClassifier) decision {
	var payload map[string]any
	if err := dec.Decode(body, &payload); err != nil || payload == nil {
		return decision{reason: NewHTTPError(statusCode, body)}
	}

	rawType, _ := payload["__type"].(string)
	if rawType == "" {
		return decision{reason: NewHTTPError(statusCode, body)}
	}
	code := canonicalErrorCode(rawType)
	message := messageField(payload)

	// A response carrying the expected sequence token is terminal no
	// matter what the code says: the caller must resubmit with the
	// token, a blind retry would fail identically.
	if token, ok := payload["expectedSequenceToken"].(string); ok && token != "" {
		return decision{reason: NewServiceErrorWithToken(code, message, token)}
	}

	if _, ok := retryableServiceErrors[code]; ok {
		return decision{retry: true, reason: NewServiceError(code, message)}
	}

	if fallback != nil {
		if retryable, handled := fallback(code, message); handled {
			return decision{retry: retryable, reason: NewServiceError(code, message)}
		}
	}

	return decision{reason: NewServiceError(code, message)}
}

// canonicalErrorCode strips the namespace prefix from a type
// discriminator such as "com.amazonaws.dynamodb.v20120810#ThrottlingException".
func canonicalErrorCode(raw string) string {
	parts := strings.Split(raw, "#")
	return parts[len(parts)-1]
}

// messageField returns the human-readable message, tolerating both
// casings services use for the field. Lowercase wins when both appear.
func messageField(payload map[string]any) string {
	for _, key := range []string{"message", "Message"} {
		if v, ok := payload[key].(string); ok {
			return v
		}
	}
	return ""
}
