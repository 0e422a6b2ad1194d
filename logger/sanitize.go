package logger

import (
	"net/url"
	"strings"
)

const (
	// DefaultMaskValue replaces sensitive data in log output
	DefaultMaskValue = "***"

	// defaultMaxDepth bounds recursion when filtering nested values
	defaultMaxDepth = 8
)

// SanitizerConfig defines which keys are considered sensitive and the
// replacement value used when masking.
type SanitizerConfig struct {
	// SensitiveKeys contains field and header names whose values are masked.
	// Matching is case-insensitive.
	SensitiveKeys []string
	// MaskValue is the value used to replace sensitive data (default: "***")
	MaskValue string
}

// DefaultSanitizerConfig returns a configuration covering the credential
// material that appears in signed AWS requests.
func DefaultSanitizerConfig() *SanitizerConfig {
	return &SanitizerConfig{
		SensitiveKeys: []string{
			"authorization",
			"x-amz-security-token",
			"x-amz-credential",
			"x-amz-signature",
			"secret", "secret_access_key", "secretaccesskey",
			"password", "token", "api_key", "apikey",
		},
		MaskValue: DefaultMaskValue,
	}
}

// Sanitizer masks credential material in log fields and URLs before they
// reach any output sink. Signed URLs carry the signature and credential
// scope as query parameters, so raw URLs must never be logged unfiltered.
type Sanitizer struct {
	config *SanitizerConfig
}

// NewSanitizer creates a sanitizer with the given configuration.
// A nil config selects the defaults.
func NewSanitizer(config *SanitizerConfig) *Sanitizer {
	if config == nil {
		config = DefaultSanitizerConfig()
	}
	if config.MaskValue == "" {
		config.MaskValue = DefaultMaskValue
	}
	return &Sanitizer{config: config}
}

// FilterString masks the value when the key names sensitive material.
// Values that look like URLs additionally have credential query
// parameters masked.
func (s *Sanitizer) FilterString(key, value string) string {
	if s.isSensitiveKey(key) {
		return s.config.MaskValue
	}
	if strings.Contains(value, "://") {
		return s.SanitizeURL(value)
	}
	return value
}

// FilterValue masks sensitive entries in strings and nested string maps.
func (s *Sanitizer) FilterValue(key string, value any) any {
	return s.filterValue(key, value, defaultMaxDepth)
}

func (s *Sanitizer) filterValue(key string, value any, depth int) any {
	if s.isSensitiveKey(key) {
		return s.config.MaskValue
	}
	if depth <= 0 {
		return value
	}

	switch v := value.(type) {
	case string:
		return s.FilterString(key, v)
	case map[string]string:
		out := make(map[string]string, len(v))
		for k, mv := range v {
			out[k] = s.FilterString(k, mv)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, mv := range v {
			out[k] = s.filterValue(k, mv, depth-1)
		}
		return out
	default:
		return value
	}
}

// SanitizeURL masks credential-bearing query parameters in a URL while
// preserving the rest of the value. Unparseable input is returned as-is.
func (s *Sanitizer) SanitizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	q := u.Query()
	changed := false
	for param := range q {
		if s.isSensitiveKey(param) {
			q.Set(param, s.config.MaskValue)
			changed = true
		}
	}
	if u.User != nil {
		u.User = url.User(s.config.MaskValue)
		changed = true
	}
	if !changed {
		return raw
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func (s *Sanitizer) isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, sensitive := range s.config.SensitiveKeys {
		if lower == sensitive {
			return true
		}
	}
	return false
}
