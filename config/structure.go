package config

import (
	"time"

	"github.com/knadh/koanf/v2"

	"github.com/gaborage/aws-bricks/telemetry"
)

// Config is the full client configuration. It is read-only for the
// lifetime of a call; the request engine never mutates it.
type Config struct {
	// Service is the AWS service identifier used for signing scope and
	// instrumentation, e.g. "logs" or "dynamodb".
	Service string `koanf:"service" validate:"required"`

	// Region is the AWS region the client signs for.
	Region string `koanf:"region" validate:"required"`

	// Endpoint overrides the service endpoint URL. Empty selects the
	// standard https://<service>.<region>.amazonaws.com form.
	Endpoint string `koanf:"endpoint"`

	// Debug enables per-attempt debug logging of method, sanitized URL,
	// headers and body.
	Debug bool `koanf:"debug"`

	Retry     RetryConfig      `koanf:"retry"`
	HTTP      HTTPConfig       `koanf:"http"`
	Telemetry telemetry.Config `koanf:"telemetry"`
	Log       LogConfig        `koanf:"log"`

	// k holds the underlying koanf instance for flexible access to
	// custom configuration keys
	k *koanf.Koanf `json:"-" yaml:"-" koanf:"-"`
}

// RetryConfig controls the retry/backoff policy.
type RetryConfig struct {
	// BaseBackoff is the exponential envelope base.
	BaseBackoff time.Duration `koanf:"base_backoff" validate:"gt=0"`

	// MaxBackoff caps the envelope.
	MaxBackoff time.Duration `koanf:"max_backoff" validate:"gt=0"`

	// MaxAttempts is the general attempt ceiling.
	MaxAttempts int `koanf:"max_attempts" validate:"min=1"`

	// ClientErrorMaxAttempts, when > 0, overrides the ceiling for
	// retryable 4xx responses (throttling back-pressure) independently
	// of MaxAttempts.
	ClientErrorMaxAttempts int `koanf:"client_error_max_attempts" validate:"min=0"`
}

// HTTPConfig controls the transport.
type HTTPConfig struct {
	// Timeout bounds a single attempt; retries compound on top of it.
	Timeout time.Duration `koanf:"timeout" validate:"gt=0"`
}

// LogConfig controls diagnostic logging.
type LogConfig struct {
	Level  string `koanf:"level"`
	Pretty bool   `koanf:"pretty"`
}

// Raw returns the value at a custom configuration key, for settings not
// covered by the typed structure.
func (c *Config) Raw(key string) any {
	if c.k == nil {
		return nil
	}
	return c.k.Get(key)
}
