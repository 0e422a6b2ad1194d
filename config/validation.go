package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate checks the configuration for structural and cross-field
// consistency. It is called by Load but exported so hand-built configs
// can be checked too.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	if cfg.Retry.MaxBackoff < cfg.Retry.BaseBackoff {
		return fmt.Errorf("retry config: max_backoff (%v) must be >= base_backoff (%v)",
			cfg.Retry.MaxBackoff, cfg.Retry.BaseBackoff)
	}

	if err := cfg.Telemetry.Validate(); err != nil {
		return fmt.Errorf("telemetry config: %w", err)
	}

	return nil
}
