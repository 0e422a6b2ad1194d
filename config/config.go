// Package config loads and validates the aws-bricks client configuration
// from defaults, YAML and environment variables.
package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	env "github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const (
	// DefaultFile is the optional YAML configuration file name.
	DefaultFile = "aws-bricks.yaml"

	// EnvPrefix namespaces the environment variables read by Load.
	// A double underscore separates nesting levels so that keys
	// containing single underscores survive the mapping, e.g.
	// AWS_BRICKS_RETRY__MAX_ATTEMPTS -> retry.max_attempts.
	EnvPrefix = "AWS_BRICKS_"
)

// Load loads configuration from multiple sources with priority:
// 1. Environment variables (highest priority)
// 2. The optional aws-bricks.yaml file
// 3. Default values (lowest priority)
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// The YAML file is optional; a missing file is not an error
	if err := k.Load(file.Provider(DefaultFile), yaml.Parser()); err != nil && !strings.Contains(err.Error(), "no such file") {
		return nil, fmt.Errorf("failed to load %s: %w", DefaultFile, err)
	}

	if err := loadEnv(k); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	return finish(k)
}

// LoadFromBytes loads configuration from in-memory YAML, layered between
// the defaults and the environment. Useful when the caller embeds its
// configuration.
func LoadFromBytes(raw []byte) (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if err := k.Load(rawbytes.Provider(raw), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to parse config bytes: %w", err)
	}

	if err := loadEnv(k); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	return finish(k)
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"debug": false,

		"retry.base_backoff":              "100ms",
		"retry.max_backoff":               "10s",
		"retry.max_attempts":              5,
		"retry.client_error_max_attempts": 0,

		"http.timeout": "30s",

		"log.level":  "info",
		"log.pretty": false,

		"telemetry.enabled": false,
	}

	return k.Load(confmap.Provider(defaults, "."), nil)
}

func loadEnv(k *koanf.Koanf) error {
	return k.Load(env.Provider(".", env.Opt{
		Prefix: EnvPrefix,
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
			key = strings.ReplaceAll(key, "__", ".")
			return key, value
		},
	}), nil)
}

func finish(k *koanf.Koanf) (*Config, error) {
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Keep the koanf instance for access to custom keys
	cfg.k = k

	// Telemetry validation expects defaulted values
	cfg.Telemetry.ApplyDefaults()

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}
