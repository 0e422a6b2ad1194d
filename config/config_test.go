package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalYAML = `
service: logs
region: us-east-1
`

func TestLoadFromBytesAppliesDefaults(t *testing.T) {
	cfg, err := LoadFromBytes([]byte(minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, "logs", cfg.Service)
	assert.Equal(t, "us-east-1", cfg.Region)
	assert.False(t, cfg.Debug)

	assert.Equal(t, 100*time.Millisecond, cfg.Retry.BaseBackoff)
	assert.Equal(t, 10*time.Second, cfg.Retry.MaxBackoff)
	assert.Equal(t, 5, cfg.Retry.MaxAttempts)
	assert.Equal(t, 0, cfg.Retry.ClientErrorMaxAttempts)

	assert.Equal(t, 30*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Telemetry.Enabled)
}

func TestLoadFromBytesOverridesDefaults(t *testing.T) {
	cfg, err := LoadFromBytes([]byte(`
service: dynamodb
region: eu-west-1
endpoint: http://localhost:8000
debug: true
retry:
  base_backoff: 50ms
  max_backoff: 2s
  max_attempts: 3
  client_error_max_attempts: 8
http:
  timeout: 5s
`))
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8000", cfg.Endpoint)
	assert.True(t, cfg.Debug)
	assert.Equal(t, 50*time.Millisecond, cfg.Retry.BaseBackoff)
	assert.Equal(t, 2*time.Second, cfg.Retry.MaxBackoff)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, 8, cfg.Retry.ClientErrorMaxAttempts)
	assert.Equal(t, 5*time.Second, cfg.HTTP.Timeout)
}

func TestLoadFromBytesEnvOverrides(t *testing.T) {
	t.Setenv("AWS_BRICKS_REGION", "ap-southeast-2")
	t.Setenv("AWS_BRICKS_RETRY__MAX_ATTEMPTS", "2")

	cfg, err := LoadFromBytes([]byte(minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, "ap-southeast-2", cfg.Region)
	assert.Equal(t, 2, cfg.Retry.MaxAttempts)
}

func TestLoadFromBytesValidation(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "missing service",
			yaml:    "region: us-east-1\n",
			wantErr: "validation failed",
		},
		{
			name:    "missing region",
			yaml:    "service: logs\n",
			wantErr: "validation failed",
		},
		{
			name:    "zero attempts",
			yaml:    minimalYAML + "retry:\n  max_attempts: 0\n",
			wantErr: "validation failed",
		},
		{
			name:    "max backoff below base",
			yaml:    minimalYAML + "retry:\n  base_backoff: 5s\n  max_backoff: 1s\n",
			wantErr: "max_backoff",
		},
		{
			name:    "enabled telemetry needs service name",
			yaml:    minimalYAML + "telemetry:\n  enabled: true\n",
			wantErr: "telemetry",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromBytes([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFromBytesInvalidYAML(t *testing.T) {
	_, err := LoadFromBytes([]byte("service: [unclosed"))
	assert.Error(t, err)
}

func TestRawExposesCustomKeys(t *testing.T) {
	cfg, err := LoadFromBytes([]byte(minimalYAML + "custom:\n  flag: 42\n"))
	require.NoError(t, err)

	assert.Equal(t, 42, cfg.Raw("custom.flag"))
	assert.Nil(t, cfg.Raw("custom.absent"))
}
