package telemetry

import (
	"fmt"
	"time"
)

const (
	// EndpointStdout is a special endpoint value that outputs to stdout
	// (for local development).
	EndpointStdout = "stdout"

	// ProtocolHTTP specifies OTLP over HTTP/protobuf.
	ProtocolHTTP = "http"

	// ProtocolGRPC specifies OTLP over gRPC.
	ProtocolGRPC = "grpc"

	// DefaultEventName is the event name used for attempt instrumentation
	// when the caller does not configure one.
	DefaultEventName = "aws.request"
)

// BoolPtr returns a pointer to the provided bool value.
// Helpful when optional boolean configuration fields are used.
func BoolPtr(v bool) *bool {
	return &v
}

// Config defines the telemetry configuration.
type Config struct {
	// Enabled controls whether telemetry is active. When false, the
	// provider is a no-op.
	Enabled bool `koanf:"enabled"`

	// Service contains service identification metadata.
	Service ServiceConfig `koanf:"service"`

	// Environment indicates the deployment environment.
	Environment string `koanf:"environment"`

	// Trace contains tracing-specific configuration.
	Trace TraceConfig `koanf:"trace"`

	// Metrics contains metrics-specific configuration.
	Metrics MetricsConfig `koanf:"metrics"`
}

// ServiceConfig contains service identification metadata.
type ServiceConfig struct {
	// Name identifies the client in traces and metrics.
	// Required when telemetry is enabled.
	Name string `koanf:"name"`

	// Version specifies the version of the client.
	Version string `koanf:"version"`
}

// TraceConfig contains tracing exporter settings.
type TraceConfig struct {
	// Enabled defaults to true when telemetry is enabled.
	Enabled *bool `koanf:"enabled"`

	// Endpoint is the OTLP endpoint, or "stdout" for local development.
	Endpoint string `koanf:"endpoint"`

	// Protocol selects OTLP transport: "http" or "grpc".
	Protocol string `koanf:"protocol"`

	// Insecure disables TLS for the OTLP connection.
	Insecure bool `koanf:"insecure"`

	// SampleRate is the trace sampling ratio in [0, 1].
	SampleRate float64 `koanf:"sample_rate"`

	// BatchTimeout is the span batching interval.
	BatchTimeout time.Duration `koanf:"batch_timeout"`

	// Headers are added to OTLP export requests (e.g. auth).
	Headers map[string]string `koanf:"headers"`
}

// MetricsConfig contains metrics exporter settings.
type MetricsConfig struct {
	// Enabled defaults to true when telemetry is enabled.
	Enabled *bool `koanf:"enabled"`

	// Endpoint is the OTLP endpoint, or "stdout" for local development.
	Endpoint string `koanf:"endpoint"`

	// Protocol selects OTLP transport: "http" or "grpc".
	Protocol string `koanf:"protocol"`

	// Insecure disables TLS for the OTLP connection.
	Insecure bool `koanf:"insecure"`

	// Interval is the periodic export interval.
	Interval time.Duration `koanf:"interval"`

	// ExportTimeout bounds a single export.
	ExportTimeout time.Duration `koanf:"export_timeout"`

	// Headers are added to OTLP export requests (e.g. auth).
	Headers map[string]string `koanf:"headers"`
}

// ApplyDefaults sets default values for any unspecified fields.
func (c *Config) ApplyDefaults() {
	if c.Service.Version == "" {
		c.Service.Version = "unknown"
	}
	if c.Environment == "" {
		c.Environment = "development"
	}

	if c.Trace.Enabled == nil {
		c.Trace.Enabled = BoolPtr(c.Enabled)
	}
	if c.Trace.Endpoint == "" {
		c.Trace.Endpoint = EndpointStdout
	}
	if c.Trace.Protocol == "" {
		c.Trace.Protocol = ProtocolHTTP
	}
	if c.Trace.SampleRate == 0 {
		c.Trace.SampleRate = 1.0
	}
	if c.Trace.BatchTimeout == 0 {
		c.Trace.BatchTimeout = 5 * time.Second
	}

	if c.Metrics.Enabled == nil {
		c.Metrics.Enabled = BoolPtr(c.Enabled)
	}
	if c.Metrics.Endpoint == "" {
		c.Metrics.Endpoint = EndpointStdout
	}
	if c.Metrics.Protocol == "" {
		c.Metrics.Protocol = ProtocolHTTP
	}
	if c.Metrics.Interval == 0 {
		c.Metrics.Interval = 30 * time.Second
	}
	if c.Metrics.ExportTimeout == 0 {
		c.Metrics.ExportTimeout = 10 * time.Second
	}
}

// Validate checks the configuration for inconsistencies.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Service.Name == "" {
		return fmt.Errorf("telemetry: service name is required when enabled")
	}
	if c.Trace.SampleRate < 0 || c.Trace.SampleRate > 1 {
		return fmt.Errorf("telemetry: trace sample rate must be in [0, 1], got %v", c.Trace.SampleRate)
	}
	if err := validateProtocol(c.Trace.Endpoint, c.Trace.Protocol); err != nil {
		return fmt.Errorf("telemetry: trace: %w", err)
	}
	if err := validateProtocol(c.Metrics.Endpoint, c.Metrics.Protocol); err != nil {
		return fmt.Errorf("telemetry: metrics: %w", err)
	}
	return nil
}

func validateProtocol(endpoint, protocol string) error {
	if endpoint == EndpointStdout {
		return nil
	}
	switch protocol {
	case ProtocolHTTP, ProtocolGRPC:
		return nil
	default:
		return fmt.Errorf("unsupported protocol %q", protocol)
	}
}
