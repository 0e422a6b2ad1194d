package request

import (
	"github.com/gaborage/aws-bricks/config"
	"github.com/gaborage/aws-bricks/logger"
	"github.com/gaborage/aws-bricks/transport"
)

// ConfigFrom maps loaded configuration onto an engine Config: retry
// policy, per-attempt timeout, debug flag, default service and endpoint,
// and a logger plus transport built from the log settings.
//
// The signer, telemetry sink and metrics stay unset: credentials and
// provider lifecycle belong to the caller. Adjust the returned value
// before passing it to New.
func ConfigFrom(cfg *config.Config) Config {
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)
	return Config{
		Service:   cfg.Service,
		Endpoint:  cfg.Endpoint,
		Logger:    log,
		Transport: transport.New(log),
		Retry: RetryPolicy{
			BaseBackoff:            cfg.Retry.BaseBackoff,
			MaxBackoff:             cfg.Retry.MaxBackoff,
			MaxAttempts:            cfg.Retry.MaxAttempts,
			ClientErrorMaxAttempts: cfg.Retry.ClientErrorMaxAttempts,
		},
		Debug:       cfg.Debug,
		HTTPOptions: transport.Options{Timeout: cfg.HTTP.Timeout},
	}
}

// NewFromConfig creates an executor straight from loaded configuration
func NewFromConfig(cfg *config.Config) *Executor {
	return New(ConfigFrom(cfg))
}
