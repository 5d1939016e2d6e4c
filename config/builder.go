package config

import (
	"github.com/jpalmerr/jobpulse"
)

// BuildOptions converts a validated [Config] into SDK options for
// [jobpulse.New].
//
// The base URL is not included; pass cfg.BaseURL to jobpulse.New directly:
//
//	cfg, err := config.Load(path)
//	if err != nil {
//	    return err
//	}
//	client, err := jobpulse.New(cfg.BaseURL, config.BuildOptions(cfg)...)
func BuildOptions(cfg *Config) []jobpulse.Option {
	return []jobpulse.Option{
		jobpulse.WithPollingConfig(BuildPollingConfig(cfg)),
		jobpulse.WithBreaker(cfg.Breaker.FailureThreshold, cfg.Breaker.ResetTimeout.Duration()),
		jobpulse.WithMaxRetries(cfg.MaxRetries),
	}
}

// BuildPollingConfig converts the YAML polling section into the SDK's
// [jobpulse.PollingConfig].
func BuildPollingConfig(cfg *Config) jobpulse.PollingConfig {
	return jobpulse.PollingConfig{
		InitialInterval: cfg.Polling.InitialInterval.Duration(),
		MaxInterval:     cfg.Polling.MaxInterval.Duration(),
		Multiplier:      cfg.Polling.Multiplier,
		JitterFactor:    cfg.Polling.JitterFactor,
		Timeout:         cfg.Polling.Timeout.Duration(),
	}
}
