// Package config provides YAML and environment configuration for the
// jobpulse CLI.
//
// This package enables running the polling client as a standalone binary
// with a configuration file, as an alternative to the programmatic SDK
// approach.
//
// Example configuration:
//
//	base_url: http://localhost:5000
//	max_retries: 3
//
//	polling:
//	  initial_interval: 500ms
//	  max_interval: 5s
//	  multiplier: 2.0
//	  jitter_factor: 0.1
//	  timeout: 5m
//
//	breaker:
//	  failure_threshold: 5
//	  reset_timeout: 60s
//
// When no file is given, [FromEnv] reads the same settings from JOBPULSE_*
// environment variables (e.g. JOBPULSE_BASE_URL,
// JOBPULSE_POLLING_INITIAL_INTERVAL).
package config

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// envPrefix is the prefix for environment variable configuration.
const envPrefix = "jobpulse"

// Config is the root configuration structure for the jobpulse CLI.
//
// It maps directly to the YAML configuration file structure. Use [Load],
// [Parse], or [FromEnv] to create a Config.
type Config struct {
	// BaseURL is the job server base URL.
	// Supports environment variable substitution: ${VAR} or ${VAR:-default}
	BaseURL string `yaml:"base_url" envconfig:"BASE_URL"`

	// MaxRetries is the retry budget for retryable failures within one wait
	// loop. Defaults to 3.
	MaxRetries int `yaml:"max_retries" envconfig:"MAX_RETRIES"`

	// Polling controls the backoff policy and overall deadline.
	Polling PollingConfig `yaml:"polling" envconfig:"POLLING"`

	// Breaker controls the circuit breaker thresholds.
	Breaker BreakerConfig `yaml:"breaker" envconfig:"BREAKER"`
}

// PollingConfig mirrors jobpulse.PollingConfig with YAML-friendly durations.
type PollingConfig struct {
	// InitialInterval is the first sleep between polls. Defaults to 500ms.
	InitialInterval Duration `yaml:"initial_interval" envconfig:"INITIAL_INTERVAL"`

	// MaxInterval caps the un-jittered sleep interval. Defaults to 5s.
	MaxInterval Duration `yaml:"max_interval" envconfig:"MAX_INTERVAL"`

	// Multiplier is the interval growth factor. Defaults to 2.0.
	Multiplier float64 `yaml:"multiplier" envconfig:"MULTIPLIER"`

	// JitterFactor is the jitter band half-width. Defaults to 0.1.
	JitterFactor float64 `yaml:"jitter_factor" envconfig:"JITTER_FACTOR"`

	// Timeout bounds the total wall-clock time of a wait. Defaults to 5m.
	Timeout Duration `yaml:"timeout" envconfig:"TIMEOUT"`
}

// BreakerConfig holds circuit breaker thresholds.
type BreakerConfig struct {
	// FailureThreshold is the consecutive failure count that opens the
	// breaker. Defaults to 5.
	FailureThreshold int `yaml:"failure_threshold" envconfig:"FAILURE_THRESHOLD"`

	// ResetTimeout is how long the breaker stays open before permitting a
	// trial call. Defaults to 60s.
	ResetTimeout Duration `yaml:"reset_timeout" envconfig:"RESET_TIMEOUT"`
}

// Duration wraps time.Duration for YAML and environment unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	return d.UnmarshalText([]byte(s))
}

// UnmarshalText implements encoding.TextUnmarshaler so envconfig can decode
// duration strings.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	*d = Duration(parsed)
	return nil
}

// Duration returns the wrapped time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part (if present, indicates a default was specified)
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		hasDefault := len(submatches) > 2 && submatches[2] != ""
		defaultVal := ""
		if hasDefault && len(submatches) > 3 {
			defaultVal = submatches[3]
		}

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return defaultVal
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Load reads and parses a YAML configuration file.
//
// Environment variables in the base URL are expanded before validation.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration data, applies defaults, expands
// environment variables in the base URL, and validates the result.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.expandAndValidate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FromEnv builds a Config from JOBPULSE_* environment variables on top of
// the defaults.
func FromEnv() (*Config, error) {
	var cfg Config
	cfg.applyDefaults()

	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment config: %w", err)
	}

	if err := cfg.expandAndValidate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills zero-valued fields with the client defaults.
func (c *Config) applyDefaults() {
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.Polling.InitialInterval == 0 {
		c.Polling.InitialInterval = Duration(500 * time.Millisecond)
	}
	if c.Polling.MaxInterval == 0 {
		c.Polling.MaxInterval = Duration(5 * time.Second)
	}
	if c.Polling.Multiplier == 0 {
		c.Polling.Multiplier = 2.0
	}
	if c.Polling.JitterFactor == 0 {
		c.Polling.JitterFactor = 0.1
	}
	if c.Polling.Timeout == 0 {
		c.Polling.Timeout = Duration(5 * time.Minute)
	}
	if c.Breaker.FailureThreshold == 0 {
		c.Breaker.FailureThreshold = 5
	}
	if c.Breaker.ResetTimeout == 0 {
		c.Breaker.ResetTimeout = Duration(60 * time.Second)
	}
}

// expandAndValidate expands environment variables and validates the config.
func (c *Config) expandAndValidate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base_url is required")
	}

	expanded, err := expandEnvVars(c.BaseURL)
	if err != nil {
		return fmt.Errorf("base_url: %w", err)
	}
	c.BaseURL = expanded

	parsedURL, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base_url: %w", err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("base_url scheme must be http or https, got %q", parsedURL.Scheme)
	}

	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries cannot be negative, got %d", c.MaxRetries)
	}
	if c.Polling.InitialInterval.Duration() <= 0 {
		return fmt.Errorf("polling.initial_interval must be positive, got %s", c.Polling.InitialInterval.Duration())
	}
	if c.Polling.MaxInterval.Duration() < c.Polling.InitialInterval.Duration() {
		return fmt.Errorf("polling.max_interval must be at least initial_interval, got %s", c.Polling.MaxInterval.Duration())
	}
	if c.Polling.Multiplier < 1 {
		return fmt.Errorf("polling.multiplier must be at least 1, got %g", c.Polling.Multiplier)
	}
	if c.Polling.JitterFactor < 0 || c.Polling.JitterFactor >= 1 {
		return fmt.Errorf("polling.jitter_factor must be in [0, 1), got %g", c.Polling.JitterFactor)
	}
	if c.Polling.Timeout.Duration() <= 0 {
		return fmt.Errorf("polling.timeout must be positive, got %s", c.Polling.Timeout.Duration())
	}
	if c.Breaker.FailureThreshold < 0 {
		return fmt.Errorf("breaker.failure_threshold cannot be negative, got %d", c.Breaker.FailureThreshold)
	}
	if c.Breaker.ResetTimeout.Duration() < 0 {
		return fmt.Errorf("breaker.reset_timeout cannot be negative, got %s", c.Breaker.ResetTimeout.Duration())
	}

	return nil
}
