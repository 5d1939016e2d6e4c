package jobpulse

import (
	"errors"
	"log/slog"
	"math/rand"
	"time"
)

// clientConfig holds mutable state during Client construction.
type clientConfig struct {
	polling          PollingConfig
	failureThreshold int
	resetTimeout     time.Duration
	maxRetries       int
	requestTimeout   time.Duration
	logger           *slog.Logger
	rng              *rand.Rand
}

// Option is a function that configures a [Client] during construction.
//
// Option implements the functional options pattern, allowing optional
// configuration to be passed to [New] in a type-safe, extensible way.
// Options return an error if validation fails.
//
// Built-in options: [WithPollingConfig], [WithBreaker], [WithMaxRetries],
// [WithRequestTimeout], [WithLogger], [WithRand].
type Option func(*clientConfig) error

// WithPollingConfig replaces the default polling policy.
//
// Example:
//
//	client, err := jobpulse.New(baseURL,
//	    jobpulse.WithPollingConfig(jobpulse.PollingConfig{
//	        InitialInterval: time.Second,
//	        MaxInterval:     30 * time.Second,
//	        Multiplier:      1.5,
//	        JitterFactor:    0.2,
//	        Timeout:         10 * time.Minute,
//	    }),
//	)
//
// Returns an error if the configuration violates [PollingConfig.Validate].
func WithPollingConfig(cfg PollingConfig) Option {
	return func(cc *clientConfig) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		cc.polling = cfg
		return nil
	}
}

// WithBreaker overrides the circuit breaker thresholds.
//
// failureThreshold is the number of consecutive failures that opens the
// breaker; resetTimeout is how long the breaker stays open before permitting
// a trial call. Defaults to 5 failures and 60 seconds.
//
// Returns an error if either value is not positive.
func WithBreaker(failureThreshold int, resetTimeout time.Duration) Option {
	return func(cc *clientConfig) error {
		if failureThreshold <= 0 {
			return errors.New("failure threshold must be positive")
		}
		if resetTimeout <= 0 {
			return errors.New("reset timeout must be positive")
		}
		cc.failureThreshold = failureThreshold
		cc.resetTimeout = resetTimeout
		return nil
	}
}

// WithMaxRetries sets the retry budget for retryable failures inside a
// single wait loop. Defaults to 3.
//
// The counter is scoped to the whole wait call: it is not reset by an
// interim successful poll.
//
// Returns an error if the value is negative.
func WithMaxRetries(n int) Option {
	return func(cc *clientConfig) error {
		if n < 0 {
			return errors.New("max retries cannot be negative")
		}
		cc.maxRetries = n
		return nil
	}
}

// WithRequestTimeout bounds each individual HTTP request. Defaults to
// 10 seconds. The overall polling deadline is configured separately via
// the polling config's Timeout.
//
// Returns an error if the duration is zero or negative.
func WithRequestTimeout(d time.Duration) Option {
	return func(cc *clientConfig) error {
		if d <= 0 {
			return errors.New("request timeout must be positive")
		}
		cc.requestTimeout = d
		return nil
	}
}

// WithLogger sets a custom [slog.Logger] for the client.
//
// The logger is used for handler panic recovery and diagnostic output.
// If not specified, [slog.Default] is used.
//
// Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cc *clientConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cc.logger = logger
		return nil
	}
}

// WithRand injects the random source used for backoff jitter, making
// interval computation deterministic in tests.
//
// Returns an error if the source is nil.
func WithRand(rng *rand.Rand) Option {
	return func(cc *clientConfig) error {
		if rng == nil {
			return errors.New("random source cannot be nil")
		}
		cc.rng = rng
		return nil
	}
}
