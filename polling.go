package jobpulse

import (
	"errors"
	"time"
)

// Default polling configuration, matching the job server's expected
// completion times: half-second first poll, doubling up to five seconds,
// with a 10% jitter band and a five-minute overall deadline.
const (
	DefaultInitialInterval = 500 * time.Millisecond
	DefaultMaxInterval     = 5 * time.Second
	DefaultMultiplier      = 2.0
	DefaultJitterFactor    = 0.1
	DefaultTimeout         = 5 * time.Minute
)

// PollingConfig is the immutable polling policy for a client.
//
// It controls how the wait loops escalate their sleep interval between
// status polls and how long they are willing to wait overall. Use
// [DefaultPollingConfig] for sensible defaults and [WithPollingConfig] to
// install a custom policy.
type PollingConfig struct {
	// InitialInterval is the first sleep between polls.
	InitialInterval time.Duration

	// MaxInterval caps the un-jittered sleep interval.
	MaxInterval time.Duration

	// Multiplier is the growth factor applied to the interval after each
	// poll. Must be >= 1.
	Multiplier float64

	// JitterFactor is the half-width of the randomization band applied to
	// each interval, as a fraction of the interval. Must be in [0, 1).
	JitterFactor float64

	// Timeout bounds the total wall-clock time of a wait loop across all
	// iterations. It does not abort a request already in flight.
	Timeout time.Duration
}

// DefaultPollingConfig returns the default polling policy.
func DefaultPollingConfig() PollingConfig {
	return PollingConfig{
		InitialInterval: DefaultInitialInterval,
		MaxInterval:     DefaultMaxInterval,
		Multiplier:      DefaultMultiplier,
		JitterFactor:    DefaultJitterFactor,
		Timeout:         DefaultTimeout,
	}
}

// Validate checks the configuration invariants.
//
// Required: all durations positive, initial interval <= max interval,
// multiplier >= 1, jitter factor in [0, 1).
func (c PollingConfig) Validate() error {
	if c.InitialInterval <= 0 {
		return errors.New("initial interval must be positive")
	}
	if c.MaxInterval <= 0 {
		return errors.New("max interval must be positive")
	}
	if c.InitialInterval > c.MaxInterval {
		return errors.New("initial interval must not exceed max interval")
	}
	if c.Multiplier < 1 {
		return errors.New("multiplier must be at least 1")
	}
	if c.JitterFactor < 0 || c.JitterFactor >= 1 {
		return errors.New("jitter factor must be in [0, 1)")
	}
	if c.Timeout <= 0 {
		return errors.New("timeout must be positive")
	}
	return nil
}
