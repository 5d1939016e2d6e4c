// Package backoff computes jittered exponential poll intervals.
//
// The calculator is a pure value: it holds configuration and a random source
// but no loop state. Callers thread the current interval through [Calculator.Next]
// themselves, which keeps the escalation policy testable in isolation from
// any sleeping or polling.
package backoff

import (
	"math/rand"
	"time"
)

// Calculator produces the next poll interval from the current one.
//
// Next intervals grow by a constant multiplier up to a ceiling, with uniform
// random jitter applied inside a band proportional to the interval. The
// jitter avoids synchronized retry storms when many clients poll the same
// server.
//
// Calculator also implements the jitterbug.Jitter interface via
// [Calculator.Jitter], so it can drive a jittered ticker directly.
type Calculator struct {
	multiplier   float64
	maxInterval  time.Duration
	jitterFactor float64
	rng          *rand.Rand
}

// New creates a [Calculator].
//
// Parameters:
//   - multiplier: growth factor per step, must be >= 1
//   - maxInterval: ceiling for the un-jittered interval
//   - jitterFactor: half-width of the jitter band as a fraction of the
//     interval, in [0, 1)
//   - rng: random source; nil uses a time-seeded source
//
// The random source is injectable so tests can make jitter deterministic.
// A Calculator is not safe for concurrent use; each polling loop owns its
// own instance.
func New(multiplier float64, maxInterval time.Duration, jitterFactor float64, rng *rand.Rand) *Calculator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Calculator{
		multiplier:   multiplier,
		maxInterval:  maxInterval,
		jitterFactor: jitterFactor,
		rng:          rng,
	}
}

// Base returns the un-jittered next interval: the current interval scaled by
// the multiplier and capped at the ceiling.
func (c *Calculator) Base(current time.Duration) time.Duration {
	next := time.Duration(float64(current) * c.multiplier)
	if next > c.maxInterval {
		next = c.maxInterval
	}
	return next
}

// Next returns the next poll interval: [Calculator.Base] with jitter applied.
//
// The result always lies within [base*(1-jitterFactor), base*(1+jitterFactor)]
// and is clamped at zero so a pathological jitter configuration can never
// produce a negative sleep.
func (c *Calculator) Next(current time.Duration) time.Duration {
	return c.Jitter(c.Base(current))
}

// Jitter applies the uniform jitter band to a fixed base interval without
// escalating it. This implements the jitterbug.Jitter interface, letting a
// Calculator pace a jitterbug.Ticker for loops that re-sleep at a constant
// base each round.
func (c *Calculator) Jitter(base time.Duration) time.Duration {
	if c.jitterFactor == 0 || base <= 0 {
		return base
	}
	band := float64(base) * c.jitterFactor
	delta := (c.rng.Float64()*2 - 1) * band
	next := time.Duration(float64(base) + delta)
	if next < 0 {
		next = 0
	}
	return next
}
