package backoff

import (
	"math/rand"
	"testing"
	"time"
)

// TestCalculator_NextWithinJitterBand verifies that every computed interval
// lies within the documented band around the un-jittered base.
func TestCalculator_NextWithinJitterBand(t *testing.T) {
	const (
		multiplier = 2.0
		jitter     = 0.1
	)
	maxInterval := 5 * time.Second
	calc := New(multiplier, maxInterval, jitter, rand.New(rand.NewSource(42)))

	current := 500 * time.Millisecond
	for i := 0; i < 100; i++ {
		base := calc.Base(current)
		got := calc.Next(current)

		lo := time.Duration(float64(base) * (1 - jitter))
		hi := time.Duration(float64(base) * (1 + jitter))
		if got < lo || got > hi {
			t.Fatalf("iteration %d: Next(%s) = %s, want within [%s, %s]", i, current, got, lo, hi)
		}
		current = got
	}
}

// TestCalculator_BaseCapsAtMaxInterval verifies the un-jittered interval
// never exceeds the ceiling, no matter how large the current interval grows.
func TestCalculator_BaseCapsAtMaxInterval(t *testing.T) {
	maxInterval := 5 * time.Second
	calc := New(2.0, maxInterval, 0.1, rand.New(rand.NewSource(1)))

	tests := []struct {
		name    string
		current time.Duration
		want    time.Duration
	}{
		{"below cap", 500 * time.Millisecond, time.Second},
		{"reaches cap", 3 * time.Second, maxInterval},
		{"already at cap", maxInterval, maxInterval},
		{"beyond cap", time.Minute, maxInterval},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := calc.Base(tt.current); got != tt.want {
				t.Errorf("Base(%s) = %s, want %s", tt.current, got, tt.want)
			}
		})
	}
}

// TestCalculator_NextNeverExceedsJitteredCeiling verifies repeated
// escalation stays below maxInterval*(1+jitter).
func TestCalculator_NextNeverExceedsJitteredCeiling(t *testing.T) {
	const jitter = 0.1
	maxInterval := 5 * time.Second
	calc := New(2.0, maxInterval, jitter, rand.New(rand.NewSource(7)))

	ceiling := time.Duration(float64(maxInterval) * (1 + jitter))
	current := 500 * time.Millisecond
	for i := 0; i < 200; i++ {
		current = calc.Next(current)
		if current > ceiling {
			t.Fatalf("iteration %d: interval %s exceeds ceiling %s", i, current, ceiling)
		}
	}
}

// TestCalculator_ZeroJitterIsDeterministic verifies that a zero jitter
// factor produces the exact base interval.
func TestCalculator_ZeroJitterIsDeterministic(t *testing.T) {
	calc := New(2.0, 5*time.Second, 0, rand.New(rand.NewSource(1)))

	if got := calc.Next(time.Second); got != 2*time.Second {
		t.Errorf("Next(1s) = %s, want 2s", got)
	}
	if got := calc.Next(4 * time.Second); got != 5*time.Second {
		t.Errorf("Next(4s) = %s, want 5s (capped)", got)
	}
}

// TestCalculator_JitterNeverNegative verifies the zero clamp and the
// pass-through behaviour for non-positive bases.
func TestCalculator_JitterNeverNegative(t *testing.T) {
	calc := New(2.0, 5*time.Second, 0.99, rand.New(rand.NewSource(3)))

	for i := 0; i < 1000; i++ {
		if got := calc.Jitter(time.Millisecond); got < 0 {
			t.Fatalf("Jitter returned negative interval %s", got)
		}
	}

	if got := calc.Jitter(0); got != 0 {
		t.Errorf("Jitter(0) = %s, want 0", got)
	}
}

// TestCalculator_NilRandSource verifies New falls back to a time-seeded
// source when no rand is injected.
func TestCalculator_NilRandSource(t *testing.T) {
	calc := New(2.0, 5*time.Second, 0.1, nil)

	// must not panic and must stay within the band
	got := calc.Next(time.Second)
	lo := time.Duration(float64(2*time.Second) * 0.9)
	hi := time.Duration(float64(2*time.Second) * 1.1)
	if got < lo || got > hi {
		t.Errorf("Next(1s) = %s, want within [%s, %s]", got, lo, hi)
	}
}
