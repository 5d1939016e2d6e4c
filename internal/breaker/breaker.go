// Package breaker implements the circuit breaker guarding calls to the job
// server.
//
// The breaker has two states. Closed: consecutive failures are below the
// threshold and calls are permitted. Open: the threshold was reached and
// calls are rejected until the reset timeout elapses, after which the next
// [Breaker.CanExecute] optimistically closes the breaker and permits a trial
// call. There is no explicit half-open state; the trial call itself is the
// probe, and a probe failure reopens the breaker immediately.
package breaker

import (
	"sync"
	"time"
)

// Defaults used when New is given non-positive values.
const (
	DefaultFailureThreshold = 5
	DefaultResetTimeout     = 60 * time.Second
)

// Breaker tracks consecutive failures and gates whether an operation may be
// attempted.
//
// A Breaker is owned by a single client instance and is not shared across
// instances. All methods are safe for concurrent use.
type Breaker struct {
	failureThreshold int
	resetTimeout     time.Duration
	now              func() time.Time

	mu          sync.Mutex
	failures    int
	lastFailure time.Time
	open        bool
	probing     bool
}

// New creates a [Breaker].
//
// A non-positive failureThreshold or resetTimeout falls back to the
// package defaults (5 failures, 60 seconds).
func New(failureThreshold int, resetTimeout time.Duration) *Breaker {
	if failureThreshold <= 0 {
		failureThreshold = DefaultFailureThreshold
	}
	if resetTimeout <= 0 {
		resetTimeout = DefaultResetTimeout
	}
	return &Breaker{
		failureThreshold: failureThreshold,
		resetTimeout:     resetTimeout,
		now:              time.Now,
	}
}

// CanExecute reports whether an operation may be attempted.
//
// When the breaker is closed this always returns true. When open, it returns
// true only if the reset timeout has elapsed since the last failure; in that
// case the call itself transitions the breaker back to closed (failures reset
// to zero) before the outcome of the trial call is known. The transition is
// triggered purely by time passing, which keeps the state machine testable
// without network calls. A failure recorded for the trial call reopens the
// breaker immediately, regardless of the failure count.
func (b *Breaker) CanExecute() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.open {
		return true
	}
	if b.now().Sub(b.lastFailure) >= b.resetTimeout {
		b.open = false
		b.failures = 0
		b.probing = true
		return true
	}
	return false
}

// RecordFailure registers a failed operation. The breaker opens when the
// consecutive failure count reaches the threshold, or immediately if the
// failure belongs to a post-reset trial call.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	b.lastFailure = b.now()
	if b.probing || b.failures >= b.failureThreshold {
		b.open = true
	}
	b.probing = false
}

// RecordSuccess registers a successful operation, resetting the failure
// count and closing the breaker.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures = 0
	b.open = false
	b.probing = false
}

// IsOpen reports whether the breaker is currently open. Note that an open
// breaker may still permit a call via [Breaker.CanExecute] once the reset
// timeout has elapsed.
func (b *Breaker) IsOpen() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.open
}

// Failures returns the current consecutive failure count.
func (b *Breaker) Failures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures
}
