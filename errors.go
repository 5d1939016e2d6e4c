package jobpulse

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"
)

// ErrCircuitOpen is returned by one-shot operations when the circuit breaker
// rejects the call before any request is made. It is fatal to the immediate
// caller; the wait loops do not retry it.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// TransportError reports a connection-level failure: the request never
// produced an HTTP response. Transport errors are always classified as
// retryable by the wait loops.
type TransportError struct {
	// Op names the operation that failed (e.g. "create job").
	Op string

	// Timeout reports whether the failure was a timeout rather than a
	// connection failure.
	Timeout bool

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	kind := "connection failure"
	if e.Timeout {
		kind = "timeout"
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, kind, e.Err)
}

// Unwrap returns the underlying cause for use with errors.Is/As.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// HTTPError reports a non-2xx HTTP response. Server errors (5xx) are
// classified as retryable by the wait loops; client errors (4xx) and any
// other code are fatal.
type HTTPError struct {
	// Op names the operation that failed.
	Op string

	// StatusCode is the HTTP status code of the response.
	StatusCode int

	// Body is the response body, limited to 1MB by the transport.
	Body string
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s: server returned %d: %s", e.Op, e.StatusCode, strings.TrimSpace(e.Body))
}

// ServerError reports whether the response was a server-side (5xx) failure.
func (e *HTTPError) ServerError() bool {
	return e.StatusCode >= 500 && e.StatusCode < 600
}

// TimeoutError reports that a wait loop exceeded its overall deadline before
// every job resolved. It is terminal; no further polling occurs.
type TimeoutError struct {
	// JobIDs are the jobs still outstanding when the deadline fired.
	JobIDs []string

	// Elapsed is the wall-clock time spent before giving up.
	Elapsed time.Duration

	// Limit is the configured overall timeout.
	Limit time.Duration
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	if len(e.JobIDs) == 1 {
		return fmt.Sprintf("job %s did not complete within %s", e.JobIDs[0], e.Limit)
	}
	return fmt.Sprintf("%d jobs did not complete within %s", len(e.JobIDs), e.Limit)
}

// RetryExhaustedError reports that a wait loop used up its retry budget on
// retryable failures. It is terminal.
type RetryExhaustedError struct {
	// JobID is the job being waited on.
	JobID string

	// Retries is the retry budget that was exhausted.
	Retries int

	// Err is the last retryable failure observed.
	Err error
}

// Error implements the error interface.
func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("job %s: max retries (%d) exceeded: %v", e.JobID, e.Retries, e.Err)
}

// Unwrap returns the last retryable failure for use with errors.Is/As.
func (e *RetryExhaustedError) Unwrap() error {
	return e.Err
}

// JobFailedError reports that the server moved a job to the error status.
type JobFailedError struct {
	// JobID is the failed job.
	JobID string
}

// Error implements the error interface.
func (e *JobFailedError) Error() string {
	return fmt.Sprintf("job %s failed with error status", e.JobID)
}

// isRetryable classifies a failure as retryable or fatal.
//
// Retryable: connection failures and timeouts (any [TransportError]) and
// HTTP responses with a status in [500, 600). Everything else, including 4xx
// responses, malformed payloads, and breaker rejections, is fatal.
//
// Classification is consulted only by the wait loops; one-shot operations
// always surface the raw failure.
func isRetryable(err error) bool {
	var te *TransportError
	if errors.As(err, &te) {
		return true
	}
	var he *HTTPError
	if errors.As(err, &he) {
		return he.ServerError()
	}
	return false
}

// isTimeout reports whether a transport-level failure was a timeout.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
