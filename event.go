package jobpulse

import "time"

// EventType identifies the kind of lifecycle occurrence carried by an [Event].
//
// The set of event types is closed; every notable occurrence in the client
// maps to exactly one of the constants below.
type EventType string

const (
	// EventJobCreated fires when a job is successfully created on the server.
	EventJobCreated EventType = "job_created"

	// EventStatusChanged fires when a polled status differs from the last
	// observed status during a wait loop.
	EventStatusChanged EventType = "status_changed"

	// EventRetryAttempted fires when a wait loop retries after a retryable
	// failure, before the backoff sleep.
	EventRetryAttempted EventType = "retry_attempted"

	// EventErrorOccurred fires on any failure path that is not covered by a
	// more specific event type.
	EventErrorOccurred EventType = "error_occurred"

	// EventJobCompleted fires when a wait loop observes the completed status.
	EventJobCompleted EventType = "job_completed"

	// EventJobFailed fires when a wait loop observes the error status.
	EventJobFailed EventType = "job_failed"

	// EventTimeout fires when a wait loop exceeds its overall deadline.
	EventTimeout EventType = "timeout"

	// EventCircuitBreakerOpened fires when the circuit breaker rejects a call.
	EventCircuitBreakerOpened EventType = "circuit_breaker_opened"

	// EventCircuitBreakerClosed fires when the breaker optimistically closes
	// after its reset timeout has elapsed, permitting a trial call.
	EventCircuitBreakerClosed EventType = "circuit_breaker_closed"

	// EventBatchOperation fires once per batch create or batch status call,
	// summarizing per-item outcomes.
	EventBatchOperation EventType = "batch_operation"
)

// String returns the string representation of the event type.
func (t EventType) String() string {
	return string(t)
}

// Event is an immutable record of a single lifecycle occurrence.
//
// Events are created once, appended to the client's in-memory history, and
// fanned out synchronously to subscribed handlers. Single-job events populate
// JobID; batch events populate JobIDs. The Data field carries a payload
// struct specific to the event type, so handlers can type-switch on it for
// checked access to per-event fields:
//
//	client.On(jobpulse.EventBatchOperation, func(e jobpulse.Event) {
//	    if d, ok := e.Data.(jobpulse.BatchData); ok && d.ErrorCount > 0 {
//	        log.Printf("batch %s had %d failures", d.Operation, d.ErrorCount)
//	    }
//	})
type Event struct {
	// Type identifies the kind of occurrence.
	Type EventType

	// JobID is the subject job for single-job events.
	// Empty for batch events and for failures before a job id exists.
	JobID string

	// JobIDs is the ordered subject set for batch events. Nil otherwise.
	JobIDs []string

	// Timestamp is when the event was created.
	Timestamp time.Time

	// PreviousStatus is the last observed status before a transition.
	// Only set for EventStatusChanged; empty on the first observation.
	PreviousStatus JobStatus

	// CurrentStatus is the newly observed status.
	// Set for EventStatusChanged, EventJobCompleted, and EventJobFailed.
	CurrentStatus JobStatus

	// Err is the failure that triggered the event, if any.
	Err error

	// RetryCount is the running retry counter for EventRetryAttempted.
	RetryCount int

	// Data is the event-type-specific payload: one of [JobCreatedData],
	// [StatusChangedData], [RetryData], [ErrorData], [TimeoutData],
	// [BatchData], or [BreakerData].
	Data any
}

// Handler is a function invoked for each dispatched [Event] of a subscribed
// type.
//
// Handlers execute synchronously on the goroutine driving the client, in
// registration order. Panics within handlers are recovered and logged with a
// correlation ID; they never corrupt the polling loop. Long-running work
// should be dispatched to a separate goroutine.
type Handler func(Event)

// JobCreatedData is the payload for [EventJobCreated].
type JobCreatedData struct {
	// Response is the raw server response body from the create call.
	Response []byte
}

// StatusChangedData is the payload for [EventStatusChanged].
type StatusChangedData struct {
	// Attempt is the poll attempt ordinal at which the change was observed.
	Attempt int
}

// RetryData is the payload for [EventRetryAttempted].
type RetryData struct {
	// NextInterval is the backoff interval the loop will sleep before the
	// next attempt.
	NextInterval time.Duration
}

// ErrorData is the payload for [EventErrorOccurred].
type ErrorData struct {
	// Action names the operation that failed (e.g. "create_job").
	Action string

	// StatusCode is the HTTP status code for HTTP-level failures, zero
	// otherwise.
	StatusCode int

	// Body is the response body for HTTP-level failures, empty otherwise.
	Body string
}

// TimeoutData is the payload for [EventTimeout].
type TimeoutData struct {
	// Elapsed is the wall-clock time spent waiting before the deadline fired.
	Elapsed time.Duration

	// Completed is the number of jobs that resolved before the timeout.
	// Only set for batch waits.
	Completed int

	// Remaining is the number of jobs still outstanding at the timeout.
	// Only set for batch waits.
	Remaining int
}

// BatchData is the payload for [EventBatchOperation].
type BatchData struct {
	// Operation is "create" or "status_check".
	Operation string

	// SuccessCount is the number of items that succeeded.
	SuccessCount int

	// ErrorCount is the number of items that failed.
	ErrorCount int

	// Errors holds one message per failed item.
	Errors []string

	// Statuses maps job id to observed status for status_check operations.
	Statuses map[string]JobStatus
}

// BreakerData is the payload for [EventCircuitBreakerOpened] and
// [EventCircuitBreakerClosed].
type BreakerData struct {
	// Message describes the breaker transition.
	Message string
}
