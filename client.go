package jobpulse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/jpalmerr/jobpulse/internal/backoff"
	"github.com/jpalmerr/jobpulse/internal/breaker"
	"github.com/jpalmerr/jobpulse/internal/transport"
)

const (
	defaultMaxRetries     = 3
	defaultRequestTimeout = 10 * time.Second
)

// Client is a resilient polling client for asynchronous server-side jobs.
//
// Client creates jobs, polls their status with jittered exponential backoff,
// gates every call behind a circuit breaker, and publishes a structured
// event stream describing everything that happens. It is created with [New]
// and configured via functional options.
//
// A Client owns its circuit breaker state and event history; nothing is
// shared between instances, so multiple clients may run concurrently without
// coordination. Within one instance, the wait loops are designed to be
// driven by a single goroutine at a time.
//
// The typical lifecycle is:
//
//	client, err := jobpulse.New("http://localhost:5000")
//	if err != nil {
//	    slog.Error("failed to create client", "error", err)
//	    os.Exit(1)
//	}
//	defer client.Close()
//
//	id, err := client.CreateJob(ctx)
//	if err != nil {
//	    return err
//	}
//	status, err := client.WaitForCompletion(ctx, id)
type Client struct {
	baseURL    string
	polling    PollingConfig
	maxRetries int
	transport  *transport.Client
	breaker    *breaker.Breaker
	backoff    *backoff.Calculator
	bus        *eventBus
	logger     *slog.Logger
}

// New creates a [Client] for the job server at baseURL.
//
// The base URL must be a valid URL with a scheme (http:// or https://).
// Options have sensible defaults: the polling policy from
// [DefaultPollingConfig], a breaker opening after 5 consecutive failures
// with a 60 second reset timeout, a retry budget of 3, and a 10 second
// per-request timeout.
//
// Example:
//
//	client, err := jobpulse.New("http://localhost:5000",
//	    jobpulse.WithBreaker(3, 30*time.Second),
//	    jobpulse.WithLogger(logger),
//	)
func New(baseURL string, opts ...Option) (*Client, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.New("invalid base URL: " + err.Error())
	}
	if parsed.Scheme == "" {
		return nil, errors.New("base URL must have a scheme (http:// or https://)")
	}

	cfg := &clientConfig{
		polling:          DefaultPollingConfig(),
		failureThreshold: breaker.DefaultFailureThreshold,
		resetTimeout:     breaker.DefaultResetTimeout,
		maxRetries:       defaultMaxRetries,
		requestTimeout:   defaultRequestTimeout,
	}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:    baseURL,
		polling:    cfg.polling,
		maxRetries: cfg.maxRetries,
		transport:  transport.NewClient(baseURL, cfg.requestTimeout),
		breaker:    breaker.New(cfg.failureThreshold, cfg.resetTimeout),
		backoff:    backoff.New(cfg.polling.Multiplier, cfg.polling.MaxInterval, cfg.polling.JitterFactor, cfg.rng),
		bus:        newEventBus(logger),
		logger:     logger,
	}, nil
}

// On subscribes a handler to an event type and returns the client for
// chaining:
//
//	client.On(jobpulse.EventStatusChanged, logTransition).
//	    On(jobpulse.EventTimeout, alertOnTimeout)
//
// Handlers run synchronously in registration order; see [Handler] for the
// panic-safety contract. Nil handlers are silently ignored.
func (c *Client) On(t EventType, h Handler) *Client {
	c.bus.subscribe(t, h)
	return c
}

// Off unsubscribes a handler previously registered with [Client.On] and
// returns the client for chaining. The same function value must be passed;
// unknown handlers are a no-op.
func (c *Client) Off(t EventType, h Handler) *Client {
	c.bus.unsubscribe(t, h)
	return c
}

// Events returns a copy of the full event history in dispatch order.
// The history is a complete audit trail: every failure path emits at least
// one event before the error is observed by the caller.
func (c *Client) Events() []Event {
	return c.bus.events()
}

// BreakerOpen reports whether the circuit breaker is currently open.
func (c *Client) BreakerOpen() bool {
	return c.breaker.IsOpen()
}

// PollingConfig returns the polling policy the client was built with.
func (c *Client) PollingConfig() PollingConfig {
	return c.polling
}

// Close releases idle connections held by the underlying HTTP transport.
// The client remains usable afterwards.
func (c *Client) Close() {
	c.transport.Close()
}

// allowExecution consults the circuit breaker before a call.
//
// A rejection emits CircuitBreakerOpened. If the breaker was open and the
// reset timeout has elapsed, the check itself closes the breaker
// (optimistically, before the trial call runs) and emits
// CircuitBreakerClosed.
func (c *Client) allowExecution(jobID string) bool {
	wasOpen := c.breaker.IsOpen()
	if !c.breaker.CanExecute() {
		c.bus.dispatch(Event{
			Type:      EventCircuitBreakerOpened,
			JobID:     jobID,
			Timestamp: time.Now(),
			Err:       ErrCircuitOpen,
			Data:      BreakerData{Message: "circuit breaker is open"},
		})
		return false
	}
	if wasOpen {
		c.bus.dispatch(Event{
			Type:      EventCircuitBreakerClosed,
			JobID:     jobID,
			Timestamp: time.Now(),
			Data:      BreakerData{Message: "reset timeout elapsed, permitting trial call"},
		})
	}
	return true
}

// CreateJob creates a new job on the server and returns its id.
//
// The call is gated by the circuit breaker; a rejection returns
// [ErrCircuitOpen]. On success the breaker records a success and a
// JobCreated event is emitted with the raw response payload. On any failure
// the breaker records a failure, an ErrorOccurred event is emitted, and the
// original error is returned unmodified.
func (c *Client) CreateJob(ctx context.Context) (string, error) {
	if !c.allowExecution("") {
		return "", ErrCircuitOpen
	}

	resp := c.transport.CreateJob(ctx)
	if resp.Error != nil {
		err := &TransportError{Op: "create job", Timeout: isTimeout(resp.Error), Err: resp.Error}
		c.breaker.RecordFailure()
		c.dispatchError("", err, ErrorData{Action: "create_job"})
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := &HTTPError{Op: "create job", StatusCode: resp.StatusCode, Body: string(resp.Body)}
		c.breaker.RecordFailure()
		c.dispatchError("", err, ErrorData{Action: "create_job", StatusCode: resp.StatusCode, Body: string(resp.Body)})
		return "", err
	}

	var payload struct {
		JobID string `json:"job_id"`
	}
	if err := json.Unmarshal(resp.Body, &payload); err != nil {
		wrapped := fmt.Errorf("create job: malformed response: %w", err)
		c.breaker.RecordFailure()
		c.dispatchError("", wrapped, ErrorData{Action: "create_job"})
		return "", wrapped
	}
	if payload.JobID == "" {
		err := errors.New("create job: response missing job_id")
		c.breaker.RecordFailure()
		c.dispatchError("", err, ErrorData{Action: "create_job"})
		return "", err
	}

	c.breaker.RecordSuccess()
	c.bus.dispatch(Event{
		Type:      EventJobCreated,
		JobID:     payload.JobID,
		Timestamp: time.Now(),
		Data:      JobCreatedData{Response: resp.Body},
	})
	return payload.JobID, nil
}

// GetStatus fetches the current status of a job.
//
// The call is gated by the circuit breaker; a rejection returns
// [ErrCircuitOpen]. HTTP-level error responses emit an ErrorOccurred event
// carrying the status code and body before the breaker failure is recorded,
// then return an [*HTTPError]. Transport-level failures emit ErrorOccurred,
// record the breaker failure, and return a [*TransportError]. The raw error
// is always surfaced; retry classification happens only in the wait loops.
func (c *Client) GetStatus(ctx context.Context, jobID string) (JobStatus, error) {
	if !c.allowExecution(jobID) {
		return "", ErrCircuitOpen
	}

	resp := c.transport.GetStatus(ctx, jobID)
	if resp.Error != nil {
		err := &TransportError{Op: "get status", Timeout: isTimeout(resp.Error), Err: resp.Error}
		c.dispatchError(jobID, err, ErrorData{Action: "get_status"})
		c.breaker.RecordFailure()
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := &HTTPError{Op: "get status", StatusCode: resp.StatusCode, Body: string(resp.Body)}
		c.dispatchError(jobID, err, ErrorData{Action: "get_status", StatusCode: resp.StatusCode, Body: string(resp.Body)})
		c.breaker.RecordFailure()
		return "", err
	}

	// the transport round-trip succeeded; payload problems do not count
	// against the breaker
	c.breaker.RecordSuccess()

	var payload struct {
		Result string `json:"result"`
	}
	if err := json.Unmarshal(resp.Body, &payload); err != nil {
		wrapped := fmt.Errorf("get status: malformed response: %w", err)
		c.dispatchError(jobID, wrapped, ErrorData{Action: "get_status"})
		return "", wrapped
	}
	status, err := ParseJobStatus(payload.Result)
	if err != nil {
		wrapped := fmt.Errorf("get status: %w", err)
		c.dispatchError(jobID, wrapped, ErrorData{Action: "get_status"})
		return "", wrapped
	}
	return status, nil
}

// CreateBatchJobs creates up to count jobs, collecting successes and
// failures independently: one failed create does not abort the batch.
//
// A single BatchOperation event summarizing success and error counts is
// always emitted. Returns the ids that were successfully created, which may
// be fewer than count. Per-item errors are reported only through the event;
// the call itself never fails.
func (c *Client) CreateBatchJobs(ctx context.Context, count int) []string {
	jobIDs := make([]string, 0, count)
	var errs []string

	for i := 0; i < count; i++ {
		id, err := c.CreateJob(ctx)
		if err != nil {
			errs = append(errs, err.Error())
			continue
		}
		jobIDs = append(jobIDs, id)
	}

	c.bus.dispatch(Event{
		Type:      EventBatchOperation,
		JobIDs:    append([]string(nil), jobIDs...),
		Timestamp: time.Now(),
		Data: BatchData{
			Operation:    "create",
			SuccessCount: len(jobIDs),
			ErrorCount:   len(errs),
			Errors:       errs,
		},
	})

	return jobIDs
}

// GetBatchStatus fetches the status of each job independently.
//
// A failure for one id records [JobStatusError] as that id's status and an
// error entry, without aborting the others. A single BatchOperation event
// with the full status map and error list is always emitted.
func (c *Client) GetBatchStatus(ctx context.Context, jobIDs []string) map[string]JobStatus {
	statuses := make(map[string]JobStatus, len(jobIDs))
	var errs []string

	for _, id := range jobIDs {
		status, err := c.GetStatus(ctx, id)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", id, err))
			statuses[id] = JobStatusError
			continue
		}
		statuses[id] = status
	}

	eventStatuses := make(map[string]JobStatus, len(statuses))
	for id, status := range statuses {
		eventStatuses[id] = status
	}
	c.bus.dispatch(Event{
		Type:      EventBatchOperation,
		JobIDs:    append([]string(nil), jobIDs...),
		Timestamp: time.Now(),
		Data: BatchData{
			Operation:    "status_check",
			SuccessCount: len(jobIDs) - len(errs),
			ErrorCount:   len(errs),
			Errors:       errs,
			Statuses:     eventStatuses,
		},
	})

	return statuses
}

// dispatchError emits an ErrorOccurred event for a failed operation.
func (c *Client) dispatchError(jobID string, err error, data ErrorData) {
	c.bus.dispatch(Event{
		Type:      EventErrorOccurred,
		JobID:     jobID,
		Timestamp: time.Now(),
		Err:       err,
		Data:      data,
	})
}
