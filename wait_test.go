package jobpulse

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/jpalmerr/jobpulse/internal/jobserver"
)

// fastPolling is a millisecond-scale policy so the wait loop tests finish
// quickly while still exercising escalation and jitter.
func fastPolling(timeout time.Duration) PollingConfig {
	return PollingConfig{
		InitialInterval: 10 * time.Millisecond,
		MaxInterval:     40 * time.Millisecond,
		Multiplier:      2.0,
		JitterFactor:    0.1,
		Timeout:         timeout,
	}
}

// newE2E stands up a simulated job server and a client pointed at it.
func newE2E(t *testing.T, processTime time.Duration, opts ...Option) (*jobserver.Manager, *Client) {
	t.Helper()

	manager := jobserver.NewManager(processTime)
	srv := jobserver.NewServer(manager, 0, discardLogger())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	all := append([]Option{WithPollingConfig(fastPolling(2 * time.Second))}, opts...)
	return manager, newTestClient(t, ts.URL, all...)
}

// TestWaitForCompletion_Completed runs the full lifecycle against the
// simulated job server: create, poll through pending, observe completion.
func TestWaitForCompletion_Completed(t *testing.T) {
	_, client := newE2E(t, 40*time.Millisecond)

	id, err := client.CreateJob(context.Background())
	if err != nil {
		t.Fatalf("CreateJob failed: %v", err)
	}

	status, err := client.WaitForCompletion(context.Background(), id)
	if err != nil {
		t.Fatalf("WaitForCompletion failed: %v", err)
	}
	if status != JobStatusCompleted {
		t.Errorf("status = %q, want completed", status)
	}

	completed := eventsOfType(client, EventJobCompleted)
	if len(completed) != 1 {
		t.Errorf("JobCompleted events = %d, want 1", len(completed))
	}

	changes := eventsOfType(client, EventStatusChanged)
	if len(changes) == 0 {
		t.Fatal("no StatusChanged events emitted")
	}
	lastChange := changes[len(changes)-1]
	if lastChange.CurrentStatus != JobStatusCompleted {
		t.Errorf("final transition = %q -> %q, want -> completed",
			lastChange.PreviousStatus, lastChange.CurrentStatus)
	}
}

// TestWaitForCompletion_Timeout verifies the overall deadline produces
// exactly one Timeout event and a TimeoutError, with no completion event.
func TestWaitForCompletion_Timeout(t *testing.T) {
	_, client := newE2E(t, time.Minute, WithPollingConfig(fastPolling(80*time.Millisecond)))

	id, err := client.CreateJob(context.Background())
	if err != nil {
		t.Fatalf("CreateJob failed: %v", err)
	}

	_, err = client.WaitForCompletion(context.Background(), id)
	var timeoutErr *TimeoutError
	if !errors.As(err, &timeoutErr) {
		t.Fatalf("error = %T (%v), want *TimeoutError", err, err)
	}
	if timeoutErr.Elapsed < 80*time.Millisecond {
		t.Errorf("reported elapsed = %s, want >= 80ms", timeoutErr.Elapsed)
	}

	if n := len(eventsOfType(client, EventTimeout)); n != 1 {
		t.Errorf("Timeout events = %d, want 1", n)
	}
	if n := len(eventsOfType(client, EventJobCompleted)); n != 0 {
		t.Errorf("JobCompleted events = %d, want 0", n)
	}
}

// TestWaitForCompletion_JobFailed verifies a job that ends in the error
// status produces a JobFailed event and a JobFailedError.
func TestWaitForCompletion_JobFailed(t *testing.T) {
	manager, client := newE2E(t, time.Minute)

	id, err := client.CreateJob(context.Background())
	if err != nil {
		t.Fatalf("CreateJob failed: %v", err)
	}
	if !failJob(t, manager, id) {
		t.Fatalf("could not force job %s into the error status", id)
	}

	status, err := client.WaitForCompletion(context.Background(), id)
	var failedErr *JobFailedError
	if !errors.As(err, &failedErr) {
		t.Fatalf("error = %T (%v), want *JobFailedError", err, err)
	}
	if status != JobStatusError {
		t.Errorf("status = %q, want error", status)
	}
	if n := len(eventsOfType(client, EventJobFailed)); n != 1 {
		t.Errorf("JobFailed events = %d, want 1", n)
	}
}

// TestWaitForCompletion_RetryExhausted verifies the retry budget: retryable
// failures emit RetryAttempted with increasing counts until the budget is
// spent, then a RetryExhaustedError wrapping the last failure is returned.
func TestWaitForCompletion_RetryExhausted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL,
		WithPollingConfig(fastPolling(2*time.Second)),
		WithMaxRetries(2),
		WithBreaker(10, time.Minute), // keep the breaker out of this test
	)

	_, err := client.WaitForCompletion(context.Background(), "id")
	var exhausted *RetryExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("error = %T (%v), want *RetryExhaustedError", err, err)
	}
	if exhausted.Retries != 2 {
		t.Errorf("reported retries = %d, want 2", exhausted.Retries)
	}
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("exhausted error does not wrap the underlying HTTPError: %v", err)
	}

	retriesSeen := eventsOfType(client, EventRetryAttempted)
	if len(retriesSeen) != 2 {
		t.Fatalf("RetryAttempted events = %d, want 2", len(retriesSeen))
	}
	for i, e := range retriesSeen {
		if e.RetryCount != i+1 {
			t.Errorf("retry event %d has count %d, want %d", i, e.RetryCount, i+1)
		}
		data, ok := e.Data.(RetryData)
		if !ok || data.NextInterval <= 0 {
			t.Errorf("retry event %d carries no next interval: %+v", i, e.Data)
		}
	}
}

// TestWaitForCompletion_FatalError verifies a non-retryable failure is
// propagated immediately without consuming the retry budget.
func TestWaitForCompletion_FatalError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such job", http.StatusNotFound)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, WithPollingConfig(fastPolling(2*time.Second)))

	start := time.Now()
	_, err := client.WaitForCompletion(context.Background(), "unknown")
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusNotFound {
		t.Fatalf("error = %T (%v), want *HTTPError with 404", err, err)
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("fatal failure took %s, expected an immediate return", elapsed)
	}
	if n := len(eventsOfType(client, EventRetryAttempted)); n != 0 {
		t.Errorf("RetryAttempted events = %d, want 0 for a fatal failure", n)
	}
}

// TestWaitForCompletion_ContextCancel verifies cancellation stops the loop
// at the next sleep.
func TestWaitForCompletion_ContextCancel(t *testing.T) {
	_, client := newE2E(t, time.Minute)

	id, err := client.CreateJob(context.Background())
	if err != nil {
		t.Fatalf("CreateJob failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	_, err = client.WaitForCompletion(ctx, id)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

// TestWaitForBatchCompletion verifies a batch resolves to per-id terminal
// statuses, mixing completions and a forced failure.
func TestWaitForBatchCompletion(t *testing.T) {
	manager, client := newE2E(t, 40*time.Millisecond)

	ids := client.CreateBatchJobs(context.Background(), 3)
	if len(ids) != 3 {
		t.Fatalf("created ids = %d, want 3", len(ids))
	}
	if !failJob(t, manager, ids[1]) {
		t.Fatalf("could not force job %s into the error status", ids[1])
	}

	statuses, err := client.WaitForBatchCompletion(context.Background(), ids)
	if err != nil {
		t.Fatalf("WaitForBatchCompletion failed: %v", err)
	}
	if len(statuses) != 3 {
		t.Fatalf("resolved statuses = %d, want 3", len(statuses))
	}
	if statuses[ids[0]] != JobStatusCompleted || statuses[ids[2]] != JobStatusCompleted {
		t.Errorf("statuses = %v, want ids[0] and ids[2] completed", statuses)
	}
	if statuses[ids[1]] != JobStatusError {
		t.Errorf("statuses[%s] = %q, want error", ids[1], statuses[ids[1]])
	}
}

// TestWaitForBatchCompletion_Timeout verifies the deadline path emits one
// Timeout event carrying the outstanding ids.
func TestWaitForBatchCompletion_Timeout(t *testing.T) {
	_, client := newE2E(t, time.Minute, WithPollingConfig(fastPolling(60*time.Millisecond)))

	ids := client.CreateBatchJobs(context.Background(), 2)
	if len(ids) != 2 {
		t.Fatalf("created ids = %d, want 2", len(ids))
	}

	_, err := client.WaitForBatchCompletion(context.Background(), ids)
	var timeoutErr *TimeoutError
	if !errors.As(err, &timeoutErr) {
		t.Fatalf("error = %T (%v), want *TimeoutError", err, err)
	}
	if len(timeoutErr.JobIDs) != 2 {
		t.Errorf("outstanding ids = %v, want both", timeoutErr.JobIDs)
	}

	timeouts := eventsOfType(client, EventTimeout)
	if len(timeouts) != 1 {
		t.Fatalf("Timeout events = %d, want 1", len(timeouts))
	}
	data, ok := timeouts[0].Data.(TimeoutData)
	if !ok {
		t.Fatalf("event data = %T, want TimeoutData", timeouts[0].Data)
	}
	if data.Remaining != 2 || data.Completed != 0 {
		t.Errorf("timeout data = %+v, want 2 remaining, 0 completed", data)
	}
}

// TestWaitForBatchCompletion_EmptyInput verifies an empty id list resolves
// immediately.
func TestWaitForBatchCompletion_EmptyInput(t *testing.T) {
	_, client := newE2E(t, time.Minute)

	statuses, err := client.WaitForBatchCompletion(context.Background(), nil)
	if err != nil {
		t.Fatalf("WaitForBatchCompletion failed: %v", err)
	}
	if len(statuses) != 0 {
		t.Errorf("statuses = %v, want empty", statuses)
	}
}

// failJob forces the job with the given client-visible id into the error
// status on the manager.
func failJob(t *testing.T, manager *jobserver.Manager, id string) bool {
	t.Helper()

	parsed, err := uuid.Parse(id)
	if err != nil {
		t.Fatalf("job id %q is not a UUID: %v", id, err)
	}
	return manager.Fail(parsed)
}
