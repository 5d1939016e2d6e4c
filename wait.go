package jobpulse

import (
	"context"
	"time"

	jitterbug "github.com/lthibault/jitterbug/v2"
)

// WaitForCompletion polls a job until it reaches a terminal status.
//
// Each iteration checks the overall deadline, polls the status, and either
// returns (completed, failed), retries (retryable failure within budget), or
// propagates (fatal failure). Between polls the loop sleeps for a jittered,
// exponentially escalating interval governed by the polling config.
//
// Terminal outcomes:
//   - completed: returns [JobStatusCompleted] and a nil error, after
//     emitting exactly one JobCompleted event
//   - failed: returns [JobStatusError] and a [*JobFailedError], after
//     emitting a JobFailed event
//   - deadline exceeded: returns a [*TimeoutError] after emitting a Timeout
//     event
//   - retry budget exhausted: returns a [*RetryExhaustedError] wrapping the
//     last retryable failure
//   - fatal failure: emits ErrorOccurred and returns the error unmodified
//
// Every status transition emits a StatusChanged event with the previous and
// current status. Retryable failures emit RetryAttempted with the retry
// count and the next sleep interval. The retry counter spans the whole call;
// it is not reset by an interim successful poll.
//
// Cancelling ctx stops the loop at the next sleep; a request already in
// flight is bounded only by the per-request timeout.
func (c *Client) WaitForCompletion(ctx context.Context, jobID string) (JobStatus, error) {
	start := time.Now()
	interval := c.polling.InitialInterval
	var last JobStatus
	retries := 0

	for {
		elapsed := time.Since(start)
		if elapsed > c.polling.Timeout {
			c.bus.dispatch(Event{
				Type:      EventTimeout,
				JobID:     jobID,
				Timestamp: time.Now(),
				Data:      TimeoutData{Elapsed: elapsed},
			})
			return "", &TimeoutError{JobIDs: []string{jobID}, Elapsed: elapsed, Limit: c.polling.Timeout}
		}

		status, err := c.GetStatus(ctx, jobID)
		if err != nil {
			if !isRetryable(err) {
				c.dispatchError(jobID, err, ErrorData{Action: "wait_for_completion"})
				return "", err
			}

			retries++
			if retries > c.maxRetries {
				return "", &RetryExhaustedError{JobID: jobID, Retries: c.maxRetries, Err: err}
			}
			interval = c.backoff.Next(interval)
			c.bus.dispatch(Event{
				Type:       EventRetryAttempted,
				JobID:      jobID,
				Timestamp:  time.Now(),
				Err:        err,
				RetryCount: retries,
				Data:       RetryData{NextInterval: interval},
			})
			if err := c.sleep(ctx, interval); err != nil {
				return "", err
			}
			continue
		}

		if status != last {
			c.bus.dispatch(Event{
				Type:           EventStatusChanged,
				JobID:          jobID,
				Timestamp:      time.Now(),
				PreviousStatus: last,
				CurrentStatus:  status,
				Data:           StatusChangedData{Attempt: retries + 1},
			})
			last = status
		}

		switch status {
		case JobStatusError:
			c.bus.dispatch(Event{
				Type:          EventJobFailed,
				JobID:         jobID,
				Timestamp:     time.Now(),
				CurrentStatus: status,
			})
			return status, &JobFailedError{JobID: jobID}
		case JobStatusCompleted:
			c.bus.dispatch(Event{
				Type:          EventJobCompleted,
				JobID:         jobID,
				Timestamp:     time.Now(),
				CurrentStatus: status,
			})
			return status, nil
		}

		interval = c.backoff.Next(interval)
		if err := c.sleep(ctx, interval); err != nil {
			return "", err
		}
	}
}

// WaitForBatchCompletion polls a set of jobs until every one reaches a
// terminal status, returning a map of job id to final status.
//
// Each round fetches the status of all still-outstanding ids via
// [Client.GetBatchStatus]; ids that resolve (completed or error, including
// per-item poll failures recorded as error) are moved to the result map.
// Unlike the single-job loop the batch loop does not escalate its backoff:
// it re-sleeps at a jittered interval derived from the initial interval each
// round, paced by a jittered ticker.
//
// If the overall deadline fires before all ids resolve, a Timeout event
// carrying the outstanding ids is emitted and a [*TimeoutError] is returned.
func (c *Client) WaitForBatchCompletion(ctx context.Context, jobIDs []string) (map[string]JobStatus, error) {
	start := time.Now()
	final := make(map[string]JobStatus, len(jobIDs))
	outstanding := append([]string(nil), jobIDs...)

	// fixed base interval; the calculator re-jitters it on every tick
	ticker := jitterbug.New(c.backoff.Base(c.polling.InitialInterval), c.backoff)
	defer ticker.Stop()

	for len(outstanding) > 0 {
		elapsed := time.Since(start)
		if elapsed > c.polling.Timeout {
			remaining := append([]string(nil), outstanding...)
			c.bus.dispatch(Event{
				Type:      EventTimeout,
				JobIDs:    remaining,
				Timestamp: time.Now(),
				Data: TimeoutData{
					Elapsed:   elapsed,
					Completed: len(final),
					Remaining: len(remaining),
				},
			})
			return nil, &TimeoutError{JobIDs: remaining, Elapsed: elapsed, Limit: c.polling.Timeout}
		}

		statuses := c.GetBatchStatus(ctx, outstanding)

		next := outstanding[:0]
		for _, id := range outstanding {
			status := statuses[id]
			if status.Terminal() {
				final[id] = status
				continue
			}
			next = append(next, id)
		}
		outstanding = next

		if len(outstanding) == 0 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}

	return final, nil
}

// sleep blocks for d or until ctx is cancelled.
func (c *Client) sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
