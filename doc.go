// Package jobpulse provides a resilient client for polling the status of
// asynchronous, server-side jobs over HTTP.
//
// jobpulse is designed as an SDK-first library: a [Client] creates jobs,
// polls their status with jittered exponential backoff, gates every call
// behind a circuit breaker, enforces an overall deadline and a retry budget,
// and publishes a structured event stream describing everything that
// happens. Configuration is composable via the functional options pattern.
//
// # Quick Start
//
// Create a client, submit a job, and wait for it to resolve:
//
//	client, _ := jobpulse.New("http://localhost:5000")
//	defer client.Close()
//
//	id, err := client.CreateJob(ctx)
//	if err != nil {
//	    return err
//	}
//
//	status, err := client.WaitForCompletion(ctx, id)
//
// # Configuration
//
// jobpulse uses the functional options pattern for configuration:
//
//	client, err := jobpulse.New("http://localhost:5000",
//	    jobpulse.WithPollingConfig(jobpulse.PollingConfig{
//	        InitialInterval: 500 * time.Millisecond,
//	        MaxInterval:     5 * time.Second,
//	        Multiplier:      2.0,
//	        JitterFactor:    0.1,
//	        Timeout:         5 * time.Minute,
//	    }),
//	    jobpulse.WithBreaker(5, 60*time.Second),
//	    jobpulse.WithMaxRetries(3),
//	)
//
// # Events
//
// Every notable occurrence - job creation, status transitions, retries,
// failures, breaker transitions, timeouts, batch summaries - is recorded in
// an ordered history and fanned out to subscribed handlers:
//
//	client.On(jobpulse.EventStatusChanged, func(e jobpulse.Event) {
//	    log.Printf("%s: %s -> %s", e.JobID, e.PreviousStatus, e.CurrentStatus)
//	})
//
// Handlers run synchronously and are panic-isolated; a misbehaving handler
// cannot corrupt the polling loop. The full history is available via
// [Client.Events] as a complete audit trail.
//
// # Failure Handling
//
// Transport failures (connection errors, timeouts) and HTTP 5xx responses
// are retryable inside the wait loops, up to a fixed retry budget. HTTP 4xx
// responses, malformed payloads, and circuit breaker rejections are fatal.
// One-shot operations ([Client.CreateJob], [Client.GetStatus]) always
// surface the raw failure after recording it; batch operations collect
// per-item failures without aborting the batch.
//
// # Architecture
//
// jobpulse consists of several internal packages (under internal/):
//
//   - internal/backoff: Pure jittered exponential interval calculator
//   - internal/breaker: Circuit breaker state machine
//   - internal/transport: HTTP primitive bound to the job server wire contract
//   - internal/jobserver: Simulated job-processing server for the CLI and tests
//
// The internal packages are not part of the public API and may change
// without notice.
package jobpulse
