package jobpulse

import "fmt"

// JobStatus represents the server-side state of an asynchronous job.
//
// JobStatus is a string type that can hold one of three predefined values:
// [JobStatusPending], [JobStatusCompleted], or [JobStatusError]. The status
// is set by the job server; the client only observes it. Using a string type
// allows for easy JSON serialization and human-readable logging while
// maintaining type safety through the defined constants.
type JobStatus string

const (
	// JobStatusPending indicates the job has been accepted but is still
	// being processed by the server.
	JobStatusPending JobStatus = "pending"

	// JobStatusCompleted indicates the job finished successfully.
	JobStatusCompleted JobStatus = "completed"

	// JobStatusError indicates the job failed on the server side.
	JobStatusError JobStatus = "error"
)

// String returns the string representation of the status.
// This implements the fmt.Stringer interface.
func (s JobStatus) String() string {
	return string(s)
}

// Terminal reports whether the status is a terminal state. A job that has
// reached a terminal status never transitions again; repeated status queries
// return the same value.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusError
}

// ParseJobStatus converts a raw server status string into a [JobStatus].
//
// Returns an error for any value outside the three known states, which the
// client treats as a malformed payload (a fatal, non-retryable failure).
func ParseJobStatus(raw string) (JobStatus, error) {
	switch JobStatus(raw) {
	case JobStatusPending, JobStatusCompleted, JobStatusError:
		return JobStatus(raw), nil
	}
	return "", fmt.Errorf("unknown job status %q", raw)
}
