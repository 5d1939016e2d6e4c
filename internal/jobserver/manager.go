// Package jobserver implements a simulated job-processing server.
//
// The server exposes the two operations the polling client depends on:
// POST /job creates a job, GET /status/{id} reports its status. Jobs flip
// from pending to completed once a configurable process time has elapsed,
// which makes the server a realistic target for exercising backoff, timeout,
// and batch behaviour in the CLI and in tests.
package jobserver

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a simulated job.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusError     Status = "error"
)

// DefaultProcessTime is how long a job stays pending when the manager is
// created with a non-positive process time.
const DefaultProcessTime = 10 * time.Second

// Job is a single simulated unit of work.
type Job struct {
	ID          uuid.UUID
	Status      Status
	StartedAt   time.Time
	ProcessTime time.Duration
}

// Manager owns the in-memory job table and advances job status based on
// elapsed time. All methods are safe for concurrent use.
type Manager struct {
	processTime time.Duration
	now         func() time.Time

	mu   sync.Mutex
	jobs map[uuid.UUID]*Job
}

// NewManager creates a [Manager] whose jobs complete after processTime.
// A non-positive processTime falls back to [DefaultProcessTime].
func NewManager(processTime time.Duration) *Manager {
	if processTime <= 0 {
		processTime = DefaultProcessTime
	}
	return &Manager{
		processTime: processTime,
		now:         time.Now,
		jobs:        make(map[uuid.UUID]*Job),
	}
}

// Create registers a new pending job and returns a copy of it.
func (m *Manager) Create() Job {
	m.mu.Lock()
	defer m.mu.Unlock()

	job := &Job{
		ID:          uuid.New(),
		Status:      StatusPending,
		StartedAt:   m.now(),
		ProcessTime: m.processTime,
	}
	m.jobs[job.ID] = job
	return *job
}

// Status returns the current status of a job, advancing it to completed if
// its process time has elapsed. The second return value is false for
// unknown ids.
func (m *Manager) Status(id uuid.UUID) (Status, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[id]
	if !ok {
		return "", false
	}
	if job.Status == StatusPending && m.now().Sub(job.StartedAt) >= job.ProcessTime {
		job.Status = StatusCompleted
	}
	return job.Status, true
}

// Fail forces a job into the error status, overriding the elapsed-time
// transition. Returns false for unknown ids. Used to simulate server-side
// job failures.
func (m *Manager) Fail(id uuid.UUID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[id]
	if !ok {
		return false
	}
	job.Status = StatusError
	return true
}

// Len returns the number of jobs the manager is tracking.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.jobs)
}
