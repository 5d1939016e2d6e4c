package jobserver

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func newTestServer(processTime time.Duration) (*Manager, *httptest.Server) {
	manager := NewManager(processTime)
	srv := NewServer(manager, 0, slog.New(slog.NewTextHandler(&strings.Builder{}, nil)))
	return manager, httptest.NewServer(srv.Handler())
}

// TestServer_CreateJob verifies POST /job responds 201 with a parseable
// job id and the pending status.
func TestServer_CreateJob(t *testing.T) {
	_, ts := newTestServer(time.Minute)
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/job", "application/json", nil)
	if err != nil {
		t.Fatalf("POST /job failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusCreated {
		t.Errorf("status = %d, want 201", resp.StatusCode)
	}

	var payload map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if _, err := uuid.Parse(payload["job_id"]); err != nil {
		t.Errorf("job_id %q is not a UUID: %v", payload["job_id"], err)
	}
	if payload["status"] != "pending" {
		t.Errorf("status = %q, want %q", payload["status"], "pending")
	}
}

// TestServer_GetStatusLifecycle verifies a job reports pending before its
// process time and completed afterwards, and that terminal statuses are
// stable across repeated queries.
func TestServer_GetStatusLifecycle(t *testing.T) {
	manager, ts := newTestServer(50 * time.Millisecond)
	defer ts.Close()

	job := manager.Create()

	if status := getStatus(t, ts.URL, job.ID.String()); status != "pending" {
		t.Errorf("initial status = %q, want pending", status)
	}

	time.Sleep(80 * time.Millisecond)

	if status := getStatus(t, ts.URL, job.ID.String()); status != "completed" {
		t.Errorf("status after process time = %q, want completed", status)
	}
	// terminal status must not change on repeated queries
	if status := getStatus(t, ts.URL, job.ID.String()); status != "completed" {
		t.Errorf("repeated status = %q, want completed", status)
	}
}

// TestServer_GetStatusMalformedID verifies a non-UUID id yields 400.
func TestServer_GetStatusMalformedID(t *testing.T) {
	_, ts := newTestServer(time.Minute)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/status/not-a-uuid")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

// TestServer_GetStatusUnknownID verifies a well-formed but unknown id
// yields 404.
func TestServer_GetStatusUnknownID(t *testing.T) {
	_, ts := newTestServer(time.Minute)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/status/" + uuid.NewString())
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

// TestManager_Fail verifies the error override sticks even after the
// process time elapses.
func TestManager_Fail(t *testing.T) {
	manager := NewManager(10 * time.Millisecond)
	job := manager.Create()

	if !manager.Fail(job.ID) {
		t.Fatal("Fail returned false for a known job")
	}
	time.Sleep(20 * time.Millisecond)

	status, ok := manager.Status(job.ID)
	if !ok {
		t.Fatal("Status returned not-found for a known job")
	}
	if status != StatusError {
		t.Errorf("status = %q, want error", status)
	}

	if manager.Fail(uuid.New()) {
		t.Error("Fail returned true for an unknown job")
	}
}

// TestManager_DefaultProcessTime verifies a non-positive process time falls
// back to the default.
func TestManager_DefaultProcessTime(t *testing.T) {
	manager := NewManager(0)
	job := manager.Create()
	if job.ProcessTime != DefaultProcessTime {
		t.Errorf("process time = %s, want %s", job.ProcessTime, DefaultProcessTime)
	}
}

func getStatus(t *testing.T, baseURL, id string) string {
	t.Helper()

	resp, err := http.Get(baseURL + "/status/" + id)
	if err != nil {
		t.Fatalf("GET /status/%s failed: %v", id, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status code = %d, want 200", resp.StatusCode)
	}

	var payload map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	return payload["result"]
}
