package jobserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Server exposes a [Manager] over HTTP.
//
// Server provides the job-processing wire contract:
//   - POST /job: create a job, responding 201 with {"job_id","status"}
//   - GET /status/{id}: report status, responding 200 with {"result"},
//     400 for a malformed id, 404 for an unknown id
//
// The server is designed for graceful shutdown via context cancellation.
type Server struct {
	manager    *Manager
	port       int
	logger     *slog.Logger
	httpServer *http.Server
}

// NewServer creates a job [Server].
//
// The server is not started until [Server.Start] is called. For tests,
// [Server.Handler] can be mounted on an httptest server directly.
func NewServer(manager *Manager, port int, logger *slog.Logger) *Server {
	return &Server{
		manager: manager,
		port:    port,
		logger:  logger,
	}
}

// Handler returns the HTTP handler implementing the job server routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /job", s.handleCreateJob)
	mux.HandleFunc("GET /status/{id}", s.handleGetStatus)
	return mux
}

// Start begins serving HTTP requests in a background goroutine.
//
// Start is non-blocking and returns immediately after confirming the server
// is listening. The server runs until the context is cancelled, at which
// point it initiates a graceful shutdown with a 5-second timeout.
//
// Returns an error if the server fails to bind to the configured port.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind to port %d: %w", s.port, err)
	}

	s.httpServer = &http.Server{
		Handler: s.Handler(),
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("job server error", "error", err)
		}
	}()

	// shutdown on context cancellation
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("job server shutdown error", "error", err)
		}
	}()

	return nil
}

// handleCreateJob registers a new job and returns its id.
func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	job := s.manager.Create()
	s.logger.Debug("job created", "job_id", job.ID.String(), "process_time", job.ProcessTime.String())

	s.writeJSON(w, http.StatusCreated, map[string]string{
		"job_id": job.ID.String(),
		"status": string(job.Status),
	})
}

// handleGetStatus reports the current status of a job.
func (s *Server) handleGetStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid job id"})
		return
	}

	status, ok := s.manager.Status(id)
	if !ok {
		s.writeJSON(w, http.StatusNotFound, map[string]string{"error": "job not found"})
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{"result": string(status)})
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("failed to write response", "error", err)
	}
}
