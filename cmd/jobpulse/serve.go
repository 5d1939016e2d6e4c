package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/jpalmerr/jobpulse/internal/jobserver"
	"github.com/spf13/cobra"
)

const defaultServerPort = 5000

// serveCmd runs the simulated job-processing server.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the simulated job server",
	Long: `Run a simulated job-processing server for local experiments.

The server exposes:
  POST /job          create a job (201, {"job_id": "...", "status": "pending"})
  GET  /status/{id}  report job status (200, {"result": "pending"|"completed"|"error"})

Jobs complete automatically once the configured process time has elapsed.

Example:
  jobpulse serve
  jobpulse serve --port 8080 --process-time 3s`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntP("port", "p", defaultServerPort, "TCP port to listen on")
	serveCmd.Flags().Duration("process-time", jobserver.DefaultProcessTime, "simulated processing time per job")
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	port, _ := cmd.Flags().GetInt("port")
	processTime, _ := cmd.Flags().GetDuration("process-time")

	manager := jobserver.NewManager(processTime)
	server := jobserver.NewServer(manager, port, logger)

	// cancel on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("failed to start job server: %w", err)
	}

	logger.Info("job server started",
		"port", port,
		"process_time", processTime.String(),
		"url", fmt.Sprintf("http://localhost:%d", port),
	)

	<-ctx.Done()

	// give in-flight requests a moment to drain
	time.Sleep(100 * time.Millisecond)
	logger.Info("job server stopped", "jobs_created", manager.Len())
	return nil
}
