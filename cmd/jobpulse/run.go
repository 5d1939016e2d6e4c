package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/jpalmerr/jobpulse"
	"github.com/jpalmerr/jobpulse/config"
	"github.com/spf13/cobra"
)

// runCmd creates a batch of jobs and waits for all of them to resolve.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Create jobs and wait for completion",
	Long: `Create one or more jobs on the job server and poll until every job
reaches a terminal status.

Configuration is read from the YAML file given with -c, or from JOBPULSE_*
environment variables when no file is given. The --base-url flag overrides
both.

Example:
  jobpulse run -n 3 --base-url http://localhost:5000
  jobpulse run -c jobpulse.yaml -n 10`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("config", "c", "", "path to config file")
	runCmd.Flags().IntP("count", "n", 1, "number of jobs to create")
	runCmd.Flags().String("base-url", "", "job server base URL (overrides config)")
}

// loadConfig resolves CLI configuration: file if given, environment
// otherwise, with the base-url flag overriding both.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	baseURL, _ := cmd.Flags().GetString("base-url")
	if baseURL != "" {
		// flag-only invocation: defaults around the given URL
		return config.Parse([]byte("base_url: " + baseURL))
	}

	configFile, _ := cmd.Flags().GetString("config")
	if configFile != "" {
		return config.Load(configFile)
	}
	return config.FromEnv()
}

func runRun(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	count, _ := cmd.Flags().GetInt("count")
	if count < 1 {
		return fmt.Errorf("count must be at least 1, got %d", count)
	}

	opts := append(config.BuildOptions(cfg), jobpulse.WithLogger(logger))
	client, err := jobpulse.New(cfg.BaseURL, opts...)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	defer client.Close()

	// surface the interesting lifecycle events as log lines
	client.
		On(jobpulse.EventStatusChanged, func(e jobpulse.Event) {
			logger.Info("status changed",
				"job_id", e.JobID,
				"from", e.PreviousStatus.String(),
				"to", e.CurrentStatus.String(),
			)
		}).
		On(jobpulse.EventRetryAttempted, func(e jobpulse.Event) {
			logger.Warn("retrying after failure",
				"job_id", e.JobID,
				"retry", e.RetryCount,
				"error", e.Err.Error(),
			)
		}).
		On(jobpulse.EventCircuitBreakerOpened, func(e jobpulse.Event) {
			logger.Warn("circuit breaker open", "job_id", e.JobID)
		}).
		On(jobpulse.EventTimeout, func(e jobpulse.Event) {
			logger.Error("wait timed out", "outstanding", len(e.JobIDs))
		})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("creating jobs", "count", count, "base_url", cfg.BaseURL)
	jobIDs := client.CreateBatchJobs(ctx, count)
	if len(jobIDs) == 0 {
		return fmt.Errorf("no jobs could be created")
	}
	if len(jobIDs) < count {
		logger.Warn("partial batch creation", "requested", count, "created", len(jobIDs))
	}

	results, err := client.WaitForBatchCompletion(ctx, jobIDs)
	if err != nil {
		return fmt.Errorf("batch wait failed: %w", err)
	}

	completed := 0
	for id, status := range results {
		if status == jobpulse.JobStatusCompleted {
			completed++
		}
		logger.Info("job resolved", "job_id", id, "status", status.String())
	}
	logger.Info("batch finished",
		"total", len(results),
		"completed", completed,
		"failed", len(results)-completed,
		"events", len(client.Events()),
	)
	return nil
}
