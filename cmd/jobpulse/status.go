package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/jobpulse"
	"github.com/jpalmerr/jobpulse/config"
)

// statusCmd performs a one-shot status query for a single job.
var statusCmd = &cobra.Command{
	Use:   "status <job-id>",
	Short: "Query the status of a job",
	Long: `Query the current status of a single job and print it.

Example:
  jobpulse status 6f1c9a7e-9f9d-4b8e-a8f3-2d1f2c3b4a5d --base-url http://localhost:5000`,
	Args: cobra.ExactArgs(1),
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().StringP("config", "c", "", "path to config file")
	statusCmd.Flags().String("base-url", "", "job server base URL (overrides config)")
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	client, err := jobpulse.New(cfg.BaseURL, config.BuildOptions(cfg)...)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	defer client.Close()

	status, err := client.GetStatus(context.Background(), args[0])
	if err != nil {
		return err
	}

	fmt.Println(status.String())
	return nil
}
