// Package main is the entry point for the jobpulse CLI.
//
// The polling client can be used either as a library (SDK) or through this
// standalone binary, which also ships a simulated job server for local
// experiments.
//
// Usage:
//
//	jobpulse serve --process-time 10s   # Run the simulated job server
//	jobpulse run -n 5 -c config.yaml    # Create 5 jobs and wait for them
//	jobpulse status <job-id>            # One-shot status query
//	jobpulse version                    # Show version info
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// Version information - set at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd is the base command when called without subcommands.
// It just displays help - actual functionality is in subcommands.
var rootCmd = &cobra.Command{
	Use:   "jobpulse",
	Short: "A resilient polling client for asynchronous jobs",
	Long: `jobpulse polls the status of asynchronous server-side jobs over HTTP
with jittered exponential backoff, a circuit breaker, and a structured
event stream.

Quick start:
  1. Start the simulated job server: jobpulse serve
  2. In another terminal: jobpulse run -n 3 --base-url http://localhost:5000

Configuration can come from a YAML file (-c flag) or JOBPULSE_* environment
variables.

Example config:
  base_url: http://localhost:5000
  polling:
    initial_interval: 500ms
    max_interval: 5s
    timeout: 5m`,
	// No Run/RunE means this just shows help when called without subcommands
}

// newLogger creates a JSON logger for CLI use.
func newLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

// Execute runs the root command.
// This is the main entry point called from main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error, just exit with code 1
		os.Exit(1)
	}
}

func main() {
	Execute()
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this jobpulse binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("jobpulse %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
