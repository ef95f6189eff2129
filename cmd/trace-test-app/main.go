// Package main implements trace-test-app, which emits synthetic traces to
// an OTLP collector and correlated JSON logs to stdout.
package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	configPath string
	version    = "1.0.0"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "trace-test-app",
	Short: "Emit synthetic traces and correlated JSON logs",
	Long: `trace-test-app runs a fixed number of synthetic units of work. Each one
produces a root span with nested child spans, exported over OTLP, and a set of
JSON log lines on stdout carrying the matching trace and span ids.

Configuration comes from built-in defaults, an optional YAML file and
TRACE_APP_* environment variables, in increasing precedence.

Examples:
  # Run against a collector on localhost:4318
  trace-test-app

  # Use a config file and override the iteration count
  TRACE_APP_DRIVER_ITERATIONS=50 trace-test-app --config config.yaml`,
	Version:      version,
	SilenceUsage: true,
	Args:         cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		_ = godotenv.Load()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return run(ctx, configPath, os.Stdout)
	},
}

func init() {
	rootCmd.Flags().StringVar(&configPath, "config", "", "path to a YAML config file")
}
