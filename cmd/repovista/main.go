// Package main is the entry point for the repovista CLI, a terminal
// dashboard client for the repository analytics backend.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/repovista/repovista"
	"github.com/repovista/repovista/internal/config"
	"github.com/repovista/repovista/internal/log"
	"github.com/repovista/repovista/internal/ui"
)

// Version information set via ldflags during build.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var envFile string

	cmd := &cobra.Command{
		Use:   "repovista",
		Short: "Repovista repository analytics client",
		Long: `Repovista is a terminal client for a Git repository analytics backend.

It lists tracked repositories, triggers and watches indexing runs, and
renders contributor, activity, bus-factor and churn statistics.

Configuration is loaded in the following order (later sources override earlier):
  1. Default values
  2. .env file (if --env-file specified or .env exists in current directory)
  3. Environment variables

Environment variables:
  REPOVISTA_SERVER_URL               Backend API base URL (default: http://localhost:8080/api/v1)
  REPOVISTA_GATEWAY_HOST             Gateway bind host (default: 127.0.0.1)
  REPOVISTA_GATEWAY_PORT             Gateway bind port (default: 3000)
  REPOVISTA_DATA_DIR                 Local state directory (default: ~/.repovista)
  REPOVISTA_LOG_LEVEL                Log level: DEBUG, INFO, WARN, ERROR (default: INFO)
  REPOVISTA_LOG_FORMAT               Log format: pretty, json (default: pretty)
  REPOVISTA_POLL_INTERVAL_SECONDS    Indexing status poll interval (default: 2)
  REPOVISTA_STATS_FRESH_SECONDS      Statistics cache freshness window (default: 30)
  REPOVISTA_SESSION_TTL_DAYS         Session cookie lifetime (default: 7)
  REPOVISTA_REQUEST_TIMEOUT_SECONDS  Backend request timeout (default: 30)
  REPOVISTA_RATE_LIMIT_PER_SEC       Outbound request rate limit (default: 10)`,
	}

	cmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Path to .env file (default: .env in current directory)")

	cmd.AddCommand(loginCmd(&envFile))
	cmd.AddCommand(logoutCmd(&envFile))
	cmd.AddCommand(signupCmd(&envFile))
	cmd.AddCommand(reposCmd(&envFile))
	cmd.AddCommand(gatewayCmd(&envFile))
	cmd.AddCommand(versionCmd())

	return cmd
}

// newClient loads configuration, configures logging, and opens the client.
// The caller owns the returned client and must Close it.
func newClient(envFile string) (*repovista.Client, config.AppConfig, error) {
	cfg, err := config.LoadConfig(envFile)
	if err != nil {
		return nil, config.AppConfig{}, fmt.Errorf("load config: %w", err)
	}

	logger := log.Configure(cfg)
	client, err := repovista.New(
		repovista.WithConfig(cfg),
		repovista.WithLogger(logger.Slog()),
	)
	if err != nil {
		return nil, config.AppConfig{}, err
	}
	return client, cfg, nil
}

func printer(cmd *cobra.Command) *ui.Printer {
	return ui.NewPrinter(cmd.OutOrStdout())
}
