package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/repovista/repovista"
	"github.com/repovista/repovista/internal/config"
	"github.com/repovista/repovista/internal/log"
)

func gatewayCmd(envFile *string) *cobra.Command {
	var (
		host string
		port int
	)

	cmd := &cobra.Command{
		Use:   "gateway",
		Short: "Start the local HTTP gateway",
		Long: `Start the local HTTP gateway.

The gateway gates dashboard routes on the session cookie, terminates the
OAuth callback, and reverse-proxies /api requests to the backend with the
cookie promoted to a bearer header.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(*envFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if host != "" {
				cfg = cfg.Apply(config.WithGatewayHost(host))
			}
			if port != 0 {
				cfg = cfg.Apply(config.WithGatewayPort(port))
			}

			logger := log.Configure(cfg)
			client, err := repovista.New(
				repovista.WithConfig(cfg),
				repovista.WithLogger(logger.Slog()),
			)
			if err != nil {
				return err
			}
			defer client.Close()

			srv, err := client.Gateway()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start() }()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "Gateway host to bind to (default: 127.0.0.1)")
	cmd.Flags().IntVar(&port, "port", 0, "Gateway port to listen on (default: 3000)")

	return cmd
}
