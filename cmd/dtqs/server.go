package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/AdwayB/dtqs/pkg/api"
	"github.com/AdwayB/dtqs/pkg/broker"
	"github.com/AdwayB/dtqs/pkg/config"
	"github.com/AdwayB/dtqs/pkg/feed"
	"github.com/AdwayB/dtqs/pkg/metrics"
	"github.com/AdwayB/dtqs/pkg/store"
)

const shutdownTimeout = 10 * time.Second

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Run the task submission API server",
	Long: `Run the HTTP API server: POST /submit accepts tasks, GET /sse streams
their progress, /healthz and /metrics serve operators.

Requires DATABASE_URL and RABBITMQ_URL. SERVER_PORT falls back to 8080
unless --port overrides it.`,
	RunE: runServer,
}

func init() {
	serverCmd.Flags().Int("port", 0, "Listen port (overrides SERVER_PORT)")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if port, _ := cmd.Flags().GetInt("port"); port > 0 {
		cfg.ServerPort = port
	}

	metrics.SetVersion(Version)

	ctx := context.Background()

	st, err := store.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to store: %w", err)
	}
	defer st.Close()

	// Schema application is idempotent, so every process applies it on
	// boot and fresh environments need no separate step.
	if err := st.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}

	br, err := broker.Connect(ctx, cfg.RabbitMQURL)
	if err != nil {
		return fmt.Errorf("failed to connect to broker: %w", err)
	}
	defer br.Close()

	metrics.RegisterComponent("database", true, "")
	metrics.RegisterComponent("broker", true, "")

	srv := api.NewServer(st, br, feed.NewWatcher(st))

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	fmt.Printf("API server listening on :%d. Press Ctrl+C to stop.\n", cfg.ServerPort)

	// Wait for interrupt signal or server error
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		fmt.Println("\nShutting down...")
	case err := <-errCh:
		return fmt.Errorf("API server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down cleanly: %w", err)
	}

	fmt.Println("✓ Shutdown complete")
	return nil
}
