package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/AdwayB/dtqs/pkg/broker"
	"github.com/AdwayB/dtqs/pkg/config"
	"github.com/AdwayB/dtqs/pkg/dashboard"
	"github.com/AdwayB/dtqs/pkg/store"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show a live cluster overview in the terminal",
	Long: `Print a snapshot of worker nodes, queued tasks and recent logs every
two seconds, redrawing the screen in place.

Requires DATABASE_URL and RABBITMQ_URL.`,
	RunE: runDashboard,
}

func runDashboard(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := store.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to store: %w", err)
	}
	defer st.Close()

	br, err := broker.Connect(ctx, cfg.RabbitMQURL)
	if err != nil {
		return fmt.Errorf("failed to connect to broker: %w", err)
	}
	defer br.Close()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	for snap := range dashboard.NewCollector(st, br).Run(ctx) {
		// Clear and home before each frame, top style.
		fmt.Print("\033[2J\033[H")
		fmt.Print(dashboard.Render(snap))
	}
	return nil
}
