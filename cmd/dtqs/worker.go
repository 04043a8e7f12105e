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
	"github.com/AdwayB/dtqs/pkg/metrics"
	"github.com/AdwayB/dtqs/pkg/store"
	"github.com/AdwayB/dtqs/pkg/types"
	"github.com/AdwayB/dtqs/pkg/worker"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run a task execution worker",
	Long: `Run one worker process: consume task messages from the broker, order
them by priority, and execute up to four at a time with progress
reporting and retries.

Requires DATABASE_URL, RABBITMQ_URL and WORKER_ID.`,
	RunE: runWorker,
}

func runWorker(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadWorker()
	if err != nil {
		return err
	}

	metrics.SetVersion(Version)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := store.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to store: %w", err)
	}
	defer st.Close()

	if err := st.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}

	br, err := broker.Connect(ctx, cfg.RabbitMQURL)
	if err != nil {
		return fmt.Errorf("failed to connect to broker: %w", err)
	}
	defer br.Close()

	deliveries, err := br.Consume(ctx, cfg.WorkerID)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	heartbeat := worker.NewHeartbeat(st, cfg.WorkerID)
	if err := heartbeat.Start(ctx); err != nil {
		return fmt.Errorf("failed to register worker node: %w", err)
	}

	registry := worker.NewRegistry(st, cfg.WorkerID)
	sup := worker.NewSupervisor(st, registry, cfg.WorkerID)
	sup.SetHeartbeat(heartbeat)

	// First signal cancels the consume context; Run lets in-flight
	// executions finish and nacks everything still buffered.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nShutting down...")
		cancel()
	}()

	fmt.Printf("Worker %s consuming from %q. Press Ctrl+C to stop.\n", cfg.WorkerID, types.QueueName)
	sup.Run(ctx, deliveries)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stopCancel()
	heartbeat.Stop(stopCtx)

	fmt.Println("✓ Shutdown complete")
	return nil
}
