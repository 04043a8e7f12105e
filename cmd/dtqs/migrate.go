package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/AdwayB/dtqs/pkg/store"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema",
	Long: `Create the tasks, worker_nodes and logs tables if they do not exist.
Safe to run repeatedly and on every deploy.`,
	RunE: runMigrate,
}

func init() {
	migrateCmd.Flags().String("database-url", "", "Postgres connection string (defaults to DATABASE_URL)")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	databaseURL, _ := cmd.Flags().GetString("database-url")
	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		return fmt.Errorf("--database-url or DATABASE_URL is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	st, err := store.Connect(ctx, databaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer st.Close()

	if err := st.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}

	fmt.Println("✓ Schema applied")
	return nil
}
