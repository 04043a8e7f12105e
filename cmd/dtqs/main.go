package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/AdwayB/dtqs/pkg/log"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "dtqs",
	Short: "dtqs - distributed task queue system",
	Long: `dtqs runs the pieces of a distributed task queue: an HTTP submission
API with a live progress feed, broker-driven workers with priority
scheduling and retries, and a terminal dashboard over the shared state.

Every subcommand reads DATABASE_URL and RABBITMQ_URL from the
environment; workers additionally need WORKER_ID.`,
	Version: Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level, _ := cmd.Flags().GetString("log-level")
		jsonOut, _ := cmd.Flags().GetBool("log-json")
		log.Init(log.Config{Level: log.Level(level), JSONOutput: jsonOut})
	},
}

func init() {
	// Set version template
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"dtqs version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Emit JSON logs instead of console output")

	// Add subcommands
	rootCmd.AddCommand(serverCmd)
	rootCmd.AddCommand(workerCmd)
	rootCmd.AddCommand(dashboardCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(submitCmd)
}
