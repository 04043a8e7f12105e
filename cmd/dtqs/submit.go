package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/AdwayB/dtqs/pkg/client"
)

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit a task to a running API server",
	Long: `Submit one task, either from a YAML manifest or assembled from flags.

Examples:
  # Submit from a manifest
  dtqs submit -f email.yaml

  # Assemble the payload from flags
  dtqs submit --type image --set img_src=cat.png --set resize_factor=0.5

  # Point at a remote server
  dtqs submit -f video.yaml --server http://queue.internal:8080

Manifest format:
  task_type: email
  priority: 9
  payload:
    from: ops@example.com
    to: team@example.com
    subject: Weekly digest
    content: All systems nominal.`,
	RunE: runSubmit,
}

func init() {
	submitCmd.Flags().StringP("file", "f", "", "YAML task manifest")
	submitCmd.Flags().String("type", "", "Task type (alternative to --file)")
	submitCmd.Flags().StringArray("set", nil, "Payload field as key=value (repeatable, with --type)")
	submitCmd.Flags().Int("priority", 0, "Task priority 0-255 (overrides the manifest)")
	submitCmd.Flags().String("server", "http://localhost:8080", "API server base URL")
}

// taskManifest is the YAML document accepted by submit -f.
type taskManifest struct {
	TaskType string         `yaml:"task_type"`
	Payload  map[string]any `yaml:"payload"`
	Priority *int           `yaml:"priority"`
}

func runSubmit(cmd *cobra.Command, args []string) error {
	filename, _ := cmd.Flags().GetString("file")
	taskType, _ := cmd.Flags().GetString("type")
	server, _ := cmd.Flags().GetString("server")

	var manifest taskManifest
	switch {
	case filename != "":
		data, err := os.ReadFile(filename)
		if err != nil {
			return fmt.Errorf("failed to read manifest: %w", err)
		}
		if err := yaml.Unmarshal(data, &manifest); err != nil {
			return fmt.Errorf("failed to parse manifest: %w", err)
		}
	case taskType != "":
		pairs, _ := cmd.Flags().GetStringArray("set")
		payload := make(map[string]any, len(pairs))
		for _, pair := range pairs {
			key, value, ok := strings.Cut(pair, "=")
			if !ok || key == "" {
				return fmt.Errorf("invalid --set %q, expected key=value", pair)
			}
			payload[key] = value
		}
		manifest = taskManifest{TaskType: taskType, Payload: payload}
	default:
		return fmt.Errorf("either --file or --type is required")
	}

	if cmd.Flags().Changed("priority") {
		priority, _ := cmd.Flags().GetInt("priority")
		manifest.Priority = &priority
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	resp, err := client.New(server).Submit(ctx, &client.SubmitRequest{
		TaskType: manifest.TaskType,
		Payload:  manifest.Payload,
		Priority: manifest.Priority,
	})
	if err != nil {
		return err
	}

	fmt.Printf("✓ Task submitted: %s\n", resp.TaskID)
	fmt.Printf("  Follow progress: %s%s\n", strings.TrimRight(server, "/"), resp.SSEURL)
	return nil
}
