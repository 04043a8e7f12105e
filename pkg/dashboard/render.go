package dashboard

import (
	"fmt"
	"strings"

	"github.com/AdwayB/dtqs/pkg/types"
)

const timeLayout = "2006-01-02 15:04:05"

// Render formats one snapshot as plain text: worker overview, queued
// tasks, and recent logs, in that order.
func Render(snap *types.Snapshot) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Dashboard @ %s\n", snap.CollectedAt.Format(timeLayout))

	b.WriteString("\n== Worker Nodes ==\n")
	if len(snap.Workers) == 0 {
		b.WriteString("No worker nodes registered\n")
	}
	for _, w := range snap.Workers {
		fmt.Fprintf(&b, "ID: %s\n", w.NodeID)
		fmt.Fprintf(&b, "  Status: %s\n", w.Status)
		if w.CurrentTask != nil {
			t := w.CurrentTask
			fmt.Fprintf(&b, "  Task: %s (%d%%, %s)\n", t.ID, t.Progress, t.Status)
		} else {
			b.WriteString("  No current task\n")
		}
		fmt.Fprintf(&b, "  Last HC: %s\n", w.LastHealthCheck.Format(timeLayout))
	}

	fmt.Fprintf(&b, "\n== Queue (%d in broker) ==\n", snap.BrokerDepth)
	if len(snap.QueuedTasks) == 0 {
		b.WriteString("No pending tasks\n")
	}
	for _, t := range snap.QueuedTasks {
		fmt.Fprintf(&b, "%s  %s  priority %d  created %s\n",
			t.ID, t.TaskType, t.Priority, t.CreatedAt.Format(timeLayout))
	}

	b.WriteString("\n== Logs ==\n")
	if len(snap.Logs) == 0 {
		b.WriteString("No log entries\n")
	}
	for _, entry := range snap.Logs {
		fmt.Fprintf(&b, "%s  [%s]  %s\n",
			entry.Timestamp.Format(timeLayout), entry.WorkerNodeID, entry.Message)
	}

	return b.String()
}
