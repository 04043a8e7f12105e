/*
Package dashboard assembles and renders periodic cluster snapshots.

The dashboard subcommand is a read-only observer: every two seconds it
collects one Snapshot from the store and the broker, and the renderer
formats it as plain text for the terminal. Collection and presentation
are separate so the collector can be tested without a terminal and the
renderer without live backends.

# Snapshot Sections

Each Snapshot carries four sections:

	Workers      every worker node row, with its current task if any
	QueuedTasks  the five oldest pending tasks
	Logs         the twenty newest log lines
	BrokerDepth  the broker's own count of waiting messages

The broker count comes from a passive queue declare, so it reflects what
RabbitMQ holds rather than what the store thinks is pending.

# Degradation

Sections are collected independently. A failing read logs an error and
leaves that section empty; the snapshot still ships with whatever could
be read. A dashboard pointed at a half-broken cluster shows the healthy
half instead of nothing.

# Usage

	collector := dashboard.NewCollector(st, br)
	for snap := range collector.Run(ctx) {
		fmt.Print("\033[2J\033[H")
		fmt.Print(dashboard.Render(snap))
	}

Run emits immediately so the first frame never waits out a full tick,
then re-collects every two seconds. The channel closes when ctx is
cancelled.

# Integration Points

  - pkg/store: worker nodes, pending task window, log tail
  - pkg/broker: queue depth probe
  - pkg/metrics: the depth probe also feeds the dtqs_queue_depth gauge

# See Also

  - cmd/dtqs dashboard subcommand for terminal wiring
*/
package dashboard
