/*
Package feed turns task rows into a stream of progress events.

The SSE endpoint needs change notifications, but workers only write
state to the store; nothing pushes. The Watcher bridges that gap by
polling the watched task every two seconds and emitting an event per
observation, which the API layer serializes onto the wire.

# Emission Rules

Each tick reads the task once and applies, in order:

  - task missing: emit nothing, keep polling (the row may not be
    visible yet right after submission)
  - read error: log it, keep polling
  - status pending: emit nothing (subscribers only care once work
    starts)
  - otherwise: emit {task_id, status, progress}

A terminal task keeps emitting its final state every tick, so a
subscriber that connects after completion still learns the outcome. The
stream closes only when the subscriber cancels its context; the client
decides when it has seen enough.

# Usage

	w := feed.NewWatcher(st)

	for event := range w.Watch(ctx, taskID) {
		// event.Status, event.Progress
	}
	// channel closed: ctx was cancelled

Interval is exported with a two second default so tests can tighten the
cadence.

# Integration Points

  - pkg/api: GET /sse writes each event as one SSE data frame
  - pkg/store: the single GetTask read behind every tick

# See Also

  - pkg/api for the HTTP framing on top of the event channel
*/
package feed
