/*
Package log wraps zerolog with a global logger and the field helpers
every process tags its output with.

Call Init once from main before anything logs; the cobra root command
does this in its PersistentPreRun, so every subcommand inherits the same
configuration from --log-level and --log-json.

# Output Modes

Console output is for humans at a terminal:

	2026-08-25T10:14:02Z INF Task submitted component=api task_id=6fa1... priority=9

JSON output is for collectors:

	{"level":"info","component":"api","task_id":"6fa1...","priority":9,
	 "time":"2026-08-25T10:14:02Z","message":"Task submitted"}

# Field Helpers

Long-running loops log through child loggers carrying their identity:

	logger := log.WithComponent("broker")
	logger.Warn().Err(err).Msg("Broker not reachable, retrying")

	logger := log.WithWorkerID(workerID)
	logger.Info().Int("concurrency", 4).Msg("Worker supervisor started")

WithTaskID tags per-task log lines the same way. The helpers derive from
the global Logger, so a later Init changes level and format everywhere.

# Levels

debug, info, warn, error, mapped onto zerolog's levels; anything else
falls back to info. The zero-value Logger is usable before Init, which
keeps package tests free of logging setup.

# Integration Points

  - cmd/dtqs: Init from persistent flags
  - every pkg/ package: component child loggers
*/
package log
