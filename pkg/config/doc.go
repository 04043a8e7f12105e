/*
Package config resolves process configuration from the environment.

Every subcommand reads the same variables:

	DATABASE_URL   Postgres connection string (required)
	RABBITMQ_URL   AMQP connection string (required)
	SERVER_PORT    API listen port, default 8080
	WORKER_ID      worker node identity (required for workers)

Load enforces the shared requirements; LoadWorker additionally requires
WORKER_ID, since a worker without a stable identity cannot own a
worker_nodes row. Missing variables come back as errors so each
subcommand fails with a clean message instead of half-starting.

# Usage

	cfg, err := config.Load()        // server, dashboard
	cfg, err := config.LoadWorker()  // worker

Cobra flags may override individual fields after loading; the server
subcommand does this with --port.
*/
package config
