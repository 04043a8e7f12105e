package config

import (
	"fmt"
	"os"
	"strconv"
)

// DefaultServerPort is used when SERVER_PORT is unset or unparsable.
const DefaultServerPort = 8080

// Config holds process configuration resolved from the environment
type Config struct {
	DatabaseURL string
	RabbitMQURL string
	ServerPort  int
	WorkerID    string
}

// Load resolves configuration from the environment. DATABASE_URL and
// RABBITMQ_URL are required; SERVER_PORT falls back to 8080. WORKER_ID is
// read but only enforced by LoadWorker.
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RabbitMQURL: os.Getenv("RABBITMQ_URL"),
		ServerPort:  DefaultServerPort,
		WorkerID:    os.Getenv("WORKER_ID"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.RabbitMQURL == "" {
		return nil, fmt.Errorf("RABBITMQ_URL is required")
	}

	if port := os.Getenv("SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil && p > 0 && p < 65536 {
			cfg.ServerPort = p
		}
	}

	return cfg, nil
}

// LoadWorker resolves configuration for a worker process, which must also
// identify itself via WORKER_ID.
func LoadWorker() (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}
	if cfg.WorkerID == "" {
		return nil, fmt.Errorf("WORKER_ID is required for worker processes")
	}
	return cfg, nil
}
