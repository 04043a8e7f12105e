package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoad tests environment resolution and defaults
func TestLoad(t *testing.T) {
	tests := []struct {
		name         string
		env          map[string]string
		expectErr    string
		expectedPort int
	}{
		{
			name: "all set",
			env: map[string]string{
				"DATABASE_URL": "postgres://localhost/dtqs",
				"RABBITMQ_URL": "amqp://localhost",
				"SERVER_PORT":  "9090",
			},
			expectedPort: 9090,
		},
		{
			name: "port defaults when unset",
			env: map[string]string{
				"DATABASE_URL": "postgres://localhost/dtqs",
				"RABBITMQ_URL": "amqp://localhost",
			},
			expectedPort: DefaultServerPort,
		},
		{
			name: "port defaults when unparsable",
			env: map[string]string{
				"DATABASE_URL": "postgres://localhost/dtqs",
				"RABBITMQ_URL": "amqp://localhost",
				"SERVER_PORT":  "eighty",
			},
			expectedPort: DefaultServerPort,
		},
		{
			name: "missing database url",
			env: map[string]string{
				"RABBITMQ_URL": "amqp://localhost",
			},
			expectErr: "DATABASE_URL",
		},
		{
			name: "missing broker url",
			env: map[string]string{
				"DATABASE_URL": "postgres://localhost/dtqs",
			},
			expectErr: "RABBITMQ_URL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, key := range []string{"DATABASE_URL", "RABBITMQ_URL", "SERVER_PORT", "WORKER_ID"} {
				t.Setenv(key, tt.env[key])
			}

			cfg, err := Load()
			if tt.expectErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.env["DATABASE_URL"], cfg.DatabaseURL)
			assert.Equal(t, tt.env["RABBITMQ_URL"], cfg.RabbitMQURL)
			assert.Equal(t, tt.expectedPort, cfg.ServerPort)
		})
	}
}

// TestLoadWorker tests that worker processes must carry a WORKER_ID
func TestLoadWorker(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/dtqs")
	t.Setenv("RABBITMQ_URL", "amqp://localhost")
	t.Setenv("WORKER_ID", "")

	_, err := LoadWorker()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WORKER_ID")

	t.Setenv("WORKER_ID", "worker-1")
	cfg, err := LoadWorker()
	require.NoError(t, err)
	assert.Equal(t, "worker-1", cfg.WorkerID)
}
