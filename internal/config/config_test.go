package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/ClauseLens/internal/config"
)

// validConfig returns a fully-defaulted configuration that passes Validate.
func validConfig() *config.Config {
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	return cfg
}

func TestConfig_Validate_DefaultedConfigIsValid(t *testing.T) {
	t.Parallel()
	require.NoError(t, validConfig().Validate())
}

func TestConfig_Validate_Failures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantMsg string
	}{
		{
			name:    "server port out of range",
			mutate:  func(c *config.Config) { c.Server.Port = 70000 },
			wantMsg: "server.port",
		},
		{
			name:    "grpc port negative",
			mutate:  func(c *config.Config) { c.Server.GRPCPort = -1 },
			wantMsg: "server.grpc_port",
		},
		{
			name:    "database host missing",
			mutate:  func(c *config.Config) { c.Database.Host = "" },
			wantMsg: "database.host",
		},
		{
			name:    "database user missing",
			mutate:  func(c *config.Config) { c.Database.User = "" },
			wantMsg: "database.user",
		},
		{
			name:    "database max conns zero",
			mutate:  func(c *config.Config) { c.Database.MaxConns = 0 },
			wantMsg: "database.max_conns",
		},
		{
			name:    "redis addr missing",
			mutate:  func(c *config.Config) { c.Redis.Addr = "" },
			wantMsg: "redis.addr",
		},
		{
			name:    "kafka brokers empty",
			mutate:  func(c *config.Config) { c.Kafka.Brokers = nil },
			wantMsg: "kafka.brokers",
		},
		{
			name:    "kafka group id missing",
			mutate:  func(c *config.Config) { c.Kafka.GroupID = "" },
			wantMsg: "kafka.group_id",
		},
		{
			name:    "opensearch addresses empty",
			mutate:  func(c *config.Config) { c.OpenSearch.Addresses = nil },
			wantMsg: "opensearch.addresses",
		},
		{
			name:    "minio bucket missing",
			mutate:  func(c *config.Config) { c.MinIO.Bucket = "" },
			wantMsg: "minio.bucket",
		},
		{
			name:    "worker concurrency negative",
			mutate:  func(c *config.Config) { c.Worker.Concurrency = -2 },
			wantMsg: "worker.concurrency",
		},
		{
			name:    "invalid log level",
			mutate:  func(c *config.Config) { c.Log.Level = "verbose" },
			wantMsg: "log.level",
		},
		{
			name:    "invalid log format",
			mutate:  func(c *config.Config) { c.Log.Format = "text" },
			wantMsg: "log.format",
		},
		{
			name:    "invalid analysis backend",
			mutate:  func(c *config.Config) { c.Analysis.Backend = "grpc" },
			wantMsg: "analysis.backend",
		},
		{
			name: "http backend without base url",
			mutate: func(c *config.Config) {
				c.Analysis.Backend = "http"
				c.Analysis.BaseURL = ""
			},
			wantMsg: "analysis.base_url",
		},
		{
			name:    "extraction max size zero",
			mutate:  func(c *config.Config) { c.Extraction.MaxDocumentSize = 0 },
			wantMsg: "extraction.max_document_size",
		},
		{
			name:    "comparison concurrency zero",
			mutate:  func(c *config.Config) { c.Comparison.MaxConcurrentAnalyses = 0 },
			wantMsg: "comparison.max_concurrent_analyses",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestConfig_Validate_WorkerConcurrencyZeroMeansAuto(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.Worker.Concurrency = 0
	assert.NoError(t, cfg.Validate())
}

func TestConfig_Validate_HTTPBackendWithBaseURL(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.Analysis.Backend = "http"
	cfg.Analysis.BaseURL = "https://counselgpt.internal/v1"
	assert.NoError(t, cfg.Validate())
}
