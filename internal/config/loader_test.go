package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/SundaeSwap-finance/acropolis-indexer-sample/pkg/config"
	"github.com/stretchr/testify/require"
)

func TestLoadFromFile(t *testing.T) {
	for _, path := range []string{
		"../../config.example.yaml",
		"../../config.example.json",
		"../../config.example.toml",
	} {
		t.Run(filepath.Ext(path), func(t *testing.T) {
			cfg, err := LoadFromFile(path)
			require.NoError(t, err)

			validateConfig(t, cfg, filepath.Ext(path))
		})
	}
}

func TestLoadFromFile_UnsupportedFormat(t *testing.T) {
	_, err := LoadFromFile("config.txt")
	require.ErrorContains(t, err, "unsupported config file format")
}

func TestLoadFromFile_ExpandsEnvironment(t *testing.T) {
	t.Setenv("TEST_INDEXER_REDIS_URL", "redis://cache:6379/2")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
upstream:
  kind: memory
cursor_store:
  backend: redis
  redis_url: ${TEST_INDEXER_REDIS_URL}
indexes:
  - name: wallet
    type: wallet
`), 0o600))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	require.Equal(t, "redis://cache:6379/2", cfg.CursorStore.RedisURL)
	require.Equal(t, "origin", cfg.Indexes[0].StartPoint)
}

// validateConfig checks that the loaded config has expected values
func validateConfig(t *testing.T, cfg *config.Config, format string) {
	t.Helper()

	require.Equal(t, config.UpstreamJournal, cfg.Upstream.Kind, "[%s]", format)
	require.NotEmpty(t, cfg.Upstream.DB.Path, "[%s] upstream.db.path", format)
	require.Equal(t, 500*time.Millisecond, cfg.Upstream.PollInterval.Duration, "[%s]", format)
	require.NotNil(t, cfg.Upstream.Retry, "[%s] upstream retry defaults", format)

	require.Equal(t, config.CursorBackendSQLite, cfg.CursorStore.Backend, "[%s]", format)
	require.Equal(t, "WAL", cfg.CursorStore.DB.JournalMode, "[%s] db defaults", format)

	require.Equal(t, 1024, cfg.Indexer.LiveBufferSize, "[%s]", format)
	require.NotNil(t, cfg.Indexer.UpstreamRetry, "[%s]", format)

	require.NotEmpty(t, cfg.Indexes, "[%s]", format)
	for i, index := range cfg.Indexes {
		require.NotEmpty(t, index.Name, "[%s] indexes[%d].name", format, i)
		require.NotEmpty(t, index.Type, "[%s] indexes[%d].type", format, i)

		_, err := index.Start()
		require.NoError(t, err, "[%s] indexes[%d].start_point", format, i)
	}

	require.NotNil(t, cfg.Logging, "[%s]", format)
	require.Equal(t, "info", cfg.Logging.DefaultLevel, "[%s]", format)
}

func validConfig() *config.Config {
	return &config.Config{
		Upstream:    config.UpstreamConfig{Kind: config.UpstreamMemory},
		CursorStore: config.CursorStoreConfig{Backend: config.CursorBackendMemory},
		Indexes:     []config.IndexConfig{{Name: "pools", Type: "pools"}},
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := validConfig()
	cfg.Indexer.HandlerRetry = &config.RetryConfig{}
	cfg.ApplyDefaults()

	require.Equal(t, 1024, cfg.Indexer.LiveBufferSize)
	require.Equal(t, 10, cfg.Indexer.CursorSaveMaxFailures)
	require.Equal(t, 3, cfg.Indexer.HandlerRetry.MaxAttempts)
	require.Equal(t, time.Second, cfg.Indexer.UpstreamRetry.InitialBackoff.Duration)
	require.Equal(t, 30*time.Second, cfg.Indexer.UpstreamRetry.MaxBackoff.Duration)
	require.Equal(t, "origin", cfg.Indexes[0].StartPoint)
	require.Equal(t, "NORMAL", cfg.Indexes[0].DB.Synchronous)
	require.Equal(t, 5*time.Second, cfg.CursorStore.Timeout.Duration)
	require.NoError(t, cfg.Validate())
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *config.Config)
		wantErr string
	}{
		{
			name:   "valid config",
			mutate: func(cfg *config.Config) {},
		},
		{
			name:    "journal without db path",
			mutate:  func(cfg *config.Config) { cfg.Upstream.Kind = config.UpstreamJournal },
			wantErr: "upstream: db.path is required",
		},
		{
			name:    "unknown cursor backend",
			mutate:  func(cfg *config.Config) { cfg.CursorStore.Backend = "etcd" },
			wantErr: "cursor_store: backend must be one of",
		},
		{
			name:    "redis without url",
			mutate:  func(cfg *config.Config) { cfg.CursorStore.Backend = config.CursorBackendRedis },
			wantErr: "redis_url is required",
		},
		{
			name: "duplicate index names",
			mutate: func(cfg *config.Config) {
				cfg.Indexes = append(cfg.Indexes, config.IndexConfig{Name: "pools", Type: "orders"})
			},
			wantErr: "duplicate index name 'pools'",
		},
		{
			name:    "bad start point",
			mutate:  func(cfg *config.Config) { cfg.Indexes[0].StartPoint = "12345" },
			wantErr: "start_point",
		},
		{
			name:    "no indexes",
			mutate:  func(cfg *config.Config) { cfg.Indexes = nil },
			wantErr: "at least one index must be configured",
		},
		{
			name: "unknown logging component",
			mutate: func(cfg *config.Config) {
				cfg.Logging = &config.LoggingConfig{ComponentLevels: map[string]string{"downloader": "debug"}}
			},
			wantErr: "unknown component 'downloader'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			cfg.ApplyDefaults()

			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestSchema(t *testing.T) {
	data, err := Schema()
	require.NoError(t, err)

	var schema map[string]any
	require.NoError(t, json.Unmarshal(data, &schema))
	require.Equal(t, "Chain indexer configuration", schema["title"])
	require.Contains(t, string(data), "live_buffer_size")
	require.Contains(t, string(data), "Duration expressed in units")
}
