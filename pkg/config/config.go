package config

import (
	"fmt"
	"slices"
	"time"

	"github.com/SundaeSwap-finance/acropolis-indexer-sample/internal/common"
	"github.com/SundaeSwap-finance/acropolis-indexer-sample/internal/logger"
	"github.com/SundaeSwap-finance/acropolis-indexer-sample/pkg/chain"
)

// Cursor store backends.
const (
	CursorBackendMemory   = "memory"
	CursorBackendSQLite   = "sqlite"
	CursorBackendRedis    = "redis"
	CursorBackendPostgres = "postgres"
)

// Upstream source kinds.
const (
	UpstreamJournal = "journal"
	UpstreamMemory  = "memory"
)

// Config represents the complete configuration of the chain indexer service.
type Config struct {
	// Upstream configures where chain events come from
	Upstream UpstreamConfig `yaml:"upstream" json:"upstream" toml:"upstream"`

	// CursorStore configures where consumer cursors are persisted
	CursorStore CursorStoreConfig `yaml:"cursor_store" json:"cursor_store" toml:"cursor_store"`

	// Indexer contains dispatch settings shared by every managed index
	Indexer IndexerConfig `yaml:"indexer" json:"indexer" toml:"indexer"`

	// Indexes lists the managed indexes to register at startup
	Indexes []IndexConfig `yaml:"indexes" json:"indexes" toml:"indexes"`

	// Logging contains logging configuration
	Logging *LoggingConfig `yaml:"logging,omitempty" json:"logging,omitempty" toml:"logging,omitempty"`

	// Metrics contains Prometheus metrics configuration
	Metrics *MetricsConfig `yaml:"metrics,omitempty" json:"metrics,omitempty" toml:"metrics,omitempty"`

	// API contains the status API configuration
	API *APIConfig `yaml:"api,omitempty" json:"api,omitempty" toml:"api,omitempty"`
}

// UpstreamConfig configures the upstream event source.
type UpstreamConfig struct {
	// Kind selects the source: "journal" (SQLite event journal) or "memory"
	Kind string `yaml:"kind" json:"kind" toml:"kind"`

	// FeedURL is the websocket endpoint of the node bridge feeding the journal.
	// When empty the journal is only read, never written.
	FeedURL string `yaml:"feed_url,omitempty" json:"feed_url,omitempty" toml:"feed_url,omitempty"`

	// Magic is the network magic sent to the node bridge on connect
	Magic uint64 `yaml:"magic" json:"magic" toml:"magic"`

	// PollInterval is how often live readers look for newly appended events
	PollInterval common.Duration `yaml:"poll_interval" json:"poll_interval" toml:"poll_interval"`

	// Retry configures reconnect backoff of the feed and of the live broadcast
	Retry *RetryConfig `yaml:"retry,omitempty" json:"retry,omitempty" toml:"retry,omitempty"`

	// DB contains database configuration for the journal
	DB DatabaseConfig `yaml:"db" json:"db" toml:"db"`

	// RetentionPolicy bounds how much history the journal keeps
	RetentionPolicy *RetentionPolicyConfig `yaml:"retention_policy,omitempty" json:"retention_policy,omitempty" toml:"retention_policy,omitempty"` //nolint:lll

	// Maintenance contains optional database maintenance settings
	Maintenance *MaintenanceConfig `yaml:"maintenance,omitempty" json:"maintenance,omitempty" toml:"maintenance,omitempty"`
}

// ApplyDefaults sets default values for optional upstream configuration fields.
func (u *UpstreamConfig) ApplyDefaults() {
	if u.Kind == "" {
		u.Kind = UpstreamJournal
	}
	if u.PollInterval.Duration == 0 {
		u.PollInterval = common.NewDuration(500 * time.Millisecond) //nolint:mnd
	}
	if u.Retry == nil {
		u.Retry = &RetryConfig{}
	}
	u.Retry.ApplyDefaults()

	if u.Maintenance != nil {
		u.Maintenance.ApplyDefaults()
	}

	u.DB.ApplyDefaults()
}

// Validate checks if the upstream configuration is valid.
func (u *UpstreamConfig) Validate() error {
	switch u.Kind {
	case UpstreamMemory:
		if u.FeedURL != "" {
			return fmt.Errorf("feed_url requires the journal upstream")
		}
	case UpstreamJournal:
		if u.DB.Path == "" {
			return fmt.Errorf("db.path is required for the journal upstream")
		}
		if err := u.DB.Validate(); err != nil {
			return fmt.Errorf("db: %w", err)
		}
	default:
		return fmt.Errorf("kind must be one of: %s, %s", UpstreamJournal, UpstreamMemory)
	}

	if u.Maintenance != nil {
		if err := u.Maintenance.Validate(); err != nil {
			return fmt.Errorf("maintenance: %w", err)
		}
	}

	return nil
}

// CursorStoreConfig selects and configures the cursor store backend.
type CursorStoreConfig struct {
	// Backend is one of "memory", "sqlite", "redis", "postgres"
	Backend string `yaml:"backend" json:"backend" toml:"backend"`

	// DB configures the sqlite backend
	DB DatabaseConfig `yaml:"db" json:"db" toml:"db"`

	// RedisURL is a redis:// connection URL for the redis backend
	RedisURL string `yaml:"redis_url,omitempty" json:"redis_url,omitempty" toml:"redis_url,omitempty"`

	// KeyPrefix namespaces cursor keys in redis
	KeyPrefix string `yaml:"key_prefix,omitempty" json:"key_prefix,omitempty" toml:"key_prefix,omitempty"`

	// PostgresDSN is the connection string for the postgres backend
	PostgresDSN string `yaml:"postgres_dsn,omitempty" json:"postgres_dsn,omitempty" toml:"postgres_dsn,omitempty"`

	// Timeout bounds a single load or save against a remote backend
	Timeout common.Duration `yaml:"timeout" json:"timeout" toml:"timeout"`
}

// ApplyDefaults sets default values for optional cursor store configuration fields.
func (c *CursorStoreConfig) ApplyDefaults() {
	if c.Backend == "" {
		c.Backend = CursorBackendSQLite
	}
	c.Backend = common.ToLowerWithTrim(c.Backend)
	if c.KeyPrefix == "" {
		c.KeyPrefix = "chain-indexer:cursors"
	}
	if c.Timeout.Duration == 0 {
		c.Timeout = common.NewDuration(5 * time.Second) //nolint:mnd
	}
	if c.Backend == CursorBackendSQLite {
		c.DB.ApplyDefaults()
	}
}

// Validate checks if the cursor store configuration is valid.
func (c *CursorStoreConfig) Validate() error {
	switch c.Backend {
	case CursorBackendMemory:
	case CursorBackendSQLite:
		if c.DB.Path == "" {
			return fmt.Errorf("db.path is required for the sqlite backend")
		}
		return c.DB.Validate()
	case CursorBackendRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("redis_url is required for the redis backend")
		}
	case CursorBackendPostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("postgres_dsn is required for the postgres backend")
		}
	default:
		return fmt.Errorf("backend must be one of: memory, sqlite, redis, postgres")
	}

	return nil
}

// RetryConfig represents retry configuration with exponential backoff.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts (including initial request).
	// Zero means retry until the context is cancelled.
	MaxAttempts int `yaml:"max_attempts" json:"max_attempts" toml:"max_attempts"`

	// InitialBackoff is the initial backoff duration before first retry
	InitialBackoff common.Duration `yaml:"initial_backoff" json:"initial_backoff" toml:"initial_backoff"`

	// MaxBackoff is the maximum backoff duration
	MaxBackoff common.Duration `yaml:"max_backoff" json:"max_backoff" toml:"max_backoff"`

	// BackoffMultiplier is the multiplier for exponential backoff
	BackoffMultiplier float64 `yaml:"backoff_multiplier" json:"backoff_multiplier" toml:"backoff_multiplier"`
}

// ApplyDefaults sets default values for retry configuration.
func (r *RetryConfig) ApplyDefaults() {
	if r.InitialBackoff.Duration == 0 {
		r.InitialBackoff = common.NewDuration(1 * time.Second)
	}
	if r.MaxBackoff.Duration == 0 {
		r.MaxBackoff = common.NewDuration(30 * time.Second) //nolint:mnd
	}
	if r.BackoffMultiplier == 0 {
		r.BackoffMultiplier = 2.0
	}
}

// DatabaseConfig represents SQLite database configuration.
type DatabaseConfig struct {
	// Path is the file path to the SQLite database
	Path string `yaml:"path" json:"path" toml:"path"`

	// JournalMode sets the SQLite journal mode (e.g., "WAL", "DELETE")
	// WAL mode is recommended for better concurrency
	JournalMode string `yaml:"journal_mode" json:"journal_mode" toml:"journal_mode"`

	// Synchronous sets the synchronization level ("FULL", "NORMAL", "OFF")
	Synchronous string `yaml:"synchronous" json:"synchronous" toml:"synchronous"`

	// BusyTimeout is the time in milliseconds to wait when the database is locked
	BusyTimeout int `yaml:"busy_timeout" json:"busy_timeout" toml:"busy_timeout"`

	// CacheSize is the size of the page cache (negative = KB, positive = pages)
	CacheSize int `yaml:"cache_size" json:"cache_size" toml:"cache_size"`

	// MaxOpenConnections is the maximum number of open database connections
	MaxOpenConnections int `yaml:"max_open_connections" json:"max_open_connections" toml:"max_open_connections"`

	// MaxIdleConnections is the maximum number of idle connections in the pool
	MaxIdleConnections int `yaml:"max_idle_connections" json:"max_idle_connections" toml:"max_idle_connections"`

	// EnableForeignKeys enables foreign key constraint enforcement
	EnableForeignKeys bool `yaml:"enable_foreign_keys" json:"enable_foreign_keys" toml:"enable_foreign_keys"`
}

// ApplyDefaults sets default values for optional database configuration fields.
func (d *DatabaseConfig) ApplyDefaults() {
	if d.JournalMode == "" {
		d.JournalMode = "WAL"
	}
	if d.Synchronous == "" {
		d.Synchronous = "NORMAL"
	}
	if d.BusyTimeout == 0 {
		d.BusyTimeout = 5000
	}
	if d.CacheSize == 0 {
		d.CacheSize = 10000
	}
	if d.MaxOpenConnections == 0 {
		d.MaxOpenConnections = 25
	}
	if d.MaxIdleConnections == 0 {
		d.MaxIdleConnections = 5
	}
}

// Validate checks the pragma settings of the database configuration.
func (d *DatabaseConfig) Validate() error {
	if d.JournalMode != "" &&
		!slices.Contains([]string{"WAL", "DELETE", "TRUNCATE", "PERSIST", "MEMORY"}, d.JournalMode) {
		return fmt.Errorf("journal_mode must be one of: WAL, DELETE, TRUNCATE, PERSIST, MEMORY")
	}

	if d.Synchronous != "" && !slices.Contains([]string{"FULL", "NORMAL", "OFF"}, d.Synchronous) {
		return fmt.Errorf("synchronous must be one of: FULL, NORMAL, OFF")
	}

	return nil
}

// RetentionPolicyConfig represents journal retention policy settings.
type RetentionPolicyConfig struct {
	// MaxSlots is how many slots of history to keep behind the tip (0 = unlimited)
	MaxSlots uint64 `yaml:"max_slots" json:"max_slots" toml:"max_slots"`

	// CheckInterval is how often the retention policy is enforced
	CheckInterval common.Duration `yaml:"check_interval" json:"check_interval" toml:"check_interval"`
}

// IsEnabled returns true if retention policy should be applied
func (r *RetentionPolicyConfig) IsEnabled() bool {
	return r != nil && r.MaxSlots > 0
}

// MaintenanceConfig configures database maintenance behavior.
type MaintenanceConfig struct {
	// Enabled controls whether background maintenance runs
	Enabled bool `yaml:"enabled" json:"enabled" toml:"enabled"`

	// CheckInterval is how often to run maintenance (e.g., "30m", "1h")
	CheckInterval common.Duration `yaml:"check_interval" json:"check_interval" toml:"check_interval"`

	// VacuumOnStartup runs maintenance immediately on startup
	VacuumOnStartup bool `yaml:"vacuum_on_startup" json:"vacuum_on_startup" toml:"vacuum_on_startup"`

	// WALCheckpointMode controls the WAL checkpoint aggressiveness
	// Options: PASSIVE, FULL, RESTART, TRUNCATE
	WALCheckpointMode string `yaml:"wal_checkpoint_mode" json:"wal_checkpoint_mode" toml:"wal_checkpoint_mode"`
}

// ApplyDefaults sets default values for optional maintenance configuration fields.
func (m *MaintenanceConfig) ApplyDefaults() {
	if m.CheckInterval.Duration == 0 {
		m.CheckInterval = common.NewDuration(30 * time.Minute) //nolint:mnd
	}
	if m.WALCheckpointMode == "" {
		m.WALCheckpointMode = "TRUNCATE"
	}
}

// Validate checks if the maintenance configuration is valid.
func (m *MaintenanceConfig) Validate() error {
	if m.WALCheckpointMode != "" {
		validModes := []string{"PASSIVE", "FULL", "RESTART", "TRUNCATE"}
		if !slices.Contains(validModes, m.WALCheckpointMode) {
			return fmt.Errorf("wal_checkpoint_mode: must be one of: PASSIVE, FULL, RESTART, TRUNCATE")
		}
	}

	return nil
}

// IndexerConfig contains dispatch settings shared by all managed indexes.
type IndexerConfig struct {
	// LiveBufferSize is how many live events a caught-up index may lag behind
	// before it is demoted back to backfill
	LiveBufferSize int `yaml:"live_buffer_size" json:"live_buffer_size" toml:"live_buffer_size"`

	// CursorSaveMaxFailures is how many consecutive cursor store failures an index
	// tolerates before it is marked failed
	CursorSaveMaxFailures int `yaml:"cursor_save_max_failures" json:"cursor_save_max_failures" toml:"cursor_save_max_failures"`

	// HandlerRetry optionally retries failed handler calls; nil means a single attempt
	HandlerRetry *RetryConfig `yaml:"handler_retry,omitempty" json:"handler_retry,omitempty" toml:"handler_retry,omitempty"`

	// UpstreamRetry paces re-reads after the upstream source was unavailable
	UpstreamRetry *RetryConfig `yaml:"upstream_retry,omitempty" json:"upstream_retry,omitempty" toml:"upstream_retry,omitempty"` //nolint:lll
}

// ApplyDefaults sets default values for optional indexer configuration fields.
func (i *IndexerConfig) ApplyDefaults() {
	if i.LiveBufferSize == 0 {
		i.LiveBufferSize = 1024
	}
	if i.CursorSaveMaxFailures == 0 {
		i.CursorSaveMaxFailures = 10
	}
	if i.HandlerRetry != nil {
		i.HandlerRetry.ApplyDefaults()
		if i.HandlerRetry.MaxAttempts == 0 {
			i.HandlerRetry.MaxAttempts = 3
		}
	}
	if i.UpstreamRetry == nil {
		i.UpstreamRetry = &RetryConfig{}
	}
	i.UpstreamRetry.ApplyDefaults()
}

// Validate checks if the indexer configuration is valid.
func (i *IndexerConfig) Validate() error {
	if i.LiveBufferSize < 1 {
		return fmt.Errorf("live_buffer_size must be positive")
	}
	if i.CursorSaveMaxFailures < 1 {
		return fmt.Errorf("cursor_save_max_failures must be positive")
	}
	if i.HandlerRetry != nil && i.HandlerRetry.MaxAttempts < 1 {
		return fmt.Errorf("handler_retry.max_attempts must be positive")
	}

	return nil
}

// IndexConfig represents the configuration for a single managed index.
type IndexConfig struct {
	// Name is the stable identity of the index, used as its cursor key
	Name string `yaml:"name" json:"name" toml:"name"`

	// Type is the registered index type (see `indexer list`)
	Type string `yaml:"type" json:"type" toml:"type"`

	// StartPoint is "origin" or "<slot>.<block hash>"; used when no cursor is stored
	StartPoint string `yaml:"start_point" json:"start_point" toml:"start_point"`

	// ForceRebuild ignores any stored cursor and starts from StartPoint
	ForceRebuild bool `yaml:"force_rebuild" json:"force_rebuild" toml:"force_rebuild"`

	// DB contains database configuration for indexes that persist to SQLite
	DB DatabaseConfig `yaml:"db" json:"db" toml:"db"`

	// Options holds type specific settings, e.g. the tracked address
	Options map[string]string `yaml:"options,omitempty" json:"options,omitempty" toml:"options,omitempty"`
}

// ApplyDefaults sets default values for optional index configuration fields.
func (i *IndexConfig) ApplyDefaults() {
	if i.StartPoint == "" {
		i.StartPoint = "origin"
	}
	i.DB.ApplyDefaults()
}

// Start parses StartPoint.
func (i *IndexConfig) Start() (chain.Point, error) {
	return chain.ParsePoint(i.StartPoint)
}

// Option returns the named type specific option, or def when unset.
func (i *IndexConfig) Option(name, def string) string {
	if v, ok := i.Options[name]; ok && v != "" {
		return v
	}
	return def
}

// LoggingConfig configures logging behavior with per-component log levels.
type LoggingConfig struct {
	// DefaultLevel is the default log level for all components
	// Options: "debug", "info", "warn", "error"
	DefaultLevel string `yaml:"default_level" json:"default_level" toml:"default_level"`

	// Development enables development mode (stack traces, console encoder)
	Development bool `yaml:"development" json:"development" toml:"development"`

	// ComponentLevels sets log levels for specific components
	// Available components:
	//   - chain-indexer: Registration and lifecycle of managed indexes
	//   - dispatch: Per-index dispatch loops
	//   - broadcast: Live event fan-out
	//   - cursor-store: Cursor persistence
	//   - journal: Event journal
	//   - feed: Node bridge websocket client
	//   - process: Hosting runtime
	//   - api: Status API
	//   - maintenance: Database maintenance
	//   - metrics: Prometheus metrics server
	ComponentLevels map[string]string `yaml:"component_levels,omitempty" json:"component_levels,omitempty" toml:"component_levels,omitempty"` //nolint:lll
}

// ApplyDefaults sets default values for optional logging configuration fields.
func (l *LoggingConfig) ApplyDefaults() {
	if l.DefaultLevel == "" {
		l.DefaultLevel = "info"
	}
	if l.ComponentLevels == nil {
		l.ComponentLevels = make(map[string]string)
	}
}

// Validate checks if the logging configuration is valid.
func (l *LoggingConfig) Validate() error {
	if l.DefaultLevel != "" {
		if _, valid := logger.ValidLogLevels[common.ToLowerWithTrim(l.DefaultLevel)]; !valid {
			return fmt.Errorf("logging.default_level: must be one of: debug, info, warn, error")
		}
	}

	for component, level := range l.ComponentLevels {
		if _, validComponent := common.AllComponents[common.ToLowerWithTrim(component)]; !validComponent {
			return fmt.Errorf("logging.component_levels: unknown component '%s'", component)
		}

		if _, valid := logger.ValidLogLevels[common.ToLowerWithTrim(level)]; !valid {
			return fmt.Errorf("logging.component_levels[%s]: must be one of: debug, info, warn, error", component)
		}
	}

	return nil
}

// GetComponentLevel returns the log level for a specific component.
// Falls back to DefaultLevel if no component-specific level is set.
func (l *LoggingConfig) GetComponentLevel(component string) string {
	if level, ok := l.ComponentLevels[component]; ok {
		return common.ToLowerWithTrim(level)
	}
	return common.ToLowerWithTrim(l.DefaultLevel)
}

// IsDevelopment returns whether development mode is enabled.
func (l *LoggingConfig) IsDevelopment() bool {
	return l.Development
}

// MetricsConfig configures Prometheus metrics exposition.
type MetricsConfig struct {
	// Enabled controls whether metrics collection and HTTP endpoint are active
	Enabled bool `yaml:"enabled" json:"enabled" toml:"enabled"`

	// ListenAddress is the address to bind the metrics HTTP server to
	// Format: "host:port" or ":port"
	ListenAddress string `yaml:"listen_address" json:"listen_address" toml:"listen_address"`

	// Path is the HTTP path where metrics are exposed
	Path string `yaml:"path" json:"path" toml:"path"`
}

// ApplyDefaults sets default values for optional metrics configuration fields.
func (m *MetricsConfig) ApplyDefaults() {
	if m.ListenAddress == "" {
		m.ListenAddress = ":9090"
	}
	if m.Path == "" {
		m.Path = "/metrics"
	}
}

// Validate checks if the metrics configuration is valid.
func (m *MetricsConfig) Validate() error {
	if m.Enabled {
		if m.ListenAddress == "" {
			return fmt.Errorf("listen_address is required when metrics are enabled")
		}
		if m.Path == "" {
			return fmt.Errorf("path is required when metrics are enabled")
		}
		if m.Path[0] != '/' {
			return fmt.Errorf("path must start with '/'")
		}
	}
	return nil
}

// APIConfig configures the status REST API.
type APIConfig struct {
	// Enabled controls whether the API server is started
	Enabled bool `yaml:"enabled" json:"enabled" toml:"enabled"`

	// ListenAddress is the address to bind the API server to
	ListenAddress string `yaml:"listen_address" json:"listen_address" toml:"listen_address"`

	// ReadTimeout is the maximum duration for reading a request
	ReadTimeout common.Duration `yaml:"read_timeout" json:"read_timeout" toml:"read_timeout"`

	// WriteTimeout is the maximum duration for writing a response
	WriteTimeout common.Duration `yaml:"write_timeout" json:"write_timeout" toml:"write_timeout"`

	// CORS configures cross origin requests
	CORS *CORSConfig `yaml:"cors,omitempty" json:"cors,omitempty" toml:"cors,omitempty"`
}

// CORSConfig configures the CORS middleware.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins" json:"allowed_origins" toml:"allowed_origins"`
}

// ApplyDefaults sets default values for optional API configuration fields.
func (a *APIConfig) ApplyDefaults() {
	if a.ListenAddress == "" {
		a.ListenAddress = ":8080"
	}
	if a.ReadTimeout.Duration == 0 {
		a.ReadTimeout = common.NewDuration(15 * time.Second) //nolint:mnd
	}
	if a.WriteTimeout.Duration == 0 {
		a.WriteTimeout = common.NewDuration(15 * time.Second) //nolint:mnd
	}
	if a.CORS == nil {
		a.CORS = &CORSConfig{AllowedOrigins: []string{"*"}}
	}
}

// ApplyDefaults sets default values for optional configuration fields.
func (c *Config) ApplyDefaults() {
	c.Upstream.ApplyDefaults()
	c.CursorStore.ApplyDefaults()
	c.Indexer.ApplyDefaults()

	for i := range c.Indexes {
		c.Indexes[i].ApplyDefaults()
	}

	if c.Logging == nil {
		c.Logging = &LoggingConfig{}
	}
	c.Logging.ApplyDefaults()

	if c.Metrics != nil {
		c.Metrics.ApplyDefaults()
	}

	if c.API != nil {
		c.API.ApplyDefaults()
	}
}

// StartAt makes start the starting point of every index. Indexes with a stored
// cursor still resume from it unless forceRebuild is set; without it each index
// keeps its configured force_rebuild.
func (c *Config) StartAt(start chain.Point, forceRebuild bool) {
	for i := range c.Indexes {
		c.Indexes[i].StartPoint = start.String()
		if forceRebuild {
			c.Indexes[i].ForceRebuild = true
		}
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := c.Upstream.Validate(); err != nil {
		return fmt.Errorf("upstream: %w", err)
	}

	if err := c.CursorStore.Validate(); err != nil {
		return fmt.Errorf("cursor_store: %w", err)
	}

	if err := c.Indexer.Validate(); err != nil {
		return fmt.Errorf("indexer: %w", err)
	}

	if c.Logging != nil {
		if err := c.Logging.Validate(); err != nil {
			return err
		}
	}

	if c.Metrics != nil {
		if err := c.Metrics.Validate(); err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
	}

	if len(c.Indexes) == 0 {
		return fmt.Errorf("at least one index must be configured")
	}

	names := make(map[string]bool)
	for i, index := range c.Indexes {
		if index.Name == "" {
			return fmt.Errorf("indexes[%d]: name is required", i)
		}

		if names[index.Name] {
			return fmt.Errorf("indexes[%d]: duplicate index name '%s'", i, index.Name)
		}
		names[index.Name] = true

		if index.Type == "" {
			return fmt.Errorf("indexes[%d] (%s): type is required", i, index.Name)
		}

		if _, err := index.Start(); err != nil {
			return fmt.Errorf("indexes[%d] (%s): start_point: %w", i, index.Name, err)
		}

		if err := index.DB.Validate(); err != nil {
			return fmt.Errorf("indexes[%d] (%s): db: %w", i, index.Name, err)
		}
	}

	return nil
}
