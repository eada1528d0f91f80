package cursor

import (
	"context"
	"fmt"

	"github.com/SundaeSwap-finance/acropolis-indexer-sample/internal/logger"
	"github.com/SundaeSwap-finance/acropolis-indexer-sample/pkg/config"
	"github.com/SundaeSwap-finance/acropolis-indexer-sample/pkg/cursor"
)

// New builds the cursor store backend selected by cfg.
func New(ctx context.Context, cfg config.CursorStoreConfig, maintenanceCfg *config.MaintenanceConfig,
	log *logger.Logger) (cursor.ClosableStore, error) {
	switch cfg.Backend {
	case config.CursorBackendMemory:
		return NewMemoryStore(), nil
	case config.CursorBackendSQLite:
		return NewSQLiteStore(cfg.DB, maintenanceCfg, log)
	case config.CursorBackendRedis:
		return NewRedisStore(ctx, cfg.RedisURL, cfg.KeyPrefix, cfg.Timeout.Duration, log)
	case config.CursorBackendPostgres:
		return NewPostgresStore(ctx, cfg.PostgresDSN, cfg.Timeout.Duration, log)
	default:
		return nil, fmt.Errorf("unknown cursor store backend: %s", cfg.Backend)
	}
}
