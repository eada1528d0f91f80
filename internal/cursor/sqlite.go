package cursor

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/SundaeSwap-finance/acropolis-indexer-sample/internal/common"
	"github.com/SundaeSwap-finance/acropolis-indexer-sample/internal/cursor/migrations"
	"github.com/SundaeSwap-finance/acropolis-indexer-sample/internal/db"
	"github.com/SundaeSwap-finance/acropolis-indexer-sample/internal/logger"
	"github.com/SundaeSwap-finance/acropolis-indexer-sample/pkg/chain"
	"github.com/SundaeSwap-finance/acropolis-indexer-sample/pkg/config"
	"github.com/SundaeSwap-finance/acropolis-indexer-sample/pkg/cursor"
	"github.com/russross/meddler"
)

type cursorRow struct {
	Name      string          `meddler:"name"`
	IsOrigin  bool            `meddler:"is_origin"`
	Slot      uint64          `meddler:"slot"`
	BlockHash chain.BlockHash `meddler:"block_hash,blockhash"`
	UpdatedAt int64           `meddler:"updated_at"`
}

func (r *cursorRow) point() chain.Point {
	if r.IsOrigin {
		return chain.Origin()
	}
	return chain.Specific(r.Slot, r.BlockHash)
}

// SQLiteStore persists cursors in a SQLite table.
type SQLiteStore struct {
	db          *sql.DB
	maintenance db.Maintenance
	log         *logger.Logger
}

var (
	_ cursor.ClosableStore = (*SQLiteStore)(nil)
	_ cursor.Lister        = (*SQLiteStore)(nil)
)

// NewSQLiteStore opens (and migrates) the cursor database described by cfg.
// maintenanceCfg may be nil.
func NewSQLiteStore(
	cfg config.DatabaseConfig,
	maintenanceCfg *config.MaintenanceConfig,
	log *logger.Logger,
) (*SQLiteStore, error) {
	log = log.WithComponent(common.ComponentCursorStore)

	sqlDB, err := db.NewSQLiteDBFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	if err := db.RunMigrationsDB(log, sqlDB, migrations.Migrations()); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to migrate cursor store: %w", err)
	}

	return &SQLiteStore{
		db:          sqlDB,
		maintenance: db.NewMaintenanceCoordinator("cursors", cfg.Path, sqlDB, maintenanceCfg, log),
		log:         log,
	}, nil
}

// Maintenance exposes the maintenance coordinator so the host can start it.
func (s *SQLiteStore) Maintenance() db.Maintenance {
	return s.maintenance
}

func (s *SQLiteStore) Load(ctx context.Context, name string) (chain.Point, bool, error) {
	unlock := s.maintenance.AcquireOperationLock()
	defer unlock()

	var row cursorRow
	err := meddler.QueryRow(s.db, &row, `SELECT * FROM cursors WHERE name = ?`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return chain.Point{}, false, nil
	}
	if err != nil {
		return chain.Point{}, false, fmt.Errorf("failed to load cursor %s: %w", name, err)
	}

	return row.point(), true, nil
}

func (s *SQLiteStore) Save(ctx context.Context, name string, point chain.Point) error {
	unlock := s.maintenance.AcquireOperationLock()
	defer unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cursors (name, is_origin, slot, block_hash, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			is_origin = excluded.is_origin,
			slot = excluded.slot,
			block_hash = excluded.block_hash,
			updated_at = excluded.updated_at`,
		name, point.IsOrigin(), point.Slot(), point.Hash().String(), time.Now().UTC().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to save cursor %s: %w", name, err)
	}

	s.log.Debugf("saved cursor %s at %s", name, point)

	return nil
}

func (s *SQLiteStore) List(ctx context.Context) (map[string]chain.Point, error) {
	unlock := s.maintenance.AcquireOperationLock()
	defer unlock()

	var rows []*cursorRow
	if err := meddler.QueryAll(s.db, &rows, `SELECT * FROM cursors ORDER BY name`); err != nil {
		return nil, fmt.Errorf("failed to list cursors: %w", err)
	}

	out := make(map[string]chain.Point, len(rows))
	for _, row := range rows {
		out[row.Name] = row.point()
	}

	return out, nil
}

func (s *SQLiteStore) Close() error {
	if err := s.maintenance.Stop(); err != nil {
		s.log.Warnf("failed to stop cursor db maintenance: %v", err)
	}

	return s.db.Close()
}
