package cursor

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/SundaeSwap-finance/acropolis-indexer-sample/internal/common"
	"github.com/SundaeSwap-finance/acropolis-indexer-sample/internal/logger"
	"github.com/SundaeSwap-finance/acropolis-indexer-sample/pkg/chain"
	"github.com/SundaeSwap-finance/acropolis-indexer-sample/pkg/cursor"
	"github.com/lib/pq"
)

const postgresTable = "indexer_cursors"

// PostgresStore persists cursors in a PostgreSQL table.
type PostgresStore struct {
	db      *sql.DB
	table   string
	timeout time.Duration
	log     *logger.Logger
}

var (
	_ cursor.ClosableStore = (*PostgresStore)(nil)
	_ cursor.Lister        = (*PostgresStore)(nil)
)

// NewPostgresStore connects to dsn and creates the cursor table if needed.
func NewPostgresStore(ctx context.Context, dsn string, timeout time.Duration,
	log *logger.Logger) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(30 * time.Minute)

	s := &PostgresStore{
		db:      db,
		table:   pq.QuoteIdentifier(postgresTable),
		timeout: timeout,
		log:     log.WithComponent(common.ComponentCursorStore),
	}

	initCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := db.PingContext(initCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.ExecContext(initCtx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			name        TEXT PRIMARY KEY,
			is_origin   BOOLEAN NOT NULL,
			slot        BIGINT NOT NULL,
			block_hash  BYTEA,
			updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, s.table)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create %s: %w", postgresTable, err)
	}

	return s, nil
}

func scanPoint(isOrigin bool, slot int64, hash []byte) (chain.Point, error) {
	if isOrigin {
		return chain.Origin(), nil
	}

	var h chain.BlockHash
	if len(hash) != len(h) {
		return chain.Point{}, fmt.Errorf("expected length %d for hash, but got %d", len(h), len(hash))
	}
	copy(h[:], hash)

	return chain.Specific(uint64(slot), h), nil
}

func (s *PostgresStore) Load(ctx context.Context, name string) (chain.Point, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var (
		isOrigin bool
		slot     int64
		hash     []byte
	)

	err := s.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT is_origin, slot, block_hash FROM %s WHERE name = $1`, s.table), name,
	).Scan(&isOrigin, &slot, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return chain.Point{}, false, nil
	}
	if err != nil {
		return chain.Point{}, false, fmt.Errorf("failed to load cursor %s: %w", name, err)
	}

	p, err := scanPoint(isOrigin, slot, hash)
	if err != nil {
		return chain.Point{}, false, fmt.Errorf("corrupt cursor %s: %w", name, err)
	}

	return p, true, nil
}

func (s *PostgresStore) Save(ctx context.Context, name string, point chain.Point) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var hash []byte
	if !point.IsOrigin() {
		h := point.Hash()
		hash = h[:]
	}

	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (name, is_origin, slot, block_hash, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (name) DO UPDATE SET
			is_origin = EXCLUDED.is_origin,
			slot = EXCLUDED.slot,
			block_hash = EXCLUDED.block_hash,
			updated_at = EXCLUDED.updated_at`, s.table),
		name, point.IsOrigin(), int64(point.Slot()), hash, //nolint:gosec
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			return fmt.Errorf("failed to save cursor %s (%s): %w", name, pqErr.Code.Name(), err)
		}
		return fmt.Errorf("failed to save cursor %s: %w", name, err)
	}

	return nil
}

func (s *PostgresStore) List(ctx context.Context) (map[string]chain.Point, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT name, is_origin, slot, block_hash FROM %s ORDER BY name`, s.table))
	if err != nil {
		return nil, fmt.Errorf("failed to list cursors: %w", err)
	}
	defer rows.Close()

	out := make(map[string]chain.Point)
	for rows.Next() {
		var (
			name     string
			isOrigin bool
			slot     int64
			hash     []byte
		)
		if err := rows.Scan(&name, &isOrigin, &slot, &hash); err != nil {
			return nil, err
		}

		p, err := scanPoint(isOrigin, slot, hash)
		if err != nil {
			s.log.Warnf("skipping corrupt cursor %s: %v", name, err)
			continue
		}
		out[name] = p
	}

	return out, rows.Err()
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
