// Package journal is a SQLite-backed append-only event log implementing upstream.Source.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/SundaeSwap-finance/acropolis-indexer-sample/internal/common"
	"github.com/SundaeSwap-finance/acropolis-indexer-sample/internal/db"
	"github.com/SundaeSwap-finance/acropolis-indexer-sample/internal/logger"
	"github.com/SundaeSwap-finance/acropolis-indexer-sample/internal/upstream/journal/migrations"
	"github.com/SundaeSwap-finance/acropolis-indexer-sample/pkg/chain"
	"github.com/SundaeSwap-finance/acropolis-indexer-sample/pkg/config"
	"github.com/SundaeSwap-finance/acropolis-indexer-sample/pkg/upstream"
	"github.com/russross/meddler"
)

const (
	readBatchSize = 256
	modeReplay    = "replay"
	modeLive      = "live"
)

var _ upstream.Source = (*Journal)(nil)

// Journal stores chain events in SQLite, numbered by an autoincrement sequence.
// Appends are validated against the current tip so the stored log is always consistent.
type Journal struct {
	db           *sql.DB
	maintenance  db.Maintenance
	pollInterval time.Duration
	retention    *config.RetentionPolicyConfig
	log          *logger.Logger

	// appendMu serializes appends and pruning
	appendMu sync.Mutex

	wakeMu sync.Mutex
	wake   chan struct{}

	closeOnce sync.Once
	closed    chan struct{}
}

// New opens (and migrates) the journal database described by cfg.
func New(cfg config.UpstreamConfig, log *logger.Logger) (*Journal, error) {
	log = log.WithComponent(common.ComponentJournal)

	sqlDB, err := db.NewSQLiteDBFromConfig(cfg.DB)
	if err != nil {
		return nil, err
	}

	if err := db.RunMigrationsDB(log, sqlDB, migrations.Migrations()); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to migrate journal: %w", err)
	}

	pollInterval := cfg.PollInterval.Duration
	if pollInterval <= 0 {
		pollInterval = 500 * time.Millisecond //nolint:mnd
	}

	return &Journal{
		db:           sqlDB,
		maintenance:  db.NewMaintenanceCoordinator("journal", cfg.DB.Path, sqlDB, cfg.Maintenance, log),
		pollInterval: pollInterval,
		retention:    cfg.RetentionPolicy,
		log:          log,
		wake:         make(chan struct{}),
		closed:       make(chan struct{}),
	}, nil
}

// Name identifies the journal as a hosted unit.
func (j *Journal) Name() string {
	return common.ComponentJournal
}

// Run drives database maintenance and the retention policy until ctx is done.
func (j *Journal) Run(ctx context.Context) error {
	if err := j.maintenance.Start(ctx); err != nil {
		return fmt.Errorf("failed to start journal maintenance: %w", err)
	}
	defer func() {
		if err := j.maintenance.Stop(); err != nil {
			j.log.Warnf("failed to stop journal maintenance: %v", err)
		}
	}()

	if !j.retention.IsEnabled() {
		<-ctx.Done()
		return nil
	}

	interval := j.retention.CheckInterval.Duration
	if interval <= 0 {
		interval = time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := j.Prune(ctx); err != nil {
				j.log.Errorf("retention policy failed: %v", err)
			}
		}
	}
}

// Append validates ev against the tip and stores it, returning the event with its Seq set.
func (j *Journal) Append(ctx context.Context, ev chain.Event) (chain.Event, error) {
	unlock := j.maintenance.AcquireOperationLock()
	defer unlock()

	j.appendMu.Lock()
	defer j.appendMu.Unlock()

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return chain.Event{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer j.rollback(tx)

	bounds, err := j.bounds(tx)
	if err != nil {
		return chain.Event{}, err
	}

	admitted, err := bounds.Admit(ev)
	if err != nil {
		eventRejectedInc(string(ev.Kind))
		return chain.Event{}, err
	}
	ev = admitted
	if ev.BeyondHistory() {
		j.log.Warnf("journaling %s below the retained history starting at slot %d", ev, ev.PrunedBelow)
	}

	row := newEventRow(ev)
	if err := meddler.Insert(tx, "events", row); err != nil {
		return chain.Event{}, fmt.Errorf("failed to insert event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return chain.Event{}, fmt.Errorf("failed to commit transaction: %w", err)
	}

	ev.Seq = uint64(row.Seq)
	eventAppendedInc(string(ev.Kind), ev.Block.Slot)
	j.notify()

	j.log.Debugf("appended %s as #%d", ev, ev.Seq)

	return ev, nil
}

// Bounds reports the tip and the retained history of the journal.
func (j *Journal) Bounds(ctx context.Context) (upstream.Bounds, error) {
	unlock := j.maintenance.AcquireOperationLock()
	defer unlock()

	return j.bounds(j.db)
}

// Last returns the most recently appended event, if any.
func (j *Journal) Last(ctx context.Context) (chain.Event, bool, error) {
	unlock := j.maintenance.AcquireOperationLock()
	defer unlock()

	var last eventRow
	err := meddler.QueryRow(j.db, &last, `SELECT * FROM events ORDER BY seq DESC LIMIT 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return chain.Event{}, false, nil
	}
	if err != nil {
		return chain.Event{}, false, fmt.Errorf("failed to read journal tip: %w", err)
	}

	ev, err := last.event()
	if err != nil {
		return chain.Event{}, false, err
	}

	return ev, true, nil
}

// Tip returns the point of the last event.
func (j *Journal) Tip(ctx context.Context) (chain.Point, error) {
	bounds, err := j.Bounds(ctx)
	if err != nil {
		return chain.Point{}, upstream.Unavailable(err)
	}

	return bounds.Tip, nil
}

// Replay opens a reader from the most recent occurrence of from up to the current tip.
func (j *Journal) Replay(ctx context.Context, from chain.Point) (upstream.Reader, error) {
	if j.isClosed() {
		return nil, upstream.ErrClosed
	}

	unlock := j.maintenance.AcquireOperationLock()
	defer unlock()

	state, err := j.state(j.db)
	if err != nil {
		return nil, upstream.Unavailable(err)
	}

	start, err := j.start(from, state)
	if err != nil {
		return nil, err
	}

	bounds, err := j.bounds(j.db)
	if err != nil {
		return nil, upstream.Unavailable(err)
	}

	j.log.Debugf("replay from %s opened at #%d..#%d", from, start, bounds.LastSeq)

	return newReader(j, from, start, bounds.LastSeq, false), nil
}

// Subscribe opens a reader of events appended from now on.
func (j *Journal) Subscribe(ctx context.Context) (upstream.Reader, error) {
	if j.isClosed() {
		return nil, upstream.ErrClosed
	}

	bounds, err := j.Bounds(ctx)
	if err != nil {
		return nil, upstream.Unavailable(err)
	}

	return newReader(j, bounds.Tip, bounds.LastSeq+1, 0, true), nil
}

// Prune enforces the retention policy: events of blocks more than MaxSlots behind the
// tip are deleted. Returns the number of deleted events.
func (j *Journal) Prune(ctx context.Context) (int64, error) {
	if !j.retention.IsEnabled() {
		return 0, nil
	}

	unlock := j.maintenance.AcquireOperationLock()
	defer unlock()

	j.appendMu.Lock()
	defer j.appendMu.Unlock()

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer j.rollback(tx)

	bounds, err := j.bounds(tx)
	if err != nil {
		return 0, err
	}

	if bounds.Tip.IsOrigin() || bounds.Tip.Slot() <= j.retention.MaxSlots {
		return 0, nil
	}
	horizon := bounds.Tip.Slot() - j.retention.MaxSlots
	if horizon <= bounds.PrunedBelow {
		return 0, nil
	}

	var firstKept sql.NullInt64
	err = tx.QueryRowContext(ctx,
		`SELECT MIN(seq) FROM events WHERE kind = ? AND slot >= ?`, string(chain.EventApply), horizon,
	).Scan(&firstKept)
	if err != nil {
		return 0, fmt.Errorf("failed to find retention boundary: %w", err)
	}
	if !firstKept.Valid {
		return 0, nil
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM events WHERE seq < ?`, firstKept.Int64)
	if err != nil {
		return 0, fmt.Errorf("failed to prune events: %w", err)
	}
	deleted, _ := result.RowsAffected()

	_, err = tx.ExecContext(ctx,
		`UPDATE journal_state SET pruned_below = ?, pruned_seq = ? WHERE id = 1`,
		horizon, firstKept.Int64-1,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to update retention horizon: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	retentionEventsPrunedInc(deleted)
	j.log.Infof("pruned %d events below slot %d", deleted, horizon)

	return deleted, nil
}

// Close wakes all readers and closes the database.
func (j *Journal) Close() error {
	j.closeOnce.Do(func() { close(j.closed) })

	if err := j.maintenance.Stop(); err != nil {
		j.log.Warnf("failed to stop journal maintenance: %v", err)
	}

	return j.db.Close()
}

func (j *Journal) isClosed() bool {
	select {
	case <-j.closed:
		return true
	default:
		return false
	}
}

// notify wakes readers waiting for new events.
func (j *Journal) notify() {
	j.wakeMu.Lock()
	close(j.wake)
	j.wake = make(chan struct{})
	j.wakeMu.Unlock()
}

func (j *Journal) wakeChan() <-chan struct{} {
	j.wakeMu.Lock()
	defer j.wakeMu.Unlock()

	return j.wake
}

func (j *Journal) rollback(tx *sql.Tx) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		j.log.Errorf("failed to rollback transaction: %v", err)
	}
}

func (j *Journal) state(q meddler.DB) (*stateRow, error) {
	var state stateRow
	if err := meddler.QueryRow(q, &state, `SELECT * FROM journal_state WHERE id = 1`); err != nil {
		return nil, fmt.Errorf("failed to read journal state: %w", err)
	}

	return &state, nil
}

func (j *Journal) bounds(q meddler.DB) (upstream.Bounds, error) {
	state, err := j.state(q)
	if err != nil {
		return upstream.Bounds{}, err
	}

	bounds := upstream.Bounds{
		LastSeq:     state.PrunedSeq,
		PrunedBelow: state.PrunedBelow,
	}

	var last eventRow
	err = meddler.QueryRow(q, &last, `SELECT * FROM events ORDER BY seq DESC LIMIT 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return bounds, nil
	}
	if err != nil {
		return upstream.Bounds{}, fmt.Errorf("failed to read journal tip: %w", err)
	}

	ev, err := last.event()
	if err != nil {
		return upstream.Bounds{}, err
	}

	bounds.Tip = ev.Point()
	bounds.LastSeq = ev.Seq

	return bounds, nil
}

// start finds the Seq a replay from p begins at: the first transaction of the latest
// run of block p, or the latest rollback to p.
func (j *Journal) start(p chain.Point, state *stateRow) (uint64, error) {
	if p.IsOrigin() {
		if state.PrunedSeq > 0 {
			return 0, &upstream.PointNotFoundError{Point: p}
		}
		return 1, nil
	}

	var latest eventRow
	err := meddler.QueryRow(j.db, &latest,
		`SELECT * FROM events WHERE slot = ? AND block_hash = ? ORDER BY seq DESC LIMIT 1`,
		p.Slot(), p.Hash().String(),
	)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, &upstream.PointNotFoundError{Point: p}
	}
	if err != nil {
		return 0, upstream.Unavailable(fmt.Errorf("failed to look up %s: %w", p, err))
	}

	if latest.Kind != string(chain.EventApply) {
		return uint64(latest.Seq), nil
	}

	var previous sql.NullInt64
	err = j.db.QueryRow(`
		SELECT MAX(seq) FROM events
		WHERE seq < ? AND NOT (kind = ? AND slot = ? AND block_hash = ?)`,
		latest.Seq, string(chain.EventApply), p.Slot(), p.Hash().String(),
	).Scan(&previous)
	if err != nil {
		return 0, upstream.Unavailable(fmt.Errorf("failed to look up %s: %w", p, err))
	}

	if !previous.Valid {
		return state.PrunedSeq + 1, nil
	}

	return uint64(previous.Int64) + 1, nil
}

// fetch reads up to limit events starting at seq.
func (j *Journal) fetch(seq uint64, limit int) ([]chain.Event, error) {
	unlock := j.maintenance.AcquireOperationLock()
	defer unlock()

	var rows []*eventRow
	err := meddler.QueryAll(j.db, &rows,
		`SELECT * FROM events WHERE seq >= ? ORDER BY seq ASC LIMIT ?`, seq, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to read events from #%d: %w", seq, err)
	}

	events := make([]chain.Event, 0, len(rows))
	for _, row := range rows {
		ev, err := row.event()
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}

	return events, nil
}
