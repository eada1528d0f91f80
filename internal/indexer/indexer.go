// Package indexer drives managed indexes from a shared upstream event log.
//
// Every registered index owns one dispatch loop. The loop replays history from the
// cursor of its index, joins the shared live tail once it reached the tip, falls back
// to replay when it cannot keep up, and routes rollbacks only to indexes that are past
// the rollback target. A failing index is parked as failed without affecting the others.
package indexer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/SundaeSwap-finance/acropolis-indexer-sample/internal/broadcast"
	"github.com/SundaeSwap-finance/acropolis-indexer-sample/internal/common"
	"github.com/SundaeSwap-finance/acropolis-indexer-sample/internal/logger"
	"github.com/SundaeSwap-finance/acropolis-indexer-sample/internal/metrics"
	"github.com/SundaeSwap-finance/acropolis-indexer-sample/pkg/chain"
	"github.com/SundaeSwap-finance/acropolis-indexer-sample/pkg/config"
	"github.com/SundaeSwap-finance/acropolis-indexer-sample/pkg/cursor"
	"github.com/SundaeSwap-finance/acropolis-indexer-sample/pkg/indexer"
	"github.com/SundaeSwap-finance/acropolis-indexer-sample/pkg/upstream"
)

type runState int

const (
	stateIdle runState = iota
	stateRunning
	stateStopped
)

var allStatuses = []string{
	string(indexer.StatusBackfilling),
	string(indexer.StatusLive),
	string(indexer.StatusFailed),
	string(indexer.StatusStopped),
}

// registration is the mutable state behind an indexer.Registration.
// cursor, lastSeq and saveFailures belong to the dispatch loop while it runs.
type registration struct {
	id           indexer.RegistrationID
	name         string
	index        indexer.ManagedIndex
	start        chain.Point
	forceRebuild bool
	log          *logger.Logger

	lastSeq      uint64
	saveFailures int

	mu        sync.RWMutex
	cursor    chain.Point
	status    indexer.Status
	lastErr   error
	updatedAt time.Time

	// done is closed when the dispatch loop exits; nil until started
	done chan struct{}
}

func (r *registration) getCursor() chain.Point {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.cursor
}

func (r *registration) getStatus() indexer.Status {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.status
}

func (r *registration) setCursor(p chain.Point, seq uint64) {
	r.mu.Lock()
	r.cursor = p
	r.updatedAt = time.Now()
	r.mu.Unlock()

	r.lastSeq = seq
	metrics.CursorSlotSet(r.name, p.Slot())
}

func (r *registration) setStatus(status indexer.Status, err error) {
	r.mu.Lock()
	changed := r.status != status
	r.status = status
	r.lastErr = err
	r.updatedAt = time.Now()
	r.mu.Unlock()

	if changed {
		metrics.IndexStatusSet(r.name, string(status), allStatuses)
	}
}

func (r *registration) snapshot() indexer.Registration {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := indexer.Registration{
		ID:           r.id,
		Name:         r.name,
		StartPoint:   r.start,
		ForceRebuild: r.forceRebuild,
		Status:       r.status,
		Cursor:       r.cursor,
		UpdatedAt:    r.updatedAt,
	}
	if r.lastErr != nil {
		s.LastError = r.lastErr.Error()
	}

	return s
}

// ChainIndexer owns the registry of managed indexes and runs their dispatch loops.
type ChainIndexer struct {
	store  cursor.Store
	source upstream.Source
	cfg    config.IndexerConfig
	log    *logger.Logger

	mu    sync.Mutex
	regs  map[string]*registration
	order []string
	// retired holds registrations replaced after they failed; closed on shutdown
	retired []*registration
	state   runState
	runCtx  context.Context
	live    *broadcast.Broadcaster
	wg      sync.WaitGroup
}

// New creates a chain indexer reading from source and persisting cursors in store.
func New(store cursor.Store, source upstream.Source, cfg config.IndexerConfig, log *logger.Logger) *ChainIndexer {
	cfg.ApplyDefaults()

	return &ChainIndexer{
		store:  store,
		source: source,
		cfg:    cfg,
		log:    log.WithComponent(common.ComponentChainIndexer),
		regs:   make(map[string]*registration),
	}
}

func (i *ChainIndexer) Name() string { return common.ComponentChainIndexer }

// AddIndex registers idx. Its cursor is loaded from the store unless forceRebuild is
// set or nothing was saved yet, in which case delivery starts at start.
// When the indexer is running the dispatch loop starts right away.
func (i *ChainIndexer) AddIndex(ctx context.Context, idx indexer.ManagedIndex, start chain.Point,
	forceRebuild bool) (indexer.RegistrationID, error) {
	name := idx.Name()
	if name == "" {
		return "", fmt.Errorf("index has no name")
	}

	if err := i.checkAvailable(name); err != nil {
		return "", err
	}

	initial := start
	if !forceRebuild {
		stored, ok, err := i.store.Load(ctx, name)
		if err != nil {
			return "", &CursorStoreError{Index: name, Consecutive: 1, Cause: fmt.Errorf("failed to load cursor: %w", err)}
		}
		if ok {
			initial = stored
		}
	}

	reg := &registration{
		id:           indexer.NewRegistrationID(),
		name:         name,
		index:        idx,
		start:        start,
		forceRebuild: forceRebuild,
		log:          i.log.WithComponent(common.ComponentDispatch).WithIndex(name),
		cursor:       initial,
		status:       indexer.StatusBackfilling,
		updatedAt:    time.Now(),
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	if err := i.checkAvailableLocked(name); err != nil {
		return "", err
	}

	if prev, ok := i.regs[name]; ok {
		i.retired = append(i.retired, prev)
	} else {
		i.order = append(i.order, name)
	}
	i.regs[name] = reg
	metrics.IndexStatusSet(name, string(reg.status), allStatuses)
	metrics.CursorSlotSet(name, initial.Slot())

	i.log.Infof("registered index %s (id %s) at %s, force rebuild: %t", name, reg.id, initial, forceRebuild)

	if i.state == stateRunning {
		i.startLocked(reg)
	}

	return reg.id, nil
}

func (i *ChainIndexer) checkAvailable(name string) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	return i.checkAvailableLocked(name)
}

func (i *ChainIndexer) checkAvailableLocked(name string) error {
	if i.state == stateStopped {
		return ErrStopped
	}
	if prev, ok := i.regs[name]; ok && prev.getStatus().Active() {
		return &DuplicateNameError{Name: name}
	}

	return nil
}

// Run starts the live broadcast and one dispatch loop per registration and blocks
// until ctx is done. It then waits for every loop to finish its in-flight handler
// call, marks the registrations stopped and closes the indexes.
// Failures of individual indexes never surface here; Run only fails when it cannot start.
func (i *ChainIndexer) Run(ctx context.Context) error {
	i.mu.Lock()
	if i.state != stateIdle {
		i.mu.Unlock()
		return ErrAlreadyRunning
	}
	i.state = stateRunning
	i.mu.Unlock()

	live := broadcast.New(i.source, i.cfg.LiveBufferSize, i.cfg.UpstreamRetry, i.log)
	if err := live.Open(ctx); err != nil {
		i.mu.Lock()
		i.state = stateIdle
		i.mu.Unlock()

		return fmt.Errorf("failed to subscribe to the upstream live tail: %w", err)
	}

	pumpDone := make(chan struct{})
	go func() {
		defer close(pumpDone)
		if err := live.Run(ctx); err != nil {
			i.log.Errorf("live broadcast stopped: %v", err)
		}
	}()

	i.mu.Lock()
	i.live = live
	i.runCtx = ctx
	started := 0
	for _, name := range i.order {
		if reg := i.regs[name]; reg.getStatus().Active() {
			i.startLocked(reg)
			started++
		}
	}
	i.mu.Unlock()

	metrics.ComponentHealthSet(common.ComponentChainIndexer, true)
	i.log.Infof("chain indexer started with %d indexes", started)

	<-ctx.Done()

	i.log.Info("shutting down, waiting for in-flight handlers")

	i.mu.Lock()
	i.state = stateStopped
	i.mu.Unlock()

	i.wg.Wait()
	<-pumpDone

	i.mu.Lock()
	defer i.mu.Unlock()

	for _, name := range i.order {
		reg := i.regs[name]
		if reg.getStatus().Active() {
			reg.setStatus(indexer.StatusStopped, nil)
		}
		i.closeIndex(reg)
	}
	for _, reg := range i.retired {
		i.closeIndex(reg)
	}

	metrics.ComponentHealthSet(common.ComponentChainIndexer, false)
	i.log.Info("chain indexer stopped")

	return nil
}

func (i *ChainIndexer) closeIndex(reg *registration) {
	closer, ok := reg.index.(indexer.Closer)
	if !ok {
		return
	}

	if err := closer.Close(); err != nil {
		reg.log.Warnf("failed to close index: %v", err)
	}
}

// startLocked spawns the dispatch loop of reg. i.mu must be held.
func (i *ChainIndexer) startLocked(reg *registration) {
	done := make(chan struct{})
	reg.done = done

	i.wg.Add(1)
	go func(ctx context.Context) {
		defer i.wg.Done()
		defer close(done)

		i.dispatch(ctx, reg)
	}(i.runCtx)
}

// Restart resumes a failed index from its persisted cursor, falling back to its
// start point when no cursor was ever saved.
func (i *ChainIndexer) Restart(ctx context.Context, name string) error {
	i.mu.Lock()
	reg, ok := i.regs[name]
	switch {
	case !ok:
		i.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownIndex, name)
	case i.state == stateStopped:
		i.mu.Unlock()
		return ErrStopped
	case reg.getStatus() != indexer.StatusFailed:
		i.mu.Unlock()
		return fmt.Errorf("%w: %s is %s", ErrNotFailed, name, reg.getStatus())
	}
	done := reg.done
	i.mu.Unlock()

	if done != nil {
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	resume, saved, err := i.store.Load(ctx, name)
	if err != nil {
		return &CursorStoreError{Index: name, Consecutive: 1, Cause: fmt.Errorf("failed to load cursor: %w", err)}
	}
	if !saved {
		resume = reg.start
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	if i.regs[name] != reg || reg.getStatus() != indexer.StatusFailed {
		return fmt.Errorf("%w: %s changed while restarting", ErrNotFailed, name)
	}

	reg.setCursor(resume, 0)
	reg.saveFailures = 0
	reg.setStatus(indexer.StatusBackfilling, nil)
	i.log.Infof("restarting index %s from %s", name, resume)

	if i.state == stateRunning {
		i.startLocked(reg)
	}

	return nil
}

// Registrations returns a snapshot of every registration in registration order.
func (i *ChainIndexer) Registrations() []indexer.Registration {
	i.mu.Lock()
	defer i.mu.Unlock()

	out := make([]indexer.Registration, 0, len(i.order))
	for _, name := range i.order {
		out = append(out, i.regs[name].snapshot())
	}

	return out
}

// Registration returns a snapshot of the registration named name.
func (i *ChainIndexer) Registration(name string) (indexer.Registration, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()

	reg, ok := i.regs[name]
	if !ok {
		return indexer.Registration{}, false
	}

	return reg.snapshot(), true
}
