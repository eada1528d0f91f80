package indexer

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/SundaeSwap-finance/acropolis-indexer-sample/internal/broadcast"
	"github.com/SundaeSwap-finance/acropolis-indexer-sample/internal/metrics"
	"github.com/SundaeSwap-finance/acropolis-indexer-sample/internal/retry"
	"github.com/SundaeSwap-finance/acropolis-indexer-sample/pkg/chain"
	"github.com/SundaeSwap-finance/acropolis-indexer-sample/pkg/indexer"
	"github.com/SundaeSwap-finance/acropolis-indexer-sample/pkg/upstream"
)

// dispatch drives reg until ctx is done or the index fails.
// Upstream errors that are not fatal are retried from the current cursor with backoff.
func (i *ChainIndexer) dispatch(ctx context.Context, reg *registration) {
	reg.log.Infof("dispatch loop started at %s", reg.getCursor())
	defer reg.log.Info("dispatch loop stopped")

	attempt := 0
	for {
		seq := reg.lastSeq
		err := i.follow(ctx, reg)
		if isFatal(err) {
			i.fail(reg, err)
			return
		}

		if ctx.Err() != nil {
			return
		}

		if reg.lastSeq != seq {
			attempt = 0
		}
		attempt++

		reg.log.Warnf("upstream unavailable (attempt %d), resuming from %s: %v", attempt, reg.getCursor(), err)
		metrics.UpstreamRetryInc(reg.name)

		if retry.Wait(ctx, retry.Backoff(attempt+1, i.cfg.UpstreamRetry)) != nil {
			return
		}
	}
}

func isFatal(err error) bool {
	return errors.Is(err, ErrHandlerFailed) || errors.Is(err, ErrCursorStore) || upstream.IsFatal(err)
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, ErrHandlerFailed):
		return "handler"
	case errors.Is(err, ErrCursorStore):
		return "cursor_store"
	case errors.Is(err, upstream.ErrPointNotFound):
		return "point_not_found"
	case errors.Is(err, upstream.ErrRollbackBeyondKnownHistory):
		return "rollback_beyond_known_history"
	default:
		return "unknown"
	}
}

func (i *ChainIndexer) fail(reg *registration, err error) {
	reg.log.Errorf("index failed at %s, no further events are delivered until restarted: %v", reg.getCursor(), err)
	reg.setStatus(indexer.StatusFailed, err)
	metrics.IndexFailureInc(reg.name, failureReason(err))
}

// follow backfills reg up to the tip, promotes it to the live tail and keeps it there.
// A subscription that fell behind demotes reg back to backfill.
func (i *ChainIndexer) follow(ctx context.Context, reg *registration) error {
	for {
		reg.setStatus(indexer.StatusBackfilling, nil)

		if err := i.replay(ctx, reg); err != nil {
			return err
		}

		sub, err := i.live.Subscribe(ctx)
		if err != nil {
			return err
		}

		// events appended between the first replay and the subscription
		if err := i.replay(ctx, reg); err != nil {
			i.live.Unsubscribe(sub)
			return err
		}

		reg.setStatus(indexer.StatusLive, nil)
		reg.log.Infof("caught up at %s, following the live tail", reg.getCursor())

		err = i.tail(ctx, reg, sub)
		i.live.Unsubscribe(sub)

		if !errors.Is(err, broadcast.ErrOutOfCapacity) && !errors.Is(err, broadcast.ErrSourceReset) {
			return err
		}

		reason := "out_of_capacity"
		if errors.Is(err, broadcast.ErrSourceReset) {
			reason = "source_reset"
		}
		metrics.RegressionInc(reg.name, reason)
		reg.log.Warnf("fell behind the live tail at %s, back to backfill: %v", reg.getCursor(), err)
	}
}

// replay delivers every event from the cursor of reg up to the tip known when it started.
func (i *ChainIndexer) replay(ctx context.Context, reg *registration) error {
	reader, err := i.source.Replay(ctx, reg.getCursor())
	if err != nil {
		return err
	}
	defer func() {
		if err := reader.Close(); err != nil {
			reg.log.Debugf("failed to close replay reader: %v", err)
		}
	}()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		ev, err := reader.Next(ctx)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		if err := i.handle(ctx, reg, ev); err != nil {
			return err
		}
	}
}

// tail delivers live events until ctx is done or the subscription is canceled.
func (i *ChainIndexer) tail(ctx context.Context, reg *registration, sub *broadcast.Subscription) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-sub.Canceled():
			return sub.Err()
		case ev := <-sub.Out():
			if err := i.handle(ctx, reg, ev); err != nil {
				return err
			}
		}
	}
}

// handle applies one event to reg. Events already delivered in this run are skipped.
// Handler calls and the cursor save run to completion even if ctx is canceled meanwhile.
func (i *ChainIndexer) handle(ctx context.Context, reg *registration, ev chain.Event) error {
	if ev.Seq != 0 && ev.Seq <= reg.lastSeq {
		return nil
	}

	hctx := context.WithoutCancel(ctx)

	switch ev.Kind {
	case chain.EventApply:
		err := i.call(ctx, reg, "apply", func() error {
			return reg.index.HandleTx(hctx, ev.Block, *ev.Tx)
		})
		if err != nil {
			return i.handlerFailed(ctx, reg, ev, err)
		}
		metrics.EventHandledInc(reg.name, "applied")

	case chain.EventRollback:
		target := ev.Point()
		if !reg.getCursor().After(target) {
			reg.lastSeq = ev.Seq
			metrics.EventHandledInc(reg.name, "rollback_skipped")
			return nil
		}
		if ev.BeyondHistory() {
			return &upstream.RollbackBeyondKnownHistoryError{Target: target, PrunedBelow: ev.PrunedBelow}
		}

		err := i.call(ctx, reg, "rollback", func() error {
			return reg.index.HandleRollback(hctx, ev.Block)
		})
		if err != nil {
			return i.handlerFailed(ctx, reg, ev, err)
		}
		reg.log.Infof("rolled back from %s to %s", reg.getCursor(), target)
		metrics.EventHandledInc(reg.name, "rolled_back")

	default:
		reg.log.Warnf("ignoring event of unknown kind %q", ev.Kind)
		reg.lastSeq = ev.Seq
		return nil
	}

	reg.setCursor(ev.Point(), ev.Seq)

	return i.persist(hctx, reg)
}

// call runs one handler invocation, retrying it when handler retries are configured.
func (i *ChainIndexer) call(ctx context.Context, reg *registration, handler string, fn func() error) error {
	start := time.Now()
	defer func() {
		metrics.HandlerDurationLog(reg.name, handler, time.Since(start))
	}()

	if i.cfg.HandlerRetry == nil {
		return fn()
	}

	return retry.Do(ctx, i.cfg.HandlerRetry, reg.name+"."+handler, nil, func(context.Context) error {
		return fn()
	})
}

func (i *ChainIndexer) handlerFailed(ctx context.Context, reg *registration, ev chain.Event, err error) error {
	// retries interrupted by shutdown are not a failure of the index
	if ctx.Err() != nil && i.cfg.HandlerRetry != nil {
		return ctx.Err()
	}

	metrics.EventHandledInc(reg.name, "failed")

	return &HandlerError{Index: reg.name, Event: ev, Cause: err}
}

// persist saves the cursor of reg. Failures are tolerated until
// CursorSaveMaxFailures of them happened in a row.
func (i *ChainIndexer) persist(ctx context.Context, reg *registration) error {
	cursor := reg.getCursor()

	err := i.store.Save(ctx, reg.name, cursor)
	if err == nil {
		reg.saveFailures = 0
		return nil
	}

	reg.saveFailures++
	metrics.CursorSaveFailureInc(reg.name)
	reg.log.Warnf("failed to save cursor %s (%d in a row): %v", cursor, reg.saveFailures, err)

	if reg.saveFailures >= i.cfg.CursorSaveMaxFailures {
		return &CursorStoreError{Index: reg.name, Consecutive: reg.saveFailures, Cause: err}
	}

	return nil
}
