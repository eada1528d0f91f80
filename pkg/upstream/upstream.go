package upstream

import (
	"context"
	"errors"

	"github.com/SundaeSwap-finance/acropolis-indexer-sample/pkg/chain"
)

// Reader is a forward-only cursor over a sequence of chain events.
type Reader interface {
	// Next blocks until the next event is available.
	// Replay readers return io.EOF once they reach the tip captured when they were opened.
	Next(ctx context.Context) (chain.Event, error)
	Close() error
}

// Source supplies historical replay and a live tail of chain events.
// It must support many concurrent replay readers.
type Source interface {
	// Replay reads the log starting at the most recent occurrence of from, inclusive,
	// up to the tip at the time of the call. Origin replays the whole log.
	// Fails with ErrPointNotFound when from is unknown or was pruned.
	Replay(ctx context.Context, from chain.Point) (Reader, error)

	// Subscribe returns a reader of events appended after the call.
	Subscribe(ctx context.Context) (Reader, error)

	// Tip returns the point of the last event in the log.
	Tip(ctx context.Context) (chain.Point, error)
}

// Bounds describes the history a log currently holds.
type Bounds struct {
	// Tip is the point of the last event, Origin for an empty log
	Tip chain.Point
	// LastSeq is the sequence number of the last event, 0 for an empty log
	LastSeq uint64
	// PrunedBelow is the lowest slot still held; 0 when nothing was pruned
	PrunedBelow uint64
}

// Pruned reports whether the log lost the beginning of the chain.
func (b Bounds) Pruned() bool {
	return b.PrunedBelow > 0
}

// CheckAppend validates that ev may follow the current tip.
// Applies must stay in the tip block or move strictly past it.
// Rollbacks must target the tip or one of its ancestors still held by the log.
func (b Bounds) CheckAppend(ev chain.Event) error {
	if err := ev.Validate(); err != nil {
		return err
	}

	point := ev.Point()
	if ev.IsApply() {
		if point.After(b.Tip) || point.Equal(b.Tip) {
			return nil
		}

		return &OutOfOrderError{Tip: b.Tip, Event: ev}
	}

	if point.After(b.Tip) {
		return &OutOfOrderError{Tip: b.Tip, Event: ev}
	}

	// a block competing with the tip at its slot is not an ancestor
	if !point.IsOrigin() && point.Slot() == b.Tip.Slot() && !point.Equal(b.Tip) {
		return &OutOfOrderError{Tip: b.Tip, Event: ev}
	}

	if b.Pruned() && (point.IsOrigin() || point.Slot() < b.PrunedBelow) {
		return &RollbackBeyondKnownHistoryError{Target: point, PrunedBelow: b.PrunedBelow}
	}

	return nil
}

// Admit validates ev against the bounds and returns it as it must be appended.
// A rollback below the retained history is admitted with PrunedBelow set to the
// retention horizon; any other violation of CheckAppend is returned as is.
func (b Bounds) Admit(ev chain.Event) (chain.Event, error) {
	ev.PrunedBelow = 0

	err := b.CheckAppend(ev)

	var beyond *RollbackBeyondKnownHistoryError
	if errors.As(err, &beyond) {
		ev.PrunedBelow = beyond.PrunedBelow
		return ev, nil
	}
	if err != nil {
		return chain.Event{}, err
	}

	return ev, nil
}

// IsFatal reports whether err prevents a reader from making consistent progress,
// as opposed to a transient unavailability of the source.
func IsFatal(err error) bool {
	return IsPointNotFound(err) || IsRollbackBeyondKnownHistory(err)
}
