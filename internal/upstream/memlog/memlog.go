// Package memlog is an in-memory append-only event log implementing upstream.Source.
package memlog

import (
	"context"
	"io"
	"sync"
	"sync/atomic"

	"github.com/SundaeSwap-finance/acropolis-indexer-sample/pkg/chain"
	"github.com/SundaeSwap-finance/acropolis-indexer-sample/pkg/upstream"
)

var _ upstream.Source = (*Log)(nil)

// Log holds chain events in memory and numbers them densely from 1.
type Log struct {
	mu sync.RWMutex

	events []chain.Event
	// base is the number of events pruned from the front; events[i].Seq == base+i+1
	base        uint64
	prunedBelow uint64
	tip         chain.Point

	// wake is closed and replaced whenever the log changes
	wake   chan struct{}
	closed bool
}

// New creates an empty log.
func New() *Log {
	return &Log{wake: make(chan struct{})}
}

// Append validates ev against the tip and appends it, returning the event with its Seq set.
// Rollbacks below the retained history are appended marked with the retention horizon.
func (l *Log) Append(ev chain.Event) (chain.Event, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return chain.Event{}, upstream.ErrClosed
	}

	ev, err := l.boundsLocked().Admit(ev)
	if err != nil {
		return chain.Event{}, err
	}

	ev.Seq = l.base + uint64(len(l.events)) + 1
	l.events = append(l.events, ev)
	l.tip = ev.Point()

	close(l.wake)
	l.wake = make(chan struct{})

	return ev, nil
}

// Apply appends the application of tx in block.
func (l *Log) Apply(block chain.BlockInfo, tx chain.Tx) (chain.Event, error) {
	return l.Append(chain.ApplyEvent(block, tx))
}

// Rollback appends a rollback to target.
func (l *Log) Rollback(target chain.BlockInfo) (chain.Event, error) {
	return l.Append(chain.RollbackEvent(target))
}

// Prune drops leading events positioned below slot and returns how many were dropped.
// Replays from dropped points fail with upstream.ErrPointNotFound afterwards.
func (l *Log) Prune(slot uint64) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := 0
	for n < len(l.events) && l.events[n].Point().Slot() < slot {
		n++
	}

	l.events = append([]chain.Event(nil), l.events[n:]...)
	l.base += uint64(n)
	if slot > l.prunedBelow {
		l.prunedBelow = slot
	}

	return n
}

// Bounds reports the tip and the retained history of the log.
func (l *Log) Bounds() upstream.Bounds {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.boundsLocked()
}

func (l *Log) boundsLocked() upstream.Bounds {
	return upstream.Bounds{
		Tip:         l.tip,
		LastSeq:     l.base + uint64(len(l.events)),
		PrunedBelow: l.prunedBelow,
	}
}

// Len returns the number of retained events.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return len(l.events)
}

// Close wakes all readers; live readers return upstream.ErrClosed once drained.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.closed {
		l.closed = true
		close(l.wake)
	}

	return nil
}

// Tip returns the point of the last event.
func (l *Log) Tip(_ context.Context) (chain.Point, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.tip, nil
}

// Replay opens a reader from the most recent occurrence of from up to the current tip.
func (l *Log) Replay(_ context.Context, from chain.Point) (upstream.Reader, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.closed {
		return nil, upstream.ErrClosed
	}

	start, ok := l.startLocked(from)
	if !ok {
		return nil, &upstream.PointNotFoundError{Point: from}
	}

	return &reader{
		log:  l,
		from: from,
		next: start,
		end:  l.base + uint64(len(l.events)),
	}, nil
}

// Subscribe opens a reader of events appended from now on.
func (l *Log) Subscribe(_ context.Context) (upstream.Reader, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.closed {
		return nil, upstream.ErrClosed
	}

	return &reader{
		log:  l,
		from: l.tip,
		next: l.base + uint64(len(l.events)) + 1,
		live: true,
	}, nil
}

// startLocked finds the Seq a replay from p starts at.
func (l *Log) startLocked(p chain.Point) (uint64, bool) {
	if p.IsOrigin() {
		if l.base > 0 || l.prunedBelow > 0 {
			return 0, false
		}
		return 1, true
	}

	for i := len(l.events) - 1; i >= 0; i-- {
		if !l.events[i].Point().Equal(p) {
			continue
		}

		if l.events[i].IsApply() {
			for i > 0 && l.events[i-1].IsApply() && l.events[i-1].Point().Equal(p) {
				i--
			}
		}

		return l.base + uint64(i) + 1, true
	}

	return 0, false
}

type reader struct {
	log  *Log
	from chain.Point
	next uint64
	// end is the last Seq of a replay
	end    uint64
	live   bool
	closed atomic.Bool
}

func (r *reader) Next(ctx context.Context) (chain.Event, error) {
	for {
		if r.closed.Load() {
			return chain.Event{}, upstream.ErrClosed
		}

		if !r.live && r.next > r.end {
			return chain.Event{}, io.EOF
		}

		r.log.mu.RLock()
		if r.next <= r.log.base {
			r.log.mu.RUnlock()
			return chain.Event{}, &upstream.PointNotFoundError{Point: r.from}
		}

		if idx := r.next - r.log.base - 1; idx < uint64(len(r.log.events)) {
			ev := r.log.events[idx]
			r.log.mu.RUnlock()
			r.next++
			return ev, nil
		}

		wake, closed := r.log.wake, r.log.closed
		r.log.mu.RUnlock()

		if closed {
			return chain.Event{}, upstream.ErrClosed
		}

		select {
		case <-ctx.Done():
			return chain.Event{}, ctx.Err()
		case <-wake:
		}
	}
}

func (r *reader) Close() error {
	r.closed.Store(true)
	return nil
}
