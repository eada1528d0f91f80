package journal

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/SundaeSwap-finance/acropolis-indexer-sample/pkg/chain"
	"github.com/SundaeSwap-finance/acropolis-indexer-sample/pkg/upstream"
)

// reader pages through the journal by sequence number.
// Replay readers stop at end; live readers wait for new events, woken either by an
// in-process append or by the poll interval when another process writes the journal.
type reader struct {
	j    *Journal
	from chain.Point
	next uint64
	end  uint64
	live bool
	mode string
	buf  []chain.Event

	closeOnce sync.Once
	done      chan struct{}
}

func newReader(j *Journal, from chain.Point, next, end uint64, live bool) *reader {
	mode := modeReplay
	if live {
		mode = modeLive
	}
	readerOpened(mode)

	return &reader{
		j:    j,
		from: from,
		next: next,
		end:  end,
		live: live,
		mode: mode,
		done: make(chan struct{}),
	}
}

func (r *reader) Next(ctx context.Context) (chain.Event, error) {
	var ticker *time.Ticker

	for {
		select {
		case <-r.done:
			return chain.Event{}, upstream.ErrClosed
		default:
		}

		if len(r.buf) > 0 {
			ev := r.buf[0]
			r.buf = r.buf[1:]
			return ev, nil
		}

		if !r.live && r.next > r.end {
			return chain.Event{}, io.EOF
		}

		limit := readBatchSize
		if !r.live && r.end-r.next+1 < uint64(limit) {
			limit = int(r.end - r.next + 1)
		}

		// wake must be taken before reading so an append racing with the read is not missed
		wake := r.j.wakeChan()

		events, err := r.j.fetch(r.next, limit)
		if err != nil {
			if r.j.isClosed() {
				return chain.Event{}, upstream.ErrClosed
			}
			return chain.Event{}, upstream.Unavailable(err)
		}

		if len(events) > 0 {
			if events[0].Seq != r.next {
				// the retention policy deleted history under this reader
				return chain.Event{}, &upstream.PointNotFoundError{Point: r.from}
			}
			r.buf = events
			r.next = events[len(events)-1].Seq + 1
			continue
		}

		if !r.live {
			return chain.Event{}, &upstream.PointNotFoundError{Point: r.from}
		}

		if ticker == nil {
			ticker = time.NewTicker(r.j.pollInterval)
			defer ticker.Stop()
		}

		select {
		case <-ctx.Done():
			return chain.Event{}, ctx.Err()
		case <-r.done:
			return chain.Event{}, upstream.ErrClosed
		case <-r.j.closed:
			return chain.Event{}, upstream.ErrClosed
		case <-wake:
		case <-ticker.C:
		}
	}
}

func (r *reader) Close() error {
	r.closeOnce.Do(func() {
		close(r.done)
		readerClosed(r.mode)
	})

	return nil
}
