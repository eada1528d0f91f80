package memlog

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/SundaeSwap-finance/acropolis-indexer-sample/internal/chaintest"
	"github.com/SundaeSwap-finance/acropolis-indexer-sample/pkg/chain"
	"github.com/SundaeSwap-finance/acropolis-indexer-sample/pkg/upstream"
	"github.com/stretchr/testify/require"
)

func appendAll(t *testing.T, log *Log, events ...chain.Event) {
	t.Helper()

	for _, ev := range events {
		_, err := log.Append(ev)
		require.NoError(t, err)
	}
}

func drain(t *testing.T, r upstream.Reader) []chain.Event {
	t.Helper()

	var out []chain.Event
	for {
		ev, err := r.Next(context.Background())
		if errors.Is(err, io.EOF) {
			return out
		}
		require.NoError(t, err)
		out = append(out, ev)
	}
}

func seqs(events []chain.Event) []uint64 {
	out := make([]uint64, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.Seq)
	}

	return out
}

func TestLog_AppendAssignsSeq(t *testing.T) {
	t.Parallel()

	log := New()
	ev, err := log.Append(chaintest.Apply(10, 0))
	require.NoError(t, err)
	require.Equal(t, uint64(1), ev.Seq)

	ev, err = log.Apply(chaintest.Block(10), chaintest.Tx(chaintest.Block(10), 1))
	require.NoError(t, err)
	require.Equal(t, uint64(2), ev.Seq)

	_, err = log.Append(chaintest.Apply(9, 0))
	require.ErrorIs(t, err, upstream.ErrOutOfOrder)

	ev, err = log.Rollback(chaintest.Block(10))
	require.NoError(t, err)
	require.Equal(t, uint64(3), ev.Seq)

	tip, err := log.Tip(context.Background())
	require.NoError(t, err)
	require.True(t, tip.Equal(chaintest.Point(10)))
	require.Equal(t, 3, log.Len())
}

func TestLog_Replay(t *testing.T) {
	t.Parallel()

	log := New()
	appendAll(t, log,
		chaintest.Apply(10, 0), // 1
		chaintest.Apply(20, 0), // 2
		chaintest.Apply(20, 1), // 3
		chaintest.Apply(30, 0), // 4
		chaintest.Rollback(20), // 5
		chaintest.Apply(40, 0), // 6
	)

	tests := []struct {
		name string
		from chain.Point
		want []uint64
	}{
		{name: "origin replays everything", from: chain.Origin(), want: []uint64{1, 2, 3, 4, 5, 6}},
		{name: "first block", from: chaintest.Point(10), want: []uint64{1, 2, 3, 4, 5, 6}},
		{name: "multi tx block starts at its first tx", from: chaintest.Point(30), want: []uint64{4, 5, 6}},
		{name: "latest occurrence wins", from: chaintest.Point(20), want: []uint64{5, 6}},
		{name: "tip", from: chaintest.Point(40), want: []uint64{6}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r, err := log.Replay(context.Background(), tt.from)
			require.NoError(t, err)
			defer r.Close()

			require.Equal(t, tt.want, seqs(drain(t, r)))
		})
	}

	_, err := log.Replay(context.Background(), chaintest.Point(15))
	require.ErrorIs(t, err, upstream.ErrPointNotFound)
}

func TestLog_ReplayStopsAtOpeningTip(t *testing.T) {
	t.Parallel()

	log := New()
	appendAll(t, log, chaintest.Chain(1, 2, 3)...)

	r, err := log.Replay(context.Background(), chain.Origin())
	require.NoError(t, err)

	appendAll(t, log, chaintest.Apply(4, 0))
	require.Equal(t, []uint64{1, 2, 3}, seqs(drain(t, r)))

	empty, err := New().Replay(context.Background(), chain.Origin())
	require.NoError(t, err)
	_, err = empty.Next(context.Background())
	require.ErrorIs(t, err, io.EOF)
}

func TestLog_Subscribe(t *testing.T) {
	t.Parallel()

	log := New()
	appendAll(t, log, chaintest.Chain(1, 2)...)

	sub, err := log.Subscribe(context.Background())
	require.NoError(t, err)

	go func() {
		time.Sleep(10 * time.Millisecond)
		_, _ = log.Append(chaintest.Apply(3, 0))
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ev, err := sub.Next(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(3), ev.Seq)

	short, cancelShort := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancelShort()
	_, err = sub.Next(short)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, log.Close())
	_, err = sub.Next(ctx)
	require.ErrorIs(t, err, upstream.ErrClosed)

	_, err = log.Subscribe(ctx)
	require.ErrorIs(t, err, upstream.ErrClosed)
}

func TestLog_Prune(t *testing.T) {
	t.Parallel()

	log := New()
	appendAll(t, log, chaintest.Chain(10, 20, 30, 40)...)

	inFlight, err := log.Replay(context.Background(), chaintest.Point(10))
	require.NoError(t, err)

	require.Equal(t, 2, log.Prune(25))
	require.Equal(t, uint64(25), log.Bounds().PrunedBelow)

	_, err = inFlight.Next(context.Background())
	require.ErrorIs(t, err, upstream.ErrPointNotFound)

	_, err = log.Replay(context.Background(), chain.Origin())
	require.ErrorIs(t, err, upstream.ErrPointNotFound)
	_, err = log.Replay(context.Background(), chaintest.Point(20))
	require.ErrorIs(t, err, upstream.ErrPointNotFound)

	r, err := log.Replay(context.Background(), chaintest.Point(30))
	require.NoError(t, err)
	require.Equal(t, []uint64{3, 4}, seqs(drain(t, r)))

	ev, err := log.Rollback(chaintest.Block(20))
	require.NoError(t, err)
	require.True(t, ev.BeyondHistory())
	require.Equal(t, uint64(25), ev.PrunedBelow)

	r, err = log.Replay(context.Background(), chaintest.Point(20))
	require.NoError(t, err)
	replayed := drain(t, r)
	require.Len(t, replayed, 1)
	require.Equal(t, uint64(25), replayed[0].PrunedBelow)

	ev, err = log.Rollback(chaintest.Block(30))
	require.ErrorIs(t, err, upstream.ErrOutOfOrder)
	require.Zero(t, ev.Seq)
}
