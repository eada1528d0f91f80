package broadcast

import (
	"context"
	"testing"
	"time"

	"github.com/SundaeSwap-finance/acropolis-indexer-sample/internal/chaintest"
	"github.com/SundaeSwap-finance/acropolis-indexer-sample/internal/common"
	"github.com/SundaeSwap-finance/acropolis-indexer-sample/internal/logger"
	"github.com/SundaeSwap-finance/acropolis-indexer-sample/internal/upstream/memlog"
	"github.com/SundaeSwap-finance/acropolis-indexer-sample/pkg/chain"
	"github.com/SundaeSwap-finance/acropolis-indexer-sample/pkg/config"
	"github.com/fortytw2/leaktest"
	"github.com/stretchr/testify/require"
)

func fastRetry() *config.RetryConfig {
	return &config.RetryConfig{
		InitialBackoff:    common.NewDuration(time.Millisecond),
		MaxBackoff:        common.NewDuration(5 * time.Millisecond),
		BackoffMultiplier: 2,
	}
}

func receive(t *testing.T, sub *Subscription) chain.Event {
	t.Helper()

	select {
	case ev := <-sub.Out():
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")
		return chain.Event{}
	}
}

func TestBroadcaster_SubscribeWaitsForSource(t *testing.T) {
	t.Parallel()

	b := New(memlog.New(), 4, fastRetry(), logger.NewNopLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := b.Subscribe(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, b.Open(context.Background()))
	sub, err := b.Subscribe(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, sub.ID())
	require.Equal(t, 1, b.Len())

	b.Close()
	<-sub.Canceled()
	require.ErrorIs(t, sub.Err(), ErrClosed)

	_, err = b.Subscribe(context.Background())
	require.ErrorIs(t, err, ErrClosed)
	require.ErrorIs(t, b.Open(context.Background()), ErrClosed)
}

func TestBroadcaster_FanOut(t *testing.T) {
	defer leaktest.Check(t)()

	log := memlog.New()
	b := New(log, 8, fastRetry(), logger.NewNopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, b.Open(ctx))

	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()

	first, err := b.Subscribe(ctx)
	require.NoError(t, err)
	second, err := b.Subscribe(ctx)
	require.NoError(t, err)

	for _, ev := range chaintest.Chain(1, 2, 3) {
		_, err := log.Append(ev)
		require.NoError(t, err)
	}

	for _, sub := range []*Subscription{first, second} {
		for seq := uint64(1); seq <= 3; seq++ {
			require.Equal(t, seq, receive(t, sub).Seq)
		}
	}

	cancel()
	require.NoError(t, <-done)

	<-first.Canceled()
	require.ErrorIs(t, first.Err(), ErrClosed)
	require.Zero(t, b.Len())
}

func TestBroadcaster_SlowSubscriberIsEvicted(t *testing.T) {
	t.Parallel()

	b := New(memlog.New(), 2, fastRetry(), logger.NewNopLogger())
	require.NoError(t, b.Open(context.Background()))
	defer b.Close()

	slow, err := b.Subscribe(context.Background())
	require.NoError(t, err)
	fast, err := b.Subscribe(context.Background())
	require.NoError(t, err)

	for i, ev := range chaintest.Chain(1, 2, 3, 4) {
		ev.Seq = uint64(i + 1)
		b.Publish(ev)
		require.Equal(t, ev.Seq, receive(t, fast).Seq)
	}

	select {
	case <-slow.Canceled():
	default:
		t.Fatal("slow subscription was not canceled")
	}
	require.ErrorIs(t, slow.Err(), ErrOutOfCapacity)
	require.NoError(t, fast.Err())
	require.Equal(t, 1, b.Len())
}

func TestBroadcaster_Unsubscribe(t *testing.T) {
	t.Parallel()

	b := New(memlog.New(), 2, fastRetry(), logger.NewNopLogger())
	require.NoError(t, b.Open(context.Background()))
	defer b.Close()

	sub, err := b.Subscribe(context.Background())
	require.NoError(t, err)

	b.Unsubscribe(sub)
	b.Unsubscribe(sub)
	require.ErrorIs(t, sub.Err(), ErrUnsubscribed)
	require.Zero(t, b.Len())
}

func TestBroadcaster_SourceFailureResetsSubscribers(t *testing.T) {
	defer leaktest.Check(t)()

	log := memlog.New()
	b := New(log, 8, fastRetry(), logger.NewNopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, b.Open(ctx))

	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()

	sub, err := b.Subscribe(ctx)
	require.NoError(t, err)

	require.NoError(t, log.Close())

	select {
	case <-sub.Canceled():
	case <-time.After(5 * time.Second):
		t.Fatal("subscription was not reset")
	}
	require.ErrorIs(t, sub.Err(), ErrSourceReset)

	cancel()
	require.NoError(t, <-done)
}
