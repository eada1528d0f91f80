// Package broadcast fans the live tail of an upstream source out to many subscribers
// without letting a slow subscriber hold back the others.
package broadcast

import (
	"context"
	"sync"

	"github.com/SundaeSwap-finance/acropolis-indexer-sample/internal/common"
	"github.com/SundaeSwap-finance/acropolis-indexer-sample/internal/logger"
	"github.com/SundaeSwap-finance/acropolis-indexer-sample/internal/retry"
	"github.com/SundaeSwap-finance/acropolis-indexer-sample/pkg/chain"
	"github.com/SundaeSwap-finance/acropolis-indexer-sample/pkg/config"
	"github.com/SundaeSwap-finance/acropolis-indexer-sample/pkg/upstream"
)

// Broadcaster reads one live reader from the source and publishes every event to all
// subscriptions. Publishing never blocks: a subscription whose buffer is full is
// canceled with ErrOutOfCapacity.
//
// Subscribe only succeeds while the pump holds an open source reader, so every event
// appended after Subscribe returns is delivered (or the subscription is canceled).
type Broadcaster struct {
	source   upstream.Source
	capacity int
	retry    *config.RetryConfig
	log      *logger.Logger

	mtx    sync.Mutex
	subs   map[string]*Subscription
	reader upstream.Reader
	// ready is closed while a source reader is open
	ready  chan struct{}
	closed bool
}

// New creates a broadcaster with the given per-subscription buffer capacity.
// retry paces reopening the source; nil uses the defaults.
func New(source upstream.Source, capacity int, retryCfg *config.RetryConfig, log *logger.Logger) *Broadcaster {
	if capacity < 1 {
		capacity = 1
	}
	if retryCfg == nil {
		retryCfg = &config.RetryConfig{}
		retryCfg.ApplyDefaults()
	}

	return &Broadcaster{
		source:   source,
		capacity: capacity,
		retry:    retryCfg,
		log:      log.WithComponent(common.ComponentBroadcast),
		subs:     make(map[string]*Subscription),
		ready:    make(chan struct{}),
	}
}

// Open subscribes to the source. Run calls it when needed; callers use it to surface
// a source that cannot be subscribed to at all before starting anything else.
func (b *Broadcaster) Open(ctx context.Context) error {
	b.mtx.Lock()
	defer b.mtx.Unlock()

	if b.closed {
		return ErrClosed
	}
	if b.reader != nil {
		return nil
	}

	reader, err := b.source.Subscribe(ctx)
	if err != nil {
		return err
	}

	b.reader = reader
	close(b.ready)

	return nil
}

// Run pumps events from the source until ctx is done, then closes the broadcaster.
// When the source reader fails every subscription is canceled with ErrSourceReset,
// since events may have been missed, and the source is reopened with backoff.
func (b *Broadcaster) Run(ctx context.Context) error {
	defer b.Close()

	attempt := 0
	for {
		if err := b.Open(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}

			attempt++
			b.log.Warnf("failed to subscribe to upstream (attempt %d): %v", attempt, err)
			if retry.Wait(ctx, retry.Backoff(attempt+1, b.retry)) != nil {
				return nil
			}
			continue
		}
		attempt = 0

		err := b.pump(ctx)
		if ctx.Err() != nil {
			return nil
		}

		b.log.Warnf("live upstream reader failed, resetting %d subscriptions: %v", b.Len(), err)
		b.reset()
		sourceResets.Inc()

		if retry.Wait(ctx, retry.Backoff(2, b.retry)) != nil {
			return nil
		}
	}
}

func (b *Broadcaster) pump(ctx context.Context) error {
	b.mtx.Lock()
	reader := b.reader
	b.mtx.Unlock()

	for {
		ev, err := reader.Next(ctx)
		if err != nil {
			return err
		}
		b.Publish(ev)
	}
}

// Subscribe registers a new subscription, waiting until the source is open.
func (b *Broadcaster) Subscribe(ctx context.Context) (*Subscription, error) {
	for {
		b.mtx.Lock()
		if b.closed {
			b.mtx.Unlock()
			return nil, ErrClosed
		}

		if b.reader != nil {
			sub := newSubscription(b.capacity)
			b.subs[sub.id] = sub
			b.mtx.Unlock()
			subscribers.Inc()

			return sub, nil
		}

		ready := b.ready
		b.mtx.Unlock()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ready:
		}
	}
}

// Unsubscribe terminates sub with ErrUnsubscribed.
func (b *Broadcaster) Unsubscribe(sub *Subscription) {
	b.mtx.Lock()
	defer b.mtx.Unlock()

	b.removeLocked(sub, ErrUnsubscribed)
}

// Publish delivers ev to every subscription without blocking.
func (b *Broadcaster) Publish(ev chain.Event) {
	b.mtx.Lock()
	defer b.mtx.Unlock()

	for _, sub := range b.subs {
		select {
		case sub.out <- ev:
		default:
			b.log.Debugf("subscription %s is out of capacity at %s", sub.id, ev)
			b.removeLocked(sub, ErrOutOfCapacity)
		}
	}

	eventsPublished.Inc()
}

// Len returns the number of active subscriptions.
func (b *Broadcaster) Len() int {
	b.mtx.Lock()
	defer b.mtx.Unlock()

	return len(b.subs)
}

// Close cancels every subscription with ErrClosed and closes the source reader.
func (b *Broadcaster) Close() {
	b.mtx.Lock()
	defer b.mtx.Unlock()

	if b.closed {
		return
	}
	b.closed = true

	for _, sub := range b.subs {
		b.removeLocked(sub, ErrClosed)
	}

	if b.reader != nil {
		if err := b.reader.Close(); err != nil {
			b.log.Warnf("failed to close upstream reader: %v", err)
		}
		b.reader = nil
	} else {
		close(b.ready)
	}
}

// reset drops the source reader and cancels every subscription with ErrSourceReset.
func (b *Broadcaster) reset() {
	b.mtx.Lock()
	defer b.mtx.Unlock()

	for _, sub := range b.subs {
		b.removeLocked(sub, ErrSourceReset)
	}

	if b.reader != nil {
		_ = b.reader.Close()
		b.reader = nil
		b.ready = make(chan struct{})
	}
}

func (b *Broadcaster) removeLocked(sub *Subscription, reason error) {
	if _, ok := b.subs[sub.id]; !ok {
		return
	}

	delete(b.subs, sub.id)
	sub.cancel(reason)
	subscribers.Dec()
	evictionInc(reason)
}
