package broadcast

import (
	"errors"
	"sync"

	"github.com/SundaeSwap-finance/acropolis-indexer-sample/pkg/chain"
	"github.com/google/uuid"
)

var (
	// ErrOutOfCapacity is returned by Err when a subscriber is not pulling events
	// fast enough and its buffer filled up. The subscription is terminated.
	ErrOutOfCapacity = errors.New("subscriber is not pulling events fast enough")

	// ErrUnsubscribed is returned by Err when the subscriber unsubscribed.
	ErrUnsubscribed = errors.New("subscriber unsubscribed")

	// ErrSourceReset is returned by Err when the live source had to be reopened,
	// which may have skipped events.
	ErrSourceReset = errors.New("live source was reset")

	// ErrClosed is returned when the broadcaster is shut down.
	ErrClosed = errors.New("broadcast closed")
)

// Subscription is one consumer's view of the live tail:
// a bounded channel of events plus a channel closed when the subscription is terminated.
type Subscription struct {
	id  string
	out chan chain.Event

	canceled chan struct{}
	once     sync.Once
	mtx      sync.RWMutex
	err      error
}

func newSubscription(capacity int) *Subscription {
	return &Subscription{
		id:       uuid.NewString(),
		out:      make(chan chain.Event, capacity),
		canceled: make(chan struct{}),
	}
}

func (s *Subscription) ID() string { return s.id }

// Out returns the channel events are published on. It is never closed.
func (s *Subscription) Out() <-chan chain.Event { return s.out }

// Canceled returns a channel that's closed when the subscription is terminated.
func (s *Subscription) Canceled() <-chan struct{} { return s.canceled }

// Err returns nil until Canceled is closed, then the reason for termination.
func (s *Subscription) Err() error {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	return s.err
}

// Len returns the number of buffered events.
func (s *Subscription) Len() int { return len(s.out) }

func (s *Subscription) cancel(err error) {
	s.once.Do(func() {
		s.mtx.Lock()
		s.err = err
		s.mtx.Unlock()
		close(s.canceled)
	})
}
