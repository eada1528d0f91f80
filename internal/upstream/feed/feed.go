// Package feed reads chain events from a node bridge over websocket and appends them to the journal.
package feed

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/SundaeSwap-finance/acropolis-indexer-sample/internal/common"
	"github.com/SundaeSwap-finance/acropolis-indexer-sample/internal/logger"
	"github.com/SundaeSwap-finance/acropolis-indexer-sample/pkg/chain"
	"github.com/SundaeSwap-finance/acropolis-indexer-sample/pkg/config"
	"github.com/SundaeSwap-finance/acropolis-indexer-sample/pkg/upstream"
	"github.com/ethereum/go-ethereum/event"
	"github.com/gorilla/websocket"
)

const (
	handshakeTimeout = 10 * time.Second
	writeWait        = 10 * time.Second
	pongWait         = 60 * time.Second
	pingPeriod       = (pongWait * 9) / 10
	maxMessageSize   = 16 << 20

	outcomeAppended  = "appended"
	outcomeDuplicate = "duplicate"
	outcomeMalformed = "malformed"
	outcomeRejected  = "rejected"
)

// Journal is where the feed writes events.
type Journal interface {
	Append(ctx context.Context, ev chain.Event) (chain.Event, error)
	Last(ctx context.Context) (chain.Event, bool, error)
}

// Hello is the first message sent on every connection. The bridge answers with the
// events starting at the first transaction of the Intersect block.
type Hello struct {
	Magic     uint64      `json:"magic"`
	Intersect chain.Point `json:"intersect"`
}

// Feed keeps one websocket connection to the node bridge alive and journals what it receives.
type Feed struct {
	url        string
	magic      uint64
	journal    Journal
	dialer     *websocket.Dialer
	backoffMax time.Duration
	log        *logger.Logger
}

// New creates a feed for the bridge at cfg.FeedURL.
func New(cfg config.UpstreamConfig, journal Journal, log *logger.Logger) (*Feed, error) {
	u, err := url.Parse(cfg.FeedURL)
	if err != nil {
		return nil, fmt.Errorf("invalid feed url %q: %w", cfg.FeedURL, err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return nil, fmt.Errorf("invalid feed url %q: scheme must be ws or wss", cfg.FeedURL)
	}

	backoffMax := 30 * time.Second
	if cfg.Retry != nil && cfg.Retry.MaxBackoff.Duration > 0 {
		backoffMax = cfg.Retry.MaxBackoff.Duration
	}

	return &Feed{
		url:        cfg.FeedURL,
		magic:      cfg.Magic,
		journal:    journal,
		dialer:     &websocket.Dialer{HandshakeTimeout: handshakeTimeout},
		backoffMax: backoffMax,
		log:        log.WithComponent(common.ComponentFeed),
	}, nil
}

func (f *Feed) Name() string {
	return common.ComponentFeed
}

// Run connects to the bridge and reconnects with exponential backoff until ctx is done.
func (f *Feed) Run(ctx context.Context) error {
	sub := event.ResubscribeErr(f.backoffMax, func(dialCtx context.Context, lastErr error) (event.Subscription, error) {
		if lastErr != nil {
			reconnectInc()
			f.log.Warnf("connection to %s lost: %v", f.url, lastErr)
		}

		conn, err := f.connect(ctx, dialCtx)
		if err != nil {
			f.log.Warnf("failed to connect to %s: %v", f.url, err)
			return nil, err
		}

		return event.NewSubscription(func(quit <-chan struct{}) error {
			return f.consume(ctx, conn, quit)
		}), nil
	})
	defer sub.Unsubscribe()

	select {
	case <-ctx.Done():
	case <-sub.Err():
	}

	return nil
}

// connect dials the bridge and sends the hello with the current journal position.
func (f *Feed) connect(ctx, dialCtx context.Context) (*websocket.Conn, error) {
	hello := Hello{Magic: f.magic}

	last, ok, err := f.journal.Last(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read journal position: %w", err)
	}
	if ok {
		hello.Intersect = last.Point()
	}

	conn, _, err := f.dialer.DialContext(dialCtx, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}

	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(hello); err != nil {
		conn.Close()
		return nil, fmt.Errorf("write hello: %w", err)
	}

	f.log.Infof("connected to %s, intersect %s", f.url, hello.Intersect)

	return conn, nil
}

// consume reads events until the connection fails or quit is closed.
func (f *Feed) consume(ctx context.Context, conn *websocket.Conn, quit <-chan struct{}) error {
	connectedSet(true)
	defer connectedSet(false)

	done := make(chan struct{})
	defer close(done)

	go f.keepAlive(ctx, conn, quit, done)

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	last, _, err := f.journal.Last(ctx)
	if err != nil {
		return fmt.Errorf("failed to read journal position: %w", err)
	}

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-quit:
				return nil
			default:
			}
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))

		ev, err := chain.DecodeEvent(msg)
		if err != nil {
			messageInc(outcomeMalformed)
			f.log.Warnf("skipping malformed message: %v", err)
			continue
		}
		ev.Seq, ev.PrunedBelow = 0, 0

		if isRedelivery(last, ev) {
			messageInc(outcomeDuplicate)
			continue
		}

		stored, err := f.journal.Append(ctx, ev)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			messageInc(outcomeRejected)
			if errors.Is(err, upstream.ErrOutOfOrder) {
				f.log.Errorf("bridge sent %s which does not extend the journal: %v", ev, err)
			}
			return fmt.Errorf("append %s: %w", ev, err)
		}

		messageInc(outcomeAppended)
		last = stored
	}
}

// keepAlive pings the bridge and closes the connection once the subscription ends.
func (f *Feed) keepAlive(ctx context.Context, conn *websocket.Conn, quit <-chan struct{}, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	defer conn.Close()

	for {
		select {
		case <-quit:
			return
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				f.log.Debugf("ping failed: %v", err)
				return
			}
		}
	}
}

// isRedelivery reports whether ev was already journaled: the bridge resends the
// intersect block from its first transaction, and a rollback to the tip changes nothing.
// After a rollback to block B the journal already holds every transaction of B.
func isRedelivery(last chain.Event, ev chain.Event) bool {
	if last.Seq == 0 || !ev.Point().Equal(last.Point()) {
		return false
	}

	if ev.IsRollback() || last.IsRollback() {
		return true
	}

	return ev.Tx.Index <= last.Tx.Index
}
