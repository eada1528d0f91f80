package cursor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SundaeSwap-finance/acropolis-indexer-sample/internal/common"
	"github.com/SundaeSwap-finance/acropolis-indexer-sample/internal/logger"
	"github.com/SundaeSwap-finance/acropolis-indexer-sample/pkg/chain"
	"github.com/SundaeSwap-finance/acropolis-indexer-sample/pkg/cursor"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps every cursor as a field of one redis hash.
type RedisStore struct {
	rdb     *redis.Client
	key     string
	timeout time.Duration
	log     *logger.Logger
}

var (
	_ cursor.ClosableStore = (*RedisStore)(nil)
	_ cursor.Lister        = (*RedisStore)(nil)
)

// NewRedisStore connects to the redis server at url and stores cursors under keyPrefix.
func NewRedisStore(ctx context.Context, url, keyPrefix string, timeout time.Duration,
	log *logger.Logger) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisStore{
		rdb:     rdb,
		key:     keyPrefix,
		timeout: timeout,
		log:     log.WithComponent(common.ComponentCursorStore),
	}, nil
}

func (s *RedisStore) Load(ctx context.Context, name string) (chain.Point, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	val, err := s.rdb.HGet(ctx, s.key, name).Result()
	if errors.Is(err, redis.Nil) {
		return chain.Point{}, false, nil
	}
	if err != nil {
		return chain.Point{}, false, fmt.Errorf("hget %s: %w", name, err)
	}

	p, err := chain.ParsePoint(val)
	if err != nil {
		return chain.Point{}, false, fmt.Errorf("corrupt cursor %s: %w", name, err)
	}

	return p, true, nil
}

func (s *RedisStore) Save(ctx context.Context, name string, point chain.Point) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.rdb.HSet(ctx, s.key, name, point.String()).Err(); err != nil {
		return fmt.Errorf("hset %s: %w", name, err)
	}

	return nil
}

func (s *RedisStore) List(ctx context.Context) (map[string]chain.Point, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	all, err := s.rdb.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("hgetall: %w", err)
	}

	out := make(map[string]chain.Point, len(all))
	for name, val := range all {
		p, err := chain.ParsePoint(val)
		if err != nil {
			s.log.Warnf("skipping corrupt cursor %s: %v", name, err)
			continue
		}
		out[name] = p
	}

	return out, nil
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
