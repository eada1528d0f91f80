package retry

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/SundaeSwap-finance/acropolis-indexer-sample/pkg/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var retries = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "chainindexer_retries_total",
		Help: "Total number of retried operations",
	},
	[]string{"operation"},
)

// Backoff computes the wait before the given attempt with ±25% jitter.
// The first attempt never waits.
func Backoff(attempt int, cfg *config.RetryConfig) time.Duration {
	if attempt <= 1 || cfg == nil {
		return 0
	}

	backoff := float64(cfg.InitialBackoff.Duration) * math.Pow(cfg.BackoffMultiplier, float64(attempt-2))
	if backoff > float64(cfg.MaxBackoff.Duration) {
		backoff = float64(cfg.MaxBackoff.Duration)
	}

	jitterRange := backoff * 0.25
	jitter := (rand.Float64() * 2 * jitterRange) - jitterRange //nolint:gosec
	backoff += jitter

	if backoff < 0 {
		backoff = 0
	}

	return time.Duration(backoff)
}

// Wait blocks for d or until ctx is done, whichever comes first.
func Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Do executes fn with exponential backoff. A nil cfg runs fn once. A zero
// MaxAttempts retries until ctx is done. Errors for which retryable returns
// false end the loop immediately; a nil retryable treats every error as retryable.
func Do(ctx context.Context, cfg *config.RetryConfig, operation string,
	retryable func(error) bool, fn func(context.Context) error) error {
	if cfg == nil {
		return fn(ctx)
	}

	var lastErr error
	startTime := time.Now()

	for attempt := 1; cfg.MaxAttempts == 0 || attempt <= cfg.MaxAttempts; attempt++ {
		if attempt > 1 {
			if err := Wait(ctx, Backoff(attempt, cfg)); err != nil {
				return fmt.Errorf("context cancelled during backoff (attempt %d): %w", attempt, err)
			}
			retries.WithLabelValues(operation).Inc()
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if retryable != nil && !retryable(err) {
			return fmt.Errorf("non-retryable error on attempt %d: %w", attempt, err)
		}

		if ctx.Err() != nil {
			return fmt.Errorf("context cancelled after attempt %d: %w (last error: %w)", attempt, ctx.Err(), lastErr)
		}
	}

	return fmt.Errorf("all %d attempts failed after %v (last error: %w)",
		cfg.MaxAttempts, time.Since(startTime), lastErr)
}
