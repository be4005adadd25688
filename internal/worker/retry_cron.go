package worker

// retry_cron.go
// Background goroutine that periodically moves due webhook retries from the
// RetryWebhook sorted set back onto QueueWebhook. Jobs whose action breaker is
// still open are parked again by the webhook worker, so the cron never needs
// to look at breaker state.

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	retryTickInterval = 30 * time.Second
	retryBatchSize    = 50
)

// RetryCronConfig holds all dependencies for the retry goroutine.
type RetryCronConfig struct {
	RDB      *redis.Client
	Interval time.Duration
}

// StartRetryCron ticks every Interval (default 30s) until ctx is cancelled.
func StartRetryCron(ctx context.Context, cfg RetryCronConfig) {
	interval := cfg.Interval
	if interval <= 0 {
		interval = retryTickInterval
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		log.Info().Dur("interval", interval).Msg("retry_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("retry_cron: shutting down")
				return
			case <-ticker.C:
				if n, err := requeueDue(ctx, cfg); err != nil {
					log.Error().Err(err).Msg("retry_cron: failed to requeue retries")
				} else if n > 0 {
					log.Info().Int("count", n).Msg("retry_cron: webhook retries requeued")
				}
			}
		}
	}()
}

// requeueDue moves up to retryBatchSize due jobs back to the webhook queue.
// ZREM decides ownership, so concurrent instances never requeue a job twice.
func requeueDue(ctx context.Context, cfg RetryCronConfig) (int, error) {
	due, err := cfg.RDB.ZRangeByScore(ctx, RetryWebhook, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   scoreNow(),
		Count: retryBatchSize,
	}).Result()
	if err != nil {
		return 0, err
	}

	moved := 0
	for _, member := range due {
		removed, err := cfg.RDB.ZRem(ctx, RetryWebhook, member).Result()
		if err != nil {
			return moved, err
		}
		if removed == 0 {
			continue
		}
		if err := cfg.RDB.LPush(ctx, QueueWebhook, member).Err(); err != nil {
			return moved, err
		}
		moved++
	}
	return moved, nil
}
