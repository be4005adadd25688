package worker

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"petzap/internal/infra"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// EventSender delivers one automation event.
type EventSender interface {
	Send(ctx context.Context, e infra.Event) error
}

// WebhookWorker delivers automation events through the breaker of their
// action. A failed delivery is rescheduled in RetryWebhook with exponential
// backoff; after maxAttempts the job goes to the DLQ. A job refused by an open
// breaker is parked until the breaker may let calls through again, without
// spending an attempt. Failures never reach the caller that published the event.
type WebhookWorker struct {
	sender      EventSender
	breakers    *infra.WebhookBreakers
	rdb         *redis.Client
	maxAttempts int
}

func NewWebhookWorker(sender EventSender, breakers *infra.WebhookBreakers, rdb *redis.Client, maxAttempts int) *WebhookWorker {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &WebhookWorker{sender: sender, breakers: breakers, rdb: rdb, maxAttempts: maxAttempts}
}

// Process handles one webhook job. It returns the delivery error, if any,
// after scheduling the retry or dead-lettering the job.
func (w *WebhookWorker) Process(ctx context.Context, job Job) error {
	var event infra.Event
	if err := json.Unmarshal(job.Payload, &event); err != nil {
		log.Error().Err(err).Msg("webhook_worker: invalid payload, dropping")
		return err
	}

	err := w.breakers.Execute(event.Action, func() error { return w.sender.Send(ctx, event) })
	if err == nil {
		log.Info().Str("action", event.Action).Int("attempts", job.Attempts+1).Msg("webhook_worker: event delivered")
		return nil
	}

	if errors.Is(err, infra.ErrBreakerOpen) {
		next := time.Now().Add(w.breakers.OpenTimeout())
		if schedErr := w.scheduleRetry(ctx, job, next); schedErr != nil {
			log.Error().Err(schedErr).Str("action", event.Action).Msg("webhook_worker: failed to park job behind open breaker")
			return err
		}
		log.Debug().Str("action", event.Action).Time("next_attempt_at", next).Msg("webhook_worker: breaker open, job parked")
		return err
	}

	job.Attempts++
	if job.Attempts >= w.maxAttempts {
		SendToDLQ(ctx, w.rdb, QueueWebhook, job, err.Error())
		return err
	}

	next := time.Now().Add(retryBackoff(job.Attempts))
	if schedErr := w.scheduleRetry(ctx, job, next); schedErr != nil {
		log.Error().Err(schedErr).Str("action", event.Action).Msg("webhook_worker: failed to schedule retry")
		return err
	}
	log.Warn().
		Err(err).
		Str("action", event.Action).
		Int("attempts", job.Attempts).
		Time("next_attempt_at", next).
		Msg("webhook_worker: delivery failed, retry scheduled")
	return err
}

func (w *WebhookWorker) scheduleRetry(ctx context.Context, job Job, at time.Time) error {
	encoded, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return w.rdb.ZAdd(ctx, RetryWebhook, redis.Z{
		Score:  float64(at.Unix()),
		Member: string(encoded),
	}).Err()
}

// retryBackoff returns the wait before attempt n+1: 30s, 1m, 2m, 4m ... capped at 30m.
func retryBackoff(attempts int) time.Duration {
	if attempts < 1 {
		attempts = 1
	}
	if attempts > 7 {
		return 30 * time.Minute
	}
	d := time.Duration(1<<uint(attempts-1)) * 30 * time.Second
	if d > 30*time.Minute {
		return 30 * time.Minute
	}
	return d
}

func scoreNow() string { return strconv.FormatInt(time.Now().Unix(), 10) }
