package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"petzap/internal/infra"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueWebhook = "jobs:webhook"
	QueueEmail   = "jobs:email"
	// RetryWebhook is a sorted set of failed webhook jobs scored by the unix
	// time of their next attempt. The retry cron moves due jobs back to QueueWebhook.
	RetryWebhook = "jobs:webhook:retry"

	JobTypeWebhook = "webhook"
	JobTypeEmail   = "email"
)

// Job is the generic envelope for all async tasks.
type Job struct {
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload"`
	Attempts int             `json:"attempts"`
}

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// Publish queues an automation event for webhook delivery.
func (d *Dispatcher) Publish(ctx context.Context, e infra.Event) error {
	return d.enqueue(ctx, QueueWebhook, JobTypeWebhook, e)
}

// EnqueueEmail queues an outgoing email.
func (d *Dispatcher) EnqueueEmail(ctx context.Context, msg infra.EmailMessage) error {
	return d.enqueue(ctx, QueueEmail, JobTypeEmail, msg)
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}) error {
	encoded, err := encodeJob(jobType, payload)
	if err != nil {
		return err
	}
	return d.rdb.LPush(ctx, queue, encoded).Err()
}

func encodeJob(jobType string, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("worker: encode %s payload: %w", jobType, err)
	}
	return json.Marshal(Job{Type: jobType, Payload: data})
}

// Handlers are the job processors, wired at the composition root.
type Handlers struct {
	Webhook *WebhookWorker
	Email   *EmailWorker
}

// StartWorkerPool launches numWorkers goroutines consuming both queues.
// Each goroutine blocks on BRPOP, so idle workers cost nothing.
func StartWorkerPool(ctx context.Context, rdb *redis.Client, h *Handlers, numWorkers int) {
	if numWorkers < 1 {
		numWorkers = 1
	}
	for i := 0; i < numWorkers; i++ {
		go runWorker(ctx, rdb, h, i)
	}
	log.Info().Int("workers", numWorkers).Msg("worker pool started")
}

func runWorker(ctx context.Context, rdb *redis.Client, h *Handlers, id int) {
	queues := []string{QueueWebhook, QueueEmail}
	failures := 0
	for {
		select {
		case <-ctx.Done():
			log.Info().Int("worker", id).Msg("worker shutting down")
			return
		default:
			// waits up to 5s then loops to check ctx
			result, err := rdb.BRPop(ctx, 5*time.Second, queues...).Result()
			if err != nil {
				if errors.Is(err, redis.Nil) || ctx.Err() != nil {
					continue
				}
				failures++
				wait := pollBackoff(failures)
				log.Warn().Err(err).Int("worker", id).Dur("retry_in", wait).Msg("queue poll failed")
				select {
				case <-ctx.Done():
				case <-time.After(wait):
				}
				continue
			}
			failures = 0
			if len(result) < 2 {
				continue
			}
			processJob(ctx, h, result[0], result[1])
		}
	}
}

// pollBackoff is the pause after the n-th consecutive failed BRPOP:
// 1s, 2s, 4s ... capped at 30s.
func pollBackoff(failures int) time.Duration {
	if failures < 1 {
		failures = 1
	}
	if failures > 5 {
		return 30 * time.Second
	}
	return time.Duration(1<<uint(failures-1)) * time.Second
}

func processJob(ctx context.Context, h *Handlers, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		return
	}
	log.Debug().Str("type", job.Type).Str("queue", queue).Int("attempts", job.Attempts).Msg("processing job")

	switch job.Type {
	case JobTypeWebhook:
		if h.Webhook != nil {
			h.Webhook.Process(ctx, job)
		}
	case JobTypeEmail:
		if h.Email != nil {
			h.Email.Process(ctx, job)
		}
	default:
		log.Warn().Str("type", job.Type).Str("queue", queue).Msg("unknown job type, dropping")
	}
}
