package worker

// email_worker.go
// Sends queued emails (the cash closing report) via SMTP.

import (
	"context"
	"encoding/json"
	"time"

	"petzap/internal/infra"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const emailMaxAttempts = 3

// MailSender sends one email.
type MailSender interface {
	Send(msg infra.EmailMessage) error
}

type EmailWorker struct {
	mailer MailSender
	rdb    *redis.Client
}

func NewEmailWorker(mailer MailSender, rdb *redis.Client) *EmailWorker {
	return &EmailWorker{mailer: mailer, rdb: rdb}
}

// Process sends the email, retrying in place with backoff. A message that
// still fails goes to the DLQ.
func (w *EmailWorker) Process(ctx context.Context, job Job) {
	var msg infra.EmailMessage
	if err := json.Unmarshal(job.Payload, &msg); err != nil {
		log.Error().Err(err).Msg("email_worker: invalid payload")
		return
	}
	if msg.To == "" {
		log.Warn().Msg("email_worker: empty recipient, skipping")
		return
	}

	err := withRetry(ctx, emailMaxAttempts, time.Second, func(attempt int) error {
		if err := w.mailer.Send(msg); err != nil {
			log.Warn().Err(err).Int("attempt", attempt+1).Str("to", msg.To).Msg("email_worker: send failed")
			return err
		}
		return nil
	})
	if err != nil {
		job.Attempts = emailMaxAttempts
		if w.rdb != nil {
			SendToDLQ(ctx, w.rdb, QueueEmail, job, err.Error())
		}
		return
	}
	log.Info().Str("to", msg.To).Str("subject", msg.Subject).Msg("email_worker: email sent")
}

// withRetry calls fn up to maxAttempts times, waiting base, 2×base, 4×base ...
// between attempts. Returns nil if any attempt succeeds; last error otherwise.
func withRetry(ctx context.Context, maxAttempts int, base time.Duration, fn func(attempt int) error) error {
	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		if i > 0 {
			wait := time.Duration(1<<uint(i-1)) * base
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
		if err := fn(i); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}
