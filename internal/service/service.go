package service

import (
	"context"
	"errors"

	"petzap/internal/apierror"
	"petzap/internal/infra"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Notifier hands work to the async workers. *worker.Dispatcher implements it.
type Notifier interface {
	Publish(ctx context.Context, e infra.Event) error
	EnqueueEmail(ctx context.Context, msg infra.EmailMessage) error
}

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// publish is fire-and-forget: a queue failure is logged and never returned.
func publish(ctx context.Context, n Notifier, e infra.Event) {
	if n == nil {
		return
	}
	if err := n.Publish(ctx, e); err != nil {
		log.Warn().Err(err).Str("action", e.Action).Msg("failed to publish automation event")
	}
}

// lookupErr turns a gorm lookup failure into NotFound or Persistence.
func lookupErr(err error, notFoundMsg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apierror.NotFound(notFoundMsg)
	}
	return apierror.Persistence("consulta falhou", err)
}

func isNotFound(err error) bool { return errors.Is(err, gorm.ErrRecordNotFound) }

func uuidString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

func parseOptionalUUID(s string) (*uuid.UUID, error) {
	if s == "" {
		return nil, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
