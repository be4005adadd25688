package infra

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
)

// ErrBreakerOpen is returned when the breaker of an automation action refuses
// a delivery. The caller should defer the job instead of counting an attempt.
var ErrBreakerOpen = errors.New("webhook breaker open")

// BreakerConfig tunes every per-action breaker.
type BreakerConfig struct {
	FailureThreshold uint32        // consecutive failures that trip the breaker
	HalfOpenRequests uint32        // successes in half-open needed to close again
	OpenTimeout      time.Duration // how long a tripped breaker refuses calls
}

func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{FailureThreshold: 5, HalfOpenRequests: 2, OpenTimeout: 60 * time.Second}
}

// WebhookBreakers keeps one breaker per automation action, so a flow that is
// failing on the automation side (say pet_ready) does not hold back the
// delivery of the others.
type WebhookBreakers struct {
	cfg BreakerConfig

	mu       sync.Mutex
	byAction map[string]*gobreaker.CircuitBreaker
}

func NewWebhookBreakers(cfg BreakerConfig) *WebhookBreakers {
	def := DefaultBreakerConfig()
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = def.FailureThreshold
	}
	if cfg.HalfOpenRequests == 0 {
		cfg.HalfOpenRequests = def.HalfOpenRequests
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = def.OpenTimeout
	}
	return &WebhookBreakers{cfg: cfg, byAction: make(map[string]*gobreaker.CircuitBreaker)}
}

// OpenTimeout is how long a tripped breaker stays open.
func (b *WebhookBreakers) OpenTimeout() time.Duration { return b.cfg.OpenTimeout }

// Execute runs fn through the breaker of action. A refused call returns an
// error wrapping ErrBreakerOpen and fn is not run.
func (b *WebhookBreakers) Execute(action string, fn func() error) error {
	_, err := b.breaker(action).Execute(func() (interface{}, error) {
		return nil, fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %s", ErrBreakerOpen, action)
	}
	return err
}

// State returns the state name of action's breaker ("closed" if never used).
func (b *WebhookBreakers) State(action string) string {
	b.mu.Lock()
	cb, ok := b.byAction[action]
	b.mu.Unlock()
	if !ok {
		return gobreaker.StateClosed.String()
	}
	return cb.State().String()
}

// States reports every breaker created so far, keyed by action.
func (b *WebhookBreakers) States() map[string]string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[string]string, len(b.byAction))
	for action, cb := range b.byAction {
		out[action] = cb.State().String()
	}
	return out
}

func (b *WebhookBreakers) breaker(action string) *gobreaker.CircuitBreaker {
	b.mu.Lock()
	defer b.mu.Unlock()
	if cb, ok := b.byAction[action]; ok {
		return cb
	}
	threshold := b.cfg.FailureThreshold
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        action,
		MaxRequests: b.cfg.HalfOpenRequests,
		Timeout:     b.cfg.OpenTimeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= threshold
		},
		// shutdown is not the automation service failing
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("action", name).Str("from", from.String()).Str("to", to.String()).
				Msg("webhook breaker state changed")
		},
	})
	b.byAction[action] = cb
	return cb
}
