package infra

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var errDown = errors.New("automation down")

func TestWebhookBreakers_OpensAfterThreshold(t *testing.T) {
	b := NewWebhookBreakers(BreakerConfig{FailureThreshold: 3, OpenTimeout: time.Hour})

	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, b.Execute(EventPetReady, func() error { return errDown }), errDown)
	}
	assert.Equal(t, "open", b.State(EventPetReady))

	called := false
	err := b.Execute(EventPetReady, func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrBreakerOpen)
	assert.False(t, called, "open breaker must not call the automation service")
}

func TestWebhookBreakers_ActionsTripIndependently(t *testing.T) {
	b := NewWebhookBreakers(BreakerConfig{FailureThreshold: 1, OpenTimeout: time.Hour})
	_ = b.Execute(EventPetReady, func() error { return errDown })

	assert.NoError(t, b.Execute(EventSaleRegistered, func() error { return nil }))
	assert.Equal(t, map[string]string{
		EventPetReady:       "open",
		EventSaleRegistered: "closed",
	}, b.States())
	assert.Equal(t, "closed", b.State(EventCashClosed), "unused action reads as closed")
}

func TestWebhookBreakers_SuccessResetsFailures(t *testing.T) {
	b := NewWebhookBreakers(BreakerConfig{FailureThreshold: 2})
	_ = b.Execute(EventCashClosed, func() error { return errDown })
	_ = b.Execute(EventCashClosed, func() error { return nil })
	_ = b.Execute(EventCashClosed, func() error { return errDown })
	assert.Equal(t, "closed", b.State(EventCashClosed))
}

func TestWebhookBreakers_CancelledDeliveryDoesNotTrip(t *testing.T) {
	b := NewWebhookBreakers(BreakerConfig{FailureThreshold: 1})
	err := b.Execute(EventCashClosed, func() error { return context.Canceled })
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "closed", b.State(EventCashClosed))
}

func TestWebhookBreakers_HalfOpenRecovery(t *testing.T) {
	b := NewWebhookBreakers(BreakerConfig{FailureThreshold: 1, HalfOpenRequests: 2, OpenTimeout: 10 * time.Millisecond})
	_ = b.Execute(EventPetReady, func() error { return errDown })
	assert.Equal(t, "open", b.State(EventPetReady))

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, "half-open", b.State(EventPetReady))

	assert.NoError(t, b.Execute(EventPetReady, func() error { return nil }))
	assert.Equal(t, "half-open", b.State(EventPetReady))
	assert.NoError(t, b.Execute(EventPetReady, func() error { return nil }))
	assert.Equal(t, "closed", b.State(EventPetReady))
}

func TestWebhookBreakers_FailedHalfOpenCallReopens(t *testing.T) {
	b := NewWebhookBreakers(BreakerConfig{FailureThreshold: 1, OpenTimeout: 10 * time.Millisecond})
	_ = b.Execute(EventPetReady, func() error { return errDown })
	time.Sleep(20 * time.Millisecond)
	_ = b.Execute(EventPetReady, func() error { return errDown })
	assert.Equal(t, "open", b.State(EventPetReady))
}
