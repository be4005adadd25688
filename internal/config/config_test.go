package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Port)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 5*time.Second, cfg.WebhookTimeout)
	assert.Equal(t, DefaultFeatures(), cfg.Features)
	assert.False(t, cfg.Features.FiscalEnabled)
	assert.True(t, cfg.Pricing.GroomingRate().Equal(decimal.NewFromInt(15)))
	assert.True(t, cfg.Pricing.HotelRate().Equal(decimal.NewFromInt(10)))
	assert.True(t, cfg.Pricing.FallbackPrice().Equal(decimal.NewFromInt(50)))
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9100")
	t.Setenv("FEATURE_HOTEL", "false")
	t.Setenv("FEATURE_REQUIRE_OPEN_CASH", "false")
	t.Setenv("FALLBACK_SERVICE_PRICE", "65.5")
	t.Setenv("WEBHOOK_TIMEOUT", "2s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Port)
	assert.False(t, cfg.Features.HotelEnabled)
	assert.False(t, cfg.Features.RequireOpenCash)
	assert.True(t, cfg.Features.StockEnabled)
	assert.True(t, cfg.Pricing.FallbackPrice().Equal(decimal.RequireFromString("65.5")))
	assert.Equal(t, 2*time.Second, cfg.WebhookTimeout)
}
