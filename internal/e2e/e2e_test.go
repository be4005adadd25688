//go:build integration

package e2e

// End-to-end tests against real Postgres + Redis via testcontainers.
// Run with: go test -tags integration ./internal/e2e/... -v

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"petzap/internal/config"
	"petzap/internal/infra"
	"petzap/internal/middleware"
	"petzap/internal/model"
	"petzap/internal/router"
	"petzap/internal/worker"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
	"gorm.io/gorm"
)

// ── Helpers ──────────────────────────────────────────────────────────────────

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func do(t *testing.T, srv *httptest.Server, method, path string, body *bytes.Buffer, token string) *http.Response {
	t.Helper()
	if body == nil {
		body = &bytes.Buffer{}
	}
	req, err := http.NewRequest(method, srv.URL+path, body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}

// ── Test Suite Setup ─────────────────────────────────────────────────────────

type testEnv struct {
	server *httptest.Server
	token  string
	db     *gorm.DB
	rdb    *redis.Client
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcPostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcPostgres.WithDatabase("petzap_test"),
		tcPostgres.WithUsername("petzap"),
		tcPostgres.WithPassword("petzap"),
		tcPostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	pgURL, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	rdC, err := tcRedis.RunContainer(ctx, testcontainers.WithImage("redis:7-alpine"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(ctx) })

	rdURL, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)

	cfg := &config.Config{
		Env:            "test",
		JWTSecret:      "test-secret-key",
		RequestTimeout: 10 * time.Second,
		DatabaseURL:    pgURL,
		RedisURL:       rdURL,
		CartTTL:        time.Hour,
		StoreName:      "PetZap E2E",
		PDFStoragePath: t.TempDir(),
		Features:       config.DefaultFeatures(),
		Pricing:        config.DefaultPricing(),
	}

	require.NoError(t, infra.Migrate(cfg.DatabaseURL))

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	require.NoError(t, err)
	rdb, err := infra.NewRedis(cfg.RedisURL)
	require.NoError(t, err)

	// no worker pool: published events stay queued so the test can inspect them
	breakers := infra.NewWebhookBreakers(infra.DefaultBreakerConfig())
	srv := httptest.NewServer(router.New(cfg, db, rdb, breakers, worker.NewDispatcher(rdb)))
	t.Cleanup(srv.Close)

	claims := middleware.JWTClaims{
		Email: "caixa@petzap.test",
		Role:  "operator",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.JWTSecret))
	require.NoError(t, err)

	return &testEnv{server: srv, token: token, db: db, rdb: rdb}
}

// ── Tests ────────────────────────────────────────────────────────────────────

func TestE2E_GroomingAndProductSale(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	client := &model.Client{Name: "Carla Mendes", Whatsapp: "5511977776666"}
	require.NoError(t, env.db.Create(client).Error)
	size := "medio"
	pet := &model.Pet{ClientID: client.ID, Name: "Bidu", Species: "cachorro", Size: &size}
	require.NoError(t, env.db.Create(pet).Error)
	price := decimal.RequireFromString("70")
	apt := &model.GroomingAppointment{
		ClientID:    client.ID,
		PetID:       pet.ID,
		ServiceType: "banho",
		ScheduledAt: time.Now().Add(-2 * time.Hour),
		Status:      model.AppointmentScheduled,
		Price:       &price,
	}
	require.NoError(t, env.db.Create(apt).Error)
	product := &model.Product{
		Name:             "Shampoo Neutro 500ml",
		Category:         "higiene",
		SalePrice:        decimal.RequireFromString("30"),
		StockQuantity:    5,
		MinStockQuantity: 1,
		CommissionRate:   decimal.Zero,
		Active:           true,
	}
	require.NoError(t, env.db.Create(product).Error)

	resp := do(t, env.server, "POST", "/v1/caixa/abrir", jsonBody(t, map[string]any{"opening_amount": 200}), env.token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = do(t, env.server, "POST", "/v1/carrinhos", nil, env.token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var cart struct {
		ID    string `json:"id"`
		Items []struct {
			Type string `json:"type"`
		} `json:"items"`
	}
	decodeJSON(t, resp, &cart)

	resp = do(t, env.server, "PUT", "/v1/carrinhos/"+cart.ID+"/cliente",
		jsonBody(t, map[string]any{"client_id": client.ID.String(), "pet_id": pet.ID.String()}), env.token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeJSON(t, resp, &cart)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "service_banho", cart.Items[0].Type)

	resp = do(t, env.server, "POST", "/v1/carrinhos/"+cart.ID+"/produtos",
		jsonBody(t, map[string]any{"product_id": product.ID.String(), "quantity": 1}), env.token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = do(t, env.server, "POST", "/v1/vendas",
		jsonBody(t, map[string]any{"cart_id": cart.ID, "payment_method": "debit"}), env.token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var sale struct {
		TotalAmount decimal.Decimal `json:"total_amount"`
	}
	decodeJSON(t, resp, &sale)
	assert.True(t, sale.TotalAmount.Equal(decimal.RequireFromString("100")))

	var settled model.GroomingAppointment
	require.NoError(t, env.db.First(&settled, "id = ?", apt.ID).Error)
	assert.Equal(t, model.AppointmentFinished, settled.Status)
	require.NotNil(t, settled.PaymentStatus)
	assert.Equal(t, model.PaymentStatusPaid, *settled.PaymentStatus)

	var stock model.Product
	require.NoError(t, env.db.First(&stock, "id = ?", product.ID).Error)
	assert.Equal(t, 4, stock.StockQuantity)

	queued, err := env.rdb.LLen(ctx, worker.QueueWebhook).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), queued)

	// paying the same appointment twice is impossible: it is no longer pending
	resp = do(t, env.server, "POST", "/v1/carrinhos", nil, env.token)
	decodeJSON(t, resp, &cart)
	resp = do(t, env.server, "PUT", "/v1/carrinhos/"+cart.ID+"/cliente",
		jsonBody(t, map[string]any{"client_id": client.ID.String(), "pet_id": pet.ID.String()}), env.token)
	decodeJSON(t, resp, &cart)
	assert.Empty(t, cart.Items)
}

func TestE2E_CashCloseQueuesEvent(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	resp := do(t, env.server, "POST", "/v1/caixa/abrir", jsonBody(t, map[string]any{"opening_amount": 50}), env.token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = do(t, env.server, "POST", "/v1/caixa/abrir", jsonBody(t, map[string]any{"opening_amount": 50}), env.token)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	resp = do(t, env.server, "POST", "/v1/caixa/movimentos",
		jsonBody(t, map[string]any{"type": "supply", "amount": 20, "reason": "Troco"}), env.token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = do(t, env.server, "POST", "/v1/caixa/fechar", jsonBody(t, map[string]any{"closing_amount": 70}), env.token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var closed struct {
		ExpectedAmount decimal.Decimal `json:"expected_amount"`
		Classification string          `json:"classification"`
	}
	decodeJSON(t, resp, &closed)
	assert.True(t, closed.ExpectedAmount.Equal(decimal.RequireFromString("70")))
	assert.Equal(t, "ok", closed.Classification)

	queued, err := env.rdb.LLen(ctx, worker.QueueWebhook).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), queued)

	resp = do(t, env.server, "GET", "/health", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var health map[string]any
	decodeJSON(t, resp, &health)
	assert.Equal(t, "connected", health["redis"])
	assert.Empty(t, health["webhook_breakers"], "no delivery attempted yet")
}
