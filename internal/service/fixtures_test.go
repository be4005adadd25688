package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"petzap/internal/config"
	"petzap/internal/infra"
	"petzap/internal/model"
	"petzap/internal/repository"
	"petzap/internal/testutil"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func strPtr(s string) *string { return &s }

// ── Notifier stub ────────────────────────────────────────────────────────────

type recordingNotifier struct {
	mu     sync.Mutex
	events []infra.Event
	emails []infra.EmailMessage
}

func (n *recordingNotifier) Publish(_ context.Context, e infra.Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, e)
	return nil
}

func (n *recordingNotifier) EnqueueEmail(_ context.Context, msg infra.EmailMessage) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.emails = append(n.emails, msg)
	return nil
}

func (n *recordingNotifier) actions() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.events))
	for _, e := range n.events {
		out = append(out, e.Action)
	}
	return out
}

// failingNotifier stands in for a Redis outage: every enqueue fails.
type failingNotifier struct{}

func (failingNotifier) Publish(context.Context, infra.Event) error {
	return errors.New("redis: connection refused")
}

func (failingNotifier) EnqueueEmail(context.Context, infra.EmailMessage) error {
	return errors.New("redis: connection refused")
}

// closingCashRepo returns the open session to non-transactional reads and
// closes it right after, so the caller's later write races a committed close.
type closingCashRepo struct {
	repository.CashRepository
	db *gorm.DB
}

func (r *closingCashRepo) FindOpenSession(ctx context.Context, tx *gorm.DB) (*model.CashSession, error) {
	s, err := r.CashRepository.FindOpenSession(ctx, tx)
	if err != nil || tx != nil {
		return s, err
	}
	err = r.db.Model(&model.CashSession{}).Where("id = ?", s.ID).
		Update("status", model.CashStatusClosed).Error
	return s, err
}

// ── Environment ──────────────────────────────────────────────────────────────

type testEnv struct {
	db         *gorm.DB
	notifier   *recordingNotifier
	carts      repository.CartStore
	cashRepo   repository.CashRepository
	products   repository.ProductRepository
	catalog    repository.CatalogRepository
	scheduling repository.SchedulingRepository
	sales      repository.SaleRepository

	features config.Features
	pricing  config.Pricing
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.NewDB(t)
	return &testEnv{
		db:         db,
		notifier:   &recordingNotifier{},
		carts:      repository.NewMemoryCartStore(),
		cashRepo:   repository.NewCashRepository(db),
		products:   repository.NewProductRepository(db),
		catalog:    repository.NewCatalogRepository(db),
		scheduling: repository.NewSchedulingRepository(db),
		sales:      repository.NewSaleRepository(db),
		features:   config.DefaultFeatures(),
		pricing: config.Pricing{
			GroomingCommissionRate: 10,
			HotelCommissionRate:    5,
			FallbackServicePrice:   50,
		},
	}
}

func (e *testEnv) resolver() PendingServiceResolver {
	return NewPendingServiceResolver(e.catalog, e.scheduling, e.features, e.pricing)
}

func (e *testEnv) cartService() CartService {
	return NewCartService(e.carts, e.products, e.catalog, e.resolver(), e.features)
}

func (e *testEnv) cashService() CashService {
	return NewCashService(e.cashRepo, e.notifier, CashOptions{StoreName: "PetZap Teste"})
}

func (e *testEnv) saleService() SaleService {
	return e.saleServiceWith(e.cashRepo, e.notifier)
}

func (e *testEnv) saleServiceWith(cash repository.CashRepository, n Notifier) SaleService {
	return NewSaleService(SaleDeps{
		Sales:      e.sales,
		Cash:       cash,
		Catalog:    e.catalog,
		Scheduling: e.scheduling,
		Carts:      e.carts,
		Inventory:  NewInventoryService(e.products),
		Notifier:   n,
		Features:   e.features,
	})
}

// ── Seed helpers ─────────────────────────────────────────────────────────────

func (e *testEnv) seedClientPet(t *testing.T, size string) (*model.Client, *model.Pet) {
	t.Helper()
	c := &model.Client{Name: "Maria Souza", Whatsapp: "5511999990000"}
	require.NoError(t, e.db.Create(c).Error)
	p := &model.Pet{ClientID: c.ID, Name: "Thor", Species: "cachorro", Size: strPtr(size)}
	require.NoError(t, e.db.Create(p).Error)
	return c, p
}

func (e *testEnv) seedProduct(t *testing.T, name, price string, stock int) *model.Product {
	t.Helper()
	p := &model.Product{
		Name:             name,
		Category:         "racao",
		SalePrice:        dec(price),
		StockQuantity:    stock,
		MinStockQuantity: 2,
		CommissionRate:   dec("0"),
		Active:           true,
	}
	require.NoError(t, e.db.Create(p).Error)
	return p
}

func (e *testEnv) seedEmployee(t *testing.T) *model.Employee {
	t.Helper()
	emp := &model.Employee{Name: "Ana Tosadora", Role: "groomer", CommissionRate: dec("10"), Active: true}
	require.NoError(t, e.db.Create(emp).Error)
	return emp
}

func (e *testEnv) seedAppointment(t *testing.T, client *model.Client, pet *model.Pet, serviceType string, at time.Time, price *decimal.Decimal) *model.GroomingAppointment {
	t.Helper()
	a := &model.GroomingAppointment{
		ClientID:    client.ID,
		PetID:       pet.ID,
		ServiceType: serviceType,
		ScheduledAt: at,
		Status:      model.AppointmentScheduled,
		Price:       price,
	}
	require.NoError(t, e.db.Create(a).Error)
	return a
}

func (e *testEnv) seedPlan(t *testing.T, client *model.Client, pet *model.Pet, total, used int) *model.ClientPlan {
	t.Helper()
	p := &model.ClientPlan{
		ClientID:   client.ID,
		PetID:      pet.ID,
		PlanName:   "Pacote 4 banhos",
		TotalBaths: total,
		UsedBaths:  used,
		PricePaid:  dec("180"),
		ExpiresAt:  time.Now().AddDate(0, 1, 0),
		Active:     true,
	}
	require.NoError(t, e.db.Create(p).Error)
	return p
}

func (e *testEnv) openCash(t *testing.T, amount string) {
	t.Helper()
	_, err := e.cashService().Open(context.Background(), nil, dtoOpen(amount))
	require.NoError(t, err)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func idOf(u uuid.UUID) string { return u.String() }

func mustUUID(t *testing.T, s string) uuid.UUID {
	t.Helper()
	id, err := uuid.Parse(s)
	require.NoError(t, err)
	return id
}

func newID() uuid.UUID { return uuid.New() }
