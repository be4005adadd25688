package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"petzap/internal/cart"
	"petzap/internal/model"
	"petzap/internal/testutil"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestDecrementStock_FloorsAtZero(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewProductRepository(db)
	ctx := context.Background()

	p := &model.Product{Name: "Ração 10kg", SalePrice: decimal.NewFromInt(150), StockQuantity: 4, Active: true}
	require.NoError(t, db.Create(p).Error)

	left, err := repo.DecrementStock(ctx, nil, p.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 1, left)

	left, err = repo.DecrementStock(ctx, nil, p.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 0, left)

	_, err = repo.DecrementStock(ctx, nil, uuid.New(), 1)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestFindActivePlan_EarliestExpiryWithCredits(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewCatalogRepository(db)
	ctx := context.Background()
	clientID, petID := uuid.New(), uuid.New()
	now := time.Now()

	plans := []*model.ClientPlan{
		{ClientID: clientID, PetID: petID, PlanName: "esgotado", TotalBaths: 4, UsedBaths: 4, ExpiresAt: now.AddDate(0, 0, 5), Active: true},
		{ClientID: clientID, PetID: petID, PlanName: "vencido", TotalBaths: 4, UsedBaths: 0, ExpiresAt: now.AddDate(0, 0, -1), Active: true},
		{ClientID: clientID, PetID: petID, PlanName: "longo", TotalBaths: 8, UsedBaths: 1, ExpiresAt: now.AddDate(0, 2, 0), Active: true},
		{ClientID: clientID, PetID: petID, PlanName: "curto", TotalBaths: 4, UsedBaths: 1, ExpiresAt: now.AddDate(0, 0, 20), Active: true},
	}
	for _, p := range plans {
		require.NoError(t, db.Create(p).Error)
	}

	got, err := repo.FindActivePlan(ctx, clientID, petID, now)
	require.NoError(t, err)
	assert.Equal(t, "curto", got.PlanName)

	n, err := repo.ConsumePlanCredit(ctx, nil, plans[0].ID)
	require.NoError(t, err)
	assert.Zero(t, n, "exhausted plan cannot be consumed")
}

func TestSettleAppointment_OnlyOnce(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewSchedulingRepository(db)
	ctx := context.Background()

	apt := &model.GroomingAppointment{ClientID: uuid.New(), PetID: uuid.New(), ServiceType: "banho", ScheduledAt: time.Now(), Status: model.AppointmentReady}
	require.NoError(t, db.Create(apt).Error)

	pending, err := repo.ListPendingAppointments(ctx, apt.ClientID, apt.PetID)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	s := Settlement{PaymentStatus: model.PaymentStatusPaid, PaymentMethod: model.PaymentPix, PaidAt: time.Now()}
	n, err := repo.SettleAppointment(ctx, nil, apt.ID, s)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = repo.SettleAppointment(ctx, nil, apt.ID, s)
	require.NoError(t, err)
	assert.Zero(t, n)

	pending, err = repo.ListPendingAppointments(ctx, apt.ClientID, apt.PetID)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestSaleListByClient_PetMatchesItems(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewSaleRepository(db)
	ctx := context.Background()
	clientID, petA, petB := uuid.New(), uuid.New(), uuid.New()

	sale := &model.Sale{
		ClientID:      &clientID,
		PetID:         &petA,
		Subtotal:      decimal.NewFromInt(90),
		TotalAmount:   decimal.NewFromInt(90),
		PaymentMethod: model.PaymentCash,
		PaymentStatus: model.PaymentStatusPaid,
		Items: []model.SaleItem{
			{ItemType: "service_banho", Description: "Banho", Quantity: 1, UnitPrice: decimal.NewFromInt(50), TotalPrice: decimal.NewFromInt(50), PetID: &petA},
			{ItemType: "service_hotel", Description: "Hotel - 1 diária", Quantity: 1, UnitPrice: decimal.NewFromInt(40), TotalPrice: decimal.NewFromInt(40), PetID: &petB},
		},
	}
	require.NoError(t, repo.Create(ctx, nil, sale))

	for _, pet := range []uuid.UUID{petA, petB} {
		p := pet
		sales, err := repo.ListByClient(ctx, clientID, SaleFilter{PetID: &p})
		require.NoError(t, err)
		require.Len(t, sales, 1)
		assert.Len(t, sales[0].Items, 2)
	}

	other := uuid.New()
	sales, err := repo.ListByClient(ctx, clientID, SaleFilter{PetID: &other})
	require.NoError(t, err)
	assert.Empty(t, sales)
}

func TestMemoryCartStore(t *testing.T) {
	store := NewMemoryCartStore()
	ctx := context.Background()

	c := cart.New()
	_, err := store.Get(ctx, c.ID)
	assert.ErrorIs(t, err, ErrCartNotFound)

	require.NoError(t, store.Save(ctx, c))
	got, err := store.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)

	require.NoError(t, store.Delete(ctx, c.ID))
	_, err = store.Get(ctx, c.ID)
	assert.ErrorIs(t, err, ErrCartNotFound)
}
