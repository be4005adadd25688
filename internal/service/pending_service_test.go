package service

import (
	"context"
	"testing"
	"time"

	"petzap/internal/cart"
	"petzap/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *testEnv) seedStay(t *testing.T, client *model.Client, pet *model.Pet, days int, rate string, total *string, creche bool) *model.HotelStay {
	t.Helper()
	in := time.Now().Add(-time.Duration(days) * 24 * time.Hour)
	s := &model.HotelStay{
		ClientID:  client.ID,
		PetID:     pet.ID,
		CheckIn:   in,
		CheckOut:  in.Add(time.Duration(days) * 24 * time.Hour),
		DailyRate: dec(rate),
		IsCreche:  creche,
		Status:    model.StayCheckedIn,
	}
	if total != nil {
		s.TotalPrice = decPtr(*total)
	}
	require.NoError(t, e.db.Create(s).Error)
	return s
}

func TestResolve_PlanCreditsGoToOldestAppointments(t *testing.T) {
	env := newTestEnv(t)
	client, pet := env.seedClientPet(t, "medio")
	env.seedPlan(t, client, pet, 5, 3)
	base := time.Now().Add(-72 * time.Hour)
	a := env.seedAppointment(t, client, pet, "banho", base, decPtr("50"))
	b := env.seedAppointment(t, client, pet, "banho", base.Add(time.Hour), decPtr("50"))
	c := env.seedAppointment(t, client, pet, "banho", base.Add(2*time.Hour), decPtr("50"))

	items, err := env.resolver().Resolve(context.Background(), client.ID, pet.ID)
	require.NoError(t, err)
	require.Len(t, items, 3)

	assert.Equal(t, "apt_"+a.ID.String(), items[0].ID)
	assert.Equal(t, "apt_"+b.ID.String(), items[1].ID)
	assert.Equal(t, "apt_"+c.ID.String(), items[2].ID)
	assert.True(t, items[0].CoveredByPlan)
	assert.True(t, items[1].CoveredByPlan)
	assert.False(t, items[2].CoveredByPlan)
	assert.True(t, items[0].TotalPrice.IsZero())
	assert.True(t, items[2].TotalPrice.Equal(dec("50")))
}

func TestResolve_PlansDisabledCoversNothing(t *testing.T) {
	env := newTestEnv(t)
	env.features.LoyaltyPlansEnabled = false
	client, pet := env.seedClientPet(t, "medio")
	env.seedPlan(t, client, pet, 5, 0)
	env.seedAppointment(t, client, pet, "banho", time.Now(), decPtr("50"))

	items, err := env.resolver().Resolve(context.Background(), client.ID, pet.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.False(t, items[0].CoveredByPlan)
}

func TestResolve_AppointmentPriceFallbacks(t *testing.T) {
	env := newTestEnv(t)
	client, pet := env.seedClientPet(t, "grande")
	require.NoError(t, env.db.Create(&model.ServicePrice{SizeCategory: "grande", ServiceType: "banho", Price: dec("70")}).Error)

	stored := env.seedAppointment(t, client, pet, "banho", time.Now().Add(-3*time.Hour), decPtr("85"))
	table := env.seedAppointment(t, client, pet, "banho", time.Now().Add(-2*time.Hour), nil)
	fallback := env.seedAppointment(t, client, pet, "banho_tosa", time.Now().Add(-time.Hour), nil)

	items, err := env.resolver().Resolve(context.Background(), client.ID, pet.ID)
	require.NoError(t, err)
	require.Len(t, items, 3)

	byID := map[string]cart.Item{}
	for _, it := range items {
		byID[it.ID] = it
	}
	assert.True(t, byID["apt_"+stored.ID.String()].UnitPrice.Equal(dec("85")))
	assert.True(t, byID["apt_"+table.ID.String()].UnitPrice.Equal(dec("70")))
	assert.True(t, byID["apt_"+fallback.ID.String()].UnitPrice.Equal(dec("50")))
	assert.Equal(t, "Banho + Tosa", byID["apt_"+fallback.ID.String()].Description)
	assert.True(t, byID["apt_"+stored.ID.String()].CommissionRate.Equal(dec("10")))
}

func TestResolve_HotelStays(t *testing.T) {
	env := newTestEnv(t)
	client, pet := env.seedClientPet(t, "pequeno")
	negotiated := "200"
	daily := env.seedStay(t, client, pet, 3, "80", nil, false)
	deal := env.seedStay(t, client, pet, 2, "120", &negotiated, false)
	creche := env.seedStay(t, client, pet, 1, "60", nil, true)

	items, err := env.resolver().Resolve(context.Background(), client.ID, pet.ID)
	require.NoError(t, err)
	require.Len(t, items, 3)

	byID := map[string]cart.Item{}
	for _, it := range items {
		assert.Equal(t, cart.TypeHotel, it.Type)
		byID[it.ID] = it
	}

	d := byID["hotel_"+daily.ID.String()]
	assert.Equal(t, 3, d.Quantity)
	assert.True(t, d.UnitPrice.Equal(dec("80")))
	assert.True(t, d.TotalPrice.Equal(dec("240")))
	assert.Equal(t, "Hotel - 3 diárias", d.Description)

	n := byID["hotel_"+deal.ID.String()]
	assert.Equal(t, 1, n.Quantity)
	assert.True(t, n.TotalPrice.Equal(dec("200")))

	c := byID["hotel_"+creche.ID.String()]
	assert.Equal(t, "Creche (Day Care)", c.Description)
	assert.True(t, c.CommissionRate.Equal(dec("5")))
}

func TestResolve_FeatureTogglesAndOwnership(t *testing.T) {
	env := newTestEnv(t)
	client, pet := env.seedClientPet(t, "medio")
	env.seedAppointment(t, client, pet, "banho", time.Now(), decPtr("50"))
	env.seedStay(t, client, pet, 1, "80", nil, false)

	env.features.GroomingEnabled = false
	items, err := env.resolver().Resolve(context.Background(), client.ID, pet.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, cart.TypeHotel, items[0].Type)

	other, _ := env.seedClientPet(t, "medio")
	items, err = env.resolver().Resolve(context.Background(), other.ID, pet.ID)
	require.NoError(t, err)
	assert.Empty(t, items)

	items, err = env.resolver().Resolve(context.Background(), client.ID, newID())
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestStayNights(t *testing.T) {
	in := time.Date(2026, 5, 1, 14, 0, 0, 0, time.UTC)
	assert.Equal(t, 1, stayNights(in, in.Add(6*time.Hour)))
	assert.Equal(t, 1, stayNights(in, in.Add(24*time.Hour)))
	assert.Equal(t, 1, stayNights(in, in.Add(47*time.Hour)))
	assert.Equal(t, 2, stayNights(in, in.Add(48*time.Hour)))
	assert.Equal(t, 1, stayNights(in, in.Add(-time.Hour)))
}
