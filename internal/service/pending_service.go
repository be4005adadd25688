package service

import (
	"context"
	"fmt"
	"time"

	"petzap/internal/apierror"
	"petzap/internal/cart"
	"petzap/internal/config"
	"petzap/internal/model"
	"petzap/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// PendingServiceResolver turns the unpaid grooming appointments and hotel
// stays of a pet into cart lines, applying loyalty plan credits.
type PendingServiceResolver interface {
	Resolve(ctx context.Context, clientID, petID uuid.UUID) ([]cart.Item, error)
}

type pendingServiceResolver struct {
	catalog    repository.CatalogRepository
	scheduling repository.SchedulingRepository
	features   config.Features
	pricing    config.Pricing
	now        func() time.Time
}

func NewPendingServiceResolver(
	catalog repository.CatalogRepository,
	scheduling repository.SchedulingRepository,
	features config.Features,
	pricing config.Pricing,
) PendingServiceResolver {
	return &pendingServiceResolver{
		catalog:    catalog,
		scheduling: scheduling,
		features:   features,
		pricing:    pricing,
		now:        time.Now,
	}
}

var groomingLabels = map[string]string{
	"banho":          "Banho",
	"banho_tosa":     "Banho + Tosa",
	"tosa_baby":      "Tosa Baby",
	"tosa_higienica": "Tosa Higiênica",
	"tosa_padrao":    "Tosa Padrão",
	"tosa_tesoura":   "Tosa Tesoura",
	"tosa_maquina":   "Tosa Máquina",
}

// Resolve returns grooming lines first (oldest scheduled first), then hotel
// lines. A pet that does not exist or belongs to another client yields no lines.
func (r *pendingServiceResolver) Resolve(ctx context.Context, clientID, petID uuid.UUID) ([]cart.Item, error) {
	items := []cart.Item{}

	pet, err := r.catalog.FindPet(ctx, petID)
	if err != nil {
		if isNotFound(err) {
			return items, nil
		}
		return nil, apierror.Persistence("falha ao carregar pet", err)
	}
	if pet.ClientID != clientID {
		return items, nil
	}

	if r.features.GroomingEnabled {
		grooming, err := r.resolveGrooming(ctx, clientID, pet)
		if err != nil {
			return nil, err
		}
		items = append(items, grooming...)
	}
	if r.features.HotelEnabled {
		hotel, err := r.resolveHotel(ctx, clientID, pet)
		if err != nil {
			return nil, err
		}
		items = append(items, hotel...)
	}
	return items, nil
}

// ── Grooming ─────────────────────────────────────────────────────────────────

func (r *pendingServiceResolver) resolveGrooming(ctx context.Context, clientID uuid.UUID, pet *model.Pet) ([]cart.Item, error) {
	apts, err := r.scheduling.ListPendingAppointments(ctx, clientID, pet.ID)
	if err != nil {
		return nil, apierror.Persistence("falha ao carregar agendamentos pendentes", err)
	}
	if len(apts) == 0 {
		return nil, nil
	}

	credits, err := r.remainingCredits(ctx, clientID, pet.ID)
	if err != nil {
		return nil, err
	}

	items := make([]cart.Item, 0, len(apts))
	for i := range apts {
		apt := &apts[i]
		price := r.appointmentPrice(ctx, apt, pet)
		covered := credits > 0
		if covered {
			credits--
		}

		sourceID, petID := apt.ID, pet.ID
		item := cart.Item{
			ID:             "apt_" + apt.ID.String(),
			Type:           cart.TypeGrooming,
			Description:    groomingLabel(apt),
			Quantity:       1,
			UnitPrice:      price,
			DiscountAmount: decimal.Zero,
			TotalPrice:     price,
			CoveredByPlan:  covered,
			SourceID:       &sourceID,
			PetID:          &petID,
			PetName:        pet.Name,
			CommissionRate: r.pricing.GroomingRate(),
			ServiceStatus:  apt.Status,
		}
		if covered {
			item.TotalPrice = decimal.Zero
		}
		items = append(items, item)
	}
	return items, nil
}

func (r *pendingServiceResolver) remainingCredits(ctx context.Context, clientID, petID uuid.UUID) (int, error) {
	if !r.features.LoyaltyPlansEnabled {
		return 0, nil
	}
	plan, err := r.catalog.FindActivePlan(ctx, clientID, petID, r.now())
	if err != nil {
		if isNotFound(err) {
			return 0, nil
		}
		return 0, apierror.Persistence("falha ao carregar plano", err)
	}
	if !plan.Eligible(r.now()) {
		return 0, nil
	}
	return plan.Remaining(), nil
}

// appointmentPrice: stored price, then the size/type price table, then the fallback.
func (r *pendingServiceResolver) appointmentPrice(ctx context.Context, apt *model.GroomingAppointment, pet *model.Pet) decimal.Decimal {
	if apt.Price != nil && apt.Price.IsPositive() {
		return *apt.Price
	}
	if pet.Size != nil && *pet.Size != "" {
		serviceType := apt.ServiceType
		if apt.GroomingType != nil && *apt.GroomingType != "" {
			serviceType = *apt.GroomingType
		}
		sp, err := r.catalog.FindServicePrice(ctx, *pet.Size, serviceType)
		switch {
		case err == nil && sp.Price.IsPositive():
			return sp.Price
		case err != nil && !isNotFound(err):
			log.Warn().Err(err).Str("appointment_id", apt.ID.String()).Msg("service price lookup failed, using fallback")
		}
	}
	return r.pricing.FallbackPrice()
}

func groomingLabel(apt *model.GroomingAppointment) string {
	key := apt.ServiceType
	if apt.GroomingType != nil && *apt.GroomingType != "" {
		key = *apt.GroomingType
	}
	if label, ok := groomingLabels[key]; ok {
		return label
	}
	return key
}

// ── Hotel ────────────────────────────────────────────────────────────────────

func (r *pendingServiceResolver) resolveHotel(ctx context.Context, clientID uuid.UUID, pet *model.Pet) ([]cart.Item, error) {
	stays, err := r.scheduling.ListPendingStays(ctx, clientID, pet.ID)
	if err != nil {
		return nil, apierror.Persistence("falha ao carregar hospedagens pendentes", err)
	}

	items := make([]cart.Item, 0, len(stays))
	for i := range stays {
		stay := &stays[i]
		nights := stayNights(stay.CheckIn, stay.CheckOut)
		qty, unit := nights, stay.DailyRate
		computed := stay.DailyRate.Mul(decimal.NewFromInt(int64(nights)))
		if stay.TotalPrice != nil && stay.TotalPrice.IsPositive() && !stay.TotalPrice.Equal(computed) {
			// negotiated total: one line at the stored amount
			qty, unit = 1, *stay.TotalPrice
		}

		sourceID, petID := stay.ID, pet.ID
		items = append(items, cart.Item{
			ID:             "hotel_" + stay.ID.String(),
			Type:           cart.TypeHotel,
			Description:    hotelLabel(stay.IsCreche, nights),
			Quantity:       qty,
			UnitPrice:      unit,
			DiscountAmount: decimal.Zero,
			TotalPrice:     unit.Mul(decimal.NewFromInt(int64(qty))),
			SourceID:       &sourceID,
			PetID:          &petID,
			PetName:        pet.Name,
			CommissionRate: r.pricing.HotelRate(),
			ServiceStatus:  stay.Status,
		})
	}
	return items, nil
}

// stayNights is the whole days between check-in and check-out, at least 1.
func stayNights(checkIn, checkOut time.Time) int {
	n := int(checkOut.Sub(checkIn).Hours() / 24)
	if n < 1 {
		return 1
	}
	return n
}

func hotelLabel(isCreche bool, nights int) string {
	if isCreche {
		return "Creche (Day Care)"
	}
	if nights == 1 {
		return "Hotel - 1 diária"
	}
	return fmt.Sprintf("Hotel - %d diárias", nights)
}
