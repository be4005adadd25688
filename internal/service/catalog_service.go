package service

import (
	"context"
	"strings"
	"time"

	"petzap/internal/apierror"
	"petzap/internal/dto"
	"petzap/internal/infra"
	"petzap/internal/model"
	"petzap/internal/repository"

	"github.com/google/uuid"
)

const (
	clientSearchLimit   = 50
	productSearchLimit  = 100
	defaultInactiveDays = 30
	defaultCampaignText = "Sentimos sua falta! Que tal agendar um banho para o seu pet?"
)

// CatalogService serves the read side of the counter: clients, pets,
// employees, products and plans. It also owns the two client-facing
// automations that are not tied to a sale: pet-ready and inactivity campaigns.
type CatalogService interface {
	SearchClients(ctx context.Context, query string) ([]dto.ClientResponse, error)
	ListPets(ctx context.Context, clientID uuid.UUID) ([]dto.PetResponse, error)
	ListEmployees(ctx context.Context) ([]dto.EmployeeResponse, error)

	SearchProducts(ctx context.Context, query, category string) ([]dto.ProductResponse, error)
	LowStockProducts(ctx context.Context) ([]dto.ProductResponse, error)
	ProductByBarcode(ctx context.Context, barcode string) (*dto.ProductResponse, error)

	ActivePlan(ctx context.Context, clientID, petID uuid.UUID) (*dto.PlanResponse, error)

	InactiveClients(ctx context.Context, days int) ([]dto.InactiveClientResponse, error)
	// LaunchInactivityCampaign publishes one inactivity_campaign event for the
	// selected inactive clients (all of them when clientIDs is empty).
	LaunchInactivityCampaign(ctx context.Context, req dto.CampaignRequest) (*dto.CampaignResponse, error)
	// MarkPetReady flags a grooming appointment ready and notifies the owner.
	MarkPetReady(ctx context.Context, appointmentID uuid.UUID) (*dto.AppointmentResponse, error)
}

type catalogService struct {
	catalog    repository.CatalogRepository
	products   repository.ProductRepository
	scheduling repository.SchedulingRepository
	notifier   Notifier
	now        func() time.Time
}

func NewCatalogService(
	catalog repository.CatalogRepository,
	products repository.ProductRepository,
	scheduling repository.SchedulingRepository,
	notifier Notifier,
) CatalogService {
	return &catalogService{
		catalog:    catalog,
		products:   products,
		scheduling: scheduling,
		notifier:   notifier,
		now:        time.Now,
	}
}

// ── Clients ──────────────────────────────────────────────────────────────────

func (s *catalogService) SearchClients(ctx context.Context, query string) ([]dto.ClientResponse, error) {
	clients, err := s.catalog.SearchClients(ctx, strings.TrimSpace(query), clientSearchLimit)
	if err != nil {
		return nil, apierror.Persistence("falha ao buscar clientes", err)
	}
	out := make([]dto.ClientResponse, 0, len(clients))
	for i := range clients {
		out = append(out, clientToResponse(&clients[i]))
	}
	return out, nil
}

func (s *catalogService) ListPets(ctx context.Context, clientID uuid.UUID) ([]dto.PetResponse, error) {
	if _, err := s.catalog.FindClient(ctx, clientID); err != nil {
		return nil, lookupErr(err, "Cliente não encontrado")
	}
	pets, err := s.catalog.ListPets(ctx, clientID)
	if err != nil {
		return nil, apierror.Persistence("falha ao listar pets", err)
	}
	out := make([]dto.PetResponse, 0, len(pets))
	for _, p := range pets {
		out = append(out, dto.PetResponse{
			ID:       p.ID.String(),
			ClientID: p.ClientID.String(),
			Name:     p.Name,
			Species:  p.Species,
			Breed:    p.Breed,
			Size:     p.Size,
		})
	}
	return out, nil
}

func (s *catalogService) ListEmployees(ctx context.Context) ([]dto.EmployeeResponse, error) {
	employees, err := s.catalog.ListEmployees(ctx, true)
	if err != nil {
		return nil, apierror.Persistence("falha ao listar funcionários", err)
	}
	out := make([]dto.EmployeeResponse, 0, len(employees))
	for _, e := range employees {
		out = append(out, dto.EmployeeResponse{
			ID:             e.ID.String(),
			Name:           e.Name,
			Role:           e.Role,
			CommissionRate: e.CommissionRate,
		})
	}
	return out, nil
}

// ── Products ─────────────────────────────────────────────────────────────────

func (s *catalogService) SearchProducts(ctx context.Context, query, category string) ([]dto.ProductResponse, error) {
	return s.listProducts(ctx, repository.ProductFilter{
		Query:    strings.TrimSpace(query),
		Category: category,
		Limit:    productSearchLimit,
	})
}

func (s *catalogService) LowStockProducts(ctx context.Context) ([]dto.ProductResponse, error) {
	return s.listProducts(ctx, repository.ProductFilter{LowStockOnly: true})
}

func (s *catalogService) listProducts(ctx context.Context, f repository.ProductFilter) ([]dto.ProductResponse, error) {
	products, err := s.products.List(ctx, f)
	if err != nil {
		return nil, apierror.Persistence("falha ao listar produtos", err)
	}
	out := make([]dto.ProductResponse, 0, len(products))
	for i := range products {
		out = append(out, productToResponse(&products[i]))
	}
	return out, nil
}

func (s *catalogService) ProductByBarcode(ctx context.Context, barcode string) (*dto.ProductResponse, error) {
	p, err := s.products.FindByBarcode(ctx, barcode)
	if err != nil {
		return nil, lookupErr(err, "Produto não encontrado")
	}
	resp := productToResponse(p)
	return &resp, nil
}

// ── Plans ────────────────────────────────────────────────────────────────────

func (s *catalogService) ActivePlan(ctx context.Context, clientID, petID uuid.UUID) (*dto.PlanResponse, error) {
	plan, err := s.catalog.FindActivePlan(ctx, clientID, petID, s.now())
	if err != nil {
		return nil, lookupErr(err, "Nenhum plano ativo para este pet")
	}
	return &dto.PlanResponse{
		ID:         plan.ID.String(),
		PlanName:   plan.PlanName,
		TotalBaths: plan.TotalBaths,
		UsedBaths:  plan.UsedBaths,
		Remaining:  plan.Remaining(),
		ExpiresAt:  plan.ExpiresAt,
	}, nil
}

// ── Automations ──────────────────────────────────────────────────────────────

func (s *catalogService) InactiveClients(ctx context.Context, days int) ([]dto.InactiveClientResponse, error) {
	if days <= 0 {
		days = defaultInactiveDays
	}
	now := s.now()
	clients, err := s.catalog.ListInactiveClients(ctx, now.AddDate(0, 0, -days))
	if err != nil {
		return nil, apierror.Persistence("falha ao listar clientes inativos", err)
	}
	out := make([]dto.InactiveClientResponse, 0, len(clients))
	for i := range clients {
		out = append(out, dto.InactiveClientResponse{
			ClientResponse: clientToResponse(&clients[i]),
			DaysInactive:   daysInactive(&clients[i], now),
		})
	}
	return out, nil
}

func (s *catalogService) LaunchInactivityCampaign(ctx context.Context, req dto.CampaignRequest) (*dto.CampaignResponse, error) {
	if req.Days < 1 {
		return nil, apierror.Validation("período de inatividade deve ser de pelo menos 1 dia")
	}
	inactive, err := s.InactiveClients(ctx, req.Days)
	if err != nil {
		return nil, err
	}

	selected := inactive
	if len(req.ClientIDs) > 0 {
		wanted := make(map[string]bool, len(req.ClientIDs))
		for _, id := range req.ClientIDs {
			wanted[id] = true
		}
		selected = selected[:0:0]
		for _, c := range inactive {
			if wanted[c.ID] {
				selected = append(selected, c)
			}
		}
	}
	if len(selected) == 0 {
		return nil, apierror.Precondition("Nenhum cliente inativo selecionado")
	}

	message := defaultCampaignText
	if req.Message != nil && strings.TrimSpace(*req.Message) != "" {
		message = strings.TrimSpace(*req.Message)
	}
	recipients := make([]map[string]interface{}, 0, len(selected))
	for _, c := range selected {
		recipients = append(recipients, map[string]interface{}{
			"client_id":     c.ID,
			"name":          c.Name,
			"whatsapp":      c.Whatsapp,
			"days_inactive": c.DaysInactive,
		})
	}

	publish(ctx, s.notifier, infra.NewEvent(infra.EventInactivityCampaign, map[string]interface{}{
		"days":    req.Days,
		"message": message,
		"clients": recipients,
	}))
	return &dto.CampaignResponse{
		Action:  infra.EventInactivityCampaign,
		Clients: len(selected),
		Queued:  s.notifier != nil,
	}, nil
}

func (s *catalogService) MarkPetReady(ctx context.Context, appointmentID uuid.UUID) (*dto.AppointmentResponse, error) {
	apt, err := s.scheduling.FindAppointment(ctx, appointmentID)
	if err != nil {
		return nil, lookupErr(err, "Agendamento não encontrado")
	}
	switch apt.Status {
	case model.AppointmentCancelled:
		return nil, apierror.Precondition("Agendamento cancelado")
	case model.AppointmentFinished:
		return nil, apierror.Precondition("Agendamento já finalizado")
	}

	n, err := s.scheduling.UpdateAppointmentStatus(ctx, apt.ID, model.AppointmentReady)
	if err != nil {
		return nil, apierror.Persistence("falha ao atualizar agendamento", err)
	}
	if n == 0 {
		return nil, apierror.Conflict("Agendamento foi alterado por outra operação")
	}
	apt.Status = model.AppointmentReady

	fields := map[string]interface{}{
		"appointment_id": apt.ID.String(),
		"client_id":      apt.ClientID.String(),
		"pet_id":         apt.PetID.String(),
		"service":        groomingLabel(apt),
	}
	if client, err := s.catalog.FindClient(ctx, apt.ClientID); err == nil {
		fields["client_name"] = client.Name
		fields["whatsapp"] = client.Whatsapp
	}
	if pet, err := s.catalog.FindPet(ctx, apt.PetID); err == nil {
		fields["pet_name"] = pet.Name
	}
	publish(ctx, s.notifier, infra.NewEvent(infra.EventPetReady, fields))

	return &dto.AppointmentResponse{
		ID:          apt.ID.String(),
		ClientID:    apt.ClientID.String(),
		PetID:       apt.PetID.String(),
		ServiceType: apt.ServiceType,
		ScheduledAt: apt.ScheduledAt,
		Status:      apt.Status,
	}, nil
}

// ── Mapping ──────────────────────────────────────────────────────────────────

func clientToResponse(c *model.Client) dto.ClientResponse {
	return dto.ClientResponse{
		ID:              c.ID.String(),
		Name:            c.Name,
		Whatsapp:        c.Whatsapp,
		Email:           c.Email,
		LastPurchase:    c.LastPurchase,
		LastInteraction: c.LastInteraction,
	}
}

func productToResponse(p *model.Product) dto.ProductResponse {
	return dto.ProductResponse{
		ID:               p.ID.String(),
		Name:             p.Name,
		Category:         p.Category,
		SKU:              p.SKU,
		Barcode:          p.Barcode,
		Brand:            p.Brand,
		Unit:             p.Unit,
		SalePrice:        p.SalePrice,
		StockQuantity:    p.StockQuantity,
		MinStockQuantity: p.MinStockQuantity,
		LowStock:         p.LowStock(),
		CommissionRate:   p.CommissionRate,
	}
}

// daysInactive counts from the latest purchase or interaction, else from signup.
func daysInactive(c *model.Client, now time.Time) int {
	last := c.CreatedAt
	if c.LastPurchase != nil && c.LastPurchase.After(last) {
		last = *c.LastPurchase
	}
	if c.LastInteraction != nil && c.LastInteraction.After(last) {
		last = *c.LastInteraction
	}
	if last.IsZero() {
		return 0
	}
	return int(now.Sub(last).Hours() / 24)
}
