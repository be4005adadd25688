package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CampaignRequest struct {
	Days      int      `json:"dias"        validate:"required,min=1,max=365"`
	ClientIDs []string `json:"cliente_ids" validate:"omitempty,dive,uuid"`
	Message   *string  `json:"mensagem"    validate:"omitempty,max=1000"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ClientResponse struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Whatsapp        string     `json:"whatsapp"`
	Email           *string    `json:"email"`
	LastPurchase    *time.Time `json:"last_purchase"`
	LastInteraction *time.Time `json:"last_interaction"`
}

type InactiveClientResponse struct {
	ClientResponse
	DaysInactive int `json:"days_inactive"`
}

type CampaignResponse struct {
	Action  string `json:"action"`
	Clients int    `json:"clients"`
	Queued  bool   `json:"queued"`
}

type PetResponse struct {
	ID       string  `json:"id"`
	ClientID string  `json:"client_id"`
	Name     string  `json:"name"`
	Species  string  `json:"species"`
	Breed    *string `json:"breed"`
	Size     *string `json:"size"`
}

type EmployeeResponse struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Role           string          `json:"role"`
	CommissionRate decimal.Decimal `json:"commission_rate"`
}

type ProductResponse struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	Category         string          `json:"category"`
	SKU              *string         `json:"sku"`
	Barcode          *string         `json:"barcode"`
	Brand            *string         `json:"brand"`
	Unit             string          `json:"unit"`
	SalePrice        decimal.Decimal `json:"sale_price"`
	StockQuantity    int             `json:"stock_quantity"`
	MinStockQuantity int             `json:"min_stock_quantity"`
	LowStock         bool            `json:"low_stock"`
	CommissionRate   decimal.Decimal `json:"commission_rate"`
}

type PlanResponse struct {
	ID         string    `json:"id"`
	PlanName   string    `json:"plan_name"`
	TotalBaths int       `json:"total_baths"`
	UsedBaths  int       `json:"used_baths"`
	Remaining  int       `json:"remaining"`
	ExpiresAt  time.Time `json:"expires_at"`
}

type AppointmentResponse struct {
	ID          string    `json:"id"`
	ClientID    string    `json:"client_id"`
	PetID       string    `json:"pet_id"`
	ServiceType string    `json:"service_type"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Status      string    `json:"status"`
}

type StockMovementResponse struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Quantity    int       `json:"quantity"`
	StockAfter  int       `json:"stock_after"`
	Reason      string    `json:"reason"`
	ReferenceID *string   `json:"reference_id"`
	CreatedAt   time.Time `json:"created_at"`
}
