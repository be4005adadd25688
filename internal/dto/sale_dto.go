package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

type FinalizeSaleRequest struct {
	CartID        string  `json:"cart_id"        validate:"required,uuid"`
	PaymentMethod string  `json:"payment_method" validate:"required,oneof=cash pix credit debit"`
	Notes         *string `json:"notes"          validate:"omitempty,max=500"`
}

// ClientSalesFilter is bound from the query string of the billing history.
type ClientSalesFilter struct {
	Period        string `form:"periodo" validate:"omitempty,oneof=30d 90d 12m all"`
	PetID         string `form:"pet_id"  validate:"omitempty,uuid"`
	PaymentMethod string `form:"metodo"  validate:"omitempty,oneof=cash pix credit debit"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type SaleItemResponse struct {
	ID             string          `json:"id"`
	ItemType       string          `json:"item_type"`
	Description    string          `json:"description"`
	Quantity       int             `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TotalPrice     decimal.Decimal `json:"total_price"`
	CoveredByPlan  bool            `json:"covered_by_plan"`
	ProductID      *string         `json:"product_id,omitempty"`
	SourceID       *string         `json:"source_id,omitempty"`
	PetID          *string         `json:"pet_id,omitempty"`
}

type SaleResponse struct {
	ID              string             `json:"id"`
	CashRegisterID  *string            `json:"cash_register_id"`
	ClientID        *string            `json:"client_id"`
	PetID           *string            `json:"pet_id"`
	EmployeeID      *string            `json:"employee_id"`
	Subtotal        decimal.Decimal    `json:"subtotal"`
	DiscountAmount  decimal.Decimal    `json:"discount_amount"`
	DiscountPercent decimal.Decimal    `json:"discount_percent"`
	TotalAmount     decimal.Decimal    `json:"total_amount"`
	PaymentMethod   string             `json:"payment_method"`
	PaymentStatus   string             `json:"payment_status"`
	Notes           *string            `json:"notes"`
	Items           []SaleItemResponse `json:"items"`
	// CashBalance is the open session's running balance right after the sale.
	CashBalance *decimal.Decimal `json:"cash_balance,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}

type ClientSalesResponse struct {
	Data        []SaleResponse  `json:"data"`
	Count       int             `json:"count"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}
