package dto

import (
	"time"

	"petzap/internal/cart"

	"github.com/shopspring/decimal"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

type SelectClientRequest struct {
	ClientID string `json:"client_id" validate:"required,uuid"`
	PetID    string `json:"pet_id"    validate:"required,uuid"`
}

type SetEmployeeRequest struct {
	// Empty clears the employee.
	EmployeeID string `json:"employee_id" validate:"omitempty,uuid"`
}

type AddProductRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity"   validate:"required,min=1,max=9999"`
}

type AddExtraRequest struct {
	Description string          `json:"description" validate:"required,min=2,max=200"`
	Quantity    int             `json:"quantity"    validate:"required,min=1,max=9999"`
	UnitPrice   decimal.Decimal `json:"unit_price"  validate:"min=0"`
}

type UpdateQuantityRequest struct {
	Quantity int `json:"quantity" validate:"required,min=1,max=9999"`
}

type ApplyDiscountRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"min=0"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type CartResponse struct {
	ID         string      `json:"id"`
	ClientID   *string     `json:"client_id"`
	PetID      *string     `json:"pet_id"`
	EmployeeID *string     `json:"employee_id"`
	Items      []cart.Item `json:"items"`
	Totals     cart.Totals `json:"totals"`
	UpdatedAt  time.Time   `json:"updated_at"`
}
