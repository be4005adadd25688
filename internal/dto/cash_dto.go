package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

type OpenCashRequest struct {
	OpeningAmount decimal.Decimal `json:"opening_amount" validate:"min=0"`
	Notes         *string         `json:"notes"          validate:"omitempty,max=500"`
}

type CashMovementRequest struct {
	Type   string          `json:"type"   validate:"required,oneof=withdrawal supply"`
	Amount decimal.Decimal `json:"amount" validate:"required,gt=0"`
	Reason *string         `json:"reason" validate:"omitempty,max=200"`
}

type CloseCashRequest struct {
	ClosingAmount decimal.Decimal `json:"closing_amount" validate:"min=0"`
	Notes         *string         `json:"notes"          validate:"omitempty,max=500"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type CashMovementResponse struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Amount    decimal.Decimal `json:"amount"`
	Reason    *string         `json:"reason"`
	CreatedAt time.Time       `json:"created_at"`
}

// CashSessionResponse is both the live view of the open drawer and the
// closing report. Closing fields are null while the session is open.
type CashSessionResponse struct {
	ID            string          `json:"id"`
	Status        string          `json:"status"`
	OpenedAt      time.Time       `json:"opened_at"`
	OpenedBy      *string         `json:"opened_by"`
	OpeningAmount decimal.Decimal `json:"opening_amount"`
	SalesTotal    decimal.Decimal `json:"sales_total"`
	SalesCount    int64           `json:"sales_count"`
	Supplies      decimal.Decimal `json:"supplies"`
	Withdrawals   decimal.Decimal `json:"withdrawals"`
	// Balance = opening + sales + supplies - withdrawals
	Balance   decimal.Decimal        `json:"balance"`
	Movements []CashMovementResponse `json:"movements,omitempty"`

	ClosedAt       *time.Time       `json:"closed_at"`
	ClosedBy       *string          `json:"closed_by"`
	ClosingAmount  *decimal.Decimal `json:"closing_amount"`
	ExpectedAmount *decimal.Decimal `json:"expected_amount"`
	Difference     *decimal.Decimal `json:"difference"`
	Classification *string          `json:"classification"` // ok | warning | critical
	Notes          *string          `json:"notes"`
}

type CashHistoryResponse struct {
	Data  []CashSessionResponse `json:"data"`
	Total int64                 `json:"total"`
	Page  int                   `json:"page"`
	Limit int                   `json:"limit"`
}
