package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	PaymentCash   = "cash"
	PaymentPix    = "pix"
	PaymentCredit = "credit"
	PaymentDebit  = "debit"

	PaymentStatusPending   = "pending"
	PaymentStatusPaid      = "paid"
	PaymentStatusCancelled = "cancelled"
	// PaymentStatusExempt marks a service consumed from a loyalty plan.
	PaymentStatusExempt = "exempt"
)

// Sale is the persisted header of a finalized cart.
type Sale struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey"`
	CashRegisterID  *uuid.UUID      `gorm:"type:uuid;index"`
	ClientID        *uuid.UUID      `gorm:"type:uuid;index"`
	PetID           *uuid.UUID      `gorm:"type:uuid"`
	EmployeeID      *uuid.UUID      `gorm:"type:uuid"`
	CreatedBy       *uuid.UUID      `gorm:"type:uuid"`
	Subtotal        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	DiscountAmount  decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	DiscountPercent decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	PaymentMethod   string          `gorm:"type:varchar(20);not null"`
	PaymentStatus   string          `gorm:"type:varchar(20);not null;default:'paid'"`
	Notes           *string
	CreatedAt       time.Time `gorm:"index"`

	Items []SaleItem `gorm:"foreignKey:SaleID"`
}

func (s *Sale) BeforeCreate(_ *gorm.DB) error {
	ensureID(&s.ID)
	return nil
}

// SaleItem is one persisted cart line. TotalPrice is zero for plan-covered items.
// ItemType mirrors the cart line type: product | service_banho | service_hotel | service_consulta | extra.
type SaleItem struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey"`
	SaleID         uuid.UUID       `gorm:"type:uuid;index;not null"`
	ProductID      *uuid.UUID      `gorm:"type:uuid"`
	ItemType       string          `gorm:"type:varchar(30);not null"`
	Description    string          `gorm:"not null"`
	Quantity       int             `gorm:"not null"`
	UnitPrice      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	TotalPrice     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CoveredByPlan  bool            `gorm:"not null;default:false"`
	SourceID       *uuid.UUID      `gorm:"type:uuid"`
	PetID          *uuid.UUID      `gorm:"type:uuid"`
	CommissionRate decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`
	CreatedAt      time.Time
}

func (i *SaleItem) BeforeCreate(_ *gorm.DB) error {
	ensureID(&i.ID)
	return nil
}

const (
	CommissionPending = "pending"
	CommissionPaid    = "paid"
)

// Commission credits an employee for one sale item.
type Commission struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey"`
	EmployeeID uuid.UUID       `gorm:"type:uuid;index;not null"`
	SaleID     uuid.UUID       `gorm:"type:uuid;index;not null"`
	SaleItemID uuid.UUID       `gorm:"type:uuid;not null"`
	Amount     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Rate       decimal.Decimal `gorm:"type:decimal(5,2);not null"`
	Status     string          `gorm:"type:varchar(20);not null;default:'pending'"`
	PaidAt     *time.Time
	CreatedAt  time.Time
}

func (c *Commission) BeforeCreate(_ *gorm.DB) error {
	ensureID(&c.ID)
	return nil
}
