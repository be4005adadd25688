package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	CashStatusOpen   = "open"
	CashStatusClosed = "closed"

	MovementWithdrawal = "withdrawal"
	MovementSupply     = "supply"
)

// CashSession is one opening-to-closing cycle of the cash drawer.
// Status: "open" | "closed". At most one row may be open (partial unique index).
// Closing fields stay nil while open and are never rewritten after close.
type CashSession struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OpenedBy      *uuid.UUID      `gorm:"type:uuid"`
	ClosedBy      *uuid.UUID      `gorm:"type:uuid"`
	OpenedAt      time.Time       `gorm:"not null"`
	OpeningAmount decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	// ExpectedAmount is computed on close: opening + sales + supplies - withdrawals
	ExpectedAmount *decimal.Decimal `gorm:"type:decimal(12,2)"`
	ClosingAmount  *decimal.Decimal `gorm:"type:decimal(12,2)"`
	Difference     *decimal.Decimal `gorm:"type:decimal(12,2)"`
	Status         string           `gorm:"type:varchar(20);not null;default:'open'"`
	Notes          *string
	ClosedAt       *time.Time

	Movements []CashMovement `gorm:"foreignKey:CashRegisterID"`
}

func (CashSession) TableName() string { return "cash_register" }

func (s *CashSession) BeforeCreate(_ *gorm.DB) error {
	ensureID(&s.ID)
	if s.OpenedAt.IsZero() {
		s.OpenedAt = time.Now()
	}
	return nil
}

// CashMovement is an immutable manual entry in the drawer ledger.
// Type: "withdrawal" | "supply". Amount is always positive; the type carries the sign.
type CashMovement struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey"`
	CashRegisterID uuid.UUID       `gorm:"type:uuid;index;not null"`
	Type           string          `gorm:"type:varchar(20);not null"`
	Amount         decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Reason         *string
	PerformedBy    *uuid.UUID `gorm:"type:uuid"`
	CreatedAt      time.Time
}

func (CashMovement) TableName() string { return "cash_movements" }

func (m *CashMovement) BeforeCreate(_ *gorm.DB) error {
	ensureID(&m.ID)
	return nil
}

func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
