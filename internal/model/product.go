package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is a stocked retail item. CommissionRate is a percentage.
type Product struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name             string    `gorm:"index;not null"`
	Description      *string
	Category         string          `gorm:"not null;default:'outros'"`
	SKU              *string         `gorm:"column:sku"`
	Barcode          *string         `gorm:"index"`
	Brand            *string
	Unit             string          `gorm:"not null;default:'un'"`
	CostPrice        decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	SalePrice        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	StockQuantity    int             `gorm:"not null;default:0"`
	MinStockQuantity int             `gorm:"not null;default:0"`
	CommissionRate   decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`
	Active           bool            `gorm:"not null;default:true"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (p *Product) BeforeCreate(_ *gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

// LowStock reports whether the product is at or below its reorder threshold.
func (p *Product) LowStock() bool {
	return p.StockQuantity <= p.MinStockQuantity
}

// StockMovement records each stock change made by a sale.
type StockMovement struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	ProductID   uuid.UUID `gorm:"type:uuid;not null;index"`
	Type        string    `gorm:"not null"` // "sale"
	Quantity    int       `gorm:"not null"` // positive = in, negative = out
	StockAfter  int       `gorm:"not null"`
	Reason      string
	ReferenceID *uuid.UUID `gorm:"type:uuid"` // sale id
	CreatedAt   time.Time
}

func (StockMovement) TableName() string { return "stock_movements" }

func (m *StockMovement) BeforeCreate(_ *gorm.DB) error {
	ensureID(&m.ID)
	return nil
}
