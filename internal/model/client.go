package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Client struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name            string    `gorm:"index;not null"`
	Whatsapp        string    `gorm:"not null"`
	Email           *string
	Notes           *string
	LastPurchase    *time.Time
	LastInteraction *time.Time
	CreatedAt       time.Time

	Pets []Pet `gorm:"foreignKey:ClientID"`
}

func (c *Client) BeforeCreate(_ *gorm.DB) error {
	ensureID(&c.ID)
	return nil
}

// Pet size drives service pricing: "pequeno" | "medio" | "grande".
type Pet struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	ClientID  uuid.UUID `gorm:"type:uuid;index;not null"`
	Name      string    `gorm:"not null"`
	Species   string    `gorm:"not null;default:'cachorro'"`
	Breed     *string
	Size      *string
	CoatType  *string
	CreatedAt time.Time
}

func (p *Pet) BeforeCreate(_ *gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

type Employee struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name           string    `gorm:"not null"`
	Email          *string
	Phone          *string
	Role           string          `gorm:"not null;default:'groomer'"`
	CommissionRate decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`
	Active         bool            `gorm:"not null;default:true"`
	CreatedAt      time.Time
}

func (e *Employee) BeforeCreate(_ *gorm.DB) error {
	ensureID(&e.ID)
	return nil
}

// ClientPlan is a prepaid bundle of baths for one pet.
type ClientPlan struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	ClientID    uuid.UUID       `gorm:"type:uuid;index;not null"`
	PetID       uuid.UUID       `gorm:"type:uuid;index;not null"`
	PlanName    string          `gorm:"not null"`
	TotalBaths  int             `gorm:"not null"`
	UsedBaths   int             `gorm:"not null;default:0"`
	PricePaid   decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	PurchasedAt time.Time       `gorm:"not null"`
	ExpiresAt   time.Time       `gorm:"not null"`
	Active      bool            `gorm:"not null;default:true"`
}

func (p *ClientPlan) BeforeCreate(_ *gorm.DB) error {
	ensureID(&p.ID)
	if p.PurchasedAt.IsZero() {
		p.PurchasedAt = time.Now()
	}
	return nil
}

// Remaining returns the unused credits, never negative.
func (p *ClientPlan) Remaining() int {
	if r := p.TotalBaths - p.UsedBaths; r > 0 {
		return r
	}
	return 0
}

// Eligible reports whether the plan can still cover a service at now.
func (p *ClientPlan) Eligible(now time.Time) bool {
	return p.Active && p.Remaining() > 0 && p.ExpiresAt.After(now)
}

// ServicePrice is the price table for grooming by pet size and service type.
type ServicePrice struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey"`
	SizeCategory string          `gorm:"not null;index:idx_service_prices_lookup"`
	ServiceType  string          `gorm:"not null;index:idx_service_prices_lookup"`
	Price        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
}

func (p *ServicePrice) BeforeCreate(_ *gorm.DB) error {
	ensureID(&p.ID)
	return nil
}
