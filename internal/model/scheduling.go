package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Appointment statuses.
const (
	AppointmentScheduled  = "scheduled"
	AppointmentInProgress = "in_progress"
	AppointmentReady      = "ready"
	AppointmentFinished   = "finished"
	AppointmentCancelled  = "cancelled"
)

// Hotel stay statuses.
const (
	StayReserved   = "reserved"
	StayCheckedIn  = "checked_in"
	StayCheckedOut = "checked_out"
	StayCancelled  = "cancelled"
)

// GroomingAppointment is a bath/grooming booking. The scheduling UI owns its
// lifecycle; the POS only reads pending ones and settles them on sale.
// ServiceType: "banho" | "banho_tosa". GroomingType refines the cut (tosa_baby, ...).
type GroomingAppointment struct {
	ID            uuid.UUID        `gorm:"type:uuid;primaryKey"`
	ClientID      uuid.UUID        `gorm:"type:uuid;index;not null"`
	PetID         uuid.UUID        `gorm:"type:uuid;index;not null"`
	ServiceType   string           `gorm:"not null"`
	GroomingType  *string          `gorm:"type:varchar(30)"`
	ScheduledAt   time.Time        `gorm:"not null;index"`
	Status        string           `gorm:"type:varchar(20);not null;default:'scheduled'"`
	Price         *decimal.Decimal `gorm:"type:decimal(12,2)"`
	PaymentStatus *string          `gorm:"type:varchar(20)"`
	PaymentMethod *string          `gorm:"type:varchar(20)"`
	PaidAt        *time.Time
	CoveredByPlan bool `gorm:"not null;default:false"`
	Notes         *string
	CreatedAt     time.Time
}

func (GroomingAppointment) TableName() string { return "bath_grooming_appointments" }

func (a *GroomingAppointment) BeforeCreate(_ *gorm.DB) error {
	ensureID(&a.ID)
	return nil
}

// HotelStay is a boarding or day-care (creche) booking.
type HotelStay struct {
	ID            uuid.UUID        `gorm:"type:uuid;primaryKey"`
	ClientID      uuid.UUID        `gorm:"type:uuid;index;not null"`
	PetID         uuid.UUID        `gorm:"type:uuid;index;not null"`
	CheckIn       time.Time        `gorm:"not null;index"`
	CheckOut      time.Time        `gorm:"not null"`
	DailyRate     decimal.Decimal  `gorm:"type:decimal(12,2);not null"`
	TotalPrice    *decimal.Decimal `gorm:"type:decimal(12,2)"`
	IsCreche      bool             `gorm:"not null;default:false"`
	Status        string           `gorm:"type:varchar(20);not null;default:'reserved'"`
	PaymentStatus *string          `gorm:"type:varchar(20)"`
	PaymentMethod *string          `gorm:"type:varchar(20)"`
	PaidAt        *time.Time
	CreatedAt     time.Time
}

func (HotelStay) TableName() string { return "hotel_stays" }

func (s *HotelStay) BeforeCreate(_ *gorm.DB) error {
	ensureID(&s.ID)
	return nil
}

// AllModels lists every table owned by this service, in dependency order.
func AllModels() []interface{} {
	return []interface{}{
		&Client{}, &Pet{}, &Employee{}, &Product{}, &ServicePrice{}, &ClientPlan{},
		&GroomingAppointment{}, &HotelStay{},
		&CashSession{}, &CashMovement{},
		&Sale{}, &SaleItem{}, &Commission{}, &StockMovement{},
	}
}
