package repository

import (
	"context"
	"time"

	"petzap/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SchedulingRepository reads unpaid grooming appointments and hotel stays and
// settles them when a sale is finalized. "Pending" means not cancelled and
// payment status NULL or "pending".
type SchedulingRepository interface {
	// ListPendingAppointments returns oldest scheduled first.
	ListPendingAppointments(ctx context.Context, clientID, petID uuid.UUID) ([]model.GroomingAppointment, error)
	ListPendingStays(ctx context.Context, clientID, petID uuid.UUID) ([]model.HotelStay, error)
	FindAppointment(ctx context.Context, id uuid.UUID) (*model.GroomingAppointment, error)
	UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, status string) (int64, error)

	// SettleAppointment marks a still-pending appointment finished and paid
	// (or exempt when plan-covered). Returns rows updated.
	SettleAppointment(ctx context.Context, tx *gorm.DB, id uuid.UUID, s Settlement) (int64, error)
	// SettleStay checks out a still-pending stay as paid. Returns rows updated.
	SettleStay(ctx context.Context, tx *gorm.DB, id uuid.UUID, s Settlement) (int64, error)
}

// Settlement carries the payment fields written to a service record.
type Settlement struct {
	PaymentStatus string
	PaymentMethod string
	PaidAt        time.Time
	CoveredByPlan bool
}

type schedulingRepo struct{ db *gorm.DB }

func NewSchedulingRepository(db *gorm.DB) SchedulingRepository { return &schedulingRepo{db: db} }

func (r *schedulingRepo) conn(ctx context.Context, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx.WithContext(ctx)
	}
	return r.db.WithContext(ctx)
}

func pendingPayment(db *gorm.DB) *gorm.DB {
	return db.Where("(payment_status IS NULL OR payment_status = ?)", model.PaymentStatusPending)
}

func (r *schedulingRepo) ListPendingAppointments(ctx context.Context, clientID, petID uuid.UUID) ([]model.GroomingAppointment, error) {
	var apts []model.GroomingAppointment
	err := r.db.WithContext(ctx).
		Where("client_id = ? AND pet_id = ? AND status <> ?", clientID, petID, model.AppointmentCancelled).
		Scopes(pendingPayment).
		Order("scheduled_at ASC, id ASC").
		Find(&apts).Error
	return apts, err
}

func (r *schedulingRepo) ListPendingStays(ctx context.Context, clientID, petID uuid.UUID) ([]model.HotelStay, error) {
	var stays []model.HotelStay
	err := r.db.WithContext(ctx).
		Where("client_id = ? AND pet_id = ? AND status <> ?", clientID, petID, model.StayCancelled).
		Scopes(pendingPayment).
		Order("check_in ASC, id ASC").
		Find(&stays).Error
	return stays, err
}

func (r *schedulingRepo) FindAppointment(ctx context.Context, id uuid.UUID) (*model.GroomingAppointment, error) {
	var a model.GroomingAppointment
	if err := r.db.WithContext(ctx).First(&a, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *schedulingRepo) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, status string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.GroomingAppointment{}).
		Where("id = ? AND status <> ?", id, model.AppointmentCancelled).
		Update("status", status)
	return res.RowsAffected, res.Error
}

func (r *schedulingRepo) SettleAppointment(ctx context.Context, tx *gorm.DB, id uuid.UUID, s Settlement) (int64, error) {
	res := r.conn(ctx, tx).Model(&model.GroomingAppointment{}).
		Where("id = ? AND status <> ?", id, model.AppointmentCancelled).
		Scopes(pendingPayment).
		Updates(map[string]interface{}{
			"status":          model.AppointmentFinished,
			"payment_status":  s.PaymentStatus,
			"payment_method":  s.PaymentMethod,
			"paid_at":         s.PaidAt,
			"covered_by_plan": s.CoveredByPlan,
		})
	return res.RowsAffected, res.Error
}

func (r *schedulingRepo) SettleStay(ctx context.Context, tx *gorm.DB, id uuid.UUID, s Settlement) (int64, error) {
	res := r.conn(ctx, tx).Model(&model.HotelStay{}).
		Where("id = ? AND status <> ?", id, model.StayCancelled).
		Scopes(pendingPayment).
		Updates(map[string]interface{}{
			"status":         model.StayCheckedOut,
			"payment_status": s.PaymentStatus,
			"payment_method": s.PaymentMethod,
			"paid_at":        s.PaidAt,
		})
	return res.RowsAffected, res.Error
}
