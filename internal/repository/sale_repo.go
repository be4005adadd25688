package repository

import (
	"context"
	"time"

	"petzap/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SaleFilter narrows a client's purchase history.
type SaleFilter struct {
	Since         *time.Time
	PetID         *uuid.UUID
	PaymentMethod string
}

type SaleRepository interface {
	// Create inserts the header and its items in one statement batch.
	Create(ctx context.Context, tx *gorm.DB, s *model.Sale) error
	CreateCommissions(ctx context.Context, tx *gorm.DB, cs []model.Commission) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error)
	ListByClient(ctx context.Context, clientID uuid.UUID, filter SaleFilter) ([]model.Sale, error)
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]model.Sale, error)
	ListCommissions(ctx context.Context, saleID uuid.UUID) ([]model.Commission, error)
	DB() *gorm.DB // exposes the DB for transaction creation in service layer
}

type saleRepo struct{ db *gorm.DB }

func NewSaleRepository(db *gorm.DB) SaleRepository { return &saleRepo{db: db} }

func (r *saleRepo) DB() *gorm.DB { return r.db }

func (r *saleRepo) conn(ctx context.Context, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx.WithContext(ctx)
	}
	return r.db.WithContext(ctx)
}

func (r *saleRepo) Create(ctx context.Context, tx *gorm.DB, s *model.Sale) error {
	return r.conn(ctx, tx).Create(s).Error
}

func (r *saleRepo) CreateCommissions(ctx context.Context, tx *gorm.DB, cs []model.Commission) error {
	if len(cs) == 0 {
		return nil
	}
	return r.conn(ctx, tx).Create(&cs).Error
}

func itemsOrdered(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }

func (r *saleRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error) {
	var s model.Sale
	err := r.db.WithContext(ctx).Preload("Items", itemsOrdered).First(&s, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *saleRepo) ListByClient(ctx context.Context, clientID uuid.UUID, filter SaleFilter) ([]model.Sale, error) {
	var sales []model.Sale
	q := r.db.WithContext(ctx).
		Where("client_id = ? AND payment_status = ?", clientID, model.PaymentStatusPaid)
	if filter.Since != nil {
		q = q.Where("created_at >= ?", *filter.Since)
	}
	if filter.PetID != nil {
		q = q.Where("(pet_id = ? OR id IN (?))", *filter.PetID,
			r.db.Model(&model.SaleItem{}).Select("sale_id").Where("pet_id = ?", *filter.PetID))
	}
	if filter.PaymentMethod != "" {
		q = q.Where("payment_method = ?", filter.PaymentMethod)
	}
	err := q.Preload("Items", itemsOrdered).Order("created_at DESC").Find(&sales).Error
	return sales, err
}

func (r *saleRepo) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]model.Sale, error) {
	var sales []model.Sale
	err := r.db.WithContext(ctx).
		Where("cash_register_id = ? AND payment_status = ?", sessionID, model.PaymentStatusPaid).
		Order("created_at ASC").Find(&sales).Error
	return sales, err
}

func (r *saleRepo) ListCommissions(ctx context.Context, saleID uuid.UUID) ([]model.Commission, error) {
	var cs []model.Commission
	err := r.db.WithContext(ctx).Where("sale_id = ?", saleID).Order("created_at ASC").Find(&cs).Error
	return cs, err
}
