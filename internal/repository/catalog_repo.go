package repository

import (
	"context"
	"strings"
	"time"

	"petzap/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CatalogRepository reads clients, pets, employees, loyalty plans and the
// service price table, and applies the few writes a sale makes to them.
type CatalogRepository interface {
	SearchClients(ctx context.Context, query string, limit int) ([]model.Client, error)
	FindClient(ctx context.Context, id uuid.UUID) (*model.Client, error)
	FindClients(ctx context.Context, ids []uuid.UUID) ([]model.Client, error)
	// ListInactiveClients returns clients with no purchase and no interaction after cutoff.
	ListInactiveClients(ctx context.Context, cutoff time.Time) ([]model.Client, error)
	TouchLastPurchase(ctx context.Context, tx *gorm.DB, clientID uuid.UUID, at time.Time) error

	ListPets(ctx context.Context, clientID uuid.UUID) ([]model.Pet, error)
	FindPet(ctx context.Context, id uuid.UUID) (*model.Pet, error)

	ListEmployees(ctx context.Context, activeOnly bool) ([]model.Employee, error)
	FindEmployee(ctx context.Context, id uuid.UUID) (*model.Employee, error)

	// FindActivePlan returns the eligible plan with the earliest expiry, or
	// gorm.ErrRecordNotFound.
	FindActivePlan(ctx context.Context, clientID, petID uuid.UUID, now time.Time) (*model.ClientPlan, error)
	// ConsumePlanCredit adds one used bath while credits remain. Returns rows updated.
	ConsumePlanCredit(ctx context.Context, tx *gorm.DB, planID uuid.UUID) (int64, error)

	FindServicePrice(ctx context.Context, sizeCategory, serviceType string) (*model.ServicePrice, error)
}

type catalogRepo struct{ db *gorm.DB }

func NewCatalogRepository(db *gorm.DB) CatalogRepository { return &catalogRepo{db: db} }

func (r *catalogRepo) conn(ctx context.Context, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx.WithContext(ctx)
	}
	return r.db.WithContext(ctx)
}

// ── Clients ──────────────────────────────────────────────────────────────────

func (r *catalogRepo) SearchClients(ctx context.Context, query string, limit int) ([]model.Client, error) {
	var clients []model.Client
	q := r.db.WithContext(ctx).Model(&model.Client{})
	if query != "" {
		like := "%" + strings.ToLower(query) + "%"
		q = q.Where("(LOWER(name) LIKE ? OR whatsapp LIKE ?)", like, "%"+query+"%")
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Order("name ASC").Find(&clients).Error
	return clients, err
}

func (r *catalogRepo) FindClient(ctx context.Context, id uuid.UUID) (*model.Client, error) {
	var c model.Client
	if err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *catalogRepo) FindClients(ctx context.Context, ids []uuid.UUID) ([]model.Client, error) {
	var clients []model.Client
	if len(ids) == 0 {
		return clients, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("name ASC").Find(&clients).Error
	return clients, err
}

func (r *catalogRepo) ListInactiveClients(ctx context.Context, cutoff time.Time) ([]model.Client, error) {
	var clients []model.Client
	err := r.db.WithContext(ctx).
		Where("(last_purchase IS NULL OR last_purchase <= ?)", cutoff).
		Where("(last_interaction IS NULL OR last_interaction <= ?)", cutoff).
		Order("name ASC").
		Find(&clients).Error
	return clients, err
}

func (r *catalogRepo) TouchLastPurchase(ctx context.Context, tx *gorm.DB, clientID uuid.UUID, at time.Time) error {
	return r.conn(ctx, tx).Model(&model.Client{}).Where("id = ?", clientID).
		Update("last_purchase", at).Error
}

// ── Pets ─────────────────────────────────────────────────────────────────────

func (r *catalogRepo) ListPets(ctx context.Context, clientID uuid.UUID) ([]model.Pet, error) {
	var pets []model.Pet
	err := r.db.WithContext(ctx).Where("client_id = ?", clientID).Order("name ASC").Find(&pets).Error
	return pets, err
}

func (r *catalogRepo) FindPet(ctx context.Context, id uuid.UUID) (*model.Pet, error) {
	var p model.Pet
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// ── Employees ────────────────────────────────────────────────────────────────

func (r *catalogRepo) ListEmployees(ctx context.Context, activeOnly bool) ([]model.Employee, error) {
	var employees []model.Employee
	q := r.db.WithContext(ctx).Model(&model.Employee{})
	if activeOnly {
		q = q.Where("active = ?", true)
	}
	err := q.Order("name ASC").Find(&employees).Error
	return employees, err
}

func (r *catalogRepo) FindEmployee(ctx context.Context, id uuid.UUID) (*model.Employee, error) {
	var e model.Employee
	if err := r.db.WithContext(ctx).First(&e, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

// ── Plans & prices ───────────────────────────────────────────────────────────

func (r *catalogRepo) FindActivePlan(ctx context.Context, clientID, petID uuid.UUID, now time.Time) (*model.ClientPlan, error) {
	var p model.ClientPlan
	err := r.db.WithContext(ctx).
		Where("client_id = ? AND pet_id = ? AND active = ?", clientID, petID, true).
		Where("used_baths < total_baths AND expires_at > ?", now).
		Order("expires_at ASC").
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *catalogRepo) ConsumePlanCredit(ctx context.Context, tx *gorm.DB, planID uuid.UUID) (int64, error) {
	res := r.conn(ctx, tx).Model(&model.ClientPlan{}).
		Where("id = ? AND used_baths < total_baths", planID).
		Update("used_baths", gorm.Expr("used_baths + 1"))
	return res.RowsAffected, res.Error
}

func (r *catalogRepo) FindServicePrice(ctx context.Context, sizeCategory, serviceType string) (*model.ServicePrice, error) {
	var p model.ServicePrice
	err := r.db.WithContext(ctx).
		Where("size_category = ? AND service_type = ?", sizeCategory, serviceType).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}
