package repository

import (
	"context"

	"petzap/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CashRepository persists cash sessions and their manual movements.
// Methods taking a tx run on it when non-nil, otherwise on the base connection.
type CashRepository interface {
	CreateSession(ctx context.Context, s *model.CashSession) error
	// FindOpenSession returns the newest open session. Inside a tx the row is
	// locked FOR UPDATE so writers against it wait for the close to finish.
	FindOpenSession(ctx context.Context, tx *gorm.DB) (*model.CashSession, error)
	// LockOpenSession re-reads session id inside tx with a shared lock and
	// fails with gorm.ErrRecordNotFound once it has been closed.
	LockOpenSession(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.CashSession, error)
	FindSessionByID(ctx context.Context, id uuid.UUID) (*model.CashSession, error)
	// CloseSession writes the closing fields only while the row is still open.
	// Returns the number of rows updated (0 = already closed).
	CloseSession(ctx context.Context, tx *gorm.DB, s *model.CashSession) (int64, error)
	ListSessions(ctx context.Context, page, limit int) ([]model.CashSession, int64, error)

	CreateMovement(ctx context.Context, tx *gorm.DB, m *model.CashMovement) error
	ListMovements(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) ([]model.CashMovement, error)

	// SumPaidSales totals the paid sales registered against a session.
	SumPaidSales(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) (decimal.Decimal, error)
	CountPaidSales(ctx context.Context, sessionID uuid.UUID) (int64, error)

	DB() *gorm.DB
}

type cashRepo struct{ db *gorm.DB }

func NewCashRepository(db *gorm.DB) CashRepository { return &cashRepo{db: db} }

func (r *cashRepo) DB() *gorm.DB { return r.db }

func (r *cashRepo) conn(ctx context.Context, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx.WithContext(ctx)
	}
	return r.db.WithContext(ctx)
}

func (r *cashRepo) CreateSession(ctx context.Context, s *model.CashSession) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *cashRepo) FindOpenSession(ctx context.Context, tx *gorm.DB) (*model.CashSession, error) {
	var s model.CashSession
	q := r.conn(ctx, tx)
	if tx != nil {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	err := q.Where("status = ?", model.CashStatusOpen).
		Order("opened_at DESC").First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *cashRepo) LockOpenSession(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.CashSession, error) {
	var s model.CashSession
	err := r.conn(ctx, tx).Clauses(clause.Locking{Strength: "SHARE"}).
		Where("id = ? AND status = ?", id, model.CashStatusOpen).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *cashRepo) FindSessionByID(ctx context.Context, id uuid.UUID) (*model.CashSession, error) {
	var s model.CashSession
	err := r.db.WithContext(ctx).
		Preload("Movements", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		First(&s, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *cashRepo) CloseSession(ctx context.Context, tx *gorm.DB, s *model.CashSession) (int64, error) {
	res := r.conn(ctx, tx).Model(&model.CashSession{}).
		Where("id = ? AND status = ?", s.ID, model.CashStatusOpen).
		Updates(map[string]interface{}{
			"status":          model.CashStatusClosed,
			"closed_at":       s.ClosedAt,
			"closed_by":       s.ClosedBy,
			"closing_amount":  s.ClosingAmount,
			"expected_amount": s.ExpectedAmount,
			"difference":      s.Difference,
			"notes":           s.Notes,
		})
	return res.RowsAffected, res.Error
}

func (r *cashRepo) ListSessions(ctx context.Context, page, limit int) ([]model.CashSession, int64, error) {
	var sessions []model.CashSession
	var total int64

	q := r.db.WithContext(ctx).Model(&model.CashSession{})
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset := (page - 1) * limit
	err := q.Order("opened_at DESC").Offset(offset).Limit(limit).Find(&sessions).Error
	return sessions, total, err
}

func (r *cashRepo) CreateMovement(ctx context.Context, tx *gorm.DB, m *model.CashMovement) error {
	return r.conn(ctx, tx).Create(m).Error
}

func (r *cashRepo) ListMovements(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) ([]model.CashMovement, error) {
	var movs []model.CashMovement
	err := r.conn(ctx, tx).Where("cash_register_id = ?", sessionID).
		Order("created_at ASC").Find(&movs).Error
	return movs, err
}

func (r *cashRepo) SumPaidSales(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.conn(ctx, tx).Model(&model.Sale{}).
		Select("COALESCE(SUM(total_amount), 0)").
		Where("cash_register_id = ? AND payment_status = ?", sessionID, model.PaymentStatusPaid).
		Row().Scan(&total)
	if err != nil {
		return decimal.Zero, err
	}
	// SQLite sums decimals as floats
	return total.Round(2), nil
}

func (r *cashRepo) CountPaidSales(ctx context.Context, sessionID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Sale{}).
		Where("cash_register_id = ? AND payment_status = ?", sessionID, model.PaymentStatusPaid).
		Count(&n).Error
	return n, err
}
