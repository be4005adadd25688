package repository

import (
	"context"
	"strings"

	"petzap/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProductFilter narrows a catalog listing. Zero values mean "no filter".
type ProductFilter struct {
	Query        string
	Category     string
	LowStockOnly bool
	Limit        int
}

// ProductRepository defines the data access contract for retail products.
type ProductRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	FindByBarcode(ctx context.Context, barcode string) (*model.Product, error)
	List(ctx context.Context, filter ProductFilter) ([]model.Product, error)

	// DecrementStock lowers stock by qty in one statement, flooring at zero,
	// and returns the stock left.
	DecrementStock(ctx context.Context, tx *gorm.DB, id uuid.UUID, qty int) (int, error)
	CreateStockMovement(ctx context.Context, tx *gorm.DB, m *model.StockMovement) error
	ListStockMovements(ctx context.Context, productID uuid.UUID) ([]model.StockMovement, error)
}

type productRepo struct{ db *gorm.DB }

func NewProductRepository(db *gorm.DB) ProductRepository { return &productRepo{db: db} }

func (r *productRepo) conn(ctx context.Context, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx.WithContext(ctx)
	}
	return r.db.WithContext(ctx)
}

func (r *productRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var p model.Product
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepo) FindByBarcode(ctx context.Context, barcode string) (*model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).Where("barcode = ? AND active = ?", barcode, true).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepo) List(ctx context.Context, filter ProductFilter) ([]model.Product, error) {
	var products []model.Product
	q := r.db.WithContext(ctx).Model(&model.Product{}).Where("active = ?", true)

	if filter.Query != "" {
		like := "%" + strings.ToLower(filter.Query) + "%"
		q = q.Where("(LOWER(name) LIKE ? OR sku = ? OR barcode = ?)", like, filter.Query, filter.Query)
	}
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.LowStockOnly {
		q = q.Where("stock_quantity <= min_stock_quantity")
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	err := q.Order("name ASC").Find(&products).Error
	return products, err
}

func (r *productRepo) DecrementStock(ctx context.Context, tx *gorm.DB, id uuid.UUID, qty int) (int, error) {
	db := r.conn(ctx, tx)
	res := db.Model(&model.Product{}).Where("id = ?", id).
		Update("stock_quantity", gorm.Expr(
			"CASE WHEN stock_quantity > ? THEN stock_quantity - ? ELSE 0 END", qty, qty))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, gorm.ErrRecordNotFound
	}
	var after int
	err := db.Model(&model.Product{}).Select("stock_quantity").Where("id = ?", id).Row().Scan(&after)
	return after, err
}

func (r *productRepo) CreateStockMovement(ctx context.Context, tx *gorm.DB, m *model.StockMovement) error {
	return r.conn(ctx, tx).Create(m).Error
}

func (r *productRepo) ListStockMovements(ctx context.Context, productID uuid.UUID) ([]model.StockMovement, error) {
	var movs []model.StockMovement
	err := r.db.WithContext(ctx).Where("product_id = ?", productID).
		Order("created_at DESC").Find(&movs).Error
	return movs, err
}
