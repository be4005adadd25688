package service

import (
	"context"
	"fmt"

	"petzap/internal/apierror"
	"petzap/internal/dto"
	"petzap/internal/model"
	"petzap/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InventoryService owns stock changes and their audit trail.
type InventoryService interface {
	// DecrementForSaleTx runs inside the sale transaction: one atomic
	// decrement (floored at zero) plus a stock_movements row.
	DecrementForSaleTx(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int, saleID uuid.UUID) (int, error)
	Movements(ctx context.Context, productID uuid.UUID) ([]dto.StockMovementResponse, error)
}

type inventoryService struct {
	repo repository.ProductRepository
}

func NewInventoryService(repo repository.ProductRepository) InventoryService {
	return &inventoryService{repo: repo}
}

func (s *inventoryService) DecrementForSaleTx(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int, saleID uuid.UUID) (int, error) {
	if qty < 1 {
		return 0, apierror.Validation("quantidade deve ser no mínimo 1")
	}
	after, err := s.repo.DecrementStock(ctx, tx, productID, qty)
	if err != nil {
		if isNotFound(err) {
			return 0, apierror.Conflict("Produto removido do catálogo durante a venda")
		}
		return 0, err
	}
	ref := saleID
	mov := &model.StockMovement{
		ProductID:   productID,
		Type:        "sale",
		Quantity:    -qty,
		StockAfter:  after,
		Reason:      fmt.Sprintf("Venda %s", saleID.String()[:8]),
		ReferenceID: &ref,
	}
	if err := s.repo.CreateStockMovement(ctx, tx, mov); err != nil {
		return 0, err
	}
	return after, nil
}

func (s *inventoryService) Movements(ctx context.Context, productID uuid.UUID) ([]dto.StockMovementResponse, error) {
	if _, err := s.repo.FindByID(ctx, productID); err != nil {
		return nil, lookupErr(err, "Produto não encontrado")
	}
	movs, err := s.repo.ListStockMovements(ctx, productID)
	if err != nil {
		return nil, apierror.Persistence("falha ao listar movimentos de estoque", err)
	}
	out := make([]dto.StockMovementResponse, 0, len(movs))
	for _, m := range movs {
		out = append(out, dto.StockMovementResponse{
			ID:          m.ID.String(),
			Type:        m.Type,
			Quantity:    m.Quantity,
			StockAfter:  m.StockAfter,
			Reason:      m.Reason,
			ReferenceID: uuidString(m.ReferenceID),
			CreatedAt:   m.CreatedAt,
		})
	}
	return out, nil
}
