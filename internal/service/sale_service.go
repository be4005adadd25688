package service

import (
	"context"
	"errors"
	"time"

	"petzap/internal/apierror"
	"petzap/internal/cart"
	"petzap/internal/config"
	"petzap/internal/dto"
	"petzap/internal/infra"
	"petzap/internal/ledger"
	"petzap/internal/model"
	"petzap/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SaleService turns a cart into a persisted sale.
type SaleService interface {
	Finalize(ctx context.Context, operatorID *uuid.UUID, req dto.FinalizeSaleRequest) (*dto.SaleResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.SaleResponse, error)
	// ListByClient is the client's billing history: paid sales with items.
	ListByClient(ctx context.Context, clientID uuid.UUID, filter dto.ClientSalesFilter) (*dto.ClientSalesResponse, error)
}

// SaleDeps groups the collaborators of the sale finalizer.
type SaleDeps struct {
	Sales      repository.SaleRepository
	Cash       repository.CashRepository
	Catalog    repository.CatalogRepository
	Scheduling repository.SchedulingRepository
	Carts      repository.CartStore
	Inventory  InventoryService
	Notifier   Notifier
	Features   config.Features
}

type saleService struct {
	SaleDeps
	now func() time.Time
}

func NewSaleService(deps SaleDeps) SaleService {
	return &saleService{SaleDeps: deps, now: time.Now}
}

// ── Finalize ──────────────────────────────────────────────────────────────────
// One transaction:
//  1. sale header with the cart totals
//  2. one sale item per cart line
//  3. settle grooming/hotel records, consume plan credits
//  4. decrement stock (stock module)
//  5. commissions (commission module, employee set)
//  6. client last_purchase
// After commit: drop the cart and publish sale_registered.

func (s *saleService) Finalize(ctx context.Context, operatorID *uuid.UUID, req dto.FinalizeSaleRequest) (*dto.SaleResponse, error) {
	cartID, err := uuid.Parse(req.CartID)
	if err != nil {
		return nil, apierror.Validation("cart_id inválido")
	}
	if !validPaymentMethod(req.PaymentMethod) {
		return nil, apierror.Validation("forma de pagamento inválida")
	}

	c, err := s.Carts.Get(ctx, cartID)
	if err != nil {
		if errors.Is(err, repository.ErrCartNotFound) {
			return nil, apierror.Validation("Carrinho vazio ou expirado")
		}
		return nil, apierror.Persistence("falha ao carregar carrinho", err)
	}
	if c.IsEmpty() {
		return nil, apierror.Validation("Carrinho vazio")
	}

	session, err := s.Cash.FindOpenSession(ctx, nil)
	if err != nil && !isNotFound(err) {
		return nil, apierror.Persistence("falha ao verificar caixa", err)
	}
	if session == nil && s.Features.RequireOpenCash {
		return nil, apierror.Precondition("Caixa fechado")
	}

	plan, err := s.planFor(ctx, c)
	if err != nil {
		return nil, err
	}

	totals := c.Totals()
	now := s.now()
	sale := model.Sale{
		ClientID:        c.ClientID,
		PetID:           c.PetID,
		EmployeeID:      c.EmployeeID,
		CreatedBy:       operatorID,
		Subtotal:        totals.Subtotal,
		DiscountAmount:  totals.Discount(),
		DiscountPercent: totals.DiscountPercent(),
		TotalAmount:     totals.AmountDue,
		PaymentMethod:   req.PaymentMethod,
		PaymentStatus:   model.PaymentStatusPaid,
		Notes:           trimmed(req.Notes),
		CreatedAt:       now,
	}
	if session != nil {
		sale.CashRegisterID = &session.ID
	}
	for _, it := range c.Items {
		sale.Items = append(sale.Items, saleItemFromCart(it, now))
	}

	txErr := runTx(ctx, s.Sales.DB(), func(tx *gorm.DB) error {
		if session != nil {
			if err := s.holdSession(ctx, tx, &sale); err != nil {
				return err
			}
		}
		if err := s.Sales.Create(ctx, tx, &sale); err != nil {
			return err
		}
		for _, it := range c.Items {
			if err := s.settleLine(ctx, tx, it, plan, req.PaymentMethod, now, sale.ID); err != nil {
				return err
			}
		}
		if err := s.creditCommissions(ctx, tx, c, &sale, now); err != nil {
			return err
		}
		if c.ClientID != nil {
			if err := s.Catalog.TouchLastPurchase(ctx, tx, *c.ClientID, now); err != nil {
				return err
			}
		}
		return nil
	})
	if txErr != nil {
		log.Error().Err(txErr).Str("cart_id", cartID.String()).Msg("sale finalization rolled back")
		return nil, apierror.Persistence("falha ao registrar venda", txErr)
	}

	log.Info().
		Str("sale_id", sale.ID.String()).
		Str("total", sale.TotalAmount.StringFixed(2)).
		Str("payment_method", sale.PaymentMethod).
		Int("items", len(sale.Items)).
		Msg("sale registered")

	if err := s.Carts.Delete(ctx, cartID); err != nil {
		log.Warn().Err(err).Str("cart_id", cartID.String()).Msg("failed to delete finalized cart")
	}
	publish(ctx, s.Notifier, saleRegisteredEvent(&sale, c))

	resp := saleToResponse(&sale)
	if session != nil && sale.CashRegisterID != nil {
		if balance, err := s.sessionBalance(ctx, session); err == nil {
			resp.CashBalance = &balance
		} else {
			log.Warn().Err(err).Str("session_id", session.ID.String()).Msg("cash balance unavailable")
		}
	}
	return resp, nil
}

// holdSession share-locks the session the sale is attached to so a concurrent
// close waits for this tx. If the session closed since it was read, the sale
// is refused when cash is required and registered without a session otherwise.
func (s *saleService) holdSession(ctx context.Context, tx *gorm.DB, sale *model.Sale) error {
	_, err := s.Cash.LockOpenSession(ctx, tx, *sale.CashRegisterID)
	if err == nil {
		return nil
	}
	if !isNotFound(err) {
		return err
	}
	if s.Features.RequireOpenCash {
		return apierror.Precondition("Caixa fechado")
	}
	sale.CashRegisterID = nil
	return nil
}

// planFor returns the plan that pays for covered lines, or nil when the cart has none.
func (s *saleService) planFor(ctx context.Context, c *cart.Cart) (*model.ClientPlan, error) {
	covered := false
	for _, it := range c.Items {
		if it.CoveredByPlan {
			covered = true
			break
		}
	}
	if !covered {
		return nil, nil
	}
	if !s.Features.LoyaltyPlansEnabled || c.ClientID == nil || c.PetID == nil {
		return nil, apierror.Precondition("Itens cobertos por plano exigem cliente e pet com plano ativo")
	}
	plan, err := s.Catalog.FindActivePlan(ctx, *c.ClientID, *c.PetID, s.now())
	if err != nil {
		if isNotFound(err) {
			return nil, apierror.Conflict("Plano sem créditos disponíveis")
		}
		return nil, apierror.Persistence("falha ao carregar plano", err)
	}
	return plan, nil
}

// settleLine applies the side effects of one cart line inside the transaction.
func (s *saleService) settleLine(ctx context.Context, tx *gorm.DB, it cart.Item, plan *model.ClientPlan, method string, now time.Time, saleID uuid.UUID) error {
	if (it.Type == cart.TypeGrooming || it.Type == cart.TypeHotel) && it.SourceID == nil {
		return apierror.Validation("Serviço \"" + it.Description + "\" sem agendamento de origem")
	}
	switch it.Type {
	case cart.TypeGrooming:
		status := model.PaymentStatusPaid
		if it.CoveredByPlan {
			status = model.PaymentStatusExempt
		}
		n, err := s.Scheduling.SettleAppointment(ctx, tx, *it.SourceID, repository.Settlement{
			PaymentStatus: status,
			PaymentMethod: method,
			PaidAt:        now,
			CoveredByPlan: it.CoveredByPlan,
		})
		if err != nil {
			return err
		}
		if n == 0 {
			return apierror.Conflict("Serviço \"" + it.Description + "\" já foi pago ou cancelado")
		}
		if it.CoveredByPlan {
			n, err := s.Catalog.ConsumePlanCredit(ctx, tx, plan.ID)
			if err != nil {
				return err
			}
			if n == 0 {
				return apierror.Conflict("Plano sem créditos disponíveis")
			}
		}

	case cart.TypeHotel:
		n, err := s.Scheduling.SettleStay(ctx, tx, *it.SourceID, repository.Settlement{
			PaymentStatus: model.PaymentStatusPaid,
			PaymentMethod: method,
			PaidAt:        now,
		})
		if err != nil {
			return err
		}
		if n == 0 {
			return apierror.Conflict("Hospedagem \"" + it.Description + "\" já foi paga ou cancelada")
		}

	case cart.TypeProduct:
		if s.Features.StockEnabled && it.ProductID != nil {
			if _, err := s.Inventory.DecrementForSaleTx(ctx, tx, *it.ProductID, it.Quantity, saleID); err != nil {
				return err
			}
		}
	}
	// extras and consultations have nothing to settle
	return nil
}

var hundred = decimal.NewFromInt(100)

func (s *saleService) creditCommissions(ctx context.Context, tx *gorm.DB, c *cart.Cart, sale *model.Sale, now time.Time) error {
	if !s.Features.CommissionEnabled || c.EmployeeID == nil {
		return nil
	}
	var commissions []model.Commission
	for i, it := range c.Items {
		if it.CoveredByPlan || !it.CommissionRate.IsPositive() || !it.TotalPrice.IsPositive() {
			continue
		}
		commissions = append(commissions, model.Commission{
			EmployeeID: *c.EmployeeID,
			SaleID:     sale.ID,
			SaleItemID: sale.Items[i].ID,
			Amount:     it.TotalPrice.Mul(it.CommissionRate).Div(hundred).Round(2),
			Rate:       it.CommissionRate,
			Status:     model.CommissionPending,
			CreatedAt:  now,
		})
	}
	return s.Sales.CreateCommissions(ctx, tx, commissions)
}

func (s *saleService) sessionBalance(ctx context.Context, session *model.CashSession) (decimal.Decimal, error) {
	sales, err := s.Cash.SumPaidSales(ctx, nil, session.ID)
	if err != nil {
		return decimal.Zero, err
	}
	movs, err := s.Cash.ListMovements(ctx, nil, session.ID)
	if err != nil {
		return decimal.Zero, err
	}
	return ledger.Balance(session.OpeningAmount, sales, movs), nil
}

// ── Queries ───────────────────────────────────────────────────────────────────

func (s *saleService) Get(ctx context.Context, id uuid.UUID) (*dto.SaleResponse, error) {
	sale, err := s.Sales.FindByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "Venda não encontrada")
	}
	return saleToResponse(sale), nil
}

func (s *saleService) ListByClient(ctx context.Context, clientID uuid.UUID, filter dto.ClientSalesFilter) (*dto.ClientSalesResponse, error) {
	if _, err := s.Catalog.FindClient(ctx, clientID); err != nil {
		return nil, lookupErr(err, "Cliente não encontrado")
	}

	var f repository.SaleFilter
	if since := periodStart(filter.Period, s.now()); since != nil {
		f.Since = since
	}
	if filter.PetID != "" {
		petID, err := uuid.Parse(filter.PetID)
		if err != nil {
			return nil, apierror.Validation("pet_id inválido")
		}
		f.PetID = &petID
	}
	if filter.PaymentMethod != "" {
		if !validPaymentMethod(filter.PaymentMethod) {
			return nil, apierror.Validation("forma de pagamento inválida")
		}
		f.PaymentMethod = filter.PaymentMethod
	}

	sales, err := s.Sales.ListByClient(ctx, clientID, f)
	if err != nil {
		return nil, apierror.Persistence("falha ao listar vendas", err)
	}
	resp := &dto.ClientSalesResponse{Data: make([]dto.SaleResponse, 0, len(sales)), TotalAmount: decimal.Zero}
	for i := range sales {
		resp.Data = append(resp.Data, *saleToResponse(&sales[i]))
		resp.TotalAmount = resp.TotalAmount.Add(sales[i].TotalAmount)
	}
	resp.Count = len(resp.Data)
	return resp, nil
}

// periodStart maps 30d | 90d | 12m | all to a lower bound. Empty means all.
func periodStart(period string, now time.Time) *time.Time {
	var t time.Time
	switch period {
	case "30d":
		t = now.AddDate(0, 0, -30)
	case "90d":
		t = now.AddDate(0, 0, -90)
	case "12m":
		t = now.AddDate(0, -12, 0)
	default:
		return nil
	}
	return &t
}

// ── Mapping ───────────────────────────────────────────────────────────────────

func validPaymentMethod(m string) bool {
	switch m {
	case model.PaymentCash, model.PaymentPix, model.PaymentCredit, model.PaymentDebit:
		return true
	}
	return false
}

func saleItemFromCart(it cart.Item, now time.Time) model.SaleItem {
	total := it.TotalPrice
	if it.CoveredByPlan {
		total = decimal.Zero
	}
	return model.SaleItem{
		ProductID:      it.ProductID,
		ItemType:       string(it.Type),
		Description:    it.Description,
		Quantity:       it.Quantity,
		UnitPrice:      it.UnitPrice,
		DiscountAmount: it.DiscountAmount,
		TotalPrice:     total,
		CoveredByPlan:  it.CoveredByPlan,
		SourceID:       it.SourceID,
		PetID:          it.PetID,
		CommissionRate: it.CommissionRate,
		CreatedAt:      now,
	}
}

func saleRegisteredEvent(sale *model.Sale, c *cart.Cart) infra.Event {
	items := make([]map[string]interface{}, 0, len(c.Items))
	for _, it := range c.Items {
		items = append(items, map[string]interface{}{
			"description":     it.Description,
			"type":            string(it.Type),
			"quantity":        it.Quantity,
			"total_price":     it.TotalPrice.StringFixed(2),
			"covered_by_plan": it.CoveredByPlan,
			"pet_name":        it.PetName,
		})
	}
	fields := map[string]interface{}{
		"sale_id":        sale.ID.String(),
		"total_amount":   sale.TotalAmount.StringFixed(2),
		"payment_method": sale.PaymentMethod,
		"items":          items,
	}
	if sale.ClientID != nil {
		fields["client_id"] = sale.ClientID.String()
	}
	if sale.PetID != nil {
		fields["pet_id"] = sale.PetID.String()
	}
	return infra.NewEvent(infra.EventSaleRegistered, fields)
}

func saleToResponse(s *model.Sale) *dto.SaleResponse {
	items := make([]dto.SaleItemResponse, 0, len(s.Items))
	for _, it := range s.Items {
		items = append(items, dto.SaleItemResponse{
			ID:             it.ID.String(),
			ItemType:       it.ItemType,
			Description:    it.Description,
			Quantity:       it.Quantity,
			UnitPrice:      it.UnitPrice,
			DiscountAmount: it.DiscountAmount,
			TotalPrice:     it.TotalPrice,
			CoveredByPlan:  it.CoveredByPlan,
			ProductID:      uuidString(it.ProductID),
			SourceID:       uuidString(it.SourceID),
			PetID:          uuidString(it.PetID),
		})
	}
	return &dto.SaleResponse{
		ID:              s.ID.String(),
		CashRegisterID:  uuidString(s.CashRegisterID),
		ClientID:        uuidString(s.ClientID),
		PetID:           uuidString(s.PetID),
		EmployeeID:      uuidString(s.EmployeeID),
		Subtotal:        s.Subtotal,
		DiscountAmount:  s.DiscountAmount,
		DiscountPercent: s.DiscountPercent,
		TotalAmount:     s.TotalAmount,
		PaymentMethod:   s.PaymentMethod,
		PaymentStatus:   s.PaymentStatus,
		Notes:           s.Notes,
		Items:           items,
		CreatedAt:       s.CreatedAt,
	}
}
