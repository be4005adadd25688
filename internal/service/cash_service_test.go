package service

import (
	"bytes"
	"context"
	"testing"

	"petzap/internal/apierror"
	"petzap/internal/dto"
	"petzap/internal/infra"
	"petzap/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dtoOpen(amount string) dto.OpenCashRequest {
	return dto.OpenCashRequest{OpeningAmount: dec(amount)}
}

// sellProduct runs a one-line cash sale through the cart and sale services.
func sellProduct(t *testing.T, env *testEnv, price string) *dto.SaleResponse {
	t.Helper()
	ctx := context.Background()
	p := env.seedProduct(t, "Ração Premium 3kg", price, 10)
	carts := env.cartService()
	c, err := carts.Create(ctx)
	require.NoError(t, err)
	_, err = carts.AddProduct(ctx, mustUUID(t, c.ID), dto.AddProductRequest{ProductID: idOf(p.ID), Quantity: 1})
	require.NoError(t, err)
	sale, err := env.saleService().Finalize(ctx, nil, dto.FinalizeSaleRequest{CartID: c.ID, PaymentMethod: "cash"})
	require.NoError(t, err)
	return sale
}

func TestCash_SessionLifecycle(t *testing.T) {
	env := newTestEnv(t)
	svc := env.cashService()
	ctx := context.Background()

	opened, err := svc.Open(ctx, nil, dtoOpen("100"))
	require.NoError(t, err)
	assert.Equal(t, "open", opened.Status)
	assert.True(t, opened.Balance.Equal(dec("100")))

	sale := sellProduct(t, env, "80")
	require.NotNil(t, sale.CashRegisterID)
	assert.Equal(t, opened.ID, *sale.CashRegisterID)
	require.NotNil(t, sale.CashBalance)
	assert.True(t, sale.CashBalance.Equal(dec("180")))

	_, err = svc.AddMovement(ctx, nil, dto.CashMovementRequest{Type: "withdrawal", Amount: dec("30"), Reason: strPtr("Troco banco")})
	require.NoError(t, err)

	current, err := svc.Current(ctx)
	require.NoError(t, err)
	assert.True(t, current.Balance.Equal(dec("150")))
	assert.True(t, current.SalesTotal.Equal(dec("80")))
	assert.Equal(t, int64(1), current.SalesCount)
	assert.Len(t, current.Movements, 1)

	closed, err := svc.Close(ctx, nil, dto.CloseCashRequest{ClosingAmount: dec("148"), Notes: strPtr("faltou troco")})
	require.NoError(t, err)
	assert.Equal(t, "closed", closed.Status)
	require.NotNil(t, closed.ExpectedAmount)
	require.NotNil(t, closed.Difference)
	assert.True(t, closed.ExpectedAmount.Equal(dec("150")))
	assert.True(t, closed.Difference.Equal(dec("-2")))
	require.NotNil(t, closed.Classification)
	assert.Equal(t, "warning", *closed.Classification)
	require.NotNil(t, closed.Notes)
	assert.Contains(t, *closed.Notes, "faltou troco")

	assert.Contains(t, env.notifier.actions(), infra.EventCashClosed)
	assert.Empty(t, env.notifier.emails, "no report address configured")
}

func TestCash_OpenTwiceConflicts(t *testing.T) {
	env := newTestEnv(t)
	svc := env.cashService()

	_, err := svc.Open(context.Background(), nil, dtoOpen("50"))
	require.NoError(t, err)
	_, err = svc.Open(context.Background(), nil, dtoOpen("50"))
	assert.ErrorIs(t, err, apierror.ErrConflict)
}

func TestCash_CloseWithoutOpenSession(t *testing.T) {
	env := newTestEnv(t)
	svc := env.cashService()
	ctx := context.Background()

	_, err := svc.Open(ctx, nil, dtoOpen("10"))
	require.NoError(t, err)
	_, err = svc.Close(ctx, nil, dto.CloseCashRequest{ClosingAmount: dec("10")})
	require.NoError(t, err)

	_, err = svc.Close(ctx, nil, dto.CloseCashRequest{ClosingAmount: dec("10")})
	assert.ErrorIs(t, err, apierror.ErrPrecondition)
}

func TestCash_MovementRequiresOpenSession(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.cashService().AddMovement(context.Background(), nil,
		dto.CashMovementRequest{Type: "supply", Amount: dec("20")})
	assert.ErrorIs(t, err, apierror.ErrPrecondition)
}

func TestCash_MovementAfterConcurrentCloseIsRefused(t *testing.T) {
	env := newTestEnv(t)
	env.openCash(t, "100")
	svc := NewCashService(&closingCashRepo{CashRepository: env.cashRepo, db: env.db}, env.notifier, CashOptions{})

	_, err := svc.AddMovement(context.Background(), nil,
		dto.CashMovementRequest{Type: "withdrawal", Amount: dec("40")})
	assert.ErrorIs(t, err, apierror.ErrPrecondition)

	var n int64
	require.NoError(t, env.db.Model(&model.CashMovement{}).Count(&n).Error)
	assert.Zero(t, n, "closed session must not receive movements")
}

func TestCash_MovementValidation(t *testing.T) {
	env := newTestEnv(t)
	env.openCash(t, "10")
	svc := env.cashService()

	_, err := svc.AddMovement(context.Background(), nil, dto.CashMovementRequest{Type: "refund", Amount: dec("5")})
	assert.ErrorIs(t, err, apierror.ErrValidation)

	_, err = svc.AddMovement(context.Background(), nil, dto.CashMovementRequest{Type: "supply", Amount: dec("0")})
	assert.ErrorIs(t, err, apierror.ErrValidation)
}

func TestCash_HistoryAndReportPDF(t *testing.T) {
	env := newTestEnv(t)
	svc := env.cashService()
	ctx := context.Background()

	opened, err := svc.Open(ctx, nil, dtoOpen("100"))
	require.NoError(t, err)
	_, err = svc.AddMovement(ctx, nil, dto.CashMovementRequest{Type: "supply", Amount: dec("25")})
	require.NoError(t, err)
	_, err = svc.Close(ctx, nil, dto.CloseCashRequest{ClosingAmount: dec("125")})
	require.NoError(t, err)

	hist, err := svc.History(ctx, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), hist.Total)
	assert.Equal(t, 1, hist.Page)
	assert.Equal(t, 20, hist.Limit)
	require.Len(t, hist.Data, 1)
	assert.Equal(t, "ok", *hist.Data[0].Classification)

	var buf bytes.Buffer
	require.NoError(t, svc.ReportPDF(ctx, mustUUID(t, opened.ID), &buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
}

func TestCash_ReportUnknownSession(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.cashService().Report(context.Background(), newID())
	assert.ErrorIs(t, err, apierror.ErrNotFound)
}
