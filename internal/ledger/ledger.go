// Package ledger computes cash drawer balances from an opening amount, paid
// sales and manual movements. Balances are always derived, never stored.
package ledger

import (
	"petzap/internal/model"

	"github.com/shopspring/decimal"
)

// MovementTotals sums manual movements by direction.
type MovementTotals struct {
	Supplies    decimal.Decimal `json:"supplies"`
	Withdrawals decimal.Decimal `json:"withdrawals"`
}

func Totals(movements []model.CashMovement) MovementTotals {
	t := MovementTotals{Supplies: decimal.Zero, Withdrawals: decimal.Zero}
	for _, m := range movements {
		switch m.Type {
		case model.MovementSupply:
			t.Supplies = t.Supplies.Add(m.Amount)
		case model.MovementWithdrawal:
			t.Withdrawals = t.Withdrawals.Add(m.Amount)
		}
	}
	return t
}

// Balance = opening + sales + supplies − withdrawals.
func Balance(opening, salesTotal decimal.Decimal, movements []model.CashMovement) decimal.Decimal {
	t := Totals(movements)
	return opening.Add(salesTotal).Add(t.Supplies).Sub(t.Withdrawals)
}

// Reconciliation is the outcome of counting the drawer at close.
type Reconciliation struct {
	Expected       decimal.Decimal `json:"expected_amount"`
	Counted        decimal.Decimal `json:"closing_amount"`
	Difference     decimal.Decimal `json:"difference"`
	DifferencePct  decimal.Decimal `json:"difference_pct"`
	Classification string          `json:"classification"`
}

// Reconcile compares the counted amount with the expected balance.
// A positive difference is a surplus, a negative one a shortage.
func Reconcile(opening, salesTotal decimal.Decimal, movements []model.CashMovement, counted decimal.Decimal) Reconciliation {
	expected := Balance(opening, salesTotal, movements)
	diff := counted.Sub(expected)
	var pct decimal.Decimal
	if !expected.IsZero() {
		pct = diff.Div(expected).Mul(decimal.NewFromInt(100)).Round(2)
	}
	return Reconciliation{
		Expected:       expected,
		Counted:        counted,
		Difference:     diff,
		DifferencePct:  pct,
		Classification: Classify(diff, expected),
	}
}

// Classify returns "ok" | "warning" | "critical" for a difference against the
// expected amount. ok: |diff| <= 1% of expected, warning: <= 5%, critical: above.
func Classify(diff, expected decimal.Decimal) string {
	if diff.IsZero() {
		return "ok"
	}
	if expected.IsZero() {
		return "critical"
	}
	pct := diff.Div(expected).Mul(decimal.NewFromInt(100)).Abs()
	switch {
	case pct.LessThanOrEqual(decimal.NewFromInt(1)):
		return "ok"
	case pct.LessThanOrEqual(decimal.NewFromInt(5)):
		return "warning"
	default:
		return "critical"
	}
}
