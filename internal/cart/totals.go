package cart

import "github.com/shopspring/decimal"

// Totals are the derived amounts of a cart. Display, finalization and
// receipts all read them from here.
type Totals struct {
	Subtotal      decimal.Decimal `json:"subtotal"`
	TotalDiscount decimal.Decimal `json:"total_discount"`
	PlanDiscount  decimal.Decimal `json:"plan_discount"`
	AmountDue     decimal.Decimal `json:"amount_due"`
}

// Discount is the full reduction applied to the subtotal.
func (t Totals) Discount() decimal.Decimal {
	return t.TotalDiscount.Add(t.PlanDiscount)
}

// DiscountPercent is Discount as a percentage of Subtotal, rounded to 2 places.
func (t Totals) DiscountPercent() decimal.Decimal {
	if t.Subtotal.IsZero() {
		return decimal.Zero
	}
	return t.Discount().Div(t.Subtotal).Mul(decimal.NewFromInt(100)).Round(2)
}

// Compute derives totals from items:
//
//	subtotal      = Σ unit×qty
//	totalDiscount = Σ discount
//	planDiscount  = Σ unit×qty of plan-covered items
//	amountDue     = max(0, subtotal − totalDiscount − planDiscount)
func Compute(items []Item) Totals {
	t := Totals{
		Subtotal:      decimal.Zero,
		TotalDiscount: decimal.Zero,
		PlanDiscount:  decimal.Zero,
	}
	for i := range items {
		gross := items[i].Gross()
		t.Subtotal = t.Subtotal.Add(gross)
		if items[i].CoveredByPlan {
			t.PlanDiscount = t.PlanDiscount.Add(gross)
			continue
		}
		t.TotalDiscount = t.TotalDiscount.Add(items[i].DiscountAmount)
	}
	t.AmountDue = t.Subtotal.Sub(t.TotalDiscount).Sub(t.PlanDiscount)
	if t.AmountDue.IsNegative() {
		t.AmountDue = decimal.Zero
	}
	return t
}

func (c *Cart) Totals() Totals { return Compute(c.Items) }
