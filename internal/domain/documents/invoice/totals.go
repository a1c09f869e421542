package invoice

import (
	"github.com/shopspring/decimal"

	"uniformshop/internal/core/apperror"
	"uniformshop/internal/core/types"
)

// Totals are the four currency fields of an invoice.
type Totals struct {
	Subtotal       types.Money
	DiscountAmount types.Money
	TaxAmount      types.Money
	GrandTotal     types.Money
}

// LineAmount returns quantity*unitPrice - discount, rounded.
func LineAmount(quantity int64, unitPrice, discount types.Money) types.Money {
	return types.RoundMoney(unitPrice.Mul(decimal.NewFromInt(quantity)).Sub(discount))
}

// ComputeTotals derives invoice totals from priced lines.
// When pct is set the invoice-level discount is subtotal*pct/100 and discountAmount is ignored.
func ComputeTotals(lines []LineItem, pct *decimal.Decimal, discountAmount, taxAmount types.Money) Totals {
	subtotal := types.Zero()
	for _, l := range lines {
		subtotal = subtotal.Add(LineAmount(l.Quantity, l.UnitPrice, l.Discount))
	}
	subtotal = types.RoundMoney(subtotal)

	discount := types.RoundMoney(discountAmount)
	if pct != nil {
		discount = types.Percent(subtotal, *pct)
	}
	tax := types.RoundMoney(taxAmount)

	return Totals{
		Subtotal:       subtotal,
		DiscountAmount: discount,
		TaxAmount:      tax,
		GrandTotal:     types.RoundMoney(subtotal.Sub(discount).Add(tax)),
	}
}

// CheckTotals rejects negative grand totals and disagreement with a caller-supplied total.
func CheckTotals(t Totals, supplied *types.Money) error {
	if t.GrandTotal.IsNegative() {
		return apperror.NewInvalidTotals("grand total cannot be negative").
			WithDetail("grandTotal", t.GrandTotal.StringFixed(2))
	}
	if supplied != nil && !types.MoneyClose(*supplied, t.GrandTotal) {
		return apperror.NewInvalidTotals("grand total does not match computed value").
			WithDetail("supplied", supplied.StringFixed(2)).
			WithDetail("computed", t.GrandTotal.StringFixed(2))
	}
	return nil
}
