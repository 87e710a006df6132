// Package pricing computes sale totals. It is shared by the server-side sale
// service and the client-side builder so both arrive at the same numbers.
package pricing

import "github.com/shopspring/decimal"

// Line is the part of a sale item that contributes to totals.
type Line struct {
	Quantity       int
	UnitPrice      decimal.Decimal
	DiscountAmount decimal.Decimal
}

// Gross is quantity * unit price.
func (l Line) Gross() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Total is the line total after its own discount.
func (l Line) Total() decimal.Decimal {
	return l.Gross().Sub(l.DiscountAmount)
}

type Totals struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
}

// ComputeTotals sums the lines and applies tax. The result does not depend
// on the order of lines.
func ComputeTotals(lines []Line, tax decimal.Decimal) Totals {
	subtotal := decimal.Zero
	discount := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.Gross())
		discount = discount.Add(l.DiscountAmount)
	}
	return Totals{
		Subtotal:       subtotal,
		TaxAmount:      tax,
		DiscountAmount: discount,
		TotalAmount:    subtotal.Add(tax).Sub(discount),
	}
}

// WithDiscountOverride replaces the summed line discounts with a header-level
// discount and recomputes the total.
func (t Totals) WithDiscountOverride(discount decimal.Decimal) Totals {
	t.DiscountAmount = discount
	t.TotalAmount = t.Subtotal.Add(t.TaxAmount).Sub(discount)
	return t
}
