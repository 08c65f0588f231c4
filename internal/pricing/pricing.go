// Package pricing holds the money arithmetic shared by carts and checkout.
package pricing

import "github.com/shopspring/decimal"

// Scale is the number of fractional digits every stored amount carries.
const Scale = 2

// MaxQuantity caps a single line so quantities and their sums stay well
// inside the integer columns.
const MaxQuantity = 9999

// MaxAmount is the largest value a numeric(12,2) column holds.
var MaxAmount = decimal.RequireFromString("9999999999.99")

// Line is one priced quantity.
type Line struct {
	UnitPrice decimal.Decimal
	Quantity  int
}

// Totals is the result of pricing a set of lines.
type Totals struct {
	// TotalAmount is the number of units across all lines.
	TotalAmount int
	Subtotal    decimal.Decimal
	ShippingFee decimal.Decimal
	// TotalValue is Subtotal plus ShippingFee.
	TotalValue decimal.Decimal
}

// LineTotal returns unit price times quantity.
func LineTotal(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
}

// Compute sums the lines and adds the shipping fee.
func Compute(lines []Line, shippingFee decimal.Decimal) Totals {
	totals := Totals{Subtotal: decimal.Zero, ShippingFee: shippingFee}
	for _, line := range lines {
		totals.TotalAmount += line.Quantity
		totals.Subtotal = totals.Subtotal.Add(LineTotal(line.UnitPrice, line.Quantity))
	}
	totals.TotalValue = totals.Subtotal.Add(shippingFee)
	return totals
}

// ValidAmount reports whether d is non-negative, has at most Scale fractional
// digits and fits the money columns.
func ValidAmount(d decimal.Decimal) bool {
	if d.IsNegative() || d.GreaterThan(MaxAmount) {
		return false
	}
	return d.Equal(d.Round(Scale))
}

// Fits reports whether every stored amount of t is within the money columns.
func (t Totals) Fits() bool {
	return !t.Subtotal.GreaterThan(MaxAmount) && !t.TotalValue.GreaterThan(MaxAmount)
}
