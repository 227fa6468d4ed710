// Package pricing holds the arithmetic of a sale: line amounts, subtotal,
// discount, total and change. Every result is normalized to two decimals.
package pricing

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/boutique-pos/internal/money"
)

// ErrDiscountExceedsSubtotal is returned when the discount is larger than the subtotal.
var ErrDiscountExceedsSubtotal = errors.New("pricing: discount exceeds subtotal")

// Item describes a line item used for pricing calculation.
type Item struct {
	Qty       int
	UnitPrice decimal.Decimal
}

// Summary aggregates computed pricing components.
type Summary struct {
	Subtotal decimal.Decimal
	Discount decimal.Decimal
	Total    decimal.Decimal
}

// LineSubtotal returns normalize(normalize(unit) × qty).
func LineSubtotal(unit decimal.Decimal, qty int) decimal.Decimal {
	return money.Normalize(money.Normalize(unit).Mul(decimal.NewFromInt(int64(qty))))
}

// Compute calculates the sale totals. A negative discount counts as zero.
func Compute(items []Item, discount decimal.Decimal) (Summary, error) {
	subtotal := money.Zero
	for _, it := range items {
		subtotal = subtotal.Add(LineSubtotal(it.UnitPrice, it.Qty))
	}
	subtotal = money.Normalize(subtotal)

	discount = money.Normalize(discount)
	if discount.IsNegative() {
		discount = money.Zero
	}
	if discount.GreaterThan(subtotal) {
		return Summary{Subtotal: subtotal, Discount: discount}, ErrDiscountExceedsSubtotal
	}
	return Summary{
		Subtotal: subtotal,
		Discount: discount,
		Total:    money.Normalize(subtotal.Sub(discount)),
	}, nil
}

// Settle compares a payment against total. It returns the raw change and,
// when the payment falls short, the positive shortfall.
func Settle(total, payment decimal.Decimal) (change, shortfall decimal.Decimal) {
	total = money.Normalize(total)
	payment = money.Normalize(payment)
	if payment.LessThan(total) {
		return money.Zero, money.Normalize(total.Sub(payment))
	}
	return money.Normalize(payment.Sub(total)), money.Zero
}
