package pricing_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/boutique-pos/internal/pricing"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestComputeTotals(t *testing.T) {
	items := []pricing.Item{
		{Qty: 2, UnitPrice: d("100.00")},
		{Qty: 3, UnitPrice: d("19.995")},
	}
	s, err := pricing.Compute(items, d("50"))
	require.NoError(t, err)
	// 19.995 normalizes to 20.00 before multiplying.
	require.Equal(t, "260.00", s.Subtotal.StringFixed(2))
	require.Equal(t, "210.00", s.Total.StringFixed(2))
	require.True(t, s.Total.Equal(s.Subtotal.Sub(s.Discount)))
}

func TestComputeCoercesNegativeDiscount(t *testing.T) {
	s, err := pricing.Compute([]pricing.Item{{Qty: 1, UnitPrice: d("10")}}, d("-5"))
	require.NoError(t, err)
	require.True(t, s.Discount.IsZero())
	require.Equal(t, "10.00", s.Total.StringFixed(2))
}

func TestComputeRejectsDiscountAboveSubtotal(t *testing.T) {
	_, err := pricing.Compute([]pricing.Item{{Qty: 2, UnitPrice: d("100")}}, d("250"))
	require.ErrorIs(t, err, pricing.ErrDiscountExceedsSubtotal)

	s, err := pricing.Compute([]pricing.Item{{Qty: 2, UnitPrice: d("100")}}, d("200"))
	require.NoError(t, err)
	require.True(t, s.Total.IsZero())
}

func TestSettle(t *testing.T) {
	change, short := pricing.Settle(d("150"), d("200"))
	require.Equal(t, "50.00", change.StringFixed(2))
	require.True(t, short.IsZero())

	change, short = pricing.Settle(d("150"), d("120.50"))
	require.True(t, change.IsZero())
	require.Equal(t, "29.50", short.StringFixed(2))
}
