package money

import (
	"math/big"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// Scale is the number of fractional digits kept for every monetary amount.
const Scale = 2

// Zero is 0.00.
var Zero = decimal.Zero.Round(Scale)

// Normalize rounds d to two decimal places, half away from zero (0.005 -> 0.01).
func Normalize(d decimal.Decimal) decimal.Decimal {
	return d.Round(Scale)
}

// NormalizeNull treats a missing amount as zero before normalizing it.
func NormalizeNull(d decimal.NullDecimal) decimal.Decimal {
	if !d.Valid {
		return Zero
	}
	return Normalize(d.Decimal)
}

// ClampNonNegative returns zero for negative amounts. Only used for display.
func ClampNonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return Zero
	}
	return d
}

// Format renders the amount with exactly two fractional digits.
func Format(d decimal.Decimal) string {
	return Normalize(d).StringFixed(Scale)
}

// Numeric converts a normalized amount into its pgx representation.
func Numeric(d decimal.Decimal) pgtype.Numeric {
	n := Normalize(d)
	return pgtype.Numeric{Int: new(big.Int).Set(n.Coefficient()), Exp: n.Exponent(), Valid: true}
}

// FromNumeric converts a pgx numeric into a normalized amount. NULL and NaN map to zero.
func FromNumeric(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid || n.NaN || n.Int == nil {
		return Zero
	}
	return Normalize(decimal.NewFromBigInt(n.Int, n.Exp))
}
