// Package money holds the decimal helpers used for prices, discounts and totals.
// Amounts are carried at three decimal places.
package money

import "github.com/shopspring/decimal"

// Scale is the number of decimal places every stored amount is rounded to.
const Scale int32 = 3

var hundred = decimal.NewFromInt(100)

// Round rounds half away from zero to Scale places.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Scale)
}

// LineTotal returns unit price times quantity.
func LineTotal(unit decimal.Decimal, qty int) decimal.Decimal {
	return Round(unit.Mul(decimal.NewFromInt(int64(qty))))
}

// Percent returns value percent of amount.
func Percent(amount, value decimal.Decimal) decimal.Decimal {
	return Round(amount.Mul(value).Div(hundred))
}

// Clamp bounds d to [lo, hi].
func Clamp(d, lo, hi decimal.Decimal) decimal.Decimal {
	if d.LessThan(lo) {
		return lo
	}
	if d.GreaterThan(hi) {
		return hi
	}
	return d
}

// NonNegative returns zero for negative amounts.
func NonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// Format renders an amount with exactly Scale places.
func Format(d decimal.Decimal) string {
	return d.StringFixed(Scale)
}
