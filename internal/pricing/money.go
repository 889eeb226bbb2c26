// Package pricing computes line, document and membership plan figures from raw inputs.
package pricing

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Round2 rounds half away from zero to two decimal places. Every amount the
// engine produces is non-negative, so this is half-up for all practical inputs.
func Round2(v decimal.Decimal) decimal.Decimal {
	return v.Round(2)
}

// PercentOf returns base × pct / 100 without rounding.
func PercentOf(base, pct decimal.Decimal) decimal.Decimal {
	return base.Mul(pct).Div(hundred)
}

// Qty lifts an integer quantity into decimal space.
func Qty(q int64) decimal.Decimal {
	return decimal.NewFromInt(q)
}
