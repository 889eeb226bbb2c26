package pricing

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// DiscountType determines how a discount value is interpreted.
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountCurrency   DiscountType = "currency"
)

// ErrInvalidDiscountType is returned for discount types outside the closed set.
var ErrInvalidDiscountType = errors.New("pricing: invalid discount type")

// ParseDiscountType accepts "percentage" or "currency". An empty value means percentage.
func ParseDiscountType(raw string) (DiscountType, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", string(DiscountPercentage):
		return DiscountPercentage, nil
	case string(DiscountCurrency):
		return DiscountCurrency, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrInvalidDiscountType, raw)
	}
}

// Discount pairs a type with its value.
type Discount struct {
	Type  DiscountType
	Value decimal.Decimal
}

// Amount returns the discount applied to base, rounded to two decimals.
func (d Discount) Amount(base decimal.Decimal) decimal.Decimal {
	switch d.Type {
	case DiscountCurrency:
		return Round2(d.Value)
	case DiscountPercentage, "":
		return Round2(PercentOf(base, d.Value))
	default:
		panic(fmt.Sprintf("pricing: unknown discount type %q", string(d.Type)))
	}
}
