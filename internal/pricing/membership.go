package pricing

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// PlanType selects how a membership plan discount is applied.
type PlanType string

const (
	PlanPercentage PlanType = "Percentage"
	PlanCurrency   PlanType = "Currency"
)

// ErrInvalidPlanType is returned for plan types outside the closed set.
var ErrInvalidPlanType = errors.New("pricing: invalid plan type")

// ParsePlanType accepts "Percentage" or "Currency" case-insensitively.
func ParsePlanType(raw string) (PlanType, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "percentage":
		return PlanPercentage, nil
	case "currency":
		return PlanCurrency, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrInvalidPlanType, raw)
	}
}

// PlanService is a service bundled into a membership plan.
type PlanService struct {
	Price decimal.Decimal
	Count int64
}

// PlanTotals is the server-side computation for a membership plan.
type PlanTotals struct {
	ActualRate   decimal.Decimal
	SellingPrice decimal.Decimal
}

// AggregatePlan computes actual rate and selling price.
//
// Percentage plans discount every service price by the plan percentage.
// Currency plans multiply price by count and take the submitted selling price as given.
func AggregatePlan(planType PlanType, discount decimal.Decimal, services []PlanService, submittedSellingPrice decimal.Decimal) PlanTotals {
	var totals PlanTotals
	switch planType {
	case PlanPercentage:
		for _, svc := range services {
			totals.ActualRate = totals.ActualRate.Add(svc.Price)
			totals.SellingPrice = totals.SellingPrice.Add(svc.Price.Sub(Round2(PercentOf(svc.Price, discount))))
		}
	case PlanCurrency:
		for _, svc := range services {
			totals.ActualRate = totals.ActualRate.Add(svc.Price.Mul(Qty(svc.Count)))
		}
		// Currency plans carry no per-service discount, so the selling price is taken as submitted.
		totals.SellingPrice = submittedSellingPrice
	default:
		panic(fmt.Sprintf("pricing: unknown plan type %q", string(planType)))
	}
	totals.ActualRate = Round2(totals.ActualRate)
	totals.SellingPrice = Round2(totals.SellingPrice)
	return totals
}
