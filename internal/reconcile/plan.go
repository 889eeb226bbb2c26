package reconcile

import (
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-books/internal/pricing"
)

// Plan is a membership plan submission.
type Plan struct {
	Type                  pricing.PlanType
	Discount              decimal.Decimal
	Services              []pricing.PlanService
	SubmittedActualRate   decimal.Decimal
	SubmittedSellingPrice decimal.Decimal
}

// PlanResult is the output of ValidatePlan.
type PlanResult struct {
	Totals pricing.PlanTotals
	Report *Report
}

const (
	LabelActualRate   = "Actual Rate"
	LabelSellingPrice = "Selling Price"
)

// ValidatePlan recomputes a membership plan and compares actual rate and selling price.
func ValidatePlan(plan Plan) PlanResult {
	totals := pricing.AggregatePlan(plan.Type, plan.Discount, plan.Services, plan.SubmittedSellingPrice)
	report := &Report{}
	report.CheckTotal(LabelActualRate, totals.ActualRate, plan.SubmittedActualRate)
	report.CheckTotal(LabelSellingPrice, totals.SellingPrice, plan.SubmittedSellingPrice)
	return PlanResult{Totals: totals, Report: report}
}
