package reconcile

import (
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-books/internal/pricing"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func scenarioDocument() Document {
	return Document{
		Mode: pricing.TaxModeIntra,
		Lines: []Line{{
			Name: "Widget",
			Input: pricing.LineInput{
				Quantity:  2,
				UnitPrice: d("100"),
				Discount:  pricing.Discount{Type: pricing.DiscountPercentage},
				Rates:     pricing.TaxRates{CGST: d("9"), SGST: d("9"), IGST: d("18")},
				Taxable:   true,
			},
			Submitted: SubmittedLine{CGST: d("18"), SGST: d("18"), Tax: d("36"), Amount: d("200")},
		}},
		Charges: pricing.Charges{
			TransactionDiscount: pricing.Discount{Type: pricing.DiscountPercentage, Value: d("10")},
		},
		Submitted: SubmittedTotals{
			SubTotal:       d("200"),
			TotalTaxAmount: d("36"),
			GrandTotal:     d("212.40"),
			TotalItemCount: 2,
		},
	}
}

func TestCalculateAndValidateAccepts(t *testing.T) {
	res := CalculateAndValidate(scenarioDocument())
	require.True(t, res.Accepted(), res.Report.String())
	require.NoError(t, res.Report.Err())
	assert.Equal(t, "212.40", res.Totals.GrandTotal.StringFixed(2))
}

func TestCalculateAndValidateGrandTotalMismatch(t *testing.T) {
	doc := scenarioDocument()
	doc.Submitted.GrandTotal = d("300")

	res := CalculateAndValidate(doc)
	require.Equal(t, 1, res.Report.Len())
	assert.Equal(t, []string{"Grand Total is incorrect: 300"}, res.Report.Messages())

	err := res.Report.Err()
	require.True(t, errors.Is(err, ErrRejected))
	report, ok := AsReport(fmt.Errorf("wrapped: %w", err))
	require.True(t, ok)
	assert.Equal(t, LabelGrandTotal, report.Findings()[0].Field)
	assert.Equal(t, "212.4", report.Findings()[0].Calculated)
}

func TestToleranceBoundary(t *testing.T) {
	doc := scenarioDocument()
	doc.Submitted.GrandTotal = d("212.41")
	assert.True(t, CalculateAndValidate(doc).Accepted())

	doc.Submitted.GrandTotal = d("212.39")
	assert.True(t, CalculateAndValidate(doc).Accepted())

	doc.Submitted.GrandTotal = d("212.389")
	assert.False(t, CalculateAndValidate(doc).Accepted())

	doc.Submitted.GrandTotal = d("212.411")
	assert.False(t, CalculateAndValidate(doc).Accepted())

	assert.True(t, Matches(d("10.000"), d("10.010")))
	assert.False(t, Matches(d("10.000"), d("10.011")))
}

func TestCollectsEveryMismatch(t *testing.T) {
	doc := scenarioDocument()
	doc.Lines[0].Submitted.CGST = d("20")
	doc.Lines[0].Submitted.IGST = d("36")
	doc.Submitted.SubTotal = d("1")
	doc.Submitted.TotalItemCount = 3

	res := CalculateAndValidate(doc)
	assert.Equal(t, []string{
		"Mismatch in CGST for item Widget: Calculated 18, Provided 20",
		"Mismatch in IGST for item Widget: Calculated 0, Provided 36",
		"SubTotal is incorrect: 1",
		"Total Item count is incorrect: 3",
	}, res.Report.Messages())
}

func TestNonTaxableLineSkipsTaxColumns(t *testing.T) {
	doc := scenarioDocument()
	doc.Lines[0].Input.Taxable = false
	doc.Lines[0].Submitted = SubmittedLine{CGST: d("99"), Amount: d("200")}
	doc.Submitted.TotalTaxAmount = decimal.Zero
	doc.Submitted.GrandTotal = d("180")

	res := CalculateAndValidate(doc)
	require.True(t, res.Accepted(), res.Report.String())
}

func TestReconciliationIsOrderIndependent(t *testing.T) {
	doc := scenarioDocument()
	second := doc.Lines[0]
	second.Name = "Gadget"
	second.Input.UnitPrice = d("50")
	second.Input.Quantity = 1
	second.Submitted = SubmittedLine{CGST: d("4.5"), SGST: d("4.5"), Tax: d("9"), Amount: d("50")}
	doc.Lines = append(doc.Lines, second)
	doc.Submitted = SubmittedTotals{SubTotal: d("250"), TotalTaxAmount: d("45"), GrandTotal: d("265.50"), TotalItemCount: 3}

	forward := CalculateAndValidate(doc)
	doc.Lines[0], doc.Lines[1] = doc.Lines[1], doc.Lines[0]
	reversed := CalculateAndValidate(doc)

	require.True(t, forward.Accepted(), forward.Report.String())
	require.True(t, reversed.Accepted(), reversed.Report.String())
	assert.True(t, forward.Totals.GrandTotal.Equal(reversed.Totals.GrandTotal))
}

func TestValidatePlan(t *testing.T) {
	plan := Plan{
		Type:                  pricing.PlanPercentage,
		Discount:              d("10"),
		Services:              []pricing.PlanService{{Price: d("100"), Count: 1}, {Price: d("50"), Count: 1}},
		SubmittedActualRate:   d("150"),
		SubmittedSellingPrice: d("135"),
	}
	require.True(t, ValidatePlan(plan).Report.OK())

	plan.SubmittedSellingPrice = d("140")
	res := ValidatePlan(plan)
	assert.Equal(t, []string{"Selling Price is incorrect: 140"}, res.Report.Messages())
}
