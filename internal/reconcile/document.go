package reconcile

import (
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-books/internal/pricing"
)

// Line couples a calculation input with the amounts the client computed for it.
type Line struct {
	Name      string
	Input     pricing.LineInput
	Submitted SubmittedLine
}

// SubmittedLine holds client figures for a single line.
type SubmittedLine struct {
	CGST   decimal.Decimal
	SGST   decimal.Decimal
	IGST   decimal.Decimal
	VAT    decimal.Decimal
	Tax    decimal.Decimal
	Amount decimal.Decimal
}

// Column returns the submitted amount for a tax column.
func (s SubmittedLine) Column(col pricing.TaxColumn) decimal.Decimal {
	switch col {
	case pricing.ColumnCGST:
		return s.CGST
	case pricing.ColumnSGST:
		return s.SGST
	case pricing.ColumnIGST:
		return s.IGST
	default:
		return s.VAT
	}
}

// SubmittedTotals holds client figures for the document header.
type SubmittedTotals struct {
	SubTotal          decimal.Decimal
	TotalTaxAmount    decimal.Decimal
	GrandTotal        decimal.Decimal
	ItemTotalDiscount decimal.Decimal
	TotalItemCount    int64
}

// Document is everything needed to recompute and verify a transaction.
type Document struct {
	Mode      pricing.TaxMode
	Lines     []Line
	Charges   pricing.Charges
	Submitted SubmittedTotals
}

// Result is the output of CalculateAndValidate.
type Result struct {
	Totals pricing.Totals
	Report *Report
}

// Accepted reports whether no finding was raised.
func (r Result) Accepted() bool {
	return r.Report.OK()
}

// Field labels used in document diagnostics.
const (
	LabelItemTax           = "Item tax"
	LabelItemTotal         = "Item Total"
	LabelSubTotal          = "SubTotal"
	LabelTotalTaxAmount    = "Total Tax Amount"
	LabelGrandTotal        = "Grand Total"
	LabelItemTotalDiscount = "Total Item Discount Amount"
	LabelTotalItemCount    = "Total Item count"
)

// CalculateAndValidate recomputes doc and compares every figure with the
// submitted one. It has no side effects and never stops at the first finding.
func CalculateAndValidate(doc Document) Result {
	inputs := make([]pricing.LineInput, 0, len(doc.Lines))
	for _, line := range doc.Lines {
		inputs = append(inputs, line.Input)
	}
	totals := pricing.Aggregate(inputs, doc.Mode, doc.Charges)

	report := &Report{}
	for i, line := range doc.Lines {
		calc := totals.Lines[i]
		if line.Input.Taxable {
			for _, col := range pricing.AllColumns {
				report.CheckLine(string(col), line.Name, calc.Taxes.Column(col), line.Submitted.Column(col))
			}
			report.CheckLine(LabelItemTax, line.Name, calc.Tax, line.Submitted.Tax)
		}
		report.CheckLine(LabelItemTotal, line.Name, calc.Amount, line.Submitted.Amount)
	}

	report.CheckTotal(LabelSubTotal, totals.SubTotal, doc.Submitted.SubTotal)
	report.CheckTotal(LabelTotalTaxAmount, totals.TotalTaxAmount, doc.Submitted.TotalTaxAmount)
	report.CheckTotal(LabelGrandTotal, totals.GrandTotal, doc.Submitted.GrandTotal)
	report.CheckTotal(LabelItemTotalDiscount, totals.ItemTotalDiscount, doc.Submitted.ItemTotalDiscount)
	report.CheckCount(LabelTotalItemCount, totals.TotalItemCount, doc.Submitted.TotalItemCount)

	return Result{Totals: totals, Report: report}
}
