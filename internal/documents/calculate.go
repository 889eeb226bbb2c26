package documents

import (
	"fmt"

	"github.com/odyssey-erp/odyssey-books/internal/masterdata"
	"github.com/odyssey-erp/odyssey-books/internal/pricing"
	"github.com/odyssey-erp/odyssey-books/internal/reconcile"
	"github.com/odyssey-erp/odyssey-books/internal/shared"
)

// DryRun is a self-contained document: the seller registration and every
// line's rates travel with it, so no master data is read. A line is taxable
// when any of its rates is positive.
type DryRun struct {
	TaxType string `json:"taxType"`
	Body
}

// Outcome is the result of a dry run.
type Outcome struct {
	Accepted bool                `json:"accepted"`
	Summary  Summary             `json:"summary"`
	Lines    []Line              `json:"items"`
	Findings []reconcile.Finding `json:"findings"`
}

// Calculate recomputes the document and reconciles it against the figures it
// carries. Only malformed input is returned as an error; negative discounts
// and charges reject the document before calculation.
func (d DryRun) Calculate() (Outcome, error) {
	if len(d.Items) == 0 {
		return Outcome{}, fmt.Errorf("%w: select an item", shared.ErrValidation)
	}
	if _, err := pricing.ParseDiscountType(d.TransactionDiscountType); err != nil {
		return Outcome{}, fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}
	for _, line := range d.Items {
		if _, err := pricing.ParseDiscountType(line.DiscountType); err != nil {
			return Outcome{}, fmt.Errorf("%w: %s: %v", shared.ErrValidation, line.ItemName, err)
		}
	}
	input := &reconcile.Report{}
	masterdata.CheckCharges(input, d.header())
	for _, line := range d.Items {
		masterdata.CheckNonNegative(input, "itemDiscount", "Item Discount for "+line.ItemName, line.Discount)
	}
	if !input.OK() {
		return Outcome{Findings: input.Findings()}, nil
	}
	mode := pricing.ResolveTaxMode(pricing.ParseRegistrationType(d.TaxType), d.SourceOfSupply, d.DestinationOfSupply)
	doc := d.document(mode, nil)
	for i, line := range d.Items {
		rates := pricing.TaxRates{CGST: line.CGST, SGST: line.SGST, IGST: line.IGST, VAT: line.VAT}
		doc.Lines[i].Input.Rates = rates
		doc.Lines[i].Input.Taxable = rates.CGST.IsPositive() || rates.SGST.IsPositive() ||
			rates.IGST.IsPositive() || rates.VAT.IsPositive()
	}
	result := reconcile.CalculateAndValidate(doc)
	summary, lines := buildRecord(d.Body, result.Totals)
	return Outcome{
		Accepted: result.Accepted(),
		Summary:  summary,
		Lines:    lines,
		Findings: result.Report.Findings(),
	}, nil
}
