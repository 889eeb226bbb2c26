package taxes

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-books/internal/shared"
)

// RateInput is a submitted tax rate. Nil fields were not supplied.
type RateInput struct {
	Name string           `json:"taxName"`
	Rate *decimal.Decimal `json:"taxRate"`
	CGST *decimal.Decimal `json:"cgst"`
	SGST *decimal.Decimal `json:"sgst"`
	IGST *decimal.Decimal `json:"igst"`
	VAT  *decimal.Decimal `json:"vat"`
}

func invalid(msg string) error {
	return fmt.Errorf("%s: %w", msg, shared.ErrValidation)
}

// validateRate applies the per-regime rules and returns the normalised rate.
func validateRate(taxType TaxType, in RateInput) (Rate, error) {
	if strings.TrimSpace(in.Name) == "" {
		return Rate{}, invalid("Tax name is required")
	}
	if in.Rate == nil {
		return Rate{}, invalid("Tax rate is required")
	}
	rate := Rate{TaxType: taxType, Name: strings.TrimSpace(in.Name), Rate: *in.Rate}
	switch taxType {
	case TaxTypeGST:
		if in.CGST == nil {
			return Rate{}, invalid("CGST is required")
		}
		if in.SGST == nil {
			return Rate{}, invalid("SGST is required")
		}
		if in.IGST == nil {
			return Rate{}, invalid("IGST is required")
		}
		if !in.CGST.Equal(*in.SGST) {
			return Rate{}, invalid("CGST must be equal to SGST.")
		}
		if !in.CGST.Add(*in.SGST).Equal(*in.IGST) {
			return Rate{}, invalid("Sum of CGST & SGST must be equal to IGST.")
		}
		rate.CGST, rate.SGST, rate.IGST = *in.CGST, *in.SGST, *in.IGST
	case TaxTypeVAT:
		rate.VAT = *in.Rate
		if in.VAT != nil {
			rate.VAT = *in.VAT
		}
	default:
		panic("taxes: unknown tax type " + string(taxType))
	}
	for _, v := range []decimal.Decimal{rate.Rate, rate.CGST, rate.SGST, rate.IGST, rate.VAT} {
		if v.IsNegative() {
			return Rate{}, invalid("Tax rate cannot be negative")
		}
	}
	return rate, nil
}
