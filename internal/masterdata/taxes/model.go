package taxes

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-books/internal/pricing"
	"github.com/odyssey-erp/odyssey-books/internal/shared"
)

// TaxType is the regime an organization is registered under.
type TaxType string

const (
	TaxTypeGST TaxType = "GST"
	TaxTypeVAT TaxType = "VAT"
)

// ErrInvalidTaxType is returned for tax types outside the closed set.
var ErrInvalidTaxType = fmt.Errorf("taxes: tax type must be GST or VAT: %w", shared.ErrValidation)

// ParseTaxType accepts GST or VAT.
func ParseTaxType(raw string) (TaxType, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case string(TaxTypeGST):
		return TaxTypeGST, nil
	case string(TaxTypeVAT):
		return TaxTypeVAT, nil
	default:
		return "", ErrInvalidTaxType
	}
}

// Rate is a named tax rate. GST rates carry the CGST/SGST/IGST split, VAT rates the VAT column.
type Rate struct {
	ID      uuid.UUID       `json:"id"`
	TaxType TaxType         `json:"taxType"`
	Name    string          `json:"taxName"`
	Rate    decimal.Decimal `json:"taxRate"`
	CGST    decimal.Decimal `json:"cgst"`
	SGST    decimal.Decimal `json:"sgst"`
	IGST    decimal.Decimal `json:"igst"`
	VAT     decimal.Decimal `json:"vat"`
}

// ItemRates returns the columns copied onto items using this rate.
func (r Rate) ItemRates() pricing.TaxRates {
	return pricing.TaxRates{CGST: r.CGST, SGST: r.SGST, IGST: r.IGST, VAT: r.VAT}
}

// Record is an organization's tax registration and rate table.
type Record struct {
	OrganizationID     string    `json:"organizationId"`
	TaxType            TaxType   `json:"taxType,omitempty"`
	RegistrationNumber string    `json:"registrationNumber,omitempty"`
	BusinessLegalName  string    `json:"businessLegalName,omitempty"`
	BusinessTradeName  string    `json:"businessTradeName,omitempty"`
	Rates              []Rate    `json:"rates"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// Activated reports whether a tax type has been chosen.
func (r Record) Activated() bool {
	return r.TaxType != ""
}

// HasRateName reports whether another rate of the same type already uses name.
func (r Record) HasRateName(taxType TaxType, name string, exclude uuid.UUID) bool {
	for _, rate := range r.Rates {
		if rate.TaxType == taxType && rate.ID != exclude && strings.EqualFold(rate.Name, name) {
			return true
		}
	}
	return false
}

// FindRate returns the index of the rate with id.
func (r Record) FindRate(id uuid.UUID) int {
	for i, rate := range r.Rates {
		if rate.ID == id {
			return i
		}
	}
	return -1
}
