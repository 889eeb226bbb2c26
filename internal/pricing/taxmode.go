package pricing

import (
	"fmt"
	"strings"
)

// RegistrationType is the tax registration of an organization or counterparty.
type RegistrationType string

const (
	RegistrationGST  RegistrationType = "GST"
	RegistrationVAT  RegistrationType = "VAT"
	RegistrationNone RegistrationType = ""
)

// ParseRegistrationType normalises free-form registration input.
func ParseRegistrationType(raw string) RegistrationType {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "GST":
		return RegistrationGST
	case "VAT":
		return RegistrationVAT
	default:
		return RegistrationNone
	}
}

// TaxMode selects which tax columns apply to a document.
type TaxMode string

const (
	TaxModeIntra TaxMode = "Intra"
	TaxModeInter TaxMode = "Inter"
	TaxModeVAT   TaxMode = "VAT"
	TaxModeNone  TaxMode = "None"
)

// ResolveTaxMode derives the document tax mode. It is never taken from the client.
func ResolveTaxMode(reg RegistrationType, sourceOfSupply, destinationOfSupply string) TaxMode {
	switch reg {
	case RegistrationGST:
		if sourceOfSupply == destinationOfSupply {
			return TaxModeIntra
		}
		return TaxModeInter
	case RegistrationVAT:
		return TaxModeVAT
	default:
		return TaxModeNone
	}
}

// Columns lists the tax columns that may carry a non-zero amount under the mode.
func (m TaxMode) Columns() []TaxColumn {
	switch m {
	case TaxModeIntra:
		return []TaxColumn{ColumnCGST, ColumnSGST}
	case TaxModeInter:
		return []TaxColumn{ColumnIGST}
	case TaxModeVAT:
		return []TaxColumn{ColumnVAT}
	case TaxModeNone:
		return nil
	default:
		panic(fmt.Sprintf("pricing: unknown tax mode %q", string(m)))
	}
}

// TaxColumn names a single tax component.
type TaxColumn string

const (
	ColumnCGST TaxColumn = "CGST"
	ColumnSGST TaxColumn = "SGST"
	ColumnIGST TaxColumn = "IGST"
	ColumnVAT  TaxColumn = "VAT"
)

// AllColumns is the fixed column order used for reporting and posting.
var AllColumns = []TaxColumn{ColumnCGST, ColumnSGST, ColumnIGST, ColumnVAT}
