package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// TaxRates holds percentage rates configured on an item.
type TaxRates struct {
	CGST decimal.Decimal
	SGST decimal.Decimal
	IGST decimal.Decimal
	VAT  decimal.Decimal
}

// TaxAmounts holds computed tax per column.
type TaxAmounts struct {
	CGST decimal.Decimal
	SGST decimal.Decimal
	IGST decimal.Decimal
	VAT  decimal.Decimal
}

// Total sums all columns.
func (t TaxAmounts) Total() decimal.Decimal {
	return t.CGST.Add(t.SGST).Add(t.IGST).Add(t.VAT)
}

// Column returns the amount stored under col.
func (t TaxAmounts) Column(col TaxColumn) decimal.Decimal {
	switch col {
	case ColumnCGST:
		return t.CGST
	case ColumnSGST:
		return t.SGST
	case ColumnIGST:
		return t.IGST
	case ColumnVAT:
		return t.VAT
	default:
		panic(fmt.Sprintf("pricing: unknown tax column %q", string(col)))
	}
}

// Add returns the column-wise sum.
func (t TaxAmounts) Add(o TaxAmounts) TaxAmounts {
	return TaxAmounts{
		CGST: t.CGST.Add(o.CGST),
		SGST: t.SGST.Add(o.SGST),
		IGST: t.IGST.Add(o.IGST),
		VAT:  t.VAT.Add(o.VAT),
	}
}

// LineInput is a single document line as far as calculation is concerned.
type LineInput struct {
	Quantity  int64
	UnitPrice decimal.Decimal
	Discount  Discount
	Rates     TaxRates
	Taxable   bool
}

// LineResult is the server-side computation of a line.
type LineResult struct {
	Gross    decimal.Decimal
	Discount decimal.Decimal
	Amount   decimal.Decimal
	Taxes    TaxAmounts
	Tax      decimal.Decimal
}

// CalculateLine computes discount, taxable amount and per-column tax for one line.
// Only the columns selected by mode are populated; non-taxable lines carry no tax.
func CalculateLine(in LineInput, mode TaxMode) LineResult {
	gross := Round2(in.UnitPrice.Mul(Qty(in.Quantity)))
	discount := in.Discount.Amount(in.UnitPrice.Mul(Qty(in.Quantity)))
	amount := gross.Sub(discount)

	var taxes TaxAmounts
	if in.Taxable {
		switch mode {
		case TaxModeIntra:
			taxes.CGST = Round2(PercentOf(amount, in.Rates.CGST))
			taxes.SGST = Round2(PercentOf(amount, in.Rates.SGST))
		case TaxModeInter:
			taxes.IGST = Round2(PercentOf(amount, in.Rates.IGST))
		case TaxModeVAT:
			taxes.VAT = Round2(PercentOf(amount, in.Rates.VAT))
		case TaxModeNone:
		default:
			panic(fmt.Sprintf("pricing: unknown tax mode %q", string(mode)))
		}
	}

	return LineResult{
		Gross:    gross,
		Discount: discount,
		Amount:   amount,
		Taxes:    taxes,
		Tax:      taxes.Total(),
	}
}
