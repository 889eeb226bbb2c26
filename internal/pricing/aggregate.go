package pricing

import "github.com/shopspring/decimal"

// Charges are document-level adjustments applied after line aggregation.
type Charges struct {
	OtherExpense        decimal.Decimal
	Freight             decimal.Decimal
	RoundOff            decimal.Decimal
	TransactionDiscount Discount
}

// Totals is the complete server-side computation for a document.
type Totals struct {
	Mode                      TaxMode
	Lines                     []LineResult
	SubTotal                  decimal.Decimal
	ItemTotalDiscount         decimal.Decimal
	TotalTaxAmount            decimal.Decimal
	TotalItemCount            int64
	Taxes                     TaxAmounts
	OtherExpense              decimal.Decimal
	Freight                   decimal.Decimal
	RoundOff                  decimal.Decimal
	Total                     decimal.Decimal
	TransactionDiscountAmount decimal.Decimal
	GrandTotal                decimal.Decimal
}

// NetSales is the revenue figure after every discount and before tax and charges.
func (t Totals) NetSales() decimal.Decimal {
	return t.SubTotal.Sub(t.ItemTotalDiscount).Sub(t.TransactionDiscountAmount)
}

// Aggregate sums the lines and applies document charges.
//
//	total = subTotal + tax + otherExpense + freight - roundOff - itemTotalDiscount
//	grandTotal = total - transactionDiscount(total)
func Aggregate(lines []LineInput, mode TaxMode, charges Charges) Totals {
	totals := Totals{
		Mode:         mode,
		Lines:        make([]LineResult, 0, len(lines)),
		OtherExpense: Round2(charges.OtherExpense),
		Freight:      Round2(charges.Freight),
		RoundOff:     Round2(charges.RoundOff),
	}
	for _, line := range lines {
		res := CalculateLine(line, mode)
		totals.Lines = append(totals.Lines, res)
		totals.SubTotal = totals.SubTotal.Add(res.Gross)
		totals.ItemTotalDiscount = totals.ItemTotalDiscount.Add(res.Discount)
		totals.TotalTaxAmount = totals.TotalTaxAmount.Add(res.Tax)
		totals.Taxes = totals.Taxes.Add(res.Taxes)
		totals.TotalItemCount += line.Quantity
	}

	totals.Total = totals.SubTotal.
		Add(totals.TotalTaxAmount).
		Add(totals.OtherExpense).
		Add(totals.Freight).
		Sub(totals.RoundOff).
		Sub(totals.ItemTotalDiscount)
	totals.TransactionDiscountAmount = charges.TransactionDiscount.Amount(totals.Total)
	totals.GrandTotal = Round2(totals.Total.Sub(totals.TransactionDiscountAmount))
	return totals
}
