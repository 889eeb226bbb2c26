package documents

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-books/internal/pricing"
)

// Line is a stored document line carrying server-computed amounts.
type Line struct {
	ItemID       uuid.UUID            `json:"itemId"`
	ItemName     string               `json:"itemName"`
	Quantity     int64                `json:"itemQuantity"`
	Price        decimal.Decimal      `json:"itemPrice"`
	Rates        pricing.TaxRates     `json:"rates"`
	DiscountType pricing.DiscountType `json:"itemDiscountType"`
	Discount     decimal.Decimal      `json:"itemDiscount"`
	DiscountAmt  decimal.Decimal      `json:"itemDiscountAmount"`
	Taxes        pricing.TaxAmounts   `json:"taxes"`
	Tax          decimal.Decimal      `json:"itemTax"`
	Amount       decimal.Decimal      `json:"itemAmount"`
}

// Summary is the stored header figures of a document.
type Summary struct {
	TaxMode                   pricing.TaxMode      `json:"taxMode"`
	SourceOfSupply            string               `json:"sourceOfSupply,omitempty"`
	DestinationOfSupply       string               `json:"destinationOfSupply,omitempty"`
	PaymentTerms              string               `json:"paymentTerms,omitempty"`
	ShipmentPreference        string               `json:"shipmentPreference,omitempty"`
	SubTotal                  decimal.Decimal      `json:"subTotal"`
	ItemTotalDiscount         decimal.Decimal      `json:"itemTotalDiscount"`
	TotalItem                 int64                `json:"totalItem"`
	Taxes                     pricing.TaxAmounts   `json:"taxes"`
	TotalTaxAmount            decimal.Decimal      `json:"totalTaxAmount"`
	OtherExpenseAmount        decimal.Decimal      `json:"otherExpenseAmount"`
	FreightAmount             decimal.Decimal      `json:"freightAmount"`
	RoundOffAmount            decimal.Decimal      `json:"roundOffAmount"`
	TransactionDiscountType   pricing.DiscountType `json:"transactionDiscountType"`
	TransactionDiscount       decimal.Decimal      `json:"transactionDiscount"`
	TransactionDiscountAmount decimal.Decimal      `json:"transactionDiscountAmount"`
	GrandTotal                decimal.Decimal      `json:"grandTotal"`
}

func buildRecord(b Body, totals pricing.Totals) (Summary, []Line) {
	txType, _ := pricing.ParseDiscountType(b.TransactionDiscountType)
	summary := Summary{
		TaxMode:                   totals.Mode,
		SourceOfSupply:            b.SourceOfSupply,
		DestinationOfSupply:       b.DestinationOfSupply,
		PaymentTerms:              b.PaymentTerms,
		ShipmentPreference:        b.ShipmentPreference,
		SubTotal:                  totals.SubTotal,
		ItemTotalDiscount:         totals.ItemTotalDiscount,
		TotalItem:                 totals.TotalItemCount,
		Taxes:                     totals.Taxes,
		TotalTaxAmount:            totals.TotalTaxAmount,
		OtherExpenseAmount:        totals.OtherExpense,
		FreightAmount:             totals.Freight,
		RoundOffAmount:            totals.RoundOff,
		TransactionDiscountType:   txType,
		TransactionDiscount:       b.TransactionDiscount,
		TransactionDiscountAmount: totals.TransactionDiscountAmount,
		GrandTotal:                totals.GrandTotal,
	}
	lines := make([]Line, 0, len(b.Items))
	for i, req := range b.Items {
		calc := totals.Lines[i]
		discountType, _ := pricing.ParseDiscountType(req.DiscountType)
		lines = append(lines, Line{
			ItemID:       req.ItemID,
			ItemName:     req.ItemName,
			Quantity:     req.Quantity,
			Price:        req.Price,
			Rates:        pricing.TaxRates{CGST: req.CGST, SGST: req.SGST, IGST: req.IGST, VAT: req.VAT},
			DiscountType: discountType,
			Discount:     req.Discount,
			DiscountAmt:  calc.Discount,
			Taxes:        calc.Taxes,
			Tax:          calc.Tax,
			Amount:       calc.Amount,
		})
	}
	return summary, lines
}
