// Package documents turns submitted transaction documents into verified calculations.
package documents

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-books/internal/masterdata"
	"github.com/odyssey-erp/odyssey-books/internal/pricing"
	"github.com/odyssey-erp/odyssey-books/internal/reconcile"
)

// LineRequest is one submitted item line with the client's own figures.
type LineRequest struct {
	ItemID       uuid.UUID       `json:"itemId" validate:"required"`
	ItemName     string          `json:"itemName"`
	Quantity     int64           `json:"itemQuantity"`
	Price        decimal.Decimal `json:"itemPrice"`
	CGST         decimal.Decimal `json:"itemCgst"`
	SGST         decimal.Decimal `json:"itemSgst"`
	IGST         decimal.Decimal `json:"itemIgst"`
	VAT          decimal.Decimal `json:"itemVat"`
	DiscountType string          `json:"itemDiscountType"`
	Discount     decimal.Decimal `json:"itemDiscount"`
	CGSTAmount   decimal.Decimal `json:"itemCgstAmount"`
	SGSTAmount   decimal.Decimal `json:"itemSgstAmount"`
	IGSTAmount   decimal.Decimal `json:"itemIgstAmount"`
	VATAmount    decimal.Decimal `json:"itemVatAmount"`
	TaxAmount    decimal.Decimal `json:"itemTax"`
	Amount       decimal.Decimal `json:"itemAmount"`
}

// Body is the part of a submission shared by every document type.
type Body struct {
	SourceOfSupply          string          `json:"sourceOfSupply"`
	DestinationOfSupply     string          `json:"destinationOfSupply"`
	PaymentTerms            string          `json:"paymentTerms"`
	ShipmentPreference      string          `json:"shipmentPreference"`
	OtherExpenseAmount      decimal.Decimal `json:"otherExpenseAmount"`
	FreightAmount           decimal.Decimal `json:"freightAmount"`
	RoundOffAmount          decimal.Decimal `json:"roundOffAmount"`
	TransactionDiscountType string          `json:"transactionDiscountType"`
	TransactionDiscount     decimal.Decimal `json:"transactionDiscount"`
	SubTotal                decimal.Decimal `json:"subTotal"`
	TotalItem               int64           `json:"totalItem"`
	TotalTaxAmount          decimal.Decimal `json:"totalTaxAmount"`
	ItemTotalDiscount       decimal.Decimal `json:"itemTotalDiscount"`
	GrandTotal              decimal.Decimal `json:"grandTotal"`
	Items                   []LineRequest   `json:"items" validate:"required,min=1,dive"`
}

// ItemIDs lists the requested item ids in submission order.
func (b Body) ItemIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(b.Items))
	for _, line := range b.Items {
		ids = append(ids, line.ItemID)
	}
	return ids
}

func (b Body) header() masterdata.Header {
	return masterdata.Header{
		SourceOfSupply:          b.SourceOfSupply,
		DestinationOfSupply:     b.DestinationOfSupply,
		PaymentTerms:            b.PaymentTerms,
		ShipmentPreference:      b.ShipmentPreference,
		TransactionDiscountType: b.TransactionDiscountType,
		TransactionDiscount:     b.TransactionDiscount,
		FreightAmount:           b.FreightAmount,
		OtherExpenseAmount:      b.OtherExpenseAmount,
	}
}

func (b Body) claims() []masterdata.ItemClaim {
	out := make([]masterdata.ItemClaim, 0, len(b.Items))
	for _, line := range b.Items {
		out = append(out, masterdata.ItemClaim{
			ItemID:       line.ItemID,
			Name:         line.ItemName,
			Price:        line.Price,
			Rates:        pricing.TaxRates{CGST: line.CGST, SGST: line.SGST, IGST: line.IGST, VAT: line.VAT},
			Quantity:     line.Quantity,
			DiscountType: line.DiscountType,
			Discount:     line.Discount,
		})
	}
	return out
}

// document builds the calculation input. Discount types must already be valid.
func (b Body) document(mode pricing.TaxMode, items map[uuid.UUID]masterdata.Item) reconcile.Document {
	lines := make([]reconcile.Line, 0, len(b.Items))
	for _, line := range b.Items {
		it := items[line.ItemID]
		discountType, _ := pricing.ParseDiscountType(line.DiscountType)
		lines = append(lines, reconcile.Line{
			Name: line.ItemName,
			Input: pricing.LineInput{
				Quantity:  line.Quantity,
				UnitPrice: line.Price,
				Discount:  pricing.Discount{Type: discountType, Value: line.Discount},
				Rates:     it.Rates,
				Taxable:   it.Taxable,
			},
			Submitted: reconcile.SubmittedLine{
				CGST:   line.CGSTAmount,
				SGST:   line.SGSTAmount,
				IGST:   line.IGSTAmount,
				VAT:    line.VATAmount,
				Tax:    line.TaxAmount,
				Amount: line.Amount,
			},
		})
	}
	txType, _ := pricing.ParseDiscountType(b.TransactionDiscountType)
	return reconcile.Document{
		Mode:  mode,
		Lines: lines,
		Charges: pricing.Charges{
			OtherExpense:        b.OtherExpenseAmount,
			Freight:             b.FreightAmount,
			RoundOff:            b.RoundOffAmount,
			TransactionDiscount: pricing.Discount{Type: txType, Value: b.TransactionDiscount},
		},
		Submitted: reconcile.SubmittedTotals{
			SubTotal:          b.SubTotal,
			TotalTaxAmount:    b.TotalTaxAmount,
			GrandTotal:        b.GrandTotal,
			ItemTotalDiscount: b.ItemTotalDiscount,
			TotalItemCount:    b.TotalItem,
		},
	}
}
