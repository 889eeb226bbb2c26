// Package documentstest provides in-memory master data and canonical
// submissions for document service tests.
package documentstest

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-books/internal/documents"
	"github.com/odyssey-erp/odyssey-books/internal/masterdata"
	"github.com/odyssey-erp/odyssey-books/internal/pricing"
)

const (
	OrganizationID = "org-1"
	State          = "Kerala"
)

// Reader is a masterdata.Reader backed by maps.
type Reader struct {
	mu      sync.Mutex
	Org     masterdata.Organization
	items   map[uuid.UUID]masterdata.Item
	Parties map[uuid.UUID]masterdata.Party
}

// NewReader seeds an Indian GST organization with no items or parties.
func NewReader() *Reader {
	return &Reader{
		Org:     masterdata.Organization{ID: OrganizationID, Name: "Acme", Country: "India", State: State, TimeZone: "Asia/Kolkata"},
		items:   make(map[uuid.UUID]masterdata.Item),
		Parties: make(map[uuid.UUID]masterdata.Party),
	}
}

// AddItem registers it.
func (r *Reader) AddItem(it masterdata.Item) masterdata.Item {
	r.mu.Lock()
	defer r.mu.Unlock()
	if it.ID == uuid.Nil {
		it.ID = uuid.New()
	}
	it.OrganizationID = r.Org.ID
	r.items[it.ID] = it
	return it
}

// AddParty registers p with a fresh ledger account.
func (r *Reader) AddParty(p masterdata.Party) masterdata.Party {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.AccountID == uuid.Nil {
		p.AccountID = uuid.New()
	}
	if p.AccountName == "" {
		p.AccountName = p.DisplayName
	}
	p.OrganizationID = r.Org.ID
	r.Parties[p.ID] = p
	return p
}

// SetStock overwrites the current stock of an item.
func (r *Reader) SetStock(id uuid.UUID, stock int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	it := r.items[id]
	it.CurrentStock = stock
	r.items[id] = it
}

// Stock returns the current stock of an item.
func (r *Reader) Stock(id uuid.UUID) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.items[id].CurrentStock
}

func (r *Reader) Organization(_ context.Context, organizationID string) (masterdata.Organization, error) {
	if organizationID != r.Org.ID {
		return masterdata.Organization{}, masterdata.ErrOrganizationNotFound
	}
	return r.Org, nil
}

func (r *Reader) Items(_ context.Context, organizationID string, ids []uuid.UUID) ([]masterdata.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []masterdata.Item
	for _, id := range ids {
		if it, ok := r.items[id]; ok && it.OrganizationID == organizationID {
			out = append(out, it)
		}
	}
	return out, nil
}

func (r *Reader) Party(_ context.Context, organizationID string, kind masterdata.PartyKind, id uuid.UUID) (masterdata.Party, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.Parties[id]
	if !ok || p.Kind != kind || p.OrganizationID != organizationID {
		if kind == masterdata.PartySupplier {
			return masterdata.Party{}, masterdata.ErrSupplierNotFound
		}
		return masterdata.Party{}, masterdata.ErrCustomerNotFound
	}
	return p, nil
}

// AdjustStock applies delta to the item's stock, mirroring the tx writer.
func (r *Reader) AdjustStock(_ context.Context, _ string, itemID uuid.UUID, delta int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	it := r.items[itemID]
	it.CurrentStock += delta
	r.items[itemID] = it
	return nil
}

func (r *Reader) ApplyTaxRate(context.Context, string, string, string, pricing.TaxRates) (int64, error) {
	return 0, nil
}

// Dec parses a decimal literal.
func Dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// Widget is a GST 18% good priced 100 with a cost of 80.
func Widget(stock int64) masterdata.Item {
	return masterdata.Item{
		Name:         "Widget",
		Type:         masterdata.ItemGoods,
		SellingPrice: Dec("100"),
		CostPrice:    Dec("80"),
		TaxRateName:  "GST18",
		Rates:        pricing.TaxRates{CGST: Dec("9"), SGST: Dec("9"), IGST: Dec("18")},
		Taxable:      true,
		CurrentStock: stock,
	}
}

// GSTParty is a GST-registered party supplying from the organization's state.
func GSTParty(kind masterdata.PartyKind, name string) masterdata.Party {
	return masterdata.Party{Kind: kind, DisplayName: name, TaxType: pricing.RegistrationGST, SourceOfSupply: State}
}

// WidgetBody is two widgets at price with 18% intra-state GST and a 10%
// transaction discount. At price 100 the grand total is 212.40.
func WidgetBody(item masterdata.Item, price string) documents.Body {
	return WidgetBodyQty(item, price, 2)
}

// WidgetBodyQty is WidgetBody for qty widgets.
func WidgetBodyQty(item masterdata.Item, price string, qty int64) documents.Body {
	p := Dec(price)
	gross := p.Mul(decimal.NewFromInt(qty))
	half := pricing.Round2(pricing.PercentOf(gross, Dec("9")))
	tax := half.Add(half)
	total := gross.Add(tax)
	grand := pricing.Round2(total.Sub(pricing.Round2(pricing.PercentOf(total, Dec("10")))))
	return documents.Body{
		SourceOfSupply:          State,
		DestinationOfSupply:     State,
		PaymentTerms:            "Net 30",
		ShipmentPreference:      "Road",
		TransactionDiscountType: "percentage",
		TransactionDiscount:     Dec("10"),
		SubTotal:                gross,
		TotalItem:               qty,
		TotalTaxAmount:          tax,
		GrandTotal:              grand,
		Items: []documents.LineRequest{{
			ItemID:       item.ID,
			ItemName:     item.Name,
			Quantity:     qty,
			Price:        p,
			CGST:         item.Rates.CGST,
			SGST:         item.Rates.SGST,
			IGST:         item.Rates.IGST,
			DiscountType: "percentage",
			CGSTAmount:   half,
			SGSTAmount:   half,
			TaxAmount:    tax,
			Amount:       gross,
		}},
	}
}
