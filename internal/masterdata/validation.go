package masterdata

import (
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-books/internal/pricing"
	"github.com/odyssey-erp/odyssey-books/internal/reconcile"
	"github.com/odyssey-erp/odyssey-books/internal/shared"
)

// ErrDuplicateItem is returned when one document lists the same item twice.
var ErrDuplicateItem = fmt.Errorf("duplicate item found: %w", shared.ErrValidation)

var supplyRegions = map[string][]string{
	"United Arab Emirates": {
		"Abu Dhabi", "Dubai", "Sharjah", "Ajman", "Umm Al-Quwain", "Fujairah", "Ras Al Khaimah",
	},
	"India": {
		"Andaman and Nicobar Island", "Andhra Pradesh", "Arunachal Pradesh", "Assam", "Bihar", "Chandigarh",
		"Chhattisgarh", "Dadra and Nagar Haveli and Daman and Diu", "Delhi", "Goa", "Gujarat", "Haryana",
		"Himachal Pradesh", "Jammu and Kashmir", "Jharkhand", "Karnataka", "Kerala", "Ladakh", "Lakshadweep",
		"Madhya Pradesh", "Maharashtra", "Manipur", "Meghalaya", "Mizoram", "Nagaland", "Odisha", "Puducherry",
		"Punjab", "Rajasthan", "Sikkim", "Tamil Nadu", "Telangana", "Tripura", "Uttar Pradesh", "Uttarakhand",
		"West Bengal",
	},
	"Saudi Arabia": {
		"Asir", "Al Bahah", "Al Jawf", "Al Madinah", "Al-Qassim", "Eastern Province", "Hail", "Jazan", "Makkah",
		"Medina", "Najran", "Northern Borders", "Riyadh", "Tabuk",
	},
}

// PaymentTerms lists the accepted payment terms.
var PaymentTerms = []string{
	"Net 15", "Net 30", "Net 45", "Net 60", "Pay Now", "due on receipt", "End of This Month", "End of Next Month",
}

// ShipmentPreferences lists the accepted shipment modes.
var ShipmentPreferences = []string{"Road", "Rail", "Air", "Sea", "Courier", "Hand Delivery", "Pickup"}

// ValidSupplyRegion reports whether region belongs to the organization's country.
func ValidSupplyRegion(country, region string) bool {
	return slices.Contains(supplyRegions[country], region)
}

// CheckDuplicateItems rejects a document listing an item more than once.
func CheckDuplicateItems(ids []uuid.UUID) error {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			return ErrDuplicateItem
		}
		seen[id] = struct{}{}
	}
	return nil
}

// IndexItems maps every requested id to its master record. The first id
// without a record is a referential error.
func IndexItems(ids []uuid.UUID, items []Item) (map[uuid.UUID]Item, error) {
	index := make(map[uuid.UUID]Item, len(items))
	for _, it := range items {
		index[it.ID] = it
	}
	for _, id := range ids {
		if _, ok := index[id]; !ok {
			return nil, fmt.Errorf("item with ID %s was not found: %w", id, shared.ErrNotFound)
		}
	}
	return index, nil
}

// PriceBasis selects which master price a document line must quote.
type PriceBasis int

const (
	CostPrice PriceBasis = iota
	SellingPrice
)

// ItemClaim is what a document line asserts about its item.
type ItemClaim struct {
	ItemID       uuid.UUID
	Name         string
	Price        decimal.Decimal
	Rates        pricing.TaxRates
	Quantity     int64
	DiscountType string
	Discount     decimal.Decimal
}

// ClaimOptions controls item claim checks.
type ClaimOptions struct {
	Basis      PriceBasis
	CheckStock bool
}

// CheckItemClaims compares each claim with its master record and appends a
// finding per disagreement.
func CheckItemClaims(report *reconcile.Report, claims []ItemClaim, items map[uuid.UUID]Item, opts ClaimOptions) {
	for _, c := range claims {
		it := items[c.ItemID]
		if c.Name != it.Name {
			report.Addf("itemName", "Item Name Mismatch : %s", c.Name)
		}
		master, label := it.CostPrice, "Cost price"
		if opts.Basis == SellingPrice {
			master, label = it.SellingPrice, "Selling price"
		}
		if !c.Price.Equal(master) {
			report.Addf("itemPrice", "%s Mismatch for %s:  %s", label, c.Name, c.Price.String())
		}
		checkRate(report, "CGST", c.Name, c.Rates.CGST, it.Rates.CGST)
		checkRate(report, "SGST", c.Name, c.Rates.SGST, it.Rates.SGST)
		checkRate(report, "IGST", c.Name, c.Rates.IGST, it.Rates.IGST)
		checkRate(report, "VAT", c.Name, c.Rates.VAT, it.Rates.VAT)
		if _, err := pricing.ParseDiscountType(c.DiscountType); err != nil {
			report.Addf("itemDiscountType", "Invalid Item Discount: %s", c.DiscountType)
		}
		CheckNonNegative(report, "itemDiscount", "Item Discount for "+c.Name, c.Discount)
		if c.Quantity <= 0 {
			report.Addf("itemQuantity", "Invalid itemQuantity: %d", c.Quantity)
		}
		if opts.CheckStock && it.Stocked() && c.Quantity > it.CurrentStock {
			report.Addf("itemQuantity", "Insufficient Stock for %s: Requested quantity %d, Available stock %d",
				c.Name, c.Quantity, it.CurrentStock)
		}
	}
}

func checkRate(report *reconcile.Report, column, name string, claimed, master decimal.Decimal) {
	if !claimed.Equal(master) {
		report.Addf("item"+column, "%s Mismatch for %s: %s", column, name, claimed.String())
	}
}

// Header is the non-monetary part of a document submission.
type Header struct {
	SourceOfSupply          string
	DestinationOfSupply     string
	PaymentTerms            string
	ShipmentPreference      string
	TransactionDiscountType string
	TransactionDiscount     decimal.Decimal
	FreightAmount           decimal.Decimal
	OtherExpenseAmount      decimal.Decimal
}

// CheckHeader validates supply places, payment terms, shipment and discount type.
func CheckHeader(report *reconcile.Report, org Organization, party Party, h Header) {
	if party.TaxType == pricing.RegistrationGST {
		if h.SourceOfSupply == "" {
			report.Add("sourceOfSupply", "Source of supply required")
		}
		if h.DestinationOfSupply == "" {
			report.Add("destinationOfSupply", "Destination of supply required")
		}
	}
	if h.SourceOfSupply != "" && !ValidSupplyRegion(org.Country, h.SourceOfSupply) {
		report.Add("sourceOfSupply", "Invalid Source of Supply: "+h.SourceOfSupply)
	}
	if h.DestinationOfSupply != "" && !ValidSupplyRegion(org.Country, h.DestinationOfSupply) {
		report.Add("destinationOfSupply", "Invalid Destination of Supply: "+h.DestinationOfSupply)
	}
	if h.PaymentTerms != "" && !slices.Contains(PaymentTerms, h.PaymentTerms) {
		report.Add("paymentTerms", "Invalid Payment Terms: "+h.PaymentTerms)
	}
	if h.ShipmentPreference != "" && !slices.Contains(ShipmentPreferences, h.ShipmentPreference) {
		report.Add("shipmentPreference", "Invalid Shipment Preference: "+h.ShipmentPreference)
	}
	if _, err := pricing.ParseDiscountType(h.TransactionDiscountType); err != nil {
		report.Add("transactionDiscountType", "Invalid Transaction Discount: "+h.TransactionDiscountType)
	}
	CheckCharges(report, h)
}

// CheckCharges reports negative document-level discount and charges. Round
// off is signed and not checked.
func CheckCharges(report *reconcile.Report, h Header) {
	CheckNonNegative(report, "transactionDiscount", "Transaction Discount Value", h.TransactionDiscount)
	CheckNonNegative(report, "freightAmount", "Freight Amount", h.FreightAmount)
	CheckNonNegative(report, "otherExpenseAmount", "Other Expense Amount", h.OtherExpenseAmount)
}

// CheckNonNegative appends a finding when amount is below zero.
func CheckNonNegative(report *reconcile.Report, field, label string, amount decimal.Decimal) {
	if amount.IsNegative() {
		report.Addf(field, "Invalid %s: %s", label, amount.String())
	}
}
