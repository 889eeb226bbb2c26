// Package masterdata holds the reference records documents are validated against.
package masterdata

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-books/internal/accounting"
	"github.com/odyssey-erp/odyssey-books/internal/pricing"
	"github.com/odyssey-erp/odyssey-books/internal/shared"
)

var (
	ErrOrganizationNotFound = fmt.Errorf("masterdata: organization not found: %w", shared.ErrNotFound)
	ErrCustomerNotFound     = fmt.Errorf("masterdata: customer not found: %w", shared.ErrNotFound)
	ErrSupplierNotFound     = fmt.Errorf("masterdata: supplier not found: %w", shared.ErrNotFound)
)

// Organization carries the settings documents depend on.
type Organization struct {
	ID       string `json:"organizationId"`
	Name     string `json:"organizationName"`
	Country  string `json:"organizationCountry"`
	State    string `json:"state"`
	TimeZone string `json:"timeZone"`
}

// ItemType separates stocked goods from services.
type ItemType string

const (
	ItemGoods   ItemType = "goods"
	ItemService ItemType = "service"
)

// Item is the item master record.
type Item struct {
	ID             uuid.UUID        `json:"id"`
	OrganizationID string           `json:"organizationId"`
	Name           string           `json:"itemName"`
	Type           ItemType         `json:"type"`
	SellingPrice   decimal.Decimal  `json:"sellingPrice"`
	CostPrice      decimal.Decimal  `json:"costPrice"`
	TaxRateName    string           `json:"taxRate"`
	Rates          pricing.TaxRates `json:"rates"`
	Taxable        bool             `json:"taxable"`
	CurrentStock   int64            `json:"currentStock"`
}

// Stocked reports whether sales decrement the item's stock.
func (i Item) Stocked() bool {
	return i.Type != ItemService
}

// PartyKind distinguishes customers from suppliers.
type PartyKind string

const (
	PartyCustomer PartyKind = "customer"
	PartySupplier PartyKind = "supplier"
)

// Party is a customer or supplier together with its ledger account.
type Party struct {
	ID             uuid.UUID                `json:"id"`
	OrganizationID string                   `json:"organizationId"`
	Kind           PartyKind                `json:"kind"`
	DisplayName    string                   `json:"displayName"`
	AccountID      uuid.UUID                `json:"accountId"`
	AccountName    string                   `json:"accountName"`
	TaxType        pricing.RegistrationType `json:"taxType"`
	SourceOfSupply string                   `json:"sourceOfSupply"`
}

// Account returns the party's ledger account.
func (p Party) Account() accounting.AccountRef {
	return accounting.AccountRef{ID: p.AccountID, Name: p.AccountName}
}
