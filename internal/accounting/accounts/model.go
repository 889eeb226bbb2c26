package accounts

import (
	"time"

	"github.com/google/uuid"
)

// Head is the top-level classification of an account.
type Head string

const (
	HeadAsset       Head = "Asset"
	HeadLiabilities Head = "Liabilities"
	HeadEquity      Head = "Equity"
	HeadIncome      Head = "Income"
	HeadExpense     Head = "Expense"
)

// Account models a chart of accounts node.
type Account struct {
	ID             uuid.UUID  `json:"id"`
	OrganizationID string     `json:"organizationId"`
	Code           string     `json:"accountCode"`
	Name           string     `json:"accountName"`
	Head           Head       `json:"accountHead"`
	SubHead        string     `json:"accountSubhead"`
	Group          string     `json:"accountGroup"`
	ParentID       *uuid.UUID `json:"parentAccountId,omitempty"`
	System         bool       `json:"systemAccount"`
	CreatedBy      string     `json:"createdBy,omitempty"`
	CreatedAt      time.Time  `json:"createdDateTime"`
}

// Template describes an account to be created from a fixed catalogue.
type Template struct {
	Code       string
	Name       string
	Head       Head
	SubHead    string
	Group      string
	ParentName string
}
