package sales

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-books/internal/documents"
	"github.com/odyssey-erp/odyssey-books/internal/shared"
)

var (
	// ErrInvoiceNotFound indicates no sales invoice with the id exists.
	ErrInvoiceNotFound = fmt.Errorf("sales: invoice not found: %w", shared.ErrNotFound)
	// ErrDepositAccountRequired indicates a paid invoice without a deposit account.
	ErrDepositAccountRequired = fmt.Errorf("%w: select deposit account", shared.ErrValidation)
	// ErrPaidExceedsTotal indicates the amount paid at sale is above the grand total.
	ErrPaidExceedsTotal = fmt.Errorf("%w: paid amount cannot exceed grand total", shared.ErrValidation)
)

const dateLayout = "2006-01-02"

// Invoice is a posted sales invoice. Its figures are the server-computed ones.
type Invoice struct {
	ID                    uuid.UUID  `json:"id"`
	OrganizationID        string     `json:"organizationId"`
	Number                string     `json:"salesInvoice"`
	CustomerID            uuid.UUID  `json:"customerId"`
	CustomerName          string     `json:"customerDisplayName"`
	Reference             string     `json:"reference,omitempty"`
	InvoiceDate           time.Time  `json:"salesInvoiceDate"`
	DueDate               *time.Time `json:"dueDate,omitempty"`
	Note                  string     `json:"note,omitempty"`
	Terms                 string     `json:"termsAndConditions,omitempty"`
	DepositAccountID      *uuid.UUID `json:"depositAccountId,omitempty"`
	FreightAccountID      *uuid.UUID `json:"freightAccountId,omitempty"`
	OtherExpenseAccountID *uuid.UUID `json:"otherExpenseAccountId,omitempty"`
	documents.Summary
	Lines         []documents.Line `json:"items"`
	PaidAmount    decimal.Decimal  `json:"paidAmount"`
	BalanceAmount decimal.Decimal  `json:"balanceAmount"`
	UserID        string           `json:"userId"`
	UserName      string           `json:"userName"`
	CreatedAt     time.Time        `json:"createdDateTime"`
	UpdatedAt     *time.Time       `json:"updatedDateTime,omitempty"`
}

// quantities sums the invoiced quantity per item.
func (inv Invoice) quantities() map[uuid.UUID]int64 {
	out := make(map[uuid.UUID]int64, len(inv.Lines))
	for _, line := range inv.Lines {
		out[line.ItemID] += line.Quantity
	}
	return out
}

// InvoiceInput is the sales invoice submission used for create and update.
type InvoiceInput struct {
	CustomerID            uuid.UUID       `json:"customerId" validate:"required"`
	SalesInvoice          string          `json:"salesInvoice"`
	Reference             string          `json:"reference"`
	InvoiceDate           string          `json:"salesInvoiceDate" validate:"omitempty,datetime=2006-01-02"`
	DueDate               string          `json:"dueDate" validate:"omitempty,datetime=2006-01-02"`
	Note                  string          `json:"note"`
	Terms                 string          `json:"termsAndConditions"`
	PaidAmount            decimal.Decimal `json:"paidAmount"`
	DepositAccountID      *uuid.UUID      `json:"depositAccountId"`
	FreightAccountID      *uuid.UUID      `json:"freightAccountId"`
	OtherExpenseAccountID *uuid.UUID      `json:"otherExpenseAccountId"`
	documents.Body
}

func (in InvoiceInput) dates(now time.Time) (time.Time, *time.Time, error) {
	invoiceDate := now
	if in.InvoiceDate != "" {
		t, err := time.Parse(dateLayout, in.InvoiceDate)
		if err != nil {
			return time.Time{}, nil, fmt.Errorf("%w: invalid salesInvoiceDate", shared.ErrValidation)
		}
		invoiceDate = t
	}
	if in.DueDate == "" {
		return invoiceDate, nil, nil
	}
	due, err := time.Parse(dateLayout, in.DueDate)
	if err != nil {
		return time.Time{}, nil, fmt.Errorf("%w: invalid dueDate", shared.ErrValidation)
	}
	return invoiceDate, &due, nil
}

func (in InvoiceInput) checkPayment() error {
	if in.PaidAmount.IsNegative() {
		return fmt.Errorf("%w: paid amount cannot be negative", shared.ErrValidation)
	}
	if in.PaidAmount.IsPositive() && (in.DepositAccountID == nil || *in.DepositAccountID == uuid.Nil) {
		return ErrDepositAccountRequired
	}
	return nil
}
