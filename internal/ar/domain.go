package ar

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-books/internal/shared"
)

var (
	// ErrReceiptNotFound indicates no receipt with the id exists.
	ErrReceiptNotFound = fmt.Errorf("ar: receipt not found: %w", shared.ErrNotFound)
	// ErrDuplicateInvoice indicates one receipt pays the same invoice twice.
	ErrDuplicateInvoice = fmt.Errorf("%w: duplicate invoice found", shared.ErrValidation)
	// ErrNoInvoice indicates every payment line was empty.
	ErrNoInvoice = fmt.Errorf("%w: select an invoice", shared.ErrValidation)
	// ErrDepositAccountNotFound indicates the deposit account is missing or not an asset.
	ErrDepositAccountNotFound = fmt.Errorf("ar: deposit account not found: %w", shared.ErrNotFound)
)

const dateLayout = "2006-01-02"

// OpenInvoice is the receivable state of a sales invoice.
type OpenInvoice struct {
	ID            uuid.UUID
	CustomerID    uuid.UUID
	Number        string
	InvoiceDate   time.Time
	DueDate       *time.Time
	GrandTotal    decimal.Decimal
	PaidAmount    decimal.Decimal
	BalanceAmount decimal.Decimal
}

// Due returns the date the invoice falls due. Invoices without a due date are
// due on issue.
func (o OpenInvoice) Due() time.Time {
	if o.DueDate != nil {
		return *o.DueDate
	}
	return o.InvoiceDate
}

// Pay applies amount and returns the new paid and balance figures. Paid never
// exceeds the total and balance never drops below zero.
func (o OpenInvoice) Pay(amount decimal.Decimal) (paid, balance decimal.Decimal) {
	paid = o.PaidAmount.Add(amount)
	if paid.GreaterThan(o.GrandTotal) {
		paid = o.GrandTotal
	}
	balance = o.GrandTotal.Sub(paid)
	if balance.IsNegative() {
		balance = decimal.Zero
	}
	return paid, balance
}

// PaymentLine is one invoice settled by a receipt, as the client saw it.
type PaymentLine struct {
	InvoiceID        uuid.UUID       `json:"invoiceId" validate:"required"`
	SalesInvoice     string          `json:"salesInvoice"`
	SalesInvoiceDate string          `json:"salesInvoiceDate"`
	DueDate          string          `json:"dueDate"`
	TotalAmount      decimal.Decimal `json:"totalAmount"`
	BalanceAmount    decimal.Decimal `json:"balanceAmount"`
	PaymentAmount    decimal.Decimal `json:"paymentAmount"`
}

// ReceiptInput is the receipt submission.
type ReceiptInput struct {
	CustomerID            uuid.UUID       `json:"customerId" validate:"required"`
	PaymentMode           string          `json:"paymentMode" validate:"required"`
	PaymentDate           string          `json:"paymentDate" validate:"required,datetime=2006-01-02"`
	DepositAccountID      uuid.UUID       `json:"depositAccountId" validate:"required"`
	Reference             string          `json:"reference"`
	Note                  string          `json:"note"`
	AmountReceived        decimal.Decimal `json:"amountReceived"`
	AmountUsedForPayments decimal.Decimal `json:"amountUsedForPayments"`
	Invoices              []PaymentLine   `json:"invoice" validate:"dive"`
}

// Receipt is a stored customer payment.
type Receipt struct {
	ID                    uuid.UUID       `json:"id"`
	OrganizationID        string          `json:"organizationId"`
	Number                string          `json:"receipt"`
	CustomerID            uuid.UUID       `json:"customerId"`
	CustomerName          string          `json:"customerDisplayName"`
	PaymentMode           string          `json:"paymentMode"`
	PaymentDate           time.Time       `json:"paymentDate"`
	DepositAccountID      uuid.UUID       `json:"depositAccountId"`
	Reference             string          `json:"reference,omitempty"`
	Note                  string          `json:"note,omitempty"`
	Invoices              []PaymentLine   `json:"invoice"`
	AmountReceived        decimal.Decimal `json:"amountReceived"`
	AmountUsedForPayments decimal.Decimal `json:"amountUsedForPayments"`
	Total                 decimal.Decimal `json:"total"`
	UserID                string          `json:"userId"`
	UserName              string          `json:"userName"`
	CreatedAt             time.Time       `json:"createdDateTime"`
}

// AgingBucket groups outstanding balances by days past due.
type AgingBucket struct {
	Current   decimal.Decimal `json:"current"`
	Bucket30  decimal.Decimal `json:"days1To30"`
	Bucket60  decimal.Decimal `json:"days31To60"`
	Bucket90  decimal.Decimal `json:"days61To90"`
	Bucket120 decimal.Decimal `json:"over90"`
}

// Total sums every bucket.
func (b AgingBucket) Total() decimal.Decimal {
	return b.Current.Add(b.Bucket30).Add(b.Bucket60).Add(b.Bucket90).Add(b.Bucket120)
}
