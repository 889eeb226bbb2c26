package accounting

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-books/internal/pricing"
)

// AccountRef identifies a ledger account together with its display name.
type AccountRef struct {
	ID   uuid.UUID
	Name string
}

// Set reports whether the reference points at an account.
func (a *AccountRef) Set() bool {
	return a != nil && a.ID != uuid.Nil
}

// SalesAccounts lists the accounts touched by a sales journal.
type SalesAccounts struct {
	Customer     AccountRef
	Sales        AccountRef
	OutputTax    map[pricing.TaxColumn]AccountRef
	Freight      *AccountRef
	OtherExpense *AccountRef
	RoundOff     *AccountRef
	Deposit      *AccountRef
}

// SalesJournalInput describes a finalized sales invoice.
type SalesJournalInput struct {
	OrganizationID string
	OperationID    uuid.UUID
	TransactionID  string
	Remark         string
	Date           time.Time
	Totals         pricing.Totals
	PaidAmount     decimal.Decimal
	Accounts       SalesAccounts
}

// SalesJournal builds the balanced posting for a sales invoice.
//
//	Dr customer      grand total
//	Cr sales         subtotal - item discount - transaction discount
//	Cr output tax    per column
//	Cr freight / other expense
//	Dr round off (Cr when the total was rounded up)
//	Dr deposit, Cr customer   amount paid at sale
//
// A negative amount is posted on the opposite side so the entry stays balanced.
func SalesJournal(in SalesJournalInput) (PostingInput, error) {
	t := in.Totals
	acc := in.Accounts
	var lines []PostingLine
	post := func(ref AccountRef, amount decimal.Decimal, isDebit bool) {
		if amount.IsZero() {
			return
		}
		if amount.IsNegative() {
			amount, isDebit = amount.Neg(), !isDebit
		}
		line := PostingLine{AccountID: ref.ID, AccountName: ref.Name}
		if isDebit {
			line.Debit = amount
		} else {
			line.Credit = amount
		}
		lines = append(lines, line)
	}
	debit := func(ref AccountRef, amount decimal.Decimal) { post(ref, amount, true) }
	credit := func(ref AccountRef, amount decimal.Decimal) { post(ref, amount, false) }

	debit(acc.Customer, t.GrandTotal)
	credit(acc.Sales, t.NetSales())
	for _, col := range pricing.AllColumns {
		amount := t.Taxes.Column(col)
		if amount.IsZero() {
			continue
		}
		ref, ok := acc.OutputTax[col]
		if !ok || ref.ID == uuid.Nil {
			return PostingInput{}, fmt.Errorf("%w: output %s", ErrMappingNotFound, col)
		}
		credit(ref, amount)
	}
	if !t.Freight.IsZero() {
		if !acc.Freight.Set() {
			return PostingInput{}, fmt.Errorf("%w: freight", ErrMappingNotFound)
		}
		credit(*acc.Freight, t.Freight)
	}
	if !t.OtherExpense.IsZero() {
		if !acc.OtherExpense.Set() {
			return PostingInput{}, fmt.Errorf("%w: other expense", ErrMappingNotFound)
		}
		credit(*acc.OtherExpense, t.OtherExpense)
	}
	if !t.RoundOff.IsZero() {
		if !acc.RoundOff.Set() {
			return PostingInput{}, fmt.Errorf("%w: round off", ErrMappingNotFound)
		}
		debit(*acc.RoundOff, t.RoundOff)
	}
	if in.PaidAmount.IsPositive() {
		if !acc.Deposit.Set() {
			return PostingInput{}, fmt.Errorf("%w: deposit", ErrMappingNotFound)
		}
		debit(*acc.Deposit, in.PaidAmount)
		credit(acc.Customer, in.PaidAmount)
	}

	return PostingInput{
		OrganizationID: in.OrganizationID,
		OperationID:    in.OperationID,
		TransactionID:  in.TransactionID,
		Action:         ActionSale,
		Remark:         in.Remark,
		Date:           in.Date,
		Lines:          lines,
	}, nil
}

// ReceiptJournalInput describes a customer payment receipt.
type ReceiptJournalInput struct {
	OrganizationID string
	OperationID    uuid.UUID
	TransactionID  string
	Remark         string
	Date           time.Time
	Amount         decimal.Decimal
	Customer       AccountRef
	Deposit        AccountRef
}

// ReceiptJournal debits the deposit account and credits the customer by the amount received.
func ReceiptJournal(in ReceiptJournalInput) PostingInput {
	return PostingInput{
		OrganizationID: in.OrganizationID,
		OperationID:    in.OperationID,
		TransactionID:  in.TransactionID,
		Action:         ActionReceipt,
		Remark:         in.Remark,
		Date:           in.Date,
		Lines: []PostingLine{
			{AccountID: in.Customer.ID, AccountName: in.Customer.Name, Credit: in.Amount},
			{AccountID: in.Deposit.ID, AccountName: in.Deposit.Name, Debit: in.Amount},
		},
	}
}

// OpeningBalance is the 0/0 row that registers a freshly created account in the ledger.
func OpeningBalance(organizationID string, account AccountRef, at time.Time) PostingInput {
	return PostingInput{
		OrganizationID: organizationID,
		OperationID:    account.ID,
		TransactionID:  OpeningBalanceRef,
		Action:         ActionOpeningBalance,
		Remark:         string(ActionOpeningBalance),
		Date:           at,
		Lines: []PostingLine{
			{AccountID: account.ID, AccountName: account.Name},
		},
	}
}
