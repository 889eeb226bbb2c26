package accounting

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-books/internal/shared"
)

// Action labels what kind of business event produced a journal entry.
type Action string

const (
	ActionSale           Action = "Sale"
	ActionReceipt        Action = "Receipt"
	ActionOpeningBalance Action = "Opening Balance"
)

// OpeningBalanceRef is the transaction reference carried by opening balance rows.
const OpeningBalanceRef = "OB"

// JournalEntry is one row of the trial-balance ledger.
type JournalEntry struct {
	ID             int64           `json:"id"`
	OrganizationID string          `json:"organizationId"`
	OperationID    uuid.UUID       `json:"operationId"`
	TransactionID  string          `json:"transactionId"`
	AccountID      uuid.UUID       `json:"accountId"`
	AccountName    string          `json:"accountName,omitempty"`
	Action         Action          `json:"action"`
	Debit          decimal.Decimal `json:"debitAmount"`
	Credit         decimal.Decimal `json:"creditAmount"`
	Remark         string          `json:"remark,omitempty"`
	CreatedAt      time.Time       `json:"createdDateTime"`
}

// PostingLine describes one debit or credit against an account.
type PostingLine struct {
	AccountID   uuid.UUID
	AccountName string
	Debit       decimal.Decimal
	Credit      decimal.Decimal
}

// PostingInput groups the rows posted for a single operation.
type PostingInput struct {
	OrganizationID string
	OperationID    uuid.UUID
	TransactionID  string
	Action         Action
	Remark         string
	Date           time.Time
	Lines          []PostingLine
}

var (
	// ErrUnbalanced indicates debit != credit.
	ErrUnbalanced = errors.New("accounting: journal lines must balance")
	// ErrTooFewLines indicates less than two lines.
	ErrTooFewLines = errors.New("accounting: journal requires at least two lines")
	// ErrOperationNotFound indicates no rows exist for an operation.
	ErrOperationNotFound = fmt.Errorf("accounting: operation has no journal entries: %w", shared.ErrNotFound)
	// ErrMappingNotFound indicates an account default is missing.
	ErrMappingNotFound = fmt.Errorf("accounting: default account not configured: %w", shared.ErrValidation)
)

// IsOpeningBalance reports whether the input is an opening balance posting.
func (in PostingInput) IsOpeningBalance() bool {
	return in.Action == ActionOpeningBalance
}

// Totals returns the summed debit and credit of the input.
func (in PostingInput) Totals() (debit, credit decimal.Decimal) {
	for _, line := range in.Lines {
		debit = debit.Add(line.Debit)
		credit = credit.Add(line.Credit)
	}
	return debit, credit
}

// Validate enforces the double-entry invariants: at most one side per row,
// no negative amounts and Σdebit = Σcredit. Opening balance rows may be 0/0.
func (in PostingInput) Validate() error {
	if in.OrganizationID == "" {
		return errors.New("accounting: organization required")
	}
	if in.OperationID == uuid.Nil {
		return errors.New("accounting: operation id required")
	}
	if in.Action == "" {
		return errors.New("accounting: action required")
	}
	opening := in.IsOpeningBalance()
	if len(in.Lines) == 0 || (!opening && len(in.Lines) < 2) {
		return ErrTooFewLines
	}
	for idx, line := range in.Lines {
		if line.AccountID == uuid.Nil {
			return fmt.Errorf("accounting: line %d missing account", idx)
		}
		if line.Debit.IsNegative() || line.Credit.IsNegative() {
			return fmt.Errorf("accounting: line %d negative amount", idx)
		}
		if !line.Debit.IsZero() && !line.Credit.IsZero() {
			return fmt.Errorf("accounting: line %d cannot be both debit and credit", idx)
		}
		if line.Debit.IsZero() && line.Credit.IsZero() && !opening {
			return fmt.Errorf("accounting: line %d has no amount", idx)
		}
	}
	debit, credit := in.Totals()
	if !debit.Round(2).Equal(credit.Round(2)) {
		return fmt.Errorf("%w: debit %s credit %s", ErrUnbalanced, debit.StringFixed(2), credit.StringFixed(2))
	}
	return nil
}

func toEntries(in PostingInput, at time.Time) []JournalEntry {
	if !in.Date.IsZero() {
		at = in.Date
	}
	entries := make([]JournalEntry, 0, len(in.Lines))
	for _, line := range in.Lines {
		entries = append(entries, JournalEntry{
			OrganizationID: in.OrganizationID,
			OperationID:    in.OperationID,
			TransactionID:  in.TransactionID,
			AccountID:      line.AccountID,
			AccountName:    line.AccountName,
			Action:         in.Action,
			Debit:          line.Debit.Round(2),
			Credit:         line.Credit.Round(2),
			Remark:         in.Remark,
			CreatedAt:      at,
		})
	}
	return entries
}
