package reports

import (
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountBalance models a ledger account with aggregated postings.
type AccountBalance struct {
	AccountID uuid.UUID
	Code      string
	Name      string
	Head      string
	Debit     decimal.Decimal
	Credit    decimal.Decimal
}

// Closing computes the debit-positive closing balance for the account.
func (a AccountBalance) Closing() decimal.Decimal {
	return a.Debit.Sub(a.Credit)
}

// GroupKey returns the key used for grouping trial balance rows.
func (a AccountBalance) GroupKey() string {
	if a.Head == "" {
		return "Other"
	}
	return a.Head
}

// TrialBalanceAccount represents a row inside a trial balance group.
type TrialBalanceAccount struct {
	AccountID uuid.UUID       `json:"accountId"`
	Code      string          `json:"accountCode"`
	Name      string          `json:"accountName"`
	Debit     decimal.Decimal `json:"debit"`
	Credit    decimal.Decimal `json:"credit"`
	Closing   decimal.Decimal `json:"closing"`
}

// TrialBalanceGroup aggregates accounts under one account head.
type TrialBalanceGroup struct {
	Key      string                `json:"head"`
	Accounts []TrialBalanceAccount `json:"accounts"`
	Debit    decimal.Decimal       `json:"debit"`
	Credit   decimal.Decimal       `json:"credit"`
	Closing  decimal.Decimal       `json:"closing"`
}

// TrialBalance is the final structure returned to clients.
type TrialBalance struct {
	Groups      []TrialBalanceGroup `json:"groups"`
	TotalDebit  decimal.Decimal     `json:"totalDebit"`
	TotalCredit decimal.Decimal     `json:"totalCredit"`
}

// Balanced reports whether total debits equal total credits.
func (tb TrialBalance) Balanced() bool {
	return tb.TotalDebit.Equal(tb.TotalCredit)
}

// BuildTrialBalance converts account balances into grouped trial balance data.
func BuildTrialBalance(accounts []AccountBalance) TrialBalance {
	groups := make(map[string]*TrialBalanceGroup)
	keys := make([]string, 0)
	for _, acc := range accounts {
		key := acc.GroupKey()
		grp, ok := groups[key]
		if !ok {
			grp = &TrialBalanceGroup{Key: key}
			groups[key] = grp
			keys = append(keys, key)
		}
		row := TrialBalanceAccount{
			AccountID: acc.AccountID,
			Code:      acc.Code,
			Name:      acc.Name,
			Debit:     acc.Debit,
			Credit:    acc.Credit,
			Closing:   acc.Closing(),
		}
		grp.Accounts = append(grp.Accounts, row)
		grp.Debit = grp.Debit.Add(row.Debit)
		grp.Credit = grp.Credit.Add(row.Credit)
		grp.Closing = grp.Closing.Add(row.Closing)
	}

	sort.Strings(keys)
	result := TrialBalance{}
	for _, key := range keys {
		grp := groups[key]
		sort.Slice(grp.Accounts, func(i, j int) bool {
			if grp.Accounts[i].Code == grp.Accounts[j].Code {
				return grp.Accounts[i].Name < grp.Accounts[j].Name
			}
			return grp.Accounts[i].Code < grp.Accounts[j].Code
		})
		result.Groups = append(result.Groups, *grp)
		result.TotalDebit = result.TotalDebit.Add(grp.Debit)
		result.TotalCredit = result.TotalCredit.Add(grp.Credit)
	}
	return result
}

// OperationTotal sums the rows of one posted operation.
type OperationTotal struct {
	OrganizationID string          `json:"organizationId"`
	OperationID    uuid.UUID       `json:"operationId"`
	TransactionID  string          `json:"transactionId"`
	Debit          decimal.Decimal `json:"debit"`
	Credit         decimal.Decimal `json:"credit"`
}

// Difference is debit minus credit.
func (o OperationTotal) Difference() decimal.Decimal {
	return o.Debit.Sub(o.Credit)
}

// Unbalanced filters operations whose debits and credits differ.
func Unbalanced(totals []OperationTotal) []OperationTotal {
	var out []OperationTotal
	for _, t := range totals {
		if !t.Difference().IsZero() {
			out = append(out, t)
		}
	}
	return out
}
