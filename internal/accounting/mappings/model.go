package mappings

import (
	"time"

	"github.com/google/uuid"

	"github.com/odyssey-erp/odyssey-books/internal/accounting"
	"github.com/odyssey-erp/odyssey-books/internal/pricing"
)

// Role names a posting purpose bound to a default ledger account.
type Role string

const (
	RoleSales        Role = "sales"
	RoleRoundOff     Role = "round_off"
	RoleFreight      Role = "freight"
	RoleOtherExpense Role = "other_expense"
	RoleOutputCGST   Role = "output_cgst"
	RoleOutputSGST   Role = "output_sgst"
	RoleOutputIGST   Role = "output_igst"
	RoleOutputVAT    Role = "output_vat"
	RoleInputCGST    Role = "input_cgst"
	RoleInputSGST    Role = "input_sgst"
	RoleInputIGST    Role = "input_igst"
	RoleInputVAT     Role = "input_vat"
)

// OutputRole returns the output tax role for a column.
func OutputRole(col pricing.TaxColumn) Role {
	switch col {
	case pricing.ColumnCGST:
		return RoleOutputCGST
	case pricing.ColumnSGST:
		return RoleOutputSGST
	case pricing.ColumnIGST:
		return RoleOutputIGST
	case pricing.ColumnVAT:
		return RoleOutputVAT
	default:
		panic("mappings: unknown tax column " + string(col))
	}
}

// AccountDefault links a role to a ledger account for one organization.
type AccountDefault struct {
	OrganizationID string    `json:"organizationId"`
	Role           Role      `json:"role"`
	AccountID      uuid.UUID `json:"accountId"`
	AccountName    string    `json:"accountName"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Defaults is the role table of one organization.
type Defaults map[Role]accounting.AccountRef

// NewDefaults indexes rows by role.
func NewDefaults(rows []AccountDefault) Defaults {
	d := make(Defaults, len(rows))
	for _, row := range rows {
		d[row.Role] = accounting.AccountRef{ID: row.AccountID, Name: row.AccountName}
	}
	return d
}

// Lookup returns the account bound to role.
func (d Defaults) Lookup(role Role) (accounting.AccountRef, bool) {
	ref, ok := d[role]
	return ref, ok && ref.ID != uuid.Nil
}

// Optional returns a pointer to the account bound to role, or nil.
func (d Defaults) Optional(role Role) *accounting.AccountRef {
	ref, ok := d.Lookup(role)
	if !ok {
		return nil
	}
	return &ref
}

// SalesAccounts assembles the accounts a sales journal needs. Customer and
// deposit accounts come from the document; everything else from the defaults.
func (d Defaults) SalesAccounts(customer accounting.AccountRef, deposit *accounting.AccountRef) (accounting.SalesAccounts, error) {
	sales, ok := d.Lookup(RoleSales)
	if !ok {
		return accounting.SalesAccounts{}, accounting.ErrMappingNotFound
	}
	out := accounting.SalesAccounts{
		Customer:     customer,
		Sales:        sales,
		OutputTax:    make(map[pricing.TaxColumn]accounting.AccountRef),
		Freight:      d.Optional(RoleFreight),
		OtherExpense: d.Optional(RoleOtherExpense),
		RoundOff:     d.Optional(RoleRoundOff),
		Deposit:      deposit,
	}
	for _, col := range pricing.AllColumns {
		if ref, ok := d.Lookup(OutputRole(col)); ok {
			out.OutputTax[col] = ref
		}
	}
	return out, nil
}
