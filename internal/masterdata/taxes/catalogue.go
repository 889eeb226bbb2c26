package taxes

import (
	"github.com/odyssey-erp/odyssey-books/internal/accounting/accounts"
	"github.com/odyssey-erp/odyssey-books/internal/accounting/mappings"
)

// Parent accounts every provisioned tax account hangs under.
const (
	ParentInputTax  = "Input Tax Credit"
	ParentOutputTax = "Output Tax Credit"
)

// StandingAccount is a catalogue row: the account to create and the role it fills.
type StandingAccount struct {
	Template accounts.Template
	Role     mappings.Role
}

// Catalogue lists the standing accounts per tax type.
type Catalogue map[TaxType][]StandingAccount

func inputAccount(code, name string, role mappings.Role) StandingAccount {
	return StandingAccount{
		Template: accounts.Template{Code: code, Name: name, Head: accounts.HeadAsset, SubHead: "Current Asset", Group: "Asset", ParentName: ParentInputTax},
		Role:     role,
	}
}

func outputAccount(code, name string, role mappings.Role) StandingAccount {
	return StandingAccount{
		Template: accounts.Template{Code: code, Name: name, Head: accounts.HeadLiabilities, SubHead: "Current Liability", Group: "Liability", ParentName: ParentOutputTax},
		Role:     role,
	}
}

// DefaultCatalogue returns a fresh copy of the standard GST and VAT account tables.
func DefaultCatalogue() Catalogue {
	return Catalogue{
		TaxTypeGST: {
			inputAccount("TX-01", "Input SGST", mappings.RoleInputSGST),
			inputAccount("TX-02", "Input CGST", mappings.RoleInputCGST),
			inputAccount("TX-05", "Input IGST", mappings.RoleInputIGST),
			outputAccount("TX-03", "Output SGST", mappings.RoleOutputSGST),
			outputAccount("TX-04", "Output CGST", mappings.RoleOutputCGST),
			outputAccount("TX-06", "Output IGST", mappings.RoleOutputIGST),
		},
		TaxTypeVAT: {
			inputAccount("TX-01", "Input VAT", mappings.RoleInputVAT),
			outputAccount("TX-02", "Output VAT", mappings.RoleOutputVAT),
		},
	}
}
