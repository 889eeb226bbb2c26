package taxes

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/odyssey-erp/odyssey-books/internal/accounting"
	"github.com/odyssey-erp/odyssey-books/internal/accounting/accounts"
	"github.com/odyssey-erp/odyssey-books/internal/accounting/mappings"
)

// ProvisionTx is the transactional surface the provisioner writes through.
type ProvisionTx interface {
	Accounts() accounts.TxRepository
	Defaults() mappings.TxRepository
	Ledger() accounting.TxRepository
}

// Provisioner creates the standing tax accounts of a newly activated tax type.
// Callers must run it at most once per organization and tax type.
type Provisioner struct {
	catalogue Catalogue
	poster    *accounting.Poster
	logger    *slog.Logger
	now       func() time.Time
}

// NewProvisioner builds a provisioner over catalogue.
func NewProvisioner(catalogue Catalogue, poster *accounting.Poster, logger *slog.Logger) *Provisioner {
	if logger == nil {
		logger = slog.Default()
	}
	if poster == nil {
		poster = accounting.NewPoster(logger, nil)
	}
	return &Provisioner{catalogue: catalogue, poster: poster, logger: logger, now: time.Now}
}

// Provision creates the accounts, gives each a 0/0 opening balance row and
// binds them as organization defaults.
func (p *Provisioner) Provision(ctx context.Context, tx ProvisionTx, organizationID, userID string, taxType TaxType) ([]accounts.Account, error) {
	rows, ok := p.catalogue[taxType]
	if !ok || len(rows) == 0 {
		return nil, fmt.Errorf("taxes: no account catalogue for %s", taxType)
	}
	at := p.now()
	templates := make([]accounts.Template, 0, len(rows))
	for _, row := range rows {
		templates = append(templates, row.Template)
	}
	created, err := accounts.CreateSystemAccounts(ctx, tx.Accounts(), organizationID, userID, templates, at)
	if err != nil {
		return nil, err
	}

	defaults := make([]mappings.AccountDefault, 0, len(created))
	for i, acc := range created {
		ref := accounting.AccountRef{ID: acc.ID, Name: acc.Name}
		if _, err := p.poster.Post(ctx, tx.Ledger(), accounting.OpeningBalance(organizationID, ref, at)); err != nil {
			return nil, fmt.Errorf("taxes: opening balance for %s: %w", acc.Name, err)
		}
		defaults = append(defaults, mappings.AccountDefault{
			OrganizationID: organizationID,
			Role:           rows[i].Role,
			AccountID:      acc.ID,
			AccountName:    acc.Name,
			UpdatedAt:      at,
		})
	}
	if err := tx.Defaults().Upsert(ctx, defaults); err != nil {
		return nil, err
	}
	p.logger.Info("tax accounts provisioned",
		slog.String("organization_id", organizationID),
		slog.String("tax_type", string(taxType)),
		slog.Int("accounts", len(created)))
	return created, nil
}
