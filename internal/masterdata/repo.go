package masterdata

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/odyssey-books/internal/pricing"
)

// Reader loads master records for document validation.
type Reader interface {
	Organization(ctx context.Context, organizationID string) (Organization, error)
	Items(ctx context.Context, organizationID string, ids []uuid.UUID) ([]Item, error)
	Party(ctx context.Context, organizationID string, kind PartyKind, id uuid.UUID) (Party, error)
}

// TxWriter updates master records inside a document transaction.
type TxWriter interface {
	AdjustStock(ctx context.Context, organizationID string, itemID uuid.UUID, delta int64) error
	ApplyTaxRate(ctx context.Context, organizationID, previousName, newName string, rates pricing.TaxRates) (int64, error)
}

type repo struct {
	db *pgxpool.Pool
}

// NewRepository creates the pool-backed reader.
func NewRepository(db *pgxpool.Pool) Reader {
	return &repo{db: db}
}

type txRepo struct {
	tx pgx.Tx
}

// NewTxRepository binds master data writes to tx.
func NewTxRepository(tx pgx.Tx) TxWriter {
	return &txRepo{tx: tx}
}

func (r *repo) Organization(ctx context.Context, organizationID string) (Organization, error) {
	var o Organization
	err := r.db.QueryRow(ctx, `SELECT organization_id, organization_name, organization_country, state, time_zone
FROM organizations WHERE organization_id=$1`, organizationID).Scan(&o.ID, &o.Name, &o.Country, &o.State, &o.TimeZone)
	if errors.Is(err, pgx.ErrNoRows) {
		return Organization{}, ErrOrganizationNotFound
	}
	return o, err
}

func (r *repo) Items(ctx context.Context, organizationID string, ids []uuid.UUID) ([]Item, error) {
	rows, err := r.db.Query(ctx, `SELECT id, organization_id, item_name, item_type, selling_price, cost_price, tax_rate,
cgst, sgst, igst, vat, tax_preference = 'Taxable', current_stock
FROM items WHERE organization_id=$1 AND id = ANY($2)`, organizationID, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Item
	for rows.Next() {
		var it Item
		var kind string
		if err := rows.Scan(&it.ID, &it.OrganizationID, &it.Name, &kind, &it.SellingPrice, &it.CostPrice, &it.TaxRateName,
			&it.Rates.CGST, &it.Rates.SGST, &it.Rates.IGST, &it.Rates.VAT, &it.Taxable, &it.CurrentStock); err != nil {
			return nil, err
		}
		it.Type = ItemType(kind)
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *repo) Party(ctx context.Context, organizationID string, kind PartyKind, id uuid.UUID) (Party, error) {
	var p Party
	var taxType, partyKind string
	err := r.db.QueryRow(ctx, `SELECT p.id, p.organization_id, p.kind, p.display_name, p.account_id, a.account_name,
p.tax_type, p.source_of_supply
FROM parties p JOIN accounts a ON a.id = p.account_id
WHERE p.organization_id=$1 AND p.kind=$2 AND p.id=$3`, organizationID, string(kind), id).
		Scan(&p.ID, &p.OrganizationID, &partyKind, &p.DisplayName, &p.AccountID, &p.AccountName, &taxType, &p.SourceOfSupply)
	if errors.Is(err, pgx.ErrNoRows) {
		if kind == PartySupplier {
			return Party{}, ErrSupplierNotFound
		}
		return Party{}, ErrCustomerNotFound
	}
	if err != nil {
		return Party{}, err
	}
	p.Kind = PartyKind(partyKind)
	p.TaxType = pricing.ParseRegistrationType(taxType)
	return p, nil
}

func (r *txRepo) AdjustStock(ctx context.Context, organizationID string, itemID uuid.UUID, delta int64) error {
	_, err := r.tx.Exec(ctx, `UPDATE items SET current_stock = current_stock + $3
WHERE organization_id=$1 AND id=$2 AND item_type <> 'service'`,
		organizationID, itemID, delta)
	return err
}

func (r *txRepo) ApplyTaxRate(ctx context.Context, organizationID, previousName, newName string, rates pricing.TaxRates) (int64, error) {
	tag, err := r.tx.Exec(ctx, `UPDATE items SET tax_rate=$3, cgst=$4, sgst=$5, igst=$6, vat=$7
WHERE organization_id=$1 AND tax_rate=$2`, organizationID, previousName, newName, rates.CGST, rates.SGST, rates.IGST, rates.VAT)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
