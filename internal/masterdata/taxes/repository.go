package taxes

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/odyssey-books/internal/accounting"
	"github.com/odyssey-erp/odyssey-books/internal/accounting/accounts"
	"github.com/odyssey-erp/odyssey-books/internal/accounting/mappings"
	"github.com/odyssey-erp/odyssey-books/internal/masterdata"
	"github.com/odyssey-erp/odyssey-books/internal/platform/db"
)

// Repository persists tax records.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, organizationID string) (Record, error)
}

// TxRepository is the transactional surface of tax setup.
type TxRepository interface {
	ProvisionTx
	Items() masterdata.TxWriter
	LockRecord(ctx context.Context, organizationID string) (Record, error)
	SaveRecord(ctx context.Context, rec Record) error
	InsertRate(ctx context.Context, organizationID string, rate Rate) error
	UpdateRate(ctx context.Context, organizationID string, rate Rate) error
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the pool-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil || r.pool == nil {
		return errors.New("taxes repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

func (r *repository) Get(ctx context.Context, organizationID string) (Record, error) {
	return loadRecord(ctx, r.pool, organizationID, "")
}

func loadRecord(ctx context.Context, q querier, organizationID, lock string) (Record, error) {
	rec := Record{OrganizationID: organizationID}
	var taxType string
	err := q.QueryRow(ctx, `SELECT tax_type, registration_number, business_legal_name, business_trade_name, updated_at
FROM tax_records WHERE organization_id=$1`+lock, organizationID).
		Scan(&taxType, &rec.RegistrationNumber, &rec.BusinessLegalName, &rec.BusinessTradeName, &rec.UpdatedAt)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return Record{}, err
	}
	rec.TaxType = TaxType(taxType)

	rows, err := q.Query(ctx, `SELECT id, tax_type, tax_name, tax_rate, cgst, sgst, igst, vat
FROM tax_rates WHERE organization_id=$1 ORDER BY tax_type, tax_name`, organizationID)
	if err != nil {
		return Record{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var rate Rate
		var rateType string
		if err := rows.Scan(&rate.ID, &rateType, &rate.Name, &rate.Rate, &rate.CGST, &rate.SGST, &rate.IGST, &rate.VAT); err != nil {
			return Record{}, err
		}
		rate.TaxType = TaxType(rateType)
		rec.Rates = append(rec.Rates, rate)
	}
	return rec, rows.Err()
}

type txRepository struct {
	tx pgx.Tx
}

func (t *txRepository) Accounts() accounts.TxRepository { return accounts.NewTxRepository(t.tx) }
func (t *txRepository) Defaults() mappings.TxRepository { return mappings.NewTxRepository(t.tx) }
func (t *txRepository) Ledger() accounting.TxRepository { return accounting.NewTxRepository(t.tx) }
func (t *txRepository) Items() masterdata.TxWriter { return masterdata.NewTxRepository(t.tx) }

// LockRecord returns the organization's record locked for update, creating an empty one first if needed.
func (t *txRepository) LockRecord(ctx context.Context, organizationID string) (Record, error) {
	if _, err := t.tx.Exec(ctx, `INSERT INTO tax_records (organization_id, tax_type, registration_number, business_legal_name, business_trade_name, updated_at)
VALUES ($1,'','','','',NOW()) ON CONFLICT (organization_id) DO NOTHING`, organizationID); err != nil {
		return Record{}, err
	}
	return loadRecord(ctx, t.tx, organizationID, " FOR UPDATE")
}

func (t *txRepository) SaveRecord(ctx context.Context, rec Record) error {
	_, err := t.tx.Exec(ctx, `UPDATE tax_records SET tax_type=$2, registration_number=$3, business_legal_name=$4,
business_trade_name=$5, updated_at=$6 WHERE organization_id=$1`,
		rec.OrganizationID, string(rec.TaxType), rec.RegistrationNumber, rec.BusinessLegalName, rec.BusinessTradeName, rec.UpdatedAt)
	return err
}

func (t *txRepository) InsertRate(ctx context.Context, organizationID string, rate Rate) error {
	_, err := t.tx.Exec(ctx, `INSERT INTO tax_rates (id, organization_id, tax_type, tax_name, tax_rate, cgst, sgst, igst, vat)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		rate.ID, organizationID, string(rate.TaxType), rate.Name, rate.Rate, rate.CGST, rate.SGST, rate.IGST, rate.VAT)
	return err
}

func (t *txRepository) UpdateRate(ctx context.Context, organizationID string, rate Rate) error {
	_, err := t.tx.Exec(ctx, `UPDATE tax_rates SET tax_name=$3, tax_rate=$4, cgst=$5, sgst=$6, igst=$7, vat=$8
WHERE organization_id=$1 AND id=$2`,
		organizationID, rate.ID, rate.Name, rate.Rate, rate.CGST, rate.SGST, rate.IGST, rate.VAT)
	return err
}
