package mappings

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository reads the role table.
type Repository interface {
	List(ctx context.Context, organizationID string) ([]AccountDefault, error)
}

// TxRepository writes role bindings inside a caller's transaction.
type TxRepository interface {
	Upsert(ctx context.Context, rows []AccountDefault) error
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs the pool-backed repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

type txRepository struct {
	tx pgx.Tx
}

// NewTxRepository binds default writes to tx.
func NewTxRepository(tx pgx.Tx) TxRepository {
	return &txRepository{tx: tx}
}

// List returns every role binding of the organization.
func (r *repository) List(ctx context.Context, organizationID string) ([]AccountDefault, error) {
	if organizationID == "" {
		return nil, errors.New("mappings: organization required")
	}
	rows, err := r.db.Query(ctx, `SELECT organization_id, role, account_id, account_name, updated_at
FROM account_defaults WHERE organization_id=$1 ORDER BY role`, organizationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []AccountDefault
	for rows.Next() {
		var d AccountDefault
		var role string
		if err := rows.Scan(&d.OrganizationID, &role, &d.AccountID, &d.AccountName, &d.UpdatedAt); err != nil {
			return nil, err
		}
		d.Role = Role(role)
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *txRepository) Upsert(ctx context.Context, rows []AccountDefault) error {
	if len(rows) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, d := range rows {
		batch.Queue(`INSERT INTO account_defaults (organization_id, role, account_id, account_name, updated_at)
VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (organization_id, role) DO UPDATE SET account_id=EXCLUDED.account_id,
account_name=EXCLUDED.account_name, updated_at=EXCLUDED.updated_at`,
			d.OrganizationID, string(d.Role), d.AccountID, d.AccountName, d.UpdatedAt)
	}
	results := r.tx.SendBatch(ctx, batch)
	defer results.Close()
	for range rows {
		if _, err := results.Exec(); err != nil {
			return err
		}
	}
	return nil
}
