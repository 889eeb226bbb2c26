package accounts

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/odyssey-books/internal/shared"
)

// ErrAccountNotFound is returned when a lookup matches no account.
var ErrAccountNotFound = fmt.Errorf("accounts: account not found: %w", shared.ErrNotFound)

// Repository reads the chart of accounts.
type Repository interface {
	List(ctx context.Context, organizationID string) ([]Account, error)
	Get(ctx context.Context, organizationID string, id uuid.UUID) (Account, error)
}

// TxRepository writes accounts inside a caller's transaction.
type TxRepository interface {
	FindByName(ctx context.Context, organizationID, name string) (Account, error)
	Insert(ctx context.Context, account Account) error
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
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

// NewTxRepository binds account writes to tx.
func NewTxRepository(tx pgx.Tx) TxRepository {
	return &txRepository{tx: tx}
}

const selectAccountSQL = `SELECT id, organization_id, account_code, account_name, account_head, account_subhead,
account_group, parent_account_id, system_account, created_by, created_at FROM accounts`

func scanAccount(row pgx.Row) (Account, error) {
	var a Account
	var head string
	err := row.Scan(&a.ID, &a.OrganizationID, &a.Code, &a.Name, &head, &a.SubHead, &a.Group, &a.ParentID, &a.System, &a.CreatedBy, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrAccountNotFound
		}
		return Account{}, err
	}
	a.Head = Head(head)
	return a, nil
}

func listAccounts(ctx context.Context, q querier, organizationID string) ([]Account, error) {
	rows, err := q.Query(ctx, selectAccountSQL+` WHERE organization_id=$1 ORDER BY account_code`, organizationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *repository) List(ctx context.Context, organizationID string) ([]Account, error) {
	return listAccounts(ctx, r.db, organizationID)
}

func (r *repository) Get(ctx context.Context, organizationID string, id uuid.UUID) (Account, error) {
	return scanAccount(r.db.QueryRow(ctx, selectAccountSQL+` WHERE organization_id=$1 AND id=$2`, organizationID, id))
}

func (r *txRepository) FindByName(ctx context.Context, organizationID, name string) (Account, error) {
	return scanAccount(r.tx.QueryRow(ctx, selectAccountSQL+` WHERE organization_id=$1 AND account_name=$2`, organizationID, name))
}

func (r *txRepository) Insert(ctx context.Context, a Account) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO accounts
(id, organization_id, account_code, account_name, account_head, account_subhead, account_group, parent_account_id, system_account, created_by, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		a.ID, a.OrganizationID, a.Code, a.Name, string(a.Head), a.SubHead, a.Group, a.ParentID, a.System, a.CreatedBy, a.CreatedAt)
	if err != nil {
		if shared.IsUniqueViolation(err) {
			return fmt.Errorf("accounts: %s already exists: %w", a.Name, shared.ErrDuplicate)
		}
		return err
	}
	return nil
}
