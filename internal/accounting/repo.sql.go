package accounting

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/odyssey-books/internal/accounting/reports"
	"github.com/odyssey-erp/odyssey-books/internal/platform/db"
)

// Repository persists ledger rows.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type txRepository struct {
	tx pgx.Tx
}

// NewTxRepository binds the ledger to an already open transaction.
func NewTxRepository(tx pgx.Tx) TxRepository {
	return &txRepository{tx: tx}
}

// WithTx executes fn within a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil || r.pool == nil {
		return errors.New("accounting repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

const insertEntrySQL = `INSERT INTO trial_balance
(organization_id, operation_id, transaction_id, account_id, account_name, action, debit_amount, credit_amount, remark, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`

func (r *txRepository) InsertEntries(ctx context.Context, entries []JournalEntry) error {
	if len(entries) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, e := range entries {
		batch.Queue(insertEntrySQL, e.OrganizationID, e.OperationID, e.TransactionID, e.AccountID, e.AccountName,
			string(e.Action), e.Debit, e.Credit, e.Remark, e.CreatedAt)
	}
	results := r.tx.SendBatch(ctx, batch)
	defer results.Close()
	for i := range entries {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("accounting: insert entry %d: %w", i, err)
		}
	}
	return nil
}

func (r *txRepository) DeleteOperation(ctx context.Context, organizationID string, operationID uuid.UUID) (int64, error) {
	tag, err := r.tx.Exec(ctx, `DELETE FROM trial_balance WHERE organization_id=$1 AND operation_id=$2`, organizationID, operationID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// ListOperation returns the rows posted for an operation in insertion order.
func (r *Repository) ListOperation(ctx context.Context, organizationID string, operationID uuid.UUID) ([]JournalEntry, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, organization_id, operation_id, transaction_id, account_id, account_name, action,
debit_amount, credit_amount, remark, created_at
FROM trial_balance WHERE organization_id=$1 AND operation_id=$2 ORDER BY id`, organizationID, operationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []JournalEntry
	for rows.Next() {
		var e JournalEntry
		var action string
		if err := rows.Scan(&e.ID, &e.OrganizationID, &e.OperationID, &e.TransactionID, &e.AccountID, &e.AccountName, &action,
			&e.Debit, &e.Credit, &e.Remark, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Action = Action(action)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// AccountBalances sums debit and credit per account of the organization.
func (r *Repository) AccountBalances(ctx context.Context, organizationID string) ([]reports.AccountBalance, error) {
	rows, err := r.pool.Query(ctx, `SELECT a.id, a.account_code, a.account_name, a.account_head,
COALESCE(SUM(t.debit_amount),0), COALESCE(SUM(t.credit_amount),0)
FROM accounts a
LEFT JOIN trial_balance t ON t.account_id = a.id AND t.organization_id = a.organization_id
WHERE a.organization_id=$1
GROUP BY a.id, a.account_code, a.account_name, a.account_head
ORDER BY a.account_code`, organizationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var balances []reports.AccountBalance
	for rows.Next() {
		var b reports.AccountBalance
		if err := rows.Scan(&b.AccountID, &b.Code, &b.Name, &b.Head, &b.Debit, &b.Credit); err != nil {
			return nil, err
		}
		balances = append(balances, b)
	}
	return balances, rows.Err()
}

// OperationTotals sums every operation. An empty organization covers all organizations.
func (r *Repository) OperationTotals(ctx context.Context, organizationID string) ([]reports.OperationTotal, error) {
	rows, err := r.pool.Query(ctx, `SELECT organization_id, operation_id, MIN(transaction_id),
SUM(debit_amount), SUM(credit_amount)
FROM trial_balance
WHERE $1 = '' OR organization_id = $1
GROUP BY organization_id, operation_id`, organizationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var totals []reports.OperationTotal
	for rows.Next() {
		var t reports.OperationTotal
		if err := rows.Scan(&t.OrganizationID, &t.OperationID, &t.TransactionID, &t.Debit, &t.Credit); err != nil {
			return nil, err
		}
		totals = append(totals, t)
	}
	return totals, rows.Err()
}
