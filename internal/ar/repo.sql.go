package ar

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-books/internal/accounting"
	"github.com/odyssey-erp/odyssey-books/internal/platform/db"
	"github.com/odyssey-erp/odyssey-books/internal/shared"
)

// RepositoryPort defines data access methods for AR.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Invoices(ctx context.Context, organizationID string, ids []uuid.UUID) ([]OpenInvoice, error)
	Outstanding(ctx context.Context, organizationID string) ([]OpenInvoice, error)
	Get(ctx context.Context, organizationID string, id uuid.UUID) (Receipt, error)
	List(ctx context.Context, organizationID string) ([]Receipt, error)
}

// TxRepository is the transactional surface of receipt posting.
type TxRepository interface {
	NextNumber(ctx context.Context, organizationID string) (string, error)
	LockInvoices(ctx context.Context, organizationID string, ids []uuid.UUID) ([]OpenInvoice, error)
	ApplyPayment(ctx context.Context, organizationID string, invoiceID uuid.UUID, paid, balance decimal.Decimal) error
	Insert(ctx context.Context, r Receipt) error
	Ledger() accounting.TxRepository
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Repository is the PostgreSQL implementation of RepositoryPort.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type txRepo struct {
	tx pgx.Tx
}

// WithTx runs fn inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil || r.pool == nil {
		return errors.New("ar repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	})
}

const selectOpenInvoiceSQL = `SELECT id, customer_id, sales_invoice, invoice_date, due_date, grand_total, paid_amount, balance_amount
FROM sales_invoices`

func queryInvoices(ctx context.Context, q querier, sql string, args ...any) ([]OpenInvoice, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []OpenInvoice
	for rows.Next() {
		var o OpenInvoice
		if err := rows.Scan(&o.ID, &o.CustomerID, &o.Number, &o.InvoiceDate, &o.DueDate, &o.GrandTotal, &o.PaidAmount, &o.BalanceAmount); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// Invoices loads the receivable state of the given invoices.
func (r *Repository) Invoices(ctx context.Context, organizationID string, ids []uuid.UUID) ([]OpenInvoice, error) {
	return queryInvoices(ctx, r.pool, selectOpenInvoiceSQL+` WHERE organization_id=$1 AND id = ANY($2)`, organizationID, ids)
}

// Outstanding lists invoices with a balance due.
func (r *Repository) Outstanding(ctx context.Context, organizationID string) ([]OpenInvoice, error) {
	return queryInvoices(ctx, r.pool, selectOpenInvoiceSQL+` WHERE organization_id=$1 AND balance_amount > 0`, organizationID)
}

const selectReceiptSQL = `SELECT id, organization_id, receipt, customer_id, customer_name, payment_mode, payment_date,
deposit_account_id, reference, note, invoices, amount_received, amount_used_for_payments, total, user_id, user_name, created_at
FROM sales_receipts`

func scanReceipt(row pgx.Row) (Receipt, error) {
	var rc Receipt
	err := row.Scan(&rc.ID, &rc.OrganizationID, &rc.Number, &rc.CustomerID, &rc.CustomerName, &rc.PaymentMode, &rc.PaymentDate,
		&rc.DepositAccountID, &rc.Reference, &rc.Note, &rc.Invoices, &rc.AmountReceived, &rc.AmountUsedForPayments, &rc.Total,
		&rc.UserID, &rc.UserName, &rc.CreatedAt)
	return rc, err
}

// Get loads one receipt.
func (r *Repository) Get(ctx context.Context, organizationID string, id uuid.UUID) (Receipt, error) {
	rc, err := scanReceipt(r.pool.QueryRow(ctx, selectReceiptSQL+` WHERE organization_id=$1 AND id=$2`, organizationID, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Receipt{}, ErrReceiptNotFound
	}
	return rc, err
}

// List returns the organization's receipts, newest first.
func (r *Repository) List(ctx context.Context, organizationID string) ([]Receipt, error) {
	rows, err := r.pool.Query(ctx, selectReceiptSQL+` WHERE organization_id=$1 ORDER BY created_at DESC`, organizationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Receipt
	for rows.Next() {
		rc, err := scanReceipt(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rc)
	}
	return out, rows.Err()
}

func (t *txRepo) Ledger() accounting.TxRepository {
	return accounting.NewTxRepository(t.tx)
}

func (t *txRepo) NextNumber(ctx context.Context, organizationID string) (string, error) {
	return shared.NextDocumentNumber(ctx, t.tx, organizationID, shared.SeriesReceipt)
}

func (t *txRepo) LockInvoices(ctx context.Context, organizationID string, ids []uuid.UUID) ([]OpenInvoice, error) {
	return queryInvoices(ctx, t.tx, selectOpenInvoiceSQL+` WHERE organization_id=$1 AND id = ANY($2) ORDER BY id FOR UPDATE`,
		organizationID, ids)
}

func (t *txRepo) ApplyPayment(ctx context.Context, organizationID string, invoiceID uuid.UUID, paid, balance decimal.Decimal) error {
	_, err := t.tx.Exec(ctx, `UPDATE sales_invoices SET paid_amount=$3, balance_amount=$4 WHERE organization_id=$1 AND id=$2`,
		organizationID, invoiceID, paid, balance)
	return err
}

func (t *txRepo) Insert(ctx context.Context, rc Receipt) error {
	_, err := t.tx.Exec(ctx, `INSERT INTO sales_receipts
(id, organization_id, receipt, customer_id, customer_name, payment_mode, payment_date, deposit_account_id, reference, note,
invoices, amount_received, amount_used_for_payments, total, user_id, user_name, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)`,
		rc.ID, rc.OrganizationID, rc.Number, rc.CustomerID, rc.CustomerName, rc.PaymentMode, rc.PaymentDate, rc.DepositAccountID,
		rc.Reference, rc.Note, rc.Invoices, rc.AmountReceived, rc.AmountUsedForPayments, rc.Total, rc.UserID, rc.UserName, rc.CreatedAt)
	if shared.IsUniqueViolation(err) {
		return shared.ErrDuplicate
	}
	return err
}
