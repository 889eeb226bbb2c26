package sales

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/odyssey-books/internal/accounting"
	"github.com/odyssey-erp/odyssey-books/internal/masterdata"
	"github.com/odyssey-erp/odyssey-books/internal/platform/db"
	"github.com/odyssey-erp/odyssey-books/internal/shared"
)

// Repository persists sales invoices.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, organizationID string, id uuid.UUID) (Invoice, error)
	List(ctx context.Context, organizationID string) ([]Invoice, error)
}

// TxRepository is the transactional surface of invoicing. Ledger and Stock
// share the invoice transaction.
type TxRepository interface {
	NextNumber(ctx context.Context, organizationID string) (string, error)
	Insert(ctx context.Context, inv Invoice) error
	Update(ctx context.Context, inv Invoice) error
	Ledger() accounting.TxRepository
	Stock() masterdata.TxWriter
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

type txRepository struct {
	tx pgx.Tx
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil || r.pool == nil {
		return errors.New("sales repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

func (t *txRepository) Ledger() accounting.TxRepository {
	return accounting.NewTxRepository(t.tx)
}

func (t *txRepository) Stock() masterdata.TxWriter {
	return masterdata.NewTxRepository(t.tx)
}

func (t *txRepository) NextNumber(ctx context.Context, organizationID string) (string, error) {
	return shared.NextDocumentNumber(ctx, t.tx, organizationID, shared.SeriesSalesInvoice)
}

func (t *txRepository) Insert(ctx context.Context, inv Invoice) error {
	_, err := t.tx.Exec(ctx, `INSERT INTO sales_invoices
(id, organization_id, sales_invoice, customer_id, customer_name, reference, invoice_date, due_date, note, terms,
deposit_account_id, freight_account_id, other_expense_account_id, grand_total, paid_amount, balance_amount,
summary, items, user_id, user_name, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21)`,
		inv.ID, inv.OrganizationID, inv.Number, inv.CustomerID, inv.CustomerName, inv.Reference, inv.InvoiceDate, inv.DueDate,
		inv.Note, inv.Terms, inv.DepositAccountID, inv.FreightAccountID, inv.OtherExpenseAccountID, inv.GrandTotal,
		inv.PaidAmount, inv.BalanceAmount, inv.Summary, inv.Lines, inv.UserID, inv.UserName, inv.CreatedAt)
	if shared.IsUniqueViolation(err) {
		return shared.ErrDuplicate
	}
	return err
}

func (t *txRepository) Update(ctx context.Context, inv Invoice) error {
	tag, err := t.tx.Exec(ctx, `UPDATE sales_invoices SET customer_id=$3, customer_name=$4, reference=$5, invoice_date=$6,
due_date=$7, note=$8, terms=$9, deposit_account_id=$10, freight_account_id=$11, other_expense_account_id=$12,
grand_total=$13, paid_amount=$14, balance_amount=$15, summary=$16, items=$17, updated_at=$18
WHERE organization_id=$1 AND id=$2`,
		inv.OrganizationID, inv.ID, inv.CustomerID, inv.CustomerName, inv.Reference, inv.InvoiceDate, inv.DueDate,
		inv.Note, inv.Terms, inv.DepositAccountID, inv.FreightAccountID, inv.OtherExpenseAccountID, inv.GrandTotal,
		inv.PaidAmount, inv.BalanceAmount, inv.Summary, inv.Lines, inv.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrInvoiceNotFound
	}
	return nil
}

const selectInvoiceSQL = `SELECT id, organization_id, sales_invoice, customer_id, customer_name, reference, invoice_date,
due_date, note, terms, deposit_account_id, freight_account_id, other_expense_account_id, paid_amount, balance_amount,
summary, items, user_id, user_name, created_at, updated_at
FROM sales_invoices`

func scanInvoice(row pgx.Row) (Invoice, error) {
	var inv Invoice
	err := row.Scan(&inv.ID, &inv.OrganizationID, &inv.Number, &inv.CustomerID, &inv.CustomerName, &inv.Reference,
		&inv.InvoiceDate, &inv.DueDate, &inv.Note, &inv.Terms, &inv.DepositAccountID, &inv.FreightAccountID,
		&inv.OtherExpenseAccountID, &inv.PaidAmount, &inv.BalanceAmount, &inv.Summary, &inv.Lines, &inv.UserID,
		&inv.UserName, &inv.CreatedAt, &inv.UpdatedAt)
	return inv, err
}

func (r *repository) Get(ctx context.Context, organizationID string, id uuid.UUID) (Invoice, error) {
	inv, err := scanInvoice(r.pool.QueryRow(ctx, selectInvoiceSQL+` WHERE organization_id=$1 AND id=$2`, organizationID, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Invoice{}, ErrInvoiceNotFound
	}
	return inv, err
}

func (r *repository) List(ctx context.Context, organizationID string) ([]Invoice, error) {
	rows, err := r.pool.Query(ctx, selectInvoiceSQL+` WHERE organization_id=$1 ORDER BY created_at DESC`, organizationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}
