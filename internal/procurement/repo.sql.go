package procurement

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/odyssey-books/internal/platform/db"
	"github.com/odyssey-erp/odyssey-books/internal/shared"
)

// Repository persists purchase orders.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, organizationID string, id uuid.UUID) (PurchaseOrder, error)
	List(ctx context.Context, organizationID string) ([]PurchaseOrder, error)
	PeekNumber(ctx context.Context, organizationID string) (string, error)
}

// TxRepository exposes transactional operations.
type TxRepository interface {
	NextNumber(ctx context.Context, organizationID string) (string, error)
	Insert(ctx context.Context, po PurchaseOrder) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

type txRepo struct {
	tx pgx.Tx
}

// WithTx wraps callback in repeatable-read transaction.
func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil || r.pool == nil {
		return errors.New("procurement repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	})
}

func (t *txRepo) NextNumber(ctx context.Context, organizationID string) (string, error) {
	return shared.NextDocumentNumber(ctx, t.tx, organizationID, shared.SeriesPurchaseOrder)
}

func (t *txRepo) Insert(ctx context.Context, po PurchaseOrder) error {
	_, err := t.tx.Exec(ctx, `INSERT INTO purchase_orders
(id, organization_id, purchase_order, supplier_id, supplier_name, reference, order_date, expected_shipment_date,
note, terms, grand_total, summary, items, user_id, user_name, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`,
		po.ID, po.OrganizationID, po.Number, po.SupplierID, po.SupplierName, po.Reference, po.OrderDate,
		po.ExpectedShipmentDate, po.Note, po.Terms, po.GrandTotal, po.Summary, po.Lines, po.UserID, po.UserName, po.CreatedAt)
	if shared.IsUniqueViolation(err) {
		return shared.ErrDuplicate
	}
	return err
}

const selectPurchaseOrderSQL = `SELECT id, organization_id, purchase_order, supplier_id, supplier_name, reference, order_date,
expected_shipment_date, note, terms, summary, items, user_id, user_name, created_at
FROM purchase_orders`

func scanPurchaseOrder(row pgx.Row) (PurchaseOrder, error) {
	var po PurchaseOrder
	var expected *time.Time
	err := row.Scan(&po.ID, &po.OrganizationID, &po.Number, &po.SupplierID, &po.SupplierName, &po.Reference, &po.OrderDate,
		&expected, &po.Note, &po.Terms, &po.Summary, &po.Lines, &po.UserID, &po.UserName, &po.CreatedAt)
	po.ExpectedShipmentDate = expected
	return po, err
}

func (r *repository) Get(ctx context.Context, organizationID string, id uuid.UUID) (PurchaseOrder, error) {
	po, err := scanPurchaseOrder(r.pool.QueryRow(ctx, selectPurchaseOrderSQL+` WHERE organization_id=$1 AND id=$2`, organizationID, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return PurchaseOrder{}, ErrPurchaseOrderNotFound
	}
	return po, err
}

func (r *repository) List(ctx context.Context, organizationID string) ([]PurchaseOrder, error) {
	rows, err := r.pool.Query(ctx, selectPurchaseOrderSQL+` WHERE organization_id=$1 ORDER BY created_at DESC`, organizationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []PurchaseOrder
	for rows.Next() {
		po, err := scanPurchaseOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, po)
	}
	return out, rows.Err()
}

func (r *repository) PeekNumber(ctx context.Context, organizationID string) (string, error) {
	return shared.PeekDocumentNumber(ctx, r.pool, organizationID, shared.SeriesPurchaseOrder)
}
