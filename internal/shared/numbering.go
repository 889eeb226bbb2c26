package shared

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Series names a document numbering sequence.
type Series string

const (
	SeriesPurchaseOrder Series = "purchase_order"
	SeriesSalesInvoice  Series = "sales_invoice"
	SeriesReceipt       Series = "receipt"
)

// ErrPrefixNotFound indicates the organization has no active series.
var ErrPrefixNotFound = fmt.Errorf("%w: prefix not found", ErrNotFound)

// FormatDocumentNumber renders prefix and sequence the way numbers are shown to users.
func FormatDocumentNumber(prefix string, n int64) string {
	return fmt.Sprintf("%s%d", prefix, n)
}

// Querier is satisfied by pools, connections and transactions.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PeekDocumentNumber returns the number the next document of series would receive.
func PeekDocumentNumber(ctx context.Context, q Querier, organizationID string, series Series) (string, error) {
	var prefix string
	var next int64
	err := q.QueryRow(ctx, `SELECT prefix, next_number FROM document_prefixes
WHERE organization_id=$1 AND series=$2 AND active`, organizationID, string(series)).Scan(&prefix, &next)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrPrefixNotFound
	}
	if err != nil {
		return "", err
	}
	return FormatDocumentNumber(prefix, next), nil
}

// NextDocumentNumber reserves the next number of a series inside tx.
// The row stays locked until tx ends so concurrent documents never share a number.
func NextDocumentNumber(ctx context.Context, tx pgx.Tx, organizationID string, series Series) (string, error) {
	var prefix string
	var next int64
	err := tx.QueryRow(ctx, `SELECT prefix, next_number FROM document_prefixes
WHERE organization_id=$1 AND series=$2 AND active FOR UPDATE`, organizationID, string(series)).Scan(&prefix, &next)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrPrefixNotFound
		}
		return "", err
	}
	if _, err := tx.Exec(ctx, `UPDATE document_prefixes SET next_number = next_number + 1
WHERE organization_id=$1 AND series=$2 AND active`, organizationID, string(series)); err != nil {
		return "", err
	}
	return FormatDocumentNumber(prefix, next), nil
}
