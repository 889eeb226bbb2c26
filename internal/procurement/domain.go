package procurement

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/odyssey-erp/odyssey-books/internal/documents"
	"github.com/odyssey-erp/odyssey-books/internal/shared"
)

// ErrPurchaseOrderNotFound indicates no purchase order with the id exists.
var ErrPurchaseOrderNotFound = fmt.Errorf("procurement: purchase order not found: %w", shared.ErrNotFound)

const dateLayout = "2006-01-02"

// PurchaseOrder is an accepted order to a supplier. Its figures are the
// server-computed ones; nothing is posted to the ledger.
type PurchaseOrder struct {
	ID                   uuid.UUID  `json:"id"`
	OrganizationID       string     `json:"organizationId"`
	Number               string     `json:"purchaseOrder"`
	SupplierID           uuid.UUID  `json:"supplierId"`
	SupplierName         string     `json:"supplierDisplayName"`
	Reference            string     `json:"reference,omitempty"`
	OrderDate            time.Time  `json:"purchaseOrderDate"`
	ExpectedShipmentDate *time.Time `json:"expectedShipmentDate,omitempty"`
	Note                 string     `json:"addNotes,omitempty"`
	Terms                string     `json:"termsAndConditions,omitempty"`
	documents.Summary
	Lines     []documents.Line `json:"items"`
	UserID    string           `json:"userId"`
	UserName  string           `json:"userName"`
	CreatedAt time.Time        `json:"createdDateTime"`
}

// CreateInput is the purchase order submission.
type CreateInput struct {
	SupplierID           uuid.UUID `json:"supplierId" validate:"required"`
	Reference            string    `json:"reference"`
	OrderDate            string    `json:"purchaseOrderDate" validate:"omitempty,datetime=2006-01-02"`
	ExpectedShipmentDate string    `json:"expectedShipmentDate" validate:"omitempty,datetime=2006-01-02"`
	Note                 string    `json:"addNotes"`
	Terms                string    `json:"termsAndConditions"`
	documents.Body
}

func parseDate(raw string, fallback time.Time) (time.Time, error) {
	if raw == "" {
		return fallback, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q", shared.ErrValidation, raw)
	}
	return t, nil
}
