package procurement

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/odyssey-erp/odyssey-books/internal/documents"
	"github.com/odyssey-erp/odyssey-books/internal/masterdata"
	"github.com/odyssey-erp/odyssey-books/internal/reconcile"
	"github.com/odyssey-erp/odyssey-books/internal/shared"
)

// DocumentName labels purchase orders in logs and metrics.
const DocumentName = "purchase_order"

// Service orchestrates purchase order flows.
type Service struct {
	repo   Repository
	intake *documents.Intake
	logger *slog.Logger
	now    func() time.Time
}

// NewService constructs the procurement service. observer may be nil.
func NewService(repo Repository, reader masterdata.Reader, observer documents.RejectionObserver, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	opts := masterdata.ClaimOptions{Basis: masterdata.CostPrice}
	return &Service{
		repo:   repo,
		intake: documents.NewIntake(reader, DocumentName, masterdata.PartySupplier, opts, observer),
		logger: logger,
		now:    time.Now,
	}
}

// WithNow overrides the clock for testing.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// CreatePurchaseOrder verifies the submission and stores it under the next
// purchase order number.
func (s *Service) CreatePurchaseOrder(ctx context.Context, id shared.Identity, in CreateInput) (PurchaseOrder, error) {
	now := s.now()
	orderDate, err := parseDate(in.OrderDate, now)
	if err != nil {
		return PurchaseOrder{}, err
	}
	var expected *time.Time
	if in.ExpectedShipmentDate != "" {
		t, err := parseDate(in.ExpectedShipmentDate, now)
		if err != nil {
			return PurchaseOrder{}, err
		}
		expected = &t
	}

	v, err := s.intake.Check(ctx, id.OrganizationID, in.SupplierID, in.Body)
	if err != nil {
		if report, ok := reconcile.AsReport(err); ok {
			s.logger.Warn("purchase order rejected",
				slog.String("organization_id", id.OrganizationID),
				slog.String("findings", report.String()))
		}
		return PurchaseOrder{}, err
	}

	supplier := v.Masters.Party
	po := PurchaseOrder{
		ID:                   uuid.New(),
		OrganizationID:       id.OrganizationID,
		SupplierID:           supplier.ID,
		SupplierName:         supplier.DisplayName,
		Reference:            in.Reference,
		OrderDate:            orderDate,
		ExpectedShipmentDate: expected,
		Note:                 in.Note,
		Terms:                in.Terms,
		Summary:              v.Summary,
		Lines:                v.Lines,
		UserID:               id.UserID,
		UserName:             id.UserName,
		CreatedAt:            now,
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		number, err := tx.NextNumber(ctx, id.OrganizationID)
		if err != nil {
			return err
		}
		po.Number = number
		return tx.Insert(ctx, po)
	})
	if err != nil {
		return PurchaseOrder{}, fmt.Errorf("procurement: save purchase order: %w", err)
	}
	s.logger.Info("purchase order created",
		slog.String("organization_id", po.OrganizationID),
		slog.String("purchase_order", po.Number),
		slog.String("grand_total", po.GrandTotal.StringFixed(2)))
	return po, nil
}

// GetPurchaseOrder returns one purchase order.
func (s *Service) GetPurchaseOrder(ctx context.Context, organizationID string, id uuid.UUID) (PurchaseOrder, error) {
	return s.repo.Get(ctx, organizationID, id)
}

// ListPurchaseOrders returns the organization's purchase orders, newest first.
func (s *Service) ListPurchaseOrders(ctx context.Context, organizationID string) ([]PurchaseOrder, error) {
	orders, err := s.repo.List(ctx, organizationID)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, fmt.Errorf("procurement: no purchase orders: %w", shared.ErrNotFound)
	}
	return orders, nil
}

// NextNumber previews the number the next purchase order will receive.
func (s *Service) NextNumber(ctx context.Context, organizationID string) (string, error) {
	return s.repo.PeekNumber(ctx, organizationID)
}
