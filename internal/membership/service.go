package membership

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/odyssey-erp/odyssey-books/internal/documents"
	"github.com/odyssey-erp/odyssey-books/internal/pricing"
	"github.com/odyssey-erp/odyssey-books/internal/reconcile"
	"github.com/odyssey-erp/odyssey-books/internal/shared"
)

// DocumentName labels membership plans in logs and metrics.
const DocumentName = "membership_plan"

// PlanService manages membership plans.
type PlanService struct {
	repo     Repository
	observer documents.RejectionObserver
	logger   *slog.Logger
	now      func() time.Time
}

// NewService constructs PlanService. observer may be nil.
func NewService(repo Repository, observer documents.RejectionObserver, logger *slog.Logger) *PlanService {
	if logger == nil {
		logger = slog.Default()
	}
	return &PlanService{repo: repo, observer: observer, logger: logger, now: time.Now}
}

// WithNow overrides the clock for testing.
func (s *PlanService) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// verify checks the submission against the catalogue and recomputes its
// totals. Input findings are reported before any calculation runs.
func (s *PlanService) verify(ctx context.Context, organizationID string, exclude uuid.UUID, in PlanInput) (Plan, error) {
	name := strings.TrimSpace(in.PlanName)
	if name == "" {
		return Plan{}, fmt.Errorf("%w: Please enter the plan name", shared.ErrValidation)
	}
	ids, err := in.serviceIDs()
	if err != nil {
		return Plan{}, err
	}
	taken, err := s.repo.NameTaken(ctx, organizationID, name, exclude)
	if err != nil {
		return Plan{}, err
	}
	if taken {
		return Plan{}, ErrNameTaken
	}
	catalogue, err := s.repo.Services(ctx, organizationID, ids)
	if err != nil {
		return Plan{}, err
	}
	byID := make(map[uuid.UUID]Service, len(catalogue))
	for _, svc := range catalogue {
		byID[svc.ID] = svc
	}

	report := &reconcile.Report{}
	planType, perr := pricing.ParsePlanType(in.PlanType)
	if perr != nil {
		report.Addf("planType", "Invalid Plan Type: %s", in.PlanType)
	}
	if in.SellingPrice.GreaterThan(in.ActualRate) {
		report.Add("sellingPrice", "Selling price cannot be greater than the actual rate.")
	}
	if in.Discount.IsNegative() {
		report.Addf("discount", "Invalid discount: %s", in.Discount.String())
	}
	lines := make([]PlanLine, 0, len(in.Services))
	for _, line := range in.Services {
		svc, ok := byID[line.ServiceID]
		if !ok {
			report.Addf("services", "Service with ID %s was not found.", line.ServiceID)
			continue
		}
		if line.Count < 0 {
			report.Addf("count", "Invalid count: %d", line.Count)
		}
		if line.Price.IsNegative() {
			report.Addf("price", "Invalid price: %s", line.Price.String())
		}
		line.ServiceName = svc.Name
		lines = append(lines, line)
	}
	if !report.OK() {
		return Plan{}, s.reject(organizationID, report)
	}

	result := reconcile.ValidatePlan(reconcile.Plan{
		Type:                  planType,
		Discount:              in.Discount,
		Services:              in.pricingServices(),
		SubmittedActualRate:   in.ActualRate,
		SubmittedSellingPrice: in.SellingPrice,
	})
	if !result.Report.OK() {
		return Plan{}, s.reject(organizationID, result.Report)
	}
	return Plan{
		OrganizationID: organizationID,
		PlanName:       name,
		PlanType:       planType,
		Description:    in.Description,
		Duration:       in.Duration,
		Discount:       in.Discount,
		ActualRate:     result.Totals.ActualRate,
		SellingPrice:   result.Totals.SellingPrice,
		Services:       lines,
	}, nil
}

func (s *PlanService) reject(organizationID string, report *reconcile.Report) error {
	if s.observer != nil {
		s.observer.ObserveRejection(DocumentName, report.Len())
	}
	s.logger.Warn("membership plan rejected",
		slog.String("organization_id", organizationID),
		slog.Int("findings", report.Len()),
		slog.String("detail", report.String()))
	return report.Err()
}

// CreatePlan validates and stores a new plan.
func (s *PlanService) CreatePlan(ctx context.Context, id shared.Identity, in PlanInput) (Plan, error) {
	plan, err := s.verify(ctx, id.OrganizationID, uuid.Nil, in)
	if err != nil {
		return Plan{}, err
	}
	plan.ID = uuid.New()
	plan.UserID = id.UserID
	plan.UserName = id.UserName
	plan.CreatedAt = s.now()
	if err := s.repo.Insert(ctx, plan); err != nil {
		return Plan{}, fmt.Errorf("membership: save plan: %w", err)
	}
	s.logger.Info("membership plan created",
		slog.String("organization_id", plan.OrganizationID),
		slog.String("plan", plan.PlanName))
	return plan, nil
}

// EditPlan replaces a plan's contents, keeping its identity and author.
func (s *PlanService) EditPlan(ctx context.Context, id shared.Identity, planID uuid.UUID, in PlanInput) (Plan, error) {
	existing, err := s.repo.Get(ctx, id.OrganizationID, planID)
	if err != nil {
		return Plan{}, err
	}
	plan, err := s.verify(ctx, id.OrganizationID, planID, in)
	if err != nil {
		return Plan{}, err
	}
	now := s.now()
	plan.ID = existing.ID
	plan.UserID = existing.UserID
	plan.UserName = existing.UserName
	plan.CreatedAt = existing.CreatedAt
	plan.UpdatedAt = &now
	if err := s.repo.Update(ctx, plan); err != nil {
		return Plan{}, fmt.Errorf("membership: update plan: %w", err)
	}
	return plan, nil
}

// DeletePlan removes a plan.
func (s *PlanService) DeletePlan(ctx context.Context, organizationID string, planID uuid.UUID) error {
	if err := s.repo.Delete(ctx, organizationID, planID); err != nil {
		return err
	}
	s.logger.Info("membership plan deleted",
		slog.String("organization_id", organizationID),
		slog.String("plan_id", planID.String()))
	return nil
}

// GetPlan returns one plan.
func (s *PlanService) GetPlan(ctx context.Context, organizationID string, planID uuid.UUID) (Plan, error) {
	return s.repo.Get(ctx, organizationID, planID)
}

// ListPlans returns every plan of the organization.
func (s *PlanService) ListPlans(ctx context.Context, organizationID string) ([]Plan, error) {
	return s.repo.List(ctx, organizationID)
}
