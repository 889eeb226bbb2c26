// Package membership manages bundled service plans sold at a discount.
package membership

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-books/internal/pricing"
	"github.com/odyssey-erp/odyssey-books/internal/shared"
)

var (
	// ErrPlanNotFound indicates no plan with the id exists.
	ErrPlanNotFound = fmt.Errorf("membership: plan not found: %w", shared.ErrNotFound)
	// ErrNameTaken indicates another plan of the organization has the name.
	ErrNameTaken = fmt.Errorf("membership: Membership Plan with this name already exists: %w", shared.ErrDuplicate)
	// ErrDuplicateService indicates a plan bundles one service twice.
	ErrDuplicateService = fmt.Errorf("%w: Duplicate service found", shared.ErrValidation)
	// ErrNoService indicates the plan bundles nothing.
	ErrNoService = fmt.Errorf("%w: Select a service", shared.ErrValidation)
)

// Service is a catalogue entry that plans can bundle.
type Service struct {
	ID             uuid.UUID       `json:"id"`
	OrganizationID string          `json:"organizationId"`
	Name           string          `json:"serviceName"`
	GrandTotal     decimal.Decimal `json:"grandTotal"`
}

// PlanLine is one bundled service.
type PlanLine struct {
	ServiceID   uuid.UUID       `json:"serviceId" validate:"required"`
	ServiceName string          `json:"serviceName,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Count       int64           `json:"count"`
}

// PlanInput is the create and edit payload.
type PlanInput struct {
	PlanName     string          `json:"planName" validate:"required"`
	PlanType     string          `json:"planType" validate:"required"`
	Description  string          `json:"description"`
	Duration     string          `json:"duration"`
	Discount     decimal.Decimal `json:"discount"`
	ActualRate   decimal.Decimal `json:"actualRate"`
	SellingPrice decimal.Decimal `json:"sellingPrice"`
	Services     []PlanLine      `json:"services" validate:"dive"`
}

// Plan is a stored membership plan.
type Plan struct {
	ID             uuid.UUID        `json:"id"`
	OrganizationID string           `json:"organizationId"`
	PlanName       string           `json:"planName"`
	PlanType       pricing.PlanType `json:"planType"`
	Description    string           `json:"description,omitempty"`
	Duration       string           `json:"duration,omitempty"`
	Discount       decimal.Decimal  `json:"discount"`
	ActualRate     decimal.Decimal  `json:"actualRate"`
	SellingPrice   decimal.Decimal  `json:"sellingPrice"`
	Services       []PlanLine       `json:"services"`
	UserID         string           `json:"userId"`
	UserName       string           `json:"userName"`
	CreatedAt      time.Time        `json:"createdDateTime"`
	UpdatedAt      *time.Time       `json:"lastModifiedDate,omitempty"`
}

func (in PlanInput) serviceIDs() ([]uuid.UUID, error) {
	if len(in.Services) == 0 {
		return nil, ErrNoService
	}
	ids := make([]uuid.UUID, 0, len(in.Services))
	seen := make(map[uuid.UUID]struct{}, len(in.Services))
	for _, line := range in.Services {
		if _, ok := seen[line.ServiceID]; ok {
			return nil, ErrDuplicateService
		}
		seen[line.ServiceID] = struct{}{}
		ids = append(ids, line.ServiceID)
	}
	return ids, nil
}

func (in PlanInput) pricingServices() []pricing.PlanService {
	out := make([]pricing.PlanService, 0, len(in.Services))
	for _, line := range in.Services {
		out = append(out, pricing.PlanService{Price: line.Price, Count: line.Count})
	}
	return out
}
