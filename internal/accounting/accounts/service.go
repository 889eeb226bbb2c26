package accounts

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Service exposes chart of accounts reads.
type Service struct {
	repo Repository
}

// NewService constructs Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns the organization's chart of accounts ordered by code.
func (s *Service) List(ctx context.Context, organizationID string) ([]Account, error) {
	return s.repo.List(ctx, organizationID)
}

// Get loads one account.
func (s *Service) Get(ctx context.Context, organizationID string, id uuid.UUID) (Account, error) {
	return s.repo.Get(ctx, organizationID, id)
}

// CreateSystemAccounts inserts one system-owned account per template. Each
// template's parent must already exist. The created accounts are returned in
// template order.
func CreateSystemAccounts(ctx context.Context, tx TxRepository, organizationID, createdBy string, templates []Template, at time.Time) ([]Account, error) {
	parents := make(map[string]uuid.UUID)
	created := make([]Account, 0, len(templates))
	for _, tpl := range templates {
		acc := Account{
			ID:             uuid.New(),
			OrganizationID: organizationID,
			Code:           tpl.Code,
			Name:           tpl.Name,
			Head:           tpl.Head,
			SubHead:        tpl.SubHead,
			Group:          tpl.Group,
			System:         true,
			CreatedBy:      createdBy,
			CreatedAt:      at,
		}
		if tpl.ParentName != "" {
			parentID, ok := parents[tpl.ParentName]
			if !ok {
				parent, err := tx.FindByName(ctx, organizationID, tpl.ParentName)
				if err != nil {
					return nil, fmt.Errorf("accounts: parent %q for %s: %w", tpl.ParentName, tpl.Name, err)
				}
				parentID = parent.ID
				parents[tpl.ParentName] = parentID
			}
			acc.ParentID = &parentID
		}
		if err := tx.Insert(ctx, acc); err != nil {
			return nil, err
		}
		created = append(created, acc)
	}
	return created, nil
}
