package taxes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/odyssey-erp/odyssey-books/internal/platform/cache"
	"github.com/odyssey-erp/odyssey-books/internal/shared"
)

// DefaultsInvalidator drops cached account defaults after they change.
type DefaultsInvalidator interface {
	Invalidate(ctx context.Context, organizationID string) error
}

// AddTaxInput registers the organization for a tax type and optionally adds a rate.
type AddTaxInput struct {
	TaxType            string     `json:"taxType" validate:"required,oneof=GST VAT"`
	RegistrationNumber string     `json:"registrationNumber"`
	BusinessLegalName  string     `json:"businessLegalName"`
	BusinessTradeName  string     `json:"businessTradeName"`
	Rate               *RateInput `json:"taxRate"`
}

// EditRateInput replaces one rate of the table.
type EditRateInput struct {
	TaxType string    `json:"taxType" validate:"required,oneof=GST VAT"`
	Rate    RateInput `json:"updatedRate"`
}

// EditRateResult reports the saved rate and how many items picked it up.
type EditRateResult struct {
	Rate         Rate  `json:"rate"`
	ItemsUpdated int64 `json:"itemsUpdated"`
}

// Service manages tax registration and rates.
type Service struct {
	repo        Repository
	provisioner *Provisioner
	redis       *redis.Client
	defaults    DefaultsInvalidator
	logger      *slog.Logger
	lockTTL     time.Duration
	now         func() time.Time
}

// NewService constructs the tax service. redis and defaults may be nil.
func NewService(repo Repository, provisioner *Provisioner, redisClient *redis.Client, defaults DefaultsInvalidator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:        repo,
		provisioner: provisioner,
		redis:       redisClient,
		defaults:    defaults,
		logger:      logger,
		lockTTL:     30 * time.Second,
		now:         time.Now,
	}
}

// Get returns the organization's tax record.
func (s *Service) Get(ctx context.Context, organizationID string) (Record, error) {
	return s.repo.Get(ctx, organizationID)
}

// AddTax saves registration details and an optional rate. The first activation
// of a tax type provisions its standing accounts in the same transaction.
func (s *Service) AddTax(ctx context.Context, id shared.Identity, in AddTaxInput) (Record, error) {
	taxType, err := ParseTaxType(in.TaxType)
	if err != nil {
		return Record{}, err
	}
	var rate *Rate
	if in.Rate != nil {
		r, err := validateRate(taxType, *in.Rate)
		if err != nil {
			return Record{}, err
		}
		r.ID = uuid.New()
		rate = &r
	}

	lock, err := cache.Acquire(ctx, s.redis, shared.ProvisioningLockKey(id.OrganizationID, string(taxType)), s.lockTTL)
	if err != nil {
		if errors.Is(err, cache.ErrLockHeld) {
			return Record{}, fmt.Errorf("taxes: setup already in progress: %w", shared.ErrConflict)
		}
		return Record{}, err
	}
	defer func() {
		if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn("release provisioning lock", slog.Any("error", err))
		}
	}()

	var saved Record
	provisioned := false
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		rec, err := tx.LockRecord(ctx, id.OrganizationID)
		if err != nil {
			return err
		}
		if rec.Activated() && rec.TaxType != taxType {
			return fmt.Errorf("taxes: organization already registered for %s: %w", rec.TaxType, shared.ErrConflict)
		}
		if rate != nil && rec.HasRateName(taxType, rate.Name, uuid.Nil) {
			return fmt.Errorf("%s Tax record with tax name %s already exists: %w", taxType, rate.Name, shared.ErrDuplicate)
		}

		activating := !rec.Activated()
		rec.TaxType = taxType
		if in.RegistrationNumber != "" {
			rec.RegistrationNumber = in.RegistrationNumber
		}
		if in.BusinessLegalName != "" {
			rec.BusinessLegalName = in.BusinessLegalName
		}
		if in.BusinessTradeName != "" {
			rec.BusinessTradeName = in.BusinessTradeName
		}
		rec.UpdatedAt = s.now()
		if err := tx.SaveRecord(ctx, rec); err != nil {
			return err
		}
		if rate != nil {
			if err := tx.InsertRate(ctx, id.OrganizationID, *rate); err != nil {
				return err
			}
			rec.Rates = append(rec.Rates, *rate)
		}
		if activating {
			if _, err := s.provisioner.Provision(ctx, tx, id.OrganizationID, id.UserID, taxType); err != nil {
				return err
			}
			provisioned = true
		}
		saved = rec
		return nil
	})
	if err != nil {
		return Record{}, err
	}
	if provisioned && s.defaults != nil {
		if err := s.defaults.Invalidate(ctx, id.OrganizationID); err != nil {
			s.logger.Warn("invalidate account defaults", slog.String("organization_id", id.OrganizationID), slog.Any("error", err))
		}
	}
	return saved, nil
}

// EditRate replaces a rate and copies the new figures onto every item that used the old name.
func (s *Service) EditRate(ctx context.Context, id shared.Identity, rateID uuid.UUID, in EditRateInput) (EditRateResult, error) {
	taxType, err := ParseTaxType(in.TaxType)
	if err != nil {
		return EditRateResult{}, err
	}
	rate, err := validateRate(taxType, in.Rate)
	if err != nil {
		return EditRateResult{}, err
	}
	rate.ID = rateID

	var result EditRateResult
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		rec, err := tx.LockRecord(ctx, id.OrganizationID)
		if err != nil {
			return err
		}
		idx := rec.FindRate(rateID)
		if idx < 0 || rec.Rates[idx].TaxType != taxType {
			return fmt.Errorf("%s tax rate not found: %w", taxType, shared.ErrNotFound)
		}
		if rec.HasRateName(taxType, rate.Name, rateID) {
			return fmt.Errorf("%s Tax record with tax name already exists: %w", taxType, shared.ErrDuplicate)
		}
		previous := rec.Rates[idx].Name
		if err := tx.UpdateRate(ctx, id.OrganizationID, rate); err != nil {
			return err
		}
		n, err := tx.Items().ApplyTaxRate(ctx, id.OrganizationID, previous, rate.Name, rate.ItemRates())
		if err != nil {
			return err
		}
		result = EditRateResult{Rate: rate, ItemsUpdated: n}
		return nil
	})
	if err != nil {
		return EditRateResult{}, err
	}
	s.logger.Info("tax rate updated",
		slog.String("organization_id", id.OrganizationID),
		slog.String("rate", rate.Name),
		slog.Int64("items", result.ItemsUpdated))
	return result, nil
}
