package accounting

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/odyssey-erp/odyssey-books/internal/accounting/reports"
)

// TxRepository is the transactional ledger surface. Document repositories
// expose one bound to their own transaction so a document save and its
// posting commit or roll back together.
type TxRepository interface {
	InsertEntries(ctx context.Context, entries []JournalEntry) error
	DeleteOperation(ctx context.Context, organizationID string, operationID uuid.UUID) (int64, error)
}

// RepositoryPort abstracts ledger persistence.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	ListOperation(ctx context.Context, organizationID string, operationID uuid.UUID) ([]JournalEntry, error)
	AccountBalances(ctx context.Context, organizationID string) ([]reports.AccountBalance, error)
	OperationTotals(ctx context.Context, organizationID string) ([]reports.OperationTotal, error)
}

// PostingObserver receives a notification for each committed posting.
type PostingObserver interface {
	ObservePosting(action string, rows int)
}

// Poster validates and writes balanced journal rows inside a caller's transaction.
type Poster struct {
	logger   *slog.Logger
	observer PostingObserver
	now      func() time.Time
}

// NewPoster constructs a Poster. observer may be nil.
func NewPoster(logger *slog.Logger, observer PostingObserver) *Poster {
	if logger == nil {
		logger = slog.Default()
	}
	return &Poster{logger: logger, observer: observer, now: time.Now}
}

// WithNow overrides the clock for testing.
func (p *Poster) WithNow(now func() time.Time) {
	if now != nil {
		p.now = now
	}
}

// Post validates in and inserts its rows. An unbalanced input aborts the
// caller's transaction with ErrUnbalanced.
func (p *Poster) Post(ctx context.Context, tx TxRepository, in PostingInput) ([]JournalEntry, error) {
	if err := in.Validate(); err != nil {
		if errors.Is(err, ErrUnbalanced) {
			p.logger.Error("refusing unbalanced posting",
				slog.String("organization_id", in.OrganizationID),
				slog.String("operation_id", in.OperationID.String()),
				slog.Any("error", err))
		}
		return nil, err
	}
	entries := toEntries(in, p.now())
	if err := tx.InsertEntries(ctx, entries); err != nil {
		return nil, err
	}
	if p.observer != nil {
		p.observer.ObservePosting(string(in.Action), len(entries))
	}
	return entries, nil
}

// Replace removes every row of the operation and posts in as its new set.
func (p *Poster) Replace(ctx context.Context, tx TxRepository, in PostingInput) ([]JournalEntry, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	removed, err := tx.DeleteOperation(ctx, in.OrganizationID, in.OperationID)
	if err != nil {
		return nil, err
	}
	p.logger.Debug("replacing operation journal",
		slog.String("operation_id", in.OperationID.String()),
		slog.Int64("removed", removed))
	return p.Post(ctx, tx, in)
}

// Service exposes standalone ledger operations and reports.
type Service struct {
	repo   RepositoryPort
	poster *Poster
}

// NewService constructs the ledger service.
func NewService(repo RepositoryPort, poster *Poster) *Service {
	if poster == nil {
		poster = NewPoster(nil, nil)
	}
	return &Service{repo: repo, poster: poster}
}

// Poster returns the poster shared with document services.
func (s *Service) Poster() *Poster {
	return s.poster
}

// PostJournal posts in its own transaction.
func (s *Service) PostJournal(ctx context.Context, in PostingInput) ([]JournalEntry, error) {
	var entries []JournalEntry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		entries, err = s.poster.Post(ctx, tx, in)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// OperationJournal lists the rows posted for an operation.
func (s *Service) OperationJournal(ctx context.Context, organizationID string, operationID uuid.UUID) ([]JournalEntry, error) {
	entries, err := s.repo.ListOperation(ctx, organizationID, operationID)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, ErrOperationNotFound
	}
	return entries, nil
}

// TrialBalance aggregates the organization ledger per account.
func (s *Service) TrialBalance(ctx context.Context, organizationID string) (reports.TrialBalance, error) {
	balances, err := s.repo.AccountBalances(ctx, organizationID)
	if err != nil {
		return reports.TrialBalance{}, err
	}
	return reports.BuildTrialBalance(balances), nil
}

// UnbalancedOperations returns operations whose rows do not net to zero.
// An empty organization scans every organization.
func (s *Service) UnbalancedOperations(ctx context.Context, organizationID string) ([]reports.OperationTotal, error) {
	totals, err := s.repo.OperationTotals(ctx, organizationID)
	if err != nil {
		return nil, err
	}
	return reports.Unbalanced(totals), nil
}
