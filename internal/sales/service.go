package sales

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/odyssey-erp/odyssey-books/internal/accounting"
	"github.com/odyssey-erp/odyssey-books/internal/accounting/accounts"
	"github.com/odyssey-erp/odyssey-books/internal/accounting/mappings"
	"github.com/odyssey-erp/odyssey-books/internal/documents"
	"github.com/odyssey-erp/odyssey-books/internal/masterdata"
	"github.com/odyssey-erp/odyssey-books/internal/reconcile"
	"github.com/odyssey-erp/odyssey-books/internal/shared"
)

// DocumentName labels sales invoices in logs and metrics.
const DocumentName = "sales_invoice"

// DefaultsSource resolves the organization's account defaults.
type DefaultsSource interface {
	Defaults(ctx context.Context, organizationID string) (mappings.Defaults, error)
}

// AccountLookup resolves accounts chosen on the invoice.
type AccountLookup interface {
	Get(ctx context.Context, organizationID string, id uuid.UUID) (accounts.Account, error)
}

// HistoryPort records customer timeline entries.
type HistoryPort interface {
	Record(ctx context.Context, entry shared.HistoryEntry) error
}

// Service orchestrates sales invoice flows.
type Service struct {
	repo     Repository
	intake   *documents.Intake
	defaults DefaultsSource
	accounts AccountLookup
	poster   *accounting.Poster
	history  HistoryPort
	logger   *slog.Logger
	now      func() time.Time
}

// Deps groups the collaborators of Service. History and Observer may be nil.
type Deps struct {
	Repo     Repository
	Reader   masterdata.Reader
	Defaults DefaultsSource
	Accounts AccountLookup
	Poster   *accounting.Poster
	History  HistoryPort
	Observer documents.RejectionObserver
	Logger   *slog.Logger
}

// NewService constructs the sales service.
func NewService(d Deps) *Service {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	poster := d.Poster
	if poster == nil {
		poster = accounting.NewPoster(logger, nil)
	}
	opts := masterdata.ClaimOptions{Basis: masterdata.SellingPrice, CheckStock: true}
	return &Service{
		repo:     d.Repo,
		intake:   documents.NewIntake(d.Reader, DocumentName, masterdata.PartyCustomer, opts, d.Observer),
		defaults: d.Defaults,
		accounts: d.Accounts,
		poster:   poster,
		history:  d.History,
		logger:   logger,
		now:      time.Now,
	}
}

// WithNow overrides the clock for testing.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// CreateInvoice verifies the submission, stores the invoice, posts its
// journal and decrements stock in one transaction.
func (s *Service) CreateInvoice(ctx context.Context, id shared.Identity, in InvoiceInput) (Invoice, error) {
	now := s.now()
	if err := in.checkPayment(); err != nil {
		return Invoice{}, err
	}
	invoiceDate, dueDate, err := in.dates(now)
	if err != nil {
		return Invoice{}, err
	}
	v, err := s.verify(ctx, id.OrganizationID, in, nil)
	if err != nil {
		return Invoice{}, err
	}

	inv := s.buildInvoice(id, in, v, invoiceDate, dueDate)
	inv.ID = uuid.New()
	inv.CreatedAt = now
	posting, err := s.journal(ctx, inv, v)
	if err != nil {
		return Invoice{}, err
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		number, err := tx.NextNumber(ctx, id.OrganizationID)
		if err != nil {
			return err
		}
		inv.Number = number
		posting.TransactionID = number
		if err := tx.Insert(ctx, inv); err != nil {
			return err
		}
		if _, err := s.poster.Post(ctx, tx.Ledger(), posting); err != nil {
			return err
		}
		return adjustStock(ctx, tx.Stock(), id.OrganizationID, v.Masters.Items, nil, inv.quantities())
	})
	if err != nil {
		return Invoice{}, fmt.Errorf("sales: save invoice: %w", err)
	}
	s.logger.Info("sales invoice created",
		slog.String("organization_id", inv.OrganizationID),
		slog.String("sales_invoice", inv.Number),
		slog.String("grand_total", inv.GrandTotal.StringFixed(2)))
	s.recordHistory(ctx, id, inv, "Sales Invoice Created")
	return inv, nil
}

// UpdateInvoice replaces an invoice's content and its journal. The number and
// creation time are kept.
func (s *Service) UpdateInvoice(ctx context.Context, id shared.Identity, invoiceID uuid.UUID, in InvoiceInput) (Invoice, error) {
	existing, err := s.repo.Get(ctx, id.OrganizationID, invoiceID)
	if err != nil {
		return Invoice{}, err
	}
	if in.SalesInvoice != existing.Number {
		return Invoice{}, fmt.Errorf("%w: the provided salesInvoice does not match the existing record. Expected: %s",
			shared.ErrValidation, existing.Number)
	}
	now := s.now()
	if err := in.checkPayment(); err != nil {
		return Invoice{}, err
	}
	invoiceDate, dueDate, err := in.dates(existing.InvoiceDate)
	if err != nil {
		return Invoice{}, err
	}
	previous := existing.quantities()
	v, err := s.verify(ctx, id.OrganizationID, in, previous)
	if err != nil {
		return Invoice{}, err
	}

	inv := s.buildInvoice(id, in, v, invoiceDate, dueDate)
	inv.ID = existing.ID
	inv.Number = existing.Number
	inv.CreatedAt = existing.CreatedAt
	inv.UserID, inv.UserName = existing.UserID, existing.UserName
	inv.UpdatedAt = &now
	posting, err := s.journal(ctx, inv, v)
	if err != nil {
		return Invoice{}, err
	}
	posting.TransactionID = inv.Number

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.Update(ctx, inv); err != nil {
			return err
		}
		if _, err := s.poster.Replace(ctx, tx.Ledger(), posting); err != nil {
			return err
		}
		return adjustStock(ctx, tx.Stock(), id.OrganizationID, v.Masters.Items, previous, inv.quantities())
	})
	if err != nil {
		return Invoice{}, fmt.Errorf("sales: update invoice: %w", err)
	}
	s.logger.Info("sales invoice updated",
		slog.String("organization_id", inv.OrganizationID),
		slog.String("sales_invoice", inv.Number))
	s.recordHistory(ctx, id, inv, "Sales Invoice Updated")
	return inv, nil
}

// GetInvoice returns one invoice.
func (s *Service) GetInvoice(ctx context.Context, organizationID string, id uuid.UUID) (Invoice, error) {
	return s.repo.Get(ctx, organizationID, id)
}

// ListInvoices returns the organization's invoices, newest first.
func (s *Service) ListInvoices(ctx context.Context, organizationID string) ([]Invoice, error) {
	return s.repo.List(ctx, organizationID)
}

// verify runs the intake. previous holds quantities already taken out of
// stock by the invoice being edited; they count as available.
func (s *Service) verify(ctx context.Context, organizationID string, in InvoiceInput, previous map[uuid.UUID]int64) (documents.Verified, error) {
	m, err := s.intake.Load(ctx, organizationID, in.CustomerID, in.Body)
	if err != nil {
		return documents.Verified{}, fmt.Errorf("sales: %w", err)
	}
	for itemID, qty := range previous {
		if it, ok := m.Items[itemID]; ok {
			it.CurrentStock += qty
			m.Items[itemID] = it
		}
	}
	v, err := s.intake.Evaluate(in.Body, m)
	if err != nil {
		if report, ok := reconcile.AsReport(err); ok {
			s.logger.Warn("sales invoice rejected",
				slog.String("organization_id", organizationID),
				slog.Int("findings", report.Len()),
				slog.String("detail", report.String()))
		}
		return documents.Verified{}, err
	}
	if in.PaidAmount.GreaterThan(v.Totals.GrandTotal) {
		return documents.Verified{}, ErrPaidExceedsTotal
	}
	return v, nil
}

func (s *Service) buildInvoice(id shared.Identity, in InvoiceInput, v documents.Verified, invoiceDate time.Time, dueDate *time.Time) Invoice {
	customer := v.Masters.Party
	return Invoice{
		OrganizationID:        id.OrganizationID,
		CustomerID:            customer.ID,
		CustomerName:          customer.DisplayName,
		Reference:             in.Reference,
		InvoiceDate:           invoiceDate,
		DueDate:               dueDate,
		Note:                  in.Note,
		Terms:                 in.Terms,
		DepositAccountID:      in.DepositAccountID,
		FreightAccountID:      in.FreightAccountID,
		OtherExpenseAccountID: in.OtherExpenseAccountID,
		Summary:               v.Summary,
		Lines:                 v.Lines,
		PaidAmount:            in.PaidAmount,
		BalanceAmount:         v.Totals.GrandTotal.Sub(in.PaidAmount),
		UserID:                id.UserID,
		UserName:              id.UserName,
	}
}

// journal resolves the accounts of the invoice and builds its posting.
// Accounts named on the invoice take precedence over the defaults.
func (s *Service) journal(ctx context.Context, inv Invoice, v documents.Verified) (accounting.PostingInput, error) {
	defaults, err := s.defaults.Defaults(ctx, inv.OrganizationID)
	if err != nil {
		return accounting.PostingInput{}, err
	}
	var deposit *accounting.AccountRef
	if inv.PaidAmount.IsPositive() {
		if deposit, err = s.account(ctx, inv.OrganizationID, inv.DepositAccountID); err != nil {
			return accounting.PostingInput{}, err
		}
	}
	acc, err := defaults.SalesAccounts(v.Masters.Party.Account(), deposit)
	if err != nil {
		return accounting.PostingInput{}, fmt.Errorf("sales: %w", err)
	}
	if inv.FreightAccountID != nil {
		if acc.Freight, err = s.account(ctx, inv.OrganizationID, inv.FreightAccountID); err != nil {
			return accounting.PostingInput{}, err
		}
	}
	if inv.OtherExpenseAccountID != nil {
		if acc.OtherExpense, err = s.account(ctx, inv.OrganizationID, inv.OtherExpenseAccountID); err != nil {
			return accounting.PostingInput{}, err
		}
	}
	posting, err := accounting.SalesJournal(accounting.SalesJournalInput{
		OrganizationID: inv.OrganizationID,
		OperationID:    inv.ID,
		TransactionID:  inv.Number,
		Remark:         inv.Note,
		Date:           inv.CreatedAt,
		Totals:         v.Totals,
		PaidAmount:     inv.PaidAmount,
		Accounts:       acc,
	})
	if err != nil {
		return accounting.PostingInput{}, fmt.Errorf("sales: %w", err)
	}
	return posting, nil
}

func (s *Service) account(ctx context.Context, organizationID string, id *uuid.UUID) (*accounting.AccountRef, error) {
	if id == nil || *id == uuid.Nil {
		return nil, nil
	}
	a, err := s.accounts.Get(ctx, organizationID, *id)
	if err != nil {
		return nil, err
	}
	return &accounting.AccountRef{ID: a.ID, Name: a.Name}, nil
}

// adjustStock moves stock by the difference between previous and current
// quantities. Services are not stocked.
func adjustStock(ctx context.Context, w masterdata.TxWriter, organizationID string, items map[uuid.UUID]masterdata.Item, previous, current map[uuid.UUID]int64) error {
	deltas := make(map[uuid.UUID]int64, len(previous)+len(current))
	for itemID, qty := range previous {
		deltas[itemID] += qty
	}
	for itemID, qty := range current {
		deltas[itemID] -= qty
	}
	for itemID, delta := range deltas {
		if delta == 0 {
			continue
		}
		if it, ok := items[itemID]; ok && !it.Stocked() {
			continue
		}
		if err := w.AdjustStock(ctx, organizationID, itemID, delta); err != nil {
			return fmt.Errorf("adjust stock %s: %w", itemID, err)
		}
	}
	return nil
}

func (s *Service) recordHistory(ctx context.Context, id shared.Identity, inv Invoice, title string) {
	if s.history == nil {
		return
	}
	err := s.history.Record(ctx, shared.HistoryEntry{
		OrganizationID: inv.OrganizationID,
		OperationID:    inv.ID,
		PartyID:        inv.CustomerID,
		Title:          title,
		Description:    fmt.Sprintf("Sales Invoice %s of amount %s by %s", inv.Number, inv.GrandTotal.StringFixed(2), id.UserName),
		UserID:         id.UserID,
		UserName:       id.UserName,
		At:             s.now(),
	})
	if err != nil {
		s.logger.Warn("record invoice history", slog.String("sales_invoice", inv.Number), slog.Any("error", err))
	}
}
