package ar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/odyssey-erp/odyssey-books/internal/accounting"
	"github.com/odyssey-erp/odyssey-books/internal/accounting/accounts"
	"github.com/odyssey-erp/odyssey-books/internal/documents"
	"github.com/odyssey-erp/odyssey-books/internal/masterdata"
	"github.com/odyssey-erp/odyssey-books/internal/reconcile"
	"github.com/odyssey-erp/odyssey-books/internal/shared"
)

// DocumentName labels receipts in logs and metrics.
const DocumentName = "sales_receipt"

// AccountLookup resolves the deposit account.
type AccountLookup interface {
	Get(ctx context.Context, organizationID string, id uuid.UUID) (accounts.Account, error)
}

// HistoryPort records customer timeline entries.
type HistoryPort interface {
	Record(ctx context.Context, entry shared.HistoryEntry) error
}

// Service handles AR business logic.
type Service struct {
	repo     RepositoryPort
	parties  masterdata.Reader
	accounts AccountLookup
	poster   *accounting.Poster
	history  HistoryPort
	observer documents.RejectionObserver
	logger   *slog.Logger
	now      func() time.Time
}

// Deps groups the collaborators of Service. History and Observer may be nil.
type Deps struct {
	Repo     RepositoryPort
	Parties  masterdata.Reader
	Accounts AccountLookup
	Poster   *accounting.Poster
	History  HistoryPort
	Observer documents.RejectionObserver
	Logger   *slog.Logger
}

// NewService builds Service instance.
func NewService(d Deps) *Service {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	poster := d.Poster
	if poster == nil {
		poster = accounting.NewPoster(logger, nil)
	}
	return &Service{
		repo:     d.Repo,
		parties:  d.Parties,
		accounts: d.Accounts,
		poster:   poster,
		history:  d.History,
		observer: d.Observer,
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

// payments drops zero lines and rejects an invoice paid twice.
func payments(lines []PaymentLine) ([]PaymentLine, []uuid.UUID, error) {
	kept := make([]PaymentLine, 0, len(lines))
	ids := make([]uuid.UUID, 0, len(lines))
	seen := make(map[uuid.UUID]struct{}, len(lines))
	for _, line := range lines {
		if line.PaymentAmount.IsZero() {
			continue
		}
		if _, ok := seen[line.InvoiceID]; ok {
			return nil, nil, ErrDuplicateInvoice
		}
		seen[line.InvoiceID] = struct{}{}
		kept = append(kept, line)
		ids = append(ids, line.InvoiceID)
	}
	if len(kept) == 0 {
		return nil, nil, ErrNoInvoice
	}
	return kept, ids, nil
}

type receiptMasters struct {
	customer masterdata.Party
	deposit  accounts.Account
	invoices map[uuid.UUID]OpenInvoice
}

func (s *Service) load(ctx context.Context, organizationID string, in ReceiptInput, ids []uuid.UUID) (receiptMasters, error) {
	var (
		m        receiptMasters
		invoices []OpenInvoice
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		m.customer, err = s.parties.Party(gctx, organizationID, masterdata.PartyCustomer, in.CustomerID)
		return err
	})
	g.Go(func() error {
		acc, err := s.accounts.Get(gctx, organizationID, in.DepositAccountID)
		if errors.Is(err, accounts.ErrAccountNotFound) {
			return ErrDepositAccountNotFound
		}
		if err != nil {
			return err
		}
		if acc.Head != accounts.HeadAsset {
			return ErrDepositAccountNotFound
		}
		m.deposit = acc
		return nil
	})
	g.Go(func() error {
		var err error
		invoices, err = s.repo.Invoices(gctx, organizationID, ids)
		return err
	})
	if err := g.Wait(); err != nil {
		return receiptMasters{}, err
	}
	m.invoices = make(map[uuid.UUID]OpenInvoice, len(invoices))
	for _, inv := range invoices {
		m.invoices[inv.ID] = inv
	}
	for _, id := range ids {
		if _, ok := m.invoices[id]; !ok {
			return receiptMasters{}, fmt.Errorf("invoice with ID %s was not found: %w", id, shared.ErrNotFound)
		}
	}
	return m, nil
}

// checkLines compares every payment line with the stored invoice and the
// header amounts with the sum of payments.
func checkLines(report *reconcile.Report, in ReceiptInput, lines []PaymentLine, m receiptMasters) decimal.Decimal {
	var sum decimal.Decimal
	for _, line := range lines {
		inv := m.invoices[line.InvoiceID]
		sum = sum.Add(line.PaymentAmount)
		if inv.CustomerID != m.customer.ID {
			report.Addf("invoice", "Invoice %s does not belong to %s", inv.Number, m.customer.DisplayName)
		}
		if line.SalesInvoice != inv.Number {
			report.Addf("salesInvoice", "Invoice Number Mismatch Invoice Number: %s", line.SalesInvoice)
		}
		if line.SalesInvoiceDate != "" && line.SalesInvoiceDate != inv.InvoiceDate.Format(dateLayout) {
			report.Addf("salesInvoiceDate", "Invoice Date Mismatch Invoice Number: %s : %s", line.SalesInvoice, line.SalesInvoiceDate)
		}
		if line.DueDate != "" && inv.DueDate != nil && line.DueDate != inv.DueDate.Format(dateLayout) {
			report.Addf("dueDate", "Due Date Mismatch for Invoice Number %s: %s", line.SalesInvoice, line.DueDate)
		}
		if !line.TotalAmount.Equal(inv.GrandTotal) {
			report.Addf("totalAmount", "Grand Total for Invoice Number %s: %s", line.SalesInvoice, line.TotalAmount.String())
		}
		if !line.BalanceAmount.Equal(inv.BalanceAmount) {
			report.Addf("balanceAmount", "Amount Due for Invoice number %s: %s", line.SalesInvoice, line.BalanceAmount.String())
		}
		if line.PaymentAmount.IsNegative() {
			report.Addf("paymentAmount", "Invalid payment Amount: %s", line.PaymentAmount.String())
		}
	}
	report.CheckTotal("Amount Received", sum, in.AmountReceived)
	report.CheckTotal("Amount Used For Payments", sum, in.AmountUsedForPayments)
	return sum
}

// AddReceipt settles invoices, stores the receipt and posts its journal in
// one transaction.
func (s *Service) AddReceipt(ctx context.Context, id shared.Identity, in ReceiptInput) (Receipt, error) {
	paymentDate, err := time.Parse(dateLayout, in.PaymentDate)
	if err != nil {
		return Receipt{}, fmt.Errorf("%w: invalid paymentDate", shared.ErrValidation)
	}
	lines, ids, err := payments(in.Invoices)
	if err != nil {
		return Receipt{}, err
	}
	m, err := s.load(ctx, id.OrganizationID, in, ids)
	if err != nil {
		return Receipt{}, fmt.Errorf("ar: %w", err)
	}
	report := &reconcile.Report{}
	total := checkLines(report, in, lines, m)
	if !report.OK() {
		if s.observer != nil {
			s.observer.ObserveRejection(DocumentName, report.Len())
		}
		s.logger.Warn("receipt rejected",
			slog.String("organization_id", id.OrganizationID),
			slog.Int("findings", report.Len()),
			slog.String("detail", report.String()))
		return Receipt{}, report.Err()
	}

	rc := Receipt{
		ID:                    uuid.New(),
		OrganizationID:        id.OrganizationID,
		CustomerID:            m.customer.ID,
		CustomerName:          m.customer.DisplayName,
		PaymentMode:           in.PaymentMode,
		PaymentDate:           paymentDate,
		DepositAccountID:      m.deposit.ID,
		Reference:             in.Reference,
		Note:                  in.Note,
		Invoices:              lines,
		AmountReceived:        total,
		AmountUsedForPayments: total,
		Total:                 total,
		UserID:                id.UserID,
		UserName:              id.UserName,
		CreatedAt:             s.now(),
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		locked, err := tx.LockInvoices(ctx, id.OrganizationID, ids)
		if err != nil {
			return err
		}
		for _, inv := range locked {
			paid, balance := inv.Pay(paymentFor(lines, inv.ID))
			if err := tx.ApplyPayment(ctx, id.OrganizationID, inv.ID, paid, balance); err != nil {
				return err
			}
		}
		number, err := tx.NextNumber(ctx, id.OrganizationID)
		if err != nil {
			return err
		}
		rc.Number = number
		if err := tx.Insert(ctx, rc); err != nil {
			return err
		}
		_, err = s.poster.Post(ctx, tx.Ledger(), accounting.ReceiptJournal(accounting.ReceiptJournalInput{
			OrganizationID: rc.OrganizationID,
			OperationID:    rc.ID,
			TransactionID:  rc.Number,
			Remark:         rc.Note,
			Date:           rc.PaymentDate,
			Amount:         rc.AmountReceived,
			Customer:       m.customer.Account(),
			Deposit:        accounting.AccountRef{ID: m.deposit.ID, Name: m.deposit.Name},
		}))
		return err
	})
	if err != nil {
		return Receipt{}, fmt.Errorf("ar: save receipt: %w", err)
	}
	s.logger.Info("receipt added",
		slog.String("organization_id", rc.OrganizationID),
		slog.String("receipt", rc.Number),
		slog.String("amount", rc.Total.StringFixed(2)))
	s.recordHistory(ctx, rc)
	return rc, nil
}

func paymentFor(lines []PaymentLine, invoiceID uuid.UUID) decimal.Decimal {
	for _, line := range lines {
		if line.InvoiceID == invoiceID {
			return line.PaymentAmount
		}
	}
	return decimal.Zero
}

func (s *Service) recordHistory(ctx context.Context, rc Receipt) {
	if s.history == nil {
		return
	}
	err := s.history.Record(ctx, shared.HistoryEntry{
		OrganizationID: rc.OrganizationID,
		OperationID:    rc.ID,
		PartyID:        rc.CustomerID,
		Title:          "Payment Receipt Added",
		Description:    fmt.Sprintf("Payment Receipt %s of amount %s created by %s", rc.Number, rc.Total.StringFixed(2), rc.UserName),
		UserID:         rc.UserID,
		UserName:       rc.UserName,
		At:             rc.CreatedAt,
	})
	if err != nil {
		s.logger.Warn("record receipt history", slog.String("receipt", rc.Number), slog.Any("error", err))
	}
}

// GetReceipt returns one receipt.
func (s *Service) GetReceipt(ctx context.Context, organizationID string, id uuid.UUID) (Receipt, error) {
	return s.repo.Get(ctx, organizationID, id)
}

// ListReceipts returns the organization's receipts.
func (s *Service) ListReceipts(ctx context.Context, organizationID string) ([]Receipt, error) {
	return s.repo.List(ctx, organizationID)
}

// CalculateAging groups outstanding invoice balances by days past due.
func (s *Service) CalculateAging(ctx context.Context, organizationID string, asOf time.Time) (AgingBucket, error) {
	invoices, err := s.repo.Outstanding(ctx, organizationID)
	if err != nil {
		return AgingBucket{}, err
	}
	if asOf.IsZero() {
		asOf = s.now()
	}
	var bucket AgingBucket
	for _, inv := range invoices {
		if !inv.BalanceAmount.IsPositive() {
			continue
		}
		days := int(asOf.Sub(inv.Due()).Hours() / 24)
		switch {
		case days <= 0:
			bucket.Current = bucket.Current.Add(inv.BalanceAmount)
		case days <= 30:
			bucket.Bucket30 = bucket.Bucket30.Add(inv.BalanceAmount)
		case days <= 60:
			bucket.Bucket60 = bucket.Bucket60.Add(inv.BalanceAmount)
		case days <= 90:
			bucket.Bucket90 = bucket.Bucket90.Add(inv.BalanceAmount)
		default:
			bucket.Bucket120 = bucket.Bucket120.Add(inv.BalanceAmount)
		}
	}
	return bucket, nil
}
