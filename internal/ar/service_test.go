package ar

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-books/internal/accounting"
	"github.com/odyssey-erp/odyssey-books/internal/accounting/accounts"
	"github.com/odyssey-erp/odyssey-books/internal/documents/documentstest"
	"github.com/odyssey-erp/odyssey-books/internal/masterdata"
	"github.com/odyssey-erp/odyssey-books/internal/reconcile"
	"github.com/odyssey-erp/odyssey-books/internal/shared"
	_ "github.com/odyssey-erp/odyssey-books/testing"
)

type memoryARRepo struct {
	mu       sync.Mutex
	invoices map[uuid.UUID]OpenInvoice
	receipts map[uuid.UUID]Receipt
	ledger   []accounting.JournalEntry
	next     int64
	failOn   string
}

type memoryARTx struct {
	repo     *memoryARRepo
	invoices map[uuid.UUID]OpenInvoice
	receipts map[uuid.UUID]Receipt
	ledger   []accounting.JournalEntry
	next     int64
}

func newMemoryARRepo() *memoryARRepo {
	return &memoryARRepo{invoices: make(map[uuid.UUID]OpenInvoice), receipts: make(map[uuid.UUID]Receipt), next: 1}
}

func (r *memoryARRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	tx := &memoryARTx{
		repo:     r,
		invoices: make(map[uuid.UUID]OpenInvoice),
		receipts: make(map[uuid.UUID]Receipt),
		ledger:   append([]accounting.JournalEntry(nil), r.ledger...),
		next:     r.next,
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	for id, inv := range tx.invoices {
		r.invoices[id] = inv
	}
	for id, rc := range tx.receipts {
		r.receipts[id] = rc
	}
	r.ledger = tx.ledger
	r.next = tx.next
	return nil
}

func (r *memoryARRepo) Invoices(_ context.Context, _ string, ids []uuid.UUID) ([]OpenInvoice, error) {
	var out []OpenInvoice
	for _, id := range ids {
		if inv, ok := r.invoices[id]; ok {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (r *memoryARRepo) Outstanding(context.Context, string) ([]OpenInvoice, error) {
	var out []OpenInvoice
	for _, inv := range r.invoices {
		if inv.BalanceAmount.IsPositive() {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (r *memoryARRepo) Get(_ context.Context, organizationID string, id uuid.UUID) (Receipt, error) {
	rc, ok := r.receipts[id]
	if !ok || rc.OrganizationID != organizationID {
		return Receipt{}, ErrReceiptNotFound
	}
	return rc, nil
}

func (r *memoryARRepo) List(_ context.Context, organizationID string) ([]Receipt, error) {
	var out []Receipt
	for _, rc := range r.receipts {
		if rc.OrganizationID == organizationID {
			out = append(out, rc)
		}
	}
	return out, nil
}

func (r *memoryARRepo) OperationJournal(_ context.Context, _ string, id uuid.UUID) ([]accounting.JournalEntry, error) {
	var out []accounting.JournalEntry
	for _, e := range r.ledger {
		if e.OperationID == id {
			out = append(out, e)
		}
	}
	if len(out) == 0 {
		return nil, accounting.ErrOperationNotFound
	}
	return out, nil
}

func (t *memoryARTx) NextNumber(context.Context, string) (string, error) {
	n := t.next
	t.next++
	return shared.FormatDocumentNumber("RCPT-", n), nil
}

func (t *memoryARTx) LockInvoices(ctx context.Context, org string, ids []uuid.UUID) ([]OpenInvoice, error) {
	return t.repo.Invoices(ctx, org, ids)
}

func (t *memoryARTx) ApplyPayment(_ context.Context, _ string, id uuid.UUID, paid, balance decimal.Decimal) error {
	inv := t.repo.invoices[id]
	inv.PaidAmount = paid
	inv.BalanceAmount = balance
	t.invoices[id] = inv
	return nil
}

func (t *memoryARTx) Insert(_ context.Context, rc Receipt) error {
	if t.repo.failOn == "insert" {
		return errors.New("insert failed")
	}
	t.receipts[rc.ID] = rc
	return nil
}

func (t *memoryARTx) Ledger() accounting.TxRepository { return t }

func (t *memoryARTx) InsertEntries(_ context.Context, entries []accounting.JournalEntry) error {
	if t.repo.failOn == "ledger" {
		return errors.New("ledger unavailable")
	}
	t.ledger = append(t.ledger, entries...)
	return nil
}

func (t *memoryARTx) DeleteOperation(context.Context, string, uuid.UUID) (int64, error) {
	return 0, nil
}

type accountBook map[uuid.UUID]accounts.Account

func (b accountBook) Get(_ context.Context, _ string, id uuid.UUID) (accounts.Account, error) {
	a, ok := b[id]
	if !ok {
		return accounts.Account{}, accounts.ErrAccountNotFound
	}
	return a, nil
}

type recordedHistory struct {
	entries []shared.HistoryEntry
}

func (h *recordedHistory) Record(_ context.Context, e shared.HistoryEntry) error {
	h.entries = append(h.entries, e)
	return nil
}

type arFixture struct {
	svc      *Service
	repo     *memoryARRepo
	history  *recordedHistory
	customer masterdata.Party
	bank     accounts.Account
	invoice  OpenInvoice
}

var cashier = shared.Identity{OrganizationID: documentstest.OrganizationID, UserID: "u-9", UserName: "Meera"}

func newARFixture(t *testing.T) *arFixture {
	t.Helper()
	reader := documentstest.NewReader()
	customer := reader.AddParty(documentstest.GSTParty(masterdata.PartyCustomer, "Jane Stores"))
	bank := accounts.Account{ID: uuid.New(), OrganizationID: documentstest.OrganizationID, Name: "Bank", Head: accounts.HeadAsset}
	book := accountBook{bank.ID: bank}
	repo := newMemoryARRepo()
	due := time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC)
	invoice := OpenInvoice{
		ID:            uuid.New(),
		CustomerID:    customer.ID,
		Number:        "INV-1",
		InvoiceDate:   time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		DueDate:       &due,
		GrandTotal:    documentstest.Dec("212.40"),
		PaidAmount:    decimal.Zero,
		BalanceAmount: documentstest.Dec("212.40"),
	}
	repo.invoices[invoice.ID] = invoice
	history := &recordedHistory{}
	svc := NewService(Deps{Repo: repo, Parties: reader, Accounts: book, History: history})
	svc.WithNow(func() time.Time { return time.Date(2026, 4, 5, 9, 0, 0, 0, time.UTC) })
	return &arFixture{svc: svc, repo: repo, history: history, customer: customer, bank: bank, invoice: invoice}
}

func (f *arFixture) input(amount string) ReceiptInput {
	return ReceiptInput{
		CustomerID:            f.customer.ID,
		PaymentMode:           "Bank Transfer",
		PaymentDate:           "2026-04-05",
		DepositAccountID:      f.bank.ID,
		Note:                  "April settlement",
		AmountReceived:        documentstest.Dec(amount),
		AmountUsedForPayments: documentstest.Dec(amount),
		Invoices: []PaymentLine{{
			InvoiceID:        f.invoice.ID,
			SalesInvoice:     "INV-1",
			SalesInvoiceDate: "2026-04-01",
			DueDate:          "2026-04-30",
			TotalAmount:      documentstest.Dec("212.40"),
			BalanceAmount:    documentstest.Dec("212.40"),
			PaymentAmount:    documentstest.Dec(amount),
		}},
	}
}

func TestAddReceiptPostsDepositAgainstCustomer(t *testing.T) {
	f := newARFixture(t)

	rc, err := f.svc.AddReceipt(context.Background(), cashier, f.input("150"))
	require.NoError(t, err)
	assert.Equal(t, "RCPT-1", rc.Number)
	assert.Equal(t, "150.00", rc.Total.StringFixed(2))

	rows, err := f.repo.OperationJournal(context.Background(), cashier.OrganizationID, rc.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for _, row := range rows {
		assert.Equal(t, accounting.ActionReceipt, row.Action)
		assert.Equal(t, "RCPT-1", row.TransactionID)
		assert.Equal(t, "April settlement", row.Remark)
		switch row.AccountID {
		case f.bank.ID:
			assert.Equal(t, "150.00", row.Debit.StringFixed(2))
			assert.True(t, row.Credit.IsZero())
		case f.customer.AccountID:
			assert.Equal(t, "150.00", row.Credit.StringFixed(2))
			assert.True(t, row.Debit.IsZero())
		default:
			t.Fatalf("unexpected account %s", row.AccountName)
		}
	}

	inv := f.repo.invoices[f.invoice.ID]
	assert.Equal(t, "150.00", inv.PaidAmount.StringFixed(2))
	assert.Equal(t, "62.40", inv.BalanceAmount.StringFixed(2))
	require.Len(t, f.history.entries, 1)
	assert.Equal(t, "Payment Receipt Added", f.history.entries[0].Title)
}

func TestAddReceiptClampsOverpayment(t *testing.T) {
	f := newARFixture(t)

	_, err := f.svc.AddReceipt(context.Background(), cashier, f.input("250"))
	require.NoError(t, err)

	inv := f.repo.invoices[f.invoice.ID]
	assert.Equal(t, "212.40", inv.PaidAmount.StringFixed(2))
	assert.True(t, inv.BalanceAmount.IsZero())
}

func TestAddReceiptReportsMismatches(t *testing.T) {
	f := newARFixture(t)
	in := f.input("150")
	in.Invoices[0].SalesInvoice = "INV-9"
	in.Invoices[0].BalanceAmount = documentstest.Dec("100")
	in.AmountReceived = documentstest.Dec("140")

	_, err := f.svc.AddReceipt(context.Background(), cashier, in)
	require.ErrorIs(t, err, reconcile.ErrRejected)
	report, ok := reconcile.AsReport(err)
	require.True(t, ok)
	assert.Equal(t, []string{
		"Invoice Number Mismatch Invoice Number: INV-9",
		"Amount Due for Invoice number INV-9: 100",
		"Amount Received is incorrect: 140",
	}, report.Messages())
	assert.Empty(t, f.repo.receipts)
	assert.Equal(t, int64(1), f.repo.next)
}

func TestAddReceiptWithinTolerance(t *testing.T) {
	f := newARFixture(t)
	in := f.input("150")
	in.AmountReceived = documentstest.Dec("150.01")

	_, err := f.svc.AddReceipt(context.Background(), cashier, in)
	require.NoError(t, err)
}

func TestAddReceiptGuards(t *testing.T) {
	f := newARFixture(t)

	dup := f.input("100")
	dup.Invoices = append(dup.Invoices, dup.Invoices[0])
	_, err := f.svc.AddReceipt(context.Background(), cashier, dup)
	assert.ErrorIs(t, err, ErrDuplicateInvoice)

	empty := f.input("0")
	_, err = f.svc.AddReceipt(context.Background(), cashier, empty)
	assert.ErrorIs(t, err, ErrNoInvoice)

	unknown := f.input("100")
	unknown.Invoices[0].InvoiceID = uuid.New()
	_, err = f.svc.AddReceipt(context.Background(), cashier, unknown)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	noBank := f.input("100")
	noBank.DepositAccountID = uuid.New()
	_, err = f.svc.AddReceipt(context.Background(), cashier, noBank)
	assert.ErrorIs(t, err, ErrDepositAccountNotFound)

	badDate := f.input("100")
	badDate.PaymentDate = "05/04/2026"
	_, err = f.svc.AddReceipt(context.Background(), cashier, badDate)
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestAddReceiptRejectsNonAssetDeposit(t *testing.T) {
	f := newARFixture(t)
	sales := accounts.Account{ID: uuid.New(), Name: "Sales", Head: accounts.HeadIncome}
	f.svc.accounts = accountBook{sales.ID: sales}
	in := f.input("100")
	in.DepositAccountID = sales.ID

	_, err := f.svc.AddReceipt(context.Background(), cashier, in)
	assert.ErrorIs(t, err, ErrDepositAccountNotFound)
}

func TestAddReceiptRollsBackOnLedgerFailure(t *testing.T) {
	f := newARFixture(t)
	f.repo.failOn = "ledger"

	_, err := f.svc.AddReceipt(context.Background(), cashier, f.input("150"))
	require.Error(t, err)

	assert.Empty(t, f.repo.receipts)
	assert.Empty(t, f.repo.ledger)
	assert.True(t, f.repo.invoices[f.invoice.ID].PaidAmount.IsZero())
	assert.Equal(t, int64(1), f.repo.next)
	assert.Empty(t, f.history.entries)
}

func TestGetReceipt(t *testing.T) {
	f := newARFixture(t)
	rc, err := f.svc.AddReceipt(context.Background(), cashier, f.input("150"))
	require.NoError(t, err)

	got, err := f.svc.GetReceipt(context.Background(), cashier.OrganizationID, rc.ID)
	require.NoError(t, err)
	assert.Equal(t, rc.Number, got.Number)

	_, err = f.svc.GetReceipt(context.Background(), cashier.OrganizationID, uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestCalculateAging(t *testing.T) {
	f := newARFixture(t)
	add := func(balance string, due time.Time) {
		id := uuid.New()
		f.repo.invoices[id] = OpenInvoice{ID: id, InvoiceDate: due, DueDate: &due, BalanceAmount: documentstest.Dec(balance)}
	}
	asOf := time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)
	add("10", asOf.AddDate(0, 0, 5))
	add("20", asOf.AddDate(0, 0, -15))
	add("30", asOf.AddDate(0, 0, -45))
	add("40", asOf.AddDate(0, 0, -75))
	add("0", asOf.AddDate(0, 0, -75))

	bucket, err := f.svc.CalculateAging(context.Background(), cashier.OrganizationID, asOf)
	require.NoError(t, err)
	// the fixture invoice fell due on 2026-04-30, 61 days earlier
	assert.Equal(t, "10.00", bucket.Current.StringFixed(2))
	assert.Equal(t, "20.00", bucket.Bucket30.StringFixed(2))
	assert.Equal(t, "30.00", bucket.Bucket60.StringFixed(2))
	assert.Equal(t, "252.40", bucket.Bucket90.StringFixed(2))
	assert.True(t, bucket.Bucket120.IsZero())
	assert.Equal(t, "312.40", bucket.Total().StringFixed(2))
}
