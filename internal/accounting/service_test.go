package accounting

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-books/internal/accounting/reports"
	"github.com/odyssey-erp/odyssey-books/internal/pricing"
	"github.com/odyssey-erp/odyssey-books/internal/shared"
	_ "github.com/odyssey-erp/odyssey-books/testing"
)

type memoryLedger struct {
	entries []JournalEntry
	nextID  int64
}

type memoryLedgerTx struct {
	base    *memoryLedger
	entries []JournalEntry
}

func (r *memoryLedger) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx := &memoryLedgerTx{base: r, entries: append([]JournalEntry(nil), r.entries...)}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	r.entries = tx.entries
	return nil
}

func (tx *memoryLedgerTx) InsertEntries(_ context.Context, entries []JournalEntry) error {
	for _, e := range entries {
		tx.base.nextID++
		e.ID = tx.base.nextID
		tx.entries = append(tx.entries, e)
	}
	return nil
}

func (tx *memoryLedgerTx) DeleteOperation(_ context.Context, org string, op uuid.UUID) (int64, error) {
	kept := tx.entries[:0]
	var removed int64
	for _, e := range tx.entries {
		if e.OrganizationID == org && e.OperationID == op {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	tx.entries = kept
	return removed, nil
}

func (r *memoryLedger) ListOperation(_ context.Context, org string, op uuid.UUID) ([]JournalEntry, error) {
	var out []JournalEntry
	for _, e := range r.entries {
		if e.OrganizationID == org && e.OperationID == op {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memoryLedger) AccountBalances(_ context.Context, org string) ([]reports.AccountBalance, error) {
	index := map[uuid.UUID]int{}
	var out []reports.AccountBalance
	for _, e := range r.entries {
		if e.OrganizationID != org {
			continue
		}
		i, ok := index[e.AccountID]
		if !ok {
			i = len(out)
			index[e.AccountID] = i
			out = append(out, reports.AccountBalance{AccountID: e.AccountID, Name: e.AccountName})
		}
		out[i].Debit = out[i].Debit.Add(e.Debit)
		out[i].Credit = out[i].Credit.Add(e.Credit)
	}
	return out, nil
}

func (r *memoryLedger) OperationTotals(_ context.Context, org string) ([]reports.OperationTotal, error) {
	index := map[uuid.UUID]int{}
	var out []reports.OperationTotal
	for _, e := range r.entries {
		if org != "" && e.OrganizationID != org {
			continue
		}
		i, ok := index[e.OperationID]
		if !ok {
			i = len(out)
			index[e.OperationID] = i
			out = append(out, reports.OperationTotal{OrganizationID: e.OrganizationID, OperationID: e.OperationID, TransactionID: e.TransactionID})
		}
		out[i].Debit = out[i].Debit.Add(e.Debit)
		out[i].Credit = out[i].Credit.Add(e.Credit)
	}
	return out, nil
}

type countingObserver struct {
	rows map[string]int
}

func (o *countingObserver) ObservePosting(action string, rows int) {
	if o.rows == nil {
		o.rows = map[string]int{}
	}
	o.rows[action] += rows
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func ref(name string) AccountRef {
	return AccountRef{ID: uuid.New(), Name: name}
}

func newTestService() (*Service, *memoryLedger, *countingObserver) {
	repo := &memoryLedger{}
	obs := &countingObserver{}
	poster := NewPoster(nil, obs)
	poster.WithNow(func() time.Time { return time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC) })
	return NewService(repo, poster), repo, obs
}

func TestReceiptJournalPostsDepositAgainstCustomer(t *testing.T) {
	svc, _, obs := newTestService()
	customer, deposit := ref("Acme Ltd"), ref("Undeposited Funds")
	op := uuid.New()

	entries, err := svc.PostJournal(context.Background(), ReceiptJournal(ReceiptJournalInput{
		OrganizationID: "org-1",
		OperationID:    op,
		TransactionID:  "RCPT-1",
		Remark:         "April payment",
		Amount:         dec("150"),
		Customer:       customer,
		Deposit:        deposit,
	}))
	require.NoError(t, err)
	require.Len(t, entries, 2)

	journal, err := svc.OperationJournal(context.Background(), "org-1", op)
	require.NoError(t, err)
	require.Len(t, journal, 2)
	byAccount := map[uuid.UUID]JournalEntry{}
	for _, e := range journal {
		assert.Equal(t, ActionReceipt, e.Action)
		assert.Equal(t, "April payment", e.Remark)
		byAccount[e.AccountID] = e
	}
	assert.True(t, byAccount[deposit.ID].Debit.Equal(dec("150")))
	assert.True(t, byAccount[deposit.ID].Credit.IsZero())
	assert.True(t, byAccount[customer.ID].Credit.Equal(dec("150")))
	assert.True(t, byAccount[customer.ID].Debit.IsZero())
	assert.Equal(t, 2, obs.rows["Receipt"])
}

func TestPostRejectsUnbalancedAndRollsBack(t *testing.T) {
	svc, repo, obs := newTestService()
	a, b := ref("A"), ref("B")
	_, err := svc.PostJournal(context.Background(), PostingInput{
		OrganizationID: "org-1",
		OperationID:    uuid.New(),
		TransactionID:  "INV-9",
		Action:         ActionSale,
		Lines: []PostingLine{
			{AccountID: a.ID, Debit: dec("100.00")},
			{AccountID: b.ID, Credit: dec("99.99")},
		},
	})
	require.ErrorIs(t, err, ErrUnbalanced)
	assert.Empty(t, repo.entries)
	assert.Empty(t, obs.rows)
}

func TestValidateRowShape(t *testing.T) {
	a, b := ref("A"), ref("B")
	base := PostingInput{OrganizationID: "org", OperationID: uuid.New(), Action: ActionSale}

	both := base
	both.Lines = []PostingLine{{AccountID: a.ID, Debit: dec("1"), Credit: dec("1")}, {AccountID: b.ID}}
	require.Error(t, both.Validate())

	empty := base
	empty.Lines = []PostingLine{{AccountID: a.ID}, {AccountID: b.ID}}
	require.Error(t, empty.Validate())

	single := base
	single.Lines = []PostingLine{{AccountID: a.ID, Debit: dec("1")}}
	require.ErrorIs(t, single.Validate(), ErrTooFewLines)

	negative := base
	negative.Lines = []PostingLine{{AccountID: a.ID, Debit: dec("-1")}, {AccountID: b.ID, Credit: dec("-1")}}
	require.Error(t, negative.Validate())
}

func TestOpeningBalanceAllowsZeroRow(t *testing.T) {
	svc, _, _ := newTestService()
	acc := ref("Output CGST")
	in := OpeningBalance("org-1", acc, time.Time{})
	require.NoError(t, in.Validate())

	entries, err := svc.PostJournal(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, acc.ID, entries[0].OperationID)
	assert.Equal(t, OpeningBalanceRef, entries[0].TransactionID)
	assert.Equal(t, ActionOpeningBalance, entries[0].Action)
	assert.True(t, entries[0].Debit.IsZero())
	assert.True(t, entries[0].Credit.IsZero())
}

func TestReplaceSwapsOperationRows(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()
	op := uuid.New()
	customer, deposit := ref("Customer"), ref("Bank")
	other := uuid.New()

	_, err := svc.PostJournal(ctx, ReceiptJournal(ReceiptJournalInput{OrganizationID: "org-1", OperationID: other, Amount: dec("5"), Customer: customer, Deposit: deposit}))
	require.NoError(t, err)
	_, err = svc.PostJournal(ctx, ReceiptJournal(ReceiptJournalInput{OrganizationID: "org-1", OperationID: op, Amount: dec("100"), Customer: customer, Deposit: deposit}))
	require.NoError(t, err)

	err = repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		_, err := svc.Poster().Replace(ctx, tx, ReceiptJournal(ReceiptJournalInput{OrganizationID: "org-1", OperationID: op, Amount: dec("80"), Customer: customer, Deposit: deposit}))
		return err
	})
	require.NoError(t, err)

	journal, err := svc.OperationJournal(ctx, "org-1", op)
	require.NoError(t, err)
	require.Len(t, journal, 2)
	for _, e := range journal {
		assert.True(t, e.Debit.Add(e.Credit).Equal(dec("80")))
	}
	kept, err := svc.OperationJournal(ctx, "org-1", other)
	require.NoError(t, err)
	assert.Len(t, kept, 2)
}

func TestReplaceUnbalancedKeepsPriorRows(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()
	op := uuid.New()
	customer, deposit := ref("Customer"), ref("Bank")
	_, err := svc.PostJournal(ctx, ReceiptJournal(ReceiptJournalInput{OrganizationID: "org-1", OperationID: op, Amount: dec("100"), Customer: customer, Deposit: deposit}))
	require.NoError(t, err)

	err = repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		_, err := svc.Poster().Replace(ctx, tx, PostingInput{
			OrganizationID: "org-1", OperationID: op, Action: ActionReceipt,
			Lines: []PostingLine{{AccountID: customer.ID, Credit: dec("10")}, {AccountID: deposit.ID, Debit: dec("9")}},
		})
		return err
	})
	require.ErrorIs(t, err, ErrUnbalanced)

	journal, err := svc.OperationJournal(ctx, "org-1", op)
	require.NoError(t, err)
	assert.Len(t, journal, 2)
}

func TestOperationJournalNotFound(t *testing.T) {
	svc, _, _ := newTestService()
	_, err := svc.OperationJournal(context.Background(), "org-1", uuid.New())
	require.ErrorIs(t, err, ErrOperationNotFound)
	require.True(t, errors.Is(err, shared.ErrNotFound))
}

func salesAccounts() SalesAccounts {
	freight, roundOff, depositAcc := ref("Freight"), ref("Round Off"), ref("Cash")
	return SalesAccounts{
		Customer: ref("Customer"),
		Sales:    ref("Sales"),
		OutputTax: map[pricing.TaxColumn]AccountRef{
			pricing.ColumnCGST: ref("Output CGST"),
			pricing.ColumnSGST: ref("Output SGST"),
			pricing.ColumnIGST: ref("Output IGST"),
		},
		Freight:  &freight,
		RoundOff: &roundOff,
		Deposit:  &depositAcc,
	}
}

func TestSalesJournalBalances(t *testing.T) {
	cases := []struct {
		name      string
		roundOff  string
		wantDebit bool
	}{
		{name: "rounded down", roundOff: "0.40", wantDebit: true},
		{name: "rounded up", roundOff: "-0.40", wantDebit: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			totals := pricing.Aggregate([]pricing.LineInput{{
				Quantity:  2,
				UnitPrice: dec("100"),
				Rates:     pricing.TaxRates{CGST: dec("9"), SGST: dec("9")},
				Taxable:   true,
			}}, pricing.TaxModeIntra, pricing.Charges{
				Freight:             dec("15"),
				RoundOff:            dec(tc.roundOff),
				TransactionDiscount: pricing.Discount{Type: pricing.DiscountPercentage, Value: dec("10")},
			})
			accounts := salesAccounts()

			in, err := SalesJournal(SalesJournalInput{
				OrganizationID: "org-1",
				OperationID:    uuid.New(),
				TransactionID:  "INV-1",
				Totals:         totals,
				PaidAmount:     dec("50"),
				Accounts:       accounts,
			})
			require.NoError(t, err)
			require.NoError(t, in.Validate())
			debit, credit := in.Totals()
			assert.True(t, debit.Equal(credit), "debit %s credit %s", debit, credit)

			var roundOff *PostingLine
			for i, line := range in.Lines {
				assert.False(t, line.Debit.IsZero() && line.Credit.IsZero())
				if line.AccountID == accounts.RoundOff.ID {
					roundOff = &in.Lines[i]
				}
			}
			require.NotNil(t, roundOff)
			if tc.wantDebit {
				assert.True(t, roundOff.Debit.Equal(dec("0.40")))
			} else {
				assert.True(t, roundOff.Credit.Equal(dec("0.40")))
			}
		})
	}
}

func TestSalesJournalRoundUpPosts(t *testing.T) {
	svc, repo, _ := newTestService()
	totals := pricing.Aggregate([]pricing.LineInput{{
		Quantity:  2,
		UnitPrice: dec("100"),
		Rates:     pricing.TaxRates{CGST: dec("9"), SGST: dec("9")},
		Taxable:   true,
	}}, pricing.TaxModeIntra, pricing.Charges{
		RoundOff:            dec("-0.40"),
		TransactionDiscount: pricing.Discount{Type: pricing.DiscountPercentage, Value: dec("10")},
	})
	require.True(t, totals.GrandTotal.Equal(dec("212.76")), totals.GrandTotal.String())

	in, err := SalesJournal(SalesJournalInput{OrganizationID: "org-1", OperationID: uuid.New(), TransactionID: "INV-2", Totals: totals, Accounts: salesAccounts()})
	require.NoError(t, err)
	_, err = svc.PostJournal(context.Background(), in)
	require.NoError(t, err)
	assert.NotEmpty(t, repo.entries)
}

func TestSalesJournalMissingMapping(t *testing.T) {
	totals := pricing.Aggregate([]pricing.LineInput{{
		Quantity:  1,
		UnitPrice: dec("100"),
		Rates:     pricing.TaxRates{IGST: dec("18")},
		Taxable:   true,
	}}, pricing.TaxModeInter, pricing.Charges{})
	accounts := salesAccounts()
	delete(accounts.OutputTax, pricing.ColumnIGST)

	_, err := SalesJournal(SalesJournalInput{OrganizationID: "org-1", OperationID: uuid.New(), Totals: totals, Accounts: accounts})
	require.ErrorIs(t, err, ErrMappingNotFound)
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestUnbalancedOperations(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()
	customer, deposit := ref("Customer"), ref("Bank")
	_, err := svc.PostJournal(ctx, ReceiptJournal(ReceiptJournalInput{OrganizationID: "org-1", OperationID: uuid.New(), Amount: dec("10"), Customer: customer, Deposit: deposit}))
	require.NoError(t, err)

	broken := uuid.New()
	repo.entries = append(repo.entries, JournalEntry{OrganizationID: "org-2", OperationID: broken, AccountID: customer.ID, Debit: dec("3")})

	out, err := svc.UnbalancedOperations(ctx, "")
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, broken, out[0].OperationID)

	out, err = svc.UnbalancedOperations(ctx, "org-1")
	require.NoError(t, err)
	assert.Empty(t, out)
}
