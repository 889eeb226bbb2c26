package taxes

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-books/internal/accounting"
	"github.com/odyssey-erp/odyssey-books/internal/accounting/accounts"
	"github.com/odyssey-erp/odyssey-books/internal/accounting/mappings"
	"github.com/odyssey-erp/odyssey-books/internal/masterdata"
	"github.com/odyssey-erp/odyssey-books/internal/pricing"
	"github.com/odyssey-erp/odyssey-books/internal/shared"
	_ "github.com/odyssey-erp/odyssey-books/testing"
)

type itemRow struct {
	org   string
	name  string
	rates pricing.TaxRates
}

type taxState struct {
	record   Record
	accounts []accounts.Account
	entries  []accounting.JournalEntry
	defaults map[mappings.Role]mappings.AccountDefault
	items    []itemRow
}

func (s taxState) clone() taxState {
	out := taxState{
		record:   s.record,
		accounts: append([]accounts.Account(nil), s.accounts...),
		entries:  append([]accounting.JournalEntry(nil), s.entries...),
		defaults: make(map[mappings.Role]mappings.AccountDefault, len(s.defaults)),
		items:    append([]itemRow(nil), s.items...),
	}
	out.record.Rates = append([]Rate(nil), s.record.Rates...)
	for k, v := range s.defaults {
		out.defaults[k] = v
	}
	return out
}

type memoryTaxRepo struct {
	state taxState
}

type memoryTaxTx struct {
	state *taxState
}

func newMemoryTaxRepo(org string) *memoryTaxRepo {
	return &memoryTaxRepo{state: taxState{
		record: Record{OrganizationID: org},
		accounts: []accounts.Account{
			{ID: uuid.New(), OrganizationID: org, Name: ParentInputTax},
			{ID: uuid.New(), OrganizationID: org, Name: ParentOutputTax},
		},
		defaults: map[mappings.Role]mappings.AccountDefault{},
	}}
}

func (r *memoryTaxRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	staged := r.state.clone()
	if err := fn(ctx, &memoryTaxTx{state: &staged}); err != nil {
		return err
	}
	r.state = staged
	return nil
}

func (r *memoryTaxRepo) Get(_ context.Context, _ string) (Record, error) {
	return r.state.clone().record, nil
}

func (t *memoryTaxTx) Accounts() accounts.TxRepository { return t }
func (t *memoryTaxTx) Defaults() mappings.TxRepository { return t }
func (t *memoryTaxTx) Ledger() accounting.TxRepository { return t }
func (t *memoryTaxTx) Items() masterdata.TxWriter { return t }

func (t *memoryTaxTx) LockRecord(_ context.Context, _ string) (Record, error) {
	return t.state.record, nil
}

func (t *memoryTaxTx) SaveRecord(_ context.Context, rec Record) error {
	rates := t.state.record.Rates
	t.state.record = rec
	t.state.record.Rates = rates
	return nil
}

func (t *memoryTaxTx) InsertRate(_ context.Context, _ string, rate Rate) error {
	t.state.record.Rates = append(t.state.record.Rates, rate)
	return nil
}

func (t *memoryTaxTx) UpdateRate(_ context.Context, _ string, rate Rate) error {
	idx := t.state.record.FindRate(rate.ID)
	t.state.record.Rates[idx] = rate
	return nil
}

func (t *memoryTaxTx) FindByName(_ context.Context, org, name string) (accounts.Account, error) {
	for _, a := range t.state.accounts {
		if a.OrganizationID == org && a.Name == name {
			return a, nil
		}
	}
	return accounts.Account{}, accounts.ErrAccountNotFound
}

func (t *memoryTaxTx) Insert(_ context.Context, a accounts.Account) error {
	t.state.accounts = append(t.state.accounts, a)
	return nil
}

func (t *memoryTaxTx) Upsert(_ context.Context, rows []mappings.AccountDefault) error {
	for _, row := range rows {
		t.state.defaults[row.Role] = row
	}
	return nil
}

func (t *memoryTaxTx) InsertEntries(_ context.Context, entries []accounting.JournalEntry) error {
	t.state.entries = append(t.state.entries, entries...)
	return nil
}

func (t *memoryTaxTx) DeleteOperation(_ context.Context, _ string, _ uuid.UUID) (int64, error) {
	return 0, nil
}

func (t *memoryTaxTx) AdjustStock(_ context.Context, _ string, _ uuid.UUID, _ int64) error {
	return nil
}

func (t *memoryTaxTx) ApplyTaxRate(_ context.Context, org, previous, name string, rates pricing.TaxRates) (int64, error) {
	var n int64
	for i, it := range t.state.items {
		if it.org == org && it.name == previous {
			t.state.items[i].name = name
			t.state.items[i].rates = rates
			n++
		}
	}
	return n, nil
}

type recordingInvalidator struct {
	calls []string
}

func (r *recordingInvalidator) Invalidate(_ context.Context, org string) error {
	r.calls = append(r.calls, org)
	return nil
}

func d(s string) *decimal.Decimal {
	v := decimal.RequireFromString(s)
	return &v
}

func gstRate(name, cgst string) *RateInput {
	c := decimal.RequireFromString(cgst)
	return &RateInput{Name: name, Rate: d(c.Mul(decimal.NewFromInt(2)).String()), CGST: d(cgst), SGST: d(cgst), IGST: d(c.Mul(decimal.NewFromInt(2)).String())}
}

type taxFixture struct {
	svc   *Service
	repo  *memoryTaxRepo
	inv   *recordingInvalidator
	mr    *miniredis.Miniredis
	ident shared.Identity
}

func newTaxFixture(t *testing.T) taxFixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	repo := newMemoryTaxRepo("org-1")
	inv := &recordingInvalidator{}
	svc := NewService(repo, NewProvisioner(DefaultCatalogue(), nil, nil), client, inv, nil)
	return taxFixture{svc: svc, repo: repo, inv: inv, mr: mr, ident: shared.Identity{OrganizationID: "org-1", UserID: "u-1"}}
}

func TestAddTaxProvisionsGSTAccountsOnce(t *testing.T) {
	f := newTaxFixture(t)
	ctx := context.Background()

	rec, err := f.svc.AddTax(ctx, f.ident, AddTaxInput{TaxType: "GST", RegistrationNumber: "29ABCDE1234F1Z5", Rate: gstRate("GST18", "9")})
	require.NoError(t, err)
	assert.Equal(t, TaxTypeGST, rec.TaxType)
	require.Len(t, rec.Rates, 1)

	state := f.repo.state
	require.Len(t, state.accounts, 8)
	byName := map[string]accounts.Account{}
	for _, a := range state.accounts {
		byName[a.Name] = a
	}
	for _, name := range []string{"Input SGST", "Input CGST", "Input IGST"} {
		acc := byName[name]
		require.True(t, acc.System, name)
		require.Equal(t, accounts.HeadAsset, acc.Head)
		require.Equal(t, byName[ParentInputTax].ID, *acc.ParentID)
	}
	for _, name := range []string{"Output SGST", "Output CGST", "Output IGST"} {
		acc := byName[name]
		require.Equal(t, accounts.HeadLiabilities, acc.Head)
		require.Equal(t, byName[ParentOutputTax].ID, *acc.ParentID)
	}
	assert.Equal(t, "TX-06", byName["Output IGST"].Code)

	require.Len(t, state.entries, 6)
	for _, e := range state.entries {
		assert.Equal(t, accounting.ActionOpeningBalance, e.Action)
		assert.Equal(t, accounting.OpeningBalanceRef, e.TransactionID)
		assert.Equal(t, e.AccountID, e.OperationID)
		assert.True(t, e.Debit.IsZero())
		assert.True(t, e.Credit.IsZero())
	}
	require.Len(t, state.defaults, 6)
	assert.Equal(t, byName["Output CGST"].ID, state.defaults[mappings.RoleOutputCGST].AccountID)
	assert.Equal(t, []string{"org-1"}, f.inv.calls)
	assert.False(t, f.mr.Exists(shared.ProvisioningLockKey("org-1", "GST")))

	_, err = f.svc.AddTax(ctx, f.ident, AddTaxInput{TaxType: "GST", Rate: gstRate("GST5", "2.5")})
	require.NoError(t, err)
	assert.Len(t, f.repo.state.accounts, 8)
	assert.Len(t, f.repo.state.entries, 6)
	assert.Len(t, f.repo.state.record.Rates, 2)
	assert.Len(t, f.inv.calls, 1)
}

func TestAddTaxVATProvisionsTwoAccounts(t *testing.T) {
	f := newTaxFixture(t)
	_, err := f.svc.AddTax(context.Background(), f.ident, AddTaxInput{TaxType: "VAT", Rate: &RateInput{Name: "VAT5", Rate: d("5")}})
	require.NoError(t, err)
	assert.Len(t, f.repo.state.accounts, 4)
	assert.Len(t, f.repo.state.defaults, 2)
	assert.True(t, f.repo.state.record.Rates[0].VAT.Equal(decimal.NewFromInt(5)))
}

func TestAddTaxRejectsDuplicateName(t *testing.T) {
	f := newTaxFixture(t)
	ctx := context.Background()
	_, err := f.svc.AddTax(ctx, f.ident, AddTaxInput{TaxType: "GST", Rate: gstRate("GST18", "9")})
	require.NoError(t, err)
	_, err = f.svc.AddTax(ctx, f.ident, AddTaxInput{TaxType: "GST", Rate: gstRate("gst18", "9")})
	require.ErrorIs(t, err, shared.ErrDuplicate)
}

func TestAddTaxRejectsTypeSwitch(t *testing.T) {
	f := newTaxFixture(t)
	ctx := context.Background()
	_, err := f.svc.AddTax(ctx, f.ident, AddTaxInput{TaxType: "GST"})
	require.NoError(t, err)
	_, err = f.svc.AddTax(ctx, f.ident, AddTaxInput{TaxType: "VAT"})
	require.ErrorIs(t, err, shared.ErrConflict)
}

func TestGSTRateRules(t *testing.T) {
	_, err := validateRate(TaxTypeGST, RateInput{Name: "X", Rate: d("18"), CGST: d("9"), SGST: d("8"), IGST: d("17")})
	require.ErrorIs(t, err, shared.ErrValidation)
	require.Contains(t, err.Error(), "CGST must be equal to SGST.")

	_, err = validateRate(TaxTypeGST, RateInput{Name: "X", Rate: d("18"), CGST: d("9"), SGST: d("9"), IGST: d("19")})
	require.Contains(t, err.Error(), "Sum of CGST & SGST must be equal to IGST.")

	_, err = validateRate(TaxTypeGST, RateInput{Name: "X", CGST: d("9"), SGST: d("9"), IGST: d("18")})
	require.Contains(t, err.Error(), "Tax rate is required")

	_, err = validateRate(TaxTypeVAT, RateInput{Rate: d("5")})
	require.Contains(t, err.Error(), "Tax name is required")

	rate, err := validateRate(TaxTypeGST, RateInput{Name: " GST12 ", Rate: d("12"), CGST: d("6"), SGST: d("6"), IGST: d("12")})
	require.NoError(t, err)
	assert.Equal(t, "GST12", rate.Name)
}

func TestAddTaxLockHeld(t *testing.T) {
	f := newTaxFixture(t)
	require.NoError(t, f.mr.Set(shared.ProvisioningLockKey("org-1", "GST"), "other"))
	_, err := f.svc.AddTax(context.Background(), f.ident, AddTaxInput{TaxType: "GST"})
	require.ErrorIs(t, err, shared.ErrConflict)
	assert.Empty(t, f.repo.state.entries)
}

func TestProvisioningFailureRollsBack(t *testing.T) {
	f := newTaxFixture(t)
	f.repo.state.accounts = nil
	_, err := f.svc.AddTax(context.Background(), f.ident, AddTaxInput{TaxType: "GST", Rate: gstRate("GST18", "9")})
	require.ErrorIs(t, err, shared.ErrNotFound)
	assert.False(t, f.repo.state.record.Activated())
	assert.Empty(t, f.repo.state.record.Rates)
	assert.Empty(t, f.repo.state.entries)
	assert.Empty(t, f.inv.calls)
}

func TestEditRateCascadesToItems(t *testing.T) {
	f := newTaxFixture(t)
	ctx := context.Background()
	rec, err := f.svc.AddTax(ctx, f.ident, AddTaxInput{TaxType: "GST", Rate: gstRate("GST18", "9")})
	require.NoError(t, err)
	_, err = f.svc.AddTax(ctx, f.ident, AddTaxInput{TaxType: "GST", Rate: gstRate("GST5", "2.5")})
	require.NoError(t, err)
	f.repo.state.items = []itemRow{{org: "org-1", name: "GST18"}, {org: "org-1", name: "GST18"}, {org: "org-1", name: "GST5"}}

	res, err := f.svc.EditRate(ctx, f.ident, rec.Rates[0].ID, EditRateInput{TaxType: "GST", Rate: *gstRate("GST28", "14")})
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.ItemsUpdated)
	assert.Equal(t, "GST28", f.repo.state.items[0].name)
	assert.True(t, f.repo.state.items[1].rates.IGST.Equal(decimal.NewFromInt(28)))
	assert.Equal(t, "GST5", f.repo.state.items[2].name)

	_, err = f.svc.EditRate(ctx, f.ident, rec.Rates[0].ID, EditRateInput{TaxType: "GST", Rate: *gstRate("GST5", "2.5")})
	require.ErrorIs(t, err, shared.ErrDuplicate)

	_, err = f.svc.EditRate(ctx, f.ident, uuid.New(), EditRateInput{TaxType: "GST", Rate: *gstRate("GST12", "6")})
	require.ErrorIs(t, err, shared.ErrNotFound)

	_, err = f.svc.EditRate(ctx, f.ident, rec.Rates[0].ID, EditRateInput{TaxType: "SALES", Rate: *gstRate("GST12", "6")})
	require.ErrorIs(t, err, ErrInvalidTaxType)
}
