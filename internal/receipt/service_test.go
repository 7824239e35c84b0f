package receipt

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artha-erp/artha-erp/internal/invoice"
	"github.com/artha-erp/artha-erp/internal/journal"
	"github.com/artha-erp/artha-erp/internal/shared"
)

// fakeEnv is the in-memory world behind an allocator test: receipts, faktur
// payment positions and journal entries. WithTx snapshots it so a failed
// "transaction" rolls everything back.
type fakeEnv struct {
	receipts      map[int64]*Receipt
	nextReceiptID int64
	nextLineID    int64

	fakturs  map[int64]*AllocTarget
	accounts map[int64]bool

	sequences   map[string]int64
	entries     map[int64]journal.JournalEntry
	nextEntryID int64

	customers map[int64]journal.CustomerAccounts
}

func newFakeEnv() *fakeEnv {
	return &fakeEnv{
		receipts:  make(map[int64]*Receipt),
		fakturs:   make(map[int64]*AllocTarget),
		accounts:  make(map[int64]bool),
		sequences: make(map[string]int64),
		entries:   make(map[int64]journal.JournalEntry),
		customers: make(map[int64]journal.CustomerAccounts),
	}
}

func (e *fakeEnv) clone() *fakeEnv {
	out := newFakeEnv()
	out.nextReceiptID = e.nextReceiptID
	out.nextLineID = e.nextLineID
	out.nextEntryID = e.nextEntryID
	for id, rec := range e.receipts {
		cp := *rec
		cp.Lines = append([]ReceiptLine(nil), rec.Lines...)
		out.receipts[id] = &cp
	}
	for id, f := range e.fakturs {
		cp := *f
		out.fakturs[id] = &cp
	}
	for k, v := range e.accounts {
		out.accounts[k] = v
	}
	for k, v := range e.sequences {
		out.sequences[k] = v
	}
	for k, v := range e.entries {
		v.Lines = append([]journal.JournalLine(nil), v.Lines...)
		out.entries[k] = v
	}
	for k, v := range e.customers {
		out.customers[k] = v
	}
	return out
}

func (e *fakeEnv) entriesFor(sourceID int64) []journal.JournalEntry {
	var out []journal.JournalEntry
	for _, entry := range e.entries {
		if entry.SourceType == journal.SourceSalesReceipt && entry.SourceID == sourceID {
			out = append(out, entry)
		}
	}
	return out
}

type fakeRepo struct {
	env *fakeEnv
}

func (r *fakeRepo) WithTx(ctx context.Context, fn func(ctx context.Context, tx TxRepository) error) error {
	snap := r.env.clone()
	if err := fn(ctx, &fakeTx{env: r.env}); err != nil {
		*r.env = *snap
		return err
	}
	return nil
}

func (r *fakeRepo) GetReceipt(ctx context.Context, id int64) (*Receipt, error) {
	rec, ok := r.env.receipts[id]
	if !ok {
		return nil, shared.NotFound("receipt", id)
	}
	cp := *rec
	cp.Lines = append([]ReceiptLine(nil), rec.Lines...)
	return &cp, nil
}

func (r *fakeRepo) ListReceipts(ctx context.Context, companyID int64, req ListReceiptRequest) ([]Receipt, int, error) {
	var out []Receipt
	for _, rec := range r.env.receipts {
		if rec.CompanyID == companyID {
			out = append(out, *rec)
		}
	}
	return out, len(out), nil
}

type fakeTx struct {
	env *fakeEnv
}

func (t *fakeTx) Journal() journal.Store { return &txJournalStore{env: t.env} }

func (t *fakeTx) InsertReceipt(ctx context.Context, rec *Receipt) error {
	t.env.nextReceiptID++
	rec.ID = t.env.nextReceiptID
	rec.CreatedAt = time.Now()
	rec.UpdatedAt = rec.CreatedAt
	cp := *rec
	t.env.receipts[rec.ID] = &cp
	return nil
}

func (t *fakeTx) UpdateReceipt(ctx context.Context, rec *Receipt) error {
	stored, ok := t.env.receipts[rec.ID]
	if !ok {
		return shared.NotFound("receipt", rec.ID)
	}
	lines := stored.Lines
	*stored = *rec
	stored.Lines = lines
	return nil
}

func (t *fakeTx) DeleteReceipt(ctx context.Context, id int64) error {
	delete(t.env.receipts, id)
	return nil
}

func (t *fakeTx) GetReceiptForUpdate(ctx context.Context, id int64) (*Receipt, error) {
	rec, ok := t.env.receipts[id]
	if !ok {
		return nil, shared.NotFound("receipt", id)
	}
	cp := *rec
	cp.Lines = append([]ReceiptLine(nil), rec.Lines...)
	return &cp, nil
}

func (t *fakeTx) InsertLines(ctx context.Context, receiptID int64, lines []ReceiptLine) error {
	stored := t.env.receipts[receiptID]
	for i := range lines {
		t.env.nextLineID++
		lines[i].ID = t.env.nextLineID
		lines[i].ReceiptID = receiptID
		stored.Lines = append(stored.Lines, lines[i])
	}
	return nil
}

func (t *fakeTx) DeleteLines(ctx context.Context, receiptID int64) error {
	t.env.receipts[receiptID].Lines = nil
	return nil
}

func (t *fakeTx) FakturForUpdate(ctx context.Context, fakturID int64) (*AllocTarget, error) {
	f, ok := t.env.fakturs[fakturID]
	if !ok {
		return nil, shared.NotFound("faktur", fakturID)
	}
	cp := *f
	return &cp, nil
}

func (t *fakeTx) UpdateFakturPayment(ctx context.Context, fakturID int64, amountPaid, balanceDue float64, status invoice.Status) error {
	f, ok := t.env.fakturs[fakturID]
	if !ok {
		return shared.NotFound("faktur", fakturID)
	}
	f.AmountPaid = amountPaid
	f.Status = string(status)
	return nil
}

func (t *fakeTx) AccountExists(ctx context.Context, accountID int64) (bool, error) {
	return t.env.accounts[accountID], nil
}

func (t *fakeTx) ReceiptNumberExists(ctx context.Context, companyID int64, number string) (bool, error) {
	for _, rec := range t.env.receipts {
		if rec.CompanyID == companyID && rec.ReceiptNumber == number {
			return true, nil
		}
	}
	return false, nil
}

type txJournalStore struct {
	env *fakeEnv
}

func (s *txJournalStore) NextSequence(ctx context.Context, companyID int64, scope string) (int64, error) {
	s.env.sequences[scope]++
	return s.env.sequences[scope], nil
}

func (s *txJournalStore) InsertEntry(ctx context.Context, entry *journal.JournalEntry) error {
	s.env.nextEntryID++
	entry.ID = s.env.nextEntryID
	entry.CreatedAt = time.Now()
	s.env.entries[entry.ID] = *entry
	return nil
}

func (s *txJournalStore) InsertLines(ctx context.Context, entryID int64, lines []journal.JournalLine) error {
	entry := s.env.entries[entryID]
	entry.Lines = append([]journal.JournalLine(nil), lines...)
	s.env.entries[entryID] = entry
	return nil
}

func (s *txJournalStore) DeleteBySource(ctx context.Context, companyID int64, sourceType journal.SourceType, sourceID int64) (int64, error) {
	var n int64
	for id, entry := range s.env.entries {
		if entry.CompanyID == companyID && entry.SourceType == sourceType && entry.SourceID == sourceID {
			delete(s.env.entries, id)
			n++
		}
	}
	return n, nil
}

func (s *txJournalStore) CustomerAccounts(ctx context.Context, customerID int64) (journal.CustomerAccounts, error) {
	return s.env.customers[customerID], nil
}

func (s *txJournalStore) ItemAccounts(ctx context.Context, itemIDs []int64) (map[int64]journal.ItemAccounts, error) {
	return map[int64]journal.ItemAccounts{}, nil
}

func (s *txJournalStore) ItemCosts(ctx context.Context, itemIDs []int64) (map[int64]journal.ItemCost, error) {
	return map[int64]journal.ItemCost{}, nil
}

func (s *txJournalStore) CompanySettings(ctx context.Context, companyID int64) (journal.CompanySettings, error) {
	return journal.CompanySettings{}, nil
}

// Fixture: one customer with a receivable mapping, one bank account and one
// unpaid faktur of 1,000,000.

const (
	accBank       = int64(1100)
	accReceivable = int64(1200)
)

func ptr(v int64) *int64 { return &v }

func seededEnv() *fakeEnv {
	env := newFakeEnv()
	env.accounts[accBank] = true
	env.customers[1] = journal.CustomerAccounts{ReceivableAccountID: ptr(accReceivable)}
	env.fakturs[100] = &AllocTarget{
		ID:           100,
		FakturNumber: "PKY-20250301-1740000000-042",
		CustomerID:   1,
		TotalAmount:  1000000,
		Status:       string(invoice.StatusUnpaid),
	}
	return env
}

func newTestService(env *fakeEnv) *Service {
	logger := slog.Default()
	return NewService(&fakeRepo{env: env}, journal.NewEngine(logger), nil, logger)
}

func receiptRequest(amount float64) CreateReceiptRequest {
	return CreateReceiptRequest{
		ReceiptDate:   time.Date(2025, 3, 20, 0, 0, 0, 0, time.UTC),
		CustomerID:    1,
		BankAccountID: accBank,
		TotalAmount:   amount,
		Lines:         []AllocationRequest{{FakturID: 100, Amount: amount}},
	}
}

func TestCreateAllocatesAndPostsJournal(t *testing.T) {
	env := seededEnv()
	svc := newTestService(env)

	rec, err := svc.Create(context.Background(), 1, 7, receiptRequest(400000))
	require.NoError(t, err)

	assert.Equal(t, "RC/2025/03/0001", rec.ReceiptNumber)
	assert.Equal(t, 400000.0, env.fakturs[100].AmountPaid)
	assert.Equal(t, string(invoice.StatusPartial), env.fakturs[100].Status)

	entries := env.entriesFor(rec.ID)
	require.Len(t, entries, 1)
	require.Len(t, entries[0].Lines, 2)
	assert.Equal(t, accBank, entries[0].Lines[0].AccountID)
	assert.Equal(t, 400000.0, entries[0].Lines[0].Debit)
	assert.Equal(t, accReceivable, entries[0].Lines[1].AccountID)
	assert.Equal(t, 400000.0, entries[0].Lines[1].Credit)
}

func TestSecondReceiptSettlesFaktur(t *testing.T) {
	env := seededEnv()
	svc := newTestService(env)

	_, err := svc.Create(context.Background(), 1, 7, receiptRequest(400000))
	require.NoError(t, err)
	second, err := svc.Create(context.Background(), 1, 7, receiptRequest(600000))
	require.NoError(t, err)

	assert.Equal(t, "RC/2025/03/0002", second.ReceiptNumber)
	assert.Equal(t, 1000000.0, env.fakturs[100].AmountPaid)
	assert.Equal(t, string(invoice.StatusPaid), env.fakturs[100].Status)
}

func TestAllocationToleranceIsCoarse(t *testing.T) {
	env := seededEnv()
	svc := newTestService(env)

	// 50 off the allocations is within tolerance.
	req := receiptRequest(400000)
	req.TotalAmount = 400050
	_, err := svc.Create(context.Background(), 1, 7, req)
	require.NoError(t, err)

	// 150 off is not.
	req = receiptRequest(300000)
	req.TotalAmount = 300150
	_, err = svc.Create(context.Background(), 1, 7, req)
	require.Error(t, err)
	assert.Equal(t, shared.CodeValidation, shared.CodeOf(err))

	var de *shared.Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, 300150.0, de.Fields["total"])
	assert.Equal(t, 300000.0, de.Fields["allocated"])
}

func TestCreateRejectsDraftFaktur(t *testing.T) {
	env := seededEnv()
	env.fakturs[100].Status = string(invoice.StatusDraft)
	svc := newTestService(env)

	_, err := svc.Create(context.Background(), 1, 7, receiptRequest(100000))
	assert.Equal(t, shared.CodeValidation, shared.CodeOf(err))
	assert.Equal(t, 0.0, env.fakturs[100].AmountPaid)
}

func TestCreateRejectsForeignCustomersFaktur(t *testing.T) {
	env := seededEnv()
	env.fakturs[100].CustomerID = 2
	svc := newTestService(env)

	_, err := svc.Create(context.Background(), 1, 7, receiptRequest(100000))
	assert.Equal(t, shared.CodeValidation, shared.CodeOf(err))
}

func TestCreateRejectsOverAllocation(t *testing.T) {
	env := seededEnv()
	env.fakturs[100].AmountPaid = 900000
	env.fakturs[100].Status = string(invoice.StatusPartial)
	svc := newTestService(env)

	_, err := svc.Create(context.Background(), 1, 7, receiptRequest(100101))
	assert.Equal(t, shared.CodeValidation, shared.CodeOf(err))
	assert.Equal(t, 900000.0, env.fakturs[100].AmountPaid, "rolled back")
}

func TestCreateMissingReceivableMappingRollsBack(t *testing.T) {
	env := seededEnv()
	env.customers[1] = journal.CustomerAccounts{}
	svc := newTestService(env)

	_, err := svc.Create(context.Background(), 1, 7, receiptRequest(400000))
	assert.Equal(t, shared.CodeMissingAccountMapping, shared.CodeOf(err))
	assert.Empty(t, env.receipts)
	assert.Equal(t, 0.0, env.fakturs[100].AmountPaid)
}

func TestCreateUnknownBankAccount(t *testing.T) {
	env := seededEnv()
	svc := newTestService(env)

	req := receiptRequest(400000)
	req.BankAccountID = 999
	_, err := svc.Create(context.Background(), 1, 7, req)
	assert.Equal(t, shared.CodeValidation, shared.CodeOf(err))
}

func TestCreateExplicitDuplicateNumberFails(t *testing.T) {
	env := seededEnv()
	svc := newTestService(env)

	req := receiptRequest(100000)
	req.ReceiptNumber = "RC/CUSTOM/1"
	_, err := svc.Create(context.Background(), 1, 7, req)
	require.NoError(t, err)

	req = receiptRequest(100000)
	req.ReceiptNumber = "RC/CUSTOM/1"
	_, err = svc.Create(context.Background(), 1, 7, req)
	assert.Equal(t, shared.CodeDuplicate, shared.CodeOf(err))
}

func TestUpdateReallocates(t *testing.T) {
	env := seededEnv()
	env.fakturs[200] = &AllocTarget{
		ID:           200,
		FakturNumber: "PKY-20250302-1740100000-007",
		CustomerID:   1,
		TotalAmount:  500000,
		Status:       string(invoice.StatusUnpaid),
	}
	svc := newTestService(env)

	rec, err := svc.Create(context.Background(), 1, 7, receiptRequest(400000))
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), rec.ID, 7, UpdateReceiptRequest{
		ReceiptDate:   rec.ReceiptDate,
		CustomerID:    1,
		BankAccountID: accBank,
		TotalAmount:   300000,
		Lines:         []AllocationRequest{{FakturID: 200, Amount: 300000}},
	})
	require.NoError(t, err)

	assert.Equal(t, 0.0, env.fakturs[100].AmountPaid, "old allocation rolled off")
	assert.Equal(t, string(invoice.StatusUnpaid), env.fakturs[100].Status)
	assert.Equal(t, 300000.0, env.fakturs[200].AmountPaid)
	assert.Equal(t, string(invoice.StatusPartial), env.fakturs[200].Status)

	entries := env.entriesFor(updated.ID)
	require.Len(t, entries, 1, "old journal voided, one new entry")
	assert.Equal(t, 300000.0, entries[0].Lines[0].Debit)
}

func TestDeleteRevertsPayments(t *testing.T) {
	env := seededEnv()
	svc := newTestService(env)

	rec, err := svc.Create(context.Background(), 1, 7, receiptRequest(1000000))
	require.NoError(t, err)
	require.Equal(t, string(invoice.StatusPaid), env.fakturs[100].Status)

	require.NoError(t, svc.Delete(context.Background(), rec.ID, 7))
	assert.Equal(t, 0.0, env.fakturs[100].AmountPaid)
	assert.Equal(t, string(invoice.StatusUnpaid), env.fakturs[100].Status)
	assert.Empty(t, env.entriesFor(rec.ID))
	assert.Empty(t, env.receipts)
}
