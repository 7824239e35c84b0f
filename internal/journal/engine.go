package journal

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Engine builds and voids balanced double-entry records. It holds no database
// handle; every operation works through the transaction-scoped Store supplied by
// the caller, so the engine composes into whatever transaction owns the document.
type Engine struct {
	logger *slog.Logger
	now    func() time.Time
}

// NewEngine constructs the journal engine.
func NewEngine(logger *slog.Logger) *Engine {
	return &Engine{logger: logger, now: time.Now}
}

// WithNow overrides the clock, for tests.
func (e *Engine) WithNow(now func() time.Time) {
	if now != nil {
		e.now = now
	}
}

// CreateEntry validates and persists a journal entry with its lines. When the
// input carries no transaction number one is assigned from the company's monthly
// JV sequence.
func (e *Engine) CreateEntry(ctx context.Context, st Store, in EntryInput) (JournalEntry, error) {
	if err := in.Validate(); err != nil {
		return JournalEntry{}, err
	}

	number := in.TransactionNo
	if number == "" {
		var err error
		number, err = e.nextTransactionNumber(ctx, st, in.CompanyID, in.TransactionDate)
		if err != nil {
			return JournalEntry{}, err
		}
	}

	entry := JournalEntry{
		CompanyID:       in.CompanyID,
		TransactionNo:   number,
		TransactionDate: in.TransactionDate,
		Reference:       in.Reference,
		SourceType:      in.SourceType,
		SourceID:        in.SourceID,
		CreatedBy:       in.CreatedBy,
	}
	if err := st.InsertEntry(ctx, &entry); err != nil {
		return JournalEntry{}, fmt.Errorf("journal: insert entry: %w", err)
	}

	lines := make([]JournalLine, 0, len(in.Lines))
	for _, line := range in.Lines {
		lines = append(lines, JournalLine{
			EntryID:     entry.ID,
			AccountID:   line.AccountID,
			Debit:       line.Debit,
			Credit:      line.Credit,
			Description: line.Description,
		})
	}
	if err := st.InsertLines(ctx, entry.ID, lines); err != nil {
		return JournalEntry{}, fmt.Errorf("journal: insert lines: %w", err)
	}
	entry.Lines = lines
	return entry, nil
}

// nextTransactionNumber assigns JV-YYYYMM-NNNN from an atomic per-company counter,
// so concurrent posters in the same month cannot collide.
func (e *Engine) nextTransactionNumber(ctx context.Context, st Store, companyID int64, date time.Time) (string, error) {
	if date.IsZero() {
		date = e.now()
	}
	prefix := "JV-" + date.Format("200601")
	seq, err := st.NextSequence(ctx, companyID, prefix)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%04d", prefix, seq), nil
}

// PostSalesJournal records the revenue side of an invoice: receivable debit,
// per-line sales credits, and a tax liability credit when tax is due.
func (e *Engine) PostSalesJournal(ctx context.Context, st Store, in SalesJournalInput) (JournalEntry, error) {
	customer, err := st.CustomerAccounts(ctx, in.CustomerID)
	if err != nil {
		return JournalEntry{}, fmt.Errorf("journal: load customer accounts: %w", err)
	}
	items, err := st.ItemAccounts(ctx, itemIDsOfSales(in.Lines))
	if err != nil {
		return JournalEntry{}, fmt.Errorf("journal: load item accounts: %w", err)
	}
	settings, err := st.CompanySettings(ctx, in.CompanyID)
	if err != nil {
		return JournalEntry{}, fmt.Errorf("journal: load company settings: %w", err)
	}

	lines, _, err := SalesLines(in, customer, items, settings)
	if err != nil {
		return JournalEntry{}, err
	}

	return e.CreateEntry(ctx, st, EntryInput{
		CompanyID:       in.CompanyID,
		TransactionDate: in.TransactionDate,
		Reference:       in.Reference,
		SourceType:      SourceFaktur,
		SourceID:        in.SourceID,
		CreatedBy:       in.CreatedBy,
		Lines:           lines,
	})
}

// PostCOGSJournal records cost-of-goods and inventory relief for the stock-tracked
// lines of an invoice. Returns nil when no line could be valued; unresolvable
// lines are logged and skipped, never guessed.
func (e *Engine) PostCOGSJournal(ctx context.Context, st Store, in COGSJournalInput) (*JournalEntry, error) {
	ids := itemIDsOfCOGS(in.Lines)
	costs, err := st.ItemCosts(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("journal: load item costs: %w", err)
	}
	items, err := st.ItemAccounts(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("journal: load item accounts: %w", err)
	}
	customer, err := st.CustomerAccounts(ctx, in.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("journal: load customer accounts: %w", err)
	}

	lines, skipped := COGSLines(in, costs, items, customer)
	for _, reason := range skipped {
		e.logger.Warn("cogs line skipped", slog.Int64("source_id", in.SourceID), slog.String("reason", reason))
	}
	if len(lines) == 0 {
		return nil, nil
	}

	entry, err := e.CreateEntry(ctx, st, EntryInput{
		CompanyID:       in.CompanyID,
		TransactionDate: in.TransactionDate,
		Reference:       in.Reference,
		SourceType:      SourceFaktur,
		SourceID:        in.SourceID,
		CreatedBy:       in.CreatedBy,
		Lines:           lines,
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// VoidBySource deletes every entry tagged with the given source. Voiding a source
// that has no entries is a no-op, which keeps reversal idempotent during edits.
func (e *Engine) VoidBySource(ctx context.Context, st Store, companyID int64, sourceType SourceType, sourceID int64) error {
	n, err := st.DeleteBySource(ctx, companyID, sourceType, sourceID)
	if err != nil {
		return fmt.Errorf("journal: void by source: %w", err)
	}
	if n > 0 {
		e.logger.Debug("journal entries voided",
			slog.String("source_type", string(sourceType)),
			slog.Int64("source_id", sourceID),
			slog.Int64("entries", n))
	}
	return nil
}

func itemIDsOfSales(lines []SalesLine) []int64 {
	ids := make([]int64, 0, len(lines))
	seen := make(map[int64]bool)
	for _, line := range lines {
		if line.ItemID != nil && !seen[*line.ItemID] {
			seen[*line.ItemID] = true
			ids = append(ids, *line.ItemID)
		}
	}
	return ids
}

func itemIDsOfCOGS(lines []COGSLine) []int64 {
	ids := make([]int64, 0, len(lines))
	seen := make(map[int64]bool)
	for _, line := range lines {
		if line.ItemID != nil && !seen[*line.ItemID] {
			seen[*line.ItemID] = true
			ids = append(ids, *line.ItemID)
		}
	}
	return ids
}
