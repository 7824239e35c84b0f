package journal

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Store exposes the persistence operations the engine needs. Implementations are
// transaction-scoped: the orchestrator owning the database transaction constructs
// one per call, so the engine never touches a shared handle.
type Store interface {
	NextSequence(ctx context.Context, companyID int64, scope string) (int64, error)
	InsertEntry(ctx context.Context, entry *JournalEntry) error
	InsertLines(ctx context.Context, entryID int64, lines []JournalLine) error
	DeleteBySource(ctx context.Context, companyID int64, sourceType SourceType, sourceID int64) (int64, error)

	CustomerAccounts(ctx context.Context, customerID int64) (CustomerAccounts, error)
	ItemAccounts(ctx context.Context, itemIDs []int64) (map[int64]ItemAccounts, error)
	ItemCosts(ctx context.Context, itemIDs []int64) (map[int64]ItemCost, error)
	CompanySettings(ctx context.Context, companyID int64) (CompanySettings, error)
}

// NewStore wraps a pgx transaction as a Store.
func NewStore(tx pgx.Tx) Store {
	return &pgxStore{tx: tx}
}

type pgxStore struct {
	tx pgx.Tx
}

func (s *pgxStore) NextSequence(ctx context.Context, companyID int64, scope string) (int64, error) {
	var next int64
	err := s.tx.QueryRow(ctx, `INSERT INTO document_sequences (company_id, scope, last_value)
VALUES ($1, $2, 1)
ON CONFLICT (company_id, scope) DO UPDATE SET last_value = document_sequences.last_value + 1
RETURNING last_value`, companyID, scope).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("journal: next sequence %s: %w", scope, err)
	}
	return next, nil
}

func (s *pgxStore) InsertEntry(ctx context.Context, entry *JournalEntry) error {
	return s.tx.QueryRow(ctx, `INSERT INTO journal_entries (company_id, transaction_no, transaction_date, reference, source_type, source_id, created_by)
VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING id, created_at`,
		entry.CompanyID, entry.TransactionNo, entry.TransactionDate, entry.Reference,
		entry.SourceType, entry.SourceID, entry.CreatedBy).
		Scan(&entry.ID, &entry.CreatedAt)
}

func (s *pgxStore) InsertLines(ctx context.Context, entryID int64, lines []JournalLine) error {
	for _, line := range lines {
		if _, err := s.tx.Exec(ctx, `INSERT INTO journal_lines (entry_id, account_id, debit, credit, description)
VALUES ($1,$2,$3,$4,$5)`, entryID, line.AccountID, line.Debit, line.Credit, line.Description); err != nil {
			return err
		}
	}
	return nil
}

func (s *pgxStore) DeleteBySource(ctx context.Context, companyID int64, sourceType SourceType, sourceID int64) (int64, error) {
	if _, err := s.tx.Exec(ctx, `DELETE FROM journal_lines WHERE entry_id IN (
SELECT id FROM journal_entries WHERE company_id=$1 AND source_type=$2 AND source_id=$3)`,
		companyID, sourceType, sourceID); err != nil {
		return 0, err
	}
	cmd, err := s.tx.Exec(ctx, `DELETE FROM journal_entries WHERE company_id=$1 AND source_type=$2 AND source_id=$3`,
		companyID, sourceType, sourceID)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (s *pgxStore) CustomerAccounts(ctx context.Context, customerID int64) (CustomerAccounts, error) {
	var accounts CustomerAccounts
	err := s.tx.QueryRow(ctx, `SELECT receivable_account_id, sales_account_id, cogs_account_id
FROM account_mappings WHERE owner_type='CUSTOMER' AND owner_id=$1`, customerID).
		Scan(&accounts.ReceivableAccountID, &accounts.SalesAccountID, &accounts.COGSAccountID)
	if errors.Is(err, pgx.ErrNoRows) {
		return CustomerAccounts{}, nil
	}
	if err != nil {
		return CustomerAccounts{}, err
	}
	return accounts, nil
}

func (s *pgxStore) ItemAccounts(ctx context.Context, itemIDs []int64) (map[int64]ItemAccounts, error) {
	out := make(map[int64]ItemAccounts, len(itemIDs))
	if len(itemIDs) == 0 {
		return out, nil
	}
	rows, err := s.tx.Query(ctx, `SELECT i.id, im.sales_account_id, im.inventory_account_id, im.cogs_account_id, cm.cogs_account_id
FROM items i
LEFT JOIN account_mappings im ON im.owner_type='ITEM' AND im.owner_id=i.id
LEFT JOIN account_mappings cm ON cm.owner_type='CATEGORY' AND cm.owner_id=i.category_id
WHERE i.id = ANY($1)`, itemIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id int64
		var accounts ItemAccounts
		if err := rows.Scan(&id, &accounts.SalesAccountID, &accounts.InventoryAccountID,
			&accounts.COGSAccountID, &accounts.CategoryCOGSAccountID); err != nil {
			return nil, err
		}
		out[id] = accounts
	}
	return out, rows.Err()
}

func (s *pgxStore) ItemCosts(ctx context.Context, itemIDs []int64) (map[int64]ItemCost, error) {
	out := make(map[int64]ItemCost, len(itemIDs))
	if len(itemIDs) == 0 {
		return out, nil
	}
	rows, err := s.tx.Query(ctx, `SELECT id, name, is_stock_tracked, purchase_price, COALESCE(supplier_price, 0)
FROM items WHERE id = ANY($1)`, itemIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id int64
		var cost ItemCost
		if err := rows.Scan(&id, &cost.Name, &cost.StockTracked, &cost.PurchasePrice, &cost.SupplierPrice); err != nil {
			return nil, err
		}
		out[id] = cost
	}
	return out, rows.Err()
}

func (s *pgxStore) CompanySettings(ctx context.Context, companyID int64) (CompanySettings, error) {
	var settings CompanySettings
	err := s.tx.QueryRow(ctx, `SELECT tax_account_id FROM company_settings WHERE company_id=$1`, companyID).
		Scan(&settings.TaxAccountID)
	if errors.Is(err, pgx.ErrNoRows) {
		return CompanySettings{}, nil
	}
	if err != nil {
		return CompanySettings{}, err
	}
	return settings, nil
}
