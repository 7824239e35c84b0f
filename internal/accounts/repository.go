package accounts

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/artha-erp/artha-erp/internal/shared"
)

// Repository defines persistence operations for the chart of accounts,
// mappings and company settings.
type Repository interface {
	List(ctx context.Context, companyID int64) ([]Account, error)
	Get(ctx context.Context, id int64) (*Account, error)
	Insert(ctx context.Context, account *Account) error
	Update(ctx context.Context, account *Account) error
	Delete(ctx context.Context, id int64) error
	HasChildren(ctx context.Context, id int64) (bool, error)
	HasJournalLines(ctx context.Context, id int64) (bool, error)

	GetMapping(ctx context.Context, ownerType OwnerType, ownerID int64) (*AccountMapping, error)
	UpsertMapping(ctx context.Context, mapping *AccountMapping) error
	DeleteMapping(ctx context.Context, ownerType OwnerType, ownerID int64) error

	GetSettings(ctx context.Context, companyID int64) (*Settings, error)
	UpsertSettings(ctx context.Context, settings *Settings) error

	CustomersWithoutReceivable(ctx context.Context, companyID int64) ([]int64, error)
	StockItemsWithoutInventory(ctx context.Context, companyID int64) ([]int64, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) List(ctx context.Context, companyID int64) ([]Account, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, company_id, code, name, type, parent_id, level, is_header, is_active, created_at, updated_at
FROM accounts WHERE company_id = $1 ORDER BY code`, companyID)
	if err != nil {
		return nil, fmt.Errorf("accounts: list: %w", err)
	}
	defer rows.Close()

	var accounts []Account
	for rows.Next() {
		var a Account
		if err := rows.Scan(&a.ID, &a.CompanyID, &a.Code, &a.Name, &a.Type, &a.ParentID, &a.Level,
			&a.IsHeader, &a.IsActive, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (*Account, error) {
	var a Account
	err := r.pool.QueryRow(ctx, `SELECT id, company_id, code, name, type, parent_id, level, is_header, is_active, created_at, updated_at
FROM accounts WHERE id = $1`, id).
		Scan(&a.ID, &a.CompanyID, &a.Code, &a.Name, &a.Type, &a.ParentID, &a.Level,
			&a.IsHeader, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.NotFound("account", id)
	}
	if err != nil {
		return nil, fmt.Errorf("accounts: get: %w", err)
	}
	return &a, nil
}

func (r *repository) Insert(ctx context.Context, account *Account) error {
	err := r.pool.QueryRow(ctx, `INSERT INTO accounts (company_id, code, name, type, parent_id, level, is_header, is_active)
VALUES ($1,$2,$3,$4,$5,$6,$7,TRUE) RETURNING id, is_active, created_at, updated_at`,
		account.CompanyID, account.Code, account.Name, account.Type, account.ParentID, account.Level, account.IsHeader).
		Scan(&account.ID, &account.IsActive, &account.CreatedAt, &account.UpdatedAt)
	return mapPgError("accounts: insert", err)
}

func (r *repository) Update(ctx context.Context, account *Account) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE accounts SET name=$2, is_active=$3, updated_at=NOW() WHERE id=$1`,
		account.ID, account.Name, account.IsActive)
	if err != nil {
		return fmt.Errorf("accounts: update: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return shared.NotFound("account", account.ID)
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM accounts WHERE id=$1`, id)
	if err != nil {
		return mapPgError("accounts: delete", err)
	}
	if cmd.RowsAffected() == 0 {
		return shared.NotFound("account", id)
	}
	return nil
}

func (r *repository) HasChildren(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM accounts WHERE parent_id=$1)`, id).Scan(&exists)
	return exists, err
}

func (r *repository) HasJournalLines(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM journal_lines WHERE account_id=$1)`, id).Scan(&exists)
	return exists, err
}

func (r *repository) GetMapping(ctx context.Context, ownerType OwnerType, ownerID int64) (*AccountMapping, error) {
	var m AccountMapping
	err := r.pool.QueryRow(ctx, `SELECT id, owner_type, owner_id, sales_account_id, inventory_account_id,
cogs_account_id, receivable_account_id, updated_at
FROM account_mappings WHERE owner_type=$1 AND owner_id=$2`, ownerType, ownerID).
		Scan(&m.ID, &m.OwnerType, &m.OwnerID, &m.SalesAccountID, &m.InventoryAccountID,
			&m.COGSAccountID, &m.ReceivableAccountID, &m.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.NotFound("account mapping", fmt.Sprintf("%s/%d", ownerType, ownerID))
	}
	if err != nil {
		return nil, fmt.Errorf("accounts: get mapping: %w", err)
	}
	return &m, nil
}

func (r *repository) UpsertMapping(ctx context.Context, mapping *AccountMapping) error {
	err := r.pool.QueryRow(ctx, `INSERT INTO account_mappings (owner_type, owner_id, sales_account_id,
inventory_account_id, cogs_account_id, receivable_account_id)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (owner_type, owner_id) DO UPDATE SET
  sales_account_id = EXCLUDED.sales_account_id,
  inventory_account_id = EXCLUDED.inventory_account_id,
  cogs_account_id = EXCLUDED.cogs_account_id,
  receivable_account_id = EXCLUDED.receivable_account_id,
  updated_at = NOW()
RETURNING id, updated_at`,
		mapping.OwnerType, mapping.OwnerID, mapping.SalesAccountID,
		mapping.InventoryAccountID, mapping.COGSAccountID, mapping.ReceivableAccountID).
		Scan(&mapping.ID, &mapping.UpdatedAt)
	return mapPgError("accounts: upsert mapping", err)
}

func (r *repository) DeleteMapping(ctx context.Context, ownerType OwnerType, ownerID int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM account_mappings WHERE owner_type=$1 AND owner_id=$2`, ownerType, ownerID)
	return err
}

func (r *repository) GetSettings(ctx context.Context, companyID int64) (*Settings, error) {
	var s Settings
	err := r.pool.QueryRow(ctx, `SELECT company_id, tax_account_id, updated_at FROM company_settings WHERE company_id=$1`, companyID).
		Scan(&s.CompanyID, &s.TaxAccountID, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return &Settings{CompanyID: companyID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("accounts: get settings: %w", err)
	}
	return &s, nil
}

func (r *repository) UpsertSettings(ctx context.Context, settings *Settings) error {
	err := r.pool.QueryRow(ctx, `INSERT INTO company_settings (company_id, tax_account_id)
VALUES ($1,$2)
ON CONFLICT (company_id) DO UPDATE SET tax_account_id = EXCLUDED.tax_account_id, updated_at = NOW()
RETURNING updated_at`, settings.CompanyID, settings.TaxAccountID).Scan(&settings.UpdatedAt)
	return mapPgError("accounts: upsert settings", err)
}

func (r *repository) CustomersWithoutReceivable(ctx context.Context, companyID int64) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT c.id FROM customers c
LEFT JOIN account_mappings m ON m.owner_type='CUSTOMER' AND m.owner_id=c.id
WHERE c.company_id=$1 AND (m.id IS NULL OR m.receivable_account_id IS NULL)
ORDER BY c.id`, companyID)
	if err != nil {
		return nil, fmt.Errorf("accounts: customers without receivable: %w", err)
	}
	defer rows.Close()
	return scanIDs(rows)
}

func (r *repository) StockItemsWithoutInventory(ctx context.Context, companyID int64) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT i.id FROM items i
LEFT JOIN account_mappings m ON m.owner_type='ITEM' AND m.owner_id=i.id
WHERE i.company_id=$1 AND i.is_stock_tracked AND (m.id IS NULL OR m.inventory_account_id IS NULL)
ORDER BY i.id`, companyID)
	if err != nil {
		return nil, fmt.Errorf("accounts: items without inventory account: %w", err)
	}
	defer rows.Close()
	return scanIDs(rows)
}

func scanIDs(rows pgx.Rows) ([]int64, error) {
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func mapPgError(op string, err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return shared.Duplicate("%s: %s", op, pgErr.ConstraintName)
		case "23503":
			return shared.ReferentialIntegrity("%s: %s", op, pgErr.ConstraintName)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
