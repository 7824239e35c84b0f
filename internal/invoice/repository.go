package invoice

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/artha-erp/artha-erp/internal/journal"
	"github.com/artha-erp/artha-erp/internal/platform/db"
	"github.com/artha-erp/artha-erp/internal/shared"
	"github.com/artha-erp/artha-erp/internal/stock"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// TxRepository is the transaction-scoped persistence surface of a faktur
// posting. Journal and Stock hand the same transaction to the engines, so the
// whole document commits or rolls back as one.
type TxRepository interface {
	InsertFaktur(ctx context.Context, f *Faktur) error
	UpdateFaktur(ctx context.Context, f *Faktur) error
	UpdateStatus(ctx context.Context, id int64, status Status) error
	DeleteFaktur(ctx context.Context, id int64) error
	GetFakturForUpdate(ctx context.Context, id int64) (*Faktur, error)
	InsertLines(ctx context.Context, fakturID int64, lines []FakturLine) error
	DeleteLines(ctx context.Context, fakturID int64) error
	InsertCosts(ctx context.Context, fakturID int64, costs []FakturCost) error
	DeleteCosts(ctx context.Context, fakturID int64) error
	FakturNumberExists(ctx context.Context, companyID int64, number string) (bool, error)
	MissingAccounts(ctx context.Context, ids []int64) ([]int64, error)
	CountReceiptLines(ctx context.Context, fakturID int64) (int64, error)

	Journal() journal.Store
	Stock() stock.Store
}

// Repository owns pool-level reads and opens document transactions.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds Repository instance.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// WithTx runs fn inside a document transaction and hands it a TxRepository
// bound to that transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(ctx context.Context, tx TxRepository) error) error {
	return db.WithDocumentTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

// GetFaktur loads a faktur with its lines, costs and customer name.
func (r *Repository) GetFaktur(ctx context.Context, id int64) (*Faktur, error) {
	f, err := scanFaktur(r.pool.QueryRow(ctx, `SELECT f.id, f.company_id, f.faktur_number, f.faktur_date, f.due_date,
f.customer_id, COALESCE(c.name, ''), COALESCE(f.payment_terms, ''), f.subtotal, f.tax_amount, f.tax_inclusive,
f.total_amount, f.amount_paid, f.balance_due, f.status, COALESCE(f.notes, ''), f.created_by, f.created_at, f.updated_at
FROM fakturs f LEFT JOIN customers c ON c.id = f.customer_id
WHERE f.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.NotFound("faktur", id)
	}
	if err != nil {
		return nil, fmt.Errorf("invoice: get faktur: %w", err)
	}

	if f.Lines, err = r.loadLines(ctx, id); err != nil {
		return nil, err
	}
	if f.Costs, err = r.loadCosts(ctx, id); err != nil {
		return nil, err
	}
	return f, nil
}

// ListFakturs returns a page of fakturs plus the unpaged total.
func (r *Repository) ListFakturs(ctx context.Context, companyID int64, req ListFakturRequest) ([]Faktur, int, error) {
	where := "f.company_id = $1"
	args := []any{companyID}
	if req.Status != "" {
		args = append(args, req.Status)
		where += fmt.Sprintf(" AND f.status = $%d", len(args))
	}
	if req.CustomerID != 0 {
		args = append(args, req.CustomerID)
		where += fmt.Sprintf(" AND f.customer_id = $%d", len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM fakturs f WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("invoice: count fakturs: %w", err)
	}

	perPage := req.PerPage
	if perPage <= 0 {
		perPage = 20
	}
	page := req.Page
	if page <= 0 {
		page = 1
	}
	args = append(args, perPage, (page-1)*perPage)
	query := fmt.Sprintf(`SELECT f.id, f.company_id, f.faktur_number, f.faktur_date, f.due_date,
f.customer_id, COALESCE(c.name, ''), COALESCE(f.payment_terms, ''), f.subtotal, f.tax_amount, f.tax_inclusive,
f.total_amount, f.amount_paid, f.balance_due, f.status, COALESCE(f.notes, ''), f.created_by, f.created_at, f.updated_at
FROM fakturs f LEFT JOIN customers c ON c.id = f.customer_id
WHERE %s ORDER BY f.faktur_date DESC, f.id DESC LIMIT $%d OFFSET $%d`, where, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("invoice: list fakturs: %w", err)
	}
	defer rows.Close()

	fakturs := make([]Faktur, 0, perPage)
	for rows.Next() {
		f, err := scanFaktur(rows)
		if err != nil {
			return nil, 0, err
		}
		fakturs = append(fakturs, *f)
	}
	return fakturs, total, rows.Err()
}

func (r *Repository) loadLines(ctx context.Context, fakturID int64) ([]FakturLine, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, faktur_id, item_id, warehouse_id, COALESCE(description, ''),
quantity, unit_price, discount_amount, amount
FROM faktur_lines WHERE faktur_id = $1 ORDER BY id`, fakturID)
	if err != nil {
		return nil, fmt.Errorf("invoice: load lines: %w", err)
	}
	defer rows.Close()

	var lines []FakturLine
	for rows.Next() {
		var line FakturLine
		if err := rows.Scan(&line.ID, &line.FakturID, &line.ItemID, &line.WarehouseID, &line.Description,
			&line.Quantity, &line.UnitPrice, &line.DiscountAmount, &line.Amount); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

func (r *Repository) loadCosts(ctx context.Context, fakturID int64) ([]FakturCost, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, faktur_id, account_id, amount, COALESCE(notes, '')
FROM faktur_costs WHERE faktur_id = $1 ORDER BY id`, fakturID)
	if err != nil {
		return nil, fmt.Errorf("invoice: load costs: %w", err)
	}
	defer rows.Close()

	var costs []FakturCost
	for rows.Next() {
		var cost FakturCost
		if err := rows.Scan(&cost.ID, &cost.FakturID, &cost.AccountID, &cost.Amount, &cost.Notes); err != nil {
			return nil, err
		}
		costs = append(costs, cost)
	}
	return costs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFaktur(row rowScanner) (*Faktur, error) {
	var f Faktur
	err := row.Scan(&f.ID, &f.CompanyID, &f.FakturNumber, &f.FakturDate, &f.DueDate,
		&f.CustomerID, &f.CustomerName, &f.PaymentTerms, &f.Subtotal, &f.TaxAmount, &f.TaxInclusive,
		&f.TotalAmount, &f.AmountPaid, &f.BalanceDue, &f.Status, &f.Notes, &f.CreatedBy, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) Journal() journal.Store { return journal.NewStore(r.tx) }
func (r *txRepository) Stock() stock.Store     { return stock.NewStore(r.tx) }

func (r *txRepository) InsertFaktur(ctx context.Context, f *Faktur) error {
	err := r.tx.QueryRow(ctx, `INSERT INTO fakturs (company_id, faktur_number, faktur_date, due_date, customer_id,
payment_terms, subtotal, tax_amount, tax_inclusive, total_amount, amount_paid, balance_due, status, notes, created_by)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
RETURNING id, created_at, updated_at`,
		f.CompanyID, f.FakturNumber, f.FakturDate, f.DueDate, f.CustomerID,
		f.PaymentTerms, f.Subtotal, f.TaxAmount, f.TaxInclusive, f.TotalAmount,
		f.AmountPaid, f.BalanceDue, f.Status, f.Notes, f.CreatedBy).
		Scan(&f.ID, &f.CreatedAt, &f.UpdatedAt)
	return mapPgError("invoice: insert faktur", err)
}

func (r *txRepository) UpdateFaktur(ctx context.Context, f *Faktur) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE fakturs SET faktur_date=$2, due_date=$3, customer_id=$4, payment_terms=$5,
subtotal=$6, tax_amount=$7, tax_inclusive=$8, total_amount=$9, amount_paid=$10, balance_due=$11, status=$12,
notes=$13, updated_at=NOW() WHERE id=$1`,
		f.ID, f.FakturDate, f.DueDate, f.CustomerID, f.PaymentTerms,
		f.Subtotal, f.TaxAmount, f.TaxInclusive, f.TotalAmount, f.AmountPaid, f.BalanceDue, f.Status, f.Notes)
	if err != nil {
		return mapPgError("invoice: update faktur", err)
	}
	if cmd.RowsAffected() == 0 {
		return shared.NotFound("faktur", f.ID)
	}
	return nil
}

func (r *txRepository) UpdateStatus(ctx context.Context, id int64, status Status) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE fakturs SET status=$2, updated_at=NOW() WHERE id=$1`, id, status)
	if err != nil {
		return fmt.Errorf("invoice: update status: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return shared.NotFound("faktur", id)
	}
	return nil
}

func (r *txRepository) DeleteFaktur(ctx context.Context, id int64) error {
	_, err := r.tx.Exec(ctx, `DELETE FROM fakturs WHERE id=$1`, id)
	return mapPgError("invoice: delete faktur", err)
}

// GetFakturForUpdate locks the header row and loads the lines. Edits and
// deletes run against this snapshot for the rest of the transaction.
func (r *txRepository) GetFakturForUpdate(ctx context.Context, id int64) (*Faktur, error) {
	var f Faktur
	err := r.tx.QueryRow(ctx, `SELECT id, company_id, faktur_number, faktur_date, due_date, customer_id,
COALESCE(payment_terms, ''), subtotal, tax_amount, tax_inclusive, total_amount, amount_paid, balance_due,
status, COALESCE(notes, ''), created_by, created_at, updated_at
FROM fakturs WHERE id=$1 FOR UPDATE`, id).
		Scan(&f.ID, &f.CompanyID, &f.FakturNumber, &f.FakturDate, &f.DueDate, &f.CustomerID,
			&f.PaymentTerms, &f.Subtotal, &f.TaxAmount, &f.TaxInclusive, &f.TotalAmount, &f.AmountPaid, &f.BalanceDue,
			&f.Status, &f.Notes, &f.CreatedBy, &f.CreatedAt, &f.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.NotFound("faktur", id)
	}
	if err != nil {
		return nil, fmt.Errorf("invoice: lock faktur: %w", err)
	}

	rows, err := r.tx.Query(ctx, `SELECT id, faktur_id, item_id, warehouse_id, COALESCE(description, ''),
quantity, unit_price, discount_amount, amount
FROM faktur_lines WHERE faktur_id = $1 ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("invoice: load lines: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var line FakturLine
		if err := rows.Scan(&line.ID, &line.FakturID, &line.ItemID, &line.WarehouseID, &line.Description,
			&line.Quantity, &line.UnitPrice, &line.DiscountAmount, &line.Amount); err != nil {
			return nil, err
		}
		f.Lines = append(f.Lines, line)
	}
	return &f, rows.Err()
}

func (r *txRepository) InsertLines(ctx context.Context, fakturID int64, lines []FakturLine) error {
	for i := range lines {
		line := &lines[i]
		line.FakturID = fakturID
		err := r.tx.QueryRow(ctx, `INSERT INTO faktur_lines (faktur_id, item_id, warehouse_id, description,
quantity, unit_price, discount_amount, amount)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8) RETURNING id`,
			fakturID, line.ItemID, line.WarehouseID, line.Description,
			line.Quantity, line.UnitPrice, line.DiscountAmount, line.Amount).Scan(&line.ID)
		if err != nil {
			return mapPgError("invoice: insert line", err)
		}
	}
	return nil
}

func (r *txRepository) DeleteLines(ctx context.Context, fakturID int64) error {
	_, err := r.tx.Exec(ctx, `DELETE FROM faktur_lines WHERE faktur_id=$1`, fakturID)
	return err
}

func (r *txRepository) InsertCosts(ctx context.Context, fakturID int64, costs []FakturCost) error {
	for i := range costs {
		cost := &costs[i]
		cost.FakturID = fakturID
		err := r.tx.QueryRow(ctx, `INSERT INTO faktur_costs (faktur_id, account_id, amount, notes)
VALUES ($1,$2,$3,$4) RETURNING id`, fakturID, cost.AccountID, cost.Amount, cost.Notes).Scan(&cost.ID)
		if err != nil {
			return mapPgError("invoice: insert cost", err)
		}
	}
	return nil
}

func (r *txRepository) DeleteCosts(ctx context.Context, fakturID int64) error {
	_, err := r.tx.Exec(ctx, `DELETE FROM faktur_costs WHERE faktur_id=$1`, fakturID)
	return err
}

func (r *txRepository) FakturNumberExists(ctx context.Context, companyID int64, number string) (bool, error) {
	var exists bool
	err := r.tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM fakturs WHERE company_id=$1 AND faktur_number=$2)`,
		companyID, number).Scan(&exists)
	return exists, err
}

// MissingAccounts returns the subset of ids with no accounts row.
func (r *txRepository) MissingAccounts(ctx context.Context, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.tx.Query(ctx, `SELECT wanted.id FROM unnest($1::bigint[]) AS wanted(id)
LEFT JOIN accounts a ON a.id = wanted.id WHERE a.id IS NULL`, ids)
	if err != nil {
		return nil, fmt.Errorf("invoice: check accounts: %w", err)
	}
	defer rows.Close()

	var missing []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		missing = append(missing, id)
	}
	return missing, rows.Err()
}

func (r *txRepository) CountReceiptLines(ctx context.Context, fakturID int64) (int64, error) {
	var count int64
	err := r.tx.QueryRow(ctx, `SELECT COUNT(*) FROM sales_receipt_lines WHERE faktur_id=$1`, fakturID).Scan(&count)
	return count, err
}

// mapPgError turns constraint violations into domain errors so handlers can
// answer 409 instead of 500.
func mapPgError(op string, err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return shared.Duplicate("%s: %s", op, pgErr.ConstraintName)
		case pgForeignKeyViolation:
			return shared.ReferentialIntegrity("%s: %s", op, pgErr.ConstraintName)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
