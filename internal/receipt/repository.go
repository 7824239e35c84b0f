package receipt

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/artha-erp/artha-erp/internal/invoice"
	"github.com/artha-erp/artha-erp/internal/journal"
	"github.com/artha-erp/artha-erp/internal/platform/db"
	"github.com/artha-erp/artha-erp/internal/shared"
)

// TxRepository is the transaction-scoped persistence surface of a receipt
// posting. Journal hands the same transaction to the journal engine.
type TxRepository interface {
	InsertReceipt(ctx context.Context, rec *Receipt) error
	UpdateReceipt(ctx context.Context, rec *Receipt) error
	DeleteReceipt(ctx context.Context, id int64) error
	GetReceiptForUpdate(ctx context.Context, id int64) (*Receipt, error)
	InsertLines(ctx context.Context, receiptID int64, lines []ReceiptLine) error
	DeleteLines(ctx context.Context, receiptID int64) error
	FakturForUpdate(ctx context.Context, fakturID int64) (*AllocTarget, error)
	UpdateFakturPayment(ctx context.Context, fakturID int64, amountPaid, balanceDue float64, status invoice.Status) error
	AccountExists(ctx context.Context, accountID int64) (bool, error)
	ReceiptNumberExists(ctx context.Context, companyID int64, number string) (bool, error)

	Journal() journal.Store
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

// GetReceipt loads a receipt with its allocation lines.
func (r *Repository) GetReceipt(ctx context.Context, id int64) (*Receipt, error) {
	var rec Receipt
	err := r.pool.QueryRow(ctx, `SELECT r.id, r.company_id, r.receipt_number, r.receipt_date, r.customer_id,
COALESCE(c.name, ''), r.bank_account_id, r.total_amount, COALESCE(r.notes, ''), r.created_by, r.created_at, r.updated_at
FROM sales_receipts r LEFT JOIN customers c ON c.id = r.customer_id
WHERE r.id = $1`, id).
		Scan(&rec.ID, &rec.CompanyID, &rec.ReceiptNumber, &rec.ReceiptDate, &rec.CustomerID,
			&rec.CustomerName, &rec.BankAccountID, &rec.TotalAmount, &rec.Notes, &rec.CreatedBy, &rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.NotFound("receipt", id)
	}
	if err != nil {
		return nil, fmt.Errorf("receipt: get receipt: %w", err)
	}

	rows, err := r.pool.Query(ctx, `SELECT l.id, l.receipt_id, l.faktur_id, COALESCE(f.faktur_number, ''), l.amount_applied
FROM sales_receipt_lines l LEFT JOIN fakturs f ON f.id = l.faktur_id
WHERE l.receipt_id = $1 ORDER BY l.id`, id)
	if err != nil {
		return nil, fmt.Errorf("receipt: load lines: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var line ReceiptLine
		if err := rows.Scan(&line.ID, &line.ReceiptID, &line.FakturID, &line.FakturNumber, &line.AmountApplied); err != nil {
			return nil, err
		}
		rec.Lines = append(rec.Lines, line)
	}
	return &rec, rows.Err()
}

// ListReceipts returns a page of receipts plus the unpaged total.
func (r *Repository) ListReceipts(ctx context.Context, companyID int64, req ListReceiptRequest) ([]Receipt, int, error) {
	where := "r.company_id = $1"
	args := []any{companyID}
	if req.CustomerID != 0 {
		args = append(args, req.CustomerID)
		where += fmt.Sprintf(" AND r.customer_id = $%d", len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM sales_receipts r WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("receipt: count receipts: %w", err)
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
	query := fmt.Sprintf(`SELECT r.id, r.company_id, r.receipt_number, r.receipt_date, r.customer_id,
COALESCE(c.name, ''), r.bank_account_id, r.total_amount, COALESCE(r.notes, ''), r.created_by, r.created_at, r.updated_at
FROM sales_receipts r LEFT JOIN customers c ON c.id = r.customer_id
WHERE %s ORDER BY r.receipt_date DESC, r.id DESC LIMIT $%d OFFSET $%d`, where, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("receipt: list receipts: %w", err)
	}
	defer rows.Close()

	receipts := make([]Receipt, 0, perPage)
	for rows.Next() {
		var rec Receipt
		if err := rows.Scan(&rec.ID, &rec.CompanyID, &rec.ReceiptNumber, &rec.ReceiptDate, &rec.CustomerID,
			&rec.CustomerName, &rec.BankAccountID, &rec.TotalAmount, &rec.Notes, &rec.CreatedBy, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, 0, err
		}
		receipts = append(receipts, rec)
	}
	return receipts, total, rows.Err()
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) Journal() journal.Store { return journal.NewStore(r.tx) }

func (r *txRepository) InsertReceipt(ctx context.Context, rec *Receipt) error {
	err := r.tx.QueryRow(ctx, `INSERT INTO sales_receipts (company_id, receipt_number, receipt_date, customer_id,
bank_account_id, total_amount, notes, created_by)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8) RETURNING id, created_at, updated_at`,
		rec.CompanyID, rec.ReceiptNumber, rec.ReceiptDate, rec.CustomerID,
		rec.BankAccountID, rec.TotalAmount, rec.Notes, rec.CreatedBy).
		Scan(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt)
	return mapPgError("receipt: insert receipt", err)
}

func (r *txRepository) UpdateReceipt(ctx context.Context, rec *Receipt) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE sales_receipts SET receipt_date=$2, customer_id=$3, bank_account_id=$4,
total_amount=$5, notes=$6, updated_at=NOW() WHERE id=$1`,
		rec.ID, rec.ReceiptDate, rec.CustomerID, rec.BankAccountID, rec.TotalAmount, rec.Notes)
	if err != nil {
		return mapPgError("receipt: update receipt", err)
	}
	if cmd.RowsAffected() == 0 {
		return shared.NotFound("receipt", rec.ID)
	}
	return nil
}

func (r *txRepository) DeleteReceipt(ctx context.Context, id int64) error {
	_, err := r.tx.Exec(ctx, `DELETE FROM sales_receipts WHERE id=$1`, id)
	return err
}

func (r *txRepository) GetReceiptForUpdate(ctx context.Context, id int64) (*Receipt, error) {
	var rec Receipt
	err := r.tx.QueryRow(ctx, `SELECT id, company_id, receipt_number, receipt_date, customer_id, bank_account_id,
total_amount, COALESCE(notes, ''), created_by, created_at, updated_at
FROM sales_receipts WHERE id=$1 FOR UPDATE`, id).
		Scan(&rec.ID, &rec.CompanyID, &rec.ReceiptNumber, &rec.ReceiptDate, &rec.CustomerID, &rec.BankAccountID,
			&rec.TotalAmount, &rec.Notes, &rec.CreatedBy, &rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.NotFound("receipt", id)
	}
	if err != nil {
		return nil, fmt.Errorf("receipt: lock receipt: %w", err)
	}

	rows, err := r.tx.Query(ctx, `SELECT id, receipt_id, faktur_id, amount_applied
FROM sales_receipt_lines WHERE receipt_id = $1 ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("receipt: load lines: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var line ReceiptLine
		if err := rows.Scan(&line.ID, &line.ReceiptID, &line.FakturID, &line.AmountApplied); err != nil {
			return nil, err
		}
		rec.Lines = append(rec.Lines, line)
	}
	return &rec, rows.Err()
}

func (r *txRepository) InsertLines(ctx context.Context, receiptID int64, lines []ReceiptLine) error {
	for i := range lines {
		line := &lines[i]
		line.ReceiptID = receiptID
		err := r.tx.QueryRow(ctx, `INSERT INTO sales_receipt_lines (receipt_id, faktur_id, amount_applied)
VALUES ($1,$2,$3) RETURNING id`, receiptID, line.FakturID, line.AmountApplied).Scan(&line.ID)
		if err != nil {
			return mapPgError("receipt: insert line", err)
		}
	}
	return nil
}

func (r *txRepository) DeleteLines(ctx context.Context, receiptID int64) error {
	_, err := r.tx.Exec(ctx, `DELETE FROM sales_receipt_lines WHERE receipt_id=$1`, receiptID)
	return err
}

// FakturForUpdate locks the faktur row so concurrent receipts serialize on it.
func (r *txRepository) FakturForUpdate(ctx context.Context, fakturID int64) (*AllocTarget, error) {
	var target AllocTarget
	err := r.tx.QueryRow(ctx, `SELECT id, faktur_number, customer_id, total_amount, amount_paid, status
FROM fakturs WHERE id=$1 FOR UPDATE`, fakturID).
		Scan(&target.ID, &target.FakturNumber, &target.CustomerID, &target.TotalAmount, &target.AmountPaid, &target.Status)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.NotFound("faktur", fakturID)
	}
	if err != nil {
		return nil, fmt.Errorf("receipt: lock faktur: %w", err)
	}
	return &target, nil
}

func (r *txRepository) UpdateFakturPayment(ctx context.Context, fakturID int64, amountPaid, balanceDue float64, status invoice.Status) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE fakturs SET amount_paid=$2, balance_due=$3, status=$4, updated_at=NOW() WHERE id=$1`,
		fakturID, amountPaid, balanceDue, status)
	if err != nil {
		return fmt.Errorf("receipt: update faktur payment: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return shared.NotFound("faktur", fakturID)
	}
	return nil
}

func (r *txRepository) AccountExists(ctx context.Context, accountID int64) (bool, error) {
	var exists bool
	err := r.tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM accounts WHERE id=$1)`, accountID).Scan(&exists)
	return exists, err
}

func (r *txRepository) ReceiptNumberExists(ctx context.Context, companyID int64, number string) (bool, error) {
	var exists bool
	err := r.tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM sales_receipts WHERE company_id=$1 AND receipt_number=$2)`,
		companyID, number).Scan(&exists)
	return exists, err
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
