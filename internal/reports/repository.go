package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/artha-erp/artha-erp/internal/invoice"
)

// Repository runs the read-only report aggregations.
type Repository interface {
	OutstandingFakturs(ctx context.Context, companyID int64) ([]OutstandingFaktur, error)
	SalesByMonth(ctx context.Context, companyID int64, from, to time.Time) ([]SalesSummaryRow, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) OutstandingFakturs(ctx context.Context, companyID int64) ([]OutstandingFaktur, error) {
	rows, err := r.pool.Query(ctx, `SELECT f.customer_id, COALESCE(c.name,''), f.faktur_date, f.due_date, f.balance_due
FROM fakturs f
LEFT JOIN customers c ON c.id = f.customer_id
WHERE f.company_id=$1 AND f.status IN ($2,$3,$4) AND f.balance_due > 0
ORDER BY f.customer_id, f.faktur_date`,
		companyID, invoice.StatusUnpaid, invoice.StatusPartial, invoice.StatusOverdue)
	if err != nil {
		return nil, fmt.Errorf("reports: outstanding fakturs: %w", err)
	}
	defer rows.Close()

	var out []OutstandingFaktur
	for rows.Next() {
		var f OutstandingFaktur
		if err := rows.Scan(&f.CustomerID, &f.CustomerName, &f.FakturDate, &f.DueDate, &f.BalanceDue); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (r *repository) SalesByMonth(ctx context.Context, companyID int64, from, to time.Time) ([]SalesSummaryRow, error) {
	rows, err := r.pool.Query(ctx, `SELECT to_char(date_trunc('month', faktur_date), 'YYYY-MM') AS period,
COUNT(*), COALESCE(SUM(subtotal),0), COALESCE(SUM(tax_amount),0), COALESCE(SUM(total_amount),0),
COALESCE(SUM(amount_paid),0), COALESCE(SUM(balance_due),0)
FROM fakturs
WHERE company_id=$1 AND status NOT IN ($2,$3) AND faktur_date >= $4 AND faktur_date < $5
GROUP BY 1 ORDER BY 1`,
		companyID, invoice.StatusDraft, invoice.StatusCancelled, from, to)
	if err != nil {
		return nil, fmt.Errorf("reports: sales by month: %w", err)
	}
	defer rows.Close()

	var out []SalesSummaryRow
	for rows.Next() {
		var s SalesSummaryRow
		if err := rows.Scan(&s.Period, &s.FakturCount, &s.Subtotal, &s.TaxAmount, &s.TotalAmount,
			&s.AmountPaid, &s.Outstanding); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
