package reports

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/artha-erp/artha-erp/internal/shared"
)

// Service computes read-only aggregations over posted documents.
type Service struct {
	repo    Repository
	cache   *Cache
	logger  *slog.Logger
	printer *message.Printer
	now     func() time.Time
}

// NewService builds Service instance. Amounts are rendered for Indonesian
// locale alongside the raw numbers.
func NewService(repo Repository, cache *Cache, logger *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		cache:   cache,
		logger:  logger,
		printer: message.NewPrinter(language.Indonesian),
		now:     time.Now,
	}
}

// WithNow overrides the clock, for tests.
func (s *Service) WithNow(now func() time.Time) *Service {
	s.now = now
	return s
}

// ARAging groups outstanding faktur balances by days past due, per customer.
func (s *Service) ARAging(ctx context.Context, companyID int64, asOf time.Time) (*ARAgingReport, error) {
	if asOf.IsZero() {
		asOf = s.now().UTC().Truncate(24 * time.Hour)
	}

	loader := func(ctx context.Context) (any, error) {
		fakturs, err := s.repo.OutstandingFakturs(ctx, companyID)
		if err != nil {
			return nil, err
		}
		return s.bucketAging(fakturs, asOf), nil
	}

	key, err := s.cache.BuildKey(ctx, keyARAging(companyID, asOf))
	if err != nil {
		return nil, err
	}
	var report ARAgingReport
	if err := s.cache.FetchJSON(ctx, key, &report, loader); err != nil {
		return nil, err
	}
	return &report, nil
}

// SalesSummary aggregates posted fakturs per calendar month, inclusive of the
// from month and exclusive of the month after to.
func (s *Service) SalesSummary(ctx context.Context, companyID int64, from, to time.Time) (*SalesSummaryReport, error) {
	if from.IsZero() || to.IsZero() || to.Before(from) {
		return nil, shared.Validation("sales summary requires a valid month range")
	}
	from = time.Date(from.Year(), from.Month(), 1, 0, 0, 0, 0, time.UTC)
	to = time.Date(to.Year(), to.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)

	loader := func(ctx context.Context) (any, error) {
		rows, err := s.repo.SalesByMonth(ctx, companyID, from, to)
		if err != nil {
			return nil, err
		}
		for i := range rows {
			rows[i].TotalDisplay = s.formatAmount(rows[i].TotalAmount)
			rows[i].OutstandingDisplay = s.formatAmount(rows[i].Outstanding)
		}
		return &SalesSummaryReport{From: from, To: to, Rows: rows}, nil
	}

	key, err := s.cache.BuildKey(ctx, keySalesSummary(companyID, from, to))
	if err != nil {
		return nil, err
	}
	var report SalesSummaryReport
	if err := s.cache.FetchJSON(ctx, key, &report, loader); err != nil {
		return nil, err
	}
	return &report, nil
}

// Invalidate drops all cached reports. Called after document mutations.
func (s *Service) Invalidate(ctx context.Context) {
	if err := s.cache.Bump(ctx); err != nil {
		s.logger.Warn("report cache bump failed", slog.Any("error", err))
	}
}

func (s *Service) bucketAging(fakturs []OutstandingFaktur, asOf time.Time) *ARAgingReport {
	report := &ARAgingReport{AsOf: asOf}
	index := make(map[int64]int)

	for _, f := range fakturs {
		anchor := f.FakturDate
		if f.DueDate != nil {
			anchor = *f.DueDate
		}
		days := int(asOf.Sub(anchor).Hours() / 24)

		i, ok := index[f.CustomerID]
		if !ok {
			i = len(report.Rows)
			index[f.CustomerID] = i
			report.Rows = append(report.Rows, ARAgingRow{CustomerID: f.CustomerID, CustomerName: f.CustomerName})
		}
		row := &report.Rows[i]

		switch {
		case days <= 0:
			row.Current += f.BalanceDue
			report.Totals.Current += f.BalanceDue
		case days <= 30:
			row.Days30 += f.BalanceDue
			report.Totals.Days30 += f.BalanceDue
		case days <= 60:
			row.Days60 += f.BalanceDue
			report.Totals.Days60 += f.BalanceDue
		case days <= 90:
			row.Days90 += f.BalanceDue
			report.Totals.Days90 += f.BalanceDue
		default:
			row.Days120 += f.BalanceDue
			report.Totals.Days120 += f.BalanceDue
		}
		row.Total += f.BalanceDue
		report.Totals.Total += f.BalanceDue
	}

	for i := range report.Rows {
		report.Rows[i].TotalDisplay = s.formatAmount(report.Rows[i].Total)
	}
	report.Totals.TotalDisplay = s.formatAmount(report.Totals.Total)
	return report
}

func (s *Service) formatAmount(v float64) string {
	return s.printer.Sprintf("Rp %.2f", v)
}
