package reports

import (
	"context"
	"log/slog"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type mockRepo struct {
	outstanding      []OutstandingFaktur
	outstandingCalls int
	sales            []SalesSummaryRow
	salesCalls       int
}

func (m *mockRepo) OutstandingFakturs(ctx context.Context, companyID int64) ([]OutstandingFaktur, error) {
	m.outstandingCalls++
	return m.outstanding, nil
}

func (m *mockRepo) SalesByMonth(ctx context.Context, companyID int64, from, to time.Time) ([]SalesSummaryRow, error) {
	m.salesCalls++
	return m.sales, nil
}

func newTestService(t *testing.T, repo Repository) (*Service, func()) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewCache(client, time.Minute)
	svc := NewService(repo, cache, slog.Default())
	return svc, func() {
		_ = client.Close()
		mr.Close()
	}
}

func datePtr(t time.Time) *time.Time { return &t }

func TestARAgingBuckets(t *testing.T) {
	asOf := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	repo := &mockRepo{outstanding: []OutstandingFaktur{
		{CustomerID: 1, CustomerName: "PT Maju", FakturDate: asOf.AddDate(0, 0, -5),
			DueDate: datePtr(asOf.AddDate(0, 0, 10)), BalanceDue: 100},
		{CustomerID: 1, CustomerName: "PT Maju", FakturDate: asOf.AddDate(0, 0, -40),
			DueDate: datePtr(asOf.AddDate(0, 0, -10)), BalanceDue: 200},
		{CustomerID: 2, CustomerName: "CV Sentosa", FakturDate: asOf.AddDate(0, 0, -75),
			DueDate: datePtr(asOf.AddDate(0, 0, -45)), BalanceDue: 300},
		{CustomerID: 2, CustomerName: "CV Sentosa", FakturDate: asOf.AddDate(0, 0, -200),
			DueDate: datePtr(asOf.AddDate(0, 0, -170)), BalanceDue: 400},
		// No due date: ages from the faktur date.
		{CustomerID: 2, CustomerName: "CV Sentosa", FakturDate: asOf.AddDate(0, 0, -70), BalanceDue: 50},
	}}
	svc, cleanup := newTestService(t, repo)
	defer cleanup()

	report, err := svc.ARAging(context.Background(), 1, asOf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(report.Rows) != 2 {
		t.Fatalf("expected 2 rows got %d", len(report.Rows))
	}

	maju := report.Rows[0]
	if maju.Current != 100 || maju.Days30 != 200 || maju.Total != 300 {
		t.Fatalf("unexpected maju buckets: %+v", maju)
	}
	sentosa := report.Rows[1]
	if sentosa.Days60 != 300 || sentosa.Days120 != 450 || sentosa.Total != 750 {
		t.Fatalf("unexpected sentosa buckets: %+v", sentosa)
	}
	if report.Totals.Total != 1050 {
		t.Fatalf("expected grand total 1050 got %.2f", report.Totals.Total)
	}
	if report.Totals.TotalDisplay == "" {
		t.Fatalf("expected formatted total")
	}
}

func TestARAgingCachesUntilBump(t *testing.T) {
	asOf := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	repo := &mockRepo{outstanding: []OutstandingFaktur{
		{CustomerID: 1, CustomerName: "PT Maju", FakturDate: asOf, DueDate: datePtr(asOf), BalanceDue: 100},
	}}
	svc, cleanup := newTestService(t, repo)
	defer cleanup()

	ctx := context.Background()
	if _, err := svc.ARAging(ctx, 1, asOf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.ARAging(ctx, 1, asOf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.outstandingCalls != 1 {
		t.Fatalf("expected cached result, repo called %d times", repo.outstandingCalls)
	}

	svc.Invalidate(ctx)
	repo.outstanding[0].BalanceDue = 250
	report, err := svc.ARAging(ctx, 1, asOf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.outstandingCalls != 2 {
		t.Fatalf("expected repo to refresh, calls %d", repo.outstandingCalls)
	}
	if report.Totals.Total != 250 {
		t.Fatalf("expected refreshed total 250 got %.2f", report.Totals.Total)
	}
}

func TestSalesSummaryNormalisesRange(t *testing.T) {
	repo := &mockRepo{sales: []SalesSummaryRow{
		{Period: "2025-01", FakturCount: 3, TotalAmount: 3000000, AmountPaid: 2000000, Outstanding: 1000000},
		{Period: "2025-02", FakturCount: 1, TotalAmount: 500000, AmountPaid: 500000},
	}}
	svc, cleanup := newTestService(t, repo)
	defer cleanup()

	from := time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 2, 5, 0, 0, 0, 0, time.UTC)
	report, err := svc.SalesSummary(context.Background(), 1, from, to)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !report.From.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected from snapped to month start, got %v", report.From)
	}
	if !report.To.Equal(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected to snapped past end month, got %v", report.To)
	}
	if len(report.Rows) != 2 {
		t.Fatalf("expected 2 rows got %d", len(report.Rows))
	}
	if report.Rows[0].TotalDisplay == "" || report.Rows[0].OutstandingDisplay == "" {
		t.Fatalf("expected formatted amounts")
	}

	if _, err := svc.SalesSummary(context.Background(), 1, to, from); err == nil {
		t.Fatalf("expected inverted range to fail")
	}
}
