package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/artha-erp/artha-erp/internal/invoice"
)

// CacheBumper invalidates report caches after a batch of status flips.
type CacheBumper interface {
	Bump(ctx context.Context) error
}

// OverdueScanJob marks unpaid fakturs past their due date as OVERDUE. This is
// the only writer of that status; request handlers never set it.
type OverdueScanJob struct {
	Pool   *pgxpool.Pool
	Logger *slog.Logger
	Cache  CacheBumper
	clock  func() time.Time
}

// NewOverdueScanJob initialises the overdue scan handler.
func NewOverdueScanJob(pool *pgxpool.Pool, logger *slog.Logger, cache CacheBumper) *OverdueScanJob {
	return &OverdueScanJob{
		Pool:   pool,
		Logger: logger,
		Cache:  cache,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes the overdue scan.
func (j *OverdueScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Pool == nil {
		return errors.New("overdue scan: handler not configured")
	}
	var payload OverdueScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.GraceDays < 0 {
		payload.GraceDays = 0
	}

	start := j.now()
	cutoff := start.AddDate(0, 0, -payload.GraceDays)
	logger := j.logger().With(slog.Int("grace_days", payload.GraceDays))
	logger.Info("starting overdue scan")

	cmd, err := j.Pool.Exec(ctx, `UPDATE fakturs SET status=$1, updated_at=NOW()
WHERE status IN ($2,$3) AND due_date IS NOT NULL AND due_date < $4`,
		invoice.StatusOverdue, invoice.StatusUnpaid, invoice.StatusPartial, cutoff)
	if err != nil {
		logger.Error("scan failed", slog.Any("error", err))
		return err
	}

	flipped := cmd.RowsAffected()
	if flipped > 0 && j.Cache != nil {
		if err := j.Cache.Bump(ctx); err != nil {
			logger.Warn("report cache bump failed", slog.Any("error", err))
		}
	}

	logger.Info("completed overdue scan",
		slog.Int64("flipped", flipped),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}

func (j *OverdueScanJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskInvoiceOverdueScan))
	}
	return slog.Default().With(slog.String("job", TaskInvoiceOverdueScan))
}

func (j *OverdueScanJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
