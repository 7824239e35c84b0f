package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/artha-erp/artha-erp/internal/accounts"
	"github.com/artha-erp/artha-erp/internal/app"
	"github.com/artha-erp/artha-erp/internal/auth"
	"github.com/artha-erp/artha-erp/internal/invoice"
	"github.com/artha-erp/artha-erp/internal/journal"
	"github.com/artha-erp/artha-erp/internal/masterdata"
	"github.com/artha-erp/artha-erp/internal/platform/cache"
	"github.com/artha-erp/artha-erp/internal/platform/db"
	"github.com/artha-erp/artha-erp/internal/receipt"
	"github.com/artha-erp/artha-erp/internal/reports"
	"github.com/artha-erp/artha-erp/internal/shared"
	"github.com/artha-erp/artha-erp/internal/stock"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, cfg.SessionCookie, cfg.SessionTTL, cfg.IsProduction())
	auditLogger := shared.NewAuditLogger(pool)

	journalEngine := journal.NewEngine(logger)
	stockLedger := stock.NewLedger(logger)

	authService := auth.NewService(auth.NewRepository(pool))
	authHandler := auth.NewHandler(logger, authService, sessionManager)

	accountsService := accounts.NewService(accounts.NewRepository(pool))
	accountsHandler := accounts.NewHandler(logger, accountsService)

	masterService := masterdata.NewService(masterdata.NewRepository(pool))
	masterHandler := masterdata.NewHandler(logger, masterService)

	invoiceService := invoice.NewService(invoice.NewRepository(pool), journalEngine, stockLedger, auditLogger, logger)
	invoiceHandler := invoice.NewHandler(logger, invoiceService)

	receiptService := receipt.NewService(receipt.NewRepository(pool), journalEngine, auditLogger, logger)
	receiptHandler := receipt.NewHandler(logger, receiptService)

	reportCache := reports.NewCache(redisClient, cfg.ReportCacheTTL)
	if err := reportCache.ListenForInvalidation(ctx); err != nil {
		logger.Warn("report cache subscribe", slog.Any("error", err))
	}
	reportsService := reports.NewService(reports.NewRepository(pool), reportCache, logger)
	reportsHandler := reports.NewHandler(logger, reportsService)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		SessionManager: sessionManager,

		AuthHandler:       authHandler,
		AccountsHandler:   accountsHandler,
		MasterDataHandler: masterHandler,
		InvoiceHandler:    invoiceHandler,
		ReceiptHandler:    receiptHandler,
		ReportsHandler:    reportsHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http server listening", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server exited", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("server stopped")
}
