package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/artha-erp/artha-erp/internal/accounts"
	"github.com/artha-erp/artha-erp/internal/auth"
	"github.com/artha-erp/artha-erp/internal/invoice"
	"github.com/artha-erp/artha-erp/internal/masterdata"
	"github.com/artha-erp/artha-erp/internal/receipt"
	"github.com/artha-erp/artha-erp/internal/reports"
	"github.com/artha-erp/artha-erp/internal/shared"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager

	AuthHandler       *auth.Handler
	AccountsHandler   *accounts.Handler
	MasterDataHandler *masterdata.Handler
	InvoiceHandler    *invoice.Handler
	ReceiptHandler    *receipt.Handler
	ReportsHandler    *reports.Handler
}

// NewRouter constructs the chi.Router with Artha defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(api chi.Router) {
		api.Use(auth.SessionLoader(params.Logger, params.SessionManager))

		api.Route("/auth", params.AuthHandler.MountRoutes)

		api.Group(func(priv chi.Router) {
			priv.Use(auth.RequireAuth)

			priv.Route("/accounts", params.AccountsHandler.MountRoutes)
			priv.Route("/master", params.MasterDataHandler.MountRoutes)
			priv.Route("/fakturs", params.InvoiceHandler.MountRoutes)
			priv.Route("/receipts", params.ReceiptHandler.MountRoutes)
			priv.Route("/reports", params.ReportsHandler.MountRoutes)
		})
	})

	return r
}
