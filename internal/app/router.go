package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/awqaf-platform/waqf-ledger/internal/accounts"
	"github.com/awqaf-platform/waqf-ledger/internal/approval"
	"github.com/awqaf-platform/waqf-ledger/internal/budget"
	"github.com/awqaf-platform/waqf-ledger/internal/cashflow"
	"github.com/awqaf-platform/waqf-ledger/internal/closing"
	"github.com/awqaf-platform/waqf-ledger/internal/fiscalyear"
	"github.com/awqaf-platform/waqf-ledger/internal/journal"
	"github.com/awqaf-platform/waqf-ledger/internal/ledger"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger *slog.Logger
	Config *Config
	Pool   *pgxpool.Pool

	AccountsHandler   *accounts.Handler
	FiscalYearHandler *fiscalyear.Handler
	JournalHandler    *journal.Handler
	LedgerHandler     *ledger.Handler
	BudgetHandler     *budget.Handler
	CashFlowHandler   *cashflow.Handler
	ClosingHandler    *closing.Handler
	ApprovalHandler   *approval.Handler
}

// NewRouter constructs the chi.Router with ledger defaults.
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
		if params.Pool != nil {
			if err := params.Pool.Ping(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"status":"degraded"}`))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {
		params.AccountsHandler.MountRoutes(r)
		params.FiscalYearHandler.MountRoutes(r)
		params.JournalHandler.MountRoutes(r)
		params.LedgerHandler.MountRoutes(r)
		params.BudgetHandler.MountRoutes(r)
		params.CashFlowHandler.MountRoutes(r)
		params.ClosingHandler.MountRoutes(r)
		params.ApprovalHandler.MountRoutes(r)
	})

	return r
}
