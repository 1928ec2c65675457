package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/awqaf-platform/waqf-ledger/internal/accounts"
	"github.com/awqaf-platform/waqf-ledger/internal/app"
	"github.com/awqaf-platform/waqf-ledger/internal/approval"
	"github.com/awqaf-platform/waqf-ledger/internal/budget"
	"github.com/awqaf-platform/waqf-ledger/internal/cashflow"
	"github.com/awqaf-platform/waqf-ledger/internal/closing"
	"github.com/awqaf-platform/waqf-ledger/internal/fiscalyear"
	"github.com/awqaf-platform/waqf-ledger/internal/journal"
	"github.com/awqaf-platform/waqf-ledger/internal/ledger"
	"github.com/awqaf-platform/waqf-ledger/internal/platform/cache"
	"github.com/awqaf-platform/waqf-ledger/internal/platform/db"
	"github.com/awqaf-platform/waqf-ledger/internal/shared"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	_ = godotenv.Load()

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
		logger.Warn("redis unavailable, report cache disabled", slog.Any("error", err))
		redisClient = nil
	}
	defer func() {
		if redisClient != nil {
			_ = redisClient.Close()
		}
	}()

	splitCfg, err := splitConfig(cfg)
	if err != nil {
		logger.Error("parse split percentages", slog.Any("error", err))
		os.Exit(1)
	}
	strategy, err := closing.NewPercentSplitStrategy(splitCfg)
	if err != nil {
		logger.Error("split strategy", slog.Any("error", err))
		os.Exit(1)
	}

	auditLogger := shared.NewAuditLogger(pool)
	reportCache := ledger.NewCache(redisClient, 10*time.Minute)

	accountsSvc := accounts.NewService(accounts.NewRepository(pool), auditLogger)
	fiscalYearSvc := fiscalyear.NewService(fiscalyear.NewRepository(pool))
	journalSvc := journal.NewService(journal.NewRepository(pool), auditLogger, reportCache)
	ledgerSvc := ledger.NewService(ledger.NewRepository(pool), reportCache, logger)
	budgetSvc := budget.NewService(budget.NewRepository(pool), ledgerSvc)
	cashFlowSvc := cashflow.NewService(cashflow.NewRepository(pool), ledgerSvc)
	closingSvc := closing.NewService(closing.NewRepository(pool), strategy, closing.Accounts{
		IncomeSummaryID: cfg.IncomeSummaryAccountID,
		NazerShareID:    cfg.NazerShareAccountID,
		WaqfCorpusID:    cfg.WaqfCorpusAccountID,
		CharityShareID:  cfg.CharityShareAccountID,
	}, auditLogger, reportCache, logger)
	approvalSvc := approval.NewService(approval.NewRepository(pool), journalSvc, auditLogger, reportCache)

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		Pool:              pool,
		AccountsHandler:   accounts.NewHandler(logger, accountsSvc),
		FiscalYearHandler: fiscalyear.NewHandler(logger, fiscalYearSvc),
		JournalHandler:    journal.NewHandler(logger, journalSvc),
		LedgerHandler:     ledger.NewHandler(logger, ledgerSvc),
		BudgetHandler:     budget.NewHandler(logger, budgetSvc),
		CashFlowHandler:   cashflow.NewHandler(logger, cashFlowSvc),
		ClosingHandler:    closing.NewHandler(logger, closingSvc),
		ApprovalHandler:   approval.NewHandler(logger, approvalSvc),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}

func splitConfig(cfg *app.Config) (closing.SplitConfig, error) {
	nazer, err := decimal.NewFromString(cfg.NazerSharePct)
	if err != nil {
		return closing.SplitConfig{}, err
	}
	corpus, err := decimal.NewFromString(cfg.CorpusSharePct)
	if err != nil {
		return closing.SplitConfig{}, err
	}
	charity, err := decimal.NewFromString(cfg.CharitySharePct)
	if err != nil {
		return closing.SplitConfig{}, err
	}
	return closing.SplitConfig{NazerPct: nazer, CorpusPct: corpus, CharityPct: charity}, nil
}
