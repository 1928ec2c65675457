package closing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/awqaf-platform/waqf-ledger/internal/journal"
	"github.com/awqaf-platform/waqf-ledger/internal/shared"
)

// AuditPort records closing events for compliance.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// CachePort invalidates derived report caches after the year is closed.
type CachePort interface {
	BumpVersion(ctx context.Context) error
}

// Service runs the fiscal year closing state machine: lock the year,
// verify no drafts remain, aggregate the period, apply the statutory
// split, post the closing entry through the journal engine, and finalise
// the year. Everything commits in one transaction.
type Service struct {
	repo     RepositoryPort
	strategy SplitStrategy
	accounts Accounts
	audit    AuditPort
	cache    CachePort
	log      *slog.Logger
	now      func() time.Time
}

// NewService constructs the closing engine.
func NewService(repo RepositoryPort, strategy SplitStrategy, accounts Accounts, audit AuditPort, cache CachePort, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{repo: repo, strategy: strategy, accounts: accounts, audit: audit, cache: cache, log: log, now: time.Now}
}

// WithNow overrides the clock for testing.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Close finalises the fiscal year. Preconditions: the year is active,
// not closed, and carries no draft entries. When net income is positive
// a balanced closing entry is posted debiting the income summary account
// and crediting each statutory share; a non-positive result finalises
// the year with zero share amounts and no entry.
func (s *Service) Close(ctx context.Context, fiscalYearID, actorID int64) (Result, error) {
	return s.CloseWithStrategy(ctx, fiscalYearID, actorID, s.strategy)
}

// CloseWithStrategy closes the year using a caller-supplied split, letting a
// single request override the configured statutory percentages.
func (s *Service) CloseWithStrategy(ctx context.Context, fiscalYearID, actorID int64, strategy SplitStrategy) (Result, error) {
	if actorID == 0 {
		return Result{}, shared.ErrActorRequired
	}
	if strategy == nil {
		strategy = s.strategy
	}
	var result Result
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		fy, err := tx.LockFiscalYear(ctx, fiscalYearID)
		if err != nil {
			return err
		}
		if fy.IsClosed {
			return ErrAlreadyClosed
		}
		if !fy.IsActive {
			return ErrNotActive
		}
		drafts, err := tx.CountDraftEntries(ctx, fy.ID)
		if err != nil {
			return err
		}
		if drafts > 0 {
			return fmt.Errorf("%w: %d drafts pending", ErrOpenDraftsExist, drafts)
		}

		revenues, expenses, err := tx.PeriodTotals(ctx, fy.ID)
		if err != nil {
			return err
		}
		netIncome := revenues.Sub(expenses)
		split, err := strategy.ComputeSplit(netIncome)
		if err != nil {
			return err
		}

		closedAt := s.now()
		if netIncome.IsPositive() && split.Allocated().IsPositive() {
			entry, err := journal.PostEntry(ctx, tx, s.closingEntry(fy.ID, fy.EndDate, fy.Name, split, actorID), closedAt)
			if err != nil {
				return err
			}
			result.Entry = entry
		}

		fy.TotalRevenues = revenues
		fy.TotalExpenses = expenses
		fy.NetIncome = netIncome
		fy.NazerShareAmount = split.Nazer
		fy.WaqfCorpusAmount = split.Corpus
		fy.CharityShareAmount = split.Charity
		fy.ClosedAt = &closedAt
		if err := tx.FinalizeFiscalYear(ctx, fy); err != nil {
			return err
		}
		fy.IsActive = false
		fy.IsClosed = true

		result.FiscalYear = fy
		result.Split = split
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	if s.cache != nil {
		_ = s.cache.BumpVersion(ctx)
	}
	s.recordAudit(ctx, actorID, result)
	s.log.InfoContext(ctx, "fiscal year closed",
		slog.Int64("fiscal_year_id", result.FiscalYear.ID),
		slog.String("net_income", result.FiscalYear.NetIncome.String()))
	return result, nil
}

// closingEntry builds the balanced closing entry: one debit against the
// income summary for the allocated total, one credit per non-zero share.
func (s *Service) closingEntry(fiscalYearID int64, endDate time.Time, yearName string, split SplitResult, actorID int64) journal.CreateDraftInput {
	lines := []journal.LineInput{{
		AccountID:   s.accounts.IncomeSummaryID,
		Debit:       split.Allocated(),
		Description: "Statutory allocation of net income",
	}}
	shares := []struct {
		accountID int64
		amount    decimal.Decimal
		desc      string
	}{
		{s.accounts.NazerShareID, split.Nazer, "Nazer share"},
		{s.accounts.WaqfCorpusID, split.Corpus, "Waqf corpus retention"},
		{s.accounts.CharityShareID, split.Charity, "Charity share"},
	}
	for _, share := range shares {
		if share.amount.IsZero() {
			continue
		}
		lines = append(lines, journal.LineInput{
			AccountID:   share.accountID,
			Credit:      share.amount,
			Description: share.desc,
		})
	}
	return journal.CreateDraftInput{
		EntryNumber:  fmt.Sprintf("CLOSE-%d", fiscalYearID),
		EntryDate:    endDate,
		Description:  fmt.Sprintf("Closing entry for fiscal year %s", yearName),
		FiscalYearID: fiscalYearID,
		SourceModule: "closing",
		SourceID:     uuid.New(),
		ActorID:      actorID,
		Lines:        lines,
	}
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, result Result) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   "closing.close",
		Entity:   "fiscal_year",
		EntityID: fmt.Sprintf("%d", result.FiscalYear.ID),
		At:       s.now(),
		Meta: map[string]any{
			"net_income":    result.FiscalYear.NetIncome.String(),
			"nazer":         result.Split.Nazer.String(),
			"corpus":        result.Split.Corpus.String(),
			"charity":       result.Split.Charity.String(),
			"beneficiaries": result.Split.Beneficiaries.String(),
		},
	})
}
