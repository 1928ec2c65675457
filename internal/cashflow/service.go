package cashflow

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/awqaf-platform/waqf-ledger/internal/fiscalyear"
)

// RepositoryPort abstracts flow reads and statement storage.
type RepositoryPort interface {
	FlowLines(ctx context.Context, from, to time.Time) ([]FlowLine, error)
	CashBalanceBefore(ctx context.Context, date time.Time) (decimal.Decimal, error)
	GetFiscalYear(ctx context.Context, id int64) (fiscalyear.FiscalYear, error)
	SaveStatement(ctx context.Context, st Statement) error
}

// IntegrityPort guards derivation behind the global balance check.
type IntegrityPort interface {
	CheckIntegrity(ctx context.Context) error
}

// Service derives cash flow statements from posted entries.
type Service struct {
	repo      RepositoryPort
	integrity IntegrityPort
	now       func() time.Time
}

// NewService constructs the deriver.
func NewService(repo RepositoryPort, integrity IntegrityPort) *Service {
	return &Service{repo: repo, integrity: integrity, now: time.Now}
}

// WithNow overrides the clock for testing.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Calculate recomputes the statement for the window and stores it. The
// computation is idempotent: rerunning with no intervening posts produces
// the same statement. An integrity fault aborts before anything is written.
func (s *Service) Calculate(ctx context.Context, fiscalYearID int64, periodStart, periodEnd time.Time) (Statement, error) {
	if s.integrity != nil {
		if err := s.integrity.CheckIntegrity(ctx); err != nil {
			return Statement{}, err
		}
	}
	if _, err := s.repo.GetFiscalYear(ctx, fiscalYearID); err != nil {
		return Statement{}, err
	}
	opening, err := s.repo.CashBalanceBefore(ctx, periodStart)
	if err != nil {
		return Statement{}, err
	}
	lines, err := s.repo.FlowLines(ctx, periodStart, periodEnd)
	if err != nil {
		return Statement{}, err
	}
	st := Derive(fiscalYearID, periodStart, periodEnd, opening, lines, s.now())
	if err := s.repo.SaveStatement(ctx, st); err != nil {
		return Statement{}, err
	}
	return st, nil
}

// ForFiscalYear derives the statement covering the whole fiscal year.
func (s *Service) ForFiscalYear(ctx context.Context, fiscalYearID int64) (Statement, error) {
	fy, err := s.repo.GetFiscalYear(ctx, fiscalYearID)
	if err != nil {
		return Statement{}, err
	}
	return s.Calculate(ctx, fiscalYearID, fy.StartDate, fy.EndDate)
}
