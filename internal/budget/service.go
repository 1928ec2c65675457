package budget

import (
	"context"
	"time"

	"github.com/awqaf-platform/waqf-ledger/internal/accounts"
	"github.com/awqaf-platform/waqf-ledger/internal/fiscalyear"
)

// RepositoryPort abstracts budget persistence and actuals reads.
type RepositoryPort interface {
	Insert(ctx context.Context, in CreateInput) (Budget, error)
	ListByFiscalYear(ctx context.Context, fiscalYearID int64) ([]Budget, error)
	AccountNature(ctx context.Context, accountID int64) (accounts.Nature, error)
	ActualFor(ctx context.Context, accountID int64, from, to time.Time) (Actual, error)
	GetFiscalYear(ctx context.Context, id int64) (fiscalyear.FiscalYear, error)
	SaveComputed(ctx context.Context, b Budget) error
}

// IntegrityPort guards derived computation behind the global balance check.
type IntegrityPort interface {
	CheckIntegrity(ctx context.Context) error
}

// Service recomputes budget variances from posted ledger state.
type Service struct {
	repo      RepositoryPort
	integrity IntegrityPort
	now       func() time.Time
}

// NewService constructs the variance engine.
func NewService(repo RepositoryPort, integrity IntegrityPort) *Service {
	return &Service{repo: repo, integrity: integrity, now: time.Now}
}

// WithNow overrides the clock for testing.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Create stores a budget row.
func (s *Service) Create(ctx context.Context, in CreateInput) (Budget, error) {
	if err := in.Validate(); err != nil {
		return Budget{}, err
	}
	if _, err := s.repo.GetFiscalYear(ctx, in.FiscalYearID); err != nil {
		return Budget{}, err
	}
	if _, err := s.repo.AccountNature(ctx, in.AccountID); err != nil {
		return Budget{}, err
	}
	return s.repo.Insert(ctx, in)
}

// List returns budget rows as last computed.
func (s *Service) List(ctx context.Context, fiscalYearID int64) ([]Budget, error) {
	return s.repo.ListByFiscalYear(ctx, fiscalYearID)
}

// CalculateVariances recomputes every budget row of the fiscal year from
// posted lines. Rows are fully recomputed rather than incrementally patched;
// running the calculation twice with no intervening posts yields identical
// results. An integrity fault in the ledger aborts the run before anything
// is written.
func (s *Service) CalculateVariances(ctx context.Context, fiscalYearID int64) ([]Budget, error) {
	if s.integrity != nil {
		if err := s.integrity.CheckIntegrity(ctx); err != nil {
			return nil, err
		}
	}
	fy, err := s.repo.GetFiscalYear(ctx, fiscalYearID)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.ListByFiscalYear(ctx, fiscalYearID)
	if err != nil {
		return nil, err
	}
	computedAt := s.now()
	for i := range rows {
		row := &rows[i]
		nature, err := s.repo.AccountNature(ctx, row.AccountID)
		if err != nil {
			return nil, err
		}
		from, to := PeriodWindow(fy, row.PeriodType, row.PeriodNumber)
		activity, err := s.repo.ActualFor(ctx, row.AccountID, from, to)
		if err != nil {
			return nil, err
		}
		actual := ActualAmount(nature, activity)
		variance := Variance(nature, row.BudgetedAmount, actual)
		utilization := Utilization(row.BudgetedAmount, actual)

		row.ActualAmount = &actual
		row.VarianceAmount = &variance
		row.UtilizationPct = &utilization
		row.ComputedAt = &computedAt
		if err := s.repo.SaveComputed(ctx, *row); err != nil {
			return nil, err
		}
	}
	return rows, nil
}
