package fiscalyear

import (
	"context"
	"time"
)

// RepositoryPort abstracts fiscal year persistence.
type RepositoryPort interface {
	Get(ctx context.Context, id int64) (FiscalYear, error)
	List(ctx context.Context) ([]FiscalYear, error)
	RangeConflict(ctx context.Context, start, end time.Time) (bool, error)
	Insert(ctx context.Context, in CreateInput) (FiscalYear, error)
	Activate(ctx context.Context, id int64) (FiscalYear, error)
}

// Service manages fiscal year lifecycle up to, but not including, closing.
type Service struct {
	repo RepositoryPort
}

// NewService constructs the service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Create inserts a new fiscal year after validating overlap.
func (s *Service) Create(ctx context.Context, in CreateInput) (FiscalYear, error) {
	if err := in.Validate(); err != nil {
		return FiscalYear{}, err
	}
	conflict, err := s.repo.RangeConflict(ctx, in.StartDate, in.EndDate)
	if err != nil {
		return FiscalYear{}, err
	}
	if conflict {
		return FiscalYear{}, ErrOverlap
	}
	return s.repo.Insert(ctx, in)
}

// Get returns a fiscal year by id.
func (s *Service) Get(ctx context.Context, id int64) (FiscalYear, error) {
	return s.repo.Get(ctx, id)
}

// List returns all fiscal years.
func (s *Service) List(ctx context.Context) ([]FiscalYear, error) {
	return s.repo.List(ctx)
}

// Activate switches the single active fiscal year.
func (s *Service) Activate(ctx context.Context, id int64) (FiscalYear, error) {
	return s.repo.Activate(ctx, id)
}
