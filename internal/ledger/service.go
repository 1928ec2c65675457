package ledger

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/awqaf-platform/waqf-ledger/internal/accounts"
)

// RepositoryPort abstracts posted-state reads.
type RepositoryPort interface {
	AccountActivity(ctx context.Context, asOf time.Time) ([]AccountActivity, error)
	AccountNature(ctx context.Context, accountID int64) (accounts.Nature, error)
	Movements(ctx context.Context, accountID int64, from, to *time.Time) ([]Movement, error)
	GlobalTotals(ctx context.Context) (debits, credits decimal.Decimal, err error)
}

// Service derives read models from posted journal state. Everything here is
// recomputable; nothing is authoritative except the posted-line log.
type Service struct {
	repo   RepositoryPort
	cache  *Cache
	logger *slog.Logger
}

// NewService constructs the projector.
func NewService(repo RepositoryPort, cache *Cache, logger *slog.Logger) *Service {
	return &Service{repo: repo, cache: cache, logger: logger}
}

// TrialBalance reports per-account posted totals up to asOf. Results go
// through the versioned cache; the cached value is identical to a fresh
// recomputation because posting bumps the version.
func (s *Service) TrialBalance(ctx context.Context, asOf time.Time) (TrialBalance, error) {
	var report TrialBalance
	key, err := s.cache.BuildKey(ctx, "ledger", "tb", asOf.Format("2006-01-02"))
	if err != nil {
		return TrialBalance{}, err
	}
	err = s.cache.FetchJSON(ctx, key, &report, func(ctx context.Context) (any, error) {
		activity, err := s.repo.AccountActivity(ctx, asOf)
		if err != nil {
			return nil, err
		}
		return BuildTrialBalance(asOf, activity), nil
	})
	return report, err
}

// GeneralLedger returns the movement history of one account with a running
// balance scoped to the requested window.
func (s *Service) GeneralLedger(ctx context.Context, accountID int64, from, to *time.Time) ([]LedgerLine, error) {
	nature, err := s.repo.AccountNature(ctx, accountID)
	if err != nil {
		return nil, err
	}
	movements, err := s.repo.Movements(ctx, accountID, from, to)
	if err != nil {
		return nil, err
	}
	return BuildGeneralLedger(nature, movements), nil
}

// CheckIntegrity verifies the global balance invariant over all posted
// entries. A mismatch is returned as *IntegrityError and logged at error
// level; callers deriving reports must stop on it.
func (s *Service) CheckIntegrity(ctx context.Context) error {
	debits, credits, err := s.repo.GlobalTotals(ctx)
	if err != nil {
		return err
	}
	if !debits.Equal(credits) {
		fault := &IntegrityError{Debits: debits, Credits: credits}
		if s.logger != nil {
			s.logger.Error("ledger integrity fault",
				slog.String("posted_debits", debits.String()),
				slog.String("posted_credits", credits.String()))
		}
		return fault
	}
	return nil
}
