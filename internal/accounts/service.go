package accounts

import (
	"context"
	"fmt"
	"time"

	"github.com/awqaf-platform/waqf-ledger/internal/shared"
)

// RepositoryPort abstracts account persistence.
type RepositoryPort interface {
	Insert(ctx context.Context, in CreateAccountInput) (Account, error)
	Get(ctx context.Context, id int64) (Account, error)
	List(ctx context.Context) ([]Account, error)
	SetActive(ctx context.Context, id int64, active bool) (Account, error)
}

// AuditPort records registry events.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service manages the chart of accounts.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
	now   func() time.Time
}

// NewService constructs the registry service.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit, now: time.Now}
}

// WithNow overrides the clock for testing.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Create validates and stores a new account.
func (s *Service) Create(ctx context.Context, in CreateAccountInput) (Account, error) {
	if err := in.Validate(); err != nil {
		return Account{}, err
	}
	if in.ParentID != nil {
		parent, err := s.repo.Get(ctx, *in.ParentID)
		if err != nil {
			return Account{}, ErrInvalidParent
		}
		if !parent.IsHeader {
			return Account{}, ErrInvalidParent
		}
	}
	account, err := s.repo.Insert(ctx, in)
	if err != nil {
		return Account{}, err
	}
	s.recordAudit(ctx, in.ActorID, "account.create", account)
	return account, nil
}

// Get returns a single account.
func (s *Service) Get(ctx context.Context, id int64) (Account, error) {
	return s.repo.Get(ctx, id)
}

// List returns the flat chart of accounts ordered by code.
func (s *Service) List(ctx context.Context) ([]Account, error) {
	return s.repo.List(ctx)
}

// Tree returns the chart of accounts as a forest with header balances
// rolled up.
func (s *Service) Tree(ctx context.Context) ([]*TreeNode, error) {
	flat, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return BuildTree(flat), nil
}

// Deactivate blocks new postings to the account. Existing ledger history is
// untouched.
func (s *Service) Deactivate(ctx context.Context, id, actorID int64) (Account, error) {
	account, err := s.repo.SetActive(ctx, id, false)
	if err != nil {
		return Account{}, err
	}
	s.recordAudit(ctx, actorID, "account.deactivate", account)
	return account, nil
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, account Account) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "account",
		EntityID: fmt.Sprintf("%d", account.ID),
		Meta: map[string]any{
			"code": account.Code,
			"name": account.Name,
		},
		At: s.now(),
	})
}
