package approval

import (
	"context"
	"fmt"
	"time"

	"github.com/awqaf-platform/waqf-ledger/internal/journal"
	"github.com/awqaf-platform/waqf-ledger/internal/shared"
)

// RepositoryPort abstracts approval persistence. WithTx carries the journal
// tx surface so a rejection decision and the entry cancellation it implies
// commit atomically.
type RepositoryPort interface {
	Insert(ctx context.Context, entryID, requestedBy int64) (Approval, error)
	Get(ctx context.Context, id int64) (Approval, error)
	ListByEntry(ctx context.Context, entryID int64) ([]Approval, error)
	Decide(ctx context.Context, id int64, status Status, decidedBy int64, notes string, decidedAt time.Time) (Approval, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// JournalPort is the slice of the journal engine the workflow reads.
type JournalPort interface {
	Get(ctx context.Context, entryID int64) (journal.Entry, error)
}

// AuditPort records approval decisions.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// CachePort invalidates derived report caches after a rejection cancels
// a posted entry.
type CachePort interface {
	BumpVersion(ctx context.Context) error
}

// Service runs the approval state machine over posted journal entries.
type Service struct {
	repo    RepositoryPort
	journal JournalPort
	audit   AuditPort
	cache   CachePort
	now     func() time.Time
}

// NewService constructs the approval workflow.
func NewService(repo RepositoryPort, journalSvc JournalPort, audit AuditPort, cache CachePort) *Service {
	return &Service{repo: repo, journal: journalSvc, audit: audit, cache: cache, now: time.Now}
}

// WithNow overrides the clock for testing.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Submit opens a pending approval request for a posted entry.
func (s *Service) Submit(ctx context.Context, entryID, requestedBy int64) (Approval, error) {
	if requestedBy == 0 {
		return Approval{}, shared.ErrActorRequired
	}
	entry, err := s.journal.Get(ctx, entryID)
	if err != nil {
		return Approval{}, err
	}
	if entry.Status != journal.StatusPosted {
		return Approval{}, fmt.Errorf("%w: entry %s is %s", ErrEntryNotPosted, entry.EntryNumber, entry.Status)
	}
	a, err := s.repo.Insert(ctx, entryID, requestedBy)
	if err != nil {
		return Approval{}, err
	}
	s.recordAudit(ctx, requestedBy, "approval.submit", a)
	return a, nil
}

// Approve finalises a pending request; the entry stays posted.
func (s *Service) Approve(ctx context.Context, approvalID, actorID int64, notes string) (Approval, error) {
	if actorID == 0 {
		return Approval{}, shared.ErrActorRequired
	}
	a, err := s.repo.Decide(ctx, approvalID, StatusApproved, actorID, notes, s.now())
	if err != nil {
		return Approval{}, err
	}
	s.recordAudit(ctx, actorID, "approval.approve", a)
	return a, nil
}

// Reject finalises a pending request and cancels the posted entry,
// reversing its balance contribution. The decision and the cancellation
// run in one transaction; if the cancellation fails the decision rolls
// back and the request stays pending.
func (s *Service) Reject(ctx context.Context, approvalID, actorID int64, notes string) (Approval, error) {
	if actorID == 0 {
		return Approval{}, shared.ErrActorRequired
	}
	var a Approval
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		decided, err := tx.Decide(ctx, approvalID, StatusRejected, actorID, notes, s.now())
		if err != nil {
			return err
		}
		if _, err := journal.CancelPostedEntry(ctx, tx, decided.EntryID); err != nil {
			return fmt.Errorf("approval: cannot cancel entry %d: %w", decided.EntryID, err)
		}
		a = decided
		return nil
	})
	if err != nil {
		return Approval{}, err
	}
	if s.cache != nil {
		_ = s.cache.BumpVersion(ctx)
	}
	s.recordAudit(ctx, actorID, "approval.reject", a)
	return a, nil
}

// History returns an entry's approval trail.
func (s *Service) History(ctx context.Context, entryID int64) ([]Approval, error) {
	return s.repo.ListByEntry(ctx, entryID)
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, a Approval) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "approval",
		EntityID: fmt.Sprintf("%d", a.ID),
		Meta:     map[string]any{"entry_id": a.EntryID, "status": string(a.Status)},
		At:       s.now(),
	})
}
