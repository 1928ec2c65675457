package journal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/awqaf-platform/waqf-ledger/internal/accounts"
	"github.com/awqaf-platform/waqf-ledger/internal/fiscalyear"
	"github.com/awqaf-platform/waqf-ledger/internal/shared"
)

// RepositoryPort abstracts transactional repository behaviour.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetEntryWithLines(ctx context.Context, entryID int64) (Entry, error)
	List(ctx context.Context, fiscalYearID int64) ([]Entry, error)
}

// TxRepository exposes operations available within a transaction.
type TxRepository interface {
	InsertEntry(ctx context.Context, in CreateDraftInput) (Entry, error)
	InsertLines(ctx context.Context, entryID int64, lines []LineInput) ([]Line, error)
	LinkSource(ctx context.Context, module string, ref uuid.UUID, entryID int64) error
	GetEntryWithLines(ctx context.Context, entryID int64) (Entry, error)
	MarkPosted(ctx context.Context, entryID int64, postedAt time.Time) (bool, error)
	UpdateStatus(ctx context.Context, entryID int64, status Status) error
	GetFiscalYear(ctx context.Context, id int64) (fiscalyear.FiscalYear, error)
	GetAccount(ctx context.Context, id int64) (accounts.Account, error)
	AddToBalance(ctx context.Context, accountID int64, delta decimal.Decimal) error
}

// AuditPort records ledger events for compliance.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// CachePort invalidates derived report caches after ledger mutations.
type CachePort interface {
	BumpVersion(ctx context.Context) error
}

// Service coordinates drafting, posting, and cancelling journal entries.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
	cache CachePort
	now   func() time.Time
}

// NewService constructs the journal engine.
func NewService(repo RepositoryPort, audit AuditPort, cache CachePort) *Service {
	return &Service{repo: repo, audit: audit, cache: cache, now: time.Now}
}

// WithNow overrides the clock for testing.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Get returns an entry with its lines.
func (s *Service) Get(ctx context.Context, entryID int64) (Entry, error) {
	return s.repo.GetEntryWithLines(ctx, entryID)
}

// List returns entries, optionally filtered by fiscal year.
func (s *Service) List(ctx context.Context, fiscalYearID int64) ([]Entry, error) {
	return s.repo.List(ctx, fiscalYearID)
}

// CreateDraft validates and stores a draft entry. The entry number must be
// unique, the fiscal year open, and every referenced account active and
// non-header.
func (s *Service) CreateDraft(ctx context.Context, in CreateDraftInput) (Entry, error) {
	if err := in.Validate(); err != nil {
		return Entry{}, err
	}
	var entry Entry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		fy, err := tx.GetFiscalYear(ctx, in.FiscalYearID)
		if err != nil {
			return err
		}
		if fy.IsClosed {
			return ErrFiscalYearClosed
		}
		for _, line := range in.Lines {
			account, err := tx.GetAccount(ctx, line.AccountID)
			if err != nil {
				return fmt.Errorf("%w: account %d", ErrInvalidAccountRef, line.AccountID)
			}
			if !account.Postable() {
				return fmt.Errorf("%w: account %s is header or inactive", ErrInvalidAccountRef, account.Code)
			}
		}
		inserted, err := tx.InsertEntry(ctx, in)
		if err != nil {
			return err
		}
		lines, err := tx.InsertLines(ctx, inserted.ID, in.Lines)
		if err != nil {
			return err
		}
		if in.SourceModule != "" {
			if err := tx.LinkSource(ctx, in.SourceModule, in.SourceID, inserted.ID); err != nil {
				return err
			}
		}
		inserted.Lines = lines
		entry = inserted
		return nil
	})
	if err != nil {
		return Entry{}, err
	}
	s.recordAudit(ctx, in.ActorID, "journal.draft", entry, nil)
	return entry, nil
}

// Post transitions a draft entry to posted. The whole operation is a single
// transaction: the status flip, the balance increments, and the posted
// timestamp succeed or fail together. Concurrent posts of the same entry
// serialize on a compare-and-swap of the draft status; the loser observes
// ErrAlreadyPosted.
func (s *Service) Post(ctx context.Context, entryID, actorID int64) (Entry, error) {
	if actorID == 0 {
		return Entry{}, shared.ErrActorRequired
	}
	var entry Entry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetEntryWithLines(ctx, entryID)
		if err != nil {
			return err
		}
		switch current.Status {
		case StatusDraft:
		case StatusPosted:
			return ErrAlreadyPosted
		default:
			return ErrInvalidStatus
		}
		if len(current.Lines) == 0 {
			return ErrEmptyEntry
		}
		fy, err := tx.GetFiscalYear(ctx, current.FiscalYearID)
		if err != nil {
			return err
		}
		if fy.IsClosed {
			return ErrFiscalYearClosed
		}
		debits, credits := Totals(current.Lines)
		if !debits.Equal(credits) {
			return &UnbalancedError{
				EntryID:    current.ID,
				Debits:     debits,
				Credits:    credits,
				Difference: debits.Sub(credits),
			}
		}
		deltas, err := balanceDeltas(ctx, tx, current.Lines, false)
		if err != nil {
			return err
		}
		postedAt := s.now()
		swapped, err := tx.MarkPosted(ctx, current.ID, postedAt)
		if err != nil {
			return err
		}
		if !swapped {
			return ErrAlreadyPosted
		}
		for accountID, delta := range deltas {
			if err := tx.AddToBalance(ctx, accountID, delta); err != nil {
				return err
			}
		}
		current.Status = StatusPosted
		current.PostedAt = &postedAt
		entry = current
		return nil
	})
	if err != nil {
		if isSerializationFailure(err) {
			return Entry{}, fmt.Errorf("%w: concurrent post detected", ErrAlreadyPosted)
		}
		return Entry{}, err
	}
	s.bumpCache(ctx)
	s.recordAudit(ctx, actorID, "journal.post", entry, nil)
	return entry, nil
}

// isSerializationFailure reports SQLSTATE 40001. Under repeatable read a
// concurrent post of the same entry can abort the loser's transaction
// before the status compare-and-swap observes zero rows; both outcomes
// mean the other writer won.
func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "40001"
}

// Cancel moves a draft entry to cancelled. Posted entries cannot be
// cancelled here; rejection through the approval workflow uses
// CancelPosted, which also reverses the balance contribution.
func (s *Service) Cancel(ctx context.Context, entryID, actorID int64, reason string) (Entry, error) {
	if actorID == 0 {
		return Entry{}, shared.ErrActorRequired
	}
	var entry Entry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetEntryWithLines(ctx, entryID)
		if err != nil {
			return err
		}
		if current.Status != StatusDraft {
			return ErrInvalidStatus
		}
		if err := tx.UpdateStatus(ctx, current.ID, StatusCancelled); err != nil {
			return err
		}
		current.Status = StatusCancelled
		entry = current
		return nil
	})
	if err != nil {
		return Entry{}, err
	}
	s.recordAudit(ctx, actorID, "journal.cancel", entry, map[string]any{"reason": reason})
	return entry, nil
}

// CancelPosted cancels a posted entry and reverses its balance contribution
// in the same transaction. Intended to be driven by an approval rejection;
// the cancelled entry remains in ledger history.
func (s *Service) CancelPosted(ctx context.Context, entryID, actorID int64, reason string) (Entry, error) {
	if actorID == 0 {
		return Entry{}, shared.ErrActorRequired
	}
	var entry Entry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		cancelled, err := CancelPostedEntry(ctx, tx, entryID)
		if err != nil {
			return err
		}
		entry = cancelled
		return nil
	})
	if err != nil {
		return Entry{}, err
	}
	s.bumpCache(ctx)
	s.recordAudit(ctx, actorID, "journal.cancel_posted", entry, map[string]any{"reason": reason})
	return entry, nil
}

// CancelPostedEntry cancels a posted entry and reverses its balance
// contribution within an existing transaction. The approval workflow uses
// this so a rejection decision and the cancellation it implies commit
// atomically. Entries in a closed fiscal year are immutable history; the
// stamped year aggregates would silently drift if a late reversal got
// through.
func CancelPostedEntry(ctx context.Context, tx TxRepository, entryID int64) (Entry, error) {
	current, err := tx.GetEntryWithLines(ctx, entryID)
	if err != nil {
		return Entry{}, err
	}
	if current.Status != StatusPosted {
		return Entry{}, ErrInvalidStatus
	}
	fy, err := tx.GetFiscalYear(ctx, current.FiscalYearID)
	if err != nil {
		return Entry{}, err
	}
	if fy.IsClosed {
		return Entry{}, ErrFiscalYearClosed
	}
	deltas, err := balanceDeltas(ctx, tx, current.Lines, true)
	if err != nil {
		return Entry{}, err
	}
	if err := tx.UpdateStatus(ctx, current.ID, StatusCancelled); err != nil {
		return Entry{}, err
	}
	for accountID, delta := range deltas {
		if err := tx.AddToBalance(ctx, accountID, delta); err != nil {
			return Entry{}, err
		}
	}
	current.Status = StatusCancelled
	return current, nil
}

// PostEntry creates and immediately posts an entry within an existing
// transaction. The fiscal year closing engine uses this so the closing
// entry, its balance updates, and the year finalisation commit atomically
// while still flowing through journal validation.
func PostEntry(ctx context.Context, tx TxRepository, in CreateDraftInput, postedAt time.Time) (Entry, error) {
	if err := in.Validate(); err != nil {
		return Entry{}, err
	}
	fy, err := tx.GetFiscalYear(ctx, in.FiscalYearID)
	if err != nil {
		return Entry{}, err
	}
	if fy.IsClosed {
		return Entry{}, ErrFiscalYearClosed
	}
	entry, err := tx.InsertEntry(ctx, in)
	if err != nil {
		return Entry{}, err
	}
	lines, err := tx.InsertLines(ctx, entry.ID, in.Lines)
	if err != nil {
		return Entry{}, err
	}
	debits, credits := Totals(lines)
	if !debits.Equal(credits) {
		return Entry{}, &UnbalancedError{
			EntryID:    entry.ID,
			Debits:     debits,
			Credits:    credits,
			Difference: debits.Sub(credits),
		}
	}
	deltas, err := balanceDeltas(ctx, tx, lines, false)
	if err != nil {
		return Entry{}, err
	}
	swapped, err := tx.MarkPosted(ctx, entry.ID, postedAt)
	if err != nil {
		return Entry{}, err
	}
	if !swapped {
		return Entry{}, ErrAlreadyPosted
	}
	for accountID, delta := range deltas {
		if err := tx.AddToBalance(ctx, accountID, delta); err != nil {
			return Entry{}, err
		}
	}
	entry.Lines = lines
	entry.Status = StatusPosted
	entry.PostedAt = &postedAt
	return entry, nil
}

// balanceDeltas folds the per-account balance movement of a line set.
// Debit-nature accounts grow by debit-credit, credit-nature by the inverse;
// reverse negates. Aggregating per account keeps the row updates commutative
// and minimises lock churn under concurrent posting.
func balanceDeltas(ctx context.Context, tx TxRepository, lines []Line, reverse bool) (map[int64]decimal.Decimal, error) {
	deltas := make(map[int64]decimal.Decimal, len(lines))
	for _, line := range lines {
		account, err := tx.GetAccount(ctx, line.AccountID)
		if err != nil {
			return nil, fmt.Errorf("%w: account %d", ErrInvalidAccountRef, line.AccountID)
		}
		if !account.Postable() {
			return nil, fmt.Errorf("%w: account %s is header or inactive", ErrInvalidAccountRef, account.Code)
		}
		delta := line.Debit.Sub(line.Credit)
		if account.Nature == accounts.NatureCredit {
			delta = delta.Neg()
		}
		if reverse {
			delta = delta.Neg()
		}
		deltas[line.AccountID] = deltas[line.AccountID].Add(delta)
	}
	return deltas, nil
}

func (s *Service) bumpCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	_ = s.cache.BumpVersion(ctx)
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, entry Entry, meta map[string]any) {
	if s.audit == nil {
		return
	}
	if meta == nil {
		meta = map[string]any{}
	}
	meta["entry_number"] = entry.EntryNumber
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "journal_entry",
		EntityID: fmt.Sprintf("%d", entry.ID),
		Meta:     meta,
		At:       s.now(),
	})
}
