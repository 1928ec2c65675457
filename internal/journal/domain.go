package journal

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status enumerates journal entry lifecycle values. Transitions are
// draft -> posted -> cancelled and draft -> cancelled; nothing returns to
// draft.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusPosted    Status = "POSTED"
	StatusCancelled Status = "CANCELLED"
)

// Entry captures a double-entry journal transaction. Posted entries are
// permanent ledger history and are never physically deleted.
type Entry struct {
	ID           int64      `json:"id"`
	EntryNumber  string     `json:"entry_number"`
	EntryDate    time.Time  `json:"entry_date"`
	Description  string     `json:"description"`
	FiscalYearID int64      `json:"fiscal_year_id"`
	SourceModule string     `json:"source_module,omitempty"`
	SourceID     uuid.UUID  `json:"source_id,omitempty"`
	Status       Status     `json:"status"`
	CreatedBy    int64      `json:"created_by"`
	PostedAt     *time.Time `json:"posted_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	Lines        []Line     `json:"lines,omitempty"`
}

// Line stores a debit or credit amount against one account. Exactly one of
// Debit/Credit is non-zero; lines are immutable once the entry is posted.
type Line struct {
	ID          int64           `json:"id"`
	EntryID     int64           `json:"entry_id"`
	AccountID   int64           `json:"account_id"`
	Debit       decimal.Decimal `json:"debit_amount"`
	Credit      decimal.Decimal `json:"credit_amount"`
	Description string          `json:"description,omitempty"`
}

// LineInput describes a journal line in a posting request.
type LineInput struct {
	AccountID   int64
	Debit       decimal.Decimal
	Credit      decimal.Decimal
	Description string
}

// Validate enforces the mutual-exclusivity invariant on line sides.
func (l LineInput) Validate() error {
	if l.AccountID == 0 {
		return fmt.Errorf("%w: account required", ErrInvalidLine)
	}
	debitSet := l.Debit.IsPositive()
	creditSet := l.Credit.IsPositive()
	if l.Debit.IsNegative() || l.Credit.IsNegative() {
		return fmt.Errorf("%w: amounts must not be negative", ErrInvalidLine)
	}
	if debitSet == creditSet {
		return fmt.Errorf("%w: exactly one of debit/credit must be non-zero", ErrInvalidLine)
	}
	return nil
}

// CreateDraftInput groups fields required to create a draft entry.
type CreateDraftInput struct {
	EntryNumber  string
	EntryDate    time.Time
	Description  string
	FiscalYearID int64
	SourceModule string
	SourceID     uuid.UUID
	ActorID      int64
	Lines        []LineInput
}

// Validate checks structural constraints before touching storage.
func (in CreateDraftInput) Validate() error {
	if strings.TrimSpace(in.EntryNumber) == "" {
		return errors.New("journal: entry number required")
	}
	if in.EntryDate.IsZero() {
		return errors.New("journal: entry date required")
	}
	if in.FiscalYearID == 0 {
		return errors.New("journal: fiscal year required")
	}
	if in.ActorID == 0 {
		return errors.New("journal: actor required")
	}
	if len(in.Lines) == 0 {
		return ErrEmptyEntry
	}
	for i, line := range in.Lines {
		if err := line.Validate(); err != nil {
			return fmt.Errorf("line %d: %w", i+1, err)
		}
	}
	return nil
}

// Totals sums the debit and credit sides of a line set.
func Totals(lines []Line) (debits, credits decimal.Decimal) {
	debits, credits = decimal.Zero, decimal.Zero
	for _, l := range lines {
		debits = debits.Add(l.Debit)
		credits = credits.Add(l.Credit)
	}
	return debits, credits
}

// UnbalancedError reports the exact debit/credit mismatch of an entry.
type UnbalancedError struct {
	EntryID    int64
	Debits     decimal.Decimal
	Credits    decimal.Decimal
	Difference decimal.Decimal
}

func (e *UnbalancedError) Error() string {
	return fmt.Sprintf("journal: entry %d unbalanced: debits %s, credits %s, difference %s",
		e.EntryID, e.Debits.String(), e.Credits.String(), e.Difference.String())
}

// Is makes UnbalancedError match ErrUnbalanced with errors.Is.
func (e *UnbalancedError) Is(target error) bool {
	return target == ErrUnbalanced
}

var (
	// ErrUnbalanced indicates debits do not equal credits.
	ErrUnbalanced = errors.New("journal: unbalanced entry")
	// ErrAlreadyPosted indicates the entry left draft status.
	ErrAlreadyPosted = errors.New("journal: already posted")
	// ErrEmptyEntry indicates the entry has no lines.
	ErrEmptyEntry = errors.New("journal: entry has no lines")
	// ErrInvalidLine indicates a malformed journal line.
	ErrInvalidLine = errors.New("journal: invalid line")
	// ErrInvalidAccountRef indicates an inactive, header, or missing account.
	ErrInvalidAccountRef = errors.New("journal: invalid account reference")
	// ErrEntryNotFound indicates the entry does not exist.
	ErrEntryNotFound = errors.New("journal: entry not found")
	// ErrDuplicateEntryNumber indicates the entry number is taken.
	ErrDuplicateEntryNumber = errors.New("journal: duplicate entry number")
	// ErrFiscalYearClosed indicates the target fiscal year is terminal.
	ErrFiscalYearClosed = errors.New("journal: fiscal year closed")
	// ErrInvalidStatus indicates a transition the state machine forbids.
	ErrInvalidStatus = errors.New("journal: invalid status transition")
	// ErrSourceAlreadyLinked indicates the source document was already posted.
	ErrSourceAlreadyLinked = errors.New("journal: source already linked")
)
