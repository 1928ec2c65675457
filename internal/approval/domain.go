package approval

import (
	"errors"
	"time"
)

// Status enumerates the approval states. Pending is the only non-final
// state; approve and reject are terminal.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

// Approval links a posted journal entry to an approver decision. At most
// one pending approval exists per entry; the constraint lives in the
// database as a partial unique index, not as an application convention.
type Approval struct {
	ID          int64      `json:"id"`
	EntryID     int64      `json:"entry_id"`
	Status      Status     `json:"status"`
	RequestedBy int64      `json:"requested_by"`
	DecidedBy   *int64     `json:"decided_by,omitempty"`
	Notes       string     `json:"notes,omitempty"`
	DecidedAt   *time.Time `json:"decided_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

var (
	// ErrNotFound occurs when the approval does not exist.
	ErrNotFound = errors.New("approval: not found")
	// ErrPendingExists indicates the entry already has an open request.
	ErrPendingExists = errors.New("approval: pending request already exists for entry")
	// ErrNotPending indicates the approval was already decided.
	ErrNotPending = errors.New("approval: request is not pending")
	// ErrEntryNotPosted indicates the target entry is not in posted state.
	ErrEntryNotPosted = errors.New("approval: journal entry is not posted")
)
