package fiscalyear

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// FiscalYear represents one accounting year of the waqf. At most one year is
// active at a time; the aggregate and share fields are stamped once at close.
type FiscalYear struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	IsActive  bool      `json:"is_active"`
	IsClosed  bool      `json:"is_closed"`

	TotalRevenues      decimal.Decimal `json:"total_revenues"`
	TotalExpenses      decimal.Decimal `json:"total_expenses"`
	NetIncome          decimal.Decimal `json:"net_income"`
	WaqfCorpusAmount   decimal.Decimal `json:"waqf_corpus_amount"`
	NazerShareAmount   decimal.Decimal `json:"nazer_share_amount"`
	CharityShareAmount decimal.Decimal `json:"charity_share_amount"`

	ClosedAt  *time.Time `json:"closed_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Contains reports whether the date falls inside the fiscal year.
func (fy FiscalYear) Contains(date time.Time) bool {
	return !date.Before(fy.StartDate) && !date.After(fy.EndDate)
}

// CreateInput captures fields for a new fiscal year.
type CreateInput struct {
	Name      string
	StartDate time.Time
	EndDate   time.Time
	Activate  bool
	ActorID   int64
}

// Validate ensures the input is coherent.
func (in CreateInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return errors.New("fiscalyear: name required")
	}
	if in.StartDate.IsZero() || in.EndDate.IsZero() {
		return errors.New("fiscalyear: start and end date required")
	}
	if in.StartDate.After(in.EndDate) {
		return errors.New("fiscalyear: start date cannot be after end date")
	}
	if in.ActorID == 0 {
		return errors.New("fiscalyear: actor required")
	}
	return nil
}

var (
	// ErrNotFound occurs when the fiscal year does not exist.
	ErrNotFound = errors.New("fiscalyear: not found")
	// ErrOverlap indicates the requested range conflicts with an existing year.
	ErrOverlap = errors.New("fiscalyear: range overlaps existing year")
	// ErrClosed indicates the year has been closed and is terminal.
	ErrClosed = errors.New("fiscalyear: already closed")
)
