package budget

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/awqaf-platform/waqf-ledger/internal/fiscalyear"
)

// PeriodType enumerates budget period granularities.
type PeriodType string

const (
	PeriodMonth   PeriodType = "MONTH"
	PeriodQuarter PeriodType = "QUARTER"
	PeriodYear    PeriodType = "YEAR"
)

// Budget is one budgeted amount for an account and period. ActualAmount,
// VarianceAmount, and UtilizationPct stay nil until a variance run computes
// them; runs recompute every row from posted lines rather than patching
// increments, so the stored values can never drift from the ledger.
type Budget struct {
	ID             int64            `json:"id"`
	AccountID      int64            `json:"account_id"`
	AccountCode    string           `json:"account_code,omitempty"`
	AccountName    string           `json:"account_name,omitempty"`
	FiscalYearID   int64            `json:"fiscal_year_id"`
	PeriodType     PeriodType       `json:"period_type"`
	PeriodNumber   int              `json:"period_number"`
	BudgetedAmount decimal.Decimal  `json:"budgeted_amount"`
	ActualAmount   *decimal.Decimal `json:"actual_amount,omitempty"`
	VarianceAmount *decimal.Decimal `json:"variance_amount,omitempty"`
	UtilizationPct *decimal.Decimal `json:"utilization_pct,omitempty"`
	ComputedAt     *time.Time       `json:"computed_at,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// CreateInput captures a new budget row.
type CreateInput struct {
	AccountID      int64
	FiscalYearID   int64
	PeriodType     PeriodType
	PeriodNumber   int
	BudgetedAmount decimal.Decimal
	ActorID        int64
}

// Validate ensures the input is coherent.
func (in CreateInput) Validate() error {
	if in.AccountID == 0 {
		return errors.New("budget: account required")
	}
	if in.FiscalYearID == 0 {
		return errors.New("budget: fiscal year required")
	}
	if in.ActorID == 0 {
		return errors.New("budget: actor required")
	}
	if in.BudgetedAmount.IsNegative() {
		return errors.New("budget: budgeted amount must not be negative")
	}
	switch in.PeriodType {
	case PeriodMonth:
		if in.PeriodNumber < 1 || in.PeriodNumber > 12 {
			return errors.New("budget: month number must be 1-12")
		}
	case PeriodQuarter:
		if in.PeriodNumber < 1 || in.PeriodNumber > 4 {
			return errors.New("budget: quarter number must be 1-4")
		}
	case PeriodYear:
		if in.PeriodNumber != 1 {
			return errors.New("budget: year period number must be 1")
		}
	default:
		return errors.New("budget: unknown period type")
	}
	return nil
}

// PeriodWindow resolves the inclusive date range a budget row covers inside
// its fiscal year. Month and quarter windows are anchored to the fiscal year
// start, so a year beginning in July counts July as month 1.
func PeriodWindow(fy fiscalyear.FiscalYear, periodType PeriodType, periodNumber int) (start, end time.Time) {
	switch periodType {
	case PeriodMonth:
		start = fy.StartDate.AddDate(0, periodNumber-1, 0)
		end = fy.StartDate.AddDate(0, periodNumber, 0).AddDate(0, 0, -1)
	case PeriodQuarter:
		start = fy.StartDate.AddDate(0, (periodNumber-1)*3, 0)
		end = fy.StartDate.AddDate(0, periodNumber*3, 0).AddDate(0, 0, -1)
	default:
		return fy.StartDate, fy.EndDate
	}
	if end.After(fy.EndDate) {
		end = fy.EndDate
	}
	return start, end
}

var (
	// ErrBudgetNotFound occurs when no budget rows exist for the query.
	ErrBudgetNotFound = errors.New("budget: not found")
	// ErrDuplicateBudget occurs when the account/period combination exists.
	ErrDuplicateBudget = errors.New("budget: duplicate account/period row")
)
