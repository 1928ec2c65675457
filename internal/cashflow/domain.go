package cashflow

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/awqaf-platform/waqf-ledger/internal/accounts"
)

// Statement is the derived cash flow read model. It is a pure function of
// posted entries: never hand-edited, recomputed in full on demand, and the
// stored row is only a convenience copy (last writer wins).
type Statement struct {
	FiscalYearID int64           `json:"fiscal_year_id"`
	PeriodStart  time.Time       `json:"period_start"`
	PeriodEnd    time.Time       `json:"period_end"`
	Operating    decimal.Decimal `json:"operating_activities"`
	Investing    decimal.Decimal `json:"investing_activities"`
	Financing    decimal.Decimal `json:"financing_activities"`
	OpeningCash  decimal.Decimal `json:"opening_cash"`
	ClosingCash  decimal.Decimal `json:"closing_cash"`
	NetCashFlow  decimal.Decimal `json:"net_cash_flow"`
	ComputedAt   time.Time       `json:"computed_at"`
}

// FlowLine is one posted line with its account's cash flow tag.
type FlowLine struct {
	Category accounts.CashFlowCategory
	Debit    decimal.Decimal
	Credit   decimal.Decimal
}

// ErrStatementNotFound occurs when no statement row was derived yet.
var ErrStatementNotFound = errors.New("cashflow: statement not found")
