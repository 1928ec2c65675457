package cashflow

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/awqaf-platform/waqf-ledger/internal/accounts"
)

// Derive classifies posted movements into the three activity buckets and
// reconciles them against the opening cash balance.
//
// Every cash movement in a balanced entry has non-cash counterpart lines;
// those counterparts carry the activity tag. A bucket therefore accumulates
// credit minus debit of lines on accounts tagged with its activity: revenue
// credited against a bank debit contributes a positive operating flow, an
// expense debited against a bank credit a negative one. Lines on untagged or
// cash accounts do not feed a bucket.
func Derive(fiscalYearID int64, periodStart, periodEnd time.Time, openingCash decimal.Decimal, lines []FlowLine, computedAt time.Time) Statement {
	st := Statement{
		FiscalYearID: fiscalYearID,
		PeriodStart:  periodStart,
		PeriodEnd:    periodEnd,
		Operating:    decimal.Zero,
		Investing:    decimal.Zero,
		Financing:    decimal.Zero,
		OpeningCash:  openingCash,
		ComputedAt:   computedAt,
	}
	for _, line := range lines {
		flow := line.Credit.Sub(line.Debit)
		switch line.Category {
		case accounts.CashFlowOperating:
			st.Operating = st.Operating.Add(flow)
		case accounts.CashFlowInvesting:
			st.Investing = st.Investing.Add(flow)
		case accounts.CashFlowFinancing:
			st.Financing = st.Financing.Add(flow)
		}
	}
	st.NetCashFlow = st.Operating.Add(st.Investing).Add(st.Financing)
	st.ClosingCash = st.OpeningCash.Add(st.NetCashFlow)
	return st
}
