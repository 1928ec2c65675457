package ledger

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/awqaf-platform/waqf-ledger/internal/accounts"
)

// BuildTrialBalance converts aggregated account activity into trial balance
// rows ordered by code. The balance column is positive on the account's
// natural side: a debit-nature account reports debit-credit, a credit-nature
// account the inverse.
func BuildTrialBalance(asOf time.Time, activity []AccountActivity) TrialBalance {
	report := TrialBalance{
		AsOf:        asOf,
		TotalDebit:  decimal.Zero,
		TotalCredit: decimal.Zero,
	}
	for _, act := range activity {
		balance := act.Debit.Sub(act.Credit)
		if act.Nature == accounts.NatureCredit {
			balance = balance.Neg()
		}
		report.Rows = append(report.Rows, TrialBalanceRow{
			AccountID: act.AccountID,
			Code:      act.Code,
			Name:      act.Name,
			Debit:     act.Debit,
			Credit:    act.Credit,
			Balance:   balance,
		})
		report.TotalDebit = report.TotalDebit.Add(act.Debit)
		report.TotalCredit = report.TotalCredit.Add(act.Credit)
	}
	sort.Slice(report.Rows, func(i, j int) bool {
		return report.Rows[i].Code < report.Rows[j].Code
	})
	return report
}

// BuildGeneralLedger folds movements into ledger lines with a running
// balance. The fold starts at zero for the queried window rather than the
// account's all-time balance: the ledger view is scoped to what the caller
// asked for.
func BuildGeneralLedger(nature accounts.Nature, movements []Movement) []LedgerLine {
	running := decimal.Zero
	lines := make([]LedgerLine, 0, len(movements))
	for _, m := range movements {
		delta := m.Debit.Sub(m.Credit)
		if nature == accounts.NatureCredit {
			delta = delta.Neg()
		}
		running = running.Add(delta)
		lines = append(lines, LedgerLine{Movement: m, RunningBalance: running})
	}
	return lines
}
