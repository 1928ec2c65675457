package ledger

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/awqaf-platform/waqf-ledger/internal/accounts"
)

// AccountActivity aggregates posted debit/credit totals for one account.
type AccountActivity struct {
	AccountID int64
	Code      string
	Name      string
	Type      accounts.AccountType
	Nature    accounts.Nature
	Debit     decimal.Decimal
	Credit    decimal.Decimal
}

// TrialBalanceRow is one line of the trial balance report.
type TrialBalanceRow struct {
	AccountID int64           `json:"account_id"`
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	Debit     decimal.Decimal `json:"debit"`
	Credit    decimal.Decimal `json:"credit"`
	Balance   decimal.Decimal `json:"balance"`
}

// TrialBalance is the full report with control totals.
type TrialBalance struct {
	AsOf        time.Time         `json:"as_of"`
	Rows        []TrialBalanceRow `json:"rows"`
	TotalDebit  decimal.Decimal   `json:"total_debit"`
	TotalCredit decimal.Decimal   `json:"total_credit"`
}

// Movement is a single posted line feeding the general ledger view.
type Movement struct {
	Date        time.Time       `json:"date"`
	EntryNumber string          `json:"entry_number"`
	Description string          `json:"description"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
}

// LedgerLine is a movement with its running balance.
type LedgerLine struct {
	Movement
	RunningBalance decimal.Decimal `json:"running_balance"`
}

// IntegrityError signals the global debit/credit invariant is broken. This
// is a data-integrity fault, not a business validation error: it indicates a
// bug or a concurrent-write race, and derived reports must not be computed
// while it holds.
type IntegrityError struct {
	Debits  decimal.Decimal
	Credits decimal.Decimal
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("ledger: integrity fault: posted debits %s != posted credits %s (difference %s)",
		e.Debits.String(), e.Credits.String(), e.Debits.Sub(e.Credits).String())
}
