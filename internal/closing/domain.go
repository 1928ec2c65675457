package closing

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/awqaf-platform/waqf-ledger/internal/fiscalyear"
	"github.com/awqaf-platform/waqf-ledger/internal/journal"
)

var (
	// ErrPercentagesInvalid indicates the configured split percentages are
	// negative or sum above one hundred.
	ErrPercentagesInvalid = errors.New("closing: split percentages invalid")
	// ErrAlreadyClosed indicates the fiscal year was closed before.
	ErrAlreadyClosed = errors.New("closing: fiscal year already closed")
	// ErrNotActive indicates the fiscal year is not the active one.
	ErrNotActive = errors.New("closing: fiscal year not active")
	// ErrOpenDraftsExist indicates draft entries remain in the period.
	ErrOpenDraftsExist = errors.New("closing: open draft entries exist")
)

// SplitConfig holds the statutory percentages applied to net income at
// year end. The beneficiary share is not configured; it is whatever
// remains after the named shares.
type SplitConfig struct {
	NazerPct   decimal.Decimal
	CorpusPct  decimal.Decimal
	CharityPct decimal.Decimal
}

// Validate enforces the sum-at-most-one-hundred rule.
func (c SplitConfig) Validate() error {
	hundred := decimal.NewFromInt(100)
	for _, pct := range []decimal.Decimal{c.NazerPct, c.CorpusPct, c.CharityPct} {
		if pct.IsNegative() {
			return ErrPercentagesInvalid
		}
	}
	if c.NazerPct.Add(c.CorpusPct).Add(c.CharityPct).GreaterThan(hundred) {
		return ErrPercentagesInvalid
	}
	return nil
}

// SplitResult is the allocation of one year's net income.
type SplitResult struct {
	Nazer         decimal.Decimal `json:"nazer"`
	Corpus        decimal.Decimal `json:"corpus"`
	Charity       decimal.Decimal `json:"charity"`
	Beneficiaries decimal.Decimal `json:"beneficiaries"`
}

// Allocated returns the portion taken by the named statutory shares.
func (r SplitResult) Allocated() decimal.Decimal {
	return r.Nazer.Add(r.Corpus).Add(r.Charity)
}

// SplitStrategy computes the statutory allocation for a closing run.
// Alternate formulas plug in here without touching the closing state
// machine.
type SplitStrategy interface {
	ComputeSplit(netIncome decimal.Decimal) (SplitResult, error)
}

// Accounts names the ledger accounts the closing entry posts to. The
// income summary account absorbs the debit; each share is credited to
// its payable or equity account.
type Accounts struct {
	IncomeSummaryID int64
	NazerShareID    int64
	WaqfCorpusID    int64
	CharityShareID  int64
}

// Result reports one completed closing run.
type Result struct {
	FiscalYear fiscalyear.FiscalYear
	Split      SplitResult
	// Entry is the posted closing entry, zero-valued when net income was
	// not positive and no entry was required.
	Entry journal.Entry
}
