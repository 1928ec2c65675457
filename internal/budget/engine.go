package budget

import (
	"github.com/shopspring/decimal"

	"github.com/awqaf-platform/waqf-ledger/internal/accounts"
)

var hundred = decimal.NewFromInt(100)

// Actual is the posted activity of one account within a period window.
type Actual struct {
	Debit  decimal.Decimal
	Credit decimal.Decimal
}

// ActualAmount reduces posted activity to the account's natural side:
// debit-nature accounts report debits minus credits, credit-nature the
// inverse. A revenue account's actual is therefore what it earned, not a
// raw credit sum.
func ActualAmount(nature accounts.Nature, actual Actual) decimal.Decimal {
	amount := actual.Debit.Sub(actual.Credit)
	if nature == accounts.NatureCredit {
		amount = amount.Neg()
	}
	return amount
}

// Variance computes the canonical favorable-positive variance.
//
// The convention, applied uniformly regardless of what a UI might colour:
//   - debit-nature rows (expenses, asset acquisitions): under-spend is
//     favorable, so variance = budgeted - actual;
//   - credit-nature rows (revenues): over-collection is favorable, so
//     variance = actual - budgeted.
//
// A positive variance is always good news for the waqf.
func Variance(nature accounts.Nature, budgeted, actual decimal.Decimal) decimal.Decimal {
	if nature == accounts.NatureCredit {
		return actual.Sub(budgeted)
	}
	return budgeted.Sub(actual)
}

// Utilization returns actual/budgeted as a percentage. A zero budget yields
// zero percent rather than an error.
func Utilization(budgeted, actual decimal.Decimal) decimal.Decimal {
	if budgeted.IsZero() {
		return decimal.Zero
	}
	return actual.Div(budgeted).Mul(hundred).Round(2)
}
