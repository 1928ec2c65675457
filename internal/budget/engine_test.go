package budget

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/awqaf-platform/waqf-ledger/internal/accounts"
	"github.com/awqaf-platform/waqf-ledger/internal/fiscalyear"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestActualAmountFollowsNature(t *testing.T) {
	expense := ActualAmount(accounts.NatureDebit, Actual{Debit: dec("800"), Credit: dec("50")})
	if !expense.Equal(dec("750")) {
		t.Fatalf("expense actual = %s, want 750", expense)
	}
	revenue := ActualAmount(accounts.NatureCredit, Actual{Debit: dec("10"), Credit: dec("900")})
	if !revenue.Equal(dec("890")) {
		t.Fatalf("revenue actual = %s, want 890", revenue)
	}
}

func TestVarianceFavorablePositive(t *testing.T) {
	// Expense under budget is favorable.
	v := Variance(accounts.NatureDebit, dec("1000"), dec("750"))
	if !v.Equal(dec("250")) {
		t.Fatalf("expense variance = %s, want 250", v)
	}
	// Revenue over budget is favorable; the sign convention inverts.
	v = Variance(accounts.NatureCredit, dec("1000"), dec("1100"))
	if !v.Equal(dec("100")) {
		t.Fatalf("revenue variance = %s, want 100", v)
	}
	// Revenue shortfall comes out negative.
	v = Variance(accounts.NatureCredit, dec("1000"), dec("900"))
	if !v.Equal(dec("-100")) {
		t.Fatalf("revenue shortfall variance = %s, want -100", v)
	}
}

func TestUtilizationGuardsZeroBudget(t *testing.T) {
	if u := Utilization(decimal.Zero, dec("500")); !u.IsZero() {
		t.Fatalf("zero-budget utilization = %s, want 0", u)
	}
	if u := Utilization(dec("1000"), dec("750")); !u.Equal(dec("75")) {
		t.Fatalf("utilization = %s, want 75", u)
	}
	if u := Utilization(dec("300"), dec("100")); !u.Equal(dec("33.33")) {
		t.Fatalf("utilization = %s, want 33.33", u)
	}
}

func TestPeriodWindowAnchorsToFiscalYearStart(t *testing.T) {
	fy := fiscalyear.FiscalYear{
		StartDate: time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
	}

	start, end := PeriodWindow(fy, PeriodMonth, 1)
	if !start.Equal(fy.StartDate) || !end.Equal(time.Date(2025, 4, 30, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("month 1 window = %s..%s", start, end)
	}

	start, end = PeriodWindow(fy, PeriodQuarter, 4)
	if !start.Equal(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)) || !end.Equal(fy.EndDate) {
		t.Fatalf("quarter 4 window = %s..%s", start, end)
	}

	start, end = PeriodWindow(fy, PeriodYear, 1)
	if !start.Equal(fy.StartDate) || !end.Equal(fy.EndDate) {
		t.Fatalf("year window = %s..%s", start, end)
	}
}
