package ledger

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/awqaf-platform/waqf-ledger/internal/accounts"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestBuildTrialBalanceNaturalSideBalances(t *testing.T) {
	asOf := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	report := BuildTrialBalance(asOf, []AccountActivity{
		{AccountID: 2, Code: "4.1", Name: "Rental Income", Nature: accounts.NatureCredit, Debit: dec("0"), Credit: dec("500")},
		{AccountID: 1, Code: "1.1.1", Name: "Cash", Nature: accounts.NatureDebit, Debit: dec("500"), Credit: dec("120")},
		{AccountID: 3, Code: "5.1", Name: "Maintenance", Nature: accounts.NatureDebit, Debit: dec("120"), Credit: dec("0")},
	})

	if len(report.Rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(report.Rows))
	}
	// Rows come back ordered by code.
	if report.Rows[0].Code != "1.1.1" || report.Rows[1].Code != "4.1" || report.Rows[2].Code != "5.1" {
		t.Fatalf("unexpected row order: %s %s %s", report.Rows[0].Code, report.Rows[1].Code, report.Rows[2].Code)
	}
	if !report.Rows[0].Balance.Equal(dec("380")) {
		t.Fatalf("cash balance = %s, want 380", report.Rows[0].Balance)
	}
	// Credit-nature balance is positive on its natural side.
	if !report.Rows[1].Balance.Equal(dec("500")) {
		t.Fatalf("revenue balance = %s, want 500", report.Rows[1].Balance)
	}
	if !report.TotalDebit.Equal(report.TotalCredit) {
		t.Fatalf("control totals differ: %s vs %s", report.TotalDebit, report.TotalCredit)
	}
	if !report.TotalDebit.Equal(dec("620")) {
		t.Fatalf("total debit = %s, want 620", report.TotalDebit)
	}
}

func TestBuildGeneralLedgerRunningBalanceStartsAtZero(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2025, 3, d, 0, 0, 0, 0, time.UTC) }
	lines := BuildGeneralLedger(accounts.NatureDebit, []Movement{
		{Date: day(1), EntryNumber: "JE-001", Debit: dec("100")},
		{Date: day(5), EntryNumber: "JE-002", Credit: dec("30")},
		{Date: day(9), EntryNumber: "JE-003", Debit: dec("12.50")},
	})

	want := []string{"100", "70", "82.5"}
	for i, w := range want {
		if !lines[i].RunningBalance.Equal(dec(w)) {
			t.Fatalf("line %d running balance = %s, want %s", i, lines[i].RunningBalance, w)
		}
	}
}

func TestBuildGeneralLedgerCreditNature(t *testing.T) {
	lines := BuildGeneralLedger(accounts.NatureCredit, []Movement{
		{EntryNumber: "JE-001", Credit: dec("200")},
		{EntryNumber: "JE-002", Debit: dec("50")},
	})
	if !lines[1].RunningBalance.Equal(dec("150")) {
		t.Fatalf("running balance = %s, want 150", lines[1].RunningBalance)
	}
}

func TestIntegrityErrorReportsDifference(t *testing.T) {
	err := &IntegrityError{Debits: dec("1000"), Credits: dec("999.99")}
	msg := err.Error()
	if msg == "" {
		t.Fatal("expected non-empty message")
	}
	if want := "0.01"; !strings.Contains(msg, want) {
		t.Fatalf("message %q missing difference %s", msg, want)
	}
}
