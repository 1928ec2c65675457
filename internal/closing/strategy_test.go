package closing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func statutory(t *testing.T) *PercentSplitStrategy {
	t.Helper()
	strategy, err := NewPercentSplitStrategy(SplitConfig{
		NazerPct:   dec("10"),
		CorpusPct:  dec("7.9"),
		CharityPct: dec("5"),
	})
	require.NoError(t, err)
	return strategy
}

func TestComputeSplitStatutoryShares(t *testing.T) {
	netIncome := dec("1365140.15")
	split, err := statutory(t).ComputeSplit(netIncome)
	require.NoError(t, err)

	require.True(t, split.Nazer.Equal(dec("136514.02")), "nazer = %s", split.Nazer)
	require.True(t, split.Corpus.Equal(dec("107846.07")), "corpus = %s", split.Corpus)
	require.True(t, split.Charity.Equal(dec("68257.01")), "charity = %s", split.Charity)

	// The three named shares carry 22.9% of net income, up to cent rounding.
	allocated := split.Allocated()
	expected := netIncome.Mul(dec("0.229"))
	require.True(t, allocated.Sub(expected).Abs().LessThan(dec("0.03")),
		"allocated %s drifts from %s", allocated, expected)

	// The beneficiary remainder absorbs rounding so the split sums exactly.
	total := allocated.Add(split.Beneficiaries)
	require.True(t, total.Equal(netIncome), "total %s != net income %s", total, netIncome)
}

func TestComputeSplitRoundsToCents(t *testing.T) {
	split, err := statutory(t).ComputeSplit(dec("100.01"))
	require.NoError(t, err)
	require.True(t, split.Nazer.Equal(dec("10.00")))
	require.True(t, split.Corpus.Equal(dec("7.90")))
	require.True(t, split.Charity.Equal(dec("5.00")))
	require.True(t, split.Beneficiaries.Equal(dec("77.11")))
}

func TestSplitConfigRejectsOverAllocation(t *testing.T) {
	_, err := NewPercentSplitStrategy(SplitConfig{
		NazerPct:   dec("50"),
		CorpusPct:  dec("40"),
		CharityPct: dec("20"),
	})
	require.ErrorIs(t, err, ErrPercentagesInvalid)
}

func TestSplitConfigRejectsNegativePercentage(t *testing.T) {
	_, err := NewPercentSplitStrategy(SplitConfig{NazerPct: dec("-1")})
	require.ErrorIs(t, err, ErrPercentagesInvalid)
}

func TestSplitConfigAcceptsExactlyHundred(t *testing.T) {
	strategy, err := NewPercentSplitStrategy(SplitConfig{
		NazerPct:   dec("60"),
		CorpusPct:  dec("30"),
		CharityPct: dec("10"),
	})
	require.NoError(t, err)

	split, err := strategy.ComputeSplit(dec("100"))
	require.NoError(t, err)
	require.True(t, split.Beneficiaries.IsZero())
}
