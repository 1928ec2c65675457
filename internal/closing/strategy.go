package closing

import "github.com/shopspring/decimal"

// PercentSplitStrategy applies flat configured percentages to net income.
// Share amounts are rounded to two decimal places; the beneficiary
// remainder absorbs any rounding drift so the allocation always sums to
// exactly the net income.
type PercentSplitStrategy struct {
	Config SplitConfig
}

// NewPercentSplitStrategy validates the config up front so a bad
// configuration fails at wiring time rather than at year end.
func NewPercentSplitStrategy(cfg SplitConfig) (*PercentSplitStrategy, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &PercentSplitStrategy{Config: cfg}, nil
}

// ComputeSplit allocates netIncome across the statutory shares.
func (s *PercentSplitStrategy) ComputeSplit(netIncome decimal.Decimal) (SplitResult, error) {
	if err := s.Config.Validate(); err != nil {
		return SplitResult{}, err
	}
	hundred := decimal.NewFromInt(100)
	result := SplitResult{
		Nazer:   netIncome.Mul(s.Config.NazerPct).Div(hundred).Round(2),
		Corpus:  netIncome.Mul(s.Config.CorpusPct).Div(hundred).Round(2),
		Charity: netIncome.Mul(s.Config.CharityPct).Div(hundred).Round(2),
	}
	result.Beneficiaries = netIncome.Sub(result.Allocated())
	return result, nil
}
