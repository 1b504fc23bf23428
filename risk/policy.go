package risk

import "github.com/shopspring/decimal"

// Policy holds soft limits a sizing is checked against. Zero fields are
// not enforced.
type Policy struct {
	// Risk limits
	MaxRiskAmount decimal.Decimal // account currency
	MaxLotSize    decimal.Decimal

	// Trade constraints
	MinRR decimal.Decimal // only checked when a take profit is given
}

func (p Policy) IsZero() bool {
	return p.MaxRiskAmount.IsZero() && p.MaxLotSize.IsZero() && p.MinRR.IsZero()
}
