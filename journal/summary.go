package journal

import (
	"github.com/shopspring/decimal"
)

// Summary tallies a set of trades the way a backtest run is tallied.
type Summary struct {
	Trades     int `json:"trades"`
	Wins       int `json:"wins"`
	Losses     int `json:"losses"`
	Breakevens int `json:"breakevens"`
	Open       int `json:"open"`

	// WinRate is wins over wins+losses; breakevens do not count.
	WinRate decimal.Decimal `json:"win_rate"`

	TotalRisk decimal.Decimal `json:"total_risk"`
	// OpenExpectedProfit sums expected profit of trades without a result.
	OpenExpectedProfit decimal.Decimal `json:"open_expected_profit"`
}

func Summarize(trades []TradeRecord) Summary {
	s := Summary{
		WinRate:            decimal.Zero,
		TotalRisk:          decimal.Zero,
		OpenExpectedProfit: decimal.Zero,
	}
	for _, t := range trades {
		s.Trades++
		s.TotalRisk = s.TotalRisk.Add(t.RiskAmount)
		switch t.Result {
		case Win:
			s.Wins++
		case Loss:
			s.Losses++
		case Breakeven:
			s.Breakevens++
		default:
			s.Open++
			if t.ExpectedProfit.Valid {
				s.OpenExpectedProfit = s.OpenExpectedProfit.Add(t.ExpectedProfit.Decimal)
			}
		}
	}
	if decided := s.Wins + s.Losses; decided > 0 {
		s.WinRate = decimal.NewFromInt(int64(s.Wins)).Div(decimal.NewFromInt(int64(decided))).Round(4)
	}
	return s
}
