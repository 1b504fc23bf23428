package risk

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func codes(d Decision) []string {
	out := []string{}
	for _, v := range d.Violations {
		out = append(out, v.Code)
	}
	return out
}

func TestEvaluate(t *testing.T) {
	t.Parallel()

	in := Inputs{
		Instrument:      "EUR_USD",
		EntryPrice:      decimal.RequireFromString("1.1050"),
		StopLossPrice:   decimal.RequireFromString("1.1000"),
		TakeProfitPrice: decimal.NewNullDecimal(decimal.RequireFromString("1.1100")),
		RiskAmount:      decimal.NewFromInt(100),
	}
	res, err := Sizer{}.Compute(in)
	require.NoError(t, err)

	tests := []struct {
		name   string
		policy Policy
		want   []string
	}{
		{"no policy", Policy{}, []string{}},
		{"within limits", Policy{
			MaxRiskAmount: decimal.NewFromInt(100),
			MaxLotSize:    decimal.NewFromInt(1),
			MinRR:         decimal.NewFromInt(1),
		}, []string{}},
		{"risk too high", Policy{MaxRiskAmount: decimal.NewFromInt(50)}, []string{"RISK_TOO_HIGH"}},
		{"lot too large", Policy{MaxLotSize: decimal.RequireFromString("0.1")}, []string{"LOT_TOO_LARGE"}},
		{"rr too low", Policy{MinRR: decimal.RequireFromString("1.5")}, []string{"RR_TOO_LOW"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Evaluate(tt.policy, in, res)
			assert.Equal(t, tt.want, codes(d))
			assert.Equal(t, len(tt.want) == 0, d.Allowed)
		})
	}
}

func TestEvaluateSkipsRRWithoutTarget(t *testing.T) {
	t.Parallel()

	in := Inputs{
		EntryPrice:    decimal.RequireFromString("1.1050"),
		StopLossPrice: decimal.RequireFromString("1.1000"),
		RiskAmount:    decimal.NewFromInt(100),
	}
	res, err := Sizer{}.Compute(in)
	require.NoError(t, err)

	d := Evaluate(Policy{MinRR: decimal.NewFromInt(2)}, in, res)
	assert.True(t, d.Allowed)
}

func TestEvaluateZeroLot(t *testing.T) {
	t.Parallel()

	in := Inputs{
		EntryPrice:    decimal.RequireFromString("1.1000"),
		StopLossPrice: decimal.RequireFromString("1.1000"),
		RiskAmount:    decimal.NewFromInt(100),
	}
	res, err := Sizer{}.Compute(in)
	require.NoError(t, err)

	d := Evaluate(Policy{}, in, res)
	assert.False(t, d.Allowed)
	assert.Equal(t, []string{"ZERO_LOT"}, codes(d))
	assert.Contains(t, d.Violations[0].Msg, "0 pips")
}

func TestPolicyIsZero(t *testing.T) {
	t.Parallel()

	assert.True(t, Policy{}.IsZero())
	assert.False(t, Policy{MinRR: decimal.NewFromInt(1)}.IsZero())
}
