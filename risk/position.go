package risk

// Lot sizing follows the fixed pip-value model: one standard lot moves
// PipValuePerLot account units per pip, whatever the instrument.
//
// EUR_USD, 50 pip stop, 100 risk, 10/pip → 100 / (50 * 10) = 0.20 lots

import (
	"fmt"

	"github.com/rustyeddy/tradejournal/market"
	"github.com/shopspring/decimal"
)

// DefaultPipValuePerLot is the account-currency value of a one pip move
// on one standard lot.
var DefaultPipValuePerLot = decimal.NewFromInt(10)

// Places is the number of decimals lot size and profit are rounded to.
const Places = 2

type Inputs struct {
	Instrument string
	Direction  Direction

	EntryPrice      decimal.Decimal
	StopLossPrice   decimal.Decimal
	TakeProfitPrice decimal.NullDecimal // optional
	RiskAmount      decimal.Decimal
}

type Result struct {
	LotSize        decimal.Decimal
	ExpectedProfit decimal.NullDecimal // absent when no take profit was given

	PipSize    decimal.Decimal
	StopPips   decimal.Decimal
	TargetPips decimal.NullDecimal
	RR         decimal.Decimal
}

// Sizer turns a risk budget into a lot size. The zero value uses
// DefaultPipValuePerLot and market.DefaultPipTable.
type Sizer struct {
	PipValuePerLot decimal.Decimal
	Pips           market.PipTable
}

func NewSizer(pipValuePerLot decimal.Decimal, pips market.PipTable) Sizer {
	return Sizer{PipValuePerLot: pipValuePerLot, Pips: pips}
}

func (s Sizer) pipValue() decimal.Decimal {
	if s.PipValuePerLot.IsPositive() {
		return s.PipValuePerLot
	}
	return DefaultPipValuePerLot
}

func (s Sizer) pipTable() market.PipTable {
	if s.Pips == (market.PipTable{}) {
		return market.DefaultPipTable()
	}
	return s.Pips
}

// Compute derives lot size and expected profit.
//
// Rounding is half away from zero to two places (0.125 → 0.13). A zero
// stop distance is not an error: the lot size is 0 and, when a take
// profit was given, so is the expected profit. Expected profit is the
// unsigned gain at the target and does not depend on Direction.
func (s Sizer) Compute(in Inputs) (Result, error) {
	if err := in.Validate(); err != nil {
		return Result{}, err
	}

	pt := s.pipTable()
	loc := pt.Location(in.Instrument)
	pipValue := s.pipValue()

	res := Result{
		LotSize:  decimal.Zero,
		PipSize:  pt.PipSize(in.Instrument),
		StopPips: toPips(in.EntryPrice, in.StopLossPrice, loc),
		RR:       decimal.Zero,
	}
	if in.TakeProfitPrice.Valid {
		res.TargetPips = decimal.NewNullDecimal(toPips(in.TakeProfitPrice.Decimal, in.EntryPrice, loc))
	}

	if res.StopPips.IsZero() {
		if in.TakeProfitPrice.Valid {
			res.ExpectedProfit = decimal.NewNullDecimal(decimal.Zero)
		}
		return res, nil
	}

	res.LotSize = in.RiskAmount.Div(res.StopPips.Mul(pipValue)).Round(Places)

	if res.TargetPips.Valid {
		profit := res.TargetPips.Decimal.Mul(pipValue).Mul(res.LotSize).Round(Places)
		res.ExpectedProfit = decimal.NewNullDecimal(profit)
		res.RR = RR(in.EntryPrice, in.StopLossPrice, in.TakeProfitPrice.Decimal)
	}
	return res, nil
}

// Validate checks that prices and risk are positive, within
// CheckMagnitude bounds, and that the direction is known.
func (in Inputs) Validate() error {
	if err := positive("entry_price", in.EntryPrice); err != nil {
		return err
	}
	if err := positive("stop_loss_price", in.StopLossPrice); err != nil {
		return err
	}
	if err := positive("risk_amount", in.RiskAmount); err != nil {
		return err
	}
	if in.TakeProfitPrice.Valid {
		if err := positive("take_profit_price", in.TakeProfitPrice.Decimal); err != nil {
			return err
		}
	}
	if !in.Direction.Valid() {
		return fmt.Errorf("%w: direction must be long or short, got %q", ErrInvalidInput, in.Direction)
	}
	return nil
}

func positive(field string, d decimal.Decimal) error {
	if err := CheckMagnitude(field, d); err != nil {
		return err
	}
	if !d.IsPositive() {
		return fmt.Errorf("%w: %s must be positive, got %s", ErrInvalidInput, field, d)
	}
	return nil
}

// toPips is |a-b| expressed in pips; the shift is exact since pip sizes
// are powers of ten.
func toPips(a, b decimal.Decimal, loc int) decimal.Decimal {
	return a.Sub(b).Abs().Shift(int32(-loc))
}
