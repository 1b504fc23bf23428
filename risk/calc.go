package risk

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidInput marks sizing inputs that are missing, non-numeric,
// non-finite or out of range.
var ErrInvalidInput = errors.New("invalid input")

type Direction string

const (
	Long  Direction = "long"
	Short Direction = "short"
)

// Valid reports whether d is long, short or unset.
func (d Direction) Valid() bool {
	return d == "" || d == Long || d == Short
}

func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return "", nil
	case "long", "buy":
		return Long, nil
	case "short", "sell":
		return Short, nil
	}
	return "", fmt.Errorf("%w: unknown direction %q", ErrInvalidInput, s)
}

// RR is reward over risk, rounded to two places. Zero when the stop
// distance is zero.
func RR(entry, stop, takeProfit decimal.Decimal) decimal.Decimal {
	risk := entry.Sub(stop).Abs()
	reward := takeProfit.Sub(entry).Abs()
	if risk.IsZero() {
		return decimal.Zero
	}
	return reward.Div(risk).Round(Places)
}

// RawInputs is sizing input as it arrives from forms and flags.
type RawInputs struct {
	Instrument      string
	Direction       string
	EntryPrice      string
	StopLossPrice   string
	TakeProfitPrice string // empty means no target
	RiskAmount      string
}

// ParseInputs converts text fields into Inputs. Values are only parsed
// here; range checks happen in Inputs.Validate.
func ParseInputs(raw RawInputs) (Inputs, error) {
	var (
		in  Inputs
		err error
	)
	in.Instrument = strings.TrimSpace(raw.Instrument)
	if in.Direction, err = ParseDirection(raw.Direction); err != nil {
		return Inputs{}, err
	}
	if in.EntryPrice, err = parseRequired("entry_price", raw.EntryPrice); err != nil {
		return Inputs{}, err
	}
	if in.StopLossPrice, err = parseRequired("stop_loss_price", raw.StopLossPrice); err != nil {
		return Inputs{}, err
	}
	if in.RiskAmount, err = parseRequired("risk_amount", raw.RiskAmount); err != nil {
		return Inputs{}, err
	}
	if strings.TrimSpace(raw.TakeProfitPrice) != "" {
		tp, err := parseRequired("take_profit_price", raw.TakeProfitPrice)
		if err != nil {
			return Inputs{}, err
		}
		in.TakeProfitPrice = decimal.NewNullDecimal(tp)
	}
	return in, nil
}

func parseRequired(field, s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Decimal{}, fmt.Errorf("%w: %s is required", ErrInvalidInput, field)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %s is not a number: %q", ErrInvalidInput, field, s)
	}
	if err := CheckMagnitude(field, d); err != nil {
		return decimal.Decimal{}, err
	}
	return d, nil
}

// Limits on the decimals accepted as prices and amounts. Arithmetic on
// a decimal aligns exponents, so "1e900000000" would allocate a
// 900M digit integer.
const (
	MaxExponent = 12
	MaxDigits   = 24
)

// CheckMagnitude rejects d when its exponent lies outside
// [-MaxExponent, MaxExponent] or it carries more than MaxDigits digits.
func CheckMagnitude(field string, d decimal.Decimal) error {
	if e := d.Exponent(); e < -MaxExponent || e > MaxExponent {
		return fmt.Errorf("%w: %s is out of range (exponent %d)", ErrInvalidInput, field, e)
	}
	if n := d.NumDigits(); n > MaxDigits {
		return fmt.Errorf("%w: %s has too many digits (%d)", ErrInvalidInput, field, n)
	}
	return nil
}

// DecimalFromFloat converts f, rejecting NaN and infinities which
// decimal.NewFromFloat would panic on.
func DecimalFromFloat(field string, f float64) (decimal.Decimal, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Decimal{}, fmt.Errorf("%w: %s is not finite", ErrInvalidInput, field)
	}
	return decimal.NewFromFloat(f), nil
}
