package risk

import "fmt"

type Violation struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}

type Decision struct {
	Allowed    bool
	Violations []Violation
}

func (d *Decision) add(code, msg string) {
	d.Violations = append(d.Violations, Violation{Code: code, Msg: msg})
	d.Allowed = false
}

// Evaluate checks a computed sizing against p. Violations are advisory;
// nothing stops a caller from journaling the trade anyway.
func Evaluate(p Policy, in Inputs, res Result) Decision {
	d := Decision{Allowed: true}

	if res.LotSize.IsZero() {
		d.add("ZERO_LOT", fmt.Sprintf("stop distance of %s pips sizes to zero lots", res.StopPips))
	}

	if p.MaxRiskAmount.IsPositive() && in.RiskAmount.GreaterThan(p.MaxRiskAmount) {
		d.add("RISK_TOO_HIGH",
			fmt.Sprintf("risk %s exceeds max %s",
				in.RiskAmount.StringFixed(Places), p.MaxRiskAmount.StringFixed(Places)))
	}
	if p.MaxLotSize.IsPositive() && res.LotSize.GreaterThan(p.MaxLotSize) {
		d.add("LOT_TOO_LARGE",
			fmt.Sprintf("lot size %s exceeds max %s",
				res.LotSize.StringFixed(Places), p.MaxLotSize.StringFixed(Places)))
	}
	if p.MinRR.IsPositive() && in.TakeProfitPrice.Valid && res.RR.LessThan(p.MinRR) {
		d.add("RR_TOO_LOW",
			fmt.Sprintf("RR %s below minimum %s", res.RR.StringFixed(2), p.MinRR.StringFixed(2)))
	}

	return d
}
