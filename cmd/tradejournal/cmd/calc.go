package cmd

import (
	"fmt"
	"io"

	"github.com/rustyeddy/tradejournal/market"
	"github.com/rustyeddy/tradejournal/risk"
	"github.com/spf13/cobra"
)

// sizingFlags are shared by calc and journal add.
type sizingFlags struct {
	instrument string
	direction  string
	entry      string
	stop       string
	takeProfit string
	risk       string
}

func (f *sizingFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVarP(&f.instrument, "instrument", "i", "EUR_USD", "instrument, e.g. EUR_USD or usdjpy")
	fl.StringVar(&f.direction, "direction", "", "long|short (informational)")
	fl.StringVar(&f.entry, "entry", "", "entry price (required)")
	fl.StringVar(&f.stop, "stop", "", "stop loss price (required)")
	fl.StringVar(&f.takeProfit, "tp", "", "take profit price")
	fl.StringVar(&f.risk, "risk", "", "amount to risk in account currency (required)")
}

func (f *sizingFlags) inputs() (risk.Inputs, error) {
	in, err := risk.ParseInputs(risk.RawInputs{
		Instrument:      f.instrument,
		Direction:       f.direction,
		EntryPrice:      f.entry,
		StopLossPrice:   f.stop,
		TakeProfitPrice: f.takeProfit,
		RiskAmount:      f.risk,
	})
	if err != nil {
		return risk.Inputs{}, err
	}
	in.Instrument = market.NormalizeInstrument(in.Instrument)
	return in, nil
}

func newCalcCmd(a *app) *cobra.Command {
	var f sizingFlags
	cmd := &cobra.Command{
		Use:   "calc",
		Short: "Compute lot size and expected profit",
		Long: `Size a position so that hitting the stop loses exactly the risk amount.

Examples:
  tradejournal calc --entry 1.1050 --stop 1.1000 --tp 1.1150 --risk 100
  tradejournal calc -i USD_JPY --entry 150.25 --stop 149.75 --risk 50`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(); err != nil {
				return err
			}
			in, err := f.inputs()
			if err != nil {
				return err
			}
			res, err := a.cfg.Sizer().Compute(in)
			if err != nil {
				return err
			}
			printSizing(cmd.OutOrStdout(), in, res)
			printWarnings(cmd.OutOrStdout(), risk.Evaluate(a.cfg.Policy(), in, res))
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func printSizing(w io.Writer, in risk.Inputs, res risk.Result) {
	fmt.Fprintf(w, "Instrument:      %s\n", in.Instrument)
	fmt.Fprintf(w, "Pip size:        %s\n", res.PipSize)
	fmt.Fprintf(w, "Stop distance:   %s pips\n", res.StopPips)
	if res.TargetPips.Valid {
		fmt.Fprintf(w, "Target distance: %s pips\n", res.TargetPips.Decimal)
	}
	fmt.Fprintf(w, "Lot size:        %s\n", res.LotSize.StringFixed(risk.Places))
	if res.ExpectedProfit.Valid {
		fmt.Fprintf(w, "Expected profit: %s\n", res.ExpectedProfit.Decimal.StringFixed(risk.Places))
		fmt.Fprintf(w, "Reward/risk:     %s\n", res.RR.StringFixed(risk.Places))
	} else {
		fmt.Fprintln(w, "Expected profit: -")
	}
}

func printWarnings(w io.Writer, d risk.Decision) {
	for _, v := range d.Violations {
		fmt.Fprintf(w, "! %s: %s\n", v.Code, v.Msg)
	}
}
