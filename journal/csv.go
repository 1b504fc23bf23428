package journal

import (
	"encoding/csv"
	"io"
	"time"

	"github.com/rustyeddy/tradejournal/risk"
	"github.com/shopspring/decimal"
)

var csvHeader = []string{
	"id", "created_at", "instrument", "pair", "direction",
	"entry_price", "stop_loss_price", "take_profit_price", "risk_amount",
	"lot_size", "expected_profit",
	"result", "observation", "pre_trade_attachment", "post_trade_attachment",
}

// WriteCSV writes a header row and one row per record, in the order
// given. Absent take profit / expected profit are empty cells.
func WriteCSV(w io.Writer, trades []TradeRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, t := range trades {
		err := cw.Write([]string{
			t.ID,
			t.CreatedAt.UTC().Format(time.RFC3339),
			t.Instrument,
			t.Pair,
			string(t.Direction),
			t.EntryPrice.String(),
			t.StopLossPrice.String(),
			nullable(t.TakeProfitPrice, -1),
			t.RiskAmount.StringFixed(risk.Places),
			t.LotSize.StringFixed(risk.Places),
			nullable(t.ExpectedProfit, risk.Places),
			string(t.Result),
			t.Observation,
			t.PreTradeAttachment,
			t.PostTradeAttachment,
		})
		if err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// nullable formats d with places decimals, or as is when places < 0.
func nullable(d decimal.NullDecimal, places int32) string {
	if !d.Valid {
		return ""
	}
	if places < 0 {
		return d.Decimal.String()
	}
	return d.Decimal.StringFixed(places)
}
