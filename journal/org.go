package journal

import (
	"fmt"
	"strings"
	"time"

	"github.com/rustyeddy/tradejournal/risk"
)

// FormatTradeOrg renders a TradeRecord as an Org-mode block suitable for pasting into a journal.
// Structured facts go in the PROPERTIES drawer; the observation, the sized order and the
// attachments land in the Thesis/Execution/Review sections.
func FormatTradeOrg(t TradeRecord) string {
	state := "TODO"
	if t.Complete() {
		state = "DONE"
	}
	heading := fmt.Sprintf("** %s Trade: %s (%s)", state, orDash(t.Instrument), shortID(t.ID))

	var b strings.Builder
	b.WriteString(heading)
	b.WriteString("\n")
	b.WriteString(":PROPERTIES:\n")
	b.WriteString(fmt.Sprintf(":ID: %s\n", t.ID))
	b.WriteString(fmt.Sprintf(":CREATED: %s\n", t.CreatedAt.UTC().Format(time.RFC3339)))
	b.WriteString(fmt.Sprintf(":INSTRUMENT: %s\n", t.Instrument))
	if t.Pair != "" {
		b.WriteString(fmt.Sprintf(":PAIR: %s\n", t.Pair))
	}
	if t.Direction != "" {
		b.WriteString(fmt.Sprintf(":DIRECTION: %s\n", t.Direction))
	}
	b.WriteString(fmt.Sprintf(":ENTRY_PRICE: %s\n", t.EntryPrice))
	b.WriteString(fmt.Sprintf(":STOP_LOSS: %s\n", t.StopLossPrice))
	if t.TakeProfitPrice.Valid {
		b.WriteString(fmt.Sprintf(":TAKE_PROFIT: %s\n", t.TakeProfitPrice.Decimal))
	}
	b.WriteString(fmt.Sprintf(":RISK: %s\n", t.RiskAmount.StringFixed(risk.Places)))
	b.WriteString(fmt.Sprintf(":LOT_SIZE: %s\n", t.LotSize.StringFixed(risk.Places)))
	if t.ExpectedProfit.Valid {
		b.WriteString(fmt.Sprintf(":EXPECTED_PROFIT: %s\n", t.ExpectedProfit.Decimal.StringFixed(risk.Places)))
	}
	b.WriteString(fmt.Sprintf(":RESULT: %s\n", orDash(string(t.Result))))
	b.WriteString(":END:\n")
	b.WriteString("\n")
	b.WriteString("*** Thesis\n")
	b.WriteString(attachmentLine(t.PreTradeAttachment))
	b.WriteString("\n")
	b.WriteString("*** Execution\n")
	b.WriteString(executionLine(t))
	b.WriteString("\n")
	b.WriteString("*** Review\n")
	b.WriteString(fmt.Sprintf("- %s\n", t.Observation))
	b.WriteString(attachmentLine(t.PostTradeAttachment))

	return b.String()
}

// FormatTradesOrg renders multiple trades separated by blank lines.
func FormatTradesOrg(trades []TradeRecord) string {
	var b strings.Builder
	for i, t := range trades {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(FormatTradeOrg(t))
	}
	return b.String()
}

// executionLine summarizes the sized order, e.g.
// "- long 0.20 lots @ 1.105, SL 1.1, TP 1.115".
func executionLine(t TradeRecord) string {
	tp := "-"
	if t.TakeProfitPrice.Valid {
		tp = t.TakeProfitPrice.Decimal.String()
	}
	side := ""
	if t.Direction != "" {
		side = string(t.Direction) + " "
	}
	return fmt.Sprintf("- %s%s lots @ %s, SL %s, TP %s\n",
		side, t.LotSize.StringFixed(risk.Places), t.EntryPrice, t.StopLossPrice, tp)
}

func attachmentLine(ref string) string {
	if ref == "" {
		return "- \n"
	}
	return fmt.Sprintf("- [[file:%s]]\n", ref)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func shortID(full string) string {
	if len(full) <= 8 {
		return full
	}
	return full[:8]
}
