package journal

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// FormatTradeOrg renders one round trip as an Org-mode heading with its
// facts in a PROPERTIES drawer.
func FormatTradeOrg(t TradeRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "** Trade: %s %s (%s)\n", t.Symbol, t.Reason, shortID(t.TradeID))
	b.WriteString(":PROPERTIES:\n")
	fmt.Fprintf(&b, ":TRADE_ID: %s\n", t.TradeID)
	fmt.Fprintf(&b, ":SYMBOL: %s\n", t.Symbol)
	fmt.Fprintf(&b, ":QTY: %s\n", t.Qty.String())
	fmt.Fprintf(&b, ":ENTRY_PRICE: %s\n", t.EntryPrice.String())
	fmt.Fprintf(&b, ":EXIT_PRICE: %s\n", t.ExitPrice.String())
	fmt.Fprintf(&b, ":OPEN_TIME: %s\n", t.OpenTime.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, ":CLOSE_TIME: %s\n", t.CloseTime.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, ":REALIZED_PL: %s\n", t.RealizedPL.StringFixed(2))
	fmt.Fprintf(&b, ":REASON: %s\n", t.Reason)
	fmt.Fprintf(&b, ":LOSS_STREAK: %d\n", t.LossStreak)
	b.WriteString(":END:\n")
	return b.String()
}

// FormatTradesOrg renders multiple trades separated by blank lines.
func FormatTradesOrg(trades []TradeRecord) string {
	var b strings.Builder
	for i, t := range trades {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(FormatTradeOrg(t))
	}
	return b.String()
}

// FormatEventsOrg renders events as an Org table, one row per event with
// its extra fields sorted by key.
func FormatEventsOrg(events []Event) string {
	var b strings.Builder
	b.WriteString("| time | level | component | message | fields |\n")
	b.WriteString("|------+-------+-----------+---------+--------|\n")
	for _, e := range events {
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		kv := make([]string, 0, len(keys))
		for _, k := range keys {
			kv = append(kv, k+"="+e.Fields[k])
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
			e.Time.UTC().Format(time.RFC3339), e.Level, e.Component, orgCell(e.Message), orgCell(strings.Join(kv, " ")))
	}
	return b.String()
}

func orgCell(s string) string {
	return strings.ReplaceAll(s, "|", "\\vert{}")
}

func shortID(full string) string {
	if len(full) <= 8 {
		return full
	}
	return full[:8]
}
