package journal

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatTradeOrg(t *testing.T) {
	closeT := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	tr := sampleTrade("01JNQ7Z8W3ABCDEF", closeT, "1.5")
	tr.LossStreak = 0

	out := FormatTradeOrg(tr)
	assert.True(t, strings.HasPrefix(out, "** Trade: BNBUSDT take_profit (01JNQ7Z8)\n"))
	assert.Contains(t, out, ":TRADE_ID: 01JNQ7Z8W3ABCDEF\n")
	assert.Contains(t, out, ":QTY: 5\n")
	assert.Contains(t, out, ":ENTRY_PRICE: 20.01\n")
	assert.Contains(t, out, ":OPEN_TIME: 2026-03-02T09:00:00Z\n")
	assert.Contains(t, out, ":CLOSE_TIME: 2026-03-02T10:00:00Z\n")
	assert.Contains(t, out, ":REALIZED_PL: 1.50\n")
	assert.True(t, strings.HasSuffix(out, ":END:\n"))
}

func TestFormatTradesOrg(t *testing.T) {
	closeT := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	out := FormatTradesOrg([]TradeRecord{
		sampleTrade("a", closeT, "1"),
		sampleTrade("b", closeT.Add(time.Hour), "-2"),
	})
	assert.Equal(t, 2, strings.Count(out, "** Trade:"))
	assert.Contains(t, out, ":END:\n\n** Trade:")
	assert.Empty(t, FormatTradesOrg(nil))
}

func TestFormatEventsOrg(t *testing.T) {
	out := FormatEventsOrg([]Event{{
		Time:      time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
		Level:     LevelWarning,
		Component: "market",
		Message:   "min notional missing | using 10",
		Fields:    map[string]string{"symbol_status": "TRADING", "default": "10"},
	}})

	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	assert.Len(t, lines, 3)
	assert.Equal(t, `| 2026-03-02T09:00:00Z | warning | market | min notional missing \vert{} using 10 | default=10 symbol_status=TRADING |`, lines[2])
}
