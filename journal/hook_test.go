package journal

import (
	"bytes"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memJournal struct {
	mu     sync.Mutex
	events []Event
	trades []TradeRecord
}

func (m *memJournal) RecordEvent(e Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return nil
}

func (m *memJournal) RecordTrade(t TradeRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trades = append(m.trades, t)
	return nil
}

func (m *memJournal) Close() error { return nil }

func TestHookMirrorsInfoAndAbove(t *testing.T) {
	t.Parallel()

	mem := &memJournal{}
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	logger.SetLevel(logrus.DebugLevel)
	logger.AddHook(NewHook(mem))

	log := logger.WithFields(logrus.Fields{"component": "position", "symbol": "BNBUSDT"})
	log.Debug("not journaled")
	log.WithField("price", "20.31").Info("take profit hit")
	log.Warn("re-entry skipped")
	log.WithError(errors.New("timeout")).Error("ticker")

	require.Len(t, mem.events, 3)

	first := mem.events[0]
	assert.Equal(t, LevelInfo, first.Level)
	assert.Equal(t, "position", first.Component)
	assert.Equal(t, "BNBUSDT", first.Symbol)
	assert.Equal(t, "take profit hit", first.Message)
	assert.Equal(t, "20.31", first.Fields["price"])
	assert.NotEmpty(t, first.ID)
	assert.False(t, first.Time.IsZero())

	assert.Equal(t, LevelWarning, mem.events[1].Level)
	assert.Nil(t, mem.events[1].Fields)
	assert.Equal(t, LevelError, mem.events[2].Level)
	assert.Equal(t, "timeout", mem.events[2].Fields["error"])
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 4, 10, 9, 0, 0, 0, time.UTC)
	trades := []TradeRecord{
		sampleTrade("1", base, "3"),
		sampleTrade("2", base.Add(time.Minute), "-1"),
		sampleTrade("3", base.Add(2*time.Minute), "-1"),
		sampleTrade("4", base.Add(3*time.Minute), "2"),
	}
	trades[1].LossStreak = 1
	trades[2].LossStreak = 2
	other := sampleTrade("5", base, "100")
	other.Symbol = "ETHUSDT"
	trades = append(trades, other)

	s := Summarize("BNBUSDT", base, base.Add(time.Hour), trades)
	assert.Equal(t, 4, s.Trades)
	assert.Equal(t, 2, s.Wins)
	assert.Equal(t, 2, s.Losses)
	assert.Equal(t, 2, s.MaxLossRun)
	assert.Equal(t, 0, s.FinalStreak)
	assert.True(t, d("3").Equal(s.NetPL))
	assert.True(t, d("50").Equal(s.WinRate))
	assert.True(t, d("2.5").Equal(s.ProfitFactor))

	var buf bytes.Buffer
	require.NoError(t, s.WriteOrg(&buf))
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "* SESSION: BNBUSDT"))
	assert.Contains(t, out, ":NET_PL:      3.00")
	assert.Contains(t, out, "| Profit factor    | 2.50 |")

	all := Summarize("", base, base.Add(time.Hour), trades)
	assert.Equal(t, 5, all.Trades)
}
