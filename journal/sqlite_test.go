package journal

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newTestSQLite(t *testing.T) (*SQLite, string) {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")

	j, err := NewSQLite(path)
	require.NoError(t, err)

	return j, path
}

func sampleTrade(id string, closeT time.Time, pl string) TradeRecord {
	return TradeRecord{
		TradeID:    id,
		Symbol:     "BNBUSDT",
		Qty:        d("5.00"),
		EntryPrice: d("20.01"),
		ExitPrice:  d("20.31"),
		OpenTime:   closeT.Add(-time.Hour),
		CloseTime:  closeT,
		RealizedPL: d(pl),
		Reason:     ReasonTakeProfit,
	}
}

func TestSQLiteSchemaCreated(t *testing.T) {
	t.Parallel()

	j, path := newTestSQLite(t)
	assert.NoError(t, j.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rows, err := db.Query(`SELECT name FROM sqlite_master WHERE type='table' AND name IN ('trades','events')`)
	require.NoError(t, err)
	defer rows.Close()

	found := map[string]bool{}
	for rows.Next() {
		var name string
		assert.NoError(t, rows.Scan(&name))
		found[name] = true
	}
	assert.NoError(t, rows.Err())

	assert.True(t, found["trades"])
	assert.True(t, found["events"])
}

func TestSQLiteRecordTrade(t *testing.T) {
	t.Parallel()

	j, path := newTestSQLite(t)

	closeT := time.Date(2026, 1, 2, 4, 5, 6, 0, time.UTC)
	rec := sampleTrade("T1", closeT, "1.50")
	rec.LossStreak = 2

	assert.NoError(t, j.RecordTrade(rec))
	assert.NoError(t, j.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	var (
		tradeID, symbol, qty, entry, exit, pl, reason string
		openTime, closeTime                          time.Time
		streak                                       int
	)
	err = db.QueryRow(`
        SELECT trade_id, symbol, qty, entry_price, exit_price, open_time, close_time, realized_pl, reason, loss_streak
        FROM trades LIMIT 1`).Scan(
		&tradeID, &symbol, &qty, &entry, &exit, &openTime, &closeTime, &pl, &reason, &streak,
	)
	require.NoError(t, err)

	assert.Equal(t, "T1", tradeID)
	assert.Equal(t, "BNBUSDT", symbol)
	assert.Equal(t, "5", qty)
	assert.Equal(t, "20.01", entry)
	assert.Equal(t, "20.31", exit)
	assert.Equal(t, "1.5", pl)
	assert.True(t, openTime.Equal(rec.OpenTime))
	assert.True(t, closeTime.Equal(rec.CloseTime))
	assert.Equal(t, ReasonTakeProfit, reason)
	assert.Equal(t, 2, streak)
}

func TestSQLiteRecordEvent(t *testing.T) {
	t.Parallel()

	j, path := newTestSQLite(t)

	ts := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	require.NoError(t, j.RecordEvent(Event{
		ID:        "E1",
		Time:      ts,
		Level:     LevelWarning,
		Component: "position",
		Symbol:    "BNBUSDT",
		Message:   "re-entry skipped",
		Fields:    map[string]string{"target": "0.00"},
	}))
	require.NoError(t, j.RecordEvent(Event{ID: "E2", Time: ts, Level: LevelInfo, Message: "no fields"}))
	assert.NoError(t, j.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	var (
		level, component, msg, fields string
		gotTime                       time.Time
	)
	err = db.QueryRow(`SELECT time, level, component, message, fields FROM events WHERE event_id = 'E1'`).
		Scan(&gotTime, &level, &component, &msg, &fields)
	require.NoError(t, err)

	assert.True(t, gotTime.Equal(ts))
	assert.Equal(t, "warning", level)
	assert.Equal(t, "position", component)
	assert.Equal(t, "re-entry skipped", msg)
	assert.JSONEq(t, `{"target":"0.00"}`, fields)

	err = db.QueryRow(`SELECT fields FROM events WHERE event_id = 'E2'`).Scan(&fields)
	require.NoError(t, err)
	assert.Equal(t, "{}", fields)
}

func TestOpenDrivers(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	j, err := Open(DriverSQLite, filepath.Join(dir, "j.db"))
	require.NoError(t, err)
	assert.IsType(t, &SQLite{}, j)
	assert.NoError(t, j.Close())

	j, err = Open(DriverCSV, dir)
	require.NoError(t, err)
	assert.IsType(t, &CSVJournal{}, j)
	assert.NoError(t, j.Close())
	assert.FileExists(t, filepath.Join(dir, "events.csv"))
	assert.FileExists(t, filepath.Join(dir, "trades.csv"))

	j, err = Open(DriverNone, "")
	require.NoError(t, err)
	assert.NoError(t, j.RecordTrade(TradeRecord{}))

	_, err = Open("postgres", "")
	assert.Error(t, err)
}
