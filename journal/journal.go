// Package journal is the append-only record of a trading session: every
// notable log line as an Event and every completed round trip as a
// TradeRecord. It is for review only; nothing is replayed from it.
package journal

import (
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

type Event struct {
	ID        string
	Time      time.Time
	Level     Level
	Component string
	Symbol    string
	Message   string
	Fields    map[string]string
}

const (
	ReasonTakeProfit = "take_profit"
	ReasonStopLoss   = "stop_loss"
)

// TradeRecord is one buy and the sell that closed it.
type TradeRecord struct {
	TradeID    string
	Symbol     string
	Qty        decimal.Decimal
	EntryPrice decimal.Decimal
	ExitPrice  decimal.Decimal
	OpenTime   time.Time
	CloseTime  time.Time
	RealizedPL decimal.Decimal
	Reason     string

	// LossStreak is the consecutive loss count after this exit.
	LossStreak int
}

type Journal interface {
	RecordEvent(Event) error
	RecordTrade(TradeRecord) error
	Close() error
}

// Reader is implemented by journals that can be queried after the fact.
type Reader interface {
	GetTrade(tradeID string) (TradeRecord, error)
	ListTradesClosedBetween(start, end time.Time) ([]TradeRecord, error)
	ListEventsBetween(start, end time.Time) ([]Event, error)
}

// Discard drops everything.
type Discard struct{}

func (Discard) RecordEvent(Event) error       { return nil }
func (Discard) RecordTrade(TradeRecord) error { return nil }
func (Discard) Close() error                  { return nil }

const (
	DriverSQLite = "sqlite"
	DriverCSV    = "csv"
	DriverNone   = "none"
)

// Open builds the journal for driver. path is the database file for sqlite
// and the output directory for csv.
func Open(driver, path string) (Journal, error) {
	switch driver {
	case DriverSQLite:
		return NewSQLite(path)
	case DriverCSV:
		if err := os.MkdirAll(path, 0o755); err != nil {
			return nil, errors.Wrapf(err, "create journal directory %s", path)
		}
		return NewCSV(filepath.Join(path, "events.csv"), filepath.Join(path, "trades.csv"))
	case DriverNone, "":
		return Discard{}, nil
	}
	return nil, errors.Errorf("unknown journal driver %q", driver)
}
