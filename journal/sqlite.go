package journal

import (
	"database/sql"
	"encoding/json"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

type SQLite struct {
	mu sync.Mutex
	db *sql.DB
}

var _ Reader = (*SQLite)(nil)

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrapf(err, "open journal %s", path)
	}

	if _, err := db.Exec(Schema); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "create journal schema")
	}

	return &SQLite{db: db}, nil
}

func (j *SQLite) RecordEvent(e Event) error {
	fields, err := json.Marshal(e.Fields)
	if err != nil {
		return err
	}
	if e.Fields == nil {
		fields = []byte("{}")
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	_, err = j.db.Exec(`
		INSERT INTO events
		(event_id, time, level, component, symbol, message, fields)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Time.UTC(), string(e.Level), e.Component, e.Symbol, e.Message, string(fields),
	)
	return err
}

func (j *SQLite) RecordTrade(t TradeRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	_, err := j.db.Exec(`
		INSERT INTO trades
		(trade_id, symbol, qty, entry_price, exit_price, open_time, close_time, realized_pl, reason, loss_streak)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.TradeID, t.Symbol, t.Qty.String(), t.EntryPrice.String(), t.ExitPrice.String(),
		t.OpenTime.UTC(), t.CloseTime.UTC(), t.RealizedPL.String(), t.Reason, t.LossStreak,
	)
	return err
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
