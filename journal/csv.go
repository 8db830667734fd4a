package journal

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"
)

var (
	eventHeader = []string{"event_id", "time", "level", "component", "symbol", "message", "fields"}
	tradeHeader = []string{"trade_id", "symbol", "qty", "entry_price", "exit_price", "open_time", "close_time", "realized_pl", "reason", "loss_streak"}
)

type CSVJournal struct {
	mu     sync.Mutex
	events *csv.Writer
	trades *csv.Writer
	ef, tf *os.File
}

// NewCSV appends to eventsPath and tradesPath, writing headers only when a
// file is new or empty.
func NewCSV(eventsPath, tradesPath string) (*CSVJournal, error) {
	ef, ew, err := openCSV(eventsPath, eventHeader)
	if err != nil {
		return nil, err
	}
	tf, tw, err := openCSV(tradesPath, tradeHeader)
	if err != nil {
		_ = ef.Close()
		return nil, err
	}
	return &CSVJournal{events: ew, trades: tw, ef: ef, tf: tf}, nil
}

func openCSV(path string, header []string) (*os.File, *csv.Writer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "open %s", path)
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, nil, err
	}

	w := csv.NewWriter(f)
	if st.Size() == 0 {
		if err := w.Write(header); err != nil {
			_ = f.Close()
			return nil, nil, err
		}
		w.Flush()
		if err := w.Error(); err != nil {
			_ = f.Close()
			return nil, nil, err
		}
	}
	return f, w, nil
}

func (j *CSVJournal) RecordEvent(e Event) error {
	fields := []byte("{}")
	if e.Fields != nil {
		var err error
		if fields, err = json.Marshal(e.Fields); err != nil {
			return err
		}
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.events.Write([]string{
		e.ID,
		e.Time.UTC().Format(time.RFC3339Nano),
		string(e.Level),
		e.Component,
		e.Symbol,
		e.Message,
		string(fields),
	}); err != nil {
		return err
	}
	j.events.Flush()
	return j.events.Error()
}

func (j *CSVJournal) RecordTrade(t TradeRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.trades.Write([]string{
		t.TradeID,
		t.Symbol,
		t.Qty.String(),
		t.EntryPrice.String(),
		t.ExitPrice.String(),
		t.OpenTime.UTC().Format(time.RFC3339),
		t.CloseTime.UTC().Format(time.RFC3339),
		t.RealizedPL.String(),
		t.Reason,
		strconv.Itoa(t.LossStreak),
	}); err != nil {
		return err
	}
	j.trades.Flush()
	return j.trades.Error()
}

func (j *CSVJournal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.events.Flush()
	if err := j.events.Error(); err != nil {
		return err
	}
	j.trades.Flush()
	if err := j.trades.Error(); err != nil {
		return err
	}

	if err := j.ef.Close(); err != nil {
		return err
	}
	return j.tf.Close()
}
