package journal

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

const tradeColumns = `trade_id, symbol, qty, entry_price, exit_price, open_time, close_time, realized_pl, reason, loss_streak`

type scanner interface {
	Scan(dest ...any) error
}

func scanTrade(s scanner) (TradeRecord, error) {
	var rec TradeRecord
	err := s.Scan(
		&rec.TradeID,
		&rec.Symbol,
		&rec.Qty,
		&rec.EntryPrice,
		&rec.ExitPrice,
		&rec.OpenTime,
		&rec.CloseTime,
		&rec.RealizedPL,
		&rec.Reason,
		&rec.LossStreak,
	)
	return rec, err
}

// GetTrade returns a single trade record by ID.
func (j *SQLite) GetTrade(tradeID string) (TradeRecord, error) {
	row := j.db.QueryRow(`SELECT `+tradeColumns+` FROM trades WHERE trade_id = ?`, tradeID)

	rec, err := scanTrade(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return TradeRecord{}, fmt.Errorf("trade %q not found", tradeID)
		}
		return TradeRecord{}, err
	}
	return rec, nil
}

// ListTradesClosedBetween returns trades whose close_time is within [start, end).
func (j *SQLite) ListTradesClosedBetween(start, end time.Time) ([]TradeRecord, error) {
	rows, err := j.db.Query(`
		SELECT `+tradeColumns+`
		FROM trades
		WHERE close_time >= ? AND close_time < ?
		ORDER BY close_time ASC`, start.UTC(), end.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TradeRecord
	for rows.Next() {
		rec, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListEventsBetween returns events with time within [start, end), oldest first.
func (j *SQLite) ListEventsBetween(start, end time.Time) ([]Event, error) {
	rows, err := j.db.Query(`
		SELECT event_id, time, level, component, symbol, message, fields
		FROM events
		WHERE time >= ? AND time < ?
		ORDER BY time ASC, event_id ASC`, start.UTC(), end.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var (
			ev     Event
			level  string
			fields string
		)
		if err := rows.Scan(&ev.ID, &ev.Time, &level, &ev.Component, &ev.Symbol, &ev.Message, &fields); err != nil {
			return nil, err
		}
		ev.Level = Level(level)
		if err := json.Unmarshal([]byte(fields), &ev.Fields); err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
