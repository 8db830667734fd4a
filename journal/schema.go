package journal

// Decimals are stored as TEXT so prices round-trip exactly.
const Schema = `
CREATE TABLE IF NOT EXISTS events (
	event_id TEXT PRIMARY KEY,
	time DATETIME NOT NULL,
	level TEXT NOT NULL,
	component TEXT NOT NULL,
	symbol TEXT NOT NULL,
	message TEXT NOT NULL,
	fields TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS trades (
	trade_id TEXT PRIMARY KEY,
	symbol TEXT NOT NULL,
	qty TEXT NOT NULL,
	entry_price TEXT NOT NULL,
	exit_price TEXT NOT NULL,
	open_time DATETIME NOT NULL,
	close_time DATETIME NOT NULL,
	realized_pl TEXT NOT NULL,
	reason TEXT NOT NULL,
	loss_streak INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_events_time ON events(time);
CREATE INDEX IF NOT EXISTS idx_trades_close_time ON trades(close_time);
`
