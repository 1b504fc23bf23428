// journal/schema.go
package journal

// seq gives insertion order; created_at alone can tie.
const Schema = `
CREATE TABLE IF NOT EXISTS trades (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	scope TEXT NOT NULL,
	trade_id TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	instrument TEXT NOT NULL,
	pair TEXT NOT NULL,
	direction TEXT NOT NULL,
	entry_price TEXT NOT NULL,
	stop_loss_price TEXT NOT NULL,
	take_profit_price TEXT,
	risk_amount TEXT NOT NULL,
	lot_size TEXT NOT NULL,
	expected_profit TEXT,
	result TEXT NOT NULL DEFAULT '',
	observation TEXT NOT NULL DEFAULT '',
	pre_trade_attachment TEXT NOT NULL DEFAULT '',
	post_trade_attachment TEXT NOT NULL DEFAULT '',
	UNIQUE (scope, trade_id)
);

CREATE INDEX IF NOT EXISTS idx_trades_scope_result ON trades(scope, result);
`

const tradeColumns = `trade_id, created_at, instrument, pair, direction,
	entry_price, stop_loss_price, take_profit_price, risk_amount,
	lot_size, expected_profit,
	result, observation, pre_trade_attachment, post_trade_attachment`
