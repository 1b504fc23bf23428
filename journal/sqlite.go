package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rustyeddy/tradejournal/risk"
)

// SQLiteStore keeps all scopes in one trades table. Each mutation is a
// single statement or transaction, so it is committed (journal_mode=WAL,
// synchronous=FULL) before the call returns.
//
// Like FileStore it only coordinates goroutines of one process.
type SQLiteStore struct {
	db    *sql.DB
	opts  Options
	locks scopeLocks
}

// NewSQLite opens or creates the database at path. A missing file is
// created empty; a file that is not a usable database fails with
// ErrStorageUnavailable.
func NewSQLite(path string, opts Options) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: journal db path is required", ErrInvalidInput)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, unavailable("create db dir", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_sync=FULL")
	if err != nil {
		return nil, unavailable("open "+path, err)
	}
	// one writer connection; sqlite serializes anyway
	db.SetMaxOpenConns(1)

	s, err := NewSQLiteDB(db, opts)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	s.opts.Log.WithField("path", path).Debug("sqlite journal opened")
	return s, nil
}

// NewSQLiteDB wraps an open database and makes sure the schema exists.
func NewSQLiteDB(db *sql.DB, opts Options) (*SQLiteStore, error) {
	if _, err := db.Exec(Schema); err != nil {
		return nil, unavailable("create schema", err)
	}
	return &SQLiteStore{db: db, opts: opts.withDefaults()}, nil
}

func (s *SQLiteStore) Append(ctx context.Context, scope Scope, d Draft) (TradeRecord, error) {
	if err := d.Validate(); err != nil {
		return TradeRecord{}, err
	}
	unlock := s.locks.lock(scope)
	defer unlock()

	rec := d.record(s.opts.NewID(), s.opts.Now().UTC())
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO trades (scope, `+tradeColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(scope), rec.ID, rec.CreatedAt, rec.Instrument, rec.Pair, string(rec.Direction),
		rec.EntryPrice, rec.StopLossPrice, rec.TakeProfitPrice, rec.RiskAmount,
		rec.LotSize, rec.ExpectedProfit,
		string(rec.Result), rec.Observation, rec.PreTradeAttachment, rec.PostTradeAttachment,
	)
	if err != nil {
		return TradeRecord{}, s.fail(ctx, "insert trade", scope, rec.ID, err)
	}

	s.opts.logger(scope, rec.ID).WithField("instrument", rec.Instrument).Info("trade appended")
	return rec, nil
}

func (s *SQLiteStore) Get(ctx context.Context, scope Scope, id string) (TradeRecord, error) {
	unlock := s.locks.rlock(scope)
	defer unlock()
	return s.get(ctx, s.db, scope, id)
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *SQLiteStore) get(ctx context.Context, q queryRower, scope Scope, id string) (TradeRecord, error) {
	row := q.QueryRowContext(ctx, `
		SELECT `+tradeColumns+`
		FROM trades
		WHERE scope = ? AND trade_id = ?`, string(scope), id)

	rec, err := scanTrade(row)
	if errors.Is(err, sql.ErrNoRows) {
		return TradeRecord{}, notFound(scope, id)
	}
	if err != nil {
		return TradeRecord{}, s.fail(ctx, "get trade", scope, id, err)
	}
	return rec, nil
}

func (s *SQLiteStore) UpdateOutcome(ctx context.Context, scope Scope, id string, u OutcomeUpdate) (TradeRecord, error) {
	if err := u.Validate(); err != nil {
		return TradeRecord{}, err
	}
	unlock := s.locks.lock(scope)
	defer unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return TradeRecord{}, s.fail(ctx, "begin update", scope, id, err)
	}
	defer tx.Rollback()

	var result sql.NullString
	if u.Result != nil {
		result = sql.NullString{String: string(*u.Result), Valid: true}
	}
	res, err := tx.ExecContext(ctx, `
		UPDATE trades
		SET result = COALESCE(?, result),
			observation = COALESCE(?, observation),
			post_trade_attachment = COALESCE(?, post_trade_attachment)
		WHERE scope = ? AND trade_id = ?`,
		result, nullString(u.Observation), nullString(u.PostTradeAttachment), string(scope), id,
	)
	if err != nil {
		return TradeRecord{}, s.fail(ctx, "update trade", scope, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return TradeRecord{}, s.fail(ctx, "update trade", scope, id, err)
	}
	if n == 0 {
		return TradeRecord{}, notFound(scope, id)
	}

	rec, err := s.get(ctx, tx, scope, id)
	if err != nil {
		return TradeRecord{}, err
	}
	if err := tx.Commit(); err != nil {
		return TradeRecord{}, s.fail(ctx, "commit update", scope, id, err)
	}

	s.opts.logger(scope, id).WithField("result", rec.Result).Info("trade outcome updated")
	return rec, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, scope Scope, id string) error {
	unlock := s.locks.lock(scope)
	defer unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM trades WHERE scope = ? AND trade_id = ?`, string(scope), id)
	if err != nil {
		return s.fail(ctx, "delete trade", scope, id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		s.opts.logger(scope, id).Debug("delete of missing trade ignored")
		return nil
	}

	s.opts.logger(scope, id).Info("trade deleted")
	return nil
}

func (s *SQLiteStore) List(ctx context.Context, scope Scope, f Filter) ([]TradeRecord, error) {
	unlock := s.locks.rlock(scope)
	defer unlock()

	query := `SELECT ` + tradeColumns + ` FROM trades WHERE scope = ?`
	switch f {
	case FilterComplete:
		query += ` AND result <> ''`
	case FilterIncomplete:
		query += ` AND result = ''`
	}
	query += ` ORDER BY seq DESC`

	rows, err := s.db.QueryContext(ctx, query, string(scope))
	if err != nil {
		return nil, s.fail(ctx, "list trades", scope, "", err)
	}
	defer rows.Close()

	out := []TradeRecord{}
	for rows.Next() {
		rec, err := scanTrade(rows)
		if err != nil {
			return nil, s.fail(ctx, "scan trade", scope, "", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, s.fail(ctx, "list trades", scope, "", err)
	}
	return out, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTrade(row scanner) (TradeRecord, error) {
	var (
		rec       TradeRecord
		direction string
		result    string
	)
	err := row.Scan(
		&rec.ID,
		&rec.CreatedAt,
		&rec.Instrument,
		&rec.Pair,
		&direction,
		&rec.EntryPrice,
		&rec.StopLossPrice,
		&rec.TakeProfitPrice,
		&rec.RiskAmount,
		&rec.LotSize,
		&rec.ExpectedProfit,
		&result,
		&rec.Observation,
		&rec.PreTradeAttachment,
		&rec.PostTradeAttachment,
	)
	if err != nil {
		return TradeRecord{}, err
	}
	rec.CreatedAt = rec.CreatedAt.UTC()
	rec.Direction = risk.Direction(direction)
	rec.Result = Outcome(result)
	if err := rec.check(); err != nil {
		return TradeRecord{}, fmt.Errorf("row %q: %v", rec.ID, err)
	}
	return rec, nil
}

// fail wraps database errors as ErrStorageUnavailable. Context
// cancellation is passed through unchanged.
func (s *SQLiteStore) fail(ctx context.Context, op string, scope Scope, id string, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	s.opts.logger(scope, id).WithError(err).Error(op + " failed")
	return unavailable(op, err)
}

func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}
