package store

// sqliteRunner wraps a single *sql.DB connection to the local file and
// implements RowQuerier + TxRunner. A connection-level mutex serializes
// transactions: dimension lookups and fact inserts are only atomic
// per-batch, so at most one Tx may run at a time system-wide

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

type sqliteRunner struct {
	db     *sql.DB
	mu     sync.Mutex
	store  *Store
	logSQL bool
	slowMs int
}

func openSQLite(ctx context.Context, cfg Config, s *Store) (*sqliteRunner, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlite: empty database path")
	}
	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", cfg.Path, err)
	}
	// one underlying connection; the mutex above is the real lock,
	// this keeps database/sql from handing out a second one
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	}
	if cfg.BusyTimeout > 0 {
		pragmas = append(pragmas, fmt.Sprintf("PRAGMA busy_timeout=%d", cfg.BusyTimeout.Milliseconds()))
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlite: %s: %w", p, err)
		}
	}

	if cfg.InitSQL != "" {
		if _, err := db.ExecContext(ctx, cfg.InitSQL); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlite: schema init: %w", err)
		}
	}

	slow := cfg.SlowQueryMs
	if slow == 0 {
		slow = 500
	}
	return &sqliteRunner{db: db, store: s, logSQL: cfg.LogSQL, slowMs: slow}, nil
}

func (r *sqliteRunner) Ping(ctx context.Context) error {
	var one int
	return r.QueryRow(ctx, "SELECT 1").Scan(&one)
}

func (r *sqliteRunner) Close() error { return r.db.Close() }

func (r *sqliteRunner) Exec(ctx context.Context, q string, args ...any) (CommandTag, error) {
	start := time.Now()
	res, err := r.db.ExecContext(ctx, q, args...)
	r.emit(ctx, q, start, err)
	if err != nil {
		return nil, err
	}
	return tag{res}, nil
}

func (r *sqliteRunner) Query(ctx context.Context, q string, args ...any) (Rows, error) {
	start := time.Now()
	rs, err := r.db.QueryContext(ctx, q, args...)
	r.emit(ctx, q, start, err)
	if err != nil {
		return nil, err
	}
	return rows{r: rs}, nil
}

func (r *sqliteRunner) QueryRow(ctx context.Context, q string, args ...any) Row {
	start := time.Now()
	row := r.db.QueryRowContext(ctx, q, args...)
	return scanRow{
		r: row,
		after: func(scanErr error) {
			r.emit(ctx, q, start, scanErr)
		},
	}
}

// Tx takes the connection lock, runs fn inside a transaction, and
// commits only when fn returns nil
func (r *sqliteRunner) Tx(ctx context.Context, fn func(q RowQuerier) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	q := txQuerier{tx: tx, run: r, ctx: ctx}
	if err := fn(q); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// emit logs statement timing when LogSQL or the slow threshold trips
func (r *sqliteRunner) emit(ctx context.Context, q string, start time.Time, err error) {
	if r.store == nil {
		return
	}
	elapsed := time.Since(start)
	slow := r.slowMs >= 0 && elapsed >= time.Duration(r.slowMs)*time.Millisecond
	if !r.logSQL && !slow && err == nil {
		return
	}
	ev := r.store.Log.Debug()
	if slow || err != nil {
		ev = r.store.Log.Warn()
	}
	ev.Str("sql", q).Dur("elapsed", elapsed).Bool("slow", slow).Err(err).Msg("sqlite query")
}

// adapters for database/sql to our tiny Row/Rows/CommandTag

type scanRow struct {
	r     *sql.Row
	after func(error)
}

func (x scanRow) Scan(dst ...any) error {
	err := x.r.Scan(dst...)
	if x.after != nil {
		x.after(err)
	}
	return err
}

type rows struct{ r *sql.Rows }

func (x rows) Next() bool            { return x.r.Next() }
func (x rows) Scan(dst ...any) error { return x.r.Scan(dst...) }
func (x rows) Err() error            { return x.r.Err() }
func (x rows) Close()                { _ = x.r.Close() }

type tag struct{ res sql.Result }

func (t tag) RowsAffected() int64 {
	n, err := t.res.RowsAffected()
	if err != nil {
		return 0
	}
	return n
}

// txQuerier satisfies RowQuerier inside a Tx and mirrors sqliteRunner
// emit behavior so queries inside transactions are also traced
type txQuerier struct {
	tx  *sql.Tx
	run *sqliteRunner
	ctx context.Context
}

func (t txQuerier) Exec(ctx context.Context, q string, args ...any) (CommandTag, error) {
	start := time.Now()
	res, err := t.tx.ExecContext(ctx, q, args...)
	t.run.emit(ctx, q, start, err)
	if err != nil {
		return nil, err
	}
	return tag{res}, nil
}

func (t txQuerier) Query(ctx context.Context, q string, args ...any) (Rows, error) {
	start := time.Now()
	rs, err := t.tx.QueryContext(ctx, q, args...)
	t.run.emit(ctx, q, start, err)
	if err != nil {
		return nil, err
	}
	return rows{r: rs}, nil
}

func (t txQuerier) QueryRow(ctx context.Context, q string, args ...any) Row {
	start := time.Now()
	row := t.tx.QueryRowContext(ctx, q, args...)
	return scanRow{
		r: row,
		after: func(scanErr error) {
			t.run.emit(ctx, q, start, scanErr)
		},
	}
}
