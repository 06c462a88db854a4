// Package store provides a unified seam over the local relational backend
package store

import (
	"context"
	"errors"

	"logcrunch/internal/platform/logger"
)

// Store is the facade over the SQLite backend
// zero value is safe but does nothing
type Store struct {
	// Log is the logger used by subclients
	// zero means a no op zerolog logger
	Log logger.Logger

	// DB is the sql seam, nil when disabled
	DB TxRunner
}

// Row exposes the minimal scan contract a single row needs
type Row interface {
	Scan(dest ...any) error
}

// Rows exposes the minimal iteration and scan for a result set
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
}

// CommandTag is a tiny interface to inspect command results
type CommandTag interface {
	RowsAffected() int64
}

// RowQuerier is the read and write surface repos use for sql
type RowQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) Row
}

// TxRunner wraps transaction execution around a function.
// Tx serializes: only one transaction runs at a time on the shared
// connection, which the batch-atomicity contract of repos relies on
type TxRunner interface {
	RowQuerier
	Tx(ctx context.Context, fn func(q RowQuerier) error) error
}

// Pinger is any seam that can report readiness
type Pinger interface{ Ping(context.Context) error }

// Option mutates the Store during Open
type Option func(*Store) error

// WithLogger attaches a logger used for slow-query and lifecycle logging
func WithLogger(l logger.Logger) Option {
	return func(s *Store) error {
		s.Log = l
		return nil
	}
}

// Open constructs a Store over the SQLite file named in cfg.
// Schema initialization (cfg.InitSQL) is idempotent: the DDL is
// CREATE IF NOT EXISTS and safe to run against a populated file
func Open(ctx context.Context, cfg Config, opts ...Option) (*Store, error) {
	s := &Store{}
	for _, o := range opts {
		if err := o(s); err != nil {
			return nil, err
		}
	}

	// defaults for zero logger to avoid nil checks
	s.Log = s.Log.With().Logger()

	run, err := openSQLite(ctx, cfg, s)
	if err != nil {
		return nil, err
	}
	s.DB = run
	return s, nil
}

// Guard verifies the backend is reachable
func (s *Store) Guard(ctx context.Context) error {
	if s == nil {
		return errors.New("nil store")
	}
	if s.DB != nil {
		if p, ok := any(s.DB).(Pinger); ok {
			return p.Ping(ctx)
		}
	}
	return nil
}

// Close closes the backend gracefully
func (s *Store) Close(ctx context.Context) error {
	if c, ok := s.DB.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
