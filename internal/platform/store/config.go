package store

import "time"

// Config selects and tunes the SQLite backend
type Config struct {
	// Path is the database file; ":memory:" is accepted for tests
	Path string

	// BusyTimeout bounds lock waits; zero uses the driver default
	BusyTimeout time.Duration

	// InitSQL is an idempotent DDL script run once at open, may be empty
	InitSQL string

	// LogSQL enables per-statement debug logging
	LogSQL bool

	// SlowQueryMs marks statements at or above this duration as slow; <0 disables
	SlowQueryMs int
}
