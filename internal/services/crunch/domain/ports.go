package domain

import (
	"context"
	"io"
	"time"
)

// RunnerPort is the public port exposed by the module
type RunnerPort interface {
	Run(ctx context.Context) (RunSummary, error)
}

// StorageRepo is the storage repository interface
type StorageRepo interface {
	// InsertRecords commits a whole object's records. The caller wraps it in
	// one transaction; a failure aborts the batch, annotated with the
	// offending record index
	InsertRecords(ctx context.Context, recs []LogRecord) (int, error)

	// StartRun opens the audit row for a run
	StartRun(ctx context.Context, runID string, startedAt time.Time) error

	// FinishRun closes the audit row for a run
	FinishRun(ctx context.Context, runID string, fin RunFinish) error
}

// FetchPort is the bounded-retrieval pipeline interface
type FetchPort interface {
	Fetch(ctx context.Context, capacity int64) <-chan FetchResult
}

// ReaderPort is the record reader interface
type ReaderPort interface {
	Next() (LogRecord, error)
	Close() error
	Stats() (records int, bytes int64)
}

// ReaderFactory builds a ReaderPort over a raw compressed object body
type ReaderFactory interface {
	New(io.ReadCloser) (ReaderPort, error)
}
