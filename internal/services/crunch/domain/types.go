// Package domain holds the core types and ports for the crunch ingest service
package domain

import (
	"time"

	"logcrunch/internal/adapters/ingest/fastly"
	"logcrunch/internal/adapters/objstore"
)

// LogRecord re-exports the decoded access-log record shape
type LogRecord = fastly.LogRecord

// FetchResult re-exports one fetch outcome from the pipeline
type FetchResult = objstore.Result

// FetchedSet re-exports a retrieved object plus its finalization contract
type FetchedSet = objstore.FetchedSet

// RunSummary aggregates one ingest run
type RunSummary struct {
	RunID           string
	Objects         int
	OK              int
	Failed          int
	CleanupFailures int
	Records         int
	Started         time.Time
	Finished        time.Time
}

// RunFinish carries the final state written to the run audit row
type RunFinish struct {
	Status          string
	Objects         int
	OK              int
	Failed          int
	CleanupFailures int
	Records         int
	ErrText         string
}
