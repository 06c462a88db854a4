package errors

// SQLite-specific helpers for mapping driver errors to project ErrorCode and retry semantics

import (
	"context"
	stderrs "errors"

	sqlite "modernc.org/sqlite"
	sqlitelib "modernc.org/sqlite/lib"
)

// ExtractSQLiteError returns (*sqlite.Error, true) if the root cause is a driver error.
func ExtractSQLiteError(err error) (*sqlite.Error, bool) {
	var se *sqlite.Error
	if stderrs.As(Root(err), &se) {
		return se, true
	}
	return nil, false
}

// IsSQLiteCode reports whether the error carries the given primary SQLite result code
func IsSQLiteCode(err error, code int) bool {
	se, ok := ExtractSQLiteError(err)
	// extended result codes keep the primary code in the low byte
	return ok && se.Code()&0xff == code
}

// IsDuplicateKey reports whether the error is a unique constraint violation
func IsDuplicateKey(err error) bool { return IsSQLiteCode(err, sqlitelib.SQLITE_CONSTRAINT) }

// IsBusy reports whether another connection holds a conflicting lock
func IsBusy(err error) bool { return IsSQLiteCode(err, sqlitelib.SQLITE_BUSY) }

// IsLocked reports whether a table is locked within this connection
func IsLocked(err error) bool { return IsSQLiteCode(err, sqlitelib.SQLITE_LOCKED) }

// DBErrorCode maps a SQLite error to an ErrorCode with an ok flag
// !ok means err wasn't a driver error; caller may fall back to generic handling
func DBErrorCode(err error) (ErrorCode, bool) {
	se, ok := ExtractSQLiteError(err)
	if !ok {
		return ErrorCodeUnknown, false
	}
	switch se.Code() & 0xff {
	case sqlitelib.SQLITE_CONSTRAINT:
		return ErrorCodeDuplicateKey, true
	case sqlitelib.SQLITE_BUSY, sqlitelib.SQLITE_LOCKED:
		return ErrorCodeUnavailable, true
	default:
		return ErrorCodeDB, true
	}
}

// IsRetryable reports whether the error is worth retrying.
// Busy/locked conditions and context deadline expiry qualify; constraint and
// syntax errors never do
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if stderrs.Is(err, context.DeadlineExceeded) {
		return true
	}
	if stderrs.Is(err, context.Canceled) {
		return false
	}
	if IsBusy(err) || IsLocked(err) {
		return true
	}
	return IsCode(err, ErrorCodeUnavailable)
}
