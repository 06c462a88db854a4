package store

import (
	"context"
	"errors"
	"testing"

	kit "logcrunch/internal/platform/testkit"
)

const testSchema = `
CREATE TABLE IF NOT EXISTS kv (
    k TEXT PRIMARY KEY,
    v TEXT NOT NULL
);
`

func openTest(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), Config{
		Path:    kit.TempDB(t),
		InitSQL: testSchema,
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

func TestOpen_SchemaInitIsIdempotent(t *testing.T) {
	path := kit.TempDB(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		s, err := Open(ctx, Config{Path: path, InitSQL: testSchema})
		if err != nil {
			t.Fatalf("Open #%d: %v", i+1, err)
		}
		if err := s.Guard(ctx); err != nil {
			t.Fatalf("Guard #%d: %v", i+1, err)
		}
		if err := s.Close(ctx); err != nil {
			t.Fatalf("Close #%d: %v", i+1, err)
		}
	}
}

func TestOpen_EmptyPathFails(t *testing.T) {
	if _, err := Open(context.Background(), Config{}); err == nil {
		t.Fatalf("Open with empty path should fail")
	}
}

func TestExecQueryRoundTrip(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	tag, err := s.DB.Exec(ctx, "INSERT INTO kv (k, v) VALUES (?, ?)", "a", "1")
	if err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if tag.RowsAffected() != 1 {
		t.Fatalf("RowsAffected = %d, want 1", tag.RowsAffected())
	}

	var v string
	if err := s.DB.QueryRow(ctx, "SELECT v FROM kv WHERE k = ?", "a").Scan(&v); err != nil {
		t.Fatalf("QueryRow: %v", err)
	}
	if v != "1" {
		t.Fatalf("v = %q, want 1", v)
	}
}

func TestTx_CommitAndRollback(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	// commit path
	err := s.DB.Tx(ctx, func(q RowQuerier) error {
		_, err := q.Exec(ctx, "INSERT INTO kv (k, v) VALUES (?, ?)", "c", "ok")
		return err
	})
	if err != nil {
		t.Fatalf("Tx commit: %v", err)
	}

	// rollback path: fn error discards the whole transaction
	boom := errors.New("boom")
	err = s.DB.Tx(ctx, func(q RowQuerier) error {
		if _, err := q.Exec(ctx, "INSERT INTO kv (k, v) VALUES (?, ?)", "r", "no"); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Tx rollback err = %v, want boom", err)
	}

	var n int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(*) FROM kv").Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("rows after rollback = %d, want 1", n)
	}
}

func TestTx_Serializes(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	inTx := false
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.DB.Tx(ctx, func(q RowQuerier) error {
			if inTx {
				t.Errorf("two transactions overlapped")
			}
			return nil
		})
	}()
	err := s.DB.Tx(ctx, func(q RowQuerier) error {
		inTx = true
		defer func() { inTx = false }()
		_, err := q.Exec(ctx, "INSERT INTO kv (k, v) VALUES (?, ?)", "s", "1")
		return err
	})
	if err != nil {
		t.Fatalf("Tx: %v", err)
	}
	<-done
}
