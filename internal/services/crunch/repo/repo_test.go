package repo

import (
	"context"
	"net/netip"
	"testing"
	"time"

	"logcrunch/internal/modkit/repokit"
	perr "logcrunch/internal/platform/errors"
	"logcrunch/internal/platform/store"
	"logcrunch/internal/platform/testkit"
	"logcrunch/internal/services/crunch/domain"
)

func openStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(context.Background(), store.Config{
		Path:    testkit.TempDB(t),
		InitSQL: Schema(),
	})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close(context.Background()) })
	return st
}

func strPtr(s string) *string { return &s }

func sampleRecord() domain.LogRecord {
	return domain.LogRecord{
		ClientIP:         netip.MustParseAddr("1.2.3.4"),
		ASN:              64512,
		CountryCode:      strPtr("US"),
		Requests:         3,
		IPv6:             false,
		HTTP2:            true,
		URLPath:          "/x",
		Referer:          strPtr(""),
		UserAgent:        strPtr("ua"),
		CacheState:       "HIT",
		Status:           200,
		ResponseBytes:    512,
		ResponseDuration: 1500 * time.Millisecond,
		RequestStart:     time.Unix(1700000000, 0).UTC(),
	}
}

func countRows(t *testing.T, st *store.Store, table string) int {
	t.Helper()
	var n int
	if err := st.DB.QueryRow(context.Background(), `SELECT COUNT(*) FROM `+table).Scan(&n); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}

func insertBatch(t *testing.T, st *store.Store, recs []domain.LogRecord) error {
	t.Helper()
	return st.DB.Tx(context.Background(), func(q repokit.Queryer) error {
		_, err := NewSQLite().Bind(q).InsertRecords(context.Background(), recs)
		return err
	})
}

func TestInsertRecords_DedupesDimensions(t *testing.T) {
	st := openStore(t)

	if err := insertBatch(t, st, []domain.LogRecord{sampleRecord()}); err != nil {
		t.Fatalf("first batch: %v", err)
	}
	if err := insertBatch(t, st, []domain.LogRecord{sampleRecord()}); err != nil {
		t.Fatalf("second batch: %v", err)
	}

	for _, table := range []string{"client_ips", "paths", "referers", "user_agents", "autonomous_systems"} {
		if n := countRows(t, st, table); n != 1 {
			t.Fatalf("%s rows = %d, want 1 after re-ingest", table, n)
		}
	}
	if n := countRows(t, st, "requests"); n != 2 {
		t.Fatalf("requests rows = %d, want 2", n)
	}
}

func TestInsertRecords_FactColumns(t *testing.T) {
	st := openStore(t)
	if err := insertBatch(t, st, []domain.LogRecord{sampleRecord()}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	var durMS, ipv6, http2 int
	var start string
	err := st.DB.QueryRow(context.Background(), `
		SELECT response_duration_ms, ipv6, http2, request_start FROM requests
	`).Scan(&durMS, &ipv6, &http2, &start)
	if err != nil {
		t.Fatalf("select fact: %v", err)
	}
	if durMS != 1500 {
		t.Fatalf("response_duration_ms = %d, want 1500", durMS)
	}
	if ipv6 != 0 || http2 != 1 {
		t.Fatalf("flags = ipv6:%d http2:%d, want 0/1", ipv6, http2)
	}
	if start != "2023-11-14T22:13:20Z" {
		t.Fatalf("request_start = %q", start)
	}

	// the fact resolves its client ip through the v4 column
	var ip string
	err = st.DB.QueryRow(context.Background(), `
		SELECT c.ipv4 FROM requests r JOIN client_ips c ON c.id = r.client_ip_id
	`).Scan(&ip)
	if err != nil {
		t.Fatalf("join client ip: %v", err)
	}
	if ip != "1.2.3.4" {
		t.Fatalf("client ip = %q", ip)
	}
}

func TestInsertRecords_V6AddressFamily(t *testing.T) {
	st := openStore(t)

	rec := sampleRecord()
	rec.ClientIP = netip.MustParseAddr("2001:db8::1")
	rec.IPv6 = true
	if err := insertBatch(t, st, []domain.LogRecord{rec}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	var ipv4 any
	var ipv6 string
	err := st.DB.QueryRow(context.Background(), `
		SELECT c.ipv4, c.ipv6 FROM requests r JOIN client_ips c ON c.id = r.client_ip_id
	`).Scan(&ipv4, &ipv6)
	if err != nil {
		t.Fatalf("join client ip: %v", err)
	}
	if ipv4 != nil {
		t.Fatalf("ipv4 = %v, want NULL for a v6 client", ipv4)
	}
	if ipv6 != "2001:db8::1" {
		t.Fatalf("ipv6 = %q", ipv6)
	}
}

func TestInsertRecords_SharedAddressDedupesAcrossFamilies(t *testing.T) {
	st := openStore(t)

	v4 := sampleRecord()
	v6 := sampleRecord()
	v6.ClientIP = netip.MustParseAddr("2001:db8::1")
	v6.IPv6 = true

	if err := insertBatch(t, st, []domain.LogRecord{v4, v6, v4}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if n := countRows(t, st, "client_ips"); n != 2 {
		t.Fatalf("client_ips rows = %d, want 2 (one per address)", n)
	}
	if n := countRows(t, st, "requests"); n != 3 {
		t.Fatalf("requests rows = %d, want 3", n)
	}
}

func TestInsertRecords_FailureCarriesRecordIndex(t *testing.T) {
	st := openStore(t)

	if _, err := st.DB.Exec(context.Background(), `ALTER TABLE requests RENAME TO requests_gone`); err != nil {
		t.Fatalf("break schema: %v", err)
	}

	err := insertBatch(t, st, []domain.LogRecord{sampleRecord(), sampleRecord()})
	if err == nil {
		t.Fatalf("expected failure with missing fact table")
	}
	if idx := perr.RecordOf(err); idx != 0 {
		t.Fatalf("record index = %d, want 0", idx)
	}
	// a driver error with no special mapping surfaces as a storage error
	if code := perr.CodeOf(err); code != perr.ErrorCodeDB {
		t.Fatalf("code = %v, want %v", code, perr.ErrorCodeDB)
	}
}

func TestRunAudit_RoundTrip(t *testing.T) {
	st := openStore(t)
	ctx := context.Background()
	repo := NewSQLite().Bind(st.DB)

	started := time.Now().UTC()
	if err := repo.StartRun(ctx, "run-1", started); err != nil {
		t.Fatalf("StartRun: %v", err)
	}

	var status string
	if err := st.DB.QueryRow(ctx, `SELECT status FROM crunch_runs WHERE run_id = 'run-1'`).Scan(&status); err != nil {
		t.Fatalf("select run: %v", err)
	}
	if status != "running" {
		t.Fatalf("status = %q, want running", status)
	}

	fin := domain.RunFinish{
		Status: "partial", Objects: 4, OK: 3, Failed: 1, Records: 42,
		ErrText: "object \"logs/bad.gz\": JSON parse error in entry 7",
	}
	if err := repo.FinishRun(ctx, "run-1", fin); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}

	var objects, ok, failed, records int
	var errText string
	err := st.DB.QueryRow(ctx, `
		SELECT status, objects, ok, failed, records, error FROM crunch_runs WHERE run_id = 'run-1'
	`).Scan(&status, &objects, &ok, &failed, &records, &errText)
	if err != nil {
		t.Fatalf("select finished run: %v", err)
	}
	if status != "partial" || objects != 4 || ok != 3 || failed != 1 || records != 42 {
		t.Fatalf("audit row = %s %d/%d/%d/%d", status, objects, ok, failed, records)
	}
	if errText == "" {
		t.Fatalf("error text should be recorded")
	}

	// restart is idempotent and clears the terminal state
	if err := repo.StartRun(ctx, "run-1", started); err != nil {
		t.Fatalf("restart: %v", err)
	}
	var finishedAt any
	if err := st.DB.QueryRow(ctx, `SELECT status, finished_at FROM crunch_runs WHERE run_id = 'run-1'`).Scan(&status, &finishedAt); err != nil {
		t.Fatalf("select restarted run: %v", err)
	}
	if status != "running" || finishedAt != nil {
		t.Fatalf("restart left status=%q finished_at=%v", status, finishedAt)
	}
}
