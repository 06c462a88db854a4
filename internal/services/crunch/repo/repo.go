// Package repo provides SQLite access for crunch writes
package repo

import (
	"context"
	_ "embed"
	"time"

	"logcrunch/internal/modkit/repokit"
	perr "logcrunch/internal/platform/errors"
	pstr "logcrunch/internal/platform/strings"
	"logcrunch/internal/services/crunch/domain"
)

//go:embed schema.sql
var schema string

// Schema returns the DDL fed to the store on open
func Schema() string { return schema }

type (
	// SQLite is a binder for domain.StorageRepo
	SQLite  struct{}
	queries struct{ q repokit.Queryer }
)

// NewSQLite returns a SQLite binder for domain.StorageRepo
func NewSQLite() repokit.Binder[domain.StorageRepo] { return SQLite{} }

// Bind implements repokit.Binder
func (SQLite) Bind(q repokit.Queryer) domain.StorageRepo {
	return &queries{q: repokit.RequireQueryer(q)}
}

// InsertRecords writes one object's batch: insert-or-ignore on every
// dimension, then the fact row resolving foreign keys with correlated
// lookups. The caller runs this inside a single transaction; the first
// failure aborts the batch annotated with its record index
func (r *queries) InsertRecords(ctx context.Context, recs []domain.LogRecord) (int, error) {
	for i, rec := range recs {
		if err := r.insertOne(ctx, rec); err != nil {
			code, ok := perr.DBErrorCode(err)
			if !ok {
				code = perr.ErrorCodeDB
			}
			return i, perr.WithRecord(perr.Wrapf(err, code, "store record %d", i), i)
		}
	}
	return len(recs), nil
}

func (r *queries) insertOne(ctx context.Context, rec domain.LogRecord) error {
	ipv4 := pstr.SQLNull(rec.IPv4String())
	ipv6 := pstr.SQLNull(rec.IPv6String())

	// dimension upserts, keyed on natural value equality
	if _, err := r.q.Exec(ctx, `
		INSERT OR IGNORE INTO autonomous_systems (asn) VALUES (?)
	`, rec.ASN); err != nil {
		return err
	}
	if _, err := r.q.Exec(ctx, `
		INSERT OR IGNORE INTO client_ips (ipv4, ipv6, country_code, asn)
		VALUES (?, ?, ?, ?)
	`, ipv4, ipv6, pstr.SQLNullPtr(rec.CountryCode), rec.ASN); err != nil {
		return err
	}
	if _, err := r.q.Exec(ctx, `
		INSERT OR IGNORE INTO paths (path) VALUES (?)
	`, rec.URLPath); err != nil {
		return err
	}
	if rec.Referer != nil {
		if _, err := r.q.Exec(ctx, `
			INSERT OR IGNORE INTO referers (referer) VALUES (?)
		`, *rec.Referer); err != nil {
			return err
		}
	}
	if rec.UserAgent != nil {
		if _, err := r.q.Exec(ctx, `
			INSERT OR IGNORE INTO user_agents (user_agent) VALUES (?)
		`, *rec.UserAgent); err != nil {
			return err
		}
	}

	// fact row; the client IP is resolved on whichever column is populated
	// for this record's address family
	ipLookup := `SELECT id FROM client_ips WHERE ipv4 = ?1`
	ipArg := ipv4
	if ipv4 == nil {
		ipLookup = `SELECT id FROM client_ips WHERE ipv6 = ?1`
		ipArg = ipv6
	}

	_, err := r.q.Exec(ctx, `
		INSERT INTO requests (
			client_ip_id, path_id, referer_id, user_agent_id,
			requests, ipv6, http2, cache_state, status,
			response_bytes, response_duration_ms, request_start
		)
		VALUES (
			(`+ipLookup+`),
			(SELECT id FROM paths WHERE path = ?2),
			(SELECT id FROM referers WHERE referer = ?3),
			(SELECT id FROM user_agents WHERE user_agent = ?4),
			?5, ?6, ?7, ?8, ?9, ?10, ?11, ?12
		)
	`,
		ipArg, rec.URLPath,
		pstr.SQLNullPtr(rec.Referer), pstr.SQLNullPtr(rec.UserAgent),
		rec.Requests, rec.IPv6, rec.HTTP2, rec.CacheState, rec.Status,
		rec.ResponseBytes, rec.ResponseDuration.Milliseconds(),
		rec.RequestStart.UTC().Format(time.RFC3339),
	)
	return err
}

// StartRun opens the audit row for a run (idempotent)
func (r *queries) StartRun(ctx context.Context, runID string, startedAt time.Time) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO crunch_runs (run_id, started_at, status)
		VALUES (?, ?, 'running')
		ON CONFLICT (run_id) DO UPDATE SET
			started_at = excluded.started_at,
			status = 'running',
			finished_at = NULL,
			error = NULL
	`, runID, startedAt.UTC().Format(time.RFC3339Nano))
	return perr.WrapIf(err, perr.ErrorCodeDB, "start run")
}

// FinishRun closes the audit row for a run (idempotent)
func (r *queries) FinishRun(ctx context.Context, runID string, fin domain.RunFinish) error {
	_, err := r.q.Exec(ctx, `
		UPDATE crunch_runs SET
			finished_at = ?,
			status = ?,
			objects = ?,
			ok = ?,
			failed = ?,
			cleanup_failures = ?,
			records = ?,
			error = NULLIF(?, '')
		WHERE run_id = ?
	`,
		time.Now().UTC().Format(time.RFC3339Nano), fin.Status,
		fin.Objects, fin.OK, fin.Failed, fin.CleanupFailures, fin.Records,
		fin.ErrText, runID,
	)
	return perr.WrapIf(err, perr.ErrorCodeDB, "finish run")
}
