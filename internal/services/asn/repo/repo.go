// Package repo provides SQLite access for ASN enrichment writes
package repo

import (
	"context"
	"time"

	"logcrunch/internal/modkit/repokit"
	perr "logcrunch/internal/platform/errors"
	"logcrunch/internal/services/asn/domain"
)

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

// UnnamedASNs returns every ASN without a resolved name, in stable order
func (r *queries) UnnamedASNs(ctx context.Context) ([]uint32, error) {
	rows, err := r.q.Query(ctx, `
		SELECT asn FROM autonomous_systems WHERE name IS NULL ORDER BY asn
	`)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeDB, "select unnamed ASNs")
	}
	defer rows.Close()

	var out []uint32
	for rows.Next() {
		var asn uint32
		if err := rows.Scan(&asn); err != nil {
			return nil, perr.Wrap(err, perr.ErrorCodeDB, "scan ASN")
		}
		out = append(out, asn)
	}
	return out, perr.WrapIf(rows.Err(), perr.ErrorCodeDB, "iterate unnamed ASNs")
}

// UpsertName records the directory name for an ASN
func (r *queries) UpsertName(ctx context.Context, asn uint32, name string) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO autonomous_systems (asn, name, updated_at) VALUES (?1, ?2, ?3)
		ON CONFLICT (asn) DO UPDATE SET name = ?2, updated_at = ?3
	`, asn, name, time.Now().UTC().Format(time.RFC3339))
	return perr.WrapIf(err, perr.ErrorCodeDB, "upsert ASN name")
}

// UpsertDropListed records a deny-listed ASN and where the listing came from
func (r *queries) UpsertDropListed(ctx context.Context, asn uint32, name, list string) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO autonomous_systems (asn, name, droplist, updated_at) VALUES (?1, ?2, ?3, ?4)
		ON CONFLICT (asn) DO UPDATE SET name = ?2, droplist = ?3, updated_at = ?4
	`, asn, name, list, time.Now().UTC().Format(time.RFC3339))
	return perr.WrapIf(err, perr.ErrorCodeDB, "upsert drop-listed ASN")
}
