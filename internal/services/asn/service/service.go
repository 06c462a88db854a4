// Package service provides the ASN enrichment catchup job
package service

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"logcrunch/internal/modkit/repokit"
	perr "logcrunch/internal/platform/errors"
	"logcrunch/internal/platform/logger"
	"logcrunch/internal/services/asn/domain"
)

// Config holds the catchup knobs
type Config struct {
	// Parallel bounds concurrent directory lookups; <=0 -> 4
	Parallel int
}

// Service implements domain.CatchupPort. A failed directory lookup is logged
// and the ASN moves on to the deny-list cross-reference; only the deny-list
// fetch itself can fail the pass
type Service struct {
	DB        repokit.TxRunner
	Binder    repokit.Binder[domain.StorageRepo]
	Directory domain.Directory
	DropList  domain.DropList
	Cfg       Config
}

// New constructs the ASN enrichment service
func New(
	db repokit.TxRunner,
	binder repokit.Binder[domain.StorageRepo],
	dir domain.Directory,
	drop domain.DropList,
	cfg Config,
) *Service {
	if db == nil {
		panic("asn.Service requires a non nil TxRunner")
	}
	if binder == nil {
		panic("asn.Service requires a non nil Repo binder")
	}
	if cfg.Parallel <= 0 {
		cfg.Parallel = 4
	}
	return &Service{DB: db, Binder: binder, Directory: dir, DropList: drop, Cfg: cfg}
}

// Catchup names every unnamed ASN it can: directory lookups fan out bounded
// by Cfg.Parallel, then whatever is still unknown is cross-referenced
// against the deny list
func (s *Service) Catchup(ctx context.Context) (domain.Summary, error) {
	var sum domain.Summary
	log := logger.Named("asn")

	asns, err := s.unnamed(ctx)
	if err != nil {
		return sum, err
	}
	sum.Scanned = len(asns)
	if len(asns) == 0 {
		return sum, nil
	}

	// bounded fan-out; lookup failures park the ASN for the deny-list pass
	var (
		mu      sync.Mutex
		named   = make(map[uint32]string)
		unknown []uint32
	)
	var g errgroup.Group
	g.SetLimit(s.Cfg.Parallel)
	for _, asn := range asns {
		asn := asn
		g.Go(func() error {
			name, err := s.Directory.ASName(ctx, asn)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Warn().Uint32("asn", asn).Err(err).Msg("directory lookup failed")
				unknown = append(unknown, asn)
				return nil
			}
			named[asn] = name
			return nil
		})
	}
	_ = g.Wait()

	if len(named) > 0 {
		if err := repokit.WithTx(ctx, s.DB, func(q repokit.Queryer) error {
			repo := s.Binder.Bind(q)
			for asn, name := range named {
				if err := repo.UpsertName(ctx, asn, name); err != nil {
					return err
				}
			}
			return nil
		}); err != nil {
			return sum, err
		}
		sum.Named = len(named)
	}

	if len(unknown) == 0 {
		return sum, nil
	}

	drop, err := s.DropList.Fetch(ctx)
	if err != nil {
		sum.Unknown = len(unknown)
		return sum, perr.Wrapf(err, perr.CodeOf(err), "deny list unavailable with %d ASNs unresolved", len(unknown))
	}

	var listed []uint32
	for _, asn := range unknown {
		if _, ok := drop[asn]; ok {
			listed = append(listed, asn)
		}
	}
	if len(listed) > 0 {
		if err := repokit.WithTx(ctx, s.DB, func(q repokit.Queryer) error {
			repo := s.Binder.Bind(q)
			for _, asn := range listed {
				if err := repo.UpsertDropListed(ctx, asn, drop[asn], "spamhaus"); err != nil {
					return err
				}
			}
			return nil
		}); err != nil {
			return sum, err
		}
	}
	sum.DropListed = len(listed)
	sum.Unknown = len(unknown) - len(listed)

	log.Info().
		Int("scanned", sum.Scanned).
		Int("named", sum.Named).
		Int("drop_listed", sum.DropListed).
		Int("unknown", sum.Unknown).
		Msg("catchup complete")
	return sum, nil
}

func (s *Service) unnamed(ctx context.Context) ([]uint32, error) {
	var asns []uint32
	err := repokit.WithTx(ctx, s.DB, func(q repokit.Queryer) error {
		xs, e := s.Binder.Bind(q).UnnamedASNs(ctx)
		if e != nil {
			return e
		}
		asns = xs
		return nil
	})
	return asns, err
}
