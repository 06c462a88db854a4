// Package module provides the ASN enrichment module implementation
package module

import (
	"time"

	"logcrunch/internal/modkit"
	"logcrunch/internal/modkit/repokit"
	"logcrunch/internal/platform/config"
	"logcrunch/internal/services/asn/domain"
	"logcrunch/internal/services/asn/lookup"
	"logcrunch/internal/services/asn/repo"
	"logcrunch/internal/services/asn/service"
)

// Options holds configuration options for the ASN enrichment job
type Options struct {
	Parallel    int
	HTTPTimeout time.Duration
	Directory   string
	DropList    string
}

// FromConfig reads the ASN options from config with ASN_ prefix
func FromConfig(cfg config.Conf) Options {
	ac := cfg.Prefix("ASN_")
	return Options{
		Parallel:    ac.MayInt("PARALLEL", 4),
		HTTPTimeout: ac.MayDuration("HTTP_TIMEOUT", 30*time.Second),
		Directory:   ac.MayString("DIRECTORY_BASE", lookup.DefaultPeeringDBBase),
		DropList:    ac.MayString("DROPLIST_URL", lookup.DefaultDropListURL),
	}
}

// Ports defines the ASN module ports
type Ports struct {
	Catchup domain.CatchupPort
}

// Module implements the ASN enrichment module
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// New wires the ASN enrichment module. Options come from deps.Cfg (ASN_*)
func New(deps modkit.Deps) *Module {
	opts := FromConfig(deps.Cfg)

	svc := service.New(
		repokit.TxRunner(deps.DB), repo.NewSQLite(),
		lookup.NewPeeringDB(opts.Directory, opts.HTTPTimeout),
		lookup.NewSpamhaus(opts.DropList, opts.HTTPTimeout),
		service.Config{Parallel: opts.Parallel},
	)

	m := &Module{deps: deps}
	m.ports = Ports{Catchup: svc}
	return m
}

// Name returns the module name
func (m *Module) Name() string { return "asn" }

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }
