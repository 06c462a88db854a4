// Package module provides the crunch module implementation
package module

import (
	"logcrunch/internal/adapters/objstore"
	"logcrunch/internal/modkit"
	"logcrunch/internal/modkit/repokit"
	"logcrunch/internal/services/crunch/domain"
	"logcrunch/internal/services/crunch/repo"
	"logcrunch/internal/services/crunch/service"
)

// Ports defines the crunch module ports
type Ports struct {
	Runner domain.RunnerPort
}

// Module implements the crunch module
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// New wires the crunch module over the given object store capability.
// Options come from deps.Cfg (CRUNCH_*)
func New(deps modkit.Deps, store objstore.Capability) *Module {
	opts := FromConfig(deps.Cfg)

	fetch := objstore.NewFetcher(store,
		objstore.WithPrefix(opts.Prefix),
		objstore.WithCleanup(opts.Cleanup),
	)

	svc := service.New(
		repokit.TxRunner(deps.DB), repo.NewSQLite(),
		fetch, service.NewReaderFactory(),
		service.Config{Capacity: opts.Capacity},
	)

	m := &Module{deps: deps}
	m.ports = Ports{Runner: svc}
	return m
}

// Name returns the module name
func (m *Module) Name() string { return "crunch" }

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }
