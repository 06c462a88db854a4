// Package modkit provides module wiring and core deps
package modkit

import (
	"logcrunch/internal/modkit/repokit"
	"logcrunch/internal/platform/config"
	"logcrunch/internal/platform/logger"
)

// Deps holds core dependencies passed to modules
// this is wiring only and does not introduce new abstractions
type Deps struct {
	Log logger.Logger
	Cfg config.Conf
	DB  repokit.TxRunner
}

// Module is the minimal shape every service module exposes
type Module interface {
	Name() string
	Ports() any
}
