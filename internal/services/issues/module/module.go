// Package module provides the issues module
package module

import (
	"arguxai/internal/modkit"
	"arguxai/internal/modkit/httpkit"
	"arguxai/internal/services/issues/domain"
	"arguxai/internal/services/issues/repo"
	"arguxai/internal/services/issues/service"
)

// Ports exposed by the issues module
type Ports struct {
	Emitter domain.EmitterPort
	Reader  domain.ReaderPort
	Patcher domain.PatcherPort
}

// Module implements modkit.Module
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// New constructs a new issues module
func New(deps modkit.Deps) *Module {
	opts := FromConfig(deps.Cfg)
	svc := service.New(deps.PG, repo.NewPG(), deps.Now(), service.Config{
		DefaultLimit: opts.DefaultLimit,
		MaxLimit:     opts.MaxLimit,
	})

	m := &Module{deps: deps}
	m.ports = Ports{Emitter: svc, Reader: svc, Patcher: svc}
	return m
}

// Name implements modkit.Module
func (m *Module) Name() string { return "issues" }

// Ports implements modkit.Module
func (m *Module) Ports() any { return m.ports }

// MountRoutes implements modkit.Module
func (m *Module) MountRoutes(httpkit.Router) {}
