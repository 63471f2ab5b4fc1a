// Package module provides the events module
package module

import (
	"arguxai/internal/modkit"
	"arguxai/internal/modkit/httpkit"
	"arguxai/internal/services/events/domain"
	"arguxai/internal/services/events/repo"
	"arguxai/internal/services/events/service"
)

// Ports exposed by the events module
type Ports struct {
	Ingest domain.IngestPort
	Reader domain.ReaderPort
}

// Module implements modkit.Module
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// New constructs a new events module
func New(deps modkit.Deps) *Module {
	opts := FromConfig(deps.Cfg)

	var mirror domain.MirrorRepo
	if opts.Mirror {
		mirror = repo.NewCH(deps.CH)
	}
	svc := service.New(deps.PG, repo.NewPG(), mirror, deps.Now(), service.Config{
		MaxBatch:    opts.MaxBatch,
		RecentLimit: opts.RecentLimit,
		ReadTimeout: opts.ReadTimeout,
	})

	m := &Module{deps: deps}
	m.ports = Ports{Ingest: svc, Reader: svc}
	return m
}

// Name implements modkit.Module
func (m *Module) Name() string { return "events" }

// Ports implements modkit.Module
func (m *Module) Ports() any { return m.ports }

// MountRoutes implements modkit.Module
func (m *Module) MountRoutes(httpkit.Router) {}
