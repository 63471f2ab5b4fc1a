// Package module provides the funnels module
package module

import (
	"arguxai/internal/modkit"
	"arguxai/internal/modkit/httpkit"
	"arguxai/internal/services/funnels/domain"
	"arguxai/internal/services/funnels/repo"
	"arguxai/internal/services/funnels/service"
)

// Ports exposed by the funnels module
type Ports struct {
	Catalog domain.CatalogPort
	Steps   domain.StepsPort
}

// Module implements modkit.Module
type Module struct {
	deps  modkit.Deps
	svc   *service.Service
	ports Ports
}

// New constructs a new funnels module
func New(deps modkit.Deps) *Module {
	svc := service.New(deps.PG, repo.NewPG(), deps.Now())
	m := &Module{deps: deps, svc: svc}
	m.ports = Ports{Catalog: svc, Steps: svc}
	return m
}

// Seeder returns the default funnel seeder used by the mains
func (m *Module) Seeder() *service.Service { return m.svc }

// Name implements modkit.Module
func (m *Module) Name() string { return "funnels" }

// Ports implements modkit.Module
func (m *Module) Ports() any { return m.ports }

// MountRoutes implements modkit.Module
func (m *Module) MountRoutes(httpkit.Router) {}
