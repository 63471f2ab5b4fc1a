// Package module wires the funnel catalog into the API using modkit
package module

import (
	"arguxai/internal/modkit"
	"arguxai/internal/modkit/httpkit"
	funnelshttp "arguxai/internal/services/api/funnels/http"
	"arguxai/internal/services/funnels/domain"
)

// Module implements modkit.Module
type Module struct {
	b   modkit.Built
	cat domain.CatalogPort
}

// New constructs the funnels API module; inject a domain.CatalogPort with modkit.WithPorts
func New(_ modkit.Deps, opts ...modkit.Option) *Module {
	b := modkit.Build([]modkit.Option{modkit.WithName("api.funnels"), modkit.WithPrefix("/funnels")}, opts...)
	cat, ok := b.Ports.(domain.CatalogPort)
	if !ok || cat == nil {
		panic("api funnels module: expected WithPorts(funnels/domain.CatalogPort)")
	}
	return &Module{b: b, cat: cat}
}

// MountRoutes implements modkit.Module
func (m *Module) MountRoutes(r httpkit.Router) {
	m.b.Mount(r, func(sub httpkit.Router) { funnelshttp.Register(sub, m.cat) })
}

// Name implements modkit.Module
func (m *Module) Name() string { return m.b.Name }

// Ports implements modkit.Module
func (m *Module) Ports() any { return nil }
