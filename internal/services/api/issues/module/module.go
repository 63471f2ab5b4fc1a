// Package module wires issues into the API using modkit
package module

import (
	"arguxai/internal/modkit"
	"arguxai/internal/modkit/httpkit"
	issueshttp "arguxai/internal/services/api/issues/http"
)

// DepsPorts are the issue and diagnosis ports the API needs
type DepsPorts = issueshttp.Deps

// Module implements modkit.Module
type Module struct {
	b  modkit.Built
	in DepsPorts
}

// New constructs the issues API module; inject DepsPorts with modkit.WithPorts
func New(_ modkit.Deps, opts ...modkit.Option) *Module {
	b := modkit.Build([]modkit.Option{modkit.WithName("api.issues"), modkit.WithPrefix("/issues")}, opts...)
	in, ok := b.Ports.(DepsPorts)
	if !ok || in.Reader == nil || in.Patcher == nil {
		panic("api issues module: expected WithPorts(module.DepsPorts) with Reader and Patcher")
	}
	return &Module{b: b, in: in}
}

// MountRoutes implements modkit.Module
func (m *Module) MountRoutes(r httpkit.Router) {
	m.b.Mount(r, func(sub httpkit.Router) { issueshttp.Register(sub, m.in) })
}

// Name implements modkit.Module
func (m *Module) Name() string { return m.b.Name }

// Ports implements modkit.Module
func (m *Module) Ports() any { return nil }
