// Package module wires the manual detection trigger into the API
package module

import (
	"arguxai/internal/modkit"
	"arguxai/internal/modkit/httpkit"
	detecthttp "arguxai/internal/services/api/detect/http"
	"arguxai/internal/services/detect/domain"
)

// Module implements modkit.Module
type Module struct {
	b      modkit.Built
	runner domain.RunnerPort
}

// New constructs the detect API module; inject a domain.RunnerPort with modkit.WithPorts
func New(_ modkit.Deps, opts ...modkit.Option) *Module {
	b := modkit.Build([]modkit.Option{modkit.WithName("api.detect"), modkit.WithPrefix("/detect")}, opts...)
	runner, ok := b.Ports.(domain.RunnerPort)
	if !ok || runner == nil {
		panic("api detect module: expected WithPorts(detect/domain.RunnerPort)")
	}
	return &Module{b: b, runner: runner}
}

// MountRoutes implements modkit.Module
func (m *Module) MountRoutes(r httpkit.Router) {
	m.b.Mount(r, func(sub httpkit.Router) { detecthttp.Register(sub, m.runner) })
}

// Name implements modkit.Module
func (m *Module) Name() string { return m.b.Name }

// Ports implements modkit.Module
func (m *Module) Ports() any { return nil }
