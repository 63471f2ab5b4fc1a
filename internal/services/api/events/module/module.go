// Package module wires event ingestion into the API using modkit
package module

import (
	"arguxai/internal/modkit"
	"arguxai/internal/modkit/httpkit"
	eventshttp "arguxai/internal/services/api/events/http"
	"arguxai/internal/services/events/domain"
)

// DepsPorts are the events service ports the API needs
type DepsPorts struct {
	Ingest domain.IngestPort
	Reader domain.ReaderPort
}

// Module implements modkit.Module
type Module struct {
	b  modkit.Built
	in DepsPorts
}

// New constructs the events API module; inject DepsPorts with modkit.WithPorts
func New(_ modkit.Deps, opts ...modkit.Option) *Module {
	b := modkit.Build([]modkit.Option{modkit.WithName("api.events"), modkit.WithPrefix("/events")}, opts...)
	in, ok := b.Ports.(DepsPorts)
	if !ok || in.Ingest == nil || in.Reader == nil {
		panic("api events module: expected WithPorts(module.DepsPorts) with Ingest and Reader")
	}
	return &Module{b: b, in: in}
}

// MountRoutes implements modkit.Module
func (m *Module) MountRoutes(r httpkit.Router) {
	m.b.Mount(r, func(sub httpkit.Router) { eventshttp.Register(sub, m.in.Ingest, m.in.Reader) })
}

// Name implements modkit.Module
func (m *Module) Name() string { return m.b.Name }

// Ports implements modkit.Module
func (m *Module) Ports() any { return nil }
