// Package module wires meta endpoints into the API using a tiny module
package module

import (
	"context"

	"arguxai/internal/modkit"
	"arguxai/internal/modkit/httpkit"
	metahttp "arguxai/internal/services/api/meta/http"
	detectdom "arguxai/internal/services/detect/domain"
)

// Module implements the modkit.Module interface
type Module struct {
	b    modkit.Built
	deps metahttp.Deps
}

// New constructs a meta module; WithPorts(detect/domain.SettingsPort) enables /meta/detector settings
func New(deps modkit.Deps, opts ...modkit.Option) *Module {
	b := modkit.Build([]modkit.Option{modkit.WithName("meta"), modkit.WithPrefix("/meta")}, opts...)

	d := metahttp.Deps{
		ServiceName: "arguxai-api",
		StartedAt:   deps.Now().Now(),
		PG:          deps.PG,
	}
	if deps.CH != nil {
		d.CH = deps.CH
	}
	if deps.RDS != nil {
		d.Redis = redisPinger{ping: func(ctx context.Context) error { return deps.RDS.Ping(ctx).Err() }}
	}
	if s, ok := b.Ports.(detectdom.SettingsPort); ok {
		d.Detector = s
	}
	return &Module{b: b, deps: d}
}

type redisPinger struct{ ping func(context.Context) error }

func (p redisPinger) Ping(ctx context.Context) error { return p.ping(ctx) }

// MountRoutes implements the modkit.Module interface
func (m *Module) MountRoutes(r httpkit.Router) {
	m.b.Mount(r, func(sub httpkit.Router) { metahttp.Register(sub, m.deps) })
}

// Name implements the modkit.Module interface
func (m *Module) Name() string { return m.b.Name }

// Ports implements the modkit.Module interface
func (m *Module) Ports() any { return nil }
