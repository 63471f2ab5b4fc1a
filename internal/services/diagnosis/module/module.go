// Package module provides the diagnosis module
package module

import (
	"net/http"

	"arguxai/internal/adapters/ai/deepseek"
	"arguxai/internal/modkit"
	"arguxai/internal/modkit/httpkit"
	"arguxai/internal/platform/logger"
	"arguxai/internal/services/diagnosis/domain"
	"arguxai/internal/services/diagnosis/service"
	eventsdom "arguxai/internal/services/events/domain"
)

// Ports exposed by the diagnosis module
type Ports struct {
	Diagnoser domain.DiagnoserPort
}

// DepsPorts are the ports diagnosis consumes from the issues and events modules
type DepsPorts struct {
	Issues domain.IssuesPort
	Events eventsdom.ReaderPort
	// Model overrides the deepseek client, mostly for tests
	Model domain.ModelPort
}

// Module implements modkit.Module
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// New constructs the diagnosis module; inject DepsPorts with modkit.WithPorts
func New(deps modkit.Deps, opts ...modkit.Option) *Module {
	b := modkit.Build([]modkit.Option{modkit.WithName("diagnosis")}, opts...)
	in, ok := b.Ports.(DepsPorts)
	if !ok {
		panic("diagnosis module: expected WithPorts(module.DepsPorts)")
	}
	if in.Issues == nil || in.Events == nil {
		panic("diagnosis module: DepsPorts missing Issues or Events")
	}

	cfg := FromConfig(deps.Cfg)
	model := in.Model
	if model == nil {
		model = deepseek.NewClient(cfg.APIKey,
			deepseek.WithBaseURL(cfg.BaseURL),
			deepseek.WithModel(cfg.Model),
			deepseek.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
			deepseek.WithRateLimit(cfg.RPS, 1),
			deepseek.WithLogger(*logger.Named("deepseek")),
		)
		if cfg.APIKey == "" {
			logger.Named("diagnosis").Warn().Msg("DEEPSEEK_API_KEY not set; diagnoses will fail as unavailable")
		}
	}

	svc := service.New(in.Issues, in.Events, model, service.Config{
		EvidenceWindow: cfg.EvidenceWindow,
		Timeout:        cfg.Timeout + cfg.Timeout/2,
	})
	m := &Module{deps: deps}
	m.ports = Ports{Diagnoser: svc}
	return m
}

// Name implements modkit.Module
func (m *Module) Name() string { return "diagnosis" }

// Ports implements modkit.Module
func (m *Module) Ports() any { return m.ports }

// MountRoutes implements modkit.Module
func (m *Module) MountRoutes(httpkit.Router) {}
