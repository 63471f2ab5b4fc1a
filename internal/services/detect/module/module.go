// Package module implements the detect module
package module

import (
	"context"

	"arguxai/internal/core/cooldown"
	"arguxai/internal/core/window"
	"arguxai/internal/modkit"
	"arguxai/internal/modkit/httpkit"
	perr "arguxai/internal/platform/errors"
	"arguxai/internal/platform/logger"
	"arguxai/internal/services/detect/domain"
	"arguxai/internal/services/detect/service"
	issuesdom "arguxai/internal/services/issues/domain"

	"github.com/google/uuid"
)

// Ports exposed by the detect module
type Ports struct {
	Runner   domain.RunnerPort
	Settings domain.SettingsPort
}

// Module implements modkit.Module
type Module struct {
	deps   modkit.Deps
	ports  Ports
	svc    *service.Service
	issues issuesdom.ReaderPort
	memory *cooldown.Memory
}

// New constructs the detect module from DepsPorts (see WithDepsPorts). Threshold and
// window configuration is validated here; an error means the process must not start
func New(deps modkit.Deps, opts ...modkit.Option) (*Module, error) {
	b := modkit.Build([]modkit.Option{modkit.WithName("detect")}, opts...)
	in, ok := b.Ports.(DepsPorts)
	if !ok {
		panic("detect module: expected WithDepsPorts(module.DepsPorts)")
	}
	if in.Steps == nil || in.Events == nil || in.Emitter == nil {
		panic("detect module: DepsPorts missing Steps, Events or Emitter")
	}

	cfg, err := FromConfig(deps.Cfg)
	if err != nil {
		return nil, err
	}
	sel, err := window.NewSelector(cfg.BaselineHours, cfg.RecentMinutes)
	if err != nil {
		return nil, err
	}

	m := &Module{deps: deps, issues: in.Issues}
	tracker := in.Cooldown
	if tracker == nil {
		switch cfg.CooldownBackend {
		case BackendRedis:
			if deps.RDS == nil {
				return nil, perr.WithField(
					perr.Configf("cooldown backend redis needs SERVICE_REDIS_ENABLED=true"), "CORE_DETECT_COOLDOWN_BACKEND")
			}
			tracker = cooldown.NewRedis(deps.RDS, cfg.Thresholds.Cooldown(),
				cooldown.WithPrefix(cfg.CooldownPrefix),
				cooldown.WithLease(cfg.CooldownLease),
				cooldown.WithTokens(uuid.NewString),
			)
		default:
			m.memory = cooldown.NewMemory(cfg.Thresholds.Cooldown())
			tracker = m.memory
		}
	}

	diag := in.Diagnoser
	if !cfg.AutoDiagnose {
		diag = nil
	}
	m.svc = service.New(in.Steps, in.Events, in.Emitter, tracker, diag, deps.Now(), service.Config{
		Thresholds:      cfg.Thresholds,
		Selector:        sel,
		Interval:        cfg.Interval(),
		Workers:         cfg.Workers,
		AutoDiagnose:    cfg.AutoDiagnose,
		CooldownBackend: cfg.CooldownBackend,
		BaselineHours:   cfg.BaselineHours,
		RecentMinutes:   cfg.RecentMinutes,
		IntervalMinutes: cfg.IntervalMinutes,
	})
	m.ports = Ports{Runner: m.svc, Settings: m.svc}

	logger.Named("detect").Info().
		Float64("min_drop_percent", cfg.Thresholds.MinDropPercent).
		Int("min_sample_size", cfg.Thresholds.MinSampleSize).
		Float64("sigma_threshold", cfg.Thresholds.SigmaThreshold).
		Int("cooldown_minutes", cfg.Thresholds.CooldownMinutes).
		Int("baseline_hours", cfg.BaselineHours).
		Int("recent_minutes", cfg.RecentMinutes).
		Str("cooldown_backend", cfg.CooldownBackend).
		Msg("detector configured")
	return m, nil
}

// SeedCooldown restores last alert times from open issues into the in memory tracker,
// so a restart inside the cooldown does not re-alert. A no-op for the redis backend
func (m *Module) SeedCooldown(ctx context.Context) (int, error) {
	if m.memory == nil || m.issues == nil {
		return 0, nil
	}
	n := 0
	for _, st := range []issuesdom.Status{issuesdom.StatusDetected, issuesdom.StatusDiagnosed} {
		xs, err := m.issues.List(ctx, issuesdom.ListFilter{Status: st, Limit: 500})
		if err != nil {
			return n, err
		}
		for _, iss := range xs {
			m.memory.Seed(iss.FunnelStep, iss.DetectedAt)
			n++
		}
	}
	return n, nil
}

// Run blocks running scheduled cycles until ctx is cancelled
func (m *Module) Run(ctx context.Context) error { return m.svc.Run(ctx) }

// Wait blocks until background diagnoses queued by cycles finish
func (m *Module) Wait() { m.svc.Wait() }

// Name implements modkit.Module
func (m *Module) Name() string { return "detect" }

// Ports implements modkit.Module
func (m *Module) Ports() any { return m.ports }

// MountRoutes implements modkit.Module
func (m *Module) MountRoutes(httpkit.Router) {}
