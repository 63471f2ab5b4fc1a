// Package graph wires the service modules both binaries share: events, funnels,
// issues, diagnosis and detect
package graph

import (
	"context"

	"arguxai/internal/modkit"
	"arguxai/internal/modkit/module"
	"arguxai/internal/platform/logger"
	detectmod "arguxai/internal/services/detect/module"
	diagmod "arguxai/internal/services/diagnosis/module"
	eventsmod "arguxai/internal/services/events/module"
	funnelsmod "arguxai/internal/services/funnels/module"
	issuesdom "arguxai/internal/services/issues/domain"
	issuesmod "arguxai/internal/services/issues/module"
)

// Graph holds the constructed service modules
type Graph struct {
	Events    *eventsmod.Module
	Funnels   *funnelsmod.Module
	Issues    *issuesmod.Module
	Diagnosis *diagmod.Module
	Detect    *detectmod.Module
}

// Build constructs every service module in dependency order and registers their ports.
// The error is a configuration error from the detector and is fatal at startup
func Build(deps modkit.Deps) (*Graph, error) {
	g := &Graph{
		Events:  eventsmod.New(deps),
		Funnels: funnelsmod.New(deps),
		Issues:  issuesmod.New(deps),
	}
	ev := module.MustPortsOf[eventsmod.Ports](g.Events)
	fn := module.MustPortsOf[funnelsmod.Ports](g.Funnels)
	is := module.MustPortsOf[issuesmod.Ports](g.Issues)

	g.Diagnosis = diagmod.New(deps, modkit.WithPorts(diagmod.DepsPorts{
		Issues: diagIssues{ReaderPort: is.Reader, PatcherPort: is.Patcher},
		Events: ev.Reader,
	}))
	dg := module.MustPortsOf[diagmod.Ports](g.Diagnosis)

	dm, err := detectmod.New(deps, detectmod.WithDepsPorts(detectmod.DepsPorts{
		Steps:     fn.Steps,
		Events:    ev.Reader,
		Emitter:   is.Emitter,
		Issues:    is.Reader,
		Diagnoser: dg.Diagnoser,
	}))
	if err != nil {
		return nil, err
	}
	g.Detect = dm

	for _, m := range g.modules() {
		module.Register(m.Name(), m.Ports())
	}
	return g, nil
}

// Bootstrap seeds the default funnel into an empty catalog and restores cooldowns from open issues
func (g *Graph) Bootstrap(ctx context.Context) error {
	log := logger.Named("bootstrap")
	seeded, err := g.Funnels.Seeder().SeedDefault(ctx)
	if err != nil {
		return err
	}
	if seeded {
		log.Info().Msg("seeded default login funnel")
	}
	n, err := g.Detect.SeedCooldown(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		log.Info().Int("open_issues", n).Msg("cooldowns restored from open issues")
	}
	return nil
}

// diagIssues joins the issue reader and patcher into diagnosis' IssuesPort
type diagIssues struct {
	issuesdom.ReaderPort
	issuesdom.PatcherPort
}

func (g *Graph) modules() []module.Module {
	return []module.Module{g.Events, g.Funnels, g.Issues, g.Diagnosis, g.Detect}
}
