// Package api provides the HTTP API for the application
package api

import (
	"fmt"

	"arguxai/internal/modkit"
	"arguxai/internal/modkit/httpkit"
	"arguxai/internal/modkit/module"
	"arguxai/internal/modkit/swaggerkit"
	"arguxai/internal/platform/config"
	"arguxai/internal/platform/metrics"
	phttp "arguxai/internal/platform/net/http"

	apidetect "arguxai/internal/services/api/detect/module"
	apievents "arguxai/internal/services/api/events/module"
	apifunnels "arguxai/internal/services/api/funnels/module"
	apiissues "arguxai/internal/services/api/issues/module"
	metamod "arguxai/internal/services/api/meta/module"
	detectdom "arguxai/internal/services/detect/domain"
	detectmod "arguxai/internal/services/detect/module"
	diagmod "arguxai/internal/services/diagnosis/module"
	eventsmod "arguxai/internal/services/events/module"
	funnelsmod "arguxai/internal/services/funnels/module"
	issuesmod "arguxai/internal/services/issues/module"
	"arguxai/internal/services/graph"
)

// Options are the API options; Config is the CORE_API_ view
type Options struct {
	Config         config.Conf
	EnableSwagger  bool
	EnableProfiler bool
	EnableMetrics  bool
}

// Mount mounts the API onto r over an already built service graph
func Mount(r phttp.Router, deps modkit.Deps, g *graph.Graph, opt Options) {
	ev := module.MustPortsOf[eventsmod.Ports](g.Events)
	fn := module.MustPortsOf[funnelsmod.Ports](g.Funnels)
	is := module.MustPortsOf[issuesmod.Ports](g.Issues)
	dg := module.MustPortsOf[diagmod.Ports](g.Diagnosis)
	dt := module.MustPortsOf[detectmod.Ports](g.Detect)

	mods := []module.Module{
		metamod.New(deps, modkit.WithPorts(dt.Settings)),
		apievents.New(deps, modkit.WithPorts(apievents.DepsPorts{Ingest: ev.Ingest, Reader: ev.Reader})),
		apifunnels.New(deps, modkit.WithPorts(fn.Catalog)),
		apiissues.New(deps, modkit.WithPorts(apiissues.DepsPorts{
			Reader:    is.Reader,
			Patcher:   is.Patcher,
			Diagnoser: dg.Diagnoser,
		})),
		apidetect.New(deps, modkit.WithPorts(dt.Runner)),
	}

	swaggerkit.Mount(r, swaggerkit.Options{
		Enabled:  opt.EnableSwagger,
		Mutators: []swaggerkit.SpecMutator{swaggerkit.AppendDescription(DetectorDoc(dt.Settings.Settings()))},
	})
	phttp.MountProfiler(r, "/debug", opt.EnableProfiler)
	if opt.EnableMetrics {
		r.Handle("/metrics", metrics.Handler())
	}

	httpkit.MountAPIV1(r, httpkit.CommonStack(opt.Config), func(api httpkit.Router) {
		for _, m := range mods {
			m.MountRoutes(api)
		}
	})
}

// DetectorDoc renders the active detection thresholds for the API document
func DetectorDoc(st detectdom.Settings) string {
	th := st.Thresholds
	return fmt.Sprintf(
		"Detector: baseline %dh, recent %dm, every %dm. Escalates when drop >= %.1f%%, sigma >= %.1f "+
			"and both windows hold >= %d sessions; one alert per step per %dm.",
		st.BaselineWindowHours, st.RecentWindowMinutes, st.IntervalMinutes,
		th.MinDropPercent, th.SigmaThreshold, th.MinSampleSize, th.CooldownMinutes)
}
