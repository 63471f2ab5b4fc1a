// Package http provides meta endpoints
package http

import (
	stdctx "context"
	"net/http"
	"time"

	"arguxai/internal/core/version"
	"arguxai/internal/modkit/httpkit"
	detectdom "arguxai/internal/services/detect/domain"
)

// Pinger is satisfied by adapters that expose Ping
type Pinger interface {
	Ping(stdctx.Context) error
}

// Deps are the handler dependencies; nil checks are reported as skipped
type Deps struct {
	ServiceName string
	StartedAt   time.Time
	PG          any
	CH          any
	Redis       Pinger
	Detector    detectdom.SettingsPort
}

type handlers struct {
	deps Deps
}

// Register mounts the meta routes
func Register(r httpkit.Router, d Deps) {
	h := &handlers{deps: d}

	httpkit.Get(r, "/health", h.health)
	httpkit.Get(r, "/ready", h.ready)
	httpkit.Get(r, "/version", h.version)
	httpkit.Get(r, "/detector", h.detector)
}

// HealthResponse is the health payload
type HealthResponse struct {
	OK      bool   `json:"ok"       example:"true"`
	Service string `json:"service"  example:"arguxai-api"`
	Started string `json:"started"  example:"2026-01-03T13:00:00Z"`
	Uptime  int64  `json:"uptime"   example:"300"`
	Now     string `json:"now"      example:"2026-01-03T13:05:00Z"`
}

// ReadyCheck describes a single dependency check
type ReadyCheck struct {
	Name   string `json:"name"   example:"pg"`
	Status string `json:"status" example:"ok"` // ok fail skipped unknown
	Error  string `json:"error,omitempty" example:"dial tcp 127.0.0.1:5432 connect: connection refused"`
}

// ReadyResponse summarizes readiness
type ReadyResponse struct {
	Status string       `json:"status" example:"ok"` // ok degraded fail
	Checks []ReadyCheck `json:"checks"`
	Now    string       `json:"now"    example:"2026-01-03T13:05:00Z"`
}

// DetectorResponse reports the thresholds and windows detection runs with
type DetectorResponse struct {
	Settings detectdom.Settings `json:"settings"`
	Build    version.BuildInfo  `json:"build"`
}

// swagger:route GET /meta/health Meta metaHealth
// @Summary Liveness
// @Tags Meta
// @Produce json
// @Success 200 {object} HealthResponse "ok"
// @Router /meta/health [get]
func (h *handlers) health(_ *http.Request) (any, error) {
	now := time.Now().UTC()
	return HealthResponse{
		OK:      true,
		Service: h.deps.ServiceName,
		Started: h.deps.StartedAt.UTC().Format(time.RFC3339),
		Uptime:  int64(now.Sub(h.deps.StartedAt) / time.Second),
		Now:     now.Format(time.RFC3339),
	}, nil
}

// swagger:route GET /meta/ready Meta metaReady
// @Summary Readiness probe with dependency checks
// @Tags Meta
// @Produce json
// @Success 200 {object} ReadyResponse "ok"
// @Router /meta/ready [get]
func (h *handlers) ready(r *http.Request) (any, error) {
	ctx, cancel := stdctx.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	check := func(name string, c any) ReadyCheck {
		if c == nil {
			return ReadyCheck{Name: name, Status: "skipped"}
		}
		if p, ok := c.(Pinger); ok {
			if err := p.Ping(ctx); err != nil {
				return ReadyCheck{Name: name, Status: "fail", Error: err.Error()}
			}
			return ReadyCheck{Name: name, Status: "ok"}
		}
		return ReadyCheck{Name: name, Status: "unknown"}
	}

	var redis any
	if h.deps.Redis != nil {
		redis = h.deps.Redis
	}
	checks := []ReadyCheck{check("pg", h.deps.PG), check("ch", h.deps.CH), check("redis", redis)}

	// postgres is the only hard dependency; the mirror and redis degrade
	overall := "ok"
	for _, c := range checks {
		switch {
		case c.Name == "pg" && c.Status != "ok":
			overall = "fail"
		case c.Status == "fail" && overall == "ok":
			overall = "degraded"
		}
	}

	return ReadyResponse{
		Status: overall,
		Checks: checks,
		Now:    time.Now().UTC().Format(time.RFC3339),
	}, nil
}

// swagger:route GET /meta/version Meta metaVersion
// @Summary Build and version info
// @Tags Meta
// @Produce json
// @Success 200 {object} version.BuildInfo "ok"
// @Router /meta/version [get]
func (h *handlers) version(_ *http.Request) (any, error) {
	return version.Info(), nil
}

// swagger:route GET /meta/detector Meta metaDetector
// @Summary Detector thresholds and windows
// @Tags Meta
// @Produce json
// @Success 200 {object} DetectorResponse "ok"
// @Router /meta/detector [get]
func (h *handlers) detector(_ *http.Request) (any, error) {
	out := DetectorResponse{Build: version.Info()}
	if h.deps.Detector != nil {
		out.Settings = h.deps.Detector.Settings()
	}
	return out, nil
}
