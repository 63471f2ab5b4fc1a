// Package http provides the manual detection trigger
package http

import (
	stdhttp "net/http"

	"arguxai/internal/modkit/httpkit"
	"arguxai/internal/services/detect/domain"
)

// Register mounts detection endpoints on the given router
func Register(r httpkit.Router, runner domain.RunnerPort) {
	h := &handlers{runner: runner}
	httpkit.Post(r, "/run", h.run)
}

type handlers struct{ runner domain.RunnerPort }

// swagger:route POST /detect/run Detect detectRun
// @Summary Run one detection cycle now
// @Description Per step outcomes are reported; a failing step does not fail the request
// @Tags Detect
// @Produce json
// @Success 200 {object} domain.CycleReport "ok"
// @Router /detect/run [post]
func (h *handlers) run(r *stdhttp.Request) (any, error) {
	return h.runner.RunCycle(r.Context(), domain.TriggerManual)
}
