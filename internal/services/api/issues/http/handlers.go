// Package http provides http transport for issues
package http

import (
	stdhttp "net/http"

	"arguxai/internal/core/anomaly"
	"arguxai/internal/modkit/httpkit"
	"arguxai/internal/platform/net/http/bind"
	diagdom "arguxai/internal/services/diagnosis/domain"
	"arguxai/internal/services/issues/domain"
)

// Deps are the handler dependencies; Diagnoser may be nil
type Deps struct {
	Reader    domain.ReaderPort
	Patcher   domain.PatcherPort
	Diagnoser diagdom.DiagnoserPort
}

// Register mounts issue endpoints on the given router
func Register(r httpkit.Router, d Deps) {
	h := &handlers{d: d}

	httpkit.Get(r, "/", h.list)
	httpkit.Get(r, "/{id}", h.get)
	httpkit.Post(r, "/{id}/diagnose", h.diagnose)
	httpkit.PatchJSON[domain.JiraLink](r, "/{id}/jira", h.jira)
	httpkit.PatchJSON[domain.PRLink](r, "/{id}/pr", h.pr)
	httpkit.Post(r, "/{id}/resolve", h.resolve)
}

type handlers struct{ d Deps }

// swagger:route GET /issues Issues issuesList
// @Summary List issues, newest first
// @Tags Issues
// @Produce json
// @Param status query string false "detected | diagnosed | resolved"
// @Param severity query string false "low | medium | high | critical"
// @Param limit query int false "Max rows"
// @Success 200 {array} domain.Issue "ok"
// @Router /issues [get]
func (h *handlers) list(r *stdhttp.Request) (any, error) {
	limit, err := bind.QueryInt(r, "limit", 0, 0, 1<<20)
	if err != nil {
		return nil, err
	}
	return h.d.Reader.List(r.Context(), domain.ListFilter{
		Status:   domain.Status(bind.QueryString(r, "status")),
		Severity: anomaly.Severity(bind.QueryString(r, "severity")),
		Limit:    limit,
	})
}

// swagger:route GET /issues/{id} Issues issuesGet
// @Summary Get one issue
// @Tags Issues
// @Produce json
// @Param id path string true "Issue id"
// @Success 200 {object} domain.Issue "ok"
// @Failure 404 {object} httpkit.Envelope "not found"
// @Router /issues/{id} [get]
func (h *handlers) get(r *stdhttp.Request) (any, error) {
	return h.d.Reader.Get(r.Context(), httpkit.Param(r, "id"))
}

// swagger:route POST /issues/{id}/diagnose Issues issuesDiagnose
// @Summary Run or re-run the AI diagnosis for an issue
// @Tags Issues
// @Produce json
// @Param id path string true "Issue id"
// @Success 200 {object} domain.Issue "diagnosed issue"
// @Failure 503 {object} httpkit.Envelope "model unavailable"
// @Router /issues/{id}/diagnose [post]
func (h *handlers) diagnose(r *stdhttp.Request) (any, error) {
	if h.d.Diagnoser == nil {
		return nil, errDiagnosisOff
	}
	return h.d.Diagnoser.Diagnose(r.Context(), httpkit.Param(r, "id"))
}

// swagger:route PATCH /issues/{id}/jira Issues issuesJira
// @Summary Link a Jira ticket
// @Tags Issues
// @Accept json
// @Produce json
// @Param id path string true "Issue id"
// @Param payload body domain.JiraLink true "Ticket"
// @Success 200 {object} domain.Issue "ok"
// @Router /issues/{id}/jira [patch]
func (h *handlers) jira(r *stdhttp.Request, in domain.JiraLink) (any, error) {
	return h.d.Patcher.LinkJira(r.Context(), httpkit.Param(r, "id"), in.Ticket)
}

// swagger:route PATCH /issues/{id}/pr Issues issuesPR
// @Summary Link a GitHub pull request
// @Tags Issues
// @Accept json
// @Produce json
// @Param id path string true "Issue id"
// @Param payload body domain.PRLink true "Pull request URL"
// @Success 200 {object} domain.Issue "ok"
// @Router /issues/{id}/pr [patch]
func (h *handlers) pr(r *stdhttp.Request, in domain.PRLink) (any, error) {
	return h.d.Patcher.LinkPR(r.Context(), httpkit.Param(r, "id"), in.URL)
}

// swagger:route POST /issues/{id}/resolve Issues issuesResolve
// @Summary Mark an issue resolved
// @Tags Issues
// @Produce json
// @Param id path string true "Issue id"
// @Success 200 {object} domain.Issue "ok"
// @Router /issues/{id}/resolve [post]
func (h *handlers) resolve(r *stdhttp.Request) (any, error) {
	return h.d.Patcher.Resolve(r.Context(), httpkit.Param(r, "id"))
}
