// Package http provides http transport for the funnel catalog
package http

import (
	stdhttp "net/http"

	"arguxai/internal/modkit/httpkit"
	"arguxai/internal/services/funnels/domain"
)

// Register mounts funnel endpoints on the given router
func Register(r httpkit.Router, c domain.CatalogPort) {
	h := &handlers{c: c}

	httpkit.Get(r, "/", h.list)
	httpkit.PostJSON[domain.CreateInput](r, "/", h.create)
	httpkit.Get(r, "/{id}", h.get)
	httpkit.Delete(r, "/{id}", h.delete)
}

type handlers struct{ c domain.CatalogPort }

// swagger:route GET /funnels Funnels funnelsList
// @Summary List funnels with their steps
// @Tags Funnels
// @Produce json
// @Success 200 {array} domain.Funnel "ok"
// @Router /funnels [get]
func (h *handlers) list(r *stdhttp.Request) (any, error) {
	return h.c.List(r.Context())
}

// swagger:route POST /funnels Funnels funnelsCreate
// @Summary Create a funnel
// @Tags Funnels
// @Accept json
// @Produce json
// @Param payload body domain.CreateInput true "Funnel"
// @Success 201 {object} domain.Funnel "created"
// @Router /funnels [post]
func (h *handlers) create(r *stdhttp.Request, in domain.CreateInput) (any, error) {
	f, err := h.c.Create(r.Context(), in)
	if err != nil {
		return nil, err
	}
	return httpkit.Created(f), nil
}

// swagger:route GET /funnels/{id} Funnels funnelsGet
// @Summary Get a funnel
// @Tags Funnels
// @Produce json
// @Param id path string true "Funnel id"
// @Success 200 {object} domain.Funnel "ok"
// @Router /funnels/{id} [get]
func (h *handlers) get(r *stdhttp.Request) (any, error) {
	return h.c.Get(r.Context(), httpkit.Param(r, "id"))
}

// swagger:route DELETE /funnels/{id} Funnels funnelsDelete
// @Summary Delete a funnel
// @Tags Funnels
// @Param id path string true "Funnel id"
// @Success 204 "deleted"
// @Router /funnels/{id} [delete]
func (h *handlers) delete(r *stdhttp.Request) (any, error) {
	if err := h.c.Delete(r.Context(), httpkit.Param(r, "id")); err != nil {
		return nil, err
	}
	return httpkit.NoContent(), nil
}
