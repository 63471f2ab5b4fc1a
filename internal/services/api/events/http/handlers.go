// Package http provides http transport for event ingestion
package http

import (
	stdhttp "net/http"

	"arguxai/internal/modkit/httpkit"
	"arguxai/internal/platform/net/http/bind"
	"arguxai/internal/services/events/domain"
)

// Register mounts event endpoints on the given router
func Register(r httpkit.Router, ingest domain.IngestPort, reader domain.ReaderPort) {
	h := &handlers{ingest: ingest, reader: reader}

	httpkit.PostJSON[domain.Batch](r, "/batch", h.batch)
	httpkit.Get(r, "/recent", h.recent)
}

type handlers struct {
	ingest domain.IngestPort
	reader domain.ReaderPort
}

// swagger:route POST /events/batch Events eventsBatch
// @Summary Ingest a batch of funnel events
// @Tags Events
// @Accept json
// @Produce json
// @Param payload body domain.Batch true "Events"
// @Success 202 {object} domain.IngestResult "accepted and rejected counts"
// @Router /events/batch [post]
func (h *handlers) batch(r *stdhttp.Request, in domain.Batch) (any, error) {
	res, err := h.ingest.IngestBatch(r.Context(), in.Events)
	if err != nil {
		return nil, err
	}
	return httpkit.Accepted(res), nil
}

// swagger:route GET /events/recent Events eventsRecent
// @Summary Newest events, optionally for one funnel step
// @Tags Events
// @Produce json
// @Param funnel_step query string false "Funnel step"
// @Param limit query int false "Max rows (1..1000)"
// @Success 200 {array} event.Event "ok"
// @Router /events/recent [get]
func (h *handlers) recent(r *stdhttp.Request) (any, error) {
	limit, err := bind.QueryInt(r, "limit", 100, 1, 1000)
	if err != nil {
		return nil, err
	}
	return h.reader.Recent(r.Context(), bind.QueryString(r, "funnel_step"), limit)
}
