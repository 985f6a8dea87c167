package handlers

import (
	"net/http"

	"reposched/internal/controller/middleware"
	"reposched/pkg/api"
)

// Stats handles GET /stats.
func (h *Handlers) Stats(w http.ResponseWriter, r *http.Request) {
	s := h.engine.Stats(middleware.OwnerFromContext(r.Context()))
	h.respondJson(w, http.StatusOK, api.StatsResponse{
		Total:    s.Total,
		Pending:  s.Pending,
		Creating: s.Creating,
		Created:  s.Created,
		Failed:   s.Failed,
		Armed:    s.Armed,
	})
}
