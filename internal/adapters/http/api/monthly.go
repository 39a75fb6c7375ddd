// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
)

// MonthlyHandler handles monthly view requests.
type MonthlyHandler struct {
	deps Reporter
}

// NewMonthlyHandler creates a new monthly view handler.
func NewMonthlyHandler(deps Reporter) *MonthlyHandler {
	return &MonthlyHandler{deps: deps}
}

// HandleGetMonthly handles GET /api/monthly requests.
func (h *MonthlyHandler) HandleGetMonthly(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	view, err := h.deps.MonthlyView(r.Context())
	if err != nil {
		writeError(w, http.StatusOK, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}
