// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
	"time"

	service "github.com/snagasawa/kpisync/internal/app"
	"github.com/snagasawa/kpisync/internal/domain/model"
)

// RawDataHandler handles raw-data report requests.
type RawDataHandler struct {
	deps Reporter
}

// NewRawDataHandler creates a new raw-data handler.
func NewRawDataHandler(deps Reporter) *RawDataHandler {
	return &RawDataHandler{deps: deps}
}

// HandleGetRawData handles GET /api/rawdata?startDate=&endDate=&source=
// requests. Malformed dates degrade to an unbounded query rather than
// failing the request.
func (h *RawDataHandler) HandleGetRawData(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	q := service.Query{
		Source: r.URL.Query().Get("source"),
		Start:  parseDateParam(r.URL.Query().Get("startDate")),
		End:    parseDateParam(r.URL.Query().Get("endDate")),
	}

	report, err := h.deps.RawData(r.Context(), q)
	if err != nil {
		// Clients render a fallback from the error payload, so a failed
		// upstream read is still a successful HTTP exchange.
		writeError(w, http.StatusOK, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// parseDateParam parses a calendar-date query parameter. Empty or
// malformed values yield nil, which the query layer treats as unbounded.
func parseDateParam(v string) *time.Time {
	if v == "" {
		return nil
	}
	t, err := time.Parse(model.DateLayout, v)
	if err != nil {
		return nil
	}
	return &t
}
