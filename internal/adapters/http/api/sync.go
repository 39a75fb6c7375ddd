// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/snagasawa/kpisync/internal/domain/model"
)

// SyncHandler triggers sync cycles on demand.
type SyncHandler struct {
	deps Reporter
}

// NewSyncHandler creates a new sync trigger handler.
func NewSyncHandler(deps Reporter) *SyncHandler {
	return &SyncHandler{deps: deps}
}

// HandleSync handles POST /api/sync?target=NAME[&from=YYYY-MM-DD] requests.
// With from set, window-mode targets re-send every row dated on or after it.
func (h *SyncHandler) HandleSync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	target := strings.TrimSpace(r.URL.Query().Get("target"))
	if target == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w: missing target", ErrBadRequest))
		return
	}

	if fromStr := r.URL.Query().Get("from"); fromStr != "" {
		from, err := time.Parse(model.DateLayout, fromStr)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("%w: invalid from date", ErrBadRequest))
			return
		}
		report, err := h.deps.ResyncFrom(r.Context(), target, from)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, report)
		return
	}

	report, err := h.deps.RunSync(r.Context(), target)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
