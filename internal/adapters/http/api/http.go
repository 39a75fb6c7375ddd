// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	service "github.com/snagasawa/kpisync/internal/app"
	"github.com/snagasawa/kpisync/internal/domain/model"
	"github.com/snagasawa/kpisync/internal/domain/monthly"
	enginesync "github.com/snagasawa/kpisync/internal/sync"
)

// Reporter bundles the service operations the handlers need. Using an
// interface bundle keeps the handler layer loosely coupled to the
// implementation in internal/app.
type Reporter interface {
	RawData(ctx context.Context, q service.Query) (*service.RawDataReport, error)
	MonthlyView(ctx context.Context) (monthly.View, error)
	Settings(ctx context.Context) (service.SettingsDoc, error)
	SaveSettings(ctx context.Context, targets []model.ProjectTarget) error
	RunSync(ctx context.Context, target string) (enginesync.Report, error)
	ResyncFrom(ctx context.Context, target string, from time.Time) (enginesync.Report, error)
}

// Server wires HTTP routes for the reporting API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	rawDataHandler  *RawDataHandler
	monthlyHandler  *MonthlyHandler
	settingsHandler *SettingsHandler
	syncHandler     *SyncHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Reporter, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(statsProvider),
		rawDataHandler:  NewRawDataHandler(deps),
		monthlyHandler:  NewMonthlyHandler(deps),
		settingsHandler: NewSettingsHandler(deps),
		syncHandler:     NewSyncHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/api/rawdata", MetricsMiddleware(s.rawDataHandler.HandleGetRawData, "rawdata"))
	mux.HandleFunc("/api/monthly", MetricsMiddleware(s.monthlyHandler.HandleGetMonthly, "monthly"))
	mux.HandleFunc("/api/settings", MetricsMiddleware(s.settingsHandler.HandleSettings, "settings"))
	mux.HandleFunc("/api/sync", MetricsMiddleware(s.syncHandler.HandleSync, "sync"))
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Error: msg})
}
