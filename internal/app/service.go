// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/snagasawa/kpisync/internal/adapters/source"
	"github.com/snagasawa/kpisync/internal/domain/aggregate"
	"github.com/snagasawa/kpisync/internal/domain/model"
	"github.com/snagasawa/kpisync/internal/domain/monthly"
	"github.com/snagasawa/kpisync/internal/domain/normalize"
	enginesync "github.com/snagasawa/kpisync/internal/sync"
	"github.com/snagasawa/kpisync/pkg/logger"
	"github.com/snagasawa/kpisync/pkg/metrics"
)

// Source selector names accepted by the reporting API.
const (
	SourceDefault  = "default"
	SourceAllStaff = "all_staff"
)

const monthlyViewWidth = 21

// SettingsStore persists per-project KPI targets.
type SettingsStore interface {
	Settings(ctx context.Context) ([]model.ProjectTarget, error)
	SaveSettings(ctx context.Context, targets []model.ProjectTarget) error
}

// Syncer runs sync cycles. Implemented by the sync engine.
type Syncer interface {
	Start(ctx context.Context)
	Wait()
	RunCycle(ctx context.Context, target string) (enginesync.Report, error)
	ResyncFrom(ctx context.Context, target string, from time.Time) (enginesync.Report, error)
	Targets() []enginesync.Target
}

// Query selects and filters one raw-data report.
type Query struct {
	Source string
	Start  *time.Time
	End    *time.Time
}

// RecordView is the JSON form of one filtered activity record.
type RecordView struct {
	Name     string  `json:"name"`
	Project  string  `json:"project"`
	Date     *string `json:"date"`
	CallTime float64 `json:"callTime"`
	Calls    int     `json:"calls"`
	PR       int     `json:"pr"`
	Appo     int     `json:"appo"`
}

// RawDataReport is the full report document served by GET /api/rawdata.
type RawDataReport struct {
	Records            []RecordView             `json:"records"`
	Aggregated         aggregate.Aggregated     `json:"aggregated"`
	Comparisons        aggregate.Comparisons    `json:"comparisons"`
	PreviousMonthDaily aggregate.PrevMonthDaily `json:"previousMonthDaily"`
	Filters            aggregate.Filters        `json:"filters"`
}

// SettingsDoc pairs the stored targets with the projects currently visible
// in the monthly view, so clients can offer targets for new projects.
type SettingsDoc struct {
	Settings          []model.ProjectTarget `json:"settings"`
	AvailableProjects []string              `json:"availableProjects"`
}

// Service wires the grids, state store, sync engine, and aggregation
// pipeline behind the HTTP API.
type Service struct {
	mu sync.RWMutex

	grids    map[string]source.Grid
	settings SettingsStore
	syncer   Syncer

	performanceSheet string
	monthlySheet     string

	started bool
	now     func() time.Time

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithGrid registers a named activity source.
func WithGrid(name string, g source.Grid) Option {
	return func(s *Service) {
		if g != nil {
			s.grids[name] = g
		}
	}
}

// WithSettingsStore sets the settings persistence backend.
func WithSettingsStore(store SettingsStore) Option {
	return func(s *Service) {
		s.settings = store
	}
}

// WithSyncer sets the sync engine.
func WithSyncer(sy Syncer) Option {
	return func(s *Service) {
		s.syncer = sy
	}
}

// WithSheets sets the sheet names read by the reporting path.
func WithSheets(performance, monthlyView string) Option {
	return func(s *Service) {
		if performance != "" {
			s.performanceSheet = performance
		}
		if monthlyView != "" {
			s.monthlySheet = monthlyView
		}
	}
}

// WithClock replaces the wall clock used for month boundaries.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		grids:            make(map[string]source.Grid),
		performanceSheet: "実績rawdata",
		monthlySheet:     "月次ビュー",
		now:              time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start validates wiring and launches the sync schedulers.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}
	if len(s.grids) == 0 {
		return fmt.Errorf("%w: no sources registered", ErrNotConfigured)
	}
	if s.settings == nil {
		return fmt.Errorf("%w: no settings store", ErrNotConfigured)
	}

	if s.syncer != nil {
		s.syncer.Start(ctx)
		s.logger.Info(ctx, "sync schedulers started",
			logger.Int("targets", len(s.syncer.Targets())))
	}

	s.started = true
	s.logger.Info(ctx, "service started",
		logger.Int("sources", len(s.grids)),
		logger.String("performance_sheet", s.performanceSheet))
	return nil
}

// Stop waits for the sync schedulers to drain. The caller cancels their
// context first.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	if s.syncer != nil {
		s.syncer.Wait()
	}
	s.started = false
	s.logger.Info(context.Background(), "service stopped")
}

func (s *Service) grid(name string) (source.Grid, error) {
	if name == "" {
		name = SourceDefault
	}
	g, ok := s.grids[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", source.ErrUnknownSource, name)
	}
	return g, nil
}

// records loads and normalizes every data row of the performance sheet.
func (s *Service) records(ctx context.Context, src string) ([]model.Record, error) {
	g, err := s.grid(src)
	if err != nil {
		return nil, err
	}

	sheet, err := g.Snapshot(ctx, s.performanceSheet)
	if err != nil {
		metrics.RecordSourceError(src)
		return nil, fmt.Errorf("read %s: %w", s.performanceSheet, err)
	}

	rows := sheet.Rows(2, sheet.LastRow(), normalize.PerformanceColumns)
	records := make([]model.Record, 0, len(rows))
	for _, row := range rows {
		rec, err := normalize.PerformanceRecord(row)
		if err != nil {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// RawData builds the full report document for one query: filtered records,
// the four-way aggregation, period comparisons, the previous-month daily
// breakdown, and filter values.
func (s *Service) RawData(ctx context.Context, q Query) (*RawDataReport, error) {
	began := time.Now()
	history, err := s.records(ctx, q.Source)
	if err != nil {
		return nil, err
	}

	filtered := aggregate.FilterByDate(history, q.Start, q.End)
	agg := aggregate.Aggregate(filtered)

	report := &RawDataReport{
		Records:            recordViews(filtered),
		Aggregated:         agg,
		Comparisons:        aggregate.Compare(agg.Totals, history, q.Start, q.End),
		PreviousMonthDaily: aggregate.PreviousMonthDaily(history, q.Start, s.now()),
		Filters:            aggregate.FilterValues(filtered),
	}

	metrics.RecordReportRequest()
	metrics.RecordAggregationLatency(float64(time.Since(began).Milliseconds()))
	return report, nil
}

func recordViews(records []model.Record) []RecordView {
	out := make([]RecordView, 0, len(records))
	for _, r := range records {
		v := RecordView{
			Name:     r.Member,
			Project:  r.Project,
			CallTime: r.CallHours,
			Calls:    r.CallCount,
			PR:       r.PRCount,
			Appo:     r.AppointmentCount,
		}
		if key := r.DateKey(); key != "" {
			v.Date = &key
		}
		out = append(out, v)
	}
	return out
}

// MonthlyView parses the pre-aggregated monthly progress sheet.
func (s *Service) MonthlyView(ctx context.Context) (monthly.View, error) {
	g, err := s.grid(SourceDefault)
	if err != nil {
		return monthly.View{}, err
	}

	sheet, err := g.Snapshot(ctx, s.monthlySheet)
	if err != nil {
		metrics.RecordSourceError(SourceDefault)
		return monthly.View{}, fmt.Errorf("read %s: %w", s.monthlySheet, err)
	}

	rows := sheet.Rows(1, sheet.LastRow(), monthlyViewWidth)
	return monthly.Parse(rows, s.monthlySheet, s.now()), nil
}

// Settings returns the stored per-project targets plus the projects
// currently present in the monthly view.
func (s *Service) Settings(ctx context.Context) (SettingsDoc, error) {
	targets, err := s.settings.Settings(ctx)
	if err != nil {
		return SettingsDoc{}, err
	}

	doc := SettingsDoc{Settings: targets, AvailableProjects: []string{}}

	// The project list is advisory; a monthly view read failure should not
	// hide the stored settings.
	g, err := s.grid(SourceDefault)
	if err != nil {
		return doc, nil
	}
	sheet, err := g.Snapshot(ctx, s.monthlySheet)
	if err != nil {
		s.logger.Warn(ctx, "monthly view unavailable for project list", logger.Error(err))
		return doc, nil
	}
	doc.AvailableProjects = monthly.Projects(sheet.Rows(1, sheet.LastRow(), monthlyViewWidth))
	return doc, nil
}

// SaveSettings replaces the stored target set.
func (s *Service) SaveSettings(ctx context.Context, targets []model.ProjectTarget) error {
	return s.settings.SaveSettings(ctx, targets)
}

// RunSync triggers one sync cycle for the named target.
func (s *Service) RunSync(ctx context.Context, target string) (enginesync.Report, error) {
	if s.syncer == nil {
		return enginesync.Report{}, fmt.Errorf("%w: no sync engine", ErrNotConfigured)
	}
	return s.syncer.RunCycle(ctx, target)
}

// ResyncFrom re-sends window-mode rows dated on or after from.
func (s *Service) ResyncFrom(ctx context.Context, target string, from time.Time) (enginesync.Report, error) {
	if s.syncer == nil {
		return enginesync.Report{}, fmt.Errorf("%w: no sync engine", ErrNotConfigured)
	}
	return s.syncer.ResyncFrom(ctx, target, from)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started": s.started,
		"sources": len(s.grids),
	}

	if s.syncer != nil {
		names := make([]string, 0, len(s.syncer.Targets()))
		for _, t := range s.syncer.Targets() {
			names = append(names, t.Name)
		}
		stats["syncTargets"] = names
	}

	return stats
}
