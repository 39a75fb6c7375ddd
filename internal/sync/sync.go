// Package sync implements the delta-mirroring engine that copies new or
// changed source rows into the remote store on per-target schedules.
package sync

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/snagasawa/kpisync/internal/adapters/source"
	"github.com/snagasawa/kpisync/internal/adapters/turso"
	"github.com/snagasawa/kpisync/internal/domain/model"
	"github.com/snagasawa/kpisync/internal/domain/normalize"
	"github.com/snagasawa/kpisync/pkg/logger"
	"github.com/snagasawa/kpisync/pkg/metrics"
)

// CursorStore persists offset-mode high-water marks.
type CursorStore interface {
	Cursor(ctx context.Context, key string) (int64, error)
	SetCursor(ctx context.Context, key string, row int64) error
}

// Pipeline executes statement batches against the remote store.
type Pipeline interface {
	Exec(ctx context.Context, stmts []turso.Stmt) ([]turso.StmtResult, error)
}

// Notifier delivers operator-facing failure summaries.
type Notifier interface {
	Notify(ctx context.Context, text string)
}

// Report summarizes one sync cycle.
type Report struct {
	Target     string `json:"target"`
	CycleID    string `json:"cycleId"`
	Skipped    bool   `json:"skipped"`
	SkipReason string `json:"skipReason,omitempty"`
	Scanned    int    `json:"scanned"`
	Synced     int    `json:"synced"`
	Failed     int    `json:"failed"`
}

// Engine runs sync cycles for a set of targets against one source grid and
// one remote store.
type Engine struct {
	grid     source.Grid
	cursors  CursorStore
	pipeline Pipeline
	notifier Notifier
	log      logger.Logger
	now      func() time.Time
	targets  []Target
	hasCreds bool

	wg sync.WaitGroup
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces the wall clock, used by tests and the row seeder.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithLogger sets the engine logger.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithNotifier sets the failure notifier.
func WithNotifier(n Notifier) Option {
	return func(e *Engine) {
		if n != nil {
			e.notifier = n
		}
	}
}

// WithCredentials records whether remote store credentials are configured.
// Cycles abort with a notification when they are not, matching the fail
// loudly but keep scheduling behavior of the triggers this replaces.
func WithCredentials(dbURL, token string) Option {
	return func(e *Engine) {
		e.hasCreds = dbURL != "" && token != ""
	}
}

// New creates an engine for the given targets.
func New(grid source.Grid, cursors CursorStore, pipeline Pipeline, targets []Target, opts ...Option) *Engine {
	e := &Engine{
		grid:     grid,
		cursors:  cursors,
		pipeline: pipeline,
		log:      logger.Get().Named("sync"),
		now:      time.Now,
		targets:  targets,
		hasCreds: true,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Targets returns the configured targets.
func (e *Engine) Targets() []Target { return e.targets }

func (e *Engine) target(name string) (Target, bool) {
	for _, t := range e.targets {
		if t.Name == name {
			return t, true
		}
	}
	return Target{}, false
}

// Start launches one scheduling goroutine per target. Each runs a cycle
// immediately and then on its interval until ctx is canceled.
func (e *Engine) Start(ctx context.Context) {
	for _, t := range e.targets {
		e.wg.Add(1)
		go func(t Target) {
			defer e.wg.Done()
			ticker := time.NewTicker(t.Interval)
			defer ticker.Stop()

			for {
				if _, err := e.RunCycle(ctx, t.Name); err != nil {
					e.log.Error(ctx, "sync cycle failed",
						logger.String("target", t.Name), logger.Error(err))
				}
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
				}
			}
		}(t)
	}
}

// Wait blocks until all scheduling goroutines have exited.
func (e *Engine) Wait() {
	e.wg.Wait()
}

// RunCycle executes one sync cycle for the named target.
func (e *Engine) RunCycle(ctx context.Context, name string) (Report, error) {
	t, ok := e.target(name)
	if !ok {
		return Report{}, fmt.Errorf("%w: %s", ErrUnknownTarget, name)
	}

	rep := Report{Target: t.Name, CycleID: uuid.NewString()}
	now := e.now()

	if hour := now.Hour(); hour < t.HourFrom || hour >= t.HourTo {
		rep.Skipped = true
		rep.SkipReason = "outside business hours"
		metrics.RecordCycleSkipped(t.Name, "business_hours")
		e.log.Debug(ctx, "cycle skipped outside business hours",
			logger.String("target", t.Name), logger.Int("hour", hour))
		return rep, nil
	}

	if !e.hasCreds {
		rep.Skipped = true
		rep.SkipReason = "credentials not configured"
		metrics.RecordCycleSkipped(t.Name, "credentials")
		e.notify(ctx, "sync aborted: remote store credentials not configured")
		return rep, ErrNoCredentials
	}

	metrics.RecordCycleRun(t.Name)

	sheet, err := e.grid.Snapshot(ctx, t.Sheet)
	if err != nil {
		metrics.RecordSourceError(t.Sheet)
		return rep, fmt.Errorf("snapshot %s: %w", t.Sheet, err)
	}

	var rows [][]model.Cell
	lastRow := sheet.LastRow()

	switch t.Mode {
	case ModeOffset:
		cur, err := e.cursors.Cursor(ctx, t.CursorKey)
		if err != nil {
			return rep, fmt.Errorf("read cursor: %w", err)
		}
		if cur < int64(t.StartRow-1) {
			cur = int64(t.StartRow - 1)
		}
		if int64(lastRow) <= cur {
			e.log.Debug(ctx, "no new rows",
				logger.String("target", t.Name), logger.Int64("cursor", cur))
			return rep, nil
		}
		rows = sheet.Rows(int(cur)+1, lastRow, t.Width)
	case ModeWindow:
		rows = e.windowRows(sheet, t, now.AddDate(0, 0, -t.SyncDays))
	}

	rep = e.dispatch(ctx, t, rows, now, rep)

	if t.Mode == ModeOffset {
		// The cursor advances to the observed last row even when some
		// statements failed: failed rows are reported, not retried.
		if err := e.cursors.SetCursor(ctx, t.CursorKey, int64(lastRow)); err != nil {
			// Rows already dispatched this cycle still count.
			e.finish(ctx, t, rep)
			return rep, fmt.Errorf("advance cursor: %w", err)
		}
		metrics.UpdateCursorPosition(t.Name, int64(lastRow))
	}

	e.finish(ctx, t, rep)
	return rep, nil
}

// ResyncFrom re-sends every row dated on or after from, regardless of the
// trailing window. Manual recovery path; only valid for targets whose rows
// carry a date column and whose writes are idempotent.
func (e *Engine) ResyncFrom(ctx context.Context, name string, from time.Time) (Report, error) {
	t, ok := e.target(name)
	if !ok {
		return Report{}, fmt.Errorf("%w: %s", ErrUnknownTarget, name)
	}
	if t.DateCol < 0 || t.Mode != ModeWindow {
		return Report{}, fmt.Errorf("%w: %s", ErrResyncUnsupported, name)
	}
	if !e.hasCreds {
		return Report{}, ErrNoCredentials
	}

	rep := Report{Target: t.Name, CycleID: uuid.NewString()}
	sheet, err := e.grid.Snapshot(ctx, t.Sheet)
	if err != nil {
		metrics.RecordSourceError(t.Sheet)
		return rep, fmt.Errorf("snapshot %s: %w", t.Sheet, err)
	}

	rows := e.windowRows(sheet, t, from)
	rep = e.dispatch(ctx, t, rows, e.now(), rep)
	e.finish(ctx, t, rep)
	return rep, nil
}

// windowRows selects the non-blank rows whose date cell parses and falls on
// or after from. Dateless rows never qualify for window sync. Row dates are
// compared to the boundary as calendar-date keys, so a zoned date cell on
// the window's first day is still in range.
func (e *Engine) windowRows(sheet *source.Sheet, t Target, from time.Time) [][]model.Cell {
	fromKey := from.Format(model.DateLayout)
	all := sheet.Rows(t.StartRow, sheet.LastRow(), t.Width)
	out := make([][]model.Cell, 0, len(all))
	for _, row := range all {
		if normalize.IsBlankRow(row) {
			continue
		}
		d, ok := normalize.Date(row[t.DateCol])
		if !ok || d.Format(model.DateLayout) < fromKey {
			continue
		}
		out = append(out, row)
	}
	return out
}

// dispatch builds statements for the selected rows and sends them in
// source-order batches, accumulating per-row accounting into the report.
func (e *Engine) dispatch(ctx context.Context, t Target, rows [][]model.Cell, now time.Time, rep Report) Report {
	rep.Scanned = len(rows)

	stmts := make([]turso.Stmt, 0, len(rows))
	for _, row := range rows {
		if stmt, ok := t.Build(row, now); ok {
			stmts = append(stmts, stmt)
		}
	}

	for start := 0; start < len(stmts); start += t.BatchSize {
		end := start + t.BatchSize
		if end > len(stmts) {
			end = len(stmts)
		}
		batch := stmts[start:end]

		began := time.Now()
		results, err := e.pipeline.Exec(ctx, batch)
		metrics.RecordPipelineLatency(float64(time.Since(began).Milliseconds()))

		if err != nil {
			metrics.RecordBatchError(t.Name)
			rep.Failed += len(batch)
			e.log.Error(ctx, "batch failed",
				logger.String("target", t.Name),
				logger.String("cycle", rep.CycleID),
				logger.Int("batch_size", len(batch)),
				logger.Error(err))
			continue
		}
		for _, r := range results {
			if r.OK {
				rep.Synced++
				continue
			}
			rep.Failed++
			e.log.Error(ctx, "statement failed",
				logger.String("target", t.Name),
				logger.String("cycle", rep.CycleID),
				logger.String("cause", r.Err))
		}
	}
	return rep
}

// finish records row accounting, logs the cycle summary, and notifies on
// failures.
func (e *Engine) finish(ctx context.Context, t Target, rep Report) {
	metrics.RecordRowsWritten(t.Name, rep.Synced)
	metrics.RecordRowsFailed(t.Name, rep.Failed)

	e.log.Info(ctx, "sync cycle complete",
		logger.String("target", t.Name),
		logger.String("cycle", rep.CycleID),
		logger.Int("scanned", rep.Scanned),
		logger.Int("synced", rep.Synced),
		logger.Int("failed", rep.Failed))

	if rep.Failed > 0 {
		e.notify(ctx, fmt.Sprintf("%s sync finished with errors: %d synced, %d failed (cycle %s)",
			t.Name, rep.Synced, rep.Failed, rep.CycleID))
	}
}

func (e *Engine) notify(ctx context.Context, text string) {
	if e.notifier != nil {
		e.notifier.Notify(ctx, text)
	}
}
