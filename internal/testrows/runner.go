package testrows

import (
	"context"
	"fmt"
	"time"

	"github.com/snagasawa/kpisync/internal/adapters/source"
	"github.com/snagasawa/kpisync/internal/domain/model"
	enginesync "github.com/snagasawa/kpisync/internal/sync"
	"github.com/snagasawa/kpisync/pkg/logger"
)

// Run executes the complete row sync exercise.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{
		StartTime: time.Now(),
	}

	logger.Get().Info(ctx, "starting kpisync row test",
		logger.Int("rows", config.NumRows),
		logger.Int("members", config.Members),
		logger.Int("projects", config.Projects),
		logger.Int("batch", config.BatchSize),
		logger.String("logFile", config.LogFile),
		logger.Any("verbose", config.Verbose))

	// Step 1: Generate rows and seed the in-memory sheet
	rows := generateRows(ctx, config, stats)

	grid := source.NewMemGrid()
	grid.SetSheet(config.Sheet, append([][]model.Cell{headerRow()}, rows...))

	// Step 2: Wire the engine against the pipeline stub
	pipeline := newStubPipeline()
	target := enginesync.PerformanceTarget(config.Sheet)
	target.BatchSize = config.BatchSize
	target.SyncDays = config.Days
	// The exercise must run at any wall-clock hour.
	target.HourFrom = 0
	target.HourTo = 24

	engine := enginesync.New(grid, newMemCursors(), pipeline,
		[]enginesync.Target{target},
		enginesync.WithCredentials("libsql://test.local", "test-token"),
	)

	// Step 3: Run one full cycle
	report, err := engine.RunCycle(ctx, target.Name)
	if err != nil {
		return fmt.Errorf("sync cycle failed: %w", err)
	}
	stats.RowsScanned = report.Scanned
	stats.RowsSynced = report.Synced
	stats.RowsFailed = report.Failed

	// Step 4: Run a second cycle; window mode rescans the same rows
	second, err := engine.RunCycle(ctx, target.Name)
	if err != nil {
		return fmt.Errorf("second sync cycle failed: %w", err)
	}

	stats.BatchesSeen, stats.StatementsSeen = pipeline.snapshot()

	// Step 5: Verify results
	if err := verifyResults(ctx, config, report, second, stats); err != nil {
		return fmt.Errorf("result verification failed: %w", err)
	}

	// Step 6: Save rows to file
	if err := saveRowsToFile(ctx, config, rows); err != nil {
		logger.Get().Warn(ctx, "failed to save rows to file", logger.Error(err))
	}

	// Final statistics
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	displayFinalStats(stats)

	logger.Get().Info(ctx, "test completed successfully")
	return nil
}

// headerRow mirrors the label row that tops every real activity sheet.
func headerRow() []model.Cell {
	return []model.Cell{
		model.StringCell("担当者"),
		model.StringCell("案件"),
		model.StringCell("日付"),
		model.StringCell("架電時間"),
		model.StringCell("架電数"),
		model.StringCell("PR数"),
		model.StringCell("アポ数"),
		model.StringCell("定性報告"),
	}
}

// displayFinalStats prints the final test statistics.
func displayFinalStats(stats *Stats) {
	var rowsPerSecond float64
	if stats.Duration > 0 {
		rowsPerSecond = float64(stats.RowsSynced) / stats.Duration.Seconds()
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("rowsGenerated", stats.RowsGenerated),
		logger.Int("rowsScanned", stats.RowsScanned),
		logger.Int("rowsSynced", stats.RowsSynced),
		logger.Int("rowsFailed", stats.RowsFailed),
		logger.Int("batchesSeen", stats.BatchesSeen),
		logger.Int("statementsSeen", stats.StatementsSeen),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("rowsPerSecond", rowsPerSecond))
}
