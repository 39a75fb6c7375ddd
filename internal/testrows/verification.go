package testrows

import (
	"context"
	"fmt"

	enginesync "github.com/snagasawa/kpisync/internal/sync"
	"github.com/snagasawa/kpisync/pkg/logger"
)

// verifyResults checks the engine reports against what the pipeline stub saw.
func verifyResults(ctx context.Context, config *Config, first, second enginesync.Report, stats *Stats) error {
	logger.Get().Info(ctx, "verifying results")

	if first.Skipped {
		return fmt.Errorf("first cycle was skipped: %s", first.SkipReason)
	}
	if first.Failed > 0 {
		return fmt.Errorf("first cycle reported %d failed rows", first.Failed)
	}
	if first.Synced == 0 {
		return fmt.Errorf("first cycle synced no rows out of %d generated", stats.RowsGenerated)
	}

	// Window mode rescans the same trailing days, so the second cycle must
	// see the same rows again.
	if second.Synced != first.Synced {
		return fmt.Errorf("second cycle synced %d rows, first synced %d", second.Synced, first.Synced)
	}

	wantStatements := first.Synced + second.Synced
	if stats.StatementsSeen != wantStatements {
		return fmt.Errorf("pipeline saw %d statements, want %d", stats.StatementsSeen, wantStatements)
	}

	wantBatches := batchesFor(first.Synced, config.BatchSize) + batchesFor(second.Synced, config.BatchSize)
	if stats.BatchesSeen != wantBatches {
		return fmt.Errorf("pipeline saw %d batches, want %d", stats.BatchesSeen, wantBatches)
	}

	logger.Get().Info(ctx, "verification passed",
		logger.Int("synced", first.Synced),
		logger.Int("batches", stats.BatchesSeen))
	return nil
}

func batchesFor(rows, batchSize int) int {
	if rows == 0 || batchSize <= 0 {
		return 0
	}
	return (rows + batchSize - 1) / batchSize
}
