package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/snagasawa/kpisync/internal/testrows"
)

// Default configuration constants.
const (
	defaultNumRows     = 1000
	defaultMembers     = 20
	defaultProjects    = 5
	defaultDays        = 7
	defaultBatchSize   = 50
	defaultTestTimeout = 10 * time.Minute
)

func main() {
	var (
		numRows    = flag.Int("rows", defaultNumRows, "Number of activity rows to generate")
		members    = flag.Int("members", defaultMembers, "Number of distinct staff members")
		projects   = flag.Int("projects", defaultProjects, "Number of distinct projects")
		days       = flag.Int("days", defaultDays, "Date spread of generated rows in trailing days")
		batchSize  = flag.Int("batch", defaultBatchSize, "Statement batch size")
		outputFile = flag.String("output", "", "Output file for generated rows (default: generated_rows_TIMESTAMP.json)")
		logFile    = flag.String("log", "", "Log file for test output (default: test_log_TIMESTAMP.log)")
		verbose    = flag.Bool("verbose", false, "Enable verbose logging")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		testrows.ShowHelp()
		return
	}

	// Setup logging
	if err := testrows.SetupLogging(*logFile); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return
	}

	// Create context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), defaultTestTimeout)
	defer cancel()

	// Create test configuration
	config := &testrows.Config{
		NumRows:    *numRows,
		Members:    *members,
		Projects:   *projects,
		Days:       *days,
		BatchSize:  *batchSize,
		Sheet:      "実績rawdata",
		OutputFile: *outputFile,
		LogFile:    *logFile,
		Verbose:    *verbose,
	}

	// Run the test
	if err := testrows.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Test failed: " + err.Error() + "\n")
		return
	}
}
