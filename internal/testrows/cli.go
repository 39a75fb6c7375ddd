package testrows

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/snagasawa/kpisync/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging configures logging to both console and file.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string) error {
	// Initialize the logger first
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "test_log_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	multiWriter := io.MultiWriter(os.Stdout, file)
	log.SetOutput(multiWriter)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return nil
}

// ShowHelp prints usage information for the row sync exercise tool.
func ShowHelp() {
	os.Stdout.WriteString(`KPI Sync Row Test Tool
======================

Seeds an in-memory activity sheet with generated rows and drives the sync
engine against a local pipeline stub, verifying the produced statements.

Usage:
  go run cmd/test-rows/main.go [options]

Options:
  -rows int
        Number of activity rows to generate (default 1000)
  -members int
        Number of distinct staff members (default 20)
  -projects int
        Number of distinct projects (default 5)
  -days int
        Date spread of generated rows in trailing days (default 7)
  -batch int
        Statement batch size (default 50)
  -output string
        Output file for generated rows (default: generated_rows_TIMESTAMP.json)
  -log string
        Log file for test output (default: test_log_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Exercise with default settings
  go run cmd/test-rows/main.go

  # Exercise with custom parameters
  go run cmd/test-rows/main.go -rows 50000 -members 100 -batch 25

  # Exercise with a custom log file
  go run cmd/test-rows/main.go -rows 10000 -log my_test.log
`)
}
