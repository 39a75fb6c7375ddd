// Package testrows implements the row-sync exercise tool: it seeds an
// in-memory grid with generated activity rows, runs sync cycles against a
// local pipeline stub, and verifies the statements that come out.
package testrows

import "time"

// Config holds the tool configuration.
type Config struct {
	NumRows    int
	Members    int
	Projects   int
	Days       int
	BatchSize  int
	Sheet      string
	OutputFile string
	LogFile    string
	Verbose    bool
}

// Stats tracks run statistics.
type Stats struct {
	RowsGenerated  int
	RowsScanned    int
	RowsSynced     int
	RowsFailed     int
	StatementsSeen int
	BatchesSeen    int

	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
}
