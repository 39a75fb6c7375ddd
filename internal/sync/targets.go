package sync

import (
	"strings"
	"time"

	"github.com/snagasawa/kpisync/internal/adapters/turso"
	"github.com/snagasawa/kpisync/internal/domain/model"
	"github.com/snagasawa/kpisync/internal/domain/normalize"
)

// Mode selects how a target finds its delta.
type Mode int

const (
	// ModeOffset syncs rows past a persisted high-water row number.
	// Rows are plain INSERTs; the cursor advances unconditionally at cycle
	// end, so failed rows are not retried.
	ModeOffset Mode = iota
	// ModeWindow rescans the trailing date window every cycle and relies
	// on upsert keys for idempotency.
	ModeWindow
)

// Defaults shared across targets.
const (
	DefaultStartRow  = 2
	DefaultBatchSize = 50
	DefaultSyncDays  = 7

	defaultInterval = 5 * time.Minute
)

const (
	timestampLayout = "2006-01-02 15:04:05"

	// dataSource tags rows written by this service, distinguishing them
	// from the bulk-migrated backlog in the remote store.
	dataSource = "new"
)

// Target describes one sheet-to-table sync stream.
type Target struct {
	Name      string
	Sheet     string
	Mode      Mode
	StartRow  int
	Width     int
	BatchSize int
	Interval  time.Duration

	// Business-hour gate: cycles run only when the wall-clock hour is in
	// [HourFrom, HourTo).
	HourFrom int
	HourTo   int

	// Window mode: trailing days rescanned each cycle and the 0-based
	// column holding the row date. DateCol is -1 for targets without a
	// usable date column; those cannot be resynced by date.
	SyncDays int
	DateCol  int

	// Offset mode: persisted cursor key.
	CursorKey string

	// Build converts one padded row into its statement. ok=false means the
	// row is skipped (blank by the source convention).
	Build func(row []model.Cell, now time.Time) (stmt turso.Stmt, ok bool)
}

// PerformanceTarget is the activity-record stream: window mode, upserts
// keyed on (member, project, date).
func PerformanceTarget(sheet string) Target {
	return Target{
		Name:      "performance",
		Sheet:     sheet,
		Mode:      ModeWindow,
		StartRow:  DefaultStartRow,
		Width:     normalize.PerformanceColumns,
		BatchSize: DefaultBatchSize,
		Interval:  defaultInterval,
		HourFrom:  8,
		HourTo:    21,
		SyncDays:  DefaultSyncDays,
		DateCol:   2,
		Build:     performanceStmt,
	}
}

// SalesTarget is the sales-report stream: offset mode, append-only inserts.
func SalesTarget(sheet string) Target {
	return Target{
		Name:      "sales",
		Sheet:     sheet,
		Mode:      ModeOffset,
		StartRow:  DefaultStartRow,
		Width:     16,
		BatchSize: DefaultBatchSize,
		Interval:  defaultInterval,
		HourFrom:  7,
		HourTo:    20,
		DateCol:   -1,
		CursorKey: "turso_last_sync_row_sales",
		Build:     salesStmt,
	}
}

// ExternalIDTarget is the lead-contact stream: offset mode, append-only
// inserts.
func ExternalIDTarget(sheet string) Target {
	return Target{
		Name:      "external_id",
		Sheet:     sheet,
		Mode:      ModeOffset,
		StartRow:  DefaultStartRow,
		Width:     12,
		BatchSize: DefaultBatchSize,
		Interval:  defaultInterval,
		HourFrom:  7,
		HourTo:    20,
		DateCol:   -1,
		CursorKey: "turso_last_sync_row_external_id",
		Build:     externalIDStmt,
	}
}

func textOrNull(c model.Cell) turso.Arg {
	if c.IsEmpty() {
		return turso.Null()
	}
	return turso.Text(strings.TrimSpace(c.String()))
}

func textOrEmpty(c model.Cell) turso.Arg {
	if c.IsEmpty() {
		return turso.Text("")
	}
	return turso.Text(strings.TrimSpace(c.String()))
}

func performanceStmt(row []model.Cell, _ time.Time) (turso.Stmt, bool) {
	if normalize.IsBlankRow(row) {
		return turso.Stmt{}, false
	}

	dateArg := turso.Null()
	tsArg := turso.Null()
	if t, ok := normalize.Date(row[2]); ok {
		dateArg = turso.Text(t.Format(model.DateLayout))
		tsArg = turso.Text(t.Format(timestampLayout))
	}

	return turso.Stmt{
		SQL: `INSERT OR REPLACE INTO performance_rawdata
			(member_name, project_name, input_date, input_timestamp, call_hours, call_count, pr_count, appointment_count, qualitative_feedback, data_source, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, datetime('now'))`,
		Args: []turso.Arg{
			textOrEmpty(row[0]),
			textOrEmpty(row[1]),
			dateArg,
			tsArg,
			turso.Float(normalize.Number(row[3])),
			turso.Integer(int64(normalize.Int(row[4]))),
			turso.Integer(int64(normalize.Int(row[5]))),
			turso.Integer(int64(normalize.Int(row[6]))),
			textOrNull(row[7]),
			turso.Text(dataSource),
		},
	}, true
}

func salesStmt(row []model.Cell, _ time.Time) (turso.Stmt, bool) {
	if normalize.IsBlankRow(row) {
		return turso.Stmt{}, false
	}

	acqArg := turso.Null()
	if t, ok := normalize.Date(row[4]); ok {
		acqArg = turso.Text(t.Format(model.DateLayout))
	}
	meetArg := turso.Null()
	if t, ok := normalize.Date(row[5]); ok {
		meetArg = turso.Text(t.UTC().Format(time.RFC3339))
	}

	return turso.Stmt{
		SQL: `INSERT INTO sales_report_rawdata
			(sales_rep, sales_type, project_name, company_name, acquisition_date,
			 meeting_datetime, amount, department, position, contact_name,
			 phone_number, email, call_hearing, sales_category, reschedule_flag, deal_id, data_source)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		Args: []turso.Arg{
			textOrEmpty(row[0]),
			textOrNull(row[1]),
			textOrEmpty(row[2]),
			textOrEmpty(row[3]),
			acqArg,
			meetArg,
			turso.Integer(int64(normalize.Currency(row[6]))),
			textOrNull(row[7]),
			textOrNull(row[8]),
			textOrNull(row[9]),
			textOrNull(row[10]),
			textOrNull(row[11]),
			textOrNull(row[12]),
			textOrNull(row[13]),
			textOrNull(row[14]),
			textOrNull(row[15]),
			turso.Text(dataSource),
		},
	}, true
}

func externalIDStmt(row []model.Cell, _ time.Time) (turso.Stmt, bool) {
	if normalize.IsBlankRow(row) {
		return turso.Stmt{}, false
	}

	// Column order on the wire swaps the sheet's trailing pair: original_id
	// (column 11) is written before the raw timestamp (column 10).
	return turso.Stmt{
		SQL: `INSERT INTO external_id_rawdata
			(company_phone, company_name, department_name, department_phone, position,
			 contact_last_name, contact_first_name, project_name, lead_source, sales_rep,
			 original_id, timestamp)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		Args: []turso.Arg{
			textOrNull(row[0]),
			textOrNull(row[1]),
			textOrNull(row[2]),
			textOrNull(row[3]),
			textOrNull(row[4]),
			textOrNull(row[5]),
			textOrNull(row[6]),
			textOrNull(row[7]),
			textOrNull(row[8]),
			textOrNull(row[9]),
			textOrNull(row[11]),
			textOrNull(row[10]),
		},
	}, true
}
