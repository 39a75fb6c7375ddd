// Package normalize centralizes the permissive cell parsers that convert
// heterogeneous source values (numbers-as-strings, localized percentages,
// currency strings, free-form dates) into canonical typed values.
//
// These are the only permissive parse paths in the system: malformed input
// degrades to zero values or an absent date instead of an error, so a sync
// cycle completes with degraded data rather than failing outright. Entirely
// blank rows are the exception; they are skipped, not defaulted.
package normalize

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/snagasawa/kpisync/internal/domain/model"
)

// PerformanceColumns is the fixed arity of a performance raw row:
// member, project, date, call hours, calls, PR, appointments, feedback.
const PerformanceColumns = 8

var (
	firstNumberRe = regexp.MustCompile(`(\d+)`)
	totalDaysRe   = regexp.MustCompile(`全(\d+)`)
)

// dateLayouts are tried in order when a date arrives as text.
var dateLayouts = []string{
	model.DateLayout,
	"2006/01/02",
	"2006-01-02 15:04:05",
	"2006/01/02 15:04:05",
	time.RFC3339,
}

// Number parses a numeric cell, stripping thousands separators from text
// values. Malformed input yields 0.
func Number(c model.Cell) float64 {
	switch c.Kind {
	case model.CellNumber:
		return c.Num
	case model.CellString:
		s := strings.ReplaceAll(strings.TrimSpace(c.Str), ",", "")
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

// Int parses an integer count cell. Fractional values truncate toward zero.
func Int(c model.Cell) int {
	return int(Number(c))
}

// Percent parses a percentage cell. Native numbers are treated as ratios
// (0.47 means 47%) and scaled to two decimals; text values like "47.5%" are
// read at face value.
func Percent(c model.Cell) float64 {
	switch c.Kind {
	case model.CellNumber:
		return math.Round(c.Num*10000) / 100
	case model.CellString:
		s := strings.TrimSpace(strings.ReplaceAll(c.Str, "%", ""))
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

// Currency parses a yen amount cell, stripping currency markers and
// thousands separators. Malformed input yields 0.
func Currency(c model.Cell) int64 {
	switch c.Kind {
	case model.CellNumber:
		return int64(c.Num)
	case model.CellString:
		s := strings.TrimSpace(c.Str)
		s = strings.ReplaceAll(s, "¥", "")
		s = strings.ReplaceAll(s, ",", "")
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		return int64(f)
	default:
		return 0
	}
}

// Date parses a date/time cell. The second return is false when the cell is
// empty or unparseable; callers treat that as an absent date, never an error.
func Date(c model.Cell) (time.Time, bool) {
	switch c.Kind {
	case model.CellTime:
		return c.Time, true
	case model.CellString:
		s := strings.TrimSpace(c.Str)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
		return time.Time{}, false
	default:
		return time.Time{}, false
	}
}

// DateOnly truncates a parsed date to midnight, the calendar-date form
// carried on records and formatted into group keys.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// ExtractNumber pulls the first run of digits out of a text cell, e.g.
// elapsed days out of a progress header. Returns 0 when none is present.
func ExtractNumber(c model.Cell) int {
	m := firstNumberRe.FindStringSubmatch(c.String())
	if m == nil {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}

// ExtractTotalDays pulls the month-length figure out of a header cell of
// the form "12日目/全30日". Returns 0 when the marker is absent.
func ExtractTotalDays(c model.Cell) int {
	m := totalDaysRe.FindStringSubmatch(c.String())
	if m == nil {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}

// Member strips mention-style decoration from a member cell: "@" markers are
// removed and anything from the first "/" on is dropped, then the result is
// trimmed. "@田中/A" becomes "田中".
func Member(c model.Cell) string {
	s := strings.ReplaceAll(c.String(), "@", "")
	if i := strings.Index(s, "/"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

// IsBlankRow reports whether a raw row is blank by the source convention:
// neither a member (column 0) nor a project (column 1) is present.
func IsBlankRow(row []model.Cell) bool {
	if len(row) == 0 {
		return true
	}
	if !row[0].IsEmpty() {
		return false
	}
	return len(row) < 2 || row[1].IsEmpty()
}

// PerformanceRecord converts an 8-column performance raw row into the
// canonical record. It returns ErrRowShape when the arity is wrong and
// ErrBlankRow for rows the source considers blank; cell-level problems
// degrade to zero values instead of failing the row.
func PerformanceRecord(row []model.Cell) (model.Record, error) {
	if len(row) != PerformanceColumns {
		return model.Record{}, ErrRowShape
	}
	if IsBlankRow(row) {
		return model.Record{}, ErrBlankRow
	}

	rec := model.Record{
		Member:           Member(row[0]),
		Project:          strings.TrimSpace(row[1].String()),
		CallHours:        Number(row[3]),
		CallCount:        Int(row[4]),
		PRCount:          Int(row[5]),
		AppointmentCount: Int(row[6]),
		Feedback:         strings.TrimSpace(row[7].String()),
	}
	if ts, ok := Date(row[2]); ok {
		rec.Timestamp = ts
		rec.Date = DateOnly(ts)
	}
	return rec, nil
}
