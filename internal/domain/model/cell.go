package model

import (
	"strconv"
	"strings"
	"time"
)

// CellKind discriminates the scalar types a source cell can hold.
type CellKind int

// Cell kinds. Position in the row defines meaning; the kind only tells the
// parsers which representation the source handed over.
const (
	CellEmpty CellKind = iota
	CellString
	CellNumber
	CellTime
)

// Cell is a read-only scalar value at a fixed column position of a raw
// source row.
type Cell struct {
	Kind CellKind
	Str  string
	Num  float64
	Time time.Time
}

// EmptyCell returns the empty cell.
func EmptyCell() Cell { return Cell{Kind: CellEmpty} }

// StringCell wraps a string value.
func StringCell(s string) Cell { return Cell{Kind: CellString, Str: s} }

// NumberCell wraps a numeric value.
func NumberCell(f float64) Cell { return Cell{Kind: CellNumber, Num: f} }

// TimeCell wraps a date/time value.
func TimeCell(t time.Time) Cell { return Cell{Kind: CellTime, Time: t} }

// IsEmpty reports whether the cell holds no usable value. A string cell
// containing only whitespace counts as empty, matching the source's blank
// row convention.
func (c Cell) IsEmpty() bool {
	switch c.Kind {
	case CellEmpty:
		return true
	case CellString:
		return strings.TrimSpace(c.Str) == ""
	default:
		return false
	}
}

// String renders the cell the way the source would display it.
func (c Cell) String() string {
	switch c.Kind {
	case CellString:
		return c.Str
	case CellNumber:
		return strconv.FormatFloat(c.Num, 'f', -1, 64)
	case CellTime:
		return c.Time.Format(time.RFC3339)
	default:
		return ""
	}
}
