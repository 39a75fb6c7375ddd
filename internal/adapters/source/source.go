// Package source provides read access to the tabular activity source as a
// 2-D value grid addressed by sheet name.
package source

import (
	"context"

	"github.com/snagasawa/kpisync/internal/domain/model"
)

// Grid reads whole sheets from one activity source. Snapshot returns a
// stable copy taken at call time, so last-row probing and row reads within
// one sync cycle observe the same data.
type Grid interface {
	Snapshot(ctx context.Context, sheet string) (*Sheet, error)
}

// Sheet is an immutable snapshot of one sheet's values. Row numbering is
// 1-based to match the source's addressing.
type Sheet struct {
	name string
	rows [][]model.Cell
}

// NewSheet wraps a raw value grid. The caller hands over ownership of rows.
func NewSheet(name string, rows [][]model.Cell) *Sheet {
	return &Sheet{name: name, rows: rows}
}

// Name returns the sheet name the snapshot was taken from.
func (s *Sheet) Name() string { return s.name }

// LastRow returns the 1-based index of the last row, 0 for an empty sheet.
func (s *Sheet) LastRow() int { return len(s.rows) }

// Row returns the row at the 1-based index, padded or truncated to width
// columns. Out-of-range indexes return an all-empty row.
func (s *Sheet) Row(n, width int) []model.Cell {
	out := make([]model.Cell, width)
	for i := range out {
		out[i] = model.EmptyCell()
	}
	if n < 1 || n > len(s.rows) {
		return out
	}
	copy(out, s.rows[n-1])
	return out
}

// Rows returns rows from..to inclusive (1-based), each padded to width.
// Bounds are clamped to the sheet; an empty range yields no rows.
func (s *Sheet) Rows(from, to, width int) [][]model.Cell {
	if from < 1 {
		from = 1
	}
	if to > len(s.rows) {
		to = len(s.rows)
	}
	if to < from {
		return nil
	}
	out := make([][]model.Cell, 0, to-from+1)
	for n := from; n <= to; n++ {
		out = append(out, s.Row(n, width))
	}
	return out
}
