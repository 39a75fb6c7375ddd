package source

import (
	"context"
	"fmt"
	"sync"

	"github.com/snagasawa/kpisync/internal/domain/model"
)

// MemGrid is an in-memory Grid used by tests and the row-seeding tool.
// Safe for concurrent use.
type MemGrid struct {
	mu     sync.RWMutex
	sheets map[string][][]model.Cell
}

// NewMemGrid creates an empty in-memory grid.
func NewMemGrid() *MemGrid {
	return &MemGrid{sheets: make(map[string][][]model.Cell)}
}

// SetSheet replaces a sheet's contents.
func (g *MemGrid) SetSheet(name string, rows [][]model.Cell) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sheets[name] = rows
}

// Append adds a row to the end of a sheet, creating the sheet if needed.
func (g *MemGrid) Append(name string, row []model.Cell) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sheets[name] = append(g.sheets[name], row)
}

// Snapshot returns a copy of the sheet at call time.
func (g *MemGrid) Snapshot(_ context.Context, sheet string) (*Sheet, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	rows, ok := g.sheets[sheet]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSheetNotFound, sheet)
	}
	cp := make([][]model.Cell, len(rows))
	copy(cp, rows)
	return NewSheet(sheet, cp), nil
}
