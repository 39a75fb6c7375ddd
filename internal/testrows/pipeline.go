package testrows

import (
	"context"
	"sync"

	"github.com/snagasawa/kpisync/internal/adapters/turso"
)

// stubPipeline stands in for the remote store: it accepts statement batches
// in-process and records what it saw.
type stubPipeline struct {
	mu         sync.Mutex
	batches    int
	statements int
	sql        map[string]int
}

func newStubPipeline() *stubPipeline {
	return &stubPipeline{sql: make(map[string]int)}
}

func (p *stubPipeline) Exec(_ context.Context, stmts []turso.Stmt) ([]turso.StmtResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.batches++
	p.statements += len(stmts)

	results := make([]turso.StmtResult, len(stmts))
	for i, s := range stmts {
		p.sql[s.SQL]++
		results[i] = turso.StmtResult{OK: true}
	}
	return results, nil
}

func (p *stubPipeline) snapshot() (batches, statements int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.batches, p.statements
}

// memCursors is a throwaway in-memory cursor store.
type memCursors struct {
	mu   sync.Mutex
	rows map[string]int64
}

func newMemCursors() *memCursors {
	return &memCursors{rows: make(map[string]int64)}
}

func (c *memCursors) Cursor(_ context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rows[key], nil
}

func (c *memCursors) SetCursor(_ context.Context, key string, row int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rows[key] = row
	return nil
}
