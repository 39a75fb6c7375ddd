// Package state persists local durable state: sync cursors for offset-mode
// targets and the per-project KPI target settings. Backed by an embedded
// SQLite database so cursor advances survive restarts.
package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/snagasawa/kpisync/internal/domain/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS sync_cursors (
	key        TEXT PRIMARY KEY,
	row        INTEGER NOT NULL,
	updated_at TEXT NOT NULL DEFAULT (datetime('now'))
);
CREATE TABLE IF NOT EXISTS project_targets (
	project                TEXT PRIMARY KEY,
	call_to_pr_target      REAL NOT NULL DEFAULT 0,
	pr_to_appo_target      REAL NOT NULL DEFAULT 0,
	call_to_appo_target    REAL NOT NULL DEFAULT 0,
	calls_per_hour_target  REAL NOT NULL DEFAULT 0
);
`

// Store is the SQLite-backed state store.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the state database at path and applies
// the schema. ":memory:" is accepted for tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("open state db: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply pragma: %w", err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Cursor returns the stored high-water row for a cursor key. A key never
// written before reports 0, meaning sync starts from the beginning.
func (s *Store) Cursor(ctx context.Context, key string) (int64, error) {
	var row int64
	err := s.db.QueryRowContext(ctx,
		`SELECT row FROM sync_cursors WHERE key = ?`, key).Scan(&row)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read cursor %s: %w", key, err)
	}
	return row, nil
}

// SetCursor stores the high-water row for a cursor key, overwriting any
// previous value.
func (s *Store) SetCursor(ctx context.Context, key string, row int64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_cursors (key, row, updated_at)
		VALUES (?, ?, datetime('now'))
		ON CONFLICT(key) DO UPDATE SET
			row = excluded.row,
			updated_at = excluded.updated_at`,
		key, row)
	if err != nil {
		return fmt.Errorf("write cursor %s: %w", key, err)
	}
	return nil
}

// ResetCursor removes a cursor key so the next cycle starts from scratch.
func (s *Store) ResetCursor(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM sync_cursors WHERE key = ?`, key); err != nil {
		return fmt.Errorf("reset cursor %s: %w", key, err)
	}
	return nil
}

// Settings returns all stored per-project KPI targets ordered by project.
func (s *Store) Settings(ctx context.Context) ([]model.ProjectTarget, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT project, call_to_pr_target, pr_to_appo_target,
		       call_to_appo_target, calls_per_hour_target
		FROM project_targets ORDER BY project`)
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}
	defer rows.Close()

	out := []model.ProjectTarget{}
	for rows.Next() {
		var t model.ProjectTarget
		if err := rows.Scan(&t.Project, &t.CallToPRTarget, &t.PRToAppoTarget,
			&t.CallToAppoTarget, &t.CallsPerHourTarget); err != nil {
			return nil, fmt.Errorf("scan settings: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}
	return out, nil
}

// SaveSettings replaces the whole target set atomically, matching the
// source-of-record behavior of rewriting the settings sheet in full.
func (s *Store) SaveSettings(ctx context.Context, targets []model.ProjectTarget) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM project_targets`); err != nil {
		return fmt.Errorf("clear settings: %w", err)
	}
	for _, t := range targets {
		if t.Project == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO project_targets (project, call_to_pr_target,
				pr_to_appo_target, call_to_appo_target, calls_per_hour_target)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(project) DO UPDATE SET
				call_to_pr_target = excluded.call_to_pr_target,
				pr_to_appo_target = excluded.pr_to_appo_target,
				call_to_appo_target = excluded.call_to_appo_target,
				calls_per_hour_target = excluded.calls_per_hour_target`,
			t.Project, t.CallToPRTarget, t.PRToAppoTarget,
			t.CallToAppoTarget, t.CallsPerHourTarget); err != nil {
			return fmt.Errorf("write setting %s: %w", t.Project, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}
