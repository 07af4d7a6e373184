// Package store provides SQLite-based persistence for advisor runs.
// A paused run survives the process so a later invocation can finish or
// abort it; finished runs stay queryable as history.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mcatool/mca/internal/models"
)

// Store represents the SQLite database store
type Store struct {
	db *sql.DB
}

// New creates a new store connection
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// Initialize creates the database schema
func (s *Store) Initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		state TEXT NOT NULL,
		base_branch TEXT NOT NULL,
		incoming_branch TEXT NOT NULL,
		merge_base TEXT,
		plan_json JSON,
		result_json JSON,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_state ON runs(state);

	-- Config (schema version, etc.)
	CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value TEXT
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return s.SetValue("schema_version", "1")
}

// GetValue reads one kv entry; missing keys return "".
func (s *Store) GetValue(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// SetValue upserts one kv entry.
func (s *Store) SetValue(key, value string) error {
	_, err := s.db.Exec(`INSERT INTO kv (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}

// SaveRun upserts one run snapshot.
func (s *Store) SaveRun(run *models.Run) error {
	planJSON, err := marshalNullable(run.Plan)
	if err != nil {
		return fmt.Errorf("failed to marshal plan: %w", err)
	}
	resultJSON, err := marshalNullable(run.Result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	_, err = s.db.Exec(`INSERT INTO runs
		(id, kind, state, base_branch, incoming_branch, merge_base, plan_json, result_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			state = excluded.state,
			plan_json = excluded.plan_json,
			result_json = excluded.result_json,
			updated_at = excluded.updated_at`,
		run.ID, string(run.Kind), string(run.State),
		run.Base.Name, run.Incoming.Name, run.MergeBase,
		planJSON, resultJSON,
		run.CreatedAt.Format(time.RFC3339Nano), run.UpdatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}

// GetRun loads one run by ID.
func (s *Store) GetRun(id string) (*models.Run, error) {
	row := s.db.QueryRow(`SELECT id, kind, state, base_branch, incoming_branch, merge_base,
		plan_json, result_json, created_at, updated_at FROM runs WHERE id = ?`, id)
	return scanRun(row)
}

// ActiveRun returns the newest run still awaiting a decision (paused or
// staged), or nil when none is open.
func (s *Store) ActiveRun() (*models.Run, error) {
	row := s.db.QueryRow(`SELECT id, kind, state, base_branch, incoming_branch, merge_base,
		plan_json, result_json, created_at, updated_at FROM runs
		WHERE state IN (?, ?) ORDER BY updated_at DESC LIMIT 1`,
		string(models.StatePaused), string(models.StateStaged))
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return run, err
}

// ListRuns returns recent runs, newest first.
func (s *Store) ListRuns(limit int) ([]*models.Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(`SELECT id, kind, state, base_branch, incoming_branch, merge_base,
		plan_json, result_json, created_at, updated_at FROM runs
		ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// scanner covers both *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*models.Run, error) {
	var run models.Run
	var kind, state string
	var planJSON, resultJSON sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(&run.ID, &kind, &state, &run.Base.Name, &run.Incoming.Name, &run.MergeBase,
		&planJSON, &resultJSON, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	run.Kind = models.AttemptKind(kind)
	run.State = models.ExecState(state)

	if planJSON.Valid && planJSON.String != "" {
		if err := json.Unmarshal([]byte(planJSON.String), &run.Plan); err != nil {
			return nil, fmt.Errorf("failed to unmarshal plan: %w", err)
		}
	}
	if resultJSON.Valid && resultJSON.String != "" {
		if err := json.Unmarshal([]byte(resultJSON.String), &run.Result); err != nil {
			return nil, fmt.Errorf("failed to unmarshal result: %w", err)
		}
	}
	if run.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if run.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return &run, nil
}

func marshalNullable(v any) (any, error) {
	switch value := v.(type) {
	case *models.ResolutionPlan:
		if value == nil {
			return nil, nil
		}
	case *models.ExecutionResult:
		if value == nil {
			return nil, nil
		}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}
