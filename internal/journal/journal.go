// Package journal records what happened to every row of a run in a SQLite
// database next to the generated files, so failed or skipped rows can be
// inspected after the tool has returned.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// FileName is the journal database name inside an output directory
const FileName = "mcq_journal.db"

// Run describes one tool invocation
type Run struct {
	ID         string
	InputPath  string
	OutputPath string
	Rows       int
}

// Event is one state change of one row
type Event struct {
	RunID    string
	Row      int
	State    string
	Text     string
	Duration float64
	Err      string
	At       time.Time
}

// Summary is the outcome of a run
type Summary struct {
	Processed int
	Skipped   int
	Duration  float64
	Result    string
}

// Recorder receives the progress of runs
type Recorder interface {
	StartRun(ctx context.Context, run Run) error
	RecordRow(ctx context.Context, ev Event) error
	FinishRun(ctx context.Context, runID string, summary Summary) error
	Close() error
}

type nopRecorder struct{}

// Nop returns a Recorder that discards everything
func Nop() Recorder { return nopRecorder{} }

func (nopRecorder) StartRun(context.Context, Run) error { return nil }
func (nopRecorder) RecordRow(context.Context, Event) error { return nil }
func (nopRecorder) FinishRun(context.Context, string, Summary) error { return nil }
func (nopRecorder) Close() error { return nil }

// SQLite stores runs and row events in a SQLite database
type SQLite struct {
	db *sql.DB
}

// Open opens or creates the journal database at path
func Open(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	j := &SQLite{db: db}
	if err := j.createTables(); err != nil {
		db.Close()
		return nil, err
	}
	return j, nil
}

func (j *SQLite) createTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id text PRIMARY KEY,
			input_path text NOT NULL,
			output_path text NOT NULL,
			rows integer NOT NULL,
			started_at text NOT NULL,
			finished_at text,
			processed integer,
			skipped integer,
			duration real,
			result text
		)`,
		`CREATE TABLE IF NOT EXISTS row_events (
			id integer PRIMARY KEY AUTOINCREMENT,
			run_id text NOT NULL,
			row_index integer NOT NULL,
			state text NOT NULL,
			text text NOT NULL,
			duration real NOT NULL,
			error text NOT NULL,
			at text NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS ix_row_events_run ON row_events (run_id, row_index)`,
	}

	for _, query := range queries {
		if _, err := j.db.Exec(query); err != nil {
			return fmt.Errorf("failed to create journal table: %w", err)
		}
	}
	return nil
}

// StartRun inserts a run
func (j *SQLite) StartRun(ctx context.Context, run Run) error {
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO runs (id, input_path, output_path, rows, started_at) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.InputPath, run.OutputPath, run.Rows, now())
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}

// RecordRow appends a row event
func (j *SQLite) RecordRow(ctx context.Context, ev Event) error {
	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO row_events (run_id, row_index, state, text, duration, error, at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ev.RunID, ev.Row, ev.State, ev.Text, ev.Duration, ev.Err, at.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to record row %d: %w", ev.Row, err)
	}
	return nil
}

// FinishRun stores the outcome of a run
func (j *SQLite) FinishRun(ctx context.Context, runID string, s Summary) error {
	_, err := j.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, processed = ?, skipped = ?, duration = ?, result = ? WHERE id = ?`,
		now(), s.Processed, s.Skipped, s.Duration, s.Result, runID)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	return nil
}

// Events returns the events of a run in the order they were recorded
func (j *SQLite) Events(ctx context.Context, runID string) ([]Event, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT run_id, row_index, state, text, duration, error, at FROM row_events WHERE run_id = ? ORDER BY id`,
		runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			ev Event
			at string
		)
		if err := rows.Scan(&ev.RunID, &ev.Row, &ev.State, &ev.Text, &ev.Duration, &ev.Err, &at); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		ev.At, _ = time.Parse(time.RFC3339Nano, at)
		events = append(events, ev)
	}
	return events, rows.Err()
}

// Summary returns the stored outcome of a run
func (j *SQLite) Summary(ctx context.Context, runID string) (Summary, error) {
	var (
		s         Summary
		processed sql.NullInt64
		skipped   sql.NullInt64
		duration  sql.NullFloat64
		result    sql.NullString
	)
	err := j.db.QueryRowContext(ctx,
		`SELECT processed, skipped, duration, result FROM runs WHERE id = ?`, runID).
		Scan(&processed, &skipped, &duration, &result)
	if err != nil {
		return s, fmt.Errorf("failed to read run %s: %w", runID, err)
	}
	s.Processed = int(processed.Int64)
	s.Skipped = int(skipped.Int64)
	s.Duration = duration.Float64
	s.Result = result.String
	return s, nil
}

// Close closes the database
func (j *SQLite) Close() error {
	return j.db.Close()
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
