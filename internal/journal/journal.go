// Package journal keeps a SQLite log of crawl runs and the outcome of every
// (location, category) pair, so a run can be reviewed after the fact.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/go-scripts/providercrawl/internal/types"
)

var ErrNotFound = errors.New("journal not found")

// Journal stores runs and pair outcomes
type Journal struct {
	db   *sql.DB
	path string

	now func() time.Time
}

// Options configures how the journal is opened
type Options struct {
	// CreateIfNotExists creates the directory and database file when missing.
	CreateIfNotExists bool

	// EnableWAL switches the database to write-ahead logging.
	EnableWAL bool
}

// DefaultOptions returns the options used by the crawl command
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Run is one crawl as seen from the journal
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time // zero while running or after a crash
	Locations  int
	Categories int
	Records    int
	Error      string

	Completed int
	Skipped   int
	Errored   int
}

// Pair is one stored pair outcome
type Pair struct {
	Location  string
	Category  string
	Outcome   types.Outcome
	Attempted int
	Succeeded int
	Error     string
	At        time.Time
}

// Open opens or creates the journal database at path
func Open(path string, opts Options) (*Journal, error) {
	if !opts.CreateIfNotExists {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check journal path: %w", err)
		}
	} else if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	dsn := path + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = path + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	j := &Journal{db: db, path: path, now: time.Now}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := j.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return j, nil
}

// Path returns the database file path
func (j *Journal) Path() string {
	return j.path
}

// Close closes the database
func (j *Journal) Close() error {
	return j.db.Close()
}

func (j *Journal) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		started_at TEXT NOT NULL,
		finished_at TEXT,
		locations INTEGER NOT NULL DEFAULT 0,
		categories INTEGER NOT NULL DEFAULT 0,
		records INTEGER NOT NULL DEFAULT 0,
		error TEXT
	);

	CREATE TABLE IF NOT EXISTS pair_outcomes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES runs(id),
		location TEXT NOT NULL,
		category TEXT NOT NULL,
		outcome TEXT NOT NULL,
		attempted INTEGER NOT NULL DEFAULT 0,
		succeeded INTEGER NOT NULL DEFAULT 0,
		error TEXT,
		recorded_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_pairs_run ON pair_outcomes(run_id);
	`
	_, err := j.db.ExecContext(context.Background(), schema)
	return err
}

func (j *Journal) timestamp() string {
	return j.now().UTC().Format(time.RFC3339Nano)
}

// StartRun inserts a new run and returns its ID
func (j *Journal) StartRun(ctx context.Context, locations, categories int) (string, error) {
	id := uuid.NewString()
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, locations, categories) VALUES (?, ?, ?, ?)`,
		id, j.timestamp(), locations, categories)
	if err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}
	return id, nil
}

// RecordPair stores the outcome of one pair
func (j *Journal) RecordPair(ctx context.Context, runID string, r types.PairResult) error {
	var errText sql.NullString
	if r.Err != nil {
		errText = sql.NullString{String: r.Err.Error(), Valid: true}
	}
	_, err := j.db.ExecContext(ctx, `
	INSERT INTO pair_outcomes (run_id, location, category, outcome, attempted, succeeded, error, recorded_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, r.Location.String(), r.Category, string(r.Outcome), r.Attempted, r.Succeeded, errText, j.timestamp())
	if err != nil {
		return fmt.Errorf("failed to insert pair outcome: %w", err)
	}
	return nil
}

// FinishRun marks a run as finished with the number of records saved
func (j *Journal) FinishRun(ctx context.Context, runID string, records int, runErr error) error {
	var errText sql.NullString
	if runErr != nil {
		errText = sql.NullString{String: runErr.Error(), Valid: true}
	}
	res, err := j.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, records = ?, error = ? WHERE id = ?`,
		j.timestamp(), records, errText, runID)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: run %s", ErrNotFound, runID)
	}
	return nil
}

// RecentRuns returns up to limit runs, newest first, with pair counts
func (j *Journal) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	rows, err := j.db.QueryContext(ctx, `
	SELECT r.id, r.started_at, COALESCE(r.finished_at, ''), r.locations, r.categories, r.records,
		COALESCE(r.error, ''),
		COALESCE(SUM(CASE WHEN p.outcome = 'completed' THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN p.outcome LIKE 'skipped%' THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN p.outcome = 'errored' THEN 1 ELSE 0 END), 0)
	FROM runs r
	LEFT JOIN pair_outcomes p ON p.run_id = r.id
	GROUP BY r.seq
	ORDER BY r.seq DESC
	LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r                 Run
			started, finished string
		)
		if err := rows.Scan(&r.ID, &started, &finished, &r.Locations, &r.Categories, &r.Records,
			&r.Error, &r.Completed, &r.Skipped, &r.Errored); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if r.StartedAt, err = parseTime(started); err != nil {
			return nil, err
		}
		if r.FinishedAt, err = parseTime(finished); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Pairs returns the pair outcomes of a run in the order they were recorded
func (j *Journal) Pairs(ctx context.Context, runID string) ([]Pair, error) {
	rows, err := j.db.QueryContext(ctx, `
	SELECT location, category, outcome, attempted, succeeded, COALESCE(error, ''), recorded_at
	FROM pair_outcomes WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query pair outcomes: %w", err)
	}
	defer rows.Close()

	var pairs []Pair
	for rows.Next() {
		var (
			p       Pair
			outcome string
			at      string
		)
		if err := rows.Scan(&p.Location, &p.Category, &outcome, &p.Attempted, &p.Succeeded, &p.Error, &at); err != nil {
			return nil, fmt.Errorf("failed to scan pair outcome: %w", err)
		}
		p.Outcome = types.Outcome(outcome)
		if p.At, err = parseTime(at); err != nil {
			return nil, err
		}
		pairs = append(pairs, p)
	}
	return pairs, rows.Err()
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse timestamp %q: %w", s, err)
	}
	return t, nil
}

// RunRecorder records pair outcomes against one run
type RunRecorder struct {
	journal *Journal
	runID   string
}

// Recorder returns a RunRecorder for runID
func (j *Journal) Recorder(runID string) *RunRecorder {
	return &RunRecorder{journal: j, runID: runID}
}

// RecordPair stores r under the recorder's run
func (r *RunRecorder) RecordPair(ctx context.Context, res types.PairResult) error {
	return r.journal.RecordPair(ctx, r.runID, res)
}
