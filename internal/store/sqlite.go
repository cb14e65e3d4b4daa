// Package store keeps a local history of fetch runs in SQLite, so repeated
// invocations can be audited (what was fetched, when, how complete).
package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// RunStatus is the lifecycle state of one fetch run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusComplete  RunStatus = "complete"
	RunStatusPartial   RunStatus = "partial" // finished, but some subareas failed
	RunStatusFailed    RunStatus = "failed"
	RunStatusCancelled RunStatus = "cancelled"
)

// Run is one recorded fetch.
type Run struct {
	ID           string
	LocationType string
	Region       string
	Status       RunStatus
	CacheHit     bool
	Elements     int
	Failures     int
	Error        string
	StartedAt    time.Time
	FinishedAt   *time.Time
}

// Store wraps the SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the history database and applies pragmas suited
// to a single-writer CLI.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "store: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "store: exec %s", pragma)
		}
	}
	return &Store{db: db}, nil
}

const migration = `
CREATE TABLE IF NOT EXISTS runs (
	id            TEXT PRIMARY KEY,
	location_type TEXT NOT NULL,
	region        TEXT NOT NULL,
	status        TEXT NOT NULL DEFAULT 'running',
	cache_hit     INTEGER NOT NULL DEFAULT 0,
	elements      INTEGER NOT NULL DEFAULT 0,
	failures      INTEGER NOT NULL DEFAULT 0,
	error         TEXT NOT NULL DEFAULT '',
	started_at    DATETIME NOT NULL,
	finished_at   DATETIME
);

CREATE INDEX IF NOT EXISTS idx_runs_region_type ON runs(region, location_type);
CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
`

// Migrate creates the schema.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, migration)
	return eris.Wrap(err, "store: migrate")
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// StartRun records the beginning of a fetch and returns its run row.
func (s *Store) StartRun(ctx context.Context, locationType, region string) (*Run, error) {
	run := &Run{
		ID:           uuid.New().String(),
		LocationType: locationType,
		Region:       region,
		Status:       RunStatusRunning,
		StartedAt:    time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, location_type, region, status, started_at) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.LocationType, run.Region, string(run.Status), run.StartedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "store: insert run")
	}
	return run, nil
}

// FinishRun records the outcome of a run.
func (s *Store) FinishRun(ctx context.Context, runID string, status RunStatus, cacheHit bool, elements, failures int, errText string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, cache_hit = ?, elements = ?, failures = ?, error = ?, finished_at = ? WHERE id = ?`,
		string(status), boolToInt(cacheHit), elements, failures, errText, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "store: finish run %s", runID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "store: rows affected")
	}
	if n == 0 {
		return eris.Errorf("store: run %s not found", runID)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, location_type, region, status, cache_hit, elements, failures, error, started_at, finished_at
		 FROM runs ORDER BY started_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "store: list runs")
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var status string
		var cacheHit int
		var finished sql.NullTime
		if err := rows.Scan(&r.ID, &r.LocationType, &r.Region, &status, &cacheHit,
			&r.Elements, &r.Failures, &r.Error, &r.StartedAt, &finished); err != nil {
			return nil, eris.Wrap(err, "store: scan run")
		}
		r.Status = RunStatus(status)
		r.CacheHit = cacheHit != 0
		if finished.Valid {
			t := finished.Time
			r.FinishedAt = &t
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
