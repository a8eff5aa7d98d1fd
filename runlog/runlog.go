// Package runlog keeps a history of scraper runs in SQLite so that failing
// sources can be spotted after the fact.
package runlog

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pevans/dailyarticle/scraper"
)

// DefaultFilename is the run log database name inside the data directory.
const DefaultFilename = "runlog.db"

// ErrRunNotFound is returned when a run ID is unknown.
var ErrRunNotFound = errors.New("run not found")

// Store records scraper runs using SQLite.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Run is one recorded ScrapeArticles call.
type Run struct {
	RunID        uuid.UUID `json:"run_id"`
	SourceKey    string    `json:"source_key"`
	Source       string    `json:"source"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
	Articles     int       `json:"articles"`
	Added        int       `json:"added"`
	Failures     int       `json:"failures"`
	FeedsTried   int       `json:"feeds_tried"`
	FeedsFailed  int       `json:"feeds_failed"`
	UsedFallback bool      `json:"used_fallback"`
	FallbackTier int       `json:"fallback_tier"`
	LastError    *string   `json:"last_error,omitempty"`
	RecordedAt   time.Time `json:"recorded_at"`
}

// Duration is how long the run took.
func (r *Run) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// NewStore opens (or creates) the run log at dbPath.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db, now: time.Now}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates the runs table if it doesn't exist.
func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		source_key TEXT NOT NULL,
		source TEXT NOT NULL,
		started_at TEXT NOT NULL,
		started_unix INTEGER NOT NULL,
		finished_at TEXT NOT NULL,
		articles INTEGER NOT NULL DEFAULT 0,
		added INTEGER NOT NULL DEFAULT 0,
		failures INTEGER NOT NULL DEFAULT 0,
		feeds_tried INTEGER NOT NULL DEFAULT 0,
		feeds_failed INTEGER NOT NULL DEFAULT 0,
		used_fallback INTEGER NOT NULL DEFAULT 0,
		fallback_tier INTEGER NOT NULL DEFAULT 0,
		last_error TEXT,
		recorded_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS runs_source_started ON runs (source_key, started_unix);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores the outcome of a scrape.
func (s *Store) Record(report *scraper.Report) (*Run, error) {
	run := &Run{
		RunID:        uuid.New(),
		SourceKey:    report.SourceKey,
		Source:       report.Source,
		StartedAt:    report.StartedAt.Truncate(0),
		FinishedAt:   report.FinishedAt.Truncate(0),
		Articles:     len(report.Articles),
		Added:        report.Added,
		Failures:     len(report.Failures),
		FeedsTried:   report.FeedsTried,
		FeedsFailed:  report.FeedsFailed,
		UsedFallback: report.UsedFallback,
		FallbackTier: report.FallbackTier,
		RecordedAt:   s.now().Truncate(0),
	}
	if err := report.Err(); err != nil {
		msg := err.Error()
		run.LastError = &msg
	}

	query := `
		INSERT INTO runs (
			run_id, source_key, source, started_at, started_unix, finished_at,
			articles, added, failures, feeds_tried, feeds_failed,
			used_fallback, fallback_tier, last_error, recorded_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.Exec(query,
		run.RunID.String(),
		run.SourceKey,
		run.Source,
		formatTime(run.StartedAt),
		run.StartedAt.UnixNano(),
		formatTime(run.FinishedAt),
		run.Articles,
		run.Added,
		run.Failures,
		run.FeedsTried,
		run.FeedsFailed,
		run.UsedFallback,
		run.FallbackTier,
		run.LastError,
		formatTime(run.RecordedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert run: %w", err)
	}

	return run, nil
}

const selectRun = `
	SELECT run_id, source_key, source, started_at, finished_at,
	       articles, added, failures, feeds_tried, feeds_failed,
	       used_fallback, fallback_tier, last_error, recorded_at
	FROM runs
`

// Get retrieves a run by ID.
func (s *Store) Get(runID uuid.UUID) (*Run, error) {
	row := s.db.QueryRow(selectRun+" WHERE run_id = ?", runID.String())
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}
	return run, nil
}

// Latest returns the most recent run of every source, ordered by source key.
func (s *Store) Latest() ([]Run, error) {
	query := selectRun + `
		WHERE rowid = (
			SELECT r.rowid FROM runs r
			WHERE r.source_key = runs.source_key
			ORDER BY r.started_unix DESC, r.rowid DESC
			LIMIT 1
		)
		ORDER BY source_key
	`
	return s.query(query)
}

// List returns runs newest first. An empty source lists every source; a
// limit of zero or less means no limit.
func (s *Store) List(source string, limit int) ([]Run, error) {
	query := selectRun
	var args []any

	if source != "" {
		query += " WHERE source_key = ?"
		args = append(args, source)
	}

	query += " ORDER BY started_unix DESC, rowid DESC"

	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	return s.query(query, args...)
}

func (s *Store) query(query string, args ...any) ([]Run, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	runs := make([]Run, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read runs: %w", err)
	}

	return runs, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	var runIDStr, startedAtStr, finishedAtStr, recordedAtStr string
	var lastError sql.NullString
	run := &Run{}

	err := row.Scan(
		&runIDStr, &run.SourceKey, &run.Source, &startedAtStr, &finishedAtStr,
		&run.Articles, &run.Added, &run.Failures, &run.FeedsTried, &run.FeedsFailed,
		&run.UsedFallback, &run.FallbackTier, &lastError, &recordedAtStr,
	)
	if err != nil {
		return nil, err
	}

	run.RunID, err = uuid.Parse(runIDStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse run ID: %w", err)
	}
	run.StartedAt = parseTime(startedAtStr)
	run.FinishedAt = parseTime(finishedAtStr)
	run.RecordedAt = parseTime(recordedAtStr)
	if lastError.Valid {
		run.LastError = &lastError.String
	}

	return run, nil
}

func formatTime(t time.Time) string {
	return t.Truncate(0).Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		t, _ = time.Parse(time.RFC3339, s)
	}
	return t.Truncate(0)
}
