package runstore

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/dbscan/internal/monitoring"
	"github.com/banshee-data/dbscan/internal/timeutil"
)

// ErrRunNotFound is returned when a run id has no stored row.
var ErrRunNotFound = errors.New("run not found")

// DefaultListLimit bounds List when the caller passes a non-positive limit.
const DefaultListLimit = 50

// Run is one persisted clustering invocation.
type Run struct {
	RunID         string          `json:"run_id"`
	CreatedAt     int64           `json:"created_at"`
	Algorithm     string          `json:"algorithm"`
	Epsilon       float64         `json:"epsilon"`
	MinPoints     int             `json:"min_points"`
	Workers       int             `json:"workers"`
	NumPoints     int             `json:"num_points"`
	Dim           int             `json:"dim"`
	Clusters      int             `json:"clusters"`
	NoiseCount    int             `json:"noise_count"`
	DurationNanos int64           `json:"duration_nanos"`
	Points        [][]float64     `json:"points,omitempty"`
	Labels        []int           `json:"labels,omitempty"`
	SummaryJSON   json.RawMessage `json:"summary,omitempty"`
}

// Store wraps the run database.
type Store struct {
	db    *sql.DB
	path  string
	clock timeutil.Clock
}

var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA busy_timeout=5000",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA temp_store=MEMORY",
	"PRAGMA foreign_keys=ON",
}

// Open opens (creating if needed) the SQLite database at path and brings
// its schema up to date.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	// SQLite serialises writers; a single connection also keeps
	// ":memory:" databases consistent across calls.
	db.SetMaxOpenConns(1)

	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec %q: %w", p, err)
		}
	}

	s := &Store{db: db, path: path, clock: timeutil.RealClock{}}
	if err := s.MigrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	monitoring.Logf("[runstore] opened %s", path)
	return s, nil
}

// DB exposes the underlying handle, for the SQL console.
func (s *Store) DB() *sql.DB { return s.db }

// Path returns the path the store was opened with.
func (s *Store) Path() string { return s.path }

// SetClock replaces the clock used to stamp CreatedAt.
func (s *Store) SetClock(c timeutil.Clock) { s.clock = c }

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// Insert persists run. If RunID is empty a UUID is generated; a zero
// CreatedAt is set to the current time.
func (s *Store) Insert(run *Run) error {
	if run.RunID == "" {
		run.RunID = uuid.New().String()
	}
	if run.CreatedAt == 0 {
		run.CreatedAt = s.clock.Now().UnixNano()
	}

	pointsJSON, err := json.Marshal(nonNilPoints(run.Points))
	if err != nil {
		return fmt.Errorf("marshal points: %w", err)
	}
	labelsJSON, err := json.Marshal(nonNilLabels(run.Labels))
	if err != nil {
		return fmt.Errorf("marshal labels: %w", err)
	}
	var summary interface{}
	if len(run.SummaryJSON) > 0 {
		summary = string(run.SummaryJSON)
	}

	return retryOnBusy(func() error {
		_, err := s.db.Exec(`
			INSERT INTO dbscan_runs (
				run_id, created_at, algorithm, epsilon, min_points, workers,
				num_points, dim, clusters, noise_count, duration_nanos,
				points_json, labels_json, summary_json
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.RunID, run.CreatedAt, run.Algorithm, run.Epsilon, run.MinPoints, run.Workers,
			run.NumPoints, run.Dim, run.Clusters, run.NoiseCount, run.DurationNanos,
			string(pointsJSON), string(labelsJSON), summary,
		)
		return err
	})
}

// Get returns the run with the given id, including points and labels.
func (s *Store) Get(runID string) (*Run, error) {
	row := s.db.QueryRow(`
		SELECT run_id, created_at, algorithm, epsilon, min_points, workers,
		       num_points, dim, clusters, noise_count, duration_nanos,
		       points_json, labels_json, summary_json
		FROM dbscan_runs
		WHERE run_id = ?`, runID)

	var r Run
	var pointsJSON, labelsJSON string
	var summary sql.NullString
	err := row.Scan(
		&r.RunID, &r.CreatedAt, &r.Algorithm, &r.Epsilon, &r.MinPoints, &r.Workers,
		&r.NumPoints, &r.Dim, &r.Clusters, &r.NoiseCount, &r.DurationNanos,
		&pointsJSON, &labelsJSON, &summary,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, fmt.Errorf("scan run: %w", err)
	}
	if err := json.Unmarshal([]byte(pointsJSON), &r.Points); err != nil {
		return nil, fmt.Errorf("decode points for run %s: %w", runID, err)
	}
	if err := json.Unmarshal([]byte(labelsJSON), &r.Labels); err != nil {
		return nil, fmt.Errorf("decode labels for run %s: %w", runID, err)
	}
	if summary.Valid {
		r.SummaryJSON = json.RawMessage(summary.String)
	}
	return &r, nil
}

// List returns up to limit runs, newest first. Points, labels and the
// summary are not loaded.
func (s *Store) List(limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	rows, err := s.db.Query(`
		SELECT run_id, created_at, algorithm, epsilon, min_points, workers,
		       num_points, dim, clusters, noise_count, duration_nanos
		FROM dbscan_runs
		ORDER BY created_at DESC, run_id
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []*Run{}
	for rows.Next() {
		var r Run
		if err := rows.Scan(
			&r.RunID, &r.CreatedAt, &r.Algorithm, &r.Epsilon, &r.MinPoints, &r.Workers,
			&r.NumPoints, &r.Dim, &r.Clusters, &r.NoiseCount, &r.DurationNanos,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, &r)
	}
	return runs, rows.Err()
}

// Delete removes a run by id.
func (s *Store) Delete(runID string) error {
	return retryOnBusy(func() error {
		result, err := s.db.Exec(`DELETE FROM dbscan_runs WHERE run_id = ?`, runID)
		if err != nil {
			return err
		}
		n, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil
	})
}

func nonNilPoints(p [][]float64) [][]float64 {
	if p == nil {
		return [][]float64{}
	}
	return p
}

func nonNilLabels(l []int) []int {
	if l == nil {
		return []int{}
	}
	return l
}
