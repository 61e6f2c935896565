package runstore

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/dbscan/internal/monitoring"
	"github.com/banshee-data/dbscan/internal/timeutil"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	prev := monitoring.Logf
	monitoring.SetLogger(nil)
	t.Cleanup(func() { monitoring.SetLogger(prev) })

	s, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleRun() *Run {
	return &Run{
		Algorithm:     "kd_tree",
		Epsilon:       0.5,
		MinPoints:     3,
		Workers:       2,
		NumPoints:     4,
		Dim:           2,
		Clusters:      1,
		NoiseCount:    1,
		DurationNanos: 1200,
		Points:        [][]float64{{0, 0}, {0, 0.1}, {0.1, 0}, {9, 9}},
		Labels:        []int{1, 1, 1, -1},
		SummaryJSON:   json.RawMessage(`{"points":4}`),
	}
}

func TestStore_InsertGet(t *testing.T) {
	s := setupTestStore(t)

	run := sampleRun()
	require.NoError(t, s.Insert(run))
	assert.NotEmpty(t, run.RunID)
	assert.NotZero(t, run.CreatedAt)

	got, err := s.Get(run.RunID)
	require.NoError(t, err)
	if diff := cmp.Diff(run, got); diff != "" {
		t.Errorf("Get mismatch (-want +got):\n%s", diff)
	}
}

func TestStore_InsertStampsFromClock(t *testing.T) {
	s := setupTestStore(t)
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := timeutil.NewMockClock(now)
	s.SetClock(clock)

	first := sampleRun()
	require.NoError(t, s.Insert(first))
	assert.Equal(t, now.UnixNano(), first.CreatedAt)

	clock.Advance(time.Minute)
	second := sampleRun()
	require.NoError(t, s.Insert(second))
	assert.Equal(t, now.Add(time.Minute).UnixNano(), second.CreatedAt)

	runs, err := s.List(0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, second.RunID, runs[0].RunID)
}

func TestStore_InsertKeepsExplicitID(t *testing.T) {
	s := setupTestStore(t)

	run := sampleRun()
	run.RunID = "fixed-id"
	run.CreatedAt = 42
	require.NoError(t, s.Insert(run))

	got, err := s.Get("fixed-id")
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.CreatedAt)

	// Duplicate primary key.
	dup := sampleRun()
	dup.RunID = "fixed-id"
	assert.Error(t, s.Insert(dup))
}

func TestStore_InsertNilSlicesAndNoSummary(t *testing.T) {
	s := setupTestStore(t)

	run := &Run{Algorithm: "brute", Epsilon: 1, MinPoints: 1, Workers: 1}
	require.NoError(t, s.Insert(run))

	got, err := s.Get(run.RunID)
	require.NoError(t, err)
	assert.Empty(t, got.Points)
	assert.Empty(t, got.Labels)
	assert.Nil(t, got.SummaryJSON)
}

func TestStore_GetMissing(t *testing.T) {
	s := setupTestStore(t)

	_, err := s.Get("nope")
	if !errors.Is(err, ErrRunNotFound) {
		t.Fatalf("err = %v, want ErrRunNotFound", err)
	}
}

func TestStore_ListNewestFirst(t *testing.T) {
	s := setupTestStore(t)

	for i, created := range []int64{100, 300, 200} {
		run := sampleRun()
		run.CreatedAt = created
		run.Clusters = i
		require.NoError(t, s.Insert(run))
	}

	runs, err := s.List(0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, []int64{300, 200, 100}, []int64{runs[0].CreatedAt, runs[1].CreatedAt, runs[2].CreatedAt})
	for _, r := range runs {
		assert.Nil(t, r.Points, "List should not load points")
		assert.Nil(t, r.Labels, "List should not load labels")
	}

	limited, err := s.List(2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestStore_ListEmpty(t *testing.T) {
	s := setupTestStore(t)

	runs, err := s.List(10)
	require.NoError(t, err)
	assert.NotNil(t, runs)
	assert.Empty(t, runs)
}

func TestStore_Delete(t *testing.T) {
	s := setupTestStore(t)

	run := sampleRun()
	require.NoError(t, s.Insert(run))
	require.NoError(t, s.Delete(run.RunID))

	_, err := s.Get(run.RunID)
	assert.ErrorIs(t, err, ErrRunNotFound)
	assert.ErrorIs(t, s.Delete(run.RunID), ErrRunNotFound)
}

func TestStore_Migrations(t *testing.T) {
	s := setupTestStore(t)

	version, dirty, err := s.MigrateVersion()
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.Equal(t, uint(2), version)

	// Re-running is a no-op.
	require.NoError(t, s.MigrateUp())

	require.NoError(t, s.MigrateDown())
	version, _, err = s.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)

	require.NoError(t, s.MigrateUp())
	version, _, err = s.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)
}

func TestOpen_AppliesPragmas(t *testing.T) {
	s := setupTestStore(t)

	var journalMode string
	require.NoError(t, s.DB().QueryRow("PRAGMA journal_mode").Scan(&journalMode))
	assert.Equal(t, "wal", journalMode)

	var busyTimeout int
	require.NoError(t, s.DB().QueryRow("PRAGMA busy_timeout").Scan(&busyTimeout))
	assert.Equal(t, 5000, busyTimeout)
}

func TestOpen_BadPath(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing", "dir", "runs.db"))
	assert.Error(t, err)
}
