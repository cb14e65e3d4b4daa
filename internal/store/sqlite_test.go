package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestStartAndFinishRun(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	run, err := s.StartRun(ctx, "park", "northern_europe")
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, RunStatusRunning, run.Status)

	require.NoError(t, s.FinishRun(ctx, run.ID, RunStatusPartial, false, 35, 1, "subarea 2: gateway timeout"))

	runs, err := s.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	got := runs[0]
	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, RunStatusPartial, got.Status)
	assert.Equal(t, 35, got.Elements)
	assert.Equal(t, 1, got.Failures)
	assert.False(t, got.CacheHit)
	assert.NotNil(t, got.FinishedAt)
	assert.Contains(t, got.Error, "gateway timeout")
}

func TestFinishRun_UnknownID(t *testing.T) {
	s := openTestStore(t)
	err := s.FinishRun(context.Background(), "no-such-run", RunStatusComplete, false, 0, 0, "")
	assert.Error(t, err)
}

func TestListRuns_NewestFirstAndLimit(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		run, err := s.StartRun(ctx, "hospital", "central_europe")
		require.NoError(t, err)
		require.NoError(t, s.FinishRun(ctx, run.ID, RunStatusComplete, i%2 == 0, i, 0, ""))
	}

	runs, err := s.ListRuns(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, runs, 3)
}

func TestCacheHitRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	run, err := s.StartRun(ctx, "park", "southern_europe")
	require.NoError(t, err)
	require.NoError(t, s.FinishRun(ctx, run.ID, RunStatusComplete, true, 12, 0, ""))

	runs, err := s.ListRuns(ctx, 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.True(t, runs[0].CacheHit)
}
