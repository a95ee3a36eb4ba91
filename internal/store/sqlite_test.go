package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	st, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func TestRunLifecycle(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	r, err := st.CreateRun(ctx, "/data/input.csv")
	require.NoError(t, err)
	assert.NotEmpty(t, r.ID)
	assert.Equal(t, RunStatusRunning, r.Status)

	stats := &RunStats{
		SectionsEnriched: 2,
		RowsProcessed:    40,
		FilesWritten:     2,
		FilesIncomplete:  1,
	}
	require.NoError(t, st.FinishRun(ctx, r.ID, RunStatusComplete, stats, ""))

	got, err := st.GetRun(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, RunStatusComplete, got.Status)
	assert.Equal(t, "/data/input.csv", got.Input)
	require.NotNil(t, got.Stats)
	assert.Equal(t, 40, got.Stats.RowsProcessed)
	assert.Equal(t, 1, got.Stats.FilesIncomplete)
}

func TestFinishRunRecordsError(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	r, err := st.CreateRun(ctx, "in.csv")
	require.NoError(t, err)
	require.NoError(t, st.FinishRun(ctx, r.ID, RunStatusFailed, nil, "connection lost"))

	got, err := st.GetRun(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, RunStatusFailed, got.Status)
	assert.Equal(t, "connection lost", got.Error)
	assert.Nil(t, got.Stats)
}

func TestFinishRunUnknownID(t *testing.T) {
	st := newTestStore(t)
	err := st.FinishRun(context.Background(), "nope", RunStatusComplete, nil, "")
	require.Error(t, err)
}

func TestGetRunNotFound(t *testing.T) {
	st := newTestStore(t)
	_, err := st.GetRun(context.Background(), "nope")
	require.Error(t, err)
}

func TestListRunsFilter(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	a, err := st.CreateRun(ctx, "a.csv")
	require.NoError(t, err)
	_, err = st.CreateRun(ctx, "b.csv")
	require.NoError(t, err)
	require.NoError(t, st.FinishRun(ctx, a.ID, RunStatusCancelled, nil, ""))

	cancelled, err := st.ListRuns(ctx, RunFilter{Status: RunStatusCancelled})
	require.NoError(t, err)
	require.Len(t, cancelled, 1)
	assert.Equal(t, a.ID, cancelled[0].ID)

	all, err := st.ListRuns(ctx, RunFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	limited, err := st.ListRuns(ctx, RunFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	none, err := st.ListRuns(ctx, RunFilter{CreatedAfter: time.Now().Add(time.Hour)})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestWrittenFiles(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	r, err := st.CreateRun(ctx, "in.csv")
	require.NoError(t, err)

	require.NoError(t, st.AddWrittenFile(ctx, WrittenFile{
		RunID: r.ID, Section: "Sheet1_part1", Role: "GIS Manager",
		Path: "/out/Florida_NG911_20260314_092653.csv",
	}))
	require.NoError(t, st.AddWrittenFile(ctx, WrittenFile{
		RunID: r.ID, Section: "Sheet1_part2", Role: "GIS Manager",
		Path: "/out/Texas_NG911_20260314_092712_incomplete.csv", Incomplete: true,
	}))

	files, err := st.ListFiles(ctx, r.ID)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "Sheet1_part1", files[0].Section)
	assert.False(t, files[0].Incomplete)
	assert.True(t, files[1].Incomplete)
}
