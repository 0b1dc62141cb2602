package briefing

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakmund/crier/pkg/source"
)

func testRun(id string, createdAt time.Time) *Run {
	return &Run{
		ID:       id,
		ConfigID: "sales-daily",
		Content:  "content for " + id,
		Results: []source.ContextResult{
			{SourceID: "hubspot-get_deals", SourceName: "hubspot", Data: map[string]any{"deals": float64(3)}},
			{SourceID: "github-list_prs", SourceName: "github", Error: "boom"},
		},
		Succeeded: 1,
		Failed:    1,
		CreatedAt: createdAt,
	}
}

func TestStore_SaveAndGet(t *testing.T) {
	store, err := OpenStore(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	run := testRun("run-1", time.Now().UTC())
	require.NoError(t, store.SaveRun(ctx, run))

	got, err := store.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, run.ConfigID, got.ConfigID)
	assert.Equal(t, run.Content, got.Content)
	assert.Equal(t, run.Succeeded, got.Succeeded)
	assert.Equal(t, run.Failed, got.Failed)
	require.Len(t, got.Results, 2)
	assert.Equal(t, "hubspot-get_deals", got.Results[0].SourceID)
	assert.Equal(t, "boom", got.Results[1].Error)
}

func TestStore_GetMissing(t *testing.T) {
	store, err := OpenStore(":memory:")
	require.NoError(t, err)
	defer store.Close()

	_, err = store.GetRun(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestStore_ListNewestFirst(t *testing.T) {
	store, err := OpenStore(":memory:")
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	base := time.Date(2026, 8, 25, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		run := testRun(fmt.Sprintf("run-%d", i), base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, store.SaveRun(ctx, run))
	}

	runs, err := store.ListRuns(ctx, 3)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "run-4", runs[0].ID)
	assert.Equal(t, "run-3", runs[1].ID)
	assert.Equal(t, "run-2", runs[2].ID)

	all, err := store.ListRuns(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestStore_Prune(t *testing.T) {
	store, err := OpenStore(":memory:")
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	base := time.Date(2026, 8, 25, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 6; i++ {
		run := testRun(fmt.Sprintf("run-%d", i), base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, store.SaveRun(ctx, run))
	}

	deleted, err := store.Prune(ctx, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 4, deleted)

	runs, err := store.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-5", runs[0].ID)
	assert.Equal(t, "run-4", runs[1].ID)
}

func TestStore_DuplicateIDRejected(t *testing.T) {
	store, err := OpenStore(":memory:")
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	run := testRun("run-1", time.Now().UTC())
	require.NoError(t, store.SaveRun(ctx, run))
	assert.Error(t, store.SaveRun(ctx, run))
}
