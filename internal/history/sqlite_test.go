package history

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/reportbuilder/internal/foundation/errors"
)

func TestSQLiteStore_RecordAndRecent(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	ctx := t.Context()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, status := range []string{"success", "failed", "success"} {
		require.NoError(t, store.Record(ctx, Run{
			ID:        string(rune('a' + i)),
			StartedAt: base.Add(time.Duration(i) * time.Minute),
			Duration:  1500 * time.Millisecond,
			Status:    status,
			Output:    "report.pdf",
			Sections:  3,
			Pages:     4,
			Producers: []string{"title", "curves", "samples"},
		}))
	}

	runs, err := store.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "c", runs[0].ID, "newest first")
	assert.Equal(t, "b", runs[1].ID)
	assert.Equal(t, "failed", runs[1].Status)
	assert.Equal(t, []string{"title", "curves", "samples"}, runs[0].Producers)
	assert.Equal(t, 1500*time.Millisecond, runs[0].Duration)
	assert.True(t, runs[0].StartedAt.Equal(base.Add(2*time.Minute)))
}

func TestSQLiteStore_Get(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "state", "history.db"))
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	ctx := t.Context()
	require.NoError(t, store.Record(ctx, Run{ID: "run-1", StartedAt: time.Now(), Status: "failed", Error: "producer failed"}))

	got, err := store.Get(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "producer failed", got.Error)
	assert.Nil(t, got.Producers)

	_, err = store.Get(ctx, "missing")
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryNotFound))
}

func TestSQLiteStore_DuplicateID(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	run := Run{ID: "dup", StartedAt: time.Now(), Status: "success"}
	require.NoError(t, store.Record(t.Context(), run))
	err = store.Record(t.Context(), run)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryStorage))
}

func TestSQLiteStore_Persists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Record(t.Context(), Run{ID: "x", StartedAt: time.Now(), Status: "success"}))
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()
	runs, err := reopened.Recent(t.Context(), 0)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}
