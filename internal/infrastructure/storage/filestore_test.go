package storage

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"robopress/internal/domain"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	store, err := NewFileStore(t.TempDir(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return store
}

func sampleSnapshot(generatedAt time.Time) *domain.Snapshot {
	return &domain.Snapshot{
		GeneratedAt: generatedAt,
		Meta:        domain.SnapshotMeta{SortName: "Popular", SortID: "popular"},
		Headlines:   []string{"이번 주 Top 5"},
		Articles:    []domain.Article{},
		Top5:        []domain.EnrichedGame{{UniverseID: 1, Name: "Alpha"}},
		Top100:      []domain.EnrichedGame{{UniverseID: 1, Name: "Alpha"}},
	}
}

func TestSaveWritesDatedAndLatestWithSameBytes(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	snap := sampleSnapshot(time.Date(2024, 1, 1, 16, 0, 0, 0, time.UTC))

	key, err := store.Save(context.Background(), snap)
	require.NoError(t, err)
	// 16:00 UTC is past midnight in the platform's UTC+9 day.
	assert.Equal(t, "2024-01-02", key)

	dated, err := os.ReadFile(filepath.Join(store.dir, "roblox_top5_2024-01-02.json"))
	require.NoError(t, err)
	latest, err := os.ReadFile(filepath.Join(store.dir, "latest.json"))
	require.NoError(t, err)
	assert.Equal(t, dated, latest)
}

func TestSaveIsByteIdempotent(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	snap := sampleSnapshot(time.Date(2024, 1, 1, 3, 0, 0, 0, time.UTC))

	_, err := store.Save(context.Background(), snap)
	require.NoError(t, err)
	first, err := os.ReadFile(filepath.Join(store.dir, "latest.json"))
	require.NoError(t, err)

	_, err = store.Save(context.Background(), snap)
	require.NoError(t, err)
	second, err := os.ReadFile(filepath.Join(store.dir, "latest.json"))
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestLatestRoundTrip(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	snap := sampleSnapshot(time.Date(2024, 1, 8, 3, 0, 0, 0, time.UTC))

	_, err := store.Save(context.Background(), snap)
	require.NoError(t, err)

	got, err := store.Latest()
	require.NoError(t, err)
	assert.Equal(t, snap.Meta, got.Meta)
	assert.True(t, got.GeneratedAt.Equal(snap.GeneratedAt))
	require.Len(t, got.Top5, 1)
	assert.Equal(t, "Alpha", got.Top5[0].Name)
}

func TestLatestWhenNothingWritten(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	_, err := store.Latest()
	assert.ErrorIs(t, err, ErrNoSnapshot)
}

func TestLatestParseFailure(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	require.NoError(t, os.WriteFile(filepath.Join(store.dir, "latest.json"), []byte("{broken"), 0o644))

	_, err := store.Latest()
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoSnapshot)
}

func TestPreviousFindsNewestEarlierEdition(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	for _, day := range []int{1, 8, 15} {
		snap := sampleSnapshot(time.Date(2024, 1, day, 3, 0, 0, 0, time.UTC))
		snap.Meta.SortID = domain.DateKey(snap.GeneratedAt)
		_, err := store.Save(ctx, snap)
		require.NoError(t, err)
	}

	prev, err := store.Previous("2024-01-15")
	require.NoError(t, err)
	require.NotNil(t, prev)
	assert.Equal(t, "2024-01-08", prev.Meta.SortID)
}

func TestPreviousWhenFirstEdition(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	snap := sampleSnapshot(time.Date(2024, 1, 1, 3, 0, 0, 0, time.UTC))
	_, err := store.Save(context.Background(), snap)
	require.NoError(t, err)

	prev, err := store.Previous("2024-01-01")
	require.NoError(t, err)
	assert.Nil(t, prev)
}
