package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshotWithTop5(games ...EnrichedGame) *Snapshot {
	return &Snapshot{
		GeneratedAt: time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC),
		Top5:        games,
	}
}

func TestComputeDeltaWithPreviousEdition(t *testing.T) {
	t.Parallel()

	latest := snapshotWithTop5(EnrichedGame{
		UniverseID: 1,
		Playing:    int64p(120),
		Visits:     int64p(1100),
		Favorites:  int64p(55),
		LikeRatio:  float64p(0.9),
	})
	previous := snapshotWithTop5(EnrichedGame{
		UniverseID: 1,
		Playing:    int64p(100),
		Visits:     int64p(1000),
		Favorites:  int64p(50),
		LikeRatio:  float64p(0.8),
		Updated:    stringp("2024-01-01T00:00:00Z"),
	})

	view := ComputeDelta(latest, previous)
	require.NotNil(t, view)
	require.Len(t, view.Top5, 1)

	delta := view.Top5[0].Delta
	require.NotNil(t, delta.Playing)
	assert.Equal(t, int64(20), *delta.Playing)
	require.NotNil(t, delta.PlayingPct)
	assert.InDelta(t, 0.2, *delta.PlayingPct, 1e-9)
	require.NotNil(t, delta.Favorites)
	assert.Equal(t, int64(5), *delta.Favorites)
	require.NotNil(t, delta.FavoritesPct)
	assert.InDelta(t, 0.1, *delta.FavoritesPct, 1e-9)
	require.NotNil(t, delta.LikeRatio)
	assert.InDelta(t, 0.1, *delta.LikeRatio, 1e-9)
	require.NotNil(t, delta.PrevUpdated)
	assert.Equal(t, "2024-01-01T00:00:00Z", *delta.PrevUpdated)
}

func TestComputeDeltaWithoutPreviousEdition(t *testing.T) {
	t.Parallel()

	latest := snapshotWithTop5(EnrichedGame{UniverseID: 1, Playing: int64p(120)})

	view := ComputeDelta(latest, nil)
	require.NotNil(t, view)
	require.Len(t, view.Top5, 1)

	// No prior data is all-nil, which is distinct from a zero delta.
	delta := view.Top5[0].Delta
	assert.Nil(t, delta.Playing)
	assert.Nil(t, delta.Visits)
	assert.Nil(t, delta.Favorites)
	assert.Nil(t, delta.LikeRatio)
	assert.Nil(t, delta.PlayingPct)
	assert.Nil(t, delta.FavoritesPct)
	assert.Nil(t, delta.PrevUpdated)
}

func TestComputeDeltaGameMissingFromPrevious(t *testing.T) {
	t.Parallel()

	latest := snapshotWithTop5(EnrichedGame{UniverseID: 2, Playing: int64p(40)})
	previous := snapshotWithTop5(EnrichedGame{UniverseID: 1, Playing: int64p(100)})

	view := ComputeDelta(latest, previous)
	require.Len(t, view.Top5, 1)
	assert.Nil(t, view.Top5[0].Delta.Playing)
	assert.Nil(t, view.Top5[0].Delta.PlayingPct)
}

func TestComputeDeltaZeroPreviousMetric(t *testing.T) {
	t.Parallel()

	latest := snapshotWithTop5(EnrichedGame{UniverseID: 1, Playing: int64p(10)})
	previous := snapshotWithTop5(EnrichedGame{UniverseID: 1, Playing: int64p(0)})

	view := ComputeDelta(latest, previous)
	require.Len(t, view.Top5, 1)

	delta := view.Top5[0].Delta
	require.NotNil(t, delta.Playing)
	assert.Equal(t, int64(10), *delta.Playing)
	// Percentage change against zero is undefined, not infinite.
	assert.Nil(t, delta.PlayingPct)
}

func stringp(s string) *string { return &s }
