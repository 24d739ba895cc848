package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"robopress/internal/domain"
)

func int64p(v int64) *int64 { return &v }
func stringp(s string) *string { return &s }

func newTestPipeline(catalog *fakeCatalog) *Pipeline {
	return NewPipeline(PipelineDeps{
		Explore: &fakeExplore{},
		Catalog: catalog,
		Store:   &fakeStore{},
		Logger:  discardLogger(),
	})
}

func TestEnrichMergesAllSourcesInOrder(t *testing.T) {
	t.Parallel()

	catalog := &fakeCatalog{
		details: map[int64]domain.GameDetail{
			1: {UniverseID: 1, Name: "Alpha", Description: "first", PlaceID: int64p(10), Playing: int64p(100), Visits: int64p(1000)},
			2: {UniverseID: 2, Name: "Beta", Playing: int64p(200)},
		},
		votes: map[int64]domain.VoteCounts{
			1: {UpVotes: 90, DownVotes: 10},
			2: {UpVotes: 0, DownVotes: 0},
		},
		favs: map[int64]int64{1: 55, 2: 66},
	}

	p := newTestPipeline(catalog)
	games, err := p.Enrich(context.Background(), candidateList(2), 2)
	require.NoError(t, err)
	require.Len(t, games, 2)

	assert.Equal(t, int64(1), games[0].UniverseID)
	assert.Equal(t, "Alpha", games[0].Name)
	require.NotNil(t, games[0].LikeRatio)
	assert.InDelta(t, 0.9, *games[0].LikeRatio, 1e-9)
	require.NotNil(t, games[0].Favorites)
	assert.Equal(t, int64(55), *games[0].Favorites)
	assert.Equal(t, "100", games[0].PlayingCompact)

	// Zero total votes gives a nil ratio, not zero.
	assert.Equal(t, int64(2), games[1].UniverseID)
	require.NotNil(t, games[1].UpVotes)
	assert.Nil(t, games[1].LikeRatio)
}

func TestEnrichDegradesOnVoteFailure(t *testing.T) {
	t.Parallel()

	catalog := &fakeCatalog{
		details: map[int64]domain.GameDetail{1: {UniverseID: 1, Name: "Alpha"}},
		failVotes: true,
		favs:      map[int64]int64{1: 5},
	}

	p := newTestPipeline(catalog)
	games, err := p.Enrich(context.Background(), candidateList(1), 1)
	require.NoError(t, err)
	require.Len(t, games, 1)

	// The failing vote batch nils the vote fields without dropping the game.
	assert.Equal(t, "Alpha", games[0].Name)
	assert.Nil(t, games[0].UpVotes)
	assert.Nil(t, games[0].DownVotes)
	assert.Nil(t, games[0].LikeRatio)
	require.NotNil(t, games[0].Favorites)
}

func TestEnrichDegradesOnDetailFailure(t *testing.T) {
	t.Parallel()

	playing := int64(77)
	visits := int64(8888)
	candidates := []domain.Candidate{{
		UniverseID:     1,
		ExploreName:    stringp("From Discovery"),
		ExplorePlaying: &playing,
		ExploreVisits:  &visits,
	}}

	catalog := &fakeCatalog{failDetails: true, favs: map[int64]int64{1: 3}}
	p := newTestPipeline(catalog)

	games, err := p.Enrich(context.Background(), candidates, 1)
	require.NoError(t, err)
	require.Len(t, games, 1)

	// Discovery-time values stand in for the missing detail payload.
	assert.Equal(t, "From Discovery", games[0].Name)
	require.NotNil(t, games[0].Playing)
	assert.Equal(t, int64(77), *games[0].Playing)
	require.NotNil(t, games[0].Visits)
	assert.Equal(t, int64(8888), *games[0].Visits)
	assert.Nil(t, games[0].PlaceID)
}

func TestEnrichPerGameFavoriteFailure(t *testing.T) {
	t.Parallel()

	catalog := &fakeCatalog{
		favs:        map[int64]int64{1: 10, 3: 30},
		failFavsFor: map[int64]bool{2: true},
	}

	p := newTestPipeline(catalog)
	games, err := p.Enrich(context.Background(), candidateList(3), 2)
	require.NoError(t, err)
	require.Len(t, games, 3)

	require.NotNil(t, games[0].Favorites)
	assert.Nil(t, games[1].Favorites)
	require.NotNil(t, games[2].Favorites)
	assert.Equal(t, "—", games[1].FavoritesCompact)
}

func TestEnrichBoundsFavoriteConcurrency(t *testing.T) {
	t.Parallel()

	catalog := &fakeCatalog{favs: map[int64]int64{}, favDelay: 3 * time.Millisecond}
	for i := int64(1); i <= 20; i++ {
		catalog.favs[i] = i
	}

	p := newTestPipeline(catalog)
	games, err := p.Enrich(context.Background(), candidateList(20), 3)
	require.NoError(t, err)
	require.Len(t, games, 20)

	assert.Equal(t, int32(20), catalog.favCalls.Load())
	assert.LessOrEqual(t, catalog.favMaxSeen.Load(), int32(3))
}

func TestEnrichEmptyInput(t *testing.T) {
	t.Parallel()

	p := newTestPipeline(&fakeCatalog{})
	games, err := p.Enrich(context.Background(), nil, 4)
	require.NoError(t, err)
	assert.Empty(t, games)
}
