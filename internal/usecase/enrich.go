package usecase

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"robopress/internal/domain"
)

// Enrich produces one EnrichedGame per candidate, preserving input order.
// Detail and vote batches run concurrently with each other; favorites run
// as a bounded worker pool pulling from a shared index. Any per-call failure
// degrades the dependent fields to nil instead of aborting the batch; the
// only hard error is context cancellation.
func (p *Pipeline) Enrich(ctx context.Context, candidates []domain.Candidate, favConcurrency int) ([]domain.EnrichedGame, error) {
	if len(candidates) == 0 {
		return []domain.EnrichedGame{}, nil
	}

	ids := make([]int64, len(candidates))
	for i, cand := range candidates {
		ids[i] = cand.UniverseID
	}

	details := make(map[int64]domain.GameDetail, len(ids))
	votes := make(map[int64]domain.VoteCounts, len(ids))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for _, chunk := range chunkIDs(ids, p.batchLimit) {
		chunk := chunk
		g.Go(func() error {
			batch, err := p.catalog.GameDetails(gctx, chunk)
			if err != nil {
				p.logger.Warn("detail batch degraded", "ids", len(chunk), "error", err)
				return nil
			}
			mu.Lock()
			for id, d := range batch {
				details[id] = d
			}
			mu.Unlock()
			return nil
		})
		g.Go(func() error {
			batch, err := p.catalog.GameVotes(gctx, chunk)
			if err != nil {
				p.logger.Warn("vote batch degraded", "ids", len(chunk), "error", err)
				return nil
			}
			mu.Lock()
			for id, v := range batch {
				votes[id] = v
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	favorites := p.fetchFavorites(ctx, ids, favConcurrency)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	enriched := make([]domain.EnrichedGame, 0, len(candidates))
	for i, cand := range candidates {
		game := domain.EnrichedGame{UniverseID: cand.UniverseID}

		if d, ok := details[cand.UniverseID]; ok {
			game.PlaceID = d.PlaceID
			game.Name = d.Name
			game.Description = d.Description
			game.Creator = d.Creator
			game.Playing = d.Playing
			game.Visits = d.Visits
			game.Created = d.Created
			game.Updated = d.Updated
			game.MaxPlayers = d.MaxPlayers
			game.Genre = d.Genre
		}

		// Discovery-time values stand in when the detail call was missing
		// or omitted the metric.
		if game.Name == "" && cand.ExploreName != nil {
			game.Name = *cand.ExploreName
		}
		if game.Playing == nil {
			game.Playing = cand.ExplorePlaying
		}
		if game.Visits == nil {
			game.Visits = cand.ExploreVisits
		}

		if v, ok := votes[cand.UniverseID]; ok {
			up, down := v.UpVotes, v.DownVotes
			game.UpVotes = &up
			game.DownVotes = &down
			game.LikeRatio = domain.LikeRatio(&up, &down)
		}

		game.Favorites = favorites[i]

		game.PlayingCompact = domain.CompactCount(game.Playing)
		game.VisitsCompact = domain.CompactCount(game.Visits)
		game.FavoritesCompact = domain.CompactCount(game.Favorites)

		enriched = append(enriched, game)
	}

	return enriched, nil
}

// fetchFavorites runs at most favConcurrency favorites calls in flight,
// workers pulling the next index from a shared counter. A per-id failure
// leaves that slot nil.
func (p *Pipeline) fetchFavorites(ctx context.Context, ids []int64, favConcurrency int) []*int64 {
	results := make([]*int64, len(ids))

	workers := favConcurrency
	if workers <= 0 {
		workers = defaultFavConcurrency
	}
	if workers > len(ids) {
		workers = len(ids)
	}

	var next int64 = -1
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				i := int(atomic.AddInt64(&next, 1))
				if i >= len(ids) || ctx.Err() != nil {
					return
				}
				count, err := p.catalog.FavoriteCount(ctx, ids[i])
				if err != nil {
					p.logger.Warn("favorites degraded", "universe_id", ids[i], "error", err)
					continue
				}
				v := count
				results[i] = &v
			}
		}()
	}
	wg.Wait()

	return results
}

func chunkIDs(ids []int64, limit int) [][]int64 {
	if limit <= 0 {
		limit = defaultBatchLimit
	}
	var chunks [][]int64
	for start := 0; start < len(ids); start += limit {
		end := start + limit
		if end > len(ids) {
			end = len(ids)
		}
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}
