package ports

import (
	"context"
	"time"

	"robopress/internal/domain"
)

// ExploreSource finds a usable ranking list and its raw candidates.
type ExploreSource interface {
	DiscoverSort(ctx context.Context) (domain.Sort, []domain.Candidate, error)
}

// GameCatalog fetches per-game metadata from the platform.
type GameCatalog interface {
	GameDetails(ctx context.Context, universeIDs []int64) (map[int64]domain.GameDetail, error)
	GameVotes(ctx context.Context, universeIDs []int64) (map[int64]domain.VoteCounts, error)
	FavoriteCount(ctx context.Context, universeID int64) (int64, error)
	Thumbnails(ctx context.Context, universeIDs string) ([]byte, error)
}

// ArticleGenerator turns the top-5 facts into an edition's worth of text.
// A nil bundle with a nil error means "generation unavailable"; the caller
// falls back, it never fails the run.
type ArticleGenerator interface {
	Generate(ctx context.Context, meta domain.SnapshotMeta, games []domain.EnrichedGame) (*domain.ArticleBundle, error)
}

// SnapshotStore persists editions and reads them back for the API.
type SnapshotStore interface {
	Save(ctx context.Context, snap *domain.Snapshot) (dateKey string, err error)
	Latest() (*domain.Snapshot, error)
	Previous(beforeKey string) (*domain.Snapshot, error)
}

// RunRecorder keeps an audit trail of refresh attempts.
type RunRecorder interface {
	RecordRun(ctx context.Context, rec domain.RunRecord) error
}

// Scheduler controls when the pipeline executes.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
