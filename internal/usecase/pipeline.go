package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"robopress/internal/domain"
	"robopress/internal/ports"
)

// ErrRefreshInFlight is returned when a trigger fires while a previous run
// is still executing. The overlapping run is skipped, never queued.
var ErrRefreshInFlight = errors.New("refresh already in flight")

const (
	defaultTopListSize    = 100
	defaultFeatureSize    = 5
	defaultBatchLimit     = 25
	defaultFavConcurrency = 4
)

// PipelineDeps wires all driven adapters into the edition pipeline.
type PipelineDeps struct {
	Explore   ports.ExploreSource
	Catalog   ports.GameCatalog
	Generator ports.ArticleGenerator
	Store     ports.SnapshotStore
	Recorder  ports.RunRecorder
	Logger    *slog.Logger

	TopListSize    int
	FeatureSize    int
	BatchLimit     int
	FavConcurrency int
}

// Pipeline produces one weekly edition per Refresh call: discovery,
// enrichment, AI augmentation with fallback, persistence.
type Pipeline struct {
	explore   ports.ExploreSource
	catalog   ports.GameCatalog
	generator ports.ArticleGenerator
	store     ports.SnapshotStore
	recorder  ports.RunRecorder
	logger    *slog.Logger

	topListSize    int
	featureSize    int
	batchLimit     int
	favConcurrency int

	runMu sync.Mutex
}

// NewPipeline constructs the orchestration component. Generator and Recorder
// may be nil: a nil generator means every edition uses fallback articles.
func NewPipeline(deps PipelineDeps) *Pipeline {
	p := &Pipeline{
		explore:        deps.Explore,
		catalog:        deps.Catalog,
		generator:      deps.Generator,
		store:          deps.Store,
		recorder:       deps.Recorder,
		logger:         deps.Logger,
		topListSize:    deps.TopListSize,
		featureSize:    deps.FeatureSize,
		batchLimit:     deps.BatchLimit,
		favConcurrency: deps.FavConcurrency,
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	if p.topListSize <= 0 {
		p.topListSize = defaultTopListSize
	}
	if p.featureSize <= 0 {
		p.featureSize = defaultFeatureSize
	}
	if p.batchLimit <= 0 {
		p.batchLimit = defaultBatchLimit
	}
	if p.favConcurrency <= 0 {
		p.favConcurrency = defaultFavConcurrency
	}
	return p
}

// Refresh runs the full pipeline once and persists the result. It holds a
// single-flight guard for the whole run; a concurrent call returns
// ErrRefreshInFlight immediately. The run is recorded win or lose.
func (p *Pipeline) Refresh(ctx context.Context, now time.Time) (*domain.Snapshot, error) {
	if !p.runMu.TryLock() {
		return nil, ErrRefreshInFlight
	}
	defer p.runMu.Unlock()

	runID := uuid.NewString()
	logger := p.logger.With("run_id", runID)
	started := time.Now()

	snap, source, err := p.run(ctx, now, logger)

	rec := domain.RunRecord{
		ID:            runID,
		StartedAt:     now,
		DateKey:       domain.DateKey(now),
		ArticleSource: source,
		Duration:      time.Since(started),
	}
	if snap != nil {
		rec.SortID = snap.Meta.SortID
		rec.SortName = snap.Meta.SortName
	}
	if err != nil {
		rec.Err = err.Error()
	}
	if p.recorder != nil {
		if recErr := p.recorder.RecordRun(ctx, rec); recErr != nil {
			logger.Warn("run history write failed", "error", recErr)
		}
	}

	if err != nil {
		logger.Error("refresh failed", "error", err, "duration", rec.Duration)
		return nil, err
	}

	logger.Info("refresh complete",
		"date", rec.DateKey,
		"sort", rec.SortID,
		"article_source", source,
		"duration", rec.Duration)
	return snap, nil
}

func (p *Pipeline) run(ctx context.Context, now time.Time, logger *slog.Logger) (*domain.Snapshot, string, error) {
	sort, candidates, err := p.explore.DiscoverSort(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("discover sort: %w", err)
	}

	feature := candidates
	if len(feature) > p.featureSize {
		feature = feature[:p.featureSize]
	}
	listing := candidates
	if len(listing) > p.topListSize {
		listing = listing[:p.topListSize]
	}

	top5, err := p.Enrich(ctx, feature, p.favConcurrency)
	if err != nil {
		return nil, "", fmt.Errorf("enrich top5: %w", err)
	}

	top100, err := p.Enrich(ctx, listing, p.favConcurrency)
	if err != nil {
		return nil, "", fmt.Errorf("enrich top100: %w", err)
	}

	meta := domain.SnapshotMeta{SortName: sort.Name, SortID: sort.ID}

	var bundle *domain.ArticleBundle
	if p.generator != nil {
		bundle, err = p.generator.Generate(ctx, meta, top5)
		if err != nil {
			logger.Warn("article generation errored, using fallback", "error", err)
			bundle = nil
		}
	}

	source := domain.ArticleSourceAI
	var articles []domain.Article
	var headlines []string
	if bundle != nil {
		articles = bundle.Articles
		headlines = bundle.Headlines
	} else {
		source = domain.ArticleSourceFallback
		articles = make([]domain.Article, 0, len(top5))
		for _, game := range top5 {
			articles = append(articles, FallbackArticle(game))
		}
	}
	if len(headlines) == 0 {
		headlines = FallbackHeadlines(meta, top5)
	}

	snap := &domain.Snapshot{
		GeneratedAt: now.UTC(),
		Meta:        meta,
		Headlines:   headlines,
		Articles:    articles,
		Top5:        top5,
		Top100:      top100,
	}

	if _, err := p.store.Save(ctx, snap); err != nil {
		return nil, source, fmt.Errorf("persist snapshot: %w", err)
	}

	return snap, source, nil
}
