package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"robopress/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeExplore struct {
	sort       domain.Sort
	candidates []domain.Candidate
	err        error
}

func (f *fakeExplore) DiscoverSort(ctx context.Context) (domain.Sort, []domain.Candidate, error) {
	if f.err != nil {
		return domain.Sort{}, nil, f.err
	}
	return f.sort, f.candidates, nil
}

type fakeCatalog struct {
	details map[int64]domain.GameDetail
	votes   map[int64]domain.VoteCounts
	favs    map[int64]int64

	failDetails bool
	failVotes   bool
	failFavsFor map[int64]bool
	favDelay    time.Duration

	favCalls    atomic.Int32
	favInFlight atomic.Int32
	favMaxSeen  atomic.Int32
}

func (f *fakeCatalog) GameDetails(ctx context.Context, ids []int64) (map[int64]domain.GameDetail, error) {
	if f.failDetails {
		return nil, errors.New("details down")
	}
	out := map[int64]domain.GameDetail{}
	for _, id := range ids {
		if d, ok := f.details[id]; ok {
			out[id] = d
		}
	}
	return out, nil
}

func (f *fakeCatalog) GameVotes(ctx context.Context, ids []int64) (map[int64]domain.VoteCounts, error) {
	if f.failVotes {
		return nil, errors.New("votes down")
	}
	out := map[int64]domain.VoteCounts{}
	for _, id := range ids {
		if v, ok := f.votes[id]; ok {
			out[id] = v
		}
	}
	return out, nil
}

func (f *fakeCatalog) FavoriteCount(ctx context.Context, id int64) (int64, error) {
	f.favCalls.Add(1)

	cur := f.favInFlight.Add(1)
	for {
		max := f.favMaxSeen.Load()
		if cur <= max || f.favMaxSeen.CompareAndSwap(max, cur) {
			break
		}
	}
	defer f.favInFlight.Add(-1)

	if f.favDelay > 0 {
		time.Sleep(f.favDelay)
	}

	if f.failFavsFor[id] {
		return 0, fmt.Errorf("favorites down for %d", id)
	}
	return f.favs[id], nil
}

func (f *fakeCatalog) Thumbnails(ctx context.Context, ids string) ([]byte, error) {
	return []byte(`{"data":[]}`), nil
}

type fakeGenerator struct {
	bundle  *domain.ArticleBundle
	err     error
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
}

func (f *fakeGenerator) Generate(ctx context.Context, meta domain.SnapshotMeta, games []domain.EnrichedGame) (*domain.ArticleBundle, error) {
	f.calls.Add(1)
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
	return f.bundle, f.err
}

type fakeStore struct {
	mu       sync.Mutex
	saved    []*domain.Snapshot
	saveErr  error
	latest   *domain.Snapshot
	previous *domain.Snapshot
}

func (f *fakeStore) Save(ctx context.Context, snap *domain.Snapshot) (string, error) {
	if f.saveErr != nil {
		return "", f.saveErr
	}
	f.mu.Lock()
	f.saved = append(f.saved, snap)
	f.mu.Unlock()
	return domain.DateKey(snap.GeneratedAt), nil
}

func (f *fakeStore) Latest() (*domain.Snapshot, error) {
	return f.latest, nil
}

func (f *fakeStore) Previous(beforeKey string) (*domain.Snapshot, error) {
	return f.previous, nil
}

func (f *fakeStore) savedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saved)
}

type fakeRecorder struct {
	mu      sync.Mutex
	records []domain.RunRecord
}

func (f *fakeRecorder) RecordRun(ctx context.Context, rec domain.RunRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, rec)
	return nil
}

func (f *fakeRecorder) last() (domain.RunRecord, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.records) == 0 {
		return domain.RunRecord{}, false
	}
	return f.records[len(f.records)-1], true
}

func candidateList(n int) []domain.Candidate {
	out := make([]domain.Candidate, n)
	for i := range out {
		out[i] = domain.Candidate{UniverseID: int64(i + 1)}
	}
	return out
}
