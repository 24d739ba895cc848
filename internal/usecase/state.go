package usecase

import (
	"sync"
	"time"

	"robopress/internal/domain"
)

// State is the explicitly owned in-process view the HTTP handlers read:
// the current edition with its delta overlay, plus last-run health. It is
// constructed once at startup and only touched through its methods; handlers
// and the pipeline never share module-level variables.
type State struct {
	mu        sync.RWMutex
	snapshot  *domain.Snapshot
	view      *domain.DeltaSnapshot
	lastErr   error
	lastRunAt time.Time
}

// NewState returns an empty state; the app seeds it from disk at startup.
func NewState() *State {
	return &State{}
}

// SetEdition installs a new latest snapshot and recomputes the delta view
// against the given previous edition (which may be nil).
func (s *State) SetEdition(latest, previous *domain.Snapshot) {
	view := domain.ComputeDelta(latest, previous)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = latest
	s.view = view
	s.lastErr = nil
	s.lastRunAt = time.Now()
}

// SetError records a failed refresh; the previously installed edition stays
// served.
func (s *State) SetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = err
	s.lastRunAt = time.Now()
}

// View returns the delta-annotated edition, nil when nothing is loaded yet.
func (s *State) View() *domain.DeltaSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view
}

// Snapshot returns the raw latest edition.
func (s *State) Snapshot() *domain.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// Health reports last-run facts for the health endpoint.
func (s *State) Health() (lastRunAt time.Time, lastErr error, hasSnapshot bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastRunAt, s.lastErr, s.snapshot != nil
}
