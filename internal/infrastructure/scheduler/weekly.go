package scheduler

import (
	"context"
	"time"

	"robopress/internal/ports"
)

// WeeklyScheduler fires once per week at a fixed weekday and wall-clock time
// in a configured location, plus once immediately on Start so a fresh deploy
// does not wait a week for its first edition.
type WeeklyScheduler struct {
	weekday time.Weekday
	hour    int
	minute  int
	loc     *time.Location
	stop    chan struct{}
}

var _ ports.Scheduler = (*WeeklyScheduler)(nil)

// NewWeeklyScheduler builds a scheduler for the given weekday and time.
func NewWeeklyScheduler(weekday time.Weekday, hour, minute int, loc *time.Location) *WeeklyScheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &WeeklyScheduler{weekday: weekday, hour: hour, minute: minute, loc: loc}
}

// Start launches the timer loop. The job runs once right away, then at each
// weekly tick. Calling Start twice is a no-op.
func (w *WeeklyScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return nil
	}

	if w.stop != nil {
		return nil
	}

	w.stop = make(chan struct{})
	go func() {
		job(time.Now())
		for {
			timer := time.NewTimer(time.Until(w.NextRun(time.Now())))
			select {
			case t := <-timer.C:
				job(t)
			case <-ctx.Done():
				timer.Stop()
				return
			case <-w.stop:
				timer.Stop()
				return
			}
		}
	}()

	return nil
}

// Stop halts the timer goroutine.
func (w *WeeklyScheduler) Stop(ctx context.Context) error {
	if w.stop == nil {
		return nil
	}
	close(w.stop)
	w.stop = nil
	return nil
}

// NextRun computes the first scheduled tick strictly after the given time.
func (w *WeeklyScheduler) NextRun(after time.Time) time.Time {
	t := after.In(w.loc)
	days := (int(w.weekday) - int(t.Weekday()) + 7) % 7
	candidate := time.Date(t.Year(), t.Month(), t.Day()+days, w.hour, w.minute, 0, 0, w.loc)
	if !candidate.After(t) {
		candidate = candidate.AddDate(0, 0, 7)
	}
	return candidate
}
