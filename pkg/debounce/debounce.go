// Package debounce coalesces bursts of keyed tasks into a single delayed run.
//
// Each key owns at most one pending timer. Scheduling a task for a key that
// already has a pending timer cancels it and starts over, so only the last
// task scheduled within the delay window runs:
//
//	s := debounce.New()
//	for _, doc := range docs {
//	    s.Schedule("index.json", 100*time.Millisecond, flush) // runs once
//	}
package debounce

import (
	"errors"
	"sync"
	"time"
)

// ErrStopped is returned by Schedule after Stop. The task is not run.
var ErrStopped = errors.New("debounce: scheduler stopped")

// Scheduler is a per-key single-slot timer table.
//
// It is safe for concurrent use.
type Scheduler struct {
	mu      sync.Mutex
	pending map[string]*slot
	stopped bool
}

type slot struct {
	timer *time.Timer
}

// New creates an empty Scheduler.
func New() *Scheduler {
	return &Scheduler{pending: make(map[string]*slot)}
}

// Schedule arranges for fn to run in its own goroutine after delay, replacing
// any task still pending for key. It reports whether a pending task was
// cancelled before it fired; a task that already started always runs to
// completion and is not reported.
//
// After [Scheduler.Stop], Schedule drops fn and returns [ErrStopped].
func (s *Scheduler) Schedule(key string, delay time.Duration, fn func()) (replaced bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return false, ErrStopped
	}
	if prev, ok := s.pending[key]; ok {
		replaced = prev.timer.Stop()
		delete(s.pending, key)
	}

	sl := &slot{}
	sl.timer = time.AfterFunc(delay, func() {
		s.mu.Lock()
		if s.pending[key] == sl {
			delete(s.pending, key)
		}
		s.mu.Unlock()
		fn()
	})
	s.pending[key] = sl
	return replaced, nil
}

// waiting reports whether a task for key is waiting to fire.
func (s *Scheduler) waiting(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pending[key]
	return ok
}

// Stop cancels every pending task and rejects new ones. It returns the keys
// whose tasks were cancelled before firing.
func (s *Scheduler) Stop() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopped = true
	var cancelled []string
	for key, sl := range s.pending {
		if sl.timer.Stop() {
			cancelled = append(cancelled, key)
		}
		delete(s.pending, key)
	}
	return cancelled
}
