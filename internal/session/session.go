// Package session holds the latest collection run so it can be redisplayed
// and exported without refetching. Results live only in memory; a new run
// replaces the previous one.
package session

import (
	"sync"
	"time"

	"github.com/airtrends/airtrends/internal/airquality"
	"github.com/airtrends/airtrends/internal/collector"
)

// Result is a completed collection run together with its derived series.
type Result struct {
	Run       *collector.RunResult
	Series    []airquality.Series
	CreatedAt time.Time
}

// Store holds at most one Result. Safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	result *Result
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{}
}

// Replace stores a new run result, discarding any previous one, and
// returns the stored entry.
func (s *Store) Replace(run *collector.RunResult) *Result {
	result := &Result{
		Run:       run,
		Series:    airquality.BuildSeries(run.Resolution, run.Records),
		CreatedAt: time.Now(),
	}

	s.mu.Lock()
	s.result = result
	s.mu.Unlock()
	return result
}

// Current returns the stored result, or nil when no run has completed.
func (s *Store) Current() *Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.result
}

// Clear discards the stored result.
func (s *Store) Clear() {
	s.mu.Lock()
	s.result = nil
	s.mu.Unlock()
}
