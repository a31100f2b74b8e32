package report

import (
	"sync"

	"SilverReport/internal/model"
)

// Reader exposes the latest published report.
type Reader interface {
	Snapshot() model.ReportPair
}

// Store holds the latest published report pair. Readers always see either the
// previous or the new pair in full.
type Store struct {
	mu     sync.RWMutex
	latest model.ReportPair
}

// NewStore creates a store holding the initial "not generated" record.
func NewStore() *Store {
	return &Store{latest: model.EmptyReportPair()}
}

// Snapshot returns a copy of the latest pair.
func (s *Store) Snapshot() model.ReportPair {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest.Clone()
}

// Publish replaces the latest pair.
func (s *Store) Publish(pair model.ReportPair) {
	pair = pair.Clone()
	s.mu.Lock()
	s.latest = pair
	s.mu.Unlock()
}

// Published reports whether any cycle has published yet.
func (s *Store) Published() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest.Timestamp != nil
}
