// Package memory provides in-process stand-ins for the durable stores, used
// when no database or redis is configured and in tests.
package memory

import (
	"context"
	"sync"

	"github.com/vietddude/sentinel/internal/core/domain"
)

// EscalationJournal keeps escalations in memory, newest first.
type EscalationJournal struct {
	mu      sync.RWMutex
	entries []domain.Escalation
}

// NewEscalationJournal creates an empty journal.
func NewEscalationJournal() *EscalationJournal {
	return &EscalationJournal{}
}

// Insert prepends the escalation.
func (j *EscalationJournal) Insert(ctx context.Context, e domain.Escalation) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append([]domain.Escalation{e}, j.entries...)
	return nil
}

// Recent returns up to limit newest escalations.
func (j *EscalationJournal) Recent(ctx context.Context, limit int) ([]domain.Escalation, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	if limit <= 0 || limit > len(j.entries) {
		limit = len(j.entries)
	}
	out := make([]domain.Escalation, limit)
	copy(out, j.entries[:limit])
	return out, nil
}

// RouteStore keeps the latest route snapshot in memory.
type RouteStore struct {
	mu       sync.RWMutex
	snapshot []domain.RouteReport
}

// NewRouteStore creates an empty store.
func NewRouteStore() *RouteStore {
	return &RouteStore{}
}

// SaveSnapshot replaces the stored snapshot.
func (s *RouteStore) SaveSnapshot(ctx context.Context, reports []domain.RouteReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = make([]domain.RouteReport, len(reports))
	copy(s.snapshot, reports)
	return nil
}

// LoadSnapshot returns the stored snapshot.
func (s *RouteStore) LoadSnapshot(ctx context.Context) ([]domain.RouteReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.RouteReport, len(s.snapshot))
	copy(out, s.snapshot)
	return out, nil
}
