package memory

import (
	"context"
	"sort"
	"sync"

	"futures-roll-lab/internal/domain"
	"futures-roll-lab/internal/storage"
)

// RollEventStore is an in-memory implementation of storage.RollEventStore.
type RollEventStore struct {
	mu   sync.RWMutex
	data map[domain.SeriesKey][]*domain.RollEvent
}

// NewRollEventStore creates a new in-memory roll event store.
func NewRollEventStore() *RollEventStore {
	return &RollEventStore{
		data: make(map[domain.SeriesKey][]*domain.RollEvent),
	}
}

// ReplaceForSeries overwrites the events of one series. A series with no
// detected rolls stores an empty set.
func (s *RollEventStore) ReplaceForSeries(_ context.Context, key domain.SeriesKey, events []*domain.RollEvent) error {
	for _, e := range events {
		if e == nil || e.Date.IsZero() {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := make([]*domain.RollEvent, len(events))
	for i, e := range events {
		eventCopy := *e
		stored[i] = &eventCopy
	}
	sort.Slice(stored, func(i, j int) bool {
		return stored[i].Date.Before(stored[j].Date)
	})
	s.data[key] = stored
	return nil
}

// GetBySeries retrieves events for a series, ordered by date ASC. A series
// that was never stored yields an empty result.
func (s *RollEventStore) GetBySeries(_ context.Context, key domain.SeriesKey) ([]*domain.RollEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.data[key]
	result := make([]*domain.RollEvent, len(stored))
	for i, e := range stored {
		eventCopy := *e
		result[i] = &eventCopy
	}
	return result, nil
}

var _ storage.RollEventStore = (*RollEventStore)(nil)
