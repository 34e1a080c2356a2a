package memory

import (
	"context"
	"sort"
	"sync"

	"futures-roll-lab/internal/domain"
	"futures-roll-lab/internal/storage"
)

// SeriesStore is an in-memory implementation of storage.SeriesStore.
type SeriesStore struct {
	mu   sync.RWMutex
	data map[domain.SeriesKey][]*domain.SeriesPoint
}

// NewSeriesStore creates a new in-memory continuous series store.
func NewSeriesStore() *SeriesStore {
	return &SeriesStore{
		data: make(map[domain.SeriesKey][]*domain.SeriesPoint),
	}
}

// ReplaceSeries overwrites all points of one series. Replacing with an empty
// batch removes the series.
func (s *SeriesStore) ReplaceSeries(_ context.Context, key domain.SeriesKey, points []*domain.SeriesPoint) error {
	for _, p := range points {
		if p == nil || p.Date.IsZero() {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(points) == 0 {
		delete(s.data, key)
		return nil
	}

	stored := make([]*domain.SeriesPoint, len(points))
	for i, p := range points {
		pointCopy := *p
		stored[i] = &pointCopy
	}
	sort.Slice(stored, func(i, j int) bool {
		return stored[i].Date.Before(stored[j].Date)
	})
	s.data[key] = stored
	return nil
}

// GetSeries retrieves all points of a series, ordered by date ASC.
func (s *SeriesStore) GetSeries(_ context.Context, key domain.SeriesKey) ([]*domain.SeriesPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.data[key]
	if !ok {
		return nil, storage.ErrNotFound
	}

	result := make([]*domain.SeriesPoint, len(stored))
	for i, p := range stored {
		pointCopy := *p
		result[i] = &pointCopy
	}
	return result, nil
}

// ListKeys returns the stored series keys for a root, ordered by (policy, length).
func (s *SeriesStore) ListKeys(_ context.Context, root string) ([]domain.SeriesKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var keys []domain.SeriesKey
	for k := range s.data {
		if k.Root == root {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Policy != keys[j].Policy {
			return keys[i].Policy < keys[j].Policy
		}
		return keys[i].Length < keys[j].Length
	})
	return keys, nil
}

var _ storage.SeriesStore = (*SeriesStore)(nil)
