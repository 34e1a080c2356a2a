package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"futures-roll-lab/internal/domain"
	"futures-roll-lab/internal/storage"
)

// BarStore is an in-memory implementation of storage.BarStore.
type BarStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Bar // keyed by (symbol, timestamp)
}

// NewBarStore creates a new in-memory bar store.
func NewBarStore() *BarStore {
	return &BarStore{
		data: make(map[string]*domain.Bar),
	}
}

// barKey generates a unique key for a bar.
func barKey(symbol string, ts time.Time) string {
	return fmt.Sprintf("%s|%d", symbol, ts.UnixNano())
}

// InsertBulk adds bars append-only. Fails entire batch on duplicate (symbol, timestamp).
func (s *BarStore) InsertBulk(_ context.Context, bars []*domain.Bar) error {
	if len(bars) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Track keys in this batch to detect intra-batch duplicates
	batchKeys := make(map[string]struct{}, len(bars))

	// First pass: check for duplicates (existing + intra-batch)
	for _, b := range bars {
		if b == nil || b.Symbol == "" || b.Timestamp.IsZero() {
			return storage.ErrInvalidInput
		}
		key := barKey(b.Symbol, b.Timestamp)

		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	// Second pass: insert all
	for _, b := range bars {
		key := barKey(b.Symbol, b.Timestamp)
		barCopy := *b
		s.data[key] = &barCopy
	}

	return nil
}

// GetByRoot retrieves all bars for a root, ordered by timestamp ASC.
func (s *BarStore) GetByRoot(_ context.Context, root string) ([]*domain.Bar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Bar
	for _, b := range s.data {
		if b.Root == root {
			barCopy := *b
			result = append(result, &barCopy)
		}
	}

	sortBars(result)
	return result, nil
}

// GetByRootTimeRange retrieves bars for a root within [start, end] (inclusive).
func (s *BarStore) GetByRootTimeRange(_ context.Context, root string, start, end time.Time) ([]*domain.Bar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Bar
	for _, b := range s.data {
		if b.Root == root && !b.Timestamp.Before(start) && !b.Timestamp.After(end) {
			barCopy := *b
			result = append(result, &barCopy)
		}
	}

	sortBars(result)
	return result, nil
}

// CountByRoot returns the number of stored bars for a root.
func (s *BarStore) CountByRoot(_ context.Context, root string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, b := range s.data {
		if b.Root == root {
			n++
		}
	}
	return n, nil
}

// sortBars orders bars by (timestamp ASC, symbol ASC) for deterministic reads.
func sortBars(bars []*domain.Bar) {
	sort.Slice(bars, func(i, j int) bool {
		if !bars[i].Timestamp.Equal(bars[j].Timestamp) {
			return bars[i].Timestamp.Before(bars[j].Timestamp)
		}
		return bars[i].Symbol < bars[j].Symbol
	})
}

var _ storage.BarStore = (*BarStore)(nil)
