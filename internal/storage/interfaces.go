package storage

import (
	"context"
	"time"

	"futures-roll-lab/internal/domain"
)

// BarStore provides access to the raw contract bar archive.
type BarStore interface {
	// InsertBulk adds bars append-only. Fails the entire batch with
	// ErrDuplicateKey if any (symbol, timestamp) already exists.
	InsertBulk(ctx context.Context, bars []*domain.Bar) error

	// GetByRoot retrieves all bars for a contract root, ordered by timestamp ASC.
	GetByRoot(ctx context.Context, root string) ([]*domain.Bar, error)

	// GetByRootTimeRange retrieves bars for a root within [start, end] (inclusive),
	// ordered by timestamp ASC.
	GetByRootTimeRange(ctx context.Context, root string, start, end time.Time) ([]*domain.Bar, error)

	// CountByRoot returns the number of stored bars for a root.
	CountByRoot(ctx context.Context, root string) (int64, error)
}

// SeriesStore provides access to continuous_series storage. Continuous
// series are derived data: every build replaces the stored series wholesale.
type SeriesStore interface {
	// ReplaceSeries overwrites all points of one series.
	ReplaceSeries(ctx context.Context, key domain.SeriesKey, points []*domain.SeriesPoint) error

	// GetSeries retrieves all points of a series, ordered by date ASC.
	// Returns ErrNotFound if the series has no stored points.
	GetSeries(ctx context.Context, key domain.SeriesKey) ([]*domain.SeriesPoint, error)

	// ListKeys returns the stored series keys for a root, ordered by
	// (policy, length).
	ListKeys(ctx context.Context, root string) ([]domain.SeriesKey, error)
}

// RollEventStore provides access to roll_events storage.
type RollEventStore interface {
	// ReplaceForSeries overwrites the events of one series.
	ReplaceForSeries(ctx context.Context, key domain.SeriesKey, events []*domain.RollEvent) error

	// GetBySeries retrieves events for a series, ordered by date ASC.
	GetBySeries(ctx context.Context, key domain.SeriesKey) ([]*domain.RollEvent, error)
}
