package clickhouse

import (
	"context"
	"fmt"

	"futures-roll-lab/internal/domain"
	"futures-roll-lab/internal/storage"
)

// SeriesStore implements storage.SeriesStore using ClickHouse.
//
// continuous_series is a ReplacingMergeTree keyed by (root, policy, length, date)
// with created_at as the version column. A rebuild deletes the key's rows and
// inserts a fresh batch; FINAL reads collapse anything that survives both.
type SeriesStore struct {
	conn *Conn
}

// NewSeriesStore creates a new SeriesStore.
func NewSeriesStore(conn *Conn) *SeriesStore {
	return &SeriesStore{conn: conn}
}

// Compile-time interface check.
var _ storage.SeriesStore = (*SeriesStore)(nil)

// ReplaceSeries overwrites all points of one series. Replacing with an empty
// batch removes the series. Validation happens before the delete so a bad
// batch never clobbers stored data.
func (s *SeriesStore) ReplaceSeries(ctx context.Context, key domain.SeriesKey, points []*domain.SeriesPoint) error {
	for _, p := range points {
		if p == nil || p.Date.IsZero() {
			return storage.ErrInvalidInput
		}
	}

	deleteQuery := `
		DELETE FROM continuous_series
		WHERE root = ? AND policy = ? AND length = ?
	`
	if err := s.conn.Exec(ctx, deleteQuery, key.Root, key.Policy, int32(key.Length)); err != nil {
		return fmt.Errorf("delete series: %w", err)
	}

	if len(points) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO continuous_series (
			root, policy, length, date, symbol, expiry_length,
			open, high, low, close, volume, adjustment, total_adjustment
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, p := range points {
		err = batch.Append(
			key.Root,
			key.Policy,
			int32(key.Length),
			p.Date,
			p.Symbol,
			int32(p.ExpiryLength),
			p.Open,
			p.High,
			p.Low,
			p.Close,
			p.Volume,
			p.Adjustment,
			p.TotalAdjustment,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetSeries retrieves all points of a series, ordered by date ASC.
// Returns ErrNotFound if the series has no stored points.
func (s *SeriesStore) GetSeries(ctx context.Context, key domain.SeriesKey) ([]*domain.SeriesPoint, error) {
	query := `
		SELECT
			date, symbol, expiry_length,
			open, high, low, close, volume, adjustment, total_adjustment
		FROM continuous_series FINAL
		WHERE root = ? AND policy = ? AND length = ?
		ORDER BY date ASC
	`

	rows, err := s.conn.Query(ctx, query, key.Root, key.Policy, int32(key.Length))
	if err != nil {
		return nil, fmt.Errorf("query series: %w", err)
	}
	defer rows.Close()

	points, err := scanSeriesPoints(rows)
	if err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return nil, storage.ErrNotFound
	}
	return points, nil
}

// ListKeys returns the stored series keys for a root, ordered by (policy, length).
func (s *SeriesStore) ListKeys(ctx context.Context, root string) ([]domain.SeriesKey, error) {
	query := `
		SELECT DISTINCT policy, length
		FROM continuous_series FINAL
		WHERE root = ?
		ORDER BY policy ASC, length ASC
	`

	rows, err := s.conn.Query(ctx, query, root)
	if err != nil {
		return nil, fmt.Errorf("query series keys: %w", err)
	}
	defer rows.Close()

	var keys []domain.SeriesKey
	for rows.Next() {
		var (
			policy string
			length int32
		)
		if err := rows.Scan(&policy, &length); err != nil {
			return nil, fmt.Errorf("scan series key row: %w", err)
		}
		keys = append(keys, domain.SeriesKey{Root: root, Policy: policy, Length: int(length)})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate series key rows: %w", err)
	}

	return keys, nil
}

// Rows interface for scanning
type chRows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

// scanSeriesPoints scans multiple rows into a slice of SeriesPoint.
func scanSeriesPoints(rows chRows) ([]*domain.SeriesPoint, error) {
	var points []*domain.SeriesPoint

	for rows.Next() {
		var (
			p      domain.SeriesPoint
			expiry int32
		)

		err := rows.Scan(
			&p.Date,
			&p.Symbol,
			&expiry,
			&p.Open,
			&p.High,
			&p.Low,
			&p.Close,
			&p.Volume,
			&p.Adjustment,
			&p.TotalAdjustment,
		)
		if err != nil {
			return nil, fmt.Errorf("scan series point row: %w", err)
		}

		p.ExpiryLength = int(expiry)
		points = append(points, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate series point rows: %w", err)
	}

	return points, nil
}
