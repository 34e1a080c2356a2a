package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"futures-roll-lab/internal/domain"
	"futures-roll-lab/internal/storage"
)

// RollEventStore implements storage.RollEventStore using PostgreSQL.
type RollEventStore struct {
	pool *Pool
}

// NewRollEventStore creates a new RollEventStore.
func NewRollEventStore(pool *Pool) *RollEventStore {
	return &RollEventStore{pool: pool}
}

// Compile-time interface check.
var _ storage.RollEventStore = (*RollEventStore)(nil)

// ReplaceForSeries overwrites the events of one series atomically.
// A series with no detected rolls stores an empty set.
func (s *RollEventStore) ReplaceForSeries(ctx context.Context, key domain.SeriesKey, events []*domain.RollEvent) error {
	for _, e := range events {
		if e == nil || e.Date.IsZero() {
			return storage.ErrInvalidInput
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	deleteQuery := `
		DELETE FROM roll_events
		WHERE root = $1 AND policy = $2 AND length = $3
	`
	if _, err := tx.Exec(ctx, deleteQuery, key.Root, key.Policy, key.Length); err != nil {
		return fmt.Errorf("delete roll events: %w", err)
	}

	insertQuery := `
		INSERT INTO roll_events (
			root, policy, length, date, from_symbol, to_symbol, gap
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	for _, e := range events {
		_, err := tx.Exec(ctx, insertQuery,
			key.Root,
			key.Policy,
			key.Length,
			e.Date,
			e.FromSymbol,
			e.ToSymbol,
			e.Gap,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert roll event: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetBySeries retrieves events for a series, ordered by date ASC. A series
// that was never stored yields an empty result.
func (s *RollEventStore) GetBySeries(ctx context.Context, key domain.SeriesKey) ([]*domain.RollEvent, error) {
	query := `
		SELECT root, policy, length, date, from_symbol, to_symbol, gap
		FROM roll_events
		WHERE root = $1 AND policy = $2 AND length = $3
		ORDER BY date ASC, id ASC
	`

	rows, err := s.pool.Query(ctx, query, key.Root, key.Policy, key.Length)
	if err != nil {
		return nil, fmt.Errorf("get roll events by series: %w", err)
	}
	defer rows.Close()

	return scanRollEvents(rows)
}

// scanRollEvents scans multiple rows into a slice of RollEvent.
func scanRollEvents(rows pgx.Rows) ([]*domain.RollEvent, error) {
	var events []*domain.RollEvent

	for rows.Next() {
		var event domain.RollEvent

		err := rows.Scan(
			&event.Root,
			&event.Policy,
			&event.Length,
			&event.Date,
			&event.FromSymbol,
			&event.ToSymbol,
			&event.Gap,
		)
		if err != nil {
			return nil, fmt.Errorf("scan roll event row: %w", err)
		}

		events = append(events, &event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate roll event rows: %w", err)
	}

	return events, nil
}
