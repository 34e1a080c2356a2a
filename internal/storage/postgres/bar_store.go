package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"futures-roll-lab/internal/domain"
	"futures-roll-lab/internal/storage"
)

// BarStore implements storage.BarStore using PostgreSQL.
type BarStore struct {
	pool *Pool
}

// NewBarStore creates a new BarStore.
func NewBarStore(pool *Pool) *BarStore {
	return &BarStore{pool: pool}
}

// Compile-time interface check.
var _ storage.BarStore = (*BarStore)(nil)

// InsertBulk adds bars atomically. Returns ErrDuplicateKey if any
// (symbol, ts) already exists; the entire batch rolls back.
func (s *BarStore) InsertBulk(ctx context.Context, bars []*domain.Bar) error {
	if len(bars) == 0 {
		return nil
	}

	for _, b := range bars {
		if b == nil || b.Symbol == "" || b.Timestamp.IsZero() {
			return storage.ErrInvalidInput
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO bars (
			root, symbol, ts, open, high, low, close, volume
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	for _, b := range bars {
		_, err := tx.Exec(ctx, query,
			b.Root,
			b.Symbol,
			b.Timestamp,
			b.Open,
			b.High,
			b.Low,
			b.Close,
			b.Volume,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert bar in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetByRoot retrieves all bars for a contract root, ordered by timestamp ASC.
func (s *BarStore) GetByRoot(ctx context.Context, root string) ([]*domain.Bar, error) {
	query := `
		SELECT root, symbol, ts, open, high, low, close, volume
		FROM bars
		WHERE root = $1
		ORDER BY ts ASC, symbol ASC, id ASC
	`

	rows, err := s.pool.Query(ctx, query, root)
	if err != nil {
		return nil, fmt.Errorf("get bars by root: %w", err)
	}
	defer rows.Close()

	return scanBars(rows)
}

// GetByRootTimeRange retrieves bars for a root within [start, end] (inclusive).
func (s *BarStore) GetByRootTimeRange(ctx context.Context, root string, start, end time.Time) ([]*domain.Bar, error) {
	query := `
		SELECT root, symbol, ts, open, high, low, close, volume
		FROM bars
		WHERE root = $1 AND ts >= $2 AND ts <= $3
		ORDER BY ts ASC, symbol ASC, id ASC
	`

	rows, err := s.pool.Query(ctx, query, root, start, end)
	if err != nil {
		return nil, fmt.Errorf("get bars by time range: %w", err)
	}
	defer rows.Close()

	return scanBars(rows)
}

// CountByRoot returns the number of stored bars for a root.
func (s *BarStore) CountByRoot(ctx context.Context, root string) (int64, error) {
	query := `SELECT COUNT(*) FROM bars WHERE root = $1`

	var count int64
	if err := s.pool.QueryRow(ctx, query, root).Scan(&count); err != nil {
		return 0, fmt.Errorf("count bars by root: %w", err)
	}
	return count, nil
}

// scanBars scans multiple rows into a slice of Bar.
func scanBars(rows pgx.Rows) ([]*domain.Bar, error) {
	var bars []*domain.Bar

	for rows.Next() {
		var bar domain.Bar

		err := rows.Scan(
			&bar.Root,
			&bar.Symbol,
			&bar.Timestamp,
			&bar.Open,
			&bar.High,
			&bar.Low,
			&bar.Close,
			&bar.Volume,
		)
		if err != nil {
			return nil, fmt.Errorf("scan bar row: %w", err)
		}

		bars = append(bars, &bar)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bar rows: %w", err)
	}

	return bars, nil
}
