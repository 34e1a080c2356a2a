package verification

import (
	"context"
	"errors"
	"fmt"
	"log"

	"futures-roll-lab/internal/domain"
	"futures-roll-lab/internal/storage"
)

// ErrSeriesNotFound is returned when a series has no stored points.
var ErrSeriesNotFound = errors.New("series not found")

// SeriesVerifier loads stored series and runs the invariant checks on them.
type SeriesVerifier struct {
	seriesStore storage.SeriesStore
	eventStore  storage.RollEventStore
	logger      *log.Logger
}

// SeriesVerifierOptions contains configuration for creating a SeriesVerifier.
type SeriesVerifierOptions struct {
	SeriesStore storage.SeriesStore
	EventStore  storage.RollEventStore
	Logger      *log.Logger
}

// NewSeriesVerifier creates a new SeriesVerifier.
func NewSeriesVerifier(opts SeriesVerifierOptions) *SeriesVerifier {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &SeriesVerifier{
		seriesStore: opts.SeriesStore,
		eventStore:  opts.EventStore,
		logger:      logger,
	}
}

// VerifySeries verifies a single stored series.
func (v *SeriesVerifier) VerifySeries(ctx context.Context, key domain.SeriesKey) (*SeriesResult, error) {
	points, err := v.seriesStore.GetSeries(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrSeriesNotFound
		}
		return nil, fmt.Errorf("load series %s: %w", key, err)
	}

	events, err := v.eventStore.GetBySeries(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load roll events %s: %w", key, err)
	}

	result := VerifyPoints(key, points, events)
	if result.Passed {
		v.logger.Printf("Verified %s: PASS (%d rows)", key, result.RowsChecked)
	} else {
		v.logger.Printf("Verified %s: FAIL (%d divergences in %d rows)",
			key, len(result.Divergences), result.RowsChecked)
	}
	return result, nil
}

// VerifyRoot verifies every stored series of a root.
func (v *SeriesVerifier) VerifyRoot(ctx context.Context, root string) (*Report, error) {
	keys, err := v.seriesStore.ListKeys(ctx, root)
	if err != nil {
		return nil, fmt.Errorf("list series for %s: %w", root, err)
	}

	report := &Report{}
	for _, key := range keys {
		result, err := v.VerifySeries(ctx, key)
		if err != nil {
			return nil, err
		}
		report.TotalSeries++
		if result.Passed {
			report.PassedSeries++
		} else {
			report.FailedSeries++
		}
		report.Results = append(report.Results, *result)
	}

	return report, nil
}
