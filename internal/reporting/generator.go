package reporting

import (
	"context"
	"fmt"
	"time"

	"futures-roll-lab/internal/stats"
	"futures-roll-lab/internal/storage"
)

// Generator produces roll reports from stored series.
type Generator struct {
	seriesStore storage.SeriesStore
	eventStore  storage.RollEventStore
	now         func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(seriesStore storage.SeriesStore, eventStore storage.RollEventStore) *Generator {
	return &Generator{
		seriesStore: seriesStore,
		eventStore:  eventStore,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate produces the report for one root. Stores return keys ordered by
// (policy, length) and rows by date, so the report order is deterministic
// without re-sorting. An unknown root yields an empty report, not an error.
func (g *Generator) Generate(ctx context.Context, root string) (*Report, error) {
	keys, err := g.seriesStore.ListKeys(ctx, root)
	if err != nil {
		return nil, fmt.Errorf("list series for %s: %w", root, err)
	}

	report := &Report{
		GeneratedAt: g.now(),
		Root:        root,
	}

	for _, key := range keys {
		points, err := g.seriesStore.GetSeries(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("load series %s: %w", key, err)
		}
		events, err := g.eventStore.GetBySeries(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("load roll events %s: %w", key, err)
		}

		s := stats.Compute(key, points, events)
		report.Series = append(report.Series, SeriesStatRow{
			Policy:          key.Policy,
			Length:          key.Length,
			Rows:            s.Rows,
			FirstDate:       s.FirstDate,
			LastDate:        s.LastDate,
			RollCount:       s.RollCount,
			EventCount:      s.EventCount,
			MissingWeekdays: s.MissingWeekdays,
			NetAdjustment:   s.NetAdjustment,
			LargestGap:      s.LargestGap,
		})

		for _, e := range events {
			report.RollEvents = append(report.RollEvents, RollEventRow{
				Policy:     key.Policy,
				Length:     key.Length,
				Date:       e.Date,
				FromSymbol: e.FromSymbol,
				ToSymbol:   e.ToSymbol,
				Gap:        e.Gap,
			})
		}
	}

	return report, nil
}
