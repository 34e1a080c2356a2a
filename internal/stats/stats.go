package stats

import (
	"math"
	"time"

	"futures-roll-lab/internal/domain"
	"futures-roll-lab/internal/roll"
)

// SeriesStats summarizes one continuous series.
type SeriesStats struct {
	Key       domain.SeriesKey
	Rows      int
	FirstDate time.Time
	LastDate  time.Time

	// RollCount counts symbol transitions in the series itself. For spliced
	// near-roll series this exceeds EventCount, which only counts recorded
	// adjustment events.
	RollCount  int
	EventCount int

	MissingWeekdays int

	// NetAdjustment is the total back-adjustment carried by the earliest row.
	NetAdjustment float64
	// LargestGap is the largest absolute single-roll gap in the series.
	LargestGap float64
}

// Compute derives summary statistics from a series and its stored roll
// events. Points must be in date order, the way stores return them.
func Compute(key domain.SeriesKey, points []*domain.SeriesPoint, events []*domain.RollEvent) *SeriesStats {
	s := &SeriesStats{
		Key:        key,
		Rows:       len(points),
		EventCount: len(events),
	}
	if len(points) == 0 {
		return s
	}

	s.FirstDate = points[0].Date
	s.LastDate = points[len(points)-1].Date
	s.RollCount = countSymbolTransitions(points)
	s.MissingWeekdays = roll.MissingDays(points)
	s.NetAdjustment = points[0].TotalAdjustment
	s.LargestGap = largestAbsoluteGap(points)
	return s
}

// countSymbolTransitions counts adjacent rows whose symbols differ.
func countSymbolTransitions(points []*domain.SeriesPoint) int {
	count := 0
	for i := 0; i+1 < len(points); i++ {
		if points[i].Symbol != points[i+1].Symbol {
			count++
		}
	}
	return count
}

// largestAbsoluteGap scans the per-row adjustment column. Each recorded
// roll's gap appears there exactly once, so this also covers series that
// store no events.
func largestAbsoluteGap(points []*domain.SeriesPoint) float64 {
	largest := 0.0
	for _, p := range points {
		if abs := math.Abs(p.Adjustment); abs > largest {
			largest = abs
		}
	}
	return largest
}
