// Package verification checks stored continuous series against the
// invariants the build guarantees: ordered rows, policy expiry windows,
// a zero anchor adjustment, accumulator consistency, and price continuity
// at every recorded roll.
package verification

import (
	"fmt"
	"math"
	"time"

	"futures-roll-lab/internal/domain"
)

// FloatTolerance is the tolerance for float64 comparisons. Back-adjustment
// is pure addition, so stored series reproduce within accumulation noise.
const FloatTolerance = 1e-9

// CheckDivergence represents one failed invariant on a series row.
type CheckDivergence struct {
	Check    string      // which invariant failed
	Date     time.Time   // series row date (zero when the check is row-independent)
	Expected interface{} // expected value
	Actual   interface{} // observed value
}

// SeriesResult contains the result of verifying a single series.
type SeriesResult struct {
	Key         domain.SeriesKey
	Passed      bool
	RowsChecked int
	Divergences []CheckDivergence
}

// Report contains results for batch verification across series.
type Report struct {
	TotalSeries  int
	PassedSeries int
	FailedSeries int
	Results      []SeriesResult
}

// VerifyPoints runs all invariant checks on one stored series.
// events are the stored roll events of the same series.
func VerifyPoints(key domain.SeriesKey, points []*domain.SeriesPoint, events []*domain.RollEvent) *SeriesResult {
	result := &SeriesResult{
		Key:         key,
		RowsChecked: len(points),
	}

	result.Divergences = append(result.Divergences, checkRowOrder(points)...)
	result.Divergences = append(result.Divergences, checkExpiryWindow(key, points)...)
	result.Divergences = append(result.Divergences, checkFiniteValues(points)...)
	result.Divergences = append(result.Divergences, checkAnchor(points)...)
	result.Divergences = append(result.Divergences, checkAccumulation(key, points)...)
	result.Divergences = append(result.Divergences, checkRollContinuity(points, events)...)
	result.Divergences = append(result.Divergences, checkAdjustmentEvents(points, events)...)

	result.Passed = len(result.Divergences) == 0
	return result
}

// checkRowOrder verifies dates are strictly ascending: one row per date,
// no disorder.
func checkRowOrder(points []*domain.SeriesPoint) []CheckDivergence {
	var divergences []CheckDivergence
	for i := 1; i < len(points); i++ {
		if !points[i].Date.After(points[i-1].Date) {
			divergences = append(divergences, CheckDivergence{
				Check:    "row_order",
				Date:     points[i].Date,
				Expected: fmt.Sprintf("date after %s", points[i-1].Date.Format("2006-01-02")),
				Actual:   points[i].Date.Format("2006-01-02"),
			})
		}
	}
	return divergences
}

// checkExpiryWindow verifies every row's expiry length sits inside the
// policy's selection window: {N, N+1} for generic, {0, 1} for near-roll.
func checkExpiryWindow(key domain.SeriesKey, points []*domain.SeriesPoint) []CheckDivergence {
	low := key.Length
	if key.Policy == domain.PolicyNearRoll {
		low = 0
	}

	var divergences []CheckDivergence
	for _, p := range points {
		if p.ExpiryLength != low && p.ExpiryLength != low+1 {
			divergences = append(divergences, CheckDivergence{
				Check:    "expiry_window",
				Date:     p.Date,
				Expected: fmt.Sprintf("expiry in {%d, %d}", low, low+1),
				Actual:   p.ExpiryLength,
			})
		}
	}
	return divergences
}

// checkFiniteValues verifies no NaN or Inf leaked into prices or adjustments.
func checkFiniteValues(points []*domain.SeriesPoint) []CheckDivergence {
	var divergences []CheckDivergence
	for _, p := range points {
		fields := []struct {
			name  string
			value float64
		}{
			{"open", p.Open},
			{"high", p.High},
			{"low", p.Low},
			{"close", p.Close},
			{"volume", p.Volume},
			{"adjustment", p.Adjustment},
			{"total_adjustment", p.TotalAdjustment},
		}
		for _, f := range fields {
			if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
				divergences = append(divergences, CheckDivergence{
					Check:    "finite_values",
					Date:     p.Date,
					Expected: "finite " + f.name,
					Actual:   f.value,
				})
			}
		}
	}
	return divergences
}

// checkAnchor verifies the latest row carries zero total adjustment: the
// series is anchored to current prices and history shifts beneath it.
func checkAnchor(points []*domain.SeriesPoint) []CheckDivergence {
	if len(points) == 0 {
		return nil
	}
	last := points[len(points)-1]
	if !floatEquals(last.TotalAdjustment, 0) {
		return []CheckDivergence{{
			Check:    "anchor",
			Date:     last.Date,
			Expected: 0.0,
			Actual:   last.TotalAdjustment,
		}}
	}
	return nil
}

// checkAccumulation verifies the total adjustment column is the backward
// accumulation of the per-row adjustments. Generic series include the roll
// row's own adjustment in its total; near-roll totals start one row earlier.
func checkAccumulation(key domain.SeriesKey, points []*domain.SeriesPoint) []CheckDivergence {
	var divergences []CheckDivergence
	for i := 0; i+1 < len(points); i++ {
		delta := points[i].TotalAdjustment - points[i+1].TotalAdjustment
		want := points[i].Adjustment
		if key.Policy == domain.PolicyNearRoll {
			want = points[i+1].Adjustment
		}
		if !floatEquals(delta, want) {
			divergences = append(divergences, CheckDivergence{
				Check:    "accumulation",
				Date:     points[i].Date,
				Expected: want,
				Actual:   delta,
			})
		}
	}
	return divergences
}

// checkRollContinuity verifies every stored roll event lands on a series row,
// carries the symbols the series shows, and leaves no price step behind:
// the adjusted close on the roll row equals the adjusted open after it.
// A passing check is also the idempotence property, since re-adjusting the
// stored series would measure a zero gap at every roll.
func checkRollContinuity(points []*domain.SeriesPoint, events []*domain.RollEvent) []CheckDivergence {
	byDate := make(map[time.Time]int, len(points))
	for i, p := range points {
		byDate[p.Date] = i
	}

	var divergences []CheckDivergence
	for _, e := range events {
		i, ok := byDate[e.Date]
		if !ok {
			divergences = append(divergences, CheckDivergence{
				Check:    "roll_continuity",
				Date:     e.Date,
				Expected: "series row on roll date",
				Actual:   "missing",
			})
			continue
		}
		if i+1 >= len(points) {
			divergences = append(divergences, CheckDivergence{
				Check:    "roll_continuity",
				Date:     e.Date,
				Expected: "row after roll date",
				Actual:   "roll on final row",
			})
			continue
		}

		if points[i].Symbol != e.FromSymbol || points[i+1].Symbol != e.ToSymbol {
			divergences = append(divergences, CheckDivergence{
				Check:    "roll_symbols",
				Date:     e.Date,
				Expected: fmt.Sprintf("%s -> %s", e.FromSymbol, e.ToSymbol),
				Actual:   fmt.Sprintf("%s -> %s", points[i].Symbol, points[i+1].Symbol),
			})
		}

		gap := points[i+1].Open - points[i].Close
		if !floatEquals(gap, 0) {
			divergences = append(divergences, CheckDivergence{
				Check:    "roll_continuity",
				Date:     e.Date,
				Expected: 0.0,
				Actual:   gap,
			})
		}
	}
	return divergences
}

// checkAdjustmentEvents verifies nonzero per-row adjustments appear only on
// dates with a recorded roll event. Near-roll series store no events, so any
// nonzero adjustment there is a breach.
func checkAdjustmentEvents(points []*domain.SeriesPoint, events []*domain.RollEvent) []CheckDivergence {
	eventDates := make(map[time.Time]struct{}, len(events))
	for _, e := range events {
		eventDates[e.Date] = struct{}{}
	}

	var divergences []CheckDivergence
	for _, p := range points {
		if floatEquals(p.Adjustment, 0) {
			continue
		}
		if _, ok := eventDates[p.Date]; !ok {
			divergences = append(divergences, CheckDivergence{
				Check:    "adjustment_events",
				Date:     p.Date,
				Expected: "roll event on date",
				Actual:   p.Adjustment,
			})
		}
	}
	return divergences
}

// floatEquals compares two float64 values within FloatTolerance.
func floatEquals(a, b float64) bool {
	return math.Abs(a-b) <= FloatTolerance
}
