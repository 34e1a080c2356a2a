package roll

import (
	"time"

	"futures-roll-lab/internal/domain"
)

// Result is one built continuous series with its roll audit trail.
type Result struct {
	Key    domain.SeriesKey
	Points []*domain.SeriesPoint
	Events []*domain.RollEvent
}

// Build runs the shared engine for one policy: select daily rows, detect
// roll days, record each roll's gap (incoming open minus outgoing close),
// propagate the reverse cumulative adjustment, and add it to open, high,
// low, and close uniformly. Volume is carried through untouched.
//
// The latest row always ends with a zero total adjustment; earlier rows
// absorb every later gap. A roll flagged on the final row has no next row,
// so its gap is zero rather than undefined. Re-running Build on an already
// continuous series adds zero everywhere.
func Build(root string, bars []*domain.AnnotatedBar, p Policy) *Result {
	sel := p.Select(bars)
	key := domain.SeriesKey{Root: root, Policy: p.Name(), Length: p.Length()}

	adj := make([]float64, len(sel))
	var events []*domain.RollEvent
	for i := range sel {
		if !p.IsRollDay(i, sel) || i+1 >= len(sel) {
			continue
		}
		adj[i] = sel[i+1].Open - sel[i].Close
		events = append(events, &domain.RollEvent{
			Root:       root,
			Policy:     key.Policy,
			Length:     key.Length,
			Date:       sel[i].Date(),
			FromSymbol: sel[i].Symbol,
			ToSymbol:   sel[i+1].Symbol,
			Gap:        adj[i],
		})
	}

	// Reverse running total as an explicit backward accumulator. An
	// alignment offset of -1 assigns before accumulating, which reads each
	// row's total from the row after it.
	total := make([]float64, len(sel))
	acc := 0.0
	for i := len(sel) - 1; i >= 0; i-- {
		if p.AlignOffset() == 0 {
			acc += adj[i]
			total[i] = acc
		} else {
			total[i] = acc
			acc += adj[i]
		}
	}

	points := make([]*domain.SeriesPoint, len(sel))
	for i, b := range sel {
		points[i] = &domain.SeriesPoint{
			Date:            b.Date(),
			Symbol:          b.Symbol,
			ExpiryLength:    b.ExpiryLength,
			Open:            b.Open + total[i],
			High:            b.High + total[i],
			Low:             b.Low + total[i],
			Close:           b.Close + total[i],
			Volume:          b.Volume,
			Adjustment:      adj[i],
			TotalAdjustment: total[i],
		}
	}
	return &Result{Key: key, Points: points, Events: events}
}

// MissingDays counts Mon-Fri calendar days between the first and last
// selected dates that have no row. Informational only; the engine never
// fills or interpolates absent dates.
func MissingDays(points []*domain.SeriesPoint) int {
	if len(points) < 2 {
		return 0
	}
	have := make(map[time.Time]bool, len(points))
	for _, p := range points {
		have[p.Date] = true
	}
	missing := 0
	for d := points[0].Date; d.Before(points[len(points)-1].Date); d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		if !have[d] {
			missing++
		}
	}
	return missing
}
