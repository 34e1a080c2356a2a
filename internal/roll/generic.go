package roll

import (
	"sort"

	"futures-roll-lab/internal/domain"
)

// Generic tracks the Nth nominal month: for every calendar date it keeps the
// single bar whose expiry length is N, falling back to N+1 on dates where no
// N bar trades.
type Generic struct {
	length int
}

// NewGeneric creates a generic-length policy for target length N >= 0.
func NewGeneric(length int) (*Generic, error) {
	if length < 0 {
		return nil, ErrNegativeLength
	}
	return &Generic{length: length}, nil
}

// Name implements Policy.
func (g *Generic) Name() string { return domain.PolicyGeneric }

// Length implements Policy.
func (g *Generic) Length() int { return g.length }

// AlignOffset implements Policy. A row's cumulative total includes its own gap.
func (g *Generic) AlignOffset() int { return 0 }

// Select filters bars to expiry lengths {N, N+1}, stable-sorts by
// (date, expiry length), and keeps the first bar of each date. Among
// duplicate (date, length) rows the first after the stable sort wins;
// duplicate feed rows make the choice inherently order-dependent, so input
// order is the documented tie-break.
func (g *Generic) Select(bars []*domain.AnnotatedBar) []*domain.AnnotatedBar {
	var cands []*domain.AnnotatedBar
	for _, b := range bars {
		if b.ExpiryLength == g.length || b.ExpiryLength == g.length+1 {
			cands = append(cands, b)
		}
	}
	sort.SliceStable(cands, func(i, j int) bool {
		di, dj := cands[i].Date(), cands[j].Date()
		if !di.Equal(dj) {
			return di.Before(dj)
		}
		return cands[i].ExpiryLength < cands[j].ExpiryLength
	})

	var sel []*domain.AnnotatedBar
	for _, b := range cands {
		if len(sel) > 0 && sel[len(sel)-1].Date().Equal(b.Date()) {
			continue
		}
		sel = append(sel, b)
	}
	return sel
}

// IsRollDay reports a symbol change against the next row. The final row has
// no next row and is never a roll day.
func (g *Generic) IsRollDay(i int, sel []*domain.AnnotatedBar) bool {
	return i+1 < len(sel) && sel[i].Symbol != sel[i+1].Symbol
}
