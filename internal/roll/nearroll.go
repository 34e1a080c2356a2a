package roll

import (
	"sort"
	"time"

	"futures-roll-lab/internal/domain"
)

// NearRoll switches from the front-month to the second-month contract on the
// front month's roll date, a fixed calendar offset before expiry, independent
// of length preference. Bars must carry roll dates from annotation.
type NearRoll struct{}

// NewNearRoll creates the near-roll policy.
func NewNearRoll() *NearRoll { return &NearRoll{} }

// Name implements Policy.
func (n *NearRoll) Name() string { return domain.PolicyNearRoll }

// Length implements Policy. Near-roll series always track the front month.
func (n *NearRoll) Length() int { return 0 }

// AlignOffset implements Policy. The cumulative total is read from the next
// row, so each gap stops applying one row earlier than under the generic
// policy. This asymmetry anchors corrections to the front-month roll date
// and must stay as is.
func (n *NearRoll) AlignOffset() int { return -1 }

// Select keeps front-month rows dated strictly before their own roll date
// and second-month rows dated on or after the front month's roll date. The
// front roll date is borrowed by exact calendar date; a second-month row on
// a date with no front-month bar has nothing to borrow and is dropped. The
// two subsets are disjoint and jointly cover every date both contracts
// traded.
func (n *NearRoll) Select(bars []*domain.AnnotatedBar) []*domain.AnnotatedBar {
	frontRollDates := make(map[time.Time]time.Time)
	for _, b := range bars {
		if b.ExpiryLength == 0 {
			frontRollDates[b.Date()] = b.RollDate
		}
	}

	var sel []*domain.AnnotatedBar
	for _, b := range bars {
		switch b.ExpiryLength {
		case 0:
			if b.Date().Before(b.RollDate) {
				sel = append(sel, b)
			}
		case 1:
			fm, ok := frontRollDates[b.Date()]
			if ok && !b.Date().Before(fm) {
				sel = append(sel, b)
			}
		}
	}
	sort.SliceStable(sel, func(i, j int) bool {
		return sel[i].Date().Before(sel[j].Date())
	})
	return sel
}

// IsRollDay reports whether the row's date equals its own contract's roll
// date. Front-month rows end strictly before their roll date and second-month
// rows lie outside their own contract month, so daily data selected by this
// policy never flags a roll day and the spliced series keeps its raw levels.
func (n *NearRoll) IsRollDay(i int, sel []*domain.AnnotatedBar) bool {
	return !sel[i].RollDate.IsZero() && sel[i].Date().Equal(sel[i].RollDate)
}
