package contract

import (
	"fmt"
	"time"

	"futures-roll-lab/internal/domain"
)

// Options configures annotation.
type Options struct {
	NearRoll         bool // compute per-contract roll dates
	DaysBeforeExpiry int  // calendar-day offset for roll dates; used as given, 0 is legal
}

// Annotate decodes contract metadata for every vanilla bar. Bars whose
// symbol is not exactly four characters are filtered out, not errors; a
// four-character symbol that fails to decode aborts the whole batch. Roll
// dates are computed once per (year, month) contract and shared across its
// bars when NearRoll is set.
func Annotate(bars []*domain.Bar, opts Options) ([]*domain.AnnotatedBar, error) {
	annotated := make([]*domain.AnnotatedBar, 0, len(bars))
	rollDates := make(map[[2]int]time.Time)

	for _, b := range bars {
		if len(b.Symbol) != SymbolLen {
			continue
		}
		month, digit, err := DecodeSymbol(b.Symbol)
		if err != nil {
			return nil, fmt.Errorf("bar %s: %w", b.Timestamp.Format("2006-01-02"), err)
		}
		barYear, barMonth, _ := b.Timestamp.Date()
		year := ContractYear(barYear, digit)

		ab := &domain.AnnotatedBar{
			Bar:           *b,
			ContractYear:  year,
			ContractMonth: month,
			ExpiryLength:  ExpiryLength(barYear, barMonth, year, month),
		}
		ab.Root = RootOf(b.Symbol)

		if opts.NearRoll {
			key := [2]int{year, int(month)}
			rd, ok := rollDates[key]
			if !ok {
				rd = NearRollDate(year, month, opts.DaysBeforeExpiry)
				rollDates[key] = rd
			}
			ab.RollDate = rd
		}
		annotated = append(annotated, ab)
	}
	return annotated, nil
}
