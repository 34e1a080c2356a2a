package domain

import (
	"fmt"
	"time"
)

// Roll policy identifiers.
const (
	PolicyGeneric  = "generic"
	PolicyNearRoll = "near_roll"
)

// SeriesKey identifies one continuous series build.
type SeriesKey struct {
	Root   string // contract root, e.g. "GC"
	Policy string // PolicyGeneric | PolicyNearRoll
	Length int    // target expiry length N for generic; near-roll is fixed at 0
}

// String renders the key as root/policy/length, e.g. "GC/generic/3".
func (k SeriesKey) String() string {
	return fmt.Sprintf("%s/%s/%d", k.Root, k.Policy, k.Length)
}

// Slug renders the key for file names, e.g. "GC_generic_3".
func (k SeriesKey) Slug() string {
	return fmt.Sprintf("%s_%s_%d", k.Root, k.Policy, k.Length)
}

// SeriesPoint represents one row of a continuous back-adjusted series.
// Corresponds to continuous_series table in ClickHouse.
type SeriesPoint struct {
	Date            time.Time // calendar date, midnight UTC
	Symbol          string    // contract supplying this row
	ExpiryLength    int       // months to expiry for that contract on this date
	Open            float64   // back-adjusted open
	High            float64   // back-adjusted high
	Low             float64   // back-adjusted low
	Close           float64   // back-adjusted close
	Volume          float64   // volume, never adjusted
	Adjustment      float64   // roll gap recorded on this row; 0 on non-roll days
	TotalAdjustment float64   // cumulative adjustment added to this row's prices
}
