package domain

import "time"

// Bar represents one daily OHLCV bar for a single futures contract.
// Timestamps are timezone-aware; a bar's calendar date is taken from the
// timestamp in its own location.
type Bar struct {
	Root      string    // contract root, e.g. "GC"
	Symbol    string    // full contract symbol, e.g. "GCZ3"
	Timestamp time.Time // bar timestamp (tz-aware)
	Open      float64   // open price
	High      float64   // high price
	Low       float64   // low price
	Close     float64   // close price
	Volume    float64   // traded volume; never price-adjusted
}

// Date returns the bar's calendar date as midnight UTC, taken from the
// timestamp's own location. All date grouping and roll-date comparisons
// operate on this canonical form.
func (b Bar) Date() time.Time {
	y, m, d := b.Timestamp.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AnnotatedBar is a Bar extended with decoded contract metadata.
type AnnotatedBar struct {
	Bar
	ContractYear  int        // four-digit expiry year, e.g. 2023
	ContractMonth time.Month // expiry month decoded from the month-code letter
	ExpiryLength  int        // whole months from the bar's (year, month) to the contract's; negative values mark stale data and are kept
	RollDate      time.Time  // near-roll date for the contract, midnight UTC; zero unless computed
}
