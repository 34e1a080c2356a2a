package reporting

import "time"

// Report is the roll report for one contract root.
type Report struct {
	// Metadata
	GeneratedAt time.Time
	Root        string

	// Per-series summary rows, sorted by (policy, length)
	Series []SeriesStatRow

	// Recorded roll events across all series, sorted by (policy, length, date)
	RollEvents []RollEventRow
}

// SeriesStatRow is one row in the per-series summary table.
type SeriesStatRow struct {
	Policy    string
	Length    int
	Rows      int
	FirstDate time.Time
	LastDate  time.Time

	// RollCount counts symbol transitions; EventCount counts stored
	// adjustment events. Spliced series roll without recording events.
	RollCount  int
	EventCount int

	MissingWeekdays int
	NetAdjustment   float64
	LargestGap      float64
}

// RollEventRow is one recorded roll in the events table.
type RollEventRow struct {
	Policy     string
	Length     int
	Date       time.Time
	FromSymbol string
	ToSymbol   string
	Gap        float64
}
