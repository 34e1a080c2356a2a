package domain

import "time"

// RollEvent represents one detected roll boundary in a continuous series.
// Corresponds to roll_events table in PostgreSQL.
type RollEvent struct {
	Root       string    // contract root
	Policy     string    // roll policy that produced the series
	Length     int       // series length parameter
	Date       time.Time // calendar date of the roll row, midnight UTC
	FromSymbol string    // contract supplying the roll row
	ToSymbol   string    // contract supplying the next row
	Gap        float64   // incoming open minus outgoing close
}
