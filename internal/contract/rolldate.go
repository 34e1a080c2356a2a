package contract

import "time"

// ReferenceZone is the fixed timezone whose business-day calendar anchors
// near-roll dates. The zone choice is part of the roll-date contract and is
// independent of the timezone bars were loaded in.
var ReferenceZone = mustLoadLocation("America/Chicago")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic("contract: load reference zone: " + err.Error())
	}
	return loc
}

// DefaultDaysBeforeExpiry is the conventional near-roll calendar-day offset.
const DefaultDaysBeforeExpiry = 3

// NearRollDate computes the roll date for a contract month: the third from
// last Mon-Fri business day of that month in ReferenceZone, moved
// daysBeforeExpiry calendar days earlier, then pulled back one more day if
// it lands on a weekend. No holiday calendar is applied. The result is
// deterministic given (year, month, offset) and does not depend on any bar.
// Returned as a calendar date at midnight UTC.
func NearRollDate(year int, month time.Month, daysBeforeExpiry int) time.Time {
	first := time.Date(year, month, 1, 0, 0, 0, 0, ReferenceZone)
	var bdays []time.Time
	for d := first; d.Month() == month; d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			bdays = append(bdays, d)
		}
	}
	// every month has at least 20 business days, so [-3] is always valid
	rd := bdays[len(bdays)-3].AddDate(0, 0, -daysBeforeExpiry)
	if wd := rd.Weekday(); wd == time.Saturday || wd == time.Sunday {
		rd = rd.AddDate(0, 0, -1)
	}
	return time.Date(rd.Year(), rd.Month(), rd.Day(), 0, 0, 0, 0, time.UTC)
}
