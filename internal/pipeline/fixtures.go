package pipeline

import (
	"context"
	"time"

	"futures-roll-lab/internal/domain"
	"futures-roll-lab/internal/storage"
)

// LoadFixtures populates the bar store with a small gold dataset for
// demonstration runs. The window spans the November 2023 front-month roll:
// GCX3 fades out, GCZ3 takes over, and GCG4 appears in time to supply the
// December back month. Building generic length 1 over it produces one roll
// with a 20.5 gap on November 30; the near-roll splice switches to GCZ3 on
// November 24 without any adjustment.
func LoadFixtures(ctx context.Context, store storage.BarStore) error {
	return loadGoldBars(ctx, store)
}

// settle stamps a fixture day at 23:00 UTC, the 17:00 Chicago close during
// winter, so the bar dates the same calendar day in both zones.
func settle(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 23, 0, 0, 0, time.UTC)
}

func loadGoldBars(ctx context.Context, store storage.BarStore) error {
	bars := []*domain.Bar{
		// GCX3: November front month. Volume drains toward the November 24
		// roll date; the last three sessions trade thin.
		{Root: "GC", Symbol: "GCX3", Timestamp: settle(2023, time.November, 20), Open: 1983.0, High: 1985.5, Low: 1981.5, Close: 1984.0, Volume: 520},
		{Root: "GC", Symbol: "GCX3", Timestamp: settle(2023, time.November, 21), Open: 1984.0, High: 1986.0, Low: 1982.5, Close: 1984.5, Volume: 480},
		{Root: "GC", Symbol: "GCX3", Timestamp: settle(2023, time.November, 22), Open: 1984.5, High: 1986.5, Low: 1983.0, Close: 1985.0, Volume: 390},
		{Root: "GC", Symbol: "GCX3", Timestamp: settle(2023, time.November, 24), Open: 1985.0, High: 1987.0, Low: 1983.5, Close: 1985.5, Volume: 210},
		{Root: "GC", Symbol: "GCX3", Timestamp: settle(2023, time.November, 27), Open: 1985.5, High: 1987.5, Low: 1984.0, Close: 1986.0, Volume: 90},
		{Root: "GC", Symbol: "GCX3", Timestamp: settle(2023, time.November, 28), Open: 1986.0, High: 1988.0, Low: 1984.5, Close: 1986.5, Volume: 40},

		// GCZ3: second month through November, front month from December 1.
		// November 30 settles down at 1992.0, which fixes the generic roll
		// gap against the GCG4 open.
		{Root: "GC", Symbol: "GCZ3", Timestamp: settle(2023, time.November, 20), Open: 1990.0, High: 1992.5, Low: 1988.5, Close: 1991.0, Volume: 1500},
		{Root: "GC", Symbol: "GCZ3", Timestamp: settle(2023, time.November, 21), Open: 1991.0, High: 1993.0, Low: 1989.5, Close: 1991.5, Volume: 1600},
		{Root: "GC", Symbol: "GCZ3", Timestamp: settle(2023, time.November, 22), Open: 1991.5, High: 1993.5, Low: 1990.0, Close: 1992.0, Volume: 1700},
		{Root: "GC", Symbol: "GCZ3", Timestamp: settle(2023, time.November, 24), Open: 1992.0, High: 1994.0, Low: 1990.5, Close: 1992.5, Volume: 1900},
		{Root: "GC", Symbol: "GCZ3", Timestamp: settle(2023, time.November, 27), Open: 1992.5, High: 1994.5, Low: 1991.0, Close: 1993.0, Volume: 2100},
		{Root: "GC", Symbol: "GCZ3", Timestamp: settle(2023, time.November, 28), Open: 1993.0, High: 1995.0, Low: 1991.5, Close: 1993.5, Volume: 2200},
		{Root: "GC", Symbol: "GCZ3", Timestamp: settle(2023, time.November, 29), Open: 1993.5, High: 1995.5, Low: 1992.0, Close: 1994.0, Volume: 2300},
		{Root: "GC", Symbol: "GCZ3", Timestamp: settle(2023, time.November, 30), Open: 1994.0, High: 1995.5, Low: 1990.5, Close: 1992.0, Volume: 2400},
		{Root: "GC", Symbol: "GCZ3", Timestamp: settle(2023, time.December, 1), Open: 1992.0, High: 1994.5, Low: 1990.5, Close: 1992.5, Volume: 2500},

		// GCG4: length 3 through late November, length 2 from December 1,
		// where it enters the generic window. It opens December 1 at 2012.5,
		// 20.5 above the GCZ3 close.
		{Root: "GC", Symbol: "GCG4", Timestamp: settle(2023, time.November, 29), Open: 2011.0, High: 2013.0, Low: 2009.5, Close: 2011.5, Volume: 300},
		{Root: "GC", Symbol: "GCG4", Timestamp: settle(2023, time.November, 30), Open: 2011.5, High: 2013.5, Low: 2010.0, Close: 2012.0, Volume: 400},
		{Root: "GC", Symbol: "GCG4", Timestamp: settle(2023, time.December, 1), Open: 2012.5, High: 2015.0, Low: 2011.0, Close: 2013.5, Volume: 600},
	}

	return store.InsertBulk(ctx, bars)
}
