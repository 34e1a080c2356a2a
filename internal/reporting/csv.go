package reporting

import (
	"fmt"
	"strings"

	"futures-roll-lab/internal/domain"
)

// RenderSeriesCSV renders the points of one continuous series as a CSV string.
func RenderSeriesCSV(points []*domain.SeriesPoint) string {
	var sb strings.Builder

	sb.WriteString("date,symbol,expiry_length,open,high,low,close,volume,adjustment,total_adjustment\n")

	for _, p := range points {
		sb.WriteString(fmt.Sprintf("%s,%s,%d,%.6f,%.6f,%.6f,%.6f,%.0f,%.6f,%.6f\n",
			p.Date.Format(dateFormat),
			p.Symbol,
			p.ExpiryLength,
			p.Open,
			p.High,
			p.Low,
			p.Close,
			p.Volume,
			p.Adjustment,
			p.TotalAdjustment,
		))
	}

	return sb.String()
}

// RenderRollEventsCSV renders the report's roll events as a CSV string.
func RenderRollEventsCSV(rows []RollEventRow) string {
	var sb strings.Builder

	sb.WriteString("policy,length,date,from_symbol,to_symbol,gap\n")

	for _, e := range rows {
		sb.WriteString(fmt.Sprintf("%s,%d,%s,%s,%s,%.6f\n",
			e.Policy,
			e.Length,
			e.Date.Format(dateFormat),
			e.FromSymbol,
			e.ToSymbol,
			e.Gap,
		))
	}

	return sb.String()
}
