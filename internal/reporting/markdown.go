package reporting

import (
	"fmt"
	"strings"
	"time"
)

const dateFormat = "2006-01-02"

// RenderMarkdown renders the report as a Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString(fmt.Sprintf("# Roll Report: %s\n\n", r.Root))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Series: %d | Roll events: %d\n\n", len(r.Series), len(r.RollEvents)))

	// Continuous Series
	sb.WriteString("## Continuous Series\n\n")
	if len(r.Series) > 0 {
		sb.WriteString("| Policy | Length | Rows | First | Last | Rolls | Events | Missing Weekdays | Net Adjustment | Largest Gap |\n")
		sb.WriteString("|--------|--------|------|-------|------|-------|--------|------------------|----------------|-------------|\n")
		for _, s := range r.Series {
			sb.WriteString(fmt.Sprintf("| %s | %d | %d | %s | %s | %d | %d | %d | %.4f | %.4f |\n",
				s.Policy, s.Length, s.Rows,
				s.FirstDate.Format(dateFormat), s.LastDate.Format(dateFormat),
				s.RollCount, s.EventCount, s.MissingWeekdays,
				s.NetAdjustment, s.LargestGap))
		}
	} else {
		sb.WriteString("No series stored.\n")
	}
	sb.WriteString("\n")

	// Roll Events
	sb.WriteString("## Roll Events\n\n")
	if len(r.RollEvents) > 0 {
		sb.WriteString("| Policy | Length | Date | From | To | Gap |\n")
		sb.WriteString("|--------|--------|------|------|----|-----|\n")
		for _, e := range r.RollEvents {
			sb.WriteString(fmt.Sprintf("| %s | %d | %s | %s | %s | %.4f |\n",
				e.Policy, e.Length, e.Date.Format(dateFormat),
				e.FromSymbol, e.ToSymbol, e.Gap))
		}
	} else {
		sb.WriteString("No roll events recorded.\n")
	}
	sb.WriteString("\n")

	return sb.String()
}
