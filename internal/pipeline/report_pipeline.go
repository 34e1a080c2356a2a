package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"futures-roll-lab/internal/domain"
	"futures-roll-lab/internal/reporting"
	"futures-roll-lab/internal/storage"
)

// ReportPipeline renders the stored series for one root into report files.
type ReportPipeline struct {
	reportGen   *reporting.Generator
	seriesStore storage.SeriesStore
	outputDir   string
	clock       func() time.Time
}

// NewReportPipeline creates a new pipeline writing into outputDir.
func NewReportPipeline(
	seriesStore storage.SeriesStore,
	eventStore storage.RollEventStore,
	outputDir string,
) *ReportPipeline {
	return &ReportPipeline{
		reportGen:   reporting.NewGenerator(seriesStore, eventStore),
		seriesStore: seriesStore,
		outputDir:   outputDir,
		clock:       func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (p *ReportPipeline) WithClock(clock func() time.Time) *ReportPipeline {
	p.clock = clock
	p.reportGen = p.reportGen.WithClock(clock)
	return p
}

// Run generates the report for root and writes output files:
// - ROLL_REPORT.md
// - continuous_<root>_<policy>_<length>.csv, one per stored series
// - roll_events.csv
//
// A root with no stored series still produces the markdown report and an
// empty roll_events.csv, just no series exports.
func (p *ReportPipeline) Run(ctx context.Context, root string) error {
	// Ensure output directory exists
	if err := os.MkdirAll(p.outputDir, 0755); err != nil {
		return err
	}

	// 1. Generate report from stored series and roll events
	report, err := p.reportGen.Generate(ctx, root)
	if err != nil {
		return err
	}

	// 2. Write ROLL_REPORT.md
	reportMD := reporting.RenderMarkdown(report)
	reportPath := filepath.Join(p.outputDir, "ROLL_REPORT.md")
	if err := os.WriteFile(reportPath, []byte(reportMD), 0644); err != nil {
		return err
	}

	// 3. Write one continuous series CSV per stored series
	for _, row := range report.Series {
		key := domain.SeriesKey{Root: root, Policy: row.Policy, Length: row.Length}
		points, err := p.seriesStore.GetSeries(ctx, key)
		if err != nil {
			return err
		}
		seriesCSV := reporting.RenderSeriesCSV(points)
		seriesPath := filepath.Join(p.outputDir, "continuous_"+key.Slug()+".csv")
		if err := os.WriteFile(seriesPath, []byte(seriesCSV), 0644); err != nil {
			return err
		}
	}

	// 4. Write roll_events.csv
	eventsCSV := reporting.RenderRollEventsCSV(report.RollEvents)
	eventsPath := filepath.Join(p.outputDir, "roll_events.csv")
	return os.WriteFile(eventsPath, []byte(eventsCSV), 0644)
}
