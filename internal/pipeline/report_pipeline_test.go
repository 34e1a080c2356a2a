package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"futures-roll-lab/internal/domain"
	"futures-roll-lab/internal/orchestrator"
	"futures-roll-lab/internal/roll"
	"futures-roll-lab/internal/storage/memory"
)

// buildFixtureSeries loads the gold fixtures and builds both policies,
// returning the populated stores.
func buildFixtureSeries(t *testing.T) (*memory.SeriesStore, *memory.RollEventStore) {
	t.Helper()
	ctx := context.Background()

	barStore := memory.NewBarStore()
	seriesStore := memory.NewSeriesStore()
	eventStore := memory.NewRollEventStore()

	require.NoError(t, LoadFixtures(ctx, barStore))

	orch := orchestrator.New(orchestrator.Options{
		BarStore:    barStore,
		SeriesStore: seriesStore,
		EventStore:  eventStore,
		Configs: []roll.Config{
			{Policy: domain.PolicyGeneric, Length: 1},
			{Policy: domain.PolicyNearRoll},
		},
		DaysBeforeExpiry: 3,
	})
	result, err := orch.Run(ctx, "GC")
	require.NoError(t, err)
	require.Empty(t, result.Errors)
	require.Equal(t, 2, result.SeriesBuilt)

	return seriesStore, eventStore
}

func readArtifact(t *testing.T, dir, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	return string(data)
}

func TestReportPipeline_Run_WritesArtifacts(t *testing.T) {
	ctx := context.Background()
	seriesStore, eventStore := buildFixtureSeries(t)
	dir := t.TempDir()

	pipeline := NewReportPipeline(seriesStore, eventStore, dir).
		WithClock(func() time.Time {
			return time.Date(2023, time.December, 1, 18, 30, 0, 0, time.UTC)
		})
	require.NoError(t, pipeline.Run(ctx, "GC"))

	report := readArtifact(t, dir, "ROLL_REPORT.md")
	assert.Contains(t, report, "# Roll Report: GC")
	assert.Contains(t, report, "Generated: 2023-12-01T18:30:00Z")
	assert.Contains(t, report,
		"| generic | 1 | 9 | 2023-11-20 | 2023-12-01 | 1 | 1 | 1 | 20.5000 | 20.5000 |")
	assert.Contains(t, report,
		"| near_roll | 0 | 7 | 2023-11-20 | 2023-12-01 | 1 | 0 | 3 | 0.0000 | 0.0000 |")
	assert.Contains(t, report, "| generic | 1 | 2023-11-30 | GCZ3 | GCG4 | 20.5000 |")

	generic := readArtifact(t, dir, "continuous_GC_generic_1.csv")
	assert.Equal(t, 10, strings.Count(generic, "\n"))
	assert.True(t, strings.HasPrefix(generic,
		"date,symbol,expiry_length,open,high,low,close,volume,adjustment,total_adjustment\n"))
	// Every pre-roll row carries the 20.5 back-adjustment
	assert.Contains(t, generic,
		"2023-11-20,GCZ3,1,2010.500000,2013.000000,2009.000000,2011.500000,1500,0.000000,20.500000\n")
	assert.Contains(t, generic,
		"2023-11-30,GCZ3,1,2014.500000,2016.000000,2011.000000,2012.500000,2400,20.500000,20.500000\n")
	assert.Contains(t, generic,
		"2023-12-01,GCG4,2,2012.500000,2015.000000,2011.000000,2013.500000,600,0.000000,0.000000\n")

	nearRoll := readArtifact(t, dir, "continuous_GC_near_roll_0.csv")
	assert.Equal(t, 8, strings.Count(nearRoll, "\n"))
	// The splice keeps raw levels on both sides of the November 24 switch
	assert.Contains(t, nearRoll,
		"2023-11-22,GCX3,0,1984.500000,1986.500000,1983.000000,1985.000000,390,0.000000,0.000000\n")
	assert.Contains(t, nearRoll,
		"2023-11-24,GCZ3,1,1992.000000,1994.000000,1990.500000,1992.500000,1900,0.000000,0.000000\n")

	events := readArtifact(t, dir, "roll_events.csv")
	assert.Equal(t,
		"policy,length,date,from_symbol,to_symbol,gap\n"+
			"generic,1,2023-11-30,GCZ3,GCG4,20.500000\n",
		events)
}

func TestReportPipeline_Run_CreatesOutputDir(t *testing.T) {
	ctx := context.Background()
	seriesStore, eventStore := buildFixtureSeries(t)
	dir := filepath.Join(t.TempDir(), "nested", "out")

	pipeline := NewReportPipeline(seriesStore, eventStore, dir)
	require.NoError(t, pipeline.Run(ctx, "GC"))

	_, err := os.Stat(filepath.Join(dir, "ROLL_REPORT.md"))
	assert.NoError(t, err)
}

func TestReportPipeline_Run_EmptyRootStillWritesReport(t *testing.T) {
	ctx := context.Background()
	seriesStore := memory.NewSeriesStore()
	eventStore := memory.NewRollEventStore()
	dir := t.TempDir()

	pipeline := NewReportPipeline(seriesStore, eventStore, dir)
	require.NoError(t, pipeline.Run(ctx, "SI"))

	report := readArtifact(t, dir, "ROLL_REPORT.md")
	assert.Contains(t, report, "# Roll Report: SI")
	assert.Contains(t, report, "No series stored.")
	assert.Contains(t, report, "No roll events recorded.")

	events := readArtifact(t, dir, "roll_events.csv")
	assert.Equal(t, "policy,length,date,from_symbol,to_symbol,gap\n", events)

	matches, err := filepath.Glob(filepath.Join(dir, "continuous_*.csv"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestLoadFixtures(t *testing.T) {
	ctx := context.Background()
	store := memory.NewBarStore()
	require.NoError(t, LoadFixtures(ctx, store))

	count, err := store.CountByRoot(ctx, "GC")
	require.NoError(t, err)
	assert.Equal(t, int64(18), count)

	// Loading twice collides on (symbol, timestamp)
	require.Error(t, LoadFixtures(ctx, store))
}
