package ingest

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"futures-roll-lab/internal/storage"
)

// Runner loads bar CSV files into a BarStore.
type Runner struct {
	barStore storage.BarStore
	loc      *time.Location
	logger   *log.Logger
}

// RunnerOptions contains configuration for creating a Runner.
type RunnerOptions struct {
	BarStore storage.BarStore
	Location *time.Location // bar timestamps are converted here; nil keeps UTC
	Logger   *log.Logger
}

// NewRunner creates a new ingest runner.
func NewRunner(opts RunnerOptions) *Runner {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Runner{
		barStore: opts.BarStore,
		loc:      loc,
		logger:   logger,
	}
}

// Result contains statistics from an ingest run.
type Result struct {
	FilesProcessed int
	BarsIngested   int
	Duration       time.Duration
}

// IngestFiles loads each CSV file into the bar store. Each file is one
// atomic batch: a failed file stops the run, files before it stay ingested.
func (r *Runner) IngestFiles(ctx context.Context, paths []string) (*Result, error) {
	start := time.Now()
	result := &Result{}

	for _, path := range paths {
		n, err := r.ingestFile(ctx, path)
		if err != nil {
			result.Duration = time.Since(start)
			return result, fmt.Errorf("ingest %s: %w", path, err)
		}
		result.FilesProcessed++
		result.BarsIngested += n
		r.logger.Printf("Ingested %d bars from %s", n, path)
	}

	result.Duration = time.Since(start)
	r.logger.Printf("Ingest finished: %d files, %d bars in %v",
		result.FilesProcessed, result.BarsIngested, result.Duration)
	return result, nil
}

func (r *Runner) ingestFile(ctx context.Context, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	bars, err := ReadBars(f, r.loc)
	if err != nil {
		return 0, err
	}
	if len(bars) == 0 {
		return 0, nil
	}

	if err := r.barStore.InsertBulk(ctx, bars); err != nil {
		return 0, fmt.Errorf("store bars: %w", err)
	}
	return len(bars), nil
}
