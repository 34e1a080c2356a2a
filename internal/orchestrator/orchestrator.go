// Package orchestrator coordinates the batch build.
// It runs: load bars → annotate contracts → build series → replace stored output
package orchestrator

import (
	"context"
	"fmt"
	"log"
	"time"

	"futures-roll-lab/internal/contract"
	"futures-roll-lab/internal/domain"
	"futures-roll-lab/internal/roll"
	"futures-roll-lab/internal/storage"
)

// Orchestrator coordinates one batch build per Run call.
type Orchestrator struct {
	// Stores
	barStore    storage.BarStore
	seriesStore storage.SeriesStore
	eventStore  storage.RollEventStore

	// Configs
	configs          []roll.Config
	daysBeforeExpiry int

	// Options
	loc     *time.Location
	verbose bool
}

// Options for creating an Orchestrator.
type Options struct {
	// Required stores
	BarStore    storage.BarStore
	SeriesStore storage.SeriesStore
	EventStore  storage.RollEventStore

	// Series to build on each run
	Configs []roll.Config

	// DaysBeforeExpiry is the near-roll calendar offset before expiry.
	// Used as given, 0 is legal.
	DaysBeforeExpiry int

	// Location restores the exchange zone on loaded timestamps. Stored
	// timestamps come back normalized, and a bar's calendar date and
	// contract month depend on its exchange-local time. Nil keeps the
	// stored zone.
	Location *time.Location

	Verbose bool
}

// New creates a new Orchestrator.
func New(opts Options) *Orchestrator {
	return &Orchestrator{
		barStore:         opts.BarStore,
		seriesStore:      opts.SeriesStore,
		eventStore:       opts.EventStore,
		configs:          opts.Configs,
		daysBeforeExpiry: opts.DaysBeforeExpiry,
		loc:              opts.Location,
		verbose:          opts.Verbose,
	}
}

// SeriesResult summarizes one built series.
type SeriesResult struct {
	Key         domain.SeriesKey
	Points      int
	Rolls       int
	MissingDays int
}

// RunResult contains results from one build run.
type RunResult struct {
	BarsProcessed int
	SeriesBuilt   int
	PointsWritten int
	RollsDetected int
	MissingDays   int
	Series        []SeriesResult
	Errors        []string
}

// Run executes the batch build for one root.
// Phases:
//  1. Load bars
//  2. Annotate contract metadata
//  3. Build each configured series and replace its stored points and events
//
// A failed store write marks that series in Errors and the run continues;
// re-running the build heals partial writes because every write replaces the
// series wholesale.
func (o *Orchestrator) Run(ctx context.Context, root string) (*RunResult, error) {
	result := &RunResult{}

	// Phase 1: Load bars
	o.log("Phase 1: Loading bars for %s...", root)
	bars, err := o.barStore.GetByRoot(ctx, root)
	if err != nil {
		return nil, fmt.Errorf("phase 1 (load bars) failed: %w", err)
	}
	o.log("  Found %d bars", len(bars))

	if len(bars) == 0 {
		return result, nil
	}

	if o.loc != nil {
		for _, b := range bars {
			b.Timestamp = b.Timestamp.In(o.loc)
		}
	}

	// Phase 2: Annotation
	o.log("Phase 2: Annotating bars...")
	annotated, err := contract.Annotate(bars, contract.Options{
		NearRoll:         o.needsRollDates(),
		DaysBeforeExpiry: o.daysBeforeExpiry,
	})
	if err != nil {
		return nil, fmt.Errorf("phase 2 (annotate) failed: %w", err)
	}
	result.BarsProcessed = len(annotated)
	o.log("  Annotated %d bars (%d filtered)", len(annotated), len(bars)-len(annotated))

	// Phase 3: Build and store series
	o.log("Phase 3: Building series...")
	for _, cfg := range o.configs {
		p, err := roll.FromConfig(cfg)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("policy %s/%d: %v", cfg.Policy, cfg.Length, err))
			continue
		}

		res := roll.Build(root, annotated, p)
		if err := o.seriesStore.ReplaceSeries(ctx, res.Key, res.Points); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("store series %s: %v", res.Key, err))
			continue
		}
		if err := o.eventStore.ReplaceForSeries(ctx, res.Key, res.Events); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("store roll events %s: %v", res.Key, err))
			continue
		}

		missing := roll.MissingDays(res.Points)
		result.SeriesBuilt++
		result.PointsWritten += len(res.Points)
		result.RollsDetected += len(res.Events)
		result.MissingDays += missing
		result.Series = append(result.Series, SeriesResult{
			Key:         res.Key,
			Points:      len(res.Points),
			Rolls:       len(res.Events),
			MissingDays: missing,
		})

		o.log("  %s: %d points, %d rolls", res.Key, len(res.Points), len(res.Events))
		if missing > 0 {
			o.log("  %s: %d weekdays without a selected row", res.Key, missing)
		}
	}

	o.log("Build completed: %d series, %d points, %d rolls",
		result.SeriesBuilt, result.PointsWritten, result.RollsDetected)

	return result, nil
}

// needsRollDates reports whether any configured series requires per-contract
// roll dates from annotation.
func (o *Orchestrator) needsRollDates() bool {
	for _, cfg := range o.configs {
		if cfg.Policy == domain.PolicyNearRoll {
			return true
		}
	}
	return false
}

func (o *Orchestrator) log(format string, args ...interface{}) {
	if o.verbose {
		log.Printf("[orchestrator] "+format, args...)
	}
}
