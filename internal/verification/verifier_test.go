package verification

import (
	"context"
	"errors"
	"io"
	"log"
	"math"
	"testing"
	"time"

	"futures-roll-lab/internal/domain"
	"futures-roll-lab/internal/storage/memory"
)

func vday(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func vp(date time.Time, symbol string, expiry int, open, close, adj, total float64) *domain.SeriesPoint {
	return &domain.SeriesPoint{
		Date:            date,
		Symbol:          symbol,
		ExpiryLength:    expiry,
		Open:            open,
		High:            close + 1,
		Low:             open - 1,
		Close:           close,
		Volume:          1000,
		Adjustment:      adj,
		TotalAdjustment: total,
	}
}

// genericFixture is a four-row generic series with one roll (gap 5) already
// back-adjusted: GCX3 close on the roll row equals GCZ3 open after it.
func genericFixture() (domain.SeriesKey, []*domain.SeriesPoint, []*domain.RollEvent) {
	key := domain.SeriesKey{Root: "GC", Policy: domain.PolicyGeneric, Length: 1}
	points := []*domain.SeriesPoint{
		vp(vday(2023, time.November, 16), "GCX3", 1, 105, 106, 0, 5),
		vp(vday(2023, time.November, 17), "GCX3", 1, 106, 107, 5, 5),
		vp(vday(2023, time.November, 20), "GCZ3", 1, 107, 108, 0, 0),
		vp(vday(2023, time.November, 21), "GCZ3", 1, 108, 109, 0, 0),
	}
	events := []*domain.RollEvent{
		{
			Root:       "GC",
			Policy:     domain.PolicyGeneric,
			Length:     1,
			Date:       vday(2023, time.November, 17),
			FromSymbol: "GCX3",
			ToSymbol:   "GCZ3",
			Gap:        5,
		},
	}
	return key, points, events
}

func hasCheck(result *SeriesResult, check string) bool {
	for _, d := range result.Divergences {
		if d.Check == check {
			return true
		}
	}
	return false
}

func TestVerifyPoints_CleanGenericSeriesPasses(t *testing.T) {
	key, points, events := genericFixture()

	result := VerifyPoints(key, points, events)

	if !result.Passed {
		t.Errorf("Expected pass, got divergences: %v", result.Divergences)
	}
	if result.RowsChecked != 4 {
		t.Errorf("Expected 4 rows checked, got %d", result.RowsChecked)
	}
}

func TestVerifyPoints_EmptySeriesPasses(t *testing.T) {
	key := domain.SeriesKey{Root: "GC", Policy: domain.PolicyGeneric, Length: 1}

	result := VerifyPoints(key, nil, nil)

	if !result.Passed {
		t.Errorf("Expected empty series to pass, got %v", result.Divergences)
	}
	if result.RowsChecked != 0 {
		t.Errorf("Expected 0 rows checked, got %d", result.RowsChecked)
	}
}

func TestVerifyPoints_DuplicateDateFails(t *testing.T) {
	key, points, events := genericFixture()
	points[2].Date = points[1].Date

	result := VerifyPoints(key, points, events)

	if result.Passed {
		t.Fatal("Expected failure for duplicate date")
	}
	if !hasCheck(result, "row_order") {
		t.Errorf("Expected row_order divergence, got %v", result.Divergences)
	}
}

func TestVerifyPoints_OutOfOrderFails(t *testing.T) {
	key, points, events := genericFixture()
	points[0], points[1] = points[1], points[0]

	result := VerifyPoints(key, points, events)

	if !hasCheck(result, "row_order") {
		t.Errorf("Expected row_order divergence, got %v", result.Divergences)
	}
}

func TestVerifyPoints_ExpiryOutsideWindowFails(t *testing.T) {
	key, points, events := genericFixture()
	points[3].ExpiryLength = 3 // window for length 1 is {1, 2}

	result := VerifyPoints(key, points, events)

	if !hasCheck(result, "expiry_window") {
		t.Errorf("Expected expiry_window divergence, got %v", result.Divergences)
	}
}

func TestVerifyPoints_NearRollWindow(t *testing.T) {
	key := domain.SeriesKey{Root: "GC", Policy: domain.PolicyNearRoll, Length: 0}
	points := []*domain.SeriesPoint{
		vp(vday(2023, time.November, 16), "GCX3", 0, 100, 101, 0, 0),
		vp(vday(2023, time.November, 17), "GCZ3", 1, 104, 105, 0, 0),
	}

	result := VerifyPoints(key, points, nil)
	if !result.Passed {
		t.Errorf("Expected near-roll window {0, 1} to pass, got %v", result.Divergences)
	}

	points[1].ExpiryLength = 2
	result = VerifyPoints(key, points, nil)
	if !hasCheck(result, "expiry_window") {
		t.Errorf("Expected expiry_window divergence, got %v", result.Divergences)
	}
}

func TestVerifyPoints_AnchorBreachFails(t *testing.T) {
	key, points, events := genericFixture()
	points[3].TotalAdjustment = 0.5

	result := VerifyPoints(key, points, events)

	if !hasCheck(result, "anchor") {
		t.Errorf("Expected anchor divergence, got %v", result.Divergences)
	}
}

func TestVerifyPoints_ContinuityBreachFails(t *testing.T) {
	key, points, events := genericFixture()
	// Adjusted open after the roll no longer matches the roll row close
	points[2].Open = 107.5

	result := VerifyPoints(key, points, events)

	if !hasCheck(result, "roll_continuity") {
		t.Errorf("Expected roll_continuity divergence, got %v", result.Divergences)
	}
}

func TestVerifyPoints_RollSymbolsMismatchFails(t *testing.T) {
	key, points, events := genericFixture()
	events[0].FromSymbol = "GCV3"

	result := VerifyPoints(key, points, events)

	if !hasCheck(result, "roll_symbols") {
		t.Errorf("Expected roll_symbols divergence, got %v", result.Divergences)
	}
}

func TestVerifyPoints_EventOffSeriesFails(t *testing.T) {
	key, points, events := genericFixture()
	events[0].Date = vday(2023, time.November, 18)

	result := VerifyPoints(key, points, events)

	if !hasCheck(result, "roll_continuity") {
		t.Errorf("Expected roll_continuity divergence, got %v", result.Divergences)
	}
}

func TestVerifyPoints_AdjustmentWithoutEventFails(t *testing.T) {
	// Near-roll series store no events; a nonzero adjustment is a breach
	key := domain.SeriesKey{Root: "GC", Policy: domain.PolicyNearRoll, Length: 0}
	points := []*domain.SeriesPoint{
		vp(vday(2023, time.November, 16), "GCX3", 0, 100, 101, 0, 3),
		vp(vday(2023, time.November, 17), "GCZ3", 1, 104, 105, 3, 0),
		vp(vday(2023, time.November, 20), "GCZ3", 1, 105, 106, 0, 0),
	}

	result := VerifyPoints(key, points, nil)

	if !hasCheck(result, "adjustment_events") {
		t.Errorf("Expected adjustment_events divergence, got %v", result.Divergences)
	}
}

func TestVerifyPoints_AccumulationBreachFails(t *testing.T) {
	key, points, events := genericFixture()
	points[0].TotalAdjustment = 6

	result := VerifyPoints(key, points, events)

	if !hasCheck(result, "accumulation") {
		t.Errorf("Expected accumulation divergence, got %v", result.Divergences)
	}
}

func TestVerifyPoints_NaNFails(t *testing.T) {
	key, points, events := genericFixture()
	points[0].Close = math.NaN()

	result := VerifyPoints(key, points, events)

	if !hasCheck(result, "finite_values") {
		t.Errorf("Expected finite_values divergence, got %v", result.Divergences)
	}
}

func TestSeriesVerifier_VerifySeriesAndRoot(t *testing.T) {
	ctx := context.Background()
	seriesStore := memory.NewSeriesStore()
	eventStore := memory.NewRollEventStore()

	key, points, events := genericFixture()
	if err := seriesStore.ReplaceSeries(ctx, key, points); err != nil {
		t.Fatalf("ReplaceSeries failed: %v", err)
	}
	if err := eventStore.ReplaceForSeries(ctx, key, events); err != nil {
		t.Fatalf("ReplaceForSeries failed: %v", err)
	}

	verifier := NewSeriesVerifier(SeriesVerifierOptions{
		SeriesStore: seriesStore,
		EventStore:  eventStore,
		Logger:      log.New(io.Discard, "", 0),
	})

	result, err := verifier.VerifySeries(ctx, key)
	if err != nil {
		t.Fatalf("VerifySeries failed: %v", err)
	}
	if !result.Passed {
		t.Errorf("Expected pass, got %v", result.Divergences)
	}

	report, err := verifier.VerifyRoot(ctx, "GC")
	if err != nil {
		t.Fatalf("VerifyRoot failed: %v", err)
	}
	if report.TotalSeries != 1 || report.PassedSeries != 1 || report.FailedSeries != 0 {
		t.Errorf("Expected 1/1/0 series, got %d/%d/%d",
			report.TotalSeries, report.PassedSeries, report.FailedSeries)
	}
}

func TestSeriesVerifier_MissingSeries(t *testing.T) {
	verifier := NewSeriesVerifier(SeriesVerifierOptions{
		SeriesStore: memory.NewSeriesStore(),
		EventStore:  memory.NewRollEventStore(),
		Logger:      log.New(io.Discard, "", 0),
	})

	key := domain.SeriesKey{Root: "GC", Policy: domain.PolicyGeneric, Length: 1}
	_, err := verifier.VerifySeries(context.Background(), key)
	if !errors.Is(err, ErrSeriesNotFound) {
		t.Errorf("Expected ErrSeriesNotFound, got %v", err)
	}
}

func TestSeriesVerifier_FailureCountsInReport(t *testing.T) {
	ctx := context.Background()
	seriesStore := memory.NewSeriesStore()
	eventStore := memory.NewRollEventStore()

	key, points, events := genericFixture()
	points[3].TotalAdjustment = 1.0 // break the anchor
	if err := seriesStore.ReplaceSeries(ctx, key, points); err != nil {
		t.Fatalf("ReplaceSeries failed: %v", err)
	}
	if err := eventStore.ReplaceForSeries(ctx, key, events); err != nil {
		t.Fatalf("ReplaceForSeries failed: %v", err)
	}

	verifier := NewSeriesVerifier(SeriesVerifierOptions{
		SeriesStore: seriesStore,
		EventStore:  eventStore,
		Logger:      log.New(io.Discard, "", 0),
	})

	report, err := verifier.VerifyRoot(ctx, "GC")
	if err != nil {
		t.Fatalf("VerifyRoot failed: %v", err)
	}
	if report.FailedSeries != 1 {
		t.Errorf("Expected 1 failed series, got %d", report.FailedSeries)
	}
}
