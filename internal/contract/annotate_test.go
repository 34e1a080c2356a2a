package contract

import (
	"errors"
	"testing"
	"time"

	"futures-roll-lab/internal/domain"
)

func TestDecodeSymbol_Basic(t *testing.T) {
	month, digit, err := DecodeSymbol("GCZ3")
	if err != nil {
		t.Fatalf("DecodeSymbol failed: %v", err)
	}
	if month != time.December {
		t.Errorf("Expected December, got %v", month)
	}
	if digit != 3 {
		t.Errorf("Expected year digit 3, got %d", digit)
	}
}

func TestDecodeSymbol_AllMonthCodes(t *testing.T) {
	codes := []struct {
		letter byte
		month  time.Month
	}{
		{'F', time.January}, {'G', time.February}, {'H', time.March},
		{'J', time.April}, {'K', time.May}, {'M', time.June},
		{'N', time.July}, {'Q', time.August}, {'U', time.September},
		{'V', time.October}, {'X', time.November}, {'Z', time.December},
	}
	for _, c := range codes {
		month, _, err := DecodeSymbol("GC" + string(c.letter) + "5")
		if err != nil {
			t.Fatalf("Code %c: decode failed: %v", c.letter, err)
		}
		if month != c.month {
			t.Errorf("Code %c: expected %v, got %v", c.letter, c.month, month)
		}
	}
}

func TestDecodeSymbol_Errors(t *testing.T) {
	tests := []struct {
		name   string
		symbol string
		want   error
	}{
		{"unknown month letter", "GCA3", ErrMonthCode},
		{"lowercase month letter", "GCz3", ErrMonthCode},
		{"non-digit year", "GCZX", ErrYearDigit},
		{"too short", "GCZ", ErrSymbolLength},
		{"too long", "GCZ23", ErrSymbolLength},
		{"spread", "GCZ3-GCG4", ErrSymbolLength},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := DecodeSymbol(tt.symbol)
			if !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestContractYear_SpecificCases(t *testing.T) {
	tests := []struct {
		barYear int
		digit   int
		want    int
	}{
		{2023, 3, 2023}, // digit equals barYear mod 10: current decade, same year
		{2033, 3, 2033},
		{2023, 5, 2025}, // digit above: current decade
		{2023, 1, 2031}, // digit below: next decade
		{2029, 0, 2030},
		{2020, 9, 2029},
		{2030, 0, 2030},
	}
	for _, tt := range tests {
		got := ContractYear(tt.barYear, tt.digit)
		if got != tt.want {
			t.Errorf("ContractYear(%d, %d): expected %d, got %d", tt.barYear, tt.digit, tt.want, got)
		}
	}
}

func TestContractYear_WindowProperties(t *testing.T) {
	// Resolved year always ends in the digit and lies in [barYear, barYear+9].
	for barYear := 2019; barYear <= 2042; barYear++ {
		for digit := 0; digit <= 9; digit++ {
			got := ContractYear(barYear, digit)
			if got%10 != digit {
				t.Fatalf("ContractYear(%d, %d) = %d: last digit mismatch", barYear, digit, got)
			}
			if got < barYear || got > barYear+9 {
				t.Fatalf("ContractYear(%d, %d) = %d: outside ten-year window", barYear, digit, got)
			}
		}
	}
}

func TestExpiryLength(t *testing.T) {
	tests := []struct {
		name          string
		barYear       int
		barMonth      time.Month
		contractYear  int
		contractMonth time.Month
		want          int
	}{
		{"one month out", 2023, time.November, 2023, time.December, 1},
		{"expiring month", 2023, time.December, 2023, time.December, 0},
		{"cross year", 2023, time.December, 2024, time.January, 1},
		{"eleven months out", 2033, time.January, 2033, time.December, 11},
		{"expired contract", 2024, time.January, 2023, time.December, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExpiryLength(tt.barYear, tt.barMonth, tt.contractYear, tt.contractMonth)
			if got != tt.want {
				t.Errorf("Expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestNearRollDate_November2023(t *testing.T) {
	// Nov 2023 business days end 28, 29, 30; third from last is Tue Nov 28.
	// Minus 3 days lands on Sat Nov 25, pulled back to Fri Nov 24.
	got := NearRollDate(2023, time.November, 3)
	want := time.Date(2023, time.November, 24, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("Expected %s, got %s", want.Format("2006-01-02"), got.Format("2006-01-02"))
	}
}

func TestNearRollDate_SundayPullsBackOneDay(t *testing.T) {
	// Dec 2023: third from last business day is Wed Dec 27. Minus 3 days is
	// Sun Dec 24; the single one-day pull-back lands on Sat Dec 23.
	got := NearRollDate(2023, time.December, 3)
	want := time.Date(2023, time.December, 23, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("Expected %s, got %s", want.Format("2006-01-02"), got.Format("2006-01-02"))
	}
}

func TestNearRollDate_ZeroOffset(t *testing.T) {
	got := NearRollDate(2023, time.November, 0)
	want := time.Date(2023, time.November, 28, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("Expected %s, got %s", want.Format("2006-01-02"), got.Format("2006-01-02"))
	}
}

func TestNearRollDate_Deterministic(t *testing.T) {
	a := NearRollDate(2024, time.June, 3)
	b := NearRollDate(2024, time.June, 3)
	if !a.Equal(b) {
		t.Errorf("Same inputs produced %s and %s", a, b)
	}
	if a.Location() != time.UTC {
		t.Errorf("Roll date should be midnight UTC, got location %v", a.Location())
	}
}

func TestAnnotate_SpecScenario(t *testing.T) {
	// GCZ3 on 2023-11-15: contract year 2023, month 12, one month to expiry.
	bars := []*domain.Bar{
		{Symbol: "GCZ3", Timestamp: time.Date(2023, 11, 15, 0, 0, 0, 0, time.UTC)},
	}
	annotated, err := Annotate(bars, Options{})
	if err != nil {
		t.Fatalf("Annotate failed: %v", err)
	}
	if len(annotated) != 1 {
		t.Fatalf("Expected 1 annotated bar, got %d", len(annotated))
	}
	ab := annotated[0]
	if ab.ContractYear != 2023 {
		t.Errorf("Expected contract year 2023, got %d", ab.ContractYear)
	}
	if ab.ContractMonth != time.December {
		t.Errorf("Expected December, got %v", ab.ContractMonth)
	}
	if ab.ExpiryLength != 1 {
		t.Errorf("Expected expiry length 1, got %d", ab.ExpiryLength)
	}
	if ab.Root != "GC" {
		t.Errorf("Expected root GC, got %q", ab.Root)
	}
	if !ab.RollDate.IsZero() {
		t.Errorf("Roll date should be zero without NearRoll, got %s", ab.RollDate)
	}
}

func TestAnnotate_DecadeBoundary(t *testing.T) {
	// GCZ3 quoted in 2033: digit 3 equals 2033 mod 10, so current decade.
	bars := []*domain.Bar{
		{Symbol: "GCZ3", Timestamp: time.Date(2033, 1, 10, 0, 0, 0, 0, time.UTC)},
	}
	annotated, err := Annotate(bars, Options{})
	if err != nil {
		t.Fatalf("Annotate failed: %v", err)
	}
	if annotated[0].ContractYear != 2033 {
		t.Errorf("Expected contract year 2033, got %d", annotated[0].ContractYear)
	}
	if annotated[0].ExpiryLength != 11 {
		t.Errorf("Expected expiry length 11, got %d", annotated[0].ExpiryLength)
	}
}

func TestAnnotate_FiltersNonVanillaSymbols(t *testing.T) {
	// Spreads and odd-length symbols are filtered, not errors.
	bars := []*domain.Bar{
		{Symbol: "GCZ3-GCG4", Timestamp: time.Date(2023, 11, 15, 0, 0, 0, 0, time.UTC)},
		{Symbol: "GCZ3", Timestamp: time.Date(2023, 11, 15, 0, 0, 0, 0, time.UTC)},
		{Symbol: "GC", Timestamp: time.Date(2023, 11, 15, 0, 0, 0, 0, time.UTC)},
	}
	annotated, err := Annotate(bars, Options{})
	if err != nil {
		t.Fatalf("Annotate failed: %v", err)
	}
	if len(annotated) != 1 {
		t.Fatalf("Expected 1 annotated bar, got %d", len(annotated))
	}
	if annotated[0].Symbol != "GCZ3" {
		t.Errorf("Expected GCZ3 to survive, got %q", annotated[0].Symbol)
	}
}

func TestAnnotate_BadMonthCodeFails(t *testing.T) {
	// A four-character symbol with an unknown month letter is a hard failure.
	bars := []*domain.Bar{
		{Symbol: "GCA3", Timestamp: time.Date(2023, 11, 15, 0, 0, 0, 0, time.UTC)},
	}
	_, err := Annotate(bars, Options{})
	if !errors.Is(err, ErrMonthCode) {
		t.Errorf("Expected ErrMonthCode, got %v", err)
	}
}

func TestAnnotate_NegativeExpiryPreserved(t *testing.T) {
	// Bar dated after contract expiry: negative length is kept, not filtered.
	bars := []*domain.Bar{
		{Symbol: "GCZ3", Timestamp: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)},
	}
	annotated, err := Annotate(bars, Options{})
	if err != nil {
		t.Fatalf("Annotate failed: %v", err)
	}
	if len(annotated) != 1 {
		t.Fatalf("Expected 1 annotated bar, got %d", len(annotated))
	}
	if annotated[0].ExpiryLength != -1 {
		t.Errorf("Expected expiry length -1, got %d", annotated[0].ExpiryLength)
	}
}

func TestAnnotate_NearRollSharedPerContract(t *testing.T) {
	// All bars of one contract share a single roll date.
	bars := []*domain.Bar{
		{Symbol: "GCZ3", Timestamp: time.Date(2023, 11, 15, 0, 0, 0, 0, time.UTC)},
		{Symbol: "GCZ3", Timestamp: time.Date(2023, 12, 5, 0, 0, 0, 0, time.UTC)},
		{Symbol: "GCX3", Timestamp: time.Date(2023, 11, 15, 0, 0, 0, 0, time.UTC)},
	}
	annotated, err := Annotate(bars, Options{NearRoll: true, DaysBeforeExpiry: 3})
	if err != nil {
		t.Fatalf("Annotate failed: %v", err)
	}
	if !annotated[0].RollDate.Equal(annotated[1].RollDate) {
		t.Errorf("Same contract should share a roll date: %s vs %s",
			annotated[0].RollDate, annotated[1].RollDate)
	}
	// GCZ3 rolls in December, GCX3 in November.
	if annotated[0].RollDate.Equal(annotated[2].RollDate) {
		t.Error("Different contracts should have different roll dates")
	}
	wantX := time.Date(2023, time.November, 24, 0, 0, 0, 0, time.UTC)
	if !annotated[2].RollDate.Equal(wantX) {
		t.Errorf("GCX3: expected roll date %s, got %s",
			wantX.Format("2006-01-02"), annotated[2].RollDate.Format("2006-01-02"))
	}
}
