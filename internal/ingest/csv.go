// Package ingest loads raw contract bars from OHLCV CSV files into bar
// storage. Parsing is strict: a malformed row fails the whole file instead
// of being silently skipped.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"futures-roll-lab/internal/contract"
	"futures-roll-lab/internal/domain"
)

// Required CSV columns. Column order is free; names are matched on the
// header row.
const (
	colTimestamp = "ts_event"
	colOpen      = "open"
	colHigh      = "high"
	colLow       = "low"
	colClose     = "close"
	colVolume    = "volume"
	colSymbol    = "symbol"
)

var requiredColumns = []string{
	colTimestamp, colOpen, colHigh, colLow, colClose, colVolume, colSymbol,
}

// ReadBars parses a databento-style OHLCV CSV. Timestamps are RFC3339 and
// converted to loc so later calendar-date handling sees exchange-local days.
// A nil loc keeps timestamps in UTC.
func ReadBars(r io.Reader, loc *time.Location) ([]*domain.Bar, error) {
	if loc == nil {
		loc = time.UTC
	}

	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(name)] = i
	}
	for _, name := range requiredColumns {
		if _, ok := idx[name]; !ok {
			return nil, fmt.Errorf("csv header missing column %q", name)
		}
	}

	var bars []*domain.Bar
	line := 1
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}
		line++

		bar, err := parseBar(record, idx, loc)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}
		bars = append(bars, bar)
	}

	return bars, nil
}

func parseBar(record []string, idx map[string]int, loc *time.Location) (*domain.Bar, error) {
	ts, err := time.Parse(time.RFC3339, record[idx[colTimestamp]])
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", colTimestamp, err)
	}

	symbol := strings.TrimSpace(record[idx[colSymbol]])
	if symbol == "" {
		return nil, fmt.Errorf("empty %s", colSymbol)
	}

	open, err := parsePrice(record, idx, colOpen)
	if err != nil {
		return nil, err
	}
	high, err := parsePrice(record, idx, colHigh)
	if err != nil {
		return nil, err
	}
	low, err := parsePrice(record, idx, colLow)
	if err != nil {
		return nil, err
	}
	closePrice, err := parsePrice(record, idx, colClose)
	if err != nil {
		return nil, err
	}
	volume, err := parsePrice(record, idx, colVolume)
	if err != nil {
		return nil, err
	}

	return &domain.Bar{
		Root:      contract.RootOf(symbol),
		Symbol:    symbol,
		Timestamp: ts.In(loc),
		Open:      open,
		High:      high,
		Low:       low,
		Close:     closePrice,
		Volume:    volume,
	}, nil
}

func parsePrice(record []string, idx map[string]int, col string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(record[idx[col]]), 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", col, err)
	}
	return v, nil
}
