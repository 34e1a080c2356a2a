// Package contract decodes futures contract symbols and annotates raw bars
// with contract year, contract month, expiry length, and optional near-roll
// dates. All transformations are pure; decode failures surface as errors and
// are never silently defaulted.
package contract

import (
	"errors"
	"fmt"
	"time"
)

// monthCodes maps futures month-code letters to delivery months.
// Process-wide constant; never mutated after init.
var monthCodes = map[byte]time.Month{
	'F': time.January,
	'G': time.February,
	'H': time.March,
	'J': time.April,
	'K': time.May,
	'M': time.June,
	'N': time.July,
	'Q': time.August,
	'U': time.September,
	'V': time.October,
	'X': time.November,
	'Z': time.December,
}

// SymbolLen is the length of a vanilla single-contract symbol:
// [root:2][month code:1][year digit:1]. Symbols of any other length
// (spreads, combos) are excluded from the pipeline, not decoded.
const SymbolLen = 4

// Decode errors.
var (
	ErrSymbolLength = errors.New("symbol is not a vanilla contract code")
	ErrMonthCode    = errors.New("unknown month code")
	ErrYearDigit    = errors.New("year character is not a digit")
)

// DecodeSymbol splits a vanilla contract symbol into its delivery month and
// trailing year digit. An unknown month-code letter or a non-digit year
// character is a hard decode failure.
func DecodeSymbol(symbol string) (time.Month, int, error) {
	if len(symbol) != SymbolLen {
		return 0, 0, fmt.Errorf("%w: %q", ErrSymbolLength, symbol)
	}
	month, ok := monthCodes[symbol[2]]
	if !ok {
		return 0, 0, fmt.Errorf("%w: %q", ErrMonthCode, symbol)
	}
	d := symbol[3]
	if d < '0' || d > '9' {
		return 0, 0, fmt.Errorf("%w: %q", ErrYearDigit, symbol)
	}
	return month, int(d - '0'), nil
}

// RootOf returns the two-character root of a contract symbol. Symbols
// shorter than two characters are returned unchanged.
func RootOf(symbol string) string {
	if len(symbol) < 2 {
		return symbol
	}
	return symbol[:2]
}

// ContractYear resolves a single trailing year digit against the bar's own
// year: the contract year is the value in the ten-year window ahead of the
// bar that ends in digit. Digits below barYear mod 10 land in the next
// decade, all others in the current one, so a digit equal to barYear mod 10
// resolves to barYear itself.
func ContractYear(barYear, digit int) int {
	base := barYear / 10 * 10
	if digit < barYear%10 {
		base += 10
	}
	return base + digit
}

// ExpiryLength is the whole-month distance from the bar's (year, month) to
// the contract's (year, month). Day-of-month is never consulted. Negative
// values mean the bar references an already-expired contract; they are a
// data-quality signal and are preserved, not filtered.
func ExpiryLength(barYear int, barMonth time.Month, contractYear int, contractMonth time.Month) int {
	return (contractYear-barYear)*12 + int(contractMonth) - int(barMonth)
}
