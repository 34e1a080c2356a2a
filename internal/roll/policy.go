// Package roll builds continuous back-adjusted series from annotated bars.
// A Policy reduces overlapping contracts to one bar per calendar date and
// flags roll days; the shared engine then computes each roll's open/close
// gap and propagates a reverse cumulative adjustment so price levels connect
// smoothly while the most recent row stays unadjusted.
//
// All steps are pure batch transformations over in-memory slices. The
// cumulative pass is order-dependent, so the engine re-establishes
// date-ascending order before adjusting.
package roll

import (
	"errors"
	"fmt"

	"futures-roll-lab/internal/domain"
)

// Policy selects the daily rows for one continuous series and identifies
// its roll days.
type Policy interface {
	// Name returns the policy identifier recorded in series keys.
	Name() string
	// Length returns the series length parameter recorded in series keys.
	Length() int
	// Select reduces annotated bars to at most one bar per calendar date,
	// sorted date ascending.
	Select(bars []*domain.AnnotatedBar) []*domain.AnnotatedBar
	// IsRollDay reports whether row i of a selected series is a roll day.
	IsRollDay(i int, sel []*domain.AnnotatedBar) bool
	// AlignOffset is the cumulative-total alignment: 0 means a row's total
	// includes its own gap, -1 means the total is read from the next row so
	// each gap stops applying one row earlier.
	AlignOffset() int
}

// Config selects and parameterizes a roll policy.
type Config struct {
	Policy string // domain.PolicyGeneric | domain.PolicyNearRoll
	Length int    // target expiry length, generic policy only
}

// Policy construction errors.
var (
	ErrUnknownPolicy  = errors.New("unknown roll policy")
	ErrNegativeLength = errors.New("generic length must not be negative")
)

// FromConfig builds the policy described by cfg.
func FromConfig(cfg Config) (Policy, error) {
	switch cfg.Policy {
	case domain.PolicyGeneric:
		return NewGeneric(cfg.Length)
	case domain.PolicyNearRoll:
		return NewNearRoll(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPolicy, cfg.Policy)
	}
}
