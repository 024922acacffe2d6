package model

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// InvalidInputError reports an out-of-range or contradictory numeric input.
// It is raised at the entry point of the offending function, before any
// partial computation.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input: %s %s", e.Field, e.Reason)
}

// ReconciliationMismatchError reports a cash bridge that does not tie out.
// This indicates an engine defect and should never surface in correct
// operation, but must be detectable rather than masked.
type ReconciliationMismatchError struct {
	Expected decimal.Decimal // net cash change per the forecast
	Actual   decimal.Decimal // net income plus bridge adjustments
}

func (e *ReconciliationMismatchError) Error() string {
	return fmt.Sprintf("reconciliation mismatch: bridge sums to %s, forecast cash delta is %s (diff %s)",
		e.Actual.String(), e.Expected.String(), e.Actual.Sub(e.Expected).String())
}

// TooManyCombinationsError reports a sensitivity sweep exceeding the safety
// ceiling. Raised before any combination is evaluated.
type TooManyCombinationsError struct {
	Requested int
	Ceiling   int
}

func (e *TooManyCombinationsError) Error() string {
	return fmt.Sprintf("too many combinations: %d requested, ceiling is %d", e.Requested, e.Ceiling)
}
