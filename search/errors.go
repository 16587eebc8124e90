package search

import (
	"errors"
	"fmt"
)

var (
	// ErrComplete signals that fewer than two nodes are open. It is the normal
	// end of clustering, not a failure.
	ErrComplete = errors.New("search: clustering complete")

	// ErrNoCandidates is returned when no combination was scored at all,
	// e.g. because no open pair shares an attribute.
	ErrNoCandidates = errors.New("search: no candidate combination")

	// ErrScoringFailed wraps an error or panic of the scoring function.
	ErrScoringFailed = errors.New("search: scoring failed")

	// ErrUtilityExceedsMaximum is the cause of an InvariantError raised for a
	// utility above the theoretical maximum.
	ErrUtilityExceedsMaximum = errors.New("utility exceeds theoretical maximum")

	// ErrInvalidUtility is the cause of an InvariantError raised for NaN.
	ErrInvalidUtility = errors.New("utility is not a number")

	// ErrStaleCacheEntry is the cause of an InvariantError raised when a
	// cached result of a dirty node would be served.
	ErrStaleCacheEntry = errors.New("stale cache entry")

	// ErrUnknownCombination is the cause of an InvariantError raised for a
	// combination id outside the current open set.
	ErrUnknownCombination = errors.New("unknown combination id")
)

// InvariantError reports corrupted state: a scoring function bug or broken
// invalidation bookkeeping. The clustering run must not continue.
//
// The violated rule can be accessed via errors.Unwrap.
type InvariantError struct {
	Op     string
	Detail string
	cause  error
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("search: invariant violated in %s: %v: %s", e.Op, e.cause, e.Detail)
}

func (e *InvariantError) Unwrap() error { return e.cause }

func invariant(op string, cause error, format string, args ...any) error {
	return &InvariantError{Op: op, Detail: fmt.Sprintf(format, args...), cause: cause}
}
