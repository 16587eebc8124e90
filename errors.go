package agglo

import (
	"errors"
	"fmt"

	"github.com/hupe1980/agglo/cluster"
	"github.com/hupe1980/agglo/clusterset"
	"github.com/hupe1980/agglo/scoring"
	"github.com/hupe1980/agglo/search"
)

var (
	// ErrInvariantViolation is returned when a scoring function exceeds its
	// theoretical maximum or cached state went stale. The run is aborted.
	ErrInvariantViolation = errors.New("invariant violation")

	// ErrScoringFailed is returned when the scoring function failed.
	ErrScoringFailed = errors.New("scoring failed")

	// ErrInvalidInput is returned for initial node sets that cannot be clustered.
	ErrInvalidInput = errors.New("invalid input")
)

// ErrInvalidAcuity indicates an invalid acuity passed to a scoring function.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrInvalidAcuity struct {
	Acuity float64
	cause  error
}

func (e *ErrInvalidAcuity) Error() string {
	return fmt.Sprintf("invalid acuity: %v", e.Acuity)
}

func (e *ErrInvalidAcuity) Unwrap() error { return e.cause }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	var ie *search.InvariantError
	if errors.As(err, &ie) {
		return fmt.Errorf("%w: %w", ErrInvariantViolation, err)
	}
	if errors.Is(err, search.ErrScoringFailed) {
		return fmt.Errorf("%w: %w", ErrScoringFailed, err)
	}

	switch {
	case errors.Is(err, cluster.ErrKindMismatch),
		errors.Is(err, cluster.ErrNotRoot),
		errors.Is(err, clusterset.ErrDuplicateNode),
		errors.Is(err, clusterset.ErrCapacityExceeded):
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	// Attribute merge failures break the tree the same way a bad score does.
	if errors.Is(err, scoring.ErrUnsupportedAttribute) || errors.Is(err, scoring.ErrNoSupport) {
		return fmt.Errorf("%w: %w", ErrScoringFailed, err)
	}

	return err
}
