package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Classification errors
	ErrClassification  = errors.New("scale classification failed")
	ErrEmptyObservable = fmt.Errorf("%w: observable has no non-missing values", ErrClassification)
	ErrScaleConflict   = fmt.Errorf("%w: declared scale conflicts with observed values", ErrClassification)

	// Sampling errors
	ErrInsufficientData = errors.New("insufficient complete-case data for analysis")

	// Test selection errors
	ErrUnsupportedCombination = errors.New("no testable association for this pair")
	ErrConstantObservable     = fmt.Errorf("%w: observable is constant", ErrUnsupportedCombination)

	// Computation errors. Callers convert these to Inconclusive verdicts
	// rather than propagating them out of a sweep.
	ErrNumericInstability = errors.New("numerically unstable statistic")

	// Input boundary errors. These abort a sweep.
	ErrMalformedDataset   = errors.New("malformed dataset")
	ErrLengthMismatch     = fmt.Errorf("%w: observables have different lengths", ErrMalformedDataset)
	ErrObservableNotFound = errors.New("observable not found")
)

// Error constructors with context
func NewInsufficientDataError(a, b string, n, min int) error {
	return fmt.Errorf("%w: pair (%s, %s) has %d complete cases, need %d", ErrInsufficientData, a, b, n, min)
}

func NewMalformedDatasetError(reason string) error {
	return fmt.Errorf("%w: %s", ErrMalformedDataset, reason)
}

// Error checking helpers
func IsClassificationError(err error) bool {
	return errors.Is(err, ErrClassification)
}

func IsInsufficientDataError(err error) bool {
	return errors.Is(err, ErrInsufficientData)
}

func IsUnsupportedCombinationError(err error) bool {
	return errors.Is(err, ErrUnsupportedCombination)
}

// IsPairError reports whether err only invalidates a single pair's result.
// Pair errors become Inconclusive results; anything else aborts the sweep.
func IsPairError(err error) bool {
	return errors.Is(err, ErrClassification) ||
		errors.Is(err, ErrInsufficientData) ||
		errors.Is(err, ErrUnsupportedCombination) ||
		errors.Is(err, ErrNumericInstability)
}
