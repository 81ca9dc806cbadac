// Package scale classifies observables by measurement scale.
//
// An observable is Interval when its values carry meaningful arithmetic
// (continuous numerics), Ordinal when integer-coded with meaningful order,
// and Nominal when its values are unordered category labels. The tag is
// computed once per observable and cached; it never changes mid-analysis.
package scale

import (
	"fmt"

	"covary/domain/core"
)

// Tag is an observable's measurement scale.
type Tag string

const (
	Interval Tag = "interval"
	Ordinal  Tag = "ordinal"
	Nominal  Tag = "nominal"
)

// Declared is an externally supplied scale override. The classifier
// honors it when it is reconcilable with the observed values.
type Declared string

const (
	DeclaredNone     Declared = ""
	DeclaredInterval Declared = "interval"
	DeclaredOrdinal  Declared = "ordinal"
	DeclaredNominal  Declared = "nominal"
)

// Classify assigns a scale tag to a column of raw values.
//
// The decision is made over the value set, never per value: a column
// mixing integer-valued and fractional numbers is Interval, not an error.
// Rules, in order:
//   - no non-missing values: classification error
//   - any textual value: Nominal (conflicts with a numeric declaration)
//   - any fractional numeric: Interval (conflicts with DeclaredOrdinal)
//   - all integer-valued numerics: Ordinal unless declared otherwise
func Classify(name string, values []Value, declared Declared) (Tag, error) {
	var (
		present     int
		hasText     bool
		hasFraction bool
	)

	for _, v := range values {
		switch v.Kind {
		case KindMissing:
			continue
		case KindText:
			hasText = true
		case KindNumber:
			if !v.IsIntegral() {
				hasFraction = true
			}
		}
		present++
	}

	if present == 0 {
		return "", fmt.Errorf("%w: %s", core.ErrEmptyObservable, name)
	}

	if hasText {
		switch declared {
		case DeclaredInterval, DeclaredOrdinal:
			return "", fmt.Errorf("%w: %s declared %s but values contain text",
				core.ErrScaleConflict, name, declared)
		}
		// Numbers mixed into a textual column are treated as labels.
		return Nominal, nil
	}

	// All-numeric column from here on.
	if hasFraction {
		switch declared {
		case DeclaredOrdinal:
			return "", fmt.Errorf("%w: %s declared ordinal but values have fractional parts",
				core.ErrScaleConflict, name)
		case DeclaredNominal:
			return Nominal, nil
		}
		return Interval, nil
	}

	// Integer-valued throughout (2.0 counts as integer-valued).
	switch declared {
	case DeclaredInterval:
		return Interval, nil
	case DeclaredNominal:
		return Nominal, nil
	}
	return Ordinal, nil
}
