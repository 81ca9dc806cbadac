package dataset

import (
	"fmt"

	"covary/domain/core"
	"covary/domain/scale"
)

// CompleteCaseSample holds the aligned rows where both observables of a
// pair are present. It is built fresh per pair and discarded after the
// pair's test runs.
type CompleteCaseSample struct {
	A []scale.Value
	B []scale.Value
}

// Len returns the number of complete cases.
func (s *CompleteCaseSample) Len() int {
	return len(s.A)
}

// SelectCompleteCases returns the pairwise complete-case subsample for
// (a, b): exactly the index positions where both values are present.
//
// Selection considers only the two observables under test. Rows missing
// in any unrelated column stay in this pair's sample; dataset-wide
// row exclusion would throw away usable data.
func SelectCompleteCases(a, b *Observable, minSize int) (*CompleteCaseSample, error) {
	if a.Len() != b.Len() {
		return nil, fmt.Errorf("%w: pair (%s, %s) spans %d vs %d rows",
			core.ErrLengthMismatch, a.Name, b.Name, a.Len(), b.Len())
	}

	sample := &CompleteCaseSample{
		A: make([]scale.Value, 0, a.Len()),
		B: make([]scale.Value, 0, b.Len()),
	}
	for i := range a.Values {
		if a.Values[i].IsMissing() || b.Values[i].IsMissing() {
			continue
		}
		sample.A = append(sample.A, a.Values[i])
		sample.B = append(sample.B, b.Values[i])
	}

	if sample.Len() < minSize {
		return nil, core.NewInsufficientDataError(a.Name, b.Name, sample.Len(), minSize)
	}
	return sample, nil
}
