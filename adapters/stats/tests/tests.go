// Package tests implements the statistical tests of association the
// sweep engine can route a pair of observables to.
//
// Every test reports the same Outcome shape, and every p-value shares
// one meaning: the two-tailed probability, under the null hypothesis of
// independence/no-association, of a statistic at least as extreme as
// the one computed. For non-negative statistics (chi-square, H) the
// extreme direction is the upper tail.
package tests

import (
	"context"

	"covary/domain/dataset"
	"covary/domain/scale"
	"covary/domain/stats"
)

// Input carries everything a test needs for one pair: the complete-case
// sample, both scale tags, and the interval bucketing configuration.
type Input struct {
	Sample    *dataset.CompleteCaseSample
	TagA      scale.Tag
	TagB      scale.Tag
	Bucketing stats.Bucketing
}

// Test is a single statistical test of association.
type Test interface {
	Kind() stats.TestKind
	Name() string
	StatSymbol() string
	H0Thesis() string
	H1Thesis() string
	Run(ctx context.Context, in Input) stats.Outcome
}

// All returns the full test catalog in stable order.
func All() []Test {
	return []Test{
		NewChiSquareTest(),
		NewSpearmanTest(),
		NewPearsonTest(),
		NewKruskalWallisTest(),
	}
}

// ForKind returns the test implementing the given kind.
func ForKind(kind stats.TestKind) (Test, bool) {
	for _, t := range All() {
		if t.Kind() == kind {
			return t, true
		}
	}
	return nil, false
}
