package tests

import (
	"context"
	"fmt"
	"math"

	"covary/domain/stats"
)

// ChiSquareTest is Pearson's chi-square test of independence on a
// contingency table. It serves nominal x nominal and nominal x ordinal
// pairs (ordinal values are counted as discrete categories), and
// interval data after explicit bucketing.
type ChiSquareTest struct {
	dist *Distributions
}

// NewChiSquareTest creates a new chi-square independence test
func NewChiSquareTest() *ChiSquareTest {
	return &ChiSquareTest{dist: NewDistributions()}
}

func (t *ChiSquareTest) Kind() stats.TestKind { return stats.TestChiSquare }
func (t *ChiSquareTest) Name() string         { return "Chi-Square Test of Independence" }
func (t *ChiSquareTest) StatSymbol() string   { return "chi2" }
func (t *ChiSquareTest) H0Thesis() string     { return "H0: variables are independent" }
func (t *ChiSquareTest) H1Thesis() string     { return "H1: variables are not independent" }

// Run tabulates the sample and computes the chi-square statistic,
// degrees of freedom and upper-tail p-value.
func (t *ChiSquareTest) Run(ctx context.Context, in Input) stats.Outcome {
	n := in.Sample.Len()

	table, err := stats.BuildFrequencyTable(in.Sample, in.TagA, in.TagB, in.Bucketing)
	if err != nil {
		return stats.DegenerateOutcome(t.Kind(), n, stats.ReasonNumericInstability, err.Error())
	}

	// All-zero rows/columns carry no information and would zero the
	// expected counts.
	table = table.Trim()

	rows := len(table.RowCategories)
	cols := len(table.ColCategories)
	if rows < 2 || cols < 2 {
		return stats.DegenerateOutcome(t.Kind(), n, stats.ReasonDegenerateTable,
			fmt.Sprintf("contingency table is %dx%d, need at least 2x2", rows, cols))
	}

	rowTotals := table.RowTotals()
	colTotals := table.ColTotals()
	total := float64(table.GrandTotal())

	// After trimming, every marginal is positive, so expected counts are
	// strictly positive and the statistic is always well defined.
	chiSq := 0.0
	minExpected := math.Inf(1)
	lowExpected := 0
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			expected := float64(rowTotals[i]*colTotals[j]) / total
			minExpected = math.Min(minExpected, expected)
			if expected < 5 {
				lowExpected++
			}
			observed := float64(table.Counts[i][j])
			diff := observed - expected
			chiSq += diff * diff / expected
		}
	}

	if math.IsNaN(chiSq) || math.IsInf(chiSq, 0) {
		return stats.DegenerateOutcome(t.Kind(), n, stats.ReasonNumericInstability,
			"chi-square statistic is not finite")
	}
	if chiSq < 0 {
		chiSq = 0
	}

	df := (rows - 1) * (cols - 1)
	outcome := stats.Outcome{
		Test:       t.Kind(),
		Statistic:  chiSq,
		StatSymbol: t.StatSymbol(),
		DF:         df,
		PValue:     t.dist.ChiSquarePValue(chiSq, df),
		SampleSize: n,
	}

	// Cochran's rule: every expected count >= 1 and at most 20% below 5,
	// otherwise the chi-square approximation is unreliable. The statistic
	// stays reported; the verdict becomes Inconclusive.
	if minExpected < 1 {
		outcome.Degenerate = true
		outcome.Reason = stats.ReasonSparseTable
		outcome.Detail = fmt.Sprintf("smallest expected count %.2f is below 1", minExpected)
	} else if float64(lowExpected) > 0.2*float64(rows*cols) {
		outcome.Degenerate = true
		outcome.Reason = stats.ReasonSparseTable
		outcome.Detail = fmt.Sprintf("%d of %d cells have expected count below 5", lowExpected, rows*cols)
	}

	return outcome
}
