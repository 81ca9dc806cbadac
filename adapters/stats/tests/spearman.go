package tests

import (
	"context"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"covary/domain/stats"
)

// SpearmanTest is the rank-based association test for ordinal x ordinal
// pairs. Rho is computed as the Pearson correlation of the rank vectors,
// which stays correct under ties.
type SpearmanTest struct {
	dist *Distributions
}

// NewSpearmanTest creates a new Spearman rank correlation test
func NewSpearmanTest() *SpearmanTest {
	return &SpearmanTest{dist: NewDistributions()}
}

func (t *SpearmanTest) Kind() stats.TestKind { return stats.TestSpearman }
func (t *SpearmanTest) Name() string         { return "Spearman Rank Correlation Test" }
func (t *SpearmanTest) StatSymbol() string   { return "rho" }
func (t *SpearmanTest) H0Thesis() string     { return "H0: no monotonic association" }
func (t *SpearmanTest) H1Thesis() string     { return "H1: monotonic association exists" }

// Run computes Spearman's rho and its two-tailed p-value via the
// t-transform.
func (t *SpearmanTest) Run(ctx context.Context, in Input) stats.Outcome {
	n := in.Sample.Len()
	if n < 3 {
		return stats.DegenerateOutcome(t.Kind(), n, stats.ReasonLowN,
			"rank correlation needs at least 3 complete cases")
	}

	x := make([]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		x[i] = in.Sample.A[i].Num
		y[i] = in.Sample.B[i].Num
	}

	xRanks := rankWithTies(x)
	yRanks := rankWithTies(y)

	rho := stat.Correlation(xRanks, yRanks, nil)
	if math.IsNaN(rho) {
		// Constant ranks on either side.
		return stats.DegenerateOutcome(t.Kind(), n, stats.ReasonLowVariance,
			"rank variance is zero")
	}
	rho = clampCorrelation(rho)

	return stats.Outcome{
		Test:       t.Kind(),
		Statistic:  rho,
		StatSymbol: t.StatSymbol(),
		DF:         n - 2,
		PValue:     t.dist.CorrelationPValue(rho, n),
		SampleSize: n,
	}
}

// rankWithTies converts values to ranks, assigning tied values the
// average of the ranks they span.
func rankWithTies(data []float64) []float64 {
	n := len(data)

	type pair struct {
		value float64
		index int
	}
	pairs := make([]pair, n)
	for i, val := range data {
		pairs[i] = pair{value: val, index: i}
	}
	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].value < pairs[j].value
	})

	ranks := make([]float64, n)
	i := 0
	for i < n {
		j := i + 1
		for j < n && pairs[j].value == pairs[i].value {
			j++
		}

		avgRank := float64(i+1) + float64(j-i-1)/2.0
		for k := i; k < j; k++ {
			ranks[pairs[k].index] = avgRank
		}
		i = j
	}
	return ranks
}

func clampCorrelation(r float64) float64 {
	if r > 1.0 {
		return 1.0
	}
	if r < -1.0 {
		return -1.0
	}
	return r
}
