package tests

import (
	"context"
	"fmt"
	"math"
	"sort"

	"covary/domain/scale"
	"covary/domain/stats"
)

// KruskalWallisTest compares the distribution of an interval observable
// across the categories of a nominal or ordinal observable. It is the
// non-parametric one-way comparison used when no distributional
// assumptions are warranted.
type KruskalWallisTest struct {
	dist *Distributions
}

// NewKruskalWallisTest creates a new Kruskal-Wallis one-way test
func NewKruskalWallisTest() *KruskalWallisTest {
	return &KruskalWallisTest{dist: NewDistributions()}
}

func (t *KruskalWallisTest) Kind() stats.TestKind { return stats.TestKruskalWallis }
func (t *KruskalWallisTest) Name() string         { return "Kruskal-Wallis One-Way Test" }
func (t *KruskalWallisTest) StatSymbol() string   { return "H" }
func (t *KruskalWallisTest) H0Thesis() string     { return "H0: group distributions are equal" }
func (t *KruskalWallisTest) H1Thesis() string     { return "H1: group distributions are not equal" }

// Run groups the interval side by the categorical side and computes the
// tie-corrected H statistic with its upper-tail chi-square p-value.
func (t *KruskalWallisTest) Run(ctx context.Context, in Input) stats.Outcome {
	n := in.Sample.Len()
	if n < 3 {
		return stats.DegenerateOutcome(t.Kind(), n, stats.ReasonLowN,
			"one-way comparison needs at least 3 complete cases")
	}

	groups, values := t.groupByCategory(in)
	k := len(groups)
	if k < 2 {
		return stats.DegenerateOutcome(t.Kind(), n, stats.ReasonConstantColumn,
			fmt.Sprintf("only %d group observed, need at least 2", k))
	}

	ranks := rankWithTies(values)

	// Tie correction: C = 1 - sum(t^3 - t) / (N^3 - N) over tie groups.
	correction := tieCorrection(values)
	if correction == 0 {
		// Every value identical: no rank information at all.
		return stats.DegenerateOutcome(t.Kind(), n, stats.ReasonLowVariance,
			"interval values are all tied")
	}

	// H = 12 / (N(N+1)) * sum(R_i^2 / n_i) - 3(N+1)
	h := 0.0
	offset := 0
	for _, size := range groups {
		rankSum := 0.0
		for i := 0; i < size; i++ {
			rankSum += ranks[offset+i]
		}
		h += rankSum * rankSum / float64(size)
		offset += size
	}
	nf := float64(n)
	h = 12.0/(nf*(nf+1))*h - 3*(nf+1)
	h /= correction

	if math.IsNaN(h) || math.IsInf(h, 0) {
		return stats.DegenerateOutcome(t.Kind(), n, stats.ReasonNumericInstability,
			"H statistic is not finite")
	}
	if h < 0 {
		// Floating-point underflow near zero association.
		h = 0
	}

	df := k - 1
	return stats.Outcome{
		Test:       t.Kind(),
		Statistic:  h,
		StatSymbol: t.StatSymbol(),
		DF:         df,
		PValue:     t.dist.ChiSquarePValue(h, df),
		SampleSize: n,
	}
}

// groupByCategory splits the interval side by the categorical side.
// Returns group sizes (in deterministic category order) and the interval
// values concatenated in the same group order.
func (t *KruskalWallisTest) groupByCategory(in Input) ([]int, []float64) {
	catSide, numSide := in.Sample.A, in.Sample.B
	if in.TagA == scale.Interval {
		catSide, numSide = in.Sample.B, in.Sample.A
	}

	byCat := make(map[string][]float64)
	for i := range catSide {
		label := catSide[i].Label()
		byCat[label] = append(byCat[label], numSide[i].Num)
	}

	cats := make([]string, 0, len(byCat))
	for c := range byCat {
		cats = append(cats, c)
	}
	sort.Strings(cats)

	sizes := make([]int, 0, len(cats))
	values := make([]float64, 0, len(catSide))
	for _, c := range cats {
		sizes = append(sizes, len(byCat[c]))
		values = append(values, byCat[c]...)
	}
	return sizes, values
}

func tieCorrection(values []float64) float64 {
	n := len(values)
	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	tieSum := 0.0
	i := 0
	for i < n {
		j := i + 1
		for j < n && sorted[j] == sorted[i] {
			j++
		}
		size := float64(j - i)
		tieSum += size*size*size - size
		i = j
	}

	nf := float64(n)
	return 1 - tieSum/(nf*nf*nf-nf)
}
