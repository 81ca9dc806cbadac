package tests

import (
	"context"
	"math"

	montstats "github.com/montanaflynn/stats"

	"covary/domain/stats"
)

// PearsonTest is the correlation-based test for interval x interval
// pairs.
type PearsonTest struct {
	dist *Distributions
}

// NewPearsonTest creates a new Pearson correlation test
func NewPearsonTest() *PearsonTest {
	return &PearsonTest{dist: NewDistributions()}
}

func (t *PearsonTest) Kind() stats.TestKind { return stats.TestPearson }
func (t *PearsonTest) Name() string         { return "Pearson Correlation Test" }
func (t *PearsonTest) StatSymbol() string   { return "r" }
func (t *PearsonTest) H0Thesis() string     { return "H0: data are not correlated" }
func (t *PearsonTest) H1Thesis() string     { return "H1: data are correlated" }

// Run computes Pearson's r and its two-tailed p-value via the
// t-transform.
func (t *PearsonTest) Run(ctx context.Context, in Input) stats.Outcome {
	n := in.Sample.Len()
	if n < 3 {
		return stats.DegenerateOutcome(t.Kind(), n, stats.ReasonLowN,
			"correlation needs at least 3 complete cases")
	}

	x := make([]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		x[i] = in.Sample.A[i].Num
		y[i] = in.Sample.B[i].Num
	}

	varX, _ := montstats.Variance(x)
	varY, _ := montstats.Variance(y)
	if varX == 0 || varY == 0 {
		return stats.DegenerateOutcome(t.Kind(), n, stats.ReasonLowVariance,
			"zero variance in interval data")
	}

	r, err := montstats.Correlation(x, y)
	if err != nil || math.IsNaN(r) {
		return stats.DegenerateOutcome(t.Kind(), n, stats.ReasonNumericInstability,
			"correlation coefficient is not finite")
	}
	r = clampCorrelation(r)

	return stats.Outcome{
		Test:       t.Kind(),
		Statistic:  r,
		StatSymbol: t.StatSymbol(),
		DF:         n - 2,
		PValue:     t.dist.CorrelationPValue(r, n),
		SampleSize: n,
	}
}
