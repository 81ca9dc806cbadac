package tests

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// Distributions provides the p-value computations shared by all tests,
// so the meaning of a p-value cannot drift between test types.
type Distributions struct{}

// NewDistributions creates a new distributions utility
func NewDistributions() *Distributions {
	return &Distributions{}
}

// TTestPValue computes the two-tailed p-value of a t-statistic using
// Student's t-distribution.
func (d *Distributions) TTestPValue(tStatistic float64, degreesOfFreedom int) float64 {
	if degreesOfFreedom <= 0 {
		return 1.0
	}
	if math.IsInf(tStatistic, 0) {
		return 0.0
	}

	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(degreesOfFreedom)}
	return clamp01(2 * (1 - tDist.CDF(math.Abs(tStatistic))))
}

// CorrelationPValue computes the two-tailed p-value of a correlation
// coefficient via its t-transform.
func (d *Distributions) CorrelationPValue(correlation float64, sampleSize int) float64 {
	if sampleSize < 3 {
		return 1.0
	}

	df := float64(sampleSize - 2)
	denom := 1 - correlation*correlation
	if denom <= 0 {
		// |r| == 1: the observed statistic is the most extreme possible.
		return 0.0
	}
	tStatistic := correlation * math.Sqrt(df/denom)
	return d.TTestPValue(tStatistic, sampleSize-2)
}

// ChiSquarePValue computes the upper-tail p-value of a chi-square
// statistic. The statistic is non-negative, so the upper tail is the
// two-tailed "at least as extreme" probability.
func (d *Distributions) ChiSquarePValue(chiSquare float64, degreesOfFreedom int) float64 {
	if degreesOfFreedom <= 0 {
		return 1.0
	}

	chiDist := distuv.ChiSquared{K: float64(degreesOfFreedom)}
	return clamp01(1 - chiDist.CDF(chiSquare))
}

func clamp01(p float64) float64 {
	// NaN means a guard upstream failed; report the conservative bound.
	if math.IsNaN(p) || p > 1 {
		return 1
	}
	if p < 0 {
		return 0
	}
	return p
}
