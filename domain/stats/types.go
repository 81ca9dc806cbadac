// Package stats defines the canonical result types of a dependence
// sweep: frequency tables, test outcomes, and interpreted results.
package stats

import (
	"covary/domain/core"
)

// TestKind identifies a statistical test of association.
type TestKind string

const (
	TestChiSquare     TestKind = "chi_square"
	TestSpearman      TestKind = "spearman"
	TestPearson       TestKind = "pearson"
	TestKruskalWallis TestKind = "kruskal_wallis"
)

// Verdict is the dependence conclusion for one pair of observables.
type Verdict string

const (
	VerdictDependent    Verdict = "dependent"
	VerdictIndependent  Verdict = "independent"
	VerdictInconclusive Verdict = "inconclusive"
)

// ReasonCode represents structured reasons for Inconclusive verdicts
type ReasonCode string

const (
	ReasonClassificationFailed ReasonCode = "CLASSIFICATION_FAILED" // scale could not be assigned
	ReasonLowN                 ReasonCode = "LOW_N"                 // too few complete cases
	ReasonConstantColumn       ReasonCode = "CONSTANT_COLUMN"       // < 2 distinct values
	ReasonLowVariance          ReasonCode = "LOW_VARIANCE"          // zero variance in interval data
	ReasonSparseTable          ReasonCode = "SPARSE_TABLE"          // expected cell counts too small
	ReasonDegenerateTable      ReasonCode = "DEGENERATE_TABLE"      // table collapses below 2x2
	ReasonNumericInstability   ReasonCode = "NUMERIC_INSTABILITY"   // NaN/Inf during computation
)

// Outcome is the raw product of a statistical test before
// interpretation: statistic, degrees of freedom and p-value, or a
// degeneracy flag when the input cannot support the test.
type Outcome struct {
	Test       TestKind `json:"test"`
	Statistic  float64  `json:"statistic"`
	StatSymbol string   `json:"stat_symbol"` // e.g. "chi2", "rho", "r", "H"
	DF         int      `json:"df"`
	PValue     float64  `json:"p_value"`
	SampleSize int      `json:"sample_size"`

	Degenerate bool       `json:"degenerate,omitempty"`
	Reason     ReasonCode `json:"reason,omitempty"`
	Detail     string     `json:"detail,omitempty"`
}

// Degenerate builds an outcome flagged Inconclusive-to-be.
func DegenerateOutcome(test TestKind, n int, reason ReasonCode, detail string) Outcome {
	return Outcome{
		Test:       test,
		PValue:     1.0,
		SampleSize: n,
		Degenerate: true,
		Reason:     reason,
		Detail:     detail,
	}
}

// TestResult is the immutable, serializable record produced for every
// unordered pair of observables in a sweep. The caller (report or API
// layer) owns it for display; nothing in the core mutates it afterwards.
type TestResult struct {
	ID          core.ResultID `json:"id"`
	ObservableA string        `json:"observable_a"`
	ObservableB string        `json:"observable_b"`

	Test       TestKind `json:"test,omitempty"`
	Statistic  float64  `json:"statistic"`
	StatSymbol string   `json:"stat_symbol,omitempty"`
	DF         int      `json:"df"`
	PValue     float64  `json:"p_value"`
	SampleSize int      `json:"sample_size"`

	Verdict Verdict    `json:"verdict"`
	Reason  ReasonCode `json:"reason,omitempty"`
	Detail  string     `json:"detail,omitempty"`
}

// PairName returns the canonical "a|b" label used for deterministic
// result ordering.
func (r TestResult) PairName() string {
	return r.ObservableA + "|" + r.ObservableB
}
