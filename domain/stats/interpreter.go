package stats

// Interpret converts a test outcome into the final TestResult against
// a significance threshold alpha. Pure function: no side effects beyond
// constructing the result. The caller assigns the result ID so that
// identity stays deterministic per dataset and configuration.
//
// Verdict boundary: Dependent iff p < alpha, Independent iff p >= alpha,
// Inconclusive when the engine flagged the input degenerate.
func Interpret(observableA, observableB string, outcome Outcome, alpha float64) TestResult {
	result := TestResult{
		ObservableA: observableA,
		ObservableB: observableB,
		Test:        outcome.Test,
		Statistic:   outcome.Statistic,
		StatSymbol:  outcome.StatSymbol,
		DF:          outcome.DF,
		PValue:      clampProbability(outcome.PValue),
		SampleSize:  outcome.SampleSize,
	}

	if outcome.Degenerate {
		result.Verdict = VerdictInconclusive
		result.Reason = outcome.Reason
		result.Detail = outcome.Detail
		return result
	}

	if result.PValue < alpha {
		result.Verdict = VerdictDependent
	} else {
		result.Verdict = VerdictIndependent
	}
	return result
}

// clampProbability absorbs floating-point edge effects at the [0,1]
// boundaries.
func clampProbability(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}
