package engine

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"covary/domain/core"
	"covary/domain/dataset"
	"covary/domain/scale"
	"covary/domain/stats"
)

func column(name string, raw ...string) *dataset.Observable {
	values := make([]scale.Value, len(raw))
	for i, r := range raw {
		values[i] = scale.Parse(r)
	}
	return dataset.NewObservable(name, values)
}

func mustDataset(t *testing.T, observables ...*dataset.Observable) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.New(observables...)
	require.NoError(t, err)
	return ds
}

func TestSelectTestSymmetry(t *testing.T) {
	tags := []scale.Tag{scale.Nominal, scale.Ordinal, scale.Interval}
	for _, a := range tags {
		for _, b := range tags {
			forward, err1 := SelectTest(a, b, stats.TestKruskalWallis)
			backward, err2 := SelectTest(b, a, stats.TestKruskalWallis)
			require.NoError(t, err1)
			require.NoError(t, err2)
			require.Equal(t, forward, backward, "selection must be symmetric for (%s, %s)", a, b)
		}
	}
}

func TestSelectTestMapping(t *testing.T) {
	tests := []struct {
		a, b scale.Tag
		want stats.TestKind
	}{
		{scale.Nominal, scale.Nominal, stats.TestChiSquare},
		{scale.Nominal, scale.Ordinal, stats.TestChiSquare},
		{scale.Ordinal, scale.Ordinal, stats.TestSpearman},
		{scale.Nominal, scale.Interval, stats.TestKruskalWallis},
		{scale.Ordinal, scale.Interval, stats.TestKruskalWallis},
		{scale.Interval, scale.Interval, stats.TestPearson},
	}
	for _, tc := range tests {
		got, err := SelectTest(tc.a, tc.b, stats.TestKruskalWallis)
		require.NoError(t, err)
		require.Equal(t, tc.want, got, "(%s, %s)", tc.a, tc.b)
	}
}

func TestSelectTestCategoricalIntervalOverride(t *testing.T) {
	got, err := SelectTest(scale.Nominal, scale.Interval, stats.TestChiSquare)
	require.NoError(t, err)
	require.Equal(t, stats.TestChiSquare, got)

	// The override must not leak into other combinations.
	got, err = SelectTest(scale.Interval, scale.Interval, stats.TestChiSquare)
	require.NoError(t, err)
	require.Equal(t, stats.TestPearson, got)
}

func TestSweepProducesOneResultPerPair(t *testing.T) {
	ds := mustDataset(t,
		column("a", "1", "2", "3", "4", "5", "6"),
		column("b", "2.5", "1.5", "4.5", "3.5", "6.5", "5.5"),
		column("c", "x", "y", "x", "y", "x", "y"),
		column("d", "7", "7", "7", "7", "7", "7"), // constant
	)

	results, err := New(DefaultOptions()).Sweep(context.Background(), ds)
	require.NoError(t, err)

	// 4 observables -> 6 unordered pairs, none dropped.
	require.Len(t, results, 6)

	seen := make(map[string]bool)
	for _, r := range results {
		require.False(t, seen[r.PairName()], "duplicate result for %s", r.PairName())
		seen[r.PairName()] = true
	}

	// Every pair touching the constant column is Inconclusive, not a crash.
	for _, r := range results {
		if r.ObservableA == "d" || r.ObservableB == "d" {
			require.Equal(t, stats.VerdictInconclusive, r.Verdict)
			require.Equal(t, stats.ReasonConstantColumn, r.Reason)
		}
	}
}

func TestSweepDeterministicAcrossRuns(t *testing.T) {
	build := func() *dataset.Dataset {
		return mustDataset(t,
			column("height", "1.7", "1.8", "1.6", "1.9", "1.75", "1.65"),
			column("grade", "1", "2", "3", "1", "2", "3"),
			column("city", "north", "south", "north", "south", "north", "south"),
		)
	}

	opts := DefaultOptions()
	opts.MaxWorkers = 4

	first, err := New(opts).Sweep(context.Background(), build())
	require.NoError(t, err)
	second, err := New(opts).Sweep(context.Background(), build())
	require.NoError(t, err)

	require.Equal(t, len(first), len(second))
	seen := make(map[core.ResultID]bool)
	for i := range first {
		// Result IDs derive from the dataset fingerprint, pair and
		// configuration, so both runs must match byte for byte, IDs
		// included.
		a, _ := json.Marshal(first[i])
		b, _ := json.Marshal(second[i])
		require.Equal(t, string(a), string(b))

		require.NotEmpty(t, string(first[i].ID))
		require.False(t, seen[first[i].ID], "duplicate result ID %s", first[i].ID)
		seen[first[i].ID] = true
	}
}

func TestResultIDTracksConfiguration(t *testing.T) {
	build := func() *dataset.Dataset {
		return mustDataset(t,
			column("x", "1.5", "2.5", "3.5", "4.5", "5.5", "6.5"),
			column("y", "2.1", "3.9", "6.2", "7.8", "10.1", "12.2"),
		)
	}

	strict := DefaultOptions()
	strict.Alpha = 0.01

	base, err := New(DefaultOptions()).Sweep(context.Background(), build())
	require.NoError(t, err)
	tightened, err := New(strict).Sweep(context.Background(), build())
	require.NoError(t, err)

	// Same dataset under a different configuration is a different result.
	require.NotEqual(t, base[0].ID, tightened[0].ID)
}

// Every observable is shared by all pairs it appears in, and lazy
// classification happens under the worker pool. A wide sweep over
// freshly loaded columns with many workers exercises that sharing.
func TestSweepConcurrentClassification(t *testing.T) {
	build := func() *dataset.Dataset {
		return mustDataset(t,
			column("a", "1.5", "2.5", "3.5", "4.5", "5.5", "6.5"),
			column("b", "2", "4", "6", "8", "10", "12"),
			column("c", "x", "y", "x", "y", "x", "y"),
			column("d", "0.1", "0.9", "0.2", "0.8", "0.3", "0.7"),
			column("e", "1", "2", "3", "1", "2", "3"),
			column("f", "red", "blue", "green", "red", "blue", "green"),
		)
	}

	opts := DefaultOptions()
	opts.MaxWorkers = 8

	for run := 0; run < 10; run++ {
		results, err := New(opts).Sweep(context.Background(), build())
		require.NoError(t, err)
		require.Len(t, results, 15)
		for _, r := range results {
			// Every column classifies cleanly, so no pair may come out
			// with a classification failure.
			require.NotEqual(t, stats.ReasonClassificationFailed, r.Reason,
				"pair %s failed classification on run %d", r.PairName(), run)
		}
	}
}

// Complete-case selection during a sweep is pairwise: a mostly-missing
// unrelated column must not starve other pairs.
func TestSweepPairwiseMissingness(t *testing.T) {
	ds := mustDataset(t,
		column("a", "1", "2", "", "4", "5", "6"),
		column("b", "", "2", "3", "4", "5", "6"),
		column("c", "9", "", "", "", "", ""),
	)

	results, err := New(DefaultOptions()).Sweep(context.Background(), ds)
	require.NoError(t, err)

	var ab stats.TestResult
	for _, r := range results {
		if r.ObservableA == "a" && r.ObservableB == "b" {
			ab = r
		}
	}
	// Rows 2,4,5,6 are present in both a and b regardless of c.
	require.Equal(t, 4, ab.SampleSize)
	require.NotEqual(t, stats.VerdictInconclusive, ab.Verdict)
}

func TestSweepClassificationFailureIsPairScoped(t *testing.T) {
	allMissing := dataset.NewObservable("empty", []scale.Value{
		scale.Missing(), scale.Missing(), scale.Missing(), scale.Missing(),
	})
	ds := mustDataset(t,
		column("a", "1.5", "2.5", "3.5", "4.5"),
		column("b", "2.5", "3.5", "4.5", "6.5"),
		allMissing,
	)

	results, err := New(DefaultOptions()).Sweep(context.Background(), ds)
	require.NoError(t, err)
	require.Len(t, results, 3)

	for _, r := range results {
		if r.ObservableA == "empty" || r.ObservableB == "empty" {
			require.Equal(t, stats.VerdictInconclusive, r.Verdict)
			require.Equal(t, stats.ReasonClassificationFailed, r.Reason)
			require.NotEmpty(t, r.Detail)
		} else {
			// The (a, b) pair is unaffected by the broken column.
			require.NotEqual(t, stats.VerdictInconclusive, r.Verdict)
		}
	}
}

func TestSweepRoutesByScale(t *testing.T) {
	ds := mustDataset(t,
		column("weight", "60.5", "72.3", "80.1", "65.4", "90.2", "75.8"),
		column("rank", "1", "2", "3", "1", "2", "3"),
		column("team", "red", "blue", "red", "blue", "red", "blue"),
	)

	results, err := New(DefaultOptions()).Sweep(context.Background(), ds)
	require.NoError(t, err)

	byPair := make(map[string]stats.TestResult)
	for _, r := range results {
		byPair[r.ObservableA+"/"+r.ObservableB] = r
	}

	require.Equal(t, stats.TestChiSquare, byPair["rank/team"].Test)
	require.Equal(t, stats.TestKruskalWallis, byPair["weight/rank"].Test)
	require.Equal(t, stats.TestKruskalWallis, byPair["weight/team"].Test)
}

func TestSweepDetectsKnownDependence(t *testing.T) {
	// y is a noisy copy of x; the pair must come out Dependent.
	x := []string{"1.1", "2.2", "3.1", "4.2", "5.1", "6.2", "7.1", "8.2", "9.1", "10.2"}
	y := []string{"1.2", "1.9", "3.3", "4.1", "4.8", "6.2", "7.1", "7.9", "9.2", "9.8"}

	ds := mustDataset(t, column("x", x...), column("y", y...))
	results, err := New(DefaultOptions()).Sweep(context.Background(), ds)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, stats.TestPearson, results[0].Test)
	require.Equal(t, stats.VerdictDependent, results[0].Verdict)
}

func TestSweepAbortsOnMalformedDataset(t *testing.T) {
	// Assemble without New to bypass construction-time validation.
	a := column("a", "1", "2", "3")
	b := column("b", "1", "2")
	ds, err := dataset.New(a, b)
	require.Error(t, err)
	require.Nil(t, ds)
}
