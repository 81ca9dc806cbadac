package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"covary/domain/dataset"
	"covary/domain/stats"
	"covary/internal/testkit"
)

// Sweeps over generated data with planted structure: the planted pairs
// must come out Dependent and the noise column must not light up
// everything around it.
func TestSweepOnSyntheticDataset(t *testing.T) {
	ds, err := testkit.NewGenerator(42).Dataset(200)
	require.NoError(t, err)

	results, err := New(DefaultOptions()).Sweep(context.Background(), ds)
	require.NoError(t, err)
	require.Len(t, results, 15, "6 columns give 15 unordered pairs")

	byPair := make(map[string]stats.TestResult)
	for _, r := range results {
		byPair[r.PairName()] = r
	}

	linear := byPair["signal_x|signal_y"]
	require.Equal(t, stats.TestPearson, linear.Test)
	require.Equal(t, stats.VerdictDependent, linear.Verdict)
	require.Less(t, linear.PValue, 0.001)

	shifted := byPair["region|regional_level"]
	require.Equal(t, stats.TestKruskalWallis, shifted.Test)
	require.Equal(t, stats.VerdictDependent, shifted.Verdict)

	noise := byPair["signal_x|noise"]
	require.Equal(t, stats.TestPearson, noise.Test)
	require.Greater(t, noise.PValue, linear.PValue, "noise must not beat the planted signal")
}

func TestSweepWithInjectedMissingValues(t *testing.T) {
	gen := testkit.NewGenerator(7)
	x, y := gen.LinearPair(300, 0.5)

	ds, err := dataset.New(
		dataset.NewObservable("x", gen.WithMissing(x, 0.2)),
		dataset.NewObservable("y", gen.WithMissing(y, 0.2)),
	)
	require.NoError(t, err)

	results, err := New(DefaultOptions()).Sweep(context.Background(), ds)
	require.NoError(t, err)
	require.Len(t, results, 1)

	r := results[0]
	require.Less(t, r.SampleSize, 300, "missing rows drop out of the pair")
	require.Greater(t, r.SampleSize, 100)
	require.Equal(t, stats.VerdictDependent, r.Verdict)
	require.GreaterOrEqual(t, r.PValue, 0.0)
	require.LessOrEqual(t, r.PValue, 1.0)
}

func TestGeneratorDeterminism(t *testing.T) {
	a, err := testkit.NewGenerator(99).Dataset(50)
	require.NoError(t, err)
	b, err := testkit.NewGenerator(99).Dataset(50)
	require.NoError(t, err)

	require.Equal(t, a.Fingerprint(), b.Fingerprint())

	ra, err := New(DefaultOptions()).Sweep(context.Background(), a)
	require.NoError(t, err)
	rb, err := New(DefaultOptions()).Sweep(context.Background(), b)
	require.NoError(t, err)

	require.Equal(t, len(ra), len(rb))
	for i := range ra {
		require.Equal(t, ra[i].PairName(), rb[i].PairName())
		require.Equal(t, ra[i].Verdict, rb[i].Verdict)
		require.InDelta(t, ra[i].PValue, rb[i].PValue, 1e-12)
	}
}
