// Package engine runs the full pairwise dependence sweep: scale
// classification, complete-case selection, test routing, execution and
// interpretation, one TestResult per unordered pair of observables.
package engine

import (
	"context"
	"fmt"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"covary/adapters/stats/tests"
	"covary/domain/core"
	"covary/domain/dataset"
	"covary/domain/stats"
	"covary/internal"
)

// Options configures a sweep.
type Options struct {
	// Alpha is the significance threshold for the dependence verdict.
	Alpha float64
	// MinSampleSize is the complete-case floor below which a pair is
	// Inconclusive for insufficient data.
	MinSampleSize int
	// Bucketing discretizes interval values for table-based tests.
	Bucketing stats.Bucketing
	// CategoricalIntervalTest routes categorical x interval pairs:
	// TestKruskalWallis (default) or TestChiSquare on a bucketed table.
	CategoricalIntervalTest stats.TestKind
	// MaxWorkers bounds the pairwise worker pool; 0 means GOMAXPROCS.
	MaxWorkers int
}

// DefaultOptions returns the standard sweep configuration.
func DefaultOptions() Options {
	return Options{
		Alpha:                   0.05,
		MinSampleSize:           2,
		Bucketing:               stats.DefaultBucketing(),
		CategoricalIntervalTest: stats.TestKruskalWallis,
	}
}

// digest summarizes the options that affect result content. It feeds
// result identity, so every result-shaping knob must appear here.
func (o Options) digest() string {
	return fmt.Sprintf("alpha=%g;min_n=%d;bucketing=%s/%d;cat_interval=%s",
		o.Alpha, o.MinSampleSize, o.Bucketing.Rule, o.Bucketing.Bins, o.CategoricalIntervalTest)
}

// Engine executes dependence sweeps over datasets.
type Engine struct {
	opts   Options
	logger *internal.Logger
}

// New creates a sweep engine.
func New(opts Options) *Engine {
	if opts.Alpha <= 0 || opts.Alpha >= 1 {
		opts.Alpha = 0.05
	}
	if opts.MinSampleSize < 2 {
		opts.MinSampleSize = 2
	}
	if opts.Bucketing.Bins == 0 {
		opts.Bucketing = stats.DefaultBucketing()
	}
	if opts.CategoricalIntervalTest == "" {
		opts.CategoricalIntervalTest = stats.TestKruskalWallis
	}
	if opts.MaxWorkers <= 0 {
		opts.MaxWorkers = runtime.GOMAXPROCS(0)
	}
	return &Engine{opts: opts, logger: internal.DefaultLogger.Named("sweep")}
}

// Sweep evaluates every unordered pair of observables and returns one
// TestResult per pair, sorted by pair name for deterministic output.
//
// Per-pair failures (classification, insufficient data, degenerate
// columns) become Inconclusive results with a reason; the sweep never
// drops a pair. A malformed dataset aborts the sweep.
func (e *Engine) Sweep(ctx context.Context, ds *dataset.Dataset) ([]stats.TestResult, error) {
	if err := ds.Validate(); err != nil {
		return nil, err
	}

	observables := ds.Observables()

	// Classify every observable up front. Each observable is shared by
	// all pairs it appears in, so workers must only read the cached tag.
	for _, obs := range observables {
		obs.Scale()
	}

	type pair struct{ i, j int }
	pairs := make([]pair, 0, len(observables)*(len(observables)-1)/2)
	for i := 0; i < len(observables); i++ {
		for j := i + 1; j < len(observables); j++ {
			pairs = append(pairs, pair{i, j})
		}
	}

	e.logger.Info("starting sweep: %d observables, %d pairs, alpha=%.3f",
		len(observables), len(pairs), e.opts.Alpha)

	// Pairs are independent; evaluate them on a bounded worker pool and
	// write into a pre-indexed slice so collection order cannot matter.
	results := make([]stats.TestResult, len(pairs))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(e.opts.MaxWorkers)

	for idx, p := range pairs {
		idx, p := idx, p
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			result, err := e.evaluatePair(groupCtx, observables[p.i], observables[p.j])
			if err != nil {
				return err
			}
			results[idx] = result
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(a, b int) bool {
		return results[a].PairName() < results[b].PairName()
	})

	// Result identity is a function of the dataset, the pair and the
	// configuration, so re-running the same sweep reproduces the same IDs.
	fingerprint := ds.Fingerprint()
	digest := e.opts.digest()
	for i := range results {
		results[i].ID = core.ComputeResultID(fingerprint, results[i].PairName(), digest)
	}
	return results, nil
}

// evaluatePair produces exactly one result for one unordered pair.
// Pair-scoped errors come back as Inconclusive results; anything else
// propagates and aborts the sweep.
func (e *Engine) evaluatePair(ctx context.Context, a, b *dataset.Observable) (stats.TestResult, error) {
	tagA, err := a.Scale()
	if err != nil {
		return e.pairFailure(a, b, stats.ReasonClassificationFailed, err)
	}
	tagB, err := b.Scale()
	if err != nil {
		return e.pairFailure(a, b, stats.ReasonClassificationFailed, err)
	}

	// A constant column carries no testable association.
	if a.DistinctCount() < 2 {
		return e.pairFailure(a, b, stats.ReasonConstantColumn,
			fmt.Errorf("%w: %q has fewer than 2 distinct values", core.ErrConstantObservable, a.Name))
	}
	if b.DistinctCount() < 2 {
		return e.pairFailure(a, b, stats.ReasonConstantColumn,
			fmt.Errorf("%w: %q has fewer than 2 distinct values", core.ErrConstantObservable, b.Name))
	}

	sample, err := dataset.SelectCompleteCases(a, b, e.opts.MinSampleSize)
	if err != nil {
		if core.IsInsufficientDataError(err) {
			return e.pairFailure(a, b, stats.ReasonLowN, err)
		}
		// A length mismatch is a malformed dataset, not a pair problem;
		// pairFailure lets it abort the sweep.
		return e.pairFailure(a, b, stats.ReasonNumericInstability, err)
	}

	kind, err := SelectTest(tagA, tagB, e.opts.CategoricalIntervalTest)
	if err != nil {
		if core.IsUnsupportedCombinationError(err) {
			return e.pairFailure(a, b, stats.ReasonClassificationFailed, err)
		}
		return stats.TestResult{}, err
	}

	test, ok := tests.ForKind(kind)
	if !ok {
		return stats.TestResult{}, fmt.Errorf("no implementation for test %q", kind)
	}

	outcome := test.Run(ctx, tests.Input{
		Sample:    sample,
		TagA:      tagA,
		TagB:      tagB,
		Bucketing: e.opts.Bucketing,
	})

	result := stats.Interpret(a.Name, b.Name, outcome, e.opts.Alpha)
	e.logger.Debug("pair (%s, %s): %s %s=%.4f p=%.4f verdict=%s",
		a.Name, b.Name, result.Test, result.StatSymbol, result.Statistic, result.PValue, result.Verdict)
	return result, nil
}

// pairFailure records a pair-scoped failure as an Inconclusive result.
// Errors that invalidate more than this pair pass through unchanged.
func (e *Engine) pairFailure(a, b *dataset.Observable, reason stats.ReasonCode, err error) (stats.TestResult, error) {
	if !core.IsPairError(err) {
		return stats.TestResult{}, err
	}
	outcome := stats.DegenerateOutcome("", 0, reason, err.Error())
	return stats.Interpret(a.Name, b.Name, outcome, e.opts.Alpha), nil
}
