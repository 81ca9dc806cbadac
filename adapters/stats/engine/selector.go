package engine

import (
	"fmt"

	"covary/domain/core"
	"covary/domain/scale"
	"covary/domain/stats"
)

// scalePair is a normalized (unordered) pair of scale tags.
type scalePair struct {
	lo scale.Tag
	hi scale.Tag
}

// normalizePair orders a tag pair canonically so that selection is
// symmetric: select(a, b) == select(b, a) by construction.
func normalizePair(a, b scale.Tag) scalePair {
	if string(a) <= string(b) {
		return scalePair{lo: a, hi: b}
	}
	return scalePair{lo: b, hi: a}
}

// selectionTable maps normalized scale pairs to test kinds. Entries for
// categorical x interval pairs are overridden by the configured
// CategoricalIntervalTest.
var selectionTable = map[scalePair]stats.TestKind{
	normalizePair(scale.Nominal, scale.Nominal):   stats.TestChiSquare,
	normalizePair(scale.Nominal, scale.Ordinal):   stats.TestChiSquare,
	normalizePair(scale.Ordinal, scale.Ordinal):   stats.TestSpearman,
	normalizePair(scale.Nominal, scale.Interval):  stats.TestKruskalWallis,
	normalizePair(scale.Ordinal, scale.Interval):  stats.TestKruskalWallis,
	normalizePair(scale.Interval, scale.Interval): stats.TestPearson,
}

// SelectTest maps an unordered pair of scale tags to the applicable
// test. categoricalInterval chooses how categorical x interval pairs
// are tested: Kruskal-Wallis on raw values (default) or chi-square on
// a bucketed contingency table.
func SelectTest(a, b scale.Tag, categoricalInterval stats.TestKind) (stats.TestKind, error) {
	pair := normalizePair(a, b)
	kind, ok := selectionTable[pair]
	if !ok {
		return "", fmt.Errorf("%w: no test for scales (%s, %s)", core.ErrUnsupportedCombination, a, b)
	}

	if kind == stats.TestKruskalWallis && categoricalInterval == stats.TestChiSquare {
		return stats.TestChiSquare, nil
	}
	return kind, nil
}
