// Package testkit generates synthetic tabular datasets with planted
// dependence structure, for exercising sweeps end to end.
package testkit

import (
	"fmt"
	"math/rand"
	"strings"

	"covary/domain/dataset"
	"covary/domain/scale"
)

// Generator produces deterministic synthetic datasets from a seed.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator creates a generator with a fixed seed.
func NewGenerator(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

// LinearPair returns two interval columns where y = 2x + noise. With
// small noise the pair should test Dependent under Pearson.
func (g *Generator) LinearPair(n int, noise float64) (x, y []scale.Value) {
	x = make([]scale.Value, n)
	y = make([]scale.Value, n)
	for i := 0; i < n; i++ {
		xv := g.rng.Float64()*10 + 0.1
		x[i] = scale.Number(xv)
		y[i] = scale.Number(2*xv + g.rng.NormFloat64()*noise)
	}
	return x, y
}

// CategoryShiftPair returns a nominal column and an interval column
// whose location shifts per category, a planted Kruskal-Wallis signal.
func (g *Generator) CategoryShiftPair(n int, categories []string, shift float64) (cat, num []scale.Value) {
	cat = make([]scale.Value, n)
	num = make([]scale.Value, n)
	for i := 0; i < n; i++ {
		c := g.rng.Intn(len(categories))
		cat[i] = scale.Text(categories[c])
		num[i] = scale.Number(float64(c)*shift + g.rng.NormFloat64() + 0.5)
	}
	return cat, num
}

// OrdinalColumn returns integer-coded values drawn uniformly from
// [1, levels].
func (g *Generator) OrdinalColumn(n, levels int) []scale.Value {
	values := make([]scale.Value, n)
	for i := 0; i < n; i++ {
		values[i] = scale.Number(float64(g.rng.Intn(levels) + 1))
	}
	return values
}

// NoiseColumn returns an interval column independent of everything else.
func (g *Generator) NoiseColumn(n int) []scale.Value {
	values := make([]scale.Value, n)
	for i := 0; i < n; i++ {
		values[i] = scale.Number(g.rng.NormFloat64()*3 + 0.25)
	}
	return values
}

// WithMissing blanks out roughly rate of the values.
func (g *Generator) WithMissing(values []scale.Value, rate float64) []scale.Value {
	out := make([]scale.Value, len(values))
	copy(out, values)
	for i := range out {
		if g.rng.Float64() < rate {
			out[i] = scale.Missing()
		}
	}
	return out
}

// Dataset assembles a standard synthetic dataset: a linear interval
// pair, a category-shifted pair, an ordinal column and pure noise.
func (g *Generator) Dataset(n int) (*dataset.Dataset, error) {
	x, y := g.LinearPair(n, 0.5)
	cat, num := g.CategoryShiftPair(n, []string{"north", "south", "east"}, 5.0)

	return dataset.New(
		dataset.NewObservable("signal_x", x),
		dataset.NewObservable("signal_y", y),
		dataset.NewObservable("region", cat),
		dataset.NewObservable("regional_level", num),
		dataset.NewObservable("grade", g.OrdinalColumn(n, 5)),
		dataset.NewObservable("noise", g.NoiseColumn(n)),
	)
}

// CSV renders a dataset back to CSV text, for reader round trips.
func CSV(ds *dataset.Dataset) string {
	var b strings.Builder
	b.WriteString(strings.Join(ds.Names(), ","))
	b.WriteString("\n")

	observables := ds.Observables()
	for row := 0; row < ds.RowCount(); row++ {
		for col, obs := range observables {
			if col > 0 {
				b.WriteString(",")
			}
			v := obs.Values[row]
			switch {
			case v.IsMissing():
			case v.Kind == scale.KindText:
				b.WriteString(v.Text)
			default:
				fmt.Fprintf(&b, "%g", v.Num)
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}
