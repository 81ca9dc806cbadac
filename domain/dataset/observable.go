package dataset

import (
	"sync"

	"covary/domain/scale"
)

// Observable is one named column of raw values sharing the dataset's
// row index. Its scale tag is either declared by the caller or inferred
// once on first use and cached; it never changes mid-analysis.
type Observable struct {
	Name     string
	Values   []scale.Value
	Declared scale.Declared

	classifyOnce sync.Once
	tag          scale.Tag
	tagErr       error
}

// NewObservable creates an observable from raw values.
func NewObservable(name string, values []scale.Value) *Observable {
	return &Observable{Name: name, Values: values}
}

// NewDeclaredObservable creates an observable with an explicit scale override.
func NewDeclaredObservable(name string, values []scale.Value, declared scale.Declared) *Observable {
	return &Observable{Name: name, Values: values, Declared: declared}
}

// Scale returns the observable's measurement scale, classifying on
// first call and caching the outcome (including a classification
// failure). An observable is shared by every pair it appears in, so the
// cache must stay safe under concurrent sweep workers.
func (o *Observable) Scale() (scale.Tag, error) {
	o.classifyOnce.Do(func() {
		o.tag, o.tagErr = scale.Classify(o.Name, o.Values, o.Declared)
	})
	return o.tag, o.tagErr
}

// Len returns the number of rows, missing included.
func (o *Observable) Len() int {
	return len(o.Values)
}

// NonMissingCount returns the number of present values.
func (o *Observable) NonMissingCount() int {
	n := 0
	for _, v := range o.Values {
		if !v.IsMissing() {
			n++
		}
	}
	return n
}

// DistinctCount returns the number of distinct present values.
func (o *Observable) DistinctCount() int {
	return scale.DistinctCount(o.Values)
}
