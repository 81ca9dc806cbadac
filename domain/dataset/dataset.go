// Package dataset holds the tabular input model for dependence analysis:
// observables (columns) over a shared row index, and pairwise
// complete-case selection.
package dataset

import (
	"fmt"

	"covary/domain/core"
)

// Dataset is an ordered set of observables over a common row index.
// Row i in every observable refers to the same underlying observation.
type Dataset struct {
	observables []*Observable
	byName      map[string]*Observable
}

// New assembles a dataset and validates its shared-index invariant.
func New(observables ...*Observable) (*Dataset, error) {
	d := &Dataset{
		observables: observables,
		byName:      make(map[string]*Observable, len(observables)),
	}

	for _, obs := range observables {
		if obs.Name == "" {
			return nil, core.NewMalformedDatasetError("observable with empty name")
		}
		if _, dup := d.byName[obs.Name]; dup {
			return nil, core.NewMalformedDatasetError(
				fmt.Sprintf("duplicate observable name %q", obs.Name))
		}
		d.byName[obs.Name] = obs
	}

	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// Validate checks that every observable has the same length. A length
// mismatch is an invariant violation at the input boundary and aborts
// any sweep over this dataset.
func (d *Dataset) Validate() error {
	if len(d.observables) == 0 {
		return core.NewMalformedDatasetError("dataset has no observables")
	}

	rows := d.observables[0].Len()
	for _, obs := range d.observables[1:] {
		if obs.Len() != rows {
			return core.NewMalformedDatasetError(fmt.Sprintf(
				"observable %q has %d rows, expected %d", obs.Name, obs.Len(), rows))
		}
	}
	return nil
}

// Observables returns the columns in declaration order.
func (d *Dataset) Observables() []*Observable {
	return d.observables
}

// Names returns the observable names in declaration order.
func (d *Dataset) Names() []string {
	names := make([]string, len(d.observables))
	for i, obs := range d.observables {
		names[i] = obs.Name
	}
	return names
}

// Get returns the observable with the given name.
func (d *Dataset) Get(name string) (*Observable, error) {
	obs, ok := d.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrObservableNotFound, name)
	}
	return obs, nil
}

// RowCount returns the shared row count.
func (d *Dataset) RowCount() int {
	if len(d.observables) == 0 {
		return 0
	}
	return d.observables[0].Len()
}

// ColumnCount returns the number of observables.
func (d *Dataset) ColumnCount() int {
	return len(d.observables)
}

// Fingerprint returns a deterministic hash of the dataset's shape,
// used to tie persisted results back to their input.
func (d *Dataset) Fingerprint() core.DatasetHash {
	return core.ComputeDatasetHash(d.Names(), d.RowCount())
}
