package app

import (
	"sort"

	montstats "github.com/montanaflynn/stats"

	"covary/domain/dataset"
	"covary/domain/scale"
)

// ObservableProfile is the descriptive summary of one column. Numeric
// moments are only populated for interval and ordinal scales.
type ObservableProfile struct {
	Name       string  `json:"name"`
	Scale      string  `json:"scale,omitempty"`
	ScaleError string  `json:"scale_error,omitempty"`
	Rows       int     `json:"rows"`
	NonMissing int     `json:"non_missing"`
	Distinct   int     `json:"distinct"`
	Mean       float64 `json:"mean,omitempty"`
	StdDev     float64 `json:"std_dev,omitempty"`
	Min        float64 `json:"min,omitempty"`
	Max        float64 `json:"max,omitempty"`

	// Frequencies holds value counts for nominal/ordinal observables,
	// sorted by descending count then label.
	Frequencies []ValueCount `json:"frequencies,omitempty"`
}

// ValueCount is one row of an observable's frequency table.
type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// ProfileObservables produces a descriptive profile per column.
func ProfileObservables(ds *dataset.Dataset) []ObservableProfile {
	profiles := make([]ObservableProfile, 0, ds.ColumnCount())
	for _, obs := range ds.Observables() {
		profiles = append(profiles, profileObservable(obs))
	}
	return profiles
}

func profileObservable(obs *dataset.Observable) ObservableProfile {
	profile := ObservableProfile{
		Name:       obs.Name,
		Rows:       obs.Len(),
		NonMissing: obs.NonMissingCount(),
		Distinct:   obs.DistinctCount(),
	}

	tag, err := obs.Scale()
	if err != nil {
		profile.ScaleError = err.Error()
		return profile
	}
	profile.Scale = string(tag)

	switch tag {
	case scale.Interval, scale.Ordinal:
		nums := make([]float64, 0, obs.NonMissingCount())
		for _, v := range obs.Values {
			if !v.IsMissing() {
				nums = append(nums, v.Num)
			}
		}
		if mean, err := montstats.Mean(nums); err == nil {
			profile.Mean = mean
		}
		if sd, err := montstats.StandardDeviationSample(nums); err == nil {
			profile.StdDev = sd
		}
		if min, err := montstats.Min(nums); err == nil {
			profile.Min = min
		}
		if max, err := montstats.Max(nums); err == nil {
			profile.Max = max
		}
	}

	if tag == scale.Nominal || tag == scale.Ordinal {
		profile.Frequencies = valueCounts(obs)
	}
	return profile
}

func valueCounts(obs *dataset.Observable) []ValueCount {
	counts := make(map[string]int)
	for _, v := range obs.Values {
		if !v.IsMissing() {
			counts[v.Label()]++
		}
	}

	out := make([]ValueCount, 0, len(counts))
	for value, count := range counts {
		out = append(out, ValueCount{Value: value, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	return out
}
