package dataset

import (
	"errors"
	"sync"
	"testing"

	"covary/domain/core"
	"covary/domain/scale"
)

func column(name string, raw ...string) *Observable {
	values := make([]scale.Value, len(raw))
	for i, r := range raw {
		values[i] = scale.Parse(r)
	}
	return NewObservable(name, values)
}

func TestNewDatasetValidatesLengths(t *testing.T) {
	_, err := New(
		column("a", "1", "2", "3"),
		column("b", "1", "2"),
	)
	if err == nil {
		t.Fatal("expected malformed-dataset error for unequal lengths")
	}
	if !isMalformed(err) {
		t.Errorf("expected ErrMalformedDataset, got %v", err)
	}
}

func TestNewDatasetRejectsDuplicateNames(t *testing.T) {
	_, err := New(
		column("a", "1", "2"),
		column("a", "3", "4"),
	)
	if err == nil {
		t.Fatal("expected error for duplicate observable names")
	}
}

func TestScaleTagCachedAcrossCalls(t *testing.T) {
	obs := column("x", "1", "2.5", "3")

	tag1, err := obs.Scale()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Mutating raw values afterwards must not re-trigger inference.
	obs.Values[1] = scale.Text("oops")
	tag2, err := obs.Scale()
	if err != nil {
		t.Fatalf("unexpected error on cached call: %v", err)
	}
	if tag1 != tag2 || tag1 != scale.Interval {
		t.Errorf("expected cached Interval tag, got %s then %s", tag1, tag2)
	}
}

// Sweep workers classify shared observables from multiple goroutines;
// first use must settle the tag exactly once with every caller seeing
// the same answer. Run with -race.
func TestScaleSafeUnderConcurrentCalls(t *testing.T) {
	obs := column("x", "1", "2.5", "3", "4.5", "5")

	const callers = 16
	tags := make([]scale.Tag, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tags[i], errs[i] = obs.Scale()
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d: unexpected error: %v", i, errs[i])
		}
		if tags[i] != scale.Interval {
			t.Errorf("caller %d: expected Interval, got %s", i, tags[i])
		}
	}
}

// Complete-case selection is pairwise: for A=[1,2,-,4], B=[-,2,3,4] the
// sample holds exactly the two positions where both are present, and a
// third column with its own missing pattern must not change that.
func TestSelectCompleteCasesPairwise(t *testing.T) {
	a := column("a", "1", "2", "", "4")
	b := column("b", "", "2", "3", "4")
	c := column("c", "9", "", "", "") // unrelated, mostly missing

	ds, err := New(a, b, c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_ = ds

	sample, err := SelectCompleteCases(a, b, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sample.Len() != 2 {
		t.Fatalf("expected 2 complete cases, got %d", sample.Len())
	}
	if sample.A[0].Num != 2 || sample.B[0].Num != 2 {
		t.Errorf("first complete case should be row 2, got %+v / %+v", sample.A[0], sample.B[0])
	}
	if sample.A[1].Num != 4 || sample.B[1].Num != 4 {
		t.Errorf("second complete case should be row 4, got %+v / %+v", sample.A[1], sample.B[1])
	}
}

func TestSelectCompleteCasesMinimum(t *testing.T) {
	a := column("a", "1", "", "")
	b := column("b", "1", "2", "3")

	_, err := SelectCompleteCases(a, b, 2)
	if !core.IsInsufficientDataError(err) {
		t.Fatalf("expected insufficient-data error, got %v", err)
	}
}

func TestSelectCompleteCasesLengthMismatch(t *testing.T) {
	a := column("a", "1", "2", "3")
	b := column("b", "1", "2")

	_, err := SelectCompleteCases(a, b, 2)
	if err == nil || !isMalformed(err) {
		t.Fatalf("expected malformed-dataset error, got %v", err)
	}
	if !errors.Is(err, core.ErrLengthMismatch) {
		t.Errorf("expected ErrLengthMismatch, got %v", err)
	}
}

func isMalformed(err error) bool {
	return errors.Is(err, core.ErrMalformedDataset)
}
