package core

import (
	"testing"
)

func TestNewIDIsUniqueAndNonEmpty(t *testing.T) {
	seen := make(map[ID]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		id := NewID()
		if id.IsEmpty() {
			t.Fatalf("NewID returned an empty ID at iteration %d", i)
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("NewID returned duplicate %s", id)
		}
		seen[id] = struct{}{}
	}
}

func TestParseSweepID(t *testing.T) {
	if _, err := ParseSweepID("   "); err == nil {
		t.Error("expected an error for a blank sweep ID")
	}
	id, err := ParseSweepID("sweep-42")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id.String() != "sweep-42" {
		t.Errorf("expected sweep-42, got %s", id)
	}
}

func TestComputeResultIDDeterminism(t *testing.T) {
	fp := ComputeDatasetHash([]string{"a", "b"}, 10)

	one := ComputeResultID(fp, "a|b", "alpha=0.05")
	two := ComputeResultID(fp, "a|b", "alpha=0.05")
	if one != two {
		t.Error("identical inputs must map to the same result ID")
	}

	otherPair := ComputeResultID(fp, "a|c", "alpha=0.05")
	if one == otherPair {
		t.Error("the pair name must be part of result identity")
	}
	otherConfig := ComputeResultID(fp, "a|b", "alpha=0.01")
	if one == otherConfig {
		t.Error("the configuration must be part of result identity")
	}
}

func TestComputeDatasetHashDeterminism(t *testing.T) {
	h1 := ComputeDatasetHash([]string{"a", "b", "c"}, 100)
	h2 := ComputeDatasetHash([]string{"c", "a", "b"}, 100)
	if !Hash(h1).Equals(Hash(h2)) {
		t.Error("fingerprint must be independent of observable order")
	}

	h3 := ComputeDatasetHash([]string{"a", "b", "c"}, 101)
	if Hash(h1).Equals(Hash(h3)) {
		t.Error("fingerprint must change with row count")
	}
}
