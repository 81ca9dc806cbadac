package core

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Equals checks if two hashes are equal
func (h Hash) Equals(other Hash) bool {
	return h == other
}

// DatasetHash fingerprints a dataset by its observable names and row count.
// Two sweeps over the same fingerprint and configuration must produce
// identical results.
type DatasetHash Hash

func (h DatasetHash) String() string { return Hash(h).String() }

// ComputeResultID derives a stable result identifier from the dataset
// fingerprint, the pair name and the sweep configuration digest. The
// same dataset, pair and configuration always map to the same ID.
func ComputeResultID(fingerprint DatasetHash, pairName, configDigest string) ResultID {
	return ResultID(NewHash([]byte(string(fingerprint) + "|" + pairName + "|" + configDigest)))
}

// ComputeDatasetHash builds a deterministic fingerprint from observable
// names (sorted) and the shared row count.
func ComputeDatasetHash(names []string, rows int) DatasetHash {
	sorted := make([]string, len(names))
	copy(sorted, names)
	sort.Strings(sorted)

	var data strings.Builder
	for _, name := range sorted {
		data.WriteString(name)
		data.WriteString("\x00")
	}
	data.WriteString(fmt.Sprintf("rows=%d", rows))

	return DatasetHash(NewHash([]byte(data.String())))
}
