package scale

import (
	"math"
	"strconv"
	"strings"
)

// ValueKind discriminates the raw representations a dataset cell can take.
type ValueKind int

const (
	KindMissing ValueKind = iota
	KindNumber
	KindText
)

// Value is a single raw cell of an observable. Numeric and textual
// representations are kept separate so classification can inspect the
// value set rather than per-value formatting.
type Value struct {
	Kind ValueKind
	Num  float64
	Text string
}

// Missing returns the missing-value marker.
func Missing() Value {
	return Value{Kind: KindMissing}
}

// Number wraps a numeric cell.
func Number(v float64) Value {
	if math.IsNaN(v) {
		return Missing()
	}
	return Value{Kind: KindNumber, Num: v}
}

// Text wraps a textual cell. Blank strings are missing.
func Text(s string) Value {
	if strings.TrimSpace(s) == "" {
		return Missing()
	}
	return Value{Kind: KindText, Text: s}
}

// Parse converts a raw string cell into a Value. Numeric-looking cells
// become numbers, blanks become missing, everything else is text.
func Parse(raw string) Value {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Missing()
	}
	if num, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return Number(num)
	}
	return Text(trimmed)
}

// IsMissing reports whether the cell carries no value.
func (v Value) IsMissing() bool {
	return v.Kind == KindMissing
}

// IsIntegral reports whether a numeric cell has zero fractional part.
// 2.0 is integral; 2.5 is not. Non-numeric cells are never integral.
func (v Value) IsIntegral() bool {
	if v.Kind != KindNumber {
		return false
	}
	return v.Num == math.Trunc(v.Num) && !math.IsInf(v.Num, 0)
}

// Label renders the cell as a category label for frequency tables.
func (v Value) Label() string {
	switch v.Kind {
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'g', -1, 64)
	case KindText:
		return v.Text
	default:
		return ""
	}
}

// DistinctCount counts distinct non-missing values in a column.
func DistinctCount(values []Value) int {
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		if v.IsMissing() {
			continue
		}
		seen[v.Label()] = struct{}{}
	}
	return len(seen)
}
