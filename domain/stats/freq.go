package stats

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"covary/domain/core"
	"covary/domain/dataset"
	"covary/domain/scale"
)

// BucketingRule selects how interval values are discretized when they
// participate in a table-based test. The rule is an explicit
// configuration choice, never inferred from the data.
type BucketingRule string

const (
	BucketQuantile BucketingRule = "quantile" // equal-frequency bins
	BucketWidth    BucketingRule = "width"    // equal-width bins
)

// Bucketing configures interval discretization for frequency tables.
type Bucketing struct {
	Rule BucketingRule
	Bins int
}

// DefaultBucketing is quantile bucketing with four bins.
func DefaultBucketing() Bucketing {
	return Bucketing{Rule: BucketQuantile, Bins: 4}
}

// FrequencyTable is a contingency table over the categories of two
// observables. Rows belong to the first observable of the pair.
type FrequencyTable struct {
	RowCategories []string `json:"row_categories"`
	ColCategories []string `json:"col_categories"`
	Counts        [][]int  `json:"counts"` // len(RowCategories) x len(ColCategories)
}

// GrandTotal returns the sum of all cells.
func (t *FrequencyTable) GrandTotal() int {
	total := 0
	for _, row := range t.Counts {
		for _, c := range row {
			total += c
		}
	}
	return total
}

// RowTotals returns the marginal totals per row category.
func (t *FrequencyTable) RowTotals() []int {
	totals := make([]int, len(t.Counts))
	for i, row := range t.Counts {
		for _, c := range row {
			totals[i] += c
		}
	}
	return totals
}

// ColTotals returns the marginal totals per column category.
func (t *FrequencyTable) ColTotals() []int {
	totals := make([]int, len(t.ColCategories))
	for _, row := range t.Counts {
		for j, c := range row {
			totals[j] += c
		}
	}
	return totals
}

// Trim drops all-zero rows and columns. A table can acquire them when
// a category appears in the category list but never jointly with a
// present value on the other side.
func (t *FrequencyTable) Trim() *FrequencyTable {
	rowTotals := t.RowTotals()
	colTotals := t.ColTotals()

	keepRows := make([]int, 0, len(rowTotals))
	for i, rt := range rowTotals {
		if rt > 0 {
			keepRows = append(keepRows, i)
		}
	}
	keepCols := make([]int, 0, len(colTotals))
	for j, ct := range colTotals {
		if ct > 0 {
			keepCols = append(keepCols, j)
		}
	}

	trimmed := &FrequencyTable{
		RowCategories: make([]string, 0, len(keepRows)),
		ColCategories: make([]string, 0, len(keepCols)),
		Counts:        make([][]int, 0, len(keepRows)),
	}
	for _, i := range keepRows {
		trimmed.RowCategories = append(trimmed.RowCategories, t.RowCategories[i])
		row := make([]int, 0, len(keepCols))
		for _, j := range keepCols {
			row = append(row, t.Counts[i][j])
		}
		trimmed.Counts = append(trimmed.Counts, row)
	}
	for _, j := range keepCols {
		trimmed.ColCategories = append(trimmed.ColCategories, t.ColCategories[j])
	}
	return trimmed
}

// BuildFrequencyTable cross-tabulates a complete-case sample. Nominal
// and ordinal values are counted as discrete buckets; interval values
// are discretized by the configured bucketing rule first.
func BuildFrequencyTable(sample *dataset.CompleteCaseSample, tagA, tagB scale.Tag, bucketing Bucketing) (*FrequencyTable, error) {
	rowLabels, rowCats, err := categorize(sample.A, tagA, bucketing)
	if err != nil {
		return nil, err
	}
	colLabels, colCats, err := categorize(sample.B, tagB, bucketing)
	if err != nil {
		return nil, err
	}

	rowIndex := make(map[string]int, len(rowCats))
	for i, c := range rowCats {
		rowIndex[c] = i
	}
	colIndex := make(map[string]int, len(colCats))
	for j, c := range colCats {
		colIndex[c] = j
	}

	counts := make([][]int, len(rowCats))
	for i := range counts {
		counts[i] = make([]int, len(colCats))
	}
	for k := range rowLabels {
		counts[rowIndex[rowLabels[k]]][colIndex[colLabels[k]]]++
	}

	return &FrequencyTable{
		RowCategories: rowCats,
		ColCategories: colCats,
		Counts:        counts,
	}, nil
}

// categorize maps each value to a category label and returns the
// deterministic ordered category list: numeric order for ordinal,
// lexical order for nominal, bin order for interval.
func categorize(values []scale.Value, tag scale.Tag, bucketing Bucketing) ([]string, []string, error) {
	switch tag {
	case scale.Interval:
		return bucketize(values, bucketing)
	case scale.Ordinal:
		return discreteCategories(values, true)
	case scale.Nominal:
		return discreteCategories(values, false)
	default:
		return nil, nil, fmt.Errorf("%w: unknown scale tag %q", core.ErrClassification, tag)
	}
}

func discreteCategories(values []scale.Value, numeric bool) ([]string, []string, error) {
	labels := make([]string, len(values))
	seen := make(map[string]float64, len(values))
	for i, v := range values {
		label := v.Label()
		labels[i] = label
		seen[label] = v.Num
	}

	cats := make([]string, 0, len(seen))
	for c := range seen {
		cats = append(cats, c)
	}
	if numeric {
		sort.Slice(cats, func(i, j int) bool { return seen[cats[i]] < seen[cats[j]] })
	} else {
		sort.Strings(cats)
	}
	return labels, cats, nil
}

// bucketize discretizes interval values into labelled bins.
func bucketize(values []scale.Value, bucketing Bucketing) ([]string, []string, error) {
	if bucketing.Bins < 2 {
		return nil, nil, fmt.Errorf("interval bucketing needs at least 2 bins, got %d", bucketing.Bins)
	}

	nums := make([]float64, len(values))
	for i, v := range values {
		nums[i] = v.Num
	}

	edges, err := binEdges(nums, bucketing)
	if err != nil {
		return nil, nil, err
	}

	// Bin i covers [edges[i], edges[i+1]); the last bin is closed.
	catForBin := make([]string, len(edges)-1)
	for i := range catForBin {
		catForBin[i] = binLabel(edges[i], edges[i+1], i == len(edges)-2)
	}

	labels := make([]string, len(nums))
	used := make(map[string]struct{}, len(catForBin))
	for k, x := range nums {
		bin := len(edges) - 2
		for i := 0; i < len(edges)-1; i++ {
			if x < edges[i+1] {
				bin = i
				break
			}
		}
		labels[k] = catForBin[bin]
		used[catForBin[bin]] = struct{}{}
	}

	cats := make([]string, 0, len(used))
	for _, c := range catForBin {
		if _, ok := used[c]; ok {
			cats = append(cats, c)
		}
	}
	return labels, cats, nil
}

func binEdges(nums []float64, bucketing Bucketing) ([]float64, error) {
	min, max := nums[0], nums[0]
	for _, x := range nums {
		min = math.Min(min, x)
		max = math.Max(max, x)
	}
	if min == max {
		// Constant column: one bin covering the single value.
		return []float64{min, max}, nil
	}

	switch bucketing.Rule {
	case BucketWidth:
		edges := make([]float64, bucketing.Bins+1)
		width := (max - min) / float64(bucketing.Bins)
		for i := range edges {
			edges[i] = min + width*float64(i)
		}
		edges[len(edges)-1] = max
		return edges, nil

	case BucketQuantile:
		sorted := make([]float64, len(nums))
		copy(sorted, nums)
		sort.Float64s(sorted)

		edges := []float64{min}
		for b := 1; b < bucketing.Bins; b++ {
			idx := (len(sorted) * b) / bucketing.Bins
			if idx >= len(sorted) {
				idx = len(sorted) - 1
			}
			q := sorted[idx]
			if q > edges[len(edges)-1] {
				edges = append(edges, q)
			}
		}
		edges = append(edges, max)
		return edges, nil

	default:
		return nil, fmt.Errorf("unknown bucketing rule %q", bucketing.Rule)
	}
}

func binLabel(lo, hi float64, last bool) string {
	bracket := ")"
	if last {
		bracket = "]"
	}
	return "[" + strconv.FormatFloat(lo, 'g', 6, 64) + ", " + strconv.FormatFloat(hi, 'g', 6, 64) + bracket
}
