package app

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"covary/adapters/stats/engine"
	"covary/domain/dataset"
	"covary/domain/scale"
	"covary/domain/stats"
)

func buildDataset(t *testing.T) *dataset.Dataset {
	t.Helper()

	parse := func(raw ...string) []scale.Value {
		values := make([]scale.Value, len(raw))
		for i, r := range raw {
			values[i] = scale.Parse(r)
		}
		return values
	}

	ds, err := dataset.New(
		dataset.NewObservable("rank", parse("1", "2", "3", "1", "2", "3", "1", "2")),
		dataset.NewObservable("team", parse("red", "blue", "red", "blue", "red", "blue", "red", "blue")),
		dataset.NewObservable("weight", parse("1.5", "2.5", "3.5", "1.2", "2.2", "3.2", "1.8", "2.8")),
	)
	require.NoError(t, err)
	return ds
}

func TestRunProducesSummary(t *testing.T) {
	ds := buildDataset(t)
	service := NewAnalysisService(engine.DefaultOptions())

	summary, err := service.Run(context.Background(), ds)
	require.NoError(t, err)

	require.Len(t, summary.Results, 3, "3 columns give 3 unordered pairs")
	require.Len(t, summary.Profiles, 3)
	require.False(t, summary.SweepID.String() == "")
	require.NotEmpty(t, string(summary.Fingerprint))

	total := 0
	for _, count := range summary.Counts {
		total += count
	}
	require.Equal(t, len(summary.Results), total, "verdict counts cover every result")
}

func TestProfileObservables(t *testing.T) {
	ds := buildDataset(t)

	profiles := ProfileObservables(ds)
	require.Len(t, profiles, 3)

	byName := make(map[string]ObservableProfile)
	for _, p := range profiles {
		byName[p.Name] = p
	}

	team := byName["team"]
	require.Equal(t, "nominal", team.Scale)
	require.Equal(t, 2, team.Distinct)
	require.Len(t, team.Frequencies, 2)
	require.Equal(t, 4, team.Frequencies[0].Count)

	weight := byName["weight"]
	require.Equal(t, "interval", weight.Scale)
	require.Greater(t, weight.StdDev, 0.0)
	require.Equal(t, 1.2, weight.Min)
	require.Equal(t, 3.5, weight.Max)
	require.Empty(t, weight.Frequencies, "interval observables carry no frequency table")
}

func TestWriteAllCreatesReportSet(t *testing.T) {
	ds := buildDataset(t)
	service := NewAnalysisService(engine.DefaultOptions())

	summary, err := service.Run(context.Background(), ds)
	require.NoError(t, err)

	dir := t.TempDir()
	require.NoError(t, NewReportWriter(dir).WriteAll(summary))

	file, err := os.Open(filepath.Join(dir, "tests.csv"))
	require.NoError(t, err)
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4, "header plus one row per pair")
	require.Equal(t, "observable_a", rows[0][0])

	freqs, err := os.ReadFile(filepath.Join(dir, "freqs.csv"))
	require.NoError(t, err)
	require.Contains(t, string(freqs), "team,blue,4")

	graph, err := os.ReadFile(filepath.Join(dir, "deps.gv"))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(graph), "graph dependencies {"))

	report, err := os.ReadFile(filepath.Join(dir, "report.md"))
	require.NoError(t, err)
	require.Contains(t, string(report), "# Dependence Analysis Report")
	require.Contains(t, string(report), "## Test catalog")
}

func TestBuildMarkdownReportMarksInconclusive(t *testing.T) {
	summary := &SweepSummary{
		Results: []stats.TestResult{
			{
				ObservableA: "a",
				ObservableB: "b",
				PValue:      1.0,
				Verdict:     stats.VerdictInconclusive,
				Reason:      stats.ReasonConstantColumn,
			},
		},
		Counts: map[stats.Verdict]int{stats.VerdictInconclusive: 1},
	}

	report := BuildMarkdownReport(summary)
	require.Contains(t, report, "inconclusive (CONSTANT_COLUMN)")
}
