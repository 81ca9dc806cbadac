package app

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"covary/adapters/stats/tests"
	"covary/domain/stats"
	"covary/internal"
	apperrors "covary/internal/errors"
)

// ReportWriter renders a sweep summary into the report file set:
// tests.csv (one row per pair), freqs.csv (per-observable value
// counts), deps.gv (Graphviz graph of dependent pairs) and report.md.
type ReportWriter struct {
	outputDir string
	logger    *internal.Logger
}

// NewReportWriter creates a report writer targeting outputDir.
func NewReportWriter(outputDir string) *ReportWriter {
	return &ReportWriter{outputDir: outputDir, logger: internal.DefaultLogger.Named("report")}
}

// WriteAll writes the full report set.
func (w *ReportWriter) WriteAll(summary *SweepSummary) error {
	if err := os.MkdirAll(w.outputDir, 0o755); err != nil {
		return apperrors.ReportError("failed to create output directory", err)
	}

	if err := w.writeResultsCSV(summary); err != nil {
		return err
	}
	if err := w.writeFrequenciesCSV(summary); err != nil {
		return err
	}
	if err := w.writeDependencyGraph(summary); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(w.outputDir, "report.md"),
		[]byte(BuildMarkdownReport(summary)), 0o644); err != nil {
		return apperrors.ReportError("failed to write report.md", err)
	}

	w.logger.Info("report set written to %s", w.outputDir)
	return nil
}

func (w *ReportWriter) writeResultsCSV(summary *SweepSummary) error {
	file, err := os.Create(filepath.Join(w.outputDir, "tests.csv"))
	if err != nil {
		return apperrors.ReportError("failed to create tests.csv", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"observable_a", "observable_b", "test", "statistic", "df", "p_value", "sample_size", "verdict", "reason", "detail"}
	if err := writer.Write(header); err != nil {
		return apperrors.ReportError("failed to write tests.csv header", err)
	}

	for _, r := range summary.Results {
		record := []string{
			r.ObservableA,
			r.ObservableB,
			string(r.Test),
			strconv.FormatFloat(r.Statistic, 'g', 10, 64),
			strconv.Itoa(r.DF),
			strconv.FormatFloat(r.PValue, 'g', 10, 64),
			strconv.Itoa(r.SampleSize),
			string(r.Verdict),
			string(r.Reason),
			r.Detail,
		}
		if err := writer.Write(record); err != nil {
			return apperrors.ReportError("failed to write tests.csv row", err)
		}
	}
	return nil
}

func (w *ReportWriter) writeFrequenciesCSV(summary *SweepSummary) error {
	file, err := os.Create(filepath.Join(w.outputDir, "freqs.csv"))
	if err != nil {
		return apperrors.ReportError("failed to create freqs.csv", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"observable", "value", "count"}); err != nil {
		return apperrors.ReportError("failed to write freqs.csv header", err)
	}
	for _, profile := range summary.Profiles {
		for _, vc := range profile.Frequencies {
			if err := writer.Write([]string{profile.Name, vc.Value, strconv.Itoa(vc.Count)}); err != nil {
				return apperrors.ReportError("failed to write freqs.csv row", err)
			}
		}
	}
	return nil
}

// writeDependencyGraph emits a Graphviz DOT graph whose edges are the
// Dependent pairs, labelled with their p-values.
func (w *ReportWriter) writeDependencyGraph(summary *SweepSummary) error {
	var b strings.Builder
	b.WriteString("graph dependencies {\n")
	b.WriteString("    node [shape=box];\n")
	for _, r := range summary.Results {
		if r.Verdict != stats.VerdictDependent {
			continue
		}
		fmt.Fprintf(&b, "    %q -- %q [label=\"%s, p=%.4g\"];\n",
			r.ObservableA, r.ObservableB, r.Test, r.PValue)
	}
	b.WriteString("}\n")

	if err := os.WriteFile(filepath.Join(w.outputDir, "deps.gv"), []byte(b.String()), 0o644); err != nil {
		return apperrors.ReportError("failed to write deps.gv", err)
	}
	return nil
}

// BuildMarkdownReport renders the summary as a markdown document:
// verdict counts, the result table, profiles and the test catalog.
func BuildMarkdownReport(summary *SweepSummary) string {
	var b strings.Builder

	b.WriteString("# Dependence Analysis Report\n\n")
	fmt.Fprintf(&b, "Sweep `%s` over dataset `%s`.\n\n", summary.SweepID, summary.Fingerprint)
	fmt.Fprintf(&b, "- Dependent pairs: %d\n", summary.Counts[stats.VerdictDependent])
	fmt.Fprintf(&b, "- Independent pairs: %d\n", summary.Counts[stats.VerdictIndependent])
	fmt.Fprintf(&b, "- Inconclusive pairs: %d\n\n", summary.Counts[stats.VerdictInconclusive])

	b.WriteString("## Pairwise results\n\n")
	b.WriteString("| Pair | Test | Statistic | df | p-value | n | Verdict |\n")
	b.WriteString("|---|---|---|---|---|---|---|\n")
	for _, r := range summary.Results {
		verdict := string(r.Verdict)
		if r.Verdict == stats.VerdictInconclusive && r.Reason != "" {
			verdict = fmt.Sprintf("%s (%s)", r.Verdict, r.Reason)
		}
		fmt.Fprintf(&b, "| %s ~ %s | %s | %.4g | %d | %.4g | %d | %s |\n",
			r.ObservableA, r.ObservableB, r.Test, r.Statistic, r.DF, r.PValue, r.SampleSize, verdict)
	}

	b.WriteString("\n## Observables\n\n")
	b.WriteString("| Name | Scale | Rows | Present | Distinct | Mean | StdDev |\n")
	b.WriteString("|---|---|---|---|---|---|---|\n")
	for _, p := range summary.Profiles {
		scaleLabel := p.Scale
		if p.ScaleError != "" {
			scaleLabel = "unclassifiable"
		}
		fmt.Fprintf(&b, "| %s | %s | %d | %d | %d | %.4g | %.4g |\n",
			p.Name, scaleLabel, p.Rows, p.NonMissing, p.Distinct, p.Mean, p.StdDev)
	}

	b.WriteString("\n## Test catalog\n\n")
	for _, t := range tests.All() {
		fmt.Fprintf(&b, "### %s\n\n", t.Name())
		fmt.Fprintf(&b, "- Statistic: `%s`\n", t.StatSymbol())
		fmt.Fprintf(&b, "- %s\n", t.H0Thesis())
		fmt.Fprintf(&b, "- %s\n\n", t.H1Thesis())
	}

	b.WriteString("p-values are two-tailed probabilities, under the null hypothesis of independence, ")
	b.WriteString("of a statistic at least as extreme as the one observed.\n")
	return b.String()
}
