package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"covary/adapters/excel"
	"covary/adapters/postgres"
	"covary/adapters/stats/tests"
	"covary/app"
	"covary/domain/core"
	"covary/domain/scale"
	"covary/domain/stats"
	"covary/internal/config"
	"covary/ports"
)

func main() {
	godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "covary",
		Short: "Pairwise statistical dependence analysis for tabular datasets",
	}

	rootCmd.AddCommand(
		newAnalyzeCmd(),
		newTestsCmd(),
		newSweepsCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newAnalyzeCmd() *cobra.Command {
	var outputDir string
	var declarations []string
	var save bool

	cmd := &cobra.Command{
		Use:   "analyze [data-file]",
		Short: "Run a dependence sweep over a CSV or XLSX file",
		Long: `Run the full pairwise dependence sweep: classify each column's
measurement scale, pick the right test per pair, and write tests.csv,
freqs.csv, deps.gv and report.md into the output directory.

Example: covary analyze data.xlsx --out ./reports --declare rating=ordinal`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if outputDir == "" {
				outputDir = cfg.Paths.OutputDir
			}

			declared, err := parseDeclarations(declarations)
			if err != nil {
				return err
			}

			reader := excel.NewDataReader(args[0])
			reader.Declarations = declared

			var repo ports.ResultRepository
			if save {
				if cfg.Database.URL == "" {
					return fmt.Errorf("--save requires DATABASE_URL")
				}
				db, err := postgres.Connect(cmd.Context(), cfg.Database.URL)
				if err != nil {
					return err
				}
				defer db.Close()
				repo = postgres.NewResultRepository(db)
				if err := repo.EnsureSchema(cmd.Context()); err != nil {
					return err
				}
			}

			service := app.NewAnalysisService(app.OptionsFromConfig(cfg.Analysis))
			summary, err := service.AnalyzeAndReport(cmd.Context(), reader, outputDir, repo)
			if err != nil {
				return err
			}

			printSummary(cmd, summary)
			return nil
		},
	}

	cmd.Flags().StringVar(&outputDir, "out", "", "Output directory for the report set (default OUTPUT_DIR)")
	cmd.Flags().StringSliceVar(&declarations, "declare", nil, "Scale overrides as name=interval|ordinal|nominal")
	cmd.Flags().BoolVar(&save, "save", false, "Persist results to the configured database")

	return cmd
}

func newTestsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tests",
		Short: "List the available statistical tests",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, t := range tests.All() {
				fmt.Fprintf(cmd.OutOrStdout(), "%s (%s, statistic %s)\n", t.Name(), t.Kind(), t.StatSymbol())
				fmt.Fprintf(cmd.OutOrStdout(), "  H0: %s\n", t.H0Thesis())
				fmt.Fprintf(cmd.OutOrStdout(), "  H1: %s\n", t.H1Thesis())
			}
			return nil
		},
	}
}

func newSweepsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "sweeps [sweep-id]",
		Short: "List or inspect persisted sweeps",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.Database.URL == "" {
				return fmt.Errorf("sweeps requires DATABASE_URL")
			}

			db, err := postgres.Connect(cmd.Context(), cfg.Database.URL)
			if err != nil {
				return err
			}
			defer db.Close()
			repo := postgres.NewResultRepository(db)

			if len(args) == 1 {
				return printSweep(cmd.Context(), cmd, repo, args[0])
			}

			records, err := repo.ListSweeps(cmd.Context(), limit, 0)
			if err != nil {
				return err
			}
			for _, r := range records {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %d results  %dms\n",
					r.ID, r.CreatedAt.Time().Format("2006-01-02 15:04:05"), r.ResultCount, r.RuntimeMs)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of sweeps to list")
	return cmd
}

func printSweep(ctx context.Context, cmd *cobra.Command, repo ports.ResultRepository, rawID string) error {
	id, err := core.ParseSweepID(rawID)
	if err != nil {
		return err
	}

	record, results, err := repo.GetSweep(ctx, id)
	if err != nil {
		return err
	}

	payload := map[string]interface{}{"sweep": record, "results": results}
	out, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}

func printSummary(cmd *cobra.Command, summary *app.SweepSummary) {
	fmt.Fprintf(cmd.OutOrStdout(), "Sweep %s: %d pairs (%d dependent, %d independent, %d inconclusive)\n",
		summary.SweepID, len(summary.Results),
		summary.Counts[stats.VerdictDependent],
		summary.Counts[stats.VerdictIndependent],
		summary.Counts[stats.VerdictInconclusive])

	for _, r := range summary.Results {
		if r.Verdict != stats.VerdictDependent {
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "  %s ~ %s  %s  %s=%.4g  p=%.4g  n=%d\n",
			r.ObservableA, r.ObservableB, r.Test, r.StatSymbol, r.Statistic, r.PValue, r.SampleSize)
	}
}

func parseDeclarations(raw []string) (map[string]scale.Declared, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	declared := make(map[string]scale.Declared, len(raw))
	for _, entry := range raw {
		name, kind, ok := strings.Cut(entry, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --declare entry %q (want name=scale)", entry)
		}
		switch strings.ToLower(kind) {
		case "interval":
			declared[name] = scale.DeclaredInterval
		case "ordinal":
			declared[name] = scale.DeclaredOrdinal
		case "nominal":
			declared[name] = scale.DeclaredNominal
		default:
			return nil, fmt.Errorf("unknown scale %q (want interval, ordinal or nominal)", kind)
		}
	}
	return declared, nil
}
