package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"tsumego_exe/internal/adapters"
	"tsumego_exe/internal/bootstrap"
	"tsumego_exe/internal/domain/tsumego"
	"tsumego_exe/internal/repository"
	tsumegoUC "tsumego_exe/internal/usecase/tsumego"
)

func newImportGraphCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import-graph <export.json>...",
		Short: "Store solved graph exports in the badger database at BADGER_PATH",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := bootstrap.Setup(envPath)
			if err != nil {
				return err
			}
			if cfg.BadgerPath == "" {
				return fmt.Errorf("BADGER_PATH is not set")
			}
			badgerAdapter := adapters.NewAdapterBadger(cfg, logger)
			if err = badgerAdapter.Init(cmd.Context()); err != nil {
				return err
			}
			defer badgerAdapter.Close(cmd.Context())

			store := repository.NewGraphBadgerStore(badgerAdapter.DB)
			for _, path := range args {
				g, err := repository.LoadGraphFile(path)
				if err != nil {
					return err
				}
				if err = store.Save(g); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d positions\n", g.Slug(), g.NumPositions())
			}
			return nil
		},
	}
}

func newImportCollectionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import-collections <collections.yaml>",
		Short: "Upsert collection metadata into MongoDB",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := bootstrap.Setup(envPath)
			if err != nil {
				return err
			}
			collections, err := repository.LoadCollectionsYAML(args[0])
			if err != nil {
				return err
			}
			mongoAdapter := adapters.NewAdapterMongo(cfg, logger)
			if err = mongoAdapter.Init(cmd.Context()); err != nil {
				return err
			}
			defer mongoAdapter.Close(context.Background())

			storage := repository.NewCollectionStorage(logger, mongoAdapter.Database)
			for _, c := range collections {
				if err = storage.Upsert(cmd.Context(), c); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d tsumegos\n", c.Slug, len(c.Tsumegos))
			}
			return nil
		},
	}
}

// loadState reads a {"state": ...} file, or returns the graph root when path is empty.
func loadState(path string, g *repository.SolvedGraph) (tsumego.Position, error) {
	if path == "" {
		return g.Root(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return tsumego.Position{}, err
	}
	var req tsumego.AnalyzeRequest
	if err = json.Unmarshal(data, &req); err != nil {
		return tsumego.Position{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if err = req.State.Validate(g.Root().Wide); err != nil {
		return tsumego.Position{}, err
	}
	return req.State.Decode(g.Root().Wide), nil
}

func analyzeFile(ctx context.Context, graphPath, statePath string) (*repository.SolvedGraph, tsumego.AnalysisResult, error) {
	g, err := repository.LoadGraphFile(graphPath)
	if err != nil {
		return nil, tsumego.AnalysisResult{}, err
	}
	position, err := loadState(statePath, g)
	if err != nil {
		return nil, tsumego.AnalysisResult{}, err
	}
	analyzer, err := tsumegoUC.NewLocalAnalyzer(g)
	if err != nil {
		return nil, tsumego.AnalysisResult{}, err
	}
	result, err := analyzer.Analyze(ctx, g.Slug(), position)
	return g, result, err
}

func newAnalyzeCmd() *cobra.Command {
	var statePath string
	cmd := &cobra.Command{
		Use:   "analyze <export.json>",
		Short: "Analyse a position of a solved graph, the root by default",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, result, err := analyzeFile(cmd.Context(), args[0], statePath)
			if err != nil {
				return err
			}
			if outputJSON {
				return writeJSON(cmd.OutOrStdout(), result)
			}
			printAnalysis(cmd.OutOrStdout(), result)
			return nil
		},
	}
	cmd.Flags().StringVar(&statePath, "state", "", "file with a {\"state\": ...} query")
	return cmd
}

func newVerifyCmd() *cobra.Command {
	var graphDir string
	cmd := &cobra.Command{
		Use:   "verify <collections.yaml> <collection>",
		Short: "Check recorded tsumego values against the solved graphs",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			collections, err := repository.LoadCollectionsYAML(args[0])
			if err != nil {
				return err
			}
			graphs, err := repository.LoadGraphs(cmd.Context(), logger, graphDir, nil)
			if err != nil {
				return err
			}
			named := make([]tsumegoUC.NamedGraph, 0, len(graphs))
			for _, g := range graphs {
				named = append(named, g)
			}
			analyzer, err := tsumegoUC.NewLocalAnalyzer(named...)
			if err != nil {
				return err
			}

			useCase := tsumegoUC.NewTsumegoUseCase(logger, repository.NewMemoryCollectionStorage(collections...), nil, analyzer, 4)
			report, err := useCase.VerifyCollection(cmd.Context(), args[1])
			if err != nil {
				return err
			}
			if outputJSON {
				return writeJSON(cmd.OutOrStdout(), report)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d checked, %d mismatches\n", report.Collection, report.Checked, len(report.Mismatches))
			for _, m := range report.Mismatches {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s: expected [%v, %v], solved [%v, %v]\n", m.Slug, m.Expected.Low, m.Expected.High, m.Actual.Low, m.Actual.High)
			}
			if len(report.Mismatches) > 0 {
				return fmt.Errorf("%d mismatches", len(report.Mismatches))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&graphDir, "graphs", ".", "directory of solved graph exports")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatLine(line []tsumego.Coordinate) string {
	if len(line) == 0 {
		return "-"
	}
	parts := make([]string, len(line))
	for i, c := range line {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ")
}

func moveFlags(m tsumego.MoveInfo) string {
	flags := make([]string, 0, 3)
	if m.LowIdeal {
		flags = append(flags, "low-ideal")
	}
	if m.HighIdeal {
		flags = append(flags, "high-ideal")
	}
	if m.Forcing {
		flags = append(flags, "forcing")
	}
	return strings.Join(flags, ",")
}

func printAnalysis(w io.Writer, result tsumego.AnalysisResult) {
	fmt.Fprintf(w, "value [%v, %v]\n", result.Low, result.High)
	fmt.Fprintf(w, "low line:  %s\n", formatLine(result.LowPrincipal))
	fmt.Fprintf(w, "high line: %s\n", formatLine(result.HighPrincipal))
	for _, m := range result.Moves {
		fmt.Fprintf(w, "%-5s %7v %7v  %-28s low: %s  high: %s\n",
			m.Coordinate(), m.LowGain, m.HighGain, moveFlags(m), formatLine(m.LowPrincipal), formatLine(m.HighPrincipal))
	}
}
