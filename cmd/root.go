package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/theirongolddev/bizlens/internal/cli"
	"github.com/theirongolddev/bizlens/internal/config"
	"github.com/theirongolddev/bizlens/internal/pipeline"
	"github.com/theirongolddev/bizlens/internal/table"
	"github.com/theirongolddev/bizlens/internal/tui/theme"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	flagQuiet     bool
	flagVerbose   bool
	flagNoHistory bool
	flagMode      string
	flagRows      int
	flagTUI       bool
)

var rootCmd = &cobra.Command{
	Use:   "bizlens [FILE]",
	Short: "Business CSV analyzer",
	Long: "Load a CSV or Excel file of business data, extract KPIs, forecast next month's\n" +
		"revenue and ask a hosted language model for insights.",
	Args:              cobra.MaximumNArgs(1),
	SilenceUsage:      true,
	PersistentPreRunE: loadDotEnv,
	RunE:              runRoot,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "Log load, forecast and insight timings to stderr")
	rootCmd.PersistentFlags().BoolVar(&flagNoHistory, "no-history", false, "Do not record insights in the history database")
	rootCmd.PersistentFlags().StringVar(&flagMode, "mode", "", "Insight prompt mode: summary or sample")
	rootCmd.PersistentFlags().IntVar(&flagRows, "rows", 0, "Preview rows (default from config)")
	rootCmd.Flags().BoolVar(&flagTUI, "tui", false, "Open FILE in the interactive dashboard")
}

func loadDotEnv(_ *cobra.Command, _ []string) error {
	if err := config.LoadDotEnv(); err != nil && !flagQuiet {
		fmt.Fprintf(os.Stderr, "  Warning: %v\n", err)
	}
	return nil
}

func runRoot(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return cmd.Help()
	}
	if flagTUI {
		return runTUI(cmd, args)
	}
	return runSummary(cmd, args)
}

// loadConfig reads the config file, falling back to defaults with a warning,
// and applies its theme to command output.
func loadConfig() config.Config {
	cfg, err := config.Load()
	if err != nil {
		if !flagQuiet {
			fmt.Fprintf(os.Stderr, "  Warning: %v (using defaults)\n", err)
		}
		cfg = config.DefaultConfig()
	}
	theme.SetActive(cfg.Appearance.Theme)
	return cfg
}

func previewRows(cfg config.Config) int {
	if flagRows > 0 {
		return flagRows
	}
	return cfg.General.PreviewRows
}

// newLogger returns a development logger with --verbose and a no-op otherwise.
func newLogger() *zap.Logger {
	if !flagVerbose {
		return zap.NewNop()
	}
	log, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return log
}

// loadTable is the shared data loading path used by all single-file commands.
func loadTable(path string) (*table.Table, error) {
	if !flagQuiet {
		fmt.Fprintf(os.Stderr, "  Loading %s...\n", path)
	}
	t, err := table.LoadFile(path)
	if err != nil {
		return nil, err
	}
	if !flagQuiet {
		fmt.Fprintf(os.Stderr, "  Loaded %s rows x %d columns\n",
			cli.FormatNumber(int64(t.Nrow())), t.Ncol())
	}
	return t, nil
}

// loadTables loads several files in parallel and reports per-file failures.
func loadTables(paths []string) []*table.Table {
	progressFn := func(current, total int) {
		if flagQuiet || total < 2 {
			return
		}
		fmt.Fprintf(os.Stderr, "\r  Loading %s", cli.RenderProgressBar(current, total, 24))
	}
	result := pipeline.LoadFiles(paths, progressFn)
	if !flagQuiet && result.TotalFiles > 1 {
		fmt.Fprintf(os.Stderr, "\r  Loaded %d of %d files    \n", result.LoadedFiles, result.TotalFiles)
	}
	for _, err := range result.Failed() {
		fmt.Fprintf(os.Stderr, "  %v\n", err)
	}

	out := make([]*table.Table, 0, result.LoadedFiles)
	for _, t := range result.Tables {
		if t != nil {
			out = append(out, t)
		}
	}
	return out
}

// newAsker builds the insight generator and opens the history journal. The
// returned close function is always non-nil.
func newAsker(ctx context.Context, cfg config.Config, log *zap.Logger) (*pipeline.Asker, func(), error) {
	gen, err := pipeline.NewGenerator(ctx, cfg, flagMode, log)
	if err != nil {
		return nil, func() {}, err
	}
	asker := &pipeline.Asker{Gen: gen, Log: log}

	journal, err := pipeline.OpenJournal(cfg, flagNoHistory)
	if err != nil {
		if !flagQuiet {
			fmt.Fprintf(os.Stderr, "  Warning: history unavailable: %v\n", err)
		}
		return asker, func() {}, nil
	}
	if journal == nil {
		return asker, func() {}, nil
	}
	asker.Journal = journal
	return asker, func() { _ = journal.Close() }, nil
}
