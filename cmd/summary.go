package cmd

import (
	"fmt"

	"github.com/theirongolddev/bizlens/internal/cli"
	"github.com/theirongolddev/bizlens/internal/kpi"
	"github.com/theirongolddev/bizlens/internal/pipeline"
	"github.com/theirongolddev/bizlens/internal/table"

	"github.com/spf13/cobra"
)

var summaryCmd = &cobra.Command{
	Use:   "summary FILE",
	Short: "Data preview, column overview and KPIs",
	Args:  cobra.ExactArgs(1),
	RunE:  runSummary,
}

var flagDescribe bool

func init() {
	summaryCmd.Flags().BoolVar(&flagDescribe, "describe", false, "Print full summary statistics per column")
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(_ *cobra.Command, args []string) error {
	cfg := loadConfig()
	t, err := loadTable(args[0])
	if err != nil {
		return err
	}
	a := pipeline.Analyze(t, previewRows(cfg))

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("%s  %s rows x %d columns",
		t.Name, cli.FormatNumber(int64(t.Nrow())), t.Ncol())))
	fmt.Println()

	fmt.Print(cli.RenderTable(cli.PreviewTable(a.Preview, 8)))
	fmt.Println()

	if flagDescribe {
		fmt.Println(t.Describe())
		fmt.Println()
	} else {
		colRows := make([][]string, 0, t.Ncol())
		for _, name := range t.Names() {
			present := t.Nrow()
			if t.Kind(name) == table.Numeric {
				present = len(table.Present(t.Floats(name)))
			}
			colRows = append(colRows, []string{name, t.Kind(name).String(), cli.FormatNumber(int64(present))})
		}
		fmt.Print(cli.RenderTable(cli.Table{
			Title:   "Columns",
			Headers: []string{"Column", "Type", "Values"},
			Rows:    colRows,
		}))
		fmt.Println()
	}

	if a.KPIs.Len() == 0 {
		fmt.Println("  No KPIs: the file has no numeric columns.")
	} else {
		fmt.Print(cli.RenderTable(cli.KPITable(a.KPIs)))
	}

	if col, ok := kpi.Resolve(t); ok {
		renderMonthly(a, col)
	}

	if a.Forecast != "" {
		fmt.Printf("\n  Run `bizlens forecast %s` for a next-month %s estimate.\n", args[0], a.Forecast)
	}
	fmt.Println()
	return nil
}

// renderMonthly prints the last twelve monthly totals of col as bars, with
// the month-over-month growth when it was computed.
func renderMonthly(a *pipeline.Analysis, col string) {
	months := kpi.MonthlyTotals(a.Table, col)
	if len(months) < 2 {
		return
	}
	if len(months) > 12 {
		months = months[len(months)-12:]
	}

	var peak float64
	for _, m := range months {
		peak = max(peak, m.Total)
	}

	fmt.Println()
	fmt.Printf("  Monthly %s\n", col)
	for _, m := range months {
		fmt.Println(cli.RenderHorizontalBar(m.Month.Format("2006-01"), m.Total, peak, 40))
	}
	if g, ok := a.KPIs.Value("last_month_growth_%"); ok {
		fmt.Printf("\n  Last month: %s\n", cli.RenderDelta(g))
	}
}
