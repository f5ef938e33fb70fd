package cmd

import (
	"fmt"
	"os"

	"github.com/theirongolddev/bizlens/internal/chart"
	"github.com/theirongolddev/bizlens/internal/cli"

	"github.com/spf13/cobra"
)

var flagChartOut string

var chartCmd = &cobra.Command{
	Use:   "chart FILE",
	Short: "Render the time series and correlation charts as PNG",
	Args:  cobra.ExactArgs(1),
	RunE:  runChart,
}

func init() {
	chartCmd.Flags().StringVarP(&flagChartOut, "out", "o", ".", "Output directory")
	rootCmd.AddCommand(chartCmd)
}

func runChart(_ *cobra.Command, args []string) error {
	t, err := loadTable(args[0])
	if err != nil {
		return err
	}

	specs := chart.Plan(t)
	if len(specs) == 0 {
		fmt.Println(cli.RenderMessage("Nothing to plot: need a date column with a numeric column, or two numeric columns.", false))
		return nil
	}
	if err := os.MkdirAll(flagChartOut, 0o750); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}

	rows := make([][]string, 0, len(specs))
	for _, s := range specs {
		path, err := chart.SavePNG(t, s, flagChartOut)
		if err != nil {
			fmt.Fprintf(os.Stderr, "  %s: %v\n", s.Title, err)
			continue
		}
		rows = append(rows, []string{s.Title, s.Kind.String(), cli.FormatNumber(int64(len(chart.Points(t, s)))), path})
	}
	if len(rows) == 0 {
		return fmt.Errorf("no chart could be rendered")
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Charts",
		Headers: []string{"Chart", "Kind", "Points", "File"},
		Rows:    rows,
	}))
	fmt.Println()
	return nil
}
