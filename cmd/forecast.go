package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/theirongolddev/bizlens/internal/cli"
	"github.com/theirongolddev/bizlens/internal/forecast"
	"github.com/theirongolddev/bizlens/internal/pipeline"
	"github.com/theirongolddev/bizlens/internal/table"

	"github.com/spf13/cobra"
)

var (
	flagForecastColumn string
	flagForecastJSON   bool
)

var forecastCmd = &cobra.Command{
	Use:   "forecast FILE",
	Short: "Forecast next month from the date column",
	Long: "Fit a trend and seasonality model to the date column and the revenue (or sales)\n" +
		"column, then report the mean daily prediction over the next 30 days.",
	Args: cobra.ExactArgs(1),
	RunE: runForecast,
}

func init() {
	forecastCmd.Flags().StringVarP(&flagForecastColumn, "column", "c", "", "Column to forecast (default revenue, else sales)")
	forecastCmd.Flags().BoolVar(&flagForecastJSON, "json", false, "Print the forecast as JSON")
	rootCmd.AddCommand(forecastCmd)
}

func runForecast(_ *cobra.Command, args []string) error {
	cfg := loadConfig()
	t, err := loadTable(args[0])
	if err != nil {
		return err
	}

	override := flagForecastColumn
	if dc := cfg.General.DefaultColumn; override == "" && dc != "" && t.Has(table.NormalizeName(dc)) {
		override = dc
	}
	col, ok := pipeline.ForecastColumn(t, override)
	if !ok {
		fmt.Println(cli.RenderMessage("No revenue or sales column to forecast. Pass --column.", true))
		return nil
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log := newLogger()
	defer func() { _ = log.Sync() }()

	if !flagQuiet {
		fmt.Fprintf(os.Stderr, "  Fitting %s over %d days...\n", col, forecast.Horizon)
	}
	res, err := pipeline.RunForecast(ctx, log, t, col)
	if err != nil {
		// Condition failures are shown, not returned.
		fmt.Println(cli.RenderMessage(forecast.Message(err), !errors.Is(err, context.Canceled)))
		return nil
	}

	if flagForecastJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	fmt.Println()
	fmt.Print(cli.RenderForecast(res))
	fmt.Println()
	return nil
}
