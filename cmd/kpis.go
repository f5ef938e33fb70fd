package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/theirongolddev/bizlens/internal/cli"
	"github.com/theirongolddev/bizlens/internal/kpi"

	"github.com/spf13/cobra"
)

var flagKPIsJSON bool

var kpisCmd = &cobra.Command{
	Use:   "kpis FILE...",
	Short: "Extract KPIs from one or more files",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runKPIs,
}

func init() {
	kpisCmd.Flags().BoolVar(&flagKPIsJSON, "json", false, "Print KPIs as JSON")
	rootCmd.AddCommand(kpisCmd)
}

type fileKPIs struct {
	File string  `json:"file"`
	Rows int     `json:"rows"`
	KPIs kpi.Set `json:"kpis"`
}

func runKPIs(_ *cobra.Command, args []string) error {
	tables := loadTables(args)
	if len(tables) == 0 {
		return errors.New("no file could be loaded")
	}

	if flagKPIsJSON {
		out := make([]fileKPIs, 0, len(tables))
		for _, t := range tables {
			out = append(out, fileKPIs{File: t.Name, Rows: t.Nrow(), KPIs: kpi.Extract(t)})
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	for _, t := range tables {
		set := kpi.Extract(t)
		fmt.Println()
		fmt.Println(cli.RenderTitle(fmt.Sprintf("KPIs  %s", t.Name)))
		fmt.Println()
		if set.Len() == 0 {
			fmt.Println("  No numeric columns.")
			continue
		}
		fmt.Print(cli.RenderTable(cli.KPITable(set)))
	}
	fmt.Println()
	return nil
}
