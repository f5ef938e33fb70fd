package cmd

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/theirongolddev/bizlens/internal/cli"
	"github.com/theirongolddev/bizlens/internal/config"
	"github.com/theirongolddev/bizlens/internal/insight"
	"github.com/theirongolddev/bizlens/internal/pipeline"

	"github.com/spf13/cobra"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the models available to your API key",
	Args:  cobra.NoArgs,
	RunE:  runModels,
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}

func runModels(_ *cobra.Command, _ []string) error {
	cfg := loadConfig()
	log := newLogger()
	defer func() { _ = log.Sync() }()

	cfg.LLM.Discover = false
	gen, err := pipeline.NewGenerator(context.Background(), cfg, flagMode, log)
	if err != nil {
		return err
	}
	if !gen.HasCredential() {
		fmt.Println(cli.RenderMessage(fmt.Sprintf("No API key. Set %s or run `bizlens setup`.", config.APIKeyEnv), true))
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	ids, err := gen.Models(ctx)
	if err != nil {
		fmt.Println(cli.RenderMessage("Listing models failed: "+err.Error(), true))
		return nil
	}
	if len(ids) == 0 {
		fmt.Println("\n  No models available.")
		return nil
	}
	picked := insight.PickModel(ids)
	sort.Strings(ids)
	rows := make([][]string, 0, len(ids))
	for _, id := range ids {
		var mark []string
		if id == cfg.LLM.Model {
			mark = append(mark, "configured")
		}
		if id == picked {
			mark = append(mark, "discovered")
		}
		rows = append(rows, []string{id, strings.Join(mark, ", ")})
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("MODELS  %d available", len(ids))))
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Model", ""},
		Rows:    rows,
	}))
	fmt.Println()
	return nil
}
