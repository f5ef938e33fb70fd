// Package cmd implements the bizlens CLI commands.
package cmd

import (
	"fmt"

	"github.com/theirongolddev/bizlens/internal/config"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fmt.Printf("  Config file: %s\n", config.ConfigPath())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [General]")
	fmt.Printf("    Preview rows:   %d\n", cfg.General.PreviewRows)
	if cfg.General.DefaultColumn != "" {
		fmt.Printf("    Default column: %s\n", cfg.General.DefaultColumn)
	}
	fmt.Println()

	fmt.Println("  [LLM]")
	if key := config.GetAPIKey(cfg); key != "" {
		fmt.Printf("    API key:     %s\n", config.MaskKey(key))
	} else {
		fmt.Printf("    API key:     not configured (set %s)\n", config.APIKeyEnv)
	}
	if cfg.LLM.BaseURL != "" {
		fmt.Printf("    Base URL:    %s\n", cfg.LLM.BaseURL)
	}
	fmt.Printf("    Model:       %s\n", cfg.LLM.Model)
	fmt.Printf("    Discover:    %v\n", cfg.LLM.Discover)
	fmt.Printf("    Temperature: %.2f\n", cfg.LLM.Temperature)
	fmt.Printf("    Max tokens:  %d\n", cfg.LLM.MaxTokens)
	fmt.Println()

	fmt.Println("  [Insights]")
	fmt.Printf("    Mode:          %s\n", cfg.Insights.Mode)
	fmt.Printf("    Sample rows:   %d\n", cfg.Insights.SampleRows)
	fmt.Printf("    Max columns:   %d\n", cfg.Insights.MaxColumns)
	fmt.Printf("    Prompt budget: %d chars\n", cfg.Insights.PromptBudget)
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Println("  [Server]")
	fmt.Printf("    Address:    %s\n", cfg.Server.Addr)
	fmt.Printf("    Max upload: %d MB\n", cfg.Server.MaxUploadMB)
	fmt.Println()

	fmt.Println("  [History]")
	fmt.Printf("    Enabled:  %v\n", cfg.History.Enabled)
	fmt.Printf("    Database: %s\n", config.HistoryPath())
	fmt.Println()

	fmt.Println("  Run `bizlens setup` to reconfigure.")
	return nil
}
