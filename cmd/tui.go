package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/theirongolddev/bizlens/internal/config"
	"github.com/theirongolddev/bizlens/internal/tui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

var flagTUIColumn string

var tuiCmd = &cobra.Command{
	Use:   "tui FILE",
	Short: "Launch interactive TUI dashboard",
	Args:  cobra.ExactArgs(1),
	RunE:  runTUI,
}

func init() {
	tuiCmd.Flags().StringVarP(&flagTUIColumn, "column", "c", "", "Column to forecast (default revenue, else sales)")
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(_ *cobra.Command, args []string) error {
	cfg := loadConfig()
	if flagRows > 0 {
		cfg.General.PreviewRows = flagRows
	}

	// Force TrueColor profile so all background styling produces ANSI codes
	// Without this, lipgloss may default to Ascii profile (no colors)
	lipgloss.SetColorProfile(termenv.TrueColor)

	log := newLogger()
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	asker, closeFn, err := newAsker(ctx, cfg, log)
	cancel()
	if err != nil {
		return err
	}
	defer closeFn()

	app := tui.NewApp(tui.Options{
		Path:      args[0],
		Column:    flagTUIColumn,
		Config:    cfg,
		Asker:     *asker,
		Logger:    log,
		NeedSetup: !config.Exists(),
	})
	p := tea.NewProgram(app, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	return nil
}
