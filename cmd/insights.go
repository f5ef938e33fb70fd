package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/theirongolddev/bizlens/internal/cli"

	"github.com/spf13/cobra"
)

var insightsCmd = &cobra.Command{
	Use:   "insights FILE",
	Short: "Ask the language model for business insights about a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		return runInsight(args[0], "")
	},
}

var askCmd = &cobra.Command{
	Use:   "ask FILE QUESTION...",
	Short: "Ask a question about a file",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(_ *cobra.Command, args []string) error {
		return runInsight(args[0], strings.Join(args[1:], " "))
	},
}

func init() {
	rootCmd.AddCommand(insightsCmd)
	rootCmd.AddCommand(askCmd)
}

// runInsight prints the model's answer. Service failures are part of the
// answer text, so only load and config errors are returned.
func runInsight(path, question string) error {
	cfg := loadConfig()
	t, err := loadTable(path)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log := newLogger()
	defer func() { _ = log.Sync() }()

	asker, closeFn, err := newAsker(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeFn()

	if asker.Gen.HasCredential() && !flagQuiet {
		fmt.Fprintf(os.Stderr, "  Asking %s (%s prompt)...\n", asker.Gen.Options().Model, asker.Gen.Options().Mode)
	}
	start := time.Now()
	ans := asker.Ask(ctx, t, question)

	title := "Insights"
	if question != "" {
		title = cli.Truncate(question, 60)
	}
	fmt.Println()
	if !ans.OK() {
		fmt.Println(cli.RenderMessage(ans.Text, true))
		return nil
	}
	fmt.Print(cli.RenderAnswer(title, ans.Text, 76))
	if !flagQuiet {
		fmt.Fprintf(os.Stderr, "  %s in %s\n", ans.Model, cli.FormatDuration(time.Since(start)))
	}
	fmt.Println()
	return nil
}
