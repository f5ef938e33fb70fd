package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/theirongolddev/bizlens/internal/cli"
	"github.com/theirongolddev/bizlens/internal/config"
	"github.com/theirongolddev/bizlens/internal/store"

	"github.com/spf13/cobra"
)

var (
	flagHistoryLimit int
	flagHistoryOlder time.Duration
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent insights and answers",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

var historyShowCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Print one journal entry in full",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyDatasetsCmd = &cobra.Command{
	Use:   "datasets",
	Short: "Journal entries per dataset",
	Args:  cobra.NoArgs,
	RunE:  runHistoryDatasets,
}

var historyRmCmd = &cobra.Command{
	Use:   "rm ID",
	Short: "Delete a journal entry",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryRm,
}

var historyPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete entries older than --older-than",
	Args:  cobra.NoArgs,
	RunE:  runHistoryPrune,
}

func init() {
	historyCmd.Flags().IntVarP(&flagHistoryLimit, "limit", "n", 20, "Number of entries")
	historyPruneCmd.Flags().DurationVar(&flagHistoryOlder, "older-than", 30*24*time.Hour, "Age cutoff")

	historyCmd.AddCommand(historyShowCmd, historyDatasetsCmd, historyRmCmd, historyPruneCmd)
	rootCmd.AddCommand(historyCmd)
}

func openHistory() (*store.Journal, error) {
	j, err := store.Open(config.HistoryPath())
	if err != nil {
		return nil, fmt.Errorf("opening history: %w", err)
	}
	return j, nil
}

func runHistory(_ *cobra.Command, _ []string) error {
	j, err := openHistory()
	if err != nil {
		return err
	}
	defer func() { _ = j.Close() }()

	entries, err := j.Recent(flagHistoryLimit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("\n  No insights recorded yet.")
		fmt.Println("  Run `bizlens insights FILE` to generate some.")
		return nil
	}

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		status := "ok"
		if !e.OK {
			status = "failed"
		}
		asked := e.Question
		if asked == "" {
			asked = "(insights)"
		}
		rows = append(rows, []string{
			shortID(e.ID),
			e.CreatedAt.Local().Format("2006-01-02 15:04"),
			cli.Truncate(e.Dataset, 20),
			cli.Truncate(asked, 36),
			status,
			cli.FormatDuration(e.Elapsed),
		})
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("HISTORY  Last %d", len(entries))))
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"ID", "When", "Dataset", "Question", "Status", "Took"},
		Rows:    rows,
	}))
	fmt.Println()
	return nil
}

// resolveEntry accepts a full id or the 8-character prefix shown by history.
func resolveEntry(j *store.Journal, id string) (store.Entry, error) {
	if e, err := j.Get(id); err == nil {
		return e, nil
	}
	entries, err := j.Recent(1000)
	if err != nil {
		return store.Entry{}, err
	}
	for _, e := range entries {
		if strings.HasPrefix(e.ID, id) {
			return e, nil
		}
	}
	return store.Entry{}, fmt.Errorf("no history entry %q", id)
}

func runHistoryShow(_ *cobra.Command, args []string) error {
	j, err := openHistory()
	if err != nil {
		return err
	}
	defer func() { _ = j.Close() }()

	e, err := resolveEntry(j, args[0])
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Printf("  ID:       %s\n", e.ID)
	fmt.Printf("  When:     %s\n", e.CreatedAt.Local().Format(time.RFC3339))
	fmt.Printf("  Dataset:  %s (%d rows x %d columns)\n", e.Dataset, e.Rows, e.Columns)
	fmt.Printf("  Model:    %s (%s prompt)\n", e.Model, e.Mode)
	if e.Question != "" {
		fmt.Printf("  Question: %s\n", e.Question)
	}
	fmt.Println()
	if e.OK {
		fmt.Print(cli.RenderAnswer("Answer", e.Answer, 76))
	} else {
		fmt.Println(cli.RenderMessage(e.Answer, true))
	}
	fmt.Println()
	return nil
}

func runHistoryDatasets(_ *cobra.Command, _ []string) error {
	j, err := openHistory()
	if err != nil {
		return err
	}
	defer func() { _ = j.Close() }()

	sets, err := j.Datasets()
	if err != nil {
		return err
	}
	if len(sets) == 0 {
		fmt.Println("\n  No insights recorded yet.")
		return nil
	}

	rows := make([][]string, 0, len(sets))
	total := 0
	for _, d := range sets {
		total += d.Entries
		rows = append(rows, []string{d.Dataset, cli.FormatNumber(int64(d.Entries)), d.Last.Local().Format("2006-01-02 15:04")})
	}
	rows = append(rows, []string{"---"}, []string{"Total", cli.FormatNumber(int64(total)), ""})

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Datasets",
		Headers: []string{"Dataset", "Entries", "Last"},
		Rows:    rows,
	}))
	fmt.Println()
	return nil
}

func runHistoryRm(_ *cobra.Command, args []string) error {
	j, err := openHistory()
	if err != nil {
		return err
	}
	defer func() { _ = j.Close() }()

	e, err := resolveEntry(j, args[0])
	if err != nil {
		return err
	}
	if err := j.Delete(e.ID); err != nil {
		return err
	}
	fmt.Printf("  Deleted %s\n", e.ID)
	return nil
}

func runHistoryPrune(_ *cobra.Command, _ []string) error {
	j, err := openHistory()
	if err != nil {
		return err
	}
	defer func() { _ = j.Close() }()

	n, err := j.Prune(time.Now().Add(-flagHistoryOlder))
	if err != nil {
		return err
	}
	left, err := j.Count()
	if err != nil {
		return err
	}
	fmt.Printf("  Pruned %d entries, %d left\n", n, left)
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
