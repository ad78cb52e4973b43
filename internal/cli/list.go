package cli

import (
	"fmt"
	"strings"

	"github.com/bionicotaku/lingo-services-journal/internal/client"
	"github.com/bionicotaku/lingo-services-journal/internal/models/vo"

	"github.com/spf13/cobra"
)

var listAll bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List journal entries, newest first",
	Long: `List journal entries in reverse chronological order.

By default one page is shown at a time and you are prompted to continue.
Use --all to drain the whole feed in one go.

Examples:
  journal list
  journal list --all`,
	RunE: runList,
}

func init() {
	listCmd.Flags().BoolVarP(&listAll, "all", "a", false, "fetch every page without prompting")
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	feed := client.NewEntryFeed(apiClient)
	total := 0
	for {
		if err := feed.LoadMore(ctx); err != nil {
			return fmt.Errorf("load entries: %w", err)
		}
		entries := feed.Entries()
		if len(entries) == 0 {
			fmt.Println("No entries yet.")
			return nil
		}
		for _, e := range entries[total:] {
			printEntryLine(e)
		}
		total = len(entries)

		if !feed.HasMore() {
			fmt.Printf("\n%d entries.\n", total)
			return nil
		}
		if !listAll {
			fmt.Printf("\n%d entries shown, more available. Re-run with --all to fetch everything.\n", total)
			return nil
		}
	}
}

func printEntryLine(e *vo.JournalEntry) {
	title := "(pending analysis)"
	if e.Title != nil {
		title = *e.Title
	}
	mood := ""
	if e.Mood != nil && e.MoodScore != nil {
		mood = fmt.Sprintf("  [%s %d/10]", *e.Mood, *e.MoodScore)
	}
	fmt.Printf("%s  %s  %-5s %3ds  %s%s\n",
		shortID(e.EntryID), e.EntryDate, e.MediaType, e.DurationSeconds, title, mood)
	if verbose {
		fmt.Printf("           id=%s media=%s\n", e.EntryID, e.MediaURL)
		if len(e.Tags) > 0 {
			fmt.Printf("           tags: %s\n", strings.Join(e.Tags, ", "))
		}
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
