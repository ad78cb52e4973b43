package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bionicotaku/lingo-services-journal/internal/client"

	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show <entry-id>",
	Short: "Show one entry including its analysis",
	Long: `Show a single journal entry. Entries are created pending; title,
summary, mood and transcript appear once the analysis pipeline has
processed the recording.

Example:
  journal show 3f1c2a9e-0b7d-4f7e-9c1a-6f2f6f0a1b2c`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
	entry, err := apiClient.Get(cmd.Context(), args[0])
	if err != nil {
		if errors.Is(err, client.ErrEntryNotFound) {
			return fmt.Errorf("entry not found: %s", args[0])
		}
		return err
	}

	fmt.Printf("Entry    %s\n", entry.EntryID)
	fmt.Printf("Date     %s\n", entry.EntryDate)
	fmt.Printf("Media    %s, %ds\n", entry.MediaType, entry.DurationSeconds)
	fmt.Printf("URL      %s\n", entry.MediaURL)
	fmt.Printf("Created  %s\n", entry.CreatedAt.Local().Format("2006-01-02 15:04:05"))

	if !entry.Analyzed() {
		fmt.Println("\nAnalysis pending.")
		return nil
	}

	fmt.Printf("\nTitle    %s\n", *entry.Title)
	fmt.Printf("Mood     %s (%d/10)\n", *entry.Mood, *entry.MoodScore)
	fmt.Printf("Summary  %s\n", *entry.Summary)
	if len(entry.Tags) > 0 {
		fmt.Printf("Tags     %s\n", strings.Join(entry.Tags, ", "))
	}
	if entry.Transcript != nil && *entry.Transcript != "" {
		fmt.Printf("\n%s\n", *entry.Transcript)
	}
	return nil
}
