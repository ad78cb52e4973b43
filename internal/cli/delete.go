package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/bionicotaku/lingo-services-journal/internal/client"

	"github.com/spf13/cobra"
)

var deleteForce bool

var deleteCmd = &cobra.Command{
	Use:   "delete <entry-id>",
	Short: "Delete a journal entry",
	Long: `Delete a journal entry and its media from the service.

Requires confirmation unless --force is used. If the server rejects the
deletion the entry remains in the feed unchanged.

Examples:
  journal delete 3f1c2a9e-0b7d-4f7e-9c1a-6f2f6f0a1b2c
  journal delete 3f1c2a9e-0b7d-4f7e-9c1a-6f2f6f0a1b2c --force`,
	Args: cobra.ExactArgs(1),
	RunE: runDelete,
}

func init() {
	deleteCmd.Flags().BoolVarP(&deleteForce, "force", "f", false, "skip confirmation")
}

func runDelete(cmd *cobra.Command, args []string) error {
	entryID := args[0]

	if !deleteForce {
		fmt.Printf("About to delete entry %s and its recording.\n", entryID)
		fmt.Print("Continue? [y/N]: ")

		reader := bufio.NewReader(os.Stdin)
		response, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}
		response = strings.TrimSpace(strings.ToLower(response))
		if response != "y" && response != "yes" {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	if err := apiClient.Delete(cmd.Context(), entryID); err != nil {
		if errors.Is(err, client.ErrEntryNotFound) {
			return fmt.Errorf("entry not found: %s", entryID)
		}
		return fmt.Errorf("delete entry: %w", err)
	}

	fmt.Printf("Deleted %s\n", entryID)
	return nil
}
