// Package cli 提供 journal 命令行入口：录制、列表、详情与删除。
// 命令直接复用 capture 会话状态机与 journal API 客户端，
// 行为与移动端捕获管线保持一致。
package cli

import (
	"fmt"
	"os"

	"github.com/bionicotaku/lingo-services-journal/internal/client"

	"github.com/spf13/cobra"
)

// Version is set at build time.
var Version = "dev"

var (
	serverURL string
	verbose   bool

	apiClient *client.Client
)

var rootCmd = &cobra.Command{
	Use:   "journal",
	Short: "Voice and video journal capture client",
	Long: `journal records short audio or video entries, uploads them to the
journal service, and browses the resulting feed. Entries start out pending
and gain title, summary and mood once the analysis pipeline catches up.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}
		var err error
		apiClient, err = client.New(serverURL)
		if err != nil {
			return fmt.Errorf("invalid server URL %q: %w", serverURL, err)
		}
		return nil
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	defaultServer := os.Getenv("JOURNAL_SERVER")
	if defaultServer == "" {
		defaultServer = "http://localhost:8000"
	}

	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", defaultServer, "journal service base URL")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(recordCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(deleteCmd)
}
