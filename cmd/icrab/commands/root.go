// Package commands implements icrab's CLI commands using cobra, grounded on
// cmd/copilot/commands/root.go's command-tree shape.
package commands

import (
	"github.com/spf13/cobra"
)

// NewRootCmd builds the root CLI command with every subcommand registered.
func NewRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "icrab",
		Short: "icrab - a chat-driven personal agent daemon",
		Long: `icrab is a chat-driven personal agent: it runs as a daemon over one or
more chat channels, keeps per-chat conversation history, and can schedule
its own future work via cron jobs and a recurring heartbeat.

Examples:
  icrab serve
  icrab chat "what's on my cron schedule?"
  icrab cron describe "0 9 * * 1-5"
  icrab version`,
		Version: version,
	}

	rootCmd.AddCommand(
		newServeCmd(),
		newChatCmd(),
		newCronCmd(),
		newVersionCmd(version),
	)

	rootCmd.PersistentFlags().StringP("config", "c", "", "path to the config file")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")

	return rootCmd
}
