package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "chatapp-cli",
	Short: "Chatapp CLI tool",
	Long: `Chatapp CLI is a command-line interface for operating the chat server.

Available commands:
  serve        Start the chat server
  user create  Create a user account

Use "chatapp-cli [command] --help" for more information about a specific command.`,
}

// Execute executes the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
