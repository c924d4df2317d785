package cmd

import (
	"fmt"
	"os"

	"github.com/iksnae/chat-message/internal"
	"github.com/spf13/cobra"
)

var (
	verbose     bool
	configPath  string
	historyPath string
	version     string = "dev"
	commit      string = "unknown"
	date        string = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "chat-message",
	Short: "Render chat messages with attachments, actions and citations",
	Long: `Render human and AI chat messages from files or a chat history database.

AI messages are rendered as markdown (tables and code blocks styled), their
attached files are resolved to signed URLs in order, and source citations are
listed when metadata display is enabled.

Quick Start:
  chat-message render message.json              # Render a message in the terminal
  chat-message render message.json --format html
  chat-message list                             # List sessions in the history
  chat-message show <session-id>                # Render a whole session
  chat-message copy message.json                # Copy the answer to the clipboard
  chat-message download message.json            # Save chatbot-message.txt
  chat-message serve                            # Serve rendered messages over HTTP`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		internal.SetVerbose(verbose)
	},
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.chat-message/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&historyPath, "history", "", "Chat history database (overrides config)")

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}
