package cmd

import (
	"fmt"

	"github.com/iksnae/chat-message/internal"
	"github.com/spf13/cobra"
)

var downloadDir string

// downloadCmd represents the download command
var downloadCmd = &cobra.Command{
	Use:   "download [message-file|-]",
	Short: "Save an AI message as " + internal.DownloadFilename,
	Long:  `Save the raw content of an AI message to ` + internal.DownloadFilename + ` in the target directory.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		msg, err := readMessage(cmd, cfg, args)
		if err != nil {
			return err
		}

		bar := internal.NewActionBar(msg)
		if bar == nil {
			return fmt.Errorf("message %q has no content to download", msg.ID)
		}

		path, err := bar.Download(downloadDir)
		notifier := newCLINotifier(cmd)
		if err != nil {
			notifier.Add(internal.NotificationError, "Could not download message")
			return err
		}
		notifier.Add(internal.NotificationSuccess, fmt.Sprintf("%s: %s", internal.DownloadedMessage, path))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(downloadCmd)
	downloadCmd.Flags().StringVarP(&downloadDir, "dir", "d", ".", "Directory to save "+internal.DownloadFilename+" in")
	addMessageSourceFlags(downloadCmd)
}
