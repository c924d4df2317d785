package cmd

import (
	"fmt"
	"sync"

	"github.com/iksnae/chat-message/internal"
	"github.com/spf13/cobra"
)

// clipboardWriter is swapped in tests
var clipboardWriter internal.Clipboard = internal.SystemClipboard{}

// copyCmd represents the copy command
var copyCmd = &cobra.Command{
	Use:   "copy [message-file|-]",
	Short: "Copy an AI message to the clipboard",
	Long:  `Copy the raw content of an AI message to the system clipboard.`,
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
			return fmt.Errorf("message %q has no content to copy", msg.ID)
		}

		return bar.Copy(clipboardWriter, newCLINotifier(cmd), cfg.Notifications.Dismiss)
	},
}

// newCLINotifier prints banners to the command's stderr as they appear
func newCLINotifier(cmd *cobra.Command) *internal.NotificationManager {
	m := internal.NewNotificationManager()
	var mu sync.Mutex
	printed := make(map[string]bool)
	m.OnChange(func(active []internal.Notification) {
		mu.Lock()
		defer mu.Unlock()
		for _, n := range active {
			if !printed[n.ID] {
				printed[n.ID] = true
				internal.PrintNotification(cmd.ErrOrStderr(), n)
			}
		}
	})
	return m
}

func init() {
	rootCmd.AddCommand(copyCmd)
	addMessageSourceFlags(copyCmd)
}
