package cmd

import (
	"context"
	"fmt"

	"github.com/iksnae/chat-message/internal"
	"github.com/spf13/cobra"
)

// signCmd represents the sign command
var signCmd = &cobra.Command{
	Use:   "sign <file-key>...",
	Short: "Print signed URLs for file keys",
	Long: `Sign file keys with the configured signer (hmac or s3) and print one URL per line.

Keys are signed in order; the first failure stops the command.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx := context.Background()
		signer, err := internal.NewSigner(ctx, cfg.Signer)
		if err != nil {
			return fmt.Errorf("failed to create signer: %w", err)
		}

		out := cmd.OutOrStdout()
		for _, key := range args {
			u, err := signer.SignURL(ctx, key)
			if err != nil {
				return &internal.SigningError{Key: key, Err: err}
			}
			fmt.Fprintln(out, u)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(signCmd)
}
