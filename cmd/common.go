package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/iksnae/chat-message/internal"
	"github.com/spf13/cobra"
)

var (
	sessionID string
	messageID string
)

// addMessageSourceFlags registers --session/--message on commands that take one message
func addMessageSourceFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&sessionID, "session", "", "Session id in the history database")
	cmd.Flags().StringVar(&messageID, "message", "", "Message id in the history database (requires --session)")
}

func loadConfig() (*internal.Config, error) {
	path := configPath
	if path == "" {
		var err error
		if path, err = internal.DefaultConfigPath(); err != nil {
			internal.LogDebug("No default config path: %v", err)
			path = ""
		}
	}
	cfg, err := internal.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	if historyPath != "" {
		cfg.History.Path = historyPath
	}
	return cfg, nil
}

func openHistory(cfg *internal.Config) (*internal.History, error) {
	if cfg.History.Path == "" {
		return nil, fmt.Errorf("no history database configured (use --history or history.path)")
	}
	return internal.OpenHistory(cfg.History.Path)
}

// readMessage loads the message named by --session/--message or by a file argument ("-" is stdin)
func readMessage(cmd *cobra.Command, cfg *internal.Config, args []string) (*internal.ChatMessage, error) {
	if sessionID != "" || messageID != "" {
		if sessionID == "" || messageID == "" {
			return nil, fmt.Errorf("--session and --message must be used together")
		}
		history, err := openHistory(cfg)
		if err != nil {
			return nil, err
		}
		defer history.Close()
		return history.LoadMessage(sessionID, messageID)
	}

	if len(args) != 1 {
		return nil, fmt.Errorf("expected a message file (or - for stdin), or --session and --message")
	}

	var (
		data []byte
		err  error
	)
	if args[0] == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(args[0])
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read message: %w", err)
	}
	return parseMessage(args[0], data)
}

func parseMessage(name string, data []byte) (*internal.ChatMessage, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return internal.ParseChatMessageYAML(data)
	case ".json":
		return internal.ParseChatMessage(data)
	}
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '{' {
		return internal.ParseChatMessage(data)
	}
	return internal.ParseChatMessageYAML(data)
}

// resolveAttachments signs msg's files with a spinner; failures are rendered, not returned
func resolveAttachments(ctx context.Context, cfg *internal.Config, msg *internal.ChatMessage) internal.Attachments {
	if len(msg.Files()) == 0 || msg.Type != internal.MessageTypeAI {
		return internal.Attachments{}
	}
	signer, err := internal.NewSigner(ctx, cfg.Signer)
	if err != nil {
		internal.LogError("Attachments disabled: %v", err)
		return internal.Attachments{State: internal.AttachmentsFailed, Err: err, Error: err.Error()}
	}

	var attachments internal.Attachments
	_ = internal.ShowProgress(ctx, "Resolving attachments", func() error {
		var resolveErr error
		attachments, resolveErr = internal.NewAttachmentResolver(signer).Resolve(ctx, msg)
		return resolveErr
	})
	return attachments
}

// outputWriter returns the --output file or the command's stdout
func outputWriter(cmd *cobra.Command, path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, f.Close, nil
}
