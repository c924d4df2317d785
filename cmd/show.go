package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/chat-message/internal"
	"github.com/spf13/cobra"
)

var (
	showLimit        int
	showFormat       string
	showShowMetadata bool
)

var (
	sessionHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("212")).
				Padding(0, 1).
				MarginBottom(1)

	sessionMetaStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("243")).
				MarginBottom(1)

	remainingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243")).
			Italic(true)
)

// showCmd represents the show command
var showCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Render all messages of a session",
	Long:  `Render every message of a session from the history database, in order.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		exporter, err := newExporter(showFormat, renderWidth)
		if err != nil {
			return err
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		history, err := openHistory(cfg)
		if err != nil {
			return err
		}
		defer history.Close()

		session, err := history.LoadSession(args[0])
		if err != nil {
			return fmt.Errorf("failed to load session: %w", err)
		}

		messages := session.Messages
		total := len(messages)
		if showLimit > 0 && showLimit < total {
			messages = messages[:showLimit]
		}

		ctx := context.Background()
		renderer := internal.NewRenderer(nil)
		views := make([]*internal.MessageView, 0, len(messages))
		for _, msg := range messages {
			view, err := renderer.Render(internal.Props{
				Message:       msg,
				Configuration: &cfg.Render,
				ShowMetadata:  showShowMetadata,
			}, resolveAttachments(ctx, cfg, msg))
			if err != nil {
				return fmt.Errorf("failed to render message %s: %w", msg.ID, err)
			}
			views = append(views, view)
		}

		out := cmd.OutOrStdout()
		if showFormat == "term" {
			displaySessionHeader(cmd, session)
		}
		if err := exporter.Export(views, out); err != nil {
			return &internal.ExportError{Format: showFormat, Err: err}
		}

		if showFormat == "term" && len(messages) < total {
			fmt.Fprintln(out, remainingStyle.Render(fmt.Sprintf("... (%d more message(s))", total-len(messages))))
		}
		return nil
	},
}

func displaySessionHeader(cmd *cobra.Command, session *internal.Session) {
	if session == nil {
		return
	}
	out := cmd.OutOrStdout()

	title := session.Title
	if title == "" {
		title = session.ID
	}
	fmt.Fprintln(out, sessionHeaderStyle.Render(fmt.Sprintf("💬 %s", title)))

	var metaParts []string
	if !session.CreatedAt.IsZero() {
		metaParts = append(metaParts, fmt.Sprintf("Created: %s", session.CreatedAt.Format("2006-01-02 15:04")))
	}
	metaParts = append(metaParts, fmt.Sprintf("Messages: %d", len(session.Messages)))
	fmt.Fprintln(out, sessionMetaStyle.Render(strings.Join(metaParts, " • ")))
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().IntVarP(&showLimit, "limit", "n", 0, "Limit number of messages to show")
	showCmd.Flags().StringVarP(&showFormat, "format", "f", "term", "Output format (term, html, md, json, jsonl, yaml)")
	showCmd.Flags().BoolVar(&showShowMetadata, "show-metadata", false, "Show source citations regardless of config")
}
