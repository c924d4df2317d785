package cmd

import (
	"context"
	"fmt"

	"github.com/iksnae/chat-message/internal"
	"github.com/iksnae/chat-message/internal/export"
	"github.com/spf13/cobra"
)

var (
	renderFormat       string
	renderOutput       string
	renderShowMetadata bool
	renderWidth        int
)

// renderCmd represents the render command
var renderCmd = &cobra.Command{
	Use:   "render [message-file|-]",
	Short: "Render a single chat message",
	Long: `Render one chat message from a JSON or YAML file, stdin, or the history database.

Formats: term (default), html, md, json, jsonl, yaml.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		exporter, err := newExporter(renderFormat, renderWidth)
		if err != nil {
			return err
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		msg, err := readMessage(cmd, cfg, args)
		if err != nil {
			return err
		}

		ctx := context.Background()
		view, err := internal.NewRenderer(nil).Render(internal.Props{
			Message:       msg,
			Configuration: &cfg.Render,
			ShowMetadata:  renderShowMetadata,
		}, resolveAttachments(ctx, cfg, msg))
		if err != nil {
			return fmt.Errorf("failed to render message: %w", err)
		}

		w, closeOut, err := outputWriter(cmd, renderOutput)
		if err != nil {
			return err
		}
		if err := exporter.Export([]*internal.MessageView{view}, w); err != nil {
			_ = closeOut()
			return &internal.ExportError{Format: renderFormat, Path: renderOutput, Err: err}
		}
		return closeOut()
	},
}

func newExporter(format string, width int) (export.Exporter, error) {
	exporter, err := export.NewExporter(format)
	if err != nil {
		return nil, err
	}
	if term, ok := exporter.(*export.TerminalExporter); ok {
		term.Width = width
	}
	if html, ok := exporter.(*export.HTMLExporter); ok && renderOutput != "" {
		html.Document = true
	}
	return exporter, nil
}

func init() {
	rootCmd.AddCommand(renderCmd)
	renderCmd.Flags().StringVarP(&renderFormat, "format", "f", "term", "Output format (term, html, md, json, jsonl, yaml)")
	renderCmd.Flags().StringVarP(&renderOutput, "output", "o", "", "Write to file instead of stdout")
	renderCmd.Flags().BoolVar(&renderShowMetadata, "show-metadata", false, "Show source citations regardless of config")
	renderCmd.Flags().IntVar(&renderWidth, "width", export.DefaultTerminalWidth, "Word-wrap width for terminal output")
	addMessageSourceFlags(renderCmd)
}
