package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/iksnae/chat-message/internal"
)

var (
	humanHeaderStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("39")).
				Bold(true).
				Padding(0, 1)

	aiHeaderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("135")).
			Bold(true).
			Padding(0, 1)

	humanTextStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 2)

	busyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true).
			Padding(0, 2)

	actionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243")).
			Padding(0, 2)

	attachmentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Padding(0, 2)

	failureStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Padding(0, 2)

	sourcesStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")).
			Bold(true).
			Padding(0, 2)

	linkStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243")).
			Underline(true)
)

// DefaultTerminalWidth is the word-wrap width when none is set
const DefaultTerminalWidth = 80

// TerminalExporter renders views for a terminal with glamour and lipgloss
type TerminalExporter struct {
	Width int
}

// Export writes views to w
func (e *TerminalExporter) Export(views []*internal.MessageView, w io.Writer) error {
	width := e.Width
	if width <= 0 {
		width = DefaultTerminalWidth
	}

	style := styles.NoTTYStyle
	if internal.IsTerminal(w) {
		style = styles.DarkStyle
	}
	md, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return fmt.Errorf("failed to create markdown renderer: %w", err)
	}

	for _, view := range views {
		if err := writeTerminalView(view, md, w); err != nil {
			return err
		}
	}
	return nil
}

func writeTerminalView(view *internal.MessageView, md *glamour.TermRenderer, w io.Writer) error {
	if view.IsHuman() {
		fmt.Fprintln(w, humanHeaderStyle.Render("👤 Human"))
		fmt.Fprintln(w, humanTextStyle.Render(view.Text))
		fmt.Fprintln(w)
		return nil
	}

	fmt.Fprintln(w, aiHeaderStyle.Render("🤖 AI"))
	if view.Content == nil || view.Content.Busy {
		fmt.Fprintln(w, busyStyle.Render("⠋ …"))
	} else {
		out, err := md.Render(view.Text)
		if err != nil {
			// Fall back to the raw text rather than dropping the message
			internal.LogWarn("Failed to render markdown: %v", err)
			out = view.Text
		}
		fmt.Fprintln(w, strings.TrimRight(out, "\n"))
	}

	if a := view.Actions; a != nil {
		fmt.Fprintln(w, actionStyle.Render(fmt.Sprintf("[copy] [download %s]", a.Filename)))
	}

	if a := view.Attachments; a != nil {
		switch a.State {
		case internal.AttachmentsLoading:
			fmt.Fprintln(w, busyStyle.Render("⠋ loading attachments"))
		case internal.AttachmentsFailed:
			fmt.Fprintln(w, failureStyle.Render("✗ attachments unavailable: "+a.Error))
		case internal.AttachmentsReady:
			for _, f := range a.Files {
				label := f.DisplayName()
				if f.Size > 0 {
					label += " (" + humanize.Bytes(uint64(f.Size)) + ")"
				}
				fmt.Fprintln(w, attachmentStyle.Render("📎 "+label+" "+linkStyle.Render(f.URL)))
			}
		}
	}

	if c := view.Citations; c != nil {
		fmt.Fprintln(w, sourcesStyle.Render(c.Label))
		for _, item := range c.Items {
			fmt.Fprintln(w, actionStyle.Render("• "+item.Text+" "+linkStyle.Render(item.Href)+" "+item.ExternalIconAriaLabel))
		}
	}

	fmt.Fprintln(w)
	return nil
}

// Extension returns the file extension for this format
func (e *TerminalExporter) Extension() string {
	return "txt"
}
