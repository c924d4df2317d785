package export

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/iksnae/chat-message/internal"
)

// MarkdownExporter exports views as Markdown
type MarkdownExporter struct{}

// Export writes views to w
func (e *MarkdownExporter) Export(views []*internal.MessageView, w io.Writer) error {
	for i, view := range views {
		if i > 0 {
			_, _ = fmt.Fprintf(w, "---\n\n")
		}
		if err := writeMarkdownView(view, w); err != nil {
			return err
		}
	}
	return nil
}

func writeMarkdownView(view *internal.MessageView, w io.Writer) error {
	if view.IsHuman() {
		// Human text is literal, never interpreted as markdown
		_, err := fmt.Fprintf(w, "**Human:** %s\n\n", escapeMarkdown(view.Text))
		return err
	}

	_, _ = fmt.Fprintf(w, "**AI:**\n\n")
	if view.Content == nil || view.Content.Busy {
		_, _ = fmt.Fprintf(w, "_…_\n\n")
	} else {
		_, _ = fmt.Fprintf(w, "%s\n\n", strings.TrimRight(view.Text, "\n"))
	}

	if a := view.Attachments; a != nil {
		switch a.State {
		case internal.AttachmentsLoading:
			_, _ = fmt.Fprintf(w, "_Loading attachments…_\n\n")
		case internal.AttachmentsFailed:
			_, _ = fmt.Fprintf(w, "_Attachments unavailable: %s_\n\n", escapeMarkdown(a.Error))
		case internal.AttachmentsReady:
			for _, f := range a.Files {
				_, _ = fmt.Fprintf(w, "[![%s](%s)](%s)\n", escapeMarkdown(f.DisplayName()), f.URL, f.URL)
			}
			_, _ = fmt.Fprintln(w)
		}
	}

	if c := view.Citations; c != nil {
		_, _ = fmt.Fprintf(w, "**%s:**\n\n", c.Label)
		for _, item := range c.Items {
			_, _ = fmt.Fprintf(w, "- [%s](%s)\n", escapeMarkdown(item.Text), item.Href)
		}
		_, _ = fmt.Fprintln(w)
	}
	return nil
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	"`", "\\`",
	"*", `\*`,
	"_", `\_`,
	"[", `\[`,
	"]", `\]`,
	"#", `\#`,
	"<", `\<`,
	">", `\>`,
	"|", `\|`,
	"~", `\~`,
)

// orderedMarker matches an ordered list marker after escaping
var orderedMarker = regexp.MustCompile(`^(\s*\d+)([.)])`)

// escapeMarkdown escapes markdown syntax so text renders literally
func escapeMarkdown(text string) string {
	lines := strings.Split(markdownEscaper.Replace(text), "\n")
	for i, line := range lines {
		trimmed := strings.TrimLeft(line, " \t")
		indent := line[:len(line)-len(trimmed)]
		switch {
		case trimmed == "":
		case strings.ContainsRune("-+=", rune(trimmed[0])):
			lines[i] = indent + `\` + trimmed
		default:
			lines[i] = orderedMarker.ReplaceAllString(line, `$1\$2`)
		}
	}
	return strings.Join(lines, "\n")
}

// Extension returns the file extension for this format
func (e *MarkdownExporter) Extension() string {
	return "md"
}
