package export

import (
	"fmt"
	"io"

	"github.com/iksnae/chat-message/internal"
)

// Exporter writes rendered messages in one output format
type Exporter interface {
	Export(views []*internal.MessageView, w io.Writer) error
	Extension() string
}

// NewExporter creates a new exporter based on format
func NewExporter(format string) (Exporter, error) {
	switch format {
	case "html":
		return &HTMLExporter{}, nil
	case "term", "terminal":
		return &TerminalExporter{}, nil
	case "md", "markdown":
		return &MarkdownExporter{}, nil
	case "json":
		return &JSONExporter{}, nil
	case "jsonl":
		return &JSONLExporter{}, nil
	case "yaml":
		return &YAMLExporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s (supported: html, term, md, json, jsonl, yaml)", format)
	}
}
