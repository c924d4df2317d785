package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/iksnae/chat-message/internal"
)

// JSONLExporter exports one view per line
type JSONLExporter struct{}

// Export writes views to w
func (e *JSONLExporter) Export(views []*internal.MessageView, w io.Writer) error {
	enc := json.NewEncoder(w)

	for _, view := range views {
		if err := enc.Encode(view); err != nil {
			return fmt.Errorf("failed to encode message: %w", err)
		}
	}

	return nil
}

// Extension returns the file extension for this format
func (e *JSONLExporter) Extension() string {
	return "jsonl"
}
