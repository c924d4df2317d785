package export

import (
	"encoding/json"
	"io"

	"github.com/iksnae/chat-message/internal"
)

// JSONExporter exports views as pretty-printed JSON.
// A single view is written as an object, several as an array.
type JSONExporter struct{}

// Export writes views to w
func (e *JSONExporter) Export(views []*internal.MessageView, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	if len(views) == 1 {
		return enc.Encode(views[0])
	}
	if views == nil {
		views = []*internal.MessageView{}
	}
	return enc.Encode(views)
}

// Extension returns the file extension for this format
func (e *JSONExporter) Extension() string {
	return "json"
}
