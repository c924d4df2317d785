package export

import (
	"io"

	"github.com/iksnae/chat-message/internal"
	"gopkg.in/yaml.v3"
)

// YAMLExporter exports views as a YAML sequence
type YAMLExporter struct{}

// Export writes views to w
func (e *YAMLExporter) Export(views []*internal.MessageView, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	defer func() { _ = enc.Close() }()

	enc.SetIndent(2)
	if views == nil {
		views = []*internal.MessageView{}
	}
	return enc.Encode(views)
}

// Extension returns the file extension for this format
func (e *YAMLExporter) Extension() string {
	return "yaml"
}
