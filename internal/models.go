package internal

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// MessageType is the role of a chat message
type MessageType int

const (
	MessageTypeUnknown MessageType = iota
	MessageTypeHuman
	MessageTypeAI
)

// ParseMessageType parses a wire role ("human", "ai", or the "user"/"assistant" aliases)
func ParseMessageType(s string) (MessageType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "human", "user":
		return MessageTypeHuman, nil
	case "ai", "assistant":
		return MessageTypeAI, nil
	default:
		return MessageTypeUnknown, fmt.Errorf("unknown message type: %q", s)
	}
}

func (t MessageType) String() string {
	switch t {
	case MessageTypeHuman:
		return "human"
	case MessageTypeAI:
		return "ai"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler
func (t MessageType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (t *MessageType) UnmarshalText(text []byte) error {
	parsed, err := ParseMessageType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// TextFragment is one streamed piece of an AI answer
type TextFragment struct {
	Value    string `json:"value" yaml:"value"`
	Sequence int    `json:"sequence,omitempty" yaml:"sequence,omitempty"`
	RunID    string `json:"runId,omitempty" yaml:"runId,omitempty"`
}

// FileRef identifies a stored file attached to a message
type FileRef struct {
	Key      string `json:"key" yaml:"key"`
	Name     string `json:"name,omitempty" yaml:"name,omitempty"`
	MimeType string `json:"mimeType,omitempty" yaml:"mimeType,omitempty"`
	Size     int64  `json:"size,omitempty" yaml:"size,omitempty"`
	Provider string `json:"provider,omitempty" yaml:"provider,omitempty"`
}

// DisplayName returns the file name, falling back to the last segment of the key
func (f FileRef) DisplayName() string {
	if f.Name != "" {
		return f.Name
	}
	if i := strings.LastIndex(f.Key, "/"); i >= 0 {
		return f.Key[i+1:]
	}
	return f.Key
}

// ResolvedFile is a FileRef with a URL usable for display
type ResolvedFile struct {
	FileRef `yaml:",inline"`
	URL     string `json:"url" yaml:"url"`
}

// SourceRef is a citation link
type SourceRef struct {
	Title string `json:"title" yaml:"title"`
	URI   string `json:"uri" yaml:"uri"`
}

// MessageMetadata is the optional metadata of a message
type MessageMetadata struct {
	Files     []FileRef   `json:"files,omitempty" yaml:"files,omitempty"`
	Sources   []SourceRef `json:"Sources,omitempty" yaml:"Sources,omitempty"`
	ModelID   string      `json:"modelId,omitempty" yaml:"modelId,omitempty"`
	SessionID string      `json:"sessionId,omitempty" yaml:"sessionId,omitempty"`
}

// UnmarshalJSON validates files and sources at the decode boundary
func (m *MessageMetadata) UnmarshalJSON(data []byte) error {
	var raw struct {
		Files     json.RawMessage `json:"files"`
		Sources   json.RawMessage `json:"Sources"`
		ModelID   string          `json:"modelId"`
		SessionID string          `json:"sessionId"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return &MetadataError{Field: "metadata", Err: err}
	}

	files, err := decodeFiles(raw.Files)
	if err != nil {
		return err
	}
	sources, err := decodeSources(raw.Sources)
	if err != nil {
		return err
	}

	*m = MessageMetadata{
		Files:     files,
		Sources:   sources,
		ModelID:   raw.ModelID,
		SessionID: raw.SessionID,
	}
	return nil
}

func decodeFiles(raw json.RawMessage) ([]FileRef, error) {
	if isJSONNull(raw) {
		return nil, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, &MetadataError{Field: "files", Err: fmt.Errorf("expected a list: %w", err)}
	}

	files := make([]FileRef, 0, len(items))
	for i, item := range items {
		var f FileRef
		if err := json.Unmarshal(item, &f); err != nil {
			return nil, &MetadataError{Field: fmt.Sprintf("files[%d]", i), Err: err}
		}
		if strings.TrimSpace(f.Key) == "" {
			return nil, &MetadataError{Field: fmt.Sprintf("files[%d].key", i), Err: fmt.Errorf("missing key")}
		}
		files = append(files, f)
	}
	return files, nil
}

func decodeSources(raw json.RawMessage) ([]SourceRef, error) {
	if isJSONNull(raw) {
		return nil, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, &MetadataError{Field: "Sources", Err: fmt.Errorf("expected a list: %w", err)}
	}

	sources := make([]SourceRef, 0, len(items))
	for i, item := range items {
		var src SourceRef
		if err := json.Unmarshal(item, &src); err != nil {
			return nil, &MetadataError{Field: fmt.Sprintf("Sources[%d]", i), Err: err}
		}
		if strings.TrimSpace(src.URI) == "" {
			LogWarn("Dropping source %d without uri (title %q)", i, src.Title)
			continue
		}
		if src.Title == "" {
			src.Title = src.URI
		}
		sources = append(sources, src)
	}
	return sources, nil
}

func isJSONNull(raw json.RawMessage) bool {
	s := strings.TrimSpace(string(raw))
	return s == "" || s == "null"
}

// ChatMessage is a single chat history item
type ChatMessage struct {
	ID       string           `json:"id,omitempty" yaml:"id,omitempty"`
	Type     MessageType      `json:"type" yaml:"type"`
	Content  string           `json:"content" yaml:"content"`
	Tokens   []TextFragment   `json:"tokens,omitempty" yaml:"tokens,omitempty"`
	Metadata *MessageMetadata `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Files returns the attached files, if any
func (m *ChatMessage) Files() []FileRef {
	if m == nil || m.Metadata == nil {
		return nil
	}
	return m.Metadata.Files
}

// Sources returns the citation sources, if any
func (m *ChatMessage) Sources() []SourceRef {
	if m == nil || m.Metadata == nil {
		return nil
	}
	return m.Metadata.Sources
}

// ParseChatMessage decodes a JSON chat message
func ParseChatMessage(data []byte) (*ChatMessage, error) {
	var msg ChatMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse message JSON: %w", err)
	}
	if msg.Type == MessageTypeUnknown {
		return nil, &MetadataError{Field: "type", Err: fmt.Errorf("missing message type")}
	}
	return &msg, nil
}

// ParseChatMessageYAML decodes a YAML chat message.
// The document goes through the JSON decoder so metadata validation runs once.
func ParseChatMessageYAML(data []byte) (*ChatMessage, error) {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse message YAML: %w", err)
	}
	asJSON, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to convert message YAML: %w", err)
	}
	return ParseChatMessage(asJSON)
}

// ParseChatMessages decodes a JSON array of chat messages
func ParseChatMessages(data []byte) ([]*ChatMessage, error) {
	var msgs []*ChatMessage
	if err := json.Unmarshal(data, &msgs); err != nil {
		return nil, fmt.Errorf("failed to parse messages JSON: %w", err)
	}
	for i, msg := range msgs {
		if msg == nil || msg.Type == MessageTypeUnknown {
			return nil, &MetadataError{Field: fmt.Sprintf("[%d].type", i), Err: fmt.Errorf("missing message type")}
		}
	}
	return msgs, nil
}

// RenderConfiguration controls optional UI affordances
type RenderConfiguration struct {
	ShowMetadata bool `json:"showMetadata" yaml:"show_metadata"`
}
