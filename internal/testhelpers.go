package internal

import (
	"context"
	"strings"
)

// CreateTestAIMessage creates an AI message with content and optional sources
func CreateTestAIMessage(id, content string, sources ...SourceRef) *ChatMessage {
	msg := &ChatMessage{
		ID:      id,
		Type:    MessageTypeAI,
		Content: content,
	}
	if len(sources) > 0 {
		msg.Metadata = &MessageMetadata{Sources: sources}
	}
	return msg
}

// CreateTestHumanMessage creates a human message
func CreateTestHumanMessage(id, content string) *ChatMessage {
	return &ChatMessage{
		ID:      id,
		Type:    MessageTypeHuman,
		Content: content,
	}
}

// CreateTestStreamingMessage creates an AI message whose text is only in tokens
func CreateTestStreamingMessage(id string, tokens ...string) *ChatMessage {
	msg := &ChatMessage{ID: id, Type: MessageTypeAI}
	for i, tok := range tokens {
		msg.Tokens = append(msg.Tokens, TextFragment{Value: tok, Sequence: i})
	}
	return msg
}

// CreateTestMessageWithFiles creates an AI message with attachments for keys
func CreateTestMessageWithFiles(id, content string, keys ...string) *ChatMessage {
	msg := CreateTestAIMessage(id, content)
	msg.Metadata = &MessageMetadata{}
	for _, k := range keys {
		msg.Metadata.Files = append(msg.Metadata.Files, FileRef{Key: k})
	}
	return msg
}

// StaticSigner signs keys as <base>/<key> without touching the network
type StaticSigner struct {
	Base string
	Fail map[string]error
}

// SignURL returns Base/key, or the configured failure for key
func (s StaticSigner) SignURL(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err, ok := s.Fail[key]; ok {
		return "", &SigningError{Key: key, Err: err}
	}
	return strings.TrimRight(s.Base, "/") + "/" + key, nil
}
