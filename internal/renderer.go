package internal

import (
	"context"
	"fmt"
	"sync"
)

// Props are the per-render inputs of a message
type Props struct {
	Message       *ChatMessage
	Configuration *RenderConfiguration
	ShowMetadata  bool
}

// MessageView is everything needed to draw one message
type MessageView struct {
	ID          string        `json:"id,omitempty" yaml:"id,omitempty"`
	Type        MessageType   `json:"type" yaml:"type"`
	Text        string        `json:"text" yaml:"text"`
	Content     *ContentView  `json:"content,omitempty" yaml:"content,omitempty"`
	Actions     *ActionBar    `json:"actions,omitempty" yaml:"actions,omitempty"`
	Attachments *Attachments  `json:"attachments,omitempty" yaml:"attachments,omitempty"`
	Citations   *CitationMenu `json:"citations,omitempty" yaml:"citations,omitempty"`
}

// IsHuman reports whether the view is the plain human branch
func (v *MessageView) IsHuman() bool {
	return v.Type == MessageTypeHuman
}

// Renderer selects the presentation branch for a message
type Renderer struct {
	presenter *ContentPresenter
}

// NewRenderer creates a renderer; a nil presenter gets the default one
func NewRenderer(presenter *ContentPresenter) *Renderer {
	if presenter == nil {
		presenter = NewContentPresenter()
	}
	return &Renderer{presenter: presenter}
}

// Presenter returns the content presenter used for AI messages
func (r *Renderer) Presenter() *ContentPresenter {
	return r.presenter
}

// Render builds the view of props.Message with the given attachment state
func (r *Renderer) Render(props Props, attachments Attachments) (*MessageView, error) {
	msg := props.Message
	if msg == nil {
		return nil, fmt.Errorf("no message to render")
	}
	renderedMessages.WithLabelValues(msg.Type.String()).Inc()

	switch msg.Type {
	case MessageTypeHuman:
		return &MessageView{
			ID:   msg.ID,
			Type: MessageTypeHuman,
			Text: msg.Content,
		}, nil
	case MessageTypeAI:
		text := EffectiveText(msg)
		content, err := r.presenter.Present(text)
		if err != nil {
			return nil, err
		}
		view := &MessageView{
			ID:        msg.ID,
			Type:      MessageTypeAI,
			Text:      text,
			Content:   &content,
			Actions:   NewActionBar(msg),
			Citations: NewCitationMenu(msg, props.ShowMetadata, props.Configuration),
		}
		if len(msg.Files()) > 0 {
			a := copyAttachments(attachments)
			if !a.belongsTo(msg) {
				a = Attachments{State: AttachmentsLoading}
			}
			view.Attachments = &a
		}
		return view, nil
	default:
		return nil, fmt.Errorf("unsupported message type: %s", msg.Type)
	}
}

// MessageComponent pairs a renderer with the attachment state of the
// message it currently shows
type MessageComponent struct {
	renderer *Renderer
	resolver *AttachmentResolver

	mu      sync.Mutex
	message *ChatMessage
}

// NewMessageComponent creates a component that signs attachments with signer
func NewMessageComponent(renderer *Renderer, signer Signer) *MessageComponent {
	return &MessageComponent{
		renderer: renderer,
		resolver: NewAttachmentResolver(signer),
	}
}

// Resolver exposes the attachment resolver, e.g. to subscribe to changes
func (c *MessageComponent) Resolver() *AttachmentResolver {
	return c.resolver
}

// SetMessage switches the component to msg and starts attachment resolution
func (c *MessageComponent) SetMessage(ctx context.Context, msg *ChatMessage) <-chan struct{} {
	c.mu.Lock()
	c.message = msg
	c.mu.Unlock()
	return c.resolver.Show(ctx, msg)
}

// View renders the current message with the latest attachment state
func (c *MessageComponent) View(cfg *RenderConfiguration, showMetadata bool) (*MessageView, error) {
	c.mu.Lock()
	msg := c.message
	c.mu.Unlock()
	return c.renderer.Render(Props{
		Message:       msg,
		Configuration: cfg,
		ShowMetadata:  showMetadata,
	}, c.resolver.Snapshot())
}

// Close stops any in-flight attachment resolution
func (c *MessageComponent) Close() {
	c.resolver.Close()
}
