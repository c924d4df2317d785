package internal

import "fmt"

// Citation menu labels
const (
	CitationMenuLabel = "Sources"
	ExternalAriaLabel = "(opens in new tab)"
)

// CitationItem is one source link in the menu
type CitationItem struct {
	ID                    string `json:"id" yaml:"id"`
	Text                  string `json:"text" yaml:"text"`
	Href                  string `json:"href" yaml:"href"`
	External              bool   `json:"external" yaml:"external"`
	ExternalIconAriaLabel string `json:"externalIconAriaLabel" yaml:"externalIconAriaLabel"`
}

// CitationMenu is the dropdown of sources shown under an AI message
type CitationMenu struct {
	Label string         `json:"label" yaml:"label"`
	Items []CitationItem `json:"items" yaml:"items"`
}

// CitationsVisible reports whether the menu is shown for the given sources and flags
func CitationsVisible(sources []SourceRef, showMetadata bool, cfg *RenderConfiguration) bool {
	if len(sources) == 0 {
		return false
	}
	return showMetadata || (cfg != nil && cfg.ShowMetadata)
}

// NewCitationMenu builds the menu for msg, or returns nil when it is hidden
func NewCitationMenu(msg *ChatMessage, showMetadata bool, cfg *RenderConfiguration) *CitationMenu {
	sources := msg.Sources()
	if !CitationsVisible(sources, showMetadata, cfg) {
		return nil
	}

	items := make([]CitationItem, 0, len(sources))
	for i, src := range sources {
		items = append(items, CitationItem{
			ID:                    fmt.Sprintf("source-%d", i),
			Text:                  src.Title,
			Href:                  src.URI,
			External:              true,
			ExternalIconAriaLabel: ExternalAriaLabel,
		})
	}
	return &CitationMenu{Label: CitationMenuLabel, Items: items}
}
