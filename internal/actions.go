package internal

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/atotto/clipboard"
)

// Download file name and MIME type for a single message
const (
	DownloadFilename = "chatbot-message.txt"
	DownloadMIMEType = "text/plain"
)

// Confirmation banners
const (
	CopiedMessage     = "Copied to clipboard"
	DownloadedMessage = "Message downloaded"
)

// DefaultConfirmationTTL is how long copy/download confirmations stay up
const DefaultConfirmationTTL = 3 * time.Second

// Clipboard is a write-only text clipboard
type Clipboard interface {
	WriteAll(text string) error
}

// SystemClipboard writes to the host clipboard
type SystemClipboard struct{}

// WriteAll copies text to the system clipboard
func (SystemClipboard) WriteAll(text string) error {
	if clipboard.Unsupported {
		return fmt.Errorf("clipboard not supported on this system")
	}
	return clipboard.WriteAll(text)
}

// ActionBar exposes copy and download for the raw content of an AI message
type ActionBar struct {
	Filename string `json:"filename" yaml:"filename"`
	MIMEType string `json:"mimeType" yaml:"mimeType"`
	content  string
}

// NewActionBar returns the action bar for msg, or nil when it is not shown
func NewActionBar(msg *ChatMessage) *ActionBar {
	if msg == nil || msg.Type != MessageTypeAI || len(msg.Content) == 0 {
		return nil
	}
	return &ActionBar{
		Filename: DownloadFilename,
		MIMEType: DownloadMIMEType,
		content:  msg.Content,
	}
}

// Content returns the raw text the actions operate on
func (a *ActionBar) Content() string {
	return a.content
}

// Copy writes the content verbatim to cb and flashes a confirmation on n (which may be nil)
func (a *ActionBar) Copy(cb Clipboard, n Notifier, ttl time.Duration) error {
	err := cb.WriteAll(a.content)
	recordAction("copy", err)
	if err != nil {
		if n != nil {
			Flash(n, NotificationError, "Could not copy to clipboard", ttl)
		}
		return &ActionError{Action: "copy", Err: err}
	}
	if n != nil {
		Flash(n, NotificationSuccess, CopiedMessage, ttl)
	}
	return nil
}

// WriteTo writes the download payload to w
func (a *ActionBar) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, a.content)
	return int64(n), err
}

// Download writes the content to dir/chatbot-message.txt and returns the path.
// The file is staged in a temporary file that is always closed and removed
// unless it was renamed into place.
func (a *ActionBar) Download(dir string) (path string, err error) {
	defer func() { recordAction("download", err) }()

	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, ".chatbot-message-*.tmp")
	if err != nil {
		return "", &ActionError{Action: "download", Err: err}
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = a.WriteTo(tmp); err != nil {
		_ = tmp.Close()
		return "", &ActionError{Action: "download", Err: err}
	}
	if err = tmp.Close(); err != nil {
		return "", &ActionError{Action: "download", Err: err}
	}

	path = filepath.Join(dir, a.Filename)
	if err = os.Rename(tmpName, path); err != nil {
		return "", &ActionError{Action: "download", Err: err}
	}
	if err = os.Chmod(path, 0644); err != nil {
		LogDebug("Failed to chmod %s: %v", path, err)
		err = nil
	}
	return path, nil
}
