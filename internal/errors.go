package internal

import "fmt"

// SigningError represents a failure to produce a signed URL for a stored file
type SigningError struct {
	Key string
	Err error
}

func (e *SigningError) Error() string {
	return fmt.Sprintf("signing error [%s]: %v", e.Key, e.Err)
}

func (e *SigningError) Unwrap() error {
	return e.Err
}

// MetadataError represents malformed message data rejected at decode time
type MetadataError struct {
	Field string // "Sources", "files[0].key", ...
	Err   error
}

func (e *MetadataError) Error() string {
	return fmt.Sprintf("metadata error [%s]: %v", e.Field, e.Err)
}

func (e *MetadataError) Unwrap() error {
	return e.Err
}

// ActionError represents a failed copy or download action
type ActionError struct {
	Action string // "copy", "download"
	Err    error
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Action, e.Err)
}

func (e *ActionError) Unwrap() error {
	return e.Err
}

// HistoryError represents errors reading the chat history database
type HistoryError struct {
	Op  string // "open", "query", "scan", "decode"
	Key string // session or message id
	Err error
}

func (e *HistoryError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("history error: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("history error: %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *HistoryError) Unwrap() error {
	return e.Err
}

// ExportError represents errors while writing a rendered message
type ExportError struct {
	Format string
	Path   string
	Err    error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export error [%s] %s: %v", e.Format, e.Path, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}
