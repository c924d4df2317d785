package internal

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// HistorySchema creates the tables read by History
const HistorySchema = `
CREATE TABLE IF NOT EXISTS sessions (
	session_id TEXT PRIMARY KEY,
	title      TEXT,
	created_at INTEGER
);
CREATE TABLE IF NOT EXISTS messages (
	session_id TEXT NOT NULL,
	message_id TEXT NOT NULL,
	seq        INTEGER NOT NULL,
	type       TEXT NOT NULL,
	content    TEXT,
	tokens     TEXT,
	metadata   TEXT,
	created_at INTEGER,
	PRIMARY KEY (session_id, message_id)
);
CREATE INDEX IF NOT EXISTS messages_by_seq ON messages (session_id, seq);
`

// ErrNotFound is returned when a session or message does not exist
var ErrNotFound = errors.New("not found")

// Session is a chat session with its messages in order
type Session struct {
	ID        string         `json:"id" yaml:"id"`
	Title     string         `json:"title,omitempty" yaml:"title,omitempty"`
	CreatedAt time.Time      `json:"createdAt" yaml:"createdAt"`
	Messages  []*ChatMessage `json:"messages" yaml:"messages"`
}

// SessionSummary is a row of the session list
type SessionSummary struct {
	ID           string    `json:"id" yaml:"id"`
	Title        string    `json:"title,omitempty" yaml:"title,omitempty"`
	CreatedAt    time.Time `json:"createdAt" yaml:"createdAt"`
	MessageCount int       `json:"messageCount" yaml:"messageCount"`
}

// History reads chat sessions from a SQLite database
type History struct {
	db *sql.DB
}

// OpenHistory opens a SQLite history database in read-only mode
func OpenHistory(path string) (*History, error) {
	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, &HistoryError{Op: "open", Key: path, Err: err}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, &HistoryError{Op: "open", Key: path, Err: fmt.Errorf("database ping failed: %w", err)}
	}

	return &History{db: db}, nil
}

// NewHistory wraps an already opened database
func NewHistory(db *sql.DB) *History {
	return &History{db: db}
}

// InitHistorySchema creates the history tables if they are missing
func InitHistorySchema(db *sql.DB) error {
	if _, err := db.Exec(HistorySchema); err != nil {
		return &HistoryError{Op: "init", Err: err}
	}
	return nil
}

// Close closes the underlying database
func (h *History) Close() error {
	return h.db.Close()
}

// ListSessions returns all sessions, newest first
func (h *History) ListSessions() ([]SessionSummary, error) {
	rows, err := h.db.Query(`
		SELECT s.session_id, COALESCE(s.title, ''), COALESCE(s.created_at, 0), COUNT(m.message_id)
		FROM sessions s
		LEFT JOIN messages m ON m.session_id = s.session_id
		GROUP BY s.session_id
		ORDER BY s.created_at DESC, s.session_id`)
	if err != nil {
		return nil, &HistoryError{Op: "query", Err: err}
	}
	defer rows.Close()

	var sessions []SessionSummary
	for rows.Next() {
		var s SessionSummary
		var created int64
		if err := rows.Scan(&s.ID, &s.Title, &created, &s.MessageCount); err != nil {
			return nil, &HistoryError{Op: "scan", Err: err}
		}
		s.CreatedAt = fromMillis(created)
		sessions = append(sessions, s)
	}

	if err := rows.Err(); err != nil {
		return nil, &HistoryError{Op: "query", Err: fmt.Errorf("rows iteration error: %w", err)}
	}
	return sessions, nil
}

// LoadSession returns a session with its messages ordered by sequence
func (h *History) LoadSession(sessionID string) (*Session, error) {
	session := &Session{ID: sessionID}
	var created int64
	err := h.db.QueryRow(
		"SELECT COALESCE(title, ''), COALESCE(created_at, 0) FROM sessions WHERE session_id = ?",
		sessionID,
	).Scan(&session.Title, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &HistoryError{Op: "load", Key: sessionID, Err: ErrNotFound}
	}
	if err != nil {
		return nil, &HistoryError{Op: "query", Key: sessionID, Err: err}
	}
	session.CreatedAt = fromMillis(created)

	rows, err := h.db.Query(
		"SELECT message_id, type, COALESCE(content, ''), tokens, metadata FROM messages WHERE session_id = ? ORDER BY seq",
		sessionID,
	)
	if err != nil {
		return nil, &HistoryError{Op: "query", Key: sessionID, Err: err}
	}
	defer rows.Close()

	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		session.Messages = append(session.Messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, &HistoryError{Op: "query", Key: sessionID, Err: fmt.Errorf("rows iteration error: %w", err)}
	}

	return session, nil
}

// LoadMessage returns a single message of a session
func (h *History) LoadMessage(sessionID, messageID string) (*ChatMessage, error) {
	row := h.db.QueryRow(
		"SELECT message_id, type, COALESCE(content, ''), tokens, metadata FROM messages WHERE session_id = ? AND message_id = ?",
		sessionID, messageID,
	)
	msg, err := scanMessage(row)
	if err != nil {
		var herr *HistoryError
		if errors.As(err, &herr) && errors.Is(herr.Err, sql.ErrNoRows) {
			return nil, &HistoryError{Op: "load", Key: sessionID + "/" + messageID, Err: ErrNotFound}
		}
		return nil, err
	}
	return msg, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMessage(row rowScanner) (*ChatMessage, error) {
	var (
		id, typ, content string
		tokens, metadata sql.NullString
	)
	if err := row.Scan(&id, &typ, &content, &tokens, &metadata); err != nil {
		return nil, &HistoryError{Op: "scan", Key: id, Err: err}
	}

	msgType, err := ParseMessageType(typ)
	if err != nil {
		return nil, &HistoryError{Op: "decode", Key: id, Err: err}
	}
	msg := &ChatMessage{ID: id, Type: msgType, Content: content}

	if tokens.Valid && tokens.String != "" {
		if err := json.Unmarshal([]byte(tokens.String), &msg.Tokens); err != nil {
			return nil, &HistoryError{Op: "decode", Key: id, Err: fmt.Errorf("tokens: %w", err)}
		}
	}
	if metadata.Valid && metadata.String != "" {
		// A bad metadata blob only costs this message its attachments and sources
		var meta MessageMetadata
		if err := json.Unmarshal([]byte(metadata.String), &meta); err != nil {
			LogWarn("Ignoring metadata of message %s: %v", id, err)
		} else {
			msg.Metadata = &meta
		}
	}
	return msg, nil
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}
