package testutil

import (
	"database/sql"
	"testing"

	"github.com/iksnae/chat-message/internal"
	_ "modernc.org/sqlite"
)

// CreateInMemoryDB creates an in-memory SQLite database with the history schema
func CreateInMemoryDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to create in-memory database: %v", err)
	}
	// Each connection to :memory: is its own database
	db.SetMaxOpenConns(1)

	if err := internal.InitHistorySchema(db); err != nil {
		db.Close()
		t.Fatalf("Failed to create history schema: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// CreateTestDB creates a test database with sample data
func CreateTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db := CreateInMemoryDB(t)
	InsertSampleHistory(t, db)
	return db
}

// InsertSampleHistory inserts two sessions:
//
//	chat1: m1 (human), m2 (ai with Sources), m3 (ai with a file)
//	chat2: m1 (ai streamed through tokens)
func InsertSampleHistory(t *testing.T, db *sql.DB) {
	t.Helper()

	sessions := []struct {
		id      string
		title   string
		created int64
	}{
		{id: "chat1", title: "Quarterly report", created: 1000},
		{id: "chat2", title: "Streaming answer", created: 2000},
	}
	for _, s := range sessions {
		if _, err := db.Exec("INSERT INTO sessions (session_id, title, created_at) VALUES (?, ?, ?)", s.id, s.title, s.created); err != nil {
			t.Fatalf("Failed to insert session %s: %v", s.id, err)
		}
	}

	messages := []struct {
		session, id string
		seq         int
		typ         string
		content     string
		tokens      interface{}
		metadata    interface{}
	}{
		{session: "chat1", id: "m1", seq: 1, typ: "human", content: "Summarize the report"},
		{
			session:  "chat1",
			id:       "m2",
			seq:      2,
			typ:      "ai",
			content:  "Revenue **grew** by 4%.",
			metadata: `{"Sources":[{"title":"Report","uri":"https://example.com/report"}]}`,
		},
		{
			session:  "chat1",
			id:       "m3",
			seq:      3,
			typ:      "ai",
			content:  "Here is the chart.",
			metadata: `{"files":[{"key":"charts/q1.png","name":"q1.png","mimeType":"image/png","size":2048}]}`,
		},
		{
			session: "chat2",
			id:      "m1",
			seq:     1,
			typ:     "ai",
			tokens:  `[{"value":"Hello"},{"value":" world"}]`,
		},
	}
	for _, m := range messages {
		if _, err := db.Exec(
			"INSERT INTO messages (session_id, message_id, seq, type, content, tokens, metadata, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
			m.session, m.id, m.seq, m.typ, m.content, m.tokens, m.metadata, 1000+m.seq,
		); err != nil {
			t.Fatalf("Failed to insert message %s/%s: %v", m.session, m.id, err)
		}
	}
}
