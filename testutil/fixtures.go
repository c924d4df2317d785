package testutil

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/iksnae/chat-message/internal"
	_ "modernc.org/sqlite"
)

// CreateSQLiteFixture writes a history database with sample data to dbPath
func CreateSQLiteFixture(t *testing.T, dbPath string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		t.Fatalf("Failed to create fixture directory: %v", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer func() { _ = db.Close() }()

	if err := internal.InitHistorySchema(db); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}
	InsertSampleHistory(t, db)
}

// Sample messages as they arrive from the API
const (
	HumanMessageJSON = `{"id":"h1","type":"human","content":"What is **new**?"}`

	AIMessageJSON = `{
  "id": "a1",
  "type": "ai",
  "content": "| Col |\n|-----|\n| val |\n\n` + "```go\\nfmt.Println(1)\\n```" + `",
  "metadata": {
    "Sources": [
      {"title": "Docs", "uri": "https://example.com/docs"},
      {"title": "", "uri": "https://example.com/blog"}
    ]
  }
}`

	AIMessageWithFilesYAML = `id: a2
type: ai
content: See attached.
metadata:
  files:
    - key: uploads/a.png
      name: a.png
    - key: uploads/b.png
`
)

// WriteMessageFixture writes a message file into dir and returns its path
func WriteMessageFixture(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write message fixture %s: %v", name, err)
	}
	return path
}
