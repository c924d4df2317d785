package cmd

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/iksnae/chat-message/internal"
	"github.com/iksnae/chat-message/testutil"
	"github.com/spf13/cobra"
)

type fakeClipboard struct {
	text string
	err  error
}

func (c *fakeClipboard) WriteAll(text string) error {
	if c.err != nil {
		return c.err
	}
	c.text = text
	return nil
}

func useClipboard(t *testing.T, cb internal.Clipboard) {
	t.Helper()
	orig := clipboardWriter
	clipboardWriter = cb
	t.Cleanup(func() { clipboardWriter = orig })
}

func TestCopyCommand(t *testing.T) {
	dir := t.TempDir()
	ai := testutil.WriteMessageFixture(t, dir, "ai.json", `{"type":"ai","content":"**raw** answer"}`)

	cb := &fakeClipboard{}
	useClipboard(t, cb)

	_, stderr, err := executeCommand(t, "copy", ai)
	if err != nil {
		t.Fatalf("copy error = %v", err)
	}
	if cb.text != "**raw** answer" {
		t.Errorf("clipboard = %q, want raw content", cb.text)
	}
	if !strings.Contains(stderr, internal.CopiedMessage) {
		t.Errorf("stderr = %q, want confirmation", stderr)
	}
}

func TestCLINotifier_PrintsEachBannerOnce(t *testing.T) {
	var stderr bytes.Buffer
	c := &cobra.Command{}
	c.SetErr(&stderr)

	m := newCLINotifier(c)
	first := m.Add(internal.NotificationSuccess, "first")
	m.Remove(first)
	m.Add(internal.NotificationSuccess, "second")
	m.Add(internal.NotificationSuccess, "third")

	out := stderr.String()
	for _, want := range []string{"first", "second", "third"} {
		if strings.Count(out, want) != 1 {
			t.Errorf("stderr should show %q once, got %q", want, out)
		}
	}
}

func TestCopyCommand_Errors(t *testing.T) {
	dir := t.TempDir()
	human := testutil.WriteMessageFixture(t, dir, "human.json", testutil.HumanMessageJSON)
	ai := testutil.WriteMessageFixture(t, dir, "ai.json", `{"type":"ai","content":"x"}`)

	useClipboard(t, &fakeClipboard{})
	if _, _, err := executeCommand(t, "copy", human); err == nil {
		t.Error("copy of a human message should fail")
	}

	useClipboard(t, &fakeClipboard{err: errors.New("no display")})
	_, stderr, err := executeCommand(t, "copy", ai)
	var actionErr *internal.ActionError
	if !errors.As(err, &actionErr) {
		t.Errorf("copy error = %v, want ActionError", err)
	}
	if !strings.Contains(stderr, "error: Could not copy") {
		t.Errorf("stderr = %q, want error banner", stderr)
	}
}

func TestDownloadCommand(t *testing.T) {
	dir := t.TempDir()
	content := "line one\n\n| a | b |\n"
	ai := testutil.WriteMessageFixture(t, dir, "ai.yaml", "type: ai\ncontent: |\n  line one\n\n  | a | b |\n")
	outDir := filepath.Join(dir, "downloads")
	if err := os.Mkdir(outDir, 0755); err != nil {
		t.Fatal(err)
	}

	_, stderr, err := executeCommand(t, "download", ai, "--dir", outDir)
	if err != nil {
		t.Fatalf("download error = %v", err)
	}
	data, err := os.ReadFile(filepath.Join(outDir, internal.DownloadFilename))
	if err != nil {
		t.Fatalf("download not written: %v", err)
	}
	if string(data) != content {
		t.Errorf("download = %q, want %q", data, content)
	}
	if !strings.Contains(stderr, internal.DownloadedMessage) {
		t.Errorf("stderr = %q, want confirmation", stderr)
	}
}

func TestDownloadCommand_NoContent(t *testing.T) {
	dir := t.TempDir()
	streaming := testutil.WriteMessageFixture(t, dir, "s.json", `{"type":"ai","tokens":[{"value":"partial"}]}`)
	if _, _, err := executeCommand(t, "download", streaming, "--dir", dir); err == nil {
		t.Error("download without raw content should fail")
	}
}
