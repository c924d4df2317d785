package server

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/iksnae/chat-message/internal"
	"github.com/iksnae/chat-message/testutil"
	"github.com/valyala/fasthttp"
)

func newTestServer(t *testing.T, opts Options) *Server {
	t.Helper()
	if opts.Source == nil {
		opts.Source = internal.NewHistory(testutil.CreateTestDB(t))
	}
	return New(opts)
}

func do(s *Server, method, uri string) *fasthttp.RequestCtx {
	var req fasthttp.Request
	req.Header.SetMethod(method)
	req.SetRequestURI(uri)
	var ctx fasthttp.RequestCtx
	ctx.Init(&req, nil, nil)
	s.Handler(&ctx)
	return &ctx
}

func TestHandler_Routes(t *testing.T) {
	s := newTestServer(t, Options{Signer: internal.StaticSigner{Base: "https://cdn"}})

	tests := []struct {
		name        string
		method      string
		uri         string
		wantStatus  int
		wantType    string
		wantContain []string
	}{
		{name: "health", method: "GET", uri: "/healthz", wantStatus: 200, wantContain: []string{`"ok"`}},
		{name: "metrics", method: "GET", uri: "/metrics", wantStatus: 200, wantContain: []string{"chatmsg_"}},
		{name: "sessions", method: "GET", uri: "/sessions", wantStatus: 200, wantType: "application/json", wantContain: []string{`"chat1"`, `"chat2"`}},
		{
			name:        "session page",
			method:      "GET",
			uri:         "/sessions/chat1",
			wantStatus:  200,
			wantType:    "text/html; charset=utf-8",
			wantContain: []string{"<!DOCTYPE html>", "<strong>Summarize the report</strong>", `href="/sessions/chat1/messages/m2/download"`, "https://cdn/charts/q1.png"},
		},
		{
			name:        "message fragment",
			method:      "GET",
			uri:         "/sessions/chat1/messages/m2",
			wantStatus:  200,
			wantType:    "text/html; charset=utf-8",
			wantContain: []string{"<strong>grew</strong>"},
		},
		{
			name:        "message with metadata",
			method:      "GET",
			uri:         "/sessions/chat1/messages/m2?show_metadata=1",
			wantStatus:  200,
			wantContain: []string{"https://example.com/report", "(opens in new tab)"},
		},
		{
			name:        "message as json",
			method:      "GET",
			uri:         "/sessions/chat2/messages/m1?format=json",
			wantStatus:  200,
			wantType:    "application/json",
			wantContain: []string{`"text": "Hello world"`},
		},
		{
			name:        "message as markdown",
			method:      "GET",
			uri:         "/sessions/chat1/messages/m2?format=md",
			wantStatus:  200,
			wantType:    "text/markdown; charset=utf-8",
			wantContain: []string{"Revenue **grew** by 4%."},
		},
		{name: "bad format", method: "GET", uri: "/sessions/chat1/messages/m2?format=pdf", wantStatus: 400},
		{name: "missing session", method: "GET", uri: "/sessions/nope", wantStatus: 404},
		{name: "missing message", method: "GET", uri: "/sessions/chat1/messages/nope", wantStatus: 404},
		{name: "unknown route", method: "GET", uri: "/nope", wantStatus: 404},
		{name: "post not allowed", method: "POST", uri: "/sessions", wantStatus: 405},
		{name: "files disabled", method: "GET", uri: "/files/a.png", wantStatus: 404},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := do(s, tt.method, tt.uri)
			if got := ctx.Response.StatusCode(); got != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", got, tt.wantStatus, ctx.Response.Body())
			}
			if tt.wantType != "" {
				if got := string(ctx.Response.Header.ContentType()); got != tt.wantType {
					t.Errorf("content type = %q, want %q", got, tt.wantType)
				}
			}
			body := string(ctx.Response.Body())
			for _, want := range tt.wantContain {
				if !strings.Contains(body, want) {
					t.Errorf("body missing %q\n%s", want, body)
				}
			}
		})
	}
}

func TestHandler_Download(t *testing.T) {
	s := newTestServer(t, Options{})

	ctx := do(s, "GET", "/sessions/chat1/messages/m2/download")
	if ctx.Response.StatusCode() != 200 {
		t.Fatalf("status = %d", ctx.Response.StatusCode())
	}
	if got := string(ctx.Response.Header.Peek("Content-Disposition")); got != `attachment; filename="chatbot-message.txt"` {
		t.Errorf("Content-Disposition = %q", got)
	}
	if got := string(ctx.Response.Header.ContentType()); got != "text/plain; charset=utf-8" {
		t.Errorf("content type = %q", got)
	}
	if got := string(ctx.Response.Body()); got != "Revenue **grew** by 4%." {
		t.Errorf("body = %q, want raw content", got)
	}

	// Streamed message without content has nothing to download
	ctx = do(s, "GET", "/sessions/chat2/messages/m1/download")
	if ctx.Response.StatusCode() != 404 {
		t.Errorf("status = %d, want 404", ctx.Response.StatusCode())
	}

	// Human messages have no actions
	ctx = do(s, "GET", "/sessions/chat1/messages/m1/download")
	if ctx.Response.StatusCode() != 404 {
		t.Errorf("status = %d, want 404", ctx.Response.StatusCode())
	}
}

func TestHandler_SigningFailureRendersPlaceholder(t *testing.T) {
	signer := internal.StaticSigner{Fail: map[string]error{"charts/q1.png": os.ErrPermission}}
	s := newTestServer(t, Options{Signer: signer})

	ctx := do(s, "GET", "/sessions/chat1/messages/m3")
	if ctx.Response.StatusCode() != 200 {
		t.Fatalf("status = %d", ctx.Response.StatusCode())
	}
	if !strings.Contains(string(ctx.Response.Body()), "Attachments unavailable") {
		t.Errorf("body should show the attachment error placeholder:\n%s", ctx.Response.Body())
	}
}

func TestHandler_Files(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "charts"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "charts", "q1.png"), []byte("PNGDATA"), 0644); err != nil {
		t.Fatal(err)
	}

	verifier, err := internal.NewHMACSigner("http://localhost:8089", []byte("secret"), time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	s := newTestServer(t, Options{Signer: verifier, Verifier: verifier, FilesDir: dir})

	signed, err := verifier.SignURL(context.Background(), "charts/q1.png")
	if err != nil {
		t.Fatal(err)
	}
	u, err := url.Parse(signed)
	if err != nil {
		t.Fatal(err)
	}

	ctx := do(s, "GET", u.RequestURI())
	if ctx.Response.StatusCode() != 200 || string(ctx.Response.Body()) != "PNGDATA" {
		t.Errorf("signed file: status = %d body = %q", ctx.Response.StatusCode(), ctx.Response.Body())
	}

	ctx = do(s, "GET", "/files/charts/q1.png?expires=9999999999&signature=deadbeef")
	if ctx.Response.StatusCode() != 403 {
		t.Errorf("bad signature: status = %d, want 403", ctx.Response.StatusCode())
	}

	ctx = do(s, "GET", "/files/charts/?expires=9999999999&signature=deadbeef")
	if ctx.Response.StatusCode() != 400 {
		t.Errorf("invalid key: status = %d, want 400", ctx.Response.StatusCode())
	}
}

func TestHandler_SessionsJSON(t *testing.T) {
	s := newTestServer(t, Options{})
	ctx := do(s, "GET", "/sessions")

	var sessions []internal.SessionSummary
	testutil.JSONUnmarshal(t, ctx.Response.Body(), &sessions)
	if len(sessions) != 2 || sessions[0].ID != "chat2" || sessions[1].MessageCount != 3 {
		t.Errorf("sessions = %+v", sessions)
	}
}

func TestHandler_MalformedMetadataKeepsSession(t *testing.T) {
	db := testutil.CreateTestDB(t)
	if _, err := db.Exec(
		"INSERT INTO messages (session_id, message_id, seq, type, content, metadata) VALUES ('chat1', 'm4', 4, 'ai', 'Still here', '{\"Sources\":\"oops\"}')",
	); err != nil {
		t.Fatalf("Failed to insert message: %v", err)
	}
	s := New(Options{Source: internal.NewHistory(db), Signer: internal.StaticSigner{Base: "https://cdn"}})

	tests := []struct {
		uri         string
		wantContain []string
		wantAbsent  string
	}{
		{uri: "/sessions/chat1", wantContain: []string{"Summarize the report", "Still here"}},
		{uri: "/sessions/chat1/messages/m4?show_metadata=1", wantContain: []string{"Still here"}, wantAbsent: "container-footer"},
	}
	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			ctx := do(s, "GET", tt.uri)
			if ctx.Response.StatusCode() != 200 {
				t.Fatalf("status = %d, want 200 (body %s)", ctx.Response.StatusCode(), ctx.Response.Body())
			}
			body := string(ctx.Response.Body())
			for _, want := range tt.wantContain {
				if !strings.Contains(body, want) {
					t.Errorf("body missing %q", want)
				}
			}
			if tt.wantAbsent != "" && strings.Contains(body, tt.wantAbsent) {
				t.Errorf("body should not contain %q", tt.wantAbsent)
			}
		})
	}
}
