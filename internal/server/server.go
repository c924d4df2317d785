package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/iksnae/chat-message/internal"
	"github.com/iksnae/chat-message/internal/export"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

// MessageSource is the read side of the chat history
type MessageSource interface {
	ListSessions() ([]internal.SessionSummary, error)
	LoadSession(sessionID string) (*internal.Session, error)
	LoadMessage(sessionID, messageID string) (*internal.ChatMessage, error)
}

// Options configures a Server
type Options struct {
	Source   MessageSource
	Renderer *internal.Renderer
	Signer   internal.Signer
	// Verifier validates /files/ requests; nil disables the file endpoint
	Verifier *internal.HMACSigner
	FilesDir string
	Render   internal.RenderConfiguration
}

// Server serves rendered chat messages over HTTP
type Server struct {
	opts    Options
	metrics fasthttp.RequestHandler
	srv     *fasthttp.Server
}

// New creates a server
func New(opts Options) *Server {
	if opts.Renderer == nil {
		opts.Renderer = internal.NewRenderer(nil)
	}
	s := &Server{
		opts:    opts,
		metrics: fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler()),
	}

	const (
		readTimeout  = 10 * time.Second
		writeTimeout = 30 * time.Second
		idleTimeout  = 30 * time.Second
	)
	s.srv = &fasthttp.Server{
		Handler:      s.Handler,
		Name:         "chat-message",
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}
	return s
}

// ListenAndServe serves on addr until Shutdown
func (s *Server) ListenAndServe(addr string) error {
	internal.LogInfo("Listening on %s", addr)
	return s.srv.ListenAndServe(addr)
}

// Shutdown stops the server gracefully
func (s *Server) Shutdown() error {
	return s.srv.Shutdown()
}

// Handler routes a request
func (s *Server) Handler(ctx *fasthttp.RequestCtx) {
	if !ctx.IsGet() && !ctx.IsHead() {
		writeJSONError(ctx, fasthttp.StatusMethodNotAllowed, "method not allowed")
		return
	}

	path := string(ctx.Path())
	switch {
	case path == "/healthz":
		ctx.SetContentType("application/json")
		_, _ = ctx.WriteString(`{"status":"ok"}`)
		return
	case path == "/metrics":
		s.metrics(ctx)
		return
	case strings.HasPrefix(path, "/files/"):
		s.serveFile(ctx, strings.TrimPrefix(path, "/files/"))
		return
	case path == "/sessions" || path == "/sessions/":
		s.listSessions(ctx)
		return
	}

	parts := strings.Split(strings.Trim(path, "/"), "/")
	switch {
	case len(parts) == 2 && parts[0] == "sessions":
		s.renderSession(ctx, parts[1])
	case len(parts) == 4 && parts[0] == "sessions" && parts[2] == "messages":
		s.renderMessage(ctx, parts[1], parts[3])
	case len(parts) == 5 && parts[0] == "sessions" && parts[2] == "messages" && parts[4] == "download":
		s.downloadMessage(ctx, parts[1], parts[3])
	default:
		writeJSONError(ctx, fasthttp.StatusNotFound, "not found")
	}
}

func (s *Server) listSessions(ctx *fasthttp.RequestCtx) {
	sessions, err := s.opts.Source.ListSessions()
	if err != nil {
		s.writeSourceError(ctx, err)
		return
	}
	if sessions == nil {
		sessions = []internal.SessionSummary{}
	}
	writeJSON(ctx, fasthttp.StatusOK, sessions)
}

func (s *Server) renderSession(ctx *fasthttp.RequestCtx, sessionID string) {
	session, err := s.opts.Source.LoadSession(sessionID)
	if err != nil {
		s.writeSourceError(ctx, err)
		return
	}

	views := make([]*internal.MessageView, 0, len(session.Messages))
	for _, msg := range session.Messages {
		view, err := s.render(ctx, msg)
		if err != nil {
			writeJSONError(ctx, fasthttp.StatusInternalServerError, err.Error())
			return
		}
		views = append(views, view)
	}
	s.writeViews(ctx, sessionID, views, true)
}

func (s *Server) renderMessage(ctx *fasthttp.RequestCtx, sessionID, messageID string) {
	msg, err := s.opts.Source.LoadMessage(sessionID, messageID)
	if err != nil {
		s.writeSourceError(ctx, err)
		return
	}
	view, err := s.render(ctx, msg)
	if err != nil {
		writeJSONError(ctx, fasthttp.StatusInternalServerError, err.Error())
		return
	}
	s.writeViews(ctx, sessionID, []*internal.MessageView{view}, false)
}

func (s *Server) downloadMessage(ctx *fasthttp.RequestCtx, sessionID, messageID string) {
	msg, err := s.opts.Source.LoadMessage(sessionID, messageID)
	if err != nil {
		s.writeSourceError(ctx, err)
		return
	}
	bar := internal.NewActionBar(msg)
	if bar == nil {
		writeJSONError(ctx, fasthttp.StatusNotFound, "message has no downloadable content")
		return
	}

	ctx.SetContentType(bar.MIMEType + "; charset=utf-8")
	ctx.Response.Header.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", bar.Filename))
	if _, err := bar.WriteTo(ctx); err != nil {
		internal.LogError("Failed to write download: %v", err)
	}
}

func (s *Server) serveFile(ctx *fasthttp.RequestCtx, key string) {
	if s.opts.Verifier == nil || s.opts.FilesDir == "" {
		writeJSONError(ctx, fasthttp.StatusNotFound, "file serving disabled")
		return
	}
	args := ctx.QueryArgs()
	err := s.opts.Verifier.Verify(key, string(args.Peek("expires")), string(args.Peek("signature")))
	switch {
	case errors.Is(err, internal.ErrInvalidKey):
		writeJSONError(ctx, fasthttp.StatusBadRequest, err.Error())
		return
	case err != nil:
		writeJSONError(ctx, fasthttp.StatusForbidden, err.Error())
		return
	}
	fasthttp.ServeFileUncompressed(ctx, filepath.Join(s.opts.FilesDir, filepath.FromSlash(key)))
}

func (s *Server) render(ctx *fasthttp.RequestCtx, msg *internal.ChatMessage) (*internal.MessageView, error) {
	var attachments internal.Attachments
	if s.opts.Signer != nil {
		// A failed block is still rendered, as an error placeholder
		attachments, _ = internal.NewAttachmentResolver(s.opts.Signer).Resolve(ctx, msg)
	}

	cfg := s.opts.Render
	return s.opts.Renderer.Render(internal.Props{
		Message:       msg,
		Configuration: &cfg,
		ShowMetadata:  ctx.QueryArgs().GetBool("show_metadata"),
	}, attachments)
}

func (s *Server) writeViews(ctx *fasthttp.RequestCtx, sessionID string, views []*internal.MessageView, document bool) {
	format := string(ctx.QueryArgs().Peek("format"))
	if format == "" {
		format = "html"
	}

	var exp export.Exporter
	if format == "html" {
		exp = &export.HTMLExporter{
			Document: document,
			DownloadURL: func(v *internal.MessageView) string {
				return fmt.Sprintf("/sessions/%s/messages/%s/download", sessionID, v.ID)
			},
		}
	} else {
		var err error
		if exp, err = export.NewExporter(format); err != nil {
			writeJSONError(ctx, fasthttp.StatusBadRequest, err.Error())
			return
		}
	}

	var buf bytes.Buffer
	if err := exp.Export(views, &buf); err != nil {
		writeJSONError(ctx, fasthttp.StatusInternalServerError, err.Error())
		return
	}
	ctx.SetContentType(contentTypes[exp.Extension()])
	ctx.SetBody(buf.Bytes())
}

var contentTypes = map[string]string{
	"html":  "text/html; charset=utf-8",
	"json":  "application/json",
	"jsonl": "application/x-ndjson",
	"yaml":  "application/yaml",
	"md":    "text/markdown; charset=utf-8",
	"txt":   "text/plain; charset=utf-8",
}

func (s *Server) writeSourceError(ctx *fasthttp.RequestCtx, err error) {
	if errors.Is(err, internal.ErrNotFound) {
		writeJSONError(ctx, fasthttp.StatusNotFound, err.Error())
		return
	}
	internal.LogError("History error: %v", err)
	writeJSONError(ctx, fasthttp.StatusInternalServerError, "history unavailable")
}

func writeJSON(ctx *fasthttp.RequestCtx, status int, v interface{}) {
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json")
	if err := json.NewEncoder(ctx).Encode(v); err != nil {
		internal.LogError("Failed to encode response: %v", err)
	}
}

func writeJSONError(ctx *fasthttp.RequestCtx, status int, msg string) {
	writeJSON(ctx, status, map[string]string{"error": msg})
}
