package export

import (
	"html/template"
	"io"
	"net/url"

	"github.com/iksnae/chat-message/internal"
)

const htmlTemplates = `
{{define "page"}}<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Chat</title>
<style>
.codeMarkdown{font-family:monospace;background:#f4f4f4;padding:8px;overflow-x:auto}
.markdownTable{border-collapse:collapse}
.markdownTableCell{border:1px solid #ccc;padding:4px 8px}
.img_chabot_message{max-width:200px;max-height:200px}
.spinner::after{content:"…"}
</style>
</head>
<body>
{{range .}}{{template "message" .}}{{end}}</body>
</html>
{{end}}

{{define "message"}}<div class="chat-message chat-message-{{.View.Type}}"{{with .View.ID}} data-message-id="{{.}}"{{end}}>
{{- if .View.IsHuman}}
<div class="text-content"><strong>{{.View.Text}}</strong></div>
{{- else}}
<div class="container">
{{- if .View.Content.Busy}}
<div class="box"><span class="spinner" role="status" aria-busy="true"></span></div>
{{- end}}
{{- with .View.Actions}}
<div class="btn_chabot_message_actions">
<div class="btn_chabot_message_copy"><button type="button" data-action="copy" data-clipboard-text="{{.Content}}" title="Copy">copy</button><span class="popover" role="status" hidden>` + internal.CopiedMessage + `</span></div>
<div class="btn_chabot_message_download"><a data-action="download" download="{{.Filename}}" href="{{$.DownloadHref}}" title="Download">download</a></div>
</div>
{{- end}}
{{- if not .View.Content.Busy}}
<div class="markdown">{{.View.Content.HTML}}</div>
{{- end}}
{{- with .View.Citations}}
<div class="container-footer"><details class="button-dropdown"><summary>{{.Label}}</summary><ul>
{{- range .Items}}
<li><a id="{{.ID}}" href="{{.Href}}" target="_blank" rel="noreferrer" aria-label="{{.Text}} {{.ExternalIconAriaLabel}}">{{.Text}}</a></li>
{{- end}}
</ul></details></div>
{{- end}}
</div>
{{- with .View.Attachments}}
{{- if .Loading}}
<div class="box float-left"><span class="spinner" role="status" aria-busy="true"></span></div>
{{- else if eq .State.String "failed"}}
<div class="attachments-error" role="alert">Attachments unavailable</div>
{{- else}}
{{- range .Files}}
<a href="{{.URL}}" target="_blank" rel="noreferrer" style="margin-left: 5px; margin-right: 5px"><img src="{{.URL}}" class="img_chabot_message" alt="{{.DisplayName}}"></a>
{{- end}}
{{- end}}
{{- end}}
{{- end}}
</div>
{{end}}`

var htmlTmpl = template.Must(template.New("chat").Parse(htmlTemplates))

// HTMLExporter exports views as HTML fragments, or a full page when Document is set
type HTMLExporter struct {
	Document bool
	// DownloadURL returns the href of the download action. The default is a
	// data: URL carrying the raw message content.
	DownloadURL func(view *internal.MessageView) string
}

type htmlMessage struct {
	View         *internal.MessageView
	DownloadHref template.URL
}

// Export writes views to w
func (e *HTMLExporter) Export(views []*internal.MessageView, w io.Writer) error {
	data := make([]htmlMessage, 0, len(views))
	for _, view := range views {
		data = append(data, htmlMessage{View: view, DownloadHref: e.downloadHref(view)})
	}

	if e.Document {
		return htmlTmpl.ExecuteTemplate(w, "page", data)
	}
	for _, m := range data {
		if err := htmlTmpl.ExecuteTemplate(w, "message", m); err != nil {
			return err
		}
	}
	return nil
}

func (e *HTMLExporter) downloadHref(view *internal.MessageView) template.URL {
	if view.Actions == nil {
		return ""
	}
	if e.DownloadURL != nil {
		return template.URL(e.DownloadURL(view))
	}
	return template.URL("data:" + internal.DownloadMIMEType + ";charset=utf-8," + url.PathEscape(view.Actions.Content()))
}

// Extension returns the file extension for this format
func (e *HTMLExporter) Extension() string {
	return "html"
}
