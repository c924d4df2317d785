package internal

import (
	"bytes"
	"fmt"
	"html/template"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"
)

// CSS classes applied to rendered markdown
const (
	CodeBlockClass = "codeMarkdown"
	TableClass     = "markdownTable"
	TableCellClass = "markdownTableCell"
)

var (
	contentClassPattern = regexp.MustCompile(`^(codeMarkdown|markdownTable|markdownTableCell|language-[\w+#.-]+)$`)
	alignPattern        = regexp.MustCompile(`^(left|right|center)$`)
)

// ContentView is the presented body of an AI message
type ContentView struct {
	Busy bool          `json:"busy" yaml:"busy"`
	Text string        `json:"text,omitempty" yaml:"text,omitempty"`
	HTML template.HTML `json:"html,omitempty" yaml:"html,omitempty"`
}

// EffectiveText returns the content if present, otherwise the token values joined in order
func EffectiveText(msg *ChatMessage) string {
	if msg == nil {
		return ""
	}
	if len(msg.Content) > 0 {
		return msg.Content
	}
	var b strings.Builder
	for _, tok := range msg.Tokens {
		b.WriteString(tok.Value)
	}
	return b.String()
}

// ContentPresenter renders message markdown to sanitized HTML.
// It is safe for concurrent use.
type ContentPresenter struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

// NewContentPresenter creates a presenter with GFM tables and styled code blocks and tables
func NewContentPresenter() *ContentPresenter {
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(
			renderer.WithNodeRenderers(util.Prioritized(&styledRenderer{}, 100)),
		),
	)

	policy := bluemonday.UGCPolicy()
	policy.AllowAttrs("class").Matching(contentClassPattern).OnElements("pre", "code", "table", "th", "td")
	policy.AllowAttrs("align").Matching(alignPattern).OnElements("th", "td")

	return &ContentPresenter{md: md, policy: policy}
}

// Present builds the content view for the given effective text
func (p *ContentPresenter) Present(text string) (ContentView, error) {
	if len(text) == 0 {
		return ContentView{Busy: true}, nil
	}
	rendered, err := p.RenderHTML(text)
	if err != nil {
		return ContentView{}, err
	}
	return ContentView{Text: text, HTML: rendered}, nil
}

// RenderHTML converts markdown to sanitized HTML
func (p *ContentPresenter) RenderHTML(text string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := p.md.Convert([]byte(text), &buf); err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return template.HTML(p.policy.SanitizeBytes(buf.Bytes())), nil
}

// styledRenderer overrides code block and table output to carry the content classes
type styledRenderer struct{}

func (r *styledRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindCodeBlock, r.renderCodeBlock)
	reg.Register(ast.KindFencedCodeBlock, r.renderCodeBlock)
	reg.Register(east.KindTable, r.renderTable)
	reg.Register(east.KindTableHeader, r.renderTableHeader)
	reg.Register(east.KindTableRow, r.renderTableRow)
	reg.Register(east.KindTableCell, r.renderTableCell)
	reg.Register(ast.KindRawHTML, r.renderRawHTML)
	reg.Register(ast.KindHTMLBlock, r.renderHTMLBlock)
}

// Raw HTML is shown as literal text
func (r *styledRenderer) renderRawHTML(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkSkipChildren, nil
	}
	segments := node.(*ast.RawHTML).Segments
	for i := 0; i < segments.Len(); i++ {
		seg := segments.At(i)
		html.DefaultWriter.RawWrite(w, seg.Value(source))
	}
	return ast.WalkSkipChildren, nil
}

func (r *styledRenderer) renderHTMLBlock(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	block := node.(*ast.HTMLBlock)
	if !entering {
		_, _ = w.WriteString("</p>\n")
		return ast.WalkContinue, nil
	}
	_, _ = w.WriteString("<p>")
	lines := block.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		html.DefaultWriter.RawWrite(w, line.Value(source))
	}
	if block.HasClosure() {
		closure := block.ClosureLine
		html.DefaultWriter.RawWrite(w, closure.Value(source))
	}
	return ast.WalkContinue, nil
}

func (r *styledRenderer) renderCodeBlock(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		_, _ = w.WriteString("</code></pre>\n")
		return ast.WalkContinue, nil
	}

	_, _ = w.WriteString(`<pre class="` + CodeBlockClass + `"><code`)
	if fenced, ok := node.(*ast.FencedCodeBlock); ok {
		if lang := fenced.Language(source); lang != nil {
			_, _ = w.WriteString(` class="language-`)
			html.DefaultWriter.Write(w, lang)
			_ = w.WriteByte('"')
		}
	}
	_ = w.WriteByte('>')

	lines := node.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		html.DefaultWriter.RawWrite(w, line.Value(source))
	}
	return ast.WalkContinue, nil
}

func (r *styledRenderer) renderTable(w util.BufWriter, _ []byte, _ ast.Node, entering bool) (ast.WalkStatus, error) {
	if entering {
		_, _ = w.WriteString(`<table class="` + TableClass + `">` + "\n")
	} else {
		_, _ = w.WriteString("</table>\n")
	}
	return ast.WalkContinue, nil
}

func (r *styledRenderer) renderTableHeader(w util.BufWriter, _ []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if entering {
		_, _ = w.WriteString("<thead>\n<tr>\n")
		return ast.WalkContinue, nil
	}
	_, _ = w.WriteString("</tr>\n</thead>\n")
	if node.NextSibling() != nil {
		_, _ = w.WriteString("<tbody>\n")
	}
	return ast.WalkContinue, nil
}

func (r *styledRenderer) renderTableRow(w util.BufWriter, _ []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if entering {
		_, _ = w.WriteString("<tr>\n")
		return ast.WalkContinue, nil
	}
	_, _ = w.WriteString("</tr>\n")
	if node.Parent().LastChild() == node {
		_, _ = w.WriteString("</tbody>\n")
	}
	return ast.WalkContinue, nil
}

func (r *styledRenderer) renderTableCell(w util.BufWriter, _ []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	cell := node.(*east.TableCell)
	tag := "td"
	if node.Parent().Kind() == east.KindTableHeader {
		tag = "th"
	}

	if !entering {
		_, _ = fmt.Fprintf(w, "</%s>\n", tag)
		return ast.WalkContinue, nil
	}

	_, _ = fmt.Fprintf(w, `<%s class="%s"`, tag, TableCellClass)
	if cell.Alignment != east.AlignNone {
		_, _ = fmt.Fprintf(w, ` align="%s"`, cell.Alignment.String())
	}
	_ = w.WriteByte('>')
	return ast.WalkContinue, nil
}
