// Package html renders a conversation as a standalone HTML page, with
// message content treated as markdown and syntax highlighting via
// goldmark + chroma.
package html

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	highlighting "github.com/yuin/goldmark-highlighting/v2"

	"github.com/sonnes/samvad/core"
)

//go:embed templates/*.html
var content embed.FS

// Renderer renders messages to a standalone HTML page.
type Renderer struct {
	md   goldmark.Markdown
	tmpl *template.Template

	// Title overrides the page title. Empty means "samvad".
	Title string
}

// New creates an HTML Renderer with goldmark configured for GFM and
// syntax highlighting.
func New() *Renderer {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			highlighting.NewHighlighting(
				highlighting.WithStyle("dracula"),
				highlighting.WithFormatOptions(
					chromahtml.WithClasses(false), // inline styles for standalone pages
				),
			),
		),
		goldmark.WithRendererOptions(
			gmhtml.WithUnsafe(), // allow raw HTML in markdown
		),
	)

	tmpl := template.Must(template.New("page.html").ParseFS(content, "templates/*.html"))
	return &Renderer{md: md, tmpl: tmpl}
}

type pageData struct {
	Title    string
	Messages []messageData
}

type messageData struct {
	Role core.Role
	Body template.HTML
}

// Render writes the conversation as a standalone HTML document.
func (r *Renderer) Render(w io.Writer, messages []core.Message) error {
	data := pageData{
		Title:    r.title(),
		Messages: make([]messageData, 0, len(messages)),
	}
	for _, msg := range messages {
		body, err := r.markdown(msg.Content)
		if err != nil {
			return fmt.Errorf("render message: %w", err)
		}
		data.Messages = append(data.Messages, messageData{Role: msg.Role, Body: body})
	}
	return r.tmpl.Execute(w, data)
}

func (r *Renderer) markdown(src string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

func (r *Renderer) title() string {
	if r.Title != "" {
		return r.Title
	}
	return "samvad"
}
