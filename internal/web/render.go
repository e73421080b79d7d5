package web

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// renderer handles template rendering.
type renderer struct {
	baseTemplate *template.Template // Base template with layout and components
	templatesFS  fs.FS              // Embedded filesystem for page templates
}

func newRenderer(templatesFS fs.FS) (*renderer, error) {
	base, err := template.New("").
		Funcs(templateFuncs()).
		ParseFS(templatesFS, "templates/base.html", "templates/components.html")
	if err != nil {
		return nil, fmt.Errorf("parse base templates: %w", err)
	}
	return &renderer{baseTemplate: base, templatesFS: templatesFS}, nil
}

// PageData contains common data for all pages.
type PageData struct {
	Title       string
	CurrentPath string
	Popup       string
	Data        any
}

// render clones the base template and parses the page into the clone, so
// every page can define its own "content" block.
func (r *renderer) render(w http.ResponseWriter, req *http.Request, status int, name string, page PageData) error {
	page.CurrentPath = req.URL.Path

	tmpl, err := r.baseTemplate.Clone()
	if err != nil {
		return fmt.Errorf("clone template: %w", err)
	}

	pageTemplatePath := "templates/" + name
	if _, err := tmpl.ParseFS(r.templatesFS, pageTemplatePath); err != nil {
		return fmt.Errorf("parse page template %s: %w", pageTemplatePath, err)
	}

	// Render into a buffer so a template error can still become a 500.
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base", page); err != nil {
		return fmt.Errorf("execute page template %s: %w", pageTemplatePath, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err = buf.WriteTo(w)
	return err
}

var (
	md = goldmark.New(goldmark.WithExtensions(extension.GFM))

	// narratives come from the remote API, so rendered HTML is sanitized
	policy = bluemonday.UGCPolicy()
)

// renderMarkdown converts markdown to sanitized HTML.
func renderMarkdown(src string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return template.HTML(policy.SanitizeBytes(buf.Bytes())), nil
}

// Template helper functions

func markdown(s string) template.HTML {
	out, err := renderMarkdown(s)
	if err != nil {
		return template.HTML(template.HTMLEscapeString(s))
	}
	return out
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("Jan 2, 2006 15:04")
}

func add(a, b int) int {
	return a + b
}

func join(items []string) string {
	return strings.Join(items, ", ")
}

func defaultVal(val, def string) string {
	if strings.TrimSpace(val) == "" {
		return def
	}
	return val
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"markdown":   markdown,
		"formatTime": formatTime,
		"add":        add,
		"join":       join,
		"default":    defaultVal,
	}
}
