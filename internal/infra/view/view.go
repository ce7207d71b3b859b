// Package view renders the server-side HTML pages.
package view

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"
	"time"
)

// ErrUnknownTemplate is returned when rendering a template that was not loaded.
var ErrUnknownTemplate = errors.New("unknown template")

// Page names known to the renderer.
const (
	PageIndex    = "index"
	PageUpdate   = "update"
	PageLogin    = "login"
	PageRegister = "register"
)

// Data is the named bag of values passed to a template.
type Data map[string]any

// Renderer turns a template name and its values into HTML.
type Renderer interface {
	Render(w io.Writer, name string, data Data) error
}

//go:embed templates/*.html
var templateFS embed.FS

const layoutFile = "templates/layout.html"

// HTMLRenderer implements Renderer with html/template. Each page is parsed
// together with the shared layout.
type HTMLRenderer struct {
	pages map[string]*template.Template
}

var _ Renderer = (*HTMLRenderer)(nil)

//nolint:gochecknoglobals
var funcs = template.FuncMap{
	"datetime": func(t time.Time) string {
		return t.UTC().Format("2006-01-02 15:04 UTC")
	},
}

// NewHTMLRenderer parses the embedded templates.
func NewHTMLRenderer() (*HTMLRenderer, error) {
	files, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("glob templates: %w", err)
	}

	pages := make(map[string]*template.Template, len(files))

	for _, file := range files {
		if file == layoutFile {
			continue
		}

		name := strings.TrimSuffix(path.Base(file), ".html")

		tmpl, err := template.New(name).Funcs(funcs).ParseFS(templateFS, layoutFile, file)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}

		pages[name] = tmpl
	}

	return &HTMLRenderer{pages: pages}, nil
}

// Render implements Renderer. Output is buffered so a failing template never
// produces a partial page.
func (r *HTMLRenderer) Render(w io.Writer, name string, data Data) error {
	tmpl, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTemplate, name)
	}

	var buf bytes.Buffer

	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("execute template %s: %w", name, err)
	}

	if _, err := buf.WriteTo(w); err != nil {
		return fmt.Errorf("write page: %w", err)
	}

	return nil
}
