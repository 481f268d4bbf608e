// Package web holds the embedded HTML templates for the server-rendered pages.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"io"
)

//go:embed templates/*.html
var content embed.FS

// Pages renders the embedded templates.
type Pages struct {
	templates *template.Template
}

// Load parses the embedded templates once at startup.
func Load() (*Pages, error) {
	t, err := template.ParseFS(content, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing embedded templates: %w", err)
	}
	return &Pages{templates: t}, nil
}

// Render executes the named template with the given data.
func (p *Pages) Render(w io.Writer, name string, data any) error {
	if err := p.templates.ExecuteTemplate(w, name, data); err != nil {
		return fmt.Errorf("rendering %s: %w", name, err)
	}
	return nil
}
