// Package web holds the embedded page templates and static assets.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"
)

const layoutFile = "templates/layout.html"

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed static
var staticFS embed.FS

// Pages is the set of parsed pages, each one joined with the shared layout.
type Pages struct {
	pages map[string]*template.Template
}

// Parse builds one template per page file. A page is addressed by its file
// name without extension, e.g. "list" or "rsvp_success".
func Parse() (*Pages, error) {
	const op = "web.Parse"

	files, err := fs.Glob(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	p := &Pages{pages: make(map[string]*template.Template, len(files))}
	for _, file := range files {
		if file == layoutFile {
			continue
		}

		name := strings.TrimSuffix(path.Base(file), ".html")
		t, err := template.New(name).ParseFS(templatesFS, layoutFile, file)
		if err != nil {
			return nil, fmt.Errorf("%s: %s: %w", op, name, err)
		}
		p.pages[name] = t
	}

	return p, nil
}

// MustParse panics if the embedded templates are broken.
func MustParse() *Pages {
	p, err := Parse()
	if err != nil {
		panic(err)
	}

	return p
}

// Render executes page into w. Output is buffered so a template error never
// leaves a half-written response.
func (p *Pages) Render(w io.Writer, page string, data any) error {
	const op = "web.Render"

	t, ok := p.pages[page]
	if !ok {
		return fmt.Errorf("%s: unknown page %q", op, page)
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("%s: %s: %w", op, page, err)
	}

	_, err := buf.WriteTo(w)
	return err
}

// Static returns the stylesheet tree rooted at static/.
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}

	return sub
}
