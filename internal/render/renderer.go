package render

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"strings"
)

// Renderer executes the embedded page and fragment templates.
type Renderer struct {
	tmpl *template.Template
}

// Funcs are the helpers available inside templates.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"currency": Currency,
		"icon":     CategoryIcon,
		"title":    Title,
		"lower":    strings.ToLower,
		"add":      func(a, b int) int { return a + b },
	}
}

// New parses every templates/*.html file in fsys.
func New(fsys fs.FS) (*Renderer, error) {
	t, err := template.New("").Funcs(Funcs()).ParseFS(fsys, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Renderer{tmpl: t}, nil
}

// Page renders a full page such as "transactions" from transactions.html.
func (r *Renderer) Page(w io.Writer, page string, data any) error {
	return r.execute(w, page+".html", data)
}

// Fragment renders a named template defined inside one of the files.
func (r *Renderer) Fragment(w io.Writer, name string, data any) error {
	return r.execute(w, name, data)
}

// Has reports whether a template with the given name exists.
func (r *Renderer) Has(name string) bool {
	return r.tmpl.Lookup(name) != nil
}

func (r *Renderer) execute(w io.Writer, name string, data any) error {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	_, err := buf.WriteTo(w)
	return err
}
