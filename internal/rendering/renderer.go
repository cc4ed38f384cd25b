package rendering

import (
	"embed"
	"fmt"
	"html/template"
	"sort"
	"strings"
)

//go:embed templates/*.html
var templateFS embed.FS

// Template IDs accepted by Render.
const (
	TemplateHome   = "home"
	TemplateHub    = "hub"
	TemplatePermit = "permit"
)

var pageTemplates = []string{TemplateHome, TemplateHub, TemplatePermit}

// Renderer renders pages by template ID. It is safe for reuse across pages.
type Renderer struct {
	pages map[string]*template.Template
}

// New parses the layout and every page template.
func New() (*Renderer, error) {
	base, err := template.New("base.html").Funcs(funcMap()).ParseFS(templateFS, "templates/base.html")
	if err != nil {
		return nil, &TemplateError{Template: "base", Message: "failed to parse layout", Cause: err}
	}

	r := &Renderer{pages: make(map[string]*template.Template, len(pageTemplates))}
	for _, id := range pageTemplates {
		clone, err := base.Clone()
		if err != nil {
			return nil, &TemplateError{Template: id, Message: "failed to clone layout", Cause: err}
		}
		page, err := clone.ParseFS(templateFS, "templates/"+id+".html")
		if err != nil {
			return nil, &TemplateError{Template: id, Message: "failed to parse template", Cause: err}
		}
		r.pages[id] = page
	}
	return r, nil
}

// Render executes the template identified by templateID with data.
func (r *Renderer) Render(templateID string, data any) (string, error) {
	tmpl, ok := r.pages[templateID]
	if !ok {
		return "", &TemplateError{Template: templateID, Message: "unknown template"}
	}

	var sb strings.Builder
	if err := tmpl.ExecuteTemplate(&sb, "base.html", data); err != nil {
		return "", &TemplateError{Template: templateID, Message: "failed to execute template", Cause: err}
	}
	return sb.String(), nil
}

// Templates lists the known template IDs.
func (r *Renderer) Templates() []string {
	ids := make([]string, 0, len(r.pages))
	for id := range r.pages {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func funcMap() template.FuncMap {
	return template.FuncMap{
		"yesno": func(b bool) string {
			if b {
				return "Yes"
			}
			return "No"
		},
		"splitList": SplitList,
		"plural": func(n int, singular, plural string) string {
			if n == 1 {
				return fmt.Sprintf("%d %s", n, singular)
			}
			return fmt.Sprintf("%d %s", n, plural)
		},
	}
}

// SplitList splits a document_requirements style cell on ";" or newlines.
func SplitList(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ';' || r == '\n' })
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
