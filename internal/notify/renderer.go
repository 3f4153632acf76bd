package notify

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

// Renderer renders messages as plain text from templates.
type Renderer struct {
	templates map[string]*template.Template
}

// NewRenderer creates a new renderer and loads all templates.
func NewRenderer() (*Renderer, error) {
	funcMap := template.FuncMap{
		"dayLine":    DayLine,
		"dayExtras":  DayExtras,
		"alertTitle": AlertTitle,
		"alertBody":  AlertBody,
	}

	r := &Renderer{templates: make(map[string]*template.Template)}

	kinds := []string{KindForecastDaily, KindForecastWeekly, KindAlerts}
	for _, kind := range kinds {
		filename := fmt.Sprintf("templates/%s.tmpl", kind)

		content, err := templatesFS.ReadFile(filename)
		if err != nil {
			return nil, fmt.Errorf("read template %s: %w", filename, err)
		}

		tmpl, err := template.New(kind).Funcs(funcMap).Parse(string(content))
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", kind, err)
		}

		r.templates[kind] = tmpl
	}

	return r, nil
}

// Render renders a message to plain text.
func (r *Renderer) Render(msg Message) (string, error) {
	tmpl, ok := r.templates[msg.Kind()]
	if !ok {
		return "", fmt.Errorf("template not found: %s", msg.Kind())
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, msg); err != nil {
		return "", fmt.Errorf("execute template %s: %w", msg.Kind(), err)
	}

	return strings.TrimSpace(buf.String()), nil
}
