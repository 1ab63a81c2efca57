// Package render turns style preferences into the script injected into the
// chat page. Rendering happens in two explicit stages: the style sheet is
// rendered first, then embedded as a string literal into the injection
// script. The js escaper in css_injection.js.tmpl is the only place the
// sheet is escaped.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"text/template"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Template names.
const (
	StyleTemplate  = "chat_style.css.tmpl"
	ScriptTemplate = "css_injection.js.tmpl"
)

// StyleInputs are the derived values the style sheet is rendered from.
type StyleInputs struct {
	AuthorFontImportURL  string
	MessageFontImportURL string
	BackgroundColor      string
	MessageFontFamily    string
	AuthorColor          string
	AuthorFontFamily     string
	MessageColor         string
}

type scriptInputs struct {
	CSS string
}

// TemplateError is returned when a template cannot be parsed or executed.
type TemplateError struct {
	Template string
	Err      error
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("template %s: %v", e.Template, e.Err)
}

func (e *TemplateError) Unwrap() error { return e.Err }

// Renderer holds the parsed style and script templates. It is safe for
// concurrent use.
type Renderer struct {
	style  *template.Template
	script *template.Template
}

// New parses the embedded templates.
func New() (*Renderer, error) {
	style, err := parse(StyleTemplate)
	if err != nil {
		return nil, err
	}
	script, err := parse(ScriptTemplate)
	if err != nil {
		return nil, err
	}
	return &Renderer{style: style, script: script}, nil
}

// NewFromStrings builds a Renderer from raw template text.
func NewFromStrings(style, script string) (*Renderer, error) {
	st, err := template.New(StyleTemplate).Option("missingkey=error").Parse(style)
	if err != nil {
		return nil, &TemplateError{Template: StyleTemplate, Err: err}
	}
	sc, err := template.New(ScriptTemplate).Option("missingkey=error").Parse(script)
	if err != nil {
		return nil, &TemplateError{Template: ScriptTemplate, Err: err}
	}
	return &Renderer{style: st, script: sc}, nil
}

func parse(name string) (*template.Template, error) {
	t, err := template.New(name).Option("missingkey=error").ParseFS(templateFS, "templates/"+name)
	if err != nil {
		return nil, &TemplateError{Template: name, Err: err}
	}
	return t, nil
}

// Stylesheet renders the style sheet for in.
func (r *Renderer) Stylesheet(in StyleInputs) (string, error) {
	return execute(r.style, in)
}

// Script wraps an already rendered style sheet in the injection script.
func (r *Renderer) Script(css string) (string, error) {
	return execute(r.script, scriptInputs{CSS: css})
}

// Render runs both stages and returns the injection script.
func (r *Renderer) Render(in StyleInputs) (string, error) {
	css, err := r.Stylesheet(in)
	if err != nil {
		return "", err
	}
	return r.Script(css)
}

func execute(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", &TemplateError{Template: t.Name(), Err: err}
	}
	return buf.String(), nil
}
