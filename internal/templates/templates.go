// Package templates renders the plain-text pages shown in the browser tab after the OAuth2 redirect
package templates

import (
	"bytes"
	"embed"
	"fmt"
	"io"
	"text/template"
)

//go:embed text/*.txt
var content embed.FS

// DefaultSuccessMessage is shown when the code was captured
const DefaultSuccessMessage = "Go back to your terminal :)"

// TemplateError wraps a parse or execution failure
type TemplateError struct {
	Message string
	Cause   error
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("template error: %s: %v", e.Message, e.Cause)
}

func (e *TemplateError) Unwrap() error { return e.Cause }

// Pages manages the confirmation page templates
type Pages struct {
	success *template.Template
	failure *template.Template
}

// LoadPages loads and parses all page templates
func LoadPages() (*Pages, error) {
	p := &Pages{}
	var err error

	if p.success, err = template.ParseFS(content, "text/success.txt", "text/layout.txt"); err != nil {
		return nil, &TemplateError{Message: "parsing success page", Cause: err}
	}

	if p.failure, err = template.ParseFS(content, "text/failure.txt", "text/layout.txt"); err != nil {
		return nil, &TemplateError{Message: "parsing failure page", Cause: err}
	}

	return p, nil
}

// SuccessData holds data for the success page
type SuccessData struct {
	Message string
}

// RenderSuccess renders the success page
func (p *Pages) RenderSuccess(w io.Writer, data SuccessData) error {
	if data.Message == "" {
		data.Message = DefaultSuccessMessage
	}
	return execute(w, p.success, data)
}

// FailureData holds data for the failure page
type FailureData struct {
	Title   string
	Message string
	Detail  string
}

// RenderFailure renders the failure page
func (p *Pages) RenderFailure(w io.Writer, data FailureData) error {
	return execute(w, p.failure, data)
}

// RenderToBytes renders into a buffer so callers can compute Content-Length
func RenderToBytes(render func(io.Writer) error) ([]byte, error) {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func execute(w io.Writer, tmpl *template.Template, data any) error {
	if err := tmpl.ExecuteTemplate(w, "layout", data); err != nil {
		return &TemplateError{Message: "executing " + tmpl.Name(), Cause: err}
	}
	return nil
}
