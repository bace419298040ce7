package view

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"sync"
	"time"

	"github.com/durabrake/findash/internal/analytics/ui"
	"github.com/durabrake/findash/internal/shared"
	"github.com/durabrake/findash/web"
)

var errNoEngine = errors.New("view: engine not initialised")

var bufPool = sync.Pool{New: func() any { return new(bytes.Buffer) }}

// Engine renders the embedded HTML templates.
type Engine struct {
	templates *template.Template
}

// TemplateData is the envelope every page template receives.
type TemplateData struct {
	Title       string
	CSRFToken   string
	Flash       *shared.FlashMessage
	CurrentPath string
	User        string
	Data        any
}

// NewEngine parses layouts, partials and pages from web.Templates.
func NewEngine() (*Engine, error) {
	funcs := ui.FuncMap()
	funcs["formatDate"] = formatDate
	tpl, err := template.New("root").Funcs(funcs).ParseFS(web.Templates,
		"templates/layouts/*.html",
		"templates/partials/*.html",
		"templates/pages/*.html",
	)
	if err != nil {
		return nil, fmt.Errorf("view: parse templates: %w", err)
	}
	return &Engine{templates: tpl}, nil
}

// Render executes name with a 200 status.
func (e *Engine) Render(w http.ResponseWriter, name string, data TemplateData) error {
	return e.RenderStatus(w, http.StatusOK, name, data)
}

// RenderStatus executes name into a buffer first so a failing template never
// leaves a half-written page on the wire. Nothing is written on error.
func (e *Engine) RenderStatus(w http.ResponseWriter, status int, name string, data TemplateData) error {
	if e == nil || e.templates == nil {
		return errNoEngine
	}
	buf := bufPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer bufPool.Put(buf)

	if err := e.templates.ExecuteTemplate(buf, name, data); err != nil {
		return fmt.Errorf("view: render %s: %w", name, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2 Jan 2006 15:04 MST")
}
