package gotmpl

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"sync"
)

// EngineName is the registry key for this renderer.
const EngineName = "gotemplate"

// Option configures the engine before construction.
type Option func(*Engine)

// WithFuncs merges fns into the function map available to layouts and
// partials.
func WithFuncs(fns template.FuncMap) Option {
	return func(e *Engine) {
		for name, fn := range fns {
			e.funcs[name] = fn
		}
	}
}

// Engine renders html/template layouts from disk. Partials registered up
// front become named associated templates, so layouts can reference them via
// {{template "name" .}}. Parsed layouts are cached per path; Execute on a
// parsed template is concurrent-safe, so cached entries are shared across
// render workers.
type Engine struct {
	mu        sync.RWMutex
	funcs     template.FuncMap
	base      *template.Template
	templates map[string]*template.Template
}

// New constructs an Engine using the provided configuration options.
func New(options ...Option) *Engine {
	e := &Engine{
		funcs:     template.FuncMap{},
		templates: make(map[string]*template.Template),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(e)
	}
	e.base = template.New("").Funcs(e.funcs)
	return e
}

// Name implements engine.Renderer.
func (e *Engine) Name() string { return EngineName }

// RegisterPartials parses each named partial file into the base template
// set. Must be called before the first render; cached layouts do not pick up
// partials added later.
func (e *Engine) RegisterPartials(partials map[string]string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.templates) > 0 {
		return errors.New("gotmpl: partials must be registered before rendering")
	}

	for name, path := range partials {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("gotmpl: read partial %q: %w", name, err)
		}
		if _, err := e.base.New(name).Parse(string(data)); err != nil {
			return fmt.Errorf("gotmpl: parse partial %q: %w", name, err)
		}
	}
	return nil
}

// Render loads (or reuses) the parsed layout at templatePath and executes it
// against data.
func (e *Engine) Render(ctx context.Context, templatePath string, data map[string]any) (string, error) {
	if e == nil {
		return "", errors.New("gotmpl: engine is nil")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	tmpl, err := e.getTemplate(templatePath)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, filepath.Base(templatePath), data); err != nil {
		return "", fmt.Errorf("gotmpl: execute template %q: %w", templatePath, err)
	}
	return buf.String(), nil
}

// CachedTemplates reports how many distinct layout paths have been parsed so
// far.
func (e *Engine) CachedTemplates() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.templates)
}

func (e *Engine) getTemplate(path string) (*template.Template, error) {
	e.mu.RLock()
	if tmpl, ok := e.templates[path]; ok {
		e.mu.RUnlock()
		return tmpl, nil
	}
	e.mu.RUnlock()

	e.mu.Lock()
	defer e.mu.Unlock()

	if tmpl, ok := e.templates[path]; ok {
		return tmpl, nil
	}

	set, err := e.base.Clone()
	if err != nil {
		return nil, fmt.Errorf("gotmpl: clone template set: %w", err)
	}
	tmpl, err := set.ParseFiles(path)
	if err != nil {
		return nil, fmt.Errorf("gotmpl: load template %q: %w", path, err)
	}

	e.templates[path] = tmpl
	return tmpl, nil
}
