package pongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"
	gotemplatepkg "github.com/goliatone/go-template"
)

// EngineName is the registry key for this renderer.
const EngineName = "pongo2"

// Option configures the engine before construction.
type Option func(*config)

type config struct {
	baseDir    string
	filters    map[string]func(input any, param any) (any, error)
	globalData map[string]any
}

// WithBaseDir resolves relative template paths against dir. Absolute paths
// bypass it.
func WithBaseDir(dir string) Option {
	return func(cfg *config) {
		cfg.baseDir = strings.TrimSpace(dir)
	}
}

// WithFilter registers a template filter under name.
func WithFilter(name string, fn func(input any, param any) (any, error)) Option {
	return func(cfg *config) {
		if strings.TrimSpace(name) == "" || fn == nil {
			return
		}
		if cfg.filters == nil {
			cfg.filters = make(map[string]func(input any, param any) (any, error))
		}
		cfg.filters[strings.TrimSpace(name)] = fn
	}
}

// WithGlobalData seeds context values available to every template.
func WithGlobalData(data map[string]any) Option {
	return func(cfg *config) {
		if len(data) == 0 {
			return
		}
		if cfg.globalData == nil {
			cfg.globalData = make(map[string]any, len(data))
		}
		for key, value := range data {
			cfg.globalData[strings.TrimSpace(key)] = value
		}
	}
}

// WithGoTemplateOptions exists for callers migrating from the
// github.com/goliatone/go-template engine and is currently a no-op.
func WithGoTemplateOptions(_ ...gotemplatepkg.Option) Option {
	return func(*config) {}
}

// Engine renders pongo2 templates from disk, caching the compiled template
// per path. The first render of a path compiles it; concurrent renders of an
// already-compiled path share the cached instance.
type Engine struct {
	mu sync.RWMutex

	templateSet *pongo2.TemplateSet
	templates   map[string]*pongo2.Template
}

// New constructs an Engine using the provided configuration options.
func New(options ...Option) (*Engine, error) {
	cfg := &config{}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(cfg)
	}

	loader, err := pongo2.NewLocalFileSystemLoader(cfg.baseDir)
	if err != nil {
		return nil, fmt.Errorf("pongo: create local loader: %w", err)
	}

	engine := &Engine{
		templateSet: pongo2.NewSet("layouts", loader),
		templates:   make(map[string]*pongo2.Template),
	}

	if len(cfg.globalData) > 0 {
		engine.templateSet.Globals = pongo2.Context(cfg.globalData)
	}
	for name, fn := range cfg.filters {
		if err := registerFilter(name, fn); err != nil {
			return nil, fmt.Errorf("pongo: register filter %q: %w", name, err)
		}
	}

	return engine, nil
}

// Name implements engine.Renderer.
func (e *Engine) Name() string { return EngineName }

// Render loads (or reuses) the compiled template at templatePath and
// evaluates it against data.
func (e *Engine) Render(ctx context.Context, templatePath string, data map[string]any) (string, error) {
	if e == nil || e.templateSet == nil {
		return "", errors.New("pongo: engine is nil")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	tmpl, err := e.getTemplate(templatePath)
	if err != nil {
		return "", err
	}

	e.mu.RLock()
	out, err := tmpl.Execute(pongo2.Context(data))
	e.mu.RUnlock()

	if err != nil {
		return "", fmt.Errorf("pongo: execute template %q: %w", templatePath, err)
	}
	return out, nil
}

// CachedTemplates reports how many distinct template paths have been
// compiled so far.
func (e *Engine) CachedTemplates() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.templates)
}

func (e *Engine) getTemplate(path string) (*pongo2.Template, error) {
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

	tmpl, err := e.templateSet.FromFile(path)
	if err != nil {
		return nil, fmt.Errorf("pongo: load template %q: %w", path, err)
	}

	e.templates[path] = tmpl
	return tmpl, nil
}

func registerFilter(name string, fn func(input any, param any) (any, error)) error {
	filter := func(in *pongo2.Value, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
		var paramVal any
		if param != nil {
			paramVal = param.Interface()
		}
		result, err := fn(in.Interface(), paramVal)
		if err != nil {
			return nil, &pongo2.Error{Sender: "custom_filter", OrigError: err}
		}
		return pongo2.AsValue(result), nil
	}

	if pongo2.FilterExists(name) {
		return fmt.Errorf("filter already exists")
	}
	return pongo2.RegisterFilter(name, filter)
}
