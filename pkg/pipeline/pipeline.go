package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-layouts/pkg/engine"
	"github.com/goliatone/go-layouts/pkg/files"
	"github.com/goliatone/go-layouts/pkg/partials"
)

// Option customises the pipeline beyond its settings.
type Option func(*Pipeline)

// WithLogger injects the logger used for per-run progress. Defaults to
// slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// Pipeline applies layout templates to a file collection in two concurrent
// phases: one render per distinct resolved template path first (warming the
// engine's compiled-template cache), then the remaining files sharing those
// templates. Build it once per run; it is safe for a single Apply at a time.
type Pipeline struct {
	settings Settings
	renderer engine.Renderer
	logger   *slog.Logger
	extra    map[string]any
}

// New resolves the configured engine from the registry, loads partials, and
// validates settings. All configuration errors surface here, before any file
// is touched.
func New(registry *engine.Registry, settings Settings, options ...Option) (*Pipeline, error) {
	if registry == nil {
		return nil, errors.New("pipeline: engine registry is required")
	}
	if err := settings.normalize(); err != nil {
		return nil, err
	}

	renderer, err := registry.Get(settings.Engine)
	if err != nil {
		return nil, fmt.Errorf("pipeline: unsupported engine %q: %w", settings.Engine, err)
	}

	p := &Pipeline{
		settings: settings,
		renderer: renderer,
		logger:   slog.Default(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(p)
	}

	named := settings.Partials
	if settings.PartialsDir != "" {
		named, err = partials.Load(settings.PartialsDir, settings.PartialExtension)
		if err != nil {
			return nil, fmt.Errorf("pipeline: load partials: %w", err)
		}
	}

	p.extra = make(map[string]any, len(settings.Extra)+1)
	for key, value := range settings.Extra {
		p.extra[key] = value
	}
	if len(named) > 0 {
		p.extra["partials"] = named
		if aware, ok := renderer.(engine.PartialAware); ok {
			if err := aware.RegisterPartials(named); err != nil {
				return nil, fmt.Errorf("pipeline: register partials: %w", err)
			}
		}
	}

	return p, nil
}

// Apply runs the two-phase render over the collection. Phase 1 renders every
// seed file and is a hard barrier: any failure aborts the run before a
// single follower renders. Phase 2 renders the followers and surfaces the
// first error; renders already committed stay committed.
func (p *Pipeline) Apply(ctx context.Context, collection *files.Collection, metadata map[string]any) error {
	if collection == nil {
		return errors.New("pipeline: file collection is required")
	}

	sel := p.selectFiles(collection)
	p.logger.Debug("selected files for layouts",
		"templates", len(sel.seeds), "followers", len(sel.followers))

	if err := p.runAll(ctx, collection, metadata, sel.seedKeys()); err != nil {
		return fmt.Errorf("pipeline: warm layout templates: %w", err)
	}
	if err := p.runAll(ctx, collection, metadata, sel.followerKeys()); err != nil {
		return err
	}

	p.logger.Debug("layouts applied",
		"files", len(sel.seeds)+len(sel.followers), "engine", p.renderer.Name())
	return nil
}

// runAll renders each key with the configured concurrency cap. The first
// failure cancels the group context so pending work bails out early;
// in-flight renders run to completion and only the first error is surfaced.
func (p *Pipeline) runAll(ctx context.Context, collection *files.Collection, metadata map[string]any, keys []string) error {
	if len(keys) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.settings.Concurrency)

	for _, key := range keys {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return p.renderFile(gctx, collection, metadata, key)
		})
	}

	return g.Wait()
}

// renderFile builds the context for one file, renders it through the engine,
// and commits the result. Rename happens only after a successful render so a
// failed render never drops the file from the collection.
func (p *Pipeline) renderFile(ctx context.Context, collection *files.Collection, metadata map[string]any, key string) error {
	f, ok := collection.Get(key)
	if !ok {
		return nil
	}

	s := p.settings
	layout, _ := f.StringField(s.LayoutKey)
	templatePath := ResolveLayoutPath(s.Directory, layout, s.Default, s.LayoutExtension)

	data := buildContext(p.extra, metadata, f)

	out, err := p.renderer.Render(ctx, templatePath, data)
	if err != nil {
		if layout == "" {
			layout = s.Default
		}
		return &RenderError{File: key, Layout: layout, Err: err}
	}

	f.SetContents(out)
	if s.Rename {
		collection.Rename(key, files.WithExtension(key, DefaultOutputExtension))
	}

	p.logger.Debug("rendered file", "file", key, "template", templatePath)
	return nil
}
