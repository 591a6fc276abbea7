// Package layouts applies named layout templates to an in-memory collection
// of files. It selects which files need a layout, warms one template per
// distinct resolved layout path, then renders the remaining files sharing
// those templates under bounded concurrency.
package layouts

import (
	"context"

	"github.com/goliatone/go-layouts/pkg/engine"
	"github.com/goliatone/go-layouts/pkg/engine/gotmpl"
	"github.com/goliatone/go-layouts/pkg/engine/pongo"
	"github.com/goliatone/go-layouts/pkg/files"
	"github.com/goliatone/go-layouts/pkg/pipeline"
)

// Settings is the per-run configuration. See pipeline.Settings for the
// field-by-field documentation.
type Settings = pipeline.Settings

// RenderError attributes a failed render to a file and layout.
type RenderError = pipeline.RenderError

// File is a mutable bag of fields describing one document.
type File = files.File

// Option customises the pipeline beyond its settings.
type Option = pipeline.Option

// ErrEngineRequired is returned when settings omit the engine name.
var ErrEngineRequired = pipeline.ErrEngineRequired

// WithLogger injects the logger used for per-run progress.
var WithLogger = pipeline.WithLogger

// ParseSettings builds Settings from a raw option map; unrecognized keys
// become extra render params forwarded into every render context.
func ParseSettings(raw map[string]any) (Settings, error) {
	return pipeline.ParseSettings(raw)
}

// New constructs a pipeline bound to an engine from the registry. All
// configuration errors (missing or unknown engine, bad pattern, unreadable
// partials directory) surface here, before any file is touched.
func New(registry *engine.Registry, settings Settings, options ...Option) (*pipeline.Pipeline, error) {
	return pipeline.New(registry, settings, options...)
}

// DefaultRegistry returns a registry with the built-in engines registered:
// pongo2 and gotemplate.
func DefaultRegistry() (*engine.Registry, error) {
	registry := engine.NewRegistry()

	pongoEngine, err := pongo.New()
	if err != nil {
		return nil, err
	}
	if err := registry.Register(pongoEngine); err != nil {
		return nil, err
	}
	if err := registry.Register(gotmpl.New()); err != nil {
		return nil, err
	}

	return registry, nil
}

// Apply runs the two-phase render over a plain file map using the built-in
// engines. It is the simplest entry point for callers that do not need a
// custom registry; the map is mutated in place.
func Apply(ctx context.Context, fileMap map[string]File, metadata map[string]any, settings Settings, options ...Option) error {
	registry, err := DefaultRegistry()
	if err != nil {
		return err
	}
	p, err := New(registry, settings, options...)
	if err != nil {
		return err
	}
	return p.Apply(ctx, files.NewCollection(fileMap), metadata)
}
