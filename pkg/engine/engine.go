package engine

import "context"

// Renderer evaluates a template file against a data context and returns the
// rendered text. Implementations own template loading and compiled-template
// caching keyed by path, so rendering the same path twice parses it once.
// Renderers must be safe for concurrent use.
type Renderer interface {
	Name() string
	Render(ctx context.Context, templatePath string, data map[string]any) (string, error)
}

// PartialAware is implemented by renderers that want the loaded partials
// registered on the engine itself, in addition to receiving them as the
// "partials" render param.
type PartialAware interface {
	RegisterPartials(partials map[string]string) error
}
