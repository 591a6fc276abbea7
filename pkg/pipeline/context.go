package pipeline

import (
	"github.com/goliatone/go-layouts/pkg/files"
)

// buildContext layers the render data for one file: extra params under site
// metadata under the file's own fields, later layers winning key collisions.
// The result is a fresh map per call and extra params are deep-copied, so no
// two renders share mutable state.
func buildContext(extra, metadata map[string]any, f files.File) map[string]any {
	out := make(map[string]any, len(extra)+len(metadata)+len(f))

	for key, value := range extra {
		out[key] = deepValue(value)
	}
	for key, value := range metadata {
		out[key] = value
	}
	for key, value := range f {
		out[key] = value
	}

	return out
}

// deepValue copies the container shapes that travel through extra params so
// a template mutating its context cannot leak into sibling renders.
func deepValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[key] = deepValue(item)
		}
		return out
	case map[string]string:
		out := make(map[string]string, len(v))
		for key, item := range v {
			out[key] = item
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = deepValue(item)
		}
		return out
	case []string:
		out := make([]string, len(v))
		copy(out, v)
		return out
	default:
		return v
	}
}
