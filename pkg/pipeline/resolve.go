package pipeline

import (
	"path"
	"path/filepath"
	"strings"
)

// ResolveLayoutPath computes the on-disk template path for a layout
// reference. An empty layoutID falls back to defaultID. When the last path
// segment carries no extension, "." + extension is appended; an empty
// extension yields a literal trailing dot, preserved for callers that expect
// it. The result is joined under directory. Pure function: identical inputs
// always produce the identical string.
func ResolveLayoutPath(directory, layoutID, defaultID, extension string) string {
	id := layoutID
	if id == "" {
		id = defaultID
	}
	if id == "" {
		return ""
	}
	if !strings.Contains(path.Base(id), ".") {
		id += "." + extension
	}
	return filepath.Join(directory, id)
}
