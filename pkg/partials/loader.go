// Package partials discovers partial templates under a directory and exposes
// them as a name→path mapping renderers can consume.
package partials

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Extensions recognised when no explicit partial extension is configured.
var defaultExtensions = map[string]struct{}{
	".html": {},
	".tpl":  {},
	".tmpl": {},
}

// Load walks dir recursively and maps every partial template to its absolute
// path. A partial's logical name is its path relative to dir with the
// extension stripped and separators normalised to "/", so "nav/header.html"
// becomes "nav/header". extension restricts matches to one suffix; empty
// means the default set (.html, .tpl, .tmpl). An unreadable directory is an
// error; callers treat it as fatal to setup, not to an individual render.
func Load(dir, extension string) (map[string]string, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("partials: resolve %q: %w", dir, err)
	}
	if _, err := os.Stat(root); err != nil {
		return nil, fmt.Errorf("partials: read directory %q: %w", dir, err)
	}

	extension = normalizeExtension(extension)
	out := make(map[string]string)

	err = fs.WalkDir(os.DirFS(root), ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() {
			return nil
		}
		ext := filepath.Ext(path)
		if !matchesExtension(ext, extension) {
			return nil
		}

		name := strings.TrimSuffix(path, ext)
		out[filepath.ToSlash(name)] = filepath.Join(root, filepath.FromSlash(path))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("partials: scan %q: %w", dir, err)
	}

	return out, nil
}

func normalizeExtension(ext string) string {
	ext = strings.TrimSpace(ext)
	if ext == "" {
		return ""
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return strings.ToLower(ext)
}

func matchesExtension(got, want string) bool {
	got = strings.ToLower(got)
	if want != "" {
		return got == want
	}
	_, ok := defaultExtensions[got]
	return ok
}
