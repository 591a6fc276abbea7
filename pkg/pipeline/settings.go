package pipeline

import (
	"fmt"
	"path"
	"strings"
)

// Defaults applied when settings leave the corresponding field empty.
const (
	DefaultDirectory       = "layouts"
	DefaultLayoutKey       = "layout"
	DefaultLayoutExtension = "html"
	DefaultOutputExtension = ".html"
	DefaultConcurrency     = 8
)

// Settings is the immutable per-run configuration.
type Settings struct {
	// Engine names the renderer to resolve from the registry. Required.
	Engine string
	// Directory is the template root layouts are resolved under.
	Directory string
	// Default is the fallback layout id for files without an explicit one.
	Default string
	// Pattern filters files by key (path.Match glob, tried against the full
	// key and its base name). Files with an explicit layout bypass it.
	Pattern string
	// Rename swaps the output key's extension for ".html" after a
	// successful render.
	Rename bool
	// LayoutKey names the file field carrying the layout reference.
	LayoutKey string
	// PartialsDir points at a directory of partial templates to load at
	// setup. Mutually exclusive with Partials.
	PartialsDir string
	// Partials is a pre-built name→path mapping, passed through untouched.
	Partials map[string]string
	// PartialExtension restricts which files in PartialsDir become
	// partials. Empty means the loader's default set.
	PartialExtension string
	// LayoutExtension is appended to layout ids that lack one.
	LayoutExtension string
	// Concurrency caps in-flight renders per phase.
	Concurrency int
	// Extra params are forwarded verbatim into every render context, below
	// metadata and file fields in precedence.
	Extra map[string]any

	layoutExtensionSet bool
}

// Recognized raw-settings keys. Anything else in a raw map becomes an extra
// render param.
var knownSettingKeys = map[string]struct{}{
	"engine":           {},
	"directory":        {},
	"default":          {},
	"pattern":          {},
	"rename":           {},
	"layoutKey":        {},
	"partials":         {},
	"partialExtension": {},
	"layoutExtension":  {},
	"concurrency":      {},
}

// ParseSettings builds Settings from a raw option map, splitting recognized
// option keys from the extra-params bag. The split is a structural diff
// against the fixed key set above, so new fields in the raw map flow into
// render contexts instead of being dropped.
func ParseSettings(raw map[string]any) (Settings, error) {
	var s Settings

	for key, value := range raw {
		if _, known := knownSettingKeys[key]; !known {
			if s.Extra == nil {
				s.Extra = make(map[string]any)
			}
			s.Extra[key] = value
			continue
		}

		switch key {
		case "engine":
			str, err := stringSetting(key, value)
			if err != nil {
				return Settings{}, err
			}
			s.Engine = str
		case "directory":
			str, err := stringSetting(key, value)
			if err != nil {
				return Settings{}, err
			}
			s.Directory = str
		case "default":
			str, err := stringSetting(key, value)
			if err != nil {
				return Settings{}, err
			}
			s.Default = str
		case "pattern":
			str, err := stringSetting(key, value)
			if err != nil {
				return Settings{}, err
			}
			s.Pattern = str
		case "layoutKey":
			str, err := stringSetting(key, value)
			if err != nil {
				return Settings{}, err
			}
			s.LayoutKey = str
		case "partialExtension":
			str, err := stringSetting(key, value)
			if err != nil {
				return Settings{}, err
			}
			s.PartialExtension = str
		case "layoutExtension":
			str, err := stringSetting(key, value)
			if err != nil {
				return Settings{}, err
			}
			s.LayoutExtension = str
			s.layoutExtensionSet = true
		case "rename":
			b, ok := value.(bool)
			if !ok {
				return Settings{}, fmt.Errorf("pipeline: setting %q must be a bool, got %T", key, value)
			}
			s.Rename = b
		case "concurrency":
			n, ok := intSetting(value)
			if !ok {
				return Settings{}, fmt.Errorf("pipeline: setting %q must be an int, got %T", key, value)
			}
			s.Concurrency = n
		case "partials":
			switch v := value.(type) {
			case string:
				s.PartialsDir = v
			case map[string]string:
				s.Partials = v
			case map[string]any:
				partials := make(map[string]string, len(v))
				for name, ref := range v {
					str, ok := ref.(string)
					if !ok {
						return Settings{}, fmt.Errorf("pipeline: partial %q must be a string, got %T", name, ref)
					}
					partials[name] = str
				}
				s.Partials = partials
			default:
				return Settings{}, fmt.Errorf("pipeline: setting %q must be a directory or a name→path map, got %T", key, value)
			}
		}
	}

	return s, nil
}

// normalize fills defaults and validates the parts that can fail before any
// file is touched.
func (s *Settings) normalize() error {
	if strings.TrimSpace(s.Engine) == "" {
		return ErrEngineRequired
	}
	if s.Directory == "" {
		s.Directory = DefaultDirectory
	}
	if s.LayoutKey == "" {
		s.LayoutKey = DefaultLayoutKey
	}
	if s.LayoutExtension == "" && !s.layoutExtensionSet {
		s.LayoutExtension = DefaultLayoutExtension
	}
	if s.Concurrency <= 0 {
		s.Concurrency = DefaultConcurrency
	}
	if s.Pattern != "" {
		if _, err := path.Match(s.Pattern, "probe"); err != nil {
			return fmt.Errorf("pipeline: invalid pattern %q: %w", s.Pattern, err)
		}
	}
	if s.PartialsDir != "" && s.Partials != nil {
		return fmt.Errorf("pipeline: partials directory and partials map are mutually exclusive")
	}
	return nil
}

// matchesPattern reports whether key satisfies the configured pattern. The
// glob is tried against the full key and, for bare patterns like "*.md",
// against the key's base name.
func matchesPattern(pattern, key string) bool {
	if ok, _ := path.Match(pattern, key); ok {
		return true
	}
	if !strings.Contains(pattern, "/") {
		if ok, _ := path.Match(pattern, path.Base(key)); ok {
			return true
		}
	}
	return false
}

func stringSetting(key string, value any) (string, error) {
	str, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("pipeline: setting %q must be a string, got %T", key, value)
	}
	return str, nil
}

func intSetting(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}
