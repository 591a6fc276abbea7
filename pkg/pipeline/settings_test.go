package pipeline

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestParseSettings_KnownKeys(t *testing.T) {
	got, err := ParseSettings(map[string]any{
		"engine":          "pongo2",
		"directory":       "templates",
		"default":         "base",
		"pattern":         "*.md",
		"rename":          true,
		"layoutKey":       "template",
		"layoutExtension": "tpl",
		"concurrency":     4,
	})
	if err != nil {
		t.Fatalf("parse settings: %v", err)
	}

	want := Settings{
		Engine:          "pongo2",
		Directory:       "templates",
		Default:         "base",
		Pattern:         "*.md",
		Rename:          true,
		LayoutKey:       "template",
		LayoutExtension: "tpl",
		Concurrency:     4,
	}
	if diff := cmp.Diff(want, got, cmpopts.IgnoreUnexported(Settings{})); diff != "" {
		t.Fatalf("settings mismatch (-want +got):\n%s", diff)
	}
}

func TestParseSettings_UnrecognizedKeysBecomeExtras(t *testing.T) {
	got, err := ParseSettings(map[string]any{
		"engine":    "pongo2",
		"generator": "go-layouts",
		"version":   3,
	})
	if err != nil {
		t.Fatalf("parse settings: %v", err)
	}

	wantExtra := map[string]any{"generator": "go-layouts", "version": 3}
	if diff := cmp.Diff(wantExtra, got.Extra); diff != "" {
		t.Fatalf("extra params mismatch (-want +got):\n%s", diff)
	}
}

func TestParseSettings_PartialsForms(t *testing.T) {
	t.Run("directory reference", func(t *testing.T) {
		got, err := ParseSettings(map[string]any{"engine": "pongo2", "partials": "partials"})
		if err != nil {
			t.Fatalf("parse settings: %v", err)
		}
		if got.PartialsDir != "partials" {
			t.Fatalf("partials dir: %q", got.PartialsDir)
		}
	})

	t.Run("prebuilt map", func(t *testing.T) {
		got, err := ParseSettings(map[string]any{
			"engine":   "pongo2",
			"partials": map[string]any{"header": "/abs/header.html"},
		})
		if err != nil {
			t.Fatalf("parse settings: %v", err)
		}
		if got.Partials["header"] != "/abs/header.html" {
			t.Fatalf("partials map: %v", got.Partials)
		}
	})

	t.Run("bad shape", func(t *testing.T) {
		if _, err := ParseSettings(map[string]any{"engine": "pongo2", "partials": 42}); err == nil {
			t.Fatal("numeric partials accepted")
		}
	})
}

func TestParseSettings_TypeErrors(t *testing.T) {
	if _, err := ParseSettings(map[string]any{"engine": 7}); err == nil {
		t.Fatal("non-string engine accepted")
	}
	if _, err := ParseSettings(map[string]any{"engine": "pongo2", "rename": "yes"}); err == nil {
		t.Fatal("non-bool rename accepted")
	}
}

func TestNormalize_Defaults(t *testing.T) {
	s := Settings{Engine: "pongo2"}
	if err := s.normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}

	if s.Directory != DefaultDirectory {
		t.Fatalf("directory default: %q", s.Directory)
	}
	if s.LayoutKey != DefaultLayoutKey {
		t.Fatalf("layout key default: %q", s.LayoutKey)
	}
	if s.LayoutExtension != DefaultLayoutExtension {
		t.Fatalf("layout extension default: %q", s.LayoutExtension)
	}
	if s.Concurrency != DefaultConcurrency {
		t.Fatalf("concurrency default: %d", s.Concurrency)
	}
}

func TestNormalize_ExplicitEmptyLayoutExtension(t *testing.T) {
	s, err := ParseSettings(map[string]any{"engine": "pongo2", "layoutExtension": ""})
	if err != nil {
		t.Fatalf("parse settings: %v", err)
	}
	if err := s.normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	// An explicitly empty extension stays empty (trailing-dot layout ids).
	if s.LayoutExtension != "" {
		t.Fatalf("layout extension: %q", s.LayoutExtension)
	}
}

func TestNormalize_Validation(t *testing.T) {
	s := Settings{}
	if err := s.normalize(); err == nil {
		t.Fatal("missing engine accepted")
	}

	s = Settings{Engine: "pongo2", Pattern: "[unclosed"}
	if err := s.normalize(); err == nil {
		t.Fatal("malformed pattern accepted")
	}

	s = Settings{Engine: "pongo2", PartialsDir: "partials", Partials: map[string]string{"a": "b"}}
	if err := s.normalize(); err == nil {
		t.Fatal("partials dir and map both accepted")
	}
}

func TestMatchesPattern(t *testing.T) {
	cases := []struct {
		pattern string
		key     string
		want    bool
	}{
		{"*.md", "post.md", true},
		{"*.md", "nested/post.md", true},
		{"*.md", "style.css", false},
		{"blog/*.md", "blog/post.md", true},
		{"blog/*.md", "post.md", false},
	}

	for _, tc := range cases {
		if got := matchesPattern(tc.pattern, tc.key); got != tc.want {
			t.Errorf("matchesPattern(%q, %q) = %v, want %v", tc.pattern, tc.key, got, tc.want)
		}
	}
}
