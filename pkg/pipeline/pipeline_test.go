package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/goliatone/go-layouts/pkg/engine"
	"github.com/goliatone/go-layouts/pkg/files"
	"github.com/goliatone/go-layouts/pkg/pipeline"
	"github.com/goliatone/go-layouts/pkg/testsupport"
)

func newRegistry(t *testing.T, renderer engine.Renderer) *engine.Registry {
	t.Helper()
	reg := engine.NewRegistry()
	if err := reg.Register(renderer); err != nil {
		t.Fatalf("register renderer: %v", err)
	}
	return reg
}

func TestNew_EngineRequired(t *testing.T) {
	reg := engine.NewRegistry()
	_, err := pipeline.New(reg, pipeline.Settings{})
	if !errors.Is(err, pipeline.ErrEngineRequired) {
		t.Fatalf("want ErrEngineRequired, got %v", err)
	}
}

func TestNew_UnknownEngineFailsFast(t *testing.T) {
	reg := newRegistry(t, &testsupport.RecordingRenderer{})
	_, err := pipeline.New(reg, pipeline.Settings{Engine: "doesnotexist"})
	if err == nil {
		t.Fatal("unknown engine accepted")
	}
}

func TestApply_TwoFilesOneLayout(t *testing.T) {
	renderer := &testsupport.RecordingRenderer{
		Output: func(_ string, data map[string]any) string {
			return fmt.Sprintf("<h1>%v</h1>%v", data["title"], data["contents"])
		},
	}
	reg := newRegistry(t, renderer)

	p, err := pipeline.New(reg, pipeline.Settings{Engine: renderer.Name()})
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}

	c := files.NewCollection(map[string]files.File{
		"a.md": {"layout": "post", "title": "A", "contents": "body a"},
		"b.md": {"layout": "post", "title": "B", "contents": "body b"},
	})

	if err := p.Apply(context.Background(), c, map[string]any{}); err != nil {
		t.Fatalf("apply: %v", err)
	}

	// One seed render in phase 1, one follower render in phase 2.
	if got := renderer.CallCount(); got != 2 {
		t.Fatalf("render calls: want 2, got %d", got)
	}
	wantPath := filepath.Join("layouts", "post.html")
	for _, call := range renderer.Calls() {
		if call.TemplatePath != wantPath {
			t.Fatalf("template path: want %q, got %q", wantPath, call.TemplatePath)
		}
	}

	a, _ := c.Get("a.md")
	if got := a.Contents(); got != "<h1>A</h1>body a" {
		t.Fatalf("a.md contents: %q", got)
	}
	b, _ := c.Get("b.md")
	if got := b.Contents(); got != "<h1>B</h1>body b" {
		t.Fatalf("b.md contents: %q", got)
	}
}

func TestApply_NoopWithoutLayouts(t *testing.T) {
	renderer := &testsupport.RecordingRenderer{}
	reg := newRegistry(t, renderer)

	p, err := pipeline.New(reg, pipeline.Settings{Engine: renderer.Name()})
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}

	c := files.NewCollection(map[string]files.File{
		"plain.md": {"contents": "untouched"},
	})

	if err := p.Apply(context.Background(), c, nil); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if renderer.CallCount() != 0 {
		t.Fatalf("renderer called %d times for unselected files", renderer.CallCount())
	}
	f, _ := c.Get("plain.md")
	if got := f.Contents(); got != "untouched" {
		t.Fatalf("contents mutated: %q", got)
	}
}

func TestApply_SeedFailureSkipsFollowers(t *testing.T) {
	seedPath := filepath.Join("layouts", "post.html")
	renderer := &testsupport.RecordingRenderer{
		Fail: map[string]error{seedPath: errors.New("template broken")},
	}
	reg := newRegistry(t, renderer)

	p, err := pipeline.New(reg, pipeline.Settings{Engine: renderer.Name()})
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}

	c := files.NewCollection(map[string]files.File{
		"a.md": {"layout": "post", "contents": "a"},
		"b.md": {"layout": "post", "contents": "b"},
		"c.md": {"layout": "post", "contents": "c"},
	})

	err = p.Apply(context.Background(), c, nil)
	if err == nil {
		t.Fatal("apply succeeded despite seed failure")
	}

	var renderErr *pipeline.RenderError
	if !errors.As(err, &renderErr) {
		t.Fatalf("want *RenderError, got %T: %v", err, err)
	}
	if renderErr.File != "a.md" || renderErr.Layout != "post" {
		t.Fatalf("error attribution: file=%q layout=%q", renderErr.File, renderErr.Layout)
	}

	// Phase 1 is a hard barrier: only the seed was attempted.
	if got := renderer.CallCount(); got != 1 {
		t.Fatalf("render calls: want 1, got %d", got)
	}
	for _, key := range []string{"b.md", "c.md"} {
		f, _ := c.Get(key)
		if got := f.Contents(); got != key[:1] {
			t.Fatalf("%s contents mutated after phase-1 failure: %q", key, got)
		}
	}
}

func TestApply_FollowerFailureKeepsCommittedRenders(t *testing.T) {
	renderer := &testsupport.RecordingRenderer{
		Output: func(_ string, data map[string]any) string {
			return "rendered:" + fmt.Sprint(data["title"])
		},
		FailWhen: func(_ string, data map[string]any) error {
			if data["title"] == "B" {
				return errors.New("boom")
			}
			return nil
		},
	}
	reg := newRegistry(t, renderer)

	p, err := pipeline.New(reg, pipeline.Settings{Engine: renderer.Name(), Concurrency: 1})
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}

	// a.md seeds the template in phase 1 and succeeds; b.md fails as a
	// follower in phase 2.
	c := files.NewCollection(map[string]files.File{
		"a.md": {"layout": "page", "title": "A", "contents": "a"},
		"b.md": {"layout": "page", "title": "B", "contents": "b"},
	})

	err = p.Apply(context.Background(), c, nil)
	if err == nil {
		t.Fatal("apply succeeded despite follower failure")
	}

	var renderErr *pipeline.RenderError
	if !errors.As(err, &renderErr) {
		t.Fatalf("want *RenderError, got %T: %v", err, err)
	}
	if renderErr.File != "b.md" || renderErr.Layout != "page" {
		t.Fatalf("error attribution: file=%q layout=%q", renderErr.File, renderErr.Layout)
	}

	// The committed seed render survives the follower failure.
	a, _ := c.Get("a.md")
	if got := a.Contents(); got != "rendered:A" {
		t.Fatalf("seed render not committed: %q", got)
	}
	b, _ := c.Get("b.md")
	if got := b.Contents(); got != "b" {
		t.Fatalf("failed follower mutated: %q", got)
	}
}

func TestApply_Rename(t *testing.T) {
	renderer := &testsupport.RecordingRenderer{}
	reg := newRegistry(t, renderer)

	p, err := pipeline.New(reg, pipeline.Settings{Engine: renderer.Name(), Rename: true})
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}

	c := files.NewCollection(map[string]files.File{
		"post.md": {"layout": "post", "contents": "body"},
	})

	if err := p.Apply(context.Background(), c, nil); err != nil {
		t.Fatalf("apply: %v", err)
	}

	if _, ok := c.Get("post.md"); ok {
		t.Fatal("post.md still present after rename")
	}
	if _, ok := c.Get("post.html"); !ok {
		t.Fatal("post.html missing after rename")
	}
}

func TestApply_RenameDeferredUntilSuccess(t *testing.T) {
	failPath := filepath.Join("layouts", "post.html")
	renderer := &testsupport.RecordingRenderer{
		Fail: map[string]error{failPath: errors.New("boom")},
	}
	reg := newRegistry(t, renderer)

	p, err := pipeline.New(reg, pipeline.Settings{Engine: renderer.Name(), Rename: true})
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}

	c := files.NewCollection(map[string]files.File{
		"post.md": {"layout": "post", "contents": "body"},
	})

	if err := p.Apply(context.Background(), c, nil); err == nil {
		t.Fatal("apply succeeded despite render failure")
	}

	// The failed file survives under its original key.
	if _, ok := c.Get("post.md"); !ok {
		t.Fatal("post.md lost after failed render")
	}
	if _, ok := c.Get("post.html"); ok {
		t.Fatal("post.html committed despite failed render")
	}
}

func TestApply_MetadataAndExtraParams(t *testing.T) {
	var captured map[string]any
	renderer := &testsupport.RecordingRenderer{
		Output: func(_ string, data map[string]any) string {
			captured = data
			return "ok"
		},
	}
	reg := newRegistry(t, renderer)

	p, err := pipeline.New(reg, pipeline.Settings{
		Engine: renderer.Name(),
		Extra:  map[string]any{"generator": "go-layouts", "title": "from extras"},
	})
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}

	c := files.NewCollection(map[string]files.File{
		"a.md": {"layout": "post", "title": "A", "contents": "body"},
	})

	if err := p.Apply(context.Background(), c, map[string]any{"site": "blog"}); err != nil {
		t.Fatalf("apply: %v", err)
	}

	if captured["generator"] != "go-layouts" {
		t.Fatalf("extra param missing: %v", captured["generator"])
	}
	if captured["site"] != "blog" {
		t.Fatalf("metadata missing: %v", captured["site"])
	}
	// File fields win collisions with extra params.
	if captured["title"] != "A" {
		t.Fatalf("file field did not win collision: %v", captured["title"])
	}
}
