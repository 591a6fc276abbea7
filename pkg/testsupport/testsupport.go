// Package testsupport holds shared test helpers: a recording renderer for
// pipeline call-count assertions and golden-file utilities.
package testsupport

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

// RenderCall records one renderer invocation.
type RenderCall struct {
	TemplatePath string
	Data         map[string]any
}

// RecordingRenderer implements engine.Renderer for tests. It records every
// call, renders via the Output func (or a default echo of the template
// path), and fails for template paths listed in Fail. Safe for concurrent
// use, matching the pipeline's fan-out.
type RecordingRenderer struct {
	RendererName string
	Output       func(templatePath string, data map[string]any) string
	Fail         map[string]error
	FailWhen     func(templatePath string, data map[string]any) error

	mu    sync.Mutex
	calls []RenderCall
}

// Name implements engine.Renderer.
func (r *RecordingRenderer) Name() string {
	if r.RendererName == "" {
		return "recording"
	}
	return r.RendererName
}

// Render implements engine.Renderer.
func (r *RecordingRenderer) Render(ctx context.Context, templatePath string, data map[string]any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	r.mu.Lock()
	r.calls = append(r.calls, RenderCall{TemplatePath: templatePath, Data: data})
	r.mu.Unlock()

	if err, ok := r.Fail[templatePath]; ok {
		return "", err
	}
	if r.FailWhen != nil {
		if err := r.FailWhen(templatePath, data); err != nil {
			return "", err
		}
	}
	if r.Output != nil {
		return r.Output(templatePath, data), nil
	}
	return fmt.Sprintf("rendered:%s", templatePath), nil
}

// Calls returns a copy of the recorded invocations.
func (r *RecordingRenderer) Calls() []RenderCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]RenderCall, len(r.calls))
	copy(out, r.calls)
	return out
}

// CallCount reports how many renders were attempted.
func (r *RecordingRenderer) CallCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

// MustReadGoldenString reads a golden file and returns its string content.
func MustReadGoldenString(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	return string(data)
}

// WriteMaybeGolden updates a golden file when UPDATE_GOLDENS is set. Returns
// true if the golden was written (test should exit early).
func WriteMaybeGolden(t *testing.T, path string, data []byte) bool {
	t.Helper()
	if os.Getenv("UPDATE_GOLDENS") == "" {
		return false
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
	return true
}
