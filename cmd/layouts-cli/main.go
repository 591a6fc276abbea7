package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/natefinch/atomic"
	"gopkg.in/yaml.v3"

	layouts "github.com/goliatone/go-layouts"
	"github.com/goliatone/go-layouts/internal/frontmatter"
	"github.com/goliatone/go-layouts/pkg/files"
)

func main() {
	source := flag.String("source", "src", "source directory of files to transform")
	output := flag.String("output", "build", "output directory for rendered files")
	layoutDir := flag.String("layouts", "layouts", "layout template directory")
	engineName := flag.String("engine", "pongo2", "rendering engine")
	defaultLayout := flag.String("default", "", "fallback layout for files without one")
	pattern := flag.String("pattern", "", "glob filter on file keys")
	rename := flag.Bool("rename", false, "replace output extension with .html")
	layoutKey := flag.String("layout-key", "layout", "front-matter field naming the layout")
	partialsDir := flag.String("partials", "", "partial template directory")
	partialExt := flag.String("partial-ext", "", "partial template extension")
	metadataPath := flag.String("metadata", "", "site metadata file (YAML)")
	concurrency := flag.Int("concurrency", 0, "render concurrency per phase (0 = default)")
	sanitize := flag.Bool("sanitize", false, "sanitize rendered HTML output")
	logLevel := flag.String("log-level", "info", "log level (debug, info, warn, error)")
	logFormat := flag.String("log-format", "text", "log format (text or json)")
	flag.Parse()

	logger := newLogger(*logLevel, *logFormat, os.Stderr)

	settings := layouts.Settings{
		Engine:           *engineName,
		Directory:        *layoutDir,
		Default:          *defaultLayout,
		Pattern:          *pattern,
		Rename:           *rename,
		LayoutKey:        *layoutKey,
		PartialsDir:      *partialsDir,
		PartialExtension: *partialExt,
		Concurrency:      *concurrency,
	}

	if err := run(context.Background(), logger, settings, *source, *output, *metadataPath, *sanitize); err != nil {
		logger.Error("run failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, settings layouts.Settings, source, output, metadataPath string, sanitize bool) error {
	collection, err := readSource(source)
	if err != nil {
		return err
	}
	logger.Info("loaded source files", "dir", source, "count", collection.Len())

	metadata, err := readMetadata(metadataPath)
	if err != nil {
		return err
	}

	registry, err := layouts.DefaultRegistry()
	if err != nil {
		return err
	}
	p, err := layouts.New(registry, settings, layouts.WithLogger(logger))
	if err != nil {
		return err
	}

	if err := p.Apply(ctx, collection, metadata); err != nil {
		return err
	}

	if err := writeOutput(collection, output, sanitize); err != nil {
		return err
	}
	logger.Info("wrote output files", "dir", output, "count", collection.Len())
	return nil
}

// readSource walks dir and builds the file collection. Each file's YAML
// front-matter becomes its metadata fields; the remainder becomes contents.
func readSource(dir string) (*files.Collection, error) {
	collection := files.NewCollection(nil)

	err := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}

		fields, body, err := frontmatter.Parse(data)
		if err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}

		f := files.File{}
		for key, value := range fields {
			f[key] = value
		}
		f[files.ContentsKey] = body

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		collection.Set(filepath.ToSlash(rel), f)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan source %s: %w", dir, err)
	}

	return collection, nil
}

func readMetadata(path string) (map[string]any, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read metadata %s: %w", path, err)
	}
	var metadata map[string]any
	if err := yaml.Unmarshal(data, &metadata); err != nil {
		return nil, fmt.Errorf("parse metadata %s: %w", path, err)
	}
	return metadata, nil
}

// writeOutput commits the collection to disk. Writes go through a temp file
// and rename, so a crash mid-run never leaves a half-written output.
func writeOutput(collection *files.Collection, dir string, sanitize bool) error {
	var policy *bluemonday.Policy
	if sanitize {
		policy = bluemonday.UGCPolicy()
	}

	for _, key := range collection.Keys() {
		f, ok := collection.Get(key)
		if !ok {
			continue
		}

		data := []byte(f.Contents())
		if policy != nil && strings.HasSuffix(key, ".html") {
			data = policy.SanitizeBytes(data)
		}

		target := filepath.Join(dir, filepath.FromSlash(key))
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return fmt.Errorf("mkdir for %s: %w", key, err)
		}
		if err := atomic.WriteFile(target, bytes.NewReader(data)); err != nil {
			return fmt.Errorf("write %s: %w", key, err)
		}
	}
	return nil
}

// newLogger builds a logger from the CLI flags without touching the global
// default.
func newLogger(levelStr, formatStr string, out *os.File) *slog.Logger {
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if formatStr == "json" {
		return slog.New(slog.NewJSONHandler(out, opts))
	}
	return slog.New(slog.NewTextHandler(out, opts))
}
