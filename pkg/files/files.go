package files

import (
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// ContentsKey names the field holding a file's body. The pipeline reads and
// replaces this field; every other field is caller-owned metadata.
const ContentsKey = "contents"

// File is a mutable bag of fields describing one document: its contents plus
// arbitrary metadata (front-matter, build flags, a layout reference).
type File map[string]any

// Contents returns the file body as a string, coercing []byte in place so the
// coercion happens at most once.
func (f File) Contents() string {
	switch v := f[ContentsKey].(type) {
	case string:
		return v
	case []byte:
		s := string(v)
		f[ContentsKey] = s
		return s
	default:
		return ""
	}
}

// SetContents replaces the file body.
func (f File) SetContents(s string) {
	f[ContentsKey] = s
}

// StringField returns the named field when it holds a non-empty string.
func (f File) StringField(key string) (string, bool) {
	v, ok := f[key].(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// Collection is a key→File map guarded for concurrent commits. Render workers
// touch distinct keys, but the map itself needs the lock.
type Collection struct {
	mu    sync.RWMutex
	files map[string]File
}

// NewCollection wraps the provided map. A nil map yields an empty collection.
// The map is adopted, not copied; the caller should stop using it directly.
func NewCollection(m map[string]File) *Collection {
	if m == nil {
		m = make(map[string]File)
	}
	return &Collection{files: m}
}

// Get returns the file stored under key.
func (c *Collection) Get(key string) (File, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	f, ok := c.files[key]
	return f, ok
}

// Set stores file under key, replacing any previous entry.
func (c *Collection) Set(key string, f File) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.files[key] = f
}

// Rename moves the file stored under oldKey to newKey, removing oldKey. It
// reports whether oldKey existed. Renaming a key onto itself is a no-op.
func (c *Collection) Rename(oldKey, newKey string) bool {
	if oldKey == newKey {
		_, ok := c.Get(oldKey)
		return ok
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	f, ok := c.files[oldKey]
	if !ok {
		return false
	}
	delete(c.files, oldKey)
	c.files[newKey] = f
	return true
}

// Keys returns all file keys in sorted order. Sorting keeps selection and
// seed assignment deterministic run to run.
func (c *Collection) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]string, 0, len(c.files))
	for key := range c.files {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Len reports the number of files held.
func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.files)
}

// Map returns the underlying map. Callers must not use it while renders are
// in flight.
func (c *Collection) Map() map[string]File {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.files
}

// WithExtension swaps key's extension for ext (dot included), keeping the
// directory and base name. A key without an extension gets ext appended.
func WithExtension(key, ext string) string {
	dir := filepath.Dir(key)
	base := filepath.Base(key)
	if idx := strings.LastIndex(base, "."); idx >= 0 {
		base = base[:idx]
	}
	if dir == "." {
		return base + ext
	}
	return filepath.Join(dir, base+ext)
}
