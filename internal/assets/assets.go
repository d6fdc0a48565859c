// Package assets locates model and texture files and caches loaded textures.
package assets

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// ErrNotFound is returned when no search path holds the requested file.
var ErrNotFound = errors.New("file not found")

// Resolver finds files relative to an ordered list of directories.
type Resolver struct {
	paths []string
	mu    sync.RWMutex
}

// NewResolver creates a resolver searching paths in order.
func NewResolver(paths ...string) *Resolver {
	r := &Resolver{}
	for _, p := range paths {
		r.AddPath(p)
	}
	return r
}

// AddPath appends a search directory. Empty paths are ignored.
func (r *Resolver) AddPath(path string) {
	if path == "" {
		return
	}
	r.mu.Lock()
	r.paths = append(r.paths, path)
	r.mu.Unlock()
}

// Paths returns the search directories in order.
func (r *Resolver) Paths() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.paths...)
}

// Find returns name itself if it exists, else the first search directory
// containing it.
func (r *Resolver) Find(name string) (string, error) {
	if exists(name) {
		return name, nil
	}
	if filepath.IsAbs(name) {
		return "", errors.Wrap(ErrNotFound, name)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, dir := range r.paths {
		p := filepath.Join(dir, name)
		if exists(p) {
			return p, nil
		}
	}
	return "", errors.Wrap(ErrNotFound, name)
}

func exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// TexturePath returns where a material's texture file lives: under
// textureDir when one is given, else next to the model file. Backslash
// separators written by Windows exporters are normalized.
func TexturePath(file, modelPath, textureDir string) string {
	file = filepath.FromSlash(strings.ReplaceAll(file, `\`, "/"))
	if filepath.IsAbs(file) {
		return file
	}
	if textureDir != "" {
		return filepath.Join(textureDir, file)
	}
	return filepath.Join(filepath.Dir(modelPath), file)
}

// TextureCache maps texture paths to uploaded handles for one import.
// A zero handle records a failed load, so each path is tried only once.
type TextureCache struct {
	handles map[string]uint32
	mu      sync.Mutex

	hits   int
	misses int
}

// NewTextureCache creates an empty cache.
func NewTextureCache() *TextureCache {
	return &TextureCache{handles: make(map[string]uint32)}
}

// Get returns the handle stored for path.
func (c *TextureCache) Get(path string) (uint32, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	h, ok := c.handles[path]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return h, ok
}

// Set stores the handle for path.
func (c *TextureCache) Set(path string, handle uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handles[path] = handle
}

// Len returns the number of cached paths, failures included.
func (c *TextureCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.handles)
}

// Handles returns the distinct non-zero handles in ascending order.
func (c *TextureCache) Handles() []uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()

	seen := make(map[uint32]struct{}, len(c.handles))
	out := make([]uint32, 0, len(c.handles))
	for _, h := range c.handles {
		if _, dup := seen[h]; h == 0 || dup {
			continue
		}
		seen[h] = struct{}{}
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Clear drops every entry and resets statistics.
func (c *TextureCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handles = make(map[string]uint32)
	c.hits = 0
	c.misses = 0
}

// Stats returns cache statistics.
func (c *TextureCache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
