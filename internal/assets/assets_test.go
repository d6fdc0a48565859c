package assets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
}

func TestResolverFind(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()
	touch(t, filepath.Join(second, "models", "walker.yaml"))
	touch(t, filepath.Join(first, "shared.yaml"))
	touch(t, filepath.Join(second, "shared.yaml"))

	r := NewResolver(first, "", second)
	assert.Equal(t, []string{first, second}, r.Paths())

	got, err := r.Find(filepath.Join("models", "walker.yaml"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(second, "models", "walker.yaml"), got)

	got, err = r.Find("shared.yaml")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(first, "shared.yaml"), got, "earlier paths win")

	direct := filepath.Join(first, "shared.yaml")
	got, err = r.Find(direct)
	require.NoError(t, err)
	assert.Equal(t, direct, got)

	_, err = r.Find("missing.yaml")
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = r.Find("models")
	assert.Error(t, err, "directories are not files")
}

func TestTexturePath(t *testing.T) {
	model := filepath.Join("data", "walker", "walker.yaml")

	tests := []struct {
		name       string
		file       string
		textureDir string
		want       string
	}{
		{"next to model", "crate.png", "", filepath.Join("data", "walker", "crate.png")},
		{"texture dir", "crate.png", "textures", filepath.Join("textures", "crate.png")},
		{"subdirectory", "maps/crate.png", "", filepath.Join("data", "walker", "maps", "crate.png")},
		{"backslashes", `maps\crate.png`, "textures", filepath.Join("textures", "maps", "crate.png")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TexturePath(tt.file, model, tt.textureDir))
		})
	}
}

func TestTextureCache(t *testing.T) {
	c := NewTextureCache()

	_, ok := c.Get("a.png")
	assert.False(t, ok)

	c.Set("a.png", 7)
	c.Set("b.png", 0)
	c.Set("c.png", 3)
	c.Set("alias.png", 7)

	h, ok := c.Get("a.png")
	assert.True(t, ok)
	assert.Equal(t, uint32(7), h)

	h, ok = c.Get("b.png")
	assert.True(t, ok, "failures are cached")
	assert.Zero(t, h)

	hits, misses := c.Stats()
	assert.Equal(t, 2, hits)
	assert.Equal(t, 1, misses)

	assert.Equal(t, 4, c.Len())
	assert.Equal(t, []uint32{3, 7}, c.Handles())

	c.Clear()
	assert.Zero(t, c.Len())
	hits, misses = c.Stats()
	assert.Zero(t, hits+misses)
}
