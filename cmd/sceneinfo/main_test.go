package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/rigview/internal/logger"
)

var walker = filepath.Join("..", "..", "pkg", "scene", "testdata", "walker.yaml")

func runInfo(t *testing.T, args ...string) string {
	t.Helper()
	prev := logger.Log
	t.Cleanup(func() { logger.Replace(prev) })

	var out bytes.Buffer
	require.NoError(t, run(append(args, "-log", "error", walker), &out))
	return out.String()
}

func TestSummary(t *testing.T) {
	out := runInfo(t)

	assert.Contains(t, out, "Nodes: 7")
	assert.Contains(t, out, "Meshes (2):")
	assert.Contains(t, out, "crate_quad")
	assert.Contains(t, out, "bones=3")
	assert.Contains(t, out, "texture="+filepath.Join(filepath.Dir(walker), "crate.png")+" (missing)")
	assert.Contains(t, out, "other=normals:1")
	assert.Contains(t, out, "bend")
	assert.Contains(t, out, "seconds=10.000")
	assert.Contains(t, out, "min    (-0.100, -0.500, 0.000)")
	assert.Contains(t, out, "max    (2.500, 3.000, 0.000)")
	assert.Contains(t, out, "Fit matrix:")
	assert.NotContains(t, out, "Pose")
}

func TestPose(t *testing.T) {
	out := runInfo(t, "-pose", "10")
	assert.Contains(t, out, "Pose (animation 0, 10.000s):")
	// The knee has moved up to y=2 above the hip, rotated a quarter turn.
	assert.Regexp(t, `knee\s+origin \(-2\.000, 1\.000, -?0\.000\)`, out)
}

func TestDump(t *testing.T) {
	out := runInfo(t, "-dump")
	assert.Contains(t, out, "(*scene.Scene)")
	assert.Contains(t, out, `Name: (string) (len=4) "bend"`)
}

func TestUsageErrors(t *testing.T) {
	prev := logger.Log
	t.Cleanup(func() { logger.Replace(prev) })

	var out bytes.Buffer
	assert.Error(t, run(nil, &out))
	assert.Contains(t, out.String(), "Usage: sceneinfo")

	assert.Error(t, run([]string{"-log", "error", "missing.yaml"}, &out))
}

func TestPrimitiveNames(t *testing.T) {
	assert.Equal(t, "none", primitiveNames(0))
}
