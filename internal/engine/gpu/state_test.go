package gpu_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Faultbox/rigview/internal/engine/gpu"
	"github.com/Faultbox/rigview/internal/engine/gpu/gputest"
)

func TestCaptureRestore(t *testing.T) {
	dev := gputest.New()
	prog := dev.AddProgram(nil, nil)
	tex := dev.AddTexture(4, 4)
	vao := dev.CreateVertexArray()

	want := gpu.State{Program: prog, Texture: tex, TextureUnit: 2, VertexArray: vao}
	dev.Bind(want)
	got := gpu.Capture(dev)
	assert.Equal(t, want, got)

	dev.UseProgram(0)
	dev.ActiveTexture(0)
	dev.BindTexture2D(0)
	dev.BindVertexArray(0)

	got.Restore(dev)
	assert.Equal(t, want, dev.State())
}

func TestCheck(t *testing.T) {
	dev := gputest.New()
	assert.False(t, gpu.Check(dev, "idle"))

	dev.Errors = []uint32{0x0502, 0x0501}
	assert.True(t, gpu.Check(dev, "upload"))
	assert.Empty(t, dev.Errors)
}

func TestErrorString(t *testing.T) {
	assert.Equal(t, "GL_INVALID_OPERATION", gpu.ErrorString(0x0502))
	assert.Equal(t, "GL_NO_ERROR", gpu.ErrorString(0))
	assert.Equal(t, "unknown", gpu.ErrorString(0xdead))
}

func TestPrimitiveString(t *testing.T) {
	assert.Equal(t, "triangles", gpu.Triangles.String())
	assert.Equal(t, "line_loop", gpu.LineLoop.String())
	assert.Equal(t, "unknown", gpu.Primitive(42).String())
}
