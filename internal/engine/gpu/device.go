// Package gpu defines the narrow set of graphics calls the engine makes.
//
// Geometry, texture and import code talk to a Device rather than to the
// GL bindings directly, so they can be exercised without a GL context.
// GL implements Device on top of go-gl; gputest provides an in-memory fake.
package gpu

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Primitive is the kind of primitive a draw call assembles.
type Primitive uint8

const (
	Points Primitive = iota
	Lines
	LineStrip
	LineLoop
	TriangleStrip
	TriangleFan
	Triangles
)

var primitiveNames = [...]string{"points", "lines", "line_strip", "line_loop", "triangle_strip", "triangle_fan", "triangles"}

func (p Primitive) String() string {
	if int(p) < len(primitiveNames) {
		return primitiveNames[p]
	}
	return "unknown"
}

// Wrap is a texture coordinate wrap mode.
type Wrap uint8

const (
	ClampToEdge Wrap = iota
	Repeat
)

// Device is the graphics API surface used by the engine. All methods must
// be called from the thread that owns the context.
type Device interface {
	// Programs (compiled and linked elsewhere).
	IsProgram(program uint32) bool
	ProgramLinked(program uint32) bool
	AttribLocation(program uint32, name string) int32
	UniformLocation(program uint32, name string) int32

	// Vertex arrays and buffers.
	CreateVertexArray() uint32
	IsVertexArray(vao uint32) bool
	DeleteVertexArray(vao uint32)
	// CreateArrayBuffer uploads data once into a new static buffer.
	CreateArrayBuffer(data []float32) uint32
	// CreateIndexBuffer uploads indices into a new buffer recorded in vao.
	CreateIndexBuffer(vao uint32, indices []uint32) uint32
	IsBuffer(buf uint32) bool
	DeleteBuffer(buf uint32)
	// BindAttribute points attribute location loc of vao at buf.
	BindAttribute(vao, buf, loc uint32, components int32)
	// MapBuffer maps buf for read/write access. It returns nil on failure.
	MapBuffer(buf uint32, floats int) []float32
	UnmapBuffer(buf uint32) bool

	// Textures.
	// CreateTexture2D uploads RGBA8 pixels with mipmaps. It returns 0
	// when the driver rejects the size.
	CreateTexture2D(pixels []uint8, width, height int) uint32
	IsTexture(tex uint32) bool
	SetTextureWrap(tex uint32, wrap Wrap)
	DeleteTexture(tex uint32)

	// Bindings that Draw snapshots and restores.
	CurrentProgram() uint32
	UseProgram(program uint32)
	ActiveTextureUnit() uint32
	ActiveTexture(unit uint32)
	TextureBinding2D() uint32
	BindTexture2D(tex uint32)
	VertexArrayBinding() uint32
	BindVertexArray(vao uint32)

	// Uniforms of the program in use.
	Uniform1i(loc int32, v int32)
	UniformMatrix4(loc int32, mats []mgl32.Mat4)

	// Draw submission.
	DrawElements(prim Primitive, count int)
	DrawArrays(prim Primitive, count int)

	// Error returns and clears the oldest pending error code, 0 if none.
	Error() uint32
}
