package gpu

import (
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/rigview/internal/logger"
)

// GL is a Device backed by the current OpenGL 4.1 core context.
// gl.Init must have succeeded before any method is called.
type GL struct{}

// NewGL returns a Device bound to the current context.
func NewGL() *GL {
	return &GL{}
}

var glPrimitives = [...]uint32{
	Points:        gl.POINTS,
	Lines:         gl.LINES,
	LineStrip:     gl.LINE_STRIP,
	LineLoop:      gl.LINE_LOOP,
	TriangleStrip: gl.TRIANGLE_STRIP,
	TriangleFan:   gl.TRIANGLE_FAN,
	Triangles:     gl.TRIANGLES,
}

func (GL) IsProgram(program uint32) bool {
	return program != 0 && gl.IsProgram(program)
}

func (GL) ProgramLinked(program uint32) bool {
	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	return status == gl.TRUE
}

func (GL) AttribLocation(program uint32, name string) int32 {
	return gl.GetAttribLocation(program, gl.Str(name+"\x00"))
}

func (GL) UniformLocation(program uint32, name string) int32 {
	return gl.GetUniformLocation(program, gl.Str(name+"\x00"))
}

func (GL) CreateVertexArray() uint32 {
	var vao uint32
	gl.GenVertexArrays(1, &vao)
	return vao
}

func (GL) IsVertexArray(vao uint32) bool {
	return vao != 0 && gl.IsVertexArray(vao)
}

func (GL) DeleteVertexArray(vao uint32) {
	gl.DeleteVertexArrays(1, &vao)
}

func (GL) CreateArrayBuffer(data []float32) uint32 {
	var buf uint32
	gl.GenBuffers(1, &buf)
	gl.BindBuffer(gl.ARRAY_BUFFER, buf)
	if len(data) > 0 {
		gl.BufferData(gl.ARRAY_BUFFER, len(data)*4, gl.Ptr(data), gl.STATIC_DRAW)
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	return buf
}

func (GL) CreateIndexBuffer(vao uint32, indices []uint32) uint32 {
	var buf uint32
	gl.BindVertexArray(vao)
	gl.GenBuffers(1, &buf)
	// The element binding is recorded in the VAO, so it stays bound.
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, buf)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(indices)*4, gl.Ptr(indices), gl.STATIC_DRAW)
	gl.BindVertexArray(0)
	return buf
}

func (GL) IsBuffer(buf uint32) bool {
	return buf != 0 && gl.IsBuffer(buf)
}

func (GL) DeleteBuffer(buf uint32) {
	gl.DeleteBuffers(1, &buf)
}

func (GL) BindAttribute(vao, buf, loc uint32, components int32) {
	gl.BindVertexArray(vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, buf)
	gl.EnableVertexAttribArray(loc)
	gl.VertexAttribPointerWithOffset(loc, components, gl.FLOAT, false, 0, 0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	gl.BindVertexArray(0)
}

func (GL) MapBuffer(buf uint32, floats int) []float32 {
	gl.BindBuffer(gl.ARRAY_BUFFER, buf)
	defer gl.BindBuffer(gl.ARRAY_BUFFER, 0)

	var size int32
	gl.GetBufferParameteriv(gl.ARRAY_BUFFER, gl.BUFFER_SIZE, &size)
	if int(size) < floats*4 {
		logger.Named("gpu").Warn("buffer smaller than requested mapping",
			zap.Uint32("buffer", buf),
			zap.Int32("bytes", size),
			zap.Int("floats", floats),
		)
		floats = int(size) / 4
	}

	ptr := gl.MapBuffer(gl.ARRAY_BUFFER, gl.READ_WRITE)
	if ptr == nil {
		return nil
	}
	return unsafe.Slice((*float32)(ptr), floats)
}

func (GL) UnmapBuffer(buf uint32) bool {
	gl.BindBuffer(gl.ARRAY_BUFFER, buf)
	ok := gl.UnmapBuffer(gl.ARRAY_BUFFER)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	return ok
}

func (GL) CreateTexture2D(pixels []uint8, width, height int) uint32 {
	if width <= 0 || height <= 0 || len(pixels) < width*height*4 {
		return 0
	}

	// Ask the driver whether it would accept this size before allocating.
	gl.TexImage2D(gl.PROXY_TEXTURE_2D, 0, gl.RGBA8, int32(width), int32(height), 0, gl.RGBA, gl.UNSIGNED_BYTE, nil)
	var proxyWidth int32
	gl.GetTexLevelParameteriv(gl.PROXY_TEXTURE_2D, 0, gl.TEXTURE_WIDTH, &proxyWidth)
	if proxyWidth == 0 {
		var maxSize int32
		gl.GetIntegerv(gl.MAX_TEXTURE_SIZE, &maxSize)
		logger.Named("gpu").Error("texture rejected by driver",
			zap.Int("width", width),
			zap.Int("height", height),
			zap.Int32("max_texture_size", maxSize),
		)
		return 0
	}

	var tex uint32
	gl.GenTextures(1, &tex)
	gl.BindTexture(gl.TEXTURE_2D, tex)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(width), int32(height), 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	gl.GenerateMipmap(gl.TEXTURE_2D)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR_MIPMAP_LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	return tex
}

func (GL) IsTexture(tex uint32) bool {
	return tex != 0 && gl.IsTexture(tex)
}

func (GL) SetTextureWrap(tex uint32, wrap Wrap) {
	mode := int32(gl.CLAMP_TO_EDGE)
	if wrap == Repeat {
		mode = gl.REPEAT
	}
	var prev int32
	gl.GetIntegerv(gl.TEXTURE_BINDING_2D, &prev)
	gl.BindTexture(gl.TEXTURE_2D, tex)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, mode)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, mode)
	gl.BindTexture(gl.TEXTURE_2D, uint32(prev))
}

func (GL) DeleteTexture(tex uint32) {
	gl.DeleteTextures(1, &tex)
}

func getUint(pname uint32) uint32 {
	var v int32
	gl.GetIntegerv(pname, &v)
	return uint32(v)
}

func (GL) CurrentProgram() uint32     { return getUint(gl.CURRENT_PROGRAM) }
func (GL) UseProgram(program uint32)  { gl.UseProgram(program) }
func (GL) ActiveTextureUnit() uint32  { return getUint(gl.ACTIVE_TEXTURE) - gl.TEXTURE0 }
func (GL) ActiveTexture(unit uint32)  { gl.ActiveTexture(gl.TEXTURE0 + unit) }
func (GL) TextureBinding2D() uint32   { return getUint(gl.TEXTURE_BINDING_2D) }
func (GL) BindTexture2D(tex uint32)   { gl.BindTexture(gl.TEXTURE_2D, tex) }
func (GL) VertexArrayBinding() uint32 { return getUint(gl.VERTEX_ARRAY_BINDING) }
func (GL) BindVertexArray(vao uint32) { gl.BindVertexArray(vao) }

func (GL) Uniform1i(loc int32, v int32) {
	gl.Uniform1i(loc, v)
}

func (GL) UniformMatrix4(loc int32, mats []mgl32.Mat4) {
	if len(mats) == 0 {
		return
	}
	gl.UniformMatrix4fv(loc, int32(len(mats)), false, &mats[0][0])
}

func (GL) DrawElements(prim Primitive, count int) {
	gl.DrawElements(glPrimitives[prim], int32(count), gl.UNSIGNED_INT, nil)
}

func (GL) DrawArrays(prim Primitive, count int) {
	gl.DrawArrays(glPrimitives[prim], 0, int32(count))
}

func (GL) Error() uint32 {
	return gl.GetError()
}
