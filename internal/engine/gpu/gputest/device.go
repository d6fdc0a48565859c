// Package gputest provides an in-memory gpu.Device for tests.
package gputest

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/rigview/internal/engine/gpu"
)

// Program is a fake linked program with fixed attribute and uniform sets.
type Program struct {
	Linked   bool
	Attribs  map[string]int32
	Uniforms map[string]int32
	Ints     map[int32]int32
	Matrices map[int32][]mgl32.Mat4
}

// Buffer is a fake buffer object.
type Buffer struct {
	Data    []float32
	Indices []uint32
	Mapped  bool
}

// Texture is a fake 2D texture.
type Texture struct {
	Width, Height int
	Pixels        []uint8
	Wrap          gpu.Wrap
}

// Binding is one attribute location wired in a vertex array.
type Binding struct {
	Buffer     uint32
	Components int32
}

// DrawCall records one draw submission.
type DrawCall struct {
	Program     uint32
	VertexArray uint32
	Primitive   gpu.Primitive
	Count       int
	Indexed     bool
	// Textures maps unit to bound texture at submission time.
	Textures map[uint32]uint32
	// MappedBuffers counts buffers still mapped at submission time.
	MappedBuffers int
}

// Device implements gpu.Device in memory.
type Device struct {
	Programs     map[uint32]*Program
	VertexArrays map[uint32]map[uint32]Binding
	Buffers      map[uint32]*Buffer
	Textures     map[uint32]*Texture
	Draws        []DrawCall

	// RejectTextures makes CreateTexture2D return 0.
	RejectTextures bool
	// FailMap makes MapBuffer return nil.
	FailMap bool
	// Errors are returned by Error in order.
	Errors []uint32

	program  uint32
	unit     uint32
	units    map[uint32]uint32
	vao      uint32
	nextName uint32
}

var _ gpu.Device = (*Device)(nil)

// New returns an empty device.
func New() *Device {
	return &Device{
		Programs:     make(map[uint32]*Program),
		VertexArrays: make(map[uint32]map[uint32]Binding),
		Buffers:      make(map[uint32]*Buffer),
		Textures:     make(map[uint32]*Texture),
		units:        make(map[uint32]uint32),
	}
}

func (d *Device) name() uint32 {
	d.nextName++
	return d.nextName
}

// AddProgram registers a linked program declaring the given attributes and
// uniforms. Locations are assigned in order.
func (d *Device) AddProgram(attribs, uniforms []string) uint32 {
	p := &Program{
		Linked:   true,
		Attribs:  make(map[string]int32),
		Uniforms: make(map[string]int32),
		Ints:     make(map[int32]int32),
		Matrices: make(map[int32][]mgl32.Mat4),
	}
	for i, a := range attribs {
		p.Attribs[a] = int32(i)
	}
	for i, u := range uniforms {
		p.Uniforms[u] = int32(i)
	}
	id := d.name()
	d.Programs[id] = p
	return id
}

// AddTexture registers a texture of the given size and returns its handle.
func (d *Device) AddTexture(width, height int) uint32 {
	id := d.name()
	d.Textures[id] = &Texture{Width: width, Height: height}
	return id
}

// Bind sets the externally visible bindings, as a caller would before Draw.
func (d *Device) Bind(s gpu.State) {
	s.Restore(d)
}

// State returns the current bindings.
func (d *Device) State() gpu.State {
	return gpu.Capture(d)
}

// LiveBuffers counts buffers not yet deleted.
func (d *Device) LiveBuffers() int {
	return len(d.Buffers)
}

// UniformInt returns the program's recorded int uniform by name.
func (d *Device) UniformInt(program uint32, name string) (int32, bool) {
	p := d.Programs[program]
	if p == nil {
		return 0, false
	}
	loc, ok := p.Uniforms[name]
	if !ok {
		return 0, false
	}
	v, ok := p.Ints[loc]
	return v, ok
}

// UniformMatrices returns the program's recorded matrix uniform by name.
func (d *Device) UniformMatrices(program uint32, name string) []mgl32.Mat4 {
	p := d.Programs[program]
	if p == nil {
		return nil
	}
	loc, ok := p.Uniforms[name]
	if !ok {
		return nil
	}
	return p.Matrices[loc]
}

func (d *Device) IsProgram(program uint32) bool {
	_, ok := d.Programs[program]
	return ok
}

func (d *Device) ProgramLinked(program uint32) bool {
	p, ok := d.Programs[program]
	return ok && p.Linked
}

func (d *Device) AttribLocation(program uint32, name string) int32 {
	p, ok := d.Programs[program]
	if !ok {
		return -1
	}
	if loc, ok := p.Attribs[name]; ok {
		return loc
	}
	return -1
}

func (d *Device) UniformLocation(program uint32, name string) int32 {
	p, ok := d.Programs[program]
	if !ok {
		return -1
	}
	if loc, ok := p.Uniforms[name]; ok {
		return loc
	}
	return -1
}

func (d *Device) CreateVertexArray() uint32 {
	id := d.name()
	d.VertexArrays[id] = make(map[uint32]Binding)
	return id
}

func (d *Device) IsVertexArray(vao uint32) bool {
	_, ok := d.VertexArrays[vao]
	return ok
}

func (d *Device) DeleteVertexArray(vao uint32) {
	delete(d.VertexArrays, vao)
	if d.vao == vao {
		d.vao = 0
	}
}

func (d *Device) CreateArrayBuffer(data []float32) uint32 {
	id := d.name()
	d.Buffers[id] = &Buffer{Data: append([]float32(nil), data...)}
	return id
}

func (d *Device) CreateIndexBuffer(vao uint32, indices []uint32) uint32 {
	id := d.name()
	d.Buffers[id] = &Buffer{Indices: append([]uint32(nil), indices...)}
	return id
}

func (d *Device) IsBuffer(buf uint32) bool {
	_, ok := d.Buffers[buf]
	return ok
}

func (d *Device) DeleteBuffer(buf uint32) {
	delete(d.Buffers, buf)
}

func (d *Device) BindAttribute(vao, buf, loc uint32, components int32) {
	if b, ok := d.VertexArrays[vao]; ok {
		b[loc] = Binding{Buffer: buf, Components: components}
	}
}

func (d *Device) MapBuffer(buf uint32, floats int) []float32 {
	b, ok := d.Buffers[buf]
	if !ok || d.FailMap {
		return nil
	}
	b.Mapped = true
	if floats > len(b.Data) {
		floats = len(b.Data)
	}
	return b.Data[:floats]
}

func (d *Device) UnmapBuffer(buf uint32) bool {
	b, ok := d.Buffers[buf]
	if !ok || !b.Mapped {
		return false
	}
	b.Mapped = false
	return true
}

func (d *Device) CreateTexture2D(pixels []uint8, width, height int) uint32 {
	if d.RejectTextures || width <= 0 || height <= 0 {
		return 0
	}
	id := d.name()
	d.Textures[id] = &Texture{Width: width, Height: height, Pixels: append([]uint8(nil), pixels...)}
	return id
}

func (d *Device) IsTexture(tex uint32) bool {
	_, ok := d.Textures[tex]
	return ok
}

func (d *Device) SetTextureWrap(tex uint32, wrap gpu.Wrap) {
	if t, ok := d.Textures[tex]; ok {
		t.Wrap = wrap
	}
}

func (d *Device) DeleteTexture(tex uint32) {
	delete(d.Textures, tex)
}

func (d *Device) CurrentProgram() uint32     { return d.program }
func (d *Device) UseProgram(program uint32)  { d.program = program }
func (d *Device) ActiveTextureUnit() uint32  { return d.unit }
func (d *Device) ActiveTexture(unit uint32)  { d.unit = unit }
func (d *Device) TextureBinding2D() uint32   { return d.units[d.unit] }
func (d *Device) BindTexture2D(tex uint32)   { d.units[d.unit] = tex }
func (d *Device) VertexArrayBinding() uint32 { return d.vao }
func (d *Device) BindVertexArray(vao uint32) { d.vao = vao }

func (d *Device) Uniform1i(loc int32, v int32) {
	if p, ok := d.Programs[d.program]; ok {
		p.Ints[loc] = v
	}
}

func (d *Device) UniformMatrix4(loc int32, mats []mgl32.Mat4) {
	if p, ok := d.Programs[d.program]; ok {
		p.Matrices[loc] = append([]mgl32.Mat4(nil), mats...)
	}
}

func (d *Device) DrawElements(prim gpu.Primitive, count int) {
	d.record(prim, count, true)
}

func (d *Device) DrawArrays(prim gpu.Primitive, count int) {
	d.record(prim, count, false)
}

func (d *Device) record(prim gpu.Primitive, count int, indexed bool) {
	call := DrawCall{
		Program:     d.program,
		VertexArray: d.vao,
		Primitive:   prim,
		Count:       count,
		Indexed:     indexed,
		Textures:    make(map[uint32]uint32),
	}
	for unit, tex := range d.units {
		if tex != 0 {
			call.Textures[unit] = tex
		}
	}
	for _, b := range d.Buffers {
		if b.Mapped {
			call.MappedBuffers++
		}
	}
	d.Draws = append(d.Draws, call)
}

func (d *Device) Error() uint32 {
	if len(d.Errors) == 0 {
		return 0
	}
	code := d.Errors[0]
	d.Errors = d.Errors[1:]
	return code
}
