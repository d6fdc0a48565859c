// Package geometry manages GPU-resident drawable objects.
//
// A Geometry owns a vertex array, one buffer per vertex attribute, an
// optional index buffer and a model transform. Attributes and textures
// are keyed by the GLSL variable they feed, and only exist when the
// program actually declares that variable. Textures are referenced, never
// owned: several geometries may share one.
package geometry

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Faultbox/rigview/internal/engine/gpu"
	"github.com/Faultbox/rigview/internal/logger"
	"github.com/Faultbox/rigview/pkg/scene"
)

// Errors returned by registration calls. The first four indicate a caller
// contract violation.
var (
	ErrInvalidProgram     = errors.New("invalid or unlinked program")
	ErrInvalidVertexArray = errors.New("invalid vertex array")
	ErrCapacity           = errors.New("capacity exceeded")
	ErrIndexCount         = errors.New("index count does not match primitive")
	ErrShortData          = errors.New("attribute data shorter than vertex count")
	ErrMapFailed          = errors.New("buffer could not be mapped")
)

// Uniform names set by Draw when the program declares them.
const (
	SamplerTex       = "tex"
	UniformHasTex    = "HasTex"
	UniformBoneMat   = "BoneMat"
	UniformNumBones  = "NumBones"
	UniformTransform = "GeomTransform"
)

// Options modify texture and program registration.
type Options uint8

const (
	// Warn logs when the named variable is missing from the program.
	Warn Options = 1 << iota
	// FullList applies a List operation to every element rather than
	// only the first.
	FullList
)

// Limits bound the per-geometry registries.
type Limits struct {
	MaxAttributes int
	MaxTextures   int
	MaxBones      int
	// Strict exits the process on overflow instead of returning ErrCapacity.
	Strict bool
	// CheckErrors drains device errors after uploads.
	CheckErrors bool
}

// DefaultLimits returns the limits used when none are configured.
func DefaultLimits() Limits {
	return Limits{MaxAttributes: 16, MaxTextures: 32, MaxBones: 128}
}

// WithDefaults fills each zero Max* field from DefaultLimits and keeps
// the flags as given.
func (l Limits) WithDefaults() Limits {
	def := DefaultLimits()
	if l.MaxAttributes == 0 {
		l.MaxAttributes = def.MaxAttributes
	}
	if l.MaxTextures == 0 {
		l.MaxTextures = def.MaxTextures
	}
	if l.MaxBones == 0 {
		l.MaxBones = def.MaxBones
	}
	return l
}

// Attribute is one registered vertex attribute.
type Attribute struct {
	Name       string
	Components int
	Buffer     uint32
	Location   int32

	mapping *Mapping
}

// Texture is one registered sampler binding.
type Texture struct {
	Name   string
	Handle uint32
}

// Origin points back at the scene data a geometry was imported from.
// It does not own either value.
type Origin struct {
	Scene *scene.Scene
	Node  *scene.Node
	Mesh  int
}

// Geometry is one drawable unit.
type Geometry struct {
	// Matrix is uploaded as GeomTransform on every draw.
	Matrix mgl32.Mat4
	// Bones is nil for rigid meshes.
	Bones *BoneSet
	// Origin is nil for geometry built by hand.
	Origin *Origin

	dev         gpu.Device
	limits      Limits
	vao         uint32
	program     uint32
	vertexCount int
	primitive   gpu.Primitive
	attribs     []Attribute
	textures    []Texture
	indexBuffer uint32
	indexCount  int
	drawn       bool
}

// New allocates a vertex array for a geometry drawn with program.
func New(dev gpu.Device, program uint32, vertexCount int, prim gpu.Primitive, limits Limits) (*Geometry, error) {
	if !dev.IsProgram(program) || !dev.ProgramLinked(program) {
		return nil, errors.Wrapf(ErrInvalidProgram, "program %d", program)
	}
	if vertexCount == 0 {
		log().Warn("geometry has no vertices", zap.Uint32("program", program))
	}

	g := &Geometry{
		Matrix:      mgl32.Ident4(),
		dev:         dev,
		limits:      limits,
		program:     program,
		vertexCount: vertexCount,
		primitive:   prim,
	}
	g.vao = dev.CreateVertexArray()
	if !dev.IsVertexArray(g.vao) {
		return nil, errors.Wrap(ErrInvalidVertexArray, "allocating vertex array")
	}
	return g, nil
}

// Must returns g, or logs err and exits the process.
func Must(g *Geometry, err error) *Geometry {
	if err != nil {
		logger.Fatal("geometry setup failed", zap.Error(err))
	}
	return g
}

func log() *zap.Logger {
	return logger.Named("geometry")
}

// VertexArray returns the vertex array handle.
func (g *Geometry) VertexArray() uint32 { return g.vao }

// Program returns the program the geometry draws with.
func (g *Geometry) Program() uint32 { return g.program }

// VertexCount returns the number of vertices.
func (g *Geometry) VertexCount() int { return g.vertexCount }

// Primitive returns the primitive kind.
func (g *Geometry) Primitive() gpu.Primitive { return g.primitive }

// IndexCount returns the number of registered indices, 0 if unindexed.
func (g *Geometry) IndexCount() int { return g.indexCount }

// Drawn reports whether Draw has submitted this geometry at least once.
func (g *Geometry) Drawn() bool { return g.drawn }

// Attributes returns the registered attributes in registration order.
func (g *Geometry) Attributes() []Attribute { return g.attribs }

// Textures returns the registered textures in registration order.
func (g *Geometry) Textures() []Texture { return g.textures }

// Attribute returns the registered attribute named name.
func (g *Geometry) Attribute(name string) (Attribute, bool) {
	if i := g.attribIndex(name); i >= 0 {
		return g.attribs[i], true
	}
	return Attribute{}, false
}

func (g *Geometry) attribIndex(name string) int {
	for i := range g.attribs {
		if g.attribs[i].Name == name {
			return i
		}
	}
	return -1
}

func (g *Geometry) textureIndex(name string) int {
	for i := range g.textures {
		if g.textures[i].Name == name {
			return i
		}
	}
	return -1
}

// overflow reports a registry growing past limit.
func (l Limits) overflow(what string, limit int) error {
	err := errors.Wrapf(ErrCapacity, "more than %d %s", limit, what)
	if l.Strict {
		logger.Fatal("geometry registry overflow", zap.Error(err))
	}
	return err
}

func (g *Geometry) check(op string) {
	if g.limits.CheckErrors {
		gpu.Check(g.dev, op)
	}
}

// SetAttribute uploads data for the program variable name, with components
// floats per vertex. Registering a name again replaces its buffer. When
// the program has no such variable nothing is allocated.
func (g *Geometry) SetAttribute(name string, data []float32, components int, warnIfMissing bool) error {
	switch {
	case name == "":
		log().Warn("attribute name is empty")
		return nil
	case data == nil:
		log().Warn("attribute data is nil", zap.String("attribute", name))
		return nil
	case components <= 0:
		log().Warn("attribute has no components", zap.String("attribute", name))
		return nil
	case !g.dev.IsVertexArray(g.vao):
		log().Warn("geometry has an invalid vertex array",
			zap.String("attribute", name),
			zap.Uint32("vao", g.vao),
		)
		return nil
	}

	loc := g.dev.AttribLocation(g.program, name)
	if loc < 0 {
		if warnIfMissing {
			log().Warn("attribute missing or inactive in program",
				zap.String("attribute", name),
				zap.Uint32("program", g.program),
			)
		}
		return nil
	}

	need := g.vertexCount * components
	if len(data) < need {
		return errors.Wrapf(ErrShortData, "%s: %d floats for %d vertices of %d components", name, len(data), g.vertexCount, components)
	}

	idx := g.attribIndex(name)
	if idx < 0 {
		if len(g.attribs) >= g.limits.MaxAttributes {
			return g.limits.overflow("attributes", g.limits.MaxAttributes)
		}
		g.attribs = append(g.attribs, Attribute{Name: name})
		idx = len(g.attribs) - 1
	} else {
		g.release(&g.attribs[idx])
	}

	a := &g.attribs[idx]
	a.Components = components
	a.Location = loc
	a.Buffer = g.dev.CreateArrayBuffer(data[:need])
	g.dev.BindAttribute(g.vao, a.Buffer, uint32(loc), int32(components))
	g.check("SetAttribute " + name)
	return nil
}

// release drops an attribute's buffer, unmapping it first if needed.
func (g *Geometry) release(a *Attribute) {
	if a.mapping != nil {
		a.mapping.Release()
	}
	if g.dev.IsBuffer(a.Buffer) {
		g.dev.DeleteBuffer(a.Buffer)
	}
	a.Buffer = 0
}

// SetIndices uploads an index buffer. Triangles need a multiple of three
// indices and Lines a multiple of two. Indices past the vertex count are
// logged but still uploaded.
func (g *Geometry) SetIndices(indices []uint32) error {
	n := len(indices)
	if n == 0 {
		log().Warn("index list is empty")
		return nil
	}
	switch {
	case g.primitive == gpu.Triangles && n%3 != 0:
		return errors.Wrapf(ErrIndexCount, "%d indices for triangles", n)
	case g.primitive == gpu.Lines && n%2 != 0:
		return errors.Wrapf(ErrIndexCount, "%d indices for lines", n)
	}

	for i, idx := range indices {
		if int(idx) >= g.vertexCount {
			log().Warn("index out of range",
				zap.Int("position", i),
				zap.Uint32("index", idx),
				zap.Int("vertices", g.vertexCount),
			)
		}
	}

	if g.dev.IsBuffer(g.indexBuffer) {
		g.dev.DeleteBuffer(g.indexBuffer)
	}
	g.indexBuffer = g.dev.CreateIndexBuffer(g.vao, indices)
	g.indexCount = n
	g.check("SetIndices")
	return nil
}

// SetTexture binds tex to the sampler name. Registering a name again
// replaces the handle. The texture is not owned.
func (g *Geometry) SetTexture(tex uint32, name string, opts Options) error {
	switch {
	case name == "":
		log().Warn("sampler name is empty")
		return nil
	case tex == 0:
		log().Warn("texture handle is zero", zap.String("sampler", name))
		return nil
	case !g.dev.IsTexture(tex):
		log().Warn("invalid texture", zap.Uint32("texture", tex), zap.String("sampler", name))
		return nil
	case !g.dev.IsVertexArray(g.vao):
		log().Warn("geometry has an invalid vertex array",
			zap.String("sampler", name),
			zap.Uint32("vao", g.vao),
		)
		return nil
	}

	if g.dev.UniformLocation(g.program, name) < 0 {
		if opts&Warn != 0 {
			log().Warn("sampler missing in program",
				zap.String("sampler", name),
				zap.Uint32("program", g.program),
			)
		}
		return nil
	}

	if i := g.textureIndex(name); i >= 0 {
		g.textures[i].Handle = tex
		return nil
	}
	if len(g.textures) >= g.limits.MaxTextures {
		return g.limits.overflow("textures", g.limits.MaxTextures)
	}
	g.textures = append(g.textures, Texture{Name: name, Handle: tex})
	return nil
}

// SetProgram switches the geometry to program and rewires every attribute
// buffer to the program's locations. Uniforms are looked up at draw time.
func (g *Geometry) SetProgram(program uint32) error {
	if !g.dev.IsProgram(program) {
		log().Warn("program is not valid", zap.Uint32("program", program))
	}
	g.program = program

	for i := range g.attribs {
		a := &g.attribs[i]
		loc := g.dev.AttribLocation(program, a.Name)
		a.Location = loc
		if loc < 0 {
			log().Debug("attribute inactive in new program",
				zap.String("attribute", a.Name),
				zap.Uint32("program", program),
			)
			continue
		}
		g.dev.BindAttribute(g.vao, a.Buffer, uint32(loc), int32(a.Components))
	}
	g.check("SetProgram")
	return nil
}

// Delete releases the attribute buffers, the index buffer and the vertex
// array. Textures are left alone. Deleting twice is harmless.
func (g *Geometry) Delete() {
	for i := range g.attribs {
		g.release(&g.attribs[i])
	}
	g.attribs = nil

	if g.dev.IsBuffer(g.indexBuffer) {
		g.dev.DeleteBuffer(g.indexBuffer)
	}
	g.indexBuffer = 0
	g.indexCount = 0

	if g.dev.IsVertexArray(g.vao) {
		g.dev.DeleteVertexArray(g.vao)
	}
	g.vao = 0
	g.textures = nil
}
