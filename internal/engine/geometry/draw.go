package geometry

import (
	"strconv"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/rigview/internal/engine/gpu"
	"github.com/Faultbox/rigview/internal/logger"
)

// identityTolerance is the summed absolute difference below which a
// transform counts as identity.
const identityTolerance = 1e-5

// Draw submits the geometry with its program, textures and uniforms, then
// restores the program, texture unit, vertex array and the texture of
// every unit it bound, as they were before the call.
func (g *Geometry) Draw() {
	prev := gpu.Capture(g.dev)
	defer prev.Restore(g.dev)

	if !g.dev.IsProgram(g.program) || !g.dev.IsVertexArray(g.vao) {
		log().Error("cannot draw geometry",
			zap.Uint32("program", g.program),
			zap.Uint32("vao", g.vao),
		)
		return
	}

	g.dev.UseProgram(g.program)

	saved := g.bindTextures()
	g.setUniforms()

	// Mapped buffers cannot be sourced by a draw call.
	for i := range g.attribs {
		if m := g.attribs[i].mapping; m != nil {
			m.Release()
		}
	}

	g.dev.BindVertexArray(g.vao)
	if g.indexCount > 0 {
		g.dev.DrawElements(g.primitive, g.indexCount)
	} else {
		g.dev.DrawArrays(g.primitive, g.vertexCount)
	}

	for u, tex := range saved {
		g.dev.ActiveTexture(uint32(u))
		g.dev.BindTexture2D(tex)
	}

	g.drawn = true
	g.check("Draw")
}

// bindTextures binds each texture whose sampler the program declares to
// consecutive units. It returns what each used unit held before.
func (g *Geometry) bindTextures() []uint32 {
	var saved []uint32
	hasTex := int32(0)
	for _, t := range g.textures {
		if !g.dev.IsTexture(t.Handle) {
			continue
		}
		loc := g.dev.UniformLocation(g.program, t.Name)
		if loc < 0 {
			continue
		}
		if t.Name == SamplerTex {
			hasTex = 1
		}
		unit := uint32(len(saved))
		g.dev.Uniform1i(loc, int32(unit))
		g.dev.ActiveTexture(unit)
		saved = append(saved, g.dev.TextureBinding2D())
		g.dev.BindTexture2D(t.Handle)
	}

	if loc := g.dev.UniformLocation(g.program, UniformHasTex); loc >= 0 {
		g.dev.Uniform1i(loc, hasTex)
	}
	return saved
}

func (g *Geometry) setUniforms() {
	numBones := int32(0)
	if loc := g.dev.UniformLocation(g.program, UniformBoneMat); loc >= 0 && g.Bones != nil {
		g.dev.UniformMatrix4(loc, g.Bones.Matrices)
		numBones = int32(len(g.Bones.Bones))
	}
	if loc := g.dev.UniformLocation(g.program, UniformNumBones); loc >= 0 {
		g.dev.Uniform1i(loc, numBones)
	}

	loc := g.dev.UniformLocation(g.program, UniformTransform)
	if loc >= 0 {
		g.dev.UniformMatrix4(loc, []mgl32.Mat4{g.Matrix})
		return
	}
	if !g.drawn && !isIdentity(g.Matrix) {
		logger.WarnOnce(
			"geomtransform:"+strconv.FormatUint(uint64(g.program), 10),
			"program has no GeomTransform uniform but the geometry transform is not identity; the model may render in the wrong place",
			zap.Uint32("program", g.program),
		)
	}
}

func isIdentity(m mgl32.Mat4) bool {
	id := mgl32.Ident4()
	var diff float32
	for i := range m {
		diff += math32.Abs(m[i] - id[i])
	}
	return diff <= identityTolerance
}
