// Package importer turns a scene into drawable geometry.
//
// Each mesh reference in the node tree becomes one geometry.Geometry with
// position, normal, color, texture coordinate and, for skinned meshes,
// bone index and weight attributes. Diffuse textures are loaded once per
// import through a TextureCache that travels with the returned Model.
package importer

import (
	"sort"

	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Faultbox/rigview/internal/assets"
	"github.com/Faultbox/rigview/internal/engine/animation"
	"github.com/Faultbox/rigview/internal/engine/bounds"
	"github.com/Faultbox/rigview/internal/engine/geometry"
	"github.com/Faultbox/rigview/internal/engine/gpu"
	"github.com/Faultbox/rigview/internal/engine/texture"
	"github.com/Faultbox/rigview/internal/logger"
	"github.com/Faultbox/rigview/pkg/scene"
)

// Vertex attribute names the importer feeds.
const (
	AttribPosition   = "in_Position"
	AttribNormal     = "in_Normal"
	AttribColor      = "in_Color"
	AttribTexCoord   = "in_TexCoord"
	AttribBoneIndex  = "in_BoneIndex"
	AttribBoneWeight = "in_BoneWeight"
)

// MaxInfluences is the number of bones that may weight one vertex.
const MaxInfluences = 4

// ErrEmptyScene is returned for a scene without a root node.
var ErrEmptyScene = errors.New("scene has no root node")

// TextureLoader uploads an image file and returns its handle.
type TextureLoader interface {
	Load(path string) (uint32, error)
}

// Options configure Import.
type Options struct {
	// Program is the linked program every geometry draws with.
	Program uint32
	// TextureDir overrides the model's directory for texture lookups.
	TextureDir string
	// Zero Max* fields default to geometry.DefaultLimits.
	Limits geometry.Limits
	// Textures defaults to a texture.Loader on the import device.
	Textures TextureLoader
}

// Model is an imported scene ready to draw.
type Model struct {
	Scene      *scene.Scene
	Geometries geometry.List
	// Bounds is the bind-pose bounding box in model space.
	Bounds   bounds.Box
	Textures *assets.TextureCache

	dev gpu.Device
}

var dumpConfig = spew.ConfigState{
	Indent:                  "  ",
	MaxDepth:                3,
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

func log() *zap.Logger {
	return logger.Named("importer")
}

type importer struct {
	dev     gpu.Device
	scene   *scene.Scene
	opts    Options
	cache   *assets.TextureCache
	list    geometry.List
	skipped int
}

// Import builds one geometry per mesh reference in s, walking nodes
// parents first. Meshes that cannot be drawn are skipped with a
// diagnostic; an invalid program or a capacity overflow aborts the import
// and releases everything built so far.
func Import(dev gpu.Device, s *scene.Scene, opts Options) (*Model, error) {
	if s == nil || s.Root == nil {
		return nil, ErrEmptyScene
	}
	opts.Limits = opts.Limits.WithDefaults()
	if opts.Textures == nil {
		opts.Textures = texture.NewLoader(dev)
	}

	im := &importer{
		dev:   dev,
		scene: s,
		opts:  opts,
		cache: assets.NewTextureCache(),
	}

	var err error
	s.Walk(func(n *scene.Node) bool {
		if err != nil {
			return false
		}
		for _, mi := range n.Meshes {
			if err = im.addMesh(n, mi); err != nil {
				return false
			}
		}
		return true
	})
	if err != nil {
		im.abort()
		return nil, err
	}

	m := &Model{
		Scene:      s,
		Geometries: im.list,
		Textures:   im.cache,
		dev:        dev,
	}
	m.Pose(0, animation.BindPose)
	m.Bounds = bounds.Compute(s)

	hits, misses := im.cache.Stats()
	log().Info("scene imported",
		zap.String("path", s.Path),
		zap.Int("nodes", s.NodeCount()),
		zap.Int("meshes", len(s.Meshes)),
		zap.Int("materials", len(s.Materials)),
		zap.Int("animations", len(s.Animations)),
		zap.Int("geometries", len(im.list)),
		zap.Int("skipped", im.skipped),
		zap.Int("textures", len(im.cache.Handles())),
		zap.Int("texture_cache_hits", hits),
		zap.Int("texture_cache_misses", misses),
	)
	log().Debug("scene bounds",
		zap.Float32s("min", m.Bounds.Min[:]),
		zap.Float32s("max", m.Bounds.Max[:]),
		zap.Float32s("center", centerOf(m.Bounds)),
	)
	if logger.Log.Core().Enabled(zapcore.DebugLevel) {
		log().Debug("materials", zap.String("dump", dumpConfig.Sdump(s.Materials)))
	}
	return m, nil
}

func centerOf(b bounds.Box) []float32 {
	c := b.Center()
	return c[:]
}

// abort releases everything built before a fatal error.
func (im *importer) abort() {
	im.list.Delete()
	for _, h := range im.cache.Handles() {
		im.dev.DeleteTexture(h)
	}
	im.cache.Clear()
	im.list = nil
}

// primitive maps a mesh's primitive bits to a draw mode and the number of
// indices per face.
func primitive(p scene.PrimitiveType) (gpu.Primitive, int, bool) {
	switch p {
	case scene.PrimitivePoint:
		return gpu.Points, 1, true
	case scene.PrimitiveLine:
		return gpu.Lines, 2, true
	case scene.PrimitiveTriangle:
		return gpu.Triangles, 3, true
	}
	return 0, 0, false
}

func (im *importer) skip(msg string, fields ...zap.Field) {
	im.skipped++
	log().Warn(msg, fields...)
}

func (im *importer) addMesh(n *scene.Node, mi int) error {
	if mi < 0 || mi >= len(im.scene.Meshes) {
		im.skip("node references a missing mesh", zap.String("node", n.Name), zap.Int("mesh", mi))
		return nil
	}
	mesh := im.scene.Meshes[mi]
	fields := []zap.Field{zap.String("node", n.Name), zap.String("mesh", mesh.Name), zap.Int("index", mi)}

	switch bits := mesh.Primitives; {
	case bits == 0:
		im.skipped++
		log().Error("mesh declares no primitive type", fields...)
		return nil
	case bits.Count() > 1:
		im.skip("mesh mixes primitive types; triangulate it first", fields...)
		return nil
	case bits == scene.PrimitivePolygon:
		im.skip("polygon meshes are not supported", fields...)
		return nil
	}
	prim, perFace, _ := primitive(mesh.Primitives)

	count := len(mesh.Vertices)
	if count == 0 {
		im.skip("mesh has no vertices", fields...)
		return nil
	}

	g, err := geometry.New(im.dev, im.opts.Program, count, prim, im.opts.Limits)
	if err != nil {
		return errors.Wrapf(err, "mesh %q", mesh.Name)
	}
	g.Origin = &geometry.Origin{Scene: im.scene, Node: n, Mesh: mi}
	im.list = append(im.list, g)

	if err := im.setAttributes(g, mesh, fields); err != nil {
		return errors.Wrapf(err, "mesh %q", mesh.Name)
	}
	if err := im.setBones(g, mesh, mi, fields); err != nil {
		return errors.Wrapf(err, "mesh %q", mesh.Name)
	}
	if err := im.setIndices(g, mesh, perFace, fields); err != nil {
		return errors.Wrapf(err, "mesh %q", mesh.Name)
	}
	if err := im.setTexture(g, mesh); err != nil {
		return errors.Wrapf(err, "mesh %q", mesh.Name)
	}
	return nil
}

func (im *importer) setAttributes(g *geometry.Geometry, mesh *scene.Mesh, fields []zap.Field) error {
	count := len(mesh.Vertices)

	pos := make([]float32, 0, count*3)
	for _, v := range mesh.Vertices {
		pos = append(pos, v[0], v[1], v[2])
	}
	if err := g.SetAttribute(AttribPosition, pos, 3, true); err != nil {
		return err
	}

	if len(mesh.Normals) == count {
		nrm := make([]float32, 0, count*3)
		for _, v := range mesh.Normals {
			nrm = append(nrm, v[0], v[1], v[2])
		}
		if err := g.SetAttribute(AttribNormal, nrm, 3, true); err != nil {
			return err
		}
	} else {
		log().Debug("mesh has no normals", fields...)
	}

	col := make([]float32, 0, count*3)
	if len(mesh.Colors) == count {
		for _, c := range mesh.Colors {
			col = append(col, c[0], c[1], c[2])
		}
	} else {
		c := [3]float32{1, 1, 1}
		if mat := im.scene.Material(mesh); mat != nil && mat.HasDiffuse {
			c = [3]float32{mat.Diffuse[0], mat.Diffuse[1], mat.Diffuse[2]}
		}
		for i := 0; i < count; i++ {
			col = append(col, c[0], c[1], c[2])
		}
	}
	if err := g.SetAttribute(AttribColor, col, 3, false); err != nil {
		return err
	}

	if len(mesh.TexCoords) != count {
		log().Warn("mesh has no texture coordinates", fields...)
		return nil
	}
	uv := make([]float32, 0, count*2)
	for _, t := range mesh.TexCoords {
		uv = append(uv, t[0], t[1])
	}
	return g.SetAttribute(AttribTexCoord, uv, 2, true)
}

type influence struct {
	bone   int
	weight float32
}

// setBones uploads up to MaxInfluences bone indices and weights per
// vertex, keeping the heaviest when a vertex has more.
func (im *importer) setBones(g *geometry.Geometry, mesh *scene.Mesh, mi int, fields []zap.Field) error {
	if len(mesh.Bones) == 0 {
		return nil
	}
	bs, err := im.opts.Limits.NewBoneSet(mi, mesh.Bones)
	if err != nil {
		return err
	}
	g.Bones = bs

	count := len(mesh.Vertices)
	per := make([][]influence, count)
	for bi, b := range mesh.Bones {
		for _, w := range b.Weights {
			if int(w.Vertex) >= count {
				log().Warn("bone weights a vertex past the end of the mesh",
					append(fields, zap.String("bone", b.Name), zap.Uint32("vertex", w.Vertex))...)
				continue
			}
			per[w.Vertex] = append(per[w.Vertex], influence{bone: bi, weight: w.Weight})
		}
	}

	indices := make([]float32, count*MaxInfluences)
	weights := make([]float32, count*MaxInfluences)
	unweighted, dropped := 0, 0
	for v, inf := range per {
		if len(inf) == 0 {
			unweighted++
			continue
		}
		if len(inf) > MaxInfluences {
			sort.SliceStable(inf, func(i, j int) bool { return inf[i].weight > inf[j].weight })
			dropped += len(inf) - MaxInfluences
			inf = inf[:MaxInfluences]
		}
		for k, in := range inf {
			indices[v*MaxInfluences+k] = float32(in.bone)
			weights[v*MaxInfluences+k] = in.weight
		}
	}
	if unweighted > 0 {
		log().Warn("vertices without bone weights", append(fields, zap.Int("vertices", unweighted))...)
	}
	if dropped > 0 {
		log().Debug("dropped light bone influences", append(fields, zap.Int("influences", dropped))...)
	}

	if err := g.SetAttribute(AttribBoneIndex, indices, MaxInfluences, true); err != nil {
		return err
	}
	return g.SetAttribute(AttribBoneWeight, weights, MaxInfluences, true)
}

func (im *importer) setIndices(g *geometry.Geometry, mesh *scene.Mesh, perFace int, fields []zap.Field) error {
	indices := make([]uint32, 0, len(mesh.Faces)*perFace)
	bad := 0
	for _, f := range mesh.Faces {
		if len(f) != perFace {
			bad++
			continue
		}
		indices = append(indices, f...)
	}
	if bad > 0 {
		log().Warn("skipped faces with the wrong number of indices",
			append(fields, zap.Int("faces", bad), zap.Int("expected", perFace))...)
	}
	if len(indices) == 0 {
		return nil
	}
	return g.SetIndices(indices)
}

// setTexture binds the material's diffuse texture as the "tex" sampler.
// Missing files leave the mesh untextured.
func (im *importer) setTexture(g *geometry.Geometry, mesh *scene.Mesh) error {
	mat := im.scene.Material(mesh)
	if mat == nil {
		return nil
	}
	for kind, n := range mat.Textures {
		log().Debug("material texture kind not loaded",
			zap.String("material", mat.Name), zap.String("kind", kind), zap.Int("count", n))
	}
	if mat.DiffuseTexture == "" {
		return nil
	}

	path := assets.TexturePath(mat.DiffuseTexture, im.scene.Path, im.opts.TextureDir)
	tex, ok := im.cache.Get(path)
	if !ok {
		var err error
		tex, err = im.opts.Textures.Load(path)
		if err != nil {
			log().Warn("texture not loaded", zap.String("material", mat.Name), zap.Error(err))
			tex = 0
		}
		im.cache.Set(path, tex)
	}
	if tex == 0 {
		return nil
	}

	im.dev.SetTextureWrap(tex, gpu.Repeat)
	return g.SetTexture(tex, geometry.SamplerTex, geometry.Warn)
}

// Pose evaluates animation anim at seconds; a negative time selects the
// bind pose.
func (m *Model) Pose(anim int, seconds float64) {
	animation.Evaluate(m.Geometries, anim, seconds)
}

// Animations returns the number of animations in the scene.
func (m *Model) Animations() int {
	return len(m.Scene.Animations)
}

// Delete releases the geometries and every texture the import loaded.
func (m *Model) Delete() {
	m.Geometries.Delete()
	m.Geometries = nil
	if m.Textures == nil {
		return
	}
	for _, h := range m.Textures.Handles() {
		if m.dev.IsTexture(h) {
			m.dev.DeleteTexture(h)
		}
	}
	m.Textures.Clear()
}
