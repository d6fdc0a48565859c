package scene

import (
	"io"
	"os"
	"sort"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// The YAML scene document is a plain dump of an already parsed model,
// used for fixtures and by the command-line tools.

type document struct {
	Root       *nodeDoc       `yaml:"root"`
	Meshes     []meshDoc      `yaml:"meshes"`
	Materials  []materialDoc  `yaml:"materials"`
	Animations []animationDoc `yaml:"animations"`
}

// transformDoc is either a column-major matrix or a TRS decomposition.
type transformDoc struct {
	Matrix      []float32 `yaml:"matrix,omitempty"`
	Translation []float32 `yaml:"translation,omitempty"`
	Rotation    []float32 `yaml:"rotation,omitempty"` // x, y, z, w
	Scale       []float32 `yaml:"scale,omitempty"`
}

type nodeDoc struct {
	Name         string `yaml:"name"`
	transformDoc `yaml:",inline"`
	Meshes       []int      `yaml:"meshes,omitempty"`
	Children     []*nodeDoc `yaml:"children,omitempty"`
}

type boneDoc struct {
	Name         string `yaml:"name"`
	transformDoc `yaml:",inline"`
	Weights      [][]float64 `yaml:"weights"` // vertex, weight
}

type meshDoc struct {
	Name       string      `yaml:"name"`
	Primitives []string    `yaml:"primitives"`
	Positions  [][]float32 `yaml:"positions"`
	Normals    [][]float32 `yaml:"normals,omitempty"`
	Colors     [][]float32 `yaml:"colors,omitempty"`
	UVs        [][]float32 `yaml:"uvs,omitempty"`
	Faces      [][]uint32  `yaml:"faces"`
	Material   *int        `yaml:"material,omitempty"`
	Bones      []boneDoc   `yaml:"bones,omitempty"`
}

type materialDoc struct {
	Name     string         `yaml:"name"`
	Diffuse  []float32      `yaml:"diffuse,omitempty"`
	Texture  string         `yaml:"texture,omitempty"`
	Textures map[string]int `yaml:"textures,omitempty"`
}

type animationDoc struct {
	Name           string       `yaml:"name"`
	Duration       float64      `yaml:"duration"`
	TicksPerSecond float64      `yaml:"ticks_per_second"`
	Channels       []channelDoc `yaml:"channels"`
}

type channelDoc struct {
	Node      string      `yaml:"node"`
	Positions [][]float64 `yaml:"positions,omitempty"` // time, x, y, z
	Rotations [][]float64 `yaml:"rotations,omitempty"` // time, x, y, z, w
	Scalings  [][]float64 `yaml:"scalings,omitempty"`  // time, x, y, z
}

var primitiveNames = map[string]PrimitiveType{
	"point":    PrimitivePoint,
	"line":     PrimitiveLine,
	"triangle": PrimitiveTriangle,
	"polygon":  PrimitivePolygon,
}

// LoadFile reads a YAML scene document from path.
func LoadFile(path string) (*Scene, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening scene")
	}
	defer f.Close()

	s, err := Decode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "decoding %s", path)
	}
	s.Path = path
	return s, nil
}

// Decode reads a YAML scene document. The returned scene is linked.
func Decode(r io.Reader) (*Scene, error) {
	var doc document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errors.Wrap(err, "parsing yaml")
	}
	if doc.Root == nil {
		return nil, errors.New("scene has no root node")
	}

	s := &Scene{}
	for i, md := range doc.Meshes {
		m, err := md.build(len(doc.Materials))
		if err != nil {
			return nil, errors.Wrapf(err, "mesh %d (%s)", i, md.Name)
		}
		s.Meshes = append(s.Meshes, m)
	}
	for i, md := range doc.Materials {
		m, err := md.build()
		if err != nil {
			return nil, errors.Wrapf(err, "material %d (%s)", i, md.Name)
		}
		s.Materials = append(s.Materials, m)
	}
	root, err := doc.Root.build(len(s.Meshes))
	if err != nil {
		return nil, err
	}
	s.Root = root
	for i, ad := range doc.Animations {
		a, err := ad.build()
		if err != nil {
			return nil, errors.Wrapf(err, "animation %d (%s)", i, ad.Name)
		}
		s.Animations = append(s.Animations, a)
	}

	s.Link()
	return s, nil
}

func (t transformDoc) build() (mgl32.Mat4, error) {
	if len(t.Matrix) > 0 {
		if len(t.Matrix) != 16 {
			return mgl32.Mat4{}, errors.Errorf("matrix needs 16 values, got %d", len(t.Matrix))
		}
		var m mgl32.Mat4
		copy(m[:], t.Matrix)
		return m, nil
	}

	m := mgl32.Ident4()
	if len(t.Translation) > 0 {
		v, err := vec3(t.Translation, "translation")
		if err != nil {
			return m, err
		}
		m = m.Mul4(mgl32.Translate3D(v[0], v[1], v[2]))
	}
	if len(t.Rotation) > 0 {
		if len(t.Rotation) != 4 {
			return m, errors.Errorf("rotation needs 4 values, got %d", len(t.Rotation))
		}
		q := mgl32.Quat{W: t.Rotation[3], V: mgl32.Vec3{t.Rotation[0], t.Rotation[1], t.Rotation[2]}}
		m = m.Mul4(q.Normalize().Mat4())
	}
	if len(t.Scale) > 0 {
		v, err := vec3(t.Scale, "scale")
		if err != nil {
			return m, err
		}
		m = m.Mul4(mgl32.Scale3D(v[0], v[1], v[2]))
	}
	return m, nil
}

func vec3(v []float32, what string) (mgl32.Vec3, error) {
	if len(v) != 3 {
		return mgl32.Vec3{}, errors.Errorf("%s needs 3 values, got %d", what, len(v))
	}
	return mgl32.Vec3{v[0], v[1], v[2]}, nil
}

func (nd *nodeDoc) build(meshCount int) (*Node, error) {
	m, err := nd.transformDoc.build()
	if err != nil {
		return nil, errors.Wrapf(err, "node %s", nd.Name)
	}
	for _, idx := range nd.Meshes {
		if idx < 0 || idx >= meshCount {
			return nil, errors.Errorf("node %s references mesh %d of %d", nd.Name, idx, meshCount)
		}
	}
	n := &Node{Name: nd.Name, Transform: m, Meshes: nd.Meshes}
	for _, cd := range nd.Children {
		c, err := cd.build(meshCount)
		if err != nil {
			return nil, err
		}
		n.Children = append(n.Children, c)
	}
	return n, nil
}

func (md meshDoc) build(materialCount int) (*Mesh, error) {
	m := &Mesh{Name: md.Name, Material: -1, Faces: md.Faces}
	for _, p := range md.Primitives {
		bit, ok := primitiveNames[strings.ToLower(p)]
		if !ok {
			return nil, errors.Errorf("unknown primitive %q", p)
		}
		m.Primitives |= bit
	}
	if md.Material != nil {
		if *md.Material < 0 || *md.Material >= materialCount {
			return nil, errors.Errorf("material %d of %d", *md.Material, materialCount)
		}
		m.Material = *md.Material
	}

	n := len(md.Positions)
	for i, p := range md.Positions {
		v, err := vec3(p, "position")
		if err != nil {
			return nil, errors.Wrapf(err, "vertex %d", i)
		}
		m.Vertices = append(m.Vertices, v)
	}
	if err := perVertex(len(md.Normals), n, "normals"); err != nil {
		return nil, err
	}
	for i, p := range md.Normals {
		v, err := vec3(p, "normal")
		if err != nil {
			return nil, errors.Wrapf(err, "vertex %d", i)
		}
		m.Normals = append(m.Normals, v)
	}
	if err := perVertex(len(md.Colors), n, "colors"); err != nil {
		return nil, err
	}
	for i, c := range md.Colors {
		switch len(c) {
		case 3:
			m.Colors = append(m.Colors, mgl32.Vec4{c[0], c[1], c[2], 1})
		case 4:
			m.Colors = append(m.Colors, mgl32.Vec4{c[0], c[1], c[2], c[3]})
		default:
			return nil, errors.Errorf("vertex %d: color needs 3 or 4 values, got %d", i, len(c))
		}
	}
	if err := perVertex(len(md.UVs), n, "uvs"); err != nil {
		return nil, err
	}
	for i, uv := range md.UVs {
		if len(uv) < 2 {
			return nil, errors.Errorf("vertex %d: uv needs 2 values, got %d", i, len(uv))
		}
		m.TexCoords = append(m.TexCoords, mgl32.Vec2{uv[0], uv[1]})
	}

	for _, bd := range md.Bones {
		offset, err := bd.transformDoc.build()
		if err != nil {
			return nil, errors.Wrapf(err, "bone %s", bd.Name)
		}
		b := &Bone{Name: bd.Name, Offset: offset}
		for _, w := range bd.Weights {
			if len(w) != 2 || w[0] < 0 {
				return nil, errors.Errorf("bone %s: weight needs vertex and weight", bd.Name)
			}
			b.Weights = append(b.Weights, VertexWeight{Vertex: uint32(w[0]), Weight: float32(w[1])})
		}
		m.Bones = append(m.Bones, b)
	}
	return m, nil
}

func perVertex(got, want int, what string) error {
	if got != 0 && got != want {
		return errors.Errorf("%d %s for %d vertices", got, what, want)
	}
	return nil
}

func (md materialDoc) build() (*Material, error) {
	m := &Material{Name: md.Name, DiffuseTexture: md.Texture, Textures: md.Textures}
	switch len(md.Diffuse) {
	case 0:
	case 3:
		m.Diffuse = mgl32.Vec4{md.Diffuse[0], md.Diffuse[1], md.Diffuse[2], 1}
		m.HasDiffuse = true
	case 4:
		m.Diffuse = mgl32.Vec4{md.Diffuse[0], md.Diffuse[1], md.Diffuse[2], md.Diffuse[3]}
		m.HasDiffuse = true
	default:
		return nil, errors.Errorf("diffuse needs 3 or 4 values, got %d", len(md.Diffuse))
	}
	return m, nil
}

func (ad animationDoc) build() (*Animation, error) {
	a := &Animation{Name: ad.Name, Duration: ad.Duration, TicksPerSecond: ad.TicksPerSecond}
	for _, cd := range ad.Channels {
		c := &Channel{Node: cd.Node}
		for _, k := range cd.Positions {
			if len(k) != 4 {
				return nil, errors.Errorf("channel %s: position key needs time and 3 values", cd.Node)
			}
			c.Positions = append(c.Positions, VectorKey{Time: k[0], Value: mgl32.Vec3{float32(k[1]), float32(k[2]), float32(k[3])}})
		}
		for _, k := range cd.Rotations {
			if len(k) != 5 {
				return nil, errors.Errorf("channel %s: rotation key needs time and 4 values", cd.Node)
			}
			q := mgl32.Quat{W: float32(k[4]), V: mgl32.Vec3{float32(k[1]), float32(k[2]), float32(k[3])}}
			c.Rotations = append(c.Rotations, QuatKey{Time: k[0], Value: q.Normalize()})
		}
		for _, k := range cd.Scalings {
			if len(k) != 4 {
				return nil, errors.Errorf("channel %s: scaling key needs time and 3 values", cd.Node)
			}
			c.Scalings = append(c.Scalings, VectorKey{Time: k[0], Value: mgl32.Vec3{float32(k[1]), float32(k[2]), float32(k[3])}})
		}
		if !sort.SliceIsSorted(c.Positions, func(i, j int) bool { return c.Positions[i].Time < c.Positions[j].Time }) ||
			!sort.SliceIsSorted(c.Rotations, func(i, j int) bool { return c.Rotations[i].Time < c.Rotations[j].Time }) ||
			!sort.SliceIsSorted(c.Scalings, func(i, j int) bool { return c.Scalings[i].Time < c.Scalings[j].Time }) {
			return nil, errors.Errorf("channel %s: keys are not sorted by time", cd.Node)
		}
		a.Channels = append(a.Channels, c)
	}
	return a, nil
}
