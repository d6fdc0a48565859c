// Package scene holds an imported model in memory: the node hierarchy,
// meshes with their skin, materials and keyframed animations.
//
// Values are produced by an external importer (or Decode, for the YAML
// scene document) and are read-only to the engine, except that the
// animation evaluator reads them every frame.
package scene

import (
	"github.com/go-gl/mathgl/mgl32"
)

// PrimitiveType is a bit set of the primitive kinds a mesh contains.
type PrimitiveType uint8

const (
	PrimitivePoint PrimitiveType = 1 << iota
	PrimitiveLine
	PrimitiveTriangle
	PrimitivePolygon
)

// Count returns the number of primitive kinds set.
func (p PrimitiveType) Count() int {
	n := 0
	for v := p; v != 0; v &= v - 1 {
		n++
	}
	return n
}

// Scene is an imported model.
type Scene struct {
	// Path is the file the scene was read from. Relative texture paths
	// resolve against its directory.
	Path       string
	Root       *Node
	Meshes     []*Mesh
	Materials  []*Material
	Animations []*Animation
}

// Node is one element of the transform hierarchy.
type Node struct {
	Name      string
	Transform mgl32.Mat4
	Children  []*Node
	// Meshes indexes Scene.Meshes.
	Meshes []int
	// Parent is nil for the root.
	Parent *Node
}

// Mesh is a single-material vertex set.
type Mesh struct {
	Name       string
	Primitives PrimitiveType
	Vertices   []mgl32.Vec3
	Normals    []mgl32.Vec3
	Colors     []mgl32.Vec4
	TexCoords  []mgl32.Vec2
	Faces      [][]uint32
	Bones      []*Bone
	// Material indexes Scene.Materials, -1 for none.
	Material int
}

// Bone deforms the vertices it weights.
type Bone struct {
	// Name matches the Node driving the bone.
	Name string
	// Offset maps mesh space to bone space in bind pose.
	Offset  mgl32.Mat4
	Weights []VertexWeight
}

// VertexWeight is one bone influence.
type VertexWeight struct {
	Vertex uint32
	Weight float32
}

// Material carries the properties the renderer uses.
type Material struct {
	Name           string
	Diffuse        mgl32.Vec4
	HasDiffuse     bool
	DiffuseTexture string
	// Textures counts textures of other kinds, keyed by kind. They are
	// reported but not loaded.
	Textures map[string]int
}

// Animation is a set of channels sharing a timeline measured in ticks.
type Animation struct {
	Name           string
	Duration       float64
	TicksPerSecond float64
	Channels       []*Channel
}

// Channel animates one node. Each track is sorted by time.
type Channel struct {
	Node      string
	Positions []VectorKey
	Rotations []QuatKey
	Scalings  []VectorKey
}

// VectorKey is a position or scale keyframe.
type VectorKey struct {
	Time  float64
	Value mgl32.Vec3
}

// QuatKey is a rotation keyframe.
type QuatKey struct {
	Time  float64
	Value mgl32.Quat
}

// DefaultTicksPerSecond is used when an animation does not declare a rate.
const DefaultTicksPerSecond = 25.0

// Rate returns the tick rate, substituting DefaultTicksPerSecond for zero.
func (a *Animation) Rate() float64 {
	if a.TicksPerSecond > 0 {
		return a.TicksPerSecond
	}
	return DefaultTicksPerSecond
}

// Seconds returns the animation length in seconds.
func (a *Animation) Seconds() float64 {
	return a.Duration / a.Rate()
}

// Channel returns the channel driving node, or nil.
func (a *Animation) Channel(node string) *Channel {
	for _, c := range a.Channels {
		if c.Node == node {
			return c
		}
	}
	return nil
}

// Link sets Parent on every node below the root.
func (s *Scene) Link() {
	if s.Root == nil {
		return
	}
	s.Root.Parent = nil
	s.Walk(func(n *Node) bool {
		for _, c := range n.Children {
			c.Parent = n
		}
		return true
	})
}

// Walk visits nodes depth-first, parents before children, in child order.
// Returning false from fn skips that node's subtree.
func (s *Scene) Walk(fn func(*Node) bool) {
	if s.Root == nil {
		return
	}
	stack := []*Node{s.Root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(n) {
			continue
		}
		for i := len(n.Children) - 1; i >= 0; i-- {
			stack = append(stack, n.Children[i])
		}
	}
}

// FindNode returns the first node named name in depth-first order, or nil.
func (s *Scene) FindNode(name string) *Node {
	var found *Node
	s.Walk(func(n *Node) bool {
		if found != nil {
			return false
		}
		if n.Name == name {
			found = n
			return false
		}
		return true
	})
	return found
}

// NodeCount returns the number of nodes in the hierarchy.
func (s *Scene) NodeCount() int {
	n := 0
	s.Walk(func(*Node) bool {
		n++
		return true
	})
	return n
}

// Material returns the mesh's material, or nil.
func (s *Scene) Material(m *Mesh) *Material {
	if m.Material < 0 || m.Material >= len(s.Materials) {
		return nil
	}
	return s.Materials[m.Material]
}

// Path returns the chain of nodes from the root down to n.
func (n *Node) Path() []*Node {
	var chain []*Node
	for p := n; p != nil; p = p.Parent {
		chain = append(chain, p)
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

// FindBone returns the bone named name, or nil.
func (m *Mesh) FindBone(name string) *Bone {
	for _, b := range m.Bones {
		if b.Name == name {
			return b
		}
	}
	return nil
}
