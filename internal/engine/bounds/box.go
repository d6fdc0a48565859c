// Package bounds computes axis-aligned bounding boxes of imported scenes.
package bounds

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/rigview/pkg/scene"
)

// WireframeVertexCount is the number of line vertices returned by Wireframe.
const WireframeVertexCount = 24

// Box is an axis-aligned bounding box.
type Box struct {
	Min, Max mgl32.Vec3
}

// Empty returns a box that contains nothing; adding any point makes it
// that point.
func Empty() Box {
	return Box{
		Min: mgl32.Vec3{math32.MaxFloat32, math32.MaxFloat32, math32.MaxFloat32},
		Max: mgl32.Vec3{-math32.MaxFloat32, -math32.MaxFloat32, -math32.MaxFloat32},
	}
}

// IsEmpty reports whether the box contains no point.
func (b Box) IsEmpty() bool {
	return b.Min[0] > b.Max[0] || b.Min[1] > b.Max[1] || b.Min[2] > b.Max[2]
}

// Add grows the box to contain p.
func (b Box) Add(p mgl32.Vec3) Box {
	for i := 0; i < 3; i++ {
		b.Min[i] = math32.Min(b.Min[i], p[i])
		b.Max[i] = math32.Max(b.Max[i], p[i])
	}
	return b
}

// Union returns the smallest box containing b and o.
func (b Box) Union(o Box) Box {
	if o.IsEmpty() {
		return b
	}
	return b.Add(o.Min).Add(o.Max)
}

// Compute bounds every mesh vertex of s in world space, using the authored
// node transforms.
func Compute(s *scene.Scene) Box {
	b := Empty()
	if s == nil || s.Root == nil {
		return b
	}
	computeNode(s, s.Root, mgl32.Ident4(), &b)
	return b
}

// computeNode takes the parent transform by value, so siblings always see
// the transform their parent was reached with.
func computeNode(s *scene.Scene, n *scene.Node, parent mgl32.Mat4, b *Box) {
	m := parent.Mul4(n.Transform)

	for _, mi := range n.Meshes {
		if mi < 0 || mi >= len(s.Meshes) {
			continue
		}
		for _, v := range s.Meshes[mi].Vertices {
			*b = b.Add(mgl32.TransformCoordinate(v, m))
		}
	}
	for _, c := range n.Children {
		computeNode(s, c, m, b)
	}
}

// Corners returns the eight corners of the box.
func (b Box) Corners() [8]mgl32.Vec3 {
	lo, hi := b.Min, b.Max
	return [8]mgl32.Vec3{
		{lo[0], lo[1], lo[2]},
		{hi[0], lo[1], lo[2]},
		{lo[0], hi[1], lo[2]},
		{hi[0], hi[1], lo[2]},
		{lo[0], lo[1], hi[2]},
		{hi[0], lo[1], hi[2]},
		{lo[0], hi[1], hi[2]},
		{hi[0], hi[1], hi[2]},
	}
}

// Transform maps all eight corners through m and bounds the result.
func (b Box) Transform(m mgl32.Mat4) Box {
	if b.IsEmpty() {
		return b
	}
	out := Empty()
	for _, c := range b.Corners() {
		out = out.Add(m.Mul4x1(c.Vec4(1)).Vec3())
	}
	return out
}

// Center returns the midpoint of the box.
func (b Box) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Size returns the extent along each axis.
func (b Box) Size() mgl32.Vec3 {
	return b.Max.Sub(b.Min)
}

// Radius returns half the diagonal.
func (b Box) Radius() float32 {
	return b.Size().Len() / 2
}

// Expand grows the box by pad on every side.
func (b Box) Expand(pad float32) Box {
	p := mgl32.Vec3{pad, pad, pad}
	return Box{Min: b.Min.Sub(p), Max: b.Max.Add(p)}
}

// Fit returns a transform that scales the box so its largest side is 1
// and moves its center to the origin. With sitOnXZ the box rests on the
// XZ plane instead of being centered vertically.
func (b Box) Fit(sitOnXZ bool) mgl32.Mat4 {
	if b.IsEmpty() {
		return mgl32.Ident4()
	}
	size := b.Size()
	largest := math32.Max(size[0], math32.Max(size[1], size[2]))
	scale := float32(1)
	if largest > 0 {
		scale = 1 / largest
	}

	c := b.Center()
	if sitOnXZ {
		c[1] = b.Min[1]
	}
	return mgl32.Scale3D(scale, scale, scale).Mul4(mgl32.Translate3D(-c[0], -c[1], -c[2]))
}

// Wireframe returns the box's twelve edges as line vertices, three floats
// each.
func (b Box) Wireframe() []float32 {
	minX, minY, minZ := b.Min[0], b.Min[1], b.Min[2]
	maxX, maxY, maxZ := b.Max[0], b.Max[1], b.Max[2]
	return []float32{
		// bottom
		minX, minY, minZ, maxX, minY, minZ,
		maxX, minY, minZ, maxX, minY, maxZ,
		maxX, minY, maxZ, minX, minY, maxZ,
		minX, minY, maxZ, minX, minY, minZ,
		// top
		minX, maxY, minZ, maxX, maxY, minZ,
		maxX, maxY, minZ, maxX, maxY, maxZ,
		maxX, maxY, maxZ, minX, maxY, maxZ,
		minX, maxY, maxZ, minX, maxY, minZ,
		// verticals
		minX, minY, minZ, minX, maxY, minZ,
		maxX, minY, minZ, maxX, maxY, minZ,
		maxX, minY, maxZ, maxX, maxY, maxZ,
		minX, minY, maxZ, minX, maxY, maxZ,
	}
}
