package animation

import (
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/rigview/internal/engine/geometry"
	"github.com/Faultbox/rigview/internal/logger"
	"github.com/Faultbox/rigview/pkg/scene"
)

// BindPose is a time that selects each node's authored transform.
const BindPose = -1

// maxRepeats caps repeated per-frame warnings.
const maxRepeats = 10

// pose is one (animation, tick) query against a scene. A nil anim means
// every node uses its authored transform.
type pose struct {
	anim *scene.Animation
	tick float64
}

func newPose(s *scene.Scene, anim int, seconds float64) pose {
	if s == nil || len(s.Animations) == 0 || seconds < 0 {
		return pose{}
	}
	if anim < 0 || anim >= len(s.Animations) {
		logger.Limited("anim-index", maxRepeats, "animation index out of range, using bind pose",
			zap.Int("animation", anim),
			zap.Int("available", len(s.Animations)),
		)
		return pose{}
	}

	a := s.Animations[anim]
	tick := seconds * a.Rate()
	if tick > a.Duration {
		return pose{}
	}
	return pose{anim: a, tick: tick}
}

// local returns n's transform relative to its parent.
func (p pose) local(n *scene.Node) mgl32.Mat4 {
	if p.anim == nil {
		return n.Transform
	}
	ch := p.anim.Channel(n.Name)
	if ch == nil {
		return n.Transform
	}

	pos := InterpolatePosition(ch.Positions, p.tick)
	rot := InterpolateRotation(ch.Rotations, p.tick)
	scl := InterpolateScale(ch.Scalings, p.tick)
	return mgl32.Translate3D(pos[0], pos[1], pos[2]).
		Mul4(rot.Mat4()).
		Mul4(mgl32.Scale3D(scl[0], scl[1], scl[2]))
}

// NodeTransform returns n's local transform in animation anim at seconds.
// A negative time, an out of range index, a time past the animation's
// end, or a node without a channel all yield the authored transform.
func NodeTransform(s *scene.Scene, n *scene.Node, anim int, seconds float64) mgl32.Mat4 {
	return newPose(s, anim, seconds).local(n)
}

// WorldTransforms composes every node's transform with its ancestors' in
// one top-down pass.
func WorldTransforms(s *scene.Scene, anim int, seconds float64) map[*scene.Node]mgl32.Mat4 {
	return newPose(s, anim, seconds).world(s)
}

type frame struct {
	node   *scene.Node
	parent mgl32.Mat4
}

func (p pose) world(s *scene.Scene) map[*scene.Node]mgl32.Mat4 {
	out := make(map[*scene.Node]mgl32.Mat4)
	if s == nil || s.Root == nil {
		return out
	}

	stack := []frame{{node: s.Root, parent: mgl32.Ident4()}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		w := f.parent.Mul4(p.local(f.node))
		out[f.node] = w
		for i := len(f.node.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{node: f.node.Children[i], parent: w})
		}
	}
	return out
}

// posed is the evaluated state of one scene.
type posed struct {
	world  map[*scene.Node]mgl32.Mat4
	byName map[string]*scene.Node
}

func evaluateScene(s *scene.Scene, anim int, seconds float64) *posed {
	ps := &posed{
		world:  newPose(s, anim, seconds).world(s),
		byName: make(map[string]*scene.Node),
	}
	// First match in depth-first order wins, like scene.FindNode.
	s.Walk(func(n *scene.Node) bool {
		if _, ok := ps.byName[n.Name]; !ok {
			ps.byName[n.Name] = n
		}
		return true
	})
	return ps
}

// Evaluate poses every imported geometry in list. Rigid geometries receive
// their node's world transform as Matrix; skinned geometries receive one
// matrix per bone, the bone node's world transform times the bone offset.
// Geometry built by hand (no Origin) is left alone.
func Evaluate(list geometry.List, anim int, seconds float64) {
	scenes := make(map[*scene.Scene]*posed)
	for _, g := range list {
		if g == nil || g.Origin == nil || g.Origin.Scene == nil {
			continue
		}
		s := g.Origin.Scene
		ps, ok := scenes[s]
		if !ok {
			ps = evaluateScene(s, anim, seconds)
			scenes[s] = ps
		}

		if g.Bones == nil {
			if w, ok := ps.world[g.Origin.Node]; ok {
				g.Matrix = w
			}
			continue
		}
		for i, b := range g.Bones.Bones {
			if i >= len(g.Bones.Matrices) {
				break
			}
			n := ps.byName[b.Name]
			if n == nil {
				logger.Limited("bone:"+b.Name, maxRepeats, "bone has no node in the scene",
					zap.String("bone", b.Name),
					zap.Int("mesh", g.Bones.Mesh),
				)
				continue
			}
			g.Bones.Matrices[i] = ps.world[n].Mul4(b.Offset)
		}
	}
}
