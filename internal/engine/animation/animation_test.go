package animation

import (
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Faultbox/rigview/internal/engine/geometry"
	"github.com/Faultbox/rigview/internal/engine/gpu"
	"github.com/Faultbox/rigview/internal/engine/gpu/gputest"
	"github.com/Faultbox/rigview/internal/logger"
	"github.com/Faultbox/rigview/pkg/scene"
)

const eps = 1e-5

var walkerPath = filepath.Join("..", "..", "..", "pkg", "scene", "testdata", "walker.yaml")

func observe(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	prev := logger.Log
	logger.Replace(zap.New(core))
	t.Cleanup(func() { logger.Replace(prev) })
	return logs
}

func loadWalker(t *testing.T) *scene.Scene {
	t.Helper()
	s, err := scene.LoadFile(walkerPath)
	require.NoError(t, err)
	return s
}

// walkerGeometries builds the crate and the skinned leg the way the
// importer would, without going through it.
func walkerGeometries(t *testing.T, s *scene.Scene) (crate, leg *geometry.Geometry) {
	t.Helper()
	dev := gputest.New()
	prog := dev.AddProgram([]string{"in_Position"}, nil)

	var err error
	crate, err = geometry.New(dev, prog, 4, gpu.Triangles, geometry.DefaultLimits())
	require.NoError(t, err)
	crate.Origin = &geometry.Origin{Scene: s, Node: s.FindNode("crate"), Mesh: 0}

	leg, err = geometry.New(dev, prog, 6, gpu.Triangles, geometry.DefaultLimits())
	require.NoError(t, err)
	leg.Origin = &geometry.Origin{Scene: s, Node: s.FindNode("leg"), Mesh: 1}
	leg.Bones, err = geometry.DefaultLimits().NewBoneSet(1, s.Meshes[1].Bones)
	require.NoError(t, err)
	return crate, leg
}

func matEqual(t *testing.T, want, got mgl32.Mat4) {
	t.Helper()
	assert.True(t, want.ApproxEqualThreshold(got, eps), "want %v\ngot  %v", want, got)
}

func TestInterpolatePositionMidpoint(t *testing.T) {
	keys := []scene.VectorKey{
		{Time: 0, Value: mgl32.Vec3{0, 2, -4}},
		{Time: 10, Value: mgl32.Vec3{2, 4, 8}},
	}

	tests := []struct {
		name string
		tick float64
		want mgl32.Vec3
	}{
		{"first key", 0, mgl32.Vec3{0, 2, -4}},
		{"midpoint", 5, mgl32.Vec3{1, 3, 2}},
		{"quarter", 2.5, mgl32.Vec3{0.5, 2.5, -1}},
		{"last key", 10, mgl32.Vec3{2, 4, 8}},
		{"past last key", 25, mgl32.Vec3{2, 4, 8}},
		{"before first key extrapolates", -5, mgl32.Vec3{-1, 1, -10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := InterpolatePosition(keys, tt.tick)
			assert.True(t, tt.want.ApproxEqualThreshold(got, eps), "got %v", got)
		})
	}
}

func TestInterpolateFactorIsExactlyZeroAtKey(t *testing.T) {
	keys := []scene.VectorKey{
		{Time: 0, Value: mgl32.Vec3{0.1, 0.2, 0.3}},
		{Time: 10, Value: mgl32.Vec3{7, 8, 9}},
	}
	assert.Equal(t, keys[0].Value, InterpolateScale(keys, 0))
	assert.Equal(t, float32(0), factor(0, 10, 0))
	assert.Equal(t, float32(0), factor(3, 3, 3), "zero-length bracket")
}

func TestInterpolateEmptyTracks(t *testing.T) {
	assert.Equal(t, mgl32.Vec3{}, InterpolatePosition(nil, 3))
	assert.Equal(t, mgl32.Vec3{1, 1, 1}, InterpolateScale(nil, 3))
	assert.Equal(t, mgl32.QuatIdent(), InterpolateRotation(nil, 3))

	one := []scene.VectorKey{{Time: 4, Value: mgl32.Vec3{1, 2, 3}}}
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, InterpolatePosition(one, 0))
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, InterpolatePosition(one, 100))
}

func TestInterpolateRotation(t *testing.T) {
	quarter := mgl32.QuatRotate(mgl32.DegToRad(90), mgl32.Vec3{0, 0, 1})
	keys := []scene.QuatKey{
		{Time: 0, Value: mgl32.QuatIdent()},
		{Time: 10, Value: quarter},
	}

	half := InterpolateRotation(keys, 5)
	want := mgl32.QuatRotate(mgl32.DegToRad(45), mgl32.Vec3{0, 0, 1})
	assert.True(t, want.OrientationEqualThreshold(half, eps), "got %v", half)

	assert.Equal(t, mgl32.QuatIdent(), InterpolateRotation(keys, 0))
	assert.Equal(t, quarter, InterpolateRotation(keys, 11))
}

func TestInterpolatePositionBeforeFirstKey(t *testing.T) {
	keys := []scene.VectorKey{
		{Time: 4, Value: mgl32.Vec3{4, 0, 0}},
		{Time: 8, Value: mgl32.Vec3{8, 0, 0}},
	}
	got := InterpolatePosition(keys, 2)
	assert.True(t, mgl32.Vec3{2, 0, 0}.ApproxEqualThreshold(got, eps), "got %v", got)
}

func TestInterpolateRotationShortestArc(t *testing.T) {
	z := mgl32.Vec3{0, 0, 1}
	q90 := mgl32.QuatRotate(mgl32.DegToRad(90), z)
	q20 := mgl32.QuatRotate(mgl32.DegToRad(20), z)

	tests := []struct {
		name   string
		k0, k1 mgl32.Quat
		want   mgl32.Quat
	}{
		{"same rotation opposite sign", q90, q90.Scale(-1), q90},
		{"small turn opposite sign", mgl32.QuatIdent(), q20.Scale(-1), mgl32.QuatRotate(mgl32.DegToRad(10), z)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			keys := []scene.QuatKey{{Time: 0, Value: tt.k0}, {Time: 10, Value: tt.k1}}
			got := InterpolateRotation(keys, 5)
			assert.True(t, tt.want.OrientationEqualThreshold(got, eps), "got %v", got)
		})
	}
}

func TestSlerpIdempotence(t *testing.T) {
	q := mgl32.QuatRotate(1.2, mgl32.Vec3{1, 2, 3}.Normalize())
	keys := []scene.QuatKey{{Time: 0, Value: q}, {Time: 1, Value: q}}

	for _, f := range []float64{0, 0.1, 0.25, 0.5, 0.75, 1} {
		got := InterpolateRotation(keys, f)
		assert.True(t, q.ApproxEqualThreshold(got, eps), "f=%v got %v", f, got)
	}
}

func TestDuration(t *testing.T) {
	assert.Zero(t, Duration(nil))
	assert.Equal(t, 10.0, Duration(&scene.Animation{Duration: 10, TicksPerSecond: 1}))
	assert.Equal(t, 2.0, Duration(&scene.Animation{Duration: 50}), "zero rate falls back to 25 ticks per second")
}

func TestBindPoseMatchesAuthoredTransforms(t *testing.T) {
	s := loadWalker(t)

	for _, seconds := range []float64{BindPose, -0.5} {
		s.Walk(func(n *scene.Node) bool {
			assert.Equal(t, n.Transform, NodeTransform(s, n, 0, seconds), n.Name)
			return true
		})
	}

	world := WorldTransforms(s, 0, BindPose)
	assert.Len(t, world, s.NodeCount())
	matEqual(t, mgl32.Translate3D(0, 3, 0), world[s.FindNode("ankle")])
	matEqual(t, mgl32.Translate3D(2, 0, 0), world[s.FindNode("crate")])
}

func TestEvaluateBindPose(t *testing.T) {
	s := loadWalker(t)
	crate, leg := walkerGeometries(t, s)

	Evaluate(geometry.List{crate, leg}, 0, BindPose)

	matEqual(t, mgl32.Translate3D(2, 0, 0), crate.Matrix)
	// Bone offsets undo the rest pose, so every bind-pose skin matrix is identity.
	for i := range s.Meshes[1].Bones {
		matEqual(t, mgl32.Ident4(), leg.Bones.Matrices[i])
	}
}

func TestEvaluateAnimatedChain(t *testing.T) {
	s := loadWalker(t)
	crate, leg := walkerGeometries(t, s)

	Evaluate(geometry.List{crate, leg}, 0, 5)

	hip := mgl32.Translate3D(0, 1, 0).Mul4(mgl32.QuatRotate(mgl32.DegToRad(45), mgl32.Vec3{0, 0, 1}).Mat4())
	knee := hip.Mul4(mgl32.Translate3D(0, 1.5, 0))
	// The ankle has no channel and keeps its authored offset from the knee.
	ankle := knee.Mul4(mgl32.Translate3D(0, 1, 0))

	world := WorldTransforms(s, 0, 5)
	matEqual(t, hip, world[s.FindNode("hip")])
	matEqual(t, knee, world[s.FindNode("knee")])
	matEqual(t, ankle, world[s.FindNode("ankle")])

	matEqual(t, hip.Mul4(mgl32.Translate3D(0, -1, 0)), leg.Bones.Matrices[0])
	matEqual(t, knee.Mul4(mgl32.Translate3D(0, -2, 0)), leg.Bones.Matrices[1])
	matEqual(t, ankle.Mul4(mgl32.Translate3D(0, -3, 0)), leg.Bones.Matrices[2])
	assert.Equal(t, mgl32.Ident4(), leg.Bones.Matrices[3], "unused slots stay identity")

	matEqual(t, mgl32.Translate3D(2, 0, 0), crate.Matrix)
}

func TestEvaluateFallsBackToStaticPose(t *testing.T) {
	s := loadWalker(t)
	bind := WorldTransforms(s, 0, BindPose)

	tests := []struct {
		name    string
		anim    int
		seconds float64
	}{
		{"index out of range", 3, 5},
		{"negative index", -2, 5},
		{"past duration", 0, 10.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			observe(t)
			assert.Equal(t, bind, WorldTransforms(s, tt.anim, tt.seconds))
		})
	}
}

func TestEvaluateWithoutAnimations(t *testing.T) {
	s := loadWalker(t)
	s.Animations = nil
	crate, leg := walkerGeometries(t, s)

	Evaluate(geometry.List{crate, leg}, 0, 5)

	matEqual(t, mgl32.Translate3D(2, 0, 0), crate.Matrix)
	matEqual(t, mgl32.Ident4(), leg.Bones.Matrices[0])
}

func TestEvaluateMissingBoneNode(t *testing.T) {
	logs := observe(t)
	s := loadWalker(t)
	_, leg := walkerGeometries(t, s)
	leg.Bones.Bones = append(leg.Bones.Bones, &scene.Bone{Name: "toe", Offset: mgl32.Ident4()})
	leg.Bones.Matrices[3] = mgl32.Translate3D(9, 9, 9)

	Evaluate(geometry.List{leg}, 0, 5)
	Evaluate(geometry.List{leg}, 0, 6)

	assert.Equal(t, mgl32.Translate3D(9, 9, 9), leg.Bones.Matrices[3], "previous matrix kept")
	assert.Equal(t, 2, logs.FilterMessage("bone has no node in the scene").Len())
}

func TestEvaluateSkipsHandBuiltGeometry(t *testing.T) {
	dev := gputest.New()
	prog := dev.AddProgram(nil, nil)
	g, err := geometry.New(dev, prog, 3, gpu.Triangles, geometry.DefaultLimits())
	require.NoError(t, err)
	g.Matrix = mgl32.Scale3D(2, 2, 2)

	Evaluate(geometry.List{g, nil}, 0, 1)

	assert.Equal(t, mgl32.Scale3D(2, 2, 2), g.Matrix)
}

func TestEvaluateSharesOnePassPerScene(t *testing.T) {
	s := loadWalker(t)
	a, _ := walkerGeometries(t, s)
	b, _ := walkerGeometries(t, s)
	b.Origin.Node = s.FindNode("knee")

	Evaluate(geometry.List{a, b}, 0, 10)

	world := WorldTransforms(s, 0, 10)
	assert.Equal(t, world[s.FindNode("crate")], a.Matrix)
	assert.Equal(t, world[s.FindNode("knee")], b.Matrix)
}
