// Package animation poses imported scenes at a point in time.
package animation

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/rigview/pkg/scene"
)

// bracket returns the first pair of keys (k, k+1) in a time-sorted track
// of n >= 2 keys with tick before key k+1. Ticks before the first key use
// the first pair, so the factor goes negative. Past the last key both
// indices are the last key.
func bracket(n int, time func(int) float64, tick float64) (prev, next int) {
	for k := 0; k+1 < n; k++ {
		if tick < time(k+1) {
			return k, k + 1
		}
	}
	return n - 1, n - 1
}

// factor returns how far tick lies between t0 and t1, 0 for an empty span.
func factor(t0, t1, tick float64) float32 {
	if t1 == t0 {
		return 0
	}
	return float32((tick - t0) / (t1 - t0))
}

func interpolateVec(keys []scene.VectorKey, tick float64, def mgl32.Vec3) mgl32.Vec3 {
	switch len(keys) {
	case 0:
		return def
	case 1:
		return keys[0].Value
	}

	prev, next := bracket(len(keys), func(i int) float64 { return keys[i].Time }, tick)
	if prev == next {
		return keys[prev].Value
	}

	k0, k1 := keys[prev], keys[next]
	t := factor(k0.Time, k1.Time, tick)
	return k0.Value.Mul(1 - t).Add(k1.Value.Mul(t))
}

// InterpolatePosition returns the position track's value at tick, or the
// origin for an empty track.
func InterpolatePosition(keys []scene.VectorKey, tick float64) mgl32.Vec3 {
	return interpolateVec(keys, tick, mgl32.Vec3{})
}

// InterpolateScale returns the scale track's value at tick, or unit scale
// for an empty track.
func InterpolateScale(keys []scene.VectorKey, tick float64) mgl32.Vec3 {
	return interpolateVec(keys, tick, mgl32.Vec3{1, 1, 1})
}

// InterpolateRotation slerps the rotation track at tick along the shorter
// arc. q and -q are the same rotation, so a key whose sign disagrees with
// its predecessor is negated first.
func InterpolateRotation(keys []scene.QuatKey, tick float64) mgl32.Quat {
	switch len(keys) {
	case 0:
		return mgl32.QuatIdent()
	case 1:
		return keys[0].Value
	}

	prev, next := bracket(len(keys), func(i int) float64 { return keys[i].Time }, tick)
	if prev == next {
		return keys[prev].Value
	}

	k0, k1 := keys[prev], keys[next]
	q1 := k1.Value
	if k0.Value.Dot(q1) < 0 {
		q1 = q1.Scale(-1)
	}
	return mgl32.QuatSlerp(k0.Value, q1, factor(k0.Time, k1.Time, tick))
}

// Duration returns the animation length in seconds, 0 for nil.
func Duration(a *scene.Animation) float64 {
	if a == nil {
		return 0
	}
	return a.Seconds()
}
