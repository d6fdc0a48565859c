// Package lighting provides light helpers for the viewer's shading.
package lighting

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// SunDirection converts an azimuth around Y and an elevation above the
// horizon, both in degrees, to a unit vector pointing towards the sun.
func SunDirection(azimuth, elevation float32) mgl32.Vec3 {
	az := mgl32.DegToRad(azimuth)
	el := mgl32.DegToRad(elevation)

	return mgl32.Vec3{
		math32.Cos(el) * math32.Sin(az),
		math32.Sin(el),
		math32.Cos(el) * math32.Cos(az),
	}
}

// LightDir returns the direction light travels, the negated sun
// direction, as the shader's LightDir uniform expects.
func LightDir(azimuth, elevation float32) mgl32.Vec3 {
	return SunDirection(azimuth, elevation).Mul(-1)
}
