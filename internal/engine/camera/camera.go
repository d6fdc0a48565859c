// Package camera provides an orbit camera for inspecting models.
package camera

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/rigview/internal/engine/bounds"
)

// OrbitCamera orbits around a center point.
type OrbitCamera struct {
	Center mgl32.Vec3

	// Spherical coordinates
	Distance  float32
	RotationX float32 // pitch, radians
	RotationY float32 // yaw, radians

	MinDistance float32
	MaxDistance float32
	MinPitch    float32
	MaxPitch    float32

	DragSensitivity float32
	ZoomSensitivity float32

	// FOV is the vertical field of view in radians.
	FOV       float32
	Near, Far float32
}

// NewOrbitCamera creates an orbit camera framing a unit-sized model.
func NewOrbitCamera() *OrbitCamera {
	return &OrbitCamera{
		Distance:        2,
		RotationX:       0.4,
		MinDistance:     0.05,
		MaxDistance:     1000,
		MinPitch:        -1.5,
		MaxPitch:        1.5,
		DragSensitivity: 0.005,
		ZoomSensitivity: 0.1,
		FOV:             mgl32.DegToRad(45),
		Near:            0.01,
		Far:             100,
	}
}

// Position returns the camera position in world space.
func (c *OrbitCamera) Position() mgl32.Vec3 {
	sx, cx := math32.Sincos(c.RotationX)
	sy, cy := math32.Sincos(c.RotationY)
	return c.Center.Add(mgl32.Vec3{cx * sy, sx, cx * cy}.Mul(c.Distance))
}

// ViewMatrix returns the view matrix for this camera.
func (c *OrbitCamera) ViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position(), c.Center, mgl32.Vec3{0, 1, 0})
}

// ProjectionMatrix returns a perspective projection for the given
// viewport aspect ratio.
func (c *OrbitCamera) ProjectionMatrix(aspect float32) mgl32.Mat4 {
	if aspect <= 0 {
		aspect = 1
	}
	return mgl32.Perspective(c.FOV, aspect, c.Near, c.Far)
}

// HandleDrag updates rotation based on mouse drag delta.
func (c *OrbitCamera) HandleDrag(deltaX, deltaY float32) {
	c.RotationY -= deltaX * c.DragSensitivity
	c.RotationX = mgl32.Clamp(c.RotationX+deltaY*c.DragSensitivity, c.MinPitch, c.MaxPitch)
}

// HandleZoom updates distance based on scroll wheel delta.
func (c *OrbitCamera) HandleZoom(delta float32) {
	c.Distance = mgl32.Clamp(c.Distance-delta*c.Distance*c.ZoomSensitivity, c.MinDistance, c.MaxDistance)
}

// FitToBounds centers the camera on b and backs off far enough to see
// all of it.
func (c *OrbitCamera) FitToBounds(b bounds.Box) {
	if b.IsEmpty() {
		return
	}
	c.Center = b.Center()

	radius := b.Radius()
	if radius <= 0 {
		radius = 0.5
	}
	c.Distance = radius / math32.Sin(c.FOV/2)
	c.MinDistance = radius * 0.05
	c.MaxDistance = c.Distance * 20
	c.Near = c.Distance / 100
	c.Far = c.Distance + radius*10
	c.RotationX = 0.4
	c.RotationY = 0
}
