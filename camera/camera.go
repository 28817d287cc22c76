// Package camera provides an orbit camera for viewing the simulation volume.
package camera

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Pitch stays short of the poles so the up vector never degenerates.
const maxPitch = 89.0

// Camera orbits a target point at a given distance.
// Angles are in degrees; yaw 0 looks down -Z from +Z.
type Camera struct {
	// Target is the point the camera looks at, in world coordinates
	Target r3.Vec

	// Orbit angles
	Yaw, Pitch float64

	// Distance from target
	Distance float64

	// Vertical field of view in degrees
	FOV float64

	// Distance constraints
	MinDistance, MaxDistance float64

	// Initial state restored by Reset
	home Pose
}

// Pose is a saved camera position and orientation.
type Pose struct {
	Target     r3.Vec
	Yaw, Pitch float64
	Distance   float64
}

// New creates a camera orbiting target.
func New(target r3.Vec, distance, yaw, pitch, fov float64) *Camera {
	c := &Camera{
		Target:      target,
		Yaw:         yaw,
		Pitch:       clamp(pitch, -maxPitch, maxPitch),
		Distance:    distance,
		FOV:         fov,
		MinDistance: 1,
		MaxDistance: math.Max(distance*8, 1),
	}
	c.Distance = clamp(c.Distance, c.MinDistance, c.MaxDistance)
	c.home = c.Pose()
	return c
}

// Pose returns the current pose.
func (c *Camera) Pose() Pose {
	return Pose{Target: c.Target, Yaw: c.Yaw, Pitch: c.Pitch, Distance: c.Distance}
}

// Eye returns the camera position in world coordinates.
func (c *Camera) Eye() r3.Vec {
	yaw := c.Yaw * math.Pi / 180
	pitch := c.Pitch * math.Pi / 180
	offset := r3.Vec{
		X: c.Distance * math.Cos(pitch) * math.Sin(yaw),
		Y: c.Distance * math.Sin(pitch),
		Z: c.Distance * math.Cos(pitch) * math.Cos(yaw),
	}
	return r3.Add(c.Target, offset)
}

// Forward returns the unit view direction.
func (c *Camera) Forward() r3.Vec {
	return r3.Unit(r3.Sub(c.Target, c.Eye()))
}

// Orbit rotates the camera around the target by the given angles in degrees.
// Yaw wraps to [0, 360); pitch is clamped short of the poles.
func (c *Camera) Orbit(dYaw, dPitch float64) {
	c.Yaw = math.Mod(c.Yaw+dYaw, 360)
	if c.Yaw < 0 {
		c.Yaw += 360
	}
	c.Pitch = clamp(c.Pitch+dPitch, -maxPitch, maxPitch)
}

// SetDistance sets the orbit distance, clamped to min/max.
func (c *Camera) SetDistance(d float64) {
	c.Distance = clamp(d, c.MinDistance, c.MaxDistance)
}

// ZoomBy multiplies the current distance by the given factor.
func (c *Camera) ZoomBy(factor float64) {
	if factor <= 0 {
		return
	}
	c.SetDistance(c.Distance * factor)
}

// Pan moves the target in the view plane. dx moves right and dy moves up,
// both in world units.
func (c *Camera) Pan(dx, dy float64) {
	fwd := c.Forward()
	right := r3.Unit(r3.Cross(fwd, r3.Vec{Y: 1}))
	up := r3.Cross(right, fwd)
	c.Target = r3.Add(c.Target, r3.Add(r3.Scale(dx, right), r3.Scale(dy, up)))
}

// FitBox points the camera at the centre of the box [min, max] and backs off
// until the whole box fits the vertical field of view.
func (c *Camera) FitBox(min, max r3.Vec) {
	c.Target = r3.Scale(0.5, r3.Add(min, max))
	radius := r3.Norm(r3.Sub(max, min)) / 2
	half := c.FOV * math.Pi / 360
	if half <= 0 || half >= math.Pi/2 {
		half = math.Pi / 8
	}
	c.MaxDistance = math.Max(c.MaxDistance, radius/math.Sin(half)*4)
	c.SetDistance(radius / math.Sin(half))
}

// SetHome records the current pose as the one Reset returns to.
func (c *Camera) SetHome() {
	c.home = c.Pose()
}

// Reset returns the camera to its home pose.
func (c *Camera) Reset() {
	c.Target = c.home.Target
	c.Yaw = c.home.Yaw
	c.Pitch = c.home.Pitch
	c.Distance = c.home.Distance
}

// clamp restricts a value to a range.
func clamp(x, min, max float64) float64 {
	if x < min {
		return min
	}
	if x > max {
		return max
	}
	return x
}
