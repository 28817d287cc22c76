// Package renderer draws the fluid with raylib.
package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/sphfluid/camera"
)

// Vec3 converts a world vector to raylib's float32 form.
func Vec3(v r3.Vec) rl.Vector3 {
	return rl.Vector3{X: float32(v.X), Y: float32(v.Y), Z: float32(v.Z)}
}

// Camera3D builds the raylib camera for an orbit camera.
func Camera3D(c *camera.Camera) rl.Camera3D {
	return rl.Camera3D{
		Position:   Vec3(c.Eye()),
		Target:     Vec3(c.Target),
		Up:         rl.Vector3{Y: 1},
		Fovy:       float32(c.FOV),
		Projection: rl.CameraPerspective,
	}
}
