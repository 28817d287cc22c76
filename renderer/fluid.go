package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/sphfluid/sph"
)

// FluidRenderer draws particles as small cubes tinted by height, plus the
// wall box.
type FluidRenderer struct {
	ParticleSize float32
	Low, High    rl.Color // Tint at the floor and ceiling of the wall box
	WallColor    rl.Color
}

// NewFluidRenderer creates a fluid renderer with the default palette.
func NewFluidRenderer(particleSize float32) *FluidRenderer {
	return &FluidRenderer{
		ParticleSize: particleSize,
		Low:          rl.Color{R: 20, G: 70, B: 200, A: 255},
		High:         rl.Color{R: 140, G: 220, B: 255, A: 255},
		WallColor:    rl.Color{R: 180, G: 180, B: 180, A: 255},
	}
}

// Draw renders the fluid. It must be called between BeginMode3D and EndMode3D.
func (r *FluidRenderer) Draw(positions sph.PositionView, wall sph.Box) {
	size := rl.Vector3{X: r.ParticleSize, Y: r.ParticleSize, Z: r.ParticleSize}
	lo, hi := wall.Min.Y, wall.Max.Y

	for i := 0; i < positions.Len(); i++ {
		p := positions.At(i)
		rl.DrawCubeV(Vec3(p), size, HeightColor(p.Y, lo, hi, r.Low, r.High))
	}

	r.DrawWall(wall)
}

// DrawWall draws the wall box as a wireframe.
func (r *FluidRenderer) DrawWall(wall sph.Box) {
	centre := Vec3(r3.Scale(0.5, r3.Add(wall.Min, wall.Max)))
	rl.DrawCubeWiresV(centre, Vec3(wall.Size()), r.WallColor)
}

// HeightColor interpolates between low and high by y's position in [lo, hi].
// Values outside the range clamp to the end colors.
func HeightColor(y, lo, hi float64, low, high rl.Color) rl.Color {
	t := 0.0
	if hi > lo {
		t = (y - lo) / (hi - lo)
	}
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	mix := func(a, b uint8) uint8 {
		return uint8(float64(a) + (float64(b)-float64(a))*t + 0.5)
	}
	return rl.Color{
		R: mix(low.R, high.R),
		G: mix(low.G, high.G),
		B: mix(low.B, high.B),
		A: mix(low.A, high.A),
	}
}
