// Kernel preview tool - interactive plot of the SPH smoothing kernels.
//
// Usage: go run ./cmd/kernelpreview [-config path]
package main

import (
	"flag"
	"fmt"
	"log"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/sphfluid/config"
	"github.com/pthm-cable/sphfluid/sph"
)

const (
	windowWidth  = 1100
	windowHeight = 720
	plotW        = 620
	plotH        = 440
	plotX        = 50
	plotY        = 40
	panelX       = plotX + plotW + 40
	panelWidth   = windowWidth - panelX - 20

	samples = 200
	span    = 1.25 // plot out to span·h
)

var curveColors = []rl.Color{
	{R: 30, G: 110, B: 220, A: 255},
	{R: 220, G: 70, B: 50, A: 255},
	{R: 40, G: 160, B: 80, A: 255},
}

// previewParams holds the values the sliders edit.
type previewParams struct {
	SmoothRadius float32 // metres
	ParticleMass float32 // kg
}

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	base := cfg.SolverParams()
	defaults := previewParams{
		SmoothRadius: float32(base.SmoothRadius),
		ParticleMass: float32(base.ParticleMass),
	}
	params := defaults

	rl.InitWindow(windowWidth, windowHeight, "SPH Kernel Preview")
	defer rl.CloseWindow()
	rl.SetTargetFPS(30)

	var (
		curves   []Curve
		kernels  sph.Kernels
		spacingM float64
		density  float64
		nbrs     int
	)
	needsRegen := true

	for !rl.WindowShouldClose() {
		if needsRegen {
			p := base
			p.SmoothRadius = float64(params.SmoothRadius)
			p.ParticleMass = float64(params.ParticleMass)
			kernels = sph.NewKernels(p.SmoothRadius)
			curves = SampleCurves(kernels, samples, span)
			spacingM = p.Spacing() * p.UnitScale
			density = LatticeDensity(kernels, p.ParticleMass, spacingM)
			nbrs = NeighborEstimate(p.SmoothRadius, spacingM)
			needsRegen = false
		}

		rl.BeginDrawing()
		rl.ClearBackground(rl.RayWhite)

		drawPlot(curves, kernels.H, spacingM)

		// Control panel
		x := float32(panelX)
		y := float32(plotY)

		rl.DrawText("Kernel Parameters", int32(x), int32(y), 20, rl.DarkGray)
		y += 35

		rl.DrawText("Smoothing radius h (mm)", int32(x), int32(y), 14, rl.Gray)
		y += 18
		newH := gui.SliderBar(
			rl.Rectangle{X: x + 30, Y: y, Width: float32(panelWidth - 110), Height: 20},
			"5", "30",
			params.SmoothRadius*1000, 5, 30,
		)
		rl.DrawText(fmt.Sprintf("%.2f", params.SmoothRadius*1000), int32(x+float32(panelWidth-70)), int32(y+2), 16, rl.DarkGray)
		if newH/1000 != params.SmoothRadius {
			params.SmoothRadius = newH / 1000
			needsRegen = true
		}
		y += 35

		rl.DrawText("Particle mass (g)", int32(x), int32(y), 14, rl.Gray)
		y += 18
		newMass := gui.SliderBar(
			rl.Rectangle{X: x + 30, Y: y, Width: float32(panelWidth - 110), Height: 20},
			"0.1", "2",
			params.ParticleMass*1000, 0.1, 2,
		)
		rl.DrawText(fmt.Sprintf("%.3f", params.ParticleMass*1000), int32(x+float32(panelWidth-70)), int32(y+2), 16, rl.DarkGray)
		if newMass/1000 != params.ParticleMass {
			params.ParticleMass = newMass / 1000
			needsRegen = true
		}
		y += 45

		if gui.Button(rl.Rectangle{X: x, Y: y, Width: 120, Height: 30}, "Reset All") {
			params = defaults
			needsRegen = true
		}
		y += 50

		// Derived values
		lines := []string{
			fmt.Sprintf("Poly6 constant:     %.4g", kernels.Poly6),
			fmt.Sprintf("Spiky constant:     %.4g", kernels.Spiky),
			fmt.Sprintf("Viscosity constant: %.4g", kernels.Viscosity),
			"",
			fmt.Sprintf("Rest spacing:   %.3f mm (%.3f units)", spacingM*1000, spacingM/base.UnitScale),
			fmt.Sprintf("h / spacing:    %.2f", kernels.H/spacingM),
			fmt.Sprintf("Lattice density: %.1f (rest %.0f)", density, base.RestDensity),
			fmt.Sprintf("Neighbors in h: %d (cap %d)", nbrs, sph.MaxNeighbors),
		}
		for _, line := range lines {
			rl.DrawText(line, int32(x), int32(y), 14, rl.DarkGray)
			y += 18
		}
		if nbrs > sph.MaxNeighbors {
			rl.DrawText("Neighbor lists will be truncated", int32(x), int32(y), 14, rl.Red)
		}
		y += 30

		rl.DrawText("YAML Config:", int32(x), int32(y), 16, rl.DarkGray)
		y += 25
		yaml := yamlSnippet(params)
		rl.DrawText(yaml, int32(x), int32(y), 14, rl.Gray)

		rl.DrawText("Press C to copy YAML to clipboard", int32(x), windowHeight-30, 12, rl.LightGray)
		if rl.IsKeyPressed(rl.KeyC) {
			rl.SetClipboardText(yaml)
		}

		rl.EndDrawing()
	}
}

// yamlSnippet renders the slider values as a config overlay.
func yamlSnippet(p previewParams) string {
	return fmt.Sprintf("simulation:\n  smooth_radius: %.5f\n  particle_mass: %.6f", p.SmoothRadius, p.ParticleMass)
}

// drawPlot draws the normalised kernels with the support radius and the rest
// spacing marked.
func drawPlot(curves []Curve, h, spacing float64) {
	rl.DrawRectangle(plotX, plotY, plotW, plotH, rl.White)
	rl.DrawRectangleLines(plotX, plotY, plotW, plotH, rl.DarkGray)

	// y = 0 sits in the middle so the signed Spiky gradient fits.
	zeroY := float32(plotY + plotH/2)
	rl.DrawLine(plotX, int32(zeroY), plotX+plotW, int32(zeroY), rl.LightGray)

	toX := func(r float64) float32 {
		return float32(plotX) + float32(r/(span*h))*plotW
	}
	toY := func(v float64) float32 {
		return zeroY - float32(v)*(plotH/2-10)
	}

	hx := toX(h)
	rl.DrawLineEx(rl.Vector2{X: hx, Y: plotY}, rl.Vector2{X: hx, Y: plotY + plotH}, 1, rl.Gray)
	rl.DrawText("h", int32(hx)+4, plotY+4, 14, rl.Gray)

	for n := 1; float64(n)*spacing < span*h; n++ {
		sx := toX(float64(n) * spacing)
		rl.DrawLineEx(rl.Vector2{X: sx, Y: zeroY - 6}, rl.Vector2{X: sx, Y: zeroY + 6}, 2, rl.Orange)
	}

	for c, curve := range curves {
		color := curveColors[c%len(curveColors)]
		for i := 1; i < len(curve.R); i++ {
			rl.DrawLineEx(
				rl.Vector2{X: toX(curve.R[i-1]), Y: toY(curve.Value[i-1])},
				rl.Vector2{X: toX(curve.R[i]), Y: toY(curve.Value[i])},
				2, color,
			)
		}
		label := fmt.Sprintf("%s (peak %.3g)", curve.Name, curve.Peak)
		rl.DrawText(label, plotX+10, int32(plotY+plotH+15+c*20), 16, color)
	}

	rl.DrawText("r", plotX+plotW-12, int32(zeroY)+6, 14, rl.Gray)
	rl.DrawText(fmt.Sprintf("0 .. %.1f mm", span*h*1000), plotX, plotY-20, 14, rl.Gray)
	rl.DrawText("orange ticks: rest spacing", plotX+plotW-190, plotY-20, 14, rl.Orange)
}
