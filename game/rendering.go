package game

import (
	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/sphfluid/renderer"
	"github.com/pthm-cable/sphfluid/sph"
	"github.com/pthm-cable/sphfluid/telemetry"
	"github.com/pthm-cable/sphfluid/ui"
)

const controlsLegend = "[Drag] orbit  [RMB] pan  [Wheel] zoom  [Space] pause  [N] step  [R] reset  [S] snapshot  [</>] speed  [F] frame  [Home] camera"

// Draw renders the game.
func (g *Game) Draw() {
	g.perfCollector.RecordFrame()

	rl.BeginDrawing()
	rl.ClearBackground(rl.Black)
	g.background.Draw()

	rl.BeginMode3D(renderer.Camera3D(g.camera))
	g.fluid.Draw(g.solver.Positions(), g.solver.Wall())
	rl.EndMode3D()

	g.drawUI()

	rl.EndDrawing()
}

// drawUI draws the HUD and panels and applies control actions.
func (g *Game) drawUI() {
	params := g.solver.Params()
	g.hud.Draw(ui.HUDData{
		Title:      "SPH Fluid",
		Tick:       g.tick,
		SimTime:    float64(g.tick) * params.DT,
		Particles:  g.solver.ParticleCount(),
		Capacity:   g.solver.Scene().MaxParticles,
		Integrator: params.Integrator,
		Speed:      g.stepsPerUpdate,
		FPS:        rl.GetFPS(),
		Paused:     g.paused,
	})
	g.perfPanel.Draw(g.perfCollector.Stats(), telemetry.Phases)
	g.fluidPanel.Draw(g.lastStats)
	g.hud.DrawControls(g.screenHeight, controlsLegend)

	actions := g.controls.Draw(g.paused, g.stepsPerUpdate)
	if actions.TogglePause {
		g.paused = !g.paused
	}
	if actions.Reset {
		if err := g.Reset(); err != nil {
			g.logger.Error("reset failed", "error", err)
		}
	}
	g.stepsPerUpdate = actions.Steps
}

// r3Centre returns the centre of a box.
func r3Centre(b sph.Box) r3.Vec {
	return r3.Scale(0.5, r3.Add(b.Min, b.Max))
}
