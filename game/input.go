package game

import rl "github.com/gen2brain/raylib-go/raylib"

// Camera speeds
const (
	orbitDegPerPixel = 0.3
	keyOrbitDeg      = 1.5
	panFraction      = 0.0015 // World units per pixel, per unit of camera distance
)

// handleInput processes keyboard and mouse input.
func (g *Game) handleInput() {
	g.handleResize()

	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}

	if rl.IsKeyPressed(rl.KeySpace) || rl.IsKeyPressed(rl.KeyP) {
		g.paused = !g.paused
	}

	if rl.IsKeyPressed(rl.KeyR) {
		if err := g.Reset(); err != nil {
			g.logger.Error("reset failed", "error", err)
		}
	}

	// Single step while paused
	if g.paused && rl.IsKeyPressed(rl.KeyN) {
		g.step()
	}

	if rl.IsKeyPressed(rl.KeyS) {
		g.SaveSnapshot()
	}

	// Steps-per-update control with < > keys (comma and period)
	if rl.IsKeyPressed(rl.KeyComma) {
		g.SetStepsPerUpdate(g.stepsPerUpdate - 1)
	}
	if rl.IsKeyPressed(rl.KeyPeriod) {
		g.SetStepsPerUpdate(g.stepsPerUpdate + 1)
	}

	g.handleCameraInput()
}

// handleResize checks for window resize and propagates new dimensions.
func (g *Game) handleResize() {
	if !rl.IsWindowResized() {
		return
	}
	w := int32(rl.GetScreenWidth())
	h := int32(rl.GetScreenHeight())
	if w == g.screenWidth && h == g.screenHeight {
		return
	}
	g.screenWidth = w
	g.screenHeight = h

	g.background.Resize(w, h)
	g.layoutPanels()
}

// handleCameraInput processes orbit, pan and zoom controls.
func (g *Game) handleCameraInput() {
	if g.camera == nil {
		return
	}

	// Left drag orbits, right drag pans. Drags that start over the
	// right-hand panels belong to the UI.
	mouse := rl.GetMousePosition()
	overUI := int32(mouse.X) >= g.screenWidth-300
	delta := rl.GetMouseDelta()

	if rl.IsMouseButtonDown(rl.MouseButtonLeft) && !overUI {
		g.camera.Orbit(-float64(delta.X)*orbitDegPerPixel, float64(delta.Y)*orbitDegPerPixel)
	}
	if rl.IsMouseButtonDown(rl.MouseButtonRight) && !overUI {
		scale := g.camera.Distance * panFraction
		g.camera.Pan(-float64(delta.X)*scale, float64(delta.Y)*scale)
	}

	// Arrow keys orbit
	if rl.IsKeyDown(rl.KeyRight) {
		g.camera.Orbit(keyOrbitDeg, 0)
	}
	if rl.IsKeyDown(rl.KeyLeft) {
		g.camera.Orbit(-keyOrbitDeg, 0)
	}
	if rl.IsKeyDown(rl.KeyUp) {
		g.camera.Orbit(0, keyOrbitDeg)
	}
	if rl.IsKeyDown(rl.KeyDown) {
		g.camera.Orbit(0, -keyOrbitDeg)
	}

	// Zoom controls: mouse wheel or +/- keys
	if wheelMove := rl.GetMouseWheelMove(); wheelMove != 0 {
		g.camera.ZoomBy(1 - float64(wheelMove)*0.1)
	}
	if rl.IsKeyPressed(rl.KeyEqual) || rl.IsKeyPressed(rl.KeyKpAdd) {
		g.camera.ZoomBy(0.8)
	}
	if rl.IsKeyPressed(rl.KeyMinus) || rl.IsKeyPressed(rl.KeyKpSubtract) {
		g.camera.ZoomBy(1.25)
	}

	// Home resets the camera, F frames the wall box
	if rl.IsKeyPressed(rl.KeyHome) {
		g.camera.Reset()
	}
	if rl.IsKeyPressed(rl.KeyF) {
		wall := g.solver.Wall()
		g.camera.FitBox(wall.Min, wall.Max)
	}
}
