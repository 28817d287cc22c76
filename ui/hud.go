package ui

import (
	"fmt"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/sphfluid/telemetry"
)

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Title      string
	Tick       int32
	SimTime    float64 // Simulated seconds
	Particles  int
	Capacity   int
	Integrator string
	Speed      int
	FPS        int32
	Paused     bool
}

// HUD renders the main heads-up display.
type HUD struct {
	renderer *Renderer
}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{
		renderer: NewRenderer(),
	}
}

// Draw renders the HUD.
func (h *HUD) Draw(data HUDData) {
	rl.DrawText(data.Title, 10, 10, 20, rl.White)

	rl.DrawText(
		fmt.Sprintf("Particles: %d / %d | Integrator: %s", data.Particles, data.Capacity, data.Integrator),
		10, 35, 16, rl.LightGray,
	)

	rl.DrawText(
		fmt.Sprintf("Tick: %d | t = %.2fs | Speed: %dx | FPS: %d", data.Tick, data.SimTime, data.Speed, data.FPS),
		10, 55, 16, rl.LightGray,
	)

	if data.Paused {
		rl.DrawText("PAUSED", 10, 75, 16, rl.Yellow)
	}
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenHeight int32, controls string) {
	rl.DrawText(controls, 10, screenHeight-25, 14, rl.Gray)
}

// FluidPanel renders the most recent telemetry window.
type FluidPanel struct {
	renderer    *Renderer
	x, y        int32
	width       int32
	restDensity float64
}

// NewFluidPanel creates a fluid stats panel. restDensity scales the
// compression bar.
func NewFluidPanel(x, y, width int32, restDensity float64) *FluidPanel {
	return &FluidPanel{
		renderer:    NewRenderer(),
		x:           x,
		y:           y,
		width:       width,
		restDensity: restDensity,
	}
}

// SetPosition updates the panel position.
func (f *FluidPanel) SetPosition(x, y int32) {
	f.x = x
	f.y = y
}

// Draw renders the panel. It draws nothing before the first window closes.
func (f *FluidPanel) Draw(stats *telemetry.WindowStats) {
	if stats == nil {
		return
	}
	r := f.renderer
	padding := r.Theme.Padding
	inner := f.width - padding*2

	r.DrawPanel(f.x, f.y, f.width, r.Theme.LineHeight*11+padding*2)

	y := f.y + padding
	x := f.x + padding
	y = r.DrawSectionHeader(x, y, fmt.Sprintf("Fluid @ tick %d", stats.WindowEndTick))
	y = r.DrawLabelValue(x, y, "Density", fmt.Sprintf("%.1f +/- %.1f", stats.DensityMean, stats.DensityStd))
	y = r.DrawLabelValue(x, y, "Density range", fmt.Sprintf("%.1f .. %.1f", stats.DensityMin, stats.DensityMax))
	y = r.DrawRatioBar(x, y, "Peak / rest", stats.DensityMax, f.restDensity, inner)
	y = r.DrawLabelValue(x, y, "Pressure", fmt.Sprintf("%.2f", stats.PressureMean))
	y = r.DrawLabelValue(x, y, "Speed", fmt.Sprintf("%.3f (max %.3f)", stats.SpeedMean, stats.SpeedMax))
	y = r.DrawLabelValue(x, y, "Neighbors", fmt.Sprintf("%.1f", stats.NeighborsMean))
	y = r.DrawLabelWarn(x, y, "Truncated", fmt.Sprintf("%d", stats.Truncated), stats.Truncated > 0)
	y = r.DrawLabelWarn(x, y, "Out of grid", fmt.Sprintf("%d", stats.OutOfGrid), stats.OutOfGrid > 0)
	r.DrawLabelWarn(x, y, "Overshoot", fmt.Sprintf("%.3f", stats.MaxOvershoot), stats.MaxOvershoot > 0)
}

// PerfPanel renders the per-phase tick timing.
type PerfPanel struct {
	renderer *Renderer
	x, y     int32
}

// NewPerfPanel creates a new performance panel.
func NewPerfPanel(x, y int32) *PerfPanel {
	return &PerfPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
	}
}

// SetPosition updates the panel position.
func (p *PerfPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders the performance panel with phases in the given order.
func (p *PerfPanel) Draw(stats telemetry.PerfStats, phases []string) {
	x := p.x
	y := p.y

	rl.DrawText("Tick Performance", x, y, 16, rl.White)
	y += 20

	rl.DrawText(fmt.Sprintf("Avg: %s  (%.0f ticks/s)", stats.AvgTickDuration.Round(time.Microsecond), stats.TicksPerSecond), x, y, 14, rl.Yellow)
	y += 16
	rl.DrawText(fmt.Sprintf("%.2fM particles/s", stats.ParticlesPerSec/1e6), x, y, 12, rl.LightGray)
	y += 14

	for _, name := range phases {
		avg := stats.PhaseAvg[name]
		pct := stats.PhasePct[name]

		color := rl.LightGray
		if pct > 50 {
			color = rl.Red
		} else if pct > 25 {
			color = rl.Orange
		}

		rl.DrawText(
			fmt.Sprintf("%-12s %8s %5.1f%%", name, avg.Round(time.Microsecond), pct),
			x, y, 12, color,
		)
		y += 14
	}
}
