// Package game hosts one SPH solver: it steps it, feeds telemetry, and
// draws it when a window is open.
package game

import (
	"fmt"
	"log/slog"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/sphfluid/camera"
	"github.com/pthm-cable/sphfluid/config"
	"github.com/pthm-cable/sphfluid/renderer"
	"github.com/pthm-cable/sphfluid/sph"
	"github.com/pthm-cable/sphfluid/telemetry"
	"github.com/pthm-cable/sphfluid/ui"
)

// Options configures game behavior.
type Options struct {
	LogStats       bool                        // Log window stats via slog
	StatsWindowSec float64                     // Simulated seconds per stats window, 0 disables windows
	SnapshotDir    string                      // Directory for bookmark snapshots, used when OutputDir is empty
	OutputDir      string                      // Directory for CSV logs, config and snapshots
	Headless       bool                        // Skip all raylib setup
	StepsPerUpdate int                         // Ticks per Update/UpdateHeadless call
	RestorePath    string                      // Snapshot to start from instead of the configured scene
	Integrator     string                      // Overrides the integrator, including a restored snapshot's
	Logger         *slog.Logger                // Logger for the solver, nil uses slog.Default()
	StatsCallback  func(telemetry.WindowStats) // Called on every window flush
}

// Game holds the complete simulation host state.
type Game struct {
	cfg    *config.Config
	solver *sph.Solver
	logger *slog.Logger

	// State
	tick           int32
	paused         bool
	stepsPerUpdate int
	headless       bool

	// Telemetry
	perfCollector    *telemetry.PerfCollector
	collector        *telemetry.Collector
	sample           telemetry.FluidSample
	bookmarkDetector *telemetry.BookmarkDetector
	outputManager    *telemetry.OutputManager
	snapshotDir      string
	logStats         bool
	statsCallback    func(telemetry.WindowStats)
	lastStats        *telemetry.WindowStats

	// Viewer, nil when headless
	camera     *camera.Camera
	background *renderer.BackgroundRenderer
	fluid      *renderer.FluidRenderer
	hud        *ui.HUD
	fluidPanel *ui.FluidPanel
	perfPanel  *ui.PerfPanel
	controls   *ui.ControlsPanel

	screenWidth, screenHeight int32
}

// NewGameWithOptions creates a game from the global config.
// config.Init must have been called.
func NewGameWithOptions(opts Options) (*Game, error) {
	cfg := config.Cfg()

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	g := &Game{
		cfg:            cfg,
		logger:         logger,
		stepsPerUpdate: max(opts.StepsPerUpdate, 1),
		headless:       opts.Headless,
		perfCollector:  telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow),
		logStats:       opts.LogStats,
		statsCallback:  opts.StatsCallback,
		snapshotDir:    opts.SnapshotDir,
	}

	if err := g.initSolver(opts.RestorePath, opts.Integrator); err != nil {
		return nil, err
	}

	params := g.solver.Params()
	if opts.StatsWindowSec > 0 {
		g.collector = telemetry.NewCollector(opts.StatsWindowSec, params.DT, params.RestDensity)
		g.collector.Reset(g.tick)
		g.bookmarkDetector = telemetry.NewBookmarkDetector(20, params.RestDensity)
	}

	if opts.OutputDir != "" {
		om, err := telemetry.NewOutputManager(opts.OutputDir)
		if err != nil {
			return nil, fmt.Errorf("creating output manager: %w", err)
		}
		if err := om.WriteConfig(cfg); err != nil {
			om.Close()
			return nil, fmt.Errorf("writing config: %w", err)
		}
		g.outputManager = om
	}

	if !opts.Headless {
		g.initViewer()
	}

	return g, nil
}

// initSolver builds the solver from the config, or from a snapshot when
// restorePath is set. A non-empty integrator replaces the one in either.
func (g *Game) initSolver(restorePath, integrator string) error {
	params := g.cfg.SolverParams()
	var snap *telemetry.Snapshot
	if restorePath != "" {
		var err error
		snap, err = telemetry.LoadSnapshot(restorePath)
		if err != nil {
			return err
		}
		params = snap.Params
	}
	if integrator != "" {
		params.Integrator = integrator
	}

	solver, err := sph.NewSolver(params,
		sph.WithLogger(g.logger),
		sph.WithPhaseTimer(g.perfCollector),
	)
	if err != nil {
		return fmt.Errorf("creating solver: %w", err)
	}
	g.solver = solver

	if snap != nil {
		if err := snap.Restore(solver); err != nil {
			return err
		}
		g.tick = snap.Tick
		g.logger.Info("restored snapshot", "path", restorePath, "tick", snap.Tick, "particles", solver.ParticleCount())
		return nil
	}

	if err := solver.InitScene(g.cfg.SceneVectors()); err != nil {
		return fmt.Errorf("initializing scene: %w", err)
	}
	return nil
}

// initViewer sets up the camera, renderers and UI panels.
func (g *Game) initViewer() {
	cfg := g.cfg
	g.screenWidth = int32(cfg.Screen.Width)
	g.screenHeight = int32(cfg.Screen.Height)

	wall := g.solver.Wall()
	g.camera = camera.New(
		r3Centre(wall),
		cfg.Camera.Distance, cfg.Camera.Yaw, cfg.Camera.Pitch, cfg.Camera.FOV,
	)

	g.background = renderer.NewBackgroundRenderer(g.screenWidth, g.screenHeight,
		rl.Color{R: 18, G: 22, B: 30, A: 255}, rl.Color{R: 4, G: 6, B: 10, A: 255})
	g.fluid = renderer.NewFluidRenderer(float32(g.solver.Params().Spacing() * 0.6))

	g.hud = ui.NewHUD()
	g.perfPanel = ui.NewPerfPanel(10, 100)
	g.fluidPanel = ui.NewFluidPanel(g.screenWidth-290, 10, 280, g.solver.Params().RestDensity)
	g.controls = ui.NewControlsPanel(g.screenWidth-290, 0, 280)
	g.layoutPanels()
}

// layoutPanels positions the right-hand panels for the current screen size.
func (g *Game) layoutPanels() {
	x := g.screenWidth - 290
	g.fluidPanel.SetPosition(x, 10)
	g.controls.SetPosition(x, g.screenHeight-g.controls.Height()-40)
}

// Update runs one frame of the windowed simulation.
func (g *Game) Update() {
	g.handleInput()
	if g.paused {
		return
	}
	for i := 0; i < g.stepsPerUpdate; i++ {
		g.step()
	}
}

// UpdateHeadless runs stepsPerUpdate ticks without input or graphics.
func (g *Game) UpdateHeadless() {
	for i := 0; i < g.stepsPerUpdate; i++ {
		g.step()
	}
}

// step advances the solver one tick and feeds telemetry.
func (g *Game) step() {
	g.perfCollector.StartTick()

	g.solver.Tick()
	g.tick++

	g.perfCollector.StartPhase(telemetry.PhaseTelemetry)
	if g.collector != nil {
		g.collector.RecordTick(g.solver.TickStats(), g.solver.ParticleCount())
		g.flushTelemetry()
	}

	g.perfCollector.EndTick(g.solver.ParticleCount())
}

// Reset reinitializes the configured scene and restarts the tick counter.
func (g *Game) Reset() error {
	if err := g.solver.InitScene(g.cfg.SceneVectors()); err != nil {
		return fmt.Errorf("resetting scene: %w", err)
	}
	g.tick = 0
	g.lastStats = nil
	if g.collector != nil {
		g.collector.Reset(0)
		g.bookmarkDetector.Reset()
	}
	return nil
}

// Unload releases output files.
func (g *Game) Unload() {
	if g.outputManager != nil {
		if err := g.outputManager.Close(); err != nil {
			g.logger.Error("failed to close output", "error", err)
		}
		g.outputManager = nil
	}
}

// Tick returns the number of ticks simulated since the last reset.
func (g *Game) Tick() int32 {
	return g.tick
}

// Solver returns the simulated solver.
func (g *Game) Solver() *sph.Solver {
	return g.solver
}

// Paused reports whether the simulation is paused.
func (g *Game) Paused() bool {
	return g.paused
}

// SetPaused pauses or resumes the simulation.
func (g *Game) SetPaused(paused bool) {
	g.paused = paused
}

// StepsPerUpdate returns the ticks run per update call.
func (g *Game) StepsPerUpdate() int {
	return g.stepsPerUpdate
}

// SetStepsPerUpdate sets the ticks per update, clamped to the slider range.
func (g *Game) SetStepsPerUpdate(steps int) {
	g.stepsPerUpdate = ui.ClampSteps(steps)
}

// LastStats returns the most recent telemetry window, or nil before the first flush.
func (g *Game) LastStats() *telemetry.WindowStats {
	return g.lastStats
}
