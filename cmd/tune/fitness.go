package main

import (
	"log/slog"
	"math"
	"slices"
	"sync"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/sphfluid/config"
	"github.com/pthm-cable/sphfluid/sph"
	"github.com/pthm-cable/sphfluid/telemetry"
)

// Scenario is one starting layout every parameter vector is scored on.
type Scenario struct {
	Name  string
	Scene func(base sph.Scene) sph.Scene
}

// DefaultScenarios returns the configured scene and a dam break against the
// -X wall.
func DefaultScenarios() []Scenario {
	return []Scenario{
		{Name: "configured", Scene: func(base sph.Scene) sph.Scene { return base }},
		{Name: "dam_break", Scene: damBreak},
	}
}

// damBreak fills the -X half of the wall box up to two thirds of its height.
func damBreak(base sph.Scene) sph.Scene {
	w := base.Wall
	size := w.Size()
	sc := base
	sc.Fluid = sph.NewBox(
		r3.Add(w.Min, r3.Vec{X: 1, Y: 1, Z: 1}),
		r3.Vec{X: w.Min.X + size.X/2, Y: w.Min.Y + size.Y*2/3, Z: w.Max.Z - 1},
	)
	return sc
}

// Fitness weights
const (
	weightOvershoot    = 10.0 // per lattice spacing outside the wall
	weightDensityError = 1.0
	weightTruncation   = 0.5 // per fraction of particles truncated

	blowUpFitness = 1e6 // non-finite state

	warmupWindows = 2 // windows skipped while the fluid drops
)

// RunResult holds the measurements from a single scenario run.
type RunResult struct {
	Windows      []telemetry.WindowStats
	MaxOvershoot float64
	BlewUp       bool
	Spacing      float64
}

// Score is a fitness with its components.
type Score struct {
	Fitness      float64
	Overshoot    float64 // Worst wall overshoot in lattice spacings
	DensityError float64 // Mean relative density error after warmup
	Truncation   float64 // Mean fraction of particles with truncated neighbor lists
}

// FitnessEvaluator runs headless simulations and computes fitness.
type FitnessEvaluator struct {
	params      *ParamVector
	maxTicks    int32
	scenarios   []Scenario
	baseConfig  *config.Config
	statsWindow float64

	mu        sync.Mutex
	lastScore Score
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, maxTicks int32, scenarios []Scenario, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		maxTicks:    maxTicks,
		scenarios:   scenarios,
		baseConfig:  baseCfg,
		statsWindow: 0.15,
	}
}

// LastScore returns the score breakdown from the most recent evaluation.
func (fe *FitnessEvaluator) LastScore() Score {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastScore
}

// Evaluate computes fitness for a raw parameter vector (lower = better),
// averaged over every scenario. Scenarios run in parallel.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	cfg := fe.copyConfig()
	fe.params.ApplyToConfig(cfg, x)

	scores := make([]Score, len(fe.scenarios))
	var wg sync.WaitGroup
	for i, sc := range fe.scenarios {
		wg.Add(1)
		go func() {
			defer wg.Done()
			scores[i] = computeScore(fe.runSimulation(cfg, sc))
		}()
	}
	wg.Wait()

	var avg Score
	for _, s := range scores {
		avg.Fitness += s.Fitness
		avg.Overshoot = math.Max(avg.Overshoot, s.Overshoot)
		avg.DensityError += s.DensityError
		avg.Truncation += s.Truncation
	}
	n := float64(len(scores))
	avg.Fitness /= n
	avg.DensityError /= n
	avg.Truncation /= n

	fe.mu.Lock()
	fe.lastScore = avg
	fe.mu.Unlock()

	return avg.Fitness
}

// runSimulation executes one scenario for maxTicks, stopping early on blow-up.
func (fe *FitnessEvaluator) runSimulation(cfg *config.Config, sc Scenario) *RunResult {
	params := cfg.SolverParams()
	result := &RunResult{Spacing: params.Spacing()}

	solver, err := sph.NewSolver(params, sph.WithLogger(slog.New(slog.DiscardHandler)))
	if err != nil {
		result.BlewUp = true
		return result
	}
	if err := solver.InitScene(sc.Scene(cfg.SceneVectors())); err != nil {
		result.BlewUp = true
		return result
	}

	collector := telemetry.NewCollector(fe.statsWindow, params.DT, params.RestDensity)
	var sample telemetry.FluidSample

	for tick := int32(1); tick <= fe.maxTicks; tick++ {
		solver.Tick()
		collector.RecordTick(solver.TickStats(), solver.ParticleCount())
		if !collector.ShouldFlush(tick) {
			continue
		}

		sample.Sample(solver)
		stats := collector.Flush(tick, &sample)
		result.Windows = append(result.Windows, stats)
		result.MaxOvershoot = math.Max(result.MaxOvershoot, stats.MaxOvershoot)

		if !finiteStats(stats) {
			result.BlewUp = true
			return result
		}
	}
	return result
}

// finiteStats reports whether the sampled state is still numerically sane.
func finiteStats(s telemetry.WindowStats) bool {
	for _, v := range []float64{s.DensityMean, s.DensityMax, s.SpeedMax, s.MaxOvershoot} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// computeScore turns a run into a fitness (lower = better).
// Fitness = 10·overshoot/spacing + density error + 0.5·truncated fraction.
func computeScore(r *RunResult) Score {
	if r.BlewUp {
		return Score{Fitness: blowUpFitness}
	}

	var s Score
	if r.Spacing > 0 {
		s.Overshoot = r.MaxOvershoot / r.Spacing
	}

	var n int
	for i, w := range r.Windows {
		if i < warmupWindows || w.Particles == 0 {
			continue
		}
		s.DensityError += w.DensityError
		s.Truncation += float64(w.Truncated) / float64(w.Particles)
		n++
	}
	if n > 0 {
		s.DensityError /= float64(n)
		s.Truncation /= float64(n)
	}

	s.Fitness = weightOvershoot*s.Overshoot + weightDensityError*s.DensityError + weightTruncation*s.Truncation
	return s
}

// copyConfig creates a deep copy of the base config.
func (fe *FitnessEvaluator) copyConfig() *config.Config {
	cfg := *fe.baseConfig
	cfg.Scene.WallMin = slices.Clone(fe.baseConfig.Scene.WallMin)
	cfg.Scene.WallMax = slices.Clone(fe.baseConfig.Scene.WallMax)
	cfg.Scene.FluidMin = slices.Clone(fe.baseConfig.Scene.FluidMin)
	cfg.Scene.FluidMax = slices.Clone(fe.baseConfig.Scene.FluidMax)
	cfg.Scene.Gravity = slices.Clone(fe.baseConfig.Scene.Gravity)
	return &cfg
}
