// Package telemetry provides fluid health tracking, performance timing, bookmarking, and snapshots.
package telemetry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/sphfluid/sph"
)

// Collector accumulates per-tick kernel counters within time windows and
// produces WindowStats.
type Collector struct {
	windowDurationSec   float64
	windowDurationTicks int32
	dt                  float64
	restDensity         float64

	// Current window tracking
	windowStartTick int32

	// Counters for current window
	ticks            int
	neighborsPerTick float64 // sum over ticks of neighbors per particle
	maxTruncated     int
	maxOutOfGrid     int
}

// NewCollector creates a new stats collector.
// windowDurationSec: how long each stats window lasts in simulation seconds
// dt: seconds per tick (used for tick-to-time conversion)
// restDensity: the target density used for DensityError
func NewCollector(windowDurationSec, dt, restDensity float64) *Collector {
	ticksPerWindow := int32(math.Round(windowDurationSec / dt))
	if ticksPerWindow < 1 {
		ticksPerWindow = 1
	}

	return &Collector{
		windowDurationSec:   windowDurationSec,
		windowDurationTicks: ticksPerWindow,
		dt:                  dt,
		restDensity:         restDensity,
	}
}

// RecordTick records the counters of one finished tick.
func (c *Collector) RecordTick(ts sph.TickStats, particles int) {
	c.ticks++
	if particles > 0 {
		c.neighborsPerTick += float64(ts.Neighbors) / float64(particles)
	}
	c.maxTruncated = max(c.maxTruncated, ts.Truncated)
	c.maxOutOfGrid = max(c.maxOutOfGrid, ts.OutOfGrid)
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int32) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// FluidSample holds per-particle values sampled at the end of a window.
// Slices are reused between samples.
type FluidSample struct {
	Densities    []float64
	Pressures    []float64
	Speeds       []float64 // m/s
	MaxOvershoot float64   // world units outside the wall box
}

// Sample fills fs from the current solver state.
func (fs *FluidSample) Sample(s *sph.Solver) {
	n := s.ParticleCount()
	fs.Densities = fs.Densities[:0]
	fs.Pressures = fs.Pressures[:0]
	fs.Speeds = fs.Speeds[:0]
	fs.MaxOvershoot = 0

	wall := s.Wall()
	for i := 0; i < n; i++ {
		p := s.Particle(i)
		fs.Densities = append(fs.Densities, p.Density)
		fs.Pressures = append(fs.Pressures, p.Pressure)
		fs.Speeds = append(fs.Speeds, r3.Norm(p.Velocity))
		fs.MaxOvershoot = max(fs.MaxOvershoot, wall.Overshoot(p.Position))
	}
}

// Flush produces a WindowStats and resets counters for the next window.
func (c *Collector) Flush(currentTick int32, fs *FluidSample) WindowStats {
	density := ComputeDistribution(fs.Densities)
	speed := ComputeDistribution(fs.Speeds)
	pressure := ComputeDistribution(fs.Pressures)

	var neighborsMean float64
	if c.ticks > 0 {
		neighborsMean = c.neighborsPerTick / float64(c.ticks)
	}

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      float64(currentTick) * c.dt,

		Particles: len(fs.Densities),

		DensityMean:  density.Mean,
		DensityStd:   density.Std,
		DensityMin:   density.Min,
		DensityP50:   density.P50,
		DensityMax:   density.Max,
		DensityError: RelativeError(fs.Densities, c.restDensity),

		PressureMean: pressure.Mean,

		SpeedMean: speed.Mean,
		SpeedMax:  speed.Max,

		NeighborsMean: neighborsMean,
		Truncated:     c.maxTruncated,
		OutOfGrid:     c.maxOutOfGrid,

		MaxOvershoot: fs.MaxOvershoot,
	}

	c.Reset(currentTick)
	return stats
}

// Reset restarts window tracking at tick, dropping the current counters.
func (c *Collector) Reset(tick int32) {
	c.windowStartTick = tick
	c.ticks = 0
	c.neighborsPerTick = 0
	c.maxTruncated = 0
	c.maxOutOfGrid = 0
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() int32 {
	return c.windowDurationTicks
}
