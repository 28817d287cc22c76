package telemetry

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/sphfluid/sph"
)

// PhaseTelemetry covers host-side sampling and output after the solver tick.
const PhaseTelemetry = "telemetry"

// Phases lists every timed phase in execution order: the solver phases
// followed by PhaseTelemetry.
var Phases = append(slices.Clone(sph.Phases), PhaseTelemetry)

// phaseIndex maps a phase name to its slot in a tick sample.
var phaseIndex = func() map[string]int {
	m := make(map[string]int, len(Phases))
	for i, name := range Phases {
		m[name] = i
	}
	return m
}()

// tickSample holds the timing of one tick. phases is indexed like Phases.
type tickSample struct {
	total     time.Duration
	phases    []time.Duration
	particles int
}

// PerfOption configures a PerfCollector.
type PerfOption func(*PerfCollector)

// WithClock replaces time.Now as the collector's time source.
func WithClock(now func() time.Time) PerfOption {
	return func(p *PerfCollector) {
		p.now = now
	}
}

// PerfCollector times solver phases over a rolling window of ticks.
// It implements sph.PhaseTimer.
type PerfCollector struct {
	now func() time.Time

	ring  []tickSample
	next  int
	count int

	current    []time.Duration
	tickStart  time.Time
	phaseStart time.Time
	phase      int // index into Phases, -1 between phases

	lastFrame time.Time
	frame     time.Duration
}

// NewPerfCollector creates a collector averaging over windowSize ticks.
func NewPerfCollector(windowSize int, opts ...PerfOption) *PerfCollector {
	if windowSize < 1 {
		windowSize = 60
	}
	p := &PerfCollector{
		now:     time.Now,
		ring:    make([]tickSample, windowSize),
		current: make([]time.Duration, len(Phases)),
		phase:   -1,
	}
	for i := range p.ring {
		p.ring[i].phases = make([]time.Duration, len(Phases))
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// StartTick begins timing a new tick.
func (p *PerfCollector) StartTick() {
	p.tickStart = p.now()
	clear(p.current)
	p.phase = -1
}

// StartPhase closes the running phase and starts timing name.
// Names outside Phases stop the clock until the next known phase.
func (p *PerfCollector) StartPhase(name string) {
	now := p.now()
	p.closePhase(now)
	p.phaseStart = now
	if i, ok := phaseIndex[name]; ok {
		p.phase = i
	}
}

func (p *PerfCollector) closePhase(now time.Time) {
	if p.phase >= 0 {
		p.current[p.phase] += now.Sub(p.phaseStart)
	}
	p.phase = -1
}

// EndTick records the tick. particles is the number of particles the
// solver advanced, used for throughput.
func (p *PerfCollector) EndTick(particles int) {
	now := p.now()
	p.closePhase(now)

	s := &p.ring[p.next]
	s.total = now.Sub(p.tickStart)
	s.particles = particles
	copy(s.phases, p.current)

	p.next = (p.next + 1) % len(p.ring)
	if p.count < len(p.ring) {
		p.count++
	}
}

// RecordFrame marks a rendered frame.
func (p *PerfCollector) RecordFrame() {
	now := p.now()
	if !p.lastFrame.IsZero() {
		p.frame = now.Sub(p.lastFrame)
	}
	p.lastFrame = now
}

// PerfStats aggregates the collector window.
type PerfStats struct {
	AvgTickDuration time.Duration
	MinTickDuration time.Duration
	MaxTickDuration time.Duration
	TicksPerSecond  float64

	// Per phase, keyed by the names in Phases.
	PhaseAvg map[string]time.Duration
	PhasePct map[string]float64

	// Particle updates per second of tick time, overall and per phase.
	ParticlesPerSec      float64
	PhaseParticlesPerSec map[string]float64

	FrameDuration time.Duration
	FPS           float64
}

// Stats computes statistics over the current window.
func (p *PerfCollector) Stats() PerfStats {
	s := PerfStats{
		PhaseAvg:             make(map[string]time.Duration, len(Phases)),
		PhasePct:             make(map[string]float64, len(Phases)),
		PhaseParticlesPerSec: make(map[string]float64, len(Phases)),
		FrameDuration:        p.frame,
	}
	if p.frame > 0 {
		s.FPS = float64(time.Second) / float64(p.frame)
	}
	if p.count == 0 {
		return s
	}

	totals := make([]float64, p.count)
	phaseSums := make([]float64, len(Phases))
	var particles float64
	for i, sample := range p.ring[:p.count] {
		totals[i] = float64(sample.total)
		for j, d := range sample.phases {
			phaseSums[j] += float64(d)
		}
		particles += float64(sample.particles)
	}

	avg := stat.Mean(totals, nil)
	s.AvgTickDuration = time.Duration(avg)
	s.MinTickDuration = time.Duration(floats.Min(totals))
	s.MaxTickDuration = time.Duration(floats.Max(totals))
	if avg > 0 {
		s.TicksPerSecond = float64(time.Second) / avg
	}
	if sum := floats.Sum(totals); sum > 0 {
		s.ParticlesPerSec = particles / (sum / float64(time.Second))
	}

	n := float64(p.count)
	for j, name := range Phases {
		phaseAvg := phaseSums[j] / n
		s.PhaseAvg[name] = time.Duration(phaseAvg)
		if avg > 0 {
			s.PhasePct[name] = phaseAvg / avg * 100
		}
		if phaseSums[j] > 0 {
			s.PhaseParticlesPerSec[name] = particles / (phaseSums[j] / float64(time.Second))
		}
	}
	return s
}

func (s PerfStats) attrs() []slog.Attr {
	attrs := []slog.Attr{
		slog.Int64("avg_tick_us", s.AvgTickDuration.Microseconds()),
		slog.Int64("min_tick_us", s.MinTickDuration.Microseconds()),
		slog.Int64("max_tick_us", s.MaxTickDuration.Microseconds()),
		slog.Float64("ticks_per_sec", s.TicksPerSecond),
		slog.Float64("particles_per_sec", s.ParticlesPerSec),
	}
	if s.FPS > 0 {
		attrs = append(attrs, slog.Float64("fps", s.FPS))
	}
	for _, name := range Phases {
		if pct := s.PhasePct[name]; pct > 0.1 {
			attrs = append(attrs, slog.Float64(name+"_pct", float64(int(pct*10))/10))
		}
	}
	return attrs
}

// LogStats logs the window at info level.
func (s PerfStats) LogStats() {
	slog.LogAttrs(context.Background(), slog.LevelInfo, "perf", s.attrs()...)
}

// LogValue implements slog.LogValuer.
func (s PerfStats) LogValue() slog.Value {
	return slog.GroupValue(s.attrs()...)
}

// PerfStatsCSV is one perf.csv row.
type PerfStatsCSV struct {
	WindowEnd       int32   `csv:"window_end"`
	AvgTickUS       int64   `csv:"avg_tick_us"`
	MinTickUS       int64   `csv:"min_tick_us"`
	MaxTickUS       int64   `csv:"max_tick_us"`
	TicksPerSec     float64 `csv:"ticks_per_sec"`
	ParticlesPerSec float64 `csv:"particles_per_sec"`
	FPS             float64 `csv:"fps"`
	InsertGridPct   float64 `csv:"insert_grid_pct"`
	DensityPct      float64 `csv:"density_pct"`
	ForcePct        float64 `csv:"force_pct"`
	AdvancePct      float64 `csv:"advance_pct"`
	TelemetryPct    float64 `csv:"telemetry_pct"`
	DensityRate     float64 `csv:"density_particles_per_sec"`
	ForceRate       float64 `csv:"force_particles_per_sec"`
}

// ToCSV flattens the stats into a perf.csv row.
func (s PerfStats) ToCSV(windowEnd int32) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:       windowEnd,
		AvgTickUS:       s.AvgTickDuration.Microseconds(),
		MinTickUS:       s.MinTickDuration.Microseconds(),
		MaxTickUS:       s.MaxTickDuration.Microseconds(),
		TicksPerSec:     s.TicksPerSecond,
		ParticlesPerSec: s.ParticlesPerSec,
		FPS:             s.FPS,
		InsertGridPct:   s.PhasePct[sph.PhaseInsertToGrid],
		DensityPct:      s.PhasePct[sph.PhaseComputeDensity],
		ForcePct:        s.PhasePct[sph.PhaseComputeForce],
		AdvancePct:      s.PhasePct[sph.PhaseAdvance],
		TelemetryPct:    s.PhasePct[PhaseTelemetry],
		DensityRate:     s.PhaseParticlesPerSec[sph.PhaseComputeDensity],
		ForceRate:       s.PhaseParticlesPerSec[sph.PhaseComputeForce],
	}
}
