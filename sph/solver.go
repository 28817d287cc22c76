package sph

import (
	"fmt"
	"log/slog"
	"math"
	"unsafe"

	"gonum.org/v1/gonum/spatial/r3"
)

// Phase names reported to a PhaseTimer, in execution order.
const (
	PhaseInsertToGrid   = "insert_grid"
	PhaseComputeDensity = "density"
	PhaseComputeForce   = "force"
	PhaseAdvance        = "advance"
)

// Phases lists the tick phases in execution order.
var Phases = []string{PhaseInsertToGrid, PhaseComputeDensity, PhaseComputeForce, PhaseAdvance}

// PhaseTimer receives a call at the start of every tick phase.
type PhaseTimer interface {
	StartPhase(name string)
}

// Scene describes the volume a Solver simulates and the fluid it starts with.
type Scene struct {
	MaxParticles int
	Wall         Box
	Fluid        Box
	Gravity      r3.Vec
}

// TickStats summarises the last tick.
type TickStats struct {
	OutOfGrid int // particles outside every grid cell, no neighbors this tick
	Truncated int // particles whose neighbor list hit MaxNeighbors
	Neighbors int // neighbor records committed
}

// Option configures a Solver.
type Option func(*Solver)

// WithLogger sets the logger used for warnings. Nil keeps slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Solver) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithPhaseTimer reports phase boundaries to t on every tick.
func WithPhaseTimer(t PhaseTimer) Option {
	return func(s *Solver) {
		s.timer = t
	}
}

// Solver advances an SPH fluid one fixed step per Tick.
//
// Every tick runs four passes in strict order: rebuild the grid, compute
// density and pressure (recording neighbors), compute pressure and viscosity
// accelerations from the recorded neighbors, then apply limits, walls and
// gravity and integrate. The Solver owns all of its state; Init may only be
// called between ticks.
type Solver struct {
	params     Params
	kernels    Kernels
	integrator Integrator

	pool      *Pool
	grid      Grid
	neighbors NeighborTable

	scene   Scene
	wall    Box
	gravity r3.Vec

	logger *slog.Logger
	timer  PhaseTimer

	stats       TickStats
	initialized bool
}

// NewSolver validates params and builds an uninitialised Solver.
// Init must be called before the first Tick.
func NewSolver(params Params, opts ...Option) (*Solver, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	integrator, err := NewIntegrator(params.Integrator, params.DT, params.UnitScale)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidParams, err)
	}

	s := &Solver{
		params:     params,
		kernels:    NewKernels(params.SmoothRadius),
		integrator: integrator,
		pool:       NewPool(params.PoolCeiling, params.Seed),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Init resets the simulation: the pool is reallocated for maxCount particles,
// the fluid box is filled with a lattice and the grid is sized over the wall box.
func (s *Solver) Init(maxCount int, wallMin, wallMax, fluidMin, fluidMax, gravity r3.Vec) error {
	return s.InitScene(Scene{
		MaxParticles: maxCount,
		Wall:         NewBox(wallMin, wallMax),
		Fluid:        NewBox(fluidMin, fluidMax),
		Gravity:      gravity,
	})
}

// InitScene is Init with the arguments grouped in a Scene.
func (s *Solver) InitScene(sc Scene) error {
	if err := sc.validate(); err != nil {
		return err
	}
	s.pool.Reset(sc.MaxParticles)
	s.AddParticles(sc.Fluid, s.params.Spacing())
	s.finishInit(sc)
	return nil
}

// Restore resets the simulation to sc with the given particle records in
// place of a fresh lattice. Records past the pool ceiling reuse slots the
// same way Allocate does.
func (s *Solver) Restore(sc Scene, particles []Particle) error {
	if err := sc.validate(); err != nil {
		return err
	}
	s.pool.Reset(max(sc.MaxParticles, len(particles)))
	for i := range particles {
		_, p := s.pool.Allocate()
		p.Position = particles[i].Position
		p.Velocity = particles[i].Velocity
		p.Acceleration = particles[i].Acceleration
		p.Density = particles[i].Density
		p.Pressure = particles[i].Pressure
	}
	s.finishInit(sc)
	return nil
}

func (sc Scene) validate() error {
	if sc.MaxParticles <= 0 {
		return fmt.Errorf("max particles must be positive, got %d", sc.MaxParticles)
	}
	if !sc.Wall.Valid() {
		return fmt.Errorf("wall box min %v exceeds max %v", sc.Wall.Min, sc.Wall.Max)
	}
	if !sc.Fluid.Valid() {
		return fmt.Errorf("fluid box min %v exceeds max %v", sc.Fluid.Min, sc.Fluid.Max)
	}
	return nil
}

// finishInit sizes the grid over the wall box once the pool is filled.
func (s *Solver) finishInit(sc Scene) {
	s.scene = sc
	s.wall = sc.Wall
	s.gravity = sc.Gravity
	s.stats = TickStats{}

	// Cells are twice the smoothing radius wide.
	s.grid.Init(sc.Wall, s.params.UnitScale, s.params.SmoothRadius*2, s.params.GridBorder)
	s.neighbors.Reset(s.pool.Size())
	s.initialized = true

	res := s.grid.Res()
	s.logger.Info("sph initialized",
		"particles", s.pool.Size(),
		"capacity", s.pool.Capacity(),
		"spacing", s.params.Spacing(),
		"grid_res", []int{res.X, res.Y, res.Z},
		"integrator", s.integrator.Name(),
	)
	if n := s.pool.Overflow(); n > 0 {
		s.logger.Warn("particle pool ceiling reached, slots reused",
			"reused", n,
			"ceiling", s.pool.Ceiling(),
		)
	}
}

// AddParticles fills box with a regular lattice at spacing, walking z from
// max to min and y, x upwards. It returns the number of allocations made;
// past the pool ceiling some of them reuse existing particles.
func (s *Solver) AddParticles(box Box, spacing float64) int {
	if !(spacing > 0) {
		return 0
	}
	n := 0
	for kz := 0; ; kz++ {
		z := box.Max.Z - float64(kz)*spacing
		if z < box.Min.Z {
			break
		}
		for ky := 0; ; ky++ {
			y := box.Min.Y + float64(ky)*spacing
			if y > box.Max.Y {
				break
			}
			for kx := 0; ; kx++ {
				x := box.Min.X + float64(kx)*spacing
				if x > box.Max.X {
					break
				}
				_, p := s.pool.Allocate()
				p.Position = r3.Vec{X: x, Y: y, Z: z}
				n++
			}
		}
	}
	return n
}

func (s *Solver) startPhase(name string) {
	if s.timer != nil {
		s.timer.StartPhase(name)
	}
}

// Tick advances the simulation by one time step.
func (s *Solver) Tick() {
	prevOut := s.stats.OutOfGrid

	s.startPhase(PhaseInsertToGrid)
	s.stats.OutOfGrid = s.grid.InsertParticles(s.pool)

	s.startPhase(PhaseComputeDensity)
	s.computeDensity()

	s.startPhase(PhaseComputeForce)
	s.computeForce()

	s.startPhase(PhaseAdvance)
	s.advance()

	s.stats.Truncated = s.neighbors.Truncated()

	if s.stats.OutOfGrid > 0 && prevOut == 0 {
		s.logger.Warn("particles outside grid, excluded from neighbor search",
			"count", s.stats.OutOfGrid,
		)
	}
	s.logger.Debug("sph tick",
		"out_of_grid", s.stats.OutOfGrid,
		"truncated", s.stats.Truncated,
		"neighbors", s.stats.Neighbors,
	)
}

// computeDensity accumulates the Poly6 density sum for every particle and
// records in-range neighbors for the force pass.
func (s *Solver) computeDensity() {
	h := s.params.SmoothRadius
	h2 := h * h
	selfTerm := h2 * h2 * h2
	unit := s.params.UnitScale
	searchRadius := h / unit

	s.neighbors.Reset(s.pool.Size())
	s.stats.Neighbors = 0

	live := s.pool.Live()
	for i := range live {
		pi := &live[i]
		s.neighbors.PreparePoint(i)

		sum := selfTerm
		// Particles outside the grid are in no chain; they keep the self term only.
		if s.grid.CellIndex(pi.Position) >= 0 {
			sum += s.gatherNeighbors(i, pi, h2, unit, searchRadius)
		}

		s.neighbors.CommitPoint()
		s.stats.Neighbors += s.neighbors.NeighborCount(i)

		pi.Density = s.kernels.Poly6 * s.params.ParticleMass * sum
		pi.Pressure = (pi.Density - s.params.RestDensity) * s.params.GasConstant
	}
}

// gatherNeighbors walks the candidate cells of particle i, registering every
// particle closer than h and returning the sum of (h^2 - r^2)^3 over them.
// Once the neighbor table is full the remaining candidates are skipped.
func (s *Solver) gatherNeighbors(i int, pi *Particle, h2, unit, searchRadius float64) float64 {
	var sum float64
	cells := s.grid.FindCells(pi.Position, searchRadius)
	for _, cell := range cells {
		if cell < 0 {
			continue
		}
		for j := s.grid.Head(cell); j != -1; {
			pj := s.pool.At(j)
			if j != i {
				d := r3.Scale(unit, r3.Sub(pi.Position, pj.Position))
				r2 := r3.Norm2(d)
				if r2 < h2 {
					diff := h2 - r2
					sum += diff * diff * diff
					if !s.neighbors.AddNeighbor(j, math.Sqrt(r2)) {
						return sum
					}
				}
			}
			j = pj.Next
		}
	}
	return sum
}

// computeForce sums pressure and viscosity accelerations over the
// neighbors recorded by computeDensity.
func (s *Solver) computeForce() {
	h := s.params.SmoothRadius
	unit := s.params.UnitScale
	mass := s.params.ParticleMass
	spiky := s.kernels.Spiky
	visc := s.kernels.Viscosity * s.params.Viscosity

	live := s.pool.Live()
	for i := range live {
		pi := &live[i]
		var accel r3.Vec

		count := s.neighbors.NeighborCount(i)
		for slot := 0; slot < count; slot++ {
			j, r := s.neighbors.NeighborInfo(i, slot)
			pj := &live[j]

			hr := h - r
			densities := pi.Density * pj.Density

			// Coincident particles have no pressure direction.
			if r > 0 {
				rij := r3.Scale(unit, r3.Sub(pi.Position, pj.Position))
				pterm := -mass * spiky * hr * hr * (pi.Pressure + pj.Pressure) / (2 * densities)
				accel = r3.Add(accel, r3.Scale(pterm/r, rij))
			}

			vterm := visc * hr * mass / densities
			accel = r3.Add(accel, r3.Scale(vterm, r3.Sub(pj.Velocity, pi.Velocity)))
		}

		pi.Acceleration = accel
	}
}

// wallFace is one inward-facing wall of the simulation box.
type wallFace struct {
	normal r3.Vec
	dist   func(b Box, p r3.Vec) float64
}

var wallFaces = [6]wallFace{
	{r3.Vec{Z: 1}, func(b Box, p r3.Vec) float64 { return p.Z - b.Min.Z }},
	{r3.Vec{Z: -1}, func(b Box, p r3.Vec) float64 { return b.Max.Z - p.Z }},
	{r3.Vec{X: 1}, func(b Box, p r3.Vec) float64 { return p.X - b.Min.X }},
	{r3.Vec{X: -1}, func(b Box, p r3.Vec) float64 { return b.Max.X - p.X }},
	{r3.Vec{Y: 1}, func(b Box, p r3.Vec) float64 { return p.Y - b.Min.Y }},
	{r3.Vec{Y: -1}, func(b Box, p r3.Vec) float64 { return b.Max.Y - p.Y }},
}

// boundaryAccel returns the penalty acceleration pushing p back from walls
// it is closer than two unit scales to.
func (s *Solver) boundaryAccel(p *Particle) r3.Vec {
	unit := s.params.UnitScale
	zone := 2 * unit

	var accel r3.Vec
	for _, f := range wallFaces {
		diff := zone - f.dist(s.wall, p.Position)*unit
		if diff <= 0 {
			continue
		}
		adj := s.params.BoundaryStiffness*diff - s.params.BoundaryDamping*r3.Dot(f.normal, p.Velocity)
		accel = r3.Add(accel, r3.Scale(adj, f.normal))
	}
	return accel
}

// advance limits accelerations, adds walls and gravity, then integrates.
func (s *Solver) advance() {
	limit := s.params.SpeedLimit
	limit2 := limit * limit

	live := s.pool.Live()
	for i := range live {
		p := &live[i]

		accel := p.Acceleration
		if n2 := r3.Norm2(accel); n2 > limit2 {
			accel = r3.Scale(limit/math.Sqrt(n2), accel)
		}

		accel = r3.Add(accel, s.boundaryAccel(p))
		accel = r3.Add(accel, s.gravity)

		p.Acceleration = accel
		s.integrator.Advance(p)
	}
}

// ParticleCount returns the number of live particles.
func (s *Solver) ParticleCount() int {
	return s.pool.Size()
}

// ParticleStride returns the size in bytes of one particle record.
// Position is always the first field of a record.
func (s *Solver) ParticleStride() uintptr {
	return unsafe.Sizeof(Particle{})
}

// Positions returns a read-only view of particle positions, valid until the
// next Tick or Init.
func (s *Solver) Positions() PositionView {
	return PositionView{particles: s.pool.Live()}
}

// Particle returns a copy of the particle at index.
func (s *Solver) Particle(index int) Particle {
	return *s.pool.At(index)
}

// AppendParticles appends a copy of every live particle to dst.
func (s *Solver) AppendParticles(dst []Particle) []Particle {
	return append(dst, s.pool.Live()...)
}

// TickStats returns the statistics of the last tick.
func (s *Solver) TickStats() TickStats { return s.stats }

// Params returns the constants the Solver was built with.
func (s *Solver) Params() Params { return s.params }

// Kernels returns the kernel constants.
func (s *Solver) Kernels() Kernels { return s.kernels }

// Scene returns the scene of the last successful Init or Restore.
func (s *Solver) Scene() Scene { return s.scene }

// Wall returns the simulation wall box.
func (s *Solver) Wall() Box { return s.wall }

// Gravity returns the gravity acceleration.
func (s *Solver) Gravity() r3.Vec { return s.gravity }

// Initialized reports whether Init has succeeded at least once.
func (s *Solver) Initialized() bool { return s.initialized }

// PositionView is a read-only window onto particle positions.
type PositionView struct {
	particles []Particle
}

// Len returns the number of positions.
func (v PositionView) Len() int { return len(v.particles) }

// At returns the position of particle i.
func (v PositionView) At(i int) r3.Vec { return v.particles[i].Position }

// AppendTo appends every position to dst and returns the extended slice.
func (v PositionView) AppendTo(dst []r3.Vec) []r3.Vec {
	for i := range v.particles {
		dst = append(dst, v.particles[i].Position)
	}
	return dst
}
