package sph

import (
	"bytes"
	"errors"
	"log/slog"
	"math"
	"strings"
	"testing"
	"unsafe"

	"gonum.org/v1/gonum/spatial/r3"
)

var testGravity = r3.Vec{Y: -9.8}

func newTestSolver(t *testing.T, opts ...Option) *Solver {
	t.Helper()
	opts = append([]Option{WithLogger(slog.New(slog.DiscardHandler))}, opts...)
	s, err := NewSolver(DefaultParams(), opts...)
	if err != nil {
		t.Fatalf("NewSolver: %v", err)
	}
	return s
}

func finite(v r3.Vec) bool {
	for _, c := range []float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

func TestSolver_InitAndTick(t *testing.T) {
	s := newTestSolver(t)

	err := s.Init(8,
		r3.Vec{X: -10, Y: -10, Z: -10}, r3.Vec{X: 10, Y: 10, Z: 10},
		r3.Vec{X: -1, Y: -1, Z: -1}, r3.Vec{X: 1, Y: 1, Z: 1},
		testGravity)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if !s.Initialized() {
		t.Fatal("Initialized() = false after Init")
	}
	if got := s.ParticleCount(); got != 8 {
		t.Fatalf("ParticleCount = %d, want 8", got)
	}

	s.Tick()

	for i := 0; i < s.ParticleCount(); i++ {
		p := s.Particle(i)
		if !finite(p.Position) || !finite(p.Velocity) {
			t.Fatalf("particle %d not finite: %+v", i, p)
		}
		if !(p.Density > 0) {
			t.Errorf("particle %d density = %v, want > 0", i, p.Density)
		}
	}
	if s.TickStats().OutOfGrid != 0 {
		t.Errorf("OutOfGrid = %d, want 0", s.TickStats().OutOfGrid)
	}
}

func TestSolver_LatticeOrder(t *testing.T) {
	s := newTestSolver(t)
	if err := s.Init(8,
		r3.Vec{X: -10, Y: -10, Z: -10}, r3.Vec{X: 10, Y: 10, Z: 10},
		r3.Vec{X: -1, Y: -1, Z: -1}, r3.Vec{X: 1, Y: 1, Z: 1},
		testGravity); err != nil {
		t.Fatalf("Init: %v", err)
	}

	// z descends from the fluid max, x varies fastest.
	first := s.Particle(0).Position
	second := s.Particle(1).Position
	if first != (r3.Vec{X: -1, Y: -1, Z: 1}) {
		t.Errorf("first lattice point = %v, want (-1,-1,1)", first)
	}
	if second.X <= first.X || second.Y != first.Y || second.Z != first.Z {
		t.Errorf("second lattice point = %v, want x step from %v", second, first)
	}
	if last := s.Particle(7).Position; last.Z >= first.Z {
		t.Errorf("last lattice point z = %v, want below %v", last.Z, first.Z)
	}
}

func TestSolver_StaysContained(t *testing.T) {
	s := newTestSolver(t)
	wall := NewBox(r3.Vec{X: -10, Y: 0, Z: -10}, r3.Vec{X: 10, Y: 20, Z: 10})
	fluid := NewBox(r3.Vec{X: -3, Y: 2, Z: -3}, r3.Vec{X: 3, Y: 8, Z: 3})

	if err := s.InitScene(Scene{MaxParticles: 64, Wall: wall, Fluid: fluid, Gravity: testGravity}); err != nil {
		t.Fatalf("InitScene: %v", err)
	}
	if s.ParticleCount() != 64 {
		t.Fatalf("ParticleCount = %d, want 64", s.ParticleCount())
	}

	for tick := 0; tick < 1000; tick++ {
		s.Tick()
	}

	p := s.Params()
	// The penalty force balances at most the clamped acceleration plus gravity.
	limit := (p.SpeedLimit + 9.8) / p.BoundaryStiffness / p.UnitScale

	view := s.Positions()
	for i := 0; i < view.Len(); i++ {
		pos := view.At(i)
		if !finite(pos) {
			t.Fatalf("particle %d position not finite: %v", i, pos)
		}
		if o := wall.Overshoot(pos); o > limit {
			t.Errorf("particle %d at %v is %v outside the wall, limit %v", i, pos, o, limit)
		}
	}
}

func TestSolver_NeighborTruncation(t *testing.T) {
	s := newTestSolver(t)
	if err := s.Init(1,
		r3.Vec{X: -10, Y: -10, Z: -10}, r3.Vec{X: 10, Y: 10, Z: 10},
		r3.Vec{}, r3.Vec{},
		r3.Vec{}); err != nil {
		t.Fatalf("Init: %v", err)
	}

	// 216 particles packed well inside one smoothing radius of each other.
	s.pool.Reset(256)
	n := s.AddParticles(NewBox(r3.Vec{}, r3.Vec{X: 1.1, Y: 1.1, Z: 1.1}), 0.2)
	if n != 216 {
		t.Fatalf("AddParticles = %d, want 216", n)
	}

	s.Tick()

	if got := s.TickStats().Truncated; got != 216 {
		t.Errorf("Truncated = %d, want 216", got)
	}
	for i := 0; i < s.ParticleCount(); i++ {
		if got := s.neighbors.NeighborCount(i); got != MaxNeighbors {
			t.Fatalf("particle %d neighbor count = %d, want %d", i, got, MaxNeighbors)
		}
	}
	if got := s.TickStats().Neighbors; got != 216*MaxNeighbors {
		t.Errorf("Neighbors = %d, want %d", got, 216*MaxNeighbors)
	}
}

func TestSolver_OutOfGridParticle(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelWarn}))
	s := newTestSolver(t, WithLogger(logger))

	if err := s.Init(8,
		r3.Vec{X: -10, Y: -10, Z: -10}, r3.Vec{X: 10, Y: 10, Z: 10},
		r3.Vec{X: -1, Y: -1, Z: -1}, r3.Vec{X: 1, Y: 1, Z: 1},
		r3.Vec{}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	s.pool.At(0).Position = r3.Vec{X: 1000}

	s.Tick()

	if got := s.TickStats().OutOfGrid; got != 1 {
		t.Fatalf("OutOfGrid = %d, want 1", got)
	}
	if got := s.neighbors.NeighborCount(0); got != 0 {
		t.Errorf("stray particle neighbor count = %d, want 0", got)
	}

	h := s.Params().SmoothRadius
	want := s.Kernels().Poly6 * s.Params().ParticleMass * math.Pow(h, 6)
	if got := s.Particle(0).Density; !relNear(got, want, 1e-9) {
		t.Errorf("stray particle density = %v, want self term %v", got, want)
	}

	// The warning fires on the transition only.
	s.Tick()
	if got := strings.Count(logs.String(), "particles outside grid"); got != 1 {
		t.Errorf("out-of-grid warning logged %d times, want 1", got)
	}
}

type phaseRecorder struct {
	names []string
}

func (r *phaseRecorder) StartPhase(name string) {
	r.names = append(r.names, name)
}

func TestSolver_PhaseOrder(t *testing.T) {
	rec := &phaseRecorder{}
	s := newTestSolver(t, WithPhaseTimer(rec))
	if err := s.Init(8,
		r3.Vec{X: -10, Y: -10, Z: -10}, r3.Vec{X: 10, Y: 10, Z: 10},
		r3.Vec{X: -1, Y: -1, Z: -1}, r3.Vec{X: 1, Y: 1, Z: 1},
		testGravity); err != nil {
		t.Fatalf("Init: %v", err)
	}

	s.Tick()
	s.Tick()

	want := append(append([]string{}, Phases...), Phases...)
	if len(rec.names) != len(want) {
		t.Fatalf("phases = %v, want %v", rec.names, want)
	}
	for i := range want {
		if rec.names[i] != want[i] {
			t.Fatalf("phases = %v, want %v", rec.names, want)
		}
	}
}

func TestSolver_PositionAccess(t *testing.T) {
	s := newTestSolver(t)
	if err := s.Init(8,
		r3.Vec{X: -10, Y: -10, Z: -10}, r3.Vec{X: 10, Y: 10, Z: 10},
		r3.Vec{X: -1, Y: -1, Z: -1}, r3.Vec{X: 1, Y: 1, Z: 1},
		testGravity); err != nil {
		t.Fatalf("Init: %v", err)
	}

	if got := s.ParticleStride(); got != unsafe.Sizeof(Particle{}) {
		t.Errorf("stride = %d, want %d", got, unsafe.Sizeof(Particle{}))
	}
	var rec Particle
	if off := unsafe.Offsetof(rec.Position); off != 0 {
		t.Errorf("Position offset = %d, want 0", off)
	}

	view := s.Positions()
	if view.Len() != s.ParticleCount() {
		t.Fatalf("view length = %d, want %d", view.Len(), s.ParticleCount())
	}
	all := view.AppendTo(nil)
	for i, pos := range all {
		if pos != s.Particle(i).Position || pos != view.At(i) {
			t.Errorf("position %d = %v, particle has %v", i, pos, s.Particle(i).Position)
		}
	}
}

func TestSolver_InitErrors(t *testing.T) {
	wall := NewBox(r3.Vec{X: -10, Y: -10, Z: -10}, r3.Vec{X: 10, Y: 10, Z: 10})
	fluid := NewBox(r3.Vec{X: -1, Y: -1, Z: -1}, r3.Vec{X: 1, Y: 1, Z: 1})

	tests := []struct {
		name  string
		scene Scene
	}{
		{"zero particles", Scene{MaxParticles: 0, Wall: wall, Fluid: fluid}},
		{"inverted wall", Scene{MaxParticles: 8, Wall: NewBox(wall.Max, wall.Min), Fluid: fluid}},
		{"inverted fluid", Scene{MaxParticles: 8, Wall: wall, Fluid: NewBox(fluid.Max, fluid.Min)}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestSolver(t)
			if err := s.InitScene(tc.scene); err == nil {
				t.Error("InitScene succeeded, want error")
			}
			if s.Initialized() {
				t.Error("Initialized() = true after failed Init")
			}
		})
	}
}

func TestNewSolver_InvalidParams(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Params)
	}{
		{"zero dt", func(p *Params) { p.DT = 0 }},
		{"negative unit scale", func(p *Params) { p.UnitScale = -1 }},
		{"nan smoothing radius", func(p *Params) { p.SmoothRadius = math.NaN() }},
		{"negative viscosity", func(p *Params) { p.Viscosity = -0.5 }},
		{"negative ceiling", func(p *Params) { p.PoolCeiling = -1 }},
		{"unknown integrator", func(p *Params) { p.Integrator = "verlet" }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := DefaultParams()
			tc.mutate(&p)
			if _, err := NewSolver(p); !errors.Is(err, ErrInvalidParams) {
				t.Errorf("err = %v, want ErrInvalidParams", err)
			}
		})
	}
}

func TestParams_Spacing(t *testing.T) {
	p := DefaultParams()
	if got := p.Spacing(); math.Abs(got-1.842) > 1e-3 {
		t.Errorf("Spacing = %v, want ~1.842", got)
	}
}

func TestSolver_PoolOverflowWarns(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelWarn}))

	p := DefaultParams()
	p.PoolCeiling = 4
	s, err := NewSolver(p, WithLogger(logger))
	if err != nil {
		t.Fatalf("NewSolver: %v", err)
	}
	if err := s.Init(4,
		r3.Vec{X: -10, Y: -10, Z: -10}, r3.Vec{X: 10, Y: 10, Z: 10},
		r3.Vec{X: -1, Y: -1, Z: -1}, r3.Vec{X: 1, Y: 1, Z: 1},
		testGravity); err != nil {
		t.Fatalf("Init: %v", err)
	}

	if s.ParticleCount() != 4 {
		t.Errorf("ParticleCount = %d, want 4", s.ParticleCount())
	}
	if !strings.Contains(logs.String(), "particle pool ceiling reached") {
		t.Errorf("missing overflow warning in %q", logs.String())
	}
}

func TestSolver_RestoreRoundTrip(t *testing.T) {
	s := newTestSolver(t)
	if err := s.Init(8,
		r3.Vec{X: -10, Y: -10, Z: -10}, r3.Vec{X: 10, Y: 10, Z: 10},
		r3.Vec{X: -1, Y: -1, Z: -1}, r3.Vec{X: 1, Y: 1, Z: 1},
		testGravity); err != nil {
		t.Fatalf("Init: %v", err)
	}
	for i := 0; i < 10; i++ {
		s.Tick()
	}
	saved := s.AppendParticles(nil)
	scene := s.Scene()

	s.Tick()
	want := s.AppendParticles(nil)

	r := newTestSolver(t)
	if err := r.Restore(scene, saved); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	r.Tick()

	if r.ParticleCount() != len(want) {
		t.Fatalf("restored count = %d, want %d", r.ParticleCount(), len(want))
	}
	for i := range want {
		if got := r.Particle(i); got.Position != want[i].Position || got.Velocity != want[i].Velocity {
			t.Fatalf("particle %d after restore = %+v, want %+v", i, got, want[i])
		}
	}
}
