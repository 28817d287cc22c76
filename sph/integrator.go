package sph

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// Integrator names accepted by NewIntegrator.
const (
	IntegratorEuler    = "euler"
	IntegratorLeapFrog = "leapfrog"
)

// ErrUnknownIntegrator is returned for an unrecognised integrator name.
var ErrUnknownIntegrator = errors.New("unknown integrator")

// Integrator advances one particle by a fixed time step using its
// current acceleration.
type Integrator interface {
	Advance(p *Particle)
	Name() string
}

// SemiImplicitEuler updates velocity first, then moves with the new velocity.
type SemiImplicitEuler struct {
	DT        float64
	UnitScale float64
}

// Advance implements Integrator.
func (e SemiImplicitEuler) Advance(p *Particle) {
	p.Velocity = r3.Add(p.Velocity, r3.Scale(e.DT, p.Acceleration))
	p.Position = r3.Add(p.Position, r3.Scale(e.DT/e.UnitScale, p.Velocity))
}

// Name implements Integrator.
func (SemiImplicitEuler) Name() string { return IntegratorEuler }

// LeapFrog treats the stored velocity as the half-step velocity v(t-dt/2).
// Positions advance with v(t+dt/2), which gives the same update as
// SemiImplicitEuler for a single step.
type LeapFrog struct {
	DT        float64
	UnitScale float64
}

// Advance implements Integrator.
func (l LeapFrog) Advance(p *Particle) {
	half := r3.Add(p.Velocity, r3.Scale(l.DT, p.Acceleration))
	p.Velocity = half
	p.Position = r3.Add(p.Position, r3.Scale(l.DT/l.UnitScale, half))
}

// Name implements Integrator.
func (LeapFrog) Name() string { return IntegratorLeapFrog }

// NewIntegrator returns the integrator registered under name.
// An empty name selects SemiImplicitEuler.
func NewIntegrator(name string, dt, unitScale float64) (Integrator, error) {
	switch name {
	case "", IntegratorEuler:
		return SemiImplicitEuler{DT: dt, UnitScale: unitScale}, nil
	case IntegratorLeapFrog:
		return LeapFrog{DT: dt, UnitScale: unitScale}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownIntegrator, name)
	}
}
