package sph

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidParams is wrapped by every Params validation failure.
var ErrInvalidParams = errors.New("invalid sph params")

// Params holds the physical and numerical constants of a Solver.
// They are fixed for the lifetime of the Solver.
type Params struct {
	DT                float64 // seconds per tick
	UnitScale         float64 // metres per world unit
	Viscosity         float64
	RestDensity       float64 // kg/m^3
	ParticleMass      float64 // kg
	GasConstant       float64 // ideal gas stiffness k
	SmoothRadius      float64 // h, metres
	BoundaryStiffness float64
	BoundaryDamping   float64
	SpeedLimit        float64 // acceleration magnitude cap
	GridBorder        float64 // world units of padding around the wall box
	PoolCeiling       int
	Integrator        string
	Seed              int64 // overflow reuse picks
}

// DefaultParams returns the constants of the reference water scene.
func DefaultParams() Params {
	return Params{
		DT:                0.003,
		UnitScale:         0.004,
		Viscosity:         1.0,
		RestDensity:       1000.0,
		ParticleMass:      0.0004,
		GasConstant:       1.0,
		SmoothRadius:      0.01,
		BoundaryStiffness: 10000.0,
		BoundaryDamping:   256.0,
		SpeedLimit:        200.0,
		GridBorder:        1.0,
		PoolCeiling:       DefaultPoolCeiling,
		Integrator:        IntegratorEuler,
		Seed:              1,
	}
}

// Validate checks that the constants can drive a stable kernel.
func (p Params) Validate() error {
	positive := []struct {
		name string
		v    float64
	}{
		{"dt", p.DT},
		{"unit_scale", p.UnitScale},
		{"rest_density", p.RestDensity},
		{"particle_mass", p.ParticleMass},
		{"smooth_radius", p.SmoothRadius},
		{"speed_limit", p.SpeedLimit},
	}
	for _, f := range positive {
		if !(f.v > 0) || math.IsInf(f.v, 0) {
			return fmt.Errorf("%w: %s must be positive, got %v", ErrInvalidParams, f.name, f.v)
		}
	}
	nonNegative := []struct {
		name string
		v    float64
	}{
		{"viscosity", p.Viscosity},
		{"gas_constant", p.GasConstant},
		{"boundary_stiffness", p.BoundaryStiffness},
		{"boundary_damping", p.BoundaryDamping},
		{"grid_border", p.GridBorder},
	}
	for _, f := range nonNegative {
		if f.v < 0 || math.IsNaN(f.v) {
			return fmt.Errorf("%w: %s must not be negative, got %v", ErrInvalidParams, f.name, f.v)
		}
	}
	if p.PoolCeiling < 0 {
		return fmt.Errorf("%w: pool_ceiling must not be negative, got %d", ErrInvalidParams, p.PoolCeiling)
	}
	return nil
}

// Spacing returns the lattice spacing, in world units, at which particles
// of the configured mass sit at rest density.
func (p Params) Spacing() float64 {
	return math.Cbrt(p.ParticleMass/p.RestDensity) / p.UnitScale
}
