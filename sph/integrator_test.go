package sph

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func vecNear(a, b r3.Vec, tol float64) bool {
	return r3.Norm(r3.Sub(a, b)) <= tol
}

func TestIntegrators_Advance(t *testing.T) {
	const dt, unit = 0.003, 0.004

	tests := []struct {
		name string
		in   Integrator
	}{
		{"euler", SemiImplicitEuler{DT: dt, UnitScale: unit}},
		{"leapfrog", LeapFrog{DT: dt, UnitScale: unit}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := Particle{
				Position:     r3.Vec{X: 1, Y: 2, Z: 3},
				Velocity:     r3.Vec{X: 0.5, Y: 0, Z: -0.5},
				Acceleration: r3.Vec{X: 0, Y: -9.8, Z: 2},
			}
			tc.in.Advance(&p)

			wantVel := r3.Vec{X: 0.5, Y: -9.8 * dt, Z: -0.5 + 2*dt}
			wantPos := r3.Add(r3.Vec{X: 1, Y: 2, Z: 3}, r3.Scale(dt/unit, wantVel))

			if !vecNear(p.Velocity, wantVel, 1e-12) {
				t.Errorf("velocity = %v, want %v", p.Velocity, wantVel)
			}
			if !vecNear(p.Position, wantPos, 1e-12) {
				t.Errorf("position = %v, want %v", p.Position, wantPos)
			}
			if tc.in.Name() != tc.name {
				t.Errorf("Name() = %q, want %q", tc.in.Name(), tc.name)
			}
		})
	}
}

func TestIntegrators_AgreeOverManySteps(t *testing.T) {
	euler := SemiImplicitEuler{DT: 0.003, UnitScale: 0.004}
	leap := LeapFrog{DT: 0.003, UnitScale: 0.004}

	a := Particle{Velocity: r3.Vec{X: 1}}
	b := a
	for i := 0; i < 100; i++ {
		acc := r3.Vec{X: math.Sin(float64(i)), Y: -9.8}
		a.Acceleration = acc
		b.Acceleration = acc
		euler.Advance(&a)
		leap.Advance(&b)
	}
	if !vecNear(a.Position, b.Position, 1e-9) {
		t.Errorf("positions diverged: euler %v leapfrog %v", a.Position, b.Position)
	}
}

func TestNewIntegrator(t *testing.T) {
	tests := []struct {
		name     string
		wantName string
		wantErr  bool
	}{
		{"", IntegratorEuler, false},
		{"euler", IntegratorEuler, false},
		{"leapfrog", IntegratorLeapFrog, false},
		{"rk4", "", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			in, err := NewIntegrator(tc.name, 0.01, 1)
			if tc.wantErr {
				if !errors.Is(err, ErrUnknownIntegrator) {
					t.Fatalf("err = %v, want ErrUnknownIntegrator", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if in.Name() != tc.wantName {
				t.Errorf("Name() = %q, want %q", in.Name(), tc.wantName)
			}
		})
	}
}
