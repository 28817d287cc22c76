package main

import (
	"math"

	"github.com/pthm-cable/sphfluid/sph"
)

// Curve is one kernel sampled over [0, span·h], scaled so its largest
// magnitude is 1.
type Curve struct {
	Name   string
	R      []float64 // metres
	Value  []float64 // normalised
	Peak   float64   // largest |raw value|, used for the scale
	Signed bool      // negative values are meaningful
}

// SampleCurves samples the three kernels at n points from 0 to span·h.
// n below 2 is raised to 2.
func SampleCurves(k sph.Kernels, n int, span float64) []Curve {
	curves := []Curve{
		{Name: "poly6"},
		{Name: "spiky gradient", Signed: true},
		{Name: "viscosity laplacian"},
	}
	if n < 2 {
		n = 2
	}
	eval := []func(r float64) float64{
		func(r float64) float64 { return k.Poly6Weight(r * r) },
		k.SpikyGradient,
		k.ViscosityLaplacian,
	}

	for c := range curves {
		curves[c].R = make([]float64, n)
		curves[c].Value = make([]float64, n)
		for i := 0; i < n; i++ {
			r := span * k.H * float64(i) / float64(n-1)
			v := eval[c](r)
			curves[c].R[i] = r
			curves[c].Value[i] = v
			curves[c].Peak = math.Max(curves[c].Peak, math.Abs(v))
		}
		if curves[c].Peak > 0 {
			for i := range curves[c].Value {
				curves[c].Value[i] /= curves[c].Peak
			}
		}
	}
	return curves
}

// LatticeDensity returns the Poly6 density of an interior particle on a
// cubic lattice with the given spacing in metres. The self term is included.
func LatticeDensity(k sph.Kernels, mass, spacing float64) float64 {
	if spacing <= 0 {
		return 0
	}
	reach := int(math.Ceil(k.H / spacing))
	var sum float64
	for i := -reach; i <= reach; i++ {
		for j := -reach; j <= reach; j++ {
			for l := -reach; l <= reach; l++ {
				r2 := float64(i*i+j*j+l*l) * spacing * spacing
				sum += k.Poly6Weight(r2)
			}
		}
	}
	return sum * mass
}

// NeighborEstimate returns how many lattice points fall strictly inside the
// kernel support, excluding the centre.
func NeighborEstimate(h, spacing float64) int {
	if spacing <= 0 {
		return 0
	}
	reach := int(math.Ceil(h / spacing))
	h2 := h * h
	n := 0
	for i := -reach; i <= reach; i++ {
		for j := -reach; j <= reach; j++ {
			for l := -reach; l <= reach; l++ {
				if i == 0 && j == 0 && l == 0 {
					continue
				}
				if float64(i*i+j*j+l*l)*spacing*spacing < h2 {
					n++
				}
			}
		}
	}
	return n
}
