package sph

import "math"

// Kernels holds the normalisation constants for the Müller et al. kernels
// at smoothing radius H.
type Kernels struct {
	H         float64
	Poly6     float64 // 315 / (64 pi h^9)
	Spiky     float64 // -45 / (pi h^6), gradient magnitude factor
	Viscosity float64 // 45 / (pi h^6), Laplacian factor
}

// NewKernels computes the constants for smoothing radius h.
func NewKernels(h float64) Kernels {
	h6 := math.Pow(h, 6)
	return Kernels{
		H:         h,
		Poly6:     315.0 / (64.0 * math.Pi * math.Pow(h, 9)),
		Spiky:     -45.0 / (math.Pi * h6),
		Viscosity: 45.0 / (math.Pi * h6),
	}
}

// Poly6Weight evaluates the Poly6 kernel for a squared distance r2.
func (k Kernels) Poly6Weight(r2 float64) float64 {
	h2 := k.H * k.H
	if r2 >= h2 {
		return 0
	}
	d := h2 - r2
	return k.Poly6 * d * d * d
}

// SpikyGradient evaluates the Spiky gradient magnitude at distance r.
func (k Kernels) SpikyGradient(r float64) float64 {
	if r >= k.H {
		return 0
	}
	d := k.H - r
	return k.Spiky * d * d
}

// ViscosityLaplacian evaluates the viscosity kernel Laplacian at distance r.
func (k Kernels) ViscosityLaplacian(r float64) float64 {
	if r >= k.H {
		return 0
	}
	return k.Viscosity * (k.H - r)
}
