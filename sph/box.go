package sph

import "gonum.org/v1/gonum/spatial/r3"

// Box is an axis-aligned bounding box.
type Box struct {
	Min, Max r3.Vec
}

// NewBox returns the box spanning min and max.
func NewBox(min, max r3.Vec) Box {
	return Box{Min: min, Max: max}
}

// Size returns the extent of the box on each axis.
func (b Box) Size() r3.Vec {
	return r3.Sub(b.Max, b.Min)
}

// Valid reports whether Min <= Max on every axis.
func (b Box) Valid() bool {
	return b.Min.X <= b.Max.X && b.Min.Y <= b.Max.Y && b.Min.Z <= b.Max.Z
}

// Pad grows the box by border on every side.
func (b Box) Pad(border float64) Box {
	d := r3.Vec{X: border, Y: border, Z: border}
	return Box{Min: r3.Sub(b.Min, d), Max: r3.Add(b.Max, d)}
}

// Contains reports whether p lies inside the box, boundaries included.
func (b Box) Contains(p r3.Vec) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

// Overshoot returns how far p lies outside the box along the worst axis,
// or 0 if p is inside.
func (b Box) Overshoot(p r3.Vec) float64 {
	var worst float64
	check := func(d float64) {
		if d > worst {
			worst = d
		}
	}
	check(b.Min.X - p.X)
	check(p.X - b.Max.X)
	check(b.Min.Y - p.Y)
	check(p.Y - b.Max.Y)
	check(b.Min.Z - p.Z)
	check(p.Z - b.Max.Z)
	return worst
}
