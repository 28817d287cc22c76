// Package sph implements a smoothed particle hydrodynamics fluid kernel.
package sph

import (
	"math/rand"

	"gonum.org/v1/gonum/spatial/r3"
)

// DefaultPoolCeiling is the capacity past which the pool stops growing.
const DefaultPoolCeiling = 4096

// Particle is one simulated fluid element.
// Position must remain the first field: hosts walk records by stride.
type Particle struct {
	Position     r3.Vec // world units
	Density      float64
	Pressure     float64
	Acceleration r3.Vec
	Velocity     r3.Vec
	Next         int // next particle in the same grid cell, -1 terminates
}

// reset restores the allocation defaults.
func (p *Particle) reset() {
	*p = Particle{Next: -1}
}

// Pool owns all particle records. Records are addressed by index;
// pointers returned by Allocate are invalidated by the next growth.
type Pool struct {
	buf      []Particle // len(buf) is the allocated capacity
	count    int
	ceiling  int
	rng      *rand.Rand
	overflow int // allocations served by reusing a live record since Reset
}

// NewPool creates an empty pool. A ceiling <= 0 uses DefaultPoolCeiling.
func NewPool(ceiling int, seed int64) *Pool {
	if ceiling <= 0 {
		ceiling = DefaultPoolCeiling
	}
	return &Pool{
		ceiling: ceiling,
		rng:     rand.New(rand.NewSource(seed)),
	}
}

// Reset discards all records and allocates exactly capacity fresh slots.
func (p *Pool) Reset(capacity int) {
	if capacity < 0 {
		capacity = 0
	}
	p.buf = make([]Particle, capacity)
	p.count = 0
	p.overflow = 0
}

// Allocate returns a new particle at the origin with zero velocity and force.
// When the pool is full and doubling would pass the ceiling, an existing
// particle is picked pseudo-randomly and reset in place; its index is returned.
func (p *Pool) Allocate() (int, *Particle) {
	if p.count >= len(p.buf) {
		grown := len(p.buf) * 2
		if grown == 0 {
			grown = 1
		}
		if grown > p.ceiling && p.count > 0 {
			idx := p.rng.Intn(p.count)
			p.overflow++
			part := &p.buf[idx]
			part.reset()
			return idx, part
		}
		buf := make([]Particle, grown)
		copy(buf, p.buf[:p.count])
		p.buf = buf
	}

	idx := p.count
	p.count++
	part := &p.buf[idx]
	part.reset()
	return idx, part
}

// At returns the particle at index. The caller keeps index < Size().
func (p *Pool) At(index int) *Particle {
	return &p.buf[index]
}

// Size returns the number of live particles.
func (p *Pool) Size() int {
	return p.count
}

// Capacity returns the number of allocated slots.
func (p *Pool) Capacity() int {
	return len(p.buf)
}

// Ceiling returns the growth limit.
func (p *Pool) Ceiling() int {
	return p.ceiling
}

// Overflow returns how many allocations reused a live record since Reset.
func (p *Pool) Overflow() int {
	return p.overflow
}

// Live returns the live records as a slice sharing the pool's storage.
func (p *Pool) Live() []Particle {
	return p.buf[:p.count]
}
