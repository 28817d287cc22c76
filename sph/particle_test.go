package sph

import (
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func TestPool_AllocateDefaults(t *testing.T) {
	pool := NewPool(0, 1)
	pool.Reset(2)

	idx, p := pool.Allocate()
	if idx != 0 {
		t.Fatalf("first index = %d, want 0", idx)
	}
	if p.Position != (r3.Vec{}) || p.Velocity != (r3.Vec{}) || p.Acceleration != (r3.Vec{}) {
		t.Errorf("new particle not zeroed: %+v", *p)
	}
	if p.Density != 0 || p.Pressure != 0 {
		t.Errorf("new particle density/pressure = %v/%v, want 0", p.Density, p.Pressure)
	}
	if pool.Ceiling() != DefaultPoolCeiling {
		t.Errorf("ceiling = %d, want %d", pool.Ceiling(), DefaultPoolCeiling)
	}
}

func TestPool_GrowthDoubles(t *testing.T) {
	pool := NewPool(DefaultPoolCeiling, 1)
	pool.Reset(4)

	if pool.Capacity() != 4 || pool.Size() != 0 {
		t.Fatalf("after reset: capacity %d size %d, want 4 and 0", pool.Capacity(), pool.Size())
	}

	for i := 0; i < 5; i++ {
		_, p := pool.Allocate()
		p.Position = r3.Vec{X: float64(i)}
	}

	if pool.Size() != 5 {
		t.Errorf("size = %d, want 5", pool.Size())
	}
	if pool.Capacity() != 8 {
		t.Errorf("capacity = %d, want 8", pool.Capacity())
	}
	// Growth keeps existing records.
	for i := 0; i < 5; i++ {
		if got := pool.At(i).Position.X; got != float64(i) {
			t.Errorf("particle %d X = %v after growth, want %d", i, got, i)
		}
	}
}

func TestPool_ZeroCapacityGrows(t *testing.T) {
	pool := NewPool(8, 1)
	pool.Reset(0)

	pool.Allocate()
	pool.Allocate()
	pool.Allocate()

	if pool.Size() != 3 {
		t.Errorf("size = %d, want 3", pool.Size())
	}
	if pool.Capacity() != 4 {
		t.Errorf("capacity = %d, want 4", pool.Capacity())
	}
}

func TestPool_OverflowReusesExisting(t *testing.T) {
	const ceiling = 8
	pool := NewPool(ceiling, 42)
	pool.Reset(4)

	for i := 0; i < ceiling; i++ {
		_, p := pool.Allocate()
		p.Velocity = r3.Vec{X: 1, Y: 2, Z: 3}
	}
	if pool.Size() != ceiling {
		t.Fatalf("size = %d, want %d", pool.Size(), ceiling)
	}

	for i := 0; i < 20; i++ {
		idx, p := pool.Allocate()
		if idx < 0 || idx >= ceiling {
			t.Fatalf("overflow index %d outside [0,%d)", idx, ceiling)
		}
		if p != pool.At(idx) {
			t.Fatalf("overflow pointer does not alias index %d", idx)
		}
		if p.Velocity != (r3.Vec{}) {
			t.Errorf("reused particle %d kept velocity %v", idx, p.Velocity)
		}
	}

	if pool.Size() != ceiling {
		t.Errorf("size after overflow = %d, want %d", pool.Size(), ceiling)
	}
	if pool.Capacity() != ceiling {
		t.Errorf("capacity after overflow = %d, want %d", pool.Capacity(), ceiling)
	}
	if pool.Overflow() != 20 {
		t.Errorf("overflow count = %d, want 20", pool.Overflow())
	}
}

func TestPool_ResetDiscards(t *testing.T) {
	pool := NewPool(16, 1)
	pool.Reset(4)
	pool.Allocate()
	pool.Allocate()

	pool.Reset(3)
	if pool.Size() != 0 {
		t.Errorf("size after reset = %d, want 0", pool.Size())
	}
	if pool.Capacity() != 3 {
		t.Errorf("capacity after reset = %d, want 3", pool.Capacity())
	}
	if len(pool.Live()) != 0 {
		t.Errorf("live slice length = %d, want 0", len(pool.Live()))
	}
}
