package sph

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// CellRes is the integer resolution of a grid on each axis.
type CellRes struct {
	X, Y, Z int
}

// Grid partitions a padded box into uniform cells. Each cell stores the head
// of an intrusive chain threaded through Particle.Next.
type Grid struct {
	min      r3.Vec
	max      r3.Vec
	size     r3.Vec // physical extent, a whole multiple of cellSize
	delta    r3.Vec // cells per world unit on each axis
	res      CellRes
	cellSize float64 // world units
	heads    []int
}

// Init sizes the grid over box padded by border. cellSize is expressed in
// simulation units and converted to world units with lengthScale.
func (g *Grid) Init(box Box, lengthScale, cellSize, border float64) {
	worldCell := cellSize / lengthScale

	padded := box.Pad(border)
	g.min = padded.Min
	g.max = padded.Max
	g.cellSize = worldCell

	extent := padded.Size()
	g.res = CellRes{
		X: int(math.Ceil(extent.X / worldCell)),
		Y: int(math.Ceil(extent.Y / worldCell)),
		Z: int(math.Ceil(extent.Z / worldCell)),
	}
	// Snap the extent to a whole number of cells.
	g.size = r3.Vec{
		X: float64(g.res.X) * worldCell,
		Y: float64(g.res.Y) * worldCell,
		Z: float64(g.res.Z) * worldCell,
	}
	g.delta = r3.Vec{
		X: float64(g.res.X) / g.size.X,
		Y: float64(g.res.Y) / g.size.Y,
		Z: float64(g.res.Z) / g.size.Z,
	}

	total := g.res.X * g.res.Y * g.res.Z
	if cap(g.heads) >= total {
		g.heads = g.heads[:total]
	} else {
		g.heads = make([]int, total)
	}
	g.clear()
}

func (g *Grid) clear() {
	for i := range g.heads {
		g.heads[i] = -1
	}
}

// coords returns the floor cell coordinates of p, unclamped.
func (g *Grid) coords(p r3.Vec) (int, int, int) {
	gx := int(math.Floor((p.X - g.min.X) * g.delta.X))
	gy := int(math.Floor((p.Y - g.min.Y) * g.delta.Y))
	gz := int(math.Floor((p.Z - g.min.Z) * g.delta.Z))
	return gx, gy, gz
}

func (g *Grid) flat(gx, gy, gz int) int {
	return (gz*g.res.Y+gy)*g.res.X + gx
}

// CellIndex returns the cell containing p, or -1 if p is outside the grid.
func (g *Grid) CellIndex(p r3.Vec) int {
	gx, gy, gz := g.coords(p)
	if gx < 0 || gy < 0 || gz < 0 || gx >= g.res.X || gy >= g.res.Y || gz >= g.res.Z {
		return -1
	}
	return g.flat(gx, gy, gz)
}

// InsertParticles rebuilds every cell chain from scratch. Particles outside
// the grid get Next = -1 and belong to no chain. It returns their number.
func (g *Grid) InsertParticles(pool *Pool) int {
	g.clear()

	outside := 0
	live := pool.Live()
	for i := range live {
		p := &live[i]
		cell := g.CellIndex(p.Position)
		if cell < 0 {
			p.Next = -1
			outside++
			continue
		}
		p.Next = g.heads[cell]
		g.heads[cell] = i
	}
	return outside
}

// FindCells returns the 2x2x2 block of cells starting at the cell holding
// p - radius (clamped at 0 on each axis). Cells past the grid resolution are
// reported as -1. Order: base, +x, +y, +x+y, then the same four one layer up in z.
// The block over-approximates the search sphere; callers test distances.
func (g *Grid) FindCells(p r3.Vec, radius float64) [8]int {
	gx, gy, gz := g.coords(r3.Sub(p, r3.Vec{X: radius, Y: radius, Z: radius}))
	gx = max(gx, 0)
	gy = max(gy, 0)
	gz = max(gz, 0)

	var cells [8]int
	n := 0
	for dz := 0; dz < 2; dz++ {
		for dy := 0; dy < 2; dy++ {
			for dx := 0; dx < 2; dx++ {
				cx, cy, cz := gx+dx, gy+dy, gz+dz
				if cx >= g.res.X || cy >= g.res.Y || cz >= g.res.Z {
					cells[n] = -1
				} else {
					cells[n] = g.flat(cx, cy, cz)
				}
				n++
			}
		}
	}
	return cells
}

// Head returns the first particle index chained in cell, or -1 when the
// cell is empty or the index is invalid.
func (g *Grid) Head(cell int) int {
	if cell < 0 || cell >= len(g.heads) {
		return -1
	}
	return g.heads[cell]
}

// Res returns the cell resolution.
func (g *Grid) Res() CellRes { return g.res }

// CellCount returns the total number of cells.
func (g *Grid) CellCount() int { return len(g.heads) }

// CellSize returns the edge length of a cell in world units.
func (g *Grid) CellSize() float64 { return g.cellSize }

// Bounds returns the padded grid volume.
func (g *Grid) Bounds() Box { return Box{Min: g.min, Max: g.max} }

// Size returns the physical grid extent after snapping to whole cells.
func (g *Grid) Size() r3.Vec { return g.size }
