package sph

import (
	"encoding/binary"
	"math"
)

// MaxNeighbors caps the neighbor list of a single particle.
const MaxNeighbors = 80

const (
	indexBytes    = 4 // uint32 particle index
	distanceBytes = 8 // float64 distance bits
	minBufBytes   = 1024
)

// neighborEntry locates one particle's records inside the packed buffer.
type neighborEntry struct {
	offset int
	count  int
}

// NeighborTable holds per-tick neighbor lists packed into one byte buffer.
// Each committed list is laid out as count indices followed by count distances.
//
// Lists are built with PreparePoint, AddNeighbor and CommitPoint, once per
// particle per tick. The table is only meaningful for the tick that built it.
type NeighborTable struct {
	entries []neighborEntry
	points  int

	buf    []byte
	offset int

	currPoint     int
	currCount     int
	currIndex     [MaxNeighbors]int
	currDistance  [MaxNeighbors]float64
	truncated     int // points that hit MaxNeighbors since Reset
	currTruncated bool
}

// Reset clears the directory for pointCount particles and rewinds the buffer.
func (t *NeighborTable) Reset(pointCount int) {
	if pointCount > cap(t.entries) {
		t.entries = make([]neighborEntry, pointCount)
	} else {
		t.entries = t.entries[:pointCount]
		clear(t.entries)
	}
	t.points = pointCount
	t.offset = 0
	t.truncated = 0
}

// PreparePoint starts a new list for particle index.
func (t *NeighborTable) PreparePoint(index int) {
	t.currPoint = index
	t.currCount = 0
	t.currTruncated = false
}

// AddNeighbor appends a neighbor to the current list. It returns false once
// MaxNeighbors are held; the caller must stop adding for this point.
func (t *NeighborTable) AddNeighbor(index int, distance float64) bool {
	if t.currCount >= MaxNeighbors {
		if !t.currTruncated {
			t.currTruncated = true
			t.truncated++
		}
		return false
	}
	t.currIndex[t.currCount] = index
	t.currDistance[t.currCount] = distance
	t.currCount++
	return true
}

// CommitPoint copies the current list into the packed buffer.
// An empty list leaves the directory entry zeroed.
func (t *NeighborTable) CommitPoint() {
	if t.currCount == 0 {
		return
	}

	need := t.offset + t.currCount*(indexBytes+distanceBytes)
	if need > len(t.buf) {
		t.grow(need)
	}

	t.entries[t.currPoint] = neighborEntry{offset: t.offset, count: t.currCount}

	for i := 0; i < t.currCount; i++ {
		binary.LittleEndian.PutUint32(t.buf[t.offset:], uint32(t.currIndex[i]))
		t.offset += indexBytes
	}
	for i := 0; i < t.currCount; i++ {
		binary.LittleEndian.PutUint64(t.buf[t.offset:], math.Float64bits(t.currDistance[i]))
		t.offset += distanceBytes
	}
}

// grow doubles the buffer until it holds need bytes, never below minBufBytes.
func (t *NeighborTable) grow(need int) {
	size := len(t.buf)
	if size == 0 {
		size = 1
	}
	for size < need {
		size *= 2
	}
	if size < minBufBytes {
		size = minBufBytes
	}
	buf := make([]byte, size)
	copy(buf, t.buf[:t.offset])
	t.buf = buf
}

// NeighborCount returns the number of committed neighbors of index.
func (t *NeighborTable) NeighborCount(index int) int {
	return t.entries[index].count
}

// NeighborInfo returns the neighbor index and distance stored in slot.
// The caller keeps slot < NeighborCount(index).
func (t *NeighborTable) NeighborInfo(index, slot int) (int, float64) {
	e := t.entries[index]
	idxAt := e.offset + slot*indexBytes
	distAt := e.offset + e.count*indexBytes + slot*distanceBytes

	neighbor := int(binary.LittleEndian.Uint32(t.buf[idxAt:]))
	distance := math.Float64frombits(binary.LittleEndian.Uint64(t.buf[distAt:]))
	return neighbor, distance
}

// Points returns the number of directory entries.
func (t *NeighborTable) Points() int { return t.points }

// Truncated returns how many points hit MaxNeighbors since Reset.
func (t *NeighborTable) Truncated() int { return t.truncated }

// BufferSize returns the allocated size of the packed buffer in bytes.
func (t *NeighborTable) BufferSize() int { return len(t.buf) }

// Used returns the number of packed bytes written since Reset.
func (t *NeighborTable) Used() int { return t.offset }
