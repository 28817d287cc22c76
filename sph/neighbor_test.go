package sph

import "testing"

func TestNeighborTable_Cap(t *testing.T) {
	var nt NeighborTable
	nt.Reset(4)

	nt.PreparePoint(2)
	for i := 0; i < MaxNeighbors; i++ {
		if !nt.AddNeighbor(100+i, float64(i)*0.5) {
			t.Fatalf("AddNeighbor #%d failed before cap", i+1)
		}
	}
	if nt.AddNeighbor(999, 1) {
		t.Error("81st AddNeighbor should fail")
	}
	nt.CommitPoint()

	if got := nt.NeighborCount(2); got != MaxNeighbors {
		t.Errorf("NeighborCount = %d, want %d", got, MaxNeighbors)
	}
	if nt.Truncated() != 1 {
		t.Errorf("Truncated = %d, want 1", nt.Truncated())
	}

	idx, dist := nt.NeighborInfo(2, MaxNeighbors-1)
	if idx != 100+MaxNeighbors-1 || dist != float64(MaxNeighbors-1)*0.5 {
		t.Errorf("last slot = (%d, %v), want (%d, %v)", idx, dist, 100+MaxNeighbors-1, float64(MaxNeighbors-1)*0.5)
	}
}

func TestNeighborTable_PackedLists(t *testing.T) {
	var nt NeighborTable
	nt.Reset(3)

	lists := map[int][]struct {
		idx  int
		dist float64
	}{
		0: {{1, 0.25}, {2, 0.5}},
		2: {{0, 0.125}, {1, 0.75}, {7, 0.0625}},
	}

	for point := 0; point < 3; point++ {
		nt.PreparePoint(point)
		for _, n := range lists[point] {
			nt.AddNeighbor(n.idx, n.dist)
		}
		nt.CommitPoint()
	}

	for point := 0; point < 3; point++ {
		want := lists[point]
		if got := nt.NeighborCount(point); got != len(want) {
			t.Fatalf("point %d count = %d, want %d", point, got, len(want))
		}
		for slot, w := range want {
			idx, dist := nt.NeighborInfo(point, slot)
			if idx != w.idx || dist != w.dist {
				t.Errorf("point %d slot %d = (%d, %v), want (%d, %v)", point, slot, idx, dist, w.idx, w.dist)
			}
		}
	}

	wantUsed := 5 * (indexBytes + distanceBytes)
	if nt.Used() != wantUsed {
		t.Errorf("Used = %d, want %d", nt.Used(), wantUsed)
	}
}

func TestNeighborTable_EmptyCommitIsNoop(t *testing.T) {
	var nt NeighborTable
	nt.Reset(1)
	nt.PreparePoint(0)
	nt.CommitPoint()

	if nt.NeighborCount(0) != 0 {
		t.Errorf("count = %d, want 0", nt.NeighborCount(0))
	}
	if nt.BufferSize() != 0 || nt.Used() != 0 {
		t.Errorf("buffer touched by empty commit: size %d used %d", nt.BufferSize(), nt.Used())
	}
}

func TestNeighborTable_BufferGrowth(t *testing.T) {
	var nt NeighborTable
	nt.Reset(2)

	nt.PreparePoint(0)
	nt.AddNeighbor(1, 0.1)
	nt.CommitPoint()
	if nt.BufferSize() != minBufBytes {
		t.Errorf("first buffer = %d bytes, want %d", nt.BufferSize(), minBufBytes)
	}

	// Two full lists need more than the minimum buffer.
	nt.Reset(2)
	for point := 0; point < 2; point++ {
		nt.PreparePoint(point)
		for i := 0; i < MaxNeighbors; i++ {
			nt.AddNeighbor(i, float64(i))
		}
		nt.CommitPoint()
	}
	if nt.BufferSize() != 2*minBufBytes {
		t.Errorf("grown buffer = %d bytes, want %d", nt.BufferSize(), 2*minBufBytes)
	}
	// The first list survives the copy into the grown buffer.
	idx, dist := nt.NeighborInfo(0, 40)
	if idx != 40 || dist != 40 {
		t.Errorf("point 0 slot 40 = (%d, %v) after growth, want (40, 40)", idx, dist)
	}
}

func TestNeighborTable_ResetClears(t *testing.T) {
	var nt NeighborTable
	nt.Reset(2)
	nt.PreparePoint(1)
	nt.AddNeighbor(0, 0.3)
	nt.CommitPoint()

	nt.Reset(2)
	if nt.NeighborCount(1) != 0 {
		t.Errorf("count after reset = %d, want 0", nt.NeighborCount(1))
	}
	if nt.Used() != 0 {
		t.Errorf("used after reset = %d, want 0", nt.Used())
	}

	nt.Reset(10)
	if nt.Points() != 10 {
		t.Errorf("points = %d, want 10", nt.Points())
	}
}
