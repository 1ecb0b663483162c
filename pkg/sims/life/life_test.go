package life

import (
	"testing"

	"lifesync/pkg/core"
)

func gridWith(w, h int, alive ...[2]int) *core.Grid {
	g := core.NewGrid(w, h)
	for _, c := range alive {
		g.Set(c[0], c[1], true)
	}
	return g
}

func expectCells(t *testing.T, g *core.Grid, expects map[[2]int]bool, label string) {
	t.Helper()
	w, h := g.Dimensions()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			alive := g.Get(x, y)
			_, shouldBeAlive := expects[[2]int{x, y}]
			if shouldBeAlive != alive {
				t.Fatalf("%s cell (%d,%d) alive=%v, expected %v", label, x, y, alive, shouldBeAlive)
			}
		}
	}
}

func TestBlinkerOscillation(t *testing.T) {
	start := gridWith(5, 5, [2]int{1, 2}, [2]int{2, 2}, [2]int{3, 2})

	vertical := NextGeneration(start, Bounded)
	expectCells(t, vertical, map[[2]int]bool{
		{2, 1}: true,
		{2, 2}: true,
		{2, 3}: true,
	}, "after first step")

	horizontal := NextGeneration(vertical, Bounded)
	if !horizontal.Equal(start) {
		t.Fatal("blinker must return to horizontal after two steps")
	}
}

func TestNextGenerationDoesNotMutateInput(t *testing.T) {
	start := gridWith(5, 5, [2]int{1, 2}, [2]int{2, 2}, [2]int{3, 2})
	before := start.Clone()
	NextGeneration(start, Bounded)
	if !start.Equal(before) {
		t.Fatal("input grid was modified")
	}
}

func TestEmptyGridIsFixedPoint(t *testing.T) {
	empty := core.NewGrid(8, 6)
	if next := NextGeneration(empty, Bounded); !next.Equal(empty) {
		t.Fatal("empty grid must map to itself")
	}
}

func TestBlockStillLife(t *testing.T) {
	block := gridWith(6, 6, [2]int{2, 2}, [2]int{3, 2}, [2]int{2, 3}, [2]int{3, 3})
	for _, c := range [][2]int{{2, 2}, {3, 2}, {2, 3}, {3, 3}} {
		if n := Neighbors(block, c[0], c[1], Bounded); n != 3 {
			t.Fatalf("block cell %v has %d neighbours, want 3", c, n)
		}
	}
	if next := NextGeneration(block, Bounded); !next.Equal(block) {
		t.Fatal("block must be unchanged")
	}
}

func TestCornerCellHasNoWrappedNeighbours(t *testing.T) {
	g := gridWith(5, 5, [2]int{0, 0}, [2]int{4, 4}, [2]int{4, 0}, [2]int{0, 4})
	if n := Neighbors(g, 0, 0, Bounded); n != 0 {
		t.Fatalf("bounded corner sees %d neighbours, want 0", n)
	}
	if n := Neighbors(g, 0, 0, Toroidal); n != 3 {
		t.Fatalf("toroidal corner sees %d neighbours, want 3", n)
	}

	lone := gridWith(5, 5, [2]int{0, 0})
	if NextGeneration(lone, Bounded).Alive() != 0 {
		t.Fatal("isolated corner cell must die")
	}
}

func TestToroidalBlinkerAcrossEdge(t *testing.T) {
	// Horizontal blinker straddling the left/right edge on row 2.
	start := gridWith(5, 5, [2]int{4, 2}, [2]int{0, 2}, [2]int{1, 2})
	next := NextGeneration(start, Toroidal)
	expectCells(t, next, map[[2]int]bool{
		{0, 1}: true,
		{0, 2}: true,
		{0, 3}: true,
	}, "toroidal")

	bounded := NextGeneration(start, Bounded)
	if bounded.Alive() != 0 {
		t.Fatalf("bounded split blinker should die, %d alive", bounded.Alive())
	}
}

func TestParseBoundary(t *testing.T) {
	if b, err := ParseBoundary("Toroidal"); err != nil || b != Toroidal {
		t.Fatalf("ParseBoundary(Toroidal) = %v, %v", b, err)
	}
	if b, err := ParseBoundary(""); err != nil || b != Bounded {
		t.Fatalf("ParseBoundary(\"\") = %v, %v", b, err)
	}
	if _, err := ParseBoundary("klein"); err == nil {
		t.Fatal("expected error for unknown boundary")
	}
}
