package life

import (
	"fmt"
	"strings"

	"lifesync/pkg/core"
)

// Boundary selects how neighbours beyond the grid edge are counted.
type Boundary uint8

const (
	// Bounded treats every off-grid cell as permanently dead.
	Bounded Boundary = iota
	// Toroidal wraps the grid edges around.
	Toroidal
)

func (b Boundary) String() string {
	switch b {
	case Toroidal:
		return "toroidal"
	default:
		return "bounded"
	}
}

// ParseBoundary converts a boundary name into a Boundary.
func ParseBoundary(raw string) (Boundary, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "bounded":
		return Bounded, nil
	case "toroidal", "torus", "wrap":
		return Toroidal, nil
	default:
		return Bounded, fmt.Errorf("unknown boundary %q", raw)
	}
}

// NextGeneration applies Conway's rule to g and returns the result as a new
// grid. The input is only read.
func NextGeneration(g *core.Grid, b Boundary) *core.Grid {
	w, h := g.Dimensions()
	next := core.NewGrid(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			neighbors := Neighbors(g, x, y, b)
			alive := g.Get(x, y)
			if (alive && (neighbors == 2 || neighbors == 3)) || (!alive && neighbors == 3) {
				next.Set(x, y, true)
			}
		}
	}
	return next
}

// Neighbors counts live cells among the eight cells adjacent to (x, y).
func Neighbors(g *core.Grid, x, y int, b Boundary) int {
	neighbors := 0
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			nx, ny := x+dx, y+dy
			if b == Toroidal {
				nx, ny = g.Wrap(nx, ny)
			} else if !g.InBounds(nx, ny) {
				continue
			}
			if g.Get(nx, ny) {
				neighbors++
			}
		}
	}
	return neighbors
}
