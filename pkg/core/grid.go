package core

import (
	"errors"
	"fmt"
	"math"
)

// ErrOutOfBounds reports a cell address outside the grid extents.
var ErrOutOfBounds = errors.New("cell address out of bounds")

// OutOfBoundsError carries the offending address and the grid extents.
type OutOfBoundsError struct {
	X, Y int
	W, H int
}

func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf("cell (%d,%d) outside %dx%d grid", e.X, e.Y, e.W, e.H)
}

// Unwrap lets errors.Is match ErrOutOfBounds.
func (e *OutOfBoundsError) Unwrap() error { return ErrOutOfBounds }

// Grid stores a 2D grid of boolean cells in row-major order. Width and height
// are fixed for the lifetime of the grid.
type Grid struct {
	w, h  int
	cells []bool
}

// NewGrid allocates an all-dead grid. Negative dimensions, or dimensions
// whose cell count overflows int, panic.
func NewGrid(w, h int) *Grid {
	if w < 0 || h < 0 || (w > 0 && h > math.MaxInt/w) {
		panic(fmt.Sprintf("core: invalid grid size %dx%d", w, h))
	}
	return &Grid{w: w, h: h, cells: make([]bool, w*h)}
}

// NewGridFromRows builds a grid from row slices. Every row must have the same
// length.
func NewGridFromRows(rows [][]bool) (*Grid, error) {
	h := len(rows)
	w := 0
	if h > 0 {
		w = len(rows[0])
	}
	g := NewGrid(w, h)
	for y, row := range rows {
		if len(row) != w {
			return nil, fmt.Errorf("row %d has %d cells, want %d", y, len(row), w)
		}
		copy(g.cells[y*w:(y+1)*w], row)
	}
	return g, nil
}

// Dimensions returns the width and height.
func (g *Grid) Dimensions() (int, int) { return g.w, g.h }

// InBounds reports whether (x, y) addresses a cell.
func (g *Grid) InBounds(x, y int) bool {
	return x >= 0 && x < g.w && y >= 0 && y < g.h
}

// Index returns the linear slice index for coordinates (x, y).
func (g *Grid) Index(x, y int) int { return y*g.w + x }

// Wrap applies toroidal wrapping to the provided coordinates.
func (g *Grid) Wrap(x, y int) (int, int) {
	x = (x%g.w + g.w) % g.w
	y = (y%g.h + g.h) % g.h
	return x, y
}

// Get returns the cell at (x, y). It panics with *OutOfBoundsError when the
// address is invalid.
func (g *Grid) Get(x, y int) bool {
	g.mustContain(x, y)
	return g.cells[g.Index(x, y)]
}

// Set writes the cell at (x, y). It panics with *OutOfBoundsError when the
// address is invalid.
func (g *Grid) Set(x, y int, alive bool) {
	g.mustContain(x, y)
	g.cells[g.Index(x, y)] = alive
}

// Fill sets every cell to alive.
func (g *Grid) Fill(alive bool) {
	for i := range g.cells {
		g.cells[i] = alive
	}
}

// Alive counts live cells.
func (g *Grid) Alive() int {
	n := 0
	for _, c := range g.cells {
		if c {
			n++
		}
	}
	return n
}

// Clone returns a deep copy.
func (g *Grid) Clone() *Grid {
	g.mustBeConsistent()
	return &Grid{w: g.w, h: g.h, cells: append([]bool(nil), g.cells...)}
}

// Rows returns a freshly allocated [height][width] copy of the cells.
func (g *Grid) Rows() [][]bool {
	g.mustBeConsistent()
	rows := make([][]bool, g.h)
	for y := range rows {
		rows[y] = append([]bool(nil), g.cells[y*g.w:(y+1)*g.w]...)
	}
	return rows
}

// Equal reports whether both grids have the same size and cells.
func (g *Grid) Equal(o *Grid) bool {
	if g == nil || o == nil {
		return g == o
	}
	if g.w != o.w || g.h != o.h {
		return false
	}
	for i := range g.cells {
		if g.cells[i] != o.cells[i] {
			return false
		}
	}
	return true
}

func (g *Grid) mustContain(x, y int) {
	if !g.InBounds(x, y) {
		panic(&OutOfBoundsError{X: x, Y: y, W: g.w, H: g.h})
	}
}

// mustBeConsistent guards the row-major layout; a mismatch is a defect.
func (g *Grid) mustBeConsistent() {
	if len(g.cells) != g.w*g.h {
		panic(fmt.Sprintf("core: grid holds %d cells, want %dx%d", len(g.cells), g.w, g.h))
	}
}
