package engine

import (
	"encoding/json"
	"fmt"

	"lifesync/pkg/core"
)

// Snapshot is an immutable copy of the simulation state at one instant.
// The zero value describes an empty, stopped grid.
type Snapshot struct {
	grid       *core.Grid
	Generation int
	Playing    bool
}

func newSnapshot(g *core.Grid, generation int, playing bool) Snapshot {
	return Snapshot{grid: g.Clone(), Generation: generation, Playing: playing}
}

// Width returns the number of columns.
func (s Snapshot) Width() int {
	if s.grid == nil {
		return 0
	}
	w, _ := s.grid.Dimensions()
	return w
}

// Height returns the number of rows.
func (s Snapshot) Height() int {
	if s.grid == nil {
		return 0
	}
	_, h := s.grid.Dimensions()
	return h
}

// Alive reports whether the cell at (x, y) was alive. It panics on an
// invalid address, like core.Grid.
func (s Snapshot) Alive(x, y int) bool {
	if s.grid == nil {
		panic(&core.OutOfBoundsError{X: x, Y: y})
	}
	return s.grid.Get(x, y)
}

// Population counts live cells.
func (s Snapshot) Population() int {
	if s.grid == nil {
		return 0
	}
	return s.grid.Alive()
}

// Rows returns a fresh [height][width] copy of the cells.
func (s Snapshot) Rows() [][]bool {
	if s.grid == nil {
		return [][]bool{}
	}
	return s.grid.Rows()
}

// Grid returns a deep copy of the snapshot grid.
func (s Snapshot) Grid() *core.Grid {
	if s.grid == nil {
		return core.NewGrid(0, 0)
	}
	return s.grid.Clone()
}

type snapshotJSON struct {
	Grid       [][]bool `json:"grid"`
	Generation int      `json:"generation"`
	Playing    bool     `json:"playing"`
}

// MarshalJSON encodes the snapshot as {"grid","generation","playing"}.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	return json.Marshal(snapshotJSON{Grid: s.Rows(), Generation: s.Generation, Playing: s.Playing})
}

// UnmarshalJSON decodes a snapshot, rejecting ragged grids.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var raw snapshotJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	g, err := core.NewGridFromRows(raw.Grid)
	if err != nil {
		return fmt.Errorf("decoding snapshot grid: %w", err)
	}
	*s = Snapshot{grid: g, Generation: raw.Generation, Playing: raw.Playing}
	return nil
}

// CellDelta describes a single cell change.
type CellDelta struct {
	X     int  `json:"x"`
	Y     int  `json:"y"`
	Alive bool `json:"alive"`
}
