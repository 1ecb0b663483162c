package app

import (
	"time"

	"lifesync/internal/engine"
)

// Editor is the part of an engine the brush writes through.
type Editor interface {
	ToggleCell(x, y int) (engine.Snapshot, error)
	SetCell(x, y int, alive bool) (engine.Snapshot, error)
}

// CellAt maps a cursor position to a cell of a w×h grid drawn at scale.
func CellAt(px, py, scale, w, h int) (x, y int, ok bool) {
	if scale <= 0 || px < 0 || py < 0 {
		return 0, 0, false
	}
	x, y = px/scale, py/scale
	if x >= w || y >= h {
		return 0, 0, false
	}
	return x, y, true
}

// Brush turns mouse presses and drags into cell edits. A press toggles the
// cell under the cursor; dragging then paints the state that toggle produced.
type Brush struct {
	ed    Editor
	down  bool
	paint bool
	lastX int
	lastY int
}

// NewBrush returns a brush editing through ed.
func NewBrush(ed Editor) *Brush {
	return &Brush{ed: ed}
}

// Press toggles (x, y) and starts a stroke.
func (b *Brush) Press(x, y int) error {
	snap, err := b.ed.ToggleCell(x, y)
	if err != nil {
		return err
	}
	b.down = true
	b.paint = snap.Alive(x, y)
	b.lastX, b.lastY = x, y
	return nil
}

// Drag paints (x, y) when a stroke is active and the cursor moved to a new cell.
func (b *Brush) Drag(x, y int) error {
	if !b.down || (x == b.lastX && y == b.lastY) {
		return nil
	}
	b.lastX, b.lastY = x, y
	_, err := b.ed.SetCell(x, y, b.paint)
	return err
}

// Release ends the stroke.
func (b *Brush) Release() {
	b.down = false
}

// Action is a keyboard command.
type Action int

const (
	ActionTogglePlay Action = iota
	ActionStep
	ActionClear
	ActionRandomize
)

// Apply runs a on eng. ActionTogglePlay starts autoplay at interval or
// stops it when running.
func Apply(eng *engine.Engine, a Action, interval time.Duration) error {
	switch a {
	case ActionTogglePlay:
		if eng.Autoplaying() {
			eng.StopAutoplay()
			return nil
		}
		return eng.StartAutoplay(interval)
	case ActionStep:
		eng.Step()
	case ActionClear:
		eng.Clear()
	case ActionRandomize:
		eng.Randomize()
	}
	return nil
}
