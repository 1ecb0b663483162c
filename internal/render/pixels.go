package render

import (
	"image/color"
	"sync"

	"lifesync/internal/engine"
)

var (
	// AliveColor is used for live cells.
	AliveColor = color.RGBA{R: 0x00, G: 0xd4, B: 0xaa, A: 0xff}
	// DeadColor is used for dead cells.
	DeadColor = color.RGBA{R: 0x16, G: 0x21, B: 0x3e, A: 0xff}
)

// Canvas is an RGBA pixel buffer, one pixel per cell, kept in sync with an
// engine through its notifications. Apply methods may be called from the
// engine's goroutines while the render loop reads Pixels.
type Canvas struct {
	mu      sync.Mutex
	w, h    int
	buf     []byte
	on, off color.Color
	dirty   bool
}

// NewCanvas returns a canvas of w×h cells, all dead.
func NewCanvas(w, h int) *Canvas {
	c := &Canvas{w: w, h: h, buf: make([]byte, w*h*4), on: AliveColor, off: DeadColor, dirty: true}
	fillBinaryRGBA(c.buf, make([]bool, w*h), c.on, c.off)
	return c
}

// Size returns the canvas dimensions in cells.
func (c *Canvas) Size() (int, int) { return c.w, c.h }

// ApplySnapshot repaints every cell from s. Snapshots of a different size
// are ignored.
func (c *Canvas) ApplySnapshot(s engine.Snapshot) {
	if s.Width() != c.w || s.Height() != c.h {
		return
	}
	cells := make([]bool, 0, c.w*c.h)
	for _, row := range s.Rows() {
		cells = append(cells, row...)
	}
	c.mu.Lock()
	fillBinaryRGBA(c.buf, cells, c.on, c.off)
	c.dirty = true
	c.mu.Unlock()
}

// ApplyDelta repaints a single cell.
func (c *Canvas) ApplyDelta(d engine.CellDelta) {
	if d.X < 0 || d.Y < 0 || d.X >= c.w || d.Y >= c.h {
		return
	}
	base := (d.Y*c.w + d.X) * 4
	c.mu.Lock()
	fillBinaryRGBA(c.buf[base:base+4], []bool{d.Alive}, c.on, c.off)
	c.dirty = true
	c.mu.Unlock()
}

// Pixels copies the buffer into dst when it changed since the last call and
// reports whether it did.
func (c *Canvas) Pixels(dst []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.dirty {
		return false
	}
	copy(dst, c.buf)
	c.dirty = false
	return true
}

// fillBinaryRGBA converts cell states into RGBA pixels in buf.
func fillBinaryRGBA(buf []byte, cells []bool, on, off color.Color) {
	rOn, gOn, bOn, aOn := on.RGBA()
	rOff, gOff, bOff, aOff := off.RGBA()
	for i, alive := range cells {
		base := i * 4
		if alive {
			buf[base+0] = uint8(rOn >> 8)
			buf[base+1] = uint8(gOn >> 8)
			buf[base+2] = uint8(bOn >> 8)
			buf[base+3] = uint8(aOn >> 8)
			continue
		}
		buf[base+0] = uint8(rOff >> 8)
		buf[base+1] = uint8(gOff >> 8)
		buf[base+2] = uint8(bOff >> 8)
		buf[base+3] = uint8(aOff >> 8)
	}
}
