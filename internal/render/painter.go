//go:build ebiten

package render

import "github.com/hajimehoshi/ebiten/v2"

// GridPainter uploads a Canvas into a texture and draws it scaled.
type GridPainter struct {
	img *ebiten.Image
	buf []byte
}

// NewGridPainter allocates a painter for a w×h grid.
func NewGridPainter(w, h int) *GridPainter {
	return &GridPainter{img: ebiten.NewImage(max(w, 1), max(h, 1)), buf: make([]byte, w*h*4)}
}

// Blit draws the canvas onto screen, one scale×scale square per cell.
func (p *GridPainter) Blit(screen *ebiten.Image, c *Canvas, scale int) {
	if w, h := c.Size(); w == 0 || h == 0 {
		return
	}
	if c.Pixels(p.buf) {
		p.img.WritePixels(p.buf)
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(scale), float64(scale))
	op.Filter = ebiten.FilterNearest
	screen.DrawImage(p.img, op)
}
