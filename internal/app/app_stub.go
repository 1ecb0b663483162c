//go:build !ebiten

package app

import (
	"errors"

	"lifesync/internal/logging"
)

// ErrNoGUI is returned by New in builds without the ebiten tag.
var ErrNoGUI = errors.New("app: the viewer requires building with the 'ebiten' tag")

// Game is a placeholder that satisfies the API expected by the GUI build.
type Game struct{}

// New reports that the GUI build tag is missing.
func New(Config, *logging.Logger) (*Game, error) {
	return nil, ErrNoGUI
}

// Close is a no-op placeholder.
func (g *Game) Close() {}

// Update always reports that the GUI build tag is missing.
func (g *Game) Update() error { return ErrNoGUI }

// Draw is a no-op placeholder to satisfy the interface shape.
func (g *Game) Draw(any) {}

// Layout returns zeros in the headless build.
func (g *Game) Layout(int, int) (int, int) { return 0, 0 }
